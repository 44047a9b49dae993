// Copyright 2025 Sonia Keys
// License: MIT

package kmlmap_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/soniakeys/eclipsemap"
	"github.com/soniakeys/eclipsemap/kmlmap"
)

func sampleData() *eclipsemap.EclipseMapData {
	return &eclipsemap.EclipseMapData{
		GreatestEclipse:       eclipsemap.GeoTimePoint{JD: 2460409.2793, Lon: -104.1, Lat: 25.3},
		FirstContactWithEarth: eclipsemap.GeoTimePoint{JD: 2460409.15, Lon: -150, Lat: -8},
		LastContactWithEarth:  eclipsemap.GeoTimePoint{JD: 2460409.41, Lon: -30, Lat: 50},
		CentralEclipseStart:   eclipsemap.GeoTimePoint{JD: 2460409.2, Lon: -160, Lat: -10},
		CentralEclipseEnd:     eclipsemap.GeoTimePoint{JD: 2460409.36, Lon: -42, Lat: 49},
		PenumbraLimits: [][]eclipsemap.GeoTimePoint{
			{{JD: 2460409.2, Lon: -120, Lat: 40}, {JD: 2460409.21, Lon: -119, Lat: 41}},
		},
		RiseSetLimits: [2]eclipsemap.RiseSetLimit{
			{Kind: eclipsemap.TwoLimits,
				P12: []eclipsemap.GeoPoint{{Lon: -150, Lat: -8}, {Lon: -149, Lat: -7}},
				P34: []eclipsemap.GeoPoint{{Lon: -31, Lat: 49}, {Lon: -30, Lat: 50}}},
			{Kind: eclipsemap.SingleLimit,
				Curve: []eclipsemap.GeoPoint{{Lon: -150, Lat: -8}, {Lon: -30, Lat: 50}}},
		},
		MaxEclipseAtRiseSet: [][]eclipsemap.GeoTimePoint{
			{{JD: 2460409.2, Lon: -100, Lat: 10}, {JD: 2460409.22, Lon: -99, Lat: 12}},
		},
		CenterLine: []eclipsemap.GeoPoint{{Lon: -160, Lat: -10}, {Lon: -42, Lat: 49}},
		UmbraOutlines: []eclipsemap.UmbraOutline{
			{JD: 2460409.25, Type: eclipsemap.Total,
				Curve: []eclipsemap.GeoPoint{{Lon: -104, Lat: 25}, {Lon: -103, Lat: 25}, {Lon: -104, Lat: 25}}},
		},
		UmbraLimits: [][]eclipsemap.GeoTimePoint{
			{{JD: 2460409.2, Lon: -105, Lat: 24}, {JD: 2460409.21, Lon: -104, Lat: 25}},
		},
		Type: eclipsemap.Total,
	}
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	if err := kmlmap.Write(&buf, sampleData(), "Solar Eclipse 2024-04-08"); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	for _, want := range []string{
		"<name>Solar Eclipse 2024-04-08</name>",
		`<Style id="Total">`,
		`<Style id="Annular">`,
		`<Style id="Hybrid">`,
		`<Style id="PLimits">`,
		"<color>ff0000ff</color>", // Total, aabbggrr
		"<color>ffff0000</color>", // Annular
		"<color>ff800080</color>", // Hybrid
		"<color>ff00ff00</color>", // PLimits
		"<name>Greatest eclipse (2024-04-08 18:40:57 UTC)</name>",
		"First contact with Earth",
		"Last contact with Earth",
		"Central eclipse begins",
		"Central eclipse ends",
		"<name>PenumbraLimit</name>",
		"<name>RiseSetLimit</name>",
		"<name>MaxEclipseSunriseSunset</name>",
		"<name>Center line</name>",
		"<name>Limit</name>",
		"<styleUrl>#Total</styleUrl>",
		"<styleUrl>#PLimits</styleUrl>",
		"<tessellate>1</tessellate>",
		"<altitudeMode>absolute</altitudeMode>",
		"-104.1,25.3",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q", want)
		}
	}

	// Three RiseSetLimit placemarks: two for TwoLimits, one for
	// SingleLimit.
	if n := strings.Count(out, "<name>RiseSetLimit</name>"); n != 3 {
		t.Errorf("%d RiseSetLimit placemarks, want 3", n)
	}
}

func TestWriteEmptyCentral(t *testing.T) {
	data := sampleData()
	data.CentralEclipseStart.JD = -1
	data.CentralEclipseEnd.JD = -1
	data.CenterLine = nil
	data.UmbraOutlines = nil
	data.UmbraLimits = nil
	data.Type = eclipsemap.Undefined

	var buf bytes.Buffer
	if err := kmlmap.Write(&buf, data, "partial"); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, absent := range []string{
		"Central eclipse begins",
		"Central eclipse ends",
		"Center line",
		"<name>Limit</name>",
	} {
		if strings.Contains(out, absent) {
			t.Errorf("output for a partial eclipse contains %q", absent)
		}
	}
}
