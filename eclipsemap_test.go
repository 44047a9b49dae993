// Copyright 2025 Sonia Keys
// License: MIT

package eclipsemap_test

import (
	"math"
	"reflect"
	"testing"

	"github.com/soniakeys/eclipsemap"
	"github.com/soniakeys/eclipsemap/besselian"
)

// JDEs of greatest eclipse for the tested eclipses.
const (
	jdTotal2024   = 2460409.2620 // 2024-04-08 18:17 TT, total
	jdAnnular2023 = 2460232.2505 // 2023-10-14 18:01 TT, annular
	jdHybrid2023  = 2460054.6783 // 2023-04-20 04:17 TT, hybrid
	jdPartial2022 = 2459877.9585 // 2022-10-25 11:00 TT, partial
)

// Maps are expensive; generate each once.
var mapCache = map[float64]*eclipsemap.EclipseMapData{}

func generate(t *testing.T, jd float64) *eclipsemap.EclipseMapData {
	t.Helper()
	if data, ok := mapCache[jd]; ok {
		return data
	}
	c := eclipsemap.New(besselian.MeeusEphemeris{})
	data, err := c.GenerateMap(jd)
	if err != nil {
		t.Fatal(err)
	}
	mapCache[jd] = data
	return data
}

// Position tolerances are set by the abridged lunar theory of the default
// ephemeris (≈10″ for the Moon), which moves ground tracks by a few tens
// of km, not by the precision of the algorithms.
const posTolDeg = .6

func TestTotal2024(t *testing.T) {
	data := generate(t, jdTotal2024)
	if data.Type != eclipsemap.Total {
		t.Fatalf("eclipse type = %v, want Total", data.Type)
	}
	ge := data.GreatestEclipse
	if math.Abs(ge.Lat-25.3) > posTolDeg || math.Abs(ge.Lon - -104.1) > posTolDeg {
		t.Errorf("greatest eclipse at (%.2f, %.2f), want ≈(25.3, −104.1)",
			ge.Lat, ge.Lon)
	}
	if ge.JD != jdTotal2024 {
		t.Errorf("greatest eclipse JD = %f, want %f", ge.JD, jdTotal2024)
	}
	c1 := data.CentralEclipseStart
	if c1.JD < 0 {
		t.Fatal("no C1 for a central eclipse")
	}
	// C1 is in the South Pacific.
	if c1.Lat > 0 || c1.Lon > -90 || c1.Lon < -180 {
		t.Errorf("C1 at (%.2f, %.2f), want South Pacific", c1.Lat, c1.Lon)
	}
	c2 := data.CentralEclipseEnd
	if c2.JD < 0 {
		t.Fatal("no C2 for a central eclipse")
	}
	// C2 is in the Atlantic off Newfoundland.
	if c2.Lat < 30 || c2.Lon < -60 || c2.Lon > 0 {
		t.Errorf("C2 at (%.2f, %.2f), want North Atlantic", c2.Lat, c2.Lon)
	}
	if !(data.FirstContactWithEarth.JD < c1.JD && c1.JD < ge.JD &&
		ge.JD < c2.JD && c2.JD < data.LastContactWithEarth.JD) {
		t.Errorf("contact times out of order: P1 %f C1 %f GE %f C2 %f P4 %f",
			data.FirstContactWithEarth.JD, c1.JD, ge.JD, c2.JD,
			data.LastContactWithEarth.JD)
	}
	if len(data.CenterLine) == 0 {
		t.Error("empty center line")
	}
	if len(data.PenumbraLimits) == 0 {
		t.Error("no penumbra limits")
	}
	if len(data.UmbraLimits) == 0 {
		t.Error("no umbra limits")
	}
	if len(data.UmbraOutlines) == 0 {
		t.Error("no umbra outlines")
	}
}

func TestAnnular2023(t *testing.T) {
	data := generate(t, jdAnnular2023)
	if data.Type != eclipsemap.Annular {
		t.Fatalf("eclipse type = %v, want Annular", data.Type)
	}
	ge := data.GreatestEclipse
	if math.Abs(ge.Lat-11.4) > posTolDeg || math.Abs(ge.Lon - -83.1) > posTolDeg {
		t.Errorf("greatest eclipse at (%.2f, %.2f), want ≈(11.4, −83.1)",
			ge.Lat, ge.Lon)
	}
	if len(data.CenterLine) == 0 {
		t.Fatal("empty center line")
	}
	// The central line traverses the Americas.
	for _, p := range data.CenterLine {
		if p.Lon < -180 || p.Lon > 0 {
			t.Errorf("center line point (%.2f, %.2f) outside the western hemisphere",
				p.Lat, p.Lon)
			break
		}
	}
}

func TestHybrid2023(t *testing.T) {
	data := generate(t, jdHybrid2023)
	if data.Type != eclipsemap.Hybrid {
		t.Fatalf("eclipse type = %v, want Hybrid", data.Type)
	}
	if len(data.CenterLine) == 0 {
		t.Error("empty center line")
	}
}

func TestPartial2022(t *testing.T) {
	data := generate(t, jdPartial2022)
	if data.Type != eclipsemap.Undefined {
		t.Fatalf("eclipse type = %v, want Undefined for a partial eclipse", data.Type)
	}
	if len(data.CenterLine) != 0 {
		t.Error("partial eclipse with a center line")
	}
	if len(data.UmbraOutlines) != 0 {
		t.Error("partial eclipse with umbra outlines")
	}
	if len(data.UmbraLimits) != 0 {
		t.Error("partial eclipse with umbra limits")
	}
	if data.CentralEclipseStart.JD > 0 || data.CentralEclipseEnd.JD > 0 {
		t.Error("partial eclipse with central contacts")
	}
	if len(data.PenumbraLimits) == 0 {
		t.Error("no penumbra limits")
	}
	nonEmpty := 0
	for _, curve := range data.MaxEclipseAtRiseSet {
		if len(curve) > 0 {
			nonEmpty++
		}
	}
	if nonEmpty == 0 {
		t.Error("no max-eclipse-at-rise/set curves")
	}
}

func TestBadJD(t *testing.T) {
	c := eclipsemap.New(besselian.MeeusEphemeris{})
	// New moon nowhere near a node: 2024-01-11.
	_, err := c.GenerateMap(2460320.5)
	if err == nil {
		t.Fatal("expected an error for a JD with no eclipse")
	}
}

func TestGeoPointRanges(t *testing.T) {
	data := generate(t, jdTotal2024)
	check := func(what string, lon, lat float64) {
		if lat > 90 { // sentinel, excluded
			return
		}
		if lon <= -180 || lon > 180 || lat < -90 {
			t.Errorf("%s: point out of range (%.4f, %.4f)", what, lat, lon)
		}
	}
	for _, l := range data.PenumbraLimits {
		for _, p := range l {
			check("penumbra limit", p.Lon, p.Lat)
		}
	}
	for _, l := range data.UmbraLimits {
		for _, p := range l {
			check("umbra limit", p.Lon, p.Lat)
		}
	}
	for _, curve := range data.MaxEclipseAtRiseSet {
		for _, p := range curve {
			check("max eclipse at rise/set", p.Lon, p.Lat)
		}
	}
	for _, p := range data.CenterLine {
		check("center line", p.Lon, p.Lat)
	}
	for _, o := range data.UmbraOutlines {
		for _, p := range o.Curve {
			check("umbra outline", p.Lon, p.Lat)
		}
	}
}

func TestLimitMonotonicity(t *testing.T) {
	data := generate(t, jdTotal2024)
	for kind, limits := range map[string][][]eclipsemap.GeoTimePoint{
		"penumbra": data.PenumbraLimits,
		"umbra":    data.UmbraLimits,
	} {
		for n, l := range limits {
			for i := 1; i < len(l); i++ {
				if l[i].JD <= l[i-1].JD {
					t.Errorf("%s limit %d not monotone in JD at %d", kind, n, i)
					break
				}
			}
		}
	}
}

func TestUmbraOutlinesClosed(t *testing.T) {
	data := generate(t, jdTotal2024)
	for _, o := range data.UmbraOutlines {
		if len(o.Curve) == 0 {
			continue
		}
		if o.Curve[0] != o.Curve[len(o.Curve)-1] {
			t.Errorf("outline at JD %f not closed", o.JD)
		}
		if o.Type != eclipsemap.Total && o.Type != eclipsemap.Annular {
			t.Errorf("outline at JD %f has type %v", o.JD, o.Type)
		}
	}
}

func TestCenterLineEndpoints(t *testing.T) {
	data := generate(t, jdTotal2024)
	const arcsec = 1. / 3600
	cl := data.CenterLine
	c1, c2 := data.CentralEclipseStart, data.CentralEclipseEnd
	if math.Abs(cl[0].Lat-c1.Lat) > arcsec || math.Abs(cl[0].Lon-c1.Lon) > arcsec {
		t.Errorf("center line starts at (%.5f, %.5f), C1 at (%.5f, %.5f)",
			cl[0].Lat, cl[0].Lon, c1.Lat, c1.Lon)
	}
	last := cl[len(cl)-1]
	if math.Abs(last.Lat-c2.Lat) > arcsec || math.Abs(last.Lon-c2.Lon) > arcsec {
		t.Errorf("center line ends at (%.5f, %.5f), C2 at (%.5f, %.5f)",
			last.Lat, last.Lon, c2.Lat, c2.Lon)
	}
}

func TestMaxEclipseCurveDensity(t *testing.T) {
	data := generate(t, jdTotal2024)
	for n, curve := range data.MaxEclipseAtRiseSet {
		// The point joining the two branches is appended after
		// refinement, so the first and last segments are exempt.
		for i := 2; i < len(curve)-1; i++ {
			a, b := curve[i-1], curve[i]
			if a.Lat > 90 || b.Lat > 90 { // sentinel
				continue
			}
			dLat := a.Lat - b.Lat
			dLon := math.Mod(b.Lon-a.Lon+540, 360) - 180
			if math.Hypot(dLat, dLon) > 5.01 {
				t.Errorf("curve %d: step %d–%d is %.2f°, want ≤ 5°",
					n, i-1, i, math.Hypot(dLat, dLon))
			}
		}
	}
}

func TestIdempotence(t *testing.T) {
	if testing.Short() {
		t.Skip("regenerates a full map")
	}
	c1 := eclipsemap.New(besselian.MeeusEphemeris{})
	d1, err := c1.GenerateMap(jdAnnular2023)
	if err != nil {
		t.Fatal(err)
	}
	c2 := eclipsemap.New(besselian.MeeusEphemeris{})
	d2, err := c2.GenerateMap(jdAnnular2023)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(d1, d2) {
		t.Error("two runs with the same JD differ")
	}
}
