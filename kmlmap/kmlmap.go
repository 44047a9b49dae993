// Copyright 2025 Sonia Keys
// License: MIT

// Kmlmap: KML serialization of eclipse map data.
//
// The generated document mirrors the layout eclipse cartography tools
// conventionally use: shared styles per eclipse type, point placemarks for
// the contacts, and one LineString placemark per curve.
package kmlmap

import (
	"image/color"
	"io"

	kml "github.com/twpayne/go-kml/v2"

	"github.com/soniakeys/eclipsemap"
	"github.com/soniakeys/eclipsemap/deltat"
	"github.com/soniakeys/meeus/v3/julian"
)

// Style colors.  KML byte order (aabbggrr) is handled by the library.
var (
	hybridColor  = color.RGBA{R: 0x80, G: 0x00, B: 0x80, A: 0xff}
	totalColor   = color.RGBA{R: 0xff, G: 0x00, B: 0x00, A: 0xff}
	annularColor = color.RGBA{R: 0x00, G: 0x00, B: 0xff, A: 0xff}
	limitsColor  = color.RGBA{R: 0x00, G: 0xff, B: 0x00, A: 0xff}
)

// styleID returns the shared style for an eclipse type; the PLimits style
// covers everything that is not type-specific.
func styleID(t eclipsemap.EclipseType) string {
	switch t {
	case eclipsemap.Total:
		return "Total"
	case eclipsemap.Annular:
		return "Annular"
	case eclipsemap.Hybrid:
		return "Hybrid"
	}
	return "PLimits"
}

// timeString formats a TT JD as a UTC timestamp for placemark names.
func timeString(jd float64) string {
	ut := jd - deltat.EspenakMeeus(jd).Day()
	return julian.JDToTime(ut).UTC().Format("2006-01-02 15:04:05 UTC")
}

func sharedStyle(id string, c color.Color) kml.Element {
	return kml.SharedStyle(id,
		kml.LineStyle(kml.Color(c), kml.Width(1)),
		kml.PolyStyle(kml.Color(c)),
	)
}

func pointPlacemark(name string, p eclipsemap.GeoTimePoint) kml.Element {
	return kml.Placemark(
		kml.Name(name+" ("+timeString(p.JD)+")"),
		kml.Point(kml.Coordinates(kml.Coordinate{Lon: p.Lon, Lat: p.Lat})),
	)
}

func linePlacemark(name string, t eclipsemap.EclipseType, coords []kml.Coordinate) kml.Element {
	return kml.Placemark(
		kml.Name(name),
		kml.StyleURL("#"+styleID(t)),
		kml.LineString(
			kml.Extrude(true),
			kml.Tessellate(true),
			kml.AltitudeMode(kml.AltitudeModeAbsolute),
			kml.Coordinates(coords...),
		),
	)
}

func geoCoords(curve []eclipsemap.GeoPoint) []kml.Coordinate {
	coords := make([]kml.Coordinate, len(curve))
	for i, p := range curve {
		coords[i] = kml.Coordinate{Lon: p.Lon, Lat: p.Lat}
	}
	return coords
}

func geoTimeCoords(curve []eclipsemap.GeoTimePoint) []kml.Coordinate {
	coords := make([]kml.Coordinate, len(curve))
	for i, p := range curve {
		coords[i] = kml.Coordinate{Lon: p.Lon, Lat: p.Lat}
	}
	return coords
}

// Write serializes data as a KML document named name to w.
func Write(w io.Writer, data *eclipsemap.EclipseMapData, name string) error {
	doc := kml.Document(
		kml.Name(name),
		kml.Description("Created by eclipsemap"),
		sharedStyle("Hybrid", hybridColor),
		sharedStyle("Total", totalColor),
		sharedStyle("Annular", annularColor),
		sharedStyle("PLimits", limitsColor),
		pointPlacemark("Greatest eclipse", data.GreatestEclipse),
		pointPlacemark("First contact with Earth", data.FirstContactWithEarth),
		pointPlacemark("Last contact with Earth", data.LastContactWithEarth),
	)

	for _, limit := range data.PenumbraLimits {
		doc.Add(linePlacemark("PenumbraLimit", eclipsemap.Undefined,
			geoTimeCoords(limit)))
	}

	for _, limit := range data.RiseSetLimits {
		switch limit.Kind {
		case eclipsemap.TwoLimits:
			doc.Add(linePlacemark("RiseSetLimit", eclipsemap.Undefined,
				geoCoords(limit.P12)))
			doc.Add(linePlacemark("RiseSetLimit", eclipsemap.Undefined,
				geoCoords(limit.P34)))
		default:
			doc.Add(linePlacemark("RiseSetLimit", eclipsemap.Undefined,
				geoCoords(limit.Curve)))
		}
	}

	for _, curve := range data.MaxEclipseAtRiseSet {
		doc.Add(linePlacemark("MaxEclipseSunriseSunset", eclipsemap.Undefined,
			geoTimeCoords(curve)))
	}

	if data.CentralEclipseStart.JD > 0 {
		doc.Add(pointPlacemark("Central eclipse begins", data.CentralEclipseStart))
	}
	if data.CentralEclipseEnd.JD > 0 {
		doc.Add(pointPlacemark("Central eclipse ends", data.CentralEclipseEnd))
	}
	if len(data.CenterLine) > 0 {
		doc.Add(linePlacemark("Center line", data.Type, geoCoords(data.CenterLine)))
	}

	for _, outline := range data.UmbraOutlines {
		doc.Add(linePlacemark(timeString(outline.JD), outline.Type,
			geoCoords(outline.Curve)))
	}

	for _, limit := range data.UmbraLimits {
		doc.Add(linePlacemark("Limit", data.Type, geoTimeCoords(limit)))
	}

	return kml.KML(doc).WriteIndent(w, "", "  ")
}
