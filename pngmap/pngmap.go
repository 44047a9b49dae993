// Copyright 2025 Sonia Keys
// License: MIT

// Pngmap: equirectangular world-map rendering of eclipse map data.
//
// The canvas is a 2:1 plate carrée: the origin at the image center, the y
// axis up, one world unit per degree.  Curves are drawn as great-circle
// arcs, split where they cross the antimeridian so no segment wraps
// across the map.
package pngmap

import (
	"image"
	"image/color"
	"math"

	"github.com/fogleman/gg"

	"github.com/soniakeys/eclipsemap"
)

var (
	hybridColor  = color.RGBA{R: 0x80, G: 0x00, B: 0x80, A: 0xff}
	totalColor   = color.RGBA{R: 0xff, G: 0x00, B: 0x00, A: 0xff}
	annularColor = color.RGBA{R: 0x00, G: 0x00, B: 0xff, A: 0xff}
	limitsColor  = color.RGBA{R: 0x00, G: 0xff, B: 0x00, A: 0xff}
	oceanColor   = color.RGBA{R: 0x16, G: 0x2a, B: 0x43, A: 0xff}
)

func typeColor(t eclipsemap.EclipseType) color.Color {
	switch t {
	case eclipsemap.Total:
		return totalColor
	case eclipsemap.Annular:
		return annularColor
	case eclipsemap.Hybrid:
		return hybridColor
	}
	return limitsColor
}

// Render draws data onto base, which must be a 2:1 equirectangular world
// map.  With base nil a plain ocean-colored canvas of the given width is
// used instead.  The result is a newly allocated image.
func Render(data *eclipsemap.EclipseMapData, base image.Image, width int) image.Image {
	var dc *gg.Context
	if base != nil {
		dc = gg.NewContextForImage(base)
		width = dc.Width()
	} else {
		dc = gg.NewContext(width, width/2)
		dc.SetColor(oceanColor)
		dc.Clear()
	}
	w := float64(width)
	dc.Translate(w/2, float64(dc.Height())/2)
	scale := w / 360
	dc.Scale(scale, -scale) // latitude grows upwards
	dc.SetLineWidth(math.Max(1, math.Round(w/2048)))

	setPen := func(c color.Color) { dc.SetColor(c) }

	setPen(limitsColor)
	for _, limit := range data.PenumbraLimits {
		drawGeoLines(dc, geoTime(limit))
	}
	for _, limit := range data.RiseSetLimits {
		switch limit.Kind {
		case eclipsemap.TwoLimits:
			drawGeoLines(dc, limit.P12)
			drawGeoLines(dc, limit.P34)
		default:
			drawGeoLines(dc, limit.Curve)
		}
	}
	for _, curve := range data.MaxEclipseAtRiseSet {
		drawGeoLines(dc, geoTime(curve))
	}
	if len(data.CenterLine) > 0 {
		setPen(typeColor(data.Type))
		drawGeoLines(dc, data.CenterLine)
	}
	for _, limit := range data.UmbraLimits {
		setPen(typeColor(data.Type))
		drawGeoLines(dc, geoTime(limit))
	}
	for _, outline := range data.UmbraOutlines {
		setPen(typeColor(outline.Type))
		drawGeoLines(dc, outline.Curve)
	}
	return dc.Image()
}

func geoTime(curve []eclipsemap.GeoTimePoint) []eclipsemap.GeoPoint {
	points := make([]eclipsemap.GeoPoint, len(curve))
	for i, p := range curve {
		points[i] = eclipsemap.GeoPoint{Lon: p.Lon, Lat: p.Lat}
	}
	return points
}

type vec3 [3]float64

func spheToRect(lon, lat float64) vec3 {
	sl, cl := math.Sincos(lon)
	sb, cb := math.Sincos(lat)
	return vec3{cl * cb, sl * cb, sb}
}

func rectToSphe(v vec3) (lon, lat float64) {
	return math.Atan2(v[1], v[0]), math.Asin(v[2] / v.norm())
}

func (v vec3) norm() float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

func (v vec3) scale(s float64) vec3 {
	return vec3{v[0] * s, v[1] * s, v[2] * s}
}

func (v vec3) sub(u vec3) vec3 {
	return vec3{v[0] - u[0], v[1] - u[1], v[2] - u[2]}
}

func (v vec3) add(u vec3) vec3 {
	return vec3{v[0] + u[0], v[1] + u[1], v[2] + u[2]}
}

func dot(v, u vec3) float64 {
	return v[0]*u[0] + v[1]*u[1] + v[2]*u[2]
}

func normalize(v vec3) vec3 {
	return v.scale(1 / v.norm())
}

// drawContinuousLine draws the great-circle arc between two geographic
// points (degrees) known not to cross the antimeridian, subdivided to
// steps of no more than 2°.
func drawContinuousLine(dc *gg.Context, a, b eclipsemap.GeoPoint) {
	lineLengthDeg := math.Hypot(b.Lon-a.Lon, b.Lat-a.Lat)
	// Short enough lines go the simple way.
	if lineLengthDeg < 2 {
		dc.DrawLine(a.Lon, a.Lat, b.Lon, b.Lat)
		dc.Stroke()
		return
	}

	// Order them west to east.
	if a.Lon > b.Lon {
		a, b = b, a
	}
	const p = math.Pi / 180
	dirA := spheToRect(p*a.Lon, p*a.Lat)
	dirB := spheToRect(p*b.Lon, p*b.Lat)
	cosAngleBetweenDirs := dot(dirA, dirB)
	angleMax := math.Acos(cosAngleBetweenDirs)

	// An orthonormal pair spanning the plane in which we rotate from the
	// first direction towards the second, tracing the shortest line on
	// the unit sphere between them.
	firstDir := dirA
	secondDir := normalize(dirB.sub(firstDir.scale(cosAngleBetweenDirs)))

	prevPoint := firstDir
	// Keep the step no greater than 2°.
	numPoints := math.Max(3, math.Ceil(lineLengthDeg/2)+1)
	for n := 1.; n < numPoints; n++ {
		α := n / (numPoints - 1) * angleMax
		currPoint := firstDir.scale(math.Cos(α)).add(secondDir.scale(math.Sin(α)))

		lon1, lat1 := rectToSphe(prevPoint)
		lon2, lat2 := rectToSphe(currPoint)
		// If the current point happens to have wrapped around 180°,
		// bring it back to the eastern side (this relies on the
		// ordering of the endpoints).
		if a.Lon > 0 && lon2 < 0 {
			lon2 += 2 * math.Pi
		}
		dc.DrawLine(lon1/p, lat1/p, lon2/p, lat2/p)
		dc.Stroke()
		prevPoint = currPoint
	}
}

// drawGeoLines draws a polyline of geographic points as great-circle
// arcs, splitting any segment that crosses the antimeridian into two
// continuous draws.
func drawGeoLines(dc *gg.Context, points []eclipsemap.GeoPoint) {
	if len(points) == 0 {
		return
	}
	const p = math.Pi / 180
	prevDir := spheToRect(p*points[0].Lon, p*points[0].Lat)
	for n := 1; n < len(points); n++ {
		currDir := spheToRect(p*points[n].Lon, p*points[n].Lat)
		cosAngleBetweenDirs := dot(prevDir, currDir)
		// The orthonormal pair spanning the rotation plane, as in
		// drawContinuousLine.  The parametric equation of the
		// connecting line is
		//
		//	P(α) = cos(α)·firstDir + sin(α)·secondDir,  α > 0
		//
		// (α < 0 would go the longer way around the sphere).  The
		// line crosses the 180° meridian iff P(α).y == 0 && P(α).x < 0
		// for some α on the arc; these are the solutions for α.
		firstDir := prevDir
		secondDir := normalize(currDir.sub(firstDir.scale(cosAngleBetweenDirs)))
		α1 := math.Atan2(firstDir[1], -secondDir[1])
		α2 := math.Atan2(-firstDir[1], secondDir[1])
		firstSolutionBad := α1 < 0 || math.Cos(α1) < cosAngleBetweenDirs
		secondSolutionBad := α2 < 0 || math.Cos(α2) < cosAngleBetweenDirs
		// A line that doesn't cross 180° is not split.
		if firstSolutionBad && secondSolutionBad {
			drawContinuousLine(dc, points[n-1], points[n])
			prevDir = currDir
			continue
		}

		α := α1
		if firstSolutionBad {
			α = α2
		}
		P := firstDir.scale(math.Cos(α)).add(secondDir.scale(math.Sin(α)))
		// Crossings of 0° don't matter.
		if P[0] > 0 {
			drawContinuousLine(dc, points[n-1], points[n])
			prevDir = currDir
			continue
		}

		// Split the line by the crossing point.
		crossLonRad, crossLatRad := rectToSphe(P)
		crossLon := crossLonRad / p
		crossLat := crossLatRad / p
		sameSign := (crossLon < 0 && points[n-1].Lon < 0) ||
			(crossLon >= 0 && points[n-1].Lon >= 0)
		if !sameSign {
			crossLon = -crossLon
		}
		drawContinuousLine(dc, points[n-1], eclipsemap.GeoPoint{Lon: crossLon, Lat: crossLat})
		drawContinuousLine(dc, points[n], eclipsemap.GeoPoint{Lon: -crossLon, Lat: crossLat})

		prevDir = currDir
	}
}
