// Copyright 2025 Sonia Keys
// License: MIT

package pngmap

import (
	"image"
	"testing"

	"github.com/fogleman/gg"

	"github.com/soniakeys/eclipsemap"
)

func TestRenderSize(t *testing.T) {
	data := &eclipsemap.EclipseMapData{
		CenterLine: []eclipsemap.GeoPoint{{Lon: -30, Lat: 0}, {Lon: 30, Lat: 10}},
		Type:       eclipsemap.Total,
	}
	img := Render(data, nil, 512)
	b := img.Bounds()
	if b.Dx() != 512 || b.Dy() != 256 {
		t.Fatalf("image is %dx%d, want 512x256", b.Dx(), b.Dy())
	}
}

func TestRenderBasePreserved(t *testing.T) {
	base := image.NewRGBA(image.Rect(0, 0, 360, 180))
	img := Render(&eclipsemap.EclipseMapData{}, base, 0)
	b := img.Bounds()
	if b.Dx() != 360 || b.Dy() != 180 {
		t.Fatalf("image is %dx%d, want the base map's 360x180", b.Dx(), b.Dy())
	}
}

func TestRenderDrawsCurve(t *testing.T) {
	data := &eclipsemap.EclipseMapData{
		PenumbraLimits: [][]eclipsemap.GeoTimePoint{
			{{JD: 1, Lon: -10, Lat: 0}, {JD: 2, Lon: 10, Lat: 0}},
		},
	}
	img := Render(data, nil, 512)
	// The segment runs along the equator through (0,0), which maps to
	// the image center.
	found := false
	cx, cy := 256, 128
	for x := cx - 2; x <= cx+2 && !found; x++ {
		for y := cy - 2; y <= cy+2; y++ {
			if greenish(img, x, y) {
				found = true
				break
			}
		}
	}
	if !found {
		t.Error("no limit-colored pixel at the image center")
	}
}

// greenish tolerates the antialiased edges of a stroked line.
func greenish(img image.Image, x, y int) bool {
	r, g, b, _ := img.At(x, y).RGBA()
	return g>>8 > 0x80 && g>>8 > r>>8+0x40 && g>>8 > b>>8+0x40
}

// equirectContext builds a drawing context with the same transform Render
// uses.
func equirectContext(width int) *gg.Context {
	dc := gg.NewContext(width, width/2)
	dc.SetColor(oceanColor)
	dc.Clear()
	w := float64(width)
	dc.Translate(w/2, float64(width/2)/2)
	dc.Scale(w/360, -w/360)
	dc.SetLineWidth(2)
	dc.SetColor(limitsColor)
	return dc
}

func TestAntimeridianSplit(t *testing.T) {
	dc := equirectContext(512)
	drawGeoLines(dc, []eclipsemap.GeoPoint{
		{Lon: 179, Lat: 10}, {Lon: -179, Lat: 10},
	})
	img := dc.Image()

	isDrawn := func(x, y int) bool { return greenish(img, x, y) }
	// Latitude 10° maps to y = 128 − 10·(512/360) ≈ 114.
	y := 114
	// Pixels near both edges of the map must be drawn.
	edges := 0
	for x := 0; x < 4; x++ {
		for dy := -2; dy <= 2; dy++ {
			if isDrawn(x, y+dy) {
				edges++
				break
			}
		}
	}
	for x := 508; x < 512; x++ {
		for dy := -2; dy <= 2; dy++ {
			if isDrawn(x, y+dy) {
				edges++
				break
			}
		}
	}
	if edges == 0 {
		t.Error("no pixels drawn at the map edges")
	}
	// Nothing may be drawn across the middle of the map.
	for x := 200; x < 312; x++ {
		for dy := -3; dy <= 3; dy++ {
			if isDrawn(x, y+dy) {
				t.Fatalf("pixel at (%d,%d): segment crossed the map center", x, y+dy)
			}
		}
	}
}

func TestShortSegmentNotSplit(t *testing.T) {
	dc := equirectContext(512)
	drawGeoLines(dc, []eclipsemap.GeoPoint{
		{Lon: -1, Lat: 0}, {Lon: 1, Lat: 0},
	})
	img := dc.Image()
	found := false
	for y := 126; y <= 130 && !found; y++ {
		found = greenish(img, 256, y)
	}
	if !found {
		t.Error("short segment through (0,0) not drawn at the center")
	}
}
