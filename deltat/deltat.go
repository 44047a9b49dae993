// Copyright 2025 Sonia Keys
// License: MIT

// Deltat: ΔT, the difference TT − UT1.
//
// The polynomial expressions are the fits published by Espenak and Meeus in
// "Five Millennium Canon of Solar Eclipses" (NASA/TP-2006-214141), the
// expressions NASA's eclipse predictions are based on.
//
// ΔT = TT − UT, where
//
//	TT "Terrestrial Time" (formerly TDT, ET) is the uniform time scale of
//	ephemerides, and
//	UT "Universal Time" follows the rotation of the Earth.
//
// The return value is ΔT as a unit.Time (seconds).
package deltat

import (
	"github.com/soniakeys/meeus/v3/base"
	"github.com/soniakeys/meeus/v3/julian"
	"github.com/soniakeys/unit"
)

// EspenakMeeus returns ΔT at the given JDE by the Espenak-Meeus piecewise
// polynomial fits.
//
// Outside the fitted range the long-term parabola −20 + 32u²,
// u = (year−1820)/100, is used.
func EspenakMeeus(jde float64) (ΔT unit.Time) {
	y, m, _ := julian.JDToCalendar(jde)
	return EspenakMeeusYear(float64(y) + (float64(m)-.5)/12)
}

// EspenakMeeusYear returns ΔT for a decimal year.
func EspenakMeeusYear(year float64) (ΔT unit.Time) {
	var d float64
	switch {
	case year < -500:
		u := (year - 1820) / 100
		d = -20 + 32*u*u
	case year < 500:
		u := year / 100
		d = base.Horner(u, 10583.6, -1014.41, 33.78311, -5.952053,
			-.1798452, .022174192, .0090316521)
	case year < 1600:
		u := (year - 1000) / 100
		d = base.Horner(u, 1574.2, -556.01, 71.23472, .319781,
			-.8503463, -.005050998, .0083572073)
	case year < 1700:
		t := year - 1600
		d = base.Horner(t, 120, -.9808, -.01532, 1/7129.)
	case year < 1800:
		t := year - 1700
		d = base.Horner(t, 8.83, .1603, -.0059285, .00013336, -1/1174000.)
	case year < 1860:
		t := year - 1800
		d = base.Horner(t, 13.72, -.332447, .0068612, .0041116, -.00037436,
			.0000121272, -.0000001699, .000000000875)
	case year < 1900:
		t := year - 1860
		d = base.Horner(t, 7.62, .5737, -.251754, .01680668, -.0004473624,
			1/233174.)
	case year < 1920:
		t := year - 1900
		d = base.Horner(t, -2.79, 1.494119, -.0598939, .0061966, -.000197)
	case year < 1941:
		t := year - 1920
		d = base.Horner(t, 21.2, .84493, -.0761, .0020936)
	case year < 1961:
		t := year - 1950
		d = base.Horner(t, 29.07, .407, -1/233., 1/2547.)
	case year < 1986:
		t := year - 1975
		d = base.Horner(t, 45.45, 1.067, -1/260., -1/718.)
	case year < 2005:
		t := year - 2000
		d = base.Horner(t, 63.86, .3345, -.060374, .0017275, .000651814,
			.00002373599)
	case year < 2050:
		t := year - 2000
		d = base.Horner(t, 62.92, .32217, .005589)
	case year < 2150:
		u := (year - 1820) / 100
		d = -20 + 32*u*u - .5628*(2150-year)
	default:
		u := (year - 1820) / 100
		d = -20 + 32*u*u
	}
	return unit.Time(d)
}
