// Copyright 2025 Sonia Keys
// License: MIT

// Besselian: Besselian elements of solar eclipses.
//
// The elements describe the geometry of the Moon's shadow relative to the
// fundamental plane, the plane through the center of the Earth perpendicular
// to the shadow axis.
//
// Reference: Explanatory Supplement to the Astronomical Ephemeris and the
// American Ephemeris and Nautical Almanac (1961), ch. 9.
package besselian

import (
	"math"

	"github.com/pkg/errors"
	"github.com/soniakeys/unit"
)

// ErrEphemeris indicates the ephemeris produced a non-finite result.
var ErrEphemeris = errors.New("ephemeris returned non-finite result")

// Ratio of Sun/Earth equatorial radius: 696000/6378.1366.
// Earth's equatorial radius 6378.1366 km per IERS Conventions (2003).
// NASA's solar eclipse predictions use a solar radius of 696,000 km,
// from the IAU 1976 solar radius (959.63″ at 1 au).
const SunEarth = 109.12278

// Ratios of Moon/Earth equatorial radius.  K = 0.2725076 is the IAU value,
// used for penumbral contacts.  S = 0.272281 is the smaller radius used by
// Espenak/NASA for umbral contacts, eliminating extreme cases when the
// Moon's apparent diameter is very close to the Sun's but cannot completely
// cover it.
// Source: Solar Eclipse Predictions and the Mean Lunar Radius,
// http://eclipsewise.com/solar/SEhelp/SEradius.html
const (
	K = 0.2725076
	S = 0.272281
)

// auEarthRadii is 1 au in Earth equatorial radii: 149597870.8/6378.1366.
const auEarthRadii = 23454.7925

// Elements holds instantaneous Besselian elements of a solar eclipse.
type Elements struct {
	X     float64 // x of the shadow axis on the fundamental plane, Earth radii
	Y     float64 // y of the shadow axis on the fundamental plane, Earth radii
	D     float64 // declination of the shadow axis, radians
	Mu    float64 // Greenwich hour angle of the shadow axis, degrees [0,360)
	TanF1 float64 // tangent of the penumbral cone half-angle
	TanF2 float64 // tangent of the umbral cone half-angle
	L1    float64 // radius of the penumbra on the fundamental plane, Earth radii
	L2    float64 // radius of the umbra on the fundamental plane, Earth radii
}

// ElementsAt computes Besselian elements from geocentric ephemeris
// positions at the given JDE.
func ElementsAt(e Ephemeris, jde float64) (el Elements, err error) {
	αs, δs, sdistAU := e.Sun(jde)
	αm, δm, mdistKm := e.Moon(jde)
	raSun, deSun := αs.Rad(), δs.Rad()
	raMoon, deMoon := αm.Rad(), δm.Rad()
	mdistER := mdistKm / e.Earth().Er
	gast := e.GAST(jde).Sec() / 240 // degrees

	// Keep the RA difference continuous across 0h.
	raDiff := unit.PMod(raMoon-raSun, 2*math.Pi)
	if raDiff > math.Pi {
		raDiff -= 2 * math.Pi
	}

	rss := sdistAU * auEarthRadii
	b := mdistER / rss
	a := raSun - b*math.Cos(deMoon)*raDiff/((1-b)*math.Cos(deSun))
	el.D = deSun - b*(deMoon-deSun)/(1-b)
	el.X = math.Cos(deMoon) * math.Sin(raMoon-a) * mdistER
	el.Y = (math.Cos(el.D)*math.Sin(deMoon) -
		math.Cos(deMoon)*math.Sin(el.D)*math.Cos(raMoon-a)) * mdistER
	z := (math.Sin(deMoon)*math.Sin(el.D) +
		math.Cos(deMoon)*math.Cos(el.D)*math.Cos(raMoon-a)) * mdistER

	// Shadow cone parameters.
	f1 := math.Asin((SunEarth + K) / (rss * (1 - b)))
	el.TanF1 = math.Tan(f1)
	f2 := math.Asin((SunEarth - S) / (rss * (1 - b)))
	el.TanF2 = math.Tan(f2)
	el.L1 = z*el.TanF1 + K/math.Cos(f1)
	el.L2 = z*el.TanF2 - S/math.Cos(f2)
	el.Mu = unit.PMod(gast-a*180/math.Pi, 360)

	for _, v := range []float64{el.X, el.Y, el.D, el.Mu,
		el.TanF1, el.TanF2, el.L1, el.L2} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return el, errors.Wrapf(ErrEphemeris, "at JDE %.6f", jde)
		}
	}
	return el, nil
}

// Rates holds hourly rates of change of Besselian elements, together with
// the elements at the instant they were evaluated and a few derived
// quantities used by the shadow-limit equations.
type Rates struct {
	Xdot   float64 // Earth radii per hour
	Ydot   float64 // Earth radii per hour
	Ddot   float64
	Mudot  float64 // radians per hour
	Ldot   float64 // Earth radii per hour, L1 or L2 per the penumbra flag
	Etadot float64
	Bdot   float64
	Cdot   float64
	El     Elements
}

// RatesAt computes hourly rates at the given JDE by centered differences
// over a ±5 minute window.  With penumbra true the L1/tan f₁ pair drives
// Ldot and Cdot, otherwise the L2/tan f₂ pair.
func RatesAt(e Ephemeris, jde float64, penumbra bool) (Rates, error) {
	return RatesFrom(func(jd float64) (Elements, error) {
		return ElementsAt(e, jd)
	}, jde, penumbra)
}

// RatesFrom is like RatesAt but evaluates elements through the given
// function, which may memoize.
func RatesFrom(at func(jde float64) (Elements, error), jde float64, penumbra bool) (r Rates, err error) {
	ep1, err := at(jde - 5./1440)
	if err != nil {
		return r, err
	}
	ep2, err := at(jde + 5./1440)
	if err != nil {
		return r, err
	}
	r.Xdot = (ep2.X - ep1.X) * 6
	r.Ydot = (ep2.Y - ep1.Y) * 6
	r.Ddot = (ep2.D - ep1.D) * 6 * math.Pi / 180
	mudot := ep2.Mu - ep1.Mu
	if mudot < 0 {
		mudot += 360 // in case μ wrapped between the samples
	}
	r.Mudot = mudot * 6 * math.Pi / 180
	if r.El, err = at(jde); err != nil {
		return r, err
	}
	var tf, L float64
	if penumbra {
		L = r.El.L1
		tf = r.El.TanF1
		r.Ldot = (ep2.L1 - ep1.L1) * 6
	} else {
		L = r.El.L2
		tf = r.El.TanF2
		r.Ldot = (ep2.L2 - ep1.L2) * 6
	}
	sd, cd := math.Sincos(r.El.D)
	r.Etadot = r.Mudot * r.El.X * sd
	r.Bdot = -(r.Ydot - r.Etadot)
	r.Cdot = r.Xdot + r.Mudot*r.El.Y*sd + r.Mudot*L*tf*cd
	return r, nil
}
