// Copyright 2025 Sonia Keys
// License: MIT

package besselian

import (
	"github.com/soniakeys/meeus/v3/base"
	"github.com/soniakeys/meeus/v3/coord"
	"github.com/soniakeys/meeus/v3/globe"
	"github.com/soniakeys/meeus/v3/moonposition"
	"github.com/soniakeys/meeus/v3/nutation"
	"github.com/soniakeys/meeus/v3/sidereal"
	"github.com/soniakeys/meeus/v3/solar"
	"github.com/soniakeys/unit"

	"github.com/soniakeys/eclipsemap/deltat"
)

// Ephemeris supplies the geocentric positions needed to compute Besselian
// elements.  All times are JDE (TT).  Positions are apparent, referred to
// the equinox of date, and must be geocentric: topocentric corrections
// would break the fundamental-plane geometry.
type Ephemeris interface {
	// Sun returns apparent equatorial coordinates of the Sun and its
	// distance in au.
	Sun(jde float64) (α unit.RA, δ unit.Angle, Δ float64)
	// Moon returns apparent equatorial coordinates of the Moon and its
	// distance in km.
	Moon(jde float64) (α unit.RA, δ unit.Angle, Δ float64)
	// GAST returns Greenwich apparent sidereal time at the UT instant
	// corresponding to jde.
	GAST(jde float64) unit.Time
	// Earth returns the reference ellipsoid.
	Earth() globe.Ellipsoid
}

// MeeusEphemeris is the default Ephemeris, built on the meeus/v3 series:
// solar coordinates from ch. 25, lunar position from the abridged ELP of
// ch. 47, sidereal time from ch. 12, ΔT by Espenak-Meeus.
//
// Accuracy is that of the underlying series, about 10″ for the Moon.  For
// eclipse cartography this moves ground tracks by a few tens of km.
type MeeusEphemeris struct{}

// Sun implements Ephemeris.
func (MeeusEphemeris) Sun(jde float64) (α unit.RA, δ unit.Angle, Δ float64) {
	α, δ = solar.ApparentEquatorial(jde)
	Δ = solar.Radius(base.J2000Century(jde))
	return
}

// Moon implements Ephemeris.
func (MeeusEphemeris) Moon(jde float64) (α unit.RA, δ unit.Angle, Δ float64) {
	λ, β, Δ := moonposition.Position(jde) // λ without nutation
	Δψ, Δε := nutation.Nutation(jde)
	ε := nutation.MeanObliquity(jde) + Δε
	α, δ = coord.EclToEq(λ+Δψ, β, ε.Sin(), ε.Cos())
	return α, δ, Δ
}

// GAST implements Ephemeris.
func (MeeusEphemeris) GAST(jde float64) unit.Time {
	ut := jde - deltat.EspenakMeeus(jde).Day()
	return sidereal.Apparent(ut)
}

// Earth implements Ephemeris.
func (MeeusEphemeris) Earth() globe.Ellipsoid {
	return globe.Earth76
}
