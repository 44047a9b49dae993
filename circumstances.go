// Copyright 2025 Sonia Keys
// License: MIT

package eclipsemap

import "math"

// circumstances of a solar eclipse at one instant, at the point of
// maximum eclipse.
type circumstances struct {
	dRatio    float64 // Moon/Sun apparent diameter ratio
	lat, lon  float64 // degrees
	altitude  float64 // degrees, Sun altitude at maximum eclipse
	pathWidth float64 // km
	duration  float64 // central phase, minutes; meaningful for central only
	magnitude float64
}

// eclipseData computes the circumstances at jd.  When the shadow axis
// touches Earth the central values (duration, path width) are included,
// otherwise the maximum eclipse on the day side of the terminator is
// characterized and duration and path width are zero.
func (c *Computer) eclipseData(jd float64) (r circumstances) {
	ep := c.elements(jd)
	sd, cd := math.Sincos(ep.D)
	ρ1 := math.Sqrt(1 - c.e2*cd*cd)
	η1 := ep.Y / ρ1
	sd1 := sd / ρ1
	cd1 := math.Sqrt(1-c.e2) * cd / ρ1
	ρ2 := math.Sqrt(1 - c.e2*sd*sd)
	sd1d2 := c.e2 * sd * cd / (ρ1 * ρ2)
	cd1d2 := math.Sqrt(1 - sd1d2*sd1d2)
	p := 1 - ep.X*ep.X - η1*η1

	if p > 0 { // central eclipse: the shadow axis touches Earth
		ζ1 := math.Sqrt(p)
		ζ := ρ2 * (ζ1*cd1d2 - η1*sd1d2)
		L2a := ep.L2 - ζ*ep.TanF2
		b := -ep.Y*sd + ζ*cd
		θ := math.Atan2(ep.X, b) * 180 / math.Pi
		r.lon = pmod180(θ - ep.Mu)
		sfn1 := η1*cd1 + ζ1*sd1
		cfn1 := math.Sqrt(1 - sfn1*sfn1)
		r.lat = math.Atan(c.ff*sfn1/cfn1) * 180 / math.Pi
		L1a := ep.L1 - ζ*ep.TanF1
		r.magnitude = L1a / (L1a + L2a)
		r.dRatio = 1 + (r.magnitude-1)*2

		ep1 := c.elements(jd - 5./1440)
		ep2 := c.elements(jd + 5./1440)

		// Hourly rates.
		xdot := (ep2.X - ep1.X) * 6
		ydot := (ep2.Y - ep1.Y) * 6
		ddot := (ep2.D - ep1.D) * 6
		mudot := ep2.Mu - ep1.Mu
		if mudot < 0 {
			mudot += 360
		}
		mudot = mudot * 6 * math.Pi / 180

		// Duration of the central phase in minutes.
		ηdot := mudot*ep.X*sd - ddot*ζ
		ξdot := mudot * (-ep.Y*sd + ζ*cd)
		n := math.Hypot(xdot-ξdot, ydot-ηdot)
		r.duration = L2a * 120 / n // positive: annular, negative: total

		// Approximate altitude.
		r.altitude = math.Asin(cfn1*cd*math.Cos(θ*math.Pi/180)+sfn1*sd) * 180 / math.Pi

		// Path width in kilometers.
		// Explanatory Supplement to the Astronomical Almanac,
		// Seidelmann, ed. (1992).
		// For central eclipses where only part of the umbra/antumbra
		// touches Earth the result is too wide; the umbra limit
		// computation decides whether to trust it.
		p1 := ζ * ζ
		p2 := ep.X * (xdot - ξdot) / n
		p3 := η1 * (ydot - ηdot) / n
		p4 := (p2 + p3) * (p2 + p3)
		r.pathWidth = math.Abs(c.earthRkm * 2 * L2a / math.Sqrt(p1+p4))
	} else { // partial or non-central eclipse
		m1 := math.Hypot(ep.X, η1)
		ξ := ep.X / m1
		η1 := η1 / m1
		ζ := ρ2 * (-η1 * sd1d2)
		b := -η1 * sd1
		θ := math.Atan2(ξ, b)
		sfn1 := η1 * cd1
		cfn1 := math.Sqrt(1 - sfn1*sfn1)
		lat := math.Atan(c.ff * sfn1 / cfn1)
		L1 := ep.L1 - ζ*ep.TanF1
		L2 := ep.L2 - ζ*ep.TanF2
		// Reduce to the point on the spheroid's surface.
		cn := 1 / math.Sqrt(1-c.e2*math.Sin(lat)*math.Sin(lat))
		sn := (1 - c.e2) * cn
		rs := sn * math.Sin(lat)
		rc := cn * math.Cos(lat)
		ξ = rc * math.Sin(θ)
		η := rs*cd - rc*sd*math.Cos(θ)
		u := ep.X - ξ
		v := ep.Y - η
		r.magnitude = (L1 - math.Hypot(u, v)) / (L1 + L2)
		r.dRatio = 1 + (r.magnitude-1)*2
		r.lon = pmod180(θ*180/math.Pi - ep.Mu)
		r.lat = lat * 180 / math.Pi
	}
	return r
}
