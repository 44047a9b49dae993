// Copyright 2025 Sonia Keys
// License: MIT

package eclipsemap

import "math"

// deltaTimeOfContact returns the correction in hours from jd to a contact
// time.  With external true the contact is between the shadow's limb and
// the Earth's limb (outerContact selecting the outer or inner tangency),
// otherwise between the shadow center and the Earth's limb.  The penumbra
// flag selects the L1/L2 cone.
func (c *Computer) deltaTimeOfContact(jd float64, beginning, penumbra, external, outerContact bool) float64 {
	sign := 1.
	if !outerContact {
		sign = -1
	}
	bp := c.rates(jd, true)
	xdot, ydot := bp.Xdot, bp.Ydot
	ep := bp.El
	ρ1 := math.Sqrt(1 - c.e2*math.Cos(ep.D)*math.Cos(ep.D))
	if !penumbra {
		ydot /= ρ1
	}
	n := math.Hypot(xdot, ydot)
	y1 := ep.Y / ρ1
	m := math.Hypot(ep.X, ep.Y)
	m1 := math.Hypot(ep.X, y1)
	ρ := m / m1
	L := ep.L1
	if !penumbra {
		L = ep.L2
	}
	var s float64
	if external {
		s = (ep.X*ydot - ep.Y*xdot) / (n * (L + sign*ρ)) // shadow's limb
	} else {
		s = (ep.X*ydot - xdot*y1) / n // center of shadow
	}
	cs := math.Sqrt(1 - s*s)
	if beginning {
		cs = -cs
	}
	var dt float64
	if external {
		dt = (L + sign*ρ) * cs / n
		if outerContact {
			dt -= (ep.X*xdot + ep.Y*ydot) / (n * n)
		} else {
			dt = -(ep.X*xdot+ep.Y*ydot)/(n*n) - dt
		}
	} else {
		dt = cs/n - (ep.X*xdot+y1*ydot)/(n*n)
	}
	return dt
}

// jdOfContact iterates deltaTimeOfContact from jd to 0.1 s.
func (c *Computer) jdOfContact(jd float64, beginning, penumbra, external, outerContact bool) float64 {
	dt := 1.
	for iterations := 0; math.Abs(dt) > .1/3600 && iterations < 10; iterations++ {
		dt = c.deltaTimeOfContact(jd, beginning, penumbra, external, outerContact)
		jd += dt / 24
	}
	return jd
}

// jdOfMinimumDistance iterates from jd to the instant the shadow axis
// passes closest to the center of the Earth, to 0.1 s.
func (c *Computer) jdOfMinimumDistance(jd float64) float64 {
	dt := 1.
	for iterations := 0; math.Abs(dt) > .1/3600 && iterations < 20; iterations++ {
		bp := c.rates(jd, true)
		n2 := bp.Xdot*bp.Xdot + bp.Ydot*bp.Ydot
		dt = -(bp.El.X*bp.Xdot + bp.El.Y*bp.Ydot) / n2
		jd += dt / 24
	}
	return jd
}
