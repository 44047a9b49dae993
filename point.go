// Copyright 2025 Sonia Keys
// License: MIT

package eclipsemap

import (
	"math"

	"github.com/soniakeys/unit"

	"github.com/soniakeys/eclipsemap/besselian"
)

// oblate holds the oblate-Earth reduction quantities for a shadow-axis
// declination d.  Subscript 1 refers to the auxiliary sphere of the
// fundamental-plane reduction, d1−d2 is the rotation between the
// fundamental frame and the frame aligned with the Earth's axis.
type oblate struct {
	ρ1, ρ2   float64
	sd1, cd1 float64
	sdd, cdd float64 // sin, cos of (d1−d2)
}

func (c *Computer) oblateAt(d float64) (o oblate) {
	sd, cd := math.Sincos(d)
	o.ρ1 = math.Sqrt(1 - c.e2*cd*cd)
	o.ρ2 = math.Sqrt(1 - c.e2*sd*sd)
	o.sd1 = sd / o.ρ1
	o.cd1 = math.Sqrt(1-c.e2) * cd / o.ρ1
	o.sdd = c.e2 * sd * cd / (o.ρ1 * o.ρ2)
	o.cdd = math.Sqrt(1 - o.sdd*o.sdd)
	return o
}

// geographic converts fundamental-frame direction cosines (ξ, η1, ζ1) of
// a surface point to geographic coordinates, μ in degrees.
func (c *Computer) geographic(ξ, η1, ζ1 float64, o oblate, μ float64) GeoPoint {
	b := -η1*o.sd1 + ζ1*o.cd1
	θ := math.Atan2(ξ, b) * 180 / math.Pi
	sfn1 := η1*o.cd1 + ζ1*o.sd1
	cfn1 := math.Sqrt(1 - sfn1*sfn1)
	return GeoPoint{
		Lon: pmod180(θ - μ),
		Lat: math.Atan(c.ff*sfn1/cfn1) * 180 / math.Pi,
	}
}

// contactPoint returns the geographic point under the shadow axis (or,
// for an extreme contact, under the point of the shadow circle nearest
// the Earth), on the Earth's limb as seen down the axis.
func (c *Computer) contactPoint(ep besselian.Elements) GeoPoint {
	o := c.oblateAt(ep.D)
	y1 := ep.Y / o.ρ1
	m1 := math.Hypot(ep.X, y1)
	return c.geographic(ep.X/m1, y1/m1, 0, o, ep.Mu)
}

// riseSetLinePoint returns the point where the shadow circle of radius L
// crosses the Earth's terminator, i.e. the border of the fundamental
// plane.  The first flag selects which of the (up to two) intersections.
// ok is false when the circle misses the border entirely.
func (c *Computer) riseSetLinePoint(first bool, x, y, d, L, μ float64) (p GeoPoint, ok bool) {
	o := c.oblateAt(d)

	// Semi-minor axis of the elliptic cross section of the Earth in the
	// fundamental plane (in Earth radii).
	sd, cd := math.Sincos(d)
	k := 1 / math.Sqrt(sd*sd+cd*cd/(1-c.e2))

	// Simultaneous equations: the ellipse of the Earth's border crossed
	// by the fundamental plane and the circle of the shadow edge,
	//
	//	ξ² + η²/k² = 1
	//	(ξ−x)² + (η−y)² = L²
	//
	// Parametrizing the border as ξ = cos t, η = k sin t leaves a single
	// equation for the shadow border in t,
	//
	//	(cos t − x)² + (k sin t − y)² = L²,
	//
	// solved by Newton's method with deflation of found roots.
	lhsAndDerivative := func(t float64) (lhs, lhsPrime float64) {
		sint, cost := math.Sincos(t)
		lhs = (cost-x)*(cost-x) + (k*sint-y)*(k*sint-y) - L*L
		lhsPrime = 2*x*sint + 2*cost*((k*k-1)*sint-k*y)
		return
	}

	var ts []float64
	t := 0.
	for rootFound := true; rootFound && len(ts) < 2; {
		rootFound = false
		finalIteration := false
		for n := 0; n < 50; n++ {
			lhs, lhsPrime := lhsAndDerivative(t)

			// Cancel the known roots to avoid finding them instead
			// of the remaining ones.
			newLHS, newLHSPrime := deflate(lhs, lhsPrime, t, ts)

			if math.Abs(newLHS) < 1e-10 {
				finalIteration = true
			}
			deltaT := newLHS / newLHSPrime
			if newLHSPrime == 0 || math.Abs(deltaT) > 1000 {
				// Shooting too far away; perturb t and retry.
				t += .01
				finalIteration = false
				continue
			}
			t -= deltaT
			t = unit.PMod(t, 2*math.Pi)

			if finalIteration {
				ts = append(ts, t)
				// New initial value, avoiding the vicinity of
				// the root just found.
				if math.Abs(t) > .5 {
					t = 0
				} else {
					t = -math.Pi / 2
				}
				rootFound = true
				break
			}
		}
	}
	if len(ts) == 0 {
		return p, false
	}

	var ξ, η float64
	if len(ts) == 1 {
		ξ = math.Cos(ts[0])
		η = k * math.Sin(ts[0])
	} else {
		// Whether a solution is "first" or "second" depends on which
		// side of the (0,0)−(x,y) line it is: the z component of the
		// vector product (x,y,0)×(ξ,η,0) decides.
		ξ0, η0 := math.Cos(ts[0]), k*math.Sin(ts[0])
		ξ1, η1 := math.Cos(ts[1]), k*math.Sin(ts[1])
		vecProdZ0 := x*η0 - y*ξ0
		use0 := vecProdZ0 > 0
		if first {
			use0 = vecProdZ0 < 0
		}
		if use0 {
			ξ, η = ξ0, η0
		} else {
			ξ, η = ξ1, η1
		}
	}

	η1 := η / o.ρ1
	ζ1 := η1 * o.sdd / o.cdd // ζ = 0 on the terminator
	return c.geographic(ξ, η1, ζ1, o, μ), true
}

// shadowOutlinePoint returns the surface point under the shadow-cone limb
// at position angle angle, for the cone of fundamental-plane radius L and
// half-angle tangent tf.  ok is false when the limb ray misses the Earth.
func (c *Computer) shadowOutlinePoint(angle, x, y, d, L, tf, μ float64) (p GeoPoint, ok bool) {
	o := c.oblateAt(d)
	sinAngle, cosAngle := math.Sincos(angle)

	// Iterate the shadow radius at the height of the surface point.
	var ξ, η1 float64
	ζ1 := 0.
	for n := 0; n < 3; n++ {
		L1 := L - ζ1*tf
		ξ = x - L1*sinAngle
		η1 = (y - L1*cosAngle) / o.ρ1
		ζ1sqr := 1 - ξ*ξ - η1*η1
		if ζ1sqr < 0 {
			return p, false
		}
		ζ1 = math.Sqrt(ζ1sqr)
	}
	return c.geographic(ξ, η1, ζ1, o, μ), true
}

// maxEclipseAtRiseSet returns the point of the sunrise/sunset terminator
// where the eclipse is at maximum at jd.  The two branches of the curve
// are selected with first.  ok is false when no such point exists at jd.
//
// Iteration as described in equations (11.89) and (11.94) of the
// Explanatory Supplement, 3rd edition.
func (c *Computer) maxEclipseAtRiseSet(first bool, jd float64) (p GeoPoint, ok bool) {
	bp := c.rates(jd, true)
	x, y, d, L1, μ := bp.El.X, bp.El.Y, bp.El.D, bp.El.L1, bp.El.Mu
	o := c.oblateAt(d)

	qa := math.Atan2(bp.Bdot, bp.Cdot)
	if !first { // the second of the two parts of the curve
		qa += math.Pi
	}
	sgqa := x*math.Cos(qa) - y*math.Sin(qa)

	ρ := 1.
	var γ float64
	for n := 0; n < 3; n++ {
		if math.Abs(sgqa/ρ) > 1 {
			return p, false
		}
		gqa := math.Asin(sgqa / ρ)
		γ = gqa + qa
		cosγ := math.Cos(γ)
		ρ1sinγ := o.ρ1 * math.Sin(γ)
		// simplified sin(atan2(ρ1 sin γ, cos γ))
		sinγʹ := ρ1sinγ / math.Hypot(ρ1sinγ, cosγ)
		ρ = sinγʹ / math.Sin(γ)
	}

	ξ := ρ * math.Sin(γ)
	η := ρ * math.Cos(γ)
	if (x-ξ)*(x-ξ)+(y-η)*(y-η) > L1*L1 {
		return p, false
	}

	η1 := η / o.ρ1
	ζ1 := η1 * o.sdd / o.cdd
	return c.geographic(ξ, η1, ζ1, o, μ), true
}

// timePoint converts a shadow-limit solution (Q, ζ) at the Besselian
// state bp to geographic coordinates.
func (c *Computer) timePoint(bp besselian.Rates, Q, ζ float64, penumbra bool) GeoPoint {
	ep := bp.El
	o := c.oblateAt(ep.D)
	tf, L := ep.TanF2, ep.L2
	if penumbra {
		tf, L = ep.TanF1, ep.L1
	}

	sinQ, cosQ := math.Sincos(Q)
	Lz := L - ζ*tf // radius of the shadow at distance ζ from the fundamental plane
	ξ := ep.X - Lz*sinQ
	η := ep.Y - Lz*cosQ
	η1 := η / o.ρ1
	ζ1 := (ζ/o.ρ2 + η1*o.sdd) / o.cdd

	if math.Abs(η) > 1.0001 || math.Abs(ξ) > 1.0001 || math.Abs(ζ) > 1.0001 {
		c.warnf("unnormalized vector (ξ,η,ζ) = (%.17g, %.17g, %.17g); Q = %.17g°",
			ξ, η, ζ, unit.PMod(Q, 2*math.Pi)*180/math.Pi)
	}
	return c.geographic(ξ, η1, ζ1, o, ep.Mu)
}

// deflate cancels known roots of a 2π-periodic function from the value
// and derivative of its LHS at t by dividing by sin((t−root)/2) for each
// root.  The derivative update must stay in this form: simplifying it
// algebraically introduces catastrophic cancellation near the roots.
func deflate(lhs, lhsPrime, t float64, roots []float64) (newLHS, newLHSPrime float64) {
	newLHS, newLHSPrime = lhs, lhsPrime
	for _, root := range roots {
		sinDiff, cosDiff := math.Sincos((t - root) / 2)
		newLHS /= sinDiff
		newLHSPrime = (newLHSPrime - .5*cosDiff*newLHS) / sinDiff
	}
	return
}
