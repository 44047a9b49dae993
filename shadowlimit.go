// Copyright 2025 Sonia Keys
// License: MIT

package eclipsemap

import (
	"math"
	"sort"

	"github.com/soniakeys/unit"

	"github.com/soniakeys/eclipsemap/besselian"
)

const (
	minutesToDays = 1. / (24 * 60)
	secondsToDays = 1. / (24 * 3600)
)

// zetaFromQ returns ζ of the shadow-limit point at limb angle Q.
//
// From equation (11.81) of the Explanatory Supplement, 3rd edition,
// restoring the missing dots over a, b, c in the book (cf. eq. (11.78)).
func zetaFromQ(cosQ, sinQ, tf float64, bp besselian.Rates) float64 {
	x, y, d := bp.El.X, bp.El.Y, bp.El.D
	mudot, bdot, cdot, ddot := bp.Mudot, bp.Bdot, bp.Cdot, bp.Ddot
	cosd := math.Cos(d)
	adot := -bp.Ldot - mudot*x*tf*cosd + y*ddot*tf
	return (-adot + bdot*cosQ - cdot*sinQ) /
		((1 + tf*tf) * (ddot*cosQ - mudot*cosd*sinQ))
}

// qZeta is one solution of the shadow-limit equation.
type qZeta struct {
	Q float64
	ζ float64
}

// shadowLimitSample is the set of shadow-limit solutions at one instant.
type shadowLimitSample struct {
	bp  besselian.Rates
	jd  float64
	pts []qZeta
}

// shadowLimitQs finds all angles Q at which the limb of the penumbral or
// umbral cone is tangent to the Earth ellipsoid at jd.
//
// The equation being solved is obtained from the main identity (11.56),
//
//	ξ² + η1² + ζ1² = 1,
//
// and (11.60),
//
//	ζ = ρ2·(ζ1·cos(d1−d2) − η1·sin(d1−d2)).
//
// Solve the latter for ζ1 and substitute into the former, multiply by
// ρ1²ρ2²cos²(d1−d2), substitute ξ = x − L·sin Q, η = y − L·cos Q with
// L = l − ζ·tan f (eqs. (11.82), (11.65)), and replace ζ by the
// expression of zetaFromQ.  After multiplying by (1+tan²f)² the result
// is a trigonometric polynomial of total degree 4 in cos Q and sin Q.
// Newton's method needs the separated powers cosⁱQ·sinʲQ to differentiate,
// which yields the 15 coefficients below.  They are kept exactly in this
// form: sign cancellations between the terms are deliberate.
func (c *Computer) shadowLimitQs(jd float64, penumbra bool) shadowLimitSample {
	bp := c.rates(jd, penumbra)
	x, y, d := bp.El.X, bp.El.Y, bp.El.D
	bdot, cdot, ddot, mudot := bp.Bdot, bp.Cdot, bp.Ddot, bp.Mudot
	tf, L := bp.El.TanF2, bp.El.L2
	if penumbra {
		tf, L = bp.El.TanF1, bp.El.L1
	}
	sind, cosd := math.Sincos(d)
	adot := -bp.Ldot - mudot*x*tf*cosd + y*ddot*tf

	rho1 := math.Sqrt(1 - c.e2*cosd*cosd)
	rho2 := math.Sqrt(1 - c.e2*sind*sind)
	sdd := c.e2 * sind * cosd / (rho1 * rho2) // sin(d1-d2)
	cdd := math.Sqrt(1 - sdd*sdd)             // cos(d1-d2)

	// Convenience variables shortening the coefficients.
	tfSp1 := 1 + tf*tf
	tfSp12 := tfSp1 * tfSp1
	x2 := x * x
	y2 := y * y
	adot2 := adot * adot
	bdot2 := bdot * bdot
	cdot2 := cdot * cdot
	rho12 := rho1 * rho1
	rho22 := rho2 * rho2
	cdd2 := cdd * cdd

	// Coefficients of the LHS of the equation being solved.

	// constant term
	cC0S0 := adot2 * rho12

	// cos(Q)
	cC1S0 := 2 * adot * rho1 * (-(bdot * rho1) + rho2*sdd*(adot*tf-ddot*tfSp1*y))
	// cos(Q)^2
	cC2S0 := bdot2*rho12 + 2*bdot*rho1*rho2*sdd*(-2*adot*tf+ddot*tfSp1*y) +
		rho2*(2*adot*ddot*tfSp1*(L*rho1*sdd-rho2*tf*y) + adot2*rho2*tf*tf +
			cdd2*rho12*rho2*tfSp12*ddot*ddot*(-1+x2) +
			rho2*tfSp12*ddot*ddot*y2)
	// cos(Q)^3
	cC3S0 := -2 * rho2 * (-(bdot * tf) + ddot*L*tfSp1) * (bdot*rho1*sdd - adot*rho2*tf +
		ddot*rho2*tfSp1*y)
	// cos(Q)^4
	cC4S0 := rho22 * sqr(bdot*tf-ddot*L*tfSp1)

	// sin(Q)
	cC0S1 := 2 * adot * rho1 * (cdot*rho1 + cosd*mudot*rho2*sdd*tfSp1*y)
	// sin(Q)^2
	cC0S2 := cdot2*rho12 + 2*cdot*cosd*mudot*rho1*rho2*sdd*tfSp1*y +
		rho22*(cdd2*rho12*(adot*tf+cosd*mudot*tfSp1*(-1+x))*
			(adot*tf+cosd*mudot*tfSp1*(1+x)) +
			tfSp12*cosd*cosd*mudot*mudot*y2)
	// sin(Q)^3
	cC0S3 := -2 * cdd2 * rho12 * rho22 * (-(cdot * tf) + cosd*L*mudot*tfSp1) *
		(adot*tf + cosd*mudot*tfSp1*x)
	// sin(Q)^4
	cC0S4 := cdd2 * rho12 * rho22 * sqr(cdot*tf-cosd*L*mudot*tfSp1)

	// cos(Q)*sin(Q)
	cC1S1 := -2*bdot*rho1*(cdot*rho1+cosd*mudot*rho2*sdd*tfSp1*y) -
		2*rho2*(ddot*tfSp1*y*(cdot*rho1*sdd+cosd*mudot*rho2*tfSp1*y)+
			adot*(-2*cdot*rho1*sdd*tf+cosd*mudot*tfSp1*(L*rho1*sdd-rho2*tf*y))+
			cdd2*ddot*rho12*rho2*tfSp1*(adot*tf*x+cosd*mudot*tfSp1*(-1+x2)))

	// cos(Q)^2*sin(Q)^2
	cC2S2 := rho22 * (-2*cdot*cosd*L*mudot*tf*tfSp1 + tfSp12*cosd*cosd*L*L*mudot*mudot +
		cdot2*tf*tf + cdd2*rho12*sqr(bdot*tf-ddot*L*tfSp1))

	// cos(Q)*sin(Q)^2
	cC1S2 := 2 * rho2 * (cdot2*rho1*sdd*tf + adot*cdd2*rho12*rho2*tf*(-(bdot*tf)+ddot*L*tfSp1) +
		cdot*tfSp1*(-(rho1*(cosd*L*mudot*sdd+cdd2*ddot*rho1*rho2*tf*x))+
			cosd*mudot*rho2*tf*y) + cosd*mudot*rho2*tfSp1*
		(cdd2*rho12*(-(bdot*tf)+2*ddot*L*tfSp1)*x-cosd*L*mudot*tfSp1*y))
	// cos(Q)^2*sin(Q)
	cC2S1 := 2 * rho2 * (tfSp1*(-(adot*cosd*L*mudot*rho2*tf)+bdot*cdd2*ddot*rho12*rho2*tf*x+
		ddot*L*rho2*tfSp1*(-(cdd2*ddot*rho12*x)+2*cosd*mudot*y)+
		bdot*cosd*mudot*(L*rho1*sdd-rho2*tf*y)) +
		cdot*(tf*(-2*bdot*rho1*sdd+adot*rho2*tf)+
			ddot*tfSp1*(L*rho1*sdd-rho2*tf*y)))

	// cos(Q)^3*sin(Q)
	cC3S1 := -2 * rho22 * (-(bdot * tf) + ddot*L*tfSp1) * (-(cdot * tf) + cosd*L*mudot*tfSp1)
	// cos(Q)*sin(Q)^3
	cC1S3 := -2 * cdd2 * rho12 * rho22 * (-(bdot * tf) + ddot*L*tfSp1) * (-(cdot * tf) + cosd*L*mudot*tfSp1)

	lhsScale := 0.
	for _, coef := range []float64{cC0S0, cC1S0, cC2S0, cC3S0, cC4S0,
		cC0S1, cC0S2, cC0S3, cC0S4, cC1S1, cC2S2, cC1S2, cC2S1,
		cC3S1, cC1S3} {
		if a := math.Abs(coef); a > lhsScale {
			lhsScale = a
		}
	}

	// LHS(Q) of the equation and its derivative.
	lhsAndDerivative := func(Q float64) (lhs, lhsPrime float64) {
		sinQ, cosQ := math.Sincos(Q)
		sinQ2 := sinQ * sinQ
		cosQ2 := cosQ * cosQ
		sinQ3 := sinQ2 * sinQ
		cosQ3 := cosQ2 * cosQ
		sinQ4 := sinQ2 * sinQ2
		cosQ4 := cosQ2 * cosQ2
		lhs = cC0S0 +
			cC1S0*cosQ + cC2S0*cosQ2 + cC3S0*cosQ3 + cC4S0*cosQ4 +
			cC0S1*sinQ + cC0S2*sinQ2 + cC0S3*sinQ3 + cC0S4*sinQ4 +
			cC1S1*cosQ*sinQ + cC1S2*cosQ*sinQ2 + cC1S3*cosQ*sinQ3 +
			cC2S1*cosQ2*sinQ + cC2S2*cosQ2*sinQ2 +
			cC3S1*cosQ3*sinQ
		lhsPrime = -cC1S0*sinQ - 2*cC2S0*cosQ*sinQ - 3*cC3S0*cosQ2*sinQ - 4*cC4S0*cosQ3*sinQ +
			cC0S1*cosQ + 2*cC0S2*sinQ*cosQ + 3*cC0S3*sinQ2*cosQ + 4*cC0S4*sinQ3*cosQ +
			cC1S1*(cosQ2-sinQ2) + cC1S2*(2*cosQ2*sinQ-sinQ3) + cC1S3*(3*cosQ2*sinQ2-sinQ4) +
			cC2S1*(cosQ3-2*cosQ*sinQ2) + cC2S2*(2*cosQ3*sinQ-2*cosQ*sinQ3) +
			cC3S1*(cosQ4-3*cosQ2*sinQ2)
		return
	}

	// Find roots by Newton's method, dividing the LHS by
	// sin((Q−rootQ)/2) for all known roots to find subsequent ones.
	sample := shadowLimitSample{bp: bp, jd: jd}
	var roots []float64
	Q := 0.
	for rootFound := true; rootFound; {
		rootFound = false
		finalIteration := false
		// The retries scan the periodic domain with 4 extrema spread
		// approximately evenly over it, aiming to hit each slope, with
		// an extra sample to make sure nothing was missed.  Without
		// them roots are lost when Newton's method gets stuck at an
		// extremum that doesn't reach zero.
		const maxRetries = 9
		for retry := 0; retry < maxRetries && !rootFound; retry++ {
			if retry > 0 {
				// The first start uses the initial or re-seeded Q.
				Q = 2 * math.Pi * float64(retry) / maxRetries
			}
			for n := 0; n < 50; n++ {
				lhs, lhsPrime := lhsAndDerivative(Q)

				// Cancel the known roots to avoid finding them
				// instead of the remaining ones.
				newLHS, newLHSPrime := deflate(lhs, lhsPrime, Q, roots)
				if math.IsNaN(newLHS) || math.IsInf(newLHS, 0) ||
					math.IsNaN(newLHSPrime) || math.IsInf(newLHSPrime, 0) {
					c.warnf("hit infinite/NaN values: LHS = %g, LHS'(Q) = %g at Q = %g",
						newLHS, newLHSPrime, Q)
					break
				}

				if math.Abs(newLHS) < 1e-10*lhsScale {
					finalIteration = true
				}
				deltaQ := newLHS / newLHSPrime
				if newLHSPrime == 0 || math.Abs(deltaQ) > 1000 {
					// Shooting too far away, convergence may
					// be too slow; perturb Q and retry.
					Q += .01
					finalIteration = false
					continue
				}
				Q -= deltaQ
				Q = unit.PMod(Q, 2*math.Pi)

				if finalIteration {
					sinQ, cosQ := math.Sincos(Q)
					sample.pts = append(sample.pts,
						qZeta{Q, zetaFromQ(cosQ, sinQ, tf, bp)})
					roots = append(roots, Q)
					// New initial value, avoiding the
					// vicinity of the root just found.
					if math.Abs(Q) > .5 {
						Q = 0
					} else {
						Q = -math.Pi / 2
					}
					rootFound = true
					break
				}
			}
		}
	}

	sort.Slice(sample.pts, func(i, j int) bool {
		return sample.pts[i].Q < sample.pts[j].Q
	})
	return sample
}

// computeShadowLimits assembles the northern/southern limit curves of the
// penumbra or umbra over the time window [jdP1, jdP4].
func (c *Computer) computeShadowLimits(jdP1, jdP4 float64, penumbra bool) [][]GeoTimePoint {
	iMax := int(math.Ceil((jdP4 - jdP1) * 1440))

	// First sample the sets of Q values over all the time of the eclipse.
	samples := make([]shadowLimitSample, 0, iMax)
	for i := 0; i < iMax; i++ {
		jd := jdP1 + float64(i)*minutesToDays
		samples = append(samples, c.shadowLimitQs(jd, penumbra))
	}

	// Each set must have an even number of solutions; an odd set is
	// broken and dropped.
	kept := samples[:0]
	for _, s := range samples {
		if len(s.pts)%2 == 1 {
			c.warnf("found an odd number of values of Q: %d", len(s.pts))
			continue
		}
		kept = append(kept, s)
	}
	samples = kept

	// Search for time points where the number of Q values changes and
	// refine each case to get closer to the point of the jump.
	for i := 1; i < len(samples); i++ {
		a, b := &samples[i-1], &samples[i]
		if math.Abs(a.jd-b.jd) <= .001*secondsToDays {
			continue // already fine enough
		}
		if len(a.pts) != len(b.pts) {
			mid := c.shadowLimitQs((a.jd+b.jd)/2, penumbra)
			if len(mid.pts)%2 == 1 {
				c.warnf("odd number of Q values while searching for JD of change in number of solutions: %d",
					len(mid.pts))
			}
			samples = append(samples, shadowLimitSample{})
			copy(samples[i+1:], samples[i:])
			samples[i] = mid
			// Retry with the first of the new intervals.
			i--
		}
	}

	// Search for time points where the sign of ζ switches and refine
	// each case to get closer to the zero crossing.
	for i := 1; i < len(samples); i++ {
		a, b := &samples[i-1], &samples[i]
		if len(a.pts) != len(b.pts) {
			// Any sign change here was already refined by the
			// solution-count search.
			continue
		}
		if math.Abs(a.jd-b.jd) <= .001*secondsToDays {
			continue // already fine enough
		}
		for n := range a.pts {
			if a.pts[n].ζ*b.pts[n].ζ < 0 {
				mid := c.shadowLimitQs((a.jd+b.jd)/2, penumbra)
				if len(mid.pts)%2 == 1 {
					c.warnf("odd number of Q values while searching for JD of ζ sign change: %d",
						len(mid.pts))
				}
				samples = append(samples, shadowLimitSample{})
				copy(samples[i+1:], samples[i:])
				samples[i] = mid
				i--
				break
			}
		}
	}

	if len(samples) == 0 {
		return nil
	}

	// Treat runs of the same solution count as simultaneous runs of
	// multiple lines, where for each JD the point belonging to line n is
	// solution number n (the solutions are sorted by Q).  Lines don't
	// cross; a change in solution count starts a new set of indices.
	type limitPoint struct {
		geo GeoPoint
		jd  float64
		ζ   float64
	}
	lines := make([][]limitPoint, len(samples[0].pts))
	startN := 0
	for i := range samples {
		sol := &samples[i]
		if i > 0 && len(sol.pts) != len(samples[i-1].pts) {
			startN = len(lines)
			lines = append(lines, make([][]limitPoint, len(sol.pts))...)
		}
		for n, qz := range sol.pts {
			tp := c.timePoint(sol.bp, qz.Q, qz.ζ, penumbra)
			lines[startN+n] = append(lines[startN+n],
				limitPoint{tp, sol.jd, qz.ζ})
		}
	}

	// Remove the points under the horizon (where ζ < 0), splitting
	// lines that dip under it.
	negIdx := func(line []limitPoint, from int) int {
		for i := from; i < len(line); i++ {
			if line[i].ζ < 0 {
				return i
			}
		}
		return -1
	}
	nonNegIdx := func(line []limitPoint, from int) int {
		for i := from; i < len(line); i++ {
			if line[i].ζ >= 0 {
				return i
			}
		}
		return -1
	}
	for n := 0; n < len(lines); n++ {
		line := lines[n]
		if len(line) == 0 {
			continue
		}
		neg := negIdx(line, 0)
		if neg < 0 {
			continue // whole line is visible
		}
		nonNeg := nonNegIdx(line, 0)
		if nonNeg < 0 {
			// Whole line is under the horizon.
			lines[n] = nil
			continue
		}
		if nonNeg == 0 {
			// Line starts with non-negative ζ, then gets under the
			// horizon.  Move the second part of the line to a new
			// line, skipping leading negative-ζ points.
			if next := nonNegIdx(line, neg); next >= 0 {
				lines = append(lines, line[next:])
			}
			lines[n] = line[:neg]
		} else {
			// Line starts under the horizon; remove the
			// negative-ζ head.
			next := nonNegIdx(line, neg)
			if next < 0 {
				lines[n] = nil
				continue
			}
			lines[n] = line[next:]
			// The remaining points may still contain negative ζ,
			// so restart processing from the same line.
			n--
		}
	}

	var limits [][]GeoTimePoint
	for _, line := range lines {
		if len(line) == 0 {
			continue
		}
		limit := make([]GeoTimePoint, len(line))
		for i, p := range line {
			limit[i] = GeoTimePoint{p.jd, p.geo.Lon, p.geo.Lat}
		}
		limits = append(limits, limit)
	}
	return limits
}

func sqr(x float64) float64 { return x * x }
