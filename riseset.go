// Copyright 2025 Sonia Keys
// License: MIT

package eclipsemap

import (
	"math"
	"sort"
)

// bothPenumbraLimitsPresent reports whether both the northern and the
// southern penumbra limits exist at greatest eclipse, which is the case
// when the penumbral circle lies entirely on the Earth there, so the
// rise/set line has no intersection with the Earth's border.
//
// Ellipticity of the Earth could conceivably make the rise/set line exist
// at some other phase while absent at greatest eclipse, because greatest
// eclipse is defined relative to the Earth's center rather than its rim;
// no such case is known.
func (c *Computer) bothPenumbraLimitsPresent(jdMid float64) bool {
	ep := c.elements(jdMid)
	_, ok := c.riseSetLinePoint(true, ep.X, ep.Y, ep.D, ep.L1, ep.Mu)
	return !ok
}

// riseSetCurve samples the rise/set line of one branch at one minute
// cadence from jdA up to and including the first sample at or past jdB.
func (c *Computer) riseSetCurve(first bool, jdA, jdB float64) []GeoPoint {
	var curve []GeoPoint
	jd := jdA
	for i := 0; jd < jdB; i++ {
		jd = jdA + float64(i)/1440
		ep := c.elements(jd)
		if p, ok := c.riseSetLinePoint(first, ep.X, ep.Y, ep.D, ep.L1, ep.Mu); ok {
			curve = append(curve, p)
		}
	}
	return curve
}

// computeRiseSetLimits fills data.RiseSetLimits for both branches.  With
// both penumbral limits present the limit of each branch splits into a
// P1–P2 and a P3–P4 curve, anchored at the geographic points of those
// contacts; otherwise it is a single curve from P1 to P4.
func (c *Computer) computeRiseSetLimits(data *EclipseMapData, bothPenumbralLimits bool, jdP1, jdP2, jdP3, jdP4 float64) {
	p1 := GeoPoint{data.FirstContactWithEarth.Lon, data.FirstContactWithEarth.Lat}
	p4 := GeoPoint{data.LastContactWithEarth.Lon, data.LastContactWithEarth.Lat}
	if !bothPenumbralLimits {
		// Only the northern or southern limit exists: one curve
		// between P1 and P4 per branch.
		for j := 0; j < 2; j++ {
			first := j == 0
			limit := &data.RiseSetLimits[j]
			limit.Kind = SingleLimit
			limit.Curve = append(limit.Curve, p1)
			limit.Curve = append(limit.Curve, c.riseSetCurve(first, jdP1, jdP4)...)
			limit.Curve = append(limit.Curve, p4)
		}
		return
	}
	epP2 := c.elements(jdP2)
	p2 := c.contactPoint(epP2)
	epP3 := c.elements(jdP3)
	p3 := c.contactPoint(epP3)
	for j := 0; j < 2; j++ {
		first := j == 0
		limit := &data.RiseSetLimits[j]
		limit.Kind = TwoLimits

		limit.P12 = append(limit.P12, p1)
		limit.P12 = append(limit.P12, c.riseSetCurve(first, jdP1, jdP2)...)
		limit.P12 = append(limit.P12, p2)

		limit.P34 = append(limit.P34, p3)
		limit.P34 = append(limit.P34, c.riseSetCurve(first, jdP3, jdP4)...)
		limit.P34 = append(limit.P34, p4)
	}
}

// maxEclipseCurve adaptively samples the maximum-eclipse-at-rise/set
// curve of one branch over [jdMin, jdMax].  It doubles the sample count
// until a scan finds at least one valid point.  A scan stops at the first
// invalid point after a valid one, since the endpoint refinement then
// knows a boundary exists; a scan that meets no such invalid point runs to
// jdMax and is accepted as well.  Invalid samples are kept for the
// refinement step.
func (c *Computer) maxEclipseCurve(first bool, jdMin, jdMax float64) []GeoTimePoint {
	var curve []GeoTimePoint
	numPoints := 5
	goodPointFound := false
	for !goodPointFound && numPoints < 500 {
		curve = curve[:0]
		numPoints = 2*numPoints + 1
		step := (jdMax - jdMin) / float64(numPoints)
		// The interval of n is extended to include the min and max JD.
		// Apart from jdMin, jdMax and the midpoint, which every scan
		// samples, the internal JD values fall between the ones checked
		// at the previous iteration.
		for n := -1; n < numPoints+1; n++ {
			jd := jdMin + step*(float64(n)+.5)
			if jd < jdMin {
				jd = jdMin
			} else if jd > jdMax {
				jd = jdMax
			}
			p, ok := c.maxEclipseAtRiseSet(first, jd)
			if !ok {
				// Invalid marker, beyond any valid latitude.
				curve = append(curve, GeoTimePoint{jd, 0, 99})
				if goodPointFound {
					break // a bad point after a good one: can refine now
				}
				continue
			}
			curve = append(curve, GeoTimePoint{jd, p.Lon, p.Lat})
			goodPointFound = true
		}
	}
	if !goodPointFound {
		// Without usable points there is nothing to refine.  An empty
		// curve is still emitted to keep first and second branches
		// matched up.
		return nil
	}
	return curve
}

// refineMaxEclipseCurve bisects the endpoints of a sampled curve to the
// exact boundary of validity, removes the invalid samples, sorts by time,
// and densifies until adjacent points are no farther than an admissible
// step.
func (c *Computer) refineMaxEclipseCurve(points []GeoTimePoint, first bool) []GeoTimePoint {
	valid := func(p GeoTimePoint) bool { return math.Abs(p.Lat) <= 90 }

	// Beginning of the line.
	firstValid := -1
	for i, p := range points {
		if valid(p) {
			firstValid = i
			break
		}
	}
	if firstValid < 0 {
		return nil
	}
	if firstValid > 0 {
		lastInvalidTime := points[firstValid-1].JD
		firstValidTime := points[firstValid].JD
		// Bisect between these times; the iteration count is
		// empirically sufficient.
		for n := 0; n < 15; n++ {
			currTime := (lastInvalidTime + firstValidTime) / 2
			if p, ok := c.maxEclipseAtRiseSet(first, currTime); ok {
				firstValidTime = currTime
				points = append([]GeoTimePoint{{currTime, p.Lon, p.Lat}}, points...)
			} else {
				lastInvalidTime = currTime
			}
		}
	}

	// End of the line.
	lastValid := -1
	for i := len(points) - 1; i >= 0; i-- {
		if valid(points[i]) {
			lastValid = i
			break
		}
	}
	if lastValid >= 0 && lastValid+1 < len(points) {
		firstInvalidTime := points[lastValid+1].JD
		lastValidTime := points[lastValid].JD
		for n := 0; n < 15; n++ {
			currTime := (firstInvalidTime + lastValidTime) / 2
			if p, ok := c.maxEclipseAtRiseSet(first, currTime); ok {
				lastValidTime = currTime
				points = append(points, GeoTimePoint{currTime, p.Lon, p.Lat})
			} else {
				firstInvalidTime = currTime
			}
		}
	}

	// Cleanup: remove invalid points, sort by time.
	kept := points[:0]
	for _, p := range points {
		if valid(p) {
			kept = append(kept, p)
		}
	}
	points = kept
	sort.Slice(points, func(i, j int) bool { return points[i].JD < points[j].JD })

	// Refine too long internal segments.
	const admissibleStepDeg = 5
	for newPointsInserted := true; newPointsInserted; {
		newPointsInserted = false
		origNumPoints := len(points)
		for n := 1; n < origNumPoints; n++ {
			dLat := points[n-1].Lat - points[n].Lat
			dLon := pmod180(points[n].Lon - points[n-1].Lon)
			// Sampling is denser near the poles, where the curve
			// may have more features: the longitude stays
			// unscaled on purpose.
			if dLat*dLat+dLon*dLon < admissibleStepDeg*admissibleStepDeg {
				continue
			}
			jd := (points[n-1].JD + points[n].JD) / 2
			p, ok := c.maxEclipseAtRiseSet(first, jd)
			if !ok {
				points = append(points, GeoTimePoint{jd, 0, 99})
			} else {
				points = append(points, GeoTimePoint{jd, p.Lon, p.Lat})
			}
			newPointsInserted = true
		}
		sort.Slice(points, func(i, j int) bool { return points[i].JD < points[j].JD })
	}
	return points
}

// computeMaxEclipseAtRiseSet fills data.MaxEclipseAtRiseSet: per branch
// either one curve over [P1, P4] or, with both penumbral limits present,
// two curves over [P1, P2] and [P3, P4]; then refines each curve and
// joins the second-branch curves to their first-branch counterparts.
func (c *Computer) computeMaxEclipseAtRiseSet(data *EclipseMapData, bothPenumbralLimits bool, jdP1, jdP2, jdP3, jdP4 float64) {
	for j := 0; j < 2; j++ {
		first := j == 0
		if bothPenumbralLimits {
			data.MaxEclipseAtRiseSet = append(data.MaxEclipseAtRiseSet,
				c.maxEclipseCurve(first, jdP1, jdP2),
				c.maxEclipseCurve(first, jdP3, jdP4))
		} else {
			data.MaxEclipseAtRiseSet = append(data.MaxEclipseAtRiseSet,
				c.maxEclipseCurve(first, jdP1, jdP4))
		}
	}

	curves := data.MaxEclipseAtRiseSet
	for n := range curves {
		first := n < len(curves)/2
		curves[n] = c.refineMaxEclipseCurve(curves[n], first)

		// Connect the first and second branches of the lines.
		if first {
			continue
		}
		firstBranch := curves[n-len(curves)/2]
		secondBranch := curves[n]
		if len(firstBranch) == 0 || len(secondBranch) == 0 {
			continue
		}
		// Join the ends that are closer to each other in time.
		endGap := math.Abs(secondBranch[len(secondBranch)-1].JD - firstBranch[len(firstBranch)-1].JD)
		startGap := math.Abs(secondBranch[0].JD - firstBranch[0].JD)
		if endGap < startGap {
			curves[n] = append(secondBranch, firstBranch[len(firstBranch)-1])
		} else {
			curves[n] = append([]GeoTimePoint{firstBranch[0]}, secondBranch...)
		}
	}
}
