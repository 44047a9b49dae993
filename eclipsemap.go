// Copyright 2025 Sonia Keys
// License: MIT

// Eclipsemap: geographic geometry of solar eclipses.
//
// Given a Julian ephemeris date near greatest eclipse, GenerateMap produces
// the curves and points that describe where on Earth the eclipse is visible
// and with what character: penumbra and umbra northern/southern limits,
// rise/set limit curves, maximum-eclipse-at-sunrise/sunset curves, the
// central line, umbral shadow outlines at regular intervals, and the
// contact points P1, P4, C1, C2 and greatest eclipse.
//
// References:
//
//	Explanatory Supplement to the Astronomical Ephemeris and the American
//	Ephemeris and Nautical Almanac (1961), ch. 9, and 3rd Edition (2013),
//	ch. 11.
package eclipsemap

import (
	"math"

	"github.com/pkg/errors"
	"github.com/soniakeys/unit"

	"github.com/soniakeys/eclipsemap/besselian"
)

// ErrBadJD indicates the supplied JD does not correspond to a solar
// eclipse.
var ErrBadJD = errors.New("no solar eclipse at this JD")

// EclipseType classifies the character of an eclipse, or of a single
// umbral outline.
type EclipseType int

// Eclipse types, in the order of increasing Moon/Sun diameter ratio.
const (
	Undefined EclipseType = iota // partial, or no eclipse
	Annular
	Hybrid
	Total
)

func (t EclipseType) String() string {
	switch t {
	case Total:
		return "Total"
	case Annular:
		return "Annular"
	case Hybrid:
		return "Hybrid"
	}
	return "Undefined"
}

// GeoPoint is a geographic position in degrees, longitude in (−180,180],
// latitude in [−90,90].
type GeoPoint struct {
	Lon float64
	Lat float64
}

// GeoTimePoint is a geographic position tagged with the JD it corresponds
// to.  JD = −1 means the point was never computed.
type GeoTimePoint struct {
	JD  float64
	Lon float64
	Lat float64
}

// UmbraOutline is the closed outline of the umbral (or antumbral) shadow
// on the Earth's surface at a single instant.
type UmbraOutline struct {
	Curve []GeoPoint
	JD    float64
	Type  EclipseType // Total or Annular at this instant
}

// RiseSetKind tags the variants of RiseSetLimit.
type RiseSetKind int

const (
	// SingleLimit: only one of the northern/southern penumbra limits
	// exists; the rise/set limit is a single curve from P1 to P4.
	SingleLimit RiseSetKind = iota
	// TwoLimits: both penumbra limits exist; the rise/set limit splits
	// into a P1–P2 curve and a P3–P4 curve.
	TwoLimits
)

// RiseSetLimit is one branch of the curve along which the eclipse begins
// or ends exactly at sunrise/sunset.
type RiseSetLimit struct {
	Kind RiseSetKind

	// Curve is set for Kind == SingleLimit.
	Curve []GeoPoint

	// P12 and P34 are set for Kind == TwoLimits.
	P12 []GeoPoint
	P34 []GeoPoint
}

// EclipseMapData is the complete geographic description of one solar
// eclipse.  It is immutable after GenerateMap returns it.
type EclipseMapData struct {
	GreatestEclipse       GeoTimePoint
	FirstContactWithEarth GeoTimePoint // P1
	LastContactWithEarth  GeoTimePoint // P4
	CentralEclipseStart   GeoTimePoint // C1
	CentralEclipseEnd     GeoTimePoint // C2

	// PenumbraLimits are the northern and southern limits of the
	// penumbra.  The computation emits them in smaller segments, so
	// there will usually be more than two.
	PenumbraLimits [][]GeoTimePoint

	// RiseSetLimits has exactly two entries, one per branch.
	RiseSetLimits [2]RiseSetLimit

	// MaxEclipseAtRiseSet curves, first-branch curves preceding
	// second-branch curves, each ordered by time.
	MaxEclipseAtRiseSet [][]GeoTimePoint

	CenterLine    []GeoPoint
	UmbraOutlines []UmbraOutline
	UmbraLimits   [][]GeoTimePoint

	Type EclipseType
}

// Computer generates eclipse maps from an ephemeris.
//
// A Computer memoizes Besselian elements by JD; a single GenerateMap call
// performs on the order of 10⁴–10⁵ element evaluations.  A Computer is not
// safe for concurrent use.
type Computer struct {
	// Warn, if non-nil, receives printf-style reports of numerical
	// corner cases that were skipped or tolerated (odd shadow-limit
	// root counts, non-finite Newton iterates, unnormalized vectors).
	// They never abort a computation.
	Warn func(format string, a ...interface{})

	eph besselian.Ephemeris

	// derived ellipsoid constants
	f, e2, ff float64
	earthRkm  float64

	cache map[float64]besselian.Elements
	err   error
}

// New returns a Computer using the given ephemeris.
func New(eph besselian.Ephemeris) *Computer {
	e := eph.Earth()
	f := e.Fl
	return &Computer{
		eph:      eph,
		f:        f,
		e2:       f * (2 - f),
		ff:       1 / (1 - f),
		earthRkm: e.Er,
		cache:    map[float64]besselian.Elements{},
	}
}

func (c *Computer) warnf(format string, a ...interface{}) {
	if c.Warn != nil {
		c.Warn(format, a...)
	}
}

// fail records the first fatal error; later computations keep running on
// zero values but GenerateMap reports the error.
func (c *Computer) fail(err error) {
	if c.err == nil {
		c.err = err
	}
}

func (c *Computer) elements(jd float64) besselian.Elements {
	if el, ok := c.cache[jd]; ok {
		return el
	}
	el, err := besselian.ElementsAt(c.eph, jd)
	if err != nil {
		c.fail(err)
	}
	c.cache[jd] = el
	return el
}

func (c *Computer) rates(jd float64, penumbra bool) besselian.Rates {
	bp, _ := besselian.RatesFrom(func(j float64) (besselian.Elements, error) {
		return c.elements(j), nil
	}, jd, penumbra)
	return bp
}

// GenerateMap computes the full geographic geometry of the eclipse whose
// greatest eclipse is near jdMid (a JDE).
//
// It returns ErrBadJD if no eclipse is in progress at jdMid, and
// besselian.ErrEphemeris if the ephemeris fails.  Numerical corner cases
// never fail the call: an affected curve merely comes out empty or
// shorter.
func (c *Computer) GenerateMap(jdMid float64) (*EclipseMapData, error) {
	c.err = nil

	data := &EclipseMapData{
		GreatestEclipse:       GeoTimePoint{JD: -1},
		FirstContactWithEarth: GeoTimePoint{JD: -1},
		LastContactWithEarth:  GeoTimePoint{JD: -1},
		CentralEclipseStart:   GeoTimePoint{JD: -1},
		CentralEclipseEnd:     GeoTimePoint{JD: -1},
	}

	partialEclipse := false
	nonCentralEclipse := false
	ep := c.elements(jdMid)
	γ := math.Hypot(ep.X, ep.Y)
	if c.err != nil {
		return nil, c.err
	}
	if γ >= 1.5433+ep.L2 {
		return nil, errors.Wrapf(ErrBadJD, "γ = %.4f at JDE %.5f", γ, jdMid)
	}
	if γ > 0.9972 {
		if γ < 0.9972+math.Abs(ep.L2) {
			nonCentralEclipse = true // non-central total/annular eclipse
		} else {
			partialEclipse = true
		}
	}

	jdP1 := c.jdOfContact(jdMid, true, true, true, true)
	jdP4 := c.jdOfContact(jdMid, false, true, true, true)

	var jdP2, jdP3 float64
	bothPenumbralLimits := c.bothPenumbraLimitsPresent(jdMid)
	if bothPenumbralLimits {
		jdP2 = c.jdOfContact(jdMid, true, true, true, false)
		jdP3 = c.jdOfContact(jdMid, false, true, true, false)
	}

	ge := c.eclipseData(jdMid)
	data.GreatestEclipse = GeoTimePoint{jdMid, ge.lon, ge.lat}
	p1 := c.eclipseData(jdP1)
	data.FirstContactWithEarth = GeoTimePoint{jdP1, p1.lon, p1.lat}
	p4 := c.eclipseData(jdP4)
	data.LastContactWithEarth = GeoTimePoint{jdP4, p4.lon, p4.lat}

	if c.err != nil {
		return nil, c.err
	}

	// Northern/southern limits of penumbra.
	data.PenumbraLimits = c.computeShadowLimits(jdP1, jdP4, true)

	// Eclipse begins/ends at sunrise/sunset curves.
	c.computeRiseSetLimits(data, bothPenumbralLimits, jdP1, jdP2, jdP3, jdP4)

	// Curves of maximum eclipse at sunrise/sunset.
	c.computeMaxEclipseAtRiseSet(data, bothPenumbralLimits, jdP1, jdP2, jdP3, jdP4)

	if !partialEclipse {
		jdU1 := c.jdOfContact(jdMid, true, false, true, true)  // external umbral contact begins
		jdU4 := c.jdOfContact(jdMid, false, false, true, true) // external umbral contact ends
		if !nonCentralEclipse {
			c.computeCentralPhase(data, jdMid)
		}
		c.computeUmbraOutlines(data, jdU1, jdU4)

		// Northern/southern limits of umbra.
		data.UmbraLimits = c.computeShadowLimits(jdP1, jdP4, false)
	}

	if c.err != nil {
		return nil, c.err
	}
	return data, nil
}

// computeCentralPhase solves C1 and C2, classifies the eclipse from the
// diameter ratio at C1, greatest eclipse and C2, and emits the central
// line at one minute cadence.
func (c *Computer) computeCentralPhase(data *EclipseMapData, jdMid float64) {
	// C1.  Pin to a whole second and nudge forward off the degenerate
	// zero-path-width instant of the contact itself.
	jd := c.jdOfContact(jdMid, true, false, false, true)
	jd = math.Trunc(jd) + (math.Trunc((jd-math.Trunc(jd))*86400)-1)/86400
	cs := c.eclipseData(jd)
	for steps := 0; cs.pathWidth < 0.0001 && steps < 20; steps++ {
		jd += .1 / 86400
		cs = c.eclipseData(jd)
	}
	jdC1 := jd
	dRatioC1 := cs.dRatio
	epC1 := c.elements(jdC1)
	pC1 := c.contactPoint(epC1)
	data.CentralEclipseStart = GeoTimePoint{jdC1, pC1.Lon, pC1.Lat}

	// C2, nudging backward.
	jd = c.jdOfContact(jdMid, false, false, false, true)
	jd = math.Trunc(jd) + (math.Trunc((jd-math.Trunc(jd))*86400)+1)/86400
	cs = c.eclipseData(jd)
	for steps := 0; cs.pathWidth < 0.0001 && steps < 20; steps++ {
		jd -= .1 / 86400
		cs = c.eclipseData(jd)
	}
	jdC2 := jd
	dRatioC2 := cs.dRatio
	epC2 := c.elements(jdC2)
	pC2 := c.contactPoint(epC2)
	data.CentralEclipseEnd = GeoTimePoint{jdC2, pC2.Lon, pC2.Lat}

	dRatioMid := c.eclipseData(jdMid).dRatio
	switch {
	case dRatioC1 >= 1 && dRatioMid >= 1 && dRatioC2 >= 1:
		data.Type = Total
	case dRatioC1 < 1 && dRatioMid < 1 && dRatioC2 < 1:
		data.Type = Annular
	default:
		data.Type = Hybrid
	}

	data.CenterLine = append(data.CenterLine, pC1)
	jd = jdC1
	for i := 0; jd+1./1440 < jdC2; i++ {
		jd = jdC1 + float64(i)/1440 // every minute
		cs = c.eclipseData(jd)
		data.CenterLine = append(data.CenterLine, GeoPoint{cs.lon, cs.lat})
	}
	data.CenterLine = append(data.CenterLine, pC2)
}

// computeUmbraOutlines emits shadow outlines on the 10 minute grid
// between the external umbral contacts.
func (c *Computer) computeUmbraOutlines(data *EclipseMapData, jdU1, jdU4 float64) {
	beginJD := math.Trunc(jdU1) + (10*math.Trunc(1440*(jdU1-math.Trunc(jdU1))/10)+10)/1440
	endJD := math.Trunc(jdU4) + 10*math.Trunc(1440*(jdU4-math.Trunc(jdU4))/10)/1440
	jd := beginJD
	for i := 0; jd < endJD; i++ {
		jd = beginJD + float64(i)/144 // every 10 minutes
		ep := c.elements(jd)
		cs := c.eclipseData(jd)
		outline := UmbraOutline{JD: jd, Type: Annular}
		if cs.dRatio >= 1 {
			outline.Type = Total
		}
		var first GeoPoint
		haveFirst := false
		for n := 0; n < 60; n++ {
			α := float64(n) * 2 * math.Pi / 60
			p, ok := c.shadowOutlinePoint(α, ep.X, ep.Y, ep.D, ep.L2, ep.TanF2, ep.Mu)
			if !ok {
				continue
			}
			outline.Curve = append(outline.Curve, p)
			if !haveFirst {
				first = p
				haveFirst = true
			}
		}
		if haveFirst {
			outline.Curve = append(outline.Curve, first) // completing the circle
		}
		data.UmbraOutlines = append(data.UmbraOutlines, outline)
	}
}

// pmod180 wraps a longitude difference in degrees to (−180,180].
func pmod180(lng float64) float64 {
	lng = unit.PMod(lng, 360)
	if lng > 180 {
		lng -= 360
	}
	return lng
}
