// Copyright 2025 Sonia Keys
// License: MIT

package besselian_test

import (
	"math"
	"testing"

	"github.com/soniakeys/eclipsemap/besselian"
)

// Greatest eclipse of 2024-04-08, 18:17:17 TT.  Published elements
// (NASA, at t₀ = 18:00 TDT): x = −0.3182, y = 0.2197, d = 7.5862°,
// μ = 89.591°, L1 = 0.5358, L2 = −0.0103.  Tolerances cover the abridged
// lunar theory of MeeusEphemeris.
const jd2024 = 2460409.2620

func TestElements2024(t *testing.T) {
	el, err := besselian.ElementsAt(besselian.MeeusEphemeris{}, jd2024)
	if err != nil {
		t.Fatal(err)
	}
	γ := math.Hypot(el.X, el.Y)
	if γ < .30 || γ > .38 {
		t.Errorf("γ = %.4f, want ≈0.343", γ)
	}
	if d := el.D * 180 / math.Pi; math.Abs(d-7.586) > .3 {
		t.Errorf("d = %.4f°, want ≈7.586°", d)
	}
	// μ advances about 15°/h from its 18:00 value of 89.591°.
	if math.Abs(el.Mu-93.9) > 1 {
		t.Errorf("μ = %.4f°, want ≈93.9°", el.Mu)
	}
	if math.Abs(el.L1-.5358) > .01 {
		t.Errorf("L1 = %.4f, want ≈0.5358", el.L1)
	}
	if math.Abs(el.L2 - -.0103) > .01 {
		t.Errorf("L2 = %.4f, want ≈−0.0103", el.L2)
	}
	if el.L2 >= 0 {
		t.Error("L2 ≥ 0 for a total eclipse")
	}
}

func TestElementInvariants(t *testing.T) {
	// A sample of instants through the 2024 eclipse.
	for i := -3; i <= 3; i++ {
		jd := jd2024 + float64(i)/24
		el, err := besselian.ElementsAt(besselian.MeeusEphemeris{}, jd)
		if err != nil {
			t.Fatal(err)
		}
		if el.L1 <= el.L2 {
			t.Errorf("JD %.4f: L1 = %f ≤ L2 = %f", jd, el.L1, el.L2)
		}
		if !(el.TanF1 > el.TanF2 && el.TanF2 > 0) {
			t.Errorf("JD %.4f: tan f₁ = %f, tan f₂ = %f", jd, el.TanF1, el.TanF2)
		}
		if el.Mu < 0 || el.Mu >= 360 {
			t.Errorf("JD %.4f: μ = %f out of [0,360)", jd, el.Mu)
		}
		if math.Abs(el.D) > math.Pi/2 {
			t.Errorf("JD %.4f: d = %f out of range", jd, el.D)
		}
		if math.Abs(el.X) > 5 || math.Abs(el.Y) > 5 {
			t.Errorf("JD %.4f: (x, y) = (%f, %f) unreasonable", jd, el.X, el.Y)
		}
	}
}

func TestRates2024(t *testing.T) {
	bp, err := besselian.RatesAt(besselian.MeeusEphemeris{}, jd2024, true)
	if err != nil {
		t.Fatal(err)
	}
	// Published hourly rates at 18:00 TDT: x′ = 0.51265, y′ = 0.27069.
	if math.Abs(bp.Xdot-.5127) > .02 {
		t.Errorf("ẋ = %.5f, want ≈0.5127", bp.Xdot)
	}
	if math.Abs(bp.Ydot-.2707) > .02 {
		t.Errorf("ẏ = %.5f, want ≈0.2707", bp.Ydot)
	}
	// μ̇ is the sidereal rotation rate, about 15.003°/h.
	if math.Abs(bp.Mudot-15.003*math.Pi/180) > .003 {
		t.Errorf("μ̇ = %.6f rad/h, want ≈0.26185", bp.Mudot)
	}
	// Derived quantities are consistent with their definitions.
	sd := math.Sin(bp.El.D)
	if math.Abs(bp.Etadot-bp.Mudot*bp.El.X*sd) > 1e-12 {
		t.Error("η̇ inconsistent with μ̇ x sin d")
	}
	if math.Abs(bp.Bdot - -(bp.Ydot-bp.Etadot)) > 1e-12 {
		t.Error("ḃ inconsistent with −(ẏ − η̇)")
	}
}

func TestRatesCentered(t *testing.T) {
	// The snapshot returned with the rates is the one at the requested
	// instant, not at either difference endpoint.
	e := besselian.MeeusEphemeris{}
	bp, err := besselian.RatesAt(e, jd2024, false)
	if err != nil {
		t.Fatal(err)
	}
	el, err := besselian.ElementsAt(e, jd2024)
	if err != nil {
		t.Fatal(err)
	}
	if bp.El != el {
		t.Error("rates snapshot differs from elements at the same JD")
	}
}
