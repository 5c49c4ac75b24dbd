package interp

import (
	"math"
	"testing"

	"github.com/cwbudde/imgreg/internal/grid"
)

func rampImage() *grid.Image {
	// v = 2x + 3y, exactly representable by bilinear interpolation.
	return grid.FromFunc(4, 4, func(ix, iy int) float64 {
		return 2*float64(ix) + 3*float64(iy)
	})
}

func TestLinearAtGridPoints(t *testing.T) {
	img := rampImage()
	li := NewLinear(img)

	for iy := 0; iy < 4; iy++ {
		for ix := 0; ix < 4; ix++ {
			p := img.IndexToPoint(ix, iy)
			got := li.Evaluate(p)
			want := img.At(ix, iy)
			if got != want {
				t.Errorf("Evaluate(%v) = %f, want %f", p, got, want)
			}
		}
	}
}

func TestLinearBetweenGridPoints(t *testing.T) {
	img := rampImage()
	li := NewLinear(img)

	got := li.Evaluate(grid.Point{X: 1.5, Y: 2.25})
	want := 2*1.5 + 3*2.25
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("Expected %f, got %f", want, got)
	}
}

func TestLinearGradientOnRamp(t *testing.T) {
	img := rampImage()
	li := NewLinear(img)

	v, g := li.EvaluateWithGradient(grid.Point{X: 1.3, Y: 0.7})
	if math.Abs(v-(2*1.3+3*0.7)) > 1e-12 {
		t.Errorf("Value %f does not match ramp", v)
	}
	if math.Abs(g.DX-2) > 1e-12 || math.Abs(g.DY-3) > 1e-12 {
		t.Errorf("Gradient (%f, %f), want (2, 3)", g.DX, g.DY)
	}
}

func TestLinearGradientWithSpacing(t *testing.T) {
	img := rampImage()
	img.Spacing = grid.Point{X: 2, Y: 2}
	li := NewLinear(img)

	// In physical units the ramp slope halves with doubled spacing.
	_, g := li.EvaluateWithGradient(grid.Point{X: 2.5, Y: 1.5})
	if math.Abs(g.DX-1) > 1e-12 || math.Abs(g.DY-1.5) > 1e-12 {
		t.Errorf("Gradient (%f, %f), want (1, 1.5)", g.DX, g.DY)
	}
}

func TestLinearValueAndGradientAgree(t *testing.T) {
	img := grid.FromFunc(5, 5, func(ix, iy int) float64 {
		return float64(ix*ix) - float64(iy)*1.5
	})
	li := NewLinear(img)

	p := grid.Point{X: 2.6, Y: 3.1}
	v1 := li.Evaluate(p)
	v2, _ := li.EvaluateWithGradient(p)
	if v1 != v2 {
		t.Errorf("Value paths disagree: %g vs %g", v1, v2)
	}
}

func TestLinearSinglePixelWideImage(t *testing.T) {
	// One column: constant along X, linear along Y.
	img := grid.FromFunc(1, 4, func(ix, iy int) float64 {
		return 5 * float64(iy)
	})
	li := NewLinear(img)

	p := grid.Point{X: 0, Y: 1.5}
	if !li.IsInsideBuffer(p) {
		t.Fatalf("Expected %v inside buffer", p)
	}
	v, g := li.EvaluateWithGradient(p)
	if math.Abs(v-7.5) > 1e-12 {
		t.Errorf("Evaluate(%v) = %f, want 7.5", p, v)
	}
	if g.DX != 0 {
		t.Errorf("Gradient DX = %f, want 0 for a single-column image", g.DX)
	}
	if math.Abs(g.DY-5) > 1e-12 {
		t.Errorf("Gradient DY = %f, want 5", g.DY)
	}
}

func TestLinearSinglePixelTallImage(t *testing.T) {
	// One row: linear along X, constant along Y.
	img := grid.FromFunc(4, 1, func(ix, iy int) float64 {
		return 2 * float64(ix)
	})
	li := NewLinear(img)

	p := grid.Point{X: 2.5, Y: 0}
	v, g := li.EvaluateWithGradient(p)
	if math.Abs(v-5) > 1e-12 {
		t.Errorf("Evaluate(%v) = %f, want 5", p, v)
	}
	if g.DY != 0 {
		t.Errorf("Gradient DY = %f, want 0 for a single-row image", g.DY)
	}
	if math.Abs(g.DX-2) > 1e-12 {
		t.Errorf("Gradient DX = %f, want 2", g.DX)
	}
	if got := li.Evaluate(p); got != v {
		t.Errorf("Value paths disagree: %g vs %g", got, v)
	}
}

func TestIsInsideBuffer(t *testing.T) {
	img := grid.New(4, 4)
	li := NewLinear(img)

	if !li.IsInsideBuffer(grid.Point{X: 3, Y: 3}) {
		t.Error("Expected corner (3, 3) inside buffer")
	}
	if li.IsInsideBuffer(grid.Point{X: 3.01, Y: 3}) {
		t.Error("Expected (3.01, 3) outside buffer")
	}
	if li.IsInsideBuffer(grid.Point{X: -0.01, Y: 1}) {
		t.Error("Expected (-0.01, 1) outside buffer")
	}
}

func TestLimiterClamps(t *testing.T) {
	l := NewLimiter(0, 10)

	if got := l.Apply(-3); got != 0 {
		t.Errorf("Expected clamp to 0, got %f", got)
	}
	if got := l.Apply(12); got != 10 {
		t.Errorf("Expected clamp to 10, got %f", got)
	}
	if got := l.Apply(5); got != 5 {
		t.Errorf("Expected pass-through 5, got %f", got)
	}
}

func TestLimiterNilPassesThrough(t *testing.T) {
	var l *Limiter
	if got := l.Apply(42); got != 42 {
		t.Errorf("Nil limiter changed value to %f", got)
	}
}
