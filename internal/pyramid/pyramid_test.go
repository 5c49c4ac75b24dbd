package pyramid

import (
	"testing"

	"github.com/cwbudde/imgreg/internal/grid"
)

func TestLevelsCoarsestFirst(t *testing.T) {
	img := grid.New(32, 32)

	levels, err := Levels(img, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(levels) != 3 {
		t.Fatalf("Expected 3 levels, got %d", len(levels))
	}

	wantWidths := []int{8, 16, 32}
	wantSpacing := []float64{4, 2, 1}
	for i, lvl := range levels {
		if lvl.Width != wantWidths[i] {
			t.Errorf("Level %d width %d, want %d", i, lvl.Width, wantWidths[i])
		}
		if lvl.Spacing.X != wantSpacing[i] {
			t.Errorf("Level %d spacing %g, want %g", i, lvl.Spacing.X, wantSpacing[i])
		}
	}
	if levels[2] != img {
		t.Error("Finest level should be the original image")
	}
}

func TestLevelsStopBeforeDegenerating(t *testing.T) {
	img := grid.New(16, 16)

	levels, err := Levels(img, 5)
	if err != nil {
		t.Fatal(err)
	}
	// 16 -> 8 is allowed, 8 -> 4 is not.
	if len(levels) != 2 {
		t.Errorf("Expected schedule cut to 2 levels, got %d", len(levels))
	}
}

func TestLevelsRejectsBadCount(t *testing.T) {
	if _, err := Levels(grid.New(8, 8), 0); err == nil {
		t.Error("Expected error for zero levels")
	}
}

func TestSmoothPreservesConstant(t *testing.T) {
	img := grid.FromFunc(8, 8, func(ix, iy int) float64 { return 42 })

	out := Smooth(img)
	for i, v := range out.Data {
		if v != 42 {
			t.Fatalf("Pixel %d changed to %f", i, v)
		}
	}
}

func TestSmoothAveragesStep(t *testing.T) {
	// A single bright pixel spreads into its neighborhood.
	img := grid.New(5, 5)
	img.Set(2, 2, 16)

	out := Smooth(img)
	if got := out.At(2, 2); got != 4 {
		t.Errorf("Center after smoothing = %f, want 4", got)
	}
	if got := out.At(1, 2); got != 2 {
		t.Errorf("Edge neighbor = %f, want 2", got)
	}
	if got := out.At(1, 1); got != 1 {
		t.Errorf("Corner neighbor = %f, want 1", got)
	}
	if got := out.At(0, 2); got != 0 {
		t.Errorf("Distant pixel = %f, want 0", got)
	}
}

func TestDownsampleGeometry(t *testing.T) {
	img := grid.FromFunc(8, 6, func(ix, iy int) float64 {
		return float64(ix + 10*iy)
	})
	img.Origin = grid.Point{X: 5, Y: -2}

	out := Downsample(img)
	if out.Width != 4 || out.Height != 3 {
		t.Errorf("Expected 4x3, got %dx%d", out.Width, out.Height)
	}
	if out.Spacing.X != 2 || out.Spacing.Y != 2 {
		t.Errorf("Expected spacing 2, got %v", out.Spacing)
	}
	if out.Origin != img.Origin {
		t.Errorf("Origin changed: %v", out.Origin)
	}
	if out.At(1, 1) != img.At(2, 2) {
		t.Errorf("Downsample should keep every second pixel")
	}

	// Physical position of a kept pixel is unchanged.
	if out.IndexToPoint(1, 1) != img.IndexToPoint(2, 2) {
		t.Error("Physical coordinates drifted across downsampling")
	}
}
