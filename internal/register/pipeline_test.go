package register

import (
	"math"
	"testing"

	"github.com/cwbudde/imgreg/internal/config"
	"github.com/cwbudde/imgreg/internal/grid"
	"github.com/cwbudde/imgreg/internal/trace"
)

// blob renders a smooth Gaussian spot, which gives the metric a wide
// basin of attraction.
func blob(w, h int, cx, cy float64) *grid.Image {
	return grid.FromFunc(w, h, func(ix, iy int) float64 {
		dx := float64(ix) - cx
		dy := float64(iy) - cy
		return 100 * math.Exp(-(dx*dx+dy*dy)/(2*25))
	})
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Pyramid.Levels = 2
	cfg.Optimizer.MaxIterations = 150
	cfg.Optimizer.InitialStep = 2
	cfg.Convergence.Enabled = false
	cfg.Workers = 1
	return cfg
}

func TestRunRecoversTranslation(t *testing.T) {
	fixed := blob(32, 32, 16, 16)
	moving := blob(32, 32, 18, 15)

	result, err := Run(fixed, moving, nil, nil, testConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}

	// Mapping fixed (16,16) onto moving (18,15) needs t = (2, -1).
	if math.Abs(result.Parameters[0]-2) > 0.75 || math.Abs(result.Parameters[1]+1) > 0.75 {
		t.Errorf("Recovered translation %v, want approximately (2, -1)", result.Parameters)
	}
	if result.FinalCost >= result.InitialCost {
		t.Errorf("Cost did not improve: %g -> %g", result.InitialCost, result.FinalCost)
	}
	if result.Iterations == 0 {
		t.Error("Expected iterations to be counted")
	}
	if result.Levels != 2 {
		t.Errorf("Expected 2 levels, got %d", result.Levels)
	}
}

func TestRunIdenticalImagesStaysPut(t *testing.T) {
	img := blob(32, 32, 16, 16)

	result, err := Run(img, img, nil, nil, testConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(result.Parameters[0]) > 0.25 || math.Abs(result.Parameters[1]) > 0.25 {
		t.Errorf("Identity registration drifted to %v", result.Parameters)
	}
	if result.FinalCost > 1e-6 {
		t.Errorf("Expected near-zero final cost, got %g", result.FinalCost)
	}
}

func TestRunWritesTrace(t *testing.T) {
	dir := t.TempDir()
	tw, err := trace.NewWriter(dir, "test")
	if err != nil {
		t.Fatal(err)
	}

	fixed := blob(32, 32, 16, 16)
	moving := blob(32, 32, 17, 16)
	if _, err := Run(fixed, moving, nil, nil, testConfig(), tw); err != nil {
		t.Fatal(err)
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}

	r, err := trace.NewReader(dir, "test")
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	entries, err := r.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) == 0 {
		t.Fatal("Expected trace entries")
	}
	if entries[0].Level != 0 {
		t.Errorf("First entry should be level 0, got %d", entries[0].Level)
	}
	for _, e := range entries {
		if e.SamplesUsed <= 0 {
			t.Errorf("Entry has no samples: %+v", e)
		}
	}
}

func TestRunRejectsUnknownMetric(t *testing.T) {
	cfg := testConfig()
	cfg.Metric.Name = "NormalizedCorrelation"

	img := blob(32, 32, 16, 16)
	if _, err := Run(img, img, nil, nil, cfg, nil); err == nil {
		t.Error("Expected error for unregistered metric")
	}
}

func TestRunRejectsExcludingFixedMask(t *testing.T) {
	cfg := testConfig()
	img := blob(32, 32, 16, 16)
	mask := &grid.RectMask{MinX: 500, MinY: 500, MaxX: 501, MaxY: 501}

	if _, err := Run(img, img, mask, nil, cfg, nil); err == nil {
		t.Error("Expected error when the fixed mask excludes everything")
	}
}

func TestConvergenceTracker(t *testing.T) {
	tracker := NewConvergenceTracker(ConvergenceConfig{
		Enabled:   true,
		Patience:  3,
		Threshold: 0.01,
	})

	// Strong improvements keep the tracker alive.
	for _, cost := range []float64{100, 80, 60, 40} {
		if tracker.Update(cost) {
			t.Fatalf("Converged during improvement at cost %g", cost)
		}
	}

	// Stalling for patience iterations triggers convergence.
	if tracker.Update(39.99) {
		t.Fatal("Converged after 1 stale iteration")
	}
	if tracker.Update(39.98) {
		t.Fatal("Converged after 2 stale iterations")
	}
	if !tracker.Update(39.97) {
		t.Fatal("Expected convergence after 3 stale iterations")
	}
	if tracker.BestCost() != 39.97 {
		t.Errorf("BestCost = %g, want 39.97", tracker.BestCost())
	}
}

func TestConvergenceTrackerDisabled(t *testing.T) {
	tracker := NewConvergenceTracker(ConvergenceConfig{Enabled: false})
	for i := 0; i < 50; i++ {
		if tracker.Update(1) {
			t.Fatal("Disabled tracker must never converge")
		}
	}
}

func TestConvergenceTrackerReset(t *testing.T) {
	tracker := NewConvergenceTracker(ConvergenceConfig{Enabled: true, Patience: 1, Threshold: 0.5})
	tracker.Update(10)
	tracker.Update(9.9)
	tracker.Reset()

	if tracker.Update(5) {
		t.Error("First update after reset must not converge")
	}
	if tracker.BestCost() != 5 {
		t.Errorf("BestCost after reset = %g, want 5", tracker.BestCost())
	}
}
