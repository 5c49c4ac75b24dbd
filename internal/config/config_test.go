package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cwbudde/imgreg/internal/metric"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()

	if cfg.Metric.Name != metric.NameMeanSquares {
		t.Errorf("Default metric = %q, want %q", cfg.Metric.Name, metric.NameMeanSquares)
	}
	if cfg.Metric.UseNormalization {
		t.Error("UseNormalization must default to false")
	}
	if !cfg.Metric.CheckNumberOfSamples {
		t.Error("CheckNumberOfSamples must default to true")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config failed validation: %v", err)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Metric.Name != metric.NameMeanSquares {
		t.Errorf("Expected defaults, got metric %q", cfg.Metric.Name)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	doc := `
metric:
  name: AdvancedMeanSquares
  useNormalization: true
  perLevel:
    - level: 0
      checkNumberOfSamples: false
sampler:
  strategy: random
  count: 500
  seed: 7
pyramid:
  levels: 4
optimizer:
  type: mayfly
  popSize: 25
`
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Metric.UseNormalization {
		t.Error("useNormalization override lost")
	}
	if cfg.Sampler.Strategy != "random" || cfg.Sampler.Count != 500 || cfg.Sampler.Seed != 7 {
		t.Errorf("Sampler section mismatch: %+v", cfg.Sampler)
	}
	if cfg.Pyramid.Levels != 4 {
		t.Errorf("Pyramid levels = %d, want 4", cfg.Pyramid.Levels)
	}
	if cfg.Optimizer.Type != "mayfly" || cfg.Optimizer.PopSize != 25 {
		t.Errorf("Optimizer section mismatch: %+v", cfg.Optimizer)
	}
	// Untouched values keep their defaults.
	if cfg.Optimizer.MaxIterations != 200 {
		t.Errorf("MaxIterations default lost: %d", cfg.Optimizer.MaxIterations)
	}

	if len(cfg.Metric.PerLevel) != 1 {
		t.Fatalf("Expected 1 per-level override, got %d", len(cfg.Metric.PerLevel))
	}
	lo := cfg.Metric.PerLevel[0]
	if lo.Level != 0 || lo.CheckNumberOfSamples == nil || *lo.CheckNumberOfSamples {
		t.Errorf("Per-level override mismatch: %+v", lo)
	}
	if lo.UseNormalization != nil {
		t.Error("Unset per-level field should stay nil")
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	doc := `
optimizer:
  type: annealing
`
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Expected error for unknown optimizer type")
	}
}

func TestValidateRanges(t *testing.T) {
	cfg := Default()
	cfg.Metric.MinSampleFraction = 1.5
	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for minSampleFraction > 1")
	}

	cfg = Default()
	cfg.Pyramid.Levels = 0
	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for zero pyramid levels")
	}

	cfg = Default()
	cfg.Metric.Name = ""
	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for empty metric name")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "cfg.yaml")

	cfg := Default()
	cfg.Sampler.Strategy = "grid"
	cfg.Sampler.Stride = 3
	if err := Save(cfg, path); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Sampler.Strategy != "grid" || loaded.Sampler.Stride != 3 {
		t.Errorf("Round trip lost sampler settings: %+v", loaded.Sampler)
	}
}

func TestMetricOptions(t *testing.T) {
	cfg := Default()
	cfg.Metric.UseNormalization = true
	cfg.Metric.DerivativeScales = []float64{0, 1}
	cfg.Workers = 4

	opts := cfg.MetricOptions()
	if !opts.UseNormalization || opts.Workers != 4 || len(opts.DerivativeScales) != 2 {
		t.Errorf("MetricOptions mismatch: %+v", opts)
	}
}
