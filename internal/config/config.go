// Package config provides configuration loading for registration
// runs. It handles loading from YAML files and provides default
// values; CLI flags may override the common knobs afterwards.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/cwbudde/imgreg/internal/metric"
)

// Config is the full registration configuration loaded from YAML.
type Config struct {
	// Metric selects and tunes the similarity metric.
	Metric struct {
		// Name is the registry name, e.g. "AdvancedMeanSquares".
		Name string `yaml:"name"`

		UseNormalization     bool      `yaml:"useNormalization"`
		CheckNumberOfSamples bool      `yaml:"checkNumberOfSamples"`
		MinSampleFraction    float64   `yaml:"minSampleFraction"`
		DerivativeScales     []float64 `yaml:"derivativeScales"`

		// PerLevel overrides the boolean flags for single levels.
		PerLevel []metric.LevelOptions `yaml:"perLevel"`
	} `yaml:"metric"`

	// Transform selects the transform model: translation, rigid or
	// affine.
	Transform struct {
		Type string `yaml:"type"`
	} `yaml:"transform"`

	// Sampler selects the fixed-image sample source.
	Sampler struct {
		// Strategy is full, random or grid.
		Strategy string `yaml:"strategy"`

		// Count is the subset size for the random strategy.
		Count int `yaml:"count"`

		// Stride is the subgrid stride for the grid strategy.
		Stride int `yaml:"stride"`

		// Seed makes random sampling deterministic.
		Seed int64 `yaml:"seed"`

		// Redraw resamples at every optimizer iteration.
		Redraw bool `yaml:"redraw"`
	} `yaml:"sampler"`

	// Pyramid sets the multi-resolution schedule.
	Pyramid struct {
		Levels int `yaml:"levels"`
	} `yaml:"pyramid"`

	// Optimizer selects and tunes the per-level optimizer.
	Optimizer struct {
		// Type is rsgd or mayfly.
		Type string `yaml:"type"`

		MaxIterations int     `yaml:"maxIterations"`
		InitialStep   float64 `yaml:"initialStep"`
		MinStep       float64 `yaml:"minStep"`
		Relaxation    float64 `yaml:"relaxation"`

		// PopSize and BoundRadius only apply to mayfly.
		PopSize     int     `yaml:"popSize"`
		BoundRadius float64 `yaml:"boundRadius"`
	} `yaml:"optimizer"`

	// Convergence configures early stopping per level.
	Convergence struct {
		Enabled   bool    `yaml:"enabled"`
		Patience  int     `yaml:"patience"`
		Threshold float64 `yaml:"threshold"`
	} `yaml:"convergence"`

	// Workers sizes the metric's accumulation worker pool
	// (0 = all CPUs).
	Workers int `yaml:"workers"`
}

// Default returns a configuration with default values.
func Default() *Config {
	cfg := &Config{}

	cfg.Metric.Name = metric.NameMeanSquares
	cfg.Metric.UseNormalization = false
	cfg.Metric.CheckNumberOfSamples = true
	cfg.Metric.MinSampleFraction = 0.25

	cfg.Transform.Type = "translation"

	cfg.Sampler.Strategy = "full"
	cfg.Sampler.Count = 2048
	cfg.Sampler.Stride = 2
	cfg.Sampler.Seed = 42

	cfg.Pyramid.Levels = 3

	cfg.Optimizer.Type = "rsgd"
	cfg.Optimizer.MaxIterations = 200
	cfg.Optimizer.InitialStep = 2.0
	cfg.Optimizer.MinStep = 1e-5
	cfg.Optimizer.Relaxation = 0.5
	cfg.Optimizer.PopSize = 30
	cfg.Optimizer.BoundRadius = 20

	cfg.Convergence.Enabled = true
	cfg.Convergence.Patience = 10
	cfg.Convergence.Threshold = 1e-4

	return cfg
}

// Load reads configuration from a YAML file. A missing file returns
// the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to a YAML file.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}
	return nil
}

// Validate checks value ranges that YAML parsing cannot.
func (c *Config) Validate() error {
	if c.Metric.Name == "" {
		return fmt.Errorf("config: metric name must be set")
	}
	if c.Metric.MinSampleFraction < 0 || c.Metric.MinSampleFraction > 1 {
		return fmt.Errorf("config: minSampleFraction must be in [0, 1], got %g", c.Metric.MinSampleFraction)
	}
	if c.Pyramid.Levels < 1 {
		return fmt.Errorf("config: pyramid levels must be >= 1, got %d", c.Pyramid.Levels)
	}
	if c.Optimizer.MaxIterations < 1 {
		return fmt.Errorf("config: optimizer maxIterations must be >= 1, got %d", c.Optimizer.MaxIterations)
	}
	switch c.Optimizer.Type {
	case "rsgd", "mayfly":
	default:
		return fmt.Errorf("config: unknown optimizer type %q (want rsgd or mayfly)", c.Optimizer.Type)
	}
	return nil
}

// MetricOptions converts the metric section into engine options.
func (c *Config) MetricOptions() metric.Options {
	return metric.Options{
		UseNormalization:     c.Metric.UseNormalization,
		CheckNumberOfSamples: c.Metric.CheckNumberOfSamples,
		MinSampleFraction:    c.Metric.MinSampleFraction,
		DerivativeScales:     c.Metric.DerivativeScales,
		Workers:              c.Workers,
		PerLevel:             c.Metric.PerLevel,
	}
}
