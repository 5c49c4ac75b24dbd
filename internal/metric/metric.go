// Package metric implements the similarity metrics that turn a
// candidate spatial transform into a scalar dissimilarity value and
// its derivative with respect to the transform parameters. The
// mean-squared-difference engine here is evaluated on every optimizer
// iteration at every resolution level.
package metric

import (
	"errors"

	"github.com/cwbudde/imgreg/internal/grid"
	"github.com/cwbudde/imgreg/internal/interp"
	"github.com/cwbudde/imgreg/internal/sampler"
	"github.com/cwbudde/imgreg/internal/transform"
)

// ErrNoValidSamples is returned when every drawn sample mapped outside
// the moving image's valid domain. The evaluation fails atomically; no
// partial result is returned.
var ErrNoValidSamples = errors.New("metric: no valid samples (all points mapped outside the moving image domain)")

// SimilarityMetric is the value/derivative capability consumed by an
// optimizer.
type SimilarityMetric interface {
	// Initialize validates that all collaborators are present and
	// consistently configured. Must be called before evaluation.
	Initialize() error

	// GetValue evaluates the metric at the given transform parameters.
	// The returned Evaluation carries no derivative.
	GetValue(params []float64) (Evaluation, error)

	// GetValueAndDerivative evaluates the metric and its derivative
	// with respect to the transform parameters.
	GetValueAndDerivative(params []float64) (Evaluation, error)
}

// ResolutionAware is the per-pyramid-level capability consumed by the
// resolution driver, separate from SimilarityMetric by design.
type ResolutionAware interface {
	// BeforeEachResolution is called once on entry to each pyramid
	// level, outside the per-iteration loop.
	BeforeEachResolution(level int)
}

// Deps bundles the external collaborators a metric evaluates against.
// Images and masks are read-only for the whole registration run; the
// transform is shared with the optimizer, which writes its parameters
// between evaluations.
type Deps struct {
	Fixed      *grid.Image
	Moving     *grid.Image
	FixedMask  grid.Mask // optional, nil means all points eligible
	MovingMask grid.Mask // optional
	Transform  transform.Transform
	Interp     interp.Interpolator
	Sampler    sampler.Sampler
	Options    Options
}

// Options are the metric settings read from configuration.
type Options struct {
	// UseNormalization divides the measure (and derivative) by
	// (range/10)^2, where range is the larger of the fixed and moving
	// intensity spans at the current resolution level. Default false.
	UseNormalization bool

	// CheckNumberOfSamples enables the low-valid-sample-count warning.
	// Default true.
	CheckNumberOfSamples bool

	// MinSampleFraction is the fraction of drawn samples that must
	// remain valid before the warning fires. Default 0.25.
	MinSampleFraction float64

	// DerivativeScales optionally weights each derivative component.
	// Length must equal the transform parameter count when set.
	DerivativeScales []float64

	// Workers is the size of the accumulation worker pool.
	// Defaults to runtime.NumCPU().
	Workers int

	// PerLevel overrides the two boolean flags for individual
	// resolution levels.
	PerLevel []LevelOptions
}

// LevelOptions overrides metric flags for one resolution level.
// Nil fields keep the run-wide setting.
type LevelOptions struct {
	Level                int   `yaml:"level"`
	UseNormalization     *bool `yaml:"useNormalization"`
	CheckNumberOfSamples *bool `yaml:"checkNumberOfSamples"`
}

// DefaultOptions mirrors the documented defaults.
func DefaultOptions() Options {
	return Options{
		UseNormalization:     false,
		CheckNumberOfSamples: true,
		MinSampleFraction:    0.25,
	}
}
