package metric

import (
	"fmt"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"

	"github.com/cwbudde/imgreg/internal/interp"
	"github.com/cwbudde/imgreg/internal/sampler"
)

// MeanSquares is the mean-squared-difference metric engine
// ("AdvancedMeanSquares"). For each fixed-image sample it maps the
// point through the current transform, filters points that land
// outside the moving image's valid domain, interpolates the moving
// intensity and accumulates the squared difference; in derivative
// mode it additionally chains the moving-image spatial gradient
// through the transform Jacobian.
//
// Accumulation runs over a worker pool with per-worker partial
// accumulators merged in worker order. For a fixed worker count
// repeated evaluations are bit-identical; changing Workers changes
// the floating-point summation order and may flip low-order bits.
type MeanSquares struct {
	deps    Deps
	limiter *interp.Limiter

	// Per-level state, set by BeforeEachResolution.
	useNormalization     bool
	checkNumberOfSamples bool
	normFactor           float64

	initialized bool
}

// NewMeanSquares creates the engine. Initialize must be called before
// evaluation.
func NewMeanSquares(deps Deps) (*MeanSquares, error) {
	if deps.Options.MinSampleFraction == 0 {
		deps.Options.MinSampleFraction = DefaultOptions().MinSampleFraction
	}
	if deps.Options.Workers <= 0 {
		deps.Options.Workers = runtime.NumCPU()
	}
	return &MeanSquares{
		deps:                 deps,
		useNormalization:     deps.Options.UseNormalization,
		checkNumberOfSamples: deps.Options.CheckNumberOfSamples,
		normFactor:           1,
	}, nil
}

// Initialize validates the collaborator wiring and primes the sample
// source. A mask that excludes every fixed-image point surfaces here
// as a configuration error.
func (m *MeanSquares) Initialize() error {
	if m.deps.Fixed == nil {
		return fmt.Errorf("metric: fixed image is not set")
	}
	if m.deps.Moving == nil {
		return fmt.Errorf("metric: moving image is not set")
	}
	if err := m.deps.Fixed.Validate(); err != nil {
		return fmt.Errorf("metric: fixed image: %w", err)
	}
	if err := m.deps.Moving.Validate(); err != nil {
		return fmt.Errorf("metric: moving image: %w", err)
	}
	if m.deps.Transform == nil {
		return fmt.Errorf("metric: transform is not set")
	}
	if m.deps.Interp == nil {
		return fmt.Errorf("metric: interpolator is not set")
	}
	if m.deps.Sampler == nil {
		return fmt.Errorf("metric: sampler is not set")
	}
	if s := m.deps.Options.DerivativeScales; s != nil && len(s) != m.deps.Transform.NumParameters() {
		return fmt.Errorf("metric: derivative scales have length %d, transform has %d parameters",
			len(s), m.deps.Transform.NumParameters())
	}

	// Prime the sampler so an empty eligible set fails at Initialize
	// rather than mid-registration.
	if _, err := m.deps.Sampler.Samples(); err != nil {
		return fmt.Errorf("metric: %w", err)
	}

	lo, hi := m.deps.Moving.Range()
	m.limiter = interp.NewLimiter(lo, hi)

	m.recomputeNormalization()
	m.initialized = true

	slog.Debug("metric initialized",
		"metric", NameMeanSquares,
		"parameters", m.deps.Transform.NumParameters(),
		"workers", m.deps.Options.Workers,
	)
	return nil
}

// BeforeEachResolution re-reads the per-level option overrides and
// recomputes the normalization factor from the current level's image
// intensity ranges. Called once per pyramid level, never mid-level.
func (m *MeanSquares) BeforeEachResolution(level int) {
	m.useNormalization = m.deps.Options.UseNormalization
	m.checkNumberOfSamples = m.deps.Options.CheckNumberOfSamples
	for _, lo := range m.deps.Options.PerLevel {
		if lo.Level != level {
			continue
		}
		if lo.UseNormalization != nil {
			m.useNormalization = *lo.UseNormalization
		}
		if lo.CheckNumberOfSamples != nil {
			m.checkNumberOfSamples = *lo.CheckNumberOfSamples
		}
	}

	m.recomputeNormalization()

	slog.Debug("metric configured for resolution level",
		"level", level,
		"useNormalization", m.useNormalization,
		"checkNumberOfSamples", m.checkNumberOfSamples,
		"normFactor", m.normFactor,
	)
}

// recomputeNormalization derives (range/10)^2 from the larger of the
// fixed and moving intensity spans. A degenerate (zero) span keeps
// the factor at 1 so constant images do not divide by zero.
func (m *MeanSquares) recomputeNormalization() {
	if m.deps.Fixed == nil || m.deps.Moving == nil {
		m.normFactor = 1
		return
	}
	span := m.deps.Fixed.Span()
	if ms := m.deps.Moving.Span(); ms > span {
		span = ms
	}
	if span <= 0 {
		m.normFactor = 1
		return
	}
	m.normFactor = (span / 10) * (span / 10)
}

// GetValue evaluates the measure only.
func (m *MeanSquares) GetValue(params []float64) (Evaluation, error) {
	return m.evaluate(params, false)
}

// GetValueAndDerivative evaluates the measure and its derivative.
// The point filtering is identical to GetValue, so both calls at the
// same parameters see the same sample set.
func (m *MeanSquares) GetValueAndDerivative(params []float64) (Evaluation, error) {
	return m.evaluate(params, true)
}

// partial is one worker's accumulator state.
type partial struct {
	sumSquaredDiff float64
	deriv          []float64
	used           int
}

func (m *MeanSquares) evaluate(params []float64, wantDerivative bool) (Evaluation, error) {
	if !m.initialized {
		return Evaluation{}, fmt.Errorf("metric: evaluate called before Initialize")
	}
	if err := m.deps.Transform.SetParameters(params); err != nil {
		return Evaluation{}, fmt.Errorf("metric: %w", err)
	}

	samples, err := m.deps.Sampler.Samples()
	if err != nil {
		return Evaluation{}, fmt.Errorf("metric: %w", err)
	}

	numParams := m.deps.Transform.NumParameters()
	workers := m.deps.Options.Workers
	if workers > len(samples) {
		workers = len(samples)
	}
	if workers < 1 {
		workers = 1
	}

	partials := make([]partial, workers)
	var g errgroup.Group
	chunk := (len(samples) + workers - 1) / workers
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > len(samples) {
			hi = len(samples)
		}
		acc := &partials[w]
		if wantDerivative {
			acc.deriv = make([]float64, numParams)
		}
		part := samples[lo:hi]
		g.Go(func() error {
			m.accumulate(part, wantDerivative, acc)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Evaluation{}, fmt.Errorf("metric: %w", err)
	}

	// Merge in worker order so a fixed worker count sums in a fixed
	// order.
	var sum float64
	var used int
	var deriv []float64
	if wantDerivative {
		deriv = make([]float64, numParams)
	}
	for i := range partials {
		sum += partials[i].sumSquaredDiff
		used += partials[i].used
		if wantDerivative {
			floats.Add(deriv, partials[i].deriv)
		}
	}

	if used == 0 {
		return Evaluation{}, fmt.Errorf("metric: %w", ErrNoValidSamples)
	}
	if m.checkNumberOfSamples {
		minUsed := m.deps.Options.MinSampleFraction * float64(len(samples))
		if float64(used) < minUsed {
			slog.Warn("metric: low valid sample count",
				"used", used,
				"drawn", len(samples),
				"minFraction", m.deps.Options.MinSampleFraction,
			)
		}
	}

	measure := sum / float64(used)
	if wantDerivative {
		floats.Scale(1/float64(used), deriv)
		if s := m.deps.Options.DerivativeScales; s != nil {
			floats.Mul(deriv, s)
		}
	}
	if m.useNormalization {
		measure /= m.normFactor
		if wantDerivative {
			floats.Scale(1/m.normFactor, deriv)
		}
	}

	return Evaluation{
		Value:        measure,
		Derivative:   deriv,
		SamplesUsed:  used,
		SamplesDrawn: len(samples),
	}, nil
}

// accumulate folds one chunk of samples into acc. The validity filter
// (interpolator support region, then moving mask) runs identically
// with and without derivatives.
func (m *MeanSquares) accumulate(samples []sampler.Sample, wantDerivative bool, acc *partial) {
	for _, s := range samples {
		mapped := m.deps.Transform.Apply(s.Point)
		if !m.deps.Interp.IsInsideBuffer(mapped) {
			continue
		}
		if m.deps.MovingMask != nil && !m.deps.MovingMask.Inside(mapped) {
			continue
		}

		if !wantDerivative {
			moving := m.limiter.Apply(m.deps.Interp.Evaluate(mapped))
			diff := s.Value - moving
			acc.sumSquaredDiff += diff * diff
			acc.used++
			continue
		}

		moving, grad := m.deps.Interp.EvaluateWithGradient(mapped)
		moving = m.limiter.Apply(moving)
		diff := s.Value - moving
		acc.sumSquaredDiff += diff * diff
		acc.used++

		// Chain rule: d/dp (f-m)^2 = -2 (f-m) * (gradM . dT/dp),
		// with the Jacobian evaluated at the same fixed point the
		// gradient's moving point was mapped from.
		jac := m.deps.Transform.Jacobian(s.Point)
		for p := 0; p < len(acc.deriv); p++ {
			dmdp := grad.DX*jac.At(0, p) + grad.DY*jac.At(1, p)
			acc.deriv[p] += -2 * diff * dmdp
		}
	}
}
