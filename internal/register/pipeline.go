// Package register drives a full multi-resolution registration: it
// builds the image pyramids, constructs the configured metric per
// level, hands it to the optimizer and carries the transform
// parameters from coarse to fine.
package register

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/cwbudde/imgreg/internal/config"
	"github.com/cwbudde/imgreg/internal/grid"
	"github.com/cwbudde/imgreg/internal/interp"
	"github.com/cwbudde/imgreg/internal/metric"
	"github.com/cwbudde/imgreg/internal/opt"
	"github.com/cwbudde/imgreg/internal/pyramid"
	"github.com/cwbudde/imgreg/internal/sampler"
	"github.com/cwbudde/imgreg/internal/trace"
	"github.com/cwbudde/imgreg/internal/transform"
)

// Result holds the output of one registration run.
type Result struct {
	Parameters  []float64
	FinalCost   float64
	InitialCost float64
	Levels      int
	Iterations  int
}

// Run registers moving onto fixed according to cfg. The optional
// trace writer receives one entry per optimizer iteration; pass nil
// to disable tracing.
func Run(fixed, moving *grid.Image, fixedMask, movingMask grid.Mask, cfg *config.Config, tw *trace.Writer) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	fixedLevels, err := pyramid.Levels(fixed, cfg.Pyramid.Levels)
	if err != nil {
		return nil, fmt.Errorf("fixed pyramid: %w", err)
	}
	movingLevels, err := pyramid.Levels(moving, cfg.Pyramid.Levels)
	if err != nil {
		return nil, fmt.Errorf("moving pyramid: %w", err)
	}
	if len(movingLevels) != len(fixedLevels) {
		// Pyramids can end early on small images; keep them aligned
		// by using the shorter schedule for both.
		n := len(fixedLevels)
		if len(movingLevels) < n {
			n = len(movingLevels)
		}
		fixedLevels = fixedLevels[len(fixedLevels)-n:]
		movingLevels = movingLevels[len(movingLevels)-n:]
	}

	// Transform center: middle of the fixed image in physical
	// coordinates, shared across levels.
	center := fixed.IndexToPoint(fixed.Width/2, fixed.Height/2)
	tf, err := transform.New(cfg.Transform.Type, center)
	if err != nil {
		return nil, err
	}

	params := tf.Parameters() // identity start
	tracker := NewConvergenceTracker(ConvergenceConfig{
		Enabled:   cfg.Convergence.Enabled,
		Patience:  cfg.Convergence.Patience,
		Threshold: cfg.Convergence.Threshold,
	})

	result := &Result{Levels: len(fixedLevels)}
	for level := 0; level < len(fixedLevels); level++ {
		fixedImg := fixedLevels[level]
		movingImg := movingLevels[level]

		smp, err := sampler.New(cfg.Sampler.Strategy, fixedImg, fixedMask,
			cfg.Sampler.Count, cfg.Sampler.Stride, cfg.Sampler.Seed, cfg.Sampler.Redraw)
		if err != nil {
			return nil, err
		}

		mtr, err := metric.New(cfg.Metric.Name, metric.Deps{
			Fixed:      fixedImg,
			Moving:     movingImg,
			FixedMask:  fixedMask,
			MovingMask: movingMask,
			Transform:  tf,
			Interp:     interp.NewLinear(movingImg),
			Sampler:    smp,
			Options:    cfg.MetricOptions(),
		})
		if err != nil {
			return nil, err
		}
		if err := mtr.Initialize(); err != nil {
			return nil, err
		}
		if ra, ok := mtr.(metric.ResolutionAware); ok {
			ra.BeforeEachResolution(level)
		}

		if level == 0 {
			initial, err := mtr.GetValue(params)
			if err != nil {
				return nil, fmt.Errorf("level 0 initial evaluation: %w", err)
			}
			result.InitialCost = initial.Value
		}

		slog.Info("starting resolution level",
			"level", level,
			"size", fmt.Sprintf("%dx%d", fixedImg.Width, fixedImg.Height),
			"optimizer", cfg.Optimizer.Type,
		)

		tracker.Reset()
		params, err = runLevel(cfg, mtr, smp, tf, params, level, tracker, tw, result)
		if err != nil {
			return nil, fmt.Errorf("level %d: %w", level, err)
		}
	}

	// Final cost at the finest level with the final parameters.
	finalMetric, err := buildMetric(cfg, fixedLevels, movingLevels, fixedMask, movingMask, tf)
	if err != nil {
		return nil, err
	}
	final, err := finalMetric.GetValue(params)
	if err != nil {
		return nil, fmt.Errorf("final evaluation: %w", err)
	}
	result.FinalCost = final.Value
	result.Parameters = params

	slog.Info("registration complete",
		"initial_cost", result.InitialCost,
		"final_cost", result.FinalCost,
		"iterations", result.Iterations,
		"levels", result.Levels,
	)
	return result, nil
}

// runLevel runs the configured optimizer on one pyramid level and
// returns the refined parameters.
func runLevel(cfg *config.Config, mtr metric.SimilarityMetric, smp sampler.Sampler,
	tf transform.Transform, params []float64, level int,
	tracker *ConvergenceTracker, tw *trace.Writer, result *Result) ([]float64, error) {

	switch cfg.Optimizer.Type {
	case "rsgd":
		rsgd := opt.NewRSGD(cfg.Optimizer.MaxIterations)
		if cfg.Optimizer.InitialStep > 0 {
			rsgd.InitialStep = cfg.Optimizer.InitialStep
		}
		if cfg.Optimizer.MinStep > 0 {
			rsgd.MinStep = cfg.Optimizer.MinStep
		}
		if cfg.Optimizer.Relaxation > 0 {
			rsgd.Relaxation = cfg.Optimizer.Relaxation
		}

		iteration := 0
		evalGrad := func(x []float64) (float64, []float64, error) {
			smp.NewIteration()
			ev, err := mtr.GetValueAndDerivative(x)
			if err != nil {
				return 0, nil, err
			}
			writeTrace(tw, level, iteration, ev, x)
			iteration++
			result.Iterations++
			if tracker.Update(ev.Value) {
				return ev.Value, ev.Derivative, opt.ErrStop
			}
			return ev.Value, ev.Derivative, nil
		}

		best, bestCost, _, err := rsgd.RunGradient(evalGrad, params)
		if err != nil {
			return nil, err
		}
		slog.Debug("level finished", "level", level, "best_cost", bestCost, "iterations", iteration)
		return best, nil

	case "mayfly":
		dim := tf.NumParameters()
		lower := make([]float64, dim)
		upper := make([]float64, dim)
		for i := range lower {
			lower[i] = params[i] - cfg.Optimizer.BoundRadius
			upper[i] = params[i] + cfg.Optimizer.BoundRadius
		}

		iteration := 0
		var evalErr error
		eval := func(x []float64) float64 {
			smp.NewIteration()
			ev, err := mtr.GetValue(x)
			if err != nil {
				// The metric failed hard (e.g. no valid samples);
				// poison this candidate and remember the error.
				if evalErr == nil {
					evalErr = err
				}
				return maxCost
			}
			writeTrace(tw, level, iteration, ev, nil)
			iteration++
			result.Iterations++
			return ev.Value
		}

		optimizer := opt.NewMayfly(cfg.Optimizer.MaxIterations, cfg.Optimizer.PopSize, cfg.Sampler.Seed)
		best, bestCost := optimizer.Run(eval, lower, upper, dim)
		if bestCost >= maxCost && evalErr != nil {
			return nil, evalErr
		}
		slog.Debug("level finished", "level", level, "best_cost", bestCost, "iterations", iteration)
		return best, nil

	default:
		return nil, fmt.Errorf("unknown optimizer type %q", cfg.Optimizer.Type)
	}
}

// maxCost marks candidates whose evaluation failed; any finite real
// evaluation beats it.
const maxCost = 1e300

func writeTrace(tw *trace.Writer, level, iteration int, ev metric.Evaluation, params []float64) {
	if tw == nil {
		return
	}
	entry := trace.Entry{
		Level:       level,
		Iteration:   iteration,
		Cost:        ev.Value,
		SamplesUsed: ev.SamplesUsed,
		Timestamp:   time.Now(),
	}
	if params != nil {
		entry.Params = append([]float64(nil), params...)
	}
	if err := tw.Write(entry); err != nil {
		slog.Warn("failed to write trace entry", "error", err)
	}
}

// buildMetric constructs a metric on the finest pyramid level, used
// for the final consistency evaluation.
func buildMetric(cfg *config.Config, fixedLevels, movingLevels []*grid.Image,
	fixedMask, movingMask grid.Mask, tf transform.Transform) (metric.SimilarityMetric, error) {

	finest := len(fixedLevels) - 1
	smp, err := sampler.New(cfg.Sampler.Strategy, fixedLevels[finest], fixedMask,
		cfg.Sampler.Count, cfg.Sampler.Stride, cfg.Sampler.Seed, false)
	if err != nil {
		return nil, err
	}
	mtr, err := metric.New(cfg.Metric.Name, metric.Deps{
		Fixed:      fixedLevels[finest],
		Moving:     movingLevels[finest],
		FixedMask:  fixedMask,
		MovingMask: movingMask,
		Transform:  tf,
		Interp:     interp.NewLinear(movingLevels[finest]),
		Sampler:    smp,
		Options:    cfg.MetricOptions(),
	})
	if err != nil {
		return nil, err
	}
	if err := mtr.Initialize(); err != nil {
		return nil, err
	}
	if ra, ok := mtr.(metric.ResolutionAware); ok {
		ra.BeforeEachResolution(finest)
	}
	return mtr, nil
}
