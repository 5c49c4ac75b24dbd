package opt

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
)

// RSGD is a regular-step gradient descent optimizer in which every
// parameter keeps its own step length. A parameter's step shrinks by
// the relaxation factor whenever its gradient component changes sign
// (the estimate overshot along that axis); the run stops when all
// step lengths have decayed below MinStep, the gradient magnitude
// falls below GradientTolerance, or MaxIterations is reached.
type RSGD struct {
	// MaxIterations bounds the number of descent steps.
	MaxIterations int

	// InitialStep is the starting step length for every parameter.
	InitialStep float64

	// MinStep ends the run once every per-parameter step is below it.
	MinStep float64

	// Relaxation multiplies a parameter's step on a gradient sign
	// flip. Must be in (0, 1).
	Relaxation float64

	// GradientTolerance ends the run when the gradient magnitude
	// drops below it.
	GradientTolerance float64
}

// NewRSGD creates the optimizer with the conventional defaults.
func NewRSGD(maxIters int) *RSGD {
	return &RSGD{
		MaxIterations:     maxIters,
		InitialStep:       1.0,
		MinStep:           1e-5,
		Relaxation:        0.5,
		GradientTolerance: 1e-8,
	}
}

// RunGradient minimizes evalGrad starting from x0.
func (o *RSGD) RunGradient(evalGrad func([]float64) (float64, []float64, error), x0 []float64) ([]float64, float64, int, error) {
	if o.Relaxation <= 0 || o.Relaxation >= 1 {
		return nil, 0, 0, fmt.Errorf("rsgd: relaxation must be in (0, 1), got %g", o.Relaxation)
	}

	dim := len(x0)
	x := append([]float64(nil), x0...)
	steps := make([]float64, dim)
	for i := range steps {
		steps[i] = o.InitialStep
	}
	prevSign := make([]int, dim)

	best := append([]float64(nil), x...)
	bestCost := math.Inf(1)

	iter := 0
	for ; iter < o.MaxIterations; iter++ {
		cost, gradient, err := evalGrad(x)
		if errors.Is(err, ErrStop) {
			break
		}
		if err != nil {
			return nil, 0, iter, fmt.Errorf("rsgd: evaluation at iteration %d: %w", iter, err)
		}
		if cost < bestCost {
			bestCost = cost
			copy(best, x)
		}

		norm := 0.0
		for _, g := range gradient {
			norm += g * g
		}
		norm = math.Sqrt(norm)
		if norm < o.GradientTolerance {
			slog.Debug("rsgd: gradient below tolerance", "iteration", iter, "norm", norm)
			break
		}

		// Each parameter moves by the sign of its gradient component
		// times its own step length; a sign flip relaxes that step.
		alive := false
		for i, g := range gradient {
			sign := 0
			if g > 0 {
				sign = 1
			} else if g < 0 {
				sign = -1
			}
			if sign != 0 && prevSign[i] != 0 && sign != prevSign[i] {
				steps[i] *= o.Relaxation
			}
			if sign != 0 {
				prevSign[i] = sign
			}
			if steps[i] >= o.MinStep {
				alive = true
			}
			x[i] -= float64(sign) * steps[i]
		}
		if !alive {
			slog.Debug("rsgd: all step lengths below minimum", "iteration", iter)
			break
		}
	}

	return best, bestCost, iter, nil
}
