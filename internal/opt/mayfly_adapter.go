package opt

import (
	"log/slog"
	"math/rand"

	"github.com/cwbudde/mayfly"
)

// MayflyAdapter wraps the external Mayfly library to conform to our
// Optimizer interface. It is derivative-free and only needs metric
// values, which makes it useful for coarse pyramid levels where the
// gradient is noisy.
type MayflyAdapter struct {
	maxIters int
	popSize  int
	seed     int64
}

// NewMayfly creates a new Mayfly optimizer adapter
func NewMayfly(maxIters, popSize int, seed int64) Optimizer {
	return &MayflyAdapter{
		maxIters: maxIters,
		popSize:  popSize,
		seed:     seed,
	}
}

// Run executes the Mayfly optimization using the external library
func (m *MayflyAdapter) Run(eval func([]float64) float64, lower, upper []float64, dim int) ([]float64, float64) {
	config := mayfly.NewDefaultConfig()

	config.ObjectiveFunc = eval
	config.ProblemSize = dim
	config.MaxIterations = m.maxIters
	config.NPop = m.popSize

	// The external library uses scalar bounds shared by every
	// dimension; use the widest interval so no parameter is cut off.
	config.LowerBound = lower[0]
	config.UpperBound = upper[0]
	for i := 1; i < dim; i++ {
		if lower[i] < config.LowerBound {
			config.LowerBound = lower[i]
		}
		if upper[i] > config.UpperBound {
			config.UpperBound = upper[i]
		}
	}

	// Seeded for reproducible registrations.
	config.Rand = rand.New(rand.NewSource(m.seed))

	result, err := mayfly.Optimize(config)
	if err != nil {
		// Fall back to the midpoint of the bounds. Callers center the
		// bounds on the incoming parameters, so a failed run keeps the
		// progress of earlier resolution levels instead of resetting
		// to zero.
		slog.Warn("mayfly optimization failed, keeping initial parameters", "error", err)
		mid := make([]float64, dim)
		for i := range mid {
			mid[i] = (lower[i] + upper[i]) / 2
		}
		return mid, eval(mid)
	}

	return result.GlobalBest.Position, result.GlobalBest.Cost
}
