// Package opt provides the optimizers that drive metric evaluations
// during registration.
package opt

import "errors"

// ErrStop may be returned by an evaluation callback to end a gradient
// run early without failing it; the optimizer returns the best state
// seen so far.
var ErrStop = errors.New("opt: stop requested")

// Optimizer defines a derivative-free optimization algorithm.
type Optimizer interface {
	// Run executes the optimization
	// eval: objective function to minimize
	// lower, upper: parameter bounds
	// dim: dimensionality of parameter space
	// Returns: best parameters and best cost
	Run(eval func([]float64) float64, lower, upper []float64, dim int) ([]float64, float64)
}

// GradientOptimizer defines a derivative-based optimization algorithm.
type GradientOptimizer interface {
	// RunGradient minimizes starting from x0 using evalGrad, which
	// returns the cost and its gradient at a parameter vector.
	// Returns: best parameters, best cost, iterations performed, and
	// an error when an evaluation fails.
	RunGradient(evalGrad func([]float64) (float64, []float64, error), x0 []float64) ([]float64, float64, int, error)
}
