package register

import (
	"log/slog"
	"math"
)

// ConvergenceConfig defines parameters for detecting per-level
// convergence of the optimizer loop.
type ConvergenceConfig struct {
	// Enabled controls whether convergence detection is active
	Enabled bool

	// Patience is the number of iterations with no improvement before
	// stopping the current level
	Patience int

	// Threshold is the minimum relative improvement required to count
	// as progress. Example: 0.001 = 0.1% improvement required.
	Threshold float64
}

// ConvergenceTracker tracks metric values and detects when a level's
// optimization has stalled.
type ConvergenceTracker struct {
	config          ConvergenceConfig
	bestCost        float64
	lastSignificant float64
	staleCount      int
	seen            int
}

// NewConvergenceTracker creates a tracker with the given config.
func NewConvergenceTracker(config ConvergenceConfig) *ConvergenceTracker {
	return &ConvergenceTracker{
		config:          config,
		bestCost:        math.Inf(1),
		lastSignificant: math.Inf(1),
	}
}

// Update records a new cost value and returns true if convergence is
// detected.
func (c *ConvergenceTracker) Update(cost float64) bool {
	if !c.config.Enabled {
		return false
	}

	c.seen++
	if cost < c.bestCost {
		c.bestCost = cost
	}
	if c.seen == 1 {
		c.lastSignificant = cost
		return false
	}

	relativeImprovement := (c.lastSignificant - cost) / c.lastSignificant
	if relativeImprovement >= c.config.Threshold {
		c.lastSignificant = cost
		c.staleCount = 0
		return false
	}

	c.staleCount++
	if c.staleCount >= c.config.Patience {
		slog.Debug("convergence detected, stopping level early",
			"stale_count", c.staleCount,
			"patience", c.config.Patience,
			"best_cost", c.bestCost,
		)
		return true
	}
	return false
}

// BestCost returns the best cost seen so far.
func (c *ConvergenceTracker) BestCost() float64 {
	return c.bestCost
}

// Reset clears the tracker's state for the next level.
func (c *ConvergenceTracker) Reset() {
	c.bestCost = math.Inf(1)
	c.lastSignificant = math.Inf(1)
	c.staleCount = 0
	c.seen = 0
}
