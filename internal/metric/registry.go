package metric

import (
	"fmt"
	"sort"
	"strings"
)

// NameMeanSquares selects the mean-squared-difference engine in
// configuration files.
const NameMeanSquares = "AdvancedMeanSquares"

// Factory constructs a metric from its collaborators.
type Factory func(deps Deps) (SimilarityMetric, error)

var registry = map[string]Factory{}

// Register adds a metric factory under a configuration name.
// Registering a duplicate name panics: that is a wiring bug, not a
// runtime condition.
func Register(name string, factory Factory) {
	if _, dup := registry[name]; dup {
		panic("metric: duplicate registration of " + name)
	}
	registry[name] = factory
}

// New constructs the metric registered under name.
func New(name string, deps Deps) (SimilarityMetric, error) {
	factory, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown metric %q (known: %s)", name, strings.Join(Names(), ", "))
	}
	return factory(deps)
}

// Names lists the registered metric names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	Register(NameMeanSquares, func(deps Deps) (SimilarityMetric, error) {
		return NewMeanSquares(deps)
	})
}
