package metric

// Evaluation is the result of one metric evaluation: the scalar
// measure, the derivative with respect to the transform parameters
// (nil on value-only calls), and diagnostic sample counters. Created
// fresh per call and immutable once returned.
type Evaluation struct {
	// Value is the metric measure (mean squared intensity difference
	// over the valid samples, optionally normalized).
	Value float64

	// Derivative has one component per transform parameter. Nil when
	// the evaluation was value-only.
	Derivative []float64

	// SamplesUsed counts the samples that mapped inside the moving
	// image's valid domain. Always <= SamplesDrawn.
	SamplesUsed int

	// SamplesDrawn counts the samples produced by the sampler.
	SamplesDrawn int
}
