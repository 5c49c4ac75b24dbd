package interp

// Limiter clamps interpolated intensities to a fixed range.
// Interpolation can overshoot the image's true intensity range at
// most by rounding noise with bilinear kernels, but higher-order
// interpolators and resampled pyramids can produce genuine
// out-of-range values; those are clamped here rather than treated as
// errors. The gradient is passed through unchanged when the value
// clamps.
type Limiter struct {
	Lo, Hi float64
}

// NewLimiter creates a limiter for the [lo, hi] intensity range.
func NewLimiter(lo, hi float64) *Limiter {
	return &Limiter{Lo: lo, Hi: hi}
}

// Apply clamps v into [Lo, Hi].
func (l *Limiter) Apply(v float64) float64 {
	if l == nil {
		return v
	}
	if v < l.Lo {
		return l.Lo
	}
	if v > l.Hi {
		return l.Hi
	}
	return v
}
