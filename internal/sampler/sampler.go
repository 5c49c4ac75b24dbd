// Package sampler produces the fixed-image sample points at which the
// registration metric is evaluated. Samplers honor an optional
// fixed-image mask and are deterministic for a fixed seed.
package sampler

import (
	"errors"
	"fmt"

	"github.com/cwbudde/imgreg/internal/grid"
)

// ErrEmptySampleSet is returned when the mask excludes every point of
// the fixed image. Use errors.Is to detect it.
var ErrEmptySampleSet = errors.New("sampler: no eligible sample points (mask excludes everything)")

// Sample is one fixed-image evaluation point with its intensity.
type Sample struct {
	Point grid.Point
	Value float64
}

// Sampler yields the fixed-domain samples for one metric evaluation.
type Sampler interface {
	// Samples returns the current sample set. The returned slice must
	// not be mutated by the caller.
	Samples() ([]Sample, error)

	// NewIteration signals the start of a new optimizer iteration.
	// Redrawing samplers refresh their sample set here; caching
	// samplers ignore it.
	NewIteration()
}

// New constructs a sampler by strategy name: "full", "random" or
// "grid".
func New(strategy string, img *grid.Image, mask grid.Mask, count, stride int, seed int64, redraw bool) (Sampler, error) {
	switch strategy {
	case "full":
		return NewFull(img, mask), nil
	case "random":
		if count <= 0 {
			return nil, fmt.Errorf("random sampler requires a positive sample count, got %d", count)
		}
		return NewRandom(img, mask, count, seed, redraw), nil
	case "grid":
		if stride <= 0 {
			return nil, fmt.Errorf("grid sampler requires a positive stride, got %d", stride)
		}
		return NewGrid(img, mask, stride), nil
	default:
		return nil, fmt.Errorf("unknown sampler strategy %q (want full, random or grid)", strategy)
	}
}

// eligible collects every voxel center allowed by the mask.
func eligible(img *grid.Image, mask grid.Mask) []Sample {
	samples := make([]Sample, 0, img.Width*img.Height)
	for iy := 0; iy < img.Height; iy++ {
		for ix := 0; ix < img.Width; ix++ {
			p := img.IndexToPoint(ix, iy)
			if mask != nil && !mask.Inside(p) {
				continue
			}
			samples = append(samples, Sample{Point: p, Value: img.At(ix, iy)})
		}
	}
	return samples
}
