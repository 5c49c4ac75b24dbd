package sampler

import (
	"github.com/cwbudde/imgreg/internal/grid"
)

// Full samples every voxel of the fixed image allowed by the mask.
// The sample set is computed once and cached.
type Full struct {
	img     *grid.Image
	mask    grid.Mask
	samples []Sample
	drawn   bool
}

// NewFull creates a full sampler over img.
func NewFull(img *grid.Image, mask grid.Mask) *Full {
	return &Full{img: img, mask: mask}
}

func (s *Full) Samples() ([]Sample, error) {
	if !s.drawn {
		s.samples = eligible(s.img, s.mask)
		s.drawn = true
	}
	if len(s.samples) == 0 {
		return nil, ErrEmptySampleSet
	}
	return s.samples, nil
}

// NewIteration is a no-op: the full sample set never changes.
func (s *Full) NewIteration() {}
