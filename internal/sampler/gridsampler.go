package sampler

import (
	"github.com/cwbudde/imgreg/internal/grid"
)

// Grid samples voxels on a regular subgrid with the given stride.
type Grid struct {
	img     *grid.Image
	mask    grid.Mask
	stride  int
	samples []Sample
	drawn   bool
}

// NewGrid creates a grid sampler with stride S in both directions.
func NewGrid(img *grid.Image, mask grid.Mask, stride int) *Grid {
	return &Grid{img: img, mask: mask, stride: stride}
}

func (s *Grid) Samples() ([]Sample, error) {
	if !s.drawn {
		for iy := 0; iy < s.img.Height; iy += s.stride {
			for ix := 0; ix < s.img.Width; ix += s.stride {
				p := s.img.IndexToPoint(ix, iy)
				if s.mask != nil && !s.mask.Inside(p) {
					continue
				}
				s.samples = append(s.samples, Sample{Point: p, Value: s.img.At(ix, iy)})
			}
		}
		s.drawn = true
	}
	if len(s.samples) == 0 {
		return nil, ErrEmptySampleSet
	}
	return s.samples, nil
}

// NewIteration is a no-op: the grid sample set never changes.
func (s *Grid) NewIteration() {}
