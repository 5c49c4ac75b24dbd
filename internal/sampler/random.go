package sampler

import (
	"math/rand"

	"github.com/cwbudde/imgreg/internal/grid"
)

// Random samples a uniform random subset of K eligible voxels,
// with replacement, from a seeded source. With redraw enabled the
// subset is redrawn at every NewIteration call; otherwise the first
// draw is cached for the whole run.
type Random struct {
	img    *grid.Image
	mask   grid.Mask
	count  int
	redraw bool

	rng     *rand.Rand
	pool    []Sample
	pooled  bool
	samples []Sample
	drawn   bool
}

// NewRandom creates a random sampler of count points with the given
// seed.
func NewRandom(img *grid.Image, mask grid.Mask, count int, seed int64, redraw bool) *Random {
	return &Random{
		img:    img,
		mask:   mask,
		count:  count,
		redraw: redraw,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

func (s *Random) Samples() ([]Sample, error) {
	if !s.pooled {
		s.pool = eligible(s.img, s.mask)
		s.pooled = true
	}
	if len(s.pool) == 0 {
		return nil, ErrEmptySampleSet
	}
	if !s.drawn {
		s.draw()
		s.drawn = true
	}
	return s.samples, nil
}

func (s *Random) draw() {
	s.samples = make([]Sample, s.count)
	for i := range s.samples {
		s.samples[i] = s.pool[s.rng.Intn(len(s.pool))]
	}
}

// NewIteration redraws the sample set when redraw is enabled.
func (s *Random) NewIteration() {
	if s.redraw && s.pooled && len(s.pool) > 0 {
		s.draw()
		s.drawn = true
	}
}
