// Package pyramid builds the coarse-to-fine multi-resolution schedule
// for registration: each level smooths the previous one with a 3x3
// binomial kernel and downsamples by two, doubling the pixel spacing
// so physical coordinates stay comparable across levels.
package pyramid

import (
	"fmt"

	"github.com/cwbudde/imgreg/internal/grid"
)

// minLevelSize stops the schedule before images degenerate.
const minLevelSize = 8

// Levels returns the pyramid for img, coarsest first, finest (the
// original image) last. n is the requested number of levels; the
// schedule is cut short when a level would drop below 8 pixels on a
// side.
func Levels(img *grid.Image, n int) ([]*grid.Image, error) {
	if n < 1 {
		return nil, fmt.Errorf("pyramid: need at least one level, got %d", n)
	}
	if err := img.Validate(); err != nil {
		return nil, fmt.Errorf("pyramid: %w", err)
	}

	levels := []*grid.Image{img}
	current := img
	for len(levels) < n {
		if current.Width/2 < minLevelSize || current.Height/2 < minLevelSize {
			break
		}
		current = Downsample(Smooth(current))
		levels = append(levels, current)
	}

	// Reverse to coarsest-first order.
	for i, j := 0, len(levels)-1; i < j; i, j = i+1, j-1 {
		levels[i], levels[j] = levels[j], levels[i]
	}
	return levels, nil
}

// Smooth applies a separable 3x3 binomial kernel (1 2 1)/4 with edge
// clamping.
func Smooth(img *grid.Image) *grid.Image {
	tmp := grid.New(img.Width, img.Height)
	tmp.Spacing = img.Spacing
	tmp.Origin = img.Origin

	// Horizontal pass.
	for iy := 0; iy < img.Height; iy++ {
		for ix := 0; ix < img.Width; ix++ {
			l := clampIndex(ix-1, img.Width)
			r := clampIndex(ix+1, img.Width)
			tmp.Data[iy*img.Width+ix] = 0.25*img.At(l, iy) + 0.5*img.At(ix, iy) + 0.25*img.At(r, iy)
		}
	}

	out := grid.New(img.Width, img.Height)
	out.Spacing = img.Spacing
	out.Origin = img.Origin

	// Vertical pass.
	for iy := 0; iy < img.Height; iy++ {
		u := clampIndex(iy-1, img.Height)
		d := clampIndex(iy+1, img.Height)
		for ix := 0; ix < img.Width; ix++ {
			out.Data[iy*img.Width+ix] = 0.25*tmp.At(ix, u) + 0.5*tmp.At(ix, iy) + 0.25*tmp.At(ix, d)
		}
	}
	return out
}

// Downsample halves both dimensions, keeping every second pixel and
// doubling the spacing so the physical extent is preserved.
func Downsample(img *grid.Image) *grid.Image {
	w := img.Width / 2
	h := img.Height / 2
	out := grid.New(w, h)
	out.Spacing = grid.Point{X: img.Spacing.X * 2, Y: img.Spacing.Y * 2}
	out.Origin = img.Origin
	for iy := 0; iy < h; iy++ {
		for ix := 0; ix < w; ix++ {
			out.Data[iy*w+ix] = img.At(ix*2, iy*2)
		}
	}
	return out
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
