// Package interp provides intensity interpolators over image grids,
// with analytic spatial gradients, plus an intensity limiter that
// clamps out-of-range interpolated values.
package interp

import (
	"github.com/cwbudde/imgreg/internal/grid"
)

// Gradient is the spatial intensity gradient at a point, in physical
// coordinates (per unit of physical distance, not per pixel).
type Gradient struct {
	DX, DY float64
}

// Interpolator evaluates moving-image intensities at continuous
// positions. Gradient and value are always evaluated at the same
// coordinates so derivative computations see consistent data.
type Interpolator interface {
	// IsInsideBuffer reports whether p lies inside the interpolation
	// support region.
	IsInsideBuffer(p grid.Point) bool

	// Evaluate returns the interpolated intensity at p. The result is
	// undefined when IsInsideBuffer(p) is false.
	Evaluate(p grid.Point) float64

	// EvaluateWithGradient returns the interpolated intensity and the
	// spatial gradient at p.
	EvaluateWithGradient(p grid.Point) (float64, Gradient)
}

// Linear is a bilinear interpolator over an image grid.
type Linear struct {
	img *grid.Image
}

// NewLinear creates a bilinear interpolator for img.
func NewLinear(img *grid.Image) *Linear {
	return &Linear{img: img}
}

func (li *Linear) IsInsideBuffer(p grid.Point) bool {
	return li.img.Inside(p)
}

func (li *Linear) Evaluate(p grid.Point) float64 {
	v, _ := li.evaluate(p, false)
	return v
}

func (li *Linear) EvaluateWithGradient(p grid.Point) (float64, Gradient) {
	return li.evaluate(p, true)
}

func (li *Linear) evaluate(p grid.Point, wantGradient bool) (float64, Gradient) {
	cx, cy := li.img.PointToContinuousIndex(p)

	ix := int(cx)
	iy := int(cy)
	// Keep the 2x2 support inside the buffer for points on the last
	// row/column.
	if ix >= li.img.Width-1 {
		ix = li.img.Width - 2
	}
	if iy >= li.img.Height-1 {
		iy = li.img.Height - 2
	}
	if ix < 0 {
		ix = 0
	}
	if iy < 0 {
		iy = 0
	}

	// A 1 pixel wide or tall image has no second sample along that
	// axis; duplicate the single row/column so the interpolation is
	// constant there and the gradient component is zero.
	x1 := ix + 1
	if x1 >= li.img.Width {
		x1 = li.img.Width - 1
	}
	y1 := iy + 1
	if y1 >= li.img.Height {
		y1 = li.img.Height - 1
	}

	fx := cx - float64(ix)
	fy := cy - float64(iy)

	v00 := li.img.At(ix, iy)
	v10 := li.img.At(x1, iy)
	v01 := li.img.At(ix, y1)
	v11 := li.img.At(x1, y1)

	top := v00 + fx*(v10-v00)
	bottom := v01 + fx*(v11-v01)
	value := top + fy*(bottom-top)

	if !wantGradient {
		return value, Gradient{}
	}

	// Analytic bilinear gradient at the same (fx, fy), converted from
	// per-pixel to per-physical-unit via the spacing.
	gx := ((v10 - v00) + fy*((v11-v01)-(v10-v00))) / li.img.Spacing.X
	gy := ((v01 - v00) + fx*((v11-v10)-(v01-v00))) / li.img.Spacing.Y
	return value, Gradient{DX: gx, DY: gy}
}
