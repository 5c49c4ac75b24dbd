// Package grid provides the scalar image grids, spatial points and
// masks that the registration metric operates on. Images are 2D,
// row-major float64 grids with physical spacing and origin; they are
// treated as immutable for the duration of one resolution level.
package grid

import (
	"fmt"
	"image"
	"math"
)

// Point is a position in continuous (physical) image coordinates.
type Point struct {
	X, Y float64
}

// Image is a 2D scalar image on a regular grid.
type Image struct {
	Data    []float64 // row-major, len == Width*Height
	Width   int
	Height  int
	Spacing Point // physical size of one pixel (default 1,1)
	Origin  Point // physical position of pixel (0,0)

	rangeMin   float64
	rangeMax   float64
	rangeValid bool
}

// New creates a zero-valued image with unit spacing and zero origin.
func New(width, height int) *Image {
	return &Image{
		Data:    make([]float64, width*height),
		Width:   width,
		Height:  height,
		Spacing: Point{1, 1},
	}
}

// FromFunc creates an image filled from f(ix, iy).
func FromFunc(width, height int, f func(ix, iy int) float64) *Image {
	img := New(width, height)
	for iy := 0; iy < height; iy++ {
		for ix := 0; ix < width; ix++ {
			img.Data[iy*width+ix] = f(ix, iy)
		}
	}
	return img
}

// FromGray converts an image.Image to a grayscale intensity grid in
// [0, 255] using the Rec. 601 luma weights.
func FromGray(src image.Image) *Image {
	bounds := src.Bounds()
	img := New(bounds.Dx(), bounds.Dy())
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := src.At(x, y).RGBA()
			// 16-bit channels back to 8-bit scale
			luma := 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
			img.Data[(y-bounds.Min.Y)*img.Width+(x-bounds.Min.X)] = luma / 257.0
		}
	}
	return img
}

// At returns the intensity at integer pixel indices. Panics on
// out-of-range indices, same as a slice access would.
func (im *Image) At(ix, iy int) float64 {
	return im.Data[iy*im.Width+ix]
}

// Set writes a pixel and invalidates the cached intensity range.
func (im *Image) Set(ix, iy int, v float64) {
	im.Data[iy*im.Width+ix] = v
	im.rangeValid = false
}

// IndexToPoint converts integer pixel indices to physical coordinates.
func (im *Image) IndexToPoint(ix, iy int) Point {
	return Point{
		X: im.Origin.X + float64(ix)*im.Spacing.X,
		Y: im.Origin.Y + float64(iy)*im.Spacing.Y,
	}
}

// PointToContinuousIndex converts a physical point to fractional pixel
// indices.
func (im *Image) PointToContinuousIndex(p Point) (float64, float64) {
	return (p.X - im.Origin.X) / im.Spacing.X, (p.Y - im.Origin.Y) / im.Spacing.Y
}

// Inside reports whether the physical point falls inside the image
// domain (pixel index range [0, W-1] x [0, H-1]).
func (im *Image) Inside(p Point) bool {
	cx, cy := im.PointToContinuousIndex(p)
	return cx >= 0 && cx <= float64(im.Width-1) && cy >= 0 && cy <= float64(im.Height-1)
}

// Range returns the min and max intensity. The result is cached; the
// cache is invalidated by Set.
func (im *Image) Range() (min, max float64) {
	if im.rangeValid {
		return im.rangeMin, im.rangeMax
	}
	min, max = math.Inf(1), math.Inf(-1)
	for _, v := range im.Data {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if len(im.Data) == 0 {
		min, max = 0, 0
	}
	im.rangeMin, im.rangeMax = min, max
	im.rangeValid = true
	return min, max
}

// Span returns max-min of the intensity range.
func (im *Image) Span() float64 {
	min, max := im.Range()
	return max - min
}

// Validate checks basic structural consistency.
func (im *Image) Validate() error {
	if im.Width <= 0 || im.Height <= 0 {
		return fmt.Errorf("image dimensions must be positive, got %dx%d", im.Width, im.Height)
	}
	if len(im.Data) != im.Width*im.Height {
		return fmt.Errorf("image data length %d does not match %dx%d", len(im.Data), im.Width, im.Height)
	}
	if im.Spacing.X <= 0 || im.Spacing.Y <= 0 {
		return fmt.Errorf("image spacing must be positive, got (%g, %g)", im.Spacing.X, im.Spacing.Y)
	}
	return nil
}
