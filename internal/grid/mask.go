package grid

// Mask is a spatial predicate restricting which points are eligible
// for metric evaluation. A nil Mask means all points are eligible.
type Mask interface {
	Inside(p Point) bool
}

// RectMask accepts points inside an axis-aligned physical rectangle.
type RectMask struct {
	MinX, MinY float64
	MaxX, MaxY float64
}

// Inside reports whether p falls inside the rectangle (inclusive).
func (m *RectMask) Inside(p Point) bool {
	return p.X >= m.MinX && p.X <= m.MaxX && p.Y >= m.MinY && p.Y <= m.MaxY
}

// BinaryMask is a pixel-aligned boolean mask over an image grid.
// A point is inside when its nearest pixel is set.
type BinaryMask struct {
	Bits    []bool
	Width   int
	Height  int
	Spacing Point
	Origin  Point
}

// NewBinaryMask creates an all-false mask aligned with img.
func NewBinaryMask(img *Image) *BinaryMask {
	return &BinaryMask{
		Bits:    make([]bool, img.Width*img.Height),
		Width:   img.Width,
		Height:  img.Height,
		Spacing: img.Spacing,
		Origin:  img.Origin,
	}
}

// SetAll marks every pixel eligible.
func (m *BinaryMask) SetAll() {
	for i := range m.Bits {
		m.Bits[i] = true
	}
}

// Set marks a single pixel.
func (m *BinaryMask) Set(ix, iy int, inside bool) {
	m.Bits[iy*m.Width+ix] = inside
}

// Inside reports whether the nearest pixel to p is set.
func (m *BinaryMask) Inside(p Point) bool {
	cx := (p.X - m.Origin.X) / m.Spacing.X
	cy := (p.Y - m.Origin.Y) / m.Spacing.Y
	ix := int(cx + 0.5)
	iy := int(cy + 0.5)
	if cx < -0.5 || cy < -0.5 || ix < 0 || iy < 0 || ix >= m.Width || iy >= m.Height {
		return false
	}
	return m.Bits[iy*m.Width+ix]
}
