package transform

import (
	"gonum.org/v1/gonum/mat"

	"github.com/cwbudde/imgreg/internal/grid"
)

// Affine applies a full 2x2 linear map about a fixed center plus a
// translation. Parameters: [a11, a12, a21, a22, tx, ty]; identity is
// [1, 0, 0, 1, 0, 0].
type Affine struct {
	a      [4]float64
	tx, ty float64
	center grid.Point
}

// NewAffine creates an identity affine transform about center.
func NewAffine(center grid.Point) *Affine {
	return &Affine{a: [4]float64{1, 0, 0, 1}, center: center}
}

func (t *Affine) NumParameters() int { return 6 }

func (t *Affine) SetParameters(params []float64) error {
	if err := checkLen(len(params), 6); err != nil {
		return err
	}
	copy(t.a[:], params[:4])
	t.tx, t.ty = params[4], params[5]
	return nil
}

func (t *Affine) Parameters() []float64 {
	return []float64{t.a[0], t.a[1], t.a[2], t.a[3], t.tx, t.ty}
}

func (t *Affine) Apply(p grid.Point) grid.Point {
	dx := p.X - t.center.X
	dy := p.Y - t.center.Y
	return grid.Point{
		X: t.center.X + t.a[0]*dx + t.a[1]*dy + t.tx,
		Y: t.center.Y + t.a[2]*dx + t.a[3]*dy + t.ty,
	}
}

// Jacobian columns follow the parameter order a11, a12, a21, a22, tx, ty.
func (t *Affine) Jacobian(p grid.Point) *mat.Dense {
	dx := p.X - t.center.X
	dy := p.Y - t.center.Y
	j := mat.NewDense(2, 6, nil)
	j.Set(0, 0, dx)
	j.Set(0, 1, dy)
	j.Set(1, 2, dx)
	j.Set(1, 3, dy)
	j.Set(0, 4, 1)
	j.Set(1, 5, 1)
	return j
}
