package transform

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/cwbudde/imgreg/internal/grid"
)

// Rigid rotates by an angle about a fixed center and translates.
// Parameters: [angle (radians), tx, ty].
type Rigid struct {
	angle, tx, ty float64
	center        grid.Point
}

// NewRigid creates an identity rigid transform about center.
func NewRigid(center grid.Point) *Rigid {
	return &Rigid{center: center}
}

func (t *Rigid) NumParameters() int { return 3 }

func (t *Rigid) SetParameters(params []float64) error {
	if err := checkLen(len(params), 3); err != nil {
		return err
	}
	t.angle, t.tx, t.ty = params[0], params[1], params[2]
	return nil
}

func (t *Rigid) Parameters() []float64 {
	return []float64{t.angle, t.tx, t.ty}
}

func (t *Rigid) Apply(p grid.Point) grid.Point {
	sin, cos := math.Sincos(t.angle)
	dx := p.X - t.center.X
	dy := p.Y - t.center.Y
	return grid.Point{
		X: t.center.X + cos*dx - sin*dy + t.tx,
		Y: t.center.Y + sin*dx + cos*dy + t.ty,
	}
}

// Jacobian columns: d(out)/d(angle), d(out)/d(tx), d(out)/d(ty).
func (t *Rigid) Jacobian(p grid.Point) *mat.Dense {
	sin, cos := math.Sincos(t.angle)
	dx := p.X - t.center.X
	dy := p.Y - t.center.Y
	j := mat.NewDense(2, 3, nil)
	j.Set(0, 0, -sin*dx-cos*dy)
	j.Set(1, 0, cos*dx-sin*dy)
	j.Set(0, 1, 1)
	j.Set(1, 2, 1)
	return j
}
