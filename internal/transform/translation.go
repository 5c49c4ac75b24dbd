package transform

import (
	"gonum.org/v1/gonum/mat"

	"github.com/cwbudde/imgreg/internal/grid"
)

// Translation shifts points by (tx, ty). Parameters: [tx, ty].
type Translation struct {
	tx, ty float64
}

// NewTranslation creates an identity translation.
func NewTranslation() *Translation {
	return &Translation{}
}

func (t *Translation) NumParameters() int { return 2 }

func (t *Translation) SetParameters(params []float64) error {
	if err := checkLen(len(params), 2); err != nil {
		return err
	}
	t.tx, t.ty = params[0], params[1]
	return nil
}

func (t *Translation) Parameters() []float64 {
	return []float64{t.tx, t.ty}
}

func (t *Translation) Apply(p grid.Point) grid.Point {
	return grid.Point{X: p.X + t.tx, Y: p.Y + t.ty}
}

// Jacobian of a translation is the identity, independent of p.
func (t *Translation) Jacobian(p grid.Point) *mat.Dense {
	j := mat.NewDense(2, 2, nil)
	j.Set(0, 0, 1)
	j.Set(1, 1, 1)
	return j
}
