// Package transform provides parameterized spatial transforms mapping
// fixed-image coordinates to moving-image coordinates, with analytic
// Jacobians with respect to the transform parameters.
package transform

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/cwbudde/imgreg/internal/grid"
)

// Transform maps fixed-domain points into the moving domain.
//
// The parameter vector is owned by the transform and written once
// (SetParameters) before an evaluation; it must not be mutated while
// an evaluation is in flight.
type Transform interface {
	// NumParameters returns the dimensionality P of the parameter space.
	NumParameters() int

	// SetParameters replaces the current parameter vector.
	// Returns an error if the length does not equal NumParameters.
	SetParameters(params []float64) error

	// Parameters returns a copy of the current parameter vector.
	Parameters() []float64

	// Apply maps a fixed-domain point to the moving domain.
	Apply(p grid.Point) grid.Point

	// Jacobian returns the 2xP matrix of partial derivatives of the
	// mapped point with respect to the parameters, evaluated at p.
	Jacobian(p grid.Point) *mat.Dense
}

// New constructs a transform by type name: "translation", "rigid" or
// "affine". Rigid and affine rotate/shear about the given center.
func New(kind string, center grid.Point) (Transform, error) {
	switch kind {
	case "translation":
		return NewTranslation(), nil
	case "rigid":
		return NewRigid(center), nil
	case "affine":
		return NewAffine(center), nil
	default:
		return nil, fmt.Errorf("unknown transform type %q (want translation, rigid or affine)", kind)
	}
}

func checkLen(got, want int) error {
	if got != want {
		return fmt.Errorf("parameter vector has length %d, transform expects %d", got, want)
	}
	return nil
}
