package transform

import (
	"math"

	"github.com/pkg/errors"
)

// numDistortionParameters is the size of the plumb bob model: three radial and two tangential terms.
const numDistortionParameters = 5

// InvalidDistortionError is used when the distortion_parameters are invalid.
func InvalidDistortionError(msg string) error {
	return errors.Wrap(errors.New("invalid distortion_parameters"), msg)
}

// BrownConrady is the radial/tangential (plumb bob) distortion model of simple lenses of narrow field.
// Coefficients are applied to normalized image coordinates.
type BrownConrady struct {
	RadialK1     float64 `json:"k1"`
	RadialK2     float64 `json:"k2"`
	TangentialP1 float64 `json:"p1"`
	TangentialP2 float64 `json:"p2"`
	RadialK3     float64 `json:"k3"`
}

// NewBrownConrady takes in a slice of floats in the order [k1, k2, p1, p2, k3]. Missing trailing values are
// zero, an empty slice gives a model that does not distort.
func NewBrownConrady(inp []float64) (*BrownConrady, error) {
	if len(inp) > numDistortionParameters {
		return nil, errors.Errorf("list of parameters too long, expected max %d, got %d", numDistortionParameters, len(inp))
	}
	params := make([]float64, numDistortionParameters)
	copy(params, inp)
	bc := &BrownConrady{params[0], params[1], params[2], params[3], params[4]}
	if err := bc.CheckValid(); err != nil {
		return nil, err
	}
	return bc, nil
}

// CheckValid checks if the fields for BrownConrady have valid inputs.
func (bc *BrownConrady) CheckValid() error {
	if bc == nil {
		return InvalidDistortionError("BrownConrady shaped distortion_parameters not provided")
	}
	for _, p := range bc.Coefficients() {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return InvalidDistortionError("distortion parameters must be finite")
		}
	}
	return nil
}

// Coefficients returns the parameters of the distortion model in the order [k1, k2, p1, p2, k3].
func (bc *BrownConrady) Coefficients() []float64 {
	if bc == nil {
		return []float64{}
	}
	return []float64{bc.RadialK1, bc.RadialK2, bc.TangentialP1, bc.TangentialP2, bc.RadialK3}
}

// Transform distorts the undistorted normalized point (x, y):
//
//	x_d = x * (1 + k1*r² + k2*r⁴ + k3*r⁶) + 2*p1*x*y + p2*(r² + 2*x²)
//	y_d = y * (1 + k1*r² + k2*r⁴ + k3*r⁶) + 2*p2*x*y + p1*(r² + 2*y²)
func (bc *BrownConrady) Transform(x, y float64) (float64, float64) {
	if bc == nil {
		return x, y
	}
	r2 := x*x + y*y
	radDist := 1. + bc.RadialK1*r2 + bc.RadialK2*r2*r2 + bc.RadialK3*r2*r2*r2
	xd := x*radDist + 2.*bc.TangentialP1*x*y + bc.TangentialP2*(r2+2.*x*x)
	yd := y*radDist + 2.*bc.TangentialP2*x*y + bc.TangentialP1*(r2+2.*y*y)
	return xd, yd
}
