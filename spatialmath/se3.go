// Package spatialmath defines the rigid body transforms used to relate camera frames.
package spatialmath

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// ErrDimensionMismatch is returned when a vector or matrix does not have the expected shape.
var ErrDimensionMismatch = errors.New("dimension mismatch")

// NewDimensionError is used when a matrix of r x c was given where wantR x wantC was expected.
func NewDimensionError(what string, r, c, wantR, wantC int) error {
	return errors.Wrapf(ErrDimensionMismatch, "%s must be %dx%d, got %dx%d", what, wantR, wantC, r, c)
}

// SE3Vector is a compact rigid transform x' = R*x + t. The first three components are an R3 angle axis
// for R (the zero vector is no rotation), the last three are the translation t.
type SE3Vector [6]float64

// NewSE3Vector creates an SE3Vector from its rotation and translation parts.
func NewSE3Vector(rotation, translation r3.Vector) SE3Vector {
	return SE3Vector{rotation.X, rotation.Y, rotation.Z, translation.X, translation.Y, translation.Z}
}

// NewSE3VectorFromSlice copies exactly six values into an SE3Vector.
func NewSE3VectorFromSlice(values []float64) (SE3Vector, error) {
	var v SE3Vector
	if len(values) != len(v) {
		return v, errors.Wrapf(ErrDimensionMismatch, "SE3 vector must have 6 components, got %d", len(values))
	}
	copy(v[:], values)
	return v, nil
}

// NewSE3VectorFromMatrix converts a 3x4 or 4x4 rigid transform matrix into an SE3Vector.
func NewSE3VectorFromMatrix(m mat.Matrix) (SE3Vector, error) {
	r, c := m.Dims()
	if (r != 3 && r != 4) || c != 4 {
		return SE3Vector{}, NewDimensionError("rigid transform", r, c, 4, 4)
	}
	rot := mat.DenseCopyOf(m).Slice(0, 3, 0, 3)
	aa, err := RotationMatrixToAngleAxis(rot)
	if err != nil {
		return SE3Vector{}, err
	}
	return NewSE3Vector(aa, r3.Vector{X: m.At(0, 3), Y: m.At(1, 3), Z: m.At(2, 3)}), nil
}

// Rotation returns the angle axis part.
func (v SE3Vector) Rotation() r3.Vector {
	return r3.Vector{X: v[0], Y: v[1], Z: v[2]}
}

// Translation returns the translation part.
func (v SE3Vector) Translation() r3.Vector {
	return r3.Vector{X: v[3], Y: v[4], Z: v[5]}
}

// Invert returns the transform mapping x' back to x. The inverse of an angle axis is its negation, and the
// translation becomes -R^-1 * t.
func (v SE3Vector) Invert() SE3Vector {
	rotInv := v.Rotation().Mul(-1)
	return NewSE3Vector(rotInv, RotatePoint(rotInv, v.Translation()).Mul(-1))
}

// ToRotationTranslation splits the vector into a 3x3 rotation matrix and a translation.
func (v SE3Vector) ToRotationTranslation() (*mat.Dense, r3.Vector) {
	return AngleAxisToRotationMatrix(v.Rotation()), v.Translation()
}

// Apply transforms pt by the vector.
func (v SE3Vector) Apply(pt r3.Vector) r3.Vector {
	return RotatePoint(v.Rotation(), pt).Add(v.Translation())
}

// Matrix returns the 4x4 homogeneous matrix of the transform.
func (v SE3Vector) Matrix() *mat.Dense {
	rot, trans := v.ToRotationTranslation()
	// rot is always 3x3 here
	m, _ := HomogeneousMatrix(rot, trans)
	return m
}

// AlmostEqual reports whether every component of v is within tol of the one in o.
func (v SE3Vector) AlmostEqual(o SE3Vector, tol float64) bool {
	for i := range v {
		d := v[i] - o[i]
		if d > tol || d < -tol {
			return false
		}
	}
	return true
}

// HomogeneousMatrix embeds a 3x3 rotation and a translation in a 4x4 matrix with a bottom row of [0 0 0 1].
func HomogeneousMatrix(rot mat.Matrix, trans r3.Vector) (*mat.Dense, error) {
	if r, c := rot.Dims(); r != 3 || c != 3 {
		return nil, NewDimensionError("rotation matrix", r, c, 3, 3)
	}
	m := mat.NewDense(4, 4, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m.Set(i, j, rot.At(i, j))
		}
	}
	m.Set(0, 3, trans.X)
	m.Set(1, 3, trans.Y)
	m.Set(2, 3, trans.Z)
	m.Set(3, 3, 1)
	return m, nil
}

// SplitHomogeneousMatrix extracts the top left 3x3 rotation and the top right translation of a 4x4 matrix.
func SplitHomogeneousMatrix(m mat.Matrix) (*mat.Dense, r3.Vector, error) {
	if r, c := m.Dims(); r != 4 || c != 4 {
		return nil, r3.Vector{}, NewDimensionError("homogeneous matrix", r, c, 4, 4)
	}
	rot := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			rot.Set(i, j, m.At(i, j))
		}
	}
	return rot, r3.Vector{X: m.At(0, 3), Y: m.At(1, 3), Z: m.At(2, 3)}, nil
}
