package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// See here for a thorough explanation: https://en.wikipedia.org/wiki/Axis%E2%80%93angle_representation
// Basic explanation: an orientation can be expressed by first specifying an axis, i.e. a line from the origin
// to a point on the unit sphere, represented by (rx, ry, rz), and a rotation around that axis, theta.
// These four numbers can be used as-is (R4), or they can be converted to R3, where theta is multiplied by each of
// the unit sphere components to give a vector whose length is theta and whose direction is the original axis.
// Camera poses in this package store the R3 form.

// If the rotation angle is within this distance of pi, the axis is recovered from the symmetric part of
// the rotation matrix instead of its skew-symmetric part, which vanishes at pi.
const nearPiEpsilon = 1e-6

// R4AA represents an R4 axis angle.
type R4AA struct {
	Theta float64 `json:"th"`
	RX    float64 `json:"x"`
	RY    float64 `json:"y"`
	RZ    float64 `json:"z"`
}

// R3ToR4 converts an R3 angle axis to R4. A zero rotation has a zero angle and a zero axis.
func R3ToR4(aa r3.Vector) R4AA {
	theta := aa.Norm()
	if theta == 0 {
		return R4AA{}
	}
	return R4AA{theta, aa.X / theta, aa.Y / theta, aa.Z / theta}
}

// ToR3 converts an R4 angle axis to R3.
func (r4 R4AA) ToR3() r3.Vector {
	return r3.Vector{X: r4.RX * r4.Theta, Y: r4.RY * r4.Theta, Z: r4.RZ * r4.Theta}
}

// Axis returns the rotation axis. It is the zero vector for a zero rotation.
func (r4 R4AA) Axis() r3.Vector {
	return r3.Vector{X: r4.RX, Y: r4.RY, Z: r4.RZ}
}

// RotationMatrix returns the 3x3 rotation matrix of the axis angle using Rodrigues' formula:
//
//	R = cos(th) * I + (1 - cos(th)) * k * k^T + sin(th) * [k]x
func (r4 R4AA) RotationMatrix() *mat.Dense {
	cos, sin := math.Cos(r4.Theta), math.Sin(r4.Theta)
	k := []float64{r4.RX, r4.RY, r4.RZ}
	rot := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			v := k[i] * k[j] * (1 - cos)
			if i == j {
				v += cos
			}
			rot.Set(i, j, v)
		}
	}
	cross := CrossProductMatrix(r4.Axis())
	cross.Scale(sin, cross)
	rot.Add(rot, cross)
	return rot
}

// AngleAxisToRotationMatrix converts an R3 angle axis (axis scaled by the angle in radians) into a
// rotation matrix. The zero vector maps to the identity.
func AngleAxisToRotationMatrix(aa r3.Vector) *mat.Dense {
	return R3ToR4(aa).RotationMatrix()
}

// RotationMatrixToAngleAxis converts a 3x3 rotation matrix into an R3 angle axis with an angle in [0, pi].
func RotationMatrixToAngleAxis(rot mat.Matrix) (r3.Vector, error) {
	if r, c := rot.Dims(); r != 3 || c != 3 {
		return r3.Vector{}, NewDimensionError("rotation matrix", r, c, 3, 3)
	}
	// twice the sin-scaled axis, read from the skew-symmetric part
	vee := r3.Vector{
		X: rot.At(2, 1) - rot.At(1, 2),
		Y: rot.At(0, 2) - rot.At(2, 0),
		Z: rot.At(1, 0) - rot.At(0, 1),
	}
	sin := vee.Norm() / 2
	cos := (mat.Trace(rot) - 1) / 2
	theta := math.Atan2(sin, cos)
	switch {
	case sin == 0 && cos > 0:
		return r3.Vector{}, nil
	case math.Pi-theta < nearPiEpsilon:
		return nearPiAngleAxis(rot, theta, math.Max(-1, cos), vee)
	default:
		return vee.Mul(theta / (2 * sin)), nil
	}
}

// nearPiAngleAxis recovers the axis from the diagonal using the largest component, then fixes the
// sign of the whole axis with the residual skew-symmetric part when there is one.
func nearPiAngleAxis(rot mat.Matrix, theta, cos float64, vee r3.Vector) (r3.Vector, error) {
	i := 0
	for j := 1; j < 3; j++ {
		if rot.At(j, j) > rot.At(i, i) {
			i = j
		}
	}
	k := make([]float64, 3)
	k[i] = math.Sqrt(math.Max(0, (rot.At(i, i)-cos)/(1-cos)))
	if k[i] == 0 {
		return r3.Vector{}, errors.New("matrix is not a rotation")
	}
	for j := 0; j < 3; j++ {
		if j != i {
			k[j] = (rot.At(i, j) + rot.At(j, i)) / (2 * k[i] * (1 - cos))
		}
	}
	axis := r3.Vector{X: k[0], Y: k[1], Z: k[2]}.Normalize()
	if axis.Dot(vee) < 0 {
		axis = axis.Mul(-1)
	}
	return axis.Mul(theta), nil
}

// RotatePoint rotates pt by the R3 angle axis aa without building a matrix.
func RotatePoint(aa, pt r3.Vector) r3.Vector {
	r4 := R3ToR4(aa)
	if r4.Theta == 0 {
		return pt
	}
	k := r4.Axis()
	cos, sin := math.Cos(r4.Theta), math.Sin(r4.Theta)
	return pt.Mul(cos).Add(k.Cross(pt).Mul(sin)).Add(k.Mul(k.Dot(pt) * (1 - cos)))
}

// CrossProductMatrix returns the skew-symmetric matrix [p]x such that [p]x * v = p x v.
func CrossProductMatrix(p r3.Vector) *mat.Dense {
	cross := mat.NewDense(3, 3, nil)
	cross.Set(0, 1, -p.Z)
	cross.Set(0, 2, p.Y)
	cross.Set(1, 0, p.Z)
	cross.Set(1, 2, -p.X)
	cross.Set(2, 0, -p.Y)
	cross.Set(2, 1, p.X)
	return cross
}
