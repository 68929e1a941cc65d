package spatialmath

import (
	"fmt"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Direction tells which way a Pose maps coordinates.
type Direction int

const (
	// ToLocal poses map reference (world) coordinates into the local camera frame. This is the extrinsic
	// convention used to relate cameras.
	ToLocal Direction = iota
	// ToWorld poses map local camera coordinates into the reference frame.
	ToWorld
)

// String returns the config name of the direction.
func (d Direction) String() string {
	switch d {
	case ToLocal:
		return "to_local"
	case ToWorld:
		return "to_world"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// Flip returns the opposite direction.
func (d Direction) Flip() Direction {
	if d == ToLocal {
		return ToWorld
	}
	return ToLocal
}

// MarshalText implements encoding.TextMarshaler.
func (d Direction) MarshalText() ([]byte, error) {
	if d != ToLocal && d != ToWorld {
		return nil, errors.Errorf("unknown pose direction %d", int(d))
	}
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Direction) UnmarshalText(text []byte) error {
	switch string(text) {
	case "to_local", "":
		*d = ToLocal
	case "to_world":
		*d = ToWorld
	default:
		return errors.Errorf("unknown pose direction %q, expected to_local or to_world", string(text))
	}
	return nil
}

// Pose is an immutable rigid transform together with the direction it maps in.
type Pose struct {
	transform SE3Vector
	direction Direction
}

// NewPose returns a pose of the given transform and direction.
func NewPose(transform SE3Vector, direction Direction) Pose {
	return Pose{transform: transform, direction: direction}
}

// NewZeroPose returns the identity extrinsic pose.
func NewZeroPose() Pose {
	return Pose{direction: ToLocal}
}

// NewPoseFromMatrix creates a pose from a 3x4 or 4x4 rigid transform matrix.
func NewPoseFromMatrix(m mat.Matrix, direction Direction) (Pose, error) {
	v, err := NewSE3VectorFromMatrix(m)
	if err != nil {
		return Pose{}, err
	}
	return NewPose(v, direction), nil
}

// Transform returns the SE3 vector of the pose.
func (p Pose) Transform() SE3Vector {
	return p.transform
}

// Direction returns the direction the pose maps in.
func (p Pose) Direction() Direction {
	return p.direction
}

// Inverse returns the pose mapping the other way.
func (p Pose) Inverse() Pose {
	return Pose{transform: p.transform.Invert(), direction: p.direction.Flip()}
}

// Extrinsic returns the pose in the world to camera convention. It is a no-op on ToLocal poses.
func (p Pose) Extrinsic() Pose {
	if p.direction == ToLocal {
		return p
	}
	return p.Inverse()
}

// Matrix returns the 4x4 homogeneous matrix of the pose transform.
func (p Pose) Matrix() *mat.Dense {
	return p.transform.Matrix()
}

// String implements fmt.Stringer.
func (p Pose) String() string {
	return fmt.Sprintf("Pose{%v %v}", p.transform, p.direction)
}
