package spatialmath

import (
	"encoding/json"
	"testing"

	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"
)

func TestPoseInverse(t *testing.T) {
	p := NewPose(SE3Vector{0.1, 0.2, 0.3, 1, 2, 3}, ToWorld)
	inv := p.Inverse()
	test.That(t, inv.Direction(), test.ShouldEqual, ToLocal)
	test.That(t, inv.Transform(), test.ShouldResemble, p.Transform().Invert())

	// the original is untouched
	test.That(t, p.Direction(), test.ShouldEqual, ToWorld)
	test.That(t, p.Transform(), test.ShouldResemble, SE3Vector{0.1, 0.2, 0.3, 1, 2, 3})

	back := inv.Inverse()
	test.That(t, back.Direction(), test.ShouldEqual, ToWorld)
	test.That(t, back.Transform().AlmostEqual(p.Transform(), 1e-12), test.ShouldBeTrue)
}

func TestPoseExtrinsic(t *testing.T) {
	local := NewPose(SE3Vector{0.1, -0.2, 0.3, 1, 2, 3}, ToLocal)
	test.That(t, local.Extrinsic(), test.ShouldResemble, local)

	world := NewPose(SE3Vector{0.1, -0.2, 0.3, 1, 2, 3}, ToWorld)
	extr := world.Extrinsic()
	test.That(t, extr.Direction(), test.ShouldEqual, ToLocal)
	test.That(t, extr.Transform(), test.ShouldResemble, world.Transform().Invert())

	// idempotent
	test.That(t, extr.Extrinsic(), test.ShouldResemble, extr)
	test.That(t, local.Extrinsic().Extrinsic(), test.ShouldResemble, local.Extrinsic())

	// both authoring conventions of the same camera agree once normalized
	test.That(t, world.Inverse().Extrinsic().Transform().AlmostEqual(world.Extrinsic().Transform(), 1e-12), test.ShouldBeTrue)
}

func TestZeroPose(t *testing.T) {
	p := NewZeroPose()
	test.That(t, p.Direction(), test.ShouldEqual, ToLocal)
	test.That(t, mat.Equal(p.Matrix(), mat.NewDiagDense(4, []float64{1, 1, 1, 1})), test.ShouldBeTrue)
}

func TestNewPoseFromMatrix(t *testing.T) {
	v := SE3Vector{0.4, 0.1, -0.9, -1, 0, 2}
	p, err := NewPoseFromMatrix(v.Matrix(), ToWorld)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p.Direction(), test.ShouldEqual, ToWorld)
	test.That(t, p.Transform().AlmostEqual(v, 1e-9), test.ShouldBeTrue)

	_, err = NewPoseFromMatrix(mat.NewDense(2, 2, nil), ToWorld)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestDirectionText(t *testing.T) {
	type wrapper struct {
		Direction Direction `json:"direction"`
	}
	var w wrapper
	test.That(t, json.Unmarshal([]byte(`{"direction":"to_world"}`), &w), test.ShouldBeNil)
	test.That(t, w.Direction, test.ShouldEqual, ToWorld)

	b, err := json.Marshal(wrapper{ToLocal})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(b), test.ShouldEqual, `{"direction":"to_local"}`)

	err = json.Unmarshal([]byte(`{"direction":"sideways"}`), &w)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "sideways")

	test.That(t, ToLocal.Flip(), test.ShouldEqual, ToWorld)
	test.That(t, ToWorld.Flip(), test.ShouldEqual, ToLocal)
	test.That(t, Direction(5).String(), test.ShouldEqual, "Direction(5)")
}
