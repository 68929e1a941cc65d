package transform

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"github.com/samcao0416/EpiValid/spatialmath"
)

// CamPose stores the 4x4 pose matrix as well as the 3D Rotation and Translation matrices.
type CamPose struct {
	PoseMat     *mat.Dense
	Rotation    *mat.Dense
	Translation *mat.Dense
}

// NewCamPoseFromMat creates a CamPose from a 3x4 or 4x4 pose dense matrix.
func NewCamPoseFromMat(pose *mat.Dense) (*CamPose, error) {
	r, c := pose.Dims()
	if (r != 3 && r != 4) || c != 4 {
		return nil, spatialmath.NewDimensionError("camera pose", r, c, 4, 4)
	}
	U3 := pose.ColView(3)
	t := mat.NewDense(3, 1, []float64{U3.AtVec(0), U3.AtVec(1), U3.AtVec(2)})
	rot := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			rot.Set(i, j, pose.At(i, j))
		}
	}
	return &CamPose{
		PoseMat:     pose,
		Rotation:    rot,
		Translation: t,
	}, nil
}

// RelativePose returns the rigid transform taking points in the right camera frame to the left camera
// frame. Both poses are first brought to the world to camera convention, then composed through the world
// frame: right_to_left = world_to_left * right_to_world.
func RelativePose(left, right spatialmath.Pose) *CamPose {
	worldToLeft := left.Extrinsic().Transform().Matrix()
	rightToWorld := right.Extrinsic().Transform().Invert().Matrix()
	var rightToLeft mat.Dense
	rightToLeft.Mul(worldToLeft, rightToWorld)
	// rightToLeft is always 4x4
	cp, _ := NewCamPoseFromMat(&rightToLeft)
	return cp
}

// TranslationVector returns the translation as a vector.
func (cp *CamPose) TranslationVector() r3.Vector {
	return r3.Vector{X: cp.Translation.At(0, 0), Y: cp.Translation.At(1, 0), Z: cp.Translation.At(2, 0)}
}

// Baseline returns the distance between the two camera centers.
func (cp *CamPose) Baseline() float64 {
	return cp.TranslationVector().Norm()
}

// Pose creates a spatialmath.Pose from a CamPose.
func (cp *CamPose) Pose(direction spatialmath.Direction) (spatialmath.Pose, error) {
	return spatialmath.NewPoseFromMatrix(cp.PoseMat, direction)
}
