package transform

import (
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"

	"github.com/samcao0416/EpiValid/spatialmath"
)

// Camera is a calibrated camera of a rig: a sensor and the pose of that sensor. A Camera owns copies of
// its sensor and pose.
type Camera struct {
	ID     string
	Name   string
	Sensor Sensor
	Pose   spatialmath.Pose
}

// NewCamera creates a camera.
func NewCamera(id string, sensor Sensor, pose spatialmath.Pose) Camera {
	return Camera{ID: id, Sensor: sensor, Pose: pose}
}

// DisplayName returns the name of the camera, or its ID when it has none.
func (c Camera) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.ID
}

// Project projects a world point into the camera image, without distortion.
func (c Camera) Project(pt r3.Vector) (r2.Point, error) {
	return c.Sensor.PointToPixel(c.Pose.Extrinsic().Transform().Apply(pt))
}
