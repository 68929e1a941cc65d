package transform

import (
	"github.com/pkg/errors"

	"github.com/samcao0416/EpiValid/spatialmath"
)

var (
	// ErrDegenerateIntrinsics is when a sensor cannot be turned into an invertible camera matrix.
	ErrDegenerateIntrinsics = errors.New("degenerate camera intrinsics")
	// ErrNoResolution is when a sensor's resolution has never been set.
	ErrNoResolution = errors.New("sensor resolution is not set")
	// ErrResolutionMismatch is when a sensor's resolution is set again to a different value.
	ErrResolutionMismatch = errors.New("resolution mismatch")
	// ErrVerticalLine is when an epipolar line has no finite slope. The line itself is still valid.
	ErrVerticalLine = errors.New("epipolar line is vertical")
	// ErrDegenerateLine is when a point maps to no line at all, e.g. when it is the epipole.
	ErrDegenerateLine = errors.New("degenerate epipolar line")
	// ErrDimensionMismatch is when a matrix does not have the expected shape.
	ErrDimensionMismatch = spatialmath.ErrDimensionMismatch
)

// NewDegenerateIntrinsicsError is used when a sensor's intrinsics are unusable.
func NewDegenerateIntrinsicsError(msg string) error {
	return errors.Wrap(ErrDegenerateIntrinsics, msg)
}
