package rig

import (
	"context"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/pkg/errors"
	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"

	"github.com/samcao0416/EpiValid/logging"
	"github.com/samcao0416/EpiValid/rimage/transform"
	"github.com/samcao0416/EpiValid/spatialmath"
)

// ringConfig is four cameras on a slight arc, all looking down +z.
func ringConfig() *Config {
	cam := func(id string, pose []float64, dir spatialmath.Direction) CameraConfig {
		return CameraConfig{
			ID:         id,
			Resolution: transform.Resolution{Width: 1920, Height: 1080},
			Intrinsics: transform.Pinhole{Fx: 1200, Fy: 1200, Cx: 4, Cy: -2},
			Pose:       pose,
			Direction:  dir,
		}
	}
	toLocal := spatialmath.NewSE3Vector(r3.Vector{Y: 0.05}, r3.Vector{X: 1.5, Y: 0.02, Z: 0.1}).Invert()
	return &Config{
		Cameras: []CameraConfig{
			cam("cam0", []float64{0, -0.06, 0, 0, 0, 0}, spatialmath.ToWorld),
			cam("cam1", []float64{0, -0.02, 0, 0.5, 0, 0.02}, spatialmath.ToWorld),
			cam("cam2", []float64{0.01, 0.02, 0, 1.0, -0.01, 0.05}, spatialmath.ToWorld),
			cam("cam3", toLocal[:], spatialmath.ToLocal),
		},
		Workers: 2,
	}
}

func TestNewRig(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	r, err := New(context.Background(), ringConfig(), logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, r.NumCameras(), test.ShouldEqual, 4)
	test.That(t, r.NumPairs(), test.ShouldEqual, 4)
	test.That(t, logs.FilterMessage("built rig").Len(), test.ShouldEqual, 1)
	test.That(t, logs.FilterMessage("fundamental matrix is not rank 2").Len(), test.ShouldEqual, 0)

	for i := 0; i < r.NumPairs(); i++ {
		pair, err := r.Pair(i)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, pair.Index, test.ShouldEqual, i)
		expected, err := transform.ComputeFundamentalMatrix(pair.Left, pair.Right)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, mat.Equal(pair.F, expected), test.ShouldBeTrue)
	}
	last, err := r.Pair(3)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, last.Left.ID, test.ShouldEqual, "cam3")
	test.That(t, last.Right.ID, test.ShouldEqual, "cam0")

	// pairs are copies
	p, err := r.Pair(0)
	test.That(t, err, test.ShouldBeNil)
	p.F.Set(0, 0, 42)
	again, err := r.Pair(0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, again.F.At(0, 0), test.ShouldNotEqual, 42.)

	_, err = r.Pair(4)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = r.Camera(-1)
	test.That(t, err, test.ShouldNotBeNil)
	idx, err := r.IndexOf("cam2")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, idx, test.ShouldEqual, 2)
	_, err = r.IndexOf("nope")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestNewRigRingOrder(t *testing.T) {
	cfg := ringConfig()
	cfg.Ring = []string{"cam2", "cam0", "cam3"}
	r, err := New(context.Background(), cfg, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, r.NumCameras(), test.ShouldEqual, 3)
	test.That(t, r.NumPairs(), test.ShouldEqual, 3)
	first, err := r.Camera(0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, first.ID, test.ShouldEqual, "cam2")
	pair, err := r.Pair(2)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pair.Left.ID, test.ShouldEqual, "cam3")
	test.That(t, pair.Right.ID, test.ShouldEqual, "cam2")

	cfg.Ring = []string{"cam1", "cam3"}
	r, err = New(context.Background(), cfg, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, r.NumPairs(), test.ShouldEqual, 1)
}

func TestNewRigErrors(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(ctx, ringConfig(), logging.NewTestLogger(t))
	test.That(t, errors.Is(err, context.Canceled), test.ShouldBeTrue)

	cfg := ringConfig()
	cfg.Cameras[2].Intrinsics.Fy = 0
	_, err = New(context.Background(), cfg, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "fy")
}

func TestPick(t *testing.T) {
	r, err := New(context.Background(), ringConfig(), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	world := r3.Vector{X: 0.6, Y: -0.3, Z: 6}
	pixels := make([]r2.Point, r.NumCameras())
	for i := range pixels {
		cam, err := r.Camera(i)
		test.That(t, err, test.ShouldBeNil)
		pixels[i], err = cam.Project(world)
		test.That(t, err, test.ShouldBeNil)
	}

	for i := range pixels {
		res, err := r.Pick(i, pixels[i])
		test.That(t, err, test.ShouldBeNil)
		test.That(t, len(res.Lines), test.ShouldEqual, 2)
		test.That(t, res.Lines[0].Relation, test.ShouldEqual, Next)
		test.That(t, res.Lines[1].Relation, test.ShouldEqual, Previous)

		next, prev := (i+1)%4, (i+3)%4
		test.That(t, res.Lines[0].Pair, test.ShouldEqual, i)
		test.That(t, res.Lines[1].Pair, test.ShouldEqual, prev)
		test.That(t, res.Lines[0].CameraID, test.ShouldEqual, ringConfig().Cameras[next].ID)
		test.That(t, res.Lines[1].CameraID, test.ShouldEqual, ringConfig().Cameras[prev].ID)
		test.That(t, res.Lines[0].Line.Distance(pixels[next]), test.ShouldBeLessThan, 1e-6)
		test.That(t, res.Lines[1].Line.Distance(pixels[prev]), test.ShouldBeLessThan, 1e-6)

		// the segment spans the neighbour image and lies on the line
		for _, nl := range res.Lines {
			test.That(t, nl.Vertical, test.ShouldBeFalse)
			test.That(t, nl.Start.X, test.ShouldEqual, 0.)
			test.That(t, nl.End.X, test.ShouldEqual, 1920.)
			test.That(t, nl.Line.Distance(nl.Start), test.ShouldBeLessThan, 1e-6)
			test.That(t, nl.Line.Distance(nl.End), test.ShouldBeLessThan, 1e-6)
		}
	}

	_, err = r.Pick(7, r2.Point{})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestPickTwoCameras(t *testing.T) {
	cfg := ringConfig()
	cfg.Cameras = cfg.Cameras[:2]
	r, err := New(context.Background(), cfg, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	res, err := r.Pick(0, r2.Point{X: 900, Y: 500})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(res.Lines), test.ShouldEqual, 1)
	test.That(t, res.Lines[0].Relation, test.ShouldEqual, Next)
	test.That(t, res.Lines[0].CameraID, test.ShouldEqual, "cam1")

	res, err = r.Pick(1, r2.Point{X: 900, Y: 500})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(res.Lines), test.ShouldEqual, 1)
	test.That(t, res.Lines[0].Relation, test.ShouldEqual, Previous)
	test.That(t, res.Lines[0].CameraID, test.ShouldEqual, "cam0")
}

func TestPickRaw(t *testing.T) {
	cfg := ringConfig()
	cfg.Cameras[0].Distortion = []float64{-0.2, 0.05}
	r, err := New(context.Background(), cfg, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	cam, err := r.Camera(0)
	test.That(t, err, test.ShouldBeNil)
	undistorted := r2.Point{X: 300, Y: 200}
	distortionMap, err := cam.Sensor.DistortionMap()
	test.That(t, err, test.ShouldBeNil)
	x, y := distortionMap(undistorted.X, undistorted.Y)

	fromRaw, err := r.PickRaw(0, r2.Point{X: x, Y: y})
	test.That(t, err, test.ShouldBeNil)
	direct, err := r.Pick(0, undistorted)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, fromRaw.Point.X, test.ShouldAlmostEqual, undistorted.X, 1e-6)
	test.That(t, fromRaw.Point.Y, test.ShouldAlmostEqual, undistorted.Y, 1e-6)
	test.That(t, cmp.Equal(fromRaw.Lines, direct.Lines, cmpopts.EquateApprox(0, 1e-5)), test.ShouldBeTrue)
}
