package transform

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Resolution is the size of a sensor image in pixels.
type Resolution struct {
	Width  int `json:"width_px"`
	Height int `json:"height_px"`
}

// Pinhole holds the ideal projection parameters of a sensor. Cx and Cy are offsets of the principal point
// from the image center, not pixel coordinates.
type Pinhole struct {
	Fx float64 `json:"fx"`
	Fy float64 `json:"fy"`
	Cx float64 `json:"cx"`
	Cy float64 `json:"cy"`
}

// Sensor holds the intrinsic parameters of a camera: a resolution that can be set once, the pinhole
// parameters and an optional distortion model. Sensor is a plain value, copies never share state.
type Sensor struct {
	resolution    Resolution
	hasResolution bool
	pinhole       Pinhole
	distortion    BrownConrady
	hasDistortion bool
}

// NewSensor creates a sensor without a resolution. A nil distortion means the images need no correction.
func NewSensor(pinhole Pinhole, distortion *BrownConrady) Sensor {
	s := Sensor{pinhole: pinhole}
	if distortion != nil {
		s.distortion = *distortion
		s.hasDistortion = true
	}
	return s
}

// NewSensorWithResolution creates a sensor and sets its resolution.
func NewSensorWithResolution(res Resolution, pinhole Pinhole, distortion *BrownConrady) (Sensor, error) {
	s := NewSensor(pinhole, distortion)
	if err := s.SetResolution(res); err != nil {
		return Sensor{}, err
	}
	return s, nil
}

// SetResolution sets the resolution of the sensor. Setting it again to the same value is a no-op, setting it
// to a different value fails with ErrResolutionMismatch.
func (s *Sensor) SetResolution(res Resolution) error {
	if res.Width <= 0 || res.Height <= 0 {
		return errors.Errorf("invalid resolution (%d, %d)", res.Width, res.Height)
	}
	if s.hasResolution {
		if s.resolution != res {
			return errors.Wrapf(ErrResolutionMismatch, "have (%d, %d), got (%d, %d)",
				s.resolution.Width, s.resolution.Height, res.Width, res.Height)
		}
		return nil
	}
	s.resolution = res
	s.hasResolution = true
	return nil
}

// Resolution returns the resolution and whether it has been set.
func (s Sensor) Resolution() (Resolution, bool) {
	return s.resolution, s.hasResolution
}

// Pinhole returns the pinhole parameters.
func (s Sensor) Pinhole() Pinhole {
	return s.pinhole
}

// Distortion returns the distortion model and whether there is one.
func (s Sensor) Distortion() (BrownConrady, bool) {
	return s.distortion, s.hasDistortion
}

// DistortionCoefficients returns the distortion coefficients in the order [k1, k2, p1, p2, k3] expected by
// undistortion routines, and false when the sensor has no distortion model.
func (s Sensor) DistortionCoefficients() ([]float64, bool) {
	if !s.hasDistortion {
		return nil, false
	}
	return s.distortion.Coefficients(), true
}

// CheckValid checks that the sensor can be used as a pinhole camera. The distortion model is not
// checked here; it is checked where pixels are remapped.
func (s Sensor) CheckValid() error {
	if !s.hasResolution {
		return ErrNoResolution
	}
	p := s.pinhole
	if p.Fx == 0 || math.IsNaN(p.Fx) || math.IsInf(p.Fx, 0) {
		return NewDegenerateIntrinsicsError(fmt.Sprintf("invalid focal length Fx = %#v", p.Fx))
	}
	if p.Fy == 0 || math.IsNaN(p.Fy) || math.IsInf(p.Fy, 0) {
		return NewDegenerateIntrinsicsError(fmt.Sprintf("invalid focal length Fy = %#v", p.Fy))
	}
	if math.IsNaN(p.Cx) || math.IsInf(p.Cx, 0) || math.IsNaN(p.Cy) || math.IsInf(p.Cy, 0) {
		return NewDegenerateIntrinsicsError(fmt.Sprintf("invalid principal point offset (%v, %v)", p.Cx, p.Cy))
	}
	return nil
}

// checkDistortion checks the sensor and its distortion model before pixels are remapped.
func (s Sensor) checkDistortion() error {
	if err := s.CheckValid(); err != nil {
		return err
	}
	if s.hasDistortion {
		return s.distortion.CheckValid()
	}
	return nil
}

// PrincipalPoint returns the principal point in pixel coordinates, with the origin at the center of the
// upper left pixel.
func (s Sensor) PrincipalPoint() (r2.Point, error) {
	if !s.hasResolution {
		return r2.Point{}, ErrNoResolution
	}
	return r2.Point{
		X: s.pinhole.Cx + float64(s.resolution.Width-1)/2,
		Y: s.pinhole.Cy + float64(s.resolution.Height-1)/2,
	}, nil
}

// GetIntrinsicMatrix creates the pinhole camera matrix of the sensor:
//
//	[[fx  0 cx + (w-1)/2],
//	 [ 0 fy cy + (h-1)/2],
//	 [ 0  0            1]]
func (s Sensor) GetIntrinsicMatrix() (*mat.Dense, error) {
	pp, err := s.PrincipalPoint()
	if err != nil {
		return nil, err
	}
	cameraMatrix := mat.NewDense(3, 3, nil)
	cameraMatrix.Set(0, 0, s.pinhole.Fx)
	cameraMatrix.Set(1, 1, s.pinhole.Fy)
	cameraMatrix.Set(0, 2, pp.X)
	cameraMatrix.Set(1, 2, pp.Y)
	cameraMatrix.Set(2, 2, 1)
	return cameraMatrix, nil
}

// PointToPixel projects a 3D point in the camera frame to a pixel, without distortion.
func (s Sensor) PointToPixel(pt r3.Vector) (r2.Point, error) {
	pp, err := s.PrincipalPoint()
	if err != nil {
		return r2.Point{}, err
	}
	if pt.Z == 0 {
		return r2.Point{}, errors.New("cannot project a point with zero depth")
	}
	return r2.Point{
		X: pt.X/pt.Z*s.pinhole.Fx + pp.X,
		Y: pt.Y/pt.Z*s.pinhole.Fy + pp.Y,
	}, nil
}

// PixelToRay returns the ray through the pixel in the camera frame, scaled to unit depth.
func (s Sensor) PixelToRay(px r2.Point) (r3.Vector, error) {
	if err := s.CheckValid(); err != nil {
		return r3.Vector{}, err
	}
	pp, err := s.PrincipalPoint()
	if err != nil {
		return r3.Vector{}, err
	}
	return r3.Vector{
		X: (px.X - pp.X) / s.pinhole.Fx,
		Y: (px.Y - pp.Y) / s.pinhole.Fy,
		Z: 1,
	}, nil
}

// DistortionMap returns a function that transforms undistorted pixels (u,v) into the distorted pixels (x,y)
// of the raw image, according to the sensor distortion model.
func (s Sensor) DistortionMap() (func(u, v float64) (float64, float64), error) {
	if err := s.checkDistortion(); err != nil {
		return nil, err
	}
	pp, err := s.PrincipalPoint()
	if err != nil {
		return nil, err
	}
	p, dist := s.pinhole, s.distortion
	return func(u, v float64) (float64, float64) {
		x := (u - pp.X) / p.Fx
		y := (v - pp.Y) / p.Fy
		x, y = dist.Transform(x, y)
		return x*p.Fx + pp.X, y*p.Fy + pp.Y
	}, nil
}

// UndistortPixel maps a pixel picked in the raw, distorted image to where it lies in the undistorted image.
func (s Sensor) UndistortPixel(px r2.Point) (r2.Point, error) {
	if err := s.checkDistortion(); err != nil {
		return r2.Point{}, err
	}
	if !s.hasDistortion {
		return px, nil
	}
	pp, err := s.PrincipalPoint()
	if err != nil {
		return r2.Point{}, err
	}
	p := s.pinhole
	x, y := s.distortion.Undistort((px.X-pp.X)/p.Fx, (px.Y-pp.Y)/p.Fy)
	return r2.Point{X: x*p.Fx + pp.X, Y: y*p.Fy + pp.Y}, nil
}

// UndistortImage takes an input image and creates a new image the same size, undistorted according to the
// sensor distortion model. Nearest neighbor sampling is used and pixels that map outside of the input are
// left white. Images of sensors without a distortion model are returned unchanged.
func (s Sensor) UndistortImage(img image.Image) (image.Image, error) {
	if img == nil {
		return nil, errors.New("input image is nil")
	}
	if !s.hasDistortion {
		return img, nil
	}
	bounds := img.Bounds()
	// Check dimensions, they should be equal between the image and what the intrinsics expect
	if res, ok := s.Resolution(); ok && (res.Width != bounds.Dx() || res.Height != bounds.Dy()) {
		return nil, errors.Errorf("img dimension and intrinsics don't match Image(%d,%d) != Intrinsics(%d,%d)",
			bounds.Dx(), bounds.Dy(), res.Width, res.Height)
	}
	distortionMap, err := s.DistortionMap()
	if err != nil {
		return nil, err
	}
	undistorted := imaging.New(bounds.Dx(), bounds.Dy(), color.White)
	for v := 0; v < bounds.Dy(); v++ {
		for u := 0; u < bounds.Dx(); u++ {
			x, y := distortionMap(float64(u), float64(v))
			xi, yi := int(math.Round(x)), int(math.Round(y))
			if xi < 0 || yi < 0 || xi >= bounds.Dx() || yi >= bounds.Dy() {
				continue
			}
			undistorted.Set(u, v, img.At(bounds.Min.X+xi, bounds.Min.Y+yi))
		}
	}
	return undistorted, nil
}
