package transform

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/samcao0416/EpiValid/spatialmath"
)

// lineEpsilon is the smallest |B| of a unit epipolar line that is not reported as vertical.
const lineEpsilon = 1e-12

// Side is the role an image plays in a fundamental matrix.
type Side int

const (
	// LeftImage is the image of the first camera given to ComputeFundamentalMatrix.
	LeftImage Side = iota
	// RightImage is the image of the second camera given to ComputeFundamentalMatrix.
	RightImage
)

// Other returns the opposite side.
func (s Side) Other() Side {
	if s == LeftImage {
		return RightImage
	}
	return LeftImage
}

// String implements fmt.Stringer.
func (s Side) String() string {
	switch s {
	case LeftImage:
		return "left"
	case RightImage:
		return "right"
	default:
		return fmt.Sprintf("Side(%d)", int(s))
	}
}

// Line is the image line A*X + B*Y + C = 0.
type Line struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
	C float64 `json:"c"`
}

// EpilinesFromPoint returns the epipolar line, in the other image, of a pixel picked in the source image
// of the fundamental matrix f. A left pixel p gives the right image line F^T * p, a right pixel gives the
// left image line F * p. The line is scaled so that A² + B² = 1.
//
// A vertical line is returned together with ErrVerticalLine; it is still a valid line and should be drawn
// at X = VerticalX().
func EpilinesFromPoint(pt r2.Point, source Side, f mat.Matrix) (Line, error) {
	if r, c := f.Dims(); r != 3 || c != 3 {
		return Line{}, spatialmath.NewDimensionError("fundamental matrix", r, c, 3, 3)
	}
	if source != LeftImage && source != RightImage {
		return Line{}, errors.Errorf("unknown image side %v", source)
	}
	p := mat.NewVecDense(3, []float64{pt.X, pt.Y, 1})
	var l mat.VecDense
	if source == LeftImage {
		l.MulVec(f.T(), p)
	} else {
		l.MulVec(f, p)
	}
	line := Line{A: l.AtVec(0), B: l.AtVec(1), C: l.AtVec(2)}

	norm := math.Hypot(line.A, line.B)
	if norm == 0 || math.IsNaN(norm) || math.IsInf(norm, 0) || math.IsNaN(line.C) || math.IsInf(line.C, 0) {
		return Line{}, errors.Wrapf(ErrDegenerateLine, "point (%v, %v) in %v image", pt.X, pt.Y, source)
	}
	line = Line{A: line.A / norm, B: line.B / norm, C: line.C / norm}
	if line.IsVertical() {
		return line, ErrVerticalLine
	}
	return line, nil
}

// IsVertical reports whether the line has no finite slope.
func (l Line) IsVertical() bool {
	return math.Abs(l.B) <= lineEpsilon*math.Hypot(l.A, l.B)
}

// YAt solves the line for Y at the given X.
func (l Line) YAt(x float64) (float64, error) {
	if l.IsVertical() {
		return 0, ErrVerticalLine
	}
	return -(l.A*x + l.C) / l.B, nil
}

// VerticalX returns the X of a vertical line.
func (l Line) VerticalX() (float64, error) {
	if l.A == 0 {
		return 0, ErrDegenerateLine
	}
	return -l.C / l.A, nil
}

// Segment returns the two end points used to draw the line over an image of the given size: from the left
// edge (X = 0) to the right edge (X = width), or from the top to the bottom for a vertical line.
func (l Line) Segment(width, height int) (r2.Point, r2.Point, error) {
	if l.IsVertical() {
		x, err := l.VerticalX()
		if err != nil {
			return r2.Point{}, r2.Point{}, err
		}
		return r2.Point{X: x, Y: 0}, r2.Point{X: x, Y: float64(height)}, nil
	}
	y0, err := l.YAt(0)
	if err != nil {
		return r2.Point{}, r2.Point{}, err
	}
	y1, err := l.YAt(float64(width))
	if err != nil {
		return r2.Point{}, r2.Point{}, err
	}
	return r2.Point{X: 0, Y: y0}, r2.Point{X: float64(width), Y: y1}, nil
}

// Distance returns the distance in pixels from pt to the line.
func (l Line) Distance(pt r2.Point) float64 {
	return math.Abs(l.A*pt.X+l.B*pt.Y+l.C) / math.Hypot(l.A, l.B)
}

// EpipolarDistance returns the symmetric epipolar distance of a pixel match: the mean of the distance of the
// right pixel to the epipolar line of the left pixel and the other way around.
func EpipolarDistance(f mat.Matrix, left, right r2.Point) (float64, error) {
	lineInRight, err := EpilinesFromPoint(left, LeftImage, f)
	if err != nil && !errors.Is(err, ErrVerticalLine) {
		return 0, err
	}
	lineInLeft, err := EpilinesFromPoint(right, RightImage, f)
	if err != nil && !errors.Is(err, ErrVerticalLine) {
		return 0, err
	}
	return (lineInRight.Distance(right) + lineInLeft.Distance(left)) / 2, nil
}
