package spatialmath

import (
	"math"
	"math/rand"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"
)

func randomSE3Vector(rnd *rand.Rand) SE3Vector {
	var v SE3Vector
	for i := 0; i < 3; i++ {
		v[i] = (rnd.Float64()*2 - 1) * 2
	}
	for i := 3; i < 6; i++ {
		v[i] = (rnd.Float64()*2 - 1) * 10
	}
	return v
}

func TestNewSE3VectorFromSlice(t *testing.T) {
	v, err := NewSE3VectorFromSlice([]float64{1, 2, 3, 4, 5, 6})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, v.Rotation(), test.ShouldResemble, r3.Vector{X: 1, Y: 2, Z: 3})
	test.That(t, v.Translation(), test.ShouldResemble, r3.Vector{X: 4, Y: 5, Z: 6})

	_, err = NewSE3VectorFromSlice([]float64{1, 2, 3})
	test.That(t, errors.Is(err, ErrDimensionMismatch), test.ShouldBeTrue)
	_, err = NewSE3VectorFromSlice(make([]float64, 7))
	test.That(t, errors.Is(err, ErrDimensionMismatch), test.ShouldBeTrue)
}

func TestInvertRoundTrip(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	for i := 0; i < 100; i++ {
		v := randomSE3Vector(rnd)
		inv := v.Invert()
		test.That(t, inv.Rotation(), test.ShouldResemble, v.Rotation().Mul(-1))
		test.That(t, inv.Invert().AlmostEqual(v, 1e-9), test.ShouldBeTrue)
	}
}

func TestInvertUndoesTransform(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	for i := 0; i < 50; i++ {
		v := randomSE3Vector(rnd)
		pt := r3.Vector{X: rnd.Float64(), Y: rnd.Float64(), Z: rnd.Float64()}
		back := v.Invert().Apply(v.Apply(pt))
		test.That(t, back.X, test.ShouldAlmostEqual, pt.X, 1e-9)
		test.That(t, back.Y, test.ShouldAlmostEqual, pt.Y, 1e-9)
		test.That(t, back.Z, test.ShouldAlmostEqual, pt.Z, 1e-9)
	}
}

func TestInvertMatchesMatrixInverse(t *testing.T) {
	v := SE3Vector{0.1, -0.4, 0.3, 1, 2, -3}
	var inv mat.Dense
	test.That(t, inv.Inverse(v.Matrix()), test.ShouldBeNil)
	test.That(t, mat.EqualApprox(&inv, v.Invert().Matrix(), 1e-12), test.ShouldBeTrue)
}

func TestInvertPureTranslation(t *testing.T) {
	v := SE3Vector{0, 0, 0, 1, -2, 3}
	test.That(t, v.Invert(), test.ShouldResemble, SE3Vector{0, 0, 0, -1, 2, -3})
}

func TestToRotationTranslation(t *testing.T) {
	v := SE3Vector{0, 0, math.Pi / 2, 1, 2, 3}
	rot, trans := v.ToRotationTranslation()
	test.That(t, trans, test.ShouldResemble, r3.Vector{X: 1, Y: 2, Z: 3})
	expected := mat.NewDense(3, 3, []float64{
		0, -1, 0,
		1, 0, 0,
		0, 0, 1,
	})
	test.That(t, mat.EqualApprox(rot, expected, 1e-12), test.ShouldBeTrue)

	m := v.Matrix()
	r, c := m.Dims()
	test.That(t, r, test.ShouldEqual, 4)
	test.That(t, c, test.ShouldEqual, 4)
	test.That(t, mat.Row(nil, 3, m), test.ShouldResemble, []float64{0, 0, 0, 1})
	test.That(t, mat.Col(nil, 3, m), test.ShouldResemble, []float64{1, 2, 3, 1})
}

func TestHomogeneousMatrix(t *testing.T) {
	_, err := HomogeneousMatrix(mat.NewDense(2, 3, nil), r3.Vector{})
	test.That(t, errors.Is(err, ErrDimensionMismatch), test.ShouldBeTrue)

	_, _, err = SplitHomogeneousMatrix(mat.NewDense(3, 4, nil))
	test.That(t, errors.Is(err, ErrDimensionMismatch), test.ShouldBeTrue)

	v := SE3Vector{0.3, 0.2, 0.1, 4, 5, 6}
	rot, trans, err := SplitHomogeneousMatrix(v.Matrix())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, trans, test.ShouldResemble, v.Translation())
	test.That(t, mat.EqualApprox(rot, AngleAxisToRotationMatrix(v.Rotation()), 1e-15), test.ShouldBeTrue)
}

func TestNewSE3VectorFromMatrix(t *testing.T) {
	v := SE3Vector{-0.5, 0.25, 1.2, 0.1, 0.2, 0.3}
	fromMat, err := NewSE3VectorFromMatrix(v.Matrix())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, fromMat.AlmostEqual(v, 1e-9), test.ShouldBeTrue)

	threeByFour := mat.DenseCopyOf(v.Matrix().Slice(0, 3, 0, 4))
	fromMat, err = NewSE3VectorFromMatrix(threeByFour)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, fromMat.AlmostEqual(v, 1e-9), test.ShouldBeTrue)

	_, err = NewSE3VectorFromMatrix(mat.NewDense(3, 3, nil))
	test.That(t, errors.Is(err, ErrDimensionMismatch), test.ShouldBeTrue)
}
