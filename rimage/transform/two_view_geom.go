package transform

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/samcao0416/EpiValid/spatialmath"
)

// ComputeFundamentalMatrix returns the fundamental matrix F of the camera pair from their calibration:
//
//	F = inv(K_left)^T * [t]x * R * inv(K_right)
//
// where (R, t) takes right camera coordinates to left camera coordinates. Corresponding pixels satisfy
// p_left^T * F * p_right = 0.
func ComputeFundamentalMatrix(left, right Camera) (*mat.Dense, error) {
	kLeftInv, err := inverseIntrinsicMatrix(left.Sensor)
	if err != nil {
		return nil, errors.Wrapf(err, "camera %q", left.ID)
	}
	kRightInv, err := inverseIntrinsicMatrix(right.Sensor)
	if err != nil {
		return nil, errors.Wrapf(err, "camera %q", right.ID)
	}

	rightToLeft := RelativePose(left.Pose, right.Pose)
	transCross := spatialmath.CrossProductMatrix(rightToLeft.TranslationVector())

	var essential, tmp, fMat mat.Dense
	essential.Mul(transCross, rightToLeft.Rotation)
	tmp.Mul(kLeftInv.T(), &essential)
	fMat.Mul(&tmp, kRightInv)

	if !allFinite(&fMat) {
		return nil, errors.Errorf("fundamental matrix of cameras %q and %q is not finite", left.ID, right.ID)
	}
	return &fMat, nil
}

// inverseIntrinsicMatrix validates the sensor and inverts its camera matrix.
func inverseIntrinsicMatrix(s Sensor) (*mat.Dense, error) {
	if err := s.CheckValid(); err != nil {
		return nil, err
	}
	k, err := s.GetIntrinsicMatrix()
	if err != nil {
		return nil, err
	}
	var kInv mat.Dense
	if err := kInv.Inverse(k); err != nil {
		return nil, errors.Wrap(ErrDegenerateIntrinsics, err.Error())
	}
	return &kInv, nil
}

// EstimateFundamentalMatrix computes the fundamental matrix from at least 8 pixel matches with the
// (normalized) 8 point algorithm of Multiple View Geometry, Alg 11.1. The result follows the convention of
// ComputeFundamentalMatrix, p_left^T * F * p_right = 0, and is scaled to unit Frobenius norm.
func EstimateFundamentalMatrix(left, right []r2.Point, normalize bool) (*mat.Dense, error) {
	if len(left) != len(right) {
		return nil, errors.New("sets of points left and right must have the same number of elements")
	}
	if len(left) < 8 {
		return nil, errors.New("sets of points must have at least 8 elements")
	}
	nPoints := len(left)

	var points1, points2 []r2.Point
	var T1, T2 *mat.Dense

	// if normalize, normalize points and get transform
	if normalize {
		points1, T1 = normalizePoints(right)
		points2, T2 = normalizePoints(left)
	} else {
		points1 = make([]r2.Point, nPoints)
		copy(points1, right)
		points2 = make([]r2.Point, nPoints)
		copy(points2, left)
		T1 = eye(3)
		T2 = eye(3)
	}

	m := mat.NewDense(nPoints, 9, nil)
	for i := range points1 {
		v1 := points1[i]
		v2 := points2[i]
		row := []float64{
			v2.X * v1.X, v2.X * v1.Y, v2.X,
			v2.Y * v1.X, v2.Y * v1.Y, v2.Y,
			v1.X, v1.Y, 1,
		}
		m.SetRow(i, row)
	}

	// perform SVD on m
	mats1, err := performSVD(m)
	if err != nil {
		return nil, err
	}
	F := mat.NewDense(3, 3, mat.Col(nil, 8, mats1.V))

	// enforce rank 2 of F
	mats2, err := performSVD(F)
	if err != nil {
		return nil, err
	}
	S := mats2.S
	S.Set(2, 2, 0)

	// get refined F: U@S@V2^T
	var Fhat, rankTwo, tmp, rescaled mat.Dense
	Fhat.Mul(mats2.U, S)
	rankTwo.Mul(&Fhat, mats2.VT)
	// rescale F: T2^T @ F @ T1
	tmp.Mul(T2.T(), &rankTwo)
	rescaled.Mul(&tmp, T1)

	norm := mat.Norm(&rescaled, 2)
	if norm == 0 || math.IsNaN(norm) {
		return nil, errors.New("point matches do not determine a fundamental matrix")
	}
	rescaled.Scale(1/norm, &rescaled)
	return &rescaled, nil
}

// helpers
// normalizePoints normalizes points as described in Multiple View Geometry, Alg 11.1.
func normalizePoints(pts []r2.Point) ([]r2.Point, *mat.Dense) {
	nPoints := len(pts)
	// compute centroid of points
	mu := r2.Point{X: 0, Y: 0}

	for _, pt := range pts {
		mu.X += pt.X
		mu.Y += pt.Y
	}
	mu = mu.Mul(1. / float64(nPoints))
	// compute scale factor
	d := 0.0
	for _, pt := range pts {
		d += pt.Sub(mu).Norm() / float64(nPoints)
	}
	scale := 1.0
	if d > 0 {
		scale = math.Sqrt(2) / d
	}
	transformData := []float64{
		scale, 0, -scale * mu.X,
		0, scale, -scale * mu.Y,
		0, 0, 1,
	}
	T := mat.NewDense(3, 3, transformData)
	// apply transform to points
	pointsTransformed := make([]r2.Point, nPoints)
	for i := range pointsTransformed {
		pointsTransformed[i] = pts[i].Sub(mu).Mul(scale)
	}
	return pointsTransformed, T
}

// eye create an identity matrix of size nxn.
func eye(n int) *mat.Dense {
	if n <= 0 {
		return nil
	}
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
	}
	return m
}

// allFinite reports whether no entry of m is NaN or infinite.
func allFinite(m mat.Matrix) bool {
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := m.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}

// matsSVD stores the matrices from SVD decomposition.
type matsSVD struct {
	U  *mat.Dense
	V  *mat.Dense
	VT *mat.Dense
	S  *mat.Dense
}

// performSVD performs SVD on inputMatrix and returns matrices U, Sigma and V from the decomposition.
func performSVD(inputMatrix mat.Matrix) (*matsSVD, error) {
	var svd mat.SVD
	ok := svd.Factorize(inputMatrix, mat.SVDFull)
	if !ok {
		return nil, errors.New("failed to factorize matrix")
	}

	u, v, sigma, vt := &mat.Dense{}, &mat.Dense{}, &mat.Dense{}, &mat.Dense{}

	svd.UTo(u)
	svd.VTo(v)
	vt.CloneFrom(v.T())

	singularValues := svd.Values(nil)
	sigma.CloneFrom(mat.NewDiagDense(len(singularValues), singularValues))

	return &matsSVD{u, v, vt, sigma}, nil
}

// SingularValues returns the singular values of m in decreasing order.
func SingularValues(m mat.Matrix) ([]float64, error) {
	var svd mat.SVD
	if ok := svd.Factorize(m, mat.SVDNone); !ok {
		return nil, errors.New("failed to factorize matrix")
	}
	return svd.Values(nil), nil
}
