package transform

// Undistort applies the inverse of the Brown-Conrady distortion model. Given a distorted normalized point,
// it computes the undistorted point with Newton-Raphson iterations on the forward model of Transform.
func (bc *BrownConrady) Undistort(xd, yd float64) (float64, float64) {
	if bc == nil {
		return xd, yd
	}

	// Start with the distorted point as initial guess
	xu, yu := xd, yd

	const maxIterations = 20
	const tolerance = 1e-12

	for i := 0; i < maxIterations; i++ {
		r2 := xu*xu + yu*yu
		r4 := r2 * r2
		r6 := r4 * r2

		radDist := 1.0 + bc.RadialK1*r2 + bc.RadialK2*r4 + bc.RadialK3*r6
		xdEst, ydEst := bc.Transform(xu, yu)

		errX := xdEst - xd
		errY := ydEst - yd
		if errX*errX+errY*errY < tolerance*tolerance {
			break
		}

		// J = [[dxd/dxu, dxd/dyu], [dyd/dxu, dyd/dyu]]
		dRadDist := 2.0 * (bc.RadialK1 + 2.0*bc.RadialK2*r2 + 3.0*bc.RadialK3*r4)
		dxdDxu := radDist + xu*xu*dRadDist + 2.0*bc.TangentialP1*yu + 6.0*bc.TangentialP2*xu
		dxdDyu := xu*yu*dRadDist + 2.0*bc.TangentialP1*xu + 2.0*bc.TangentialP2*yu
		dydDxu := xu*yu*dRadDist + 2.0*bc.TangentialP2*yu + 2.0*bc.TangentialP1*xu
		dydDyu := radDist + yu*yu*dRadDist + 2.0*bc.TangentialP2*xu + 6.0*bc.TangentialP1*yu

		det := dxdDxu*dydDyu - dxdDyu*dydDxu
		if det == 0 {
			break
		}

		// [xu, yu] -= J^-1 * [errX, errY]
		xu -= (dydDyu*errX - dxdDyu*errY) / det
		yu -= (-dydDxu*errX + dxdDxu*errY) / det
	}

	return xu, yu
}
