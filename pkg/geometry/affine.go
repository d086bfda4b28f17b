package geometry

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// AffineFromPoints computes the affine transform mapping three source points
// onto three destination points.
func AffineFromPoints(src, dst [3]Point2D) (AffineTransform, error) {
	// [x', y'] = [a, b, tx; c, d, ty] * [x, y, 1]
	A := mat.NewDense(6, 6, nil)
	B := mat.NewVecDense(6, nil)

	for i := 0; i < 3; i++ {
		x, y := src[i].X, src[i].Y

		A.Set(i*2, 0, x)
		A.Set(i*2, 1, y)
		A.Set(i*2, 2, 1)
		B.SetVec(i*2, dst[i].X)

		A.Set(i*2+1, 3, x)
		A.Set(i*2+1, 4, y)
		A.Set(i*2+1, 5, 1)
		B.SetVec(i*2+1, dst[i].Y)
	}

	var params mat.VecDense
	if err := params.SolveVec(A, B); err != nil {
		return AffineTransform{}, fmt.Errorf("solve affine: %w", err)
	}

	return AffineTransform{
		A:  params.AtVec(0),
		B:  params.AtVec(1),
		TX: params.AtVec(2),
		C:  params.AtVec(3),
		D:  params.AtVec(4),
		TY: params.AtVec(5),
	}, nil
}

// PrincipalAxes returns the semi-axis lengths (major first) and the major
// axis angle in radians of the ellipse {c + u*cos(t) + v*sin(t)}, for any
// pair of conjugate semi-diameters u, v. The angle is taken on the side of
// u, and equals u's angle when the ellipse is a circle.
func PrincipalAxes(u, v Point2D) (major, minor, angle float64) {
	uAngle := math.Atan2(u.Y, u.X)
	m := mat.NewDense(2, 2, []float64{u.X, v.X, u.Y, v.Y})
	var svd mat.SVD
	if !svd.Factorize(m, mat.SVDFull) {
		return u.Distance(Point2D{}), v.Distance(Point2D{}), uAngle
	}
	vals := svd.Values(nil)
	major, minor = vals[0], vals[1]
	if major-minor <= 1e-12*major {
		return major, minor, uAngle
	}
	var left mat.Dense
	svd.UTo(&left)
	ax, ay := left.At(0, 0), left.At(1, 0)
	if ax*u.X+ay*u.Y < 0 {
		ax, ay = -ax, -ay
	}
	return major, minor, math.Atan2(ay, ax)
}

// Orthogonal reports whether u and v are perpendicular within a relative
// tolerance.
func Orthogonal(u, v Point2D, tol float64) bool {
	nu, nv := u.Distance(Point2D{}), v.Distance(Point2D{})
	if nu == 0 || nv == 0 {
		return true
	}
	return math.Abs(u.X*v.X+u.Y*v.Y) <= tol*nu*nv
}
