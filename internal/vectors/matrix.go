package vectors

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Matrix3x3 is a row-major 3x3 matrix. Each row is one axis of a frame when
// the matrix represents an orientation.
type Matrix3x3 [3]Vector3

// IdentityMatrix is the null rotation.
var IdentityMatrix = Matrix3x3{IVector, JVector, KVector}

// singularDeterminant is the determinant magnitude below which a matrix is
// treated as non-invertible.
const singularDeterminant = 1e-12

// Mul returns the matrix product m * n.
func (m Matrix3x3) Mul(n Matrix3x3) Matrix3x3 {
	var r Matrix3x3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 3; k++ {
				r[i][j] += m[i][k] * n[k][j]
			}
		}
	}
	return r
}

// Transform right-multiplies the row vector v by m.
func (m Matrix3x3) Transform(v Vector3) Vector3 {
	var r Vector3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i] += v[j] * m[j][i]
		}
	}
	return r
}

func (m Matrix3x3) Transpose() Matrix3x3 {
	var r Matrix3x3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i][j] = m[j][i]
		}
	}
	return r
}

func (m Matrix3x3) Scale(s float64) Matrix3x3 {
	return Matrix3x3{m[X].Scale(s), m[Y].Scale(s), m[Z].Scale(s)}
}

func (m Matrix3x3) Determinant() float64 {
	return m[0][0]*(m[2][2]*m[1][1]-m[2][1]*m[1][2]) -
		m[1][0]*(m[2][2]*m[0][1]-m[2][1]*m[0][2]) +
		m[2][0]*(m[1][2]*m[0][1]-m[1][1]*m[0][2])
}

// Inverse computes the closed-form adjugate inverse of m. When the
// determinant is numerically zero it returns the zero matrix and false;
// callers are expected to avoid degenerate configurations.
func (m Matrix3x3) Inverse() (Matrix3x3, bool) {
	det := m.Determinant()
	if math.Abs(det) < singularDeterminant {
		return Matrix3x3{}, false
	}

	var r Matrix3x3
	r[0][0] = m[2][2]*m[1][1] - m[2][1]*m[1][2]
	r[1][0] = m[2][0]*m[1][2] - m[2][2]*m[1][0]
	r[2][0] = m[2][1]*m[1][0] - m[2][0]*m[1][1]

	r[0][1] = m[2][1]*m[0][2] - m[2][2]*m[0][1]
	r[1][1] = m[2][2]*m[0][0] - m[2][0]*m[0][2]
	r[2][1] = m[2][0]*m[0][1] - m[2][1]*m[0][0]

	r[0][2] = m[1][2]*m[0][1] - m[1][1]*m[0][2]
	r[1][2] = m[1][0]*m[0][2] - m[1][2]*m[0][0]
	r[2][2] = m[1][1]*m[0][0] - m[1][0]*m[0][1]

	return r.Scale(1.0 / det), true
}

// Orthonormalize returns the right-handed orthonormal frame closest in spirit
// to m: the X row is kept, Z is X × Y, Y is recomputed as Z × X and every
// row is scaled to unit length.
func (m Matrix3x3) Orthonormalize() Matrix3x3 {
	var r Matrix3x3
	r[X] = m[X]
	r[Z] = m[X].Cross(m[Y])
	r[Y] = r[Z].Cross(m[X])
	r[X] = r[X].Normalize()
	r[Y] = r[Y].Normalize()
	r[Z] = r[Z].Normalize()
	return r
}

// FrameFromPoints builds an orthonormal frame from three points: X runs from
// p0 to p1, Z is normal to the plane of the triple and Y completes the frame.
func FrameFromPoints(p0, p1, p2 Vector3) Matrix3x3 {
	var f Matrix3x3
	f[X] = p1.Sub(p0).Normalize()
	f[Z] = f[X].Cross(p2.Sub(p0)).Normalize()
	f[Y] = f[Z].Cross(f[X]).Normalize()
	return f
}

// CrossVectors treats left and right as N×3 matrices of row vectors and
// returns transpose(left) * right / N. The slices must have equal length.
func CrossVectors(left, right []Vector3) Matrix3x3 {
	var r Matrix3x3
	n := len(left)
	if n == 0 || len(right) != n {
		return r
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var sum float64
			for k := 0; k < n; k++ {
				sum += left[k][i] * right[k][j]
			}
			r[i][j] = sum / float64(n)
		}
	}
	return r
}

// PseudoInverse returns the Moore-Penrose pseudo-inverse of m, computed from
// its singular value decomposition. Singular values below a relative
// tolerance are treated as zero, so rank-deficient inputs yield the
// least-norm solution rather than an overflow.
func PseudoInverse(m Matrix3x3) Matrix3x3 {
	a := mat.NewDense(3, 3, []float64{
		m[0][0], m[0][1], m[0][2],
		m[1][0], m[1][1], m[1][2],
		m[2][0], m[2][1], m[2][2],
	})

	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDFull) {
		return Matrix3x3{}
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	values := svd.Values(nil)

	tol := 3 * 2.220446049250313e-16 * values[0]
	var r Matrix3x3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 3; k++ {
				if values[k] <= tol {
					continue
				}
				r[i][j] += v.At(i, k) / values[k] * u.At(j, k)
			}
		}
	}
	return r
}

// BestFitTransformation returns the linear map that carries input rows onto
// output rows in the least-squares sense:
// pinv(inputᵀ·input) · (inputᵀ·output).
func BestFitTransformation(input, output []Vector3) Matrix3x3 {
	return PseudoInverse(CrossVectors(input, input)).Mul(CrossVectors(input, output))
}

func (m Matrix3x3) String() string {
	return fmt.Sprintf("[%s %s %s]", m[X], m[Y], m[Z])
}
