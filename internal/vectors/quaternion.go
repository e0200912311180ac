package vectors

import (
	"fmt"
	"math"
)

// Quaternion holds a rotation as (x, y, z, m) with the scalar part last.
type Quaternion [4]float64

// NullQuaternion is the identity rotation.
var NullQuaternion = Quaternion{0, 0, 0, 1}

// QuaternionFromAxisAngle returns the rotation of radians about axis. The
// axis need not be unit length.
func QuaternionFromAxisAngle(radians float64, axis Vector3) Quaternion {
	v := axis.Scale(math.Sin(0.5*radians) / axis.Norm())
	return Quaternion{v[X], v[Y], v[Z], math.Cos(0.5 * radians)}
}

// QuaternionFromAxisAngleDegrees is QuaternionFromAxisAngle for an angle in
// degrees.
func QuaternionFromAxisAngleDegrees(degrees float64, axis Vector3) Quaternion {
	return QuaternionFromAxisAngle(ToRadians(degrees), axis)
}

// Vector returns the vector part of q.
func (q Quaternion) Vector() Vector3 {
	return Vector3{q[X], q[Y], q[Z]}
}

func (q Quaternion) Norm() float64 {
	return math.Sqrt(q[X]*q[X] + q[Y]*q[Y] + q[Z]*q[Z] + q[M]*q[M])
}

func (q Quaternion) Normalize() Quaternion {
	n := q.Norm()
	if n == 0 {
		return q
	}
	return Quaternion{q[X] / n, q[Y] / n, q[Z] / n, q[M] / n}
}

// Conjugate negates the vector part. For a unit quaternion this is the
// inverse rotation.
func (q Quaternion) Conjugate() Quaternion {
	return Quaternion{-q[X], -q[Y], -q[Z], q[M]}
}

// Mul returns the Hamilton product q * p.
func (q Quaternion) Mul(p Quaternion) Quaternion {
	return Quaternion{
		q[M]*p[X] + q[X]*p[M] + q[Y]*p[Z] - q[Z]*p[Y],
		q[M]*p[Y] - q[X]*p[Z] + q[Y]*p[M] + q[Z]*p[X],
		q[M]*p[Z] + q[X]*p[Y] - q[Y]*p[X] + q[Z]*p[M],
		q[M]*p[M] - q[X]*p[X] - q[Y]*p[Y] - q[Z]*p[Z],
	}
}

// RotateVector applies q to v with the sandwich product q·v·q*, v lifted to
// a pure quaternion.
func (q Quaternion) RotateVector(v Vector3) Vector3 {
	pure := Quaternion{v[X], v[Y], v[Z], 0}
	return q.Mul(pure).Mul(q.Conjugate()).Vector()
}

// AngleBetween returns the angle in radians of the rotation that carries p
// onto q.
func (q Quaternion) AngleBetween(p Quaternion) float64 {
	d := q.Mul(p.Conjugate())
	return 2.0 * math.Atan2(d.Vector().Norm(), d[M])
}

// Matrix returns the row-vector rotation matrix for q, such that
// m.Transform(v) == q.RotateVector(v) for a unit quaternion.
func (q Quaternion) Matrix() Matrix3x3 {
	x, y, z, w := q[X], q[Y], q[Z], q[M]
	return Matrix3x3{
		{1 - 2*(y*y+z*z), 2 * (x*y + z*w), 2 * (x*z - y*w)},
		{2 * (x*y - z*w), 1 - 2*(x*x+z*z), 2 * (y*z + x*w)},
		{2 * (x*z + y*w), 2 * (y*z - x*w), 1 - 2*(x*x+y*y)},
	}
}

// CanonicalRotations reduces q to three angles in radians, one about each of
// X, Y and Z. Each angle is the leading rotation of a different Euler
// decomposition, so the triple is a display aid only: composing the three
// rotations does not reproduce q.
func (q Quaternion) CanonicalRotations() Vector3 {
	return Vector3{
		math.Atan2(2*(q[M]*q[X]+q[Y]*q[Z]), 1.0-2*(q[X]*q[X]+q[Y]*q[Y])),
		math.Atan2(2*(q[M]*q[Y]+q[X]*q[Z]), 1.0-2*(q[Y]*q[Y]+q[Z]*q[Z])),
		math.Atan2(2*(q[M]*q[Z]+q[X]*q[Y]), 1.0-2*(q[X]*q[X]+q[Z]*q[Z])),
	}
}

func (q Quaternion) String() string {
	return fmt.Sprintf("{%8.3fi + %8.3fj + %8.3fk + %8.3f}", q[X], q[Y], q[Z], q[M])
}

// quaternionPivot names the term that dominates a rotation matrix and is
// therefore divided into the remaining components.
type quaternionPivot int

const (
	pivotTrace quaternionPivot = iota
	pivotX
	pivotY
	pivotZ
)

func (p quaternionPivot) String() string {
	switch p {
	case pivotTrace:
		return "trace"
	case pivotX:
		return "x"
	case pivotY:
		return "y"
	case pivotZ:
		return "z"
	default:
		return fmt.Sprintf("pivot(%d)", int(p))
	}
}

// selectPivot uses the trace while it is positive, and otherwise the largest
// diagonal entry.
func selectPivot(m Matrix3x3) quaternionPivot {
	switch {
	case m[X][X]+m[Y][Y]+m[Z][Z] > 0:
		return pivotTrace
	case m[X][X] > m[Y][Y] && m[X][X] > m[Z][Z]:
		return pivotX
	case m[Y][Y] > m[Z][Z]:
		return pivotY
	default:
		return pivotZ
	}
}

// MatrixToQuaternion extracts the rotation held in m. The matrix is first
// orthonormalized, then converted with the branch selected by selectPivot so
// that no component is divided by a near-zero term.
func MatrixToQuaternion(m Matrix3x3) Quaternion {
	o := m.Orthonormalize()

	var q Quaternion
	switch selectPivot(o) {
	case pivotTrace:
		r := math.Sqrt(1.0 + o[X][X] + o[Y][Y] + o[Z][Z])
		s := 0.5 / r
		q[M] = 0.5 * r
		q[X] = (o[Y][Z] - o[Z][Y]) * s
		q[Y] = (o[Z][X] - o[X][Z]) * s
		q[Z] = (o[X][Y] - o[Y][X]) * s
	case pivotX:
		r := math.Sqrt(1.0 + o[X][X] - o[Y][Y] - o[Z][Z])
		s := 0.5 / r
		q[X] = 0.5 * r
		q[M] = (o[Y][Z] - o[Z][Y]) * s
		q[Y] = (o[Y][X] + o[X][Y]) * s
		q[Z] = (o[Z][X] + o[X][Z]) * s
	case pivotY:
		r := math.Sqrt(1.0 + o[Y][Y] - o[X][X] - o[Z][Z])
		s := 0.5 / r
		q[Y] = 0.5 * r
		q[X] = (o[Y][X] + o[X][Y]) * s
		q[M] = (o[Z][X] - o[X][Z]) * s
		q[Z] = (o[Z][Y] + o[Y][Z]) * s
	case pivotZ:
		r := math.Sqrt(1.0 + o[Z][Z] - o[X][X] - o[Y][Y])
		s := 0.5 / r
		q[Z] = 0.5 * r
		q[X] = (o[Z][X] + o[X][Z]) * s
		q[Y] = (o[Z][Y] + o[Y][Z]) * s
		q[M] = (o[X][Y] - o[Y][X]) * s
	}
	return q
}
