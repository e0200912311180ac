// Package vectors provides the 3D vector, quaternion and matrix primitives used
// to reconstruct manipulandum pose from marker data.
//
// Vectors are row vectors. A matrix is an array of rows, so a vector is
// transformed by right-multiplication: v' = v * M. Every operation returns a
// new value and leaves its operands untouched unless the method name says
// otherwise (NormalizeInPlace).
package vectors

import (
	"fmt"
	"math"
)

// Component indices shared by vectors and quaternions. Quaternions store the
// scalar part last, at index M.
const (
	X = 0
	Y = 1
	Z = 2
	M = 3
)

// Missing marks an unavailable sample in any decoded channel. Plotting code
// treats it as a gap.
const Missing = 999999.999999

// Vector3 is a double precision 3D vector.
type Vector3 [3]float64

// Vector3f is a single precision 3D vector, the width used on the wire.
type Vector3f [3]float32

var (
	ZeroVector = Vector3{0, 0, 0}
	IVector    = Vector3{1, 0, 0}
	JVector    = Vector3{0, 1, 0}
	KVector    = Vector3{0, 0, 1}

	MissingVector = Vector3{Missing, Missing, Missing}
)

// ToDegrees converts radians to degrees.
func ToDegrees(radians float64) float64 { return radians * 180.0 / math.Pi }

// ToRadians converts degrees to radians.
func ToRadians(degrees float64) float64 { return degrees * math.Pi / 180.0 }

// Float64 widens a single precision vector.
func (v Vector3f) Float64() Vector3 {
	return Vector3{float64(v[X]), float64(v[Y]), float64(v[Z])}
}

// Float32 narrows a vector to wire precision.
func (v Vector3) Float32() Vector3f {
	return Vector3f{float32(v[X]), float32(v[Y]), float32(v[Z])}
}

func (v Vector3) Add(w Vector3) Vector3 {
	return Vector3{v[X] + w[X], v[Y] + w[Y], v[Z] + w[Z]}
}

func (v Vector3) Sub(w Vector3) Vector3 {
	return Vector3{v[X] - w[X], v[Y] - w[Y], v[Z] - w[Z]}
}

func (v Vector3) Scale(s float64) Vector3 {
	return Vector3{v[X] * s, v[Y] * s, v[Z] * s}
}

func (v Vector3) Dot(w Vector3) float64 {
	return v[X]*w[X] + v[Y]*w[Y] + v[Z]*w[Z]
}

// Cross returns the right-handed cross product v × w.
func (v Vector3) Cross(w Vector3) Vector3 {
	return Vector3{
		v[Y]*w[Z] - v[Z]*w[Y],
		v[Z]*w[X] - v[X]*w[Z],
		v[X]*w[Y] - v[Y]*w[X],
	}
}

// Norm returns the Euclidean length of v.
func (v Vector3) Norm() float64 {
	return math.Sqrt(v.Dot(v))
}

// Normalize returns v scaled to unit length. A zero vector is returned as is.
func (v Vector3) Normalize() Vector3 {
	n := v.Norm()
	if n == 0 {
		return v
	}
	return v.Scale(1.0 / n)
}

// NormalizeInPlace scales v to unit length and returns its previous norm.
func (v *Vector3) NormalizeInPlace() float64 {
	n := v.Norm()
	if n != 0 {
		*v = v.Scale(1.0 / n)
	}
	return n
}

// IsMissing reports whether any component carries the Missing sentinel.
func (v Vector3) IsMissing() bool {
	return v[X] == Missing || v[Y] == Missing || v[Z] == Missing
}

// IsFinite reports whether every component is a finite number.
func (v Vector3) IsFinite() bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

func (v Vector3) String() string {
	return fmt.Sprintf("<%8.3f %8.3f %8.3f>", v[X], v[Y], v[Z])
}

// Centroid returns the mean of the given points, or the zero vector for an
// empty slice.
func Centroid(points []Vector3) Vector3 {
	if len(points) == 0 {
		return ZeroVector
	}
	var sum Vector3
	for _, p := range points {
		sum = sum.Add(p)
	}
	return sum.Scale(1.0 / float64(len(points)))
}
