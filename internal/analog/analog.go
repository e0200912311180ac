// Package analog derives grip, load and center-of-pressure quantities from the
// two force/torque sensors mounted under the fingertips.
package analog

import (
	"math"

	"github.com/banshee-data/grip.monitor/internal/vectors"
)

const (
	LeftSensor  = 0
	RightSensor = 1
)

// DefaultCoPMinGrip is the minimum normal force, in newtons, for which a
// center of pressure is computed.
const DefaultCoPMinGrip = 0.5

// InvalidCoPDistance is returned by CenterOfPressure when the normal force is
// below threshold.
const InvalidCoPDistance = -1.0

// Alignment holds the rotations that carry each sensor's readings into the
// common manipulandum frame.
type Alignment struct {
	sensor [2]vectors.Quaternion
}

// NewAlignment builds the sensor alignments from the mounting angle of each
// sensor about the manipulandum Z axis, in degrees. The right sensor faces
// the left one and is additionally flipped half a turn about X.
func NewAlignment(leftDegrees, rightDegrees float64) Alignment {
	flip := vectors.QuaternionFromAxisAngleDegrees(180, vectors.IVector)
	return Alignment{sensor: [2]vectors.Quaternion{
		vectors.QuaternionFromAxisAngleDegrees(leftDegrees, vectors.KVector),
		flip.Mul(vectors.QuaternionFromAxisAngleDegrees(rightDegrees, vectors.KVector)),
	}}
}

// Quaternion returns the alignment rotation of one sensor.
func (a Alignment) Quaternion(sensor int) vectors.Quaternion {
	return a.sensor[sensor]
}

// Align rotates a reading of the given sensor into the common frame.
func (a Alignment) Align(sensor int, v vectors.Vector3) vectors.Vector3 {
	return a.sensor[sensor].RotateVector(v)
}

// CenterOfPressure computes where the resultant normal force acts on a
// sensor surface. If |force.X| exceeds threshold it returns the point and its
// distance from the sensor center; otherwise the point is missing and the
// distance is InvalidCoPDistance.
func CenterOfPressure(force, torque vectors.Vector3, threshold float64) (vectors.Vector3, float64) {
	if math.Abs(force[vectors.X]) <= threshold {
		return vectors.MissingVector, InvalidCoPDistance
	}
	cop := vectors.Vector3{
		0,
		-torque[vectors.Z] / force[vectors.X],
		-torque[vectors.Y] / force[vectors.X],
	}
	return cop, math.Hypot(cop[vectors.Y], cop[vectors.Z])
}

// GripForce is half the difference of the opposing normal components of two
// aligned force readings.
func GripForce(left, right vectors.Vector3) float64 {
	return (right[vectors.X] - left[vectors.X]) / 2.0
}

// LoadForce is the net force on the manipulandum, the sum of both aligned
// readings, returned with its magnitude.
func LoadForce(left, right vectors.Vector3) (vectors.Vector3, float64) {
	load := left.Add(right)
	return load, load.Norm()
}

// PlanarLoadForce is LoadForce with the component along the pinch axis
// dropped.
func PlanarLoadForce(left, right vectors.Vector3) (vectors.Vector3, float64) {
	load, _ := LoadForce(left, right)
	load[vectors.X] = 0
	return load, load.Norm()
}

// NormalForce returns the force pressing into one aligned sensor surface.
// The sensors face each other along X, so the left reading is negated.
func NormalForce(sensor int, aligned vectors.Vector3) float64 {
	if sensor == LeftSensor {
		return -aligned[vectors.X]
	}
	return aligned[vectors.X]
}
