// Package filter implements the one-pole recursive smoothing applied to the
// decoded manipulandum channels.
package filter

import (
	"github.com/banshee-data/grip.monitor/internal/vectors"
)

// DefaultConstant is the smoothing constant used unless configured otherwise.
const DefaultConstant = 100.0

// Sensors is the number of force/torque transducers on the manipulandum.
const Sensors = 2

// Scalar is the persistent state of one scalar channel.
type Scalar struct {
	value float64
}

// Update folds x into the channel and returns the filtered value:
// (x + k*previous) / (1 + k).
func (s *Scalar) Update(x, k float64) float64 {
	s.value = (x + k*s.value) / (1.0 + k)
	return s.value
}

// Value returns the last filtered value.
func (s *Scalar) Value() float64 { return s.value }

// Vector is the persistent state of a 3D channel. Components are filtered
// independently.
type Vector struct {
	value vectors.Vector3
}

// Update folds v into the channel and returns the filtered vector.
func (f *Vector) Update(v vectors.Vector3, k float64) vectors.Vector3 {
	f.value = f.value.Scale(k).Add(v).Scale(1.0 / (1.0 + k))
	return f.value
}

// Value returns the last filtered vector.
func (f *Vector) Value() vectors.Vector3 { return f.value }

// Bank holds one channel per filtered quantity of a decoding session. All
// channels share a smoothing constant. A zero constant passes samples through
// unchanged; larger values smooth more heavily.
//
// A Bank is owned by a single decoder and is not safe for concurrent use.
type Bank struct {
	constant float64

	position     Vector
	rotations    Vector
	loadForce    Vector
	acceleration Vector
	cop          [Sensors]Vector
	normalForce  [Sensors]Scalar
	gripForce    Scalar
}

// NewBank returns a bank with every channel at zero and the default constant.
func NewBank() *Bank {
	return &Bank{constant: DefaultConstant}
}

// SetConstant changes the smoothing constant. Negative values are clamped
// to zero.
func (b *Bank) SetConstant(k float64) {
	if k < 0 {
		k = 0
	}
	b.constant = k
}

// Constant returns the smoothing constant.
func (b *Bank) Constant() float64 { return b.constant }

// Position filters a manipulandum position sample.
func (b *Bank) Position(v vectors.Vector3) vectors.Vector3 {
	return b.position.Update(v, b.constant)
}

// Rotations filters a canonical rotation triple.
func (b *Bank) Rotations(v vectors.Vector3) vectors.Vector3 {
	return b.rotations.Update(v, b.constant)
}

// LoadForce filters the load force vector and returns it together with its
// magnitude.
func (b *Bank) LoadForce(v vectors.Vector3) (vectors.Vector3, float64) {
	f := b.loadForce.Update(v, b.constant)
	return f, f.Norm()
}

// Acceleration filters an accelerometer sample.
func (b *Bank) Acceleration(v vectors.Vector3) vectors.Vector3 {
	return b.acceleration.Update(v, b.constant)
}

// CoP filters the center of pressure of one sensor. Out-of-range sensor
// indices return the input unchanged.
func (b *Bank) CoP(sensor int, v vectors.Vector3) vectors.Vector3 {
	if sensor < 0 || sensor >= Sensors {
		return v
	}
	return b.cop[sensor].Update(v, b.constant)
}

// NormalForce filters the normal force of one sensor. Out-of-range sensor
// indices return vectors.Missing.
func (b *Bank) NormalForce(sensor int, x float64) float64 {
	if sensor < 0 || sensor >= Sensors {
		return vectors.Missing
	}
	return b.normalForce[sensor].Update(x, b.constant)
}

// GripForce filters the grip force.
func (b *Bank) GripForce(x float64) float64 {
	return b.gripForce.Update(x, b.constant)
}
