package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/banshee-data/grip.monitor/internal/vectors"
)

func TestScalarUpdate(t *testing.T) {
	t.Parallel()

	var s Scalar
	assert.InDelta(t, 10.0/101.0, s.Update(10, 100), 1e-12)
	assert.InDelta(t, 10.0/101.0, s.Value(), 1e-12)

	var pass Scalar
	assert.Equal(t, 7.5, pass.Update(7.5, 0))
	assert.Equal(t, -2.0, pass.Update(-2, 0))
}

func TestConstantInputConverges(t *testing.T) {
	t.Parallel()

	for _, k := range []float64{0, 0.5, 1, 10, 100} {
		var s Scalar
		var v Vector
		s.Update(-500, k)
		v.Update(vectors.Vector3{900, -900, 3}, k)

		target := vectors.Vector3{1, 2, 3}
		for i := 0; i < 20000; i++ {
			s.Update(42, k)
			v.Update(target, k)
		}
		assert.InDelta(t, 42.0, s.Value(), 1e-6, "k=%v", k)
		for c := range target {
			assert.InDelta(t, target[c], v.Value()[c], 1e-6, "k=%v component %d", k, c)
		}
	}
}

func TestBankChannelsAreIndependent(t *testing.T) {
	t.Parallel()

	b := NewBank()
	assert.Equal(t, DefaultConstant, b.Constant())
	b.SetConstant(1)

	assert.Equal(t, vectors.Vector3{1, 1, 1}, b.Position(vectors.Vector3{2, 2, 2}))
	assert.Equal(t, vectors.Vector3{0.5, 0, 0}, b.Rotations(vectors.Vector3{1, 0, 0}))
	assert.Equal(t, 2.0, b.GripForce(4))
	assert.Equal(t, 3.0, b.NormalForce(0, 6))
	assert.Equal(t, -1.0, b.NormalForce(1, -2))
	assert.Equal(t, vectors.Vector3{0, 0, 2}, b.Acceleration(vectors.Vector3{0, 0, 4}))

	load, magnitude := b.LoadForce(vectors.Vector3{6, 8, 0})
	assert.Equal(t, vectors.Vector3{3, 4, 0}, load)
	assert.InDelta(t, 5.0, magnitude, 1e-12)

	assert.Equal(t, vectors.Vector3{0, 1, 1}, b.CoP(0, vectors.Vector3{0, 2, 2}))
	assert.Equal(t, vectors.Vector3{0, -1, 0}, b.CoP(1, vectors.Vector3{0, -2, 0}))

	// second update mixes with previous state per channel
	assert.Equal(t, vectors.Vector3{1.5, 1.5, 1.5}, b.Position(vectors.Vector3{2, 2, 2}))
	assert.Equal(t, 3.0, b.GripForce(4))
}

func TestBankInvalidSensor(t *testing.T) {
	t.Parallel()

	b := NewBank()
	assert.Equal(t, vectors.Missing, b.NormalForce(2, 1))
	assert.Equal(t, vectors.Missing, b.NormalForce(-1, 1))
	assert.Equal(t, vectors.Vector3{1, 2, 3}, b.CoP(5, vectors.Vector3{1, 2, 3}))
}

func TestSetConstantClampsNegative(t *testing.T) {
	t.Parallel()

	b := NewBank()
	b.SetConstant(-3)
	assert.Equal(t, 0.0, b.Constant())
	assert.Equal(t, 9.0, b.GripForce(9))
}
