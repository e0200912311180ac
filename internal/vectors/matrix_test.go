package vectors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatrixMulAndTransform(t *testing.T) {
	t.Parallel()

	m := Matrix3x3{{1, 2, 3}, {4, 5, 6}, {7, 8, 10}}
	assertMatrixNear(t, m, m.Mul(IdentityMatrix))
	assertMatrixNear(t, m, IdentityMatrix.Mul(m))

	// row vector times matrix: sum of rows weighted by the components
	assertVectorNear(t, Vector3{1 + 8 + 21, 2 + 10 + 24, 3 + 12 + 30}, m.Transform(Vector3{1, 2, 3}))

	assertMatrixNear(t, Matrix3x3{{1, 4, 7}, {2, 5, 8}, {3, 6, 10}}, m.Transpose())
	assert.InDelta(t, -3.0, m.Determinant(), tolerance)
}

func TestInverse(t *testing.T) {
	t.Parallel()

	t.Run("invertible", func(t *testing.T) {
		t.Parallel()
		m := Matrix3x3{{2, 0, 1}, {1, 3, 0}, {0, 1, 4}}
		inv, ok := m.Inverse()
		require.True(t, ok)
		assertMatrixNear(t, IdentityMatrix, m.Mul(inv))
		assertMatrixNear(t, IdentityMatrix, inv.Mul(m))
	})

	t.Run("rotation inverse is transpose", func(t *testing.T) {
		t.Parallel()
		r := QuaternionFromAxisAngleDegrees(37, Vector3{1, 2, 3}).Matrix()
		inv, ok := r.Inverse()
		require.True(t, ok)
		assertMatrixNear(t, r.Transpose(), inv)
	})

	t.Run("singular", func(t *testing.T) {
		t.Parallel()
		m := Matrix3x3{{1, 2, 3}, {2, 4, 6}, {0, 1, 1}}
		inv, ok := m.Inverse()
		assert.False(t, ok)
		assert.Equal(t, Matrix3x3{}, inv)
	})
}

func TestOrthonormalize(t *testing.T) {
	t.Parallel()

	skewed := Matrix3x3{{2, 0, 0}, {1, 3, 0}, {5, 5, 5}}
	o := skewed.Orthonormalize()
	assertMatrixNear(t, IdentityMatrix, o)

	tilted := Matrix3x3{{1, 1, 0}, {0, 1, 0.2}, {0, 0, 0}}.Orthonormalize()
	for i := 0; i < 3; i++ {
		assert.InDelta(t, 1.0, tilted[i].Norm(), tolerance)
		for j := i + 1; j < 3; j++ {
			assert.InDelta(t, 0.0, tilted[i].Dot(tilted[j]), tolerance)
		}
	}
	assert.InDelta(t, 1.0, tilted.Determinant(), tolerance, "frame must be right-handed")
}

func TestFrameFromPoints(t *testing.T) {
	t.Parallel()

	f := FrameFromPoints(Vector3{1, 1, 1}, Vector3{3, 1, 1}, Vector3{1, 4, 1})
	assertMatrixNear(t, IdentityMatrix, f)
}

func TestCrossVectors(t *testing.T) {
	t.Parallel()

	left := []Vector3{{1, 0, 0}, {0, 2, 0}}
	right := []Vector3{{0, 1, 0}, {0, 0, 4}}
	got := CrossVectors(left, right)
	want := Matrix3x3{{0, 0.5, 0}, {0, 0, 4}, {0, 0, 0}}
	assertMatrixNear(t, want, got)

	assert.Equal(t, Matrix3x3{}, CrossVectors(nil, nil))
	assert.Equal(t, Matrix3x3{}, CrossVectors(left, right[:1]))
}

func TestPseudoInverse(t *testing.T) {
	t.Parallel()

	t.Run("matches inverse when full rank", func(t *testing.T) {
		t.Parallel()
		m := Matrix3x3{{4, 1, 0}, {1, 3, 1}, {0, 1, 2}}
		inv, ok := m.Inverse()
		require.True(t, ok)
		assertMatrixNear(t, inv, PseudoInverse(m))
	})

	t.Run("rank deficient", func(t *testing.T) {
		t.Parallel()
		m := Matrix3x3{{2, 0, 0}, {0, 4, 0}, {0, 0, 0}}
		want := Matrix3x3{{0.5, 0, 0}, {0, 0.25, 0}, {0, 0, 0}}
		assertMatrixNear(t, want, PseudoInverse(m))
	})
}

func TestBestFitTransformationRecoversLinearMap(t *testing.T) {
	t.Parallel()

	r := QuaternionFromAxisAngleDegrees(63, Vector3{-1, 0.5, 2}).Matrix()
	input := []Vector3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}, {1, 1, 1}, {-2, 0.5, 3}}
	output := make([]Vector3, len(input))
	for i, v := range input {
		output[i] = r.Transform(v)
	}
	assertMatrixNear(t, r, BestFitTransformation(input, output))
}
