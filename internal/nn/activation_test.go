package nn

import (
	"testing"

	"github.com/strata-ml/strata/internal/backend/cpu"
	"github.com/strata-ml/strata/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFunctionString(t *testing.T) {
	assert.Equal(t, "identity", Identity.String())
	assert.Equal(t, "sigmoid", Sigmoid.String())
	assert.Equal(t, "relu", ReLU.String())
	assert.Equal(t, "tanh", Tanh.String())
}

// TestIdentityApplyNoCopy: identity returns its input tensor unchanged,
// not a copy.
func TestIdentityApplyNoCopy(t *testing.T) {
	backend := cpu.New()
	x := tensor.MustRaw(tensor.Shape{3}, tensor.Float32, tensor.CPU)

	assert.Same(t, x, Identity.Apply(backend, x))
}

func TestIdentityDerivativePanics(t *testing.T) {
	backend := cpu.New()
	y := tensor.MustRaw(tensor.Shape{3}, tensor.Float32, tensor.CPU)

	assert.Panics(t, func() {
		Identity.DerivativeAt(backend, y)
	})
}

func TestInitializers(t *testing.T) {
	SeedRNG(7)

	w := tensor.MustRaw(tensor.Shape{4, 4}, tensor.Float32, tensor.CPU)

	InitZero(w, 16, 16)
	for _, v := range w.AsFloat32() {
		require.Zero(t, v)
	}

	InitXavier(w, 16, 16)
	nonzero := 0
	bound := float32(0.435) // sqrt(6/32) ~ 0.433 plus tolerance
	for _, v := range w.AsFloat32() {
		if v != 0 {
			nonzero++
		}
		assert.LessOrEqual(t, v, bound)
		assert.GreaterOrEqual(t, v, -bound)
	}
	assert.Greater(t, nonzero, 8, "Xavier should fill most elements")
}

// TestInitializerReproducible: the same seed yields the same draw sequence.
func TestInitializerReproducible(t *testing.T) {
	a := tensor.MustRaw(tensor.Shape{8}, tensor.Float32, tensor.CPU)
	b := tensor.MustRaw(tensor.Shape{8}, tensor.Float32, tensor.CPU)

	SeedRNG(99)
	InitHe(a, 8, 8)
	SeedRNG(99)
	InitHe(b, 8, 8)

	assert.Equal(t, a.AsFloat32(), b.AsFloat32())
}

func TestInitGaussian(t *testing.T) {
	SeedRNG(3)
	w := tensor.MustRaw(tensor.Shape{64}, tensor.Float32, tensor.CPU)
	InitGaussian(0.01)(w, 0, 0)

	for _, v := range w.AsFloat32() {
		assert.Less(t, v, float32(0.1))
		assert.Greater(t, v, float32(-0.1))
	}
}
