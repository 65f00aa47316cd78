package optim

import (
	"testing"

	"github.com/strata-ml/strata/internal/backend/cpu"
	"github.com/strata-ml/strata/internal/nn"
	"github.com/strata-ml/strata/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSGD_Validation(t *testing.T) {
	_, err := NewSGD(SGDConfig{LR: 0})
	assert.Error(t, err)

	_, err = NewSGD(SGDConfig{LR: -0.1})
	assert.Error(t, err)

	_, err = NewSGD(SGDConfig{LR: 0.1, Momentum: 1.0})
	assert.Error(t, err)

	_, err = NewSGD(SGDConfig{LR: 0.1, Momentum: -0.1})
	assert.Error(t, err)

	s, err := NewSGD(SGDConfig{LR: 0.1, Momentum: 0.9})
	require.NoError(t, err)
	assert.InDelta(t, 0.1, float64(s.LR()), 1e-9)

	s.SetLR(0.01)
	assert.InDelta(t, 0.01, float64(s.LR()), 1e-9)
}

// TestSGD_UpdateMath checks the momentum recurrence over two steps:
//
//	inc = momentum*inc - lr*grad
//	w   = w + inc
func TestSGD_UpdateMath(t *testing.T) {
	s, err := NewSGD(SGDConfig{LR: 0.1, Momentum: 0.9})
	require.NoError(t, err)

	params := tensor.MustRaw(tensor.Shape{1}, tensor.Float32, tensor.CPU)
	grad := tensor.MustRaw(tensor.Shape{1}, tensor.Float32, tensor.CPU)
	inc := tensor.MustRaw(tensor.Shape{1}, tensor.Float32, tensor.CPU)

	params.AsFloat32()[0] = 1.0
	grad.AsFloat32()[0] = 0.5

	// Step 1: inc = -0.05, w = 0.95.
	s.Update(params, grad, inc)
	assert.InDelta(t, -0.05, float64(inc.AsFloat32()[0]), 1e-6)
	assert.InDelta(t, 0.95, float64(params.AsFloat32()[0]), 1e-6)

	// Step 2: inc = 0.9*(-0.05) - 0.05 = -0.095, w = 0.855.
	s.Update(params, grad, inc)
	assert.InDelta(t, -0.095, float64(inc.AsFloat32()[0]), 1e-6)
	assert.InDelta(t, 0.855, float64(params.AsFloat32()[0]), 1e-6)
}

func TestSGD_ZeroMomentumIsPlainDescent(t *testing.T) {
	s, err := NewSGD(SGDConfig{LR: 0.5})
	require.NoError(t, err)

	params := tensor.MustRaw(tensor.Shape{3}, tensor.Float32, tensor.CPU)
	grad := tensor.MustRaw(tensor.Shape{3}, tensor.Float32, tensor.CPU)
	inc := tensor.MustRaw(tensor.Shape{3}, tensor.Float32, tensor.CPU)

	copy(params.AsFloat32(), []float32{1, 2, 3})
	copy(grad.AsFloat32(), []float32{2, -2, 0})

	s.Update(params, grad, inc)

	want := []float32{0, 3, 3}
	for i, exp := range want {
		assert.InDelta(t, exp, params.AsFloat32()[i], 1e-6)
	}
}

func TestSGD_SizeMismatchPanics(t *testing.T) {
	s, err := NewSGD(SGDConfig{LR: 0.1})
	require.NoError(t, err)

	params := tensor.MustRaw(tensor.Shape{2}, tensor.Float32, tensor.CPU)
	grad := tensor.MustRaw(tensor.Shape{3}, tensor.Float32, tensor.CPU)
	inc := tensor.MustRaw(tensor.Shape{2}, tensor.Float32, tensor.CPU)

	assert.Panics(t, func() {
		s.Update(params, grad, inc)
	})
}

// TestSGD_StepNetwork drives a small conv network and verifies parameters
// move and transform layers are skipped.
func TestSGD_StepNetwork(t *testing.T) {
	backend := cpu.New()

	lcn, err := nn.NewLCNLayer(3, 0, backend)
	require.NoError(t, err)
	conv, err := nn.NewConvLayer(nn.ConvConfig{
		Channels: 1, Height: 5, Width: 5,
		Filters: 2, FilterH: 3, FilterW: 3,
		Activation: nn.Sigmoid,
	}, backend)
	require.NoError(t, err)

	net, err := nn.NewNetwork(backend, tensor.Shape{1, 5, 5}, 2, lcn, conv)
	require.NoError(t, err)

	batch := tensor.MustRaw(tensor.Shape{2, 1, 5, 5}, tensor.Float32, tensor.CPU)
	in := batch.AsFloat32()
	for i := range in {
		in[i] = float32(i%6) * 0.4
	}

	net.Forward(batch)

	errs := tensor.MustRaw(tensor.Shape{2, 2, 3, 3}, tensor.Float32, tensor.CPU)
	e := errs.AsFloat32()
	for i := range e {
		e[i] = 0.25
	}
	net.Backward(errs)

	before := make([]float32, len(conv.Weights().Raw().AsFloat32()))
	copy(before, conv.Weights().Raw().AsFloat32())

	s, err := NewSGD(SGDConfig{LR: 0.1, Momentum: 0.9})
	require.NoError(t, err)
	Step(s, net)

	after := conv.Weights().Raw().AsFloat32()
	moved := false
	for i := range after {
		if after[i] != before[i] {
			moved = true
			break
		}
	}
	assert.True(t, moved, "SGD step should change conv weights")

	// Momentum state is in the context and persists for the next step.
	incNonzero := false
	for _, v := range net.Context(1).WInc.AsFloat32() {
		if v != 0 {
			incNonzero = true
			break
		}
	}
	assert.True(t, incNonzero, "momentum increment should be populated")
}
