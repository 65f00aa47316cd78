package nn

import (
	"strings"
	"testing"

	"github.com/strata-ml/strata/internal/backend/cpu"
	"github.com/strata-ml/strata/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildStack(t *testing.T) (*cpu.CPUBackend, *LCNLayer[*cpu.CPUBackend], *ConvLayer[*cpu.CPUBackend]) {
	t.Helper()
	backend := cpu.New()

	lcn, err := NewLCNLayer(3, 0, backend)
	require.NoError(t, err)

	conv, err := NewConvLayer(ConvConfig{
		Channels: 1, Height: 6, Width: 6,
		Filters: 2, FilterH: 3, FilterW: 3,
		Activation: Sigmoid,
	}, backend)
	require.NoError(t, err)

	return backend, lcn, conv
}

func TestNetwork_Assembly(t *testing.T) {
	backend, lcn, conv := buildStack(t)

	net, err := NewNetwork(backend, tensor.Shape{1, 6, 6}, 4, lcn, conv)
	require.NoError(t, err)

	assert.Equal(t, 4, net.BatchSize())
	assert.Len(t, net.Layers(), 2)

	// Shape propagation: LCN preserves, conv reduces.
	assert.True(t, net.Context(0).Output.Shape().Equal(tensor.Shape{4, 1, 6, 6}))
	assert.True(t, net.Context(1).Output.Shape().Equal(tensor.Shape{4, 2, 4, 4}))
}

func TestNetwork_AssemblyRejectsMismatch(t *testing.T) {
	backend, lcn, conv := buildStack(t)

	// The conv layer expects 1x6x6 samples; feeding 2x6x6 fails at
	// assembly, before any batch runs.
	_, err := NewNetwork(backend, tensor.Shape{2, 6, 6}, 4, lcn, conv)
	assert.Error(t, err)

	_, err = NewNetwork(backend, tensor.Shape{1, 6, 6}, 0, lcn)
	assert.Error(t, err, "zero batch size must be rejected")

	_, err = NewNetwork[*cpu.CPUBackend](backend, tensor.Shape{1, 6, 6}, 4)
	assert.Error(t, err, "empty layer stack must be rejected")
}

func TestNetwork_ForwardBackward(t *testing.T) {
	backend, lcn, conv := buildStack(t)

	net, err := NewNetwork(backend, tensor.Shape{1, 6, 6}, 2, lcn, conv)
	require.NoError(t, err)

	batch := tensor.MustRaw(tensor.Shape{2, 1, 6, 6}, tensor.Float32, tensor.CPU)
	in := batch.AsFloat32()
	for i := range in {
		in[i] = float32(i%10) * 0.3
	}

	output := net.Forward(batch)
	assert.True(t, output.Shape().Equal(tensor.Shape{2, 2, 4, 4}))
	assert.Same(t, net.Output(), output)

	// Contexts captured the pass.
	assert.Equal(t, in[0], net.Context(0).Input.AsFloat32()[0])

	errs := tensor.MustRaw(tensor.Shape{2, 2, 4, 4}, tensor.Float32, tensor.CPU)
	e := errs.AsFloat32()
	for i := range e {
		e[i] = 0.1
	}

	net.Backward(errs)

	// The conv layer's gradients are populated, and the error signal
	// reached the first layer's context.
	wg := net.Context(1).WGrad.AsFloat32()
	nonzero := false
	for _, v := range wg {
		if v != 0 {
			nonzero = true
			break
		}
	}
	assert.True(t, nonzero, "conv weight gradient should be nonzero")

	prevErrs := net.Context(0).Errors.AsFloat32()
	nonzero = false
	for _, v := range prevErrs {
		if v != 0 {
			nonzero = true
			break
		}
	}
	assert.True(t, nonzero, "errors should propagate to the first layer")
}

func TestNetwork_Describe(t *testing.T) {
	backend, lcn, conv := buildStack(t)

	net, err := NewNetwork(backend, tensor.Shape{1, 6, 6}, 2, lcn, conv)
	require.NoError(t, err)

	desc := net.Describe()
	assert.True(t, strings.Contains(desc, "LCN: 3x3"), "missing LCN line: %s", desc)
	assert.True(t, strings.Contains(desc, "Conv: 1x6x6"), "missing conv line: %s", desc)
}
