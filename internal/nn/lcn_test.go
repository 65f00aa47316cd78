package nn

import (
	"math"
	"testing"

	"github.com/strata-ml/strata/internal/backend/cpu"
	"github.com/strata-ml/strata/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLCNLayer_Preconditions(t *testing.T) {
	backend := cpu.New()

	_, err := NewLCNLayer(4, 0, backend)
	assert.Error(t, err, "even kernel size must be rejected")

	_, err = NewLCNLayer(1, 0, backend)
	assert.Error(t, err, "kernel size 1 must be rejected")

	_, err = NewLCNLayer(0, 0, backend)
	assert.Error(t, err)

	layer, err := NewLCNLayer(3, 0, backend)
	require.NoError(t, err)
	assert.Equal(t, 3, layer.K())
	assert.Equal(t, 1, layer.Mid())
	assert.Equal(t, "LCN: 3x3", layer.ShortString())

	layer, err = NewLCNLayer(9, 0, backend)
	require.NoError(t, err)
	assert.Equal(t, 4, layer.Mid())
}

// TestLCNLayer_FilterNormalized: the Gaussian kernel sums to one, is
// symmetric, and peaks at the center.
func TestLCNLayer_FilterNormalized(t *testing.T) {
	layer, err := NewLCNLayer(5, DefaultLCNSigma, cpu.New())
	require.NoError(t, err)

	w := layer.Filter()
	require.Len(t, w, 25)

	sum := 0.0
	for _, v := range w {
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-12)

	k := 5
	center := w[2*k+2]
	for i := 0; i < k; i++ {
		for j := 0; j < k; j++ {
			assert.InDelta(t, w[i*k+j], w[(k-1-i)*k+(k-1-j)], 1e-12, "symmetry at %d,%d", i, j)
			assert.LessOrEqual(t, w[i*k+j], center, "center must be the peak")
		}
	}
}

// TestLCNLayer_ConstantInput: a flat image has zero local contrast, so the
// normalized output is zero everywhere.
func TestLCNLayer_ConstantInput(t *testing.T) {
	layer, err := NewLCNLayer(3, 0, cpu.New())
	require.NoError(t, err)

	input := tensor.MustRaw(tensor.Shape{1, 6, 6}, tensor.Float32, tensor.CPU)
	in := input.AsFloat32()
	for i := range in {
		in[i] = 7.5
	}

	output := tensor.MustRaw(tensor.Shape{1, 6, 6}, tensor.Float32, tensor.CPU)
	layer.ActivateHidden(output, input)

	for i, v := range output.AsFloat32() {
		assert.InDelta(t, 0.0, v, 1e-6, "element %d", i)
	}
}

// TestLCNLayer_ShapePreserved: LCN is a normalization, not a resizing
// transform.
func TestLCNLayer_ShapePreserved(t *testing.T) {
	layer, err := NewLCNLayer(3, 0, cpu.New())
	require.NoError(t, err)

	out, err := layer.OutputShapeOf(tensor.Shape{2, 9, 4})
	require.NoError(t, err)
	assert.True(t, out.Equal(tensor.Shape{2, 9, 4}))

	_, err = layer.OutputShapeOf(tensor.Shape{9, 4})
	assert.Error(t, err, "samples must be 3D")
}

// TestLCNLayer_OutputBounded: normalized values have magnitude at most
// v/meanSigma with the max() guard, so wild inputs stay finite.
func TestLCNLayer_OutputBounded(t *testing.T) {
	layer, err := NewLCNLayer(3, 0, cpu.New())
	require.NoError(t, err)

	input := tensor.MustRaw(tensor.Shape{1, 8, 8}, tensor.Float32, tensor.CPU)
	in := input.AsFloat32()
	for i := range in {
		in[i] = float32(math.Sin(float64(i)*1.7)) * 1000.0
	}

	output := tensor.MustRaw(tensor.Shape{1, 8, 8}, tensor.Float32, tensor.CPU)
	layer.ActivateHidden(output, input)

	for i, v := range output.AsFloat32() {
		require.False(t, math.IsNaN(float64(v)) || math.IsInf(float64(v), 0),
			"element %d is not finite: %f", i, v)
	}
}

// TestLCNLayer_BatchIndependence: per-sample normalization never mixes
// samples.
func TestLCNLayer_BatchIndependence(t *testing.T) {
	layer, err := NewLCNLayer(3, 0, cpu.New())
	require.NoError(t, err)

	sample := tensor.MustRaw(tensor.Shape{2, 5, 5}, tensor.Float32, tensor.CPU)
	s := sample.AsFloat32()
	for i := range s {
		s[i] = float32(i%7)*0.9 - 2.0
	}

	single := tensor.MustRaw(tensor.Shape{2, 5, 5}, tensor.Float32, tensor.CPU)
	layer.ActivateHidden(single, sample)

	const n = 3
	batch := tensor.MustRaw(tensor.Shape{n, 2, 5, 5}, tensor.Float32, tensor.CPU)
	b := batch.AsFloat32()
	for i := 0; i < n; i++ {
		copy(b[i*len(s):(i+1)*len(s)], s)
	}

	out := tensor.MustRaw(tensor.Shape{n, 2, 5, 5}, tensor.Float32, tensor.CPU)
	layer.BatchActivateHidden(out, batch)

	want := single.AsFloat32()
	got := out.AsFloat32()
	size := len(want)
	for i := 0; i < n; i++ {
		slice := got[i*size : (i+1)*size]
		for j := range want {
			assert.InDelta(t, want[j], slice[j], 1e-6, "sample %d element %d", i, j)
		}
	}
}

// TestLCNLayer_TransformContract: errors pass through unchanged and there
// are no gradient accumulators.
func TestLCNLayer_TransformContract(t *testing.T) {
	layer, err := NewLCNLayer(3, 0, cpu.New())
	require.NoError(t, err)

	ctx, err := layer.NewContext(2, tensor.Shape{1, 4, 4})
	require.NoError(t, err)

	assert.Nil(t, ctx.WGrad)
	assert.Nil(t, ctx.BGrad)
	assert.Nil(t, ctx.WInc)
	assert.Nil(t, ctx.BInc)

	errs := ctx.Errors.AsFloat32()
	for i := range errs {
		errs[i] = float32(i) * 0.11
	}
	before := make([]float32, len(errs))
	copy(before, errs)

	layer.AdaptErrors(ctx)
	assert.Equal(t, before, ctx.Errors.AsFloat32(), "AdaptErrors must be a no-op")

	prev := tensor.MustRaw(tensor.Shape{2, 1, 4, 4}, tensor.Float32, tensor.CPU)
	layer.BackwardBatch(prev, ctx)
	assert.Equal(t, before, prev.AsFloat32(), "BackwardBatch must copy errors through")

	layer.ComputeGradients(ctx) // must not panic on nil accumulators
}
