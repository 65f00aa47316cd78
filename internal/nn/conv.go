package nn

import (
	"errors"
	"fmt"

	"github.com/strata-ml/strata/internal/tensor"
)

// ConvLayer is a standard convolutional layer: a bank of filters correlated
// over the input in valid mode (no padding, stride 1), a per-filter bias
// broadcast over the spatial dimensions, and an elementwise activation.
//
// Shape algebra, which holds exactly:
//
//	OutHeight = Height - FilterH + 1
//	OutWidth  = Width  - FilterW + 1
//
// Weights are [Filters, Channels, FilterH, FilterW]: each filter spans all
// input channels, so the channel dimension is summed over rather than being
// a separate parameter set. Weights and biases are owned by the layer and
// mutated only by the optimizer between batches, never during forward or
// backward.
type ConvLayer[B tensor.Backend] struct {
	channels int
	height   int
	width    int
	filters  int
	filterH  int
	filterW  int
	outH     int
	outW     int

	activation Function

	weights *tensor.Tensor[float32, B]
	biases  *tensor.Tensor[float32, B]

	// Optional speculative-update snapshot; nil until Snapshot is called.
	bakWeights *tensor.RawTensor
	bakBiases  *tensor.RawTensor

	backend B
}

// ConvConfig carries the construction-time constants of a ConvLayer.
type ConvConfig struct {
	Channels int // input channels
	Height   int // input height
	Width    int // input width
	Filters  int // number of filters (output channels)
	FilterH  int
	FilterW  int

	Activation Function

	// WeightInit and BiasInit default to Xavier and zero.
	WeightInit Initializer
	BiasInit   Initializer
}

// NewConvLayer builds a convolutional layer and fills its parameters with
// the configured initializer strategies. A filter larger than the input is
// a configuration precondition failure and aborts assembly.
func NewConvLayer[B tensor.Backend](cfg ConvConfig, backend B) (*ConvLayer[B], error) {
	if cfg.Channels <= 0 || cfg.Height <= 0 || cfg.Width <= 0 {
		return nil, fmt.Errorf("conv: invalid input shape %dx%dx%d", cfg.Channels, cfg.Height, cfg.Width)
	}
	if cfg.Filters <= 0 || cfg.FilterH <= 0 || cfg.FilterW <= 0 {
		return nil, fmt.Errorf("conv: invalid filter shape %dx%dx%d", cfg.Filters, cfg.FilterH, cfg.FilterW)
	}
	if cfg.FilterH > cfg.Height || cfg.FilterW > cfg.Width {
		return nil, fmt.Errorf("conv: filter %dx%d exceeds input %dx%d", cfg.FilterH, cfg.FilterW, cfg.Height, cfg.Width)
	}

	if cfg.WeightInit == nil {
		cfg.WeightInit = InitXavier
	}
	if cfg.BiasInit == nil {
		cfg.BiasInit = InitZero
	}

	c := &ConvLayer[B]{
		channels:   cfg.Channels,
		height:     cfg.Height,
		width:      cfg.Width,
		filters:    cfg.Filters,
		filterH:    cfg.FilterH,
		filterW:    cfg.FilterW,
		outH:       cfg.Height - cfg.FilterH + 1,
		outW:       cfg.Width - cfg.FilterW + 1,
		activation: cfg.Activation,
		backend:    backend,
	}

	c.weights = tensor.Zeros[float32](tensor.Shape{c.filters, c.channels, c.filterH, c.filterW}, backend)
	c.biases = tensor.Zeros[float32](tensor.Shape{c.filters}, backend)
	cfg.WeightInit(c.weights.Raw(), c.InputSize(), c.OutputSize())
	cfg.BiasInit(c.biases.Raw(), c.InputSize(), c.OutputSize())

	return c, nil
}

// InputSize returns the flat size of one input sample.
func (c *ConvLayer[B]) InputSize() int {
	return c.channels * c.height * c.width
}

// OutputSize returns the flat size of one output sample.
func (c *ConvLayer[B]) OutputSize() int {
	return c.filters * c.outH * c.outW
}

// ParameterCount returns the number of trainable parameters.
func (c *ConvLayer[B]) ParameterCount() int {
	return c.filters * c.filterH * c.filterW
}

// Weights returns the filter bank [Filters, Channels, FilterH, FilterW].
func (c *ConvLayer[B]) Weights() *tensor.Tensor[float32, B] {
	return c.weights
}

// Biases returns the per-filter biases [Filters].
func (c *ConvLayer[B]) Biases() *tensor.Tensor[float32, B] {
	return c.biases
}

// Activation returns the layer's activation function tag.
func (c *ConvLayer[B]) Activation() Function {
	return c.activation
}

// ShortString summarizes the layer for logging.
func (c *ConvLayer[B]) ShortString() string {
	return fmt.Sprintf("Conv: %dx%dx%d -> (%dx%dx%d) -> %s -> %dx%dx%d",
		c.channels, c.height, c.width,
		c.filters, c.filterH, c.filterW,
		c.activation,
		c.filters, c.outH, c.outW)
}

// OutputShapeOf resolves the per-sample output shape. The input must match
// the layer's configured sample shape, either as [C, H, W] or flattened.
func (c *ConvLayer[B]) OutputShapeOf(inSample tensor.Shape) (tensor.Shape, error) {
	want := tensor.Shape{c.channels, c.height, c.width}
	if !inSample.Equal(want) && inSample.NumElements() != c.InputSize() {
		return nil, fmt.Errorf("conv: sample shape %v incompatible with %v", inSample, want)
	}
	return tensor.Shape{c.filters, c.outH, c.outW}, nil
}

// NewContext builds the training scratch state for a batch.
func (c *ConvLayer[B]) NewContext(batchSize int, inSample tensor.Shape) (*Context, error) {
	if _, err := c.OutputShapeOf(inSample); err != nil {
		return nil, err
	}
	device := c.backend.Device()
	ctx := newContext(batchSize,
		tensor.Shape{c.channels, c.height, c.width},
		tensor.Shape{c.filters, c.outH, c.outW},
		device)
	wShape := tensor.Shape{c.filters, c.channels, c.filterH, c.filterW}
	bShape := tensor.Shape{c.filters}
	ctx.WGrad = tensor.MustRaw(wShape, tensor.Float32, device)
	ctx.BGrad = tensor.MustRaw(bShape, tensor.Float32, device)
	ctx.WInc = tensor.MustRaw(wShape, tensor.Float32, device)
	ctx.BInc = tensor.MustRaw(bShape, tensor.Float32, device)
	return ctx, nil
}

// ActivateHidden computes the forward activation of a single sample into
// caller-provided storage.
//
// input is [Channels, Height, Width]; output is [Filters, OutH, OutW].
func (c *ConvLayer[B]) ActivateHidden(output, input *tensor.RawTensor) {
	if input.NumElements() != c.InputSize() {
		panic(fmt.Sprintf("conv: input has %d elements, want %d", input.NumElements(), c.InputSize()))
	}
	if output.NumElements() != c.OutputSize() {
		panic(fmt.Sprintf("conv: output has %d elements, want %d", output.NumElements(), c.OutputSize()))
	}

	batched := c.backend.Reshape(input, tensor.Shape{1, c.channels, c.height, c.width})
	raw := c.backend.CorrelateForward(batched, c.weights.Raw(), 1, 0)
	raw = c.backend.BiasAdd4D(raw, c.biases.Raw())
	output.CopyFrom(c.activation.Apply(c.backend, raw))
}

// BatchActivateHidden computes the forward activation of a batch into
// caller-provided storage.
//
// input is either a pre-shaped [N, Channels, Height, Width] batch or a
// flattened [N, Channels*Height*Width] one; flattened batches are reshaped
// before correlation. output is [N, Filters, OutH, OutW].
func (c *ConvLayer[B]) BatchActivateHidden(output, input *tensor.RawTensor) {
	in := c.batchInput(input)
	n := in.Shape()[0]
	if output.NumElements() != n*c.OutputSize() {
		panic(fmt.Sprintf("conv: batch output has %d elements, want %d", output.NumElements(), n*c.OutputSize()))
	}

	raw := c.backend.CorrelateForward(in, c.weights.Raw(), 1, 0)
	raw = c.backend.BiasAdd4D(raw, c.biases.Raw())
	output.CopyFrom(c.activation.Apply(c.backend, raw))
}

// BatchActivate is the allocating convenience form of BatchActivateHidden.
func (c *ConvLayer[B]) BatchActivate(input *tensor.RawTensor) *tensor.RawTensor {
	in := c.batchInput(input)
	n := in.Shape()[0]
	output := tensor.MustRaw(tensor.Shape{n, c.filters, c.outH, c.outW}, input.DType(), c.backend.Device())
	c.BatchActivateHidden(output, in)
	return output
}

// batchInput validates a batch input, reshaping flattened 2D batches.
func (c *ConvLayer[B]) batchInput(input *tensor.RawTensor) *tensor.RawTensor {
	shape := input.Shape()
	switch len(shape) {
	case 4:
		if shape[1] != c.channels || shape[2] != c.height || shape[3] != c.width {
			panic(fmt.Sprintf("conv: batch input %v does not match sample %dx%dx%d", shape, c.channels, c.height, c.width))
		}
		return input
	case 2:
		if shape[1] != c.InputSize() {
			panic(fmt.Sprintf("conv: flattened batch width %d, want %d", shape[1], c.InputSize()))
		}
		return c.backend.Reshape(input, tensor.Shape{shape[0], c.channels, c.height, c.width})
	default:
		panic(fmt.Sprintf("conv: batch input must be 2D or 4D, got %v", shape))
	}
}

// AdaptErrors couples the activation nonlinearity into the error signal:
// ctx.Errors *= f'(ctx.Output) elementwise. Skipped entirely for identity
// activations, leaving ctx.Errors untouched.
func (c *ConvLayer[B]) AdaptErrors(ctx *Context) {
	if c.activation == Identity {
		return
	}
	deriv := c.activation.DerivativeAt(c.backend, ctx.Output)
	ctx.Errors.CopyFrom(c.backend.Mul(deriv, ctx.Errors))
}

// BackwardBatch writes the error signal for the previous layer into output:
// the transposed correlation of ctx.Errors with the filter bank.
func (c *ConvLayer[B]) BackwardBatch(output *tensor.RawTensor, ctx *Context) {
	output.CopyFrom(c.backend.CorrelateBackward(ctx.Errors, c.weights.Raw(), 1, 0))
}

// ComputeGradients overwrites the context's gradient accumulators for the
// current batch: the filter gradient from the stored input and errors, and
// the bias gradient as the per-filter sum of errors over batch and space.
func (c *ConvLayer[B]) ComputeGradients(ctx *Context) {
	ctx.WGrad.CopyFrom(c.backend.CorrelateBackwardFilter(ctx.Input, ctx.Errors, 1, 0))
	ctx.BGrad.CopyFrom(c.backend.BiasBatchSum4D(ctx.Errors))
}

// TrainableState exposes the raw weight and bias tensors for the optimizer.
func (c *ConvLayer[B]) TrainableState() (weights, biases *tensor.RawTensor) {
	return c.weights.Raw(), c.biases.Raw()
}

// Snapshot stores a copy of the current weights and biases so a speculative
// update (a learning-rate probe, for example) can be rolled back.
func (c *ConvLayer[B]) Snapshot() {
	c.bakWeights = c.weights.Raw().Clone()
	c.bakBiases = c.biases.Raw().Clone()
}

// Restore rolls weights and biases back to the last snapshot.
func (c *ConvLayer[B]) Restore() error {
	if c.bakWeights == nil {
		return errors.New("conv: restore without snapshot")
	}
	c.weights.Raw().CopyFrom(c.bakWeights)
	c.biases.Raw().CopyFrom(c.bakBiases)
	return nil
}

// DiscardSnapshot drops the stored snapshot, if any.
func (c *ConvLayer[B]) DiscardSnapshot() {
	c.bakWeights = nil
	c.bakBiases = nil
}

// DynInit populates dst, a layer whose shape was not known until assembly
// time, with this layer's shape constants and freshly initialized
// parameters.
func (c *ConvLayer[B]) DynInit(dst *ConvLayer[B]) error {
	fresh, err := NewConvLayer(ConvConfig{
		Channels:   c.channels,
		Height:     c.height,
		Width:      c.width,
		Filters:    c.filters,
		FilterH:    c.filterH,
		FilterW:    c.filterW,
		Activation: c.activation,
	}, c.backend)
	if err != nil {
		return err
	}
	*dst = *fresh
	return nil
}
