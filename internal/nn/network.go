package nn

import (
	"fmt"
	"strings"

	"github.com/strata-ml/strata/internal/tensor"
)

// Network is an ordered stack of layers with one training context per
// layer. Sample shapes are propagated through the stack once, at assembly,
// so every incompatibility between adjacent layers is reported before any
// batch is processed.
type Network[B tensor.Backend] struct {
	backend   B
	layers    []Layer[B]
	contexts  []*Context
	batchSize int
	inSample  tensor.Shape
}

// NewNetwork assembles a network for a fixed batch size. inputSample is
// the per-sample shape fed to the first layer; each subsequent layer's
// input shape is the previous layer's resolved output shape.
func NewNetwork[B tensor.Backend](backend B, inputSample tensor.Shape, batchSize int, layers ...Layer[B]) (*Network[B], error) {
	if err := inputSample.Validate(); err != nil {
		return nil, fmt.Errorf("network: bad input sample: %w", err)
	}
	if batchSize <= 0 {
		return nil, fmt.Errorf("network: batch size %d must be positive", batchSize)
	}
	if len(layers) == 0 {
		return nil, fmt.Errorf("network: at least one layer required")
	}

	net := &Network[B]{
		backend:   backend,
		layers:    layers,
		contexts:  make([]*Context, len(layers)),
		batchSize: batchSize,
		inSample:  inputSample.Clone(),
	}

	sample := inputSample
	for i, layer := range layers {
		ctx, err := layer.NewContext(batchSize, sample)
		if err != nil {
			return nil, fmt.Errorf("network: layer %d (%s): %w", i, layer.ShortString(), err)
		}
		net.contexts[i] = ctx
		sample, err = layer.OutputShapeOf(sample)
		if err != nil {
			return nil, fmt.Errorf("network: layer %d (%s): %w", i, layer.ShortString(), err)
		}
	}
	return net, nil
}

// BatchSize returns the batch size the network was assembled for.
func (n *Network[B]) BatchSize() int { return n.batchSize }

// Layers returns the layer stack in forward order.
func (n *Network[B]) Layers() []Layer[B] { return n.layers }

// Context returns the training context of the layer at position i.
func (n *Network[B]) Context(i int) *Context { return n.contexts[i] }

// Output returns the batch output tensor of the last layer, valid after
// Forward and overwritten by the next Forward.
func (n *Network[B]) Output() *tensor.RawTensor {
	return n.contexts[len(n.contexts)-1].Output
}

// Forward runs one batch through the stack. Each context captures its
// layer's input and output for the subsequent backward pass.
func (n *Network[B]) Forward(batch *tensor.RawTensor) *tensor.RawTensor {
	want := n.batchSize * n.inSample.NumElements()
	if batch.NumElements() != want {
		panic(fmt.Sprintf("network: batch has %d elements, want %d", batch.NumElements(), want))
	}

	cur := batch
	for i, layer := range n.layers {
		ctx := n.contexts[i]
		ctx.Input.CopyFrom(cur)
		layer.BatchActivateHidden(ctx.Output, ctx.Input)
		cur = ctx.Output
	}
	return cur
}

// Backward propagates an output-layer error signal down the stack and
// computes every layer's batch gradients. errors must match the last
// layer's batch output shape.
func (n *Network[B]) Backward(errors *tensor.RawTensor) {
	last := len(n.layers) - 1
	n.contexts[last].Errors.CopyFrom(errors)

	for i := last; i >= 0; i-- {
		layer := n.layers[i]
		ctx := n.contexts[i]
		layer.AdaptErrors(ctx)
		if i > 0 {
			layer.BackwardBatch(n.contexts[i-1].Errors, ctx)
		}
		layer.ComputeGradients(ctx)
	}
}

// Describe returns a one-line-per-layer summary of the stack.
func (n *Network[B]) Describe() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Network [%s] batch=%d input=%v\n", n.backend.Name(), n.batchSize, n.inSample)
	for i, layer := range n.layers {
		fmt.Fprintf(&sb, "  %d: %s\n", i, layer.ShortString())
	}
	return sb.String()
}
