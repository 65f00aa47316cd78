package nn

import (
	"fmt"

	"github.com/strata-ml/strata/internal/tensor"
)

// Context is the per-layer, per-network scratch state for one batch of
// training. It is created by the owning layer for a fixed batch size and
// reused across batches; changing the batch size requires a new context.
//
// Lifecycle per batch: the forward pass fills Input and Output, the
// backward pass overwrites Errors in place and rewrites WGrad/BGrad from
// scratch. WInc/BInc are optimizer momentum state: zero at construction and
// persistent across batches. Transform layers carry nil gradient and
// momentum tensors.
type Context struct {
	// Batch tensors. Input is a copy of the layer's forward input, kept
	// because the weight gradient depends on it.
	Input  *tensor.RawTensor
	Output *tensor.RawTensor
	Errors *tensor.RawTensor

	// Gradient accumulators, overwritten each batch.
	WGrad *tensor.RawTensor
	BGrad *tensor.RawTensor

	// Momentum increments, owned by the optimizer across batches.
	WInc *tensor.RawTensor
	BInc *tensor.RawTensor

	batchSize int
}

// BatchSize returns the batch dimension this context was built for.
func (c *Context) BatchSize() int {
	return c.batchSize
}

// newContext allocates the batch tensors shared by all layer kinds.
// inSample and outSample are per-sample shapes; the batch dimension is
// prepended.
func newContext(batchSize int, inSample, outSample tensor.Shape, device tensor.Device) *Context {
	if batchSize <= 0 {
		panic(fmt.Sprintf("context: invalid batch size %d", batchSize))
	}
	inShape := append(tensor.Shape{batchSize}, inSample...)
	outShape := append(tensor.Shape{batchSize}, outSample...)
	return &Context{
		Input:     tensor.MustRaw(inShape, tensor.Float32, device),
		Output:    tensor.MustRaw(outShape, tensor.Float32, device),
		Errors:    tensor.MustRaw(outShape, tensor.Float32, device),
		batchSize: batchSize,
	}
}
