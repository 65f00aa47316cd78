package nn

import "github.com/strata-ml/strata/internal/tensor"

// Layer is the closed capability contract every layer kind implements.
// Dispatch goes through this interface; there are no side trait tables.
//
// Ordering contract: within one layer, BatchActivateHidden must complete
// for the full batch before any backward method runs (AdaptErrors and
// ComputeGradients read the Input/Output the forward pass stored). Across
// layers the network drives forward front-to-back and backward
// back-to-front; a layer's backward must not start until the following
// layer has written its propagated error into this layer's Errors slot.
type Layer[B tensor.Backend] interface {
	// BatchActivateHidden computes the forward activation of a full batch
	// into caller-provided storage.
	BatchActivateHidden(output, input *tensor.RawTensor)

	// AdaptErrors applies the activation-derivative chain-rule correction
	// to ctx.Errors in place. A no-op for identity activations and for
	// layers without a nonlinearity.
	AdaptErrors(ctx *Context)

	// BackwardBatch writes the error signal for the previous layer into
	// output, consuming ctx.Errors.
	BackwardBatch(output *tensor.RawTensor, ctx *Context)

	// ComputeGradients overwrites ctx.WGrad and ctx.BGrad from ctx.Input
	// and ctx.Errors. A no-op for layers without trainable parameters.
	ComputeGradients(ctx *Context)

	// NewContext builds the per-batch scratch state for this layer given
	// the per-sample input shape resolved at assembly time.
	NewContext(batchSize int, inSample tensor.Shape) (*Context, error)

	// OutputShapeOf resolves the per-sample output shape for a given
	// per-sample input shape, or an error if the layer cannot accept it.
	OutputShapeOf(inSample tensor.Shape) (tensor.Shape, error)

	// ShortString summarizes shape and activation for logging.
	ShortString() string
}

// Trainable is implemented by layers that own weights the optimizer
// updates between batches.
type Trainable interface {
	// TrainableState exposes the weight and bias tensors paired with the
	// context that holds their gradients and momentum.
	TrainableState() (weights, biases *tensor.RawTensor)
}
