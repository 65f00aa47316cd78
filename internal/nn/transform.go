package nn

import "github.com/strata-ml/strata/internal/tensor"

// transformBase provides the backward-pass contract shared by parameterless
// transform layers: the error signal passes through unchanged and there is
// nothing to differentiate or update.
//
// Layers embedding transformBase only implement the forward methods and
// shape resolution.
type transformBase struct{}

// AdaptErrors is a no-op: transforms carry no activation nonlinearity.
func (transformBase) AdaptErrors(ctx *Context) {}

// BackwardBatch copies the incoming error signal straight through.
func (transformBase) BackwardBatch(output *tensor.RawTensor, ctx *Context) {
	output.CopyFrom(ctx.Errors)
}

// ComputeGradients is a no-op: transforms have no trainable parameters.
func (transformBase) ComputeGradients(ctx *Context) {}
