// Package nn implements the layer core: the convolutional layer, the local
// contrast normalization transform, per-layer training contexts and network
// assembly.
package nn

import (
	"fmt"

	"github.com/strata-ml/strata/internal/tensor"
)

// Function identifies an elementwise activation function. Identity is
// detectable so that error adaptation can skip derivative work entirely.
type Function int

// Supported activation functions.
const (
	Identity Function = iota
	Sigmoid
	ReLU
	Tanh
)

// String returns the activation name as it appears in layer descriptions.
func (f Function) String() string {
	switch f {
	case Identity:
		return "identity"
	case Sigmoid:
		return "sigmoid"
	case ReLU:
		return "relu"
	case Tanh:
		return "tanh"
	default:
		return "unknown"
	}
}

// Apply computes the activation elementwise. Identity returns its input
// unchanged without copying.
func (f Function) Apply(b tensor.Backend, x *tensor.RawTensor) *tensor.RawTensor {
	switch f {
	case Identity:
		return x
	case Sigmoid:
		return b.Sigmoid(x)
	case ReLU:
		return b.ReLU(x)
	case Tanh:
		return b.Tanh(x)
	default:
		panic(fmt.Sprintf("activation: unknown function %d", int(f)))
	}
}

// DerivativeAt computes the activation derivative evaluated at the stored
// forward output y. Callers must skip the call for Identity; the chain-rule
// correction is a no-op there and the layer contract treats that as an
// explicit fast path.
func (f Function) DerivativeAt(b tensor.Backend, y *tensor.RawTensor) *tensor.RawTensor {
	switch f {
	case Sigmoid:
		return b.SigmoidDerivOutput(y)
	case ReLU:
		return b.ReLUDerivOutput(y)
	case Tanh:
		return b.TanhDerivOutput(y)
	case Identity:
		panic("activation: derivative requested for identity; callers must skip")
	default:
		panic(fmt.Sprintf("activation: unknown function %d", int(f)))
	}
}
