package webgpu

import (
	"github.com/strata-ml/strata/internal/tensor"
)

// Add performs element-wise addition on GPU.
func (b *Backend) Add(a, other *tensor.RawTensor) *tensor.RawTensor {
	result, err := b.runBinaryOp(a, other, "add", addShader)
	if err != nil {
		panic("webgpu: Add: " + err.Error())
	}
	return result
}

// Sub performs element-wise subtraction on GPU.
func (b *Backend) Sub(a, other *tensor.RawTensor) *tensor.RawTensor {
	result, err := b.runBinaryOp(a, other, "sub", subShader)
	if err != nil {
		panic("webgpu: Sub: " + err.Error())
	}
	return result
}

// Mul performs element-wise multiplication on GPU.
func (b *Backend) Mul(a, other *tensor.RawTensor) *tensor.RawTensor {
	result, err := b.runBinaryOp(a, other, "mul", mulShader)
	if err != nil {
		panic("webgpu: Mul: " + err.Error())
	}
	return result
}

// MulScalar multiplies every element by scalar on GPU.
func (b *Backend) MulScalar(x *tensor.RawTensor, scalar float64) *tensor.RawTensor {
	result, err := b.runScalarOp(x, float32(scalar), "mul_scalar", mulScalarShader)
	if err != nil {
		panic("webgpu: MulScalar: " + err.Error())
	}
	return result
}

// AddScalar adds scalar to every element on GPU.
func (b *Backend) AddScalar(x *tensor.RawTensor, scalar float64) *tensor.RawTensor {
	result, err := b.runScalarOp(x, float32(scalar), "add_scalar", addScalarShader)
	if err != nil {
		panic("webgpu: AddScalar: " + err.Error())
	}
	return result
}

// Reshape returns a view of t with a new shape. Pure metadata, no GPU work.
func (b *Backend) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	return t.WithShape(newShape)
}

// Sigmoid applies the logistic function elementwise on GPU.
func (b *Backend) Sigmoid(x *tensor.RawTensor) *tensor.RawTensor {
	result, err := b.runUnaryOp(x, "sigmoid", sigmoidShader)
	if err != nil {
		panic("webgpu: Sigmoid: " + err.Error())
	}
	return result
}

// ReLU applies max(x, 0) elementwise on GPU.
func (b *Backend) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	result, err := b.runUnaryOp(x, "relu", reluShader)
	if err != nil {
		panic("webgpu: ReLU: " + err.Error())
	}
	return result
}

// Tanh applies the hyperbolic tangent elementwise on GPU.
func (b *Backend) Tanh(x *tensor.RawTensor) *tensor.RawTensor {
	result, err := b.runUnaryOp(x, "tanh", tanhShader)
	if err != nil {
		panic("webgpu: Tanh: " + err.Error())
	}
	return result
}

// SigmoidDerivOutput computes y*(1-y) from the stored forward output.
func (b *Backend) SigmoidDerivOutput(y *tensor.RawTensor) *tensor.RawTensor {
	result, err := b.runUnaryOp(y, "sigmoid_deriv_output", sigmoidDerivOutputShader)
	if err != nil {
		panic("webgpu: SigmoidDerivOutput: " + err.Error())
	}
	return result
}

// ReLUDerivOutput computes the ReLU derivative from the stored output.
func (b *Backend) ReLUDerivOutput(y *tensor.RawTensor) *tensor.RawTensor {
	result, err := b.runUnaryOp(y, "relu_deriv_output", reluDerivOutputShader)
	if err != nil {
		panic("webgpu: ReLUDerivOutput: " + err.Error())
	}
	return result
}

// TanhDerivOutput computes 1-y*y from the stored forward output.
func (b *Backend) TanhDerivOutput(y *tensor.RawTensor) *tensor.RawTensor {
	result, err := b.runUnaryOp(y, "tanh_deriv_output", tanhDerivOutputShader)
	if err != nil {
		panic("webgpu: TanhDerivOutput: " + err.Error())
	}
	return result
}

// BiasAdd4D broadcasts bias[k] over every spatial position of channel k.
func (b *Backend) BiasAdd4D(x, bias *tensor.RawTensor) *tensor.RawTensor {
	result, err := b.runBiasAdd(x, bias)
	if err != nil {
		panic("webgpu: BiasAdd4D: " + err.Error())
	}
	return result
}

// CorrelateForward is not implemented on the WebGPU backend.
// Convolutional networks run on the CPU backend.
//
//nolint:revive // Parameters unused in stub implementation.
func (b *Backend) CorrelateForward(input, weights *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	panic("webgpu: CorrelateForward not implemented")
}

// CorrelateBackward is not implemented on the WebGPU backend.
//
//nolint:revive // Parameters unused in stub implementation.
func (b *Backend) CorrelateBackward(errors, weights *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	panic("webgpu: CorrelateBackward not implemented")
}

// CorrelateBackwardFilter is not implemented on the WebGPU backend.
//
//nolint:revive // Parameters unused in stub implementation.
func (b *Backend) CorrelateBackwardFilter(input, errors *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	panic("webgpu: CorrelateBackwardFilter not implemented")
}

// BiasBatchSum4D is not implemented on the WebGPU backend.
//
//nolint:revive // Parameters unused in stub implementation.
func (b *Backend) BiasBatchSum4D(x *tensor.RawTensor) *tensor.RawTensor {
	panic("webgpu: BiasBatchSum4D not implemented")
}

var _ tensor.Backend = (*Backend)(nil)
