package cpu

import (
	"fmt"
	"math"

	"github.com/strata-ml/strata/internal/tensor"
)

// unary runs an elementwise unary op with float32/float64 dispatch.
func (cpu *CPUBackend) unary(name string, x *tensor.RawTensor, f32 func(float32) float32, f64 func(float64) float64) *tensor.RawTensor {
	result := tensor.MustRaw(x.Shape(), x.DType(), cpu.device)
	switch x.DType() {
	case tensor.Float32:
		src, dst := x.AsFloat32(), result.AsFloat32()
		for i := range dst {
			dst[i] = f32(src[i])
		}
	case tensor.Float64:
		src, dst := x.AsFloat64(), result.AsFloat64()
		for i := range dst {
			dst[i] = f64(src[i])
		}
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", name, x.DType()))
	}
	return result
}

// Sigmoid applies 1 / (1 + exp(-x)) elementwise.
func (cpu *CPUBackend) Sigmoid(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("sigmoid", x,
		func(v float32) float32 { return float32(1.0 / (1.0 + math.Exp(float64(-v)))) },
		func(v float64) float64 { return 1.0 / (1.0 + math.Exp(-v)) })
}

// ReLU applies max(0, x) elementwise.
func (cpu *CPUBackend) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("relu", x,
		func(v float32) float32 {
			if v > 0 {
				return v
			}
			return 0
		},
		func(v float64) float64 {
			if v > 0 {
				return v
			}
			return 0
		})
}

// Tanh applies the hyperbolic tangent elementwise.
func (cpu *CPUBackend) Tanh(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("tanh", x,
		func(v float32) float32 { return float32(math.Tanh(float64(v))) },
		math.Tanh)
}

// SigmoidDerivOutput computes y*(1-y), the sigmoid derivative evaluated at
// the activation output y.
func (cpu *CPUBackend) SigmoidDerivOutput(y *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("sigmoid_deriv", y,
		func(v float32) float32 { return v * (1 - v) },
		func(v float64) float64 { return v * (1 - v) })
}

// ReLUDerivOutput computes the ReLU derivative evaluated at the activation
// output: 1 where the unit fired, 0 elsewhere.
func (cpu *CPUBackend) ReLUDerivOutput(y *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("relu_deriv", y,
		func(v float32) float32 {
			if v > 0 {
				return 1
			}
			return 0
		},
		func(v float64) float64 {
			if v > 0 {
				return 1
			}
			return 0
		})
}

// TanhDerivOutput computes 1-y², the tanh derivative evaluated at the
// activation output y.
func (cpu *CPUBackend) TanhDerivOutput(y *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("tanh_deriv", y,
		func(v float32) float32 { return 1 - v*v },
		func(v float64) float64 { return 1 - v*v })
}
