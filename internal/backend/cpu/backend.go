// Package cpu implements the CPU backend: pure Go elementwise operations and
// BLAS-backed correlation kernels.
package cpu

import (
	"fmt"

	"github.com/strata-ml/strata/internal/parallel"
	"github.com/strata-ml/strata/internal/tensor"
)

// CPUBackend implements tensor operations on the CPU.
type CPUBackend struct {
	device tensor.Device
	par    parallel.Config
}

// New creates a new CPU backend with default batch parallelism.
func New() *CPUBackend {
	return &CPUBackend{
		device: tensor.CPU,
		par:    parallel.DefaultConfig(),
	}
}

// NewSequential creates a CPU backend with parallelism disabled, useful for
// deterministic profiling and small test workloads.
func NewSequential() *CPUBackend {
	return &CPUBackend{
		device: tensor.CPU,
		par:    parallel.Config{},
	}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}

// binary runs an elementwise binary op over same-shaped tensors, with
// float32/float64 dispatch.
func (cpu *CPUBackend) binary(name string, a, b *tensor.RawTensor, f32 func(x, y float32) float32, f64 func(x, y float64) float64) *tensor.RawTensor {
	if !a.Shape().Equal(b.Shape()) {
		panic(fmt.Sprintf("%s: shape mismatch: %v vs %v", name, a.Shape(), b.Shape()))
	}
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("%s: dtype mismatch: %s vs %s", name, a.DType(), b.DType()))
	}

	result := tensor.MustRaw(a.Shape(), a.DType(), cpu.device)
	switch a.DType() {
	case tensor.Float32:
		av, bv, rv := a.AsFloat32(), b.AsFloat32(), result.AsFloat32()
		for i := range rv {
			rv[i] = f32(av[i], bv[i])
		}
	case tensor.Float64:
		av, bv, rv := a.AsFloat64(), b.AsFloat64(), result.AsFloat64()
		for i := range rv {
			rv[i] = f64(av[i], bv[i])
		}
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", name, a.DType()))
	}
	return result
}

// Add performs elementwise addition.
func (cpu *CPUBackend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary("add", a, b,
		func(x, y float32) float32 { return x + y },
		func(x, y float64) float64 { return x + y })
}

// Sub performs elementwise subtraction.
func (cpu *CPUBackend) Sub(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary("sub", a, b,
		func(x, y float32) float32 { return x - y },
		func(x, y float64) float64 { return x - y })
}

// Mul performs elementwise multiplication.
func (cpu *CPUBackend) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary("mul", a, b,
		func(x, y float32) float32 { return x * y },
		func(x, y float64) float64 { return x * y })
}

// MulScalar multiplies every element by a scalar.
func (cpu *CPUBackend) MulScalar(x *tensor.RawTensor, scalar float64) *tensor.RawTensor {
	return cpu.unary("mul_scalar", x,
		func(v float32) float32 { return v * float32(scalar) },
		func(v float64) float64 { return v * scalar })
}

// AddScalar adds a scalar to every element.
func (cpu *CPUBackend) AddScalar(x *tensor.RawTensor, scalar float64) *tensor.RawTensor {
	return cpu.unary("add_scalar", x,
		func(v float32) float32 { return v + float32(scalar) },
		func(v float64) float64 { return v + scalar })
}

// Reshape returns a tensor with the same elements and a new shape.
func (cpu *CPUBackend) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	if err := newShape.Validate(); err != nil {
		panic(fmt.Sprintf("reshape: invalid shape: %v", err))
	}
	return t.WithShape(newShape)
}
