package tensor

import "github.com/strata-ml/strata/internal/tensor"

// Backend defines the interface that all compute backends must implement.
// Backends handle the actual computation: elementwise math, the correlation
// kernels the convolutional layers are built on, bias broadcasts and the
// activation family.
//
// Implementations:
//   - backend/cpu: pure Go with BLAS-backed correlation
//   - backend/webgpu: cross-platform GPU compute via WebGPU
//
// Example:
//
//	import (
//	    "github.com/strata-ml/strata/backend/cpu"
//	    "github.com/strata-ml/strata/tensor"
//	)
//
//	backend := cpu.New()
//	x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
type Backend = tensor.Backend
