// Package cpu provides the pure Go CPU backend for layer math.
//
// The backend implements every tensor.Backend operation, including the
// correlation kernels, which run as im2col plus a BLAS matrix multiply
// with the batch loop spread over a worker pool.
package cpu

import (
	internalcpu "github.com/strata-ml/strata/internal/backend/cpu"
	"github.com/strata-ml/strata/tensor"
)

// Backend represents the CPU backend implementation.
type Backend = internalcpu.CPUBackend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates a new CPU backend.
//
// Example:
//
//	import (
//	    "github.com/strata-ml/strata/backend/cpu"
//	    "github.com/strata-ml/strata/tensor"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	}
func New() *Backend {
	return internalcpu.New()
}

// NewSequential creates a CPU backend with worker-pool parallelism
// disabled, for deterministic profiling and debugging.
func NewSequential() *Backend {
	return internalcpu.NewSequential()
}
