// Package webgpu provides the WebGPU backend for GPU-accelerated layer math.
//
// The backend runs elementwise ops, the activation family and the bias
// broadcast as WGSL compute shaders. The correlation kernels are not
// implemented on the GPU; convolutional training uses the CPU backend.
//
// Example:
//
//	import (
//	    "github.com/strata-ml/strata/backend/webgpu"
//	)
//
//	func main() {
//	    gpu, err := webgpu.New()
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer gpu.Release()
//	}
package webgpu

import (
	internalwebgpu "github.com/strata-ml/strata/internal/backend/webgpu"
	"github.com/strata-ml/strata/tensor"
)

// Backend represents the WebGPU backend implementation.
type Backend = internalwebgpu.Backend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates a new WebGPU backend.
//
// It initializes the WebGPU instance, adapter and device; call Release
// when done to free the GPU resources. Returns an error when no WebGPU
// runtime is available.
func New() (*Backend, error) {
	return internalwebgpu.New()
}

// IsAvailable reports whether WebGPU can be initialized on this system.
func IsAvailable() bool {
	return internalwebgpu.IsAvailable()
}
