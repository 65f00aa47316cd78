package cpu

import (
	"fmt"

	"github.com/strata-ml/strata/internal/tensor"
)

// BiasAdd4D adds a per-filter bias to every spatial position of every sample:
// x [N, K, OH, OW] + bias [K] broadcast over batch and spatial dimensions.
func (cpu *CPUBackend) BiasAdd4D(x, bias *tensor.RawTensor) *tensor.RawTensor {
	n, k, oh, ow := dims4("bias_add_4d", "x", x)
	if len(bias.Shape()) != 1 || bias.Shape()[0] != k {
		panic(fmt.Sprintf("bias_add_4d: bias shape %v does not match %d filters", bias.Shape(), k))
	}

	result := tensor.MustRaw(x.Shape(), x.DType(), cpu.device)
	switch x.DType() {
	case tensor.Float32:
		biasAdd(result.AsFloat32(), x.AsFloat32(), bias.AsFloat32(), n, k, oh*ow)
	case tensor.Float64:
		biasAdd(result.AsFloat64(), x.AsFloat64(), bias.AsFloat64(), n, k, oh*ow)
	default:
		panic(fmt.Sprintf("bias_add_4d: unsupported dtype %s", x.DType()))
	}
	return result
}

func biasAdd[T float32 | float64](dst, src, bias []T, n, k, plane int) {
	for b := 0; b < n; b++ {
		for f := 0; f < k; f++ {
			off := (b*k + f) * plane
			bv := bias[f]
			for i := 0; i < plane; i++ {
				dst[off+i] = src[off+i] + bv
			}
		}
	}
}

// BiasBatchSum4D reduces x [N, K, OH, OW] to [K] by summing over the batch
// and both spatial dimensions. This is the bias gradient of a batch.
func (cpu *CPUBackend) BiasBatchSum4D(x *tensor.RawTensor) *tensor.RawTensor {
	n, k, oh, ow := dims4("bias_batch_sum_4d", "x", x)

	result := tensor.MustRaw(tensor.Shape{k}, x.DType(), cpu.device)
	switch x.DType() {
	case tensor.Float32:
		biasBatchSum(result.AsFloat32(), x.AsFloat32(), n, k, oh*ow)
	case tensor.Float64:
		biasBatchSum(result.AsFloat64(), x.AsFloat64(), n, k, oh*ow)
	default:
		panic(fmt.Sprintf("bias_batch_sum_4d: unsupported dtype %s", x.DType()))
	}
	return result
}

func biasBatchSum[T float32 | float64](dst, src []T, n, k, plane int) {
	for f := 0; f < k; f++ {
		var sum T
		for b := 0; b < n; b++ {
			off := (b*k + f) * plane
			for i := 0; i < plane; i++ {
				sum += src[off+i]
			}
		}
		dst[f] = sum
	}
}
