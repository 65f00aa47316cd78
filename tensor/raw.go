package tensor

import (
	"github.com/strata-ml/strata/internal/tensor"
)

// RawTensor is the low-level tensor representation: a byte buffer plus
// shape, stride, dtype and device metadata.
//
// RawTensor provides:
//   - Shape and type information via Shape(), DType(), Device()
//   - Type-safe data access via AsFloat32() and AsFloat64()
//   - Deep copies via Clone() and in-place copies via CopyFrom()
//
// Most users should use the high-level Tensor[T, B] type instead.
type RawTensor = tensor.RawTensor
