package nn

import (
	"math"
	"math/rand"

	"github.com/strata-ml/strata/internal/tensor"
)

// Initializer fills a freshly-allocated parameter tensor. inputSize and
// outputSize are the flat fan-in and fan-out of the owning layer; strategies
// are free to ignore them.
type Initializer func(t *tensor.RawTensor, inputSize, outputSize int)

// rng drives all initializers. math/rand so that runs are reproducible
// under SeedRNG.
var rng = rand.New(rand.NewSource(1)) //nolint:gosec // G404: seeded reproducibility wanted

// SeedRNG reseeds the initializer random source.
func SeedRNG(seed int64) {
	rng = rand.New(rand.NewSource(seed)) //nolint:gosec // G404: seeded reproducibility wanted
}

// fill writes f() into every element, dispatching on dtype.
func fill(t *tensor.RawTensor, f func() float64) {
	switch t.DType() {
	case tensor.Float32:
		data := t.AsFloat32()
		for i := range data {
			data[i] = float32(f())
		}
	case tensor.Float64:
		data := t.AsFloat64()
		for i := range data {
			data[i] = f()
		}
	default:
		panic("initializer: unsupported dtype " + t.DType().String())
	}
}

// InitZero fills the tensor with zeros, the usual bias strategy.
func InitZero(t *tensor.RawTensor, _, _ int) {
	t.Zero()
}

// InitXavier fills with the Glorot uniform distribution
// U(-sqrt(6/(fan_in+fan_out)), +sqrt(6/(fan_in+fan_out))).
func InitXavier(t *tensor.RawTensor, inputSize, outputSize int) {
	bound := math.Sqrt(6.0 / float64(inputSize+outputSize))
	fill(t, func() float64 { return (rng.Float64()*2.0 - 1.0) * bound })
}

// InitHe fills with N(0, sqrt(2/fan_in)), the common choice ahead of ReLU.
func InitHe(t *tensor.RawTensor, inputSize, _ int) {
	std := math.Sqrt(2.0 / float64(inputSize))
	fill(t, func() float64 { return rng.NormFloat64() * std })
}

// InitLeCun fills with N(0, 1/sqrt(fan_in)).
func InitLeCun(t *tensor.RawTensor, inputSize, _ int) {
	std := 1.0 / math.Sqrt(float64(inputSize))
	fill(t, func() float64 { return rng.NormFloat64() * std })
}

// InitGaussian returns an initializer drawing from N(0, std) regardless of
// layer size.
func InitGaussian(std float64) Initializer {
	return func(t *tensor.RawTensor, _, _ int) {
		fill(t, func() float64 { return rng.NormFloat64() * std })
	}
}
