package nn

import (
	"fmt"
	"math"

	"github.com/strata-ml/strata/internal/parallel"
	"github.com/strata-ml/strata/internal/tensor"
)

// LCNLayer applies local contrast normalization: every element has the
// Gaussian-weighted mean of its KxK spatial neighborhood subtracted and is
// then divided by a neighborhood-derived scale. The output shape matches
// the input shape and the layer has no trainable parameters, so the
// backward pass is the plain transform pass-through.
//
// The KxK filter is recomputed from K, Mid and sigma on demand rather than
// cached; the layer itself holds only the three scalars.
type LCNLayer[B tensor.Backend] struct {
	transformBase

	k     int
	mid   int
	sigma float64

	backend B
	par     parallel.Config
}

// DefaultLCNSigma is the smoothing parameter used when none is given.
const DefaultLCNSigma = 2.0

// NewLCNLayer builds a local contrast normalization layer with kernel size
// k, which must be odd and greater than 1.
func NewLCNLayer[B tensor.Backend](k int, sigma float64, backend B) (*LCNLayer[B], error) {
	if k <= 1 {
		return nil, fmt.Errorf("lcn: kernel size %d must be greater than 1", k)
	}
	if k%2 == 0 {
		return nil, fmt.Errorf("lcn: kernel size %d must be odd", k)
	}
	if sigma <= 0 {
		sigma = DefaultLCNSigma
	}
	return &LCNLayer[B]{
		k:       k,
		mid:     k / 2,
		sigma:   sigma,
		backend: backend,
		par:     parallel.DefaultConfig(),
	}, nil
}

// K returns the kernel size.
func (l *LCNLayer[B]) K() int { return l.k }

// Mid returns the kernel half-width.
func (l *LCNLayer[B]) Mid() int { return l.mid }

// ShortString summarizes the layer for logging.
func (l *LCNLayer[B]) ShortString() string {
	return fmt.Sprintf("LCN: %dx%d", l.k, l.k)
}

// Filter builds the KxK Gaussian weighting kernel, normalized to sum to
// one, in row-major order.
func (l *LCNLayer[B]) Filter() []float64 {
	w := make([]float64, l.k*l.k)
	sum := 0.0
	for i := 0; i < l.k; i++ {
		for j := 0; j < l.k; j++ {
			di := float64(i - l.mid)
			dj := float64(j - l.mid)
			g := math.Exp(-(di*di + dj*dj) / (2 * l.sigma * l.sigma))
			w[i*l.k+j] = g
			sum += g
		}
	}
	for i := range w {
		w[i] /= sum
	}
	return w
}

// OutputShapeOf resolves the per-sample output shape, which is identical to
// the input shape. The sample must be [Channels, Height, Width].
func (l *LCNLayer[B]) OutputShapeOf(inSample tensor.Shape) (tensor.Shape, error) {
	if len(inSample) != 3 {
		return nil, fmt.Errorf("lcn: sample must be 3D [C, H, W], got %v", inSample)
	}
	return inSample.Clone(), nil
}

// NewContext builds the training scratch state for a batch. LCN contexts
// carry only the pass-through tensors; there are no gradient accumulators.
func (l *LCNLayer[B]) NewContext(batchSize int, inSample tensor.Shape) (*Context, error) {
	out, err := l.OutputShapeOf(inSample)
	if err != nil {
		return nil, err
	}
	return newContext(batchSize, inSample, out, l.backend.Device()), nil
}

// ActivateHidden normalizes a single [C, H, W] sample into output, which
// must have the same shape.
func (l *LCNLayer[B]) ActivateHidden(output, input *tensor.RawTensor) {
	shape := input.Shape()
	if len(shape) != 3 {
		panic(fmt.Sprintf("lcn: input must be 3D [C, H, W], got %v", shape))
	}
	if output.NumElements() != input.NumElements() {
		panic(fmt.Sprintf("lcn: output has %d elements, want %d", output.NumElements(), input.NumElements()))
	}
	w := l.Filter()
	switch input.DType() {
	case tensor.Float32:
		lcnSample(output.AsFloat32(), input.AsFloat32(), w, shape[0], shape[1], shape[2], l.k, l.mid)
	case tensor.Float64:
		lcnSample(output.AsFloat64(), input.AsFloat64(), w, shape[0], shape[1], shape[2], l.k, l.mid)
	default:
		panic(fmt.Sprintf("lcn: unsupported dtype %s", input.DType()))
	}
}

// BatchActivateHidden normalizes every sample of a [N, C, H, W] batch
// independently; samples never interact.
func (l *LCNLayer[B]) BatchActivateHidden(output, input *tensor.RawTensor) {
	shape := input.Shape()
	if len(shape) != 4 {
		panic(fmt.Sprintf("lcn: batch input must be 4D [N, C, H, W], got %v", shape))
	}
	if output.NumElements() != input.NumElements() {
		panic(fmt.Sprintf("lcn: batch output has %d elements, want %d", output.NumElements(), input.NumElements()))
	}
	n := shape[0]
	sample := tensor.Shape{shape[1], shape[2], shape[3]}
	size := sample.NumElements()
	w := l.Filter()

	switch input.DType() {
	case tensor.Float32:
		in, out := input.AsFloat32(), output.AsFloat32()
		parallel.For(n, l.par, func(b int) {
			lcnSample(out[b*size:(b+1)*size], in[b*size:(b+1)*size], w, sample[0], sample[1], sample[2], l.k, l.mid)
		})
	case tensor.Float64:
		in, out := input.AsFloat64(), output.AsFloat64()
		parallel.For(n, l.par, func(b int) {
			lcnSample(out[b*size:(b+1)*size], in[b*size:(b+1)*size], w, sample[0], sample[1], sample[2], l.k, l.mid)
		})
	default:
		panic(fmt.Sprintf("lcn: unsupported dtype %s", input.DType()))
	}
}

// clampIndex clips i into [0, n).
func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// lcnSample normalizes one [c, h, w] sample. Neighborhood indices past the
// image border are clamped to the nearest valid row or column, so border
// pixels reuse edge values instead of shrinking the window.
func lcnSample[T float32 | float64](out, in []T, w []float64, c, h, wd, k, mid int) {
	plane := h * wd
	v := make([]float64, plane)
	sigmas := make([]float64, plane)

	for ch := 0; ch < c; ch++ {
		x := in[ch*plane : (ch+1)*plane]
		y := out[ch*plane : (ch+1)*plane]

		// Subtract the weighted local mean.
		for j := 0; j < h; j++ {
			for kk := 0; kk < wd; kk++ {
				sum := 0.0
				for p := 0; p < k; p++ {
					j2 := clampIndex(j+p-mid, h)
					for q := 0; q < k; q++ {
						k2 := clampIndex(kk+q-mid, wd)
						sum += w[p*k+q] * float64(x[j2*wd+k2])
					}
				}
				v[j*wd+kk] = float64(x[j*wd+kk]) - sum
			}
		}

		// Weighted local standard deviation of the centered values.
		total := 0.0
		for j := 0; j < h; j++ {
			for kk := 0; kk < wd; kk++ {
				sum := 0.0
				for p := 0; p < k; p++ {
					j2 := clampIndex(j+p-mid, h)
					for q := 0; q < k; q++ {
						k2 := clampIndex(kk+q-mid, wd)
						d := v[j2*wd+k2]
						sum += w[p*k+q] * d * d
					}
				}
				s := math.Sqrt(sum)
				sigmas[j*wd+kk] = s
				total += s
			}
		}
		meanSigma := total / float64(plane)

		// Divide by the larger of the local and image-mean scales so flat
		// regions are not blown up by a near-zero local sigma.
		for i := 0; i < plane; i++ {
			div := sigmas[i]
			if meanSigma > div {
				div = meanSigma
			}
			if div == 0 {
				y[i] = 0
				continue
			}
			y[i] = T(v[i] / div)
		}
	}
}
