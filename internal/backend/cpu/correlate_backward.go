package cpu

import (
	"fmt"

	"github.com/strata-ml/strata/internal/parallel"
	"github.com/strata-ml/strata/internal/tensor"
)

// CorrelateBackward computes the error signal for the previous layer: the
// transposed (full) correlation of the output errors with the filter bank,
// summed over filters.
//
// Errors shape:  [N, K, OH, OW]
// Weights shape: [K, C, FH, FW]
// Result shape:  [N, C, H, W] with H = (OH-1)*stride + FH - 2*padding.
func (cpu *CPUBackend) CorrelateBackward(errors, weights *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	n, k, oh, ow := dims4("correlate_backward", "errors", errors)
	kw2, c, fh, fw := dims4("correlate_backward", "weights", weights)
	if k != kw2 {
		panic(fmt.Sprintf("correlate_backward: error filters %d != weight filters %d", k, kw2))
	}

	h := (oh-1)*stride + fh - 2*padding
	w := (ow-1)*stride + fw - 2*padding
	result := tensor.MustRaw(tensor.Shape{n, c, h, w}, errors.DType(), cpu.device)

	switch errors.DType() {
	case tensor.Float32:
		propagate(result.AsFloat32(), errors.AsFloat32(), weights.AsFloat32(), cpu.par, n, c, h, w, k, fh, fw, oh, ow, stride, padding)
	case tensor.Float64:
		propagate(result.AsFloat64(), errors.AsFloat64(), weights.AsFloat64(), cpu.par, n, c, h, w, k, fh, fw, oh, ow, stride, padding)
	default:
		panic(fmt.Sprintf("correlate_backward: unsupported dtype %s", errors.DType()))
	}
	return result
}

func propagate[T float32 | float64](grad, errs, wts []T, par parallel.Config, n, c, h, w, k, fh, fw, oh, ow, stride, padding int) {
	if stride == 1 && padding == 0 {
		// Valid-mode fast path: every input position gathers from the
		// output errors directly, no bounds bookkeeping on writes.
		parallel.For(n, par, func(b int) {
			propagateGather(grad, errs, wts, b, c, h, w, k, fh, fw, oh, ow)
		})
		return
	}

	// General case: scatter each output error back across the input
	// positions it was computed from. Samples stay disjoint, so the batch
	// dimension still parallelizes.
	parallel.For(n, par, func(b int) {
		propagateScatter(grad, errs, wts, b, c, h, w, k, fh, fw, oh, ow, stride, padding)
	})
}

// propagateGather computes sample b of the propagated error with stride 1
// and no padding: grad[c,h,w] = Σ_k Σ_{kh,kw} err[k, h-kh, w-kw] * wt[k,c,kh,kw].
func propagateGather[T float32 | float64](grad, errs, wts []T, b, c, h, w, k, fh, fw, oh, ow int) {
	gradSample := grad[b*c*h*w : (b+1)*c*h*w]
	errSample := errs[b*k*oh*ow : (b+1)*k*oh*ow]

	for ch := 0; ch < c; ch++ {
		gradPlane := gradSample[ch*h*w : (ch+1)*h*w]
		for hp := 0; hp < h; hp++ {
			for wp := 0; wp < w; wp++ {
				var sum T
				for f := 0; f < k; f++ {
					errPlane := errSample[f*oh*ow : (f+1)*oh*ow]
					wtPlane := wts[(f*c+ch)*fh*fw : (f*c+ch+1)*fh*fw]
					for kh := 0; kh < fh; kh++ {
						outH := hp - kh
						if outH < 0 || outH >= oh {
							continue
						}
						for kw := 0; kw < fw; kw++ {
							outW := wp - kw
							if outW < 0 || outW >= ow {
								continue
							}
							sum += errPlane[outH*ow+outW] * wtPlane[kh*fw+kw]
						}
					}
				}
				gradPlane[hp*w+wp] = sum
			}
		}
	}
}

// propagateScatter accumulates sample b of the propagated error for
// arbitrary stride and padding.
func propagateScatter[T float32 | float64](grad, errs, wts []T, b, c, h, w, k, fh, fw, oh, ow, stride, padding int) {
	gradSample := grad[b*c*h*w : (b+1)*c*h*w]
	errSample := errs[b*k*oh*ow : (b+1)*k*oh*ow]

	for f := 0; f < k; f++ {
		errPlane := errSample[f*oh*ow : (f+1)*oh*ow]
		for outH := 0; outH < oh; outH++ {
			for outW := 0; outW < ow; outW++ {
				e := errPlane[outH*ow+outW]
				if e == 0 {
					continue
				}
				for ch := 0; ch < c; ch++ {
					gradPlane := gradSample[ch*h*w : (ch+1)*h*w]
					wtPlane := wts[(f*c+ch)*fh*fw : (f*c+ch+1)*fh*fw]
					for kh := 0; kh < fh; kh++ {
						hp := outH*stride - padding + kh
						if hp < 0 || hp >= h {
							continue
						}
						for kw := 0; kw < fw; kw++ {
							wp := outW*stride - padding + kw
							if wp < 0 || wp >= w {
								continue
							}
							gradPlane[hp*w+wp] += e * wtPlane[kh*fw+kw]
						}
					}
				}
			}
		}
	}
}

// CorrelateBackwardFilter computes the filter gradient: the correlation of
// the stored forward input with the output errors, summed over the batch.
//
// Input shape:  [N, C, H, W]
// Errors shape: [N, K, OH, OW]
// Result shape: [K, C, FH, FW] with FH = H - (OH-1)*stride + 2*padding.
//
// The result is fully overwritten on every call; gradients never accumulate
// across batches here.
func (cpu *CPUBackend) CorrelateBackwardFilter(input, errors *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	n, c, h, w := dims4("correlate_backward_filter", "input", input)
	ne, k, oh, ow := dims4("correlate_backward_filter", "errors", errors)
	if n != ne {
		panic(fmt.Sprintf("correlate_backward_filter: batch mismatch: %d vs %d", n, ne))
	}

	fh := h - (oh-1)*stride + 2*padding
	fw := w - (ow-1)*stride + 2*padding
	if fh <= 0 || fw <= 0 {
		panic(fmt.Sprintf("correlate_backward_filter: inconsistent shapes %v vs %v", input.Shape(), errors.Shape()))
	}
	result := tensor.MustRaw(tensor.Shape{k, c, fh, fw}, input.DType(), cpu.device)

	switch input.DType() {
	case tensor.Float32:
		filterGrad(result.AsFloat32(), input.AsFloat32(), errors.AsFloat32(), cpu.par, n, c, h, w, k, fh, fw, oh, ow, stride, padding)
	case tensor.Float64:
		filterGrad(result.AsFloat64(), input.AsFloat64(), errors.AsFloat64(), cpu.par, n, c, h, w, k, fh, fw, oh, ow, stride, padding)
	default:
		panic(fmt.Sprintf("correlate_backward_filter: unsupported dtype %s", input.DType()))
	}
	return result
}

func filterGrad[T float32 | float64](wgrad, in, errs []T, par parallel.Config, n, c, h, w, k, fh, fw, oh, ow, stride, padding int) {
	// Filters own disjoint slices of the gradient, so parallelize over K.
	parallel.For(k, par, func(f int) {
		for ch := 0; ch < c; ch++ {
			gradPlane := wgrad[(f*c+ch)*fh*fw : (f*c+ch+1)*fh*fw]
			for kh := 0; kh < fh; kh++ {
				for kw := 0; kw < fw; kw++ {
					var sum T
					for b := 0; b < n; b++ {
						inPlane := in[(b*c+ch)*h*w : (b*c+ch+1)*h*w]
						errPlane := errs[(b*k+f)*oh*ow : (b*k+f+1)*oh*ow]
						for outH := 0; outH < oh; outH++ {
							hp := outH*stride - padding + kh
							if hp < 0 || hp >= h {
								continue
							}
							for outW := 0; outW < ow; outW++ {
								wp := outW*stride - padding + kw
								if wp < 0 || wp >= w {
									continue
								}
								sum += inPlane[hp*w+wp] * errPlane[outH*ow+outW]
							}
						}
					}
					gradPlane[kh*fw+kw] = sum
				}
			}
		}
	})
}
