package cpu

import (
	"fmt"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
	"gonum.org/v1/gonum/blas/blas64"

	"github.com/strata-ml/strata/internal/parallel"
	"github.com/strata-ml/strata/internal/tensor"
)

// CorrelateForward computes the forward correlation of a batch of inputs
// with a bank of filters.
//
// Input shape:   [N, C, H, W]
// Weights shape: [K, C, FH, FW]
// Output shape:  [N, K, OH, OW]
//
// where OH = (H + 2*padding - FH)/stride + 1 and likewise for OW. With
// stride=1 and padding=0 this is valid-mode correlation: OH = H - FH + 1.
//
// Algorithm: im2col followed by a single GEMM. The patch matrix turns the
// correlation into a dense matrix product, which is handed to gonum's BLAS
// implementation; a final pass rearranges [K, N*OH*OW] into [N, K, OH, OW].
func (cpu *CPUBackend) CorrelateForward(input, weights *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	n, c, h, w := dims4("correlate_forward", "input", input)
	k, ck, fh, fw := dims4("correlate_forward", "weights", weights)

	if c != ck {
		panic(fmt.Sprintf("correlate_forward: input channels %d != weight channels %d", c, ck))
	}
	if stride <= 0 {
		panic(fmt.Sprintf("correlate_forward: invalid stride %d", stride))
	}
	if padding < 0 {
		panic(fmt.Sprintf("correlate_forward: invalid padding %d", padding))
	}

	oh := (h+2*padding-fh)/stride + 1
	ow := (w+2*padding-fw)/stride + 1
	if oh <= 0 || ow <= 0 {
		panic(fmt.Sprintf("correlate_forward: filter %dx%d larger than padded input %dx%d", fh, fw, h, w))
	}

	output := tensor.MustRaw(tensor.Shape{n, k, oh, ow}, input.DType(), cpu.device)

	switch input.DType() {
	case tensor.Float32:
		cpu.correlateForwardFloat32(output, input, weights, n, c, h, w, k, fh, fw, oh, ow, stride, padding)
	case tensor.Float64:
		cpu.correlateForwardFloat64(output, input, weights, n, c, h, w, k, fh, fw, oh, ow, stride, padding)
	default:
		panic(fmt.Sprintf("correlate_forward: unsupported dtype %s", input.DType()))
	}
	return output
}

func (cpu *CPUBackend) correlateForwardFloat32(output, input, weights *tensor.RawTensor, n, c, h, w, k, fh, fw, oh, ow, stride, padding int) {
	colWidth := c * fh * fw
	colHeight := n * oh * ow
	colBuf := make([]float32, colHeight*colWidth)

	// im2col: one row per output position, one column per filter weight.
	// Samples are independent, so chunk the batch across workers.
	inputData := input.AsFloat32()
	parallel.For(n, cpu.par, func(b int) {
		im2col(colBuf, inputData, b, c, h, w, fh, fw, oh, ow, stride, padding)
	})

	// weights are already laid out row-major as [K, C*FH*FW].
	// GEMM: [K, colWidth] x [colHeight, colWidth]^T -> [K, colHeight].
	prod := make([]float32, k*colHeight)
	blas32.Gemm(blas.NoTrans, blas.Trans, 1,
		blas32.General{Rows: k, Cols: colWidth, Stride: colWidth, Data: weights.AsFloat32()},
		blas32.General{Rows: colHeight, Cols: colWidth, Stride: colWidth, Data: colBuf},
		0,
		blas32.General{Rows: k, Cols: colHeight, Stride: colHeight, Data: prod})

	// Rearrange [K, N*OH*OW] -> [N, K, OH, OW].
	outputData := output.AsFloat32()
	plane := oh * ow
	for b := 0; b < n; b++ {
		for f := 0; f < k; f++ {
			src := prod[f*colHeight+b*plane : f*colHeight+(b+1)*plane]
			dst := outputData[b*k*plane+f*plane : b*k*plane+(f+1)*plane]
			copy(dst, src)
		}
	}
}

func (cpu *CPUBackend) correlateForwardFloat64(output, input, weights *tensor.RawTensor, n, c, h, w, k, fh, fw, oh, ow, stride, padding int) {
	colWidth := c * fh * fw
	colHeight := n * oh * ow
	colBuf := make([]float64, colHeight*colWidth)

	inputData := input.AsFloat64()
	parallel.For(n, cpu.par, func(b int) {
		im2col(colBuf, inputData, b, c, h, w, fh, fw, oh, ow, stride, padding)
	})

	prod := make([]float64, k*colHeight)
	blas64.Gemm(blas.NoTrans, blas.Trans, 1,
		blas64.General{Rows: k, Cols: colWidth, Stride: colWidth, Data: weights.AsFloat64()},
		blas64.General{Rows: colHeight, Cols: colWidth, Stride: colWidth, Data: colBuf},
		0,
		blas64.General{Rows: k, Cols: colHeight, Stride: colHeight, Data: prod})

	outputData := output.AsFloat64()
	plane := oh * ow
	for b := 0; b < n; b++ {
		for f := 0; f < k; f++ {
			src := prod[f*colHeight+b*plane : f*colHeight+(b+1)*plane]
			dst := outputData[b*k*plane+f*plane : b*k*plane+(f+1)*plane]
			copy(dst, src)
		}
	}
}

// im2col extracts every filter-sized patch of sample b into rows of colBuf.
// Out-of-bounds positions (padding) contribute zeros.
func im2col[T float32 | float64](colBuf, inputData []T, b, c, h, w, fh, fw, oh, ow, stride, padding int) {
	colWidth := c * fh * fw
	sample := inputData[b*c*h*w : (b+1)*c*h*w]
	row := b * oh * ow

	for outH := 0; outH < oh; outH++ {
		for outW := 0; outW < ow; outW++ {
			hStart := outH*stride - padding
			wStart := outW*stride - padding
			buf := colBuf[row*colWidth : (row+1)*colWidth]

			idx := 0
			for ch := 0; ch < c; ch++ {
				chPlane := sample[ch*h*w : (ch+1)*h*w]
				for kh := 0; kh < fh; kh++ {
					hPos := hStart + kh
					for kw := 0; kw < fw; kw++ {
						wPos := wStart + kw
						if hPos >= 0 && hPos < h && wPos >= 0 && wPos < w {
							buf[idx] = chPlane[hPos*w+wPos]
						} else {
							buf[idx] = 0
						}
						idx++
					}
				}
			}
			row++
		}
	}
}

// dims4 unpacks a 4D shape, panicking with a diagnostic otherwise.
func dims4(op, name string, t *tensor.RawTensor) (int, int, int, int) {
	s := t.Shape()
	if len(s) != 4 {
		panic(fmt.Sprintf("%s: %s must be 4D, got %dD %v", op, name, len(s), s))
	}
	return s[0], s[1], s[2], s[3]
}
