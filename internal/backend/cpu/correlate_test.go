package cpu

import (
	"testing"

	"github.com/strata-ml/strata/internal/tensor"
)

// TestCorrelateForward_Basic tests the forward correlation against a
// hand-computed result.
func TestCorrelateForward_Basic(t *testing.T) {
	backend := New()

	// Input: [1, 1, 3, 3] - single channel 3x3 image
	input, _ := tensor.NewRaw(tensor.Shape{1, 1, 3, 3}, tensor.Float32, tensor.CPU)
	inputData := input.AsFloat32()
	// 1 2 3
	// 4 5 6
	// 7 8 9
	for i := 0; i < 9; i++ {
		inputData[i] = float32(i + 1)
	}

	// Weights: [1, 1, 2, 2] - single 2x2 filter
	weights, _ := tensor.NewRaw(tensor.Shape{1, 1, 2, 2}, tensor.Float32, tensor.CPU)
	weightData := weights.AsFloat32()
	// 1 0
	// 0 1
	weightData[0] = 1.0
	weightData[1] = 0.0
	weightData[2] = 0.0
	weightData[3] = 1.0

	output := backend.CorrelateForward(input, weights, 1, 0)

	// out_h = 3 - 2 + 1 = 2
	expectedShape := tensor.Shape{1, 1, 2, 2}
	if !output.Shape().Equal(expectedShape) {
		t.Fatalf("Expected shape %v, got %v", expectedShape, output.Shape())
	}

	outputData := output.AsFloat32()

	// Diagonal sums:
	// [1,2,4,5] -> 1 + 5 = 6
	// [2,3,5,6] -> 2 + 6 = 8
	// [4,5,7,8] -> 4 + 8 = 12
	// [5,6,8,9] -> 5 + 9 = 14
	expected := []float32{6, 8, 12, 14}

	for i, exp := range expected {
		if outputData[i] != exp {
			t.Errorf("Output[%d]: expected %.1f, got %.1f", i, exp, outputData[i])
		}
	}
}

// TestCorrelateForward_ChannelSum verifies that a filter spans and sums
// all input channels.
func TestCorrelateForward_ChannelSum(t *testing.T) {
	backend := New()

	// Input: [1, 2, 2, 2], channel 0 holds 1..4, channel 1 holds 10..40.
	input, _ := tensor.NewRaw(tensor.Shape{1, 2, 2, 2}, tensor.Float32, tensor.CPU)
	inputData := input.AsFloat32()
	copy(inputData, []float32{1, 2, 3, 4, 10, 20, 30, 40})

	// Weights: [1, 2, 1, 1], both channel coefficients 1 -> output = ch0 + ch1.
	weights, _ := tensor.NewRaw(tensor.Shape{1, 2, 1, 1}, tensor.Float32, tensor.CPU)
	copy(weights.AsFloat32(), []float32{1, 1})

	output := backend.CorrelateForward(input, weights, 1, 0)

	expectedShape := tensor.Shape{1, 1, 2, 2}
	if !output.Shape().Equal(expectedShape) {
		t.Fatalf("Expected shape %v, got %v", expectedShape, output.Shape())
	}

	expected := []float32{11, 22, 33, 44}
	outputData := output.AsFloat32()
	for i, exp := range expected {
		if outputData[i] != exp {
			t.Errorf("Output[%d]: expected %.1f, got %.1f", i, exp, outputData[i])
		}
	}
}

// TestCorrelateForward_ValidShape checks out_dim = in_dim - filter_dim + 1
// across a sweep of shapes, and that the output always carries exactly K
// channels.
func TestCorrelateForward_ValidShape(t *testing.T) {
	backend := New()

	cases := []struct {
		n, c, h, w, k, fh, fw int
	}{
		{1, 1, 5, 5, 1, 3, 3},
		{2, 3, 8, 6, 4, 3, 2},
		{3, 2, 4, 9, 5, 4, 1},
		{1, 4, 7, 7, 2, 7, 7},
	}

	for _, tc := range cases {
		input, _ := tensor.NewRaw(tensor.Shape{tc.n, tc.c, tc.h, tc.w}, tensor.Float32, tensor.CPU)
		weights, _ := tensor.NewRaw(tensor.Shape{tc.k, tc.c, tc.fh, tc.fw}, tensor.Float32, tensor.CPU)

		output := backend.CorrelateForward(input, weights, 1, 0)

		want := tensor.Shape{tc.n, tc.k, tc.h - tc.fh + 1, tc.w - tc.fw + 1}
		if !output.Shape().Equal(want) {
			t.Errorf("input %v filter %v: expected shape %v, got %v",
				input.Shape(), weights.Shape(), want, output.Shape())
		}
	}
}

// TestCorrelateBackward_Basic tests the transposed correlation against a
// hand-computed result.
func TestCorrelateBackward_Basic(t *testing.T) {
	backend := New()

	// Errors: [1, 1, 1, 1] single output error of 2.
	errs, _ := tensor.NewRaw(tensor.Shape{1, 1, 1, 1}, tensor.Float32, tensor.CPU)
	errs.AsFloat32()[0] = 2.0

	// Weights: [1, 1, 2, 2].
	weights, _ := tensor.NewRaw(tensor.Shape{1, 1, 2, 2}, tensor.Float32, tensor.CPU)
	copy(weights.AsFloat32(), []float32{1, 2, 3, 4})

	grad := backend.CorrelateBackward(errs, weights, 1, 0)

	// Input was 2x2; the single error distributes over every position it
	// touched, weighted by the filter: grad = 2 * weights.
	expectedShape := tensor.Shape{1, 1, 2, 2}
	if !grad.Shape().Equal(expectedShape) {
		t.Fatalf("Expected shape %v, got %v", expectedShape, grad.Shape())
	}

	expected := []float32{2, 4, 6, 8}
	gradData := grad.AsFloat32()
	for i, exp := range expected {
		if gradData[i] != exp {
			t.Errorf("Grad[%d]: expected %.1f, got %.1f", i, exp, gradData[i])
		}
	}
}

// TestCorrelateBackward_Overlap verifies summation where several output
// positions influence the same input position.
func TestCorrelateBackward_Overlap(t *testing.T) {
	backend := New()

	// Errors: [1, 1, 2, 2] all ones: every 2x2 filter position fired once.
	errs, _ := tensor.NewRaw(tensor.Shape{1, 1, 2, 2}, tensor.Float32, tensor.CPU)
	errData := errs.AsFloat32()
	for i := range errData {
		errData[i] = 1.0
	}

	// Weights: [1, 1, 2, 2] all ones.
	weights, _ := tensor.NewRaw(tensor.Shape{1, 1, 2, 2}, tensor.Float32, tensor.CPU)
	weightData := weights.AsFloat32()
	for i := range weightData {
		weightData[i] = 1.0
	}

	grad := backend.CorrelateBackward(errs, weights, 1, 0)

	// Input was 3x3. Each input position receives one contribution per
	// filter placement covering it:
	// corners 1, edges 2, center 4.
	expected := []float32{
		1, 2, 1,
		2, 4, 2,
		1, 2, 1,
	}
	gradData := grad.AsFloat32()
	for i, exp := range expected {
		if gradData[i] != exp {
			t.Errorf("Grad[%d]: expected %.1f, got %.1f", i, exp, gradData[i])
		}
	}
}

// TestCorrelateBackwardFilter_Basic tests the filter gradient against a
// hand-computed result.
func TestCorrelateBackwardFilter_Basic(t *testing.T) {
	backend := New()

	// Input: [1, 1, 2, 2].
	input, _ := tensor.NewRaw(tensor.Shape{1, 1, 2, 2}, tensor.Float32, tensor.CPU)
	copy(input.AsFloat32(), []float32{1, 2, 3, 4})

	// Errors: [1, 1, 1, 1] single error of 3 -> filter was 2x2.
	errs, _ := tensor.NewRaw(tensor.Shape{1, 1, 1, 1}, tensor.Float32, tensor.CPU)
	errs.AsFloat32()[0] = 3.0

	wgrad := backend.CorrelateBackwardFilter(input, errs, 1, 0)

	expectedShape := tensor.Shape{1, 1, 2, 2}
	if !wgrad.Shape().Equal(expectedShape) {
		t.Fatalf("Expected shape %v, got %v", expectedShape, wgrad.Shape())
	}

	// wgrad = error * the input patch under the filter = 3 * input.
	expected := []float32{3, 6, 9, 12}
	wgradData := wgrad.AsFloat32()
	for i, exp := range expected {
		if wgradData[i] != exp {
			t.Errorf("WGrad[%d]: expected %.1f, got %.1f", i, exp, wgradData[i])
		}
	}
}

// TestCorrelateBackwardFilter_BatchSum verifies that the filter gradient
// sums over the batch and is fully overwritten each call.
func TestCorrelateBackwardFilter_BatchSum(t *testing.T) {
	backend := New()

	// Two identical samples: gradient must be exactly double the
	// single-sample gradient.
	input, _ := tensor.NewRaw(tensor.Shape{2, 1, 2, 2}, tensor.Float32, tensor.CPU)
	copy(input.AsFloat32(), []float32{1, 2, 3, 4, 1, 2, 3, 4})

	errs, _ := tensor.NewRaw(tensor.Shape{2, 1, 1, 1}, tensor.Float32, tensor.CPU)
	copy(errs.AsFloat32(), []float32{3, 3})

	wgrad := backend.CorrelateBackwardFilter(input, errs, 1, 0)

	expected := []float32{6, 12, 18, 24}
	wgradData := wgrad.AsFloat32()
	for i, exp := range expected {
		if wgradData[i] != exp {
			t.Errorf("WGrad[%d]: expected %.1f, got %.1f", i, exp, wgradData[i])
		}
	}

	// Second call on the same tensors must produce the same values, not
	// accumulate on top of the first call.
	wgrad2 := backend.CorrelateBackwardFilter(input, errs, 1, 0)
	wgrad2Data := wgrad2.AsFloat32()
	for i, exp := range expected {
		if wgrad2Data[i] != exp {
			t.Errorf("Second call WGrad[%d]: expected %.1f, got %.1f", i, exp, wgrad2Data[i])
		}
	}
}

// TestCorrelate_Float64 runs the forward kernel on float64 data.
func TestCorrelate_Float64(t *testing.T) {
	backend := New()

	input, _ := tensor.NewRaw(tensor.Shape{1, 1, 3, 3}, tensor.Float64, tensor.CPU)
	inputData := input.AsFloat64()
	for i := 0; i < 9; i++ {
		inputData[i] = float64(i + 1)
	}

	weights, _ := tensor.NewRaw(tensor.Shape{1, 1, 2, 2}, tensor.Float64, tensor.CPU)
	copy(weights.AsFloat64(), []float64{1, 0, 0, 1})

	output := backend.CorrelateForward(input, weights, 1, 0)

	expected := []float64{6, 8, 12, 14}
	outputData := output.AsFloat64()
	for i, exp := range expected {
		if outputData[i] != exp {
			t.Errorf("Output[%d]: expected %.1f, got %.1f", i, exp, outputData[i])
		}
	}
}

// TestCorrelate_Sequential checks the worker-pool and sequential paths
// agree.
func TestCorrelate_Sequential(t *testing.T) {
	par := New()
	seq := NewSequential()

	input, _ := tensor.NewRaw(tensor.Shape{4, 3, 9, 9}, tensor.Float32, tensor.CPU)
	inputData := input.AsFloat32()
	for i := range inputData {
		inputData[i] = float32(i%17) - 8.0
	}

	weights, _ := tensor.NewRaw(tensor.Shape{5, 3, 3, 3}, tensor.Float32, tensor.CPU)
	weightData := weights.AsFloat32()
	for i := range weightData {
		weightData[i] = float32(i%5) - 2.0
	}

	a := par.CorrelateForward(input, weights, 1, 0).AsFloat32()
	b := seq.CorrelateForward(input, weights, 1, 0).AsFloat32()

	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("parallel and sequential outputs differ at %d: %f vs %f", i, a[i], b[i])
		}
	}
}
