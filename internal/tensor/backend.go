package tensor

// Backend defines the interface that all compute backends must implement.
// It is intentionally limited to the operations the layer core, the
// optimizer and the tests exercise.
//
// Implementations:
//   - CPU: pure Go with BLAS-backed correlation (internal/backend/cpu)
//   - WebGPU: GPU compute for elementwise ops (internal/backend/webgpu)
type Backend interface {
	// Element-wise binary operations (same shape, no broadcasting).
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor

	// Scalar operations.
	MulScalar(x *RawTensor, scalar float64) *RawTensor
	AddScalar(x *RawTensor, scalar float64) *RawTensor

	// Reshape returns a tensor with the same elements and a new shape.
	Reshape(t *RawTensor, newShape Shape) *RawTensor

	// Correlation kernels (valid-mode when stride=1, padding=0).
	//
	// CorrelateForward: input [N,C,H,W] x weights [K,C,FH,FW] -> [N,K,OH,OW].
	// CorrelateBackward: errors [N,K,OH,OW] x weights -> [N,C,H,W], the
	// transposed correlation distributing each output error over the input
	// positions that produced it.
	// CorrelateBackwardFilter: input x errors -> [K,C,FH,FW], the filter
	// gradient summed over the batch. The result is fully overwritten on
	// every call.
	CorrelateForward(input, weights *RawTensor, stride, padding int) *RawTensor
	CorrelateBackward(errors, weights *RawTensor, stride, padding int) *RawTensor
	CorrelateBackwardFilter(input, errors *RawTensor, stride, padding int) *RawTensor

	// Bias operations over [N,K,OH,OW] batches.
	BiasAdd4D(x, bias *RawTensor) *RawTensor
	BiasBatchSum4D(x *RawTensor) *RawTensor

	// Activation functions and their derivatives. The derivative variants
	// are evaluated at the activation OUTPUT (the value the forward pass
	// stored), which is what error back-adaptation needs.
	Sigmoid(x *RawTensor) *RawTensor
	ReLU(x *RawTensor) *RawTensor
	Tanh(x *RawTensor) *RawTensor
	SigmoidDerivOutput(y *RawTensor) *RawTensor
	ReLUDerivOutput(y *RawTensor) *RawTensor
	TanhDerivOutput(y *RawTensor) *RawTensor

	// Metadata.
	Name() string
	Device() Device
}
