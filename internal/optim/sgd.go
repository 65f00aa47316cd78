package optim

import (
	"fmt"

	"github.com/strata-ml/strata/internal/nn"
	"github.com/strata-ml/strata/internal/tensor"
)

// SGDConfig carries the hyperparameters of a momentum SGD optimizer.
type SGDConfig struct {
	LR       float32
	Momentum float32
}

// SGD is stochastic gradient descent with classical momentum. The momentum
// increments live in each layer's training context, so the optimizer itself
// holds only the hyperparameters and can drive any number of networks.
type SGD struct {
	lr       float32
	momentum float32
}

// NewSGD builds a momentum SGD optimizer. A zero LR is almost certainly a
// configuration mistake and is rejected.
func NewSGD(cfg SGDConfig) (*SGD, error) {
	if cfg.LR <= 0 {
		return nil, fmt.Errorf("sgd: learning rate %v must be positive", cfg.LR)
	}
	if cfg.Momentum < 0 || cfg.Momentum >= 1 {
		return nil, fmt.Errorf("sgd: momentum %v must be in [0, 1)", cfg.Momentum)
	}
	return &SGD{lr: cfg.LR, momentum: cfg.Momentum}, nil
}

// LR returns the current learning rate.
func (s *SGD) LR() float32 { return s.lr }

// SetLR replaces the learning rate, for schedules and rate probes.
func (s *SGD) SetLR(lr float32) { s.lr = lr }

// Update applies one momentum step to params in place:
//
//	inc    = momentum*inc - lr*grad
//	params = params + inc
//
// All three tensors must share shape and dtype.
func (s *SGD) Update(params, grad, inc *tensor.RawTensor) {
	if params.NumElements() != grad.NumElements() || params.NumElements() != inc.NumElements() {
		panic(fmt.Sprintf("sgd: size mismatch params=%d grad=%d inc=%d",
			params.NumElements(), grad.NumElements(), inc.NumElements()))
	}
	if params.DType() != grad.DType() || params.DType() != inc.DType() {
		panic(fmt.Sprintf("sgd: dtype mismatch params=%s grad=%s inc=%s",
			params.DType(), grad.DType(), inc.DType()))
	}

	switch params.DType() {
	case tensor.Float32:
		step(params.AsFloat32(), grad.AsFloat32(), inc.AsFloat32(), s.lr, s.momentum)
	case tensor.Float64:
		step(params.AsFloat64(), grad.AsFloat64(), inc.AsFloat64(), float64(s.lr), float64(s.momentum))
	default:
		panic(fmt.Sprintf("sgd: unsupported dtype %s", params.DType()))
	}
}

func step[T float32 | float64](params, grad, inc []T, lr, momentum T) {
	for i := range params {
		inc[i] = momentum*inc[i] - lr*grad[i]
		params[i] += inc[i]
	}
}

// Step applies one update to every trainable layer of a network, consuming
// the batch gradients computed by the last Backward call.
func Step[B tensor.Backend](s *SGD, net *nn.Network[B]) {
	for i, layer := range net.Layers() {
		trainable, ok := layer.(nn.Trainable)
		if !ok {
			continue
		}
		weights, biases := trainable.TrainableState()
		ctx := net.Context(i)
		s.Update(weights, ctx.WGrad, ctx.WInc)
		s.Update(biases, ctx.BGrad, ctx.BInc)
	}
}
