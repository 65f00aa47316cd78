// Package optim provides the public API for Strata's optimizers.
package optim

import (
	"github.com/strata-ml/strata/internal/nn"
	"github.com/strata-ml/strata/internal/optim"
	"github.com/strata-ml/strata/tensor"
)

// SGD is stochastic gradient descent with classical momentum.
type SGD = optim.SGD

// SGDConfig carries the hyperparameters of a momentum SGD optimizer.
type SGDConfig = optim.SGDConfig

// NewSGD builds a momentum SGD optimizer.
func NewSGD(cfg SGDConfig) (*SGD, error) {
	return optim.NewSGD(cfg)
}

// Step applies one update to every trainable layer of a network, consuming
// the batch gradients computed by the last Backward call.
func Step[B tensor.Backend](s *SGD, net *nn.Network[B]) {
	optim.Step(s, net)
}
