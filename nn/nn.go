// Package nn provides the public API for Strata's neural network layers:
// the convolutional layer, the local contrast normalization transform, the
// per-layer training context and the network assembly that wires them
// together.
//
// Example:
//
//	backend := cpu.New()
//	conv, err := nn.NewConvLayer(nn.ConvConfig{
//	    Channels: 1, Height: 28, Width: 28,
//	    Filters: 8, FilterH: 3, FilterW: 3,
//	    Activation: nn.Sigmoid,
//	}, backend)
package nn

import (
	"github.com/strata-ml/strata/internal/nn"
	"github.com/strata-ml/strata/tensor"
)

// Function identifies an activation function.
type Function = nn.Function

// Activation function tags.
const (
	Identity Function = nn.Identity
	Sigmoid  Function = nn.Sigmoid
	ReLU     Function = nn.ReLU
	Tanh     Function = nn.Tanh
)

// Initializer fills a freshly allocated parameter tensor.
type Initializer = nn.Initializer

// Initializer strategies.
var (
	InitZero   Initializer = nn.InitZero
	InitXavier Initializer = nn.InitXavier
	InitHe     Initializer = nn.InitHe
	InitLeCun  Initializer = nn.InitLeCun
)

// InitGaussian returns an initializer drawing from N(0, std*std).
func InitGaussian(std float64) Initializer {
	return nn.InitGaussian(std)
}

// SeedRNG reseeds the package initializer RNG for reproducible runs.
func SeedRNG(seed int64) {
	nn.SeedRNG(seed)
}

// Context is the per-layer, per-batch training scratch state.
type Context = nn.Context

// Layer is the capability interface every layer kind implements.
type Layer[B tensor.Backend] = nn.Layer[B]

// Trainable is implemented by layers carrying weights and biases.
type Trainable = nn.Trainable

// ConvLayer is a valid-mode convolutional layer.
type ConvLayer[B tensor.Backend] = nn.ConvLayer[B]

// ConvConfig carries the construction-time constants of a ConvLayer.
type ConvConfig = nn.ConvConfig

// NewConvLayer builds a convolutional layer from its configuration.
func NewConvLayer[B tensor.Backend](cfg ConvConfig, backend B) (*ConvLayer[B], error) {
	return nn.NewConvLayer(cfg, backend)
}

// LCNLayer is a local contrast normalization transform layer.
type LCNLayer[B tensor.Backend] = nn.LCNLayer[B]

// DefaultLCNSigma is the smoothing parameter used when none is given.
const DefaultLCNSigma = nn.DefaultLCNSigma

// NewLCNLayer builds an LCN layer with kernel size k, which must be odd
// and greater than 1. Pass sigma <= 0 for the default smoothing.
func NewLCNLayer[B tensor.Backend](k int, sigma float64, backend B) (*LCNLayer[B], error) {
	return nn.NewLCNLayer(k, sigma, backend)
}

// Network is an ordered stack of layers with per-layer training contexts.
type Network[B tensor.Backend] = nn.Network[B]

// NewNetwork assembles a network, propagating sample shapes through the
// stack and allocating one training context per layer.
func NewNetwork[B tensor.Backend](backend B, inputSample tensor.Shape, batchSize int, layers ...Layer[B]) (*Network[B], error) {
	return nn.NewNetwork(backend, inputSample, batchSize, layers...)
}
