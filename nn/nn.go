// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"io"
	"math/rand"

	"github.com/born-ml/seqconv/internal/nn"
	"github.com/born-ml/seqconv/tensor"
)

// Module is implemented by every layer.
type Module[B tensor.Backend] = nn.Module[B]

// Parameter is a trainable tensor with its last gradient.
type Parameter = nn.Parameter

// ParameterGroup is one filter bank and its bias.
type ParameterGroup = nn.ParameterGroup

// ParameterSet is anything with parameters, such as a layer.
type ParameterSet = nn.ParameterSet

// Activation is an element-wise nonlinearity.
type Activation = nn.Activation

// Supported activations.
const (
	Linear  = nn.Linear
	Sigmoid = nn.Sigmoid
	Tanh    = nn.Tanh
	ReLU    = nn.ReLU
)

// ParseActivation returns the activation with the given name.
func ParseActivation(name string) (Activation, error) {
	return nn.ParseActivation(name)
}

// NewParameter wraps a tensor as a named parameter.
func NewParameter(name string, t *tensor.RawTensor) *Parameter {
	return nn.NewParameter(name, t)
}

// NewParameterGroup wraps a [n_filters, filter_width, 4] weight and its
// [n_filters] bias. Layers built from the same group share weights.
func NewParameterGroup(name string, weight, bias *tensor.RawTensor) (*ParameterGroup, error) {
	return nn.NewParameterGroup(name, weight, bias)
}

// Xavier returns a tensor drawn from the Glorot uniform distribution.
func Xavier(fanIn, fanOut int, shape tensor.Shape, dtype tensor.DataType, rng *rand.Rand) (*tensor.RawTensor, error) {
	return nn.Xavier(fanIn, fanOut, shape, dtype, rng)
}

// Layers

// SequenceConvolution applies a filter bank and an activation to symbol codes.
type SequenceConvolution[B tensor.Backend] = nn.SequenceConvolution[B]

// NewSequenceConvolution creates a layer with Xavier filters and zero bias.
//
// Example:
//
//	conv, err := nn.NewSequenceConvolution(backend, 8, 12, nn.Tanh, tensor.Float32, rng)
func NewSequenceConvolution[B tensor.Backend](backend B, nFilters, filterWidth int, act Activation,
	dtype tensor.DataType, rng *rand.Rand,
) (*SequenceConvolution[B], error) {
	return nn.NewSequenceConvolution(backend, nFilters, filterWidth, act, dtype, rng)
}

// NewSequenceConvolutionShared creates a layer over an existing group.
func NewSequenceConvolutionShared[B tensor.Backend](backend B, params *ParameterGroup, act Activation) (*SequenceConvolution[B], error) {
	return nn.NewSequenceConvolutionShared(backend, params, act)
}

// MaxPooling takes window maxima and flattens the result.
type MaxPooling[B tensor.Backend] = nn.MaxPooling[B]

// NewMaxPooling creates a max pooling layer.
func NewMaxPooling[B tensor.Backend](backend B, poolSize int) (*MaxPooling[B], error) {
	return nn.NewMaxPooling(backend, poolSize)
}

// SumPooling takes window sums and flattens the result.
type SumPooling[B tensor.Backend] = nn.SumPooling[B]

// NewSumPooling creates a sum pooling layer.
func NewSumPooling[B tensor.Backend](backend B, poolSize int) (*SumPooling[B], error) {
	return nn.NewSumPooling(backend, poolSize)
}

// Dense is a fully connected layer followed by an activation.
type Dense[B tensor.Backend] = nn.Dense[B]

// NewDense creates a fully connected layer with Xavier weights.
func NewDense[B tensor.Backend](backend B, name string, inFeatures, outFeatures int, act Activation,
	dtype tensor.DataType, rng *rand.Rand,
) (*Dense[B], error) {
	return nn.NewDense(backend, name, inFeatures, outFeatures, act, dtype, rng)
}

// Multi-stream layer

// StreamConfig describes one input stream.
type StreamConfig = nn.StreamConfig

// DenseConfig describes one dense layer stacked on the pooled activations.
type DenseConfig = nn.DenseConfig

// MultiOptions holds the layer-wide settings.
type MultiOptions = nn.MultiOptions

// Cache holds the forward intermediates needed by Backward.
type Cache = nn.Cache

// Gradients holds one weight and bias gradient per parameter group and
// dense layer.
type Gradients = nn.Gradients

// MultiSequenceConvolution runs several sequence streams and concatenates
// their pooled activations.
type MultiSequenceConvolution[B tensor.Backend] = nn.MultiSequenceConvolution[B]

// Share returns a StreamConfig.WeightShare value pointing at stream i.
func Share(i int) *int {
	return nn.Share(i)
}

// NewMultiSequenceConvolution validates configs and initializes the layer.
func NewMultiSequenceConvolution[B tensor.Backend](backend B, configs []StreamConfig, opts MultiOptions) (*MultiSequenceConvolution[B], error) {
	return nn.NewMultiSequenceConvolution(backend, configs, opts)
}

// Checkpoints

// StateDict maps parameter names to their tensors without copying.
func StateDict(m ParameterSet) map[string]*tensor.RawTensor {
	return nn.StateDict(m)
}

// LoadStateDict copies state into the parameters of m.
func LoadStateDict(m ParameterSet, state map[string]*tensor.RawTensor) error {
	return nn.LoadStateDict(m, state)
}

// Save writes the parameters of m as SafeTensors.
func Save(w io.Writer, m ParameterSet, metadata map[string]string) error {
	return nn.Save(w, m, metadata)
}

// Load reads SafeTensors parameters into m and returns the metadata.
func Load(r io.Reader, m ParameterSet) (map[string]string, error) {
	return nn.Load(r, m)
}

// Gradient checking

// ParameterVector flattens parameter values into one float64 slice.
func ParameterVector(params []*Parameter) []float64 {
	return nn.ParameterVector(params)
}

// SetParameterVector writes v back into params.
func SetParameterVector(params []*Parameter, v []float64) error {
	return nn.SetParameterVector(params, v)
}

// GradientVector flattens the recorded gradients of params.
func GradientVector(params []*Parameter) []float64 {
	return nn.GradientVector(params)
}

// CheckGradient compares analytic gradients with central differences and
// returns the relative error and the numeric gradient.
func CheckGradient(loss func() (float64, error), params []*Parameter, analytic []float64, eps float64) (float64, []float64, error) {
	return nn.CheckGradient(loss, params, analytic, eps)
}
