// Package nn composes the seqconv kernels into trainable layers.
//
// This package provides:
//   - Module interface: Base interface for layers with parameters
//   - Parameter and ParameterGroup: filter banks and biases with gradients
//   - SequenceConvolution: activation(convolve_sequence(x))
//   - MaxPooling, SumPooling: pooling with flattened outputs
//   - Dense: fully connected layers stacked on pooled activations
//   - MultiSequenceConvolution: several sequence streams with optional
//     weight sharing, concatenated into one activation matrix
//   - ParameterVector and CheckGradient: numerical gradient checking
//   - Save and Load: SafeTensors parameter checkpoints
//
// Layers compute forward and backward passes explicitly; there is no tape.
// The training loop and optimizer live outside this package.
package nn

import (
	"github.com/born-ml/seqconv/internal/tensor"
)

// Module is the base interface for all layers with trainable state.
//
// Type parameter B must satisfy the tensor.Backend interface.
type Module[B tensor.Backend] interface {
	// Parameters returns all trainable parameters of this module.
	// Returns an empty slice for modules without trainable parameters
	// (e.g., pooling).
	Parameters() []*Parameter

	// Backend returns the backend the module computes on.
	Backend() B
}
