package nn

import (
	"fmt"
	"math/rand"

	"github.com/born-ml/seqconv/internal/tensor"
)

// SequenceConvolution applies a filter bank to symbol-coded sequences
// followed by an activation.
//
// Input shape:  [batch, width] Uint8 symbol codes
// Output shape: [batch, width - filter_width + 1, n_filters] (the filter map)
//
// Example:
//
//	conv, err := nn.NewSequenceConvolution(backend, 8, 12, nn.Tanh, tensor.Float32, rng)
//	filtermap, err := conv.Forward(codes)
type SequenceConvolution[B tensor.Backend] struct {
	backend    B
	params     *ParameterGroup
	activation Activation
}

// NewSequenceConvolution creates a layer with Xavier-initialized filters and
// zero bias.
func NewSequenceConvolution[B tensor.Backend](backend B, nFilters, filterWidth int, act Activation,
	dtype tensor.DataType, rng *rand.Rand,
) (*SequenceConvolution[B], error) {
	if nFilters < 1 || filterWidth < 1 {
		return nil, fmt.Errorf("sequence convolution: n_filters %d and filter_width %d must be >= 1",
			nFilters, filterWidth)
	}
	params, err := newFilterGroup("seqconv", nFilters, filterWidth, dtype, rng)
	if err != nil {
		return nil, fmt.Errorf("sequence convolution: %w", err)
	}
	return NewSequenceConvolutionShared(backend, params, act)
}

// NewSequenceConvolutionShared creates a layer over an existing parameter
// group. Layers built from the same group share weights.
func NewSequenceConvolutionShared[B tensor.Backend](backend B, params *ParameterGroup, act Activation) (*SequenceConvolution[B], error) {
	if params == nil {
		return nil, fmt.Errorf("sequence convolution: nil parameter group")
	}
	if !act.valid() {
		return nil, fmt.Errorf("sequence convolution: unknown activation %d", int(act))
	}
	return &SequenceConvolution[B]{
		backend:    backend,
		params:     params,
		activation: act,
	}, nil
}

// Forward returns activation(convolve_sequence(input, W, b)).
func (l *SequenceConvolution[B]) Forward(input *tensor.RawTensor) (*tensor.RawTensor, error) {
	out, err := l.backend.ConvolveSequence(input, l.params.Weight.Tensor(), l.params.Bias.Tensor())
	if err != nil {
		return nil, err
	}
	return l.activation.Forward(out), nil
}

// Backward returns the filter and bias gradients given the gradient of the
// loss with respect to the filter map and the filter map itself.
func (l *SequenceConvolution[B]) Backward(input, dfFiltermap, filtermap *tensor.RawTensor) (dW, db *tensor.RawTensor, err error) {
	dfConv, err := l.activation.Backward(filtermap, dfFiltermap)
	if err != nil {
		return nil, nil, err
	}
	dW, err = l.backend.ConvolveSequenceGradient(input, dfConv, l.params.FilterWidth(), l.params.NFilters())
	if err != nil {
		return nil, nil, err
	}
	db, err = sumOverPositions(dfConv)
	if err != nil {
		return nil, nil, err
	}
	return dW, db, nil
}

// Params returns the layer's parameter group.
func (l *SequenceConvolution[B]) Params() *ParameterGroup {
	return l.params
}

// Activation returns the layer's activation.
func (l *SequenceConvolution[B]) Activation() Activation {
	return l.activation
}

// Parameters returns the filter and bias parameters.
func (l *SequenceConvolution[B]) Parameters() []*Parameter {
	return l.params.Parameters()
}

// Backend returns the layer's backend.
func (l *SequenceConvolution[B]) Backend() B {
	return l.backend
}

// OutputWidth returns the filter map width for an input of the given width.
func (l *SequenceConvolution[B]) OutputWidth(width int) int {
	return width - l.params.FilterWidth() + 1
}

// sumOverPositions reduces [batch, width, F] to [F].
func sumOverPositions(t *tensor.RawTensor) (*tensor.RawTensor, error) {
	if t.Rank() != 3 {
		return nil, fmt.Errorf("bias gradient: expected 3D tensor, got %v: %w", t.Shape(), tensor.ErrShapeMismatch)
	}
	nf := t.Shape()[2]
	out, err := tensor.Zeros(tensor.Shape{nf}, t.DType())
	if err != nil {
		return nil, err
	}
	switch t.DType() {
	case tensor.Float32:
		sumRows(out.AsFloat32(), t.AsFloat32(), nf)
	case tensor.Float64:
		sumRows(out.AsFloat64(), t.AsFloat64(), nf)
	}
	return out, nil
}

func sumRows[T tensor.Float](dst, src []T, cols int) {
	acc := make([]float64, cols)
	for i, v := range src {
		acc[i%cols] += float64(v)
	}
	for i, v := range acc {
		dst[i] = T(v)
	}
}
