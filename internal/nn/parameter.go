package nn

import (
	"fmt"

	"github.com/born-ml/seqconv/internal/tensor"
)

// Parameter represents a trainable parameter of a layer.
//
// Example:
//
//	weight := nn.NewParameter("stream0.weight", weightTensor)
//	w := weight.Tensor()
//	grad := weight.Grad() // nil before the first backward pass
type Parameter struct {
	name   string            // Parameter name (e.g., "weight", "bias")
	tensor *tensor.RawTensor // The parameter tensor
	grad   *tensor.RawTensor // Gradient from the last backward pass
}

// NewParameter creates a new trainable parameter.
func NewParameter(name string, t *tensor.RawTensor) *Parameter {
	return &Parameter{
		name:   name,
		tensor: t,
	}
}

// Name returns the parameter name.
func (p *Parameter) Name() string {
	return p.name
}

// Tensor returns the parameter tensor.
func (p *Parameter) Tensor() *tensor.RawTensor {
	return p.tensor
}

// Grad returns the gradient tensor, or nil before the first backward pass.
func (p *Parameter) Grad() *tensor.RawTensor {
	return p.grad
}

// SetGrad sets the gradient tensor.
func (p *Parameter) SetGrad(grad *tensor.RawTensor) {
	p.grad = grad
}

// ZeroGrad clears the gradient tensor.
func (p *Parameter) ZeroGrad() {
	p.grad = nil
}

// ParameterGroup is one filter bank with its bias. Streams that share
// weights point at the same group.
type ParameterGroup struct {
	Weight *Parameter // [n_filters, filter_width, 4]
	Bias   *Parameter // [n_filters]
}

// NewParameterGroup wraps existing filter and bias tensors.
func NewParameterGroup(name string, weight, bias *tensor.RawTensor) (*ParameterGroup, error) {
	ws := weight.Shape()
	if len(ws) != 3 || ws[2] != tensor.SequenceChannels {
		return nil, fmt.Errorf("%s: weight shape %v, expected (n_filters, filter_width, %d): %w",
			name, ws, tensor.SequenceChannels, tensor.ErrShapeMismatch)
	}
	if !bias.Shape().Equal(tensor.Shape{ws[0]}) {
		return nil, fmt.Errorf("%s: bias shape %v, expected (%d): %w",
			name, bias.Shape(), ws[0], tensor.ErrShapeMismatch)
	}
	if weight.DType() != bias.DType() || !weight.DType().IsFloat() {
		return nil, fmt.Errorf("%s: weight %s, bias %s: %w",
			name, weight.DType(), bias.DType(), tensor.ErrDTypeMismatch)
	}
	return &ParameterGroup{
		Weight: NewParameter(name+".weight", weight),
		Bias:   NewParameter(name+".bias", bias),
	}, nil
}

// NFilters returns the number of filters in the group.
func (g *ParameterGroup) NFilters() int {
	return g.Weight.Tensor().Shape()[0]
}

// FilterWidth returns the filter width of the group.
func (g *ParameterGroup) FilterWidth() int {
	return g.Weight.Tensor().Shape()[1]
}

// DType returns the parameter dtype.
func (g *ParameterGroup) DType() tensor.DataType {
	return g.Weight.Tensor().DType()
}

// Parameters returns the weight and bias parameters.
func (g *ParameterGroup) Parameters() []*Parameter {
	return []*Parameter{g.Weight, g.Bias}
}
