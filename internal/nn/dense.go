package nn

import (
	"fmt"
	"math/rand"

	"github.com/born-ml/seqconv/internal/tensor"
)

// Dense implements a fully connected layer followed by an
// activation.
//
// Performs the transformation: y = f(x @ W.T + b)
// where:
//   - x is the input tensor with shape [batch_size, in_features]
//   - W is the weight matrix with shape [out_features, in_features]
//   - b is the bias vector with shape [out_features]
//   - y is the output tensor with shape [batch_size, out_features]
//
// The product runs on the backend's dense 1-D convolution with a single
// position and a width-1 filter, so the weight is stored as
// [out_features, 1, in_features].
//
// Weights are initialized using Xavier/Glorot initialization.
// Biases are initialized to zeros.
type Dense[B tensor.Backend] struct {
	inFeatures  int
	outFeatures int
	weight      *Parameter // [out_features, 1, in_features]
	bias        *Parameter // [out_features]
	activation  Activation
	backend     B
}

// NewDense creates a fully connected layer with Xavier weights and zero bias.
func NewDense[B tensor.Backend](backend B, name string, inFeatures, outFeatures int, act Activation,
	dtype tensor.DataType, rng *rand.Rand,
) (*Dense[B], error) {
	if inFeatures < 1 || outFeatures < 1 {
		return nil, fmt.Errorf("dense: in_features %d and out_features %d must be >= 1", inFeatures, outFeatures)
	}
	if !act.valid() {
		return nil, fmt.Errorf("dense: unknown activation %d", int(act))
	}
	w, err := Xavier(inFeatures, outFeatures, tensor.Shape{outFeatures, 1, inFeatures}, dtype, rng)
	if err != nil {
		return nil, fmt.Errorf("dense: %w", err)
	}
	b, err := tensor.Zeros(tensor.Shape{outFeatures}, dtype)
	if err != nil {
		return nil, fmt.Errorf("dense: %w", err)
	}
	return &Dense[B]{
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
		weight:      NewParameter(name+".weight", w),
		bias:        NewParameter(name+".bias", b),
		activation:  act,
		backend:     backend,
	}, nil
}

// Forward computes the output of the dense layer.
//
// Input shape: [batch_size, in_features]
// Output shape: [batch_size, out_features]
func (l *Dense[B]) Forward(input *tensor.RawTensor) (*tensor.RawTensor, error) {
	if input.Rank() != 2 || input.Shape()[1] != l.inFeatures {
		return nil, fmt.Errorf("dense: expected [batch, %d] input, got %v: %w",
			l.inFeatures, input.Shape(), tensor.ErrShapeMismatch)
	}
	batch := input.Shape()[0]
	x, err := input.Reshape(tensor.Shape{batch, 1, l.inFeatures})
	if err != nil {
		return nil, err
	}
	y, err := l.backend.Conv1D(x, l.weight.Tensor(), l.bias.Tensor())
	if err != nil {
		return nil, fmt.Errorf("dense: %w", err)
	}
	l.activation.Forward(y)
	return y.Reshape(tensor.Shape{batch, l.outFeatures})
}

// Backward returns the gradient with respect to the input and stores the
// weight and bias gradients on the parameters. output is the value returned
// by Forward.
func (l *Dense[B]) Backward(input, output, dfOutput *tensor.RawTensor) (*tensor.RawTensor, error) {
	dz, err := l.activation.Backward(output, dfOutput)
	if err != nil {
		return nil, fmt.Errorf("dense backward: %w", err)
	}
	batch := input.Shape()[0]
	x, err := input.Reshape(tensor.Shape{batch, 1, l.inFeatures})
	if err != nil {
		return nil, err
	}
	dz3, err := dz.Reshape(tensor.Shape{batch, 1, l.outFeatures})
	if err != nil {
		return nil, err
	}

	dW, err := l.backend.Conv1DGradFilters(x, dz3, 1)
	if err != nil {
		return nil, fmt.Errorf("dense backward: %w", err)
	}
	db, err := sumOverPositions(dz3)
	if err != nil {
		return nil, err
	}
	dx, err := l.backend.Conv1DGradInput(dz3, l.weight.Tensor())
	if err != nil {
		return nil, fmt.Errorf("dense backward: %w", err)
	}
	l.weight.SetGrad(dW)
	l.bias.SetGrad(db)
	return dx.Reshape(tensor.Shape{batch, l.inFeatures})
}

// Parameters returns [weight, bias].
func (l *Dense[B]) Parameters() []*Parameter {
	return []*Parameter{l.weight, l.bias}
}

// Weight returns the weight parameter.
func (l *Dense[B]) Weight() *Parameter {
	return l.weight
}

// Bias returns the bias parameter.
func (l *Dense[B]) Bias() *Parameter {
	return l.bias
}

// InFeatures returns the number of input features.
func (l *Dense[B]) InFeatures() int {
	return l.inFeatures
}

// OutFeatures returns the number of output features.
func (l *Dense[B]) OutFeatures() int {
	return l.outFeatures
}

// Backend returns the layer's backend.
func (l *Dense[B]) Backend() B {
	return l.backend
}
