package nn

import (
	"fmt"
	"math"
	"strings"

	"github.com/born-ml/seqconv/internal/tensor"
)

// Activation is an element-wise nonlinearity applied to filter maps.
// Derivatives are expressed through the activation output y = f(x), so the
// backward pass only needs the cached filter map.
type Activation int

// Supported activations.
const (
	Linear  Activation = iota // f(x) = x
	Sigmoid                   // f(x) = 1 / (1 + exp(-x))
	Tanh                      // f(x) = tanh(x)
	ReLU                      // f(x) = max(0, x)
)

// String returns the activation name.
func (a Activation) String() string {
	switch a {
	case Linear:
		return "linear"
	case Sigmoid:
		return "sigmoid"
	case Tanh:
		return "tanh"
	case ReLU:
		return "relu"
	default:
		return fmt.Sprintf("activation(%d)", int(a))
	}
}

// ParseActivation returns the activation with the given name.
func ParseActivation(name string) (Activation, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "linear", "":
		return Linear, nil
	case "sigmoid":
		return Sigmoid, nil
	case "tanh":
		return Tanh, nil
	case "relu":
		return ReLU, nil
	}
	return 0, fmt.Errorf("unknown activation %q", name)
}

func (a Activation) valid() bool {
	return a >= Linear && a <= ReLU
}

// Forward applies the activation to t in place and returns t.
func (a Activation) Forward(t *tensor.RawTensor) *tensor.RawTensor {
	switch t.DType() {
	case tensor.Float32:
		activate(a, t.AsFloat32())
	case tensor.Float64:
		activate(a, t.AsFloat64())
	}
	return t
}

// Backward returns grad ⊙ f'(x) given the activation output y = f(x).
// grad is not modified.
func (a Activation) Backward(output, grad *tensor.RawTensor) (*tensor.RawTensor, error) {
	if !output.Shape().Equal(grad.Shape()) {
		return nil, fmt.Errorf("%s backward: output %v vs grad %v: %w",
			a, output.Shape(), grad.Shape(), tensor.ErrShapeMismatch)
	}
	if output.DType() != grad.DType() {
		return nil, fmt.Errorf("%s backward: output %s vs grad %s: %w",
			a, output.DType(), grad.DType(), tensor.ErrDTypeMismatch)
	}
	out := grad.Clone()
	switch out.DType() {
	case tensor.Float32:
		activateGrad(a, output.AsFloat32(), out.AsFloat32())
	case tensor.Float64:
		activateGrad(a, output.AsFloat64(), out.AsFloat64())
	}
	return out, nil
}

func activate[T tensor.Float](a Activation, data []T) {
	switch a {
	case Sigmoid:
		for i, v := range data {
			data[i] = T(1 / (1 + math.Exp(-float64(v))))
		}
	case Tanh:
		for i, v := range data {
			data[i] = T(math.Tanh(float64(v)))
		}
	case ReLU:
		for i, v := range data {
			if v < 0 {
				data[i] = 0
			}
		}
	}
}

func activateGrad[T tensor.Float](a Activation, y, grad []T) {
	switch a {
	case Sigmoid:
		for i, v := range y {
			grad[i] *= v * (1 - v)
		}
	case Tanh:
		for i, v := range y {
			grad[i] *= 1 - v*v
		}
	case ReLU:
		for i, v := range y {
			if v <= 0 {
				grad[i] = 0
			}
		}
	}
}
