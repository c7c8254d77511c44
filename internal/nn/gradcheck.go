package nn

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/seqconv/internal/tensor"
)

// ParameterVector flattens the parameter tensors into one float64 vector in
// parameter order.
func ParameterVector(params []*Parameter) []float64 {
	var v []float64
	for _, p := range params {
		v = append(v, p.Tensor().Float64s()...)
	}
	return v
}

// SetParameterVector writes v back into the parameter tensors.
func SetParameterVector(params []*Parameter, v []float64) error {
	n := 0
	for _, p := range params {
		n += p.Tensor().NumElements()
	}
	if len(v) != n {
		return fmt.Errorf("set parameter vector: got %d values for %d parameters: %w",
			len(v), n, tensor.ErrShapeMismatch)
	}
	for _, p := range params {
		t := p.Tensor()
		k := t.NumElements()
		switch t.DType() {
		case tensor.Float32:
			for i, x := range v[:k] {
				t.AsFloat32()[i] = float32(x)
			}
		case tensor.Float64:
			copy(t.AsFloat64(), v[:k])
		default:
			return fmt.Errorf("set parameter vector: %s is %s: %w", p.Name(), t.DType(), tensor.ErrDTypeMismatch)
		}
		v = v[k:]
	}
	return nil
}

// GradientVector flattens the stored gradients in parameter order. A
// parameter without a gradient contributes zeros.
func GradientVector(params []*Parameter) []float64 {
	var v []float64
	for _, p := range params {
		if g := p.Grad(); g != nil {
			v = append(v, g.Float64s()...)
			continue
		}
		v = append(v, make([]float64, p.Tensor().NumElements())...)
	}
	return v
}

// CheckGradient compares analytic against central differences of loss over
// every parameter and returns ||a - n|| / (||a|| + ||n||) with the numeric
// gradient. The parameters are restored before returning.
//
// Use float64 parameters; float32 rounding dominates small eps.
func CheckGradient(loss func() (float64, error), params []*Parameter, analytic []float64, eps float64) (float64, []float64, error) {
	theta := ParameterVector(params)
	if len(analytic) != len(theta) {
		return 0, nil, fmt.Errorf("check gradient: %d analytic values for %d parameters: %w",
			len(analytic), len(theta), tensor.ErrShapeMismatch)
	}
	defer func() { _ = SetParameterVector(params, theta) }()

	numeric := make([]float64, len(theta))
	probe := append([]float64(nil), theta...)
	eval := func(i int, x float64) (float64, error) {
		probe[i] = x
		if err := SetParameterVector(params, probe); err != nil {
			return 0, err
		}
		return loss()
	}
	for i, x := range theta {
		plus, err := eval(i, x+eps)
		if err != nil {
			return 0, nil, err
		}
		minus, err := eval(i, x-eps)
		if err != nil {
			return 0, nil, err
		}
		probe[i] = x
		numeric[i] = (plus - minus) / (2 * eps)
	}

	diff := make([]float64, len(theta))
	floats.SubTo(diff, analytic, numeric)
	denom := floats.Norm(analytic, 2) + floats.Norm(numeric, 2)
	if denom == 0 {
		return 0, numeric, nil
	}
	return floats.Norm(diff, 2) / denom, numeric, nil
}
