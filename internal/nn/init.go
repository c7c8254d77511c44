package nn

import (
	"math"
	"math/rand"

	"github.com/born-ml/seqconv/internal/tensor"
)

// Xavier (Glorot) initialization for weights.
//
// Initializes weights with values drawn from a uniform distribution:
// U(-sqrt(6/(fan_in + fan_out)), sqrt(6/(fan_in + fan_out)))
//
// rng makes initialization reproducible; callers own its seed.
func Xavier(fanIn, fanOut int, shape tensor.Shape, dtype tensor.DataType, rng *rand.Rand) (*tensor.RawTensor, error) {
	bound := math.Sqrt(6.0 / float64(fanIn+fanOut))

	t, err := tensor.Zeros(shape, dtype)
	if err != nil {
		return nil, err
	}

	switch dtype {
	case tensor.Float32:
		data := t.AsFloat32()
		for i := range data {
			data[i] = float32((rng.Float64()*2.0 - 1.0) * bound)
		}
	case tensor.Float64:
		data := t.AsFloat64()
		for i := range data {
			data[i] = (rng.Float64()*2.0 - 1.0) * bound
		}
	default:
		return nil, tensor.ErrDTypeMismatch
	}
	return t, nil
}

// newFilterGroup initializes a sequence filter bank with Xavier weights and
// zero bias.
func newFilterGroup(name string, nFilters, filterWidth int, dtype tensor.DataType, rng *rand.Rand) (*ParameterGroup, error) {
	weight, err := Xavier(filterWidth*tensor.SequenceChannels, nFilters,
		tensor.Shape{nFilters, filterWidth, tensor.SequenceChannels}, dtype, rng)
	if err != nil {
		return nil, err
	}
	bias, err := tensor.Zeros(tensor.Shape{nFilters}, dtype)
	if err != nil {
		return nil, err
	}
	return NewParameterGroup(name, weight, bias)
}
