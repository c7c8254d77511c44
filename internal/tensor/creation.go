package tensor

import (
	"fmt"
	"math/rand"
)

// Zeros creates a zero-filled CPU tensor.
//
// Example:
//
//	t, err := tensor.Zeros(tensor.Shape{3, 4}, tensor.Float32)
func Zeros(shape Shape, dtype DataType) (*RawTensor, error) {
	return NewRaw(shape, dtype, CPU)
}

// FromSlice creates a CPU tensor holding a copy of data.
//
// Example:
//
//	t, err := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{2, 2})
func FromSlice[T Float](data []T, shape Shape) (*RawTensor, error) {
	t, err := NewRaw(shape, DataTypeOf[T](), CPU)
	if err != nil {
		return nil, err
	}
	if len(data) != t.NumElements() {
		return nil, shapeErr("from_slice", "%d values for shape %v", len(data), shape)
	}
	copy(Floats[T](t), data)
	return t, nil
}

// FromUint8 creates a Uint8 CPU tensor holding a copy of data.
func FromUint8(data []uint8, shape Shape) (*RawTensor, error) {
	t, err := NewRaw(shape, Uint8, CPU)
	if err != nil {
		return nil, err
	}
	if len(data) != t.NumElements() {
		return nil, shapeErr("from_uint8", "%d values for shape %v", len(data), shape)
	}
	copy(t.AsUint8(), data)
	return t, nil
}

// FromInt32 creates an Int32 CPU tensor holding a copy of data.
func FromInt32(data []int32, shape Shape) (*RawTensor, error) {
	t, err := NewRaw(shape, Int32, CPU)
	if err != nil {
		return nil, err
	}
	if len(data) != t.NumElements() {
		return nil, shapeErr("from_int32", "%d values for shape %v", len(data), shape)
	}
	copy(t.AsInt32(), data)
	return t, nil
}

// Full creates a float tensor with every element set to value.
func Full(shape Shape, dtype DataType, value float64) (*RawTensor, error) {
	t, err := NewRaw(shape, dtype, CPU)
	if err != nil {
		return nil, err
	}
	switch dtype {
	case Float32:
		data := t.AsFloat32()
		for i := range data {
			data[i] = float32(value)
		}
	case Float64:
		data := t.AsFloat64()
		for i := range data {
			data[i] = value
		}
	default:
		return nil, dtypeErr("full", "%s is not a float type", dtype)
	}
	return t, nil
}

// Rand creates a float tensor with values uniformly distributed in [0, 1).
// Note: Uses math/rand (not crypto/rand) - appropriate for ML/statistical purposes.
func Rand(shape Shape, dtype DataType, rng *rand.Rand) (*RawTensor, error) {
	t, err := NewRaw(shape, dtype, CPU)
	if err != nil {
		return nil, err
	}
	switch dtype {
	case Float32:
		data := t.AsFloat32()
		for i := range data {
			data[i] = rng.Float32()
		}
	case Float64:
		data := t.AsFloat64()
		for i := range data {
			data[i] = rng.Float64()
		}
	default:
		return nil, fmt.Errorf("rand: %w: %s is not a float type", ErrDTypeMismatch, dtype)
	}
	return t, nil
}
