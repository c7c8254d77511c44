package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func zeros(t *testing.T, dtype DataType, shape ...int) *RawTensor {
	t.Helper()
	r, err := NewRaw(Shape(shape), dtype, CPU)
	require.NoError(t, err)
	return r
}

func TestCheckConvolveSequence(t *testing.T) {
	codes := zeros(t, Uint8, 3, 10)
	filters := zeros(t, Float32, 5, 4, SequenceChannels)
	bias := zeros(t, Float32, 5)

	g, err := CheckConvolveSequence("op", codes, filters, bias)
	require.NoError(t, err)
	assert.Equal(t, ConvGeometry{Batch: 3, Width: 10, Channels: 4, Filters: 5, FilterWidth: 4, OutWidth: 7}, g)

	tests := []struct {
		name    string
		input   *RawTensor
		filters *RawTensor
		bias    *RawTensor
		want    error
	}{
		{"float input", zeros(t, Float32, 3, 10), filters, bias, ErrDTypeMismatch},
		{"3D input", zeros(t, Uint8, 3, 10, 1), filters, bias, ErrShapeMismatch},
		{"nil input", nil, filters, bias, ErrShapeMismatch},
		{"five channels", codes, zeros(t, Float32, 5, 4, 5), bias, ErrShapeMismatch},
		{"int filters", codes, zeros(t, Int32, 5, 4, 4), bias, ErrDTypeMismatch},
		{"bias length", codes, filters, zeros(t, Float32, 4), ErrShapeMismatch},
		{"bias dtype", codes, filters, zeros(t, Float64, 5), ErrDTypeMismatch},
		{"filter too wide", zeros(t, Uint8, 3, 3), filters, bias, ErrShapeMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CheckConvolveSequence("convolve_sequence", tt.input, tt.filters, tt.bias)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Contains(t, err.Error(), "convolve_sequence")
		})
	}
}

func TestCheckConvolveSequenceGradient(t *testing.T) {
	codes := zeros(t, Uint8, 2, 8)
	g, err := CheckConvolveSequenceGradient("op", codes, zeros(t, Float64, 2, 6, 3), 3, 3)
	require.NoError(t, err)
	assert.Equal(t, 6, g.OutWidth)

	_, err = CheckConvolveSequenceGradient("op", codes, zeros(t, Float64, 2, 5, 3), 3, 3)
	assert.ErrorIs(t, err, ErrShapeMismatch)
	_, err = CheckConvolveSequenceGradient("op", codes, zeros(t, Float64, 2, 6, 3), 3, 0)
	assert.ErrorIs(t, err, ErrShapeMismatch)
	_, err = CheckConvolveSequenceGradient("op", codes, zeros(t, Float64, 2, 6, 3), 0, 3)
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestCheckConv1D(t *testing.T) {
	input := zeros(t, Float32, 2, 9, 3)
	filters := zeros(t, Float32, 4, 2, 3)

	g, err := CheckConv1D("op", input, filters, zeros(t, Float32, 4))
	require.NoError(t, err)
	assert.Equal(t, ConvGeometry{Batch: 2, Width: 9, Channels: 3, Filters: 4, FilterWidth: 2, OutWidth: 8}, g)

	_, err = CheckConv1D("op", input, zeros(t, Float32, 4, 2, 2), zeros(t, Float32, 4))
	assert.ErrorIs(t, err, ErrShapeMismatch)
	_, err = CheckConv1D("op", input, zeros(t, Float64, 4, 2, 3), zeros(t, Float64, 4))
	assert.ErrorIs(t, err, ErrDTypeMismatch)

	g, err = CheckConv1DGradFilters("op", input, zeros(t, Float32, 2, 8, 4), 2)
	require.NoError(t, err)
	assert.Equal(t, 4, g.Filters)
	_, err = CheckConv1DGradFilters("op", input, zeros(t, Float32, 2, 7, 4), 2)
	assert.ErrorIs(t, err, ErrShapeMismatch)

	g, err = CheckConv1DGradInput("op", zeros(t, Float32, 2, 8, 4), filters)
	require.NoError(t, err)
	assert.Equal(t, 9, g.Width)
	_, err = CheckConv1DGradInput("op", zeros(t, Float32, 2, 8, 5), filters)
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestCheckPool(t *testing.T) {
	input := zeros(t, Float64, 2, 12, 3)

	g, err := CheckPool("op", input, 4)
	require.NoError(t, err)
	assert.Equal(t, PoolGeometry{Batch: 2, Width: 12, Filters: 3, PoolSize: 4, OutWidth: 3}, g)

	_, err = CheckPool("op", input, 5)
	assert.ErrorIs(t, err, ErrShapeMismatch)
	_, err = CheckPool("op", input, 0)
	assert.ErrorIs(t, err, ErrShapeMismatch)
	_, err = CheckPool("op", zeros(t, Int32, 2, 12, 3), 4)
	assert.ErrorIs(t, err, ErrDTypeMismatch)

	grad := zeros(t, Float64, 2, 3, 3)
	g, err = CheckPoolGradient("op", input, grad)
	require.NoError(t, err)
	assert.Equal(t, 4, g.PoolSize)
	_, err = CheckPoolGradient("op", input, zeros(t, Float64, 2, 5, 3))
	assert.ErrorIs(t, err, ErrShapeMismatch)
	_, err = CheckPoolGradient("op", input, zeros(t, Float32, 2, 3, 3))
	assert.ErrorIs(t, err, ErrDTypeMismatch)

	_, err = CheckMaxPoolGradient("op", input, zeros(t, Int32, 2, 3, 3), grad)
	assert.NoError(t, err)
	_, err = CheckMaxPoolGradient("op", input, zeros(t, Float64, 2, 3, 3), grad)
	assert.ErrorIs(t, err, ErrDTypeMismatch)
	_, err = CheckMaxPoolGradient("op", input, zeros(t, Int32, 2, 3, 1), grad)
	assert.ErrorIs(t, err, ErrShapeMismatch)
}
