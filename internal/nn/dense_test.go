package nn

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/seqconv/internal/tensor"
)

func TestDense_ForwardBackward(t *testing.T) {
	rng := rand.New(rand.NewSource(20))
	const batch, in, out = 3, 5, 2

	fc, err := NewDense(newBackend(), "fc", in, out, Linear, tensor.Float64, rng)
	require.NoError(t, err)
	copy(fc.Bias().Tensor().AsFloat64(), []float64{0.5, -1})
	w := fc.Weight().Tensor().AsFloat64() // [out, 1, in]
	b := fc.Bias().Tensor().AsFloat64()
	x := uniform(t, rng, tensor.Float64, batch, in)
	xs := x.AsFloat64()

	y, err := fc.Forward(x)
	require.NoError(t, err)
	require.Equal(t, tensor.Shape{batch, out}, y.Shape())
	for n := 0; n < batch; n++ {
		for o := 0; o < out; o++ {
			want := b[o]
			for i := 0; i < in; i++ {
				want += xs[n*in+i] * w[o*in+i]
			}
			assert.InDelta(t, want, y.AsFloat64()[n*out+o], 1e-12)
		}
	}

	dy := uniform(t, rng, tensor.Float64, batch, out)
	dys := dy.AsFloat64()
	dx, err := fc.Backward(x, y, dy)
	require.NoError(t, err)
	require.Equal(t, tensor.Shape{batch, in}, dx.Shape())
	for n := 0; n < batch; n++ {
		for i := 0; i < in; i++ {
			var want float64
			for o := 0; o < out; o++ {
				want += dys[n*out+o] * w[o*in+i]
			}
			assert.InDelta(t, want, dx.AsFloat64()[n*in+i], 1e-12)
		}
	}

	dW := fc.Weight().Grad().AsFloat64()
	db := fc.Bias().Grad().AsFloat64()
	for o := 0; o < out; o++ {
		var wantB float64
		for n := 0; n < batch; n++ {
			wantB += dys[n*out+o]
		}
		assert.InDelta(t, wantB, db[o], 1e-12)
		for i := 0; i < in; i++ {
			var want float64
			for n := 0; n < batch; n++ {
				want += dys[n*out+o] * xs[n*in+i]
			}
			assert.InDelta(t, want, dW[o*in+i], 1e-12)
		}
	}
}

func TestDense_Errors(t *testing.T) {
	rng := rand.New(rand.NewSource(21))
	_, err := NewDense(newBackend(), "fc", 0, 2, Linear, tensor.Float32, rng)
	assert.Error(t, err)
	_, err = NewDense(newBackend(), "fc", 2, 2, Activation(-1), tensor.Float32, rng)
	assert.Error(t, err)

	fc, err := NewDense(newBackend(), "fc", 4, 2, Tanh, tensor.Float32, rng)
	require.NoError(t, err)
	assert.Equal(t, 4, fc.InFeatures())
	assert.Equal(t, 2, fc.OutFeatures())
	_, err = fc.Forward(uniform(t, rng, tensor.Float32, 3, 5))
	assert.ErrorIs(t, err, tensor.ErrShapeMismatch)
}
