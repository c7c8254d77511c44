package nn

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/seqconv/internal/reference"
	"github.com/born-ml/seqconv/internal/tensor"
)

func TestMaxPooling_ForwardBackward(t *testing.T) {
	rng := rand.New(rand.NewSource(10))
	const batch, width, nFilters, pool = 3, 24, 5, 4
	outW := width / pool

	layer, err := NewMaxPooling(newBackend(), pool)
	require.NoError(t, err)
	fm := uniform(t, rng, tensor.Float64, batch, width, nFilters)

	act, argmax, err := layer.Forward(fm)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{batch, outW * nFilters}, act.Shape())
	assert.Equal(t, tensor.Shape{batch, outW, nFilters}, argmax.Shape())

	want, wantArgmax := reference.MaxPool(fm.Float64s(), batch, width, nFilters, pool)
	assert.Equal(t, want, act.Float64s())
	assert.Equal(t, wantArgmax, argmax.AsInt32())

	df := uniform(t, rng, tensor.Float64, batch, outW*nFilters)
	dfm, err := layer.Backward(fm, argmax, df)
	require.NoError(t, err)
	assert.Equal(t, fm.Shape(), dfm.Shape())
	assert.Equal(t, reference.MaxPoolGradient(wantArgmax, df.Float64s(), batch, width, nFilters, outW), dfm.Float64s())
	assert.Empty(t, layer.Parameters())
	assert.Equal(t, pool, layer.PoolSize())
}

func TestMaxPooling_BackwardRejectsWrongGradient(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	layer, err := NewMaxPooling(newBackend(), 2)
	require.NoError(t, err)
	fm := uniform(t, rng, tensor.Float32, 2, 8, 3)
	_, argmax, err := layer.Forward(fm)
	require.NoError(t, err)

	_, err = layer.Backward(fm, argmax, uniform(t, rng, tensor.Float32, 2, 11))
	assert.ErrorIs(t, err, tensor.ErrShapeMismatch)
}

func TestSumPooling_ForwardBackward(t *testing.T) {
	rng := rand.New(rand.NewSource(12))
	const batch, width, nFilters, pool = 2, 18, 4, 6
	outW := width / pool

	layer, err := NewSumPooling(newBackend(), pool)
	require.NoError(t, err)
	fm := uniform(t, rng, tensor.Float64, batch, width, nFilters)

	act, err := layer.Forward(fm)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{batch, outW * nFilters}, act.Shape())
	assert.InDeltaSlice(t, reference.SumPool(fm.Float64s(), batch, width, nFilters, pool), act.Float64s(), 1e-12)

	df := uniform(t, rng, tensor.Float64, batch, outW*nFilters)
	dfm, err := layer.Backward(fm, df)
	require.NoError(t, err)
	assert.Equal(t, reference.SumPoolGradient(df.Float64s(), batch, width, nFilters, outW), dfm.Float64s())

	_, err = layer.Backward(uniform(t, rng, tensor.Float64, batch, width+1, nFilters), df)
	assert.ErrorIs(t, err, tensor.ErrShapeMismatch)
}

func TestPooling_ConstructorErrors(t *testing.T) {
	_, err := NewMaxPooling(newBackend(), 0)
	assert.Error(t, err)
	_, err = NewSumPooling(newBackend(), -1)
	assert.Error(t, err)
}

func TestPooling_RejectsNonDividingWidth(t *testing.T) {
	rng := rand.New(rand.NewSource(13))
	fm := uniform(t, rng, tensor.Float32, 1, 10, 2)

	mp, err := NewMaxPooling(newBackend(), 3)
	require.NoError(t, err)
	_, _, err = mp.Forward(fm)
	assert.ErrorIs(t, err, tensor.ErrShapeMismatch)

	sp, err := NewSumPooling(newBackend(), 4)
	require.NoError(t, err)
	_, err = sp.Forward(fm)
	assert.ErrorIs(t, err, tensor.ErrShapeMismatch)
}
