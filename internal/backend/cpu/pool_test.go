package cpu

import (
	"math"
	"math/rand"
	"testing"

	"github.com/born-ml/seqconv/internal/reference"
	"github.com/born-ml/seqconv/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaxPool_Basic(t *testing.T) {
	cpu := New()
	// batch 1, width 6, 2 filters, pool 3
	x := fromFloat64(t, []float64{
		1, 9,
		5, 2,
		3, 9,
		-1, -4,
		-2, -3,
		-1, -5,
	}, 1, 6, 2)

	out, argmax, err := cpu.MaxPool(x, 3)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{1, 2, 2}, out.Shape())
	assert.Equal(t, tensor.Int32, argmax.DType())
	assert.Equal(t, []float64{5, 9, -1, -3}, out.AsFloat64())
	// Ties pick the lowest offset.
	assert.Equal(t, []int32{1, 0, 0, 1}, argmax.AsInt32())

	dx, err := cpu.MaxPoolGradient(x, argmax, fromFloat64(t, []float64{1, 2, 3, 4}, 1, 2, 2))
	require.NoError(t, err)
	assert.Equal(t, []float64{
		0, 2,
		1, 0,
		0, 0,
		3, 0,
		0, 4,
		0, 0,
	}, dx.AsFloat64())
}

func TestMaxPool_NaN(t *testing.T) {
	cpu := New()
	nan := math.NaN()
	x := fromFloat64(t, []float64{nan, 5, 1, 2, nan, 0}, 1, 6, 1)

	out, argmax, err := cpu.MaxPool(x, 3)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(out.AsFloat64()[0]))
	assert.Equal(t, 2.0, out.AsFloat64()[1])
	assert.Equal(t, []int32{0, 0}, argmax.AsInt32())
}

func TestMaxPoolGradient_MatchesReference(t *testing.T) {
	pools := []int{2, 3, 4, 5, 7, 8, 16, 31, 64, 100, 128, 255, 256}

	for _, pool := range pools {
		for name, cpu := range backends() {
			t.Run(name, func(t *testing.T) {
				rng := rand.New(rand.NewSource(int64(pool)))
				batch, nf, outW := 3, 4, 2
				width := pool * outW
				x := randn(t, rng, tensor.Float32, batch, width, nf)
				dy := randn(t, rng, tensor.Float32, batch, outW, nf)

				out, argmax, err := cpu.MaxPool(x, pool)
				require.NoError(t, err)

				wantOut, wantIdx := reference.MaxPool(x.Float64s(), batch, width, nf, pool)
				assert.Equal(t, wantOut, out.Float64s())
				assert.Equal(t, wantIdx, argmax.AsInt32())

				dx, err := cpu.MaxPoolGradient(x, argmax, dy)
				require.NoError(t, err)
				want := reference.MaxPoolGradient(argmax.AsInt32(), dy.Float64s(), batch, width, nf, outW)
				assert.Equal(t, want, dx.Float64s(), "pool %d", pool)
			})
		}
	}
}

func TestMaxPoolGradient_OnePerWindow(t *testing.T) {
	cpu := New()
	rng := rand.New(rand.NewSource(64))
	batch, width, nf, pool := 2, 640, 3, 64
	x := randn(t, rng, tensor.Float32, batch, width, nf)

	_, argmax, err := cpu.MaxPool(x, pool)
	require.NoError(t, err)
	ones, err := tensor.Full(tensor.Shape{batch, width / pool, nf}, tensor.Float32, 1)
	require.NoError(t, err)

	dx, err := cpu.MaxPoolGradient(x, argmax, ones)
	require.NoError(t, err)
	data := dx.AsFloat32()
	idx := argmax.AsInt32()

	for n := 0; n < batch; n++ {
		for q := 0; q < width/pool; q++ {
			for f := 0; f < nf; f++ {
				var sum float32
				for i := 0; i < pool; i++ {
					v := data[(n*width+q*pool+i)*nf+f]
					sum += v
					if i == int(idx[(n*width/pool+q)*nf+f]) {
						assert.Equal(t, float32(1), v)
					}
				}
				assert.Equal(t, float32(1), sum)
			}
		}
	}
}

func TestSumPool_MatchesReference(t *testing.T) {
	for _, pool := range []int{1, 2, 5, 8, 32} {
		for name, cpu := range backends() {
			t.Run(name, func(t *testing.T) {
				rng := rand.New(rand.NewSource(int64(pool)))
				batch, nf, outW := 4, 3, 5
				width := pool * outW
				x := randn(t, rng, tensor.Float64, batch, width, nf)
				dy := randn(t, rng, tensor.Float64, batch, outW, nf)

				out, err := cpu.SumPool(x, pool)
				require.NoError(t, err)
				assert.Equal(t, reference.SumPool(x.AsFloat64(), batch, width, nf, pool), out.AsFloat64())

				dx, err := cpu.SumPoolGradient(x, dy)
				require.NoError(t, err)
				assert.Equal(t, reference.SumPoolGradient(dy.AsFloat64(), batch, width, nf, outW), dx.AsFloat64())
			})
		}
	}
}

func TestPool_SingleRowSplitsWindows(t *testing.T) {
	par, seqBackend := backends()["parallel"], backends()["sequential"]
	rng := rand.New(rand.NewSource(11))
	batch, width, nf, pool := 1, 96, 5, 3
	x := randn(t, rng, tensor.Float32, batch, width, nf)
	dy := randn(t, rng, tensor.Float32, batch, width/pool, nf)

	want, err := seqBackend.SumPool(x, pool)
	require.NoError(t, err)
	got, err := par.SumPool(x, pool)
	require.NoError(t, err)
	assert.Equal(t, want.AsFloat32(), got.AsFloat32())

	_, argmax, err := seqBackend.MaxPool(x, pool)
	require.NoError(t, err)
	wantDx, err := seqBackend.MaxPoolGradient(x, argmax, dy)
	require.NoError(t, err)
	gotDx, err := par.MaxPoolGradient(x, argmax, dy)
	require.NoError(t, err)
	assert.Equal(t, wantDx.AsFloat32(), gotDx.AsFloat32())
	assert.Equal(t, reference.MaxPoolGradient(argmax.AsInt32(), dy.Float64s(), batch, width, nf, width/pool), gotDx.Float64s())
}

func TestPool_Errors(t *testing.T) {
	cpu := New()
	rng := rand.New(rand.NewSource(1))
	x := randn(t, rng, tensor.Float32, 2, 10, 3)

	_, _, err := cpu.MaxPool(x, 3)
	assert.ErrorIs(t, err, tensor.ErrShapeMismatch)
	_, _, err = cpu.MaxPool(x, 0)
	assert.ErrorIs(t, err, tensor.ErrShapeMismatch)
	_, err = cpu.SumPool(x, 4)
	assert.ErrorIs(t, err, tensor.ErrShapeMismatch)
	_, err = cpu.SumPool(randn(t, rng, tensor.Float32, 2, 10), 2)
	assert.ErrorIs(t, err, tensor.ErrShapeMismatch)

	// Pooled width that does not tile the input.
	_, err = cpu.SumPoolGradient(x, randn(t, rng, tensor.Float32, 2, 3, 3))
	assert.ErrorIs(t, err, tensor.ErrShapeMismatch)
	_, err = cpu.SumPoolGradient(x, randn(t, rng, tensor.Float32, 2, 5, 4))
	assert.ErrorIs(t, err, tensor.ErrShapeMismatch)

	dy := randn(t, rng, tensor.Float32, 2, 5, 3)
	_, err = cpu.MaxPoolGradient(x, fromInt32(t, make([]int32, 15), 1, 5, 3), dy)
	assert.ErrorIs(t, err, tensor.ErrShapeMismatch)

	bad := make([]int32, 30)
	bad[7] = 2
	_, err = cpu.MaxPoolGradient(x, fromInt32(t, bad, 2, 5, 3), dy)
	assert.ErrorIs(t, err, tensor.ErrIndexOutOfRange)

	bad[7] = -1
	_, err = cpu.MaxPoolGradient(x, fromInt32(t, bad, 2, 5, 3), dy)
	assert.ErrorIs(t, err, tensor.ErrIndexOutOfRange)

	_, err = cpu.MaxPoolGradient(x, dy, dy)
	assert.ErrorIs(t, err, tensor.ErrDTypeMismatch)
}

func BenchmarkMaxPool(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	x := randn(b, rng, tensor.Float32, 100, 640, 8)
	cpu := New()

	_, argmax, err := cpu.MaxPool(x, 64)
	if err != nil {
		b.Fatal(err)
	}
	dy := randn(b, rng, tensor.Float32, 100, 10, 8)

	b.Run("forward", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			if _, _, err := cpu.MaxPool(x, 64); err != nil {
				b.Fatal(err)
			}
		}
	})
	b.Run("gradient", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			if _, err := cpu.MaxPoolGradient(x, argmax, dy); err != nil {
				b.Fatal(err)
			}
		}
	})
}
