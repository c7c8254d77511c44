package cpu

import (
	"math/rand"
	"testing"

	"github.com/born-ml/seqconv/internal/parallel"
	"github.com/born-ml/seqconv/internal/seq"
	"github.com/born-ml/seqconv/internal/tensor"
	"github.com/stretchr/testify/require"
)

// backends returns a parallel and a single-threaded CPU backend.
func backends() map[string]*CPUBackend {
	return map[string]*CPUBackend{
		"parallel":   NewWithConfig(parallel.Config{Enabled: true, NumWorkers: 4, MinChunkSize: 1}),
		"sequential": NewWithConfig(parallel.Sequential()),
	}
}

// randn returns a tensor with values uniform in [-1, 1).
func randn(t testing.TB, rng *rand.Rand, dtype tensor.DataType, shape ...int) *tensor.RawTensor {
	t.Helper()
	r, err := tensor.Rand(tensor.Shape(shape), dtype, rng)
	require.NoError(t, err)
	switch dtype {
	case tensor.Float32:
		for i, v := range r.AsFloat32() {
			r.AsFloat32()[i] = 2*v - 1
		}
	case tensor.Float64:
		for i, v := range r.AsFloat64() {
			r.AsFloat64()[i] = 2*v - 1
		}
	}
	return r
}

func encode(t testing.TB, seqs []string) *tensor.RawTensor {
	t.Helper()
	codes, err := seq.Encode(seqs)
	require.NoError(t, err)
	return codes
}

func fromInt32(t testing.TB, data []int32, shape ...int) *tensor.RawTensor {
	t.Helper()
	r, err := tensor.FromInt32(data, tensor.Shape(shape))
	require.NoError(t, err)
	return r
}

func fromFloat64(t testing.TB, data []float64, shape ...int) *tensor.RawTensor {
	t.Helper()
	r, err := tensor.FromSlice(data, tensor.Shape(shape))
	require.NoError(t, err)
	return r
}
