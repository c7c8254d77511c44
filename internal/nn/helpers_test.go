package nn

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/born-ml/seqconv/internal/backend/cpu"
	"github.com/born-ml/seqconv/internal/seq"
	"github.com/born-ml/seqconv/internal/tensor"
)

func newBackend() *cpu.CPUBackend {
	return cpu.New()
}

// sampleCodes returns [batch, width] codes drawn from all seven symbols.
func sampleCodes(t testing.TB, rng *rand.Rand, batch, width int) *tensor.RawTensor {
	t.Helper()
	codes, err := seq.Encode(seq.SampleAmbiguous(width, batch, rng))
	require.NoError(t, err)
	return codes
}

// uniform returns a float tensor with values in [-1, 1).
func uniform(t testing.TB, rng *rand.Rand, dtype tensor.DataType, shape ...int) *tensor.RawTensor {
	t.Helper()
	data := make([]float64, tensor.Shape(shape).NumElements())
	for i := range data {
		data[i] = 2*rng.Float64() - 1
	}
	return fromFloat64s(t, dtype, data, shape...)
}

func fromFloat64s(t testing.TB, dtype tensor.DataType, data []float64, shape ...int) *tensor.RawTensor {
	t.Helper()
	if dtype == tensor.Float64 {
		r, err := tensor.FromSlice(data, tensor.Shape(shape))
		require.NoError(t, err)
		return r
	}
	f := make([]float32, len(data))
	for i, v := range data {
		f[i] = float32(v)
	}
	r, err := tensor.FromSlice(f, tensor.Shape(shape))
	require.NoError(t, err)
	return r
}

func sum(t *tensor.RawTensor) float64 {
	var s float64
	for _, v := range t.Float64s() {
		s += v
	}
	return s
}
