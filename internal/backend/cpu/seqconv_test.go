package cpu

import (
	"math/rand"
	"testing"

	"github.com/born-ml/seqconv/internal/reference"
	"github.com/born-ml/seqconv/internal/seq"
	"github.com/born-ml/seqconv/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvolveSequence_MatchesReference(t *testing.T) {
	tests := []struct {
		name                              string
		height, width, filterWidth, nFilt int
		ambiguous                         bool
	}{
		{"100x200 fw12 f8", 100, 200, 12, 8, false},
		{"ambiguous symbols", 17, 64, 7, 5, true},
		{"filter spans sequence", 3, 9, 9, 2, true},
		{"width-1 filter", 5, 11, 1, 3, true},
	}

	for _, tt := range tests {
		for name, cpu := range backends() {
			t.Run(tt.name+"/"+name, func(t *testing.T) {
				rng := rand.New(rand.NewSource(42))
				var seqs []string
				if tt.ambiguous {
					seqs = seq.SampleAmbiguous(tt.width, tt.height, rng)
				} else {
					seqs = seq.Sample(tt.width, tt.height, rng)
				}
				codes := encode(t, seqs)
				filters := randn(t, rng, tensor.Float32, tt.nFilt, tt.filterWidth, 4)
				bias := randn(t, rng, tensor.Float32, tt.nFilt)

				out, err := cpu.ConvolveSequence(codes, filters, bias)
				require.NoError(t, err)
				assert.Equal(t, tensor.Shape{tt.height, tt.width - tt.filterWidth + 1, tt.nFilt}, out.Shape())
				assert.Equal(t, tensor.Float32, out.DType())

				want := reference.ConvolveSequence(codes.AsUint8(), tt.height, tt.width,
					filters.Float64s(), tt.nFilt, tt.filterWidth, bias.Float64s())
				assert.Less(t, reference.MaxRelError(out.Float64s(), want), 1e-4)
			})
		}
	}
}

func TestConvolveSequence_AmbiguityShares(t *testing.T) {
	cpu := New()
	// One width-1 filter with distinct weights per base.
	filters := fromFloat64(t, []float64{1, 2, 4, 8}, 1, 1, 4)
	bias := fromFloat64(t, []float64{0}, 1)

	out, err := cpu.ConvolveSequence(encode(t, []string{"ACGTRYN"}), filters, bias)
	require.NoError(t, err)

	assert.Equal(t, []float64{
		1, 2, 4, 8,
		0.5 * (1 + 4), // R = A/G
		0.5 * (2 + 8), // Y = C/T
		0.25 * 15,     // N
	}, out.AsFloat64())
}

func TestConvolveSequenceGradient_AmbiguityShares(t *testing.T) {
	cpu := New()
	dy := fromFloat64(t, []float64{1, 1, 1}, 1, 3, 1)

	dw, err := cpu.ConvolveSequenceGradient(encode(t, []string{"RYN"}), dy, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{1, 1, 4}, dw.Shape())
	assert.Equal(t, []float64{0.75, 0.75, 0.75, 0.75}, dw.AsFloat64())
}

func TestConvolveSequenceGradient_MatchesReference(t *testing.T) {
	for name, cpu := range backends() {
		t.Run(name, func(t *testing.T) {
			rng := rand.New(rand.NewSource(7))
			height, width, fw, nf := 100, 200, 12, 8
			codes := encode(t, seq.SampleAmbiguous(width, height, rng))
			dy := randn(t, rng, tensor.Float32, height, width-fw+1, nf)

			dw, err := cpu.ConvolveSequenceGradient(codes, dy, fw, nf)
			require.NoError(t, err)
			assert.Equal(t, tensor.Shape{nf, fw, 4}, dw.Shape())

			want := reference.ConvolveSequenceGradient(codes.AsUint8(), height, width, dy.Float64s(), fw, nf)
			assert.Less(t, reference.MaxRelError(dw.Float64s(), want), 1e-3)
		})
	}
}

func TestConvolveSequence_EqualsConv1DOfOneHot(t *testing.T) {
	cpu := New()
	rng := rand.New(rand.NewSource(3))
	codes := encode(t, seq.SampleAmbiguous(40, 6, rng))
	filters := randn(t, rng, tensor.Float64, 4, 5, 4)
	bias := randn(t, rng, tensor.Float64, 4)

	got, err := cpu.ConvolveSequence(codes, filters, bias)
	require.NoError(t, err)

	oneHot, err := seq.OneHot(codes, tensor.Float64)
	require.NoError(t, err)
	want, err := cpu.Conv1D(oneHot, filters, bias)
	require.NoError(t, err)

	assert.InDeltaSlice(t, want.AsFloat64(), got.AsFloat64(), 1e-12)

	// Gradients agree as well.
	dy := randn(t, rng, tensor.Float64, 6, 36, 4)
	gotDW, err := cpu.ConvolveSequenceGradient(codes, dy, 5, 4)
	require.NoError(t, err)
	wantDW, err := cpu.Conv1DGradFilters(oneHot, dy, 5)
	require.NoError(t, err)
	assert.InDeltaSlice(t, wantDW.AsFloat64(), gotDW.AsFloat64(), 1e-9)
}

func TestConvolveSequence_ParallelAgreement(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	codes := encode(t, seq.SampleAmbiguous(50, 33, rng))
	filters := randn(t, rng, tensor.Float32, 6, 8, 4)
	bias := randn(t, rng, tensor.Float32, 6)
	dy := randn(t, rng, tensor.Float32, 33, 43, 6)

	b := backends()
	par, sequential := b["parallel"], b["sequential"]

	outP, err := par.ConvolveSequence(codes, filters, bias)
	require.NoError(t, err)
	outS, err := sequential.ConvolveSequence(codes, filters, bias)
	require.NoError(t, err)
	assert.Equal(t, outS.AsFloat32(), outP.AsFloat32())

	dwP, err := par.ConvolveSequenceGradient(codes, dy, 8, 6)
	require.NoError(t, err)
	dwS, err := sequential.ConvolveSequenceGradient(codes, dy, 8, 6)
	require.NoError(t, err)
	assert.InDeltaSlice(t, dwS.Float64s(), dwP.Float64s(), 1e-4)

	// A fixed configuration is deterministic.
	again, err := par.ConvolveSequenceGradient(codes, dy, 8, 6)
	require.NoError(t, err)
	assert.Equal(t, dwP.AsFloat32(), again.AsFloat32())
}

func TestConvolveSequence_Errors(t *testing.T) {
	cpu := New()
	rng := rand.New(rand.NewSource(1))
	codes := encode(t, seq.Sample(10, 2, rng))
	filters := randn(t, rng, tensor.Float32, 3, 4, 4)
	bias := randn(t, rng, tensor.Float32, 3)

	badCodes, err := tensor.FromUint8([]uint8{0, 1, 2, 7, 0, 1}, tensor.Shape{1, 6})
	require.NoError(t, err)

	tests := []struct {
		name                 string
		input, filters, bias *tensor.RawTensor
		target               error
	}{
		{"width below filter width", encode(t, []string{"ACG"}), filters, bias, tensor.ErrShapeMismatch},
		{"three channel filters", codes, randn(t, rng, tensor.Float32, 3, 4, 3), bias, tensor.ErrShapeMismatch},
		{"bias length", codes, filters, randn(t, rng, tensor.Float32, 2), tensor.ErrShapeMismatch},
		{"bias dtype", codes, filters, randn(t, rng, tensor.Float64, 3), tensor.ErrDTypeMismatch},
		{"float input", randn(t, rng, tensor.Float32, 2, 10), filters, bias, tensor.ErrDTypeMismatch},
		{"rank 3 input", randn(t, rng, tensor.Float32, 2, 10, 4), filters, bias, tensor.ErrShapeMismatch},
		{"invalid code", badCodes, filters, bias, seq.ErrInvalidSymbol},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := cpu.ConvolveSequence(tt.input, tt.filters, tt.bias)
			assert.Nil(t, out)
			assert.ErrorIs(t, err, tt.target)
		})
	}
}

func TestConvolveSequenceGradient_Errors(t *testing.T) {
	cpu := New()
	rng := rand.New(rand.NewSource(1))
	codes := encode(t, seq.Sample(10, 2, rng))

	_, err := cpu.ConvolveSequenceGradient(codes, randn(t, rng, tensor.Float32, 2, 6, 3), 4, 3)
	assert.ErrorIs(t, err, tensor.ErrShapeMismatch)

	_, err = cpu.ConvolveSequenceGradient(codes, randn(t, rng, tensor.Float32, 2, 7, 3), 4, 4)
	assert.ErrorIs(t, err, tensor.ErrShapeMismatch)

	_, err = cpu.ConvolveSequenceGradient(codes, randn(t, rng, tensor.Float32, 2, 7, 3), 11, 3)
	assert.ErrorIs(t, err, tensor.ErrShapeMismatch)
}

func BenchmarkConvolveSequence(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	codes := encode(b, seq.Sample(200, 100, rng))
	filters := randn(b, rng, tensor.Float32, 8, 12, 4)
	bias := randn(b, rng, tensor.Float32, 8)

	for name, cpu := range backends() {
		b.Run(name, func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				if _, err := cpu.ConvolveSequence(codes, filters, bias); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkConvolveSequenceGradient(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	codes := encode(b, seq.Sample(200, 100, rng))
	dy := randn(b, rng, tensor.Float32, 100, 189, 8)

	for name, cpu := range backends() {
		b.Run(name, func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				if _, err := cpu.ConvolveSequenceGradient(codes, dy, 12, 8); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
