package cpu

import (
	"fmt"

	"github.com/born-ml/seqconv/internal/parallel"
	"github.com/born-ml/seqconv/internal/seq"
	"github.com/born-ml/seqconv/internal/tensor"
)

// ConvolveSequence convolves filters over symbol-coded sequences.
//
// Input shape:  [batch, width] Uint8 symbol codes
// Filter shape: [n_filters, filter_width, 4]
// Output shape: [batch, width - filter_width + 1, n_filters]
//
//	y[n,j,f] = bias[f] + Σ_k Σ_c filters[f,k,c] · Weights(input[n,j+k])[c]
//
// Algorithm: symbol lookup table
//  1. For every (f, k) precompute the dot product of filters[f,k,:] with
//     each of the 7 symbol weight rows. Ambiguous symbols get their
//     fractional share here, once.
//  2. Each output is then bias plus filter_width table lookups.
func (cpu *CPUBackend) ConvolveSequence(input, filters, bias *tensor.RawTensor) (*tensor.RawTensor, error) {
	g, err := tensor.CheckConvolveSequence("convolve_sequence", input, filters, bias)
	if err != nil {
		return nil, err
	}
	if err := seq.CheckCodes(input); err != nil {
		return nil, fmt.Errorf("convolve_sequence: %w", err)
	}

	output, err := cpu.newOutput(tensor.Shape{g.Batch, g.OutWidth, g.Filters}, filters.DType())
	if err != nil {
		return nil, err
	}

	switch filters.DType() {
	case tensor.Float32:
		convolveSequence(output.AsFloat32(), input.AsUint8(), filters.AsFloat32(), bias.AsFloat32(), g, cpu.par)
	case tensor.Float64:
		convolveSequence(output.AsFloat64(), input.AsUint8(), filters.AsFloat64(), bias.AsFloat64(), g, cpu.par)
	}
	return output, nil
}

// symbolScores returns scores[(f*fw+k)*NumSymbols+s] = Σ_c w[f,k,c]·table[s][c].
func symbolScores[T tensor.Float](w []T, g tensor.ConvGeometry) []T {
	table := seq.Table[T]()
	scores := make([]T, g.Filters*g.FilterWidth*seq.NumSymbols)
	for fk := 0; fk < g.Filters*g.FilterWidth; fk++ {
		wv := w[fk*seq.Channels : (fk+1)*seq.Channels]
		for s := 0; s < seq.NumSymbols; s++ {
			var dot T
			for c := 0; c < seq.Channels; c++ {
				dot += wv[c] * table[s][c]
			}
			scores[fk*seq.NumSymbols+s] = dot
		}
	}
	return scores
}

func convolveSequence[T tensor.Float](out []T, x []uint8, w, bias []T, g tensor.ConvGeometry, cfg parallel.Config) {
	scores := symbolScores(w, g)
	fw, nf := g.FilterWidth, g.Filters

	parallel.For(g.Batch, func(n int) {
		row := x[n*g.Width : (n+1)*g.Width]
		for j := 0; j < g.OutWidth; j++ {
			window := row[j : j+fw]
			dst := out[(n*g.OutWidth+j)*nf : (n*g.OutWidth+j+1)*nf]
			for f := 0; f < nf; f++ {
				sum := bias[f]
				fs := scores[f*fw*seq.NumSymbols : (f+1)*fw*seq.NumSymbols]
				for k, code := range window {
					sum += fs[k*seq.NumSymbols+int(code)]
				}
				dst[f] = sum
			}
		}
	}, cfg)
}
