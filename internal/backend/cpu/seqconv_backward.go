package cpu

import (
	"fmt"

	"github.com/born-ml/seqconv/internal/parallel"
	"github.com/born-ml/seqconv/internal/seq"
	"github.com/born-ml/seqconv/internal/tensor"
)

// ConvolveSequenceGradient computes the filter gradient of ConvolveSequence.
//
//	dW[f,k,c] = Σ_{n,j} dfOutput[n,j,f] · Weights(input[n,j+k])[c]
//
// Algorithm: per-symbol accumulation
//  1. Each worker sums dfOutput[n,j,f] into acc[f,k,symbol(n,j+k)] for its
//     batch rows, in float64.
//  2. Worker partials are merged in worker order.
//  3. The 7 symbol sums of every (f, k) are projected through the weight
//     table, which applies the same fractional shares as the forward pass.
//
// The result has dfOutput's dtype and shape [n_filters, filter_width, 4].
func (cpu *CPUBackend) ConvolveSequenceGradient(input, dfOutput *tensor.RawTensor, filterWidth, nFilters int) (*tensor.RawTensor, error) {
	const op = "convolve_sequence_gradient"
	g, err := tensor.CheckConvolveSequenceGradient(op, input, dfOutput, filterWidth, nFilters)
	if err != nil {
		return nil, err
	}
	if err := seq.CheckCodes(input); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	output, err := cpu.newOutput(tensor.Shape{g.Filters, g.FilterWidth, seq.Channels}, dfOutput.DType())
	if err != nil {
		return nil, err
	}

	switch dfOutput.DType() {
	case tensor.Float32:
		convolveSequenceGradient(output.AsFloat32(), input.AsUint8(), dfOutput.AsFloat32(), g, cpu.par)
	case tensor.Float64:
		convolveSequenceGradient(output.AsFloat64(), input.AsUint8(), dfOutput.AsFloat64(), g, cpu.par)
	}
	return output, nil
}

func convolveSequenceGradient[T tensor.Float](dw []T, x []uint8, dy []T, g tensor.ConvGeometry, cfg parallel.Config) {
	fw, nf := g.FilterWidth, g.Filters
	size := nf * fw * seq.NumSymbols

	partials := make([][]float64, parallel.Workers(g.Batch, cfg))
	parallel.ForChunks(g.Batch, cfg, func(worker, start, end int) {
		acc := make([]float64, size)
		for n := start; n < end; n++ {
			row := x[n*g.Width : (n+1)*g.Width]
			for j := 0; j < g.OutWidth; j++ {
				window := row[j : j+fw]
				grad := dy[(n*g.OutWidth+j)*nf : (n*g.OutWidth+j+1)*nf]
				for f, gv := range grad {
					if gv == 0 {
						continue
					}
					base := f * fw * seq.NumSymbols
					for k, code := range window {
						acc[base+k*seq.NumSymbols+int(code)] += float64(gv)
					}
				}
			}
		}
		partials[worker] = acc
	})

	total := partials[0]
	for _, p := range partials[1:] {
		for i, v := range p {
			total[i] += v
		}
	}

	table := seq.Table[float64]()
	for fk := 0; fk < nf*fw; fk++ {
		sums := total[fk*seq.NumSymbols : (fk+1)*seq.NumSymbols]
		for c := 0; c < seq.Channels; c++ {
			var v float64
			for s, sum := range sums {
				v += sum * table[s][c]
			}
			dw[fk*seq.Channels+c] = T(v)
		}
	}
}
