package cpu

import (
	"github.com/born-ml/seqconv/internal/parallel"
	"github.com/born-ml/seqconv/internal/tensor"
	"gonum.org/v1/gonum/blas"
)

// Conv1D performs a valid-mode 1-D cross-correlation using im2col + GEMM.
//
// Input shape:  [batch, width, channels]
// Filter shape: [n_filters, filter_width, channels]
// Output shape: [batch, width - filter_width + 1, n_filters]
//
//	y[n,p,f] = bias[f] + Σ_k Σ_c filters[f,k,c] · input[n,p+k,c]
//
// Algorithm, per batch row:
//  1. Im2col: [width, C] -> col [outW, fw*C]
//  2. The filter bank is already [F, fw*C] in row-major layout
//  3. Output rows start as bias; out += col · filtersᵀ (Sgemm/Dgemm)
func (cpu *CPUBackend) Conv1D(input, filters, bias *tensor.RawTensor) (*tensor.RawTensor, error) {
	g, err := tensor.CheckConv1D("conv1d", input, filters, bias)
	if err != nil {
		return nil, err
	}

	output, err := cpu.newOutput(tensor.Shape{g.Batch, g.OutWidth, g.Filters}, input.DType())
	if err != nil {
		return nil, err
	}

	switch input.DType() {
	case tensor.Float32:
		conv1d(output.AsFloat32(), input.AsFloat32(), filters.AsFloat32(), bias.AsFloat32(), g, cpu.par)
	case tensor.Float64:
		conv1d(output.AsFloat64(), input.AsFloat64(), filters.AsFloat64(), bias.AsFloat64(), g, cpu.par)
	}
	return output, nil
}

func conv1d[T tensor.Float](out, x, w, bias []T, g tensor.ConvGeometry, cfg parallel.Config) {
	k := g.FilterWidth * g.Channels
	inRow := g.Width * g.Channels
	outRow := g.OutWidth * g.Filters

	parallel.ForChunks(g.Batch, cfg, func(_, start, end int) {
		col := make([]T, g.OutWidth*k)
		for n := start; n < end; n++ {
			dst := out[n*outRow : (n+1)*outRow]
			for p := 0; p < g.OutWidth; p++ {
				copy(dst[p*g.Filters:(p+1)*g.Filters], bias)
			}
			im2col(col, x[n*inRow:(n+1)*inRow], g.OutWidth, g.FilterWidth, g.Channels)
			gemm(blas.NoTrans, blas.Trans, g.OutWidth, g.Filters, k,
				col, k, w, k, 1, dst, g.Filters)
		}
	})
}
