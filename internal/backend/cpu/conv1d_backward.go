package cpu

import (
	"github.com/born-ml/seqconv/internal/parallel"
	"github.com/born-ml/seqconv/internal/tensor"
	"gonum.org/v1/gonum/blas"
)

// Conv1DGradFilters computes the filter gradient of Conv1D.
//
//	dW[f,k,c] = Σ_{n,p} dfOutput[n,p,f] · input[n,p+k,c]
//
// Per batch row: dW_n = dfOutput_nᵀ · col_n, with col_n the im2col matrix of
// the row. Row contributions are accumulated in float64, one buffer per
// worker, and the worker buffers are merged in worker order.
//
// Output shape: [n_filters, filter_width, channels]
func (cpu *CPUBackend) Conv1DGradFilters(input, dfOutput *tensor.RawTensor, filterWidth int) (*tensor.RawTensor, error) {
	g, err := tensor.CheckConv1DGradFilters("conv1d_grad_filters", input, dfOutput, filterWidth)
	if err != nil {
		return nil, err
	}

	output, err := cpu.newOutput(tensor.Shape{g.Filters, g.FilterWidth, g.Channels}, input.DType())
	if err != nil {
		return nil, err
	}

	switch input.DType() {
	case tensor.Float32:
		conv1dGradFilters(output.AsFloat32(), input.AsFloat32(), dfOutput.AsFloat32(), g, cpu.par)
	case tensor.Float64:
		conv1dGradFilters(output.AsFloat64(), input.AsFloat64(), dfOutput.AsFloat64(), g, cpu.par)
	}
	return output, nil
}

func conv1dGradFilters[T tensor.Float](dw, x, dy []T, g tensor.ConvGeometry, cfg parallel.Config) {
	k := g.FilterWidth * g.Channels
	inRow := g.Width * g.Channels
	outRow := g.OutWidth * g.Filters

	partials := make([][]float64, parallel.Workers(g.Batch, cfg))
	parallel.ForChunks(g.Batch, cfg, func(worker, start, end int) {
		acc := make([]float64, g.Filters*k)
		col := make([]T, g.OutWidth*k)
		tmp := make([]T, g.Filters*k)
		for n := start; n < end; n++ {
			im2col(col, x[n*inRow:(n+1)*inRow], g.OutWidth, g.FilterWidth, g.Channels)
			gemm(blas.Trans, blas.NoTrans, g.Filters, k, g.OutWidth,
				dy[n*outRow:(n+1)*outRow], g.Filters, col, k, 0, tmp, k)
			for i, v := range tmp {
				acc[i] += float64(v)
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
	for i, v := range total {
		dw[i] = T(v)
	}
}

// Conv1DGradInput computes the input gradient of Conv1D.
//
//	dX[n,p,c] = Σ_f Σ_k filters[f,k,c] · dfOutput[n,p-k,f],  0 <= p-k < outW
//
// Per batch row: dcol = dfOutput_n · filters, then col2im scatters dcol back
// onto the [width, C] input layout. Rows are independent, so no reduction
// across workers is needed.
//
// Output shape: [batch, outW + filter_width - 1, channels]
func (cpu *CPUBackend) Conv1DGradInput(dfOutput, filters *tensor.RawTensor) (*tensor.RawTensor, error) {
	g, err := tensor.CheckConv1DGradInput("conv1d_grad_input", dfOutput, filters)
	if err != nil {
		return nil, err
	}

	output, err := cpu.newOutput(tensor.Shape{g.Batch, g.Width, g.Channels}, dfOutput.DType())
	if err != nil {
		return nil, err
	}

	switch dfOutput.DType() {
	case tensor.Float32:
		conv1dGradInput(output.AsFloat32(), dfOutput.AsFloat32(), filters.AsFloat32(), g, cpu.par)
	case tensor.Float64:
		conv1dGradInput(output.AsFloat64(), dfOutput.AsFloat64(), filters.AsFloat64(), g, cpu.par)
	}
	return output, nil
}

func conv1dGradInput[T tensor.Float](dx, dy, w []T, g tensor.ConvGeometry, cfg parallel.Config) {
	k := g.FilterWidth * g.Channels
	inRow := g.Width * g.Channels
	outRow := g.OutWidth * g.Filters

	parallel.ForChunks(g.Batch, cfg, func(_, start, end int) {
		dcol := make([]T, g.OutWidth*k)
		for n := start; n < end; n++ {
			gemm(blas.NoTrans, blas.NoTrans, g.OutWidth, k, g.Filters,
				dy[n*outRow:(n+1)*outRow], g.Filters, w, k, 0, dcol, k)
			col2im(dx[n*inRow:(n+1)*inRow], dcol, g.OutWidth, g.FilterWidth, g.Channels)
		}
	})
}
