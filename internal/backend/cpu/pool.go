package cpu

import (
	"github.com/born-ml/seqconv/internal/parallel"
	"github.com/born-ml/seqconv/internal/tensor"
)

// MaxPool performs non-overlapping max pooling along the width axis.
//
// Input shape:  [batch, width, n_filters], width % poolSize == 0
// Output shape: [batch, width / poolSize, n_filters]
// Argmax:       Int32, same shape as the output, holding the in-window
// offset in [0, poolSize) of each selected maximum.
//
// Ties go to the lowest offset: the scan starts at offset 0 and only a
// strictly greater value replaces the current maximum. A NaN at offset 0 is
// therefore kept, and a later NaN never wins.
func (cpu *CPUBackend) MaxPool(input *tensor.RawTensor, poolSize int) (output, argmax *tensor.RawTensor, err error) {
	g, err := tensor.CheckPool("max_pool", input, poolSize)
	if err != nil {
		return nil, nil, err
	}

	outShape := tensor.Shape{g.Batch, g.OutWidth, g.Filters}
	output, err = cpu.newOutput(outShape, input.DType())
	if err != nil {
		return nil, nil, err
	}
	argmax, err = cpu.newOutput(outShape, tensor.Int32)
	if err != nil {
		return nil, nil, err
	}

	switch input.DType() {
	case tensor.Float32:
		maxPool(output.AsFloat32(), argmax.AsInt32(), input.AsFloat32(), g, cpu.par)
	case tensor.Float64:
		maxPool(output.AsFloat64(), argmax.AsInt32(), input.AsFloat64(), g, cpu.par)
	}
	return output, argmax, nil
}

func maxPool[T tensor.Float](out []T, idx []int32, x []T, g tensor.PoolGeometry, cfg parallel.Config) {
	nf := g.Filters
	parallel.For(g.Batch, func(n int) {
		for q := 0; q < g.OutWidth; q++ {
			window := x[(n*g.Width+q*g.PoolSize)*nf : (n*g.Width+(q+1)*g.PoolSize)*nf]
			o := (n*g.OutWidth + q) * nf
			copy(out[o:o+nf], window[:nf])
			for f := range nf {
				idx[o+f] = 0
			}
			for i := 1; i < g.PoolSize; i++ {
				pos := window[i*nf : (i+1)*nf]
				for f, v := range pos {
					if v > out[o+f] {
						out[o+f] = v
						idx[o+f] = int32(i)
					}
				}
			}
		}
	}, cfg)
}

// SumPool performs non-overlapping sum pooling along the width axis.
//
// Input shape:  [batch, width, n_filters], width % poolSize == 0
// Output shape: [batch, width / poolSize, n_filters]
//
// Each window is summed sequentially from offset 0.
func (cpu *CPUBackend) SumPool(input *tensor.RawTensor, poolSize int) (*tensor.RawTensor, error) {
	g, err := tensor.CheckPool("sum_pool", input, poolSize)
	if err != nil {
		return nil, err
	}

	output, err := cpu.newOutput(tensor.Shape{g.Batch, g.OutWidth, g.Filters}, input.DType())
	if err != nil {
		return nil, err
	}

	switch input.DType() {
	case tensor.Float32:
		sumPool(output.AsFloat32(), input.AsFloat32(), g, cpu.par)
	case tensor.Float64:
		sumPool(output.AsFloat64(), input.AsFloat64(), g, cpu.par)
	}
	return output, nil
}

func sumPool[T tensor.Float](out, x []T, g tensor.PoolGeometry, cfg parallel.Config) {
	nf := g.Filters
	parallel.ForBatch(g.Batch, g.OutWidth, func(n, q int) {
		window := x[(n*g.Width+q*g.PoolSize)*nf : (n*g.Width+(q+1)*g.PoolSize)*nf]
		dst := out[(n*g.OutWidth+q)*nf : (n*g.OutWidth+q+1)*nf]
		for i := 0; i < g.PoolSize; i++ {
			for f, v := range window[i*nf : (i+1)*nf] {
				dst[f] += v
			}
		}
	}, cfg)
}
