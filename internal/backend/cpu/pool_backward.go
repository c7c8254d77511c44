package cpu

import (
	"fmt"

	"github.com/born-ml/seqconv/internal/parallel"
	"github.com/born-ml/seqconv/internal/tensor"
)

// MaxPoolGradient routes gradients to the max positions of MaxPool.
//
// For each pooled element, dfOutput is written to the input position at
// window start + argmax; every other position receives zero. The pool size
// is width / pooled width. Argmax entries outside [0, poolSize) are
// reported as tensor.ErrIndexOutOfRange before any output is produced.
//
// Example (pool 2):
//
//	Input: [1, 3, 3, 2]  Argmax: [1, 0]  dfOutput: [5, 7]
//	Input Grad: [0, 5, 7, 0]
func (cpu *CPUBackend) MaxPoolGradient(input, argmax, dfOutput *tensor.RawTensor) (*tensor.RawTensor, error) {
	const op = "max_pool_gradient"
	g, err := tensor.CheckMaxPoolGradient(op, input, argmax, dfOutput)
	if err != nil {
		return nil, err
	}
	for i, a := range argmax.AsInt32() {
		if a < 0 || int(a) >= g.PoolSize {
			return nil, fmt.Errorf("%s: argmax[%d] = %d outside pool of %d: %w",
				op, i, a, g.PoolSize, tensor.ErrIndexOutOfRange)
		}
	}

	output, err := cpu.newOutput(input.Shape(), input.DType())
	if err != nil {
		return nil, err
	}

	switch input.DType() {
	case tensor.Float32:
		maxPoolGradient(output.AsFloat32(), argmax.AsInt32(), dfOutput.AsFloat32(), g, cpu.par)
	case tensor.Float64:
		maxPoolGradient(output.AsFloat64(), argmax.AsInt32(), dfOutput.AsFloat64(), g, cpu.par)
	}
	return output, nil
}

func maxPoolGradient[T tensor.Float](dx []T, idx []int32, dy []T, g tensor.PoolGeometry, cfg parallel.Config) {
	nf := g.Filters
	parallel.ForBatch(g.Batch, g.OutWidth, func(n, q int) {
		o := (n*g.OutWidth + q) * nf
		start := n*g.Width + q*g.PoolSize
		for f := 0; f < nf; f++ {
			dx[(start+int(idx[o+f]))*nf+f] = dy[o+f]
		}
	}, cfg)
}

// SumPoolGradient broadcasts each pooled gradient to every position of its
// window. The pool size is width / pooled width.
func (cpu *CPUBackend) SumPoolGradient(input, dfOutput *tensor.RawTensor) (*tensor.RawTensor, error) {
	g, err := tensor.CheckPoolGradient("sum_pool_gradient", input, dfOutput)
	if err != nil {
		return nil, err
	}

	output, err := cpu.newOutput(input.Shape(), input.DType())
	if err != nil {
		return nil, err
	}

	switch input.DType() {
	case tensor.Float32:
		sumPoolGradient(output.AsFloat32(), dfOutput.AsFloat32(), g, cpu.par)
	case tensor.Float64:
		sumPoolGradient(output.AsFloat64(), dfOutput.AsFloat64(), g, cpu.par)
	}
	return output, nil
}

func sumPoolGradient[T tensor.Float](dx, dy []T, g tensor.PoolGeometry, cfg parallel.Config) {
	nf := g.Filters
	parallel.For(g.Batch, func(n int) {
		for p := 0; p < g.Width; p++ {
			q := p / g.PoolSize
			copy(dx[(n*g.Width+p)*nf:(n*g.Width+p+1)*nf], dy[(n*g.OutWidth+q)*nf:(n*g.OutWidth+q+1)*nf])
		}
	}, cfg)
}
