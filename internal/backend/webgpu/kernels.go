//go:build windows

package webgpu

import (
	"encoding/binary"
	"fmt"

	"github.com/born-ml/seqconv/internal/seq"
	"github.com/born-ml/seqconv/internal/tensor"
)

// onGPU reports whether a kernel with the given float dtype runs on the GPU.
// WGSL has no portable f64, so float64 calls go to the host backend.
func (b *Backend) onGPU(op string, dtype tensor.DataType) bool {
	if dtype == tensor.Float32 {
		return true
	}
	b.log.Debug("host fallback", "op", op, "dtype", dtype.String())
	return false
}

// result wraps GPU output bytes in a tensor.
func result(data []byte, shape tensor.Shape, dtype tensor.DataType) (*tensor.RawTensor, error) {
	out, err := tensor.NewRaw(shape, dtype, tensor.WebGPU)
	if err != nil {
		return nil, err
	}
	copy(out.Data(), data)
	return out, nil
}

// packCodes widens one-byte symbol codes to u32 for storage buffers.
func packCodes(codes []uint8) []byte {
	out := make([]byte, 4*len(codes))
	for i, c := range codes {
		binary.LittleEndian.PutUint32(out[i*4:], uint32(c))
	}
	return out
}

// ConvolveSequence convolves filters over symbol-coded sequences on the GPU.
func (b *Backend) ConvolveSequence(input, filters, bias *tensor.RawTensor) (*tensor.RawTensor, error) {
	const op = "convolve_sequence"
	g, err := tensor.CheckConvolveSequence(op, input, filters, bias)
	if err != nil {
		return nil, err
	}
	if err := seq.CheckCodes(input); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !b.onGPU(op, filters.DType()) {
		return b.host.ConvolveSequence(input, filters, bias)
	}

	shape := tensor.Shape{g.Batch, g.OutWidth, g.Filters}
	n := shape.NumElements()
	outs, err := b.runKernel(op, convolveSequenceShader,
		[][]byte{packCodes(input.AsUint8()), filters.Data(), bias.Data()},
		[]int{n * 4},
		encodeParams(n, g.Width, g.OutWidth, g.Filters, g.FilterWidth),
		n)
	if err != nil {
		return nil, err
	}
	return result(outs[0], shape, tensor.Float32)
}

// ConvolveSequenceGradient reduces over the whole batch and runs on the host.
func (b *Backend) ConvolveSequenceGradient(input, dfOutput *tensor.RawTensor, filterWidth, nFilters int) (*tensor.RawTensor, error) {
	b.log.Debug("host fallback", "op", "convolve_sequence_gradient")
	return b.host.ConvolveSequenceGradient(input, dfOutput, filterWidth, nFilters)
}

// Conv1D performs the dense valid-mode 1-D cross-correlation on the GPU.
func (b *Backend) Conv1D(input, filters, bias *tensor.RawTensor) (*tensor.RawTensor, error) {
	const op = "conv1d"
	g, err := tensor.CheckConv1D(op, input, filters, bias)
	if err != nil {
		return nil, err
	}
	if !b.onGPU(op, input.DType()) {
		return b.host.Conv1D(input, filters, bias)
	}

	shape := tensor.Shape{g.Batch, g.OutWidth, g.Filters}
	n := shape.NumElements()
	outs, err := b.runKernel(op, conv1dShader,
		[][]byte{input.Data(), filters.Data(), bias.Data()},
		[]int{n * 4},
		encodeParams(n, g.Width, g.OutWidth, g.Filters, g.FilterWidth, g.Channels),
		n)
	if err != nil {
		return nil, err
	}
	return result(outs[0], shape, tensor.Float32)
}

// Conv1DGradFilters reduces over the whole batch and runs on the host.
func (b *Backend) Conv1DGradFilters(input, dfOutput *tensor.RawTensor, filterWidth int) (*tensor.RawTensor, error) {
	b.log.Debug("host fallback", "op", "conv1d_grad_filters")
	return b.host.Conv1DGradFilters(input, dfOutput, filterWidth)
}

// Conv1DGradInput computes the conv1d input gradient on the GPU.
func (b *Backend) Conv1DGradInput(dfOutput, filters *tensor.RawTensor) (*tensor.RawTensor, error) {
	const op = "conv1d_grad_input"
	g, err := tensor.CheckConv1DGradInput(op, dfOutput, filters)
	if err != nil {
		return nil, err
	}
	if !b.onGPU(op, dfOutput.DType()) {
		return b.host.Conv1DGradInput(dfOutput, filters)
	}

	shape := tensor.Shape{g.Batch, g.Width, g.Channels}
	n := shape.NumElements()
	outs, err := b.runKernel(op, conv1dGradInputShader,
		[][]byte{dfOutput.Data(), filters.Data()},
		[]int{n * 4},
		encodeParams(n, g.Width, g.OutWidth, g.Filters, g.FilterWidth, g.Channels),
		n)
	if err != nil {
		return nil, err
	}
	return result(outs[0], shape, tensor.Float32)
}

// MaxPool performs non-overlapping max pooling on the GPU.
func (b *Backend) MaxPool(input *tensor.RawTensor, poolSize int) (output, argmax *tensor.RawTensor, err error) {
	const op = "max_pool"
	g, err := tensor.CheckPool(op, input, poolSize)
	if err != nil {
		return nil, nil, err
	}
	if !b.onGPU(op, input.DType()) {
		return b.host.MaxPool(input, poolSize)
	}

	shape := tensor.Shape{g.Batch, g.OutWidth, g.Filters}
	n := shape.NumElements()
	outs, err := b.runKernel(op, maxPoolShader,
		[][]byte{input.Data()},
		[]int{n * 4, n * 4},
		encodeParams(n, g.Width, g.OutWidth, g.Filters, g.PoolSize),
		n)
	if err != nil {
		return nil, nil, err
	}
	if output, err = result(outs[0], shape, tensor.Float32); err != nil {
		return nil, nil, err
	}
	if argmax, err = result(outs[1], shape, tensor.Int32); err != nil {
		return nil, nil, err
	}
	return output, argmax, nil
}

// MaxPoolGradient routes gradients to the argmax positions on the GPU.
func (b *Backend) MaxPoolGradient(input, argmax, dfOutput *tensor.RawTensor) (*tensor.RawTensor, error) {
	const op = "max_pool_gradient"
	g, err := tensor.CheckMaxPoolGradient(op, input, argmax, dfOutput)
	if err != nil {
		return nil, err
	}
	if !b.onGPU(op, input.DType()) {
		return b.host.MaxPoolGradient(input, argmax, dfOutput)
	}
	for i, a := range argmax.AsInt32() {
		if a < 0 || int(a) >= g.PoolSize {
			return nil, fmt.Errorf("%s: argmax[%d] = %d outside pool of %d: %w",
				op, i, a, g.PoolSize, tensor.ErrIndexOutOfRange)
		}
	}

	n := input.NumElements()
	outs, err := b.runKernel(op, maxPoolGradShader,
		[][]byte{argmax.Data(), dfOutput.Data()},
		[]int{n * 4},
		encodeParams(n, g.Width, g.OutWidth, g.Filters, g.PoolSize),
		n)
	if err != nil {
		return nil, err
	}
	return result(outs[0], input.Shape(), tensor.Float32)
}

// SumPool performs non-overlapping sum pooling on the GPU.
func (b *Backend) SumPool(input *tensor.RawTensor, poolSize int) (*tensor.RawTensor, error) {
	const op = "sum_pool"
	g, err := tensor.CheckPool(op, input, poolSize)
	if err != nil {
		return nil, err
	}
	if !b.onGPU(op, input.DType()) {
		return b.host.SumPool(input, poolSize)
	}

	shape := tensor.Shape{g.Batch, g.OutWidth, g.Filters}
	n := shape.NumElements()
	outs, err := b.runKernel(op, sumPoolShader,
		[][]byte{input.Data()},
		[]int{n * 4},
		encodeParams(n, g.Width, g.OutWidth, g.Filters, g.PoolSize),
		n)
	if err != nil {
		return nil, err
	}
	return result(outs[0], shape, tensor.Float32)
}

// SumPoolGradient broadcasts pooled gradients over their windows on the GPU.
func (b *Backend) SumPoolGradient(input, dfOutput *tensor.RawTensor) (*tensor.RawTensor, error) {
	const op = "sum_pool_gradient"
	g, err := tensor.CheckPoolGradient(op, input, dfOutput)
	if err != nil {
		return nil, err
	}
	if !b.onGPU(op, input.DType()) {
		return b.host.SumPoolGradient(input, dfOutput)
	}

	n := input.NumElements()
	outs, err := b.runKernel(op, sumPoolGradShader,
		[][]byte{dfOutput.Data()},
		[]int{n * 4},
		encodeParams(n, g.Width, g.OutWidth, g.Filters, g.PoolSize),
		n)
	if err != nil {
		return nil, err
	}
	return result(outs[0], input.Shape(), tensor.Float32)
}
