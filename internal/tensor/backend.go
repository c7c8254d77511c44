package tensor

// Backend defines the kernels every compute backend must implement.
//
// All tensors are channel-last and batch-major:
//   - sequences:   Uint8 symbol codes [batch, width]
//   - signals:     [batch, width, channels]
//   - filters:     [n_filters, filter_width, channels]
//   - activations: [batch, output_width, n_filters]
//
// Implementations:
//   - CPU: pure Go, data-parallel over batch rows
//   - WebGPU: WGSL compute shaders (windows builds)
type Backend interface {
	// Sequence convolution over symbol codes with ambiguity interpolation.
	ConvolveSequence(input, filters, bias *RawTensor) (*RawTensor, error)
	ConvolveSequenceGradient(input, dfOutput *RawTensor, filterWidth, nFilters int) (*RawTensor, error)

	// Dense valid-mode 1-D cross-correlation.
	Conv1D(input, filters, bias *RawTensor) (*RawTensor, error)
	Conv1DGradFilters(input, dfOutput *RawTensor, filterWidth int) (*RawTensor, error)
	Conv1DGradInput(dfOutput, filters *RawTensor) (*RawTensor, error)

	// Non-overlapping pooling along the width axis.
	MaxPool(input *RawTensor, poolSize int) (output, argmax *RawTensor, err error)
	MaxPoolGradient(input, argmax, dfOutput *RawTensor) (*RawTensor, error)
	SumPool(input *RawTensor, poolSize int) (*RawTensor, error)
	SumPoolGradient(input, dfOutput *RawTensor) (*RawTensor, error)

	// Metadata
	Name() string
	Device() Device
}
