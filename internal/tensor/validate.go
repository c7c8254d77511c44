package tensor

// SequenceChannels is the channel count of sequence filters (A, C, G, T).
const SequenceChannels = 4

// ConvGeometry describes a validated valid-mode 1-D convolution.
type ConvGeometry struct {
	Batch       int
	Width       int // input width
	Channels    int // input channels (SequenceChannels for sequence filters)
	Filters     int
	FilterWidth int
	OutWidth    int // Width - FilterWidth + 1
}

// PoolGeometry describes a validated non-overlapping pooling.
type PoolGeometry struct {
	Batch     int
	Width     int // input width
	Filters   int
	PoolSize  int
	OutWidth  int // Width / PoolSize
}

func requireRank(op, name string, t *RawTensor, rank int) error {
	if t == nil {
		return shapeErr(op, "%s is nil", name)
	}
	if t.Rank() != rank {
		return shapeErr(op, "%s must be %dD, got %dD %v", name, rank, t.Rank(), t.Shape())
	}
	return nil
}

func requireFloat(op, name string, t *RawTensor, want DataType) error {
	if !t.DType().IsFloat() {
		return dtypeErr(op, "%s must be float32 or float64, got %s", name, t.DType())
	}
	if t.DType() != want {
		return dtypeErr(op, "%s is %s, expected %s", name, t.DType(), want)
	}
	return nil
}

func requireFilterWidth(op string, filterWidth, width int) error {
	if filterWidth < 1 {
		return shapeErr(op, "filter width %d must be >= 1", filterWidth)
	}
	if width < filterWidth {
		return shapeErr(op, "input width %d < filter width %d", width, filterWidth)
	}
	return nil
}

func checkBias(op string, bias *RawTensor, filters int, dtype DataType) error {
	if err := requireRank(op, "bias", bias, 1); err != nil {
		return err
	}
	if err := requireFloat(op, "bias", bias, dtype); err != nil {
		return err
	}
	if bias.Shape()[0] != filters {
		return shapeErr(op, "bias length %d != n_filters %d", bias.Shape()[0], filters)
	}
	return nil
}

// CheckConvolveSequence validates the arguments of a sequence convolution.
// input: Uint8 [batch, width]; filters: [F, fw, 4]; bias: [F].
func CheckConvolveSequence(op string, input, filters, bias *RawTensor) (ConvGeometry, error) {
	if err := requireRank(op, "input", input, 2); err != nil {
		return ConvGeometry{}, err
	}
	if input.DType() != Uint8 {
		return ConvGeometry{}, dtypeErr(op, "input must hold uint8 symbol codes, got %s", input.DType())
	}
	if err := requireRank(op, "filters", filters, 3); err != nil {
		return ConvGeometry{}, err
	}
	if err := requireFloat(op, "filters", filters, filters.DType()); err != nil {
		return ConvGeometry{}, err
	}
	fs := filters.Shape()
	if fs[2] != SequenceChannels {
		return ConvGeometry{}, shapeErr(op, "sequence filters need %d channels, got %d", SequenceChannels, fs[2])
	}
	if err := checkBias(op, bias, fs[0], filters.DType()); err != nil {
		return ConvGeometry{}, err
	}
	is := input.Shape()
	if err := requireFilterWidth(op, fs[1], is[1]); err != nil {
		return ConvGeometry{}, err
	}
	return ConvGeometry{
		Batch:       is[0],
		Width:       is[1],
		Channels:    SequenceChannels,
		Filters:     fs[0],
		FilterWidth: fs[1],
		OutWidth:    is[1] - fs[1] + 1,
	}, nil
}

// CheckConvolveSequenceGradient validates the arguments of the sequence
// convolution weight gradient. dfOutput must be [batch, width-fw+1, nFilters].
func CheckConvolveSequenceGradient(op string, input, dfOutput *RawTensor, filterWidth, nFilters int) (ConvGeometry, error) {
	if err := requireRank(op, "input", input, 2); err != nil {
		return ConvGeometry{}, err
	}
	if input.DType() != Uint8 {
		return ConvGeometry{}, dtypeErr(op, "input must hold uint8 symbol codes, got %s", input.DType())
	}
	if err := requireRank(op, "df_output", dfOutput, 3); err != nil {
		return ConvGeometry{}, err
	}
	if err := requireFloat(op, "df_output", dfOutput, dfOutput.DType()); err != nil {
		return ConvGeometry{}, err
	}
	is, ds := input.Shape(), dfOutput.Shape()
	if err := requireFilterWidth(op, filterWidth, is[1]); err != nil {
		return ConvGeometry{}, err
	}
	if nFilters < 1 {
		return ConvGeometry{}, shapeErr(op, "n_filters %d must be >= 1", nFilters)
	}
	outWidth := is[1] - filterWidth + 1
	want := Shape{is[0], outWidth, nFilters}
	if !ds.Equal(want) {
		return ConvGeometry{}, shapeErr(op, "df_output shape %v, expected %v", ds, want)
	}
	return ConvGeometry{
		Batch:       is[0],
		Width:       is[1],
		Channels:    SequenceChannels,
		Filters:     nFilters,
		FilterWidth: filterWidth,
		OutWidth:    outWidth,
	}, nil
}

// CheckConv1D validates a dense convolution.
// input: [batch, width, C]; filters: [F, fw, C]; bias: [F].
func CheckConv1D(op string, input, filters, bias *RawTensor) (ConvGeometry, error) {
	if err := requireRank(op, "input", input, 3); err != nil {
		return ConvGeometry{}, err
	}
	if err := requireFloat(op, "input", input, input.DType()); err != nil {
		return ConvGeometry{}, err
	}
	if err := requireRank(op, "filters", filters, 3); err != nil {
		return ConvGeometry{}, err
	}
	if err := requireFloat(op, "filters", filters, input.DType()); err != nil {
		return ConvGeometry{}, err
	}
	is, fs := input.Shape(), filters.Shape()
	if fs[2] != is[2] {
		return ConvGeometry{}, shapeErr(op, "input has %d channels, filters expect %d", is[2], fs[2])
	}
	if err := checkBias(op, bias, fs[0], input.DType()); err != nil {
		return ConvGeometry{}, err
	}
	if err := requireFilterWidth(op, fs[1], is[1]); err != nil {
		return ConvGeometry{}, err
	}
	return ConvGeometry{
		Batch:       is[0],
		Width:       is[1],
		Channels:    is[2],
		Filters:     fs[0],
		FilterWidth: fs[1],
		OutWidth:    is[1] - fs[1] + 1,
	}, nil
}

// CheckConv1DGradFilters validates the dense convolution filter gradient.
// input: [batch, width, C]; dfOutput: [batch, width-fw+1, F].
func CheckConv1DGradFilters(op string, input, dfOutput *RawTensor, filterWidth int) (ConvGeometry, error) {
	if err := requireRank(op, "input", input, 3); err != nil {
		return ConvGeometry{}, err
	}
	if err := requireFloat(op, "input", input, input.DType()); err != nil {
		return ConvGeometry{}, err
	}
	if err := requireRank(op, "df_output", dfOutput, 3); err != nil {
		return ConvGeometry{}, err
	}
	if err := requireFloat(op, "df_output", dfOutput, input.DType()); err != nil {
		return ConvGeometry{}, err
	}
	is, ds := input.Shape(), dfOutput.Shape()
	if err := requireFilterWidth(op, filterWidth, is[1]); err != nil {
		return ConvGeometry{}, err
	}
	outWidth := is[1] - filterWidth + 1
	if ds[0] != is[0] || ds[1] != outWidth {
		return ConvGeometry{}, shapeErr(op, "df_output shape %v, expected (%d, %d, n_filters)", ds, is[0], outWidth)
	}
	return ConvGeometry{
		Batch:       is[0],
		Width:       is[1],
		Channels:    is[2],
		Filters:     ds[2],
		FilterWidth: filterWidth,
		OutWidth:    outWidth,
	}, nil
}

// CheckConv1DGradInput validates the dense convolution input gradient.
// dfOutput: [batch, outW, F]; filters: [F, fw, C]. The reconstructed input
// width is outW + fw - 1.
func CheckConv1DGradInput(op string, dfOutput, filters *RawTensor) (ConvGeometry, error) {
	if err := requireRank(op, "df_output", dfOutput, 3); err != nil {
		return ConvGeometry{}, err
	}
	if err := requireFloat(op, "df_output", dfOutput, dfOutput.DType()); err != nil {
		return ConvGeometry{}, err
	}
	if err := requireRank(op, "filters", filters, 3); err != nil {
		return ConvGeometry{}, err
	}
	if err := requireFloat(op, "filters", filters, dfOutput.DType()); err != nil {
		return ConvGeometry{}, err
	}
	ds, fs := dfOutput.Shape(), filters.Shape()
	if ds[2] != fs[0] {
		return ConvGeometry{}, shapeErr(op, "df_output has %d filters, filter bank has %d", ds[2], fs[0])
	}
	return ConvGeometry{
		Batch:       ds[0],
		Width:       ds[1] + fs[1] - 1,
		Channels:    fs[2],
		Filters:     fs[0],
		FilterWidth: fs[1],
		OutWidth:    ds[1],
	}, nil
}

// CheckPool validates a pooling forward pass: input [batch, width, F] with
// width divisible by poolSize.
func CheckPool(op string, input *RawTensor, poolSize int) (PoolGeometry, error) {
	if err := requireRank(op, "input", input, 3); err != nil {
		return PoolGeometry{}, err
	}
	if err := requireFloat(op, "input", input, input.DType()); err != nil {
		return PoolGeometry{}, err
	}
	is := input.Shape()
	if poolSize < 1 {
		return PoolGeometry{}, shapeErr(op, "pool size %d must be >= 1", poolSize)
	}
	if is[1]%poolSize != 0 {
		return PoolGeometry{}, shapeErr(op, "width %d is not divisible by pool size %d", is[1], poolSize)
	}
	return PoolGeometry{
		Batch:    is[0],
		Width:    is[1],
		Filters:  is[2],
		PoolSize: poolSize,
		OutWidth: is[1] / poolSize,
	}, nil
}

// CheckPoolGradient validates a pooling gradient: dfOutput [batch, pooled, F]
// must tile input [batch, width, F] exactly. The pool size is width/pooled.
func CheckPoolGradient(op string, input, dfOutput *RawTensor) (PoolGeometry, error) {
	if err := requireRank(op, "input", input, 3); err != nil {
		return PoolGeometry{}, err
	}
	if err := requireFloat(op, "input", input, input.DType()); err != nil {
		return PoolGeometry{}, err
	}
	if err := requireRank(op, "df_output", dfOutput, 3); err != nil {
		return PoolGeometry{}, err
	}
	if err := requireFloat(op, "df_output", dfOutput, input.DType()); err != nil {
		return PoolGeometry{}, err
	}
	is, ds := input.Shape(), dfOutput.Shape()
	if ds[0] != is[0] || ds[2] != is[2] {
		return PoolGeometry{}, shapeErr(op, "df_output shape %v does not match input %v", ds, is)
	}
	if is[1]%ds[1] != 0 {
		return PoolGeometry{}, shapeErr(op, "input width %d is not a multiple of pooled width %d", is[1], ds[1])
	}
	return PoolGeometry{
		Batch:    is[0],
		Width:    is[1],
		Filters:  is[2],
		PoolSize: is[1] / ds[1],
		OutWidth: ds[1],
	}, nil
}

// CheckMaxPoolGradient validates CheckPoolGradient plus an Int32 argmax
// tensor shaped like dfOutput.
func CheckMaxPoolGradient(op string, input, argmax, dfOutput *RawTensor) (PoolGeometry, error) {
	g, err := CheckPoolGradient(op, input, dfOutput)
	if err != nil {
		return PoolGeometry{}, err
	}
	if err := requireRank(op, "argmax", argmax, 3); err != nil {
		return PoolGeometry{}, err
	}
	if argmax.DType() != Int32 {
		return PoolGeometry{}, dtypeErr(op, "argmax must be int32, got %s", argmax.DType())
	}
	if !argmax.Shape().Equal(dfOutput.Shape()) {
		return PoolGeometry{}, shapeErr(op, "argmax shape %v != df_output shape %v", argmax.Shape(), dfOutput.Shape())
	}
	return g, nil
}
