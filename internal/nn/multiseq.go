package nn

import (
	"fmt"
	"math/rand"

	"github.com/born-ml/seqconv/internal/tensor"
)

// StreamConfig describes one input stream of a MultiSequenceConvolution.
//
// A stream either declares its own filters (NFilters, FilterWidth,
// Activation) or sets WeightShare to the index of an earlier stream and
// reuses that stream's filters, bias and activation. NIn and PoolSize are
// always per stream.
type StreamConfig struct {
	NIn         int        // sequence width of this stream's input
	NFilters    int        // ignored when sharing
	FilterWidth int        // ignored when sharing
	Activation  Activation // ignored when sharing
	PoolSize    int
	WeightShare *int // index of an earlier stream to share weights with
}

// Share returns a WeightShare value pointing at stream i.
func Share(i int) *int {
	return &i
}

// DenseConfig describes one fully connected layer stacked on the pooled
// activations.
type DenseConfig struct {
	Units      int
	Activation Activation
}

// MultiOptions configures a MultiSequenceConvolution.
type MultiOptions struct {
	DType   tensor.DataType // Float32 (the zero value) or Float64
	Dropout float64         // probability of zeroing a unit during training
	Dense   []DenseConfig   // fully connected layers applied after dropout
	Rand    *rand.Rand      // initialization and dropout masks; required
}

// stream is a resolved StreamConfig.
type stream[B tensor.Backend] struct {
	nIn   int
	group int
	conv  *SequenceConvolution[B]
	pool  *MaxPooling[B]
	outW  int // filter map width
	units int // pooled width * n_filters
}

// MultiSequenceConvolution runs a sequence convolution and max pooling on
// each of several input streams and concatenates the flattened pooled
// activations in stream order.
//
// Output shape: [batch, Σ units], units = (NIn-fw+1)/PoolSize * n_filters,
// or [batch, Units] of the last dense layer when MultiOptions.Dense is set.
//
// Streams bound to the same parameter group share one filter bank; their
// gradients are summed in Backward. A layer is not safe for concurrent
// Forward calls in training mode because dropout draws from its rng.
type MultiSequenceConvolution[B tensor.Backend] struct {
	backend B
	streams []stream[B]
	groups  []*ParameterGroup
	dense   []*Dense[B]
	dropout float64
	rng     *rand.Rand
	nUnits  int
}

// Cache holds the forward pass state consumed by Backward.
type Cache struct {
	Activations *tensor.RawTensor   // [batch, n_units]
	Filtermaps  []*tensor.RawTensor // per stream [batch, outW, F]
	Argmax      []*tensor.RawTensor // per stream [batch, outW/pool, F]
	DropoutMask *tensor.RawTensor   // [batch, n_units] of 0/1; nil without dropout
	Dense       []*tensor.RawTensor // per dense layer [batch, units]
}

// Output returns the layer output: the last dense activations, or the
// pooled activations without dense layers.
func (c *Cache) Output() *tensor.RawTensor {
	if len(c.Dense) > 0 {
		return c.Dense[len(c.Dense)-1]
	}
	return c.Activations
}

// Gradients holds one filter and bias gradient per parameter group and one
// weight and bias gradient per dense layer.
type Gradients struct {
	Weights      []*tensor.RawTensor
	Biases       []*tensor.RawTensor
	DenseWeights []*tensor.RawTensor
	DenseBiases  []*tensor.RawTensor
}

// NewMultiSequenceConvolution validates the stream configurations and
// initializes one parameter group per non-sharing stream.
func NewMultiSequenceConvolution[B tensor.Backend](backend B, configs []StreamConfig, opts MultiOptions) (*MultiSequenceConvolution[B], error) {
	if len(configs) == 0 {
		return nil, fmt.Errorf("multi sequence convolution: no streams")
	}
	if opts.Rand == nil {
		return nil, fmt.Errorf("multi sequence convolution: rng is required")
	}
	if opts.Dropout < 0 || opts.Dropout >= 1 {
		return nil, fmt.Errorf("multi sequence convolution: dropout %v outside [0, 1)", opts.Dropout)
	}
	dtype := opts.DType
	if !dtype.IsFloat() {
		return nil, fmt.Errorf("multi sequence convolution: dtype %s: %w", dtype, tensor.ErrDTypeMismatch)
	}

	l := &MultiSequenceConvolution[B]{
		backend: backend,
		dropout: opts.Dropout,
		rng:     opts.Rand,
	}
	for i, cfg := range configs {
		s, err := l.addStream(i, cfg, dtype)
		if err != nil {
			return nil, fmt.Errorf("multi sequence convolution: stream %d: %w", i, err)
		}
		l.streams = append(l.streams, s)
		l.nUnits += s.units
	}
	in := l.nUnits
	for i, d := range opts.Dense {
		fc, err := NewDense(backend, fmt.Sprintf("dense%d", i), in, d.Units, d.Activation, dtype, opts.Rand)
		if err != nil {
			return nil, fmt.Errorf("multi sequence convolution: dense %d: %w", i, err)
		}
		l.dense = append(l.dense, fc)
		in = d.Units
	}
	return l, nil
}

func (l *MultiSequenceConvolution[B]) addStream(i int, cfg StreamConfig, dtype tensor.DataType) (stream[B], error) {
	var (
		conv  *SequenceConvolution[B]
		group int
		err   error
	)
	if cfg.WeightShare != nil {
		ref := *cfg.WeightShare
		if ref < 0 || ref >= i {
			return stream[B]{}, fmt.Errorf("weight_share %d must name an earlier stream", ref)
		}
		shared := l.streams[ref]
		group = shared.group
		conv, err = NewSequenceConvolutionShared(l.backend, l.groups[group], shared.conv.Activation())
	} else {
		if !cfg.Activation.valid() {
			return stream[B]{}, fmt.Errorf("unknown activation %d", int(cfg.Activation))
		}
		if cfg.NFilters < 1 || cfg.FilterWidth < 1 {
			return stream[B]{}, fmt.Errorf("n_filters %d and filter_width %d must be >= 1", cfg.NFilters, cfg.FilterWidth)
		}
		group = len(l.groups)
		var params *ParameterGroup
		params, err = newFilterGroup(fmt.Sprintf("group%d", group), cfg.NFilters, cfg.FilterWidth, dtype, l.rng)
		if err == nil {
			l.groups = append(l.groups, params)
			conv, err = NewSequenceConvolutionShared(l.backend, params, cfg.Activation)
		}
	}
	if err != nil {
		return stream[B]{}, err
	}

	fw, nf := conv.Params().FilterWidth(), conv.Params().NFilters()
	if cfg.NIn < fw {
		return stream[B]{}, fmt.Errorf("n_in %d < filter width %d: %w", cfg.NIn, fw, tensor.ErrShapeMismatch)
	}
	pool, err := NewMaxPooling(l.backend, cfg.PoolSize)
	if err != nil {
		return stream[B]{}, err
	}
	outW := cfg.NIn - fw + 1
	if outW%cfg.PoolSize != 0 {
		return stream[B]{}, fmt.Errorf("filter map width %d (n_in %d, filter width %d) not divisible by pool size %d: %w",
			outW, cfg.NIn, fw, cfg.PoolSize, tensor.ErrShapeMismatch)
	}

	return stream[B]{
		nIn:   cfg.NIn,
		group: group,
		conv:  conv,
		pool:  pool,
		outW:  outW,
		units: outW / cfg.PoolSize * nf,
	}, nil
}

// NUnits returns the width of the concatenated pooled activations.
func (l *MultiSequenceConvolution[B]) NUnits() int {
	return l.nUnits
}

// NOutputs returns the layer output width.
func (l *MultiSequenceConvolution[B]) NOutputs() int {
	if len(l.dense) > 0 {
		return l.dense[len(l.dense)-1].OutFeatures()
	}
	return l.nUnits
}

// Dense returns the fully connected layers.
func (l *MultiSequenceConvolution[B]) Dense() []*Dense[B] {
	return l.dense
}

// NStreams returns the number of input streams.
func (l *MultiSequenceConvolution[B]) NStreams() int {
	return len(l.streams)
}

// StreamUnits returns the output width contributed by stream i.
func (l *MultiSequenceConvolution[B]) StreamUnits(i int) int {
	return l.streams[i].units
}

// StreamGroup returns the parameter group index used by stream i.
func (l *MultiSequenceConvolution[B]) StreamGroup(i int) int {
	return l.streams[i].group
}

// Groups returns the parameter groups in creation order.
func (l *MultiSequenceConvolution[B]) Groups() []*ParameterGroup {
	return l.groups
}

// Parameters returns all parameters, weight then bias, group by group and
// then dense layer by dense layer.
func (l *MultiSequenceConvolution[B]) Parameters() []*Parameter {
	params := make([]*Parameter, 0, 2*(len(l.groups)+len(l.dense)))
	for _, g := range l.groups {
		params = append(params, g.Parameters()...)
	}
	for _, d := range l.dense {
		params = append(params, d.Parameters()...)
	}
	return params
}

// Backend returns the layer's backend.
func (l *MultiSequenceConvolution[B]) Backend() B {
	return l.backend
}

// Forward runs every stream and concatenates the pooled activations.
//
// With dropout p > 0, training mode zeroes each unit with probability p and
// records the mask in the cache; inference mode scales all units by 1-p.
func (l *MultiSequenceConvolution[B]) Forward(inputs []*tensor.RawTensor, train bool) (*Cache, error) {
	if len(inputs) != len(l.streams) {
		return nil, fmt.Errorf("multi sequence convolution: %d inputs for %d streams: %w",
			len(inputs), len(l.streams), tensor.ErrShapeMismatch)
	}

	batch := -1
	cache := &Cache{
		Filtermaps: make([]*tensor.RawTensor, len(l.streams)),
		Argmax:     make([]*tensor.RawTensor, len(l.streams)),
	}
	parts := make([]*tensor.RawTensor, len(l.streams))
	for i, s := range l.streams {
		in := inputs[i]
		if in == nil || in.Rank() != 2 || in.Shape()[1] != s.nIn {
			return nil, fmt.Errorf("multi sequence convolution: stream %d expects [batch, %d] codes: %w",
				i, s.nIn, tensor.ErrShapeMismatch)
		}
		if batch >= 0 && in.Shape()[0] != batch {
			return nil, fmt.Errorf("multi sequence convolution: stream %d batch %d != %d: %w",
				i, in.Shape()[0], batch, tensor.ErrShapeMismatch)
		}
		batch = in.Shape()[0]

		fm, err := s.conv.Forward(in)
		if err != nil {
			return nil, fmt.Errorf("multi sequence convolution: stream %d: %w", i, err)
		}
		act, argmax, err := s.pool.Forward(fm)
		if err != nil {
			return nil, fmt.Errorf("multi sequence convolution: stream %d: %w", i, err)
		}
		cache.Filtermaps[i] = fm
		cache.Argmax[i] = argmax
		parts[i] = act
	}

	activations, err := concatColumns(parts)
	if err != nil {
		return nil, err
	}
	if l.dropout > 0 {
		if train {
			cache.DropoutMask, err = l.dropoutMask(activations.Shape(), activations.DType())
			if err != nil {
				return nil, err
			}
			multiply(activations, cache.DropoutMask)
		} else {
			scale(activations, 1-l.dropout)
		}
	}
	cache.Activations = activations

	x := activations
	for i, d := range l.dense {
		if x, err = d.Forward(x); err != nil {
			return nil, fmt.Errorf("multi sequence convolution: dense %d: %w", i, err)
		}
		cache.Dense = append(cache.Dense, x)
	}
	return cache, nil
}

// Backward returns per-group gradients for the gradient of the loss with
// respect to the layer output (Cache.Output). Gradients of streams that
// share a group are summed. The gradients are also stored on the parameters.
func (l *MultiSequenceConvolution[B]) Backward(inputs []*tensor.RawTensor, dfOutput *tensor.RawTensor, cache *Cache) (*Gradients, error) {
	if cache == nil || cache.Activations == nil {
		return nil, fmt.Errorf("multi sequence convolution backward: missing forward cache")
	}
	if dfOutput == nil {
		return nil, fmt.Errorf("multi sequence convolution backward: nil df_output: %w", tensor.ErrShapeMismatch)
	}
	if len(inputs) != len(l.streams) {
		return nil, fmt.Errorf("multi sequence convolution backward: %d inputs for %d streams: %w",
			len(inputs), len(l.streams), tensor.ErrShapeMismatch)
	}
	if len(cache.Dense) != len(l.dense) {
		return nil, fmt.Errorf("multi sequence convolution backward: cache has %d dense outputs for %d layers",
			len(cache.Dense), len(l.dense))
	}
	out := cache.Output()
	if !dfOutput.Shape().Equal(out.Shape()) {
		return nil, fmt.Errorf("multi sequence convolution backward: df_output %v, expected %v: %w",
			dfOutput.Shape(), out.Shape(), tensor.ErrShapeMismatch)
	}
	if dfOutput.DType() != out.DType() {
		return nil, fmt.Errorf("multi sequence convolution backward: df_output %s, expected %s: %w",
			dfOutput.DType(), out.DType(), tensor.ErrDTypeMismatch)
	}

	grads := &Gradients{
		Weights:      make([]*tensor.RawTensor, len(l.groups)),
		Biases:       make([]*tensor.RawTensor, len(l.groups)),
		DenseWeights: make([]*tensor.RawTensor, len(l.dense)),
		DenseBiases:  make([]*tensor.RawTensor, len(l.dense)),
	}
	df := dfOutput
	for i := len(l.dense) - 1; i >= 0; i-- {
		in := cache.Activations
		if i > 0 {
			in = cache.Dense[i-1]
		}
		var err error
		if df, err = l.dense[i].Backward(in, cache.Dense[i], df); err != nil {
			return nil, fmt.Errorf("multi sequence convolution backward: dense %d: %w", i, err)
		}
		grads.DenseWeights[i] = l.dense[i].Weight().Grad()
		grads.DenseBiases[i] = l.dense[i].Bias().Grad()
	}

	if cache.DropoutMask != nil {
		if df == dfOutput {
			df = dfOutput.Clone()
		}
		multiply(df, cache.DropoutMask)
	}
	parts, err := splitColumns(df, l.streamUnits())
	if err != nil {
		return nil, err
	}

	for i, s := range l.streams {
		dfFm, err := s.pool.Backward(cache.Filtermaps[i], cache.Argmax[i], parts[i])
		if err != nil {
			return nil, fmt.Errorf("multi sequence convolution backward: stream %d: %w", i, err)
		}
		dW, db, err := s.conv.Backward(inputs[i], dfFm, cache.Filtermaps[i])
		if err != nil {
			return nil, fmt.Errorf("multi sequence convolution backward: stream %d: %w", i, err)
		}
		if grads.Weights[s.group] == nil {
			grads.Weights[s.group], grads.Biases[s.group] = dW, db
			continue
		}
		accumulate(grads.Weights[s.group], dW)
		accumulate(grads.Biases[s.group], db)
	}

	for g, group := range l.groups {
		group.Weight.SetGrad(grads.Weights[g])
		group.Bias.SetGrad(grads.Biases[g])
	}
	return grads, nil
}

func (l *MultiSequenceConvolution[B]) streamUnits() []int {
	units := make([]int, len(l.streams))
	for i, s := range l.streams {
		units[i] = s.units
	}
	return units
}

// dropoutMask draws a 0/1 keep mask with keep probability 1-p.
func (l *MultiSequenceConvolution[B]) dropoutMask(shape tensor.Shape, dtype tensor.DataType) (*tensor.RawTensor, error) {
	mask, err := tensor.Zeros(shape, dtype)
	if err != nil {
		return nil, err
	}
	switch dtype {
	case tensor.Float32:
		fillMask(mask.AsFloat32(), l.dropout, l.rng)
	case tensor.Float64:
		fillMask(mask.AsFloat64(), l.dropout, l.rng)
	}
	return mask, nil
}

func fillMask[T tensor.Float](mask []T, p float64, rng *rand.Rand) {
	for i := range mask {
		if rng.Float64() >= p {
			mask[i] = 1
		}
	}
}
