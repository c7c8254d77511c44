// Package verify compares a backend's kernels against the float64 reference
// implementations on random shapes.
package verify

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand"
	"strings"

	"github.com/born-ml/seqconv/internal/reference"
	"github.com/born-ml/seqconv/internal/seq"
	"github.com/born-ml/seqconv/internal/tensor"
)

// Options controls a verification run.
type Options struct {
	Trials int               // random shapes per kernel and dtype
	Seed   int64             // seed for shapes and data
	DTypes []tensor.DataType // defaults to Float32 and Float64
}

// Result is the outcome of one kernel on one random shape. A NaN error is
// reported as math.MaxFloat64.
type Result struct {
	Kernel    string  `json:"kernel"`
	DType     string  `json:"dtype"`
	Shape     string  `json:"shape"`
	MaxRelErr float64 `json:"max_rel_err"`
	Tolerance float64 `json:"tolerance"`
	Pass      bool    `json:"pass"`
}

// Failed reports whether any result failed.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Pass {
			return true
		}
	}
	return false
}

type trial func(b tensor.Backend, rng *rand.Rand, dtype tensor.DataType) (shape string, got, want []float64, err error)

var trials = map[string]trial{
	KernelConvolveSequence:         convolveSequence,
	KernelConvolveSequenceGradient: convolveSequenceGradient,
	KernelConv1D:                   conv1d,
	KernelConv1DGradFilters:        conv1dGradFilters,
	KernelConv1DGradInput:          conv1dGradInput,
	KernelMaxPool:                  maxPool,
	KernelMaxPoolGradient:          maxPoolGradient,
	KernelSumPool:                  sumPool,
	KernelSumPoolGradient:          sumPoolGradient,
}

// Run executes every kernel opts.Trials times per dtype. A kernel error
// aborts the run; numeric disagreement is reported through Result.Pass.
func Run(b tensor.Backend, opts Options) ([]Result, error) {
	dtypes := opts.DTypes
	if len(dtypes) == 0 {
		dtypes = []tensor.DataType{tensor.Float32, tensor.Float64}
	}
	rng := rand.New(rand.NewSource(opts.Seed))

	var results []Result
	for _, kernel := range Kernels {
		for _, dtype := range dtypes {
			tol, err := KernelTolerance(kernel, dtype)
			if err != nil {
				return nil, err
			}
			for i := 0; i < max(opts.Trials, 1); i++ {
				shape, got, want, err := trials[kernel](b, rng, dtype)
				if err != nil {
					return nil, fmt.Errorf("verify %s (%s, %s): %w", kernel, dtype, shape, err)
				}
				relErr := reference.MaxRelError(got, want)
				if math.IsNaN(relErr) {
					relErr = math.MaxFloat64
				}
				r := Result{
					Kernel:    kernel,
					DType:     dtype.String(),
					Shape:     shape,
					MaxRelErr: relErr,
					Tolerance: tol,
					Pass:      relErr <= tol,
				}
				slog.Debug("verify", "kernel", kernel, "dtype", r.DType, "shape", shape, "max_rel_err", relErr)
				results = append(results, r)
			}
		}
	}
	return results, nil
}

// FormatTable writes one row per result to w.
func FormatTable(results []Result, w io.Writer) {
	sb := &strings.Builder{}
	fmt.Fprintf(sb, "%-28s  %-8s  %-24s  %12s  %10s  %s\n", "Kernel", "DType", "Shape", "MaxRelErr", "Tol", "Status")
	fmt.Fprintln(sb, strings.Repeat("-", 98))
	for _, r := range results {
		status := "ok"
		if !r.Pass {
			status = "FAIL"
		}
		fmt.Fprintf(sb, "%-28s  %-8s  %-24s  %12.3e  %10.1e  %s\n",
			r.Kernel, r.DType, r.Shape, r.MaxRelErr, r.Tolerance, status)
	}
	fmt.Fprint(w, sb.String())
}

// FormatJSON writes the results as an indented JSON array to w.
func FormatJSON(results []Result, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

func randInt(rng *rand.Rand, lo, hi int) int {
	return lo + rng.Intn(hi-lo+1)
}

// uniform returns a tensor of the given dtype with values in [-1, 1) and
// the same values as float64.
func uniform(rng *rand.Rand, dtype tensor.DataType, shape ...int) (*tensor.RawTensor, []float64, error) {
	data := make([]float64, tensor.Shape(shape).NumElements())
	for i := range data {
		data[i] = 2*rng.Float64() - 1
	}
	if dtype == tensor.Float64 {
		t, err := tensor.FromSlice(data, tensor.Shape(shape))
		return t, data, err
	}
	f := make([]float32, len(data))
	for i, v := range data {
		f[i] = float32(v)
		data[i] = float64(f[i])
	}
	t, err := tensor.FromSlice(f, tensor.Shape(shape))
	return t, data, err
}

func codes(rng *rand.Rand, batch, width int) (*tensor.RawTensor, error) {
	return seq.Encode(seq.SampleAmbiguous(width, batch, rng))
}

func convolveSequence(b tensor.Backend, rng *rand.Rand, dtype tensor.DataType) (string, []float64, []float64, error) {
	batch, fw, nf := randInt(rng, 1, 16), randInt(rng, 1, 16), randInt(rng, 1, 12)
	width := fw + randInt(rng, 0, 96)
	shape := fmt.Sprintf("n=%d w=%d fw=%d f=%d", batch, width, fw, nf)

	x, err := codes(rng, batch, width)
	if err != nil {
		return shape, nil, nil, err
	}
	w, wv, err := uniform(rng, dtype, nf, fw, seq.Channels)
	if err != nil {
		return shape, nil, nil, err
	}
	bias, bv, err := uniform(rng, dtype, nf)
	if err != nil {
		return shape, nil, nil, err
	}
	y, err := b.ConvolveSequence(x, w, bias)
	if err != nil {
		return shape, nil, nil, err
	}
	return shape, y.Float64s(), reference.ConvolveSequence(x.AsUint8(), batch, width, wv, nf, fw, bv), nil
}

func convolveSequenceGradient(b tensor.Backend, rng *rand.Rand, dtype tensor.DataType) (string, []float64, []float64, error) {
	batch, fw, nf := randInt(rng, 1, 16), randInt(rng, 1, 16), randInt(rng, 1, 12)
	width := fw + randInt(rng, 0, 96)
	outW := width - fw + 1
	shape := fmt.Sprintf("n=%d w=%d fw=%d f=%d", batch, width, fw, nf)

	x, err := codes(rng, batch, width)
	if err != nil {
		return shape, nil, nil, err
	}
	dy, dyv, err := uniform(rng, dtype, batch, outW, nf)
	if err != nil {
		return shape, nil, nil, err
	}
	dw, err := b.ConvolveSequenceGradient(x, dy, fw, nf)
	if err != nil {
		return shape, nil, nil, err
	}
	return shape, dw.Float64s(), reference.ConvolveSequenceGradient(x.AsUint8(), batch, width, dyv, fw, nf), nil
}

type convShape struct {
	batch, width, channels, nf, fw, outW int
}

func randomConv(rng *rand.Rand) convShape {
	s := convShape{
		batch:    randInt(rng, 1, 8),
		channels: randInt(rng, 1, 8),
		nf:       randInt(rng, 1, 10),
		fw:       randInt(rng, 1, 12),
	}
	s.width = s.fw + randInt(rng, 0, 64)
	s.outW = s.width - s.fw + 1
	return s
}

func (s convShape) String() string {
	return fmt.Sprintf("n=%d w=%d c=%d fw=%d f=%d", s.batch, s.width, s.channels, s.fw, s.nf)
}

func conv1d(b tensor.Backend, rng *rand.Rand, dtype tensor.DataType) (string, []float64, []float64, error) {
	s := randomConv(rng)
	x, xv, err := uniform(rng, dtype, s.batch, s.width, s.channels)
	if err != nil {
		return s.String(), nil, nil, err
	}
	w, wv, err := uniform(rng, dtype, s.nf, s.fw, s.channels)
	if err != nil {
		return s.String(), nil, nil, err
	}
	bias, bv, err := uniform(rng, dtype, s.nf)
	if err != nil {
		return s.String(), nil, nil, err
	}
	y, err := b.Conv1D(x, w, bias)
	if err != nil {
		return s.String(), nil, nil, err
	}
	return s.String(), y.Float64s(), reference.Conv1D(xv, s.batch, s.width, s.channels, wv, s.nf, s.fw, bv), nil
}

func conv1dGradFilters(b tensor.Backend, rng *rand.Rand, dtype tensor.DataType) (string, []float64, []float64, error) {
	s := randomConv(rng)
	x, xv, err := uniform(rng, dtype, s.batch, s.width, s.channels)
	if err != nil {
		return s.String(), nil, nil, err
	}
	dy, dyv, err := uniform(rng, dtype, s.batch, s.outW, s.nf)
	if err != nil {
		return s.String(), nil, nil, err
	}
	dw, err := b.Conv1DGradFilters(x, dy, s.fw)
	if err != nil {
		return s.String(), nil, nil, err
	}
	return s.String(), dw.Float64s(), reference.Conv1DGradFilters(xv, s.batch, s.width, s.channels, dyv, s.nf, s.fw), nil
}

func conv1dGradInput(b tensor.Backend, rng *rand.Rand, dtype tensor.DataType) (string, []float64, []float64, error) {
	s := randomConv(rng)
	dy, dyv, err := uniform(rng, dtype, s.batch, s.outW, s.nf)
	if err != nil {
		return s.String(), nil, nil, err
	}
	w, wv, err := uniform(rng, dtype, s.nf, s.fw, s.channels)
	if err != nil {
		return s.String(), nil, nil, err
	}
	dx, err := b.Conv1DGradInput(dy, w)
	if err != nil {
		return s.String(), nil, nil, err
	}
	return s.String(), dx.Float64s(), reference.Conv1DGradInput(dyv, s.batch, s.outW, s.nf, wv, s.fw, s.channels), nil
}

type poolShape struct {
	batch, outW, pool, nf int
}

func randomPool(rng *rand.Rand) poolShape {
	return poolShape{
		batch: randInt(rng, 1, 8),
		outW:  randInt(rng, 1, 16),
		pool:  randInt(rng, 1, 32),
		nf:    randInt(rng, 1, 10),
	}
}

func (s poolShape) width() int { return s.outW * s.pool }

func (s poolShape) String() string {
	return fmt.Sprintf("n=%d w=%d pool=%d f=%d", s.batch, s.width(), s.pool, s.nf)
}

func maxPool(b tensor.Backend, rng *rand.Rand, dtype tensor.DataType) (string, []float64, []float64, error) {
	s := randomPool(rng)
	x, xv, err := uniform(rng, dtype, s.batch, s.width(), s.nf)
	if err != nil {
		return s.String(), nil, nil, err
	}
	y, _, err := b.MaxPool(x, s.pool)
	if err != nil {
		return s.String(), nil, nil, err
	}
	want, _ := reference.MaxPool(xv, s.batch, s.width(), s.nf, s.pool)
	return s.String(), y.Float64s(), want, nil
}

func maxPoolGradient(b tensor.Backend, rng *rand.Rand, dtype tensor.DataType) (string, []float64, []float64, error) {
	s := randomPool(rng)
	x, xv, err := uniform(rng, dtype, s.batch, s.width(), s.nf)
	if err != nil {
		return s.String(), nil, nil, err
	}
	_, argmax, err := b.MaxPool(x, s.pool)
	if err != nil {
		return s.String(), nil, nil, err
	}
	dy, dyv, err := uniform(rng, dtype, s.batch, s.outW, s.nf)
	if err != nil {
		return s.String(), nil, nil, err
	}
	dx, err := b.MaxPoolGradient(x, argmax, dy)
	if err != nil {
		return s.String(), nil, nil, err
	}
	_, wantArgmax := reference.MaxPool(xv, s.batch, s.width(), s.nf, s.pool)
	return s.String(), dx.Float64s(), reference.MaxPoolGradient(wantArgmax, dyv, s.batch, s.width(), s.nf, s.outW), nil
}

func sumPool(b tensor.Backend, rng *rand.Rand, dtype tensor.DataType) (string, []float64, []float64, error) {
	s := randomPool(rng)
	x, xv, err := uniform(rng, dtype, s.batch, s.width(), s.nf)
	if err != nil {
		return s.String(), nil, nil, err
	}
	y, err := b.SumPool(x, s.pool)
	if err != nil {
		return s.String(), nil, nil, err
	}
	return s.String(), y.Float64s(), reference.SumPool(xv, s.batch, s.width(), s.nf, s.pool), nil
}

func sumPoolGradient(b tensor.Backend, rng *rand.Rand, dtype tensor.DataType) (string, []float64, []float64, error) {
	s := randomPool(rng)
	x, _, err := uniform(rng, dtype, s.batch, s.width(), s.nf)
	if err != nil {
		return s.String(), nil, nil, err
	}
	dy, dyv, err := uniform(rng, dtype, s.batch, s.outW, s.nf)
	if err != nil {
		return s.String(), nil, nil, err
	}
	dx, err := b.SumPoolGradient(x, dy)
	if err != nil {
		return s.String(), nil, nil, err
	}
	return s.String(), dx.Float64s(), reference.SumPoolGradient(dyv, s.batch, s.width(), s.nf, s.outW), nil
}
