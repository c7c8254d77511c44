// Package bench times the seqconv kernels on a fixed shape for the seqconv
// bench command.
package bench

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/born-ml/seqconv/internal/seq"
	"github.com/born-ml/seqconv/internal/tensor"
)

// Options describes the benchmark shape.
type Options struct {
	Batch       int
	Width       int // sequence and signal width
	Channels    int // conv1d input channels
	Filters     int
	FilterWidth int
	PoolSize    int
	Runs        int
	DType       tensor.DataType
	Seed        int64
}

// Validate checks that every kernel can run on the shape.
func (o Options) Validate() error {
	switch {
	case o.Batch < 1 || o.Channels < 1 || o.Filters < 1 || o.FilterWidth < 1:
		return fmt.Errorf("bench: batch, channels, filters and filter width must be >= 1")
	case o.Width < o.FilterWidth:
		return fmt.Errorf("bench: width %d < filter width %d", o.Width, o.FilterWidth)
	case o.PoolSize < 1 || o.PoolSize > o.Width-o.FilterWidth+1:
		return fmt.Errorf("bench: pool size %d outside [1, %d]", o.PoolSize, o.Width-o.FilterWidth+1)
	case o.Runs < 1:
		return fmt.Errorf("bench: runs must be at least 1")
	case !o.DType.IsFloat():
		return fmt.Errorf("bench: dtype %s is not a float type", o.DType)
	}
	return nil
}

// Stats holds aggregate timing statistics across all runs.
type Stats struct {
	Min  time.Duration
	Max  time.Duration
	Mean time.Duration
}

// ComputeStats calculates min, max and mean over a slice of durations.
func ComputeStats(durations []time.Duration) Stats {
	if len(durations) == 0 {
		return Stats{}
	}
	mn, mx := durations[0], durations[0]
	var sum time.Duration
	for _, d := range durations {
		mn = min(mn, d)
		mx = max(mx, d)
		sum += d
	}
	return Stats{
		Min:  mn,
		Max:  mx,
		Mean: sum / time.Duration(len(durations)),
	}
}

// KernelResult holds the run timings of one kernel.
type KernelResult struct {
	Kernel string
	Shape  string
	Runs   []time.Duration
	Stats  Stats
}

type inputs struct {
	codes, seqFilters, bias  *tensor.RawTensor
	signal, filters, convOut *tensor.RawTensor
	fmap, argmax             *tensor.RawTensor
	seqGrad, poolGrad        *tensor.RawTensor
}

type kernel struct {
	name  string
	shape string
	run   func(b tensor.Backend, in *inputs) error
}

func kernels(o Options) []kernel {
	outW := o.Width - o.FilterWidth + 1
	seqShape := fmt.Sprintf("n=%d w=%d fw=%d f=%d", o.Batch, o.Width, o.FilterWidth, o.Filters)
	convShape := fmt.Sprintf("n=%d w=%d c=%d fw=%d f=%d", o.Batch, o.Width, o.Channels, o.FilterWidth, o.Filters)
	poolShape := fmt.Sprintf("n=%d w=%d pool=%d f=%d", o.Batch, outW/o.PoolSize*o.PoolSize, o.PoolSize, o.Filters)

	return []kernel{
		{"convolve_sequence", seqShape, func(b tensor.Backend, in *inputs) error {
			_, err := b.ConvolveSequence(in.codes, in.seqFilters, in.bias)
			return err
		}},
		{"convolve_sequence_gradient", seqShape, func(b tensor.Backend, in *inputs) error {
			_, err := b.ConvolveSequenceGradient(in.codes, in.seqGrad, o.FilterWidth, o.Filters)
			return err
		}},
		{"conv1d", convShape, func(b tensor.Backend, in *inputs) error {
			_, err := b.Conv1D(in.signal, in.filters, in.bias)
			return err
		}},
		{"conv1d_grad_filters", convShape, func(b tensor.Backend, in *inputs) error {
			_, err := b.Conv1DGradFilters(in.signal, in.convOut, o.FilterWidth)
			return err
		}},
		{"conv1d_grad_input", convShape, func(b tensor.Backend, in *inputs) error {
			_, err := b.Conv1DGradInput(in.convOut, in.filters)
			return err
		}},
		{"max_pool", poolShape, func(b tensor.Backend, in *inputs) error {
			_, _, err := b.MaxPool(in.fmap, o.PoolSize)
			return err
		}},
		{"max_pool_gradient", poolShape, func(b tensor.Backend, in *inputs) error {
			_, err := b.MaxPoolGradient(in.fmap, in.argmax, in.poolGrad)
			return err
		}},
		{"sum_pool", poolShape, func(b tensor.Backend, in *inputs) error {
			_, err := b.SumPool(in.fmap, o.PoolSize)
			return err
		}},
		{"sum_pool_gradient", poolShape, func(b tensor.Backend, in *inputs) error {
			_, err := b.SumPoolGradient(in.fmap, in.poolGrad)
			return err
		}},
	}
}

func prepare(b tensor.Backend, o Options) (*inputs, error) {
	rng := rand.New(rand.NewSource(o.Seed))
	uniform := func(shape ...int) (*tensor.RawTensor, error) {
		t, err := tensor.Rand(tensor.Shape(shape), o.DType, rng)
		if err != nil {
			return nil, err
		}
		switch o.DType {
		case tensor.Float32:
			for i, v := range t.AsFloat32() {
				t.AsFloat32()[i] = 2*v - 1
			}
		case tensor.Float64:
			for i, v := range t.AsFloat64() {
				t.AsFloat64()[i] = 2*v - 1
			}
		}
		return t, nil
	}

	outW := o.Width - o.FilterWidth + 1
	poolW := outW / o.PoolSize * o.PoolSize
	in := &inputs{}
	var err error
	steps := []func() error{
		func() error { in.codes, err = seq.Encode(seq.Sample(o.Width, o.Batch, rng)); return err },
		func() error { in.seqFilters, err = uniform(o.Filters, o.FilterWidth, seq.Channels); return err },
		func() error { in.bias, err = uniform(o.Filters); return err },
		func() error { in.signal, err = uniform(o.Batch, o.Width, o.Channels); return err },
		func() error { in.filters, err = uniform(o.Filters, o.FilterWidth, o.Channels); return err },
		func() error { in.convOut, err = uniform(o.Batch, outW, o.Filters); return err },
		func() error { in.seqGrad, err = uniform(o.Batch, outW, o.Filters); return err },
		func() error { in.fmap, err = uniform(o.Batch, poolW, o.Filters); return err },
		func() error { in.poolGrad, err = uniform(o.Batch, poolW/o.PoolSize, o.Filters); return err },
		func() error { _, in.argmax, err = b.MaxPool(in.fmap, o.PoolSize); return err },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}
	return in, nil
}

// Run times every kernel o.Runs times after one warm-up call.
func Run(b tensor.Backend, o Options) ([]KernelResult, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	in, err := prepare(b, o)
	if err != nil {
		return nil, fmt.Errorf("bench: prepare inputs: %w", err)
	}

	var results []KernelResult
	for _, k := range kernels(o) {
		if err := k.run(b, in); err != nil {
			return nil, fmt.Errorf("bench %s: %w", k.name, err)
		}
		runs := make([]time.Duration, o.Runs)
		for i := range runs {
			start := time.Now()
			if err := k.run(b, in); err != nil {
				return nil, fmt.Errorf("bench %s run %d: %w", k.name, i+1, err)
			}
			runs[i] = time.Since(start)
		}
		stats := ComputeStats(runs)
		slog.Debug("bench", "kernel", k.name, "backend", b.Name(), "mean", stats.Mean)
		results = append(results, KernelResult{Kernel: k.name, Shape: k.shape, Runs: runs, Stats: stats})
	}
	return results, nil
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}

// FormatTable writes a human-readable table of bench results to w.
func FormatTable(results []KernelResult, w io.Writer) {
	sb := &strings.Builder{}
	fmt.Fprintf(sb, "%-28s  %-26s  %10s  %10s  %10s\n", "Kernel", "Shape", "Min(ms)", "Mean(ms)", "Max(ms)")
	fmt.Fprintln(sb, strings.Repeat("-", 92))
	for _, r := range results {
		fmt.Fprintf(sb, "%-28s  %-26s  %10.3f  %10.3f  %10.3f\n",
			r.Kernel, r.Shape, ms(r.Stats.Min), ms(r.Stats.Mean), ms(r.Stats.Max))
	}
	fmt.Fprint(w, sb.String())
}

type jsonKernel struct {
	Kernel string    `json:"kernel"`
	Shape  string    `json:"shape"`
	RunsMS []float64 `json:"runs_ms"`
	MinMS  float64   `json:"min_ms"`
	MeanMS float64   `json:"mean_ms"`
	MaxMS  float64   `json:"max_ms"`
}

// FormatJSON writes a JSON report of bench results to w.
func FormatJSON(results []KernelResult, w io.Writer) error {
	out := make([]jsonKernel, len(results))
	for i, r := range results {
		runs := make([]float64, len(r.Runs))
		for j, d := range r.Runs {
			runs[j] = ms(d)
		}
		out[i] = jsonKernel{
			Kernel: r.Kernel,
			Shape:  r.Shape,
			RunsMS: runs,
			MinMS:  ms(r.Stats.Min),
			MeanMS: ms(r.Stats.Mean),
			MaxMS:  ms(r.Stats.Max),
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
