package main

import (
	"fmt"
	"math/rand"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/seqconv/internal/nn"
	"github.com/born-ml/seqconv/internal/seq"
	"github.com/born-ml/seqconv/internal/tensor"
)

type gradcheckOptions struct {
	Batch       int
	Width       int
	Filters     int
	FilterWidth int
	PoolSize    int
	Dense       int
	Activation  string
	Eps         float64
	Tolerance   float64
	Seed        int64
}

func newGradcheckCmd() *cobra.Command {
	opts := gradcheckOptions{
		Batch:       3,
		Width:       12,
		Filters:     2,
		FilterWidth: 3,
		PoolSize:    2,
		Dense:       4,
		Activation:  "tanh",
		Eps:         1e-6,
		Tolerance:   1e-6,
		Seed:        1,
	}

	cmd := &cobra.Command{
		Use:   "gradcheck",
		Short: "Check multi-stream layer gradients against finite differences",
		Long: "Gradcheck builds a float64 two-stream layer whose streams share one " +
			"filter bank, optionally followed by a dense layer, and compares the " +
			"backward pass with central differences of a random linear loss.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			backend, release, err := openBackend(cfg.Runtime)
			if err != nil {
				return err
			}
			defer release()

			relErr, n, err := runGradcheck(backend, opts)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "parameters: %d\nrelative error: %.3e (tolerance %.1e)\n",
				n, relErr, opts.Tolerance)
			if relErr > opts.Tolerance {
				return fmt.Errorf("gradcheck: relative error %.3e exceeds %.1e", relErr, opts.Tolerance)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.IntVar(&opts.Batch, "batch", opts.Batch, "Sequences per stream")
	f.IntVar(&opts.Width, "width", opts.Width, "Width of the first stream (the second is one shorter)")
	f.IntVar(&opts.Filters, "filters", opts.Filters, "Filters in the shared bank")
	f.IntVar(&opts.FilterWidth, "filter-width", opts.FilterWidth, "Filter width")
	f.IntVar(&opts.PoolSize, "pool-size", opts.PoolSize, "Pool size of the first stream")
	f.IntVar(&opts.Dense, "dense", opts.Dense, "Units of the dense layer (0 disables it)")
	f.StringVar(&opts.Activation, "activation", opts.Activation, "Activation: linear|sigmoid|tanh|relu")
	f.Float64Var(&opts.Eps, "eps", opts.Eps, "Finite difference step")
	f.Float64Var(&opts.Tolerance, "tolerance", opts.Tolerance, "Maximum relative error")
	f.Int64Var(&opts.Seed, "seed", opts.Seed, "Random seed")

	return cmd
}

// runGradcheck returns the relative gradient error and the parameter count.
func runGradcheck(backend tensor.Backend, o gradcheckOptions) (float64, int, error) {
	act, err := nn.ParseActivation(o.Activation)
	if err != nil {
		return 0, 0, err
	}
	if o.Batch < 1 {
		return 0, 0, fmt.Errorf("gradcheck: batch must be at least 1")
	}
	rng := rand.New(rand.NewSource(o.Seed))

	// The shared stream pools its whole filter map.
	configs := []nn.StreamConfig{
		{NIn: o.Width, NFilters: o.Filters, FilterWidth: o.FilterWidth, Activation: act, PoolSize: o.PoolSize},
		{NIn: o.Width - 1, WeightShare: nn.Share(0), PoolSize: max(o.Width-o.FilterWidth, 1)},
	}
	var dense []nn.DenseConfig
	if o.Dense > 0 {
		dense = []nn.DenseConfig{{Units: o.Dense, Activation: act}}
	}
	layer, err := nn.NewMultiSequenceConvolution(backend, configs, nn.MultiOptions{
		DType: tensor.Float64,
		Dense: dense,
		Rand:  rng,
	})
	if err != nil {
		return 0, 0, err
	}

	inputs := make([]*tensor.RawTensor, len(configs))
	for i, c := range configs {
		if inputs[i], err = seq.Encode(seq.SampleAmbiguous(c.NIn, o.Batch, rng)); err != nil {
			return 0, 0, err
		}
	}

	cache, err := layer.Forward(inputs, false)
	if err != nil {
		return 0, 0, err
	}
	weights := make([]float64, cache.Output().NumElements())
	for i := range weights {
		weights[i] = 2*rng.Float64() - 1
	}
	dfOutput, err := tensor.FromSlice(append([]float64(nil), weights...), cache.Output().Shape())
	if err != nil {
		return 0, 0, err
	}
	if _, err := layer.Backward(inputs, dfOutput, cache); err != nil {
		return 0, 0, err
	}

	params := layer.Parameters()
	loss := func() (float64, error) {
		c, err := layer.Forward(inputs, false)
		if err != nil {
			return 0, err
		}
		return floats.Dot(c.Output().AsFloat64(), weights), nil
	}
	relErr, _, err := nn.CheckGradient(loss, params, nn.GradientVector(params), o.Eps)
	if err != nil {
		return 0, 0, err
	}
	return relErr, len(nn.ParameterVector(params)), nil
}
