package main

import (
	"github.com/spf13/cobra"

	"github.com/born-ml/seqconv/internal/bench"
)

func newBenchCmd() *cobra.Command {
	var (
		format string
		dtype  string
		seed   int64
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Time every kernel on a fixed shape",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			if err := checkFormat(format); err != nil {
				return err
			}
			types, err := parseDTypes([]string{dtype})
			if err != nil {
				return err
			}

			backend, release, err := openBackend(cfg.Runtime)
			if err != nil {
				return err
			}
			defer release()

			b := cfg.Bench
			results, err := bench.Run(backend, bench.Options{
				Batch:       b.Batch,
				Width:       b.Width,
				Channels:    b.Channels,
				Filters:     b.Filters,
				FilterWidth: b.FilterWidth,
				PoolSize:    b.PoolSize,
				Runs:        b.Runs,
				DType:       types[0],
				Seed:        seed,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if format == "json" {
				return bench.FormatJSON(results, out)
			}
			bench.FormatTable(results, out)
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "table", "Output format: table|json")
	cmd.Flags().StringVar(&dtype, "dtype", "float32", "Data type: float32|float64")
	cmd.Flags().Int64Var(&seed, "seed", 1, "Random seed for inputs")

	return cmd
}
