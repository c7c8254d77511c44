package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/born-ml/seqconv/internal/verify"
)

func newVerifyCmd() *cobra.Command {
	var (
		format string
		dtypes []string
	)

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Compare the backend kernels against the float64 reference",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			if err := checkFormat(format); err != nil {
				return err
			}
			types, err := parseDTypes(dtypes)
			if err != nil {
				return err
			}

			backend, release, err := openBackend(cfg.Runtime)
			if err != nil {
				return err
			}
			defer release()

			results, err := verify.Run(backend, verify.Options{
				Trials: cfg.Verify.Trials,
				Seed:   cfg.Verify.Seed,
				DTypes: types,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch format {
			case "json":
				if err := verify.FormatJSON(results, out); err != nil {
					return err
				}
			default:
				verify.FormatTable(results, out)
			}

			if verify.Failed(results) {
				return fmt.Errorf("verify: %s kernels disagree with the reference", backend.Name())
			}
			slog.Info("verify passed", "backend", backend.Name(), "checks", len(results))
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "table", "Output format: table|json")
	cmd.Flags().StringSliceVar(&dtypes, "dtype", []string{"float32", "float64"}, "Data types to check")

	return cmd
}
