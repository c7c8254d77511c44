package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/born-ml/seqconv/internal/backend/webgpu"
	"github.com/born-ml/seqconv/internal/config"
	"github.com/born-ml/seqconv/internal/doctor"
	"github.com/born-ml/seqconv/internal/tensor"
	"github.com/born-ml/seqconv/internal/verify"
)

func newDoctorCmd() *cobra.Command {
	var requireGPU bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run local runtime checks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "backend: %s\n", cfg.Runtime.Backend)

			dcfg := doctor.Config{
				Features:   doctor.DetectCPUFeatures,
				Parallel:   cfg.Runtime.Parallel(),
				NumCPU:     runtime.NumCPU(),
				GPU:        webgpu.Describe,
				RequireGPU: requireGPU || cfg.Runtime.Backend == config.BackendWebGPU,
				SelfTest: func() error {
					return selfTest(cfg.Runtime)
				},
			}

			result := doctor.Run(dcfg, out)
			if result.Failed() {
				_, _ = fmt.Fprintln(os.Stderr, "\ndoctor: one or more checks failed")
				return fmt.Errorf("doctor failed: %v", result.Failures())
			}
			_, _ = fmt.Fprintln(out, "\ndoctor: all checks passed")
			return nil
		},
	}

	cmd.Flags().BoolVar(&requireGPU, "require-gpu", false, "Fail when no WebGPU adapter is available")

	return cmd
}

// selfTest runs one float32 verification trial per kernel on the configured
// backend.
func selfTest(rc config.RuntimeConfig) error {
	backend, release, err := openBackend(rc)
	if err != nil {
		return err
	}
	defer release()

	results, err := verify.Run(backend, verify.Options{
		Trials: 1,
		Seed:   1,
		DTypes: []tensor.DataType{tensor.Float32},
	})
	if err != nil {
		return err
	}
	for _, r := range results {
		if !r.Pass {
			return fmt.Errorf("%s: max rel err %.3e > %.1e", r.Kernel, r.MaxRelErr, r.Tolerance)
		}
	}
	return nil
}
