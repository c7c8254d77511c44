// Package doctor provides environment checks for the seqconv CLI.
package doctor

import (
	"fmt"
	"io"
	"strings"

	"github.com/born-ml/seqconv/internal/parallel"
)

// PassMark and FailMark are the prefix symbols printed for each check result.
const (
	PassMark = "✓"
	FailMark = "✗"
)

// Config holds injectable dependencies for each doctor check.
type Config struct {
	// Features returns the CPU feature set.
	Features func() CPUFeatures
	// Parallel is the configured CPU worker setup.
	Parallel parallel.Config
	// NumCPU is the number of logical CPUs.
	NumCPU int
	// GPU describes the default WebGPU adapter or reports why none is usable.
	GPU func() (string, error)
	// RequireGPU turns a missing adapter into a failure.
	RequireGPU bool
	// SelfTest runs a kernel smoke test; nil skips it.
	SelfTest func() error
}

// Result collects the outcome of all checks.
type Result struct {
	failures []string
}

// Failed returns true if any check failed.
func (r *Result) Failed() bool { return len(r.failures) > 0 }

// Failures returns the list of failure messages.
func (r *Result) Failures() []string { return append([]string(nil), r.failures...) }

// AddFailure appends an external failure message to the result.
func (r *Result) AddFailure(msg string) { r.failures = append(r.failures, msg) }

func (r *Result) fail(msg string) { r.failures = append(r.failures, msg) }

// Run executes all configured checks and writes human-readable output to w.
// Each check line is prefixed with PassMark or FailMark.
func Run(cfg Config, w io.Writer) Result {
	var res Result

	features := cfg.Features()
	list := strings.Join(features.List(), ", ")
	if list == "" {
		list = "none"
	}
	fmt.Fprintf(w, "%s cpu: %s, %d logical CPUs, simd %s (%s)\n",
		PassMark, features.Arch, cfg.NumCPU, features.SIMDLevel(), list)

	if cfg.Parallel.NumWorkers < 1 || cfg.Parallel.MinChunkSize < 1 {
		res.fail(fmt.Sprintf("workers: invalid configuration %+v", cfg.Parallel))
		fmt.Fprintf(w, "%s workers: invalid configuration %+v\n", FailMark, cfg.Parallel)
	} else {
		mode := "sequential"
		if cfg.Parallel.Enabled {
			mode = "parallel"
		}
		fmt.Fprintf(w, "%s workers: %d (%s, min chunk %d)\n",
			PassMark, cfg.Parallel.NumWorkers, mode, cfg.Parallel.MinChunkSize)
	}

	desc, err := cfg.GPU()
	switch {
	case err == nil:
		fmt.Fprintf(w, "%s webgpu: %s\n", PassMark, desc)
	case cfg.RequireGPU:
		res.fail(fmt.Sprintf("webgpu: %v", err))
		fmt.Fprintf(w, "%s webgpu: %v\n", FailMark, err)
	default:
		fmt.Fprintf(w, "%s webgpu: unavailable (%v), using cpu\n", PassMark, err)
	}

	if cfg.SelfTest != nil {
		if err := cfg.SelfTest(); err != nil {
			res.fail(fmt.Sprintf("self test: %v", err))
			fmt.Fprintf(w, "%s self test: %v\n", FailMark, err)
		} else {
			fmt.Fprintf(w, "%s self test: ok\n", PassMark)
		}
	}

	return res
}
