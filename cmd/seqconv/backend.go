package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/born-ml/seqconv/internal/backend/cpu"
	"github.com/born-ml/seqconv/internal/backend/webgpu"
	"github.com/born-ml/seqconv/internal/config"
	"github.com/born-ml/seqconv/internal/tensor"
)

// openBackend returns the configured backend and a release func. "auto"
// falls back to the CPU backend when no GPU adapter can be opened.
func openBackend(rc config.RuntimeConfig) (tensor.Backend, func(), error) {
	host := cpu.NewWithConfig(rc.Parallel())

	switch rc.Backend {
	case config.BackendCPU:
		return host, func() {}, nil
	case config.BackendWebGPU, config.BackendAuto:
		acc, err := webgpu.Open(host)
		if err == nil {
			slog.Debug("backend selected", "backend", acc.Name())
			return acc, acc.Release, nil
		}
		if rc.Backend == config.BackendWebGPU {
			return nil, nil, fmt.Errorf("open webgpu backend: %w", err)
		}
		if !errors.Is(err, webgpu.ErrUnavailable) {
			slog.Warn("webgpu init failed, using cpu", "error", err)
		} else {
			slog.Info("webgpu unavailable, using cpu")
		}
		return host, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported backend %q", rc.Backend)
	}
}

func parseDTypes(names []string) ([]tensor.DataType, error) {
	out := make([]tensor.DataType, 0, len(names))
	for _, n := range names {
		switch n {
		case "float32", "f32":
			out = append(out, tensor.Float32)
		case "float64", "f64":
			out = append(out, tensor.Float64)
		default:
			return nil, fmt.Errorf("unsupported dtype %q (expected float32|float64)", n)
		}
	}
	return out, nil
}
