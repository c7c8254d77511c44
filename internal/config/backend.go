package config

import (
	"fmt"
	"strings"
)

// Backend names accepted by runtime.backend.
const (
	BackendCPU    = "cpu"
	BackendWebGPU = "webgpu"
	BackendAuto   = "auto"
)

// NormalizeBackend lower-cases and validates a backend name. An empty name
// selects the CPU backend.
func NormalizeBackend(raw string) (string, error) {
	backend := strings.ToLower(strings.TrimSpace(raw))
	if backend == "" {
		backend = BackendCPU
	}
	switch backend {
	case BackendCPU, BackendWebGPU, BackendAuto:
		return backend, nil
	case "gpu":
		return BackendWebGPU, nil
	default:
		return "", fmt.Errorf(
			"invalid backend %q (expected %s|%s|%s)",
			raw,
			BackendCPU,
			BackendWebGPU,
			BackendAuto,
		)
	}
}
