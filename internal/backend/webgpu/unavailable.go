//go:build !windows

package webgpu

import "github.com/born-ml/seqconv/internal/tensor"

// Open reports ErrUnavailable on this platform.
func Open(_ tensor.Backend) (Accelerator, error) {
	return nil, ErrUnavailable
}

// IsAvailable reports whether WebGPU is available on this system.
func IsAvailable() bool {
	return false
}

// Describe returns a one-line description of the default adapter.
func Describe() (string, error) {
	return "", ErrUnavailable
}
