// Package webgpu implements the WebGPU backend for the seqconv kernels.
// Uses go-webgpu (github.com/go-webgpu/webgpu) for zero-CGO WebGPU bindings.
//
// The GPU path covers the forward kernels, the conv1d input gradient and
// both pooling gradients in float32. The two filter gradients reduce over
// the whole batch and run on the host backend, as do all float64 calls.
// On platforms without the native library Open reports ErrUnavailable.
package webgpu

import (
	"errors"

	"github.com/born-ml/seqconv/internal/tensor"
)

// ErrUnavailable is returned when no WebGPU adapter can be opened.
var ErrUnavailable = errors.New("webgpu: not available")

// Accelerator is a tensor.Backend that owns GPU resources.
type Accelerator interface {
	tensor.Backend
	Release()
}
