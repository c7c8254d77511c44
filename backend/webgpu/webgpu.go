// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package webgpu provides the WebGPU backend for the seqconv kernels.
//
// The GPU runs the float32 forward kernels, the conv1d input gradient and
// both pooling gradients. Filter gradients and every float64 call run on the
// host backend passed to Open.
//
// Example:
//
//	gpu, err := webgpu.Open(cpu.New())
//	if errors.Is(err, webgpu.ErrUnavailable) {
//	    // fall back to the CPU backend
//	}
//	defer gpu.Release()
package webgpu

import (
	internalwebgpu "github.com/born-ml/seqconv/internal/backend/webgpu"
	"github.com/born-ml/seqconv/tensor"
)

// Backend is a tensor.Backend that owns GPU resources.
type Backend = internalwebgpu.Accelerator

// ErrUnavailable is wrapped when no adapter or native library is present.
var ErrUnavailable = internalwebgpu.ErrUnavailable

// Open creates a WebGPU backend that delegates unsupported calls to host.
func Open(host tensor.Backend) (Backend, error) {
	return internalwebgpu.Open(host)
}

// IsAvailable reports whether a WebGPU adapter can be opened.
func IsAvailable() bool {
	return internalwebgpu.IsAvailable()
}

// Describe returns a one-line description of the default adapter.
func Describe() (string, error) {
	return internalwebgpu.Describe()
}
