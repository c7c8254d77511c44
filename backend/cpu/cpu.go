// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	internalcpu "github.com/born-ml/seqconv/internal/backend/cpu"
	"github.com/born-ml/seqconv/internal/parallel"
	"github.com/born-ml/seqconv/tensor"
)

// Backend is the CPU implementation of tensor.Backend.
type Backend = internalcpu.CPUBackend

// ParallelConfig controls how kernels split work across goroutines.
type ParallelConfig = parallel.Config

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates a CPU backend using every available core.
//
// Example:
//
//	backend := cpu.New()
//	out, err := backend.ConvolveSequence(codes, filters, bias)
func New() *Backend {
	return internalcpu.New()
}

// NewWithConfig creates a CPU backend with an explicit worker configuration.
func NewWithConfig(cfg ParallelConfig) *Backend {
	return internalcpu.NewWithConfig(cfg)
}

// DefaultParallel returns a configuration using every available core.
func DefaultParallel() ParallelConfig {
	return parallel.DefaultConfig()
}

// Sequential returns a single-goroutine configuration.
func Sequential() ParallelConfig {
	return parallel.Sequential()
}
