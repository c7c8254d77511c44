// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the pure Go CPU backend for the seqconv kernels.
//
// # Overview
//
// The backend implements every kernel in float32 and float64:
//   - sequence convolution via per-filter lookup tables over symbol codes
//   - dense conv1d and its gradients via gonum BLAS
//   - max and sum pooling with their gradients
//
// Kernels are data-parallel over batch rows. Reductions over the batch
// (filter gradients) accumulate per worker and are combined in worker
// order, so results do not depend on scheduling.
//
// # Basic Usage
//
//	backend := cpu.New()                          // all cores
//	single := cpu.NewWithConfig(cpu.Sequential()) // one goroutine
package cpu
