// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the sequence convolution layers.
//
// # Overview
//
// This package contains:
//   - SequenceConvolution: filters over DNA symbol codes
//   - MaxPooling, SumPooling: non-overlapping pooling, flattened
//   - MultiSequenceConvolution: several streams, optional weight sharing,
//     dropout and dense layers
//   - Dense: fully connected layers
//   - Activations: Linear, Sigmoid, Tanh, ReLU
//   - Checkpoints: Save and Load in SafeTensors format
//   - CheckGradient: finite-difference gradient checks
//
// Layers expose explicit Forward and Backward passes. Backward returns the
// parameter gradients and also records them on each Parameter.
//
// # Basic Usage
//
//	backend := cpu.New()
//	layer, err := nn.NewMultiSequenceConvolution(backend, []nn.StreamConfig{
//	    {NIn: 200, NFilters: 8, FilterWidth: 12, Activation: nn.Tanh, PoolSize: 189},
//	    {NIn: 200, WeightShare: nn.Share(0), PoolSize: 189}, // reverse strand
//	}, nn.MultiOptions{DType: tensor.Float32, Dropout: 0.2, Rand: rng})
//
//	cache, err := layer.Forward([]*tensor.RawTensor{fwd, rev}, true)
//	grads, err := layer.Backward([]*tensor.RawTensor{fwd, rev}, dfOutput, cache)
package nn
