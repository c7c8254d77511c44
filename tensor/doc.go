// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the raw tensors and the backend interface used by
// the seqconv kernels.
//
// # Overview
//
// Tensors are dense, row-major and channel-last:
//   - sequences:   Uint8 symbol codes [batch, width]
//   - signals:     [batch, width, channels]
//   - filters:     [n_filters, filter_width, channels]
//   - filter maps: [batch, output_width, n_filters]
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/seqconv/backend/cpu"
//	    "github.com/born-ml/seqconv/seq"
//	    "github.com/born-ml/seqconv/tensor"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    codes, _ := seq.Encode([]string{"ACGTN", "RYACG"})
//	    filters, _ := tensor.Zeros(tensor.Shape{8, 3, 4}, tensor.Float32)
//	    bias, _ := tensor.Zeros(tensor.Shape{8}, tensor.Float32)
//	    out, _ := backend.ConvolveSequence(codes, filters, bias) // [2, 3, 8]
//	}
//
// # Errors
//
// Kernels never panic on bad input. Shape and dtype problems are reported
// as errors wrapping ErrShapeMismatch, ErrDTypeMismatch or
// ErrIndexOutOfRange, so callers can test them with errors.Is.
package tensor
