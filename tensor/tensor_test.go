// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/seqconv/backend/cpu"
	"github.com/born-ml/seqconv/tensor"
)

// TestBackendInterface verifies that the CPU backend implements tensor.Backend.
func TestBackendInterface(_ *testing.T) {
	var _ tensor.Backend = (*cpu.Backend)(nil)
}

func TestRawTensorAPI(t *testing.T) {
	raw, err := tensor.NewRaw(tensor.Shape{2, 3}, tensor.Float32, tensor.CPU)
	require.NoError(t, err)

	assert.True(t, raw.Shape().Equal(tensor.Shape{2, 3}))
	assert.Equal(t, tensor.Float32, raw.DType())
	assert.Equal(t, tensor.CPU, raw.Device())
	assert.Len(t, raw.AsFloat32(), 6)

	raw.AsFloat32()[0] = 1.5
	clone := raw.Clone()
	clone.AsFloat32()[0] = 2
	assert.InDelta(t, 1.5, raw.AsFloat32()[0], 0)
}

func TestCreation(t *testing.T) {
	f, err := tensor.FromSlice([]float64{1, 2, 3, 4}, tensor.Shape{2, 2})
	require.NoError(t, err)
	assert.Equal(t, tensor.Float64, f.DType())
	assert.Equal(t, tensor.Float64, tensor.DataTypeOf[float64]())

	u, err := tensor.FromUint8([]uint8{0, 1, 6}, tensor.Shape{1, 3})
	require.NoError(t, err)
	assert.Equal(t, []uint8{0, 1, 6}, u.AsUint8())

	full, err := tensor.Full(tensor.Shape{3}, tensor.Float32, 0.5)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.5, 0.5}, full.AsFloat32())

	_, err = tensor.FromSlice([]float32{1, 2, 3}, tensor.Shape{2, 2})
	assert.True(t, errors.Is(err, tensor.ErrShapeMismatch))
}

func TestKernelErrors(t *testing.T) {
	backend := cpu.New()
	codes, err := tensor.FromUint8([]uint8{0, 1, 2}, tensor.Shape{1, 3})
	require.NoError(t, err)
	filters, err := tensor.Zeros(tensor.Shape{2, 2, 4}, tensor.Float32)
	require.NoError(t, err)
	bias, err := tensor.Zeros(tensor.Shape{2}, tensor.Float64)
	require.NoError(t, err)

	_, err = backend.ConvolveSequence(codes, filters, bias)
	assert.ErrorIs(t, err, tensor.ErrDTypeMismatch)
}
