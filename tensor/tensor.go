// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"math/rand"

	"github.com/born-ml/seqconv/internal/tensor"
)

// RawTensor is a dense tensor with a shape, a data type and a byte buffer.
//
// Example:
//
//	raw, _ := tensor.NewRaw(tensor.Shape{2, 3}, tensor.Float32, tensor.CPU)
//	data := raw.AsFloat32() // shares the buffer
//	clone := raw.Clone()    // deep copy
type RawTensor = tensor.RawTensor

// Shape lists the size of every dimension.
type Shape = tensor.Shape

// DataType identifies the element type of a tensor.
type DataType = tensor.DataType

// Device identifies where a tensor's kernels run.
type Device = tensor.Device

// Float constrains generic helpers to the floating-point element types.
type Float = tensor.Float

// Backend defines the kernels every compute backend implements.
//
// Implementations:
//   - backend/cpu: pure Go, data-parallel over batch rows
//   - backend/webgpu: WGSL compute shaders
type Backend = tensor.Backend

// Supported data types.
const (
	Float32 = tensor.Float32
	Float64 = tensor.Float64
	Int32   = tensor.Int32
	Uint8   = tensor.Uint8
)

// Supported devices.
const (
	CPU    = tensor.CPU
	WebGPU = tensor.WebGPU
)

// Sentinel errors wrapped by every kernel and constructor.
var (
	ErrShapeMismatch   = tensor.ErrShapeMismatch
	ErrDTypeMismatch   = tensor.ErrDTypeMismatch
	ErrIndexOutOfRange = tensor.ErrIndexOutOfRange
)

// NewRaw allocates a zero-filled tensor.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	return tensor.NewRaw(shape, dtype, device)
}

// Zeros allocates a zero-filled CPU tensor.
func Zeros(shape Shape, dtype DataType) (*RawTensor, error) {
	return tensor.Zeros(shape, dtype)
}

// Full allocates a tensor with every element set to value.
func Full(shape Shape, dtype DataType, value float64) (*RawTensor, error) {
	return tensor.Full(shape, dtype, value)
}

// Rand allocates a float tensor with elements drawn uniformly from [0, 1).
func Rand(shape Shape, dtype DataType, rng *rand.Rand) (*RawTensor, error) {
	return tensor.Rand(shape, dtype, rng)
}

// FromSlice copies data into a new float tensor.
func FromSlice[T Float](data []T, shape Shape) (*RawTensor, error) {
	return tensor.FromSlice(data, shape)
}

// FromUint8 copies data into a new Uint8 tensor.
func FromUint8(data []uint8, shape Shape) (*RawTensor, error) {
	return tensor.FromUint8(data, shape)
}

// FromInt32 copies data into a new Int32 tensor.
func FromInt32(data []int32, shape Shape) (*RawTensor, error) {
	return tensor.FromInt32(data, shape)
}

// DataTypeOf returns the DataType of T.
func DataTypeOf[T Float]() DataType {
	return tensor.DataTypeOf[T]()
}
