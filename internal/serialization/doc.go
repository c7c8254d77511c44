// Package serialization stores named tensors in the SafeTensors layout used
// for seqconv parameter checkpoints.
//
//	File Structure:
//	  [8 bytes: header size (uint64 LE)]
//	  [header: JSON object, name -> {dtype, shape, data_offsets}]
//	  [tensor data: raw little-endian bytes, in name order]
//
// The optional "__metadata__" entry carries string pairs. Write adds a
// "sha256" entry over the data section and Read verifies it when present.
//
// Example usage:
//
//	err := serialization.Write(f, map[string]*tensor.RawTensor{
//	    "group0.weight": w,
//	    "group0.bias":   b,
//	}, map[string]string{"layer": "multi_sequence_convolution"})
//
//	tensors, meta, err := serialization.Read(f)
package serialization
