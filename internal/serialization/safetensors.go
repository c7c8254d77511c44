package serialization

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/born-ml/seqconv/internal/tensor"
)

const (
	metadataKey = "__metadata__"
	checksumKey = "sha256"
)

// header is one tensor entry of the JSON header.
type header struct {
	DType       string   `json:"dtype"`
	Shape       []int64  `json:"shape"`
	DataOffsets [2]int64 `json:"data_offsets"`
}

// Write stores tensors in alphabetical name order. metadata may be nil; a
// "sha256" entry covering the data section is always added.
func Write(w io.Writer, tensors map[string]*tensor.RawTensor, metadata map[string]string) error {
	names := make([]string, 0, len(tensors))
	for name := range tensors {
		if err := ValidateTensorName(name); err != nil {
			return err
		}
		names = append(names, name)
	}
	sort.Strings(names)

	entries := make(map[string]any, len(names)+1)
	var data []byte
	for _, name := range names {
		raw := tensors[name]
		dtype, err := dtypeToSafeTensors(raw.DType())
		if err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		shape := make([]int64, len(raw.Shape()))
		for i, dim := range raw.Shape() {
			shape[i] = int64(dim)
		}
		start := int64(len(data))
		data = append(data, raw.Data()...)
		entries[name] = header{
			DType:       dtype,
			Shape:       shape,
			DataOffsets: [2]int64{start, int64(len(data))},
		}
	}

	meta := make(map[string]string, len(metadata)+1)
	for k, v := range metadata {
		meta[k] = v
	}
	meta[checksumKey] = ComputeChecksum(data)
	entries[metadataKey] = meta

	headerJSON, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}

	if err := binary.Write(w, binary.LittleEndian, uint64(len(headerJSON))); err != nil {
		return fmt.Errorf("failed to write header size: %w", err)
	}
	if _, err := w.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write tensor data: %w", err)
	}
	return nil
}

// Read loads every tensor of a SafeTensors stream and verifies the stored
// checksum. The returned metadata includes the "sha256" entry.
func Read(r io.Reader) (map[string]*tensor.RawTensor, map[string]string, error) {
	var size uint64
	if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
		return nil, nil, fmt.Errorf("failed to read header size: %w", err)
	}
	if size > MaxHeaderSize {
		return nil, nil, fmt.Errorf("%w: %d bytes", ErrHeaderTooLarge, size)
	}

	headerJSON := make([]byte, size)
	if _, err := io.ReadFull(r, headerJSON); err != nil {
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}
	var entries map[string]json.RawMessage
	if err := json.Unmarshal(headerJSON, &entries); err != nil {
		return nil, nil, fmt.Errorf("failed to parse header: %w", err)
	}

	var metadata map[string]string
	if raw, ok := entries[metadataKey]; ok {
		if err := json.Unmarshal(raw, &metadata); err != nil {
			return nil, nil, fmt.Errorf("failed to parse metadata: %w", err)
		}
		delete(entries, metadataKey)
	}

	metas := make([]TensorMeta, 0, len(entries))
	for name, raw := range entries {
		if err := ValidateTensorName(name); err != nil {
			return nil, nil, err
		}
		var h header
		if err := json.Unmarshal(raw, &h); err != nil {
			return nil, nil, fmt.Errorf("failed to parse tensor %s: %w", name, err)
		}
		shape := make([]int, len(h.Shape))
		for i, dim := range h.Shape {
			if int64(int(dim)) != dim {
				return nil, nil, &ValidationError{
					Type:    "invalid_shape",
					Tensor:  name,
					Details: fmt.Sprintf("dimension %d does not fit in an int", dim),
					Err:     ErrOutOfBounds,
				}
			}
			shape[i] = int(dim)
		}
		metas = append(metas, TensorMeta{
			Name:   name,
			DType:  h.DType,
			Shape:  shape,
			Offset: h.DataOffsets[0],
			Size:   h.DataOffsets[1] - h.DataOffsets[0],
		})
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read tensor data: %w", err)
	}
	if err := ValidateTensorOffsets(metas, int64(len(data))); err != nil {
		return nil, nil, err
	}
	if sum, ok := metadata[checksumKey]; ok {
		if err := ValidateChecksum(data, sum); err != nil {
			return nil, nil, err
		}
	}

	tensors := make(map[string]*tensor.RawTensor, len(metas))
	for _, m := range metas {
		t, err := decodeTensor(m, data)
		if err != nil {
			return nil, nil, err
		}
		tensors[m.Name] = t
	}
	return tensors, metadata, nil
}

func decodeTensor(m TensorMeta, data []byte) (*tensor.RawTensor, error) {
	dtype, err := safeTensorsToDtype(m.DType)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", m.Name, err)
	}
	size, err := tensor.Shape(m.Shape).ByteSize(dtype)
	if err != nil {
		return nil, &ValidationError{
			Type:    "invalid_shape",
			Tensor:  m.Name,
			Details: err.Error(),
			Err:     ErrOutOfBounds,
		}
	}
	if int64(size) != m.Size {
		return nil, &ValidationError{
			Type:    "size_mismatch",
			Tensor:  m.Name,
			Details: fmt.Sprintf("shape %v of %s needs %d bytes, header has %d", m.Shape, m.DType, size, m.Size),
			Err:     ErrOutOfBounds,
		}
	}
	t, err := tensor.NewRaw(tensor.Shape(m.Shape), dtype, tensor.CPU)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", m.Name, err)
	}
	copy(t.Data(), data[m.Offset:m.Offset+m.Size])
	return t, nil
}

// dtypeToSafeTensors converts tensor.DataType to SafeTensors dtype string.
func dtypeToSafeTensors(dt tensor.DataType) (string, error) {
	switch dt {
	case tensor.Float32:
		return "F32", nil
	case tensor.Float64:
		return "F64", nil
	case tensor.Int32:
		return "I32", nil
	case tensor.Uint8:
		return "U8", nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedDType, dt)
}

func safeTensorsToDtype(s string) (tensor.DataType, error) {
	switch s {
	case "F32":
		return tensor.Float32, nil
	case "F64":
		return tensor.Float64, nil
	case "I32":
		return tensor.Int32, nil
	case "U8":
		return tensor.Uint8, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedDType, s)
}

// IsValidationError reports whether err is a *ValidationError.
func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
