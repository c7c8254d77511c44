package seq

import (
	"fmt"

	"github.com/born-ml/seqconv/internal/tensor"
)

// Encode converts equal-length sequences into a Uint8 tensor of symbol codes
// with shape [len(seqs), width]. Nothing is returned on error.
func Encode(seqs []string) (*tensor.RawTensor, error) {
	if len(seqs) == 0 {
		return nil, fmt.Errorf("encode: no sequences: %w", tensor.ErrShapeMismatch)
	}
	width := len(seqs[0])
	if width == 0 {
		return nil, fmt.Errorf("encode: sequence 0 is empty: %w", tensor.ErrShapeMismatch)
	}

	codes := make([]uint8, 0, len(seqs)*width)
	for i, s := range seqs {
		if len(s) != width {
			return nil, fmt.Errorf("encode: sequence %d has length %d, expected %d: %w",
				i, len(s), width, tensor.ErrShapeMismatch)
		}
		for pos, r := range s {
			code, ok := ParseSymbol(r)
			if !ok {
				return nil, fmt.Errorf("encode: %w", &SymbolError{Seq: i, Pos: pos, Rune: r})
			}
			codes = append(codes, code)
		}
	}

	return tensor.FromUint8(codes, tensor.Shape{len(seqs), width})
}

// Decode converts a tensor of symbol codes back into upper-case sequences.
func Decode(t *tensor.RawTensor) ([]string, error) {
	if err := CheckCodes(t); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	batch, width := t.Shape()[0], t.Shape()[1]
	codes := t.AsUint8()

	out := make([]string, batch)
	buf := make([]byte, width)
	for n := 0; n < batch; n++ {
		for j, code := range codes[n*width : (n+1)*width] {
			buf[j] = letters[code]
		}
		out[n] = string(buf)
	}
	return out, nil
}

// CheckCodes verifies that t is a [batch, width] Uint8 tensor holding only
// valid symbol codes.
func CheckCodes(t *tensor.RawTensor) error {
	if t == nil || t.Rank() != 2 {
		return fmt.Errorf("codes must be a 2D tensor: %w", tensor.ErrShapeMismatch)
	}
	if t.DType() != tensor.Uint8 {
		return fmt.Errorf("codes must be uint8, got %s: %w", t.DType(), tensor.ErrDTypeMismatch)
	}
	width := t.Shape()[1]
	for i, code := range t.AsUint8() {
		if int(code) >= NumSymbols {
			return fmt.Errorf("code %d: %w", code, &SymbolError{Seq: i / width, Pos: i % width, Rune: rune(code)})
		}
	}
	return nil
}

// OneHot expands symbol codes into the interpolated [batch, width, 4]
// encoding: each position holds the Weights row of its code.
func OneHot(t *tensor.RawTensor, dtype tensor.DataType) (*tensor.RawTensor, error) {
	if err := CheckCodes(t); err != nil {
		return nil, fmt.Errorf("one_hot: %w", err)
	}
	shape := tensor.Shape{t.Shape()[0], t.Shape()[1], Channels}
	switch dtype {
	case tensor.Float32:
		return oneHot[float32](t.AsUint8(), shape)
	case tensor.Float64:
		return oneHot[float64](t.AsUint8(), shape)
	default:
		return nil, fmt.Errorf("one_hot: %s is not a float type: %w", dtype, tensor.ErrDTypeMismatch)
	}
}

func oneHot[T tensor.Float](codes []uint8, shape tensor.Shape) (*tensor.RawTensor, error) {
	table := Table[T]()
	out, err := tensor.Zeros(shape, tensor.DataTypeOf[T]())
	if err != nil {
		return nil, err
	}
	data := tensor.Floats[T](out)
	for i, code := range codes {
		copy(data[i*Channels:(i+1)*Channels], table[code][:])
	}
	return out, nil
}
