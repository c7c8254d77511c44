package nn

import (
	"fmt"

	"github.com/born-ml/seqconv/internal/tensor"
)

// concatColumns joins [batch, n_i] matrices along the second axis.
func concatColumns(parts []*tensor.RawTensor) (*tensor.RawTensor, error) {
	batch, total := parts[0].Shape()[0], 0
	dtype := parts[0].DType()
	for _, p := range parts {
		if p.Rank() != 2 || p.Shape()[0] != batch {
			return nil, fmt.Errorf("concat: %v does not match batch %d: %w", p.Shape(), batch, tensor.ErrShapeMismatch)
		}
		if p.DType() != dtype {
			return nil, fmt.Errorf("concat: %s vs %s: %w", p.DType(), dtype, tensor.ErrDTypeMismatch)
		}
		total += p.Shape()[1]
	}

	out, err := tensor.Zeros(tensor.Shape{batch, total}, dtype)
	if err != nil {
		return nil, err
	}
	elem := dtype.Size()
	dst := out.Data()
	offset := 0
	for _, p := range parts {
		width := p.Shape()[1] * elem
		src := p.Data()
		for n := 0; n < batch; n++ {
			copy(dst[(n*total*elem)+offset:], src[n*width:(n+1)*width])
		}
		offset += width
	}
	return out, nil
}

// splitColumns is the inverse of concatColumns.
func splitColumns(t *tensor.RawTensor, widths []int) ([]*tensor.RawTensor, error) {
	batch, total := t.Shape()[0], 0
	for _, w := range widths {
		total += w
	}
	if t.Rank() != 2 || t.Shape()[1] != total {
		return nil, fmt.Errorf("split: %v into %d columns: %w", t.Shape(), total, tensor.ErrShapeMismatch)
	}

	elem := t.DType().Size()
	src := t.Data()
	parts := make([]*tensor.RawTensor, len(widths))
	offset := 0
	for i, w := range widths {
		p, err := tensor.Zeros(tensor.Shape{batch, w}, t.DType())
		if err != nil {
			return nil, err
		}
		dst := p.Data()
		width := w * elem
		for n := 0; n < batch; n++ {
			copy(dst[n*width:(n+1)*width], src[n*total*elem+offset:])
		}
		parts[i] = p
		offset += width
	}
	return parts, nil
}

// multiply sets dst *= other element-wise. Shapes and dtypes must match.
func multiply(dst, other *tensor.RawTensor) {
	switch dst.DType() {
	case tensor.Float32:
		mulSlice(dst.AsFloat32(), other.AsFloat32())
	case tensor.Float64:
		mulSlice(dst.AsFloat64(), other.AsFloat64())
	}
}

func mulSlice[T tensor.Float](dst, other []T) {
	for i, v := range other {
		dst[i] *= v
	}
}

// scale sets dst *= s.
func scale(dst *tensor.RawTensor, s float64) {
	switch dst.DType() {
	case tensor.Float32:
		for i := range dst.AsFloat32() {
			dst.AsFloat32()[i] *= float32(s)
		}
	case tensor.Float64:
		data := dst.AsFloat64()
		for i := range data {
			data[i] *= s
		}
	}
}

// accumulate sets dst += other element-wise.
func accumulate(dst, other *tensor.RawTensor) {
	switch dst.DType() {
	case tensor.Float32:
		addSlice(dst.AsFloat32(), other.AsFloat32())
	case tensor.Float64:
		addSlice(dst.AsFloat64(), other.AsFloat64())
	}
}

func addSlice[T tensor.Float](dst, other []T) {
	for i, v := range other {
		dst[i] += v
	}
}
