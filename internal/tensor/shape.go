package tensor

import (
	"fmt"
	"math"
	"strings"
)

// Shape represents the dimensions of a tensor.
type Shape []int

// NumElements returns the total number of elements in the tensor.
func (s Shape) NumElements() int {
	n := 1
	for _, dim := range s {
		n *= dim
	}
	return n
}

// Validate checks if the shape is valid: all dimensions > 0 and an element
// count that fits in an int.
func (s Shape) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("%w: empty shape", ErrShapeMismatch)
	}
	n := 1
	for i, dim := range s {
		if dim <= 0 {
			return fmt.Errorf("%w: dimension %d is %d (must be > 0)", ErrShapeMismatch, i, dim)
		}
		if n > math.MaxInt/dim {
			return fmt.Errorf("%w: %v overflows the element count", ErrShapeMismatch, s)
		}
		n *= dim
	}
	return nil
}

// ByteSize returns the buffer size of a dtype tensor with this shape, or an
// error if the shape is invalid or the size overflows an int.
func (s Shape) ByteSize(dtype DataType) (int, error) {
	if err := s.Validate(); err != nil {
		return 0, err
	}
	n, size := s.NumElements(), dtype.Size()
	if n > math.MaxInt/size {
		return 0, fmt.Errorf("%w: %v of %s overflows the byte size", ErrShapeMismatch, s, dtype)
	}
	return n * size, nil
}

// Equal checks if two shapes are equal.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of the shape.
func (s Shape) Clone() Shape {
	clone := make(Shape, len(s))
	copy(clone, s)
	return clone
}

// String formats the shape as (d0, d1, ...).
func (s Shape) String() string {
	parts := make([]string, len(s))
	for i, d := range s {
		parts[i] = fmt.Sprint(d)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
