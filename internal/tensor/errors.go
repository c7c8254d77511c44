package tensor

import (
	"errors"
	"fmt"
)

// Kernel argument errors. Every kernel validates its arguments before
// touching any data and reports failures by wrapping one of these.
var (
	ErrShapeMismatch   = errors.New("shape mismatch")
	ErrDTypeMismatch   = errors.New("dtype mismatch")
	ErrIndexOutOfRange = errors.New("index out of range")
)

func shapeErr(op, format string, args ...any) error {
	return fmt.Errorf("%s: %s: %w", op, fmt.Sprintf(format, args...), ErrShapeMismatch)
}

func dtypeErr(op, format string, args ...any) error {
	return fmt.Errorf("%s: %s: %w", op, fmt.Sprintf(format, args...), ErrDTypeMismatch)
}
