package nn

import (
	"fmt"

	"github.com/born-ml/seqconv/internal/tensor"
)

// MaxPooling pools filter maps with non-overlapping windows and flattens the
// result.
//
// Input shape:  [batch, width, n_filters], width % pool_size == 0
// Output shape: [batch, (width / pool_size) * n_filters]
type MaxPooling[B tensor.Backend] struct {
	backend  B
	poolSize int
}

// NewMaxPooling creates a max pooling layer.
func NewMaxPooling[B tensor.Backend](backend B, poolSize int) (*MaxPooling[B], error) {
	if poolSize < 1 {
		return nil, fmt.Errorf("max pooling: pool size %d must be >= 1", poolSize)
	}
	return &MaxPooling[B]{backend: backend, poolSize: poolSize}, nil
}

// Forward returns the flattened pooled activations and the argmax tensor
// needed by Backward.
func (l *MaxPooling[B]) Forward(filtermap *tensor.RawTensor) (activations, argmax *tensor.RawTensor, err error) {
	pooled, argmax, err := l.backend.MaxPool(filtermap, l.poolSize)
	if err != nil {
		return nil, nil, err
	}
	activations, err = flatten(pooled)
	if err != nil {
		return nil, nil, err
	}
	return activations, argmax, nil
}

// Backward routes the gradient of the flattened activations back to the
// filter map.
func (l *MaxPooling[B]) Backward(filtermap, argmax, dfActivations *tensor.RawTensor) (*tensor.RawTensor, error) {
	dfPooled, err := dfActivations.Reshape(argmax.Shape())
	if err != nil {
		return nil, fmt.Errorf("max pooling backward: %w", err)
	}
	return l.backend.MaxPoolGradient(filtermap, argmax, dfPooled)
}

// PoolSize returns the window size.
func (l *MaxPooling[B]) PoolSize() int {
	return l.poolSize
}

// Parameters returns nil; pooling has no trainable parameters.
func (l *MaxPooling[B]) Parameters() []*Parameter {
	return nil
}

// Backend returns the layer's backend.
func (l *MaxPooling[B]) Backend() B {
	return l.backend
}

// SumPooling sums filter maps over non-overlapping windows and flattens the
// result. Shapes are as for MaxPooling.
type SumPooling[B tensor.Backend] struct {
	backend  B
	poolSize int
}

// NewSumPooling creates a sum pooling layer.
func NewSumPooling[B tensor.Backend](backend B, poolSize int) (*SumPooling[B], error) {
	if poolSize < 1 {
		return nil, fmt.Errorf("sum pooling: pool size %d must be >= 1", poolSize)
	}
	return &SumPooling[B]{backend: backend, poolSize: poolSize}, nil
}

// Forward returns the flattened window sums.
func (l *SumPooling[B]) Forward(filtermap *tensor.RawTensor) (*tensor.RawTensor, error) {
	pooled, err := l.backend.SumPool(filtermap, l.poolSize)
	if err != nil {
		return nil, err
	}
	return flatten(pooled)
}

// Backward broadcasts the gradient of the flattened activations back to the
// filter map.
func (l *SumPooling[B]) Backward(filtermap, dfActivations *tensor.RawTensor) (*tensor.RawTensor, error) {
	s := filtermap.Shape()
	if s.Validate() != nil || len(s) != 3 || s[1]%l.poolSize != 0 {
		return nil, fmt.Errorf("sum pooling backward: filter map %v with pool %d: %w",
			s, l.poolSize, tensor.ErrShapeMismatch)
	}
	dfPooled, err := dfActivations.Reshape(tensor.Shape{s[0], s[1] / l.poolSize, s[2]})
	if err != nil {
		return nil, fmt.Errorf("sum pooling backward: %w", err)
	}
	return l.backend.SumPoolGradient(filtermap, dfPooled)
}

// PoolSize returns the window size.
func (l *SumPooling[B]) PoolSize() int {
	return l.poolSize
}

// Parameters returns nil; pooling has no trainable parameters.
func (l *SumPooling[B]) Parameters() []*Parameter {
	return nil
}

// Backend returns the layer's backend.
func (l *SumPooling[B]) Backend() B {
	return l.backend
}

// flatten reshapes [batch, w, F] to [batch, w*F] without copying.
func flatten(t *tensor.RawTensor) (*tensor.RawTensor, error) {
	s := t.Shape()
	return t.Reshape(tensor.Shape{s[0], s[1] * s[2]})
}
