package verify

import (
	"fmt"

	"github.com/born-ml/seqconv/internal/tensor"
)

// Kernel names as reported by Run.
const (
	KernelConvolveSequence         = "convolve_sequence"
	KernelConvolveSequenceGradient = "convolve_sequence_gradient"
	KernelConv1D                   = "conv1d"
	KernelConv1DGradFilters        = "conv1d_grad_filters"
	KernelConv1DGradInput          = "conv1d_grad_input"
	KernelMaxPool                  = "max_pool"
	KernelMaxPoolGradient          = "max_pool_gradient"
	KernelSumPool                  = "sum_pool"
	KernelSumPoolGradient          = "sum_pool_gradient"
)

// Kernels lists every kernel in report order.
var Kernels = []string{
	KernelConvolveSequence,
	KernelConvolveSequenceGradient,
	KernelConv1D,
	KernelConv1DGradFilters,
	KernelConv1DGradInput,
	KernelMaxPool,
	KernelMaxPoolGradient,
	KernelSumPool,
	KernelSumPoolGradient,
}

// KernelTolerances bounds the float32 max relative error
// (reference.MaxRelError) of each kernel against the float64 reference.
var KernelTolerances = map[string]float64{
	KernelConvolveSequence:         1e-4,
	KernelConvolveSequenceGradient: 1e-3,
	KernelConv1D:                   1e-4,
	KernelConv1DGradFilters:        1e-4,
	KernelConv1DGradInput:          1e-4,
	KernelMaxPool:                  0,
	KernelMaxPoolGradient:          0,
	KernelSumPool:                  1e-5,
	KernelSumPoolGradient:          0,
}

// float64Tolerance applies to every kernel run in float64.
const float64Tolerance = 1e-10

// KernelTolerance returns the bound for a kernel at a dtype.
func KernelTolerance(name string, dtype tensor.DataType) (float64, error) {
	tol, ok := KernelTolerances[name]
	if !ok {
		return 0, fmt.Errorf("verify: no tolerance configured for kernel %q", name)
	}
	if dtype == tensor.Float64 {
		return min(tol, float64Tolerance), nil
	}
	return tol, nil
}
