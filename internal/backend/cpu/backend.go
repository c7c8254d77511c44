// Package cpu implements the CPU backend with lookup-table sequence kernels
// and BLAS-backed dense convolution.
package cpu

import (
	"github.com/born-ml/seqconv/internal/parallel"
	"github.com/born-ml/seqconv/internal/tensor"
)

// CPUBackend implements tensor.Backend on the CPU. Kernels are data-parallel
// over batch rows.
type CPUBackend struct {
	device tensor.Device
	par    parallel.Config
}

// Compile-time interface check.
var _ tensor.Backend = (*CPUBackend)(nil)

// New creates a new CPU backend using every available core.
func New() *CPUBackend {
	return NewWithConfig(parallel.DefaultConfig())
}

// NewWithConfig creates a CPU backend with an explicit parallel configuration.
// parallel.Sequential() gives a single-threaded backend.
func NewWithConfig(cfg parallel.Config) *CPUBackend {
	return &CPUBackend{
		device: tensor.CPU,
		par:    cfg,
	}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}

// ParallelConfig returns the backend's parallel configuration.
func (cpu *CPUBackend) ParallelConfig() parallel.Config {
	return cpu.par
}

// newOutput allocates a zeroed result tensor on this backend's device.
func (cpu *CPUBackend) newOutput(shape tensor.Shape, dtype tensor.DataType) (*tensor.RawTensor, error) {
	return tensor.NewRaw(shape, dtype, cpu.device)
}
