//go:build windows

package webgpu

import (
	"math/rand"
	"testing"

	"github.com/born-ml/seqconv/internal/backend/cpu"
	"github.com/born-ml/seqconv/internal/parallel"
	"github.com/born-ml/seqconv/internal/seq"
	"github.com/born-ml/seqconv/internal/tensor"
	"github.com/go-webgpu/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBackend(t *testing.T) (*Backend, *cpu.CPUBackend) {
	t.Helper()
	host := cpu.NewWithConfig(parallel.Sequential())
	backend, err := New(host)
	if err != nil {
		t.Logf("WebGPU not available: %v", err)
		t.Skip("WebGPU not available on this system")
	}
	t.Cleanup(backend.Release)
	return backend, host
}

func randTensor(t *testing.T, rng *rand.Rand, dtype tensor.DataType, shape ...int) *tensor.RawTensor {
	t.Helper()
	r, err := tensor.Rand(tensor.Shape(shape), dtype, rng)
	require.NoError(t, err)
	return r
}

func TestIsAvailable(t *testing.T) {
	t.Logf("WebGPU available: %v", IsAvailable())
	desc, err := Describe()
	if err == nil {
		t.Logf("Adapter: %s", desc)
	}
}

func TestNew(t *testing.T) {
	backend, _ := newTestBackend(t)
	assert.NotEmpty(t, backend.Name())
	assert.Equal(t, tensor.WebGPU, backend.Device())

	_, err := New(nil)
	assert.Error(t, err)
}

func TestAdapterDescription(t *testing.T) {
	info := &wgpu.AdapterInfoGo{Device: "RTX 4090", Vendor: "NVIDIA", BackendType: wgpu.BackendTypeD3D12}
	assert.Equal(t, "WebGPU (RTX 4090)", backendName(info))
	assert.Contains(t, describeAdapter(info), "RTX 4090 (NVIDIA, ")

	assert.Equal(t, "WebGPU", backendName(nil))
	assert.Equal(t, "WebGPU", backendName(&wgpu.AdapterInfoGo{}))
	assert.Equal(t, "unknown adapter", describeAdapter(nil))
	assert.Contains(t, describeAdapter(&wgpu.AdapterInfoGo{Vendor: "AMD"}), "unknown device (AMD, ")
}

func TestConvolveSequence_MatchesCPU(t *testing.T) {
	gpu, host := newTestBackend(t)
	rng := rand.New(rand.NewSource(1))
	codes, err := seq.Encode(seq.SampleAmbiguous(200, 100, rng))
	require.NoError(t, err)
	filters := randTensor(t, rng, tensor.Float32, 8, 12, 4)
	bias := randTensor(t, rng, tensor.Float32, 8)

	got, err := gpu.ConvolveSequence(codes, filters, bias)
	require.NoError(t, err)
	want, err := host.ConvolveSequence(codes, filters, bias)
	require.NoError(t, err)
	assert.InDeltaSlice(t, want.Float64s(), got.Float64s(), 1e-4)
}

func TestConv1D_MatchesCPU(t *testing.T) {
	gpu, host := newTestBackend(t)
	rng := rand.New(rand.NewSource(2))
	x := randTensor(t, rng, tensor.Float32, 16, 60, 6)
	w := randTensor(t, rng, tensor.Float32, 5, 7, 6)
	b := randTensor(t, rng, tensor.Float32, 5)
	dy := randTensor(t, rng, tensor.Float32, 16, 54, 5)

	got, err := gpu.Conv1D(x, w, b)
	require.NoError(t, err)
	want, err := host.Conv1D(x, w, b)
	require.NoError(t, err)
	assert.InDeltaSlice(t, want.Float64s(), got.Float64s(), 1e-4)

	gotDX, err := gpu.Conv1DGradInput(dy, w)
	require.NoError(t, err)
	wantDX, err := host.Conv1DGradInput(dy, w)
	require.NoError(t, err)
	assert.InDeltaSlice(t, wantDX.Float64s(), gotDX.Float64s(), 1e-4)
}

func TestPools_MatchCPU(t *testing.T) {
	gpu, host := newTestBackend(t)
	rng := rand.New(rand.NewSource(3))
	x := randTensor(t, rng, tensor.Float32, 4, 640, 3)
	dy := randTensor(t, rng, tensor.Float32, 4, 10, 3)

	gotOut, gotIdx, err := gpu.MaxPool(x, 64)
	require.NoError(t, err)
	wantOut, wantIdx, err := host.MaxPool(x, 64)
	require.NoError(t, err)
	assert.Equal(t, wantOut.AsFloat32(), gotOut.AsFloat32())
	assert.Equal(t, wantIdx.AsInt32(), gotIdx.AsInt32())

	gotDX, err := gpu.MaxPoolGradient(x, wantIdx, dy)
	require.NoError(t, err)
	wantDX, err := host.MaxPoolGradient(x, wantIdx, dy)
	require.NoError(t, err)
	assert.Equal(t, wantDX.AsFloat32(), gotDX.AsFloat32())

	gotSum, err := gpu.SumPool(x, 64)
	require.NoError(t, err)
	wantSum, err := host.SumPool(x, 64)
	require.NoError(t, err)
	assert.InDeltaSlice(t, wantSum.Float64s(), gotSum.Float64s(), 1e-4)

	gotSG, err := gpu.SumPoolGradient(x, dy)
	require.NoError(t, err)
	wantSG, err := host.SumPoolGradient(x, dy)
	require.NoError(t, err)
	assert.Equal(t, wantSG.AsFloat32(), gotSG.AsFloat32())
}

func TestFloat64_UsesHost(t *testing.T) {
	gpu, _ := newTestBackend(t)
	rng := rand.New(rand.NewSource(4))
	x := randTensor(t, rng, tensor.Float64, 2, 8, 2)

	out, _, err := gpu.MaxPool(x, 4)
	require.NoError(t, err)
	assert.Equal(t, tensor.Float64, out.DType())
	assert.Equal(t, tensor.CPU, out.Device())
}

func TestErrors(t *testing.T) {
	gpu, _ := newTestBackend(t)
	rng := rand.New(rand.NewSource(5))
	x := randTensor(t, rng, tensor.Float32, 2, 10, 3)

	_, _, err := gpu.MaxPool(x, 3)
	assert.ErrorIs(t, err, tensor.ErrShapeMismatch)

	bad := make([]int32, 30)
	bad[0] = 5
	argmax, err := tensor.FromInt32(bad, tensor.Shape{2, 5, 3})
	require.NoError(t, err)
	_, err = gpu.MaxPoolGradient(x, argmax, randTensor(t, rng, tensor.Float32, 2, 5, 3))
	assert.ErrorIs(t, err, tensor.ErrIndexOutOfRange)
}
