//go:build windows

package webgpu

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/born-ml/seqconv/internal/tensor"
	"github.com/go-webgpu/webgpu/wgpu"
)

// Backend implements tensor.Backend on the GPU using WebGPU.
type Backend struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	// Shader and pipeline cache
	shaders   map[string]*wgpu.ShaderModule
	pipelines map[string]*wgpu.ComputePipeline
	mu        sync.RWMutex

	// Output and staging buffers reused across kernel calls
	pool *bufferPool

	// Device info, nil when the adapter did not report it
	adapterInfo *wgpu.AdapterInfoGo

	// host runs float64 calls and the batch-reducing filter gradients.
	host tensor.Backend
	log  *slog.Logger
}

// Compile-time interface check.
var _ Accelerator = (*Backend)(nil)

// Open creates a WebGPU backend that delegates to host where the GPU path
// does not apply.
func Open(host tensor.Backend) (Accelerator, error) {
	return New(host)
}

// New creates a new WebGPU backend.
// Returns an error if WebGPU is not available or initialization fails.
func New(host tensor.Backend) (backend *Backend, err error) {
	if host == nil {
		return nil, fmt.Errorf("webgpu: host backend is required")
	}

	// Recover from panic if wgpu_native library is not found.
	defer func() {
		if r := recover(); r != nil {
			backend = nil
			err = fmt.Errorf("%w: native library: %v", ErrUnavailable, r)
		}
	}()

	instance, instanceErr := wgpu.CreateInstance(nil)
	if instanceErr != nil {
		return nil, fmt.Errorf("%w: create instance: %w", ErrUnavailable, instanceErr)
	}
	adapter, adapterErr := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if adapterErr != nil {
		instance.Release()
		return nil, fmt.Errorf("%w: request adapter: %w", ErrUnavailable, adapterErr)
	}

	// Adapter info is informational only.
	adapterInfo, infoErr := adapter.GetInfo()
	if infoErr != nil {
		slog.Debug("webgpu: adapter info unavailable", "error", infoErr)
		adapterInfo = nil
	}

	device, deviceErr := adapter.RequestDevice(nil)
	if deviceErr != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("%w: request device: %w", ErrUnavailable, deviceErr)
	}

	queue := device.GetQueue()
	if queue == nil {
		device.Release()
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("%w: no device queue", ErrUnavailable)
	}

	b := &Backend{
		instance:    instance,
		adapter:     adapter,
		device:      device,
		queue:       queue,
		shaders:     make(map[string]*wgpu.ShaderModule),
		pipelines:   make(map[string]*wgpu.ComputePipeline),
		pool:        newBufferPool(device),
		adapterInfo: adapterInfo,
		host:        host,
		log:         slog.Default().With("backend", "webgpu"),
	}
	b.log.Debug("adapter selected", "adapter", describeAdapter(adapterInfo))

	return b, nil
}

// Release releases all WebGPU resources.
// Must be called when the backend is no longer needed.
func (b *Backend) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.pool != nil {
		b.pool.clear()
		b.pool = nil
	}

	for _, p := range b.pipelines {
		p.Release()
	}
	b.pipelines = nil

	for _, s := range b.shaders {
		s.Release()
	}
	b.shaders = nil

	if b.queue != nil {
		b.queue.Release()
		b.queue = nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}

// Name returns the backend name.
func (b *Backend) Name() string {
	return backendName(b.adapterInfo)
}

func backendName(info *wgpu.AdapterInfoGo) string {
	if info != nil && info.Device != "" {
		return fmt.Sprintf("WebGPU (%s)", info.Device)
	}
	return "WebGPU"
}

// describeAdapter formats info as "device (vendor, backend type)".
func describeAdapter(info *wgpu.AdapterInfoGo) string {
	if info == nil {
		return "unknown adapter"
	}
	device := info.Device
	if device == "" {
		device = "unknown device"
	}
	return fmt.Sprintf("%s (%s, %v)", device, info.Vendor, info.BackendType)
}

// Device returns the compute device.
func (b *Backend) Device() tensor.Device {
	return tensor.WebGPU
}

// AdapterInfo returns information about the GPU adapter, or nil if the
// adapter did not report any.
func (b *Backend) AdapterInfo() *wgpu.AdapterInfoGo {
	return b.adapterInfo
}

// IsAvailable checks if WebGPU is available on this system.
func IsAvailable() (available bool) {
	// Recover from panic if wgpu_native library is not found.
	defer func() {
		if r := recover(); r != nil {
			available = false
		}
	}()

	instance, err := wgpu.CreateInstance(nil)
	if err != nil {
		return false
	}
	defer instance.Release()

	adapter, err := instance.RequestAdapter(nil)
	if err != nil {
		return false
	}
	adapter.Release()

	return true
}

// Describe returns a one-line description of the default adapter.
func Describe() (desc string, err error) {
	// Recover from panic if wgpu_native library is not found.
	defer func() {
		if r := recover(); r != nil {
			desc = ""
			err = fmt.Errorf("%w: native library: %v", ErrUnavailable, r)
		}
	}()

	instance, instanceErr := wgpu.CreateInstance(nil)
	if instanceErr != nil {
		return "", fmt.Errorf("%w: %w", ErrUnavailable, instanceErr)
	}
	defer instance.Release()

	adapter, adapterErr := instance.RequestAdapter(nil)
	if adapterErr != nil {
		return "", fmt.Errorf("%w: %w", ErrUnavailable, adapterErr)
	}
	defer adapter.Release()

	info, infoErr := adapter.GetInfo()
	if infoErr != nil {
		return "", fmt.Errorf("webgpu: adapter info: %w", infoErr)
	}
	return describeAdapter(info), nil
}
