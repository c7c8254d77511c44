//go:build windows

package webgpu

import (
	"math/bits"
	"sync"

	"github.com/go-webgpu/webgpu/wgpu"
)

const (
	minPooledSize   = 256 // smallest size class in bytes
	maxPooledPerKey = 16  // free buffers kept per (usage, size class)
)

type poolKey struct {
	usage wgpu.BufferUsage
	class uint64
}

// bufferPool recycles kernel output and staging buffers between calls.
// Buffers are rounded up to a power-of-two size class, so a buffer can be
// reused by any request of the same usage and class.
type bufferPool struct {
	device *wgpu.Device

	mu   sync.Mutex
	free map[poolKey][]*wgpu.Buffer

	hits   uint64
	misses uint64
}

func newBufferPool(device *wgpu.Device) *bufferPool {
	return &bufferPool{
		device: device,
		free:   make(map[poolKey][]*wgpu.Buffer),
	}
}

// sizeClass returns the allocation size used for a request of size bytes.
func sizeClass(size uint64) uint64 {
	if size <= minPooledSize {
		return minPooledSize
	}
	return 1 << bits.Len64(size-1)
}

// acquire returns a buffer of at least size bytes with the given usage.
func (p *bufferPool) acquire(size uint64, usage wgpu.BufferUsage) *wgpu.Buffer {
	key := poolKey{usage: usage, class: sizeClass(size)}

	p.mu.Lock()
	if list := p.free[key]; len(list) > 0 {
		buf := list[len(list)-1]
		p.free[key] = list[:len(list)-1]
		p.hits++
		p.mu.Unlock()
		return buf
	}
	p.misses++
	p.mu.Unlock()

	return p.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: usage,
		Size:  key.class,
	})
}

// release returns a buffer obtained from acquire. Buffers beyond the
// per-key limit are freed.
func (p *bufferPool) release(buf *wgpu.Buffer, size uint64, usage wgpu.BufferUsage) {
	key := poolKey{usage: usage, class: sizeClass(size)}

	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.free[key]) >= maxPooledPerKey {
		buf.Release()
		return
	}
	p.free[key] = append(p.free[key], buf)
}

// clear frees every pooled buffer.
func (p *bufferPool) clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for key, list := range p.free {
		for _, buf := range list {
			buf.Release()
		}
		delete(p.free, key)
	}
}

// stats returns the hit and miss counts and the number of pooled buffers.
func (p *bufferPool) stats() (hits, misses uint64, pooled int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, list := range p.free {
		pooled += len(list)
	}
	return p.hits, p.misses, pooled
}
