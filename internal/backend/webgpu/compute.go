//go:build windows

package webgpu

import (
	"encoding/binary"
	"fmt"
	"unsafe"

	"github.com/go-webgpu/webgpu/wgpu"
)

// compileShader compiles WGSL shader code into a ShaderModule.
// Results are cached in the Backend's shaders map.
func (b *Backend) compileShader(name, code string) *wgpu.ShaderModule {
	b.mu.RLock()
	if shader, exists := b.shaders[name]; exists {
		b.mu.RUnlock()
		return shader
	}
	b.mu.RUnlock()

	shader := b.device.CreateShaderModuleWGSL(code)

	b.mu.Lock()
	b.shaders[name] = shader
	b.mu.Unlock()

	return shader
}

// getOrCreatePipeline returns a cached ComputePipeline or creates a new one.
func (b *Backend) getOrCreatePipeline(name string, shader *wgpu.ShaderModule) *wgpu.ComputePipeline {
	b.mu.RLock()
	if pipeline, exists := b.pipelines[name]; exists {
		b.mu.RUnlock()
		return pipeline
	}
	b.mu.RUnlock()

	// Auto layout (nil layout)
	pipeline := b.device.CreateComputePipelineSimple(nil, shader, "main")

	b.mu.Lock()
	b.pipelines[name] = pipeline
	b.mu.Unlock()

	return pipeline
}

// createBuffer creates a storage buffer holding a copy of data.
func (b *Backend) createBuffer(data []byte, usage wgpu.BufferUsage) *wgpu.Buffer {
	size := uint64(len(data))

	buffer := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            usage,
		Size:             size,
		MappedAtCreation: wgpu.True,
	})

	mappedPtr := buffer.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), size)
	copy(mappedSlice, data)
	buffer.Unmap()

	return buffer
}

// createUniformBuffer creates a uniform buffer with proper alignment.
// Uniform buffers require 16-byte alignment for struct fields.
func (b *Backend) createUniformBuffer(data []byte) *wgpu.Buffer {
	size := uint64(len(data))
	alignedSize := (size + 15) &^ 15

	buffer := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		Size:             alignedSize,
		MappedAtCreation: wgpu.True,
	})

	mappedPtr := buffer.GetMappedRange(0, alignedSize)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), alignedSize)
	copy(mappedSlice, data)
	buffer.Unmap()

	return buffer
}

const (
	outputUsage  = wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst
	stagingUsage = wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst
)

// readBuffer reads data back from a GPU buffer to CPU memory.
// Uses a pooled staging buffer since storage buffers can't be mapped directly.
func (b *Backend) readBuffer(srcBuffer *wgpu.Buffer, size uint64) ([]byte, error) {
	stagingBuffer := b.pool.acquire(size, stagingUsage)
	defer b.pool.release(stagingBuffer, size, stagingUsage)

	encoder := b.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(srcBuffer, 0, stagingBuffer, 0, size)
	cmdBuffer := encoder.Finish(nil)
	b.queue.Submit(cmdBuffer)

	if err := stagingBuffer.MapAsync(b.device, wgpu.MapModeRead, 0, size); err != nil {
		return nil, fmt.Errorf("failed to map staging buffer: %w", err)
	}

	mappedPtr := stagingBuffer.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), size)
	result := make([]byte, size)
	copy(result, mappedSlice)
	stagingBuffer.Unmap()

	return result, nil
}

// encodeParams packs u32 shader parameters into a 16-byte aligned block.
func encodeParams(values ...int) []byte {
	buf := make([]byte, (len(values)*4+15)&^15)
	for i, v := range values {
		//nolint:gosec // G115: kernel dimensions are validated non-negative and fit in u32
		binary.LittleEndian.PutUint32(buf[i*4:], uint32(v))
	}
	return buf
}

// dispatchSize splits a thread count into a 2-D workgroup grid that respects
// the per-axis dispatch limit. Shaders rebuild the flat index as
// gid.x + gid.y * num_workgroups.x * workgroupSize.
func dispatchSize(threads int) (x, y uint32) {
	groups := (threads + workgroupSize - 1) / workgroupSize
	if groups <= maxWorkgroupsPerDim {
		//nolint:gosec // G115: bounded by maxWorkgroupsPerDim
		return uint32(max(groups, 1)), 1
	}
	rows := (groups + maxWorkgroupsPerDim - 1) / maxWorkgroupsPerDim
	//nolint:gosec // G115: bounded by maxWorkgroupsPerDim
	return maxWorkgroupsPerDim, uint32(rows)
}

// runKernel executes one compute shader.
//
// Bindings are laid out as inputs, then outputs, then the params uniform.
// threads is the number of invocations (one per element of outputs[0]).
// It returns the contents of every output buffer.
func (b *Backend) runKernel(name, code string, inputs [][]byte, outputSizes []int, params []byte, threads int) ([][]byte, error) {
	shader := b.compileShader(name, code)
	pipeline := b.getOrCreatePipeline(name, shader)

	entries := make([]wgpu.BindGroupEntry, 0, len(inputs)+len(outputSizes)+1)
	var binding uint32

	for _, data := range inputs {
		buf := b.createBuffer(data, wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
		defer buf.Release()
		entries = append(entries, wgpu.BufferBindingEntry(binding, buf, 0, uint64(len(data))))
		binding++
	}

	outputs := make([]*wgpu.Buffer, len(outputSizes))
	for i, size := range outputSizes {
		//nolint:gosec // G115: byte sizes are non-negative
		outputs[i] = b.pool.acquire(uint64(size), outputUsage)
		defer b.pool.release(outputs[i], uint64(size), outputUsage)
		entries = append(entries, wgpu.BufferBindingEntry(binding, outputs[i], 0, uint64(size)))
		binding++
	}

	paramBuf := b.createUniformBuffer(params)
	defer paramBuf.Release()
	entries = append(entries, wgpu.BufferBindingEntry(binding, paramBuf, 0, uint64(len(params))))

	bindGroupLayout := pipeline.GetBindGroupLayout(0)
	bindGroup := b.device.CreateBindGroupSimple(bindGroupLayout, entries)
	defer bindGroup.Release()

	encoder := b.device.CreateCommandEncoder(nil)
	computePass := encoder.BeginComputePass(nil)
	computePass.SetPipeline(pipeline)
	computePass.SetBindGroup(0, bindGroup, nil)
	x, y := dispatchSize(threads)
	computePass.DispatchWorkgroups(x, y, 1)
	computePass.End()

	cmdBuffer := encoder.Finish(nil)
	b.queue.Submit(cmdBuffer)

	results := make([][]byte, len(outputs))
	for i, buf := range outputs {
		//nolint:gosec // G115: byte sizes are non-negative
		data, err := b.readBuffer(buf, uint64(outputSizes[i]))
		if err != nil {
			return nil, fmt.Errorf("webgpu: %s: %w", name, err)
		}
		results[i] = data
	}
	return results, nil
}
