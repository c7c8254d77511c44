package doctor

import (
	"runtime"

	"golang.org/x/sys/cpu"
)

// CPUFeatures tracks the SIMD extensions relevant to the GEMM and
// convolution kernels.
type CPUFeatures struct {
	Arch       string
	HasSSE4    bool
	HasAVX     bool
	HasAVX2    bool
	HasFMA     bool
	HasAVX512F bool
	HasNEON    bool // ARM64 Advanced SIMD
}

// DetectCPUFeatures reads the running CPU's features.
func DetectCPUFeatures() CPUFeatures {
	return CPUFeatures{
		Arch:       runtime.GOARCH,
		HasSSE4:    cpu.X86.HasSSE41 || cpu.X86.HasSSE42,
		HasAVX:     cpu.X86.HasAVX,
		HasAVX2:    cpu.X86.HasAVX2,
		HasFMA:     cpu.X86.HasFMA,
		HasAVX512F: cpu.X86.HasAVX512F,
		HasNEON:    cpu.ARM64.HasASIMD,
	}
}

// List returns the detected feature names in a fixed order.
func (f CPUFeatures) List() []string {
	var features []string
	for _, c := range []struct {
		ok   bool
		name string
	}{
		{f.HasSSE4, "SSE4"},
		{f.HasAVX, "AVX"},
		{f.HasAVX2, "AVX2"},
		{f.HasFMA, "FMA"},
		{f.HasAVX512F, "AVX512F"},
		{f.HasNEON, "NEON"},
	} {
		if c.ok {
			features = append(features, c.name)
		}
	}
	return features
}

// SIMDLevel names the widest vector extension available.
func (f CPUFeatures) SIMDLevel() string {
	switch {
	case f.HasAVX512F:
		return "AVX512"
	case f.HasAVX2 && f.HasFMA:
		return "AVX2"
	case f.HasSSE4:
		return "SSE4"
	case f.HasNEON:
		return "NEON"
	default:
		return "scalar"
	}
}
