package guda

import (
	"runtime"
	"strings"

	"golang.org/x/sys/cpu"
)

// CPUFeatures tracks available CPU instruction set extensions
type CPUFeatures struct {
	HasSSE4    bool
	HasAVX     bool
	HasAVX2    bool
	HasAVX512F bool
	HasFMA     bool
	HasNEON    bool
	HasSVE     bool
}

// Global CPU feature detection
var cpuFeatures = detectCPUFeatures()

// detectCPUFeatures reads the x/sys/cpu flags for both supported families.
// Fields of the other family stay false.
func detectCPUFeatures() CPUFeatures {
	return CPUFeatures{
		HasSSE4:    cpu.X86.HasSSE41 || cpu.X86.HasSSE42,
		HasAVX:     cpu.X86.HasAVX,
		HasAVX2:    cpu.X86.HasAVX2,
		HasAVX512F: cpu.X86.HasAVX512F,
		HasFMA:     cpu.X86.HasFMA,
		HasNEON:    cpu.ARM64.HasASIMD,
		HasSVE:     cpu.ARM64.HasSVE,
	}
}

// Features returns the host's detected instruction set extensions
func Features() CPUFeatures {
	return cpuFeatures
}

// List returns the names of the detected extensions
func (f CPUFeatures) List() []string {
	var features []string
	add := func(ok bool, name string) {
		if ok {
			features = append(features, name)
		}
	}
	add(f.HasSSE4, "SSE4")
	add(f.HasAVX, "AVX")
	add(f.HasAVX2, "AVX2")
	add(f.HasFMA, "FMA")
	add(f.HasAVX512F, "AVX512F")
	add(f.HasNEON, "NEON")
	add(f.HasSVE, "SVE")
	return features
}

// CPUInfo returns a one-line description of the host used as the device
func CPUInfo() string {
	features := cpuFeatures.List()
	if len(features) == 0 {
		return runtime.GOARCH + ": no SIMD extensions detected"
	}
	return runtime.GOARCH + ": " + strings.Join(features, ", ")
}
