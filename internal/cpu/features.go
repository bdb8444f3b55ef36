package cpu

import (
	"runtime"

	"golang.org/x/sys/cpu"
)

// Features reports the SIMD capabilities relevant to the host lane kernels.
type Features struct {
	HasSSE2      bool
	HasAVX2      bool
	HasAVX512    bool
	HasNEON      bool
	Architecture string
}

// DetectFeatures reports the available CPU features for the current process.
func DetectFeatures() Features {
	return Features{
		HasSSE2:      cpu.X86.HasSSE2,
		HasAVX2:      cpu.X86.HasAVX2,
		HasAVX512:    cpu.X86.HasAVX512,
		HasNEON:      cpu.ARM64.HasASIMD,
		Architecture: runtime.GOARCH,
	}
}

// Vectorized reports whether the host has a SIMD unit wide enough for the
// unrolled lane kernels to pay off.
func (f Features) Vectorized() bool {
	return f.HasAVX2 || f.HasAVX512 || f.HasNEON
}
