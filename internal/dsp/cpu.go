package dsp

import "golang.org/x/sys/cpu"

// Features records the CPU capabilities detected at process start. Nothing
// in the package reads it: Init() registers the portable Go kernels, the
// amd64 init() in dsp_amd64.go picks SSE2/AVX2 entries using hasAVX2 from
// cpuid_amd64.go, and arm64 kernels are selected by build constraint.
var Features struct {
	SSE2 bool
	AVX2 bool
	NEON bool
}

func detectFeatures() {
	Features.SSE2 = cpu.X86.HasSSE2
	Features.AVX2 = cpu.X86.HasAVX2
	Features.NEON = cpu.ARM64.HasASIMD
}
