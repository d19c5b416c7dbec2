package parallel

import (
	"runtime"
	"strconv"

	"github.com/klauspost/cpuid/v2"
)

// Workers reports how many goroutines the network should use for batch work.
func Workers() int {
	if n := cpuid.CPU.LogicalCores; n > 0 {
		if p := runtime.GOMAXPROCS(0); p < n {
			return p
		}
		return n
	}
	return runtime.NumCPU()
}

// CPU describes the processor, for the banner printed by the commands.
func CPU() string {
	var simd string
	switch {
	case cpuid.CPU.Supports(cpuid.AVX512F, cpuid.AVX512DQ):
		simd = "avx512"
	case cpuid.CPU.Supports(cpuid.AVX2, cpuid.FMA3):
		simd = "avx2"
	case cpuid.CPU.Supports(cpuid.ASIMD):
		simd = "neon"
	default:
		simd = "scalar"
	}
	brand := cpuid.CPU.BrandName
	if brand == "" {
		brand = runtime.GOARCH
	}
	return brand + " (" + simd + ", " + strconv.Itoa(Workers()) + " workers)"
}
