// Package kernels holds the host-side lane kernels used by the simulated
// backend and by reference verification.
package kernels

import "github.com/cwbudde/algo-axpy/internal/cpu"

// axpyImpl is resolved once at startup based on detected CPU features.
var axpyImpl = pickAxpy()

func pickAxpy() func(dst, x, y []float32, alpha float32) {
	if cpu.DetectFeatures().Vectorized() {
		return axpyUnrolled
	}
	return axpyGeneric
}

// Axpy computes dst[i] = alpha*x[i] + y[i] for every index of dst.
// x and y must be at least as long as dst.
func Axpy(dst, x, y []float32, alpha float32) {
	if len(dst) == 0 {
		return
	}
	_ = x[len(dst)-1]
	_ = y[len(dst)-1]
	axpyImpl(dst, x, y, alpha)
}

func axpyGeneric(dst, x, y []float32, alpha float32) {
	for i := range dst {
		dst[i] = alpha*x[i] + y[i]
	}
}

// axpyUnrolled processes four lanes per iteration. The independent
// accumulators let the compiler keep the loop in vector registers on
// AVX2/NEON hardware.
func axpyUnrolled(dst, x, y []float32, alpha float32) {
	n := len(dst)
	i := 0
	for ; i+4 <= n; i += 4 {
		d0 := alpha*x[i] + y[i]
		d1 := alpha*x[i+1] + y[i+1]
		d2 := alpha*x[i+2] + y[i+2]
		d3 := alpha*x[i+3] + y[i+3]
		dst[i] = d0
		dst[i+1] = d1
		dst[i+2] = d2
		dst[i+3] = d3
	}
	for ; i < n; i++ {
		dst[i] = alpha*x[i] + y[i]
	}
}
