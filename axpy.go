package axpy

import "github.com/cwbudde/algo-axpy/internal/kernels"

// DefaultGroupSize is the default number of lanes scheduled together as one
// group. Backends may cap it (WebGPU limits a workgroup to 256 invocations).
const DefaultGroupSize = 512

// Axpy is the host reference kernel: dst[i] = alpha*x[i] + y[i] for every
// index of dst. x and y must be at least as long as dst. It is used by the
// simulated backend and is handy for verifying device results.
func Axpy(dst []float32, alpha float32, x, y []float32) {
	kernels.Axpy(dst, x, y, alpha)
}

// GroupsFor returns ceil(n/groupSize), the number of lane groups launched
// for n elements. Lanes in the final group past n-1 perform no write.
func GroupsFor(n, groupSize int) int {
	if n <= 0 || groupSize <= 0 {
		return 0
	}
	return (n + groupSize - 1) / groupSize
}
