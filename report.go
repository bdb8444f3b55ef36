package axpy

import (
	"fmt"
	"time"
)

// bytesPerElement counts the traffic per element of one offload cycle: two
// float32 reads (x, y) and one float32 write (result).
const bytesPerElement = 3 * 4

// Report carries the measurements of one successful offload cycle.
type Report struct {
	// N is the element count of the run.
	N int
	// GroupSize and Groups describe the launch partitioning.
	GroupSize int
	Groups    int
	// Device is the name of the device that executed the run.
	Device string
	// Overall spans transfer-in, compute, and transfer-out. It excludes
	// device allocation.
	Overall time.Duration
	// Kernel is the compute-only interval measured with device events.
	Kernel time.Duration
}

// BandwidthGBps reports the achieved end-to-end memory bandwidth,
// 3*N*4 bytes over the overall elapsed time, in GB/s.
func (r Report) BandwidthGBps() float64 {
	if r.Overall <= 0 {
		return 0
	}
	return float64(r.N) * bytesPerElement / r.Overall.Seconds() / 1e9
}

// String renders the fixed two-line report format.
func (r Report) String() string {
	return fmt.Sprintf(
		"Effective BW by %s saxpy: %.3f ms  [%.3f GB/s]\n"+
			"Kernel-only execution time (using events): %.3f ms",
		r.Device,
		float64(r.Overall)/float64(time.Millisecond),
		r.BandwidthGBps(),
		float64(r.Kernel)/float64(time.Millisecond),
	)
}
