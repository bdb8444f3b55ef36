package cpu

import "time"

// The simulated device clock. Events recorded on a simulated stream stamp
// this clock rather than comparing time.Time values directly, mirroring how
// accelerator events carry raw device timestamps.

var tickBase = time.Now()

// Ticks returns a monotonic timestamp in nanoseconds since process-local
// base. Only differences between two Ticks values are meaningful.
func Ticks() int64 {
	return int64(time.Since(tickBase))
}

// TicksToDuration converts a tick delta to a wall-clock duration.
func TicksToDuration(delta int64) time.Duration {
	return time.Duration(delta)
}
