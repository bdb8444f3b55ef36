package device

import (
	"sync"
	"time"
)

// Backend is implemented by accelerator backends (WebGPU, simulated CPU,
// future CUDA/OpenCL). It is responsible for device discovery and context
// creation.
type Backend interface {
	Info() BackendInfo
	Available() bool
	Devices() ([]DeviceInfo, error)
	NewContext(deviceIndex int) (Context, error)
}

// Context is an explicit handle to a single device. All resources created
// from a context must be closed before the context itself is closed.
type Context interface {
	Device() DeviceInfo
	// NewBuffer allocates a device buffer holding elemCount float32 values.
	NewBuffer(elemCount int) (Buffer, error)
	// NewStream creates an in-order execution stream/queue.
	NewStream() (Stream, error)
	// NewEvent creates a timestamp event for use with Stream.Record.
	NewEvent() (Event, error)
	// NewKernel compiles the saxpy compute stage for the given group size.
	// A groupSize <= 0 selects the backend default.
	NewKernel(groupSize int) (Kernel, error)
	// Fault is a non-blocking poll of the sticky asynchronous fault state.
	// A non-nil result means a previously launched compute stage faulted.
	Fault() error
	Close() error
}

// Buffer is a device-resident allocation. Upload and Download are blocking,
// synchronous copies between host and device memory.
type Buffer interface {
	// Len returns the buffer capacity in float32 elements.
	Len() int
	Upload(src []float32) error
	Download(dst []float32) error
	Close() error
}

// Stream is an in-order execution queue. Work submitted to one stream
// executes in issue order; Synchronize blocks the host until all previously
// submitted work has completed.
type Stream interface {
	// Record enqueues a timestamp capture. The event's value is defined
	// only after the stream has been synchronized.
	Record(e Event) error
	Synchronize() error
	Close() error
}

// Event is a device-side timestamp recorded on a stream.
type Event interface {
	// Since reports the interval between start and the receiver. Both
	// events must have been recorded and their stream synchronized.
	Since(start Event) (time.Duration, error)
	Close() error
}

// Kernel is a compiled saxpy compute stage. Launch is asynchronous with
// respect to the host; completion is observed via Stream.Synchronize.
type Kernel interface {
	GroupSize() int
	// Launch computes dst[i] = alpha*x[i] + y[i] for i in [0, n) over
	// ceil(n/GroupSize()) groups of lanes. Lanes past n-1 are no-ops.
	Launch(s Stream, n int, alpha float32, x, y, dst Buffer) error
	Close() error
}

var (
	backendMu sync.RWMutex
	backend   Backend
)

// RegisterBackend registers a process-wide backend. Passing nil clears it.
func RegisterBackend(b Backend) {
	backendMu.Lock()
	backend = b
	backendMu.Unlock()
}

// Registered returns the currently registered backend, or nil.
func Registered() Backend {
	backendMu.RLock()
	b := backend
	backendMu.RUnlock()
	return b
}

// CurrentBackendInfo reports the currently registered backend, if any.
func CurrentBackendInfo() (BackendInfo, bool) {
	b := Registered()
	if b == nil {
		return BackendInfo{}, false
	}
	return b.Info(), true
}
