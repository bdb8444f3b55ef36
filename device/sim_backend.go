package device

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cwbudde/algo-axpy/internal/cpu"
	"github.com/cwbudde/algo-axpy/internal/kernels"
)

// SimDefaultGroupSize is the default lane group size of the simulated device.
const SimDefaultGroupSize = 512

// SimFaults configures deterministic fault injection on a SimBackend.
// Ordinals are 1-based and count operations across all contexts created
// from the backend; zero disables the corresponding injection.
type SimFaults struct {
	// FailAllocAt fails the k-th buffer allocation.
	FailAllocAt int
	// FailUploadAt fails the k-th host-to-device copy.
	FailUploadAt int
	// FailDownloadAt fails the k-th device-to-host copy.
	FailDownloadAt int
	// ComputeFault is raised as a sticky asynchronous fault by every
	// kernel launch while the plan is installed; install a zero plan to
	// disarm it. The launch still runs to completion; the fault is
	// observable only through Context.Fault.
	ComputeFault error
}

// SimBackend is a CPU-backed simulated accelerator for development and
// tests. It satisfies the device interfaces, executes lane groups on worker
// goroutines, and tracks outstanding allocations so leak properties can be
// asserted.
type SimBackend struct {
	device DeviceInfo

	mu     sync.Mutex
	faults SimFaults

	outstanding atomic.Int64
	allocSeq    atomic.Int64
	uploadSeq   atomic.Int64
	downloadSeq atomic.Int64
}

// NewSimBackend returns a simulated backend with a single fake device.
func NewSimBackend() *SimBackend {
	return &SimBackend{
		device: DeviceInfo{
			Name:         "SimLane",
			Vendor:       "algo-axpy",
			Driver:       "sim",
			MemoryMB:     4096,
			ComputeUnits: runtime.NumCPU(),
			ComputeCap:   "1.0",
		},
	}
}

// RegisterSimBackend registers the simulated backend as the active backend.
func RegisterSimBackend() {
	RegisterBackend(NewSimBackend())
}

func (b *SimBackend) Info() BackendInfo {
	return BackendInfo{
		Name:        "sim",
		Version:     "1.0",
		Description: "CPU-backed simulated accelerator",
	}
}

func (b *SimBackend) Available() bool {
	return true
}

func (b *SimBackend) Devices() ([]DeviceInfo, error) {
	return []DeviceInfo{b.device}, nil
}

func (b *SimBackend) NewContext(deviceIndex int) (Context, error) {
	if deviceIndex != 0 {
		return nil, fmt.Errorf("sim backend: device index %d out of range", deviceIndex)
	}
	return &simContext{backend: b, device: b.device}, nil
}

// InjectFaults installs a fault plan and resets the operation counters so
// ordinals count from the next operation.
func (b *SimBackend) InjectFaults(f SimFaults) {
	b.mu.Lock()
	b.faults = f
	b.mu.Unlock()
	b.allocSeq.Store(0)
	b.uploadSeq.Store(0)
	b.downloadSeq.Store(0)
}

// OutstandingAllocs reports the number of device buffers currently allocated
// and not yet closed, across all contexts of this backend.
func (b *SimBackend) OutstandingAllocs() int64 {
	return b.outstanding.Load()
}

func (b *SimBackend) faultPlan() SimFaults {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.faults
}

type simContext struct {
	backend *SimBackend
	device  DeviceInfo

	mu     sync.Mutex
	fault  error
	closed bool
}

func (c *simContext) Device() DeviceInfo {
	return c.device
}

func (c *simContext) NewBuffer(elemCount int) (Buffer, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	if elemCount < 0 {
		return nil, ErrInvalidLength
	}
	seq := c.backend.allocSeq.Add(1)
	if at := c.backend.faultPlan().FailAllocAt; at != 0 && seq == int64(at) {
		return nil, fmt.Errorf("%w: simulated out of memory (allocation %d)", ErrDeviceAllocation, seq)
	}
	c.backend.outstanding.Add(1)
	return &simBuffer{ctx: c, data: make([]float32, elemCount)}, nil
}

func (c *simContext) NewStream() (Stream, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	s := &simStream{ctx: c, jobs: make(chan func(), 64), done: make(chan struct{})}
	go s.run()
	return s, nil
}

func (c *simContext) NewEvent() (Event, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	return &simEvent{}, nil
}

func (c *simContext) NewKernel(groupSize int) (Kernel, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	if groupSize < 0 {
		return nil, ErrInvalidLength
	}
	if groupSize == 0 {
		groupSize = SimDefaultGroupSize
	}
	return &simKernel{ctx: c, groupSize: groupSize}, nil
}

// Fault is the non-blocking poll of the sticky asynchronous fault state.
func (c *simContext) Fault() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fault
}

func (c *simContext) setFault(err error) {
	c.mu.Lock()
	if c.fault == nil {
		c.fault = err
	}
	c.mu.Unlock()
}

// ClearFault resets the sticky fault state. Intended for tests that reuse a
// context after an injected fault.
func (c *simContext) ClearFault() {
	c.mu.Lock()
	c.fault = nil
	c.mu.Unlock()
}

func (c *simContext) check() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	return nil
}

func (c *simContext) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

type simBuffer struct {
	ctx *simContext

	mu     sync.Mutex
	data   []float32
	closed bool
}

func (b *simBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.data)
}

func (b *simBuffer) Upload(src []float32) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	if len(src) < len(b.data) {
		return ErrLengthMismatch
	}
	seq := b.ctx.backend.uploadSeq.Add(1)
	if at := b.ctx.backend.faultPlan().FailUploadAt; at != 0 && seq == int64(at) {
		return fmt.Errorf("%w: simulated upload fault (transfer %d)", ErrTransfer, seq)
	}
	copy(b.data, src[:len(b.data)])
	return nil
}

func (b *simBuffer) Download(dst []float32) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	if len(dst) < len(b.data) {
		return ErrLengthMismatch
	}
	seq := b.ctx.backend.downloadSeq.Add(1)
	if at := b.ctx.backend.faultPlan().FailDownloadAt; at != 0 && seq == int64(at) {
		return fmt.Errorf("%w: simulated download fault (transfer %d)", ErrTransfer, seq)
	}
	copy(dst[:len(b.data)], b.data)
	return nil
}

// Close releases the allocation. Closing an already closed buffer is a
// no-op, so the outstanding-allocation count decrements exactly once.
func (b *simBuffer) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	b.data = nil
	b.ctx.backend.outstanding.Add(-1)
	return nil
}

// simStream executes submitted work on a single goroutine, giving the same
// issue-order guarantee as a real device stream.
type simStream struct {
	ctx  *simContext
	jobs chan func()
	done chan struct{}

	mu     sync.Mutex
	closed bool
}

func (s *simStream) run() {
	for f := range s.jobs {
		f()
	}
	close(s.done)
}

func (s *simStream) submit(f func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.jobs <- f
	return nil
}

func (s *simStream) Record(e Event) error {
	ev, ok := e.(*simEvent)
	if !ok {
		return ErrBackendMismatch
	}
	return s.submit(func() {
		ev.stamp(cpu.Ticks())
	})
}

func (s *simStream) Synchronize() error {
	drained := make(chan struct{})
	if err := s.submit(func() { close(drained) }); err != nil {
		return err
	}
	<-drained
	return nil
}

func (s *simStream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.jobs)
	s.mu.Unlock()
	<-s.done
	return nil
}

// simEvent stamps the simulated device clock when the stream executes the
// corresponding Record.
type simEvent struct {
	mu       sync.Mutex
	ticks    int64
	recorded bool
}

func (e *simEvent) stamp(t int64) {
	e.mu.Lock()
	e.ticks = t
	e.recorded = true
	e.mu.Unlock()
}

func (e *simEvent) value() (int64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ticks, e.recorded
}

func (e *simEvent) Since(start Event) (time.Duration, error) {
	se, ok := start.(*simEvent)
	if !ok {
		return 0, ErrBackendMismatch
	}
	endTicks, endOK := e.value()
	startTicks, startOK := se.value()
	if !endOK || !startOK {
		return 0, ErrEventNotRecorded
	}
	return cpu.TicksToDuration(endTicks - startTicks), nil
}

func (e *simEvent) Close() error {
	e.mu.Lock()
	e.recorded = false
	e.mu.Unlock()
	return nil
}

type simKernel struct {
	ctx       *simContext
	groupSize int

	mu     sync.Mutex
	closed bool
}

func (k *simKernel) GroupSize() int {
	return k.groupSize
}

// Launch partitions [0, n) into groups of GroupSize lanes and executes them
// across worker goroutines on the stream. The final group is bounds-checked
// so lanes past n-1 perform no write.
func (k *simKernel) Launch(s Stream, n int, alpha float32, x, y, dst Buffer) error {
	k.mu.Lock()
	closed := k.closed
	k.mu.Unlock()
	if closed {
		return ErrClosed
	}
	if n < 0 {
		return ErrInvalidLength
	}
	stream, ok := s.(*simStream)
	if !ok {
		return ErrBackendMismatch
	}
	xb, okX := x.(*simBuffer)
	yb, okY := y.(*simBuffer)
	db, okD := dst.(*simBuffer)
	if !okX || !okY || !okD {
		return ErrBackendMismatch
	}
	if xb.Len() < n || yb.Len() < n || db.Len() < n {
		return ErrLengthMismatch
	}

	fault := k.ctx.backend.faultPlan().ComputeFault

	return stream.submit(func() {
		k.execute(n, alpha, xb, yb, db)
		if fault != nil {
			k.ctx.setFault(fmt.Errorf("%w: %w", ErrKernelFault, fault))
		}
	})
}

func (k *simKernel) execute(n int, alpha float32, x, y, dst *simBuffer) {
	groups := (n + k.groupSize - 1) / k.groupSize
	workers := runtime.GOMAXPROCS(0)
	if workers > groups {
		workers = groups
	}

	var cursor atomic.Int64
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				g := int(cursor.Add(1)) - 1
				if g >= groups {
					return
				}
				lo := g * k.groupSize
				hi := lo + k.groupSize
				if hi > n {
					hi = n
				}
				kernels.Axpy(dst.data[lo:hi], x.data[lo:hi], y.data[lo:hi], alpha)
			}
		}()
	}
	wg.Wait()
}

func (k *simKernel) Close() error {
	k.mu.Lock()
	k.closed = true
	k.mu.Unlock()
	return nil
}
