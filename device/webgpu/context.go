package webgpu

import (
	"sync"
	"time"

	"github.com/openfluke/webgpu/wgpu"

	"github.com/cwbudde/algo-axpy/device"
)

type context struct {
	info  device.DeviceInfo
	dev   *wgpu.Device
	queue *wgpu.Queue

	mu     sync.Mutex
	fault  error
	closed bool
}

func (c *context) Device() device.DeviceInfo {
	return c.info
}

func (c *context) NewStream() (device.Stream, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	// WebGPU exposes a single in-order queue per device; streams share it.
	return &stream{ctx: c}, nil
}

func (c *context) NewEvent() (device.Event, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	return &event{}, nil
}

// Fault is the non-blocking poll of the sticky fault state. The bindings
// surface no uncaptured-error callback, so only faults observed by this
// package's own operations are reported.
func (c *context) Fault() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fault
}

func (c *context) setFault(err error) {
	c.mu.Lock()
	if c.fault == nil {
		c.fault = err
	}
	c.mu.Unlock()
}

func (c *context) check() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return device.ErrClosed
	}
	return nil
}

func (c *context) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

// stream wraps the device queue. Work submitted to the queue executes in
// submission order; Synchronize polls the device until the queue drains.
type stream struct {
	ctx *context

	mu     sync.Mutex
	closed bool
}

func (s *stream) Record(e device.Event) error {
	ev, ok := e.(*event)
	if !ok {
		return device.ErrBackendMismatch
	}
	if err := s.checkOpen(); err != nil {
		return err
	}
	// Drain the queue, then stamp the host clock. This brackets the
	// launch-to-completion interval at queue boundaries; without GPU
	// timestamp queries it is the closest observable point.
	s.ctx.dev.Poll(true, nil)
	ev.stamp(time.Now())
	return nil
}

func (s *stream) Synchronize() error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	s.ctx.dev.Poll(true, nil)
	return nil
}

func (s *stream) checkOpen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return device.ErrClosed
	}
	return nil
}

func (s *stream) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

type event struct {
	mu       sync.Mutex
	t        time.Time
	recorded bool
}

func (e *event) stamp(t time.Time) {
	e.mu.Lock()
	e.t = t
	e.recorded = true
	e.mu.Unlock()
}

func (e *event) value() (time.Time, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.t, e.recorded
}

func (e *event) Since(start device.Event) (time.Duration, error) {
	se, ok := start.(*event)
	if !ok {
		return 0, device.ErrBackendMismatch
	}
	end, endOK := e.value()
	begin, beginOK := se.value()
	if !endOK || !beginOK {
		return 0, device.ErrEventNotRecorded
	}
	return end.Sub(begin), nil
}

func (e *event) Close() error {
	e.mu.Lock()
	e.recorded = false
	e.mu.Unlock()
	return nil
}
