package axpy

import (
	"fmt"
	"io"
	"time"

	"github.com/cwbudde/algo-axpy/device"
)

// Options controls driver creation.
type Options struct {
	// GroupSize is the lane group size of the compute stage. Zero selects
	// the backend default (DefaultGroupSize for the simulated backend).
	GroupSize int

	// DeviceIndex selects which device to use when the driver opens its
	// own context (0 = default device).
	DeviceIndex int

	// Diagnostics receives human-readable failure diagnostics and the
	// per-run success report. Nil disables diagnostic output.
	Diagnostics io.Writer
}

// Driver orchestrates saxpy offload cycles on one device context. It holds
// a stream, a pair of timing events, and the compiled kernel for reuse
// across calls.
//
// A Driver is not safe for concurrent use; concurrent callers need their
// own Driver so device buffers are never shared between in-flight calls.
type Driver struct {
	ctx     device.Context
	ownsCtx bool
	stream  device.Stream
	kernel  device.Kernel
	evStart device.Event
	evEnd   device.Event
	diag    io.Writer
	closed  bool
}

// NewDriver creates a driver on a caller-owned context. Closing the driver
// releases the driver's stream, events, and kernel, but not the context.
func NewDriver(ctx device.Context, opts Options) (*Driver, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if opts.GroupSize < 0 {
		return nil, ErrInvalidGroupSize
	}

	d := &Driver{ctx: ctx, diag: opts.Diagnostics}

	var err error
	if d.stream, err = ctx.NewStream(); err != nil {
		return nil, err
	}
	if d.evStart, err = ctx.NewEvent(); err != nil {
		_ = d.stream.Close()
		return nil, err
	}
	if d.evEnd, err = ctx.NewEvent(); err != nil {
		_ = d.evStart.Close()
		_ = d.stream.Close()
		return nil, err
	}
	if d.kernel, err = ctx.NewKernel(opts.GroupSize); err != nil {
		_ = d.evEnd.Close()
		_ = d.evStart.Close()
		_ = d.stream.Close()
		return nil, err
	}
	return d, nil
}

// Open creates a driver on a new context from the registered backend. The
// driver owns the context and closes it on Close.
func Open(opts Options) (*Driver, error) {
	b := device.Registered()
	if b == nil {
		return nil, device.ErrNoBackend
	}
	if !b.Available() {
		return nil, device.ErrBackendUnavailable
	}
	ctx, err := b.NewContext(opts.DeviceIndex)
	if err != nil {
		return nil, err
	}
	d, err := NewDriver(ctx, opts)
	if err != nil {
		_ = ctx.Close()
		return nil, err
	}
	d.ownsCtx = true
	return d, nil
}

// Device reports the device this driver is bound to.
func (d *Driver) Device() device.DeviceInfo {
	return d.ctx.Device()
}

// Close releases the driver's device resources.
func (d *Driver) Close() error {
	if d == nil || d.closed {
		return nil
	}
	d.closed = true
	var firstErr error
	for _, c := range []io.Closer{d.kernel, d.evEnd, d.evStart, d.stream} {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if d.ownsCtx {
		if err := d.ctx.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Saxpy runs one offload cycle: allocate device buffers for x, y, and the
// result, transfer the inputs, launch the compute stage, synchronize, poll
// for compute faults, transfer the result back, and release every device
// allocation on every exit path.
//
// x and y must have equal length; result must be at least as long. A zero
// length is a valid no-op that touches neither the device nor result. On
// error the contents of result are undefined and must not be trusted.
func (d *Driver) Saxpy(alpha float32, x, y, result []float32) (Report, error) {
	if d.closed {
		return Report{}, ErrDriverClosed
	}

	n := len(x)
	rep := Report{
		N:         n,
		GroupSize: d.kernel.GroupSize(),
		Groups:    GroupsFor(n, d.kernel.GroupSize()),
		Device:    d.ctx.Device().Name,
	}
	if len(y) != n || len(result) < n {
		return rep, d.fail(ErrLengthMismatch)
	}
	if n == 0 {
		return rep, nil
	}

	// Scoped acquisition: each buffer is released on every exit path, and
	// exactly once, by the deferred Close.
	dx, err := d.ctx.NewBuffer(n)
	if err != nil {
		return rep, d.fail(fmt.Errorf("%w: buffer x: %w", ErrAllocationFailed, err))
	}
	defer dx.Close()

	dy, err := d.ctx.NewBuffer(n)
	if err != nil {
		return rep, d.fail(fmt.Errorf("%w: buffer y: %w", ErrAllocationFailed, err))
	}
	defer dy.Close()

	dr, err := d.ctx.NewBuffer(n)
	if err != nil {
		return rep, d.fail(fmt.Errorf("%w: buffer result: %w", ErrAllocationFailed, err))
	}
	defer dr.Close()

	// Overall time spans transfer-in through transfer-out; allocation is
	// deliberately outside the window.
	start := time.Now()

	if err := dx.Upload(x); err != nil {
		return rep, d.fail(fmt.Errorf("%w: upload x: %w", ErrTransferFailed, err))
	}
	if err := dy.Upload(y); err != nil {
		return rep, d.fail(fmt.Errorf("%w: upload y: %w", ErrTransferFailed, err))
	}

	if err := d.stream.Record(d.evStart); err != nil {
		return rep, d.fail(fmt.Errorf("%w: record start event: %w", ErrComputeFault, err))
	}
	if err := d.kernel.Launch(d.stream, n, alpha, dx, dy, dr); err != nil {
		return rep, d.fail(fmt.Errorf("%w: launch: %w", ErrComputeFault, err))
	}
	if err := d.stream.Record(d.evEnd); err != nil {
		return rep, d.fail(fmt.Errorf("%w: record end event: %w", ErrComputeFault, err))
	}
	if err := d.stream.Synchronize(); err != nil {
		return rep, d.fail(fmt.Errorf("%w: synchronize: %w", ErrComputeFault, err))
	}

	// Poll the sticky fault state before reading results back. A faulted
	// compute stage aborts the call instead of handing the caller a
	// retrieved-but-suspect result.
	if ferr := d.ctx.Fault(); ferr != nil {
		return rep, d.fail(fmt.Errorf("%w: %w", ErrComputeFault, ferr))
	}

	if err := dr.Download(result[:n]); err != nil {
		return rep, d.fail(fmt.Errorf("%w: download result: %w", ErrTransferFailed, err))
	}
	rep.Overall = time.Since(start)

	if k, err := d.evEnd.Since(d.evStart); err == nil {
		rep.Kernel = k
	} else {
		d.diagf("axpy: kernel timing unavailable: %v", err)
	}

	d.diagf("%s", rep)
	return rep, nil
}

// fail writes one diagnostic line and passes the error through.
func (d *Driver) fail(err error) error {
	d.diagf("%v", err)
	return err
}

func (d *Driver) diagf(format string, args ...any) {
	if d.diag == nil {
		return
	}
	fmt.Fprintf(d.diag, format+"\n", args...)
}

// Saxpy is a one-shot convenience over the registered backend: it opens a
// driver with default options, runs one offload cycle, and closes it.
func Saxpy(alpha float32, x, y, result []float32) (Report, error) {
	d, err := Open(Options{})
	if err != nil {
		return Report{}, err
	}
	defer d.Close()
	return d.Saxpy(alpha, x, y, result)
}
