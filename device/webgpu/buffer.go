package webgpu

import (
	"fmt"
	"sync"
	"time"

	"github.com/openfluke/webgpu/wgpu"

	"github.com/cwbudde/algo-axpy/device"
)

// downloadTimeout bounds the staging-buffer map poll loop.
const downloadTimeout = 2 * time.Second

func (c *context) NewBuffer(elemCount int) (device.Buffer, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	if elemCount < 0 {
		return nil, device.ErrInvalidLength
	}
	size := uint64(elemCount) * 4
	if size == 0 {
		// Zero-size buffers are invalid in WebGPU; keep one element so a
		// degenerate allocation still succeeds.
		size = 4
	}
	buf, err := c.dev.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "axpy_buffer",
		Size:  size,
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst | wgpu.BufferUsageCopySrc,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", device.ErrDeviceAllocation, err)
	}
	return &buffer{ctx: c, buf: buf, elems: elemCount}, nil
}

type buffer struct {
	ctx   *context
	buf   *wgpu.Buffer
	elems int

	mu     sync.Mutex
	closed bool
}

func (b *buffer) Len() int {
	return b.elems
}

func (b *buffer) Upload(src []float32) error {
	if err := b.checkOpen(); err != nil {
		return err
	}
	if len(src) < b.elems {
		return device.ErrLengthMismatch
	}
	if b.elems == 0 {
		return nil
	}
	b.ctx.queue.WriteBuffer(b.buf, 0, wgpu.ToBytes(src[:b.elems]))
	// WriteBuffer is queued; drain so the copy is synchronous.
	b.ctx.dev.Poll(true, nil)
	return nil
}

func (b *buffer) Download(dst []float32) error {
	if err := b.checkOpen(); err != nil {
		return err
	}
	if len(dst) < b.elems {
		return device.ErrLengthMismatch
	}
	if b.elems == 0 {
		return nil
	}

	sizeBytes := uint64(b.elems) * 4
	staging, err := b.ctx.dev.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "axpy_staging",
		Size:  sizeBytes,
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("%w: staging buffer: %v", device.ErrTransfer, err)
	}
	defer staging.Destroy()

	encoder, err := b.ctx.dev.CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("%w: command encoder: %v", device.ErrTransfer, err)
	}
	encoder.CopyBufferToBuffer(b.buf, 0, staging, 0, sizeBytes)
	cmd, err := encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("%w: encode copy: %v", device.ErrTransfer, err)
	}
	b.ctx.queue.Submit(cmd)

	done := make(chan struct{})
	var mapErr error
	err = staging.MapAsync(wgpu.MapModeRead, 0, sizeBytes, func(status wgpu.BufferMapAsyncStatus) {
		if status != wgpu.BufferMapAsyncStatusSuccess {
			mapErr = fmt.Errorf("%w: map failed: %v", device.ErrTransfer, status)
		}
		close(done)
	})
	if err != nil {
		return fmt.Errorf("%w: map async: %v", device.ErrTransfer, err)
	}

	deadline := time.After(downloadTimeout)
poll:
	for {
		b.ctx.dev.Poll(false, nil)
		select {
		case <-done:
			break poll
		case <-deadline:
			return fmt.Errorf("%w: download timed out after %v", device.ErrTransfer, downloadTimeout)
		default:
			time.Sleep(time.Millisecond)
		}
	}
	if mapErr != nil {
		return mapErr
	}

	data := staging.GetMappedRange(0, uint(sizeBytes))
	if data == nil {
		return fmt.Errorf("%w: mapped range unavailable", device.ErrTransfer)
	}
	copy(dst[:b.elems], wgpu.FromBytes[float32](data))
	staging.Unmap()
	return nil
}

func (b *buffer) checkOpen() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return device.ErrClosed
	}
	return nil
}

func (b *buffer) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	b.buf.Destroy()
	return nil
}
