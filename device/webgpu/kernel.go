package webgpu

import (
	"fmt"
	"math"
	"sync"

	"github.com/openfluke/webgpu/wgpu"

	"github.com/cwbudde/algo-axpy/device"
)

// maxWorkgroupSize is the WebGPU default limit on invocations per workgroup.
const maxWorkgroupSize = 256

// maxWorkgroupsPerDim is the WebGPU default limit on workgroups per
// dispatch dimension. Larger launches split across the y dimension.
const maxWorkgroupsPerDim = 65535

func (c *context) NewKernel(groupSize int) (device.Kernel, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	if groupSize < 0 {
		return nil, device.ErrInvalidLength
	}
	if groupSize == 0 || groupSize > maxWorkgroupSize {
		groupSize = maxWorkgroupSize
	}
	return &kernel{ctx: c, groupSize: groupSize}, nil
}

type kernel struct {
	ctx       *context
	groupSize int

	mu      sync.Mutex
	retired []func()
	closed  bool
}

func (k *kernel) GroupSize() int {
	return k.groupSize
}

// dispatchDims splits a workgroup count across the x and y dispatch
// dimensions so neither exceeds maxWorkgroupsPerDim. The product covers
// the requested count; the shader's bounds check absorbs the overshoot.
func dispatchDims(groups int) (gx, gy int) {
	if groups <= maxWorkgroupsPerDim {
		return groups, 1
	}
	gy = (groups + maxWorkgroupsPerDim - 1) / maxWorkgroupsPerDim
	gx = (groups + gy - 1) / gy
	return gx, gy
}

// shaderSource bakes n, alpha, the workgroup size, and the x-dimension
// lane stride into the WGSL source. Alpha is passed as its exact bit
// pattern so the device computes with the same float32 the caller
// supplied.
func (k *kernel) shaderSource(n, stride int, alpha float32) string {
	return fmt.Sprintf(`
@group(0) @binding(0) var<storage, read> x: array<f32>;
@group(0) @binding(1) var<storage, read> y: array<f32>;
@group(0) @binding(2) var<storage, read_write> result: array<f32>;

@compute @workgroup_size(%d)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
	let i = gid.y * %du + gid.x;
	if (i < %du) {
		result[i] = bitcast<f32>(%du) * x[i] + y[i];
	}
}
`, k.groupSize, uint32(stride), uint32(n), math.Float32bits(alpha))
}

func (k *kernel) Launch(s device.Stream, n int, alpha float32, x, y, dst device.Buffer) error {
	k.mu.Lock()
	closed := k.closed
	k.mu.Unlock()
	if closed {
		return device.ErrClosed
	}
	if n < 0 {
		return device.ErrInvalidLength
	}
	if _, ok := s.(*stream); !ok {
		return device.ErrBackendMismatch
	}
	xb, okX := x.(*buffer)
	yb, okY := y.(*buffer)
	db, okD := dst.(*buffer)
	if !okX || !okY || !okD {
		return device.ErrBackendMismatch
	}
	if xb.Len() < n || yb.Len() < n || db.Len() < n {
		return device.ErrLengthMismatch
	}
	if n == 0 {
		return nil
	}

	groups := (n + k.groupSize - 1) / k.groupSize
	gx, gy := dispatchDims(groups)

	module, err := k.ctx.dev.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "axpy_shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: k.shaderSource(n, gx*k.groupSize, alpha)},
	})
	if err != nil {
		return fmt.Errorf("%w: shader module: %v", device.ErrKernelFault, err)
	}

	pipeline, err := k.ctx.dev.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:   "axpy_pipeline",
		Compute: wgpu.ProgrammableStageDescriptor{Module: module, EntryPoint: "main"},
	})
	if err != nil {
		return fmt.Errorf("%w: compute pipeline: %v", device.ErrKernelFault, err)
	}

	bindGroup, err := k.ctx.dev.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "axpy_bind",
		Layout: pipeline.GetBindGroupLayout(0),
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: xb.buf, Size: xb.buf.GetSize()},
			{Binding: 1, Buffer: yb.buf, Size: yb.buf.GetSize()},
			{Binding: 2, Buffer: db.buf, Size: db.buf.GetSize()},
		},
	})
	if err != nil {
		pipeline.Release()
		return fmt.Errorf("%w: bind group: %v", device.ErrKernelFault, err)
	}

	encoder, err := k.ctx.dev.CreateCommandEncoder(nil)
	if err != nil {
		bindGroup.Release()
		pipeline.Release()
		return fmt.Errorf("%w: command encoder: %v", device.ErrKernelFault, err)
	}

	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(pipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	pass.DispatchWorkgroups(uint32(gx), uint32(gy), 1)
	pass.End()

	cmd, err := encoder.Finish(nil)
	if err != nil {
		bindGroup.Release()
		pipeline.Release()
		err = fmt.Errorf("%w: encode dispatch: %v", device.ErrKernelFault, err)
		k.ctx.setFault(err)
		return err
	}
	k.ctx.queue.Submit(cmd)

	// Pipeline and bind group may still be referenced by in-flight work;
	// keep them until the kernel is closed.
	k.mu.Lock()
	k.retired = append(k.retired, bindGroup.Release, pipeline.Release)
	k.mu.Unlock()
	return nil
}

func (k *kernel) Close() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.closed {
		return nil
	}
	k.closed = true
	// Drain in-flight work before releasing pipeline state.
	k.ctx.dev.Poll(true, nil)
	for _, release := range k.retired {
		release()
	}
	k.retired = nil
	return nil
}
