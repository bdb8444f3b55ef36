// Package webgpu implements the device backend on WebGPU through the
// wgpu native bindings.
//
// Buffers are storage buffers; uploads go through the queue, downloads
// through a mapped staging buffer. The compute stage is a WGSL shader
// dispatched as ceil(n/groupSize) workgroups. The bindings expose no GPU
// timestamp queries, so events are host-clock stamps taken at queue-drain
// boundaries.
package webgpu
