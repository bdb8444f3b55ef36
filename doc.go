// Package axpy implements a device-offload driver for the saxpy vector
// kernel, result[i] = alpha*x[i] + y[i].
//
// A Driver is bound to a device context from the device package and
// orchestrates one offload cycle per call: allocate three device buffers,
// transfer the inputs, launch the parallel compute stage, synchronize,
// transfer the result back, and release every device allocation on every
// exit path. Each call reports the overall elapsed time, the achieved
// memory bandwidth, and the kernel-only time measured with device events.
//
// Backends are pluggable: the device package ships a CPU-backed simulated
// accelerator, and device/webgpu runs on real hardware through WebGPU.
package axpy
