package device

import "errors"

var (
	// ErrNoBackend is returned when no backend is registered.
	ErrNoBackend = errors.New("axpy/device: no backend registered")

	// ErrBackendUnavailable is returned when the backend is registered but
	// not usable on the current system (no device, driver missing).
	ErrBackendUnavailable = errors.New("axpy/device: backend unavailable")

	// ErrInvalidLength is returned for negative buffer or kernel sizes.
	ErrInvalidLength = errors.New("axpy/device: invalid length")

	// ErrLengthMismatch is returned when a host slice or device buffer is
	// shorter than the operation requires.
	ErrLengthMismatch = errors.New("axpy/device: length mismatch")

	// ErrClosed is returned when using a buffer, stream, event, kernel, or
	// context after Close.
	ErrClosed = errors.New("axpy/device: resource closed")

	// ErrBackendMismatch is returned when a resource from one backend is
	// passed to another backend's operation.
	ErrBackendMismatch = errors.New("axpy/device: resource from different backend")

	// ErrEventNotRecorded is returned by Event.Since when either event has
	// not been recorded and synchronized.
	ErrEventNotRecorded = errors.New("axpy/device: event not recorded")

	// ErrDeviceAllocation is the class wrapped by backends when a device
	// allocation fails.
	ErrDeviceAllocation = errors.New("axpy/device: device allocation failed")

	// ErrTransfer is the class wrapped by backends when a host<->device
	// copy fails.
	ErrTransfer = errors.New("axpy/device: transfer failed")

	// ErrKernelFault is the class wrapped by backends for faults raised by
	// the compute stage.
	ErrKernelFault = errors.New("axpy/device: kernel fault")
)
