package axpy

import "errors"

// Sentinel errors returned by the offload driver. Failures originating in a
// backend wrap both the class sentinel below and the backend's own error,
// so callers can match either with errors.Is.
var (
	// ErrNilContext is returned by NewDriver for a nil device context.
	ErrNilContext = errors.New("axpy: nil device context")

	// ErrLengthMismatch is returned when x and y differ in length or the
	// result slice is too short.
	ErrLengthMismatch = errors.New("axpy: slice length mismatch")

	// ErrInvalidGroupSize is returned for a negative lane group size.
	ErrInvalidGroupSize = errors.New("axpy: invalid group size")

	// ErrAllocationFailed classifies device allocation failures. The call
	// aborts before any transfer or compute; partial allocations from the
	// attempt are released.
	ErrAllocationFailed = errors.New("axpy: device allocation failed")

	// ErrTransferFailed classifies host<->device copy failures. All
	// acquired allocations are released; the output buffer is undefined.
	ErrTransferFailed = errors.New("axpy: host/device transfer failed")

	// ErrComputeFault classifies faults from the parallel compute stage,
	// including sticky asynchronous faults detected before the result
	// transfer. The output buffer is undefined.
	ErrComputeFault = errors.New("axpy: compute stage fault")

	// ErrDriverClosed is returned when calling a closed Driver.
	ErrDriverClosed = errors.New("axpy: driver closed")
)
