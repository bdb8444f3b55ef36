// Package device defines the accelerator abstraction used by the axpy
// offload driver.
//
// A Backend discovers devices and creates Contexts; a Context is an explicit
// handle to one device and owns buffer, stream, event, and kernel creation.
// Nothing in this package relies on ambient global device state, so multiple
// independent contexts can coexist and tests can run against the simulated
// backend deterministically.
package device
