package device

// DeviceInfo describes an accelerator device.
type DeviceInfo struct {
	Name         string
	Vendor       string
	Driver       string
	MemoryMB     int
	ComputeUnits int
	ComputeCap   string
}

// BackendInfo describes a backend implementation.
type BackendInfo struct {
	Name        string
	Version     string
	Description string
}
