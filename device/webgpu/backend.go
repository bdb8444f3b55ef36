package webgpu

import (
	"fmt"
	"sync"

	"github.com/openfluke/webgpu/wgpu"

	"github.com/cwbudde/algo-axpy/device"
)

// Backend implements device.Backend on WebGPU. Instance and adapter
// discovery is lazy and performed once per Backend.
type Backend struct {
	once     sync.Once
	initErr  error
	instance *wgpu.Instance
	adapters []*wgpu.Adapter
}

// New returns an uninitialized WebGPU backend. Discovery happens on the
// first call to Available, Devices, or NewContext.
func New() *Backend {
	return &Backend{}
}

// Register registers a WebGPU backend as the active backend.
func Register() {
	device.RegisterBackend(New())
}

func (b *Backend) init() {
	b.once.Do(func() {
		b.instance = wgpu.CreateInstance(nil)
		if b.instance == nil {
			b.initErr = fmt.Errorf("%w: cannot create WebGPU instance", device.ErrBackendUnavailable)
			return
		}
		b.adapters = b.instance.EnumerateAdapters(nil)
		if len(b.adapters) > 0 {
			return
		}
		// Some drivers only answer the default adapter request.
		adapter, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
			PowerPreference: wgpu.PowerPreferenceHighPerformance,
		})
		if err != nil || adapter == nil {
			adapter, err = b.instance.RequestAdapter(nil)
		}
		if err != nil || adapter == nil {
			b.initErr = fmt.Errorf("%w: no WebGPU adapter: %v", device.ErrBackendUnavailable, err)
			return
		}
		b.adapters = []*wgpu.Adapter{adapter}
	})
}

func (b *Backend) Info() device.BackendInfo {
	return device.BackendInfo{
		Name:        "webgpu",
		Version:     "wgpu-native",
		Description: "WebGPU compute backend",
	}
}

func (b *Backend) Available() bool {
	b.init()
	return b.initErr == nil
}

func (b *Backend) Devices() ([]device.DeviceInfo, error) {
	b.init()
	if b.initErr != nil {
		return nil, b.initErr
	}
	infos := make([]device.DeviceInfo, 0, len(b.adapters))
	for _, a := range b.adapters {
		infos = append(infos, adapterInfo(a))
	}
	return infos, nil
}

func (b *Backend) NewContext(deviceIndex int) (device.Context, error) {
	b.init()
	if b.initErr != nil {
		return nil, b.initErr
	}
	if deviceIndex < 0 || deviceIndex >= len(b.adapters) {
		return nil, fmt.Errorf("webgpu backend: device index %d out of range [0,%d)", deviceIndex, len(b.adapters))
	}
	adapter := b.adapters[deviceIndex]
	dev, err := adapter.RequestDevice(nil)
	if err != nil {
		return nil, fmt.Errorf("%w: request device: %v", device.ErrBackendUnavailable, err)
	}
	return &context{
		info:  adapterInfo(adapter),
		dev:   dev,
		queue: dev.GetQueue(),
	}, nil
}

func adapterInfo(a *wgpu.Adapter) device.DeviceInfo {
	info := a.GetInfo()
	return device.DeviceInfo{
		Name:       info.Name,
		Vendor:     info.VendorName,
		Driver:     "wgpu-native",
		ComputeCap: fmt.Sprintf("%04x:%04x", info.VendorId, info.DeviceId),
	}
}
