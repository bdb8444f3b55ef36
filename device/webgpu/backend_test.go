package webgpu

import (
	"testing"

	axpy "github.com/cwbudde/algo-axpy"
	"github.com/cwbudde/algo-axpy/device"
)

// The WebGPU tests need working native drivers; they skip on machines
// without an adapter instead of failing.
func requireAdapter(t *testing.T) *Backend {
	t.Helper()
	b := New()
	if !b.Available() {
		t.Skip("no WebGPU adapter available")
	}
	return b
}

func TestBackendDiscovery(t *testing.T) {
	b := requireAdapter(t)

	devices, err := b.Devices()
	if err != nil {
		t.Fatalf("Devices: %v", err)
	}
	if len(devices) == 0 {
		t.Fatal("expected at least one device")
	}
	t.Logf("adapter: %s (%s), capability %s", devices[0].Name, devices[0].Vendor, devices[0].ComputeCap)
}

func TestBufferRoundTrip(t *testing.T) {
	b := requireAdapter(t)

	ctx, err := b.NewContext(0)
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	defer ctx.Close()

	buf, err := ctx.NewBuffer(16)
	if err != nil {
		t.Fatalf("NewBuffer: %v", err)
	}
	defer buf.Close()

	src := make([]float32, 16)
	for i := range src {
		src[i] = float32(i) * 0.25
	}
	if err := buf.Upload(src); err != nil {
		t.Fatalf("Upload: %v", err)
	}

	dst := make([]float32, 16)
	if err := buf.Download(dst); err != nil {
		t.Fatalf("Download: %v", err)
	}
	for i := range src {
		if dst[i] != src[i] {
			t.Fatalf("dst[%d] = %v, want %v", i, dst[i], src[i])
		}
	}
}

func TestDispatchDims(t *testing.T) {
	cases := []struct {
		groups, gx, gy int
	}{
		{1, 1, 1},
		{256, 256, 1},
		{65535, 65535, 1},
		{65536, 32768, 2},
		{65537, 32769, 2},
		{262144, 52429, 5},
	}
	for _, c := range cases {
		gx, gy := dispatchDims(c.groups)
		if gx != c.gx || gy != c.gy {
			t.Errorf("dispatchDims(%d) = (%d, %d), want (%d, %d)", c.groups, gx, gy, c.gx, c.gy)
		}
		if gx > maxWorkgroupsPerDim || gy > maxWorkgroupsPerDim {
			t.Errorf("dispatchDims(%d) = (%d, %d) exceeds per-dimension limit", c.groups, gx, gy)
		}
		if gx*gy < c.groups {
			t.Errorf("dispatchDims(%d) = (%d, %d) covers only %d workgroups", c.groups, gx, gy, gx*gy)
		}
	}
}

func TestDriverOnWebGPU(t *testing.T) {
	b := requireAdapter(t)
	device.RegisterBackend(b)
	t.Cleanup(func() { device.RegisterBackend(nil) })

	d, err := axpy.Open(axpy.Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer d.Close()

	const n = 1024
	x := make([]float32, n)
	y := make([]float32, n)
	result := make([]float32, n)
	for i := range x {
		x[i] = 1
		y[i] = float32(i)
	}

	rep, err := d.Saxpy(2.0, x, y, result)
	if err != nil {
		t.Fatalf("Saxpy: %v", err)
	}
	for i := range result {
		if result[i] != 2.0+float32(i) {
			t.Fatalf("result[%d] = %v, want %v", i, result[i], 2.0+float32(i))
		}
	}
	if rep.Overall < rep.Kernel {
		t.Fatalf("overall %v < kernel %v", rep.Overall, rep.Kernel)
	}
	t.Log(rep.String())
}

// A launch of 1<<24 elements needs more workgroups than one dispatch
// dimension allows, exercising the x/y split.
func TestDriverLargeDispatch(t *testing.T) {
	if testing.Short() {
		t.Skip("large-buffer test skipped in short mode")
	}
	b := requireAdapter(t)
	device.RegisterBackend(b)
	t.Cleanup(func() { device.RegisterBackend(nil) })

	d, err := axpy.Open(axpy.Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer d.Close()

	const n = 1 << 24
	x := make([]float32, n)
	y := make([]float32, n)
	result := make([]float32, n)
	for i := range x {
		x[i] = 1
		y[i] = float32(i % 1024)
	}

	rep, err := d.Saxpy(3.0, x, y, result)
	if err != nil {
		t.Fatalf("Saxpy: %v", err)
	}
	if rep.Groups <= maxWorkgroupsPerDim {
		t.Fatalf("groups = %d, expected a launch beyond the per-dimension limit", rep.Groups)
	}
	// Spot-check lanes on both sides of every dispatch-row boundary plus
	// the first and last element.
	gx, _ := dispatchDims(rep.Groups)
	stride := gx * rep.GroupSize
	for i := 0; i < n; i += stride {
		for _, j := range []int{i, i - 1} {
			if j < 0 || j >= n {
				continue
			}
			want := 3.0 + float32(j%1024)
			if result[j] != want {
				t.Fatalf("result[%d] = %v, want %v", j, result[j], want)
			}
		}
	}
	if result[n-1] != 3.0+float32((n-1)%1024) {
		t.Fatalf("result[%d] = %v, want %v", n-1, result[n-1], 3.0+float32((n-1)%1024))
	}
}
