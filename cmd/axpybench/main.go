// Command axpybench benchmarks the saxpy offload driver.
//
// It runs the offload cycle for a list of sizes on the selected backend and
// prints the effective bandwidth and kernel-only time per size, plus a
// summary table of the best iteration. A YAML suite file can replace the
// individual flags; explicit flags override file values.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	axpy "github.com/cwbudde/algo-axpy"
	"github.com/cwbudde/algo-axpy/device"
	"github.com/cwbudde/algo-axpy/device/webgpu"
)

type suite struct {
	Backend string  `yaml:"backend"`
	Device  int     `yaml:"device"`
	Sizes   []int   `yaml:"sizes"`
	Alpha   float32 `yaml:"alpha"`
	Iters   int     `yaml:"iters"`
	Warmup  int     `yaml:"warmup"`
	Group   int     `yaml:"group"`
	Seed    int64   `yaml:"seed"`
}

func defaultSuite() suite {
	return suite{
		Backend: "sim",
		Sizes:   []int{1024, 65536, 1048576, 16777216},
		Alpha:   2.0,
		Iters:   20,
		Warmup:  3,
		Seed:    1,
	}
}

type result struct {
	size    int
	best    axpy.Report
	bestGBs float64
}

func main() {
	var (
		configFile  = flag.String("config", "", "YAML suite file")
		backendName = flag.String("backend", "sim", "backend: sim or webgpu")
		deviceIndex = flag.Int("device", 0, "device index")
		sizeList    = flag.String("sizes", "1024,65536,1048576,16777216", "comma-separated sizes")
		alpha       = flag.Float64("alpha", 2.0, "scalar coefficient")
		iters       = flag.Int("iters", 20, "benchmark iterations per size")
		warmup      = flag.Int("warmup", 3, "warmup iterations per size")
		group       = flag.Int("group", 0, "lane group size (0 = backend default)")
		seed        = flag.Int64("seed", 1, "rng seed")
		listDevices = flag.Bool("devices", false, "list devices and exit")
		verbose     = flag.Bool("v", false, "print the driver report for every iteration")
	)
	flag.Parse()

	cfg := defaultSuite()
	if *configFile != "" {
		if err := loadSuite(*configFile, &cfg); err != nil {
			fmt.Fprintf(os.Stderr, "axpybench: %v\n", err)
			os.Exit(1)
		}
	}
	// Explicit flags win over the suite file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "backend":
			cfg.Backend = *backendName
		case "device":
			cfg.Device = *deviceIndex
		case "sizes":
			sizes, err := parseSizes(*sizeList)
			if err != nil {
				fmt.Fprintf(os.Stderr, "axpybench: %v\n", err)
				os.Exit(2)
			}
			cfg.Sizes = sizes
		case "alpha":
			cfg.Alpha = float32(*alpha)
		case "iters":
			cfg.Iters = *iters
		case "warmup":
			cfg.Warmup = *warmup
		case "group":
			cfg.Group = *group
		case "seed":
			cfg.Seed = *seed
		}
	})

	if err := registerBackend(cfg.Backend); err != nil {
		fmt.Fprintf(os.Stderr, "axpybench: %v\n", err)
		os.Exit(1)
	}

	if *listDevices {
		if err := printDevices(); err != nil {
			fmt.Fprintf(os.Stderr, "axpybench: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if len(cfg.Sizes) == 0 {
		fmt.Println("no sizes specified")
		return
	}

	opts := axpy.Options{GroupSize: cfg.Group, DeviceIndex: cfg.Device}
	if *verbose {
		opts.Diagnostics = os.Stdout
	}
	driver, err := axpy.Open(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "axpybench: open driver: %v\n", err)
		os.Exit(1)
	}
	defer driver.Close()

	info := driver.Device()
	fmt.Printf("device=%s backend=%s iters=%d warmup=%d alpha=%g\n",
		info.Name, cfg.Backend, cfg.Iters, cfg.Warmup, cfg.Alpha)

	rnd := rand.New(rand.NewSource(cfg.Seed))
	var results []result
	for _, n := range cfg.Sizes {
		res, err := benchmarkSize(driver, rnd, n, cfg.Alpha, cfg.Iters, cfg.Warmup)
		if err != nil {
			fmt.Fprintf(os.Stderr, "axpybench: size %d: %v\n", n, err)
			os.Exit(1)
		}
		fmt.Println(res.best.String())
		results = append(results, res)
	}

	fmt.Printf("\n%12s  %8s  %12s  %12s  %10s\n", "size", "groups", "overall ms", "kernel ms", "GB/s")
	for _, res := range results {
		fmt.Printf("%12d  %8d  %12.3f  %12.3f  %10.3f\n",
			res.size,
			res.best.Groups,
			float64(res.best.Overall)/float64(time.Millisecond),
			float64(res.best.Kernel)/float64(time.Millisecond),
			res.bestGBs)
	}
}

func benchmarkSize(driver *axpy.Driver, rnd *rand.Rand, n int, alpha float32, iters, warmup int) (result, error) {
	x := make([]float32, n)
	y := make([]float32, n)
	out := make([]float32, n)
	for i := range x {
		x[i] = rnd.Float32()*2 - 1
		y[i] = rnd.Float32()*2 - 1
	}

	for i := 0; i < warmup; i++ {
		if _, err := driver.Saxpy(alpha, x, y, out); err != nil {
			return result{}, err
		}
	}

	res := result{size: n}
	for i := 0; i < iters; i++ {
		rep, err := driver.Saxpy(alpha, x, y, out)
		if err != nil {
			return result{}, err
		}
		if gbs := rep.BandwidthGBps(); gbs > res.bestGBs {
			res.bestGBs = gbs
			res.best = rep
		}
	}
	return res, nil
}

func registerBackend(name string) error {
	switch name {
	case "sim":
		device.RegisterSimBackend()
	case "webgpu":
		webgpu.Register()
	default:
		return fmt.Errorf("unknown backend %q (want sim or webgpu)", name)
	}
	return nil
}

func printDevices() error {
	b := device.Registered()
	devices, err := b.Devices()
	if err != nil {
		return err
	}
	fmt.Printf("%d device(s) [%s]\n", len(devices), b.Info().Name)
	for i, d := range devices {
		fmt.Printf("  %d: %s (%s), %d compute units, %d MB, capability %s\n",
			i, d.Name, d.Vendor, d.ComputeUnits, d.MemoryMB, d.ComputeCap)
	}
	return nil
}

func loadSuite(path string, cfg *suite) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %v", path, err)
	}
	return nil
}

func parseSizes(list string) ([]int, error) {
	var sizes []int
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("bad size %q in -sizes", part)
		}
		sizes = append(sizes, n)
	}
	return sizes, nil
}
