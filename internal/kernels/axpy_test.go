package kernels

import (
	"math/rand"
	"testing"
)

func TestAxpyVariantsMatch(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	for _, n := range []int{0, 1, 3, 4, 5, 17, 64, 1000, 1024} {
		x := make([]float32, n)
		y := make([]float32, n)
		for i := range x {
			x[i] = rnd.Float32()*2 - 1
			y[i] = rnd.Float32()*2 - 1
		}
		alpha := rnd.Float32()

		want := make([]float32, n)
		axpyGeneric(want, x, y, alpha)

		got := make([]float32, n)
		axpyUnrolled(got, x, y, alpha)

		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("n=%d: unrolled[%d] = %v, generic = %v", n, i, got[i], want[i])
			}
		}
	}
}

func TestAxpyBoundsByDst(t *testing.T) {
	x := []float32{2, 2, 2, 2}
	y := []float32{1, 1, 1, 1}
	dst := make([]float32, 3)

	Axpy(dst, x, y, 1)

	for i, v := range dst {
		if v != 3 {
			t.Fatalf("dst[%d] = %v, want 3", i, v)
		}
	}
}

func BenchmarkAxpy(b *testing.B) {
	const n = 1 << 16
	x := make([]float32, n)
	y := make([]float32, n)
	dst := make([]float32, n)
	for i := range x {
		x[i] = float32(i)
		y[i] = 1
	}
	b.SetBytes(3 * 4 * n)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Axpy(dst, x, y, 2.0)
	}
}
