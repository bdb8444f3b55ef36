package axpy

import "testing"

func TestAxpyReference(t *testing.T) {
	x := []float32{1, 2, 3, 4}
	y := []float32{10, 20, 30, 40}
	dst := make([]float32, 4)

	Axpy(dst, 0.5, x, y)

	want := []float32{10.5, 21, 31.5, 42}
	for i := range want {
		if dst[i] != want[i] {
			t.Fatalf("dst[%d] = %v, want %v", i, dst[i], want[i])
		}
	}
}

func TestAxpyShortDst(t *testing.T) {
	x := []float32{1, 1, 1}
	y := []float32{0, 0, 0}
	dst := make([]float32, 2)

	Axpy(dst, 3, x, y)

	if dst[0] != 3 || dst[1] != 3 {
		t.Fatalf("dst = %v, want [3 3]", dst)
	}
}

func TestGroupsFor(t *testing.T) {
	cases := []struct {
		n, groupSize, want int
	}{
		{0, 512, 0},
		{1, 512, 1},
		{512, 512, 1},
		{513, 512, 2},
		{1024, 512, 2},
		{1000, 512, 2},
		{1024, 256, 4},
		{5, 0, 0},
	}
	for _, c := range cases {
		if got := GroupsFor(c.n, c.groupSize); got != c.want {
			t.Errorf("GroupsFor(%d, %d) = %d, want %d", c.n, c.groupSize, got, c.want)
		}
	}
}
