package main

import (
	"reflect"
	"testing"
)

func TestParseSizes(t *testing.T) {
	good := []struct {
		in   string
		want []int
	}{
		{"1024", []int{1024}},
		{"1024,65536", []int{1024, 65536}},
		{" 1024 , 65536 ", []int{1024, 65536}},
		{"1024,,65536", []int{1024, 65536}},
		{"0", []int{0}},
	}
	for _, c := range good {
		got, err := parseSizes(c.in)
		if err != nil {
			t.Errorf("parseSizes(%q): %v", c.in, err)
			continue
		}
		if !reflect.DeepEqual(got, c.want) {
			t.Errorf("parseSizes(%q) = %v, want %v", c.in, got, c.want)
		}
	}

	bad := []string{"bogus", "1024,bogus", "-1", "1024,-4,65536", "1.5"}
	for _, in := range bad {
		if _, err := parseSizes(in); err == nil {
			t.Errorf("parseSizes(%q): expected error", in)
		}
	}
}
