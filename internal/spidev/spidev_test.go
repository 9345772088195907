package spidev

import "testing"

func TestClampSpeed(t *testing.T) {
	cases := []struct {
		slowdown float64
		want     uint32
	}{
		{1.0, 1000000},
		{2.0, 500000},
		{0.5, 2000000},
		{10000.0, MinSpeedHz},
		{0.01, MaxSpeedHz},
	}
	for _, tc := range cases {
		if got := ClampSpeed(tc.slowdown); got != tc.want {
			t.Errorf("ClampSpeed(%g) = %d, want %d", tc.slowdown, got, tc.want)
		}
	}
}
