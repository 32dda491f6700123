package common

import (
	"math"
	"testing"
)

func TestRoundHalfUp(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{0, 0},
		{0.4, 0},
		{0.5, 1},
		{2.5, 3},
		{-0.4, 0},
		{-0.5, 0},
		{-2.5, -2},
		{-2.6, -3},
		{99.99, 100},
		{0.49999999999999994, 0},
		{1e19, 1e19},
		{-1e19, -1e19},
	}
	for _, c := range cases {
		if got := RoundHalfUp(c.in); got != c.want {
			t.Errorf("RoundHalfUp(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestRoundHalfUpNeverNegativeZero(t *testing.T) {
	for _, in := range []float64{math.Copysign(0, -1), -0.4, -0.5} {
		if got := RoundHalfUp(in); math.Signbit(got) {
			t.Errorf("RoundHalfUp(%v) returned negative zero", in)
		}
	}
}

func TestFormatRounded(t *testing.T) {
	cases := map[float64]string{
		0:                   "0",
		-0.4:                "0",
		21.5:                "22",
		-40:                 "-40",
		0.49999999999999994: "0",
		1e19:                "10000000000000000000",
	}
	for in, want := range cases {
		if got := FormatRounded(in); got != want {
			t.Errorf("FormatRounded(%v) = %q, want %q", in, got, want)
		}
	}
	if got := FormatRounded(math.Copysign(0, -1)); got != "0" {
		t.Errorf("FormatRounded(-0) = %q, want \"0\"", got)
	}
}
