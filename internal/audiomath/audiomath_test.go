package audiomath

import (
	"math"
	"testing"
)

// --- clamp ---

func TestClamp(t *testing.T) {
	cases := []struct {
		v, min, max float64
		want        float64
	}{
		{0.5, 0, 1, 0.5},
		{-1, 0, 1, 0},
		{2, 0, 1, 1},
		{0.5, 1, 0, 0.5}, // swapped bounds are normalized
		{2, 1, 0, 1},
	}

	for _, c := range cases {
		if got := Clamp(c.v, c.min, c.max); got != c.want {
			t.Fatalf("Clamp(%v, %v, %v): got %v want %v", c.v, c.min, c.max, got, c.want)
		}
	}
}

// --- decibel conversion ---

func TestDBToLinear(t *testing.T) {
	if got := DBToLinear(0); got != 1 {
		t.Fatalf("0 dB: got %v want 1", got)
	}

	if got := DBToLinear(20); math.Abs(got-10) > 1e-12 {
		t.Fatalf("20 dB: got %v want 10", got)
	}

	if got := DBToLinear(-20); math.Abs(got-0.1) > 1e-12 {
		t.Fatalf("-20 dB: got %v want 0.1", got)
	}
}

func TestLinearToDB(t *testing.T) {
	if got := LinearToDB(1); got != 0 {
		t.Fatalf("1: got %v want 0", got)
	}

	if got := LinearToDB(10); math.Abs(got-20) > 1e-12 {
		t.Fatalf("10: got %v want 20", got)
	}

	if got := LinearToDB(0); !math.IsInf(got, -1) {
		t.Fatalf("0: got %v want -Inf", got)
	}

	if got := LinearToDB(-1); !math.IsNaN(got) {
		t.Fatalf("-1: got %v want NaN", got)
	}
}

// --- guards ---

func TestIsFinitePositive(t *testing.T) {
	cases := []struct {
		v    float64
		want bool
	}{
		{1, true},
		{1e-9, true},
		{0, false},
		{-1, false},
		{math.NaN(), false},
		{math.Inf(1), false},
		{math.Inf(-1), false},
	}

	for _, c := range cases {
		if got := IsFinitePositive(c.v); got != c.want {
			t.Fatalf("IsFinitePositive(%v): got %v want %v", c.v, got, c.want)
		}
	}
}

// --- interpolation ---

func TestHermite4Endpoints(t *testing.T) {
	if got := Hermite4(0, 0.1, 0.7, 0.3, 0.9); got != 0.7 {
		t.Fatalf("t=0: got %v want x0", got)
	}

	if got := Hermite4(1, 0.1, 0.7, 0.3, 0.9); math.Abs(got-0.3) > 1e-12 {
		t.Fatalf("t=1: got %v want x1", got)
	}
}

func TestHermite4LinearData(t *testing.T) {
	// On linearly spaced samples the curve reduces to linear interpolation.
	if got := Hermite4(0.5, 0, 1, 2, 3); math.Abs(got-1.5) > 1e-12 {
		t.Fatalf("got %v want 1.5", got)
	}
}
