package engine

import (
	"math"
	"testing"
)

// dcGain measures the steady-state gain of the node for a constant input.
func dcGain(t *testing.T, n Node) float64 {
	t.Helper()

	frames := 8192
	b := constBlock(frames, 1, 1)
	n.Process(b, 0)

	return b.L[frames-1]
}

func TestNewEQ3NodeValidation(t *testing.T) {
	if _, err := NewEQ3Node(0, nil); err == nil {
		t.Fatal("expected error for zero sample rate")
	}

	bands := []EQBand{{Kind: BandPeak, Freq: 30000}}
	if _, err := NewEQ3Node(44100, bands); err == nil {
		t.Fatal("expected error for band above Nyquist")
	}

	bands = []EQBand{{Kind: BandKind(99), Freq: 1000}}
	if _, err := NewEQ3Node(44100, bands); err == nil {
		t.Fatal("expected error for unknown band kind")
	}
}

func TestEQ3NodeEmptyPassthrough(t *testing.T) {
	n, err := NewEQ3Node(44100, nil)
	if err != nil {
		t.Fatal(err)
	}

	if n.Bands() != 0 {
		t.Fatalf("got %d bands want 0", n.Bands())
	}

	b := constBlock(16, 0.25, -0.25)
	n.Process(b, 0)

	if b.L[8] != 0.25 || b.R[8] != -0.25 {
		t.Fatalf("got L=%v R=%v", b.L[8], b.R[8])
	}
}

func TestLowShelfBoostsDC(t *testing.T) {
	n, err := NewEQ3Node(44100, []EQBand{{Kind: BandLowShelf, Freq: 200, GainDB: 6}})
	if err != nil {
		t.Fatal(err)
	}

	want := math.Pow(10, 6.0/20)
	if got := dcGain(t, n); math.Abs(got-want) > 0.01 {
		t.Fatalf("dc gain: got %v want %v", got, want)
	}
}

func TestLowShelfCutsDC(t *testing.T) {
	n, err := NewEQ3Node(44100, []EQBand{{Kind: BandLowShelf, Freq: 200, GainDB: -6}})
	if err != nil {
		t.Fatal(err)
	}

	want := math.Pow(10, -6.0/20)
	if got := dcGain(t, n); math.Abs(got-want) > 0.01 {
		t.Fatalf("dc gain: got %v want %v", got, want)
	}
}

func TestHighShelfLeavesDCAlone(t *testing.T) {
	n, err := NewEQ3Node(44100, []EQBand{{Kind: BandHighShelf, Freq: 5000, GainDB: 12}})
	if err != nil {
		t.Fatal(err)
	}

	if got := dcGain(t, n); math.Abs(got-1) > 0.02 {
		t.Fatalf("dc gain: got %v want ~1", got)
	}
}

func TestPeakBoostsCenterFrequency(t *testing.T) {
	rate := 44100.0
	freq := 1000.0

	n, err := NewEQ3Node(rate, []EQBand{{Kind: BandPeak, Freq: freq, GainDB: 6, Q: 1}})
	if err != nil {
		t.Fatal(err)
	}

	// Steady-state sine amplitude at the center frequency.
	frames := 44100
	b := &Block{L: make([]float64, frames), R: make([]float64, frames)}
	for i := range b.L {
		b.L[i] = math.Sin(2 * math.Pi * freq * float64(i) / rate)
	}

	n.Process(b, 0)

	peak := 0.0
	for _, v := range b.L[frames/2:] {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}

	want := math.Pow(10, 6.0/20)
	if math.Abs(peak-want) > 0.05 {
		t.Fatalf("center gain: got %v want %v", peak, want)
	}
}
