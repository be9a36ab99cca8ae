package levels

import (
	"math"
	"testing"

	"github.com/alperkosan/dawg-render/engine"
)

func sineBuffer(freq, amp, sampleRate float64, frames int) *engine.Buffer {
	left := make([]float64, frames)
	right := make([]float64, frames)

	for i := range left {
		v := amp * math.Sin(2*math.Pi*freq*float64(i)/sampleRate)
		left[i] = v
		right[i] = v
	}

	return engine.NewBuffer(left, right, sampleRate)
}

func TestMeasureSine(t *testing.T) {
	// Whole number of cycles keeps peak and RMS exact.
	buf := sineBuffer(441, 0.5, 44100, 44100)

	rep := Measure(buf)

	if math.Abs(rep.Left.Peak-0.5) > 1e-6 {
		t.Fatalf("peak: got %v want 0.5", rep.Left.Peak)
	}

	// Sine RMS is amplitude over sqrt(2).
	wantRMS := 0.5 / math.Sqrt2
	if math.Abs(rep.Left.RMS-wantRMS) > 1e-6 {
		t.Fatalf("rms: got %v want %v", rep.Left.RMS, wantRMS)
	}

	if math.Abs(rep.Left.CrestFactor-math.Sqrt2) > 1e-4 {
		t.Fatalf("crest: got %v want sqrt(2)", rep.Left.CrestFactor)
	}

	if rep.Left.Clipped != 0 {
		t.Fatalf("clipped: got %d want 0", rep.Left.Clipped)
	}

	if rep.Duration != 1 {
		t.Fatalf("duration: got %v want 1", rep.Duration)
	}

	wantDB := 20 * math.Log10(0.5)
	if math.Abs(rep.PeakDB-wantDB) > 1e-6 {
		t.Fatalf("peak dB: got %v want %v", rep.PeakDB, wantDB)
	}
}

func TestMeasureCountsClippedSamples(t *testing.T) {
	left := []float64{0.5, 1.5, -2.0, 1.0}
	buf := engine.NewBuffer(left, left, 44100)

	rep := Measure(buf)

	// Exactly unity is not clipping.
	if rep.Left.Clipped != 2 {
		t.Fatalf("clipped: got %d want 2", rep.Left.Clipped)
	}

	if rep.Left.Peak != 2 {
		t.Fatalf("peak: got %v want 2", rep.Left.Peak)
	}
}

func TestMeasureSilence(t *testing.T) {
	buf := engine.NewBuffer(make([]float64, 128), make([]float64, 128), 44100)

	rep := Measure(buf)

	if rep.Left.Peak != 0 || rep.Left.RMS != 0 {
		t.Fatalf("silence: %+v", rep.Left)
	}

	if !math.IsInf(rep.PeakDB, -1) {
		t.Fatalf("peak dB: got %v want -Inf", rep.PeakDB)
	}
}

func TestMeasureEmptyBuffer(t *testing.T) {
	buf := engine.NewBuffer(nil, nil, 44100)

	rep := Measure(buf)

	if !math.IsInf(rep.Left.PeakDB, -1) || !math.IsInf(rep.Left.RMSDB, -1) {
		t.Fatalf("empty: %+v", rep.Left)
	}
}

func TestMeasureIndependentChannels(t *testing.T) {
	left := []float64{0.25, -0.25}
	right := []float64{1.0, -1.0}

	rep := Measure(engine.NewBuffer(left, right, 44100))

	if rep.Left.Peak != 0.25 || rep.Right.Peak != 1.0 {
		t.Fatalf("peaks: L=%v R=%v", rep.Left.Peak, rep.Right.Peak)
	}

	// The summary takes the louder channel.
	if got := rep.PeakDB; got != 0 {
		t.Fatalf("peak dB: got %v want 0", got)
	}
}

// --- spectrum ---

func TestAnalyzeRejectsBadSize(t *testing.T) {
	buf := sineBuffer(441, 0.5, 44100, 4096)

	for _, size := range []int{0, 1, 3, 1000} {
		if _, err := Analyze(buf, size); err == nil {
			t.Fatalf("size %d: expected error", size)
		}
	}
}

func TestAnalyzePeakBin(t *testing.T) {
	const (
		size = 4096
		rate = 44100.0
	)

	// Center the tone on an exact bin: bin 100 is 100 * 44100/4096 Hz.
	freq := 100 * rate / size

	buf := sineBuffer(freq, 0.8, rate, size)

	sp, err := Analyze(buf, size)
	if err != nil {
		t.Fatal(err)
	}

	if sp.Bins() != size/2+1 {
		t.Fatalf("bins: got %d want %d", sp.Bins(), size/2+1)
	}

	if math.Abs(sp.BinHz-rate/size) > 1e-9 {
		t.Fatalf("bin width: got %v", sp.BinHz)
	}

	bin, hz := sp.PeakBin()
	if bin != 100 {
		t.Fatalf("peak bin: got %d want 100", bin)
	}

	if math.Abs(hz-freq) > 1e-6 {
		t.Fatalf("peak freq: got %v want %v", hz, freq)
	}

	// Hann windowing halves the tone's bin magnitude.
	if got := sp.Magnitudes[100]; math.Abs(got-0.4) > 0.02 {
		t.Fatalf("peak magnitude: got %v want ~0.4", got)
	}
}

func TestAnalyzeZeroPadsShortBuffers(t *testing.T) {
	buf := sineBuffer(441, 0.5, 44100, 100)

	sp, err := Analyze(buf, 1024)
	if err != nil {
		t.Fatal(err)
	}

	if sp.Bins() != 513 {
		t.Fatalf("bins: got %d want 513", sp.Bins())
	}
}
