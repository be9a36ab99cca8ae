package levels

import (
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"

	"github.com/alperkosan/dawg-render/engine"
)

// Spectrum is a single-frame magnitude spectrum of the mono mixdown.
type Spectrum struct {
	Magnitudes []float64
	BinHz      float64
}

// Bins returns the bin count, covering DC through Nyquist.
func (s Spectrum) Bins() int { return len(s.Magnitudes) }

// PeakBin returns the index and frequency of the strongest bin above DC.
func (s Spectrum) PeakBin() (int, float64) {
	best := 1
	for i := 2; i < len(s.Magnitudes); i++ {
		if s.Magnitudes[i] > s.Magnitudes[best] {
			best = i
		}
	}

	if len(s.Magnitudes) < 2 {
		return 0, 0
	}

	return best, float64(best) * s.BinHz
}

// Analyze computes a Hann-windowed magnitude spectrum from the start of the
// buffer. size must be a power of two; the signal is zero-padded when
// shorter than one frame.
func Analyze(buf *engine.Buffer, size int) (Spectrum, error) {
	if size < 2 || size&(size-1) != 0 {
		return Spectrum{}, fmt.Errorf("levels: fft size must be a power of two >= 2: %d", size)
	}

	plan, err := algofft.NewPlan64(size)
	if err != nil {
		return Spectrum{}, fmt.Errorf("levels: fft plan: %w", err)
	}

	left := buf.Left()
	right := buf.Right()

	in := make([]complex128, size)

	for i := 0; i < size && i < len(left); i++ {
		mono := 0.5 * (left[i] + right[i])
		w := 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(size-1)))
		in[i] = complex(mono*w, 0)
	}

	out := make([]complex128, size)
	if err := plan.Forward(out, in); err != nil {
		return Spectrum{}, fmt.Errorf("levels: fft: %w", err)
	}

	bins := size/2 + 1
	re := make([]float64, bins)
	im := make([]float64, bins)

	for i := 0; i < bins; i++ {
		re[i] = real(out[i])
		im[i] = imag(out[i])
	}

	mags := make([]float64, bins)
	vecmath.Magnitude(mags, re, im)

	// Single-sided scaling: interior bins carry both halves of the spectrum.
	scale := 2.0 / float64(size)
	for i := range mags {
		if i == 0 || i == bins-1 {
			mags[i] *= scale / 2
			continue
		}

		mags[i] *= scale
	}

	return Spectrum{Magnitudes: mags, BinHz: buf.SampleRate() / float64(size)}, nil
}
