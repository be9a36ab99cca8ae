package engine

import (
	"fmt"
	"math"
)

// BandKind selects the biquad response of one EQ band.
type BandKind int

// Supported EQ band kinds.
const (
	BandLowShelf BandKind = iota
	BandPeak
	BandHighShelf
)

// EQBand configures one band of an EQ3Node. Q is only used by peaking bands.
type EQBand struct {
	Kind   BandKind
	Freq   float64
	GainDB float64
	Q      float64
}

// EQ3Node is a serial multi-band equalizer built from biquad sections, one
// section set per stereo channel.
type EQ3Node struct {
	left  []*biquadSection
	right []*biquadSection
}

// NewEQ3Node builds an equalizer from the given bands at the context sample
// rate. An empty band list yields a passthrough node.
func NewEQ3Node(sampleRate float64, bands []EQBand) (*EQ3Node, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("engine: eq sample rate must be > 0: %f", sampleRate)
	}

	n := &EQ3Node{}

	for _, band := range bands {
		if band.Freq <= 0 || band.Freq >= sampleRate/2 {
			return nil, fmt.Errorf("engine: eq band frequency out of range: %f", band.Freq)
		}

		var coeffs biquadCoeffs

		switch band.Kind {
		case BandLowShelf:
			coeffs = lowShelfCoeffs(band.Freq, band.GainDB, sampleRate)
		case BandPeak:
			q := band.Q
			if q <= 0 {
				q = 1
			}

			coeffs = peakingCoeffs(band.Freq, q, band.GainDB, sampleRate)
		case BandHighShelf:
			coeffs = highShelfCoeffs(band.Freq, band.GainDB, sampleRate)
		default:
			return nil, fmt.Errorf("engine: unknown eq band kind: %d", band.Kind)
		}

		n.left = append(n.left, &biquadSection{coeffs: coeffs})
		n.right = append(n.right, &biquadSection{coeffs: coeffs})
	}

	return n, nil
}

// Bands returns the number of active bands.
func (n *EQ3Node) Bands() int {
	return len(n.left)
}

// Process implements Node.
func (n *EQ3Node) Process(block *Block, _ int) {
	for _, s := range n.left {
		s.ProcessBlock(block.L)
	}

	for _, s := range n.right {
		s.ProcessBlock(block.R)
	}
}

type biquadCoeffs struct {
	b0, b1, b2 float64
	a1, a2     float64
}

// biquadSection is a single Direct Form I biquad.
type biquadSection struct {
	coeffs biquadCoeffs

	x1, x2 float64
	y1, y2 float64
}

func (s *biquadSection) ProcessBlock(block []float64) {
	c := s.coeffs

	for i, x := range block {
		y := c.b0*x + c.b1*s.x1 + c.b2*s.x2 - c.a1*s.y1 - c.a2*s.y2

		s.x2 = s.x1
		s.x1 = x
		s.y2 = s.y1
		s.y1 = y
		block[i] = y
	}
}

func lowShelfCoeffs(freq, gainDB, sampleRate float64) biquadCoeffs {
	omega := 2 * math.Pi * freq / sampleRate
	sinW := math.Sin(omega)
	cosW := math.Cos(omega)
	alpha := sinW / 2
	a := math.Pow(10, gainDB/40)
	sqrtA := math.Sqrt(a)

	b0 := a * ((a + 1) - (a-1)*cosW + 2*sqrtA*alpha)
	b1 := 2 * a * ((a - 1) - (a+1)*cosW)
	b2 := a * ((a + 1) - (a-1)*cosW - 2*sqrtA*alpha)
	a0 := (a + 1) + (a-1)*cosW + 2*sqrtA*alpha
	a1 := -2 * ((a - 1) + (a+1)*cosW)
	a2 := (a + 1) + (a-1)*cosW - 2*sqrtA*alpha

	return biquadCoeffs{b0: b0 / a0, b1: b1 / a0, b2: b2 / a0, a1: a1 / a0, a2: a2 / a0}
}

func highShelfCoeffs(freq, gainDB, sampleRate float64) biquadCoeffs {
	omega := 2 * math.Pi * freq / sampleRate
	sinW := math.Sin(omega)
	cosW := math.Cos(omega)
	alpha := sinW / 2
	a := math.Pow(10, gainDB/40)
	sqrtA := math.Sqrt(a)

	b0 := a * ((a + 1) + (a-1)*cosW + 2*sqrtA*alpha)
	b1 := -2 * a * ((a - 1) + (a+1)*cosW)
	b2 := a * ((a + 1) + (a-1)*cosW - 2*sqrtA*alpha)
	a0 := (a + 1) - (a-1)*cosW + 2*sqrtA*alpha
	a1 := 2 * ((a - 1) - (a+1)*cosW)
	a2 := (a + 1) - (a-1)*cosW - 2*sqrtA*alpha

	return biquadCoeffs{b0: b0 / a0, b1: b1 / a0, b2: b2 / a0, a1: a1 / a0, a2: a2 / a0}
}

func peakingCoeffs(freq, q, gainDB, sampleRate float64) biquadCoeffs {
	omega := 2 * math.Pi * freq / sampleRate
	sinW := math.Sin(omega)
	cosW := math.Cos(omega)
	alpha := sinW / (2 * q)
	a := math.Pow(10, gainDB/40)

	b0 := 1 + alpha*a
	b1 := -2 * cosW
	b2 := 1 - alpha*a
	a0 := 1 + alpha/a
	a1 := -2 * cosW
	a2 := 1 - alpha/a

	return biquadCoeffs{b0: b0 / a0, b1: b1 / a0, b2: b2 / a0, a1: a1 / a0, a2: a2 / a0}
}
