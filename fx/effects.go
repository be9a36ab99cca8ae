package fx

import (
	"fmt"
	"math"

	"github.com/alperkosan/dawg-render/engine"
	"github.com/alperkosan/dawg-render/internal/audiomath"
)

const (
	defaultDelaySeconds  = 0.25
	maxDelaySeconds      = 2.0
	defaultDelayFeedback = 0.35
	defaultDelayMix      = 0.25

	defaultCompThresholdDB = -12.0
	defaultCompRatio       = 4.0
	defaultCompLookaheadMs = 5.0
	maxCompLookaheadMs     = 50.0

	defaultCrusherBits       = 8.0
	defaultCrusherDownsample = 1.0

	defaultDistortionDrive = 1.0
)

// delayEffect is a stereo feedback delay with dry/wet mix. It adds no
// processing latency: the dry path stays aligned.
type delayEffect struct {
	bufL, bufR []float64
	write      int
	feedback   float64
	mix        float64
}

func newDelayEffect(sampleRate float64, params Params) (engine.Node, int, error) {
	seconds := audiomath.Clamp(params.Get("time", defaultDelaySeconds), 0.001, maxDelaySeconds)

	size := int(seconds * sampleRate)
	if size < 1 {
		return nil, 0, fmt.Errorf("delay time too short: %f", seconds)
	}

	return &delayEffect{
		bufL:     make([]float64, size),
		bufR:     make([]float64, size),
		feedback: audiomath.Clamp(params.Get("feedback", defaultDelayFeedback), 0, 0.95),
		mix:      audiomath.Clamp(params.Get("mix", defaultDelayMix), 0, 1),
	}, 0, nil
}

// Process implements engine.Node.
func (d *delayEffect) Process(block *engine.Block, _ int) {
	for i := range block.L {
		wetL := d.bufL[d.write]
		wetR := d.bufR[d.write]

		d.bufL[d.write] = block.L[i] + wetL*d.feedback
		d.bufR[d.write] = block.R[i] + wetR*d.feedback

		d.write++
		if d.write >= len(d.bufL) {
			d.write = 0
		}

		block.L[i] = block.L[i]*(1-d.mix) + wetL*d.mix
		block.R[i] = block.R[i]*(1-d.mix) + wetR*d.mix
	}
}

// compressorEffect is a feedforward compressor with a lookahead buffer. The
// lookahead is the latency it reports to the compensator.
type compressorEffect struct {
	thresholdLin float64
	ratio        float64
	attackCoeff  float64
	releaseCoeff float64

	gain      float64
	lookahead int
	bufL      []float64
	bufR      []float64
	write     int
}

func newCompressorEffect(sampleRate float64, params Params) (engine.Node, int, error) {
	thresholdDB := audiomath.Clamp(params.Get("threshold", defaultCompThresholdDB), -60, 0)

	ratio := params.Get("ratio", defaultCompRatio)
	if ratio < 1 {
		ratio = 1
	}

	lookaheadMs := audiomath.Clamp(params.Get("lookahead", defaultCompLookaheadMs), 0, maxCompLookaheadMs)
	lookahead := int(lookaheadMs / 1000 * sampleRate)

	c := &compressorEffect{
		thresholdLin: audiomath.DBToLinear(thresholdDB),
		ratio:        ratio,
		attackCoeff:  smoothingCoeff(0.003, sampleRate),
		releaseCoeff: smoothingCoeff(0.1, sampleRate),
		gain:         1,
		lookahead:    lookahead,
	}

	if lookahead > 0 {
		c.bufL = make([]float64, lookahead)
		c.bufR = make([]float64, lookahead)
	}

	return c, lookahead, nil
}

// Process implements engine.Node.
func (c *compressorEffect) Process(block *engine.Block, _ int) {
	for i := range block.L {
		// The detector sees the incoming sample; the output is the delayed
		// one, so gain reduction lands ahead of the peak.
		inL, inR := block.L[i], block.R[i]

		outL, outR := inL, inR
		if c.lookahead > 0 {
			outL, outR = c.bufL[c.write], c.bufR[c.write]
			c.bufL[c.write] = inL
			c.bufR[c.write] = inR

			c.write++
			if c.write >= c.lookahead {
				c.write = 0
			}
		}

		level := math.Max(math.Abs(inL), math.Abs(inR))

		target := 1.0
		if level > c.thresholdLin {
			excess := (level - c.thresholdLin) / c.thresholdLin
			target = 1 / (1 + excess/c.ratio)
		}

		coeff := c.releaseCoeff
		if target < c.gain {
			coeff = c.attackCoeff
		}

		c.gain += (target - c.gain) * coeff

		block.L[i] = outL * c.gain
		block.R[i] = outR * c.gain
	}
}

func smoothingCoeff(timeConstant, sampleRate float64) float64 {
	return 1 - math.Exp(-1/(timeConstant*sampleRate))
}

// bitCrusherEffect quantizes amplitude and holds samples for lo-fi grit.
type bitCrusherEffect struct {
	levels     float64
	downsample int

	counter      int
	heldL, heldR float64
}

func newBitCrusherEffect(_ float64, params Params) (engine.Node, int, error) {
	bits := audiomath.Clamp(params.Get("bits", defaultCrusherBits), 1, 32)

	downsample := int(params.Get("downsample", defaultCrusherDownsample))
	if downsample < 1 {
		downsample = 1
	}

	return &bitCrusherEffect{
		levels:     math.Pow(2, bits) - 1,
		downsample: downsample,
	}, 0, nil
}

// Process implements engine.Node.
func (b *bitCrusherEffect) Process(block *engine.Block, _ int) {
	for i := range block.L {
		if b.counter == 0 {
			b.heldL = math.Round(block.L[i]*b.levels) / b.levels
			b.heldR = math.Round(block.R[i]*b.levels) / b.levels
		}

		b.counter++
		if b.counter >= b.downsample {
			b.counter = 0
		}

		block.L[i] = b.heldL
		block.R[i] = b.heldR
	}
}

// distortionEffect is a tanh soft clipper with input drive.
type distortionEffect struct {
	drive float64
	norm  float64
}

func newDistortionEffect(_ float64, params Params) (engine.Node, int, error) {
	drive := params.Get("drive", defaultDistortionDrive)
	if drive < 0.01 {
		drive = 0.01
	}

	return &distortionEffect{
		drive: drive,
		norm:  1 / math.Tanh(drive),
	}, 0, nil
}

// Process implements engine.Node.
func (d *distortionEffect) Process(block *engine.Block, _ int) {
	for i := range block.L {
		block.L[i] = math.Tanh(block.L[i]*d.drive) * d.norm
		block.R[i] = math.Tanh(block.R[i]*d.drive) * d.norm
	}
}
