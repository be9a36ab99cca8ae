package engine

import (
	"math"

	"github.com/cwbudde/algo-vecmath"
)

// NopNode passes its summed input through unchanged. It serves as a bus
// input or tap point in the graph.
type NopNode struct{}

// Process implements Node.
func (NopNode) Process(_ *Block, _ int) {}

// GainNode scales its input by an automatable linear gain.
type GainNode struct {
	Level *Param

	scratch []float64
}

// NewGainNode creates a gain stage with the given initial linear gain.
func NewGainNode(level float64) *GainNode {
	return &GainNode{Level: NewParam(level)}
}

// Process implements Node.
func (g *GainNode) Process(block *Block, from int) {
	if g.Level.Static() {
		level := g.Level.ValueAt(0)
		vecmath.ScaleBlock(block.L, block.L, level)
		vecmath.ScaleBlock(block.R, block.R, level)

		return
	}

	if cap(g.scratch) < block.Frames() {
		g.scratch = make([]float64, block.Frames())
	}

	curve := g.scratch[:block.Frames()]
	g.Level.Fill(curve, from)
	vecmath.MulBlockInPlace(block.L, curve)
	vecmath.MulBlockInPlace(block.R, curve)
}

// PanNode places the mono sum of its input in the stereo field with an
// equal-power law. Positions away from center attenuate the far side
// further, matching the interactive mixer's pan curve.
type PanNode struct {
	Pan *Param
}

// NewPanNode creates a pan stage. Pan is in [-1, 1], 0 is center.
func NewPanNode(pan float64) *PanNode {
	return &PanNode{Pan: NewParam(pan)}
}

// Process implements Node.
func (p *PanNode) Process(block *Block, from int) {
	static := p.Pan.Static()
	gl, gr := panGains(p.Pan.ValueAt(0))

	for i := range block.L {
		if !static {
			gl, gr = panGains(p.Pan.ValueAt(from + i))
		}

		mono := (block.L[i] + block.R[i]) * 0.5
		block.L[i] = mono * gl
		block.R[i] = mono * gr
	}
}

func panGains(pan float64) (left, right float64) {
	if pan < -1 {
		pan = -1
	} else if pan > 1 {
		pan = 1
	}

	angle := (pan + 1) * math.Pi / 4
	left = math.Cos(angle)
	right = math.Sin(angle)

	if pan > 0 {
		left *= 1 - pan
	} else if pan < 0 {
		right *= 1 + pan
	}

	return left, right
}

// DelayNode delays its input by a fixed whole number of samples. It carries
// the per-channel latency-compensation offset on an instrument path.
type DelayNode struct {
	left  *delayLine
	right *delayLine
}

// NewDelayNode creates a fixed delay of the given non-negative length.
func NewDelayNode(samples int) *DelayNode {
	if samples <= 0 {
		return &DelayNode{}
	}

	return &DelayNode{
		left:  newDelayLine(samples),
		right: newDelayLine(samples),
	}
}

// Delay returns the configured delay in samples.
func (d *DelayNode) Delay() int {
	if d.left == nil {
		return 0
	}

	return d.left.Len()
}

// Process implements Node.
func (d *DelayNode) Process(block *Block, _ int) {
	if d.left == nil {
		return
	}

	d.left.ProcessBlock(block.L)
	d.right.ProcessBlock(block.R)
}
