package instrument

import (
	"math"

	"github.com/alperkosan/dawg-render/engine"
	"github.com/alperkosan/dawg-render/music"
	"github.com/alperkosan/dawg-render/voice"
)

// never marks a span boundary that has not been scheduled yet.
const never = 1 << 60

// declickSamples is the short fade applied when a voice is cut hard
// (steal or mono retrigger) instead of running its full release.
const declickSamples = 64

type waveform int

const (
	waveSine waveform = iota
	waveTriangle
	waveSaw
	waveSquare
)

func parseWaveform(name string) waveform {
	switch name {
	case "triangle":
		return waveTriangle
	case "saw":
		return waveSaw
	case "square":
		return waveSquare
	default:
		return waveSine
	}
}

func waveSample(w waveform, phase float64) float64 {
	switch w {
	case waveTriangle:
		return (2 / math.Pi) * math.Asin(math.Sin(phase))
	case waveSaw:
		return phase/math.Pi - 1
	case waveSquare:
		if math.Sin(phase) >= 0 {
			return 1
		}

		return -1
	default:
		return math.Sin(phase)
	}
}

// synthNode renders every voice of one synth instrument additively into its
// channel path.
type synthNode struct {
	units []*synthUnit
}

// newSynth builds the source node and its voice allocator. The allocator's
// unit factory registers each voice with the node so the compute pass sees
// the whole pool.
func newSynth(sampleRate float64, p SynthParams) (*synthNode, *voice.Allocator, error) {
	node := &synthNode{}

	factory := func() voice.Unit {
		u := newSynthUnit(sampleRate, p)
		node.units = append(node.units, u)

		return u
	}

	alloc, err := voice.New(p.voiceConfig(sampleRate), factory)
	if err != nil {
		return nil, nil, err
	}

	return node, alloc, nil
}

// Process implements engine.Node.
func (n *synthNode) Process(block *engine.Block, from int) {
	for _, u := range n.units {
		u.render(block, from)
	}
}

// pitchSeg is one scheduled pitch movement inside a span.
type pitchSeg struct {
	at       int
	from, to float64
	glide    int
}

// span is one envelope lifetime of a voice: from (re)trigger to the end of
// its release. A legato chain of overlapping notes shares one span.
type span struct {
	on, off, end int
	velocity     float64
	release      int
	segs         []pitchSeg
	phase        float64
}

func (sp *span) freqAt(s int) float64 {
	seg := sp.segs[0]

	for _, candidate := range sp.segs[1:] {
		if candidate.at > s {
			break
		}

		seg = candidate
	}

	if seg.glide <= 0 || s >= seg.at+seg.glide {
		return seg.to
	}

	frac := float64(s-seg.at) / float64(seg.glide)

	return seg.from + (seg.to-seg.from)*frac
}

// synthUnit is one oscillator voice with a pre-computed schedule of envelope
// spans. Everything is a scalar offset; rendering never consults a clock.
type synthUnit struct {
	sampleRate float64
	wave       waveform
	attack     int
	decay      int
	sustain    float64
	release    int
	level      float64

	spans    []span
	lastFreq float64
}

func newSynthUnit(sampleRate float64, p SynthParams) *synthUnit {
	return &synthUnit{
		sampleRate: sampleRate,
		wave:       parseWaveform(p.Waveform),
		attack:     atLeastOne(int(p.Attack * sampleRate)),
		decay:      atLeastOne(int(p.Decay * sampleRate)),
		sustain:    p.Sustain,
		release:    atLeastOne(int(p.Release * sampleRate)),
		level:      p.Level,
	}
}

func atLeastOne(n int) int {
	if n < 1 {
		return 1
	}

	return n
}

// Start implements voice.Unit.
func (u *synthUnit) Start(key int, velocity float64, at, glide int) {
	freq := music.KeyToFreq(key)

	u.closeOpen(at)

	from := freq
	if glide > 0 && u.lastFreq > 0 {
		from = u.lastFreq
	}

	u.spans = append(u.spans, span{
		on:       at,
		off:      never,
		end:      never,
		velocity: velocity,
		release:  u.release,
		segs:     []pitchSeg{{at: at, from: from, to: freq, glide: glide}},
	})

	u.lastFreq = freq
}

// Slide implements voice.Unit.
func (u *synthUnit) Slide(key int, velocity float64, at, glide int) {
	open := u.openSpan()
	if open == nil {
		u.Start(key, velocity, at, glide)
		return
	}

	freq := music.KeyToFreq(key)
	open.segs = append(open.segs, pitchSeg{at: at, from: u.lastFreq, to: freq, glide: glide})
	u.lastFreq = freq
}

// Release implements voice.Unit.
func (u *synthUnit) Release(at int) {
	open := u.openSpan()
	if open == nil {
		return
	}

	open.off = at
	open.end = at + open.release
}

// Cancel implements voice.Unit.
func (u *synthUnit) Cancel(at int) {
	for i := range u.spans {
		if u.spans[i].on >= at {
			u.spans = u.spans[:i]
			break
		}
	}

	if len(u.spans) == 0 {
		return
	}

	last := &u.spans[len(u.spans)-1]
	if last.end > at {
		if last.off > at {
			last.off = at
		}

		last.release = declickSamples
		last.end = at + declickSamples
	}
}

// Stop implements voice.Unit.
func (u *synthUnit) Stop() {
	u.spans = nil
	u.lastFreq = 0
}

func (u *synthUnit) openSpan() *span {
	if len(u.spans) == 0 {
		return nil
	}

	last := &u.spans[len(u.spans)-1]
	if last.off == never {
		return last
	}

	return nil
}

// closeOpen cuts a still-held span with a declick fade so a retrigger on the
// same unit cannot double up.
func (u *synthUnit) closeOpen(at int) {
	open := u.openSpan()
	if open == nil {
		return
	}

	open.off = at
	open.release = declickSamples
	open.end = at + declickSamples
}

func (u *synthUnit) render(block *engine.Block, from int) {
	n := block.Frames()
	step := 2 * math.Pi / u.sampleRate

	for si := range u.spans {
		sp := &u.spans[si]
		if sp.on >= from+n || sp.end <= from {
			continue
		}

		for i := 0; i < n; i++ {
			s := from + i
			if s < sp.on || s >= sp.end {
				continue
			}

			sp.phase += step * sp.freqAt(s)
			if sp.phase > math.Pi {
				sp.phase -= 2 * math.Pi
			}

			env := u.envelopeAt(sp, s)
			if env <= 0 {
				continue
			}

			out := waveSample(u.wave, sp.phase) * env * sp.velocity * u.level
			block.L[i] += out
			block.R[i] += out
		}
	}
}

// envelopeAt evaluates the ADSR analytically at an absolute sample: the
// whole envelope is a function of scheduled scalars, with no per-voice
// state machine.
func (u *synthUnit) envelopeAt(sp *span, s int) float64 {
	if s < sp.off {
		return u.attackDecayAt(s - sp.on)
	}

	release := sp.release
	if release < 1 {
		release = 1
	}

	held := u.attackDecayAt(sp.off - sp.on)
	fade := 1 - float64(s-sp.off)/float64(release)

	if fade < 0 {
		return 0
	}

	return held * fade
}

func (u *synthUnit) attackDecayAt(t int) float64 {
	if t < 0 {
		return 0
	}

	if t < u.attack {
		return float64(t) / float64(u.attack)
	}

	t -= u.attack
	if t < u.decay {
		return 1 - (1-u.sustain)*float64(t)/float64(u.decay)
	}

	return u.sustain
}
