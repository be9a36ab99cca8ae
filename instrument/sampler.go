package instrument

import (
	"log/slog"

	"github.com/alperkosan/dawg-render/engine"
	"github.com/alperkosan/dawg-render/internal/audiomath"
	"github.com/alperkosan/dawg-render/music"
)

type resolvedZone struct {
	low, high int
	root      int
	data      *SampleData
}

// samplerEvent is one pre-scheduled playback of a zone. Position state lives
// here so overlapping notes play independently without a voice pool.
type samplerEvent struct {
	on, off int
	step    float64
	gain    float64
	zone    *SampleData
	pos     float64
	done    bool
}

// samplerNode plays sample zones for the sample-backed instrument kinds.
// Zones whose data did not resolve stay silent; the miss was logged at
// construction and never aborts the render.
type samplerNode struct {
	sampleRate float64
	zones      []resolvedZone
	events     []samplerEvent
}

func newSampler(sampleRate float64, cfg Config, resolver SampleResolver, log *slog.Logger) *samplerNode {
	n := &samplerNode{sampleRate: sampleRate}

	for _, z := range cfg.sortedZones() {
		rz := resolvedZone{low: z.LowKey, high: z.HighKey, root: z.Ref.RootKey}

		if data, ok := resolver.Resolve(z.Ref); ok {
			rz.data = data
		} else {
			log.Warn("sample data unresolved, zone renders silent",
				"instrument", cfg.ID,
				"uri", z.Ref.URI)
		}

		n.zones = append(n.zones, rz)
	}

	return n
}

// schedule places one note on the sampler timeline.
func (n *samplerNode) schedule(key int, velocity float64, on, off int) {
	zone := n.zoneFor(key)
	if zone == nil || zone.data == nil || zone.data.SampleRate <= 0 {
		return
	}

	step := music.KeyToFreq(key) / music.KeyToFreq(zone.root) * zone.data.SampleRate / n.sampleRate

	n.events = append(n.events, samplerEvent{
		on:   on,
		off:  off,
		step: step,
		gain: velocity,
		zone: zone.data,
	})
}

func (n *samplerNode) zoneFor(key int) *resolvedZone {
	for i := range n.zones {
		if key >= n.zones[i].low && key <= n.zones[i].high {
			return &n.zones[i]
		}
	}

	return nil
}

// Process implements engine.Node.
func (n *samplerNode) Process(block *engine.Block, from int) {
	frames := block.Frames()

	for ei := range n.events {
		e := &n.events[ei]
		if e.done || e.on >= from+frames {
			continue
		}

		n.renderEvent(e, block, from)
	}
}

func (n *samplerNode) renderEvent(e *samplerEvent, block *engine.Block, from int) {
	data := e.zone
	length := len(data.Left)

	right := data.Right
	if len(right) != length {
		right = data.Left
	}

	for i := 0; i < block.Frames(); i++ {
		s := from + i
		if s < e.on {
			continue
		}

		if s >= e.off+declickSamples || e.pos >= float64(length-1) {
			e.done = true
			return
		}

		fade := 1.0
		if s >= e.off {
			fade = 1 - float64(s-e.off)/float64(declickSamples)
		}

		gain := e.gain * fade
		block.L[i] += interpolate(data.Left, e.pos) * gain
		block.R[i] += interpolate(right, e.pos) * gain

		e.pos += e.step
	}
}

// interpolate reads a fractional sample position with 4-point Hermite
// interpolation, clamping the neighborhood at the data edges.
func interpolate(data []float64, pos float64) float64 {
	base := int(pos)
	frac := pos - float64(base)

	last := len(data) - 1
	xm1 := data[clampIndex(base-1, last)]
	x0 := data[clampIndex(base, last)]
	x1 := data[clampIndex(base+1, last)]
	x2 := data[clampIndex(base+2, last)]

	return audiomath.Hermite4(frac, xm1, x0, x1, x2)
}

func clampIndex(i, last int) int {
	if i < 0 {
		return 0
	}

	if i > last {
		return last
	}

	return i
}
