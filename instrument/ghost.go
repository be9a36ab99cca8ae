package instrument

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/alperkosan/dawg-render/engine"
	"github.com/alperkosan/dawg-render/voice"
)

type noteEvent struct {
	key      int
	velocity float64
	on, off  int
}

// Instrument is a single rendered instance of an instrument configuration.
// Notes are collected with ScheduleNote and handed to the underlying source
// in one chronological pass by Flush, before the graph renders.
type Instrument struct {
	id      string
	channel string
	kind    Kind

	node engine.NodeID

	allocator *voice.Allocator
	sampler   *samplerNode

	events []noteEvent
}

// ID returns the logical instrument identifier.
func (in *Instrument) ID() string { return in.id }

// Channel returns the mixer channel the instrument feeds.
func (in *Instrument) Channel() string { return in.channel }

// NodeID returns the graph node producing the instrument's audio.
func (in *Instrument) NodeID() engine.NodeID { return in.node }

// ScheduleNote queues one note. Key is a MIDI key number, velocity is
// normalized to [0, 1], on and off are absolute sample offsets into the
// render window.
func (in *Instrument) ScheduleNote(key int, velocity float64, on, off int) {
	if off <= on {
		return
	}

	in.events = append(in.events, noteEvent{key: key, velocity: velocity, on: on, off: off})
}

// Flush dispatches the queued notes in time order. Voice allocation is
// sequential state, so offs are applied before ons that land on the same
// sample; without that ordering a back-to-back retrigger would steal instead
// of reusing the freed voice.
func (in *Instrument) Flush() {
	if in.sampler != nil {
		for _, e := range in.events {
			in.sampler.schedule(e.key, e.velocity, e.on, e.off)
		}

		in.events = nil

		return
	}

	type op struct {
		at   int
		on   bool
		note noteEvent
	}

	ops := make([]op, 0, 2*len(in.events))
	for _, e := range in.events {
		ops = append(ops, op{at: e.on, on: true, note: e})
		ops = append(ops, op{at: e.off, on: false, note: e})
	}

	sort.SliceStable(ops, func(i, j int) bool {
		if ops[i].at != ops[j].at {
			return ops[i].at < ops[j].at
		}

		return !ops[i].on && ops[j].on
	})

	for _, o := range ops {
		if o.on {
			in.allocator.NoteOn(o.note.key, o.note.velocity, o.at)
		} else {
			in.allocator.NoteOff(o.note.key, o.at)
		}
	}

	in.events = nil
}

// Manager creates instrument instances for a single render pass, one per
// logical instrument ID. Occurrences of the same pattern, and different
// patterns sharing an instrument, all schedule into the same instance.
type Manager struct {
	ctx     *engine.Context
	samples SampleResolver
	log     *slog.Logger

	live  map[string]*Instrument
	order []string
}

// NewManager returns an empty manager bound to the render graph.
func NewManager(ctx *engine.Context, samples SampleResolver, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}

	return &Manager{
		ctx:     ctx,
		samples: samples,
		log:     log,
		live:    make(map[string]*Instrument),
	}
}

// GetOrCreate returns the live instance for cfg.ID, building it on first
// request.
func (m *Manager) GetOrCreate(cfg Config) (*Instrument, error) {
	if in, ok := m.live[cfg.ID]; ok {
		return in, nil
	}

	in, err := m.build(cfg)
	if err != nil {
		return nil, fmt.Errorf("instrument %q: %w", cfg.ID, err)
	}

	m.live[cfg.ID] = in
	m.order = append(m.order, cfg.ID)

	return in, nil
}

func (m *Manager) build(cfg Config) (*Instrument, error) {
	in := &Instrument{id: cfg.ID, channel: cfg.Channel, kind: cfg.Kind}

	if cfg.Kind.IsSampleBacked() {
		in.sampler = newSampler(m.ctx.SampleRate(), cfg, m.samples, m.log)
		in.node = m.ctx.AddNode(in.sampler)

		return in, nil
	}

	node, alloc, err := newSynth(m.ctx.SampleRate(), cfg.synthDefaults())
	if err != nil {
		return nil, err
	}

	in.allocator = alloc
	in.node = m.ctx.AddNode(node)

	return in, nil
}

// Live returns the already created instance for id, if any.
func (m *Manager) Live(id string) (*Instrument, bool) {
	in, ok := m.live[id]
	return in, ok
}

// Count returns the number of live instances.
func (m *Manager) Count() int { return len(m.live) }

// FlushAll dispatches every instance's queued notes, in creation order.
func (m *Manager) FlushAll() {
	for _, id := range m.order {
		m.live[id].Flush()
	}
}
