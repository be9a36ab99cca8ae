// Package mixer assembles per-channel processing chains and computes
// inter-channel latency compensation.
package mixer

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/alperkosan/dawg-render/engine"
	"github.com/alperkosan/dawg-render/fx"
)

const (
	// MasterChannelID is the single terminal channel every mix resolves to.
	MasterChannelID = "master"

	// DefaultGain is the linear gain of a freshly created channel.
	DefaultGain = 0.8

	eqLowFreq  = 200.0
	eqMidFreq  = 1000.0
	eqMidQ     = 1.0
	eqHighFreq = 5000.0
)

// Send routes a post-chain tap into another channel's input through an
// independent gain stage.
type Send struct {
	Destination string
	Level       float64
}

// EQSettings holds the 3-band EQ gains in dB. Zero-gain bands are not built.
type EQSettings struct {
	LowGain  float64
	MidGain  float64
	HighGain float64
}

// ChannelConfig describes one mixer channel: its insert chain, gain, pan,
// EQ and sends.
type ChannelConfig struct {
	ID      string
	Gain    float64
	Pan     float64
	EQ      EQSettings
	Inserts []fx.Descriptor
	Sends   []Send
	Mute    bool
	Solo    bool
}

// NewChannel returns a channel config with interactive-path defaults.
func NewChannel(id string) ChannelConfig {
	return ChannelConfig{ID: id, Gain: DefaultGain}
}

// IsMaster reports whether this is the terminal channel.
func (c ChannelConfig) IsMaster() bool {
	return c.ID == MasterChannelID
}

// Validate checks the structural invariants of a channel set: exactly one
// master, no sends on the master, unique IDs.
func Validate(channels []ChannelConfig) error {
	seen := map[string]struct{}{}
	masters := 0

	for _, c := range channels {
		if c.ID == "" {
			return errors.New("mixer: channel with empty id")
		}

		if _, dup := seen[c.ID]; dup {
			return fmt.Errorf("mixer: duplicate channel id: %s", c.ID)
		}

		seen[c.ID] = struct{}{}

		if c.IsMaster() {
			masters++

			if len(c.Sends) > 0 {
				return errors.New("mixer: master channel cannot have sends")
			}
		}
	}

	if masters != 1 {
		return fmt.Errorf("mixer: expected exactly one master channel, got %d", masters)
	}

	return nil
}

// ActiveChannels filters the channel set by mute and solo state. When any
// channel is soloed, only soloed channels (plus the master) remain.
func ActiveChannels(channels []ChannelConfig) []ChannelConfig {
	anySolo := false

	for _, c := range channels {
		if c.Solo && !c.IsMaster() {
			anySolo = true
			break
		}
	}

	active := make([]ChannelConfig, 0, len(channels))

	for _, c := range channels {
		if c.IsMaster() {
			active = append(active, c)
			continue
		}

		if c.Mute {
			continue
		}

		if anySolo && !c.Solo {
			continue
		}

		active = append(active, c)
	}

	return active
}

// ParamTarget is one automatable mixer parameter exposed to automation
// lanes. Min/Max describe the mapping from lane units (0-127) to parameter
// units; Default is the lane fall-back value in parameter units.
type ParamTarget struct {
	Param    *engine.Param
	Default  float64
	Min, Max float64
}

// Builder wires channel chains into a rendering context. One Builder serves
// one render pass.
type Builder struct {
	ctx      *engine.Context
	resolver *fx.Resolver
	log      *slog.Logger

	withEffects bool

	buses   map[string]engine.NodeID
	targets map[string]ParamTarget
}

// NewBuilder creates a channel builder for the given context. When
// withEffects is false, insert chains are omitted but gain, pan, EQ and
// sends are still built.
func NewBuilder(ctx *engine.Context, resolver *fx.Resolver, withEffects bool, log *slog.Logger) *Builder {
	if log == nil {
		log = slog.Default()
	}

	return &Builder{
		ctx:         ctx,
		resolver:    resolver,
		log:         log,
		withEffects: withEffects,
		buses:       make(map[string]engine.NodeID),
		targets:     make(map[string]ParamTarget),
	}
}

// BusInput returns the summing input node of a channel, creating it on
// first use. Instrument paths and sends connect here.
func (b *Builder) BusInput(channelID string) engine.NodeID {
	if id, ok := b.buses[channelID]; ok {
		return id
	}

	id := b.ctx.AddNode(engine.NopNode{})
	b.buses[channelID] = id

	return id
}

// Targets returns the automatable parameters registered while building,
// keyed "<channel>.gain" and "<channel>.pan".
func (b *Builder) Targets() map[string]ParamTarget {
	return b.targets
}

// MasterGain returns the master channel's gain param, if the master has been
// built.
func (b *Builder) MasterGain() *engine.Param {
	t, ok := b.targets[MasterChannelID+".gain"]
	if !ok {
		return nil
	}

	return t.Param
}

// Build assembles one channel chain in the fixed interactive-path order:
// inserts, gain, pan, EQ, then sends in parallel with the main path. The
// master chain terminates the graph; every other chain feeds the master bus.
func (b *Builder) Build(cfg ChannelConfig) error {
	prev := b.BusInput(cfg.ID)

	if b.withEffects {
		prev = b.buildInserts(cfg, prev)
	}

	gain := engine.NewGainNode(cfg.Gain)
	prev = b.append(prev, gain)
	b.targets[cfg.ID+".gain"] = ParamTarget{Param: gain.Level, Default: 1, Min: 0, Max: 1}

	if cfg.Pan != 0 {
		pan := engine.NewPanNode(cfg.Pan)
		prev = b.append(prev, pan)
		b.targets[cfg.ID+".pan"] = ParamTarget{Param: pan.Pan, Default: 0, Min: -1, Max: 1}
	}

	if bands := eqBands(cfg.EQ); len(bands) > 0 {
		eq, err := engine.NewEQ3Node(b.ctx.SampleRate(), bands)
		if err != nil {
			return fmt.Errorf("mixer: build eq for channel %q: %w", cfg.ID, err)
		}

		prev = b.append(prev, eq)
	}

	if cfg.IsMaster() {
		if err := b.ctx.SetOutput(prev); err != nil {
			return err
		}
	} else if err := b.ctx.Connect(prev, b.BusInput(MasterChannelID)); err != nil {
		return err
	}

	for _, send := range cfg.Sends {
		sendGain := b.ctx.AddNode(engine.NewGainNode(send.Level))

		if err := b.ctx.Connect(prev, sendGain); err != nil {
			return err
		}

		if err := b.ctx.Connect(sendGain, b.BusInput(send.Destination)); err != nil {
			return err
		}
	}

	return nil
}

// buildInserts chains the channel's non-bypassed insert effects. A
// descriptor that fails to resolve is skipped with a warning; the rest of
// the chain stays intact.
func (b *Builder) buildInserts(cfg ChannelConfig, prev engine.NodeID) engine.NodeID {
	for _, d := range cfg.Inserts {
		if d.Bypass {
			continue
		}

		node, err := b.resolver.Resolve(d, b.ctx.SampleRate())
		if err != nil {
			b.log.Warn("insert effect skipped",
				"channel", cfg.ID,
				"effect", d.Type,
				"error", err)

			continue
		}

		prev = b.append(prev, node)
	}

	return prev
}

func (b *Builder) append(prev engine.NodeID, n engine.Node) engine.NodeID {
	id := b.ctx.AddNode(n)

	// Connect cannot fail here: both IDs come from this context.
	_ = b.ctx.Connect(prev, id)

	return id
}

func eqBands(eq EQSettings) []engine.EQBand {
	var bands []engine.EQBand

	if eq.LowGain != 0 {
		bands = append(bands, engine.EQBand{Kind: engine.BandLowShelf, Freq: eqLowFreq, GainDB: eq.LowGain})
	}

	if eq.MidGain != 0 {
		bands = append(bands, engine.EQBand{Kind: engine.BandPeak, Freq: eqMidFreq, GainDB: eq.MidGain, Q: eqMidQ})
	}

	if eq.HighGain != 0 {
		bands = append(bands, engine.EQBand{Kind: engine.BandHighShelf, Freq: eqHighFreq, GainDB: eq.HighGain})
	}

	return bands
}
