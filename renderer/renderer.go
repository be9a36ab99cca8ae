// Package renderer schedules non-real-time render passes: it sizes the
// window, builds the mixer graph and instrument paths on a backend context,
// applies automation and runs the compute pass into one immutable buffer.
package renderer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/alperkosan/dawg-render/engine"
	"github.com/alperkosan/dawg-render/fx"
	"github.com/alperkosan/dawg-render/instrument"
	"github.com/alperkosan/dawg-render/mixer"
	"github.com/alperkosan/dawg-render/music"
)

// Backend hands out rendering contexts sized to one window.
type Backend interface {
	NewContext(sampleRate float64, frames int) (*engine.Context, error)
}

// Request is the read-only snapshot one render pass works from. Exactly one
// of Pattern or Arrangement should be set; Arrangement wins when both are.
type Request struct {
	Pattern     *music.Pattern
	Arrangement *music.Arrangement
	Channels    []mixer.ChannelConfig
	Instruments map[string]instrument.Config
	Automation  []music.Lane

	// Samples are consulted before the shared cache and inline data when
	// resolving sample-backed instruments.
	Samples []instrument.SampleResolver
}

// Renderer runs render passes against one backend. It is safe for
// concurrent use: every pass owns its own context, graph and instruments,
// only the sample cache and effect registry are shared.
type Renderer struct {
	backend  Backend
	resolver *fx.Resolver
	cache    *instrument.SampleCache
	opts     Options
}

// New returns a renderer with the given default options.
func New(backend Backend, opts ...Option) (*Renderer, error) {
	o, err := defaultOptions().apply(opts)
	if err != nil {
		return nil, err
	}

	return &Renderer{
		backend:  backend,
		resolver: fx.NewResolver(),
		cache:    instrument.NewSampleCache(),
		opts:     o,
	}, nil
}

// SampleCache exposes the shared sample store so callers can preload data.
func (r *Renderer) SampleCache() *instrument.SampleCache { return r.cache }

// Effects exposes the effect resolver for registering additional types.
func (r *Renderer) Effects() *fx.Resolver { return r.resolver }

// Render runs one pass. Per-call options override the renderer defaults.
// Cancellation is cooperative: ctx is checked between the build phases, an
// in-flight compute pass is not preempted.
func (r *Renderer) Render(ctx context.Context, req Request, opts ...Option) (*Result, error) {
	if r == nil || r.backend == nil {
		return nil, ErrEngineUnavailable
	}

	o, err := r.opts.apply(opts)
	if err != nil {
		return nil, err
	}

	src, err := newSource(req)
	if err != nil {
		return nil, err
	}

	channels, err := ensureMaster(req.Channels)
	if err != nil {
		return nil, err
	}

	tb, err := music.NewTimebase(o.TempoBPM, o.SampleRate)
	if err != nil {
		return nil, err
	}

	id := uuid.New()

	pass := &renderPass{
		id:       id,
		renderer: r,
		opts:     o,
		log:      o.Logger.With("pass", id.String()),
		req:      req,
		src:      src,
		channels: channels,
		tb:       tb,
	}

	return pass.run(ctx)
}

// renderPass owns the per-request state: one context, one graph, one ghost
// instrument set.
type renderPass struct {
	id       uuid.UUID
	renderer *Renderer
	opts     Options
	log      *slog.Logger
	req      Request
	src      source
	channels []mixer.ChannelConfig
	tb       music.Timebase

	delays map[string]int
	global int
}

func (p *renderPass) run(ctx context.Context) (*Result, error) {
	used, tail := p.usage()

	if p.opts.IncludeEffects {
		p.delays, p.global = mixer.Offsets(p.channels, used, p.renderer.resolver, p.tb.SampleRate)
	}

	win, err := resolveWindow(p.opts, p.tb, p.src.contentBeats(), tail, p.global)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	eng, err := p.renderer.backend.NewContext(p.tb.SampleRate, win.frames)
	if err != nil {
		return nil, fmt.Errorf("renderer: backend context: %w", err)
	}

	builder := mixer.NewBuilder(eng, p.renderer.resolver, p.opts.IncludeEffects, p.log)

	for _, cfg := range mixer.ActiveChannels(p.channels) {
		if err := builder.Build(cfg); err != nil {
			return nil, fmt.Errorf("renderer: channel %q: %w", cfg.ID, err)
		}
	}

	if err := p.schedule(eng, builder, win); err != nil {
		return nil, err
	}

	p.automate(builder, win)

	if p.opts.FadeOut {
		applyFadeOut(builder.MasterGain(), win.frames, p.tb)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	buf, err := eng.RenderNonRealtime()
	if err != nil {
		return nil, fmt.Errorf("renderer: compute pass: %w", err)
	}

	return p.result(buf, win), nil
}

// usage returns the set of mixer channels the pass feeds and the longest
// instrument release tail in seconds.
func (p *renderPass) usage() (map[string]bool, float64) {
	used := map[string]bool{mixer.MasterChannelID: true}
	tail := 0.0

	for _, id := range p.src.instrumentIDs() {
		cfg, ok := p.req.Instruments[id]
		if !ok {
			continue
		}

		used[p.channelFor(cfg)] = true

		if t := cfg.ReleaseTailSeconds(); t > tail {
			tail = t
		}
	}

	return used, tail
}

// channelFor maps an instrument to its destination channel, falling back to
// the master for unknown channel IDs.
func (p *renderPass) channelFor(cfg instrument.Config) string {
	if cfg.Channel == "" {
		return mixer.MasterChannelID
	}

	for _, c := range p.channels {
		if c.ID == cfg.Channel {
			return cfg.Channel
		}
	}

	p.log.Warn("instrument routed to unknown channel, using master",
		"instrument", cfg.ID,
		"channel", cfg.Channel)

	return mixer.MasterChannelID
}

// schedule instantiates each used instrument once, wires it through its
// compensation delay to its channel bus and queues every note.
func (p *renderPass) schedule(eng *engine.Context, builder *mixer.Builder, win window) error {
	samples := instrument.DefaultResolver(p.renderer.cache, p.req.Samples...)
	mgr := instrument.NewManager(eng, samples, p.log)

	for _, id := range p.src.instrumentIDs() {
		cfg, ok := p.req.Instruments[id]
		if !ok {
			p.log.Warn("no instrument config, notes skipped", "instrument", id)
			continue
		}

		cfg.ID = id

		in, err := mgr.GetOrCreate(cfg)
		if err != nil {
			return fmt.Errorf("renderer: %w", err)
		}

		if err := p.connect(eng, builder, in, cfg); err != nil {
			return err
		}
	}

	p.src.scheduleNotes(mgr, p.tb, p.log)
	mgr.FlushAll()

	return nil
}

func (p *renderPass) connect(eng *engine.Context, builder *mixer.Builder, in *instrument.Instrument, cfg instrument.Config) error {
	src := in.NodeID()

	if delay := p.delays[p.channelFor(cfg)]; delay > 0 {
		dn := eng.AddNode(engine.NewDelayNode(delay))
		if err := eng.Connect(src, dn); err != nil {
			return fmt.Errorf("renderer: %w", err)
		}

		src = dn
	}

	if err := eng.Connect(src, builder.BusInput(p.channelFor(cfg))); err != nil {
		return fmt.Errorf("renderer: %w", err)
	}

	return nil
}

func (p *renderPass) automate(builder *mixer.Builder, win window) {
	targets := builder.Targets()

	for _, lane := range p.req.Automation {
		target, ok := targets[lane.Target]
		if !ok {
			p.log.Warn("automation lane targets unknown parameter, ignored",
				"target", lane.Target)
			continue
		}

		applyLane(target, lane, p.tb, win.frames)
	}
}

// applyFadeOut ramps the master gain to zero over the last second of the
// window, or the whole window when it is shorter than that.
func applyFadeOut(master *engine.Param, frames int, tb music.Timebase) {
	if master == nil || frames == 0 {
		return
	}

	start := frames - tb.SecondsToSamples(fadeOutSeconds)
	if start < 0 {
		start = 0
	}

	master.SetValueAtTime(master.ValueAt(start), start)
	master.LinearRampToValueAtTime(0, frames-1)
}

func (p *renderPass) result(buf *engine.Buffer, win window) *Result {
	if p.opts.StartTime > 0 || p.opts.EndTime > 0 {
		from := p.tb.SecondsToSamples(p.opts.StartTime)

		to := buf.Frames()
		if p.opts.EndTime > 0 {
			to = p.tb.SecondsToSamples(p.opts.EndTime)
		}

		buf = buf.Slice(from, to)
	}

	return &Result{
		ID:              p.id,
		Buffer:          buf,
		Duration:        buf.Duration(),
		SampleRate:      buf.SampleRate(),
		BitDepth:        p.opts.BitDepth,
		Channels:        buf.Channels(),
		SourcePatternID: p.src.id(),
	}
}

// ensureMaster guarantees a master channel exists, then validates the set.
func ensureMaster(channels []mixer.ChannelConfig) ([]mixer.ChannelConfig, error) {
	hasMaster := false
	for _, c := range channels {
		if c.IsMaster() {
			hasMaster = true
			break
		}
	}

	if !hasMaster {
		channels = append(channels[:len(channels):len(channels)], mixer.NewChannel(mixer.MasterChannelID))
	}

	if err := mixer.Validate(channels); err != nil {
		return nil, fmt.Errorf("renderer: %w", err)
	}

	return channels, nil
}
