// Package instrument turns instrument records into live source nodes inside
// a rendering context and guarantees one live instance per logical
// instrument for a whole render pass.
package instrument

import (
	"fmt"
	"sort"
	"strings"

	"github.com/alperkosan/dawg-render/voice"
)

// Kind is the closed set of instrument types. Scheduling strategy is chosen
// per kind, exhaustively, instead of dispatching on raw type strings.
type Kind int

// Instrument kinds.
const (
	KindSample Kind = iota
	KindMultiSample
	KindLegacySynth
	KindVASynth
	KindZenithSynth
)

// String returns the serialized kind name.
func (k Kind) String() string {
	switch k {
	case KindSample:
		return "sample"
	case KindMultiSample:
		return "multiSample"
	case KindLegacySynth:
		return "legacySynth"
	case KindVASynth:
		return "vaSynth"
	case KindZenithSynth:
		return "zenithSynth"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind maps a serialized type name to its Kind. Legacy aliases are
// normalized rather than rejected.
func ParseKind(raw string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "sample", "sampler":
		return KindSample, nil
	case "multisample", "multi-sample":
		return KindMultiSample, nil
	case "legacysynth", "legacy-synth", "synth":
		return KindLegacySynth, nil
	case "vasynth", "va-synth", "va":
		return KindVASynth, nil
	case "zenithsynth", "zenith-synth", "zenith":
		return KindZenithSynth, nil
	default:
		return 0, fmt.Errorf("unknown instrument type: %q", raw)
	}
}

// IsSampleBacked reports whether the kind plays back recorded audio.
func (k Kind) IsSampleBacked() bool {
	return k == KindSample || k == KindMultiSample
}

// SynthParams holds synthesis and voice-handling parameters for the synth
// kinds. Zero values fall back to per-kind defaults.
type SynthParams struct {
	Waveform string
	Attack   float64
	Decay    float64
	Sustain  float64
	Release  float64
	Glide    float64
	Legato   bool
	Mono     bool
	Voices   int
	Level    float64
}

// SampleRef points at backing sample data for the sample kinds.
type SampleRef struct {
	URI     string
	RootKey int
	Inline  *SampleData
}

// SampleData is decoded sample audio. Right may alias Left for mono sources.
type SampleData struct {
	Left       []float64
	Right      []float64
	SampleRate float64
}

// Zone maps one key range to a sample reference for multi-sample kinds.
type Zone struct {
	LowKey  int
	HighKey int
	Ref     SampleRef
}

// Config is one instrument record: identity, kind, destination channel and
// per-kind parameters.
type Config struct {
	ID      string
	Kind    Kind
	Channel string
	Synth   SynthParams
	Sample  SampleRef
	Zones   []Zone
}

const (
	defaultAttack   = 0.005
	defaultDecay    = 0.1
	defaultSustain  = 0.8
	defaultRelease  = 0.25
	defaultLevel    = 1.0
	defaultRootKey  = 60
	samplerTail     = 0.05
	zenithVoicePool = 32
)

// synthDefaults fills per-kind defaults into the synth parameter set.
func (c Config) synthDefaults() SynthParams {
	p := c.Synth

	if p.Attack <= 0 {
		p.Attack = defaultAttack
	}

	if p.Decay <= 0 {
		p.Decay = defaultDecay
	}

	if p.Sustain <= 0 || p.Sustain > 1 {
		p.Sustain = defaultSustain
	}

	if p.Release <= 0 {
		p.Release = defaultRelease
	}

	if p.Level <= 0 {
		p.Level = defaultLevel
	}

	switch c.Kind {
	case KindLegacySynth:
		// The legacy synth is the original monophonic instrument.
		p.Mono = true

		if p.Waveform == "" {
			p.Waveform = "square"
		}
	case KindZenithSynth:
		if p.Voices <= 0 {
			p.Voices = zenithVoicePool
		}

		if p.Waveform == "" {
			p.Waveform = "sine"
		}
	default:
		if p.Waveform == "" {
			p.Waveform = "saw"
		}
	}

	return p
}

// voiceConfig derives the allocator configuration from the synth parameters.
func (p SynthParams) voiceConfig(sampleRate float64) voice.Config {
	cfg := voice.Config{
		Mode:   voice.Poly,
		Voices: p.Voices,
		Legato: p.Legato,
	}

	if p.Mono {
		cfg.Mode = voice.Mono
		cfg.Portamento = int(p.Glide * sampleRate)
	}

	return cfg
}

// ReleaseTailSeconds returns how long the instrument keeps sounding after
// its last note off. The render window is padded by the longest tail among
// the instruments in use.
func (c Config) ReleaseTailSeconds() float64 {
	if c.Kind.IsSampleBacked() {
		return samplerTail
	}

	return c.synthDefaults().Release
}

// sortedZones returns the multi-sample zones ordered by low key, with a
// plain sample kind collapsing to a single full-range zone.
func (c Config) sortedZones() []Zone {
	if c.Kind == KindSample {
		ref := c.Sample
		if ref.RootKey <= 0 {
			ref.RootKey = defaultRootKey
		}

		return []Zone{{LowKey: 0, HighKey: 127, Ref: ref}}
	}

	zones := make([]Zone, len(c.Zones))
	copy(zones, c.Zones)

	for i := range zones {
		if zones[i].Ref.RootKey <= 0 {
			zones[i].Ref.RootKey = defaultRootKey
		}
	}

	sort.Slice(zones, func(i, j int) bool { return zones[i].LowKey < zones[j].LowKey })

	return zones
}
