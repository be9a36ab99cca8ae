// Package fx resolves serialized insert-effect descriptors into engine nodes
// and estimates their processing latency.
package fx

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/alperkosan/dawg-render/engine"
)

// ErrUnknownEffect is returned when a descriptor references an unregistered
// effect type.
var ErrUnknownEffect = errors.New("unknown effect type")

// Descriptor is a serialized insert-effect reference as stored in a mixer
// channel.
type Descriptor struct {
	Type   string             `json:"type"`
	Params map[string]float64 `json:"params"`
	Bypass bool               `json:"bypass"`
}

// Params wraps descriptor parameters with safe typed access.
type Params map[string]float64

// Get extracts a numeric parameter, returning def if missing or invalid.
func (p Params) Get(key string, def float64) float64 {
	if p == nil {
		return def
	}

	v, ok := p[key]
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}

	return v
}

// Factory builds one effect node for the given sample rate and returns its
// processing latency in samples.
type Factory func(sampleRate float64, params Params) (engine.Node, int, error)

// Resolver maps canonical effect type names to factories.
type Resolver struct {
	factories map[string]Factory
}

// NewResolver returns a resolver pre-populated with the built-in effects.
func NewResolver() *Resolver {
	r := &Resolver{factories: make(map[string]Factory)}

	r.MustRegister("delay", newDelayEffect)
	r.MustRegister("compressor", newCompressorEffect)
	r.MustRegister("bit-crusher", newBitCrusherEffect)
	r.MustRegister("distortion", newDistortionEffect)

	return r
}

// Register adds a factory for the given canonical effect type.
func (r *Resolver) Register(effectType string, factory Factory) error {
	if effectType == "" {
		return errors.New("empty effect type")
	}

	if factory == nil {
		return errors.New("nil factory")
	}

	if _, exists := r.factories[effectType]; exists {
		return fmt.Errorf("duplicate effect type: %s", effectType)
	}

	r.factories[effectType] = factory

	return nil
}

// MustRegister is like Register but panics on error.
func (r *Resolver) MustRegister(effectType string, factory Factory) {
	if err := r.Register(effectType, factory); err != nil {
		panic("fx resolver: " + err.Error())
	}
}

// Resolve builds the effect node for a descriptor. The descriptor type is
// normalized before lookup.
func (r *Resolver) Resolve(d Descriptor, sampleRate float64) (engine.Node, error) {
	factory := r.factories[NormalizeType(d.Type)]
	if factory == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEffect, d.Type)
	}

	node, _, err := factory(sampleRate, Params(d.Params))

	return node, err
}

// EstimateLatencySamples reports the processing latency one effect would add
// at the given sample rate. Unknown types report zero.
func (r *Resolver) EstimateLatencySamples(effectType string, params map[string]float64, sampleRate float64) int {
	factory := r.factories[NormalizeType(effectType)]
	if factory == nil {
		return 0
	}

	_, latency, err := factory(sampleRate, Params(params))
	if err != nil {
		return 0
	}

	return latency
}

// legacyAliases maps historical serialized type names onto the canonical
// lowercase-hyphenated vocabulary.
var legacyAliases = map[string]string{
	"bitcrusher":  "bit-crusher",
	"bit_crusher": "bit-crusher",
	"crusher":     "bit-crusher",
	"comp":        "compressor",
	"dynamics":    "compressor",
	"fbdelay":     "delay",
	"echo":        "delay",
	"softclip":    "distortion",
	"drive":       "distortion",
	"waveshaper":  "distortion",
}

// NormalizeType canonicalizes an effect type name to the lowercase-hyphenated
// vocabulary used by the resolver. Legacy aliases are mapped rather than
// rejected.
func NormalizeType(raw string) string {
	name := strings.ToLower(strings.TrimSpace(raw))
	name = strings.ReplaceAll(name, " ", "-")
	name = strings.ReplaceAll(name, "_", "-")

	if canonical, ok := legacyAliases[strings.ReplaceAll(name, "-", "")]; ok {
		return canonical
	}

	if canonical, ok := legacyAliases[name]; ok {
		return canonical
	}

	return name
}
