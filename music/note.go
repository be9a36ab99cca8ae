package music

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	// StepsPerBeat is the sequencer grid resolution: one step is a 16th note.
	StepsPerBeat = 4.0
	// BeatsPerBar is the fixed 4/4 bar length used by the render grid.
	BeatsPerBar = 4.0

	midiVelocityMax = 127.0
	minMIDIKey      = 0
	maxMIDIKey      = 127
)

// Note is one scheduled note event inside a pattern. Start and Duration are
// expressed in fractional steps on the pattern grid.
type Note struct {
	Key      int
	Velocity float64
	Start    float64
	Duration float64
}

// Validate reports whether the note satisfies the pattern invariants.
func (n Note) Validate() error {
	if n.Key < minMIDIKey || n.Key > maxMIDIKey {
		return fmt.Errorf("note key must be in [%d, %d]: %d", minMIDIKey, maxMIDIKey, n.Key)
	}

	if n.Start < 0 || math.IsNaN(n.Start) || math.IsInf(n.Start, 0) {
		return fmt.Errorf("note start must be >= 0 steps: %f", n.Start)
	}

	if n.Duration <= 0 || math.IsNaN(n.Duration) || math.IsInf(n.Duration, 0) {
		return fmt.Errorf("note duration must be > 0 steps: %f", n.Duration)
	}

	return nil
}

// End returns the note end position in steps.
func (n Note) End() float64 {
	return n.Start + n.Duration
}

var pitchClasses = map[string]int{
	"c": 0, "d": 2, "e": 4, "f": 5, "g": 7, "a": 9, "b": 11,
}

// ParseKey converts a note name such as "C4", "F#3" or "Bb2" to its MIDI key
// number (C4 = 60, A4 = 69). Names are case-insensitive.
func ParseKey(name string) (int, error) {
	s := strings.TrimSpace(strings.ToLower(name))
	if s == "" {
		return 0, fmt.Errorf("empty note name")
	}

	class, ok := pitchClasses[s[:1]]
	if !ok {
		return 0, fmt.Errorf("invalid note name: %q", name)
	}

	rest := s[1:]
	for len(rest) > 0 {
		switch rest[0] {
		case '#', 's':
			class++
		case 'b':
			class--
		default:
			octave, err := strconv.Atoi(rest)
			if err != nil {
				return 0, fmt.Errorf("invalid note name: %q", name)
			}

			key := (octave+1)*12 + class
			if key < minMIDIKey || key > maxMIDIKey {
				return 0, fmt.Errorf("note %q is outside the MIDI range: %d", name, key)
			}

			return key, nil
		}

		rest = rest[1:]
	}

	return 0, fmt.Errorf("note name missing octave: %q", name)
}

// KeyToFreq returns the equal-tempered frequency of a MIDI key (A4 = 440 Hz).
func KeyToFreq(key int) float64 {
	return 440.0 * math.Pow(2, float64(key-69)/12.0)
}

// NormalizeVelocity maps a velocity to linear gain in [0, 1]. Values above 1
// are treated as MIDI 0-127 and mapped through a squared loudness curve;
// values already in [0, 1] pass through unchanged.
func NormalizeVelocity(v float64) float64 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}

	if v > 1 {
		n := v / midiVelocityMax
		if n > 1 {
			n = 1
		}

		return n * n
	}

	return v
}

// ParseDuration resolves a named duration such as "4n" (quarter note), "8n",
// "16n" or a multiplied form like "4*16n" into fractional steps. A trailing
// dot extends the duration by half ("4n." = 6 steps).
func ParseDuration(s string) (float64, error) {
	raw := strings.TrimSpace(strings.ToLower(s))
	if raw == "" {
		return 0, fmt.Errorf("empty duration")
	}

	mult := 1.0

	if i := strings.IndexByte(raw, '*'); i >= 0 {
		m, err := strconv.ParseFloat(raw[:i], 64)
		if err != nil || m <= 0 {
			return 0, fmt.Errorf("invalid duration multiplier: %q", s)
		}

		mult = m
		raw = raw[i+1:]
	}

	dotted := strings.HasSuffix(raw, ".")
	raw = strings.TrimSuffix(raw, ".")

	if !strings.HasSuffix(raw, "n") {
		// Plain numbers are already in steps.
		steps, err := strconv.ParseFloat(raw, 64)
		if err != nil || steps <= 0 {
			return 0, fmt.Errorf("invalid duration: %q", s)
		}

		return mult * steps, nil
	}

	div, err := strconv.ParseFloat(strings.TrimSuffix(raw, "n"), 64)
	if err != nil || div <= 0 {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}

	// "1n" is a whole note (4 beats), "4n" one beat, "16n" one step.
	steps := (4.0 / div) * StepsPerBeat * mult
	if dotted {
		steps *= 1.5
	}

	return steps, nil
}
