package music

import (
	"fmt"
	"math"

	"github.com/alperkosan/dawg-render/internal/audiomath"
)

// DefaultTempoBPM is the fallback tempo used when a render request supplies
// no usable tempo.
const DefaultTempoBPM = 120.0

// Timebase converts between steps, beats, seconds and samples for one tempo
// and sample rate. It replaces any process-wide engine handle: every pass
// carries its own explicit Timebase.
type Timebase struct {
	TempoBPM   float64
	SampleRate float64
}

// NewTimebase validates tempo and sample rate.
func NewTimebase(tempoBPM, sampleRate float64) (Timebase, error) {
	if !audiomath.IsFinitePositive(tempoBPM) {
		return Timebase{}, fmt.Errorf("tempo must be > 0 BPM: %f", tempoBPM)
	}

	if !audiomath.IsFinitePositive(sampleRate) {
		return Timebase{}, fmt.Errorf("sample rate must be > 0: %f", sampleRate)
	}

	return Timebase{TempoBPM: tempoBPM, SampleRate: sampleRate}, nil
}

// BeatSeconds returns the duration of one beat in seconds.
func (t Timebase) BeatSeconds() float64 {
	return 60.0 / t.TempoBPM
}

// StepsToBeats converts fractional steps to beats.
func (t Timebase) StepsToBeats(steps float64) float64 {
	return steps / StepsPerBeat
}

// BeatsToSeconds converts beats to seconds at the current tempo.
func (t Timebase) BeatsToSeconds(beats float64) float64 {
	return beats * t.BeatSeconds()
}

// SecondsToBeats converts seconds to beats at the current tempo.
func (t Timebase) SecondsToBeats(seconds float64) float64 {
	return seconds / t.BeatSeconds()
}

// StepsToSeconds converts fractional steps to seconds.
func (t Timebase) StepsToSeconds(steps float64) float64 {
	return t.BeatsToSeconds(t.StepsToBeats(steps))
}

// StepsToSamples converts fractional steps to a whole sample offset.
func (t Timebase) StepsToSamples(steps float64) int {
	return t.SecondsToSamples(t.StepsToSeconds(steps))
}

// SecondsToSamples converts seconds to a whole sample count, rounding up so a
// scheduled window never truncates its final fraction of a sample.
func (t Timebase) SecondsToSamples(seconds float64) int {
	return int(math.Ceil(seconds * t.SampleRate))
}

// SamplesToSeconds converts a sample count back to seconds.
func (t Timebase) SamplesToSeconds(samples int) float64 {
	return float64(samples) / t.SampleRate
}

// RoundUpToBar rounds beats up to the next whole bar boundary.
func RoundUpToBar(beats float64) float64 {
	return math.Ceil(beats/BeatsPerBar) * BeatsPerBar
}
