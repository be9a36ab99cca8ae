package renderer

import (
	"fmt"
	"math"

	"github.com/alperkosan/dawg-render/internal/audiomath"
	"github.com/alperkosan/dawg-render/music"
)

// window is the resolved render length.
type window struct {
	frames  int
	seconds float64
}

// resolveWindow computes the render window. Content length is computed in
// beats, padded by the longest instrument release tail and the global
// latency offset, rounded up to a whole bar, and clamped to the two second
// floor. An explicit length overrides the computation. The ceiling check
// runs here, before any backend allocation.
func resolveWindow(o Options, tb music.Timebase, contentBeats, tailSeconds float64, latencySamples int) (window, error) {
	seconds := o.Length
	if seconds <= 0 {
		seconds = computedSeconds(o, tb, contentBeats, tailSeconds, latencySamples)
	}

	if !audiomath.IsFinitePositive(seconds) {
		return window{}, fmt.Errorf("%w: %f s", ErrInvalidRenderLength, seconds)
	}

	if seconds > o.MaxSeconds {
		return window{}, fmt.Errorf("%w: %.1f s > %.1f s", ErrRenderTooLong, seconds, o.MaxSeconds)
	}

	return window{frames: tb.SecondsToSamples(seconds), seconds: seconds}, nil
}

func computedSeconds(o Options, tb music.Timebase, contentBeats, tailSeconds float64, latencySamples int) float64 {
	pad := tailSeconds + tb.SamplesToSeconds(latencySamples)
	beats := contentBeats + tb.SecondsToBeats(pad)

	if !audiomath.IsFinitePositive(beats) {
		// An empty or degenerate source still yields one bar of audio at
		// the default tempo rather than a zero-length file.
		o.Logger.Warn("render content empty, falling back to one bar",
			"beats", beats,
			"tempo", music.DefaultTempoBPM)

		fallback, _ := music.NewTimebase(music.DefaultTempoBPM, tb.SampleRate)

		return fallback.BeatsToSeconds(music.BeatsPerBar)
	}

	floorBeats := music.RoundUpToBar(tb.SecondsToBeats(minRenderSeconds))
	beats = math.Max(music.RoundUpToBar(beats), floorBeats)

	return tb.BeatsToSeconds(beats)
}
