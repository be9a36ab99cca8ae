package renderer

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/alperkosan/dawg-render/internal/audiomath"
	"github.com/alperkosan/dawg-render/music"
)

const (
	// DefaultSampleRate is the export sample rate when none is requested.
	DefaultSampleRate = 44100.0
	// DefaultBitDepth is the PCM bit depth reported to WAV consumers.
	DefaultBitDepth = 16
	// DefaultMaxSeconds is the hard ceiling on one render window.
	DefaultMaxSeconds = 300.0

	minRenderSeconds = 2.0
	fadeOutSeconds   = 1.0
)

// Options control one render pass.
type Options struct {
	SampleRate     float64
	BitDepth       int
	TempoBPM       float64
	IncludeEffects bool
	FadeOut        bool
	StartTime      float64
	EndTime        float64
	Length         float64
	MaxSeconds     float64
	Logger         *slog.Logger
}

// Option mutates Options, validating its input.
type Option func(*Options) error

func defaultOptions() Options {
	return Options{
		SampleRate:     DefaultSampleRate,
		BitDepth:       DefaultBitDepth,
		TempoBPM:       music.DefaultTempoBPM,
		IncludeEffects: true,
		MaxSeconds:     DefaultMaxSeconds,
	}
}

func (o Options) apply(opts []Option) (Options, error) {
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return Options{}, err
		}
	}

	if o.Logger == nil {
		o.Logger = slog.Default()
	}

	return o, nil
}

// WithSampleRate sets the render sample rate in Hz.
func WithSampleRate(rate float64) Option {
	return func(o *Options) error {
		if !audiomath.IsFinitePositive(rate) {
			return fmt.Errorf("renderer: sample rate must be > 0: %f", rate)
		}

		o.SampleRate = rate

		return nil
	}
}

// WithBitDepth sets the PCM bit depth reported in the result.
func WithBitDepth(bits int) Option {
	return func(o *Options) error {
		switch bits {
		case 16, 24, 32:
			o.BitDepth = bits
			return nil
		default:
			return fmt.Errorf("renderer: bit depth must be 16, 24 or 32: %d", bits)
		}
	}
}

// WithTempo sets the tempo in beats per minute.
func WithTempo(bpm float64) Option {
	return func(o *Options) error {
		if !audiomath.IsFinitePositive(bpm) {
			return fmt.Errorf("renderer: tempo must be > 0 BPM: %f", bpm)
		}

		o.TempoBPM = bpm

		return nil
	}
}

// WithoutEffects renders the dry signal path: insert chains and latency
// compensation are skipped, while gain, pan, EQ and sends still apply.
func WithoutEffects() Option {
	return func(o *Options) error {
		o.IncludeEffects = false
		return nil
	}
}

// WithFadeOut applies a one second linear fade on the master gain at the
// end of the window.
func WithFadeOut() Option {
	return func(o *Options) error {
		o.FadeOut = true
		return nil
	}
}

// WithTimeRange trims the result to [start, end) seconds. A zero end means
// the window end.
func WithTimeRange(start, end float64) Option {
	return func(o *Options) error {
		if start < 0 || math.IsNaN(start) {
			return fmt.Errorf("renderer: start time must be >= 0 s: %f", start)
		}

		if end != 0 && end <= start {
			return fmt.Errorf("renderer: end time must be after start: %f <= %f", end, start)
		}

		o.StartTime = start
		o.EndTime = end

		return nil
	}
}

// WithLength overrides the computed window length, in seconds. The ceiling
// still applies.
func WithLength(seconds float64) Option {
	return func(o *Options) error {
		if !audiomath.IsFinitePositive(seconds) {
			return fmt.Errorf("%w: explicit length %f s", ErrInvalidRenderLength, seconds)
		}

		o.Length = seconds

		return nil
	}
}

// WithMaxSeconds sets the hard window ceiling.
func WithMaxSeconds(seconds float64) Option {
	return func(o *Options) error {
		if !audiomath.IsFinitePositive(seconds) {
			return fmt.Errorf("renderer: max duration must be > 0 s: %f", seconds)
		}

		o.MaxSeconds = seconds

		return nil
	}
}

// WithLogger routes render diagnostics to log.
func WithLogger(log *slog.Logger) Option {
	return func(o *Options) error {
		if log == nil {
			return fmt.Errorf("renderer: logger must not be nil")
		}

		o.Logger = log

		return nil
	}
}
