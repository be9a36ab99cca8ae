// Package levels reports peak and RMS levels of rendered buffers, for
// export summaries and clipping checks.
package levels

import (
	"math"

	"github.com/alperkosan/dawg-render/engine"
	"github.com/alperkosan/dawg-render/internal/audiomath"
)

// ChannelStats holds time-domain statistics for one channel.
type ChannelStats struct {
	Peak        float64
	PeakDB      float64
	RMS         float64
	RMSDB       float64
	CrestFactor float64
	Clipped     int
}

// Report summarizes a stereo buffer.
type Report struct {
	Left     ChannelStats
	Right    ChannelStats
	PeakDB   float64
	RMSDB    float64
	Duration float64
}

// Measure computes the level report for a rendered buffer.
func Measure(buf *engine.Buffer) Report {
	left := measureChannel(buf.Left())
	right := measureChannel(buf.Right())

	return Report{
		Left:     left,
		Right:    right,
		PeakDB:   audiomath.LinearToDB(math.Max(left.Peak, right.Peak)),
		RMSDB:    audiomath.LinearToDB(math.Max(left.RMS, right.RMS)),
		Duration: buf.Duration(),
	}
}

func measureChannel(signal []float64) ChannelStats {
	if len(signal) == 0 {
		return ChannelStats{PeakDB: math.Inf(-1), RMSDB: math.Inf(-1)}
	}

	peak := 0.0
	sumSq := 0.0
	clipped := 0

	for _, v := range signal {
		a := math.Abs(v)
		if a > peak {
			peak = a
		}

		if a > 1 {
			clipped++
		}

		sumSq += v * v
	}

	rms := math.Sqrt(sumSq / float64(len(signal)))

	crest := 0.0
	if rms > 0 {
		crest = peak / rms
	}

	return ChannelStats{
		Peak:        peak,
		PeakDB:      audiomath.LinearToDB(peak),
		RMS:         rms,
		RMSDB:       audiomath.LinearToDB(rms),
		CrestFactor: crest,
		Clipped:     clipped,
	}
}
