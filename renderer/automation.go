package renderer

import (
	"github.com/alperkosan/dawg-render/internal/audiomath"
	"github.com/alperkosan/dawg-render/mixer"
	"github.com/alperkosan/dawg-render/music"
)

const laneValueMax = 127.0

// applyLane converts one automation lane into ramp segments on its target
// parameter: the first keyframe's value is pinned at t=0, each later
// keyframe becomes a linear ramp endpoint, and if the last keyframe ends
// before the window does, the parameter ramps back to the lane default so
// it never freezes past the authored range.
func applyLane(target mixer.ParamTarget, lane music.Lane, tb music.Timebase, frames int) {
	if len(lane.Keyframes) == 0 {
		return
	}

	frames--
	if frames < 0 {
		return
	}

	target.Param.SetValueAtTime(laneValue(target, lane.Keyframes[0].Value), 0)

	last := 0
	for _, kf := range lane.Keyframes[1:] {
		at := tb.StepsToSamples(kf.Step)
		if at > frames {
			at = frames
		}

		target.Param.LinearRampToValueAtTime(laneValue(target, kf.Value), at)
		last = at
	}

	if last < frames {
		target.Param.LinearRampToValueAtTime(target.Default, frames)
	}
}

// laneValue maps a lane-unit value (0-127) onto the target's range.
func laneValue(target mixer.ParamTarget, v float64) float64 {
	norm := audiomath.Clamp(v/laneValueMax, 0, 1)
	return target.Min + norm*(target.Max-target.Min)
}
