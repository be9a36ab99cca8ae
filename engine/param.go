package engine

import "sort"

// Param is an automatable scalar control. Values are scheduled ahead of the
// compute pass as absolute sample offsets; there is no real-time mutation.
type Param struct {
	base   float64
	events []paramEvent
}

type paramEvent struct {
	at    int
	value float64
	ramp  bool
}

// NewParam creates a param with the given initial value.
func NewParam(initial float64) *Param {
	return &Param{base: initial}
}

// SetValueAtTime schedules an instantaneous value change at the given sample.
func (p *Param) SetValueAtTime(value float64, at int) {
	p.insert(paramEvent{at: at, value: value})
}

// LinearRampToValueAtTime schedules a linear ramp ending at the given sample.
// The ramp starts from the previous scheduled event (or the initial value at
// sample zero).
func (p *Param) LinearRampToValueAtTime(value float64, at int) {
	p.insert(paramEvent{at: at, value: value, ramp: true})
}

func (p *Param) insert(e paramEvent) {
	if e.at < 0 {
		e.at = 0
	}

	i := sort.Search(len(p.events), func(i int) bool { return p.events[i].at > e.at })
	p.events = append(p.events, paramEvent{})
	copy(p.events[i+1:], p.events[i:])
	p.events[i] = e
}

// Static reports whether the param has no scheduled events.
func (p *Param) Static() bool {
	return len(p.events) == 0
}

// ValueAt evaluates the scheduled value at the given sample offset.
func (p *Param) ValueAt(at int) float64 {
	prevVal := p.base
	prevAt := 0

	for _, e := range p.events {
		if at < e.at {
			if e.ramp {
				return lerpEvent(prevVal, prevAt, e.value, e.at, at)
			}

			return prevVal
		}

		prevVal = e.value
		prevAt = e.at
	}

	return prevVal
}

// Fill writes the scheduled values for samples [from, from+len(dst)) into dst.
func (p *Param) Fill(dst []float64, from int) {
	if p.Static() {
		for i := range dst {
			dst[i] = p.base
		}

		return
	}

	for i := range dst {
		dst[i] = p.ValueAt(from + i)
	}
}

func lerpEvent(v0 float64, t0 int, v1 float64, t1, at int) float64 {
	if t1 <= t0 {
		return v1
	}

	frac := float64(at-t0) / float64(t1-t0)

	return v0 + (v1-v0)*frac
}
