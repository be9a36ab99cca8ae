package music

import "sort"

// Pattern is a named collection of per-instrument note lists.
type Pattern struct {
	ID    string
	Notes map[string][]Note
}

// InstrumentIDs returns the IDs of all instruments with at least one note,
// in stable sorted order.
func (p *Pattern) InstrumentIDs() []string {
	if p == nil {
		return nil
	}

	ids := make([]string, 0, len(p.Notes))

	for id, notes := range p.Notes {
		if len(notes) > 0 {
			ids = append(ids, id)
		}
	}

	sort.Strings(ids)

	return ids
}

// LastNoteEnd returns the latest note end across all instruments, in steps.
func (p *Pattern) LastNoteEnd() float64 {
	if p == nil {
		return 0
	}

	last := 0.0

	for _, notes := range p.Notes {
		for _, n := range notes {
			if end := n.End(); end > last {
				last = end
			}
		}
	}

	return last
}

// Occurrence places one pattern on the arrangement timeline. A positive
// DurationBeats truncates the clip at StartBeat+DurationBeats; zero means
// the clip runs the pattern's full length.
type Occurrence struct {
	Pattern       *Pattern
	StartBeat     float64
	DurationBeats float64
	Track         int
}

// ContentBeats returns the clip's effective note content length in beats:
// the pattern's last note end, truncated to the clip duration when one is
// set.
func (o Occurrence) ContentBeats() float64 {
	beats := o.Pattern.LastNoteEnd() / StepsPerBeat
	if o.DurationBeats > 0 && o.DurationBeats < beats {
		return o.DurationBeats
	}

	return beats
}

// Arrangement is an ordered set of pattern occurrences, possibly overlapping.
type Arrangement struct {
	ID          string
	Occurrences []Occurrence
}

// InstrumentIDs returns the distinct instrument IDs referenced by any
// occurrence, in stable sorted order.
func (a *Arrangement) InstrumentIDs() []string {
	if a == nil {
		return nil
	}

	seen := map[string]struct{}{}

	for _, occ := range a.Occurrences {
		for _, id := range occ.Pattern.InstrumentIDs() {
			seen[id] = struct{}{}
		}
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	return ids
}

// LastNoteEnd returns the latest absolute note end across all occurrences,
// in beats. Clips with an explicit duration only contribute up to their end.
func (a *Arrangement) LastNoteEnd() float64 {
	if a == nil {
		return 0
	}

	last := 0.0

	for _, occ := range a.Occurrences {
		end := occ.StartBeat + occ.ContentBeats()
		if end > last {
			last = end
		}
	}

	return last
}

// Keyframe is one automation breakpoint: a value at a step position.
type Keyframe struct {
	Step  float64
	Value float64
}

// Lane is a sparse automation curve for one target parameter. Keyframe
// values are in lane-specific units (typically 0-127).
type Lane struct {
	Target    string
	Keyframes []Keyframe
}
