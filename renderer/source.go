package renderer

import (
	"log/slog"
	"math"

	"github.com/alperkosan/dawg-render/instrument"
	"github.com/alperkosan/dawg-render/music"
)

// source abstracts over rendering a single pattern and a whole arrangement.
type source interface {
	id() string
	contentBeats() float64
	instrumentIDs() []string
	scheduleNotes(mgr *instrument.Manager, tb music.Timebase, log *slog.Logger)
}

func newSource(req Request) (source, error) {
	switch {
	case req.Arrangement != nil:
		return arrangementSource{req.Arrangement}, nil
	case req.Pattern != nil:
		return patternSource{req.Pattern}, nil
	default:
		return nil, ErrNothingToRender
	}
}

type patternSource struct {
	p *music.Pattern
}

func (s patternSource) id() string              { return s.p.ID }
func (s patternSource) contentBeats() float64   { return s.p.LastNoteEnd() / music.StepsPerBeat }
func (s patternSource) instrumentIDs() []string { return s.p.InstrumentIDs() }

func (s patternSource) scheduleNotes(mgr *instrument.Manager, tb music.Timebase, log *slog.Logger) {
	schedulePattern(mgr, s.p, 0, math.Inf(1), tb, log)
}

type arrangementSource struct {
	a *music.Arrangement
}

func (s arrangementSource) id() string              { return s.a.ID }
func (s arrangementSource) contentBeats() float64   { return s.a.LastNoteEnd() }
func (s arrangementSource) instrumentIDs() []string { return s.a.InstrumentIDs() }

func (s arrangementSource) scheduleNotes(mgr *instrument.Manager, tb music.Timebase, log *slog.Logger) {
	for _, occ := range s.a.Occurrences {
		limit := math.Inf(1)
		if occ.DurationBeats > 0 {
			limit = occ.DurationBeats * music.StepsPerBeat
		}

		schedulePattern(mgr, occ.Pattern, occ.StartBeat*music.StepsPerBeat, limit, tb, log)
	}
}

// schedulePattern queues one pattern's notes, shifted by offsetSteps, on the
// already created instrument instances. Notes starting at or past limitSteps
// are dropped and notes crossing it are cut short, so a clip never sounds
// beyond its own extent. Invalid notes are skipped with a warning so one bad
// note never silences the rest of the mix.
func schedulePattern(mgr *instrument.Manager, p *music.Pattern, offsetSteps, limitSteps float64, tb music.Timebase, log *slog.Logger) {
	for _, id := range p.InstrumentIDs() {
		in, ok := mgr.Live(id)
		if !ok {
			continue
		}

		for _, n := range p.Notes[id] {
			if err := n.Validate(); err != nil {
				log.Warn("invalid note skipped", "instrument", id, "err", err)
				continue
			}

			if n.Start >= limitSteps {
				continue
			}

			end := n.End()
			if end > limitSteps {
				end = limitSteps
			}

			on := tb.StepsToSamples(offsetSteps + n.Start)
			off := tb.StepsToSamples(offsetSteps + end)

			in.ScheduleNote(n.Key, music.NormalizeVelocity(n.Velocity), on, off)
		}
	}
}
