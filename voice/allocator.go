// Package voice manages a bounded pool of synthesis voices and decides which
// voice serves each incoming note. All times are absolute sample offsets in
// the rendering context's time base; nothing here runs on timers.
package voice

import (
	"fmt"
)

// Unit is one monophonic synthesis unit controlled by the allocator. A unit
// accumulates pre-computed scheduling; its end-of-life is always a scalar
// sample position, never a callback.
type Unit interface {
	// Start (re)triggers the unit's envelope at the given sample. A non-zero
	// glide slides the pitch from the previously sounding key.
	Start(key int, velocity float64, at, glide int)
	// Slide repitches the sounding note without restarting the envelope.
	Slide(key int, velocity float64, at, glide int)
	// Release begins the envelope release at the given sample.
	Release(at int)
	// Cancel truncates the unit at the given sample with a short declick
	// fade. Used when a voice is stolen.
	Cancel(at int)
	// Stop discards all scheduled state immediately.
	Stop()
}

// Mode selects the allocation strategy.
type Mode int

// Allocation modes.
const (
	Poly Mode = iota
	Mono
)

const defaultPolyVoices = 16

// Config tunes one allocator.
type Config struct {
	Mode Mode
	// Voices is the poly pool size; ignored in mono mode.
	Voices int
	// Portamento is the mono pitch-glide length in samples.
	Portamento int
	// Legato keeps the envelope running across overlapping mono notes.
	Legato bool
}

type slotState int

const (
	slotIdle slotState = iota
	slotHeld
	slotReleased
)

type slot struct {
	unit   Unit
	key    int
	state  slotState
	serial uint64
}

// Allocator assigns notes to a bounded voice pool.
type Allocator struct {
	cfg    Config
	slots  []*slot
	serial uint64
	steals int

	// mono state
	held    []heldNote
	lastKey int
}

type heldNote struct {
	key      int
	velocity float64
}

// New creates an allocator whose units come from the given factory.
func New(cfg Config, factory func() Unit) (*Allocator, error) {
	if factory == nil {
		return nil, fmt.Errorf("voice: nil unit factory")
	}

	count := 1

	if cfg.Mode == Poly {
		count = cfg.Voices
		if count <= 0 {
			count = defaultPolyVoices
		}

		cfg.Voices = count
	}

	a := &Allocator{cfg: cfg, lastKey: -1}

	for i := 0; i < count; i++ {
		a.slots = append(a.slots, &slot{unit: factory()})
	}

	return a, nil
}

// NoteOn schedules a note start at the given absolute sample.
func (a *Allocator) NoteOn(key int, velocity float64, at int) {
	if a.cfg.Mode == Mono {
		a.monoNoteOn(key, velocity, at)
		return
	}

	a.polyNoteOn(key, velocity, at)
}

// NoteOff schedules the release of the given key at the given sample.
func (a *Allocator) NoteOff(key, at int) {
	if a.cfg.Mode == Mono {
		a.monoNoteOff(key, at)
		return
	}

	if s := a.newestHeld(key); s != nil {
		s.unit.Release(at)
		s.state = slotReleased
	}
}

// ReleaseAll releases every held voice at the given sample.
func (a *Allocator) ReleaseAll(at int) {
	for _, s := range a.slots {
		if s.state == slotHeld {
			s.unit.Release(at)
			s.state = slotReleased
		}
	}

	a.held = a.held[:0]
}

// StopAll discards all voices and their scheduled state.
func (a *Allocator) StopAll() {
	for _, s := range a.slots {
		s.unit.Stop()
		s.state = slotIdle
	}

	a.held = a.held[:0]
	a.lastKey = -1
}

// HeldVoices returns the number of currently held voices.
func (a *Allocator) HeldVoices() int {
	n := 0

	for _, s := range a.slots {
		if s.state == slotHeld {
			n++
		}
	}

	return n
}

// Steals returns how many voices were stolen so far.
func (a *Allocator) Steals() int {
	return a.steals
}

func (a *Allocator) polyNoteOn(key int, velocity float64, at int) {
	// A retriggered pitch releases its old voice first, parking it for its
	// own release tail, so voice growth stays bounded per pitch.
	for _, s := range a.slots {
		if s.state == slotHeld && s.key == key {
			s.unit.Release(at)
			s.state = slotReleased
		}
	}

	s := a.acquire(at)
	a.serial++
	s.key = key
	s.state = slotHeld
	s.serial = a.serial
	s.unit.Start(key, velocity, at, 0)
}

// acquire picks a free voice, preferring idle slots, then the
// longest-released tail. With none free it steals the oldest-activated held
// voice. Oldest-activated is the single stealing rule for every instrument
// kind.
func (a *Allocator) acquire(at int) *slot {
	var (
		candidate *slot
		best      slotState = slotHeld
	)

	for _, s := range a.slots {
		switch s.state {
		case slotIdle:
			if best != slotIdle || s.serial < candidate.serial {
				candidate = s
				best = slotIdle
			}
		case slotReleased:
			if best == slotHeld || (best == slotReleased && s.serial < candidate.serial) {
				candidate = s
				best = slotReleased
			}
		case slotHeld:
			if best == slotHeld && (candidate == nil || s.serial < candidate.serial) {
				candidate = s
			}
		}
	}

	if best == slotHeld {
		candidate.unit.Cancel(at)
		a.steals++
	}

	return candidate
}

func (a *Allocator) newestHeld(key int) *slot {
	var found *slot

	for _, s := range a.slots {
		if s.state == slotHeld && s.key == key {
			if found == nil || s.serial > found.serial {
				found = s
			}
		}
	}

	return found
}

func (a *Allocator) monoNoteOn(key int, velocity float64, at int) {
	a.held = append(a.held, heldNote{key: key, velocity: velocity})
	s := a.slots[0]

	switch {
	case s.state == slotHeld && a.cfg.Legato:
		s.unit.Slide(key, velocity, at, a.cfg.Portamento)
	case s.state == slotHeld:
		s.unit.Start(key, velocity, at, a.cfg.Portamento)
	default:
		glide := 0
		if a.lastKey >= 0 {
			glide = a.cfg.Portamento
		}

		s.unit.Start(key, velocity, at, glide)
	}

	s.key = key
	s.state = slotHeld
	a.lastKey = key
}

func (a *Allocator) monoNoteOff(key, at int) {
	for i := len(a.held) - 1; i >= 0; i-- {
		if a.held[i].key == key {
			a.held = append(a.held[:i], a.held[i+1:]...)
			break
		}
	}

	s := a.slots[0]
	if s.state != slotHeld || s.key != key {
		return
	}

	// Fall back to the most recent still-held note, as the live mono path
	// does, instead of going silent.
	if len(a.held) > 0 {
		prev := a.held[len(a.held)-1]

		if a.cfg.Legato {
			s.unit.Slide(prev.key, prev.velocity, at, a.cfg.Portamento)
		} else {
			s.unit.Start(prev.key, prev.velocity, at, a.cfg.Portamento)
		}

		s.key = prev.key
		a.lastKey = prev.key

		return
	}

	s.unit.Release(at)
	s.state = slotReleased
}
