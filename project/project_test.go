package project

import (
	"strings"
	"testing"

	"github.com/alperkosan/dawg-render/instrument"
)

const testDoc = `{
	"name": "demo",
	"tempo": 140,
	"patterns": [
		{
			"id": "pat-1",
			"notes": {
				"lead": [
					{"key": "C4", "velocity": 100, "start": 0, "duration": "16n"},
					{"key": 64, "velocity": 0.5, "start": 4, "duration": 2}
				]
			}
		},
		{
			"id": "pat-2",
			"notes": {
				"kick": [
					{"key": 36, "velocity": 1, "start": 0, "duration": "4n"}
				]
			}
		}
	],
	"arrangement": {
		"id": "song",
		"clips": [
			{"pattern": "pat-1", "startBeat": 0},
			{"pattern": "pat-2", "startBeat": 4, "track": 1, "durationBeats": 1}
		]
	},
	"channels": [
		{"id": "master"},
		{
			"id": "ch-lead",
			"gain": 0.5,
			"pan": -0.25,
			"eq": {"low": 3, "mid": 0, "high": -2},
			"inserts": [{"type": "delay", "params": {"time": 0.2}}],
			"sends": [{"to": "master", "level": 0.3}]
		}
	],
	"instruments": [
		{"id": "lead", "type": "vaSynth", "channel": "ch-lead", "synth": {"waveform": "saw"}},
		{"id": "kick", "type": "sample", "sample": {"uri": "kick.wav", "rootKey": "C3"}}
	],
	"automation": [
		{"target": "ch-lead.gain", "keyframes": [{"step": 0, "value": 127}, {"step": 8, "value": 0}]}
	],
	"samples": {
		"kick.wav": {"left": [0.5, 0.5], "right": [0.5, 0.5], "sampleRate": 44100}
	}
}`

func decodeTestDoc(t *testing.T) *Project {
	t.Helper()

	p, err := Decode(strings.NewReader(testDoc))
	if err != nil {
		t.Fatal(err)
	}

	return p
}

func TestDecodeBasics(t *testing.T) {
	p := decodeTestDoc(t)

	if p.Name != "demo" || p.TempoBPM != 140 {
		t.Fatalf("header: %q %v", p.Name, p.TempoBPM)
	}

	if len(p.Patterns) != 2 || len(p.Channels) != 2 || len(p.Instruments) != 2 {
		t.Fatalf("counts: %d patterns %d channels %d instruments",
			len(p.Patterns), len(p.Channels), len(p.Instruments))
	}
}

func TestDecodeNoteValues(t *testing.T) {
	p := decodeTestDoc(t)

	notes := p.Patterns["pat-1"].Notes["lead"]
	if len(notes) != 2 {
		t.Fatalf("got %d notes want 2", len(notes))
	}

	// "C4" resolves to MIDI 60, "16n" to one step.
	if notes[0].Key != 60 || notes[0].Duration != 1 {
		t.Fatalf("note 0: %+v", notes[0])
	}

	// Numeric key and step count pass through.
	if notes[1].Key != 64 || notes[1].Duration != 2 {
		t.Fatalf("note 1: %+v", notes[1])
	}

	kick := p.Patterns["pat-2"].Notes["kick"]
	if kick[0].Duration != 4 {
		t.Fatalf("quarter note: got %v steps want 4", kick[0].Duration)
	}
}

func TestDecodeTempoDefault(t *testing.T) {
	p, err := Decode(strings.NewReader(`{"name": "empty"}`))
	if err != nil {
		t.Fatal(err)
	}

	if p.TempoBPM != 120 {
		t.Fatalf("tempo: got %v want 120", p.TempoBPM)
	}
}

func TestDecodeChannels(t *testing.T) {
	p := decodeTestDoc(t)

	// Omitted gain falls back to the mixer default.
	master := p.Channels[0]
	if master.ID != "master" || master.Gain != 0.8 {
		t.Fatalf("master: %+v", master)
	}

	lead := p.Channels[1]
	if lead.Gain != 0.5 || lead.Pan != -0.25 {
		t.Fatalf("lead gain/pan: %+v", lead)
	}

	if lead.EQ.LowGain != 3 || lead.EQ.HighGain != -2 {
		t.Fatalf("lead EQ: %+v", lead.EQ)
	}

	if len(lead.Inserts) != 1 || lead.Inserts[0].Type != "delay" {
		t.Fatalf("lead inserts: %+v", lead.Inserts)
	}

	if len(lead.Sends) != 1 || lead.Sends[0].Destination != "master" || lead.Sends[0].Level != 0.3 {
		t.Fatalf("lead sends: %+v", lead.Sends)
	}
}

func TestDecodeInstruments(t *testing.T) {
	p := decodeTestDoc(t)

	lead := p.Instruments["lead"]
	if lead.Kind != instrument.KindVASynth || lead.Channel != "ch-lead" {
		t.Fatalf("lead: %+v", lead)
	}

	if lead.Synth.Waveform != "saw" {
		t.Fatalf("lead synth: %+v", lead.Synth)
	}

	kick := p.Instruments["kick"]
	if kick.Kind != instrument.KindSample {
		t.Fatalf("kick kind: %v", kick.Kind)
	}

	// Root key authored as a note name.
	if kick.Sample.URI != "kick.wav" || kick.Sample.RootKey != 48 {
		t.Fatalf("kick sample: %+v", kick.Sample)
	}
}

func TestDecodeArrangement(t *testing.T) {
	p := decodeTestDoc(t)

	if p.Arrangement == nil || p.Arrangement.ID != "song" {
		t.Fatal("arrangement missing")
	}

	occ := p.Arrangement.Occurrences
	if len(occ) != 2 {
		t.Fatalf("got %d occurrences want 2", len(occ))
	}

	if occ[0].Pattern.ID != "pat-1" || occ[1].StartBeat != 4 || occ[1].Track != 1 {
		t.Fatalf("occurrences: %+v", occ)
	}

	// Omitted duration means the clip runs the pattern's full length.
	if occ[0].DurationBeats != 0 || occ[1].DurationBeats != 1 {
		t.Fatalf("clip durations: %v %v", occ[0].DurationBeats, occ[1].DurationBeats)
	}
}

func TestDecodeEmbeddedSamples(t *testing.T) {
	p := decodeTestDoc(t)

	if p.Samples == nil {
		t.Fatal("no sample resolver")
	}

	data, ok := p.Samples.Resolve(instrument.SampleRef{URI: "kick.wav"})
	if !ok || len(data.Left) != 2 || data.SampleRate != 44100 {
		t.Fatalf("resolve: ok=%v data=%+v", ok, data)
	}

	if _, ok := p.Samples.Resolve(instrument.SampleRef{URI: "other.wav"}); ok {
		t.Fatal("resolved unknown URI")
	}
}

func TestDecodeAutomation(t *testing.T) {
	p := decodeTestDoc(t)

	if len(p.Automation) != 1 {
		t.Fatalf("got %d lanes want 1", len(p.Automation))
	}

	lane := p.Automation[0]
	if lane.Target != "ch-lead.gain" || len(lane.Keyframes) != 2 {
		t.Fatalf("lane: %+v", lane)
	}

	if lane.Keyframes[1].Step != 8 || lane.Keyframes[1].Value != 0 {
		t.Fatalf("keyframe: %+v", lane.Keyframes[1])
	}
}

// --- errors ---

func TestDecodeRejectsInvalidNote(t *testing.T) {
	doc := `{"patterns": [{"id": "p", "notes": {"x": [{"key": 200, "velocity": 1, "start": 0, "duration": 1}]}}]}`

	if _, err := Decode(strings.NewReader(doc)); err == nil {
		t.Fatal("expected error for out-of-range key")
	}
}

func TestDecodeRejectsUnknownInstrumentType(t *testing.T) {
	doc := `{"instruments": [{"id": "x", "type": "theremin"}]}`

	if _, err := Decode(strings.NewReader(doc)); err == nil {
		t.Fatal("expected error for unknown type")
	}
}

func TestDecodeRejectsUnknownClipPattern(t *testing.T) {
	doc := `{"arrangement": {"id": "a", "clips": [{"pattern": "nope"}]}}`

	if _, err := Decode(strings.NewReader(doc)); err == nil {
		t.Fatal("expected error for unknown clip pattern")
	}
}

func TestDecodeRejectsNegativeClipDuration(t *testing.T) {
	doc := `{
		"patterns": [{"id": "p", "notes": {}}],
		"arrangement": {"id": "a", "clips": [{"pattern": "p", "durationBeats": -1}]}
	}`

	if _, err := Decode(strings.NewReader(doc)); err == nil {
		t.Fatal("expected error for negative clip duration")
	}
}

func TestDecodeRejectsBadJSON(t *testing.T) {
	if _, err := Decode(strings.NewReader("{")); err == nil {
		t.Fatal("expected decode error")
	}
}

// --- request assembly ---

func TestRequestForPattern(t *testing.T) {
	p := decodeTestDoc(t)

	req, err := p.Request("pat-1")
	if err != nil {
		t.Fatal(err)
	}

	if req.Pattern == nil || req.Pattern.ID != "pat-1" || req.Arrangement != nil {
		t.Fatalf("request: %+v", req)
	}

	if len(req.Samples) != 1 || len(req.Channels) != 2 {
		t.Fatalf("request wiring: %d resolvers %d channels", len(req.Samples), len(req.Channels))
	}
}

func TestRequestForArrangement(t *testing.T) {
	p := decodeTestDoc(t)

	req, err := p.Request("")
	if err != nil {
		t.Fatal(err)
	}

	if req.Arrangement == nil || req.Arrangement.ID != "song" || req.Pattern != nil {
		t.Fatalf("request: %+v", req)
	}
}

func TestRequestErrors(t *testing.T) {
	p := decodeTestDoc(t)

	if _, err := p.Request("missing"); err == nil {
		t.Fatal("expected error for unknown pattern")
	}

	p.Arrangement = nil

	if _, err := p.Request(""); err == nil {
		t.Fatal("expected error without arrangement")
	}
}
