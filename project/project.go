// Package project decodes saved project documents into render requests.
// The format is lenient where authored data historically varies: note keys
// may be names ("C4") or MIDI numbers, durations may be note values ("16n")
// or step counts, and velocities may use either the 0-127 or 0-1 range.
package project

import (
	"encoding/json"
	"fmt"
	"io"
	"math"

	"github.com/alperkosan/dawg-render/fx"
	"github.com/alperkosan/dawg-render/instrument"
	"github.com/alperkosan/dawg-render/mixer"
	"github.com/alperkosan/dawg-render/music"
	"github.com/alperkosan/dawg-render/renderer"
)

// Project is a decoded document, resolved into the render data model.
type Project struct {
	Name        string
	TempoBPM    float64
	Patterns    map[string]*music.Pattern
	Arrangement *music.Arrangement
	Channels    []mixer.ChannelConfig
	Instruments map[string]instrument.Config
	Automation  []music.Lane

	// Samples serves sample data embedded in the document, nil when absent.
	Samples instrument.SampleResolver
}

// Decode reads one project document from r.
func Decode(r io.Reader) (*Project, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("project: decode: %w", err)
	}

	return doc.resolve()
}

// Request assembles the render request for one pattern, or for the whole
// arrangement when patternID is empty.
func (p *Project) Request(patternID string) (renderer.Request, error) {
	req := renderer.Request{
		Channels:    p.Channels,
		Instruments: p.Instruments,
		Automation:  p.Automation,
	}

	if p.Samples != nil {
		req.Samples = []instrument.SampleResolver{p.Samples}
	}

	if patternID == "" {
		if p.Arrangement == nil {
			return renderer.Request{}, fmt.Errorf("project: no arrangement in %q", p.Name)
		}

		req.Arrangement = p.Arrangement

		return req, nil
	}

	pat, ok := p.Patterns[patternID]
	if !ok {
		return renderer.Request{}, fmt.Errorf("project: unknown pattern %q", patternID)
	}

	req.Pattern = pat

	return req, nil
}

type document struct {
	Name        string                `json:"name"`
	Tempo       float64               `json:"tempo"`
	Patterns    []patternDoc          `json:"patterns"`
	Arrangement *arrangementDoc       `json:"arrangement"`
	Channels    []channelDoc          `json:"channels"`
	Instruments []instrumentDoc       `json:"instruments"`
	Automation  []laneDoc             `json:"automation"`
	Samples     map[string]sampleData `json:"samples"`
}

type patternDoc struct {
	ID    string               `json:"id"`
	Notes map[string][]noteDoc `json:"notes"`
}

type noteDoc struct {
	Key      keyValue      `json:"key"`
	Velocity float64       `json:"velocity"`
	Start    float64       `json:"start"`
	Duration durationValue `json:"duration"`
}

type arrangementDoc struct {
	ID    string    `json:"id"`
	Clips []clipDoc `json:"clips"`
}

type clipDoc struct {
	Pattern       string  `json:"pattern"`
	StartBeat     float64 `json:"startBeat"`
	DurationBeats float64 `json:"durationBeats"`
	Track         int     `json:"track"`
}

type channelDoc struct {
	ID      string          `json:"id"`
	Gain    *float64        `json:"gain"`
	Pan     float64         `json:"pan"`
	EQ      *eqDoc          `json:"eq"`
	Inserts []fx.Descriptor `json:"inserts"`
	Sends   []sendDoc       `json:"sends"`
	Mute    bool            `json:"mute"`
	Solo    bool            `json:"solo"`
}

type eqDoc struct {
	Low  float64 `json:"low"`
	Mid  float64 `json:"mid"`
	High float64 `json:"high"`
}

type sendDoc struct {
	To    string  `json:"to"`
	Level float64 `json:"level"`
}

type instrumentDoc struct {
	ID      string                 `json:"id"`
	Type    string                 `json:"type"`
	Channel string                 `json:"channel"`
	Synth   instrument.SynthParams `json:"synth"`
	Sample  *sampleRefDoc          `json:"sample"`
	Zones   []zoneDoc              `json:"zones"`
}

type sampleRefDoc struct {
	URI     string   `json:"uri"`
	RootKey keyValue `json:"rootKey"`
}

type zoneDoc struct {
	Low    keyValue     `json:"low"`
	High   keyValue     `json:"high"`
	Sample sampleRefDoc `json:"sample"`
}

type sampleData struct {
	Left       []float64 `json:"left"`
	Right      []float64 `json:"right"`
	SampleRate float64   `json:"sampleRate"`
}

type laneDoc struct {
	Target    string        `json:"target"`
	Keyframes []keyframeDoc `json:"keyframes"`
}

type keyframeDoc struct {
	Step  float64 `json:"step"`
	Value float64 `json:"value"`
}

func (d *document) resolve() (*Project, error) {
	p := &Project{
		Name:        d.Name,
		TempoBPM:    d.Tempo,
		Patterns:    make(map[string]*music.Pattern, len(d.Patterns)),
		Instruments: make(map[string]instrument.Config, len(d.Instruments)),
	}

	if p.TempoBPM <= 0 {
		p.TempoBPM = music.DefaultTempoBPM
	}

	for _, pd := range d.Patterns {
		pat, err := pd.resolve()
		if err != nil {
			return nil, err
		}

		p.Patterns[pat.ID] = pat
	}

	if d.Arrangement != nil {
		arr, err := d.Arrangement.resolve(p.Patterns)
		if err != nil {
			return nil, err
		}

		p.Arrangement = arr
	}

	for _, cd := range d.Channels {
		p.Channels = append(p.Channels, cd.resolve())
	}

	for _, id := range d.Instruments {
		cfg, err := id.resolve()
		if err != nil {
			return nil, err
		}

		p.Instruments[cfg.ID] = cfg
	}

	for _, ld := range d.Automation {
		p.Automation = append(p.Automation, ld.resolve())
	}

	p.Samples = d.sampleResolver()

	return p, nil
}

func (pd patternDoc) resolve() (*music.Pattern, error) {
	pat := &music.Pattern{ID: pd.ID, Notes: make(map[string][]music.Note, len(pd.Notes))}

	for instID, notes := range pd.Notes {
		for _, nd := range notes {
			n := music.Note{
				Key:      int(nd.Key),
				Velocity: nd.Velocity,
				Start:    nd.Start,
				Duration: float64(nd.Duration),
			}

			if err := n.Validate(); err != nil {
				return nil, fmt.Errorf("project: pattern %q instrument %q: %w", pd.ID, instID, err)
			}

			pat.Notes[instID] = append(pat.Notes[instID], n)
		}
	}

	return pat, nil
}

func (ad arrangementDoc) resolve(patterns map[string]*music.Pattern) (*music.Arrangement, error) {
	arr := &music.Arrangement{ID: ad.ID}

	for _, c := range ad.Clips {
		pat, ok := patterns[c.Pattern]
		if !ok {
			return nil, fmt.Errorf("project: arrangement %q references unknown pattern %q", ad.ID, c.Pattern)
		}

		if c.DurationBeats < 0 || math.IsNaN(c.DurationBeats) || math.IsInf(c.DurationBeats, 0) {
			return nil, fmt.Errorf("project: arrangement %q clip %q: duration must be >= 0 beats: %f",
				ad.ID, c.Pattern, c.DurationBeats)
		}

		arr.Occurrences = append(arr.Occurrences, music.Occurrence{
			Pattern:       pat,
			StartBeat:     c.StartBeat,
			DurationBeats: c.DurationBeats,
			Track:         c.Track,
		})
	}

	return arr, nil
}

func (cd channelDoc) resolve() mixer.ChannelConfig {
	cfg := mixer.NewChannel(cd.ID)
	cfg.Pan = cd.Pan
	cfg.Inserts = cd.Inserts
	cfg.Mute = cd.Mute
	cfg.Solo = cd.Solo

	if cd.Gain != nil {
		cfg.Gain = *cd.Gain
	}

	if cd.EQ != nil {
		cfg.EQ = mixer.EQSettings{LowGain: cd.EQ.Low, MidGain: cd.EQ.Mid, HighGain: cd.EQ.High}
	}

	for _, s := range cd.Sends {
		cfg.Sends = append(cfg.Sends, mixer.Send{Destination: s.To, Level: s.Level})
	}

	return cfg
}

func (id instrumentDoc) resolve() (instrument.Config, error) {
	kind, err := instrument.ParseKind(id.Type)
	if err != nil {
		return instrument.Config{}, fmt.Errorf("project: instrument %q: %w", id.ID, err)
	}

	cfg := instrument.Config{
		ID:      id.ID,
		Kind:    kind,
		Channel: id.Channel,
		Synth:   id.Synth,
	}

	if id.Sample != nil {
		cfg.Sample = instrument.SampleRef{URI: id.Sample.URI, RootKey: int(id.Sample.RootKey)}
	}

	for _, z := range id.Zones {
		cfg.Zones = append(cfg.Zones, instrument.Zone{
			LowKey:  int(z.Low),
			HighKey: int(z.High),
			Ref:     instrument.SampleRef{URI: z.Sample.URI, RootKey: int(z.Sample.RootKey)},
		})
	}

	return cfg, nil
}

func (ld laneDoc) resolve() music.Lane {
	lane := music.Lane{Target: ld.Target}

	for _, kf := range ld.Keyframes {
		lane.Keyframes = append(lane.Keyframes, music.Keyframe{Step: kf.Step, Value: kf.Value})
	}

	return lane
}

func (d *document) sampleResolver() instrument.SampleResolver {
	if len(d.Samples) == 0 {
		return nil
	}

	cache := instrument.NewSampleCache()

	for uri, s := range d.Samples {
		cache.Store(uri, &instrument.SampleData{Left: s.Left, Right: s.Right, SampleRate: s.SampleRate})
	}

	return cache
}
