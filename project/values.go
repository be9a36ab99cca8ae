package project

import (
	"encoding/json"
	"fmt"

	"github.com/alperkosan/dawg-render/music"
)

// keyValue decodes a MIDI key that may be authored as a number or a note
// name such as "C4".
type keyValue int

func (k *keyValue) UnmarshalJSON(data []byte) error {
	var num int
	if err := json.Unmarshal(data, &num); err == nil {
		*k = keyValue(num)
		return nil
	}

	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return fmt.Errorf("project: key must be a number or note name: %s", data)
	}

	key, err := music.ParseKey(name)
	if err != nil {
		return fmt.Errorf("project: %w", err)
	}

	*k = keyValue(key)

	return nil
}

// durationValue decodes a note duration in steps, authored either as a
// number or a note value string such as "16n" or "2*4n".
type durationValue float64

func (d *durationValue) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*d = durationValue(num)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("project: duration must be a number or note value: %s", data)
	}

	steps, err := music.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("project: %w", err)
	}

	*d = durationValue(steps)

	return nil
}
