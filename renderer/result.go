package renderer

import (
	"github.com/google/uuid"

	"github.com/alperkosan/dawg-render/engine"
)

// Result is the immutable outcome of one render pass.
type Result struct {
	ID              uuid.UUID
	Buffer          *engine.Buffer
	Duration        float64
	SampleRate      float64
	BitDepth        int
	Channels        int
	SourcePatternID string
}
