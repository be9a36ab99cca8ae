package engine

// Offline is the default backend: it hands out independent non-real-time
// rendering contexts. It is stateless, so one value can serve concurrent
// render passes.
type Offline struct{}

// NewContext creates a rendering context sized to the given window.
func (Offline) NewContext(sampleRate float64, frames int) (*Context, error) {
	return NewContext(sampleRate, frames)
}
