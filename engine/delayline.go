package engine

// delayLine is a circular buffer implementing a fixed integer delay.
type delayLine struct {
	buffer   []float64
	writePos int
}

func newDelayLine(size int) *delayLine {
	return &delayLine{buffer: make([]float64, size)}
}

// Len returns the delay length in samples.
func (d *delayLine) Len() int {
	return len(d.buffer)
}

// ProcessBlock delays the block in place by the line length.
func (d *delayLine) ProcessBlock(block []float64) {
	for i, x := range block {
		block[i] = d.buffer[d.writePos]
		d.buffer[d.writePos] = x

		d.writePos++
		if d.writePos >= len(d.buffer) {
			d.writePos = 0
		}
	}
}
