package engine

// Buffer is the fixed-length stereo result of one non-real-time compute
// pass. It is created once by RenderNonRealtime and never resized; callers
// must treat the returned sample slices as read-only.
type Buffer struct {
	left       []float64
	right      []float64
	sampleRate float64
}

// NewBuffer wraps two channel slices in a Buffer, for callers that bring
// audio from outside a compute pass. Mismatched channel lengths are
// truncated to the shorter one.
func NewBuffer(left, right []float64, sampleRate float64) *Buffer {
	if len(right) < len(left) {
		left = left[:len(right)]
	} else {
		right = right[:len(left)]
	}

	return &Buffer{left: left, right: right, sampleRate: sampleRate}
}

// Frames returns the number of samples per channel.
func (b *Buffer) Frames() int {
	return len(b.left)
}

// Channels returns the channel count (always stereo).
func (b *Buffer) Channels() int {
	return 2
}

// SampleRate returns the buffer sample rate.
func (b *Buffer) SampleRate() float64 {
	return b.sampleRate
}

// Left returns the left channel samples.
func (b *Buffer) Left() []float64 {
	return b.left
}

// Right returns the right channel samples.
func (b *Buffer) Right() []float64 {
	return b.right
}

// Slice returns a view of the frame range [from, to), clamped to the buffer
// bounds. The view shares the underlying samples.
func (b *Buffer) Slice(from, to int) *Buffer {
	if from < 0 {
		from = 0
	}

	if to > len(b.left) {
		to = len(b.left)
	}

	if from >= to {
		return &Buffer{sampleRate: b.sampleRate}
	}

	return &Buffer{left: b.left[from:to], right: b.right[from:to], sampleRate: b.sampleRate}
}

// Duration returns the buffer length in seconds.
func (b *Buffer) Duration() float64 {
	if b.sampleRate <= 0 {
		return 0
	}

	return float64(len(b.left)) / b.sampleRate
}
