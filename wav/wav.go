// Package wav serializes rendered buffers as RIFF/WAVE files.
package wav

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/alperkosan/dawg-render/engine"
	"github.com/alperkosan/dawg-render/internal/audiomath"
)

const (
	headerSize = 44

	formatPCM   = 1
	formatFloat = 3
)

// Encode returns a complete WAV file for the buffer. Bit depths 16 and 24
// produce integer PCM, 32 produces IEEE float samples.
func Encode(buf *engine.Buffer, bitDepth int) ([]byte, error) {
	switch bitDepth {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("wav: bit depth must be 16, 24 or 32: %d", bitDepth)
	}

	channels := buf.Channels()
	bytesPerSample := bitDepth / 8
	dataSize := buf.Frames() * channels * bytesPerSample

	out := make([]byte, headerSize+dataSize)
	writeHeader(out, buf, bitDepth, dataSize)

	left := buf.Left()
	right := buf.Right()
	pos := headerSize

	for i := 0; i < buf.Frames(); i++ {
		pos = putSample(out, pos, left[i], bitDepth)
		pos = putSample(out, pos, right[i], bitDepth)
	}

	return out, nil
}

// Write encodes the buffer to w.
func Write(w io.Writer, buf *engine.Buffer, bitDepth int) error {
	data, err := Encode(buf, bitDepth)
	if err != nil {
		return err
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("wav: %w", err)
	}

	return nil
}

func writeHeader(out []byte, buf *engine.Buffer, bitDepth, dataSize int) {
	channels := buf.Channels()
	sampleRate := int(math.Round(buf.SampleRate()))
	bytesPerSample := bitDepth / 8
	blockAlign := channels * bytesPerSample

	format := formatPCM
	if bitDepth == 32 {
		format = formatFloat
	}

	copy(out[0:], "RIFF")
	binary.LittleEndian.PutUint32(out[4:], uint32(36+dataSize))
	copy(out[8:], "WAVE")
	copy(out[12:], "fmt ")
	binary.LittleEndian.PutUint32(out[16:], 16)
	binary.LittleEndian.PutUint16(out[20:], uint16(format))
	binary.LittleEndian.PutUint16(out[22:], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:], uint32(sampleRate*blockAlign))
	binary.LittleEndian.PutUint16(out[32:], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:], uint16(bitDepth))
	copy(out[36:], "data")
	binary.LittleEndian.PutUint32(out[40:], uint32(dataSize))
}

func putSample(out []byte, pos int, v float64, bitDepth int) int {
	switch bitDepth {
	case 16:
		s := int16(math.Round(audiomath.Clamp(v, -1, 1) * math.MaxInt16))
		binary.LittleEndian.PutUint16(out[pos:], uint16(s))

		return pos + 2
	case 24:
		s := int32(math.Round(audiomath.Clamp(v, -1, 1) * (1<<23 - 1)))
		out[pos] = byte(s)
		out[pos+1] = byte(s >> 8)
		out[pos+2] = byte(s >> 16)

		return pos + 3
	default:
		binary.LittleEndian.PutUint32(out[pos:], math.Float32bits(float32(v)))

		return pos + 4
	}
}
