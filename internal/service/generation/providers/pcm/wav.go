// Package pcm wraps raw PCM samples in a WAV container.
package pcm

import (
	"bytes"
	"encoding/binary"
)

// Format describes linear PCM audio.
type Format struct {
	SampleRate    int
	Channels      int
	BitsPerSample int
}

// Gemini text-to-speech returns 24kHz 16-bit mono PCM.
var Gemini = Format{SampleRate: 24000, Channels: 1, BitsPerSample: 16}

// WAV returns samples prefixed with a canonical 44 byte RIFF header.
func WAV(samples []byte, f Format) []byte {
	blockAlign := f.Channels * f.BitsPerSample / 8
	byteRate := f.SampleRate * blockAlign

	var buf bytes.Buffer
	buf.Grow(44 + len(samples))

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+len(samples)))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // linear PCM
	binary.Write(&buf, binary.LittleEndian, uint16(f.Channels))
	binary.Write(&buf, binary.LittleEndian, uint32(f.SampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(byteRate))
	binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	binary.Write(&buf, binary.LittleEndian, uint16(f.BitsPerSample))

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(len(samples)))
	buf.Write(samples)

	return buf.Bytes()
}
