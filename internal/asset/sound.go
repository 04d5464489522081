package asset

import (
	"bufio"
	"errors"
	"fmt"
	"os"

	"reelpress/internal/audio"
)

// SoundWriter appends PCM audio to a sound asset as interleaved 24-bit
// little-endian samples.
type SoundWriter struct {
	id       string
	path     string
	file     *os.File
	buf      *bufio.Writer
	channels int
	frames   int64
	finished bool
}

// NewSoundWriter creates the sound asset data file at path.
func NewSoundWriter(path string, channels int) (*SoundWriter, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open sound asset: %w", err)
	}
	return &SoundWriter{id: NewID(), path: path, file: f, buf: bufio.NewWriter(f), channels: channels}, nil
}

// ID returns the asset identifier.
func (w *SoundWriter) ID() string { return w.id }

// Path returns the data file path.
func (w *SoundWriter) Path() string { return w.path }

// Frames returns the number of sample frames written so far.
func (w *SoundWriter) Frames() int64 { return w.frames }

// Write appends the buffer's samples. The buffer must carry exactly the
// asset's channel count.
func (w *SoundWriter) Write(b *audio.Buffer) error {
	if w.finished {
		return errors.New("sound asset: write after finish")
	}
	if b.Channels() != w.channels {
		return fmt.Errorf("sound asset: buffer has %d channels, asset has %d", b.Channels(), w.channels)
	}

	frames := b.Frames()
	out := make([]byte, 0, frames*w.channels*3)
	for f := 0; f < frames; f++ {
		for c := 0; c < w.channels; c++ {
			v := encodeSample(b.Sample(c, f))
			out = append(out, byte(v), byte(v>>8), byte(v>>16))
		}
	}
	if _, err := w.buf.Write(out); err != nil {
		return fmt.Errorf("write sound frames: %w", err)
	}
	w.frames += int64(frames)
	return nil
}

// Finish flushes and closes the data file.
func (w *SoundWriter) Finish() error {
	if w.finished {
		return nil
	}
	w.finished = true
	if err := w.buf.Flush(); err != nil {
		_ = w.file.Close()
		return fmt.Errorf("flush sound asset: %w", err)
	}
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("close sound asset: %w", err)
	}
	return nil
}

const sampleScale = 1 << 23

func encodeSample(s float32) int32 {
	v := int32(float64(s) * (sampleScale - 1))
	if v > sampleScale-1 {
		v = sampleScale - 1
	}
	if v < -sampleScale {
		v = -sampleScale
	}
	return v
}

func decodeSample(b0, b1, b2 byte) float32 {
	v := int32(b0) | int32(b1)<<8 | int32(b2)<<16
	// Sign-extend from 24 bits.
	v = v << 8 >> 8
	return float32(float64(v) / (sampleScale - 1))
}

// ReadSound decodes a sound asset data file back into a buffer.
func ReadSound(path string, channels int) (*audio.Buffer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	bytesPerFrame := channels * 3
	if len(data)%bytesPerFrame != 0 {
		return nil, fmt.Errorf("sound asset: %d bytes is not a whole number of %d-channel frames", len(data), channels)
	}
	frames := len(data) / bytesPerFrame
	b := audio.NewBuffer(channels, frames)
	for f := 0; f < frames; f++ {
		base := f * bytesPerFrame
		for c := 0; c < channels; c++ {
			off := base + c*3
			b.Set(c, f, decodeSample(data[off], data[off+1], data[off+2]))
		}
	}
	return b, nil
}
