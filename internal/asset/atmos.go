package asset

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
)

// AtmosMetadata describes an immersive-audio stream. It is captured from the
// first written frame.
type AtmosMetadata struct {
	FrameRate int
}

// AtmosWriter appends immersive-audio frames, one per video frame tick, as
// length-prefixed records.
type AtmosWriter struct {
	id       string
	path     string
	file     *os.File
	buf      *bufio.Writer
	meta     *AtmosMetadata
	frames   int64
	finished bool
}

// NewAtmosWriter creates the immersive-audio asset data file at path.
func NewAtmosWriter(path string) (*AtmosWriter, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open atmos asset: %w", err)
	}
	return &AtmosWriter{id: NewID(), path: path, file: f, buf: bufio.NewWriter(f)}, nil
}

// ID returns the asset identifier.
func (w *AtmosWriter) ID() string { return w.id }

// Path returns the data file path.
func (w *AtmosWriter) Path() string { return w.path }

// Frames returns the number of frames written.
func (w *AtmosWriter) Frames() int64 { return w.frames }

// Metadata returns the stream metadata, nil before the first write.
func (w *AtmosWriter) Metadata() *AtmosMetadata { return w.meta }

// Write appends one frame.
func (w *AtmosWriter) Write(data []byte, meta AtmosMetadata) error {
	if w.finished {
		return errors.New("atmos asset: write after finish")
	}
	if w.meta == nil {
		copied := meta
		w.meta = &copied
	}
	var length [4]byte
	binary.BigEndian.PutUint32(length[:], uint32(len(data)))
	if _, err := w.buf.Write(length[:]); err != nil {
		return fmt.Errorf("write atmos frame: %w", err)
	}
	if _, err := w.buf.Write(data); err != nil {
		return fmt.Errorf("write atmos frame: %w", err)
	}
	w.frames++
	return nil
}

// Finish flushes and closes the data file.
func (w *AtmosWriter) Finish() error {
	if w.finished {
		return nil
	}
	w.finished = true
	if err := w.buf.Flush(); err != nil {
		_ = w.file.Close()
		return fmt.Errorf("flush atmos asset: %w", err)
	}
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("close atmos asset: %w", err)
	}
	return nil
}
