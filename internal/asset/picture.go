package asset

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"reelpress/internal/film"
)

// FrameEntry locates one frame's bytes within a picture asset's data file.
type FrameEntry struct {
	Frame  int64 `json:"frame"`
	Eyes   int   `json:"eyes"`
	Offset int64 `json:"offset"`
	Size   int64 `json:"size"`
}

// PictureWriter appends encoded frames to a picture asset. The data file is
// opened without truncation so an incremental rebuild can skip over ranges
// written by a previous build via FakeWrite.
type PictureWriter struct {
	id       string
	path     string
	file     *os.File
	offset   int64
	entries  []FrameEntry
	finished bool
}

// NewPictureWriter opens (or creates) the picture asset data file at path.
func NewPictureWriter(path string) (*PictureWriter, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open picture asset: %w", err)
	}
	return &PictureWriter{id: NewID(), path: path, file: f}, nil
}

// ID returns the asset identifier.
func (w *PictureWriter) ID() string { return w.id }

// Path returns the data file path.
func (w *PictureWriter) Path() string { return w.path }

// Frames returns the number of frame entries written so far.
func (w *PictureWriter) Frames() int { return len(w.entries) }

// WriteFrame appends one encoded frame and returns its byte size.
func (w *PictureWriter) WriteFrame(data []byte, frame int64, eyes film.Eyes) (int64, error) {
	if w.finished {
		return 0, errors.New("picture asset: write after finish")
	}
	if _, err := w.file.WriteAt(data, w.offset); err != nil {
		return 0, fmt.Errorf("write frame %d: %w", frame, err)
	}
	size := int64(len(data))
	w.entries = append(w.entries, FrameEntry{Frame: frame, Eyes: int(eyes), Offset: w.offset, Size: size})
	w.offset += size
	return size, nil
}

// FakeWrite records a frame whose bytes are already present in the data file
// from a previous build, advancing past them without touching pixel data.
func (w *PictureWriter) FakeWrite(frame int64, eyes film.Eyes, size int64) error {
	if w.finished {
		return errors.New("picture asset: write after finish")
	}
	w.entries = append(w.entries, FrameEntry{Frame: frame, Eyes: int(eyes), Offset: w.offset, Size: size})
	w.offset += size
	return nil
}

// RepeatWrite records a new frame that shares the previous entry's bytes.
func (w *PictureWriter) RepeatWrite(frame int64, eyes film.Eyes) error {
	if w.finished {
		return errors.New("picture asset: write after finish")
	}
	if len(w.entries) == 0 {
		return errors.New("picture asset: repeat with no previous frame")
	}
	last := w.entries[len(w.entries)-1]
	w.entries = append(w.entries, FrameEntry{Frame: frame, Eyes: int(eyes), Offset: last.Offset, Size: last.Size})
	return nil
}

// LastEntry returns the most recently recorded frame entry.
func (w *PictureWriter) LastEntry() (FrameEntry, bool) {
	if len(w.entries) == 0 {
		return FrameEntry{}, false
	}
	return w.entries[len(w.entries)-1], true
}

// Finish truncates any stale tail left by a longer previous build, writes the
// sidecar frame index, and closes the data file.
func (w *PictureWriter) Finish() error {
	if w.finished {
		return nil
	}
	w.finished = true

	if err := w.file.Truncate(w.offset); err != nil {
		_ = w.file.Close()
		return fmt.Errorf("truncate picture asset: %w", err)
	}
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("close picture asset: %w", err)
	}

	index, err := json.MarshalIndent(w.entries, "", " ")
	if err != nil {
		return fmt.Errorf("marshal picture index: %w", err)
	}
	if err := os.WriteFile(w.indexPath(), index, 0o644); err != nil {
		return fmt.Errorf("write picture index: %w", err)
	}
	return nil
}

// IndexPath returns the sidecar index file path.
func (w *PictureWriter) IndexPath() string { return w.indexPath() }

func (w *PictureWriter) indexPath() string { return w.path + ".idx" }

// LoadPictureIndex reads a sidecar frame index written by Finish.
func LoadPictureIndex(dataPath string) ([]FrameEntry, error) {
	data, err := os.ReadFile(dataPath + ".idx")
	if err != nil {
		return nil, fmt.Errorf("read picture index: %w", err)
	}
	var entries []FrameEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse picture index: %w", err)
	}
	return entries, nil
}

// ReadFrame returns the bytes of one indexed frame.
func ReadFrame(dataPath string, entry FrameEntry) ([]byte, error) {
	f, err := os.Open(dataPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	buf := make([]byte, entry.Size)
	if _, err := f.ReadAt(buf, entry.Offset); err != nil {
		return nil, fmt.Errorf("read frame %d: %w", entry.Frame, err)
	}
	return buf, nil
}
