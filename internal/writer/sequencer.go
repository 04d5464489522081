package writer

import (
	"log/slog"

	"reelpress/internal/film"
	"reelpress/internal/logging"
)

// Sequencer feeds video from a producer that emits frames in time order but
// may leave gaps, for example after a seek. Gaps are filled before they are
// surpassed: each missing position gets the most recently seen image for its
// channel, or a black frame when none exists yet. A frame arriving behind
// the frontier has already been superseded by a fill and is dropped.
//
// A Sequencer is for a single producer; use the Writer directly when frames
// arrive out of order from parallel encoders.
type Sequencer struct {
	w      *Writer
	logger *slog.Logger

	nextFrame int64
	nextEyes  film.Eyes
	lastData  map[film.Eyes][]byte
}

// NewSequencer wraps w for in-order ingestion starting at frame 0.
func NewSequencer(w *Writer, logger *slog.Logger) *Sequencer {
	s := &Sequencer{
		w:        w,
		logger:   logging.NewComponentLogger(logger, "sequencer"),
		lastData: make(map[film.Eyes][]byte),
	}
	if w.film.ThreeD {
		s.nextEyes = film.EyesLeft
	} else {
		s.nextEyes = film.EyesBoth
	}
	return s
}

// Write ingests one frame, synthesizing fills for any skipped positions
// first. Frames behind the frontier are silently dropped.
func (s *Sequencer) Write(data []byte, frame int64, eyes film.Eyes) error {
	if err := s.w.checkEyes(eyes); err != nil {
		return err
	}

	if s.before(frame, eyes) {
		s.logger.Debug("dropping superseded frame",
			logging.Int64(logging.FieldFrame, frame),
			logging.String(logging.FieldEyes, eyes.String()),
		)
		return nil
	}

	for s.nextFrame != frame || s.nextEyes != eyes {
		fill := s.lastData[s.nextEyes]
		if fill == nil {
			fill = s.w.film.BlackFrame()
		}
		if err := s.w.Write(fill, s.nextFrame, s.nextEyes); err != nil {
			return err
		}
		s.advance()
	}

	if err := s.w.Write(data, frame, eyes); err != nil {
		return err
	}
	s.lastData[eyes] = data
	s.advance()
	return nil
}

// before reports whether (frame, eyes) sorts ahead of the frontier.
func (s *Sequencer) before(frame int64, eyes film.Eyes) bool {
	if frame != s.nextFrame {
		return frame < s.nextFrame
	}
	return eyes.Rank() < s.nextEyes.Rank()
}

func (s *Sequencer) advance() {
	if !s.w.film.ThreeD {
		s.nextFrame++
		return
	}
	if s.nextEyes == film.EyesLeft {
		s.nextEyes = film.EyesRight
		return
	}
	s.nextEyes = film.EyesLeft
	s.nextFrame++
}
