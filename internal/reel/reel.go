package reel

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"reelpress/internal/asset"
	"reelpress/internal/audio"
	"reelpress/internal/composition"
	"reelpress/internal/dcptime"
	"reelpress/internal/film"
	"reelpress/internal/frameinfo"
	"reelpress/internal/logging"
)

// Writer owns the asset files for one reel and appends to them in strictly
// increasing order. Only the coordinator's drain goroutine touches the
// picture path; audio, text, and atmos arrive from their single time-ordered
// producer.
type Writer struct {
	film   *film.Film
	index  int
	period dcptime.Period
	dir    string
	info   *frameinfo.Store
	logger *slog.Logger

	picture  *asset.PictureWriter
	sound    *asset.SoundWriter
	subtitle *asset.SubtitleAsset
	captions map[film.TextTrack]*asset.SubtitleAsset
	atmos    *asset.AtmosWriter

	firstNonexistent int64
	records          []record
	finished         bool
}

type record struct {
	comp composition.Asset
	path string
}

// New creates the writer for reel index of f, with asset files under dir.
func New(f *film.Film, index int, dir string, info *frameinfo.Store, logger *slog.Logger) (*Writer, error) {
	reelDir := filepath.Join(dir, fmt.Sprintf("reel_%d", index))
	if err := os.MkdirAll(reelDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure reel directory: %w", err)
	}

	picture, err := asset.NewPictureWriter(filepath.Join(reelDir, "picture.bin"))
	if err != nil {
		return nil, err
	}

	w := &Writer{
		film:     f,
		index:    index,
		period:   f.Reels[index],
		dir:      reelDir,
		info:     info,
		logger:   logging.NewComponentLogger(logger, fmt.Sprintf("reel-%d", index)),
		picture:  picture,
		captions: make(map[film.TextTrack]*asset.SubtitleAsset),
	}

	if err := w.loadFirstNonexistent(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *Writer) loadFirstNonexistent() error {
	ctx := context.Background()
	if w.film.ThreeD {
		left, err := w.info.FirstMissingFrame(ctx, w.index, film.EyesLeft)
		if err != nil {
			return err
		}
		right, err := w.info.FirstMissingFrame(ctx, w.index, film.EyesRight)
		if err != nil {
			return err
		}
		w.firstNonexistent = min(left, right)
		return nil
	}
	first, err := w.info.FirstMissingFrame(ctx, w.index, film.EyesBoth)
	if err != nil {
		return err
	}
	w.firstNonexistent = first
	return nil
}

// Index returns the reel's ordinal position in the package.
func (w *Writer) Index() int { return w.index }

// Period returns the time range the reel covers.
func (w *Writer) Period() dcptime.Period { return w.period }

// Start returns the reel's first frame index within the whole package.
func (w *Writer) Start() int64 {
	return w.period.From.FramesRound(w.film.VideoFrameRate)
}

// FirstNonexistentFrame returns the first frame within this reel that a
// previous build did not record, bounding how far a rebuild may fake-write.
func (w *Writer) FirstNonexistentFrame() int64 { return w.firstNonexistent }

// FramesWritten returns the number of frame entries written so far.
func (w *Writer) FramesWritten() int { return w.picture.Frames() }

// Write appends one encoded frame and records its size for later builds.
func (w *Writer) Write(ctx context.Context, data []byte, frame int64, eyes film.Eyes) error {
	size, err := w.picture.WriteFrame(data, frame, eyes)
	if err != nil {
		return err
	}
	return w.info.Record(ctx, w.index, frame, eyes, size)
}

// FakeWrite advances past a frame whose bytes a previous build already wrote.
func (w *Writer) FakeWrite(frame int64, eyes film.Eyes, size int64) error {
	return w.picture.FakeWrite(frame, eyes, size)
}

// RepeatWrite re-emits the previous frame's image at a new position.
func (w *Writer) RepeatWrite(ctx context.Context, frame int64, eyes film.Eyes) error {
	if err := w.picture.RepeatWrite(frame, eyes); err != nil {
		return err
	}
	last, ok := w.picture.LastEntry()
	if !ok {
		return nil
	}
	return w.info.Record(ctx, w.index, frame, eyes, last.Size)
}

// WriteAudio appends sample frames to the reel's sound asset.
func (w *Writer) WriteAudio(b *audio.Buffer) error {
	if w.sound == nil {
		sound, err := asset.NewSoundWriter(filepath.Join(w.dir, "sound.pcm"), w.film.AudioChannels)
		if err != nil {
			return err
		}
		w.sound = sound
	}
	return w.sound.Write(b)
}

// WriteAtmos appends one immersive-audio frame.
func (w *Writer) WriteAtmos(data []byte, meta asset.AtmosMetadata) error {
	if w.atmos == nil {
		atmos, err := asset.NewAtmosWriter(filepath.Join(w.dir, "atmos.bin"))
		if err != nil {
			return err
		}
		w.atmos = atmos
	}
	return w.atmos.Write(data, meta)
}

// WriteText appends a cue to the reel's subtitle or closed-caption asset.
func (w *Writer) WriteText(text string, ttype film.TextType, track *film.TextTrack, period dcptime.Period) error {
	switch ttype {
	case film.TextOpenSubtitle:
		if w.subtitle == nil {
			w.subtitle = asset.NewSubtitleAsset(filepath.Join(w.dir, "subtitle.xml"), w.film.SubtitleLanguage)
		}
		w.subtitle.WriteCue(text, period)
		return nil
	case film.TextClosedCaption:
		if track == nil {
			return fmt.Errorf("reel %d: closed caption without a track", w.index)
		}
		a, ok := w.captions[*track]
		if !ok {
			name := fmt.Sprintf("caption_%s.xml", track.Name)
			a = asset.NewSubtitleAsset(filepath.Join(w.dir, name), track.Language)
			w.captions[*track] = a
		}
		a.WriteCue(text, period)
		return nil
	}
	return fmt.Errorf("reel %d: unknown text type %d", w.index, int(ttype))
}

// SubtitleCues returns the open-subtitle cues written so far. Test hook.
func (w *Writer) SubtitleCues() []asset.TimedCue {
	if w.subtitle == nil {
		return nil
	}
	return w.subtitle.Cues()
}

// CaptionCues returns the cues for one closed-caption track. Test hook.
func (w *Writer) CaptionCues(track film.TextTrack) []asset.TimedCue {
	a, ok := w.captions[track]
	if !ok {
		return nil
	}
	return a.Cues()
}
