package writer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"reelpress/internal/asset"
	"reelpress/internal/audio"
	"reelpress/internal/composition"
	"reelpress/internal/dcptime"
	"reelpress/internal/film"
	"reelpress/internal/frameinfo"
	"reelpress/internal/logging"
	"reelpress/internal/reel"
	"reelpress/internal/signer"
)

// Writer assembles a package from concurrently-arriving streams. Video frames
// may arrive from any number of producers in any order; audio, text, and
// atmos must each arrive in time order from a single producer. A dedicated
// drain goroutine sequences queued frames onto the per-reel writers.
type Writer struct {
	film     *film.Film
	signer   *signer.Signer
	info     *frameinfo.Store
	buildDir string
	spillDir string
	logger   *slog.Logger

	reels      []*reel.Writer
	reelStarts []int64

	mu        sync.Mutex
	fullCond  *sync.Cond
	emptyCond *sync.Cond
	queue     []queueItem

	lastWritten        []lastWritten
	queuedFullInMemory int
	finishing          bool
	drainErr           error
	done               chan struct{}

	threads           int
	maxFramesInMemory int
	maxQueueSize      int
	queueSizeWarned   bool

	fullWritten   int64
	fakeWritten   int64
	repeatWritten int64
	pushedToDisk  int64

	// Cursors for the single time-ordered producers. Not guarded by mu.
	audioReel    int
	atmosReel    int
	subtitleReel int
	captionReels map[film.TextTrack]int
	hanging      []hangingText

	fonts              *fontTable
	referenced         map[int][]composition.Asset
	coverSheetTemplate string
}

type hangingText struct {
	text   string
	ttype  film.TextType
	track  *film.TextTrack
	period dcptime.Period
}

// New creates a writer for f, with working files under buildDir. It fails
// with ErrInvalidSigner when s cannot sign; the identity is checked again at
// finish in case the certificate expires during a long build.
func New(f *film.Film, s *signer.Signer, info *frameinfo.Store, buildDir string, logger *slog.Logger) (*Writer, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	if err := s.Valid(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSigner, err)
	}

	spillDir := filepath.Join(buildDir, "spill")
	if err := os.MkdirAll(spillDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure spill directory: %w", err)
	}

	w := &Writer{
		film:         f,
		signer:       s,
		info:         info,
		buildDir:     buildDir,
		spillDir:     spillDir,
		logger:       logging.NewComponentLogger(logger, "writer"),
		done:         make(chan struct{}),
		captionReels: make(map[film.TextTrack]int),
		fonts:        newFontTable(f.Standard),
		referenced:   make(map[int][]composition.Asset),
	}
	w.fullCond = sync.NewCond(&w.mu)
	w.emptyCond = sync.NewCond(&w.mu)
	w.SetEncoderThreads(1, 3)

	for i := range f.Reels {
		r, err := reel.New(f, i, buildDir, info, logger)
		if err != nil {
			return nil, err
		}
		w.reels = append(w.reels, r)
		w.reelStarts = append(w.reelStarts, r.Start())
		w.lastWritten = append(w.lastWritten, initialLastWritten())
	}

	go w.drain()
	return w, nil
}

// SetEncoderThreads sizes the memory ceiling and queue limit from the
// encoding parallelism. The ceiling is threads scaled by the multiplier; the
// queue warning threshold is sixteen times the thread count.
func (w *Writer) SetEncoderThreads(threads int, framesInMemoryMultiplier float64) {
	if threads < 1 {
		threads = 1
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.threads = threads
	w.maxFramesInMemory = int(float64(threads) * framesInMemoryMultiplier)
	if w.maxFramesInMemory < 1 {
		w.maxFramesInMemory = 1
	}
	w.maxQueueSize = 16 * threads
}

func (w *Writer) checkEyes(eyes film.Eyes) error {
	if w.film.ThreeD {
		if eyes != film.EyesLeft && eyes != film.EyesRight {
			return fmt.Errorf("%w: got %s for a stereoscopic package", ErrInconsistentChannel, eyes)
		}
		return nil
	}
	if eyes != film.EyesBoth {
		return fmt.Errorf("%w: got %s for a monoscopic package", ErrInconsistentChannel, eyes)
	}
	return nil
}

// frameToReel maps an absolute frame index to (reel, frame within reel).
func (w *Writer) frameToReel(frame int64) (int, int64, error) {
	if frame < 0 {
		return 0, 0, fmt.Errorf("%w: frame %d", ErrFrameBeforeStart, frame)
	}
	for i := len(w.reels) - 1; i >= 0; i-- {
		if frame >= w.reelStarts[i] {
			local := frame - w.reelStarts[i]
			if i == len(w.reels)-1 {
				end := w.film.Length().FramesRound(w.film.VideoFrameRate)
				if frame >= end {
					return 0, 0, fmt.Errorf("writer: frame %d is beyond the package end", frame)
				}
			}
			return i, local, nil
		}
	}
	return 0, 0, fmt.Errorf("%w: frame %d", ErrFrameBeforeStart, frame)
}

// enqueue appends items under the lock, waiting out the memory ceiling
// first. All ingestion paths funnel through here.
func (w *Writer) enqueue(items ...queueItem) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for w.queuedFullInMemory > w.maxFramesInMemory && !w.finishing && w.drainErr == nil {
		w.fullCond.Wait()
	}
	if w.drainErr != nil {
		return w.drainErr
	}
	if w.finishing {
		return errors.New("writer: write after finish")
	}

	for _, item := range items {
		w.queue = append(w.queue, item)
		if item.kind == itemFull {
			w.queuedFullInMemory++
		}
	}
	if len(w.queue) > w.maxQueueSize && !w.queueSizeWarned {
		w.queueSizeWarned = true
		w.logger.Warn("queue is large; a producer may be stalled",
			logging.Int(logging.FieldQueueSize, len(w.queue)),
		)
	}
	w.emptyCond.Broadcast()
	return nil
}

// Write enqueues one encoded frame. It blocks, rather than failing, while
// the number of in-memory frames exceeds the configured ceiling.
func (w *Writer) Write(data []byte, frame int64, eyes film.Eyes) error {
	if err := w.checkEyes(eyes); err != nil {
		return err
	}
	reelIdx, local, err := w.frameToReel(frame)
	if err != nil {
		return err
	}
	return w.enqueue(queueItem{
		kind:  itemFull,
		reel:  reelIdx,
		frame: local,
		eyes:  eyes,
		data:  data,
		size:  int64(len(data)),
	})
}

// CanRepeat reports whether frame can be written as a repeat of its
// predecessor, which requires a predecessor within the same reel.
func (w *Writer) CanRepeat(frame int64) bool {
	_, local, err := w.frameToReel(frame)
	return err == nil && local > 0
}

// Repeat enqueues a repeat of the previous physical frame. On a
// stereoscopic package a Both request expands into Left and Right items.
func (w *Writer) Repeat(frame int64, eyes film.Eyes) error {
	reelIdx, local, err := w.frameToReel(frame)
	if err != nil {
		return err
	}
	if local == 0 {
		return fmt.Errorf("writer: frame %d starts its reel and has nothing to repeat", frame)
	}

	item := queueItem{kind: itemRepeat, reel: reelIdx, frame: local}
	if w.film.ThreeD && eyes == film.EyesBoth {
		left, right := item, item
		left.eyes = film.EyesLeft
		right.eyes = film.EyesRight
		return w.enqueue(left, right)
	}
	if err := w.checkEyes(eyes); err != nil {
		return err
	}
	item.eyes = eyes
	return w.enqueue(item)
}

// CanFakeWrite reports whether frame can be replayed from a previous
// build's recorded data: never for an encrypted package, never for a reel's
// first frame, and only up to the first frame the previous build did not
// reach.
func (w *Writer) CanFakeWrite(frame int64) bool {
	if w.film.Encrypted {
		return false
	}
	reelIdx, local, err := w.frameToReel(frame)
	if err != nil {
		return false
	}
	return local != 0 && local < w.reels[reelIdx].FirstNonexistentFrame()
}

// FakeWrite enqueues a frame whose bytes a previous build already committed,
// replaying the recorded size instead of re-supplying pixel data.
func (w *Writer) FakeWrite(ctx context.Context, frame int64, eyes film.Eyes) error {
	if err := w.checkEyes(eyes); err != nil {
		return err
	}
	reelIdx, local, err := w.frameToReel(frame)
	if err != nil {
		return err
	}
	size, err := w.info.Size(ctx, reelIdx, local, eyes)
	if errors.Is(err, frameinfo.ErrMissing) {
		return fmt.Errorf("%w: reel %d frame %d eyes %s", ErrFrameInfoMissing, reelIdx, local, eyes)
	}
	if err != nil {
		return err
	}
	return w.enqueue(queueItem{
		kind:  itemFake,
		reel:  reelIdx,
		frame: local,
		eyes:  eyes,
		size:  size,
	})
}

// WriteAudio appends sample frames starting at time t. Audio must arrive in
// time order from a single producer; a buffer spanning a reel boundary is
// split so the parts sum exactly to the input and no sample is duplicated.
// Audio past the last reel's end is silently discarded.
func (w *Writer) WriteAudio(b *audio.Buffer, t dcptime.Time) error {
	afr := w.film.AudioFrameRate
	end := t + dcptime.FromFrames(int64(b.Frames()), afr)

	for t < end {
		if w.audioReel >= len(w.reels) {
			return nil
		}
		period := w.reels[w.audioReel].Period()
		switch {
		case end <= period.To:
			if err := w.reels[w.audioReel].WriteAudio(b); err != nil {
				return err
			}
			t = end
		case period.To <= t:
			w.audioReel++
		default:
			firstLength := period.To - t
			firstFrames := firstLength.FramesCeil(afr)
			restFrames := (end - period.To).FramesFloor(afr)
			if firstFrames > 0 {
				part := b.Slice(0, int(firstFrames))
				if err := w.reels[w.audioReel].WriteAudio(part); err != nil {
					return err
				}
			}
			w.audioReel++
			if restFrames == 0 {
				return nil
			}
			b = b.Slice(int(firstFrames), int(restFrames))
			t += firstLength
		}
	}
	return nil
}

// WriteAtmos appends one frame-tick of immersive audio at time t. Frames
// must arrive in time order from a single producer.
func (w *Writer) WriteAtmos(data []byte, t dcptime.Time, meta asset.AtmosMetadata) error {
	if w.atmosReel+1 < len(w.reels) && w.reels[w.atmosReel].Period().To == t {
		w.atmosReel++
	}
	return w.reels[w.atmosReel].WriteAtmos(data, meta)
}

// WriteText routes one cue to the reel containing its start. A cue that
// extends past the reel's end is truncated two frame-ticks before the
// boundary and the remainder held back per overlapped reel, to be flushed
// when that reel's own text begins (or at finish). Text must arrive in time
// order per type and track.
func (w *Writer) WriteText(text string, ttype film.TextType, track *film.TextTrack, period dcptime.Period) error {
	var cursor *int
	switch ttype {
	case film.TextOpenSubtitle:
		cursor = &w.subtitleReel
	case film.TextClosedCaption:
		if track == nil {
			return errors.New("writer: closed caption without a track")
		}
		idx := w.captionReels[*track]
		cursor = &idx
		defer func() { w.captionReels[*track] = idx }()
	default:
		return fmt.Errorf("writer: unknown text type %d", int(ttype))
	}

	if *cursor >= len(w.reels) {
		return nil
	}
	for w.reels[*cursor].Period().To <= period.From {
		*cursor++
		if *cursor >= len(w.reels) {
			return nil
		}
		if err := w.flushHanging(*cursor); err != nil {
			return err
		}
	}

	r := w.reels[*cursor]
	focus := period
	if period.To > r.Period().To {
		backOff := dcptime.FromFrames(2, w.film.VideoFrameRate)
		focus.To = r.Period().To - backOff
		if focus.To < focus.From {
			focus.To = focus.From
		}
		for t := r.Period().To; t < period.To; {
			idx, err := w.film.ReelAt(t)
			if err != nil {
				break
			}
			to := w.film.Reels[idx].To
			if period.To < to {
				to = period.To
			}
			// Remainders get the same two-frame back-off as the truncated
			// cue, keeping re-emitted text clear of whatever follows it.
			to -= backOff
			if to < t {
				to = t
			}
			w.hanging = append(w.hanging, hangingText{
				text:   text,
				ttype:  ttype,
				track:  track,
				period: dcptime.Period{From: t, To: to},
			})
			t = w.film.Reels[idx].To
		}
	}
	return r.WriteText(text, ttype, track, focus)
}

// flushHanging writes held-back text whose period starts within reel idx.
func (w *Writer) flushHanging(idx int) error {
	period := w.reels[idx].Period()
	kept := w.hanging[:0]
	for _, h := range w.hanging {
		if !period.Contains(h.period.From) {
			kept = append(kept, h)
			continue
		}
		if err := w.reels[idx].WriteText(h.text, h.ttype, h.track, h.period); err != nil {
			return err
		}
	}
	w.hanging = kept
	return nil
}

// WriteFonts registers fonts referenced by timed text. Identifier assignment
// follows the package standard; see the font table.
func (w *Writer) WriteFonts(fonts []*asset.Font) {
	w.fonts.add(fonts)
}

// Fonts returns the identifier assignments made so far.
func (w *Writer) Fonts() []asset.FontEntry {
	return w.fonts.entries
}

// WriteReferenced attributes an externally-produced asset to a reel. Assets
// without a hash are digested alongside the reels at finish.
func (w *Writer) WriteReferenced(reelIdx int, a composition.Asset) error {
	if reelIdx < 0 || reelIdx >= len(w.reels) {
		return fmt.Errorf("writer: no reel %d for referenced asset %s", reelIdx, a.Path)
	}
	w.referenced[reelIdx] = append(w.referenced[reelIdx], a)
	return nil
}

// SubtitleCues returns the open-subtitle cues routed to one reel. Test hook.
func (w *Writer) SubtitleCues(reelIdx int) []asset.TimedCue {
	return w.reels[reelIdx].SubtitleCues()
}

// CaptionCues returns one reel's cues for a closed-caption track. Test hook.
func (w *Writer) CaptionCues(reelIdx int, track film.TextTrack) []asset.TimedCue {
	return w.reels[reelIdx].CaptionCues(track)
}
