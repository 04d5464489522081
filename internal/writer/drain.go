package writer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"reelpress/internal/fileutil"
	"reelpress/internal/logging"
)

// drain is the single consumer. It sequences ready items onto the reel
// writers, spills in-memory frames when the ceiling is exceeded, and exits on
// the finish signal once nothing at the queue head is writable.
func (w *Writer) drain() {
	defer close(w.done)

	w.mu.Lock()
	defer w.mu.Unlock()

	for {
		for !w.finishing && w.queuedFullInMemory <= w.maxFramesInMemory && !w.headReady() {
			w.emptyCond.Wait()
		}

		if w.finishing && !w.headReady() {
			w.logLeftover()
			return
		}

		for w.headReady() {
			item := w.queue[0]
			w.queue = w.queue[1:]
			w.lastWritten[item.reel] = w.lastWritten[item.reel].update(item)
			if item.kind == itemFull && item.spillPath == "" {
				w.queuedFullInMemory--
			}

			// Physical I/O happens outside the lock; this goroutine is
			// the only writer of the reels.
			w.mu.Unlock()
			err := w.writeItem(item)
			w.mu.Lock()
			if err != nil {
				w.failDrain(err)
				return
			}
			w.fullCond.Broadcast()
		}

		for w.queuedFullInMemory > w.maxFramesInMemory {
			sortQueue(w.queue)
			spillIdx := -1
			for i := len(w.queue) - 1; i >= 0; i-- {
				if w.queue[i].kind == itemFull && w.queue[i].data != nil {
					spillIdx = i
					break
				}
			}
			if spillIdx < 0 {
				break
			}

			// The index stays valid across the unlock: producers only
			// append, and only this goroutine sorts or removes.
			item := w.queue[spillIdx]
			path := w.spillPath(item)
			w.mu.Unlock()
			err := fileutil.WriteViaTemp(item.data, path+".tmp", path)
			w.mu.Lock()
			if err != nil {
				w.failDrain(fmt.Errorf("spill frame to disk: %w", err))
				return
			}
			w.queue[spillIdx].data = nil
			w.queue[spillIdx].spillPath = path
			w.queuedFullInMemory--
			w.pushedToDisk++
			w.fullCond.Broadcast()
		}
	}
}

func (w *Writer) spillPath(item queueItem) string {
	name := fmt.Sprintf("frame_%d_%d_%d.bin", item.reel, item.frame, int(item.eyes))
	return filepath.Join(w.spillDir, name)
}

// headReady sorts the queue and reports whether its head continues the
// written sequence of its reel. Callers hold mu.
func (w *Writer) headReady() bool {
	if len(w.queue) == 0 {
		return false
	}
	sortQueue(w.queue)
	head := w.queue[0]
	return w.lastWritten[head.reel].continues(head, w.film.ThreeD)
}

// writeItem commits one popped item to its reel writer. Called unlocked.
func (w *Writer) writeItem(item queueItem) error {
	ctx := context.Background()
	r := w.reels[item.reel]

	switch item.kind {
	case itemFull:
		data := item.data
		if item.spillPath != "" {
			var err error
			data, err = os.ReadFile(item.spillPath)
			if err != nil {
				return fmt.Errorf("read spilled frame: %w", err)
			}
			_ = os.Remove(item.spillPath)
		}
		if err := r.Write(ctx, data, item.frame, item.eyes); err != nil {
			return err
		}
		w.mu.Lock()
		w.fullWritten++
		w.mu.Unlock()
		return nil
	case itemFake:
		if err := r.FakeWrite(item.frame, item.eyes, item.size); err != nil {
			return err
		}
		w.mu.Lock()
		w.fakeWritten++
		w.mu.Unlock()
		return nil
	case itemRepeat:
		if err := r.RepeatWrite(ctx, item.frame, item.eyes); err != nil {
			return err
		}
		w.mu.Lock()
		w.repeatWritten++
		w.mu.Unlock()
		return nil
	}
	return fmt.Errorf("writer: unknown queue item kind %d", int(item.kind))
}

// failDrain records the fatal error and wakes every blocked producer so the
// failure propagates instead of hanging the build. Callers hold mu.
func (w *Writer) failDrain(err error) {
	w.drainErr = err
	w.logger.Error("drain failed", logging.Error(err))
	w.fullCond.Broadcast()
	w.emptyCond.Broadcast()
}

// logLeftover reports items that never became contiguous before shutdown.
// This indicates a producer stopped supplying frames, not an engine fault,
// so it is diagnosed rather than raised. Callers hold mu.
func (w *Writer) logLeftover() {
	if len(w.queue) == 0 {
		return
	}
	w.logger.Warn("finishing with unsequenced items left in the queue",
		logging.Int(logging.FieldQueueSize, len(w.queue)),
	)
	for _, item := range w.queue {
		w.logger.Warn("leftover queue item",
			logging.String(logging.FieldEventType, item.kind.String()),
			logging.Int(logging.FieldReel, item.reel),
			logging.Int64(logging.FieldFrame, item.frame),
			logging.String(logging.FieldEyes, item.eyes.String()),
		)
	}
	for i, lw := range w.lastWritten {
		w.logger.Warn("last written position",
			logging.Int(logging.FieldReel, i),
			logging.Int64(logging.FieldFrame, lw.frame),
			logging.String(logging.FieldEyes, lw.eyes.String()),
		)
	}
}
