package writer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"reelpress/internal/composition"
	"reelpress/internal/config"
	"reelpress/internal/fileutil"
	"reelpress/internal/logging"
	"reelpress/internal/version"
)

// Finish drains the queue, finalizes every reel into outputDir, digests the
// assets, and writes the signed composition and cover sheet. progress
// receives fractional completion of the digest phase; cancelling ctx
// abandons it. Partial output is left in place on failure for diagnosis.
func (w *Writer) Finish(ctx context.Context, outputDir string, progress func(float64)) error {
	w.mu.Lock()
	w.finishing = true
	w.emptyCond.Broadcast()
	w.fullCond.Broadcast()
	w.mu.Unlock()
	<-w.done

	w.mu.Lock()
	drainErr := w.drainErr
	w.mu.Unlock()
	if drainErr != nil {
		return drainErr
	}

	w.logger.Info("drain complete",
		logging.Int64("full_written", w.fullWritten),
		logging.Int64("fake_written", w.fakeWritten),
		logging.Int64("repeat_written", w.repeatWritten),
		logging.Int64("pushed_to_disk", w.pushedToDisk),
	)

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("ensure output directory: %w", err)
	}

	// Text held back at reel boundaries that no later write flushed.
	for _, h := range w.hanging {
		idx, err := w.film.ReelAt(h.period.From)
		if err != nil {
			continue
		}
		if err := w.reels[idx].WriteText(h.text, h.ttype, h.track, h.period); err != nil {
			return err
		}
	}
	w.hanging = nil

	fonts := w.fonts.entries
	for _, r := range w.reels {
		if err := r.Finish(outputDir, fonts); err != nil {
			return err
		}
	}

	if err := w.calculateDigests(ctx, progress); err != nil {
		return err
	}

	reelEntries := make([]composition.Reel, 0, len(w.reels))
	for i, r := range w.reels {
		reelEntries = append(reelEntries, r.Reel(w.referenced[i]))
	}

	doc := composition.Build(w.film, reelEntries)
	if doc.Issuer == "" {
		doc.Issuer = version.String()
	}
	if doc.Creator == "" {
		doc.Creator = version.String()
	}

	if err := w.signer.Valid(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSigner, err)
	}
	if err := doc.Sign(w.signer); err != nil {
		return err
	}

	cplName := "cpl_" + strings.TrimPrefix(doc.ID, "urn:uuid:") + ".xml"
	if err := doc.Write(filepath.Join(outputDir, cplName)); err != nil {
		return err
	}

	size, err := fileutil.TreeSize(outputDir)
	if err != nil {
		return fmt.Errorf("measure output size: %w", err)
	}
	sheet := renderCoverSheet(w.coverSheet(), w.film, cplName, size)
	if err := os.WriteFile(filepath.Join(outputDir, "COVER_SHEET.txt"), []byte(sheet), 0o644); err != nil {
		return fmt.Errorf("write cover sheet: %w", err)
	}

	w.logger.Info("package finished",
		logging.String("cpl", cplName),
		logging.Int("reels", len(w.reels)),
		logging.Int64("bytes", size),
	)
	return nil
}

// SetCoverSheet overrides the summary template. An empty template falls back
// to the built-in one.
func (w *Writer) SetCoverSheet(template string) {
	w.coverSheetTemplate = template
}

func (w *Writer) coverSheet() string {
	if w.coverSheetTemplate != "" {
		return w.coverSheetTemplate
	}
	return config.DefaultCoverSheet
}
