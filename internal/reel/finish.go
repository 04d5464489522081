package reel

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"reelpress/internal/asset"
	"reelpress/internal/composition"
	"reelpress/internal/fileutil"
	"reelpress/internal/logging"
)

// Finish finalizes the reel's assets, copies them into outputDir, and records
// the composition entries. fonts is the package-wide font assignment from
// the font table; it is applied to every text asset before serialization.
func (w *Writer) Finish(outputDir string, fonts []asset.FontEntry) error {
	if w.finished {
		return nil
	}
	w.finished = true

	if err := w.picture.Finish(); err != nil {
		return err
	}
	if err := w.publish(w.picture.ID(), "picture", w.picture.Path(),
		fmt.Sprintf("picture_%d.bin", w.index), int64(w.picture.Frames()), "", "", outputDir); err != nil {
		return err
	}
	// The frame index travels with the picture data.
	indexName := fmt.Sprintf("picture_%d.bin.idx", w.index)
	if err := fileutil.CopyFile(w.picture.IndexPath(), filepath.Join(outputDir, indexName)); err != nil {
		return fmt.Errorf("copy picture index: %w", err)
	}

	if w.sound != nil {
		if err := w.sound.Finish(); err != nil {
			return err
		}
		if err := w.publish(w.sound.ID(), "sound", w.sound.Path(),
			fmt.Sprintf("sound_%d.pcm", w.index), w.sound.Frames(), w.film.AudioLanguage, "", outputDir); err != nil {
			return err
		}
	}

	if w.subtitle != nil {
		w.subtitle.SetFonts(fonts)
		if err := w.subtitle.Finish(); err != nil {
			return err
		}
		if err := w.publish(w.subtitle.ID(), "subtitle", w.subtitle.Path(),
			fmt.Sprintf("subtitle_%d.xml", w.index), int64(len(w.subtitle.Cues())), w.film.SubtitleLanguage, "", outputDir); err != nil {
			return err
		}
	}

	for track, a := range w.captions {
		a.SetFonts(fonts)
		if err := a.Finish(); err != nil {
			return err
		}
		name := fmt.Sprintf("caption_%d_%s.xml", w.index, track.Name)
		if err := w.publish(a.ID(), "closed-caption", a.Path(), name, int64(len(a.Cues())), track.Language, track.Name, outputDir); err != nil {
			return err
		}
	}

	if w.atmos != nil {
		if err := w.atmos.Finish(); err != nil {
			return err
		}
		if err := w.publish(w.atmos.ID(), "atmos", w.atmos.Path(),
			fmt.Sprintf("atmos_%d.bin", w.index), w.atmos.Frames(), "", "", outputDir); err != nil {
			return err
		}
	}

	w.logger.Info("reel finished",
		logging.Int(logging.FieldReel, w.index),
		logging.Int("assets", len(w.records)),
	)
	return nil
}

func (w *Writer) publish(id, kind, src, name string, entries int64, lang, track, outputDir string) error {
	dst := filepath.Join(outputDir, name)
	if err := fileutil.CopyFile(src, dst); err != nil {
		return fmt.Errorf("copy %s asset: %w", kind, err)
	}
	info, err := os.Stat(dst)
	if err != nil {
		return fmt.Errorf("stat %s asset: %w", kind, err)
	}
	w.records = append(w.records, record{
		comp: composition.Asset{
			ID:       id,
			Kind:     kind,
			Path:     name,
			Size:     info.Size(),
			Entries:  entries,
			Language: lang,
			Track:    track,
		},
		path: dst,
	})
	return nil
}

// Digests hashes every published asset, reporting fractional progress.
// Cancelling ctx abandons the remaining work.
func (w *Writer) Digests(ctx context.Context, progress func(float64)) error {
	total := len(w.records)
	for i := range w.records {
		base := float64(i) / float64(total)
		span := 1 / float64(total)
		hash, err := asset.HashFile(ctx, w.records[i].path, func(p float64) {
			if progress != nil {
				progress(base + span*p)
			}
		})
		if err != nil {
			return err
		}
		w.records[i].comp.Hash = hash
	}
	if progress != nil {
		progress(1)
	}
	return nil
}

// Reel returns the reel's composition entry, including any referenced assets
// attributed to it, for the final document.
func (w *Writer) Reel(referenced []composition.Asset) composition.Reel {
	assets := make([]composition.Asset, 0, len(w.records)+len(referenced))
	for _, r := range w.records {
		assets = append(assets, r.comp)
	}
	assets = append(assets, referenced...)
	return composition.Reel{
		ID:     asset.NewID(),
		Assets: assets,
	}
}
