package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"reelpress/internal/asset"
	"reelpress/internal/dcptime"
	"reelpress/internal/film"
	"reelpress/internal/writer"
)

// FeedVideo reads the input frames in order and writes them through seq,
// which fills any gaps in the numbering.
func FeedVideo(seq *writer.Sequencer, files []FrameFile) error {
	for _, f := range files {
		data, err := os.ReadFile(f.Path)
		if err != nil {
			return fmt.Errorf("read frame %d: %w", f.Frame, err)
		}
		if err := seq.Write(data, f.Frame, f.Eyes); err != nil {
			return fmt.Errorf("write frame %d: %w", f.Frame, err)
		}
	}
	return nil
}

// FeedAudio streams the PCM input into w one second at a time, starting at
// the package start.
func FeedAudio(w *writer.Writer, f *film.Film, path string) error {
	b, err := asset.ReadSound(path, f.AudioChannels)
	if err != nil {
		return err
	}
	rate := f.AudioFrameRate
	for offset := 0; offset < b.Frames(); offset += rate {
		n := rate
		if offset+n > b.Frames() {
			n = b.Frames() - offset
		}
		t := dcptime.FromFrames(int64(offset), rate)
		if err := w.WriteAudio(b.Slice(offset, n), t); err != nil {
			return fmt.Errorf("write audio at %s: %w", t, err)
		}
	}
	return nil
}

// FeedCues writes timed text in start order, routing named tracks to closed
// captions.
func FeedCues(w *writer.Writer, f *film.Film, cues []Cue) error {
	for _, c := range cues {
		period := dcptime.Period{
			From: dcptime.FromFrames(c.FromFrame, f.VideoFrameRate),
			To:   dcptime.FromFrames(c.ToFrame, f.VideoFrameRate),
		}
		ttype := film.TextOpenSubtitle
		var track *film.TextTrack
		if strings.TrimSpace(c.Track) != "" {
			ttype = film.TextClosedCaption
			track = &film.TextTrack{Name: c.Track, Language: c.Language}
		}
		if err := w.WriteText(c.Text, ttype, track, period); err != nil {
			return fmt.Errorf("write cue %q: %w", c.Text, err)
		}
	}
	return nil
}

var atmosName = regexp.MustCompile(`^atmos_(\d+)\.bin$`)

// FeedAtmos writes one immersive-audio frame per tick. The input must cover
// frames contiguously from zero.
func FeedAtmos(w *writer.Writer, f *film.Film, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read atmos directory: %w", err)
	}

	type atmosFile struct {
		frame int64
		path  string
	}
	var files []atmosFile
	for _, e := range entries {
		m := atmosName.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		frame, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return fmt.Errorf("atmos file %s: %w", e.Name(), err)
		}
		files = append(files, atmosFile{frame: frame, path: filepath.Join(dir, e.Name())})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].frame < files[j].frame })

	meta := asset.AtmosMetadata{FrameRate: f.VideoFrameRate}
	for i, af := range files {
		if af.frame != int64(i) {
			return fmt.Errorf("atmos input skips frame %d", i)
		}
		data, err := os.ReadFile(af.path)
		if err != nil {
			return fmt.Errorf("read atmos frame %d: %w", af.frame, err)
		}
		t := dcptime.FromFrames(af.frame, f.VideoFrameRate)
		if err := w.WriteAtmos(data, t, meta); err != nil {
			return fmt.Errorf("write atmos frame %d: %w", af.frame, err)
		}
	}
	return nil
}

// FeedFonts registers every font file in dir, identified by its base name.
func FeedFonts(w *writer.Writer, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read fonts directory: %w", err)
	}
	var fonts []*asset.Font
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return fmt.Errorf("read font %s: %w", e.Name(), err)
		}
		id := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		fonts = append(fonts, &asset.Font{ID: id, Data: data})
	}
	if len(fonts) > 0 {
		w.WriteFonts(fonts)
	}
	return nil
}
