package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"reelpress/internal/film"
)

// Source is the on-disk input layout a build consumes. Everything except the
// frames directory is optional.
type Source struct {
	Dir string
}

// FramesDir holds pre-encoded frames named frame_<n>.bin, or
// frame_<n>_left.bin and frame_<n>_right.bin for a stereoscopic package.
func (s Source) FramesDir() string { return filepath.Join(s.Dir, "frames") }

// AudioPath is interleaved 24-bit little-endian PCM at the configured
// channel count and sample rate.
func (s Source) AudioPath() string { return filepath.Join(s.Dir, "audio.pcm") }

// AtmosDir holds one immersive-audio file per frame, named atmos_<n>.bin.
func (s Source) AtmosDir() string { return filepath.Join(s.Dir, "atmos") }

// CuesPath is the timed-text cue sheet.
func (s Source) CuesPath() string { return filepath.Join(s.Dir, "subtitles.toml") }

// FontsDir holds font files referenced by timed text.
func (s Source) FontsDir() string { return filepath.Join(s.Dir, "fonts") }

// FrameFile locates one pre-encoded frame.
type FrameFile struct {
	Frame int64
	Eyes  film.Eyes
	Path  string
}

var frameName = regexp.MustCompile(`^frame_(\d+)(?:_(left|right))?\.bin$`)

// ScanFrames lists the input frames in (frame, eyes) order.
func ScanFrames(dir string) ([]FrameFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read frames directory: %w", err)
	}

	var files []FrameFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := frameName.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		frame, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("frame file %s: %w", e.Name(), err)
		}
		eyes := film.EyesBoth
		switch m[2] {
		case "left":
			eyes = film.EyesLeft
		case "right":
			eyes = film.EyesRight
		}
		files = append(files, FrameFile{Frame: frame, Eyes: eyes, Path: filepath.Join(dir, e.Name())})
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].Frame != files[j].Frame {
			return files[i].Frame < files[j].Frame
		}
		return files[i].Eyes.Rank() < files[j].Eyes.Rank()
	})
	return files, nil
}

// FrameCount returns the number of frame positions the input covers.
func FrameCount(files []FrameFile) int64 {
	if len(files) == 0 {
		return 0
	}
	return files[len(files)-1].Frame + 1
}

// Cue is one timed-text entry in the cue sheet. An empty track means an open
// subtitle; a named track is a closed caption.
type Cue struct {
	Text      string `toml:"text"`
	FromFrame int64  `toml:"from_frame"`
	ToFrame   int64  `toml:"to_frame"`
	Track     string `toml:"track"`
	Language  string `toml:"language"`
}

type cueSheet struct {
	Cues []Cue `toml:"cue"`
}

// LoadCues parses a cue sheet and returns its cues in start order.
func LoadCues(path string) ([]Cue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cue sheet: %w", err)
	}
	var sheet cueSheet
	if err := toml.Unmarshal(data, &sheet); err != nil {
		return nil, fmt.Errorf("parse cue sheet: %w", err)
	}
	for i, c := range sheet.Cues {
		if c.FromFrame >= c.ToFrame {
			return nil, fmt.Errorf("cue %d (%q) has a non-positive duration", i, c.Text)
		}
	}
	sort.SliceStable(sheet.Cues, func(i, j int) bool {
		return sheet.Cues[i].FromFrame < sheet.Cues[j].FromFrame
	})
	return sheet.Cues, nil
}

// CaptionTracks returns the distinct closed-caption tracks the cues name, in
// first-appearance order.
func CaptionTracks(cues []Cue) []film.TextTrack {
	var tracks []film.TextTrack
	seen := make(map[film.TextTrack]bool)
	for _, c := range cues {
		if strings.TrimSpace(c.Track) == "" {
			continue
		}
		track := film.TextTrack{Name: c.Track, Language: c.Language}
		if seen[track] {
			continue
		}
		seen[track] = true
		tracks = append(tracks, track)
	}
	return tracks
}
