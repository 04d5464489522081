package film

import (
	"errors"
	"fmt"

	"reelpress/internal/dcptime"
)

// Eyes identifies the stereoscopic role of a video frame.
type Eyes int

const (
	// EyesBoth is a monoscopic frame seen by both eyes.
	EyesBoth Eyes = iota
	EyesLeft
	EyesRight
)

// Rank orders eyes within a frame offset: Left sorts before Right.
func (e Eyes) Rank() int {
	switch e {
	case EyesLeft:
		return 0
	case EyesRight:
		return 1
	default:
		return 0
	}
}

func (e Eyes) String() string {
	switch e {
	case EyesBoth:
		return "both"
	case EyesLeft:
		return "left"
	case EyesRight:
		return "right"
	}
	return fmt.Sprintf("eyes(%d)", int(e))
}

// Standard selects between the two mutually incompatible packaging rule sets.
type Standard int

const (
	// StandardSMPTE is the strict variant.
	StandardSMPTE Standard = iota
	// StandardInterop is the loose variant.
	StandardInterop
)

func (s Standard) String() string {
	if s == StandardInterop {
		return "interop"
	}
	return "smpte"
}

// ParseStandard maps a configuration string to a Standard.
func ParseStandard(value string) (Standard, error) {
	switch value {
	case "smpte", "":
		return StandardSMPTE, nil
	case "interop":
		return StandardInterop, nil
	}
	return StandardSMPTE, fmt.Errorf("unknown standard %q (want smpte or interop)", value)
}

// TextType distinguishes the timed-text flavours a package can carry.
type TextType int

const (
	TextOpenSubtitle TextType = iota
	TextClosedCaption
)

func (t TextType) String() string {
	if t == TextClosedCaption {
		return "closed-caption"
	}
	return "open-subtitle"
}

// TextTrack identifies one closed-caption track.
type TextTrack struct {
	Name     string
	Language string
}

// Size is a picture dimension in pixels.
type Size struct {
	Width  int
	Height int
}

// Rating is one agency rating carried in the composition metadata.
type Rating struct {
	Agency string
	Label  string
}

// Film describes everything the assembly engine needs to know about the
// package being built. It is constructed once by the caller and injected
// into the writer; nothing here changes during a build.
type Film struct {
	Name             string
	ContentKind      string
	Standard         Standard
	ThreeD           bool
	Encrypted        bool
	VideoFrameRate   int
	AudioFrameRate   int
	AudioChannels    int
	FrameSize        Size
	ActiveArea       Size
	Reels            []dcptime.Period
	Ratings          []Rating
	ContentVersions  []string
	AudioLanguage    string
	SubtitleLanguage string
	CaptionTracks    []TextTrack
	Issuer           string
	Creator          string
}

// Length returns the total duration of the package.
func (f *Film) Length() dcptime.Time {
	if len(f.Reels) == 0 {
		return 0
	}
	return f.Reels[len(f.Reels)-1].To - f.Reels[0].From
}

// ReelAt returns the index of the reel whose period contains t.
func (f *Film) ReelAt(t dcptime.Time) (int, error) {
	for i, p := range f.Reels {
		if p.Contains(t) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("time %s is outside the package's reels", t)
}

// Validate checks the invariants the writer relies on.
func (f *Film) Validate() error {
	if f.Name == "" {
		return errors.New("film: name is required")
	}
	if f.VideoFrameRate <= 0 {
		return fmt.Errorf("film: invalid video frame rate %d", f.VideoFrameRate)
	}
	if f.AudioFrameRate <= 0 {
		return fmt.Errorf("film: invalid audio sample rate %d", f.AudioFrameRate)
	}
	if f.AudioChannels <= 0 || f.AudioChannels > 16 {
		return fmt.Errorf("film: invalid audio channel count %d", f.AudioChannels)
	}
	if len(f.Reels) == 0 {
		return errors.New("film: at least one reel is required")
	}
	var prev dcptime.Time
	for i, p := range f.Reels {
		if p.From >= p.To {
			return fmt.Errorf("film: reel %d has non-positive duration", i)
		}
		if i > 0 && p.From != prev {
			return fmt.Errorf("film: reel %d does not start where reel %d ends", i, i-1)
		}
		prev = p.To
	}
	return nil
}

// BlackFrame returns placeholder frame data used to fill gaps at the start
// of a reel when no previously decoded image exists. The payload is opaque
// to the writer; a deterministic zero-filled blob sized relative to the
// configured frame dimensions stands in for an encoded black picture.
func (f *Film) BlackFrame() []byte {
	size := f.FrameSize.Width * f.FrameSize.Height / 16
	if size < 64 {
		size = 64
	}
	return make([]byte, size)
}
