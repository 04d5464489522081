package film

import (
	"fmt"

	"reelpress/internal/config"
	"reelpress/internal/dcptime"
)

// FromConfig builds a Film for a package of the given total length, cutting
// the timeline into reels of at most cfg.Package.ReelSeconds.
func FromConfig(cfg *config.Config, length dcptime.Time) (*Film, error) {
	standard, err := ParseStandard(cfg.Package.Standard)
	if err != nil {
		return nil, err
	}

	reelLength := dcptime.FromSeconds(float64(cfg.Package.ReelSeconds))
	var reels []dcptime.Period
	for from := dcptime.Time(0); from < length; from += reelLength {
		to := from + reelLength
		if to > length {
			to = length
		}
		reels = append(reels, dcptime.Period{From: from, To: to})
	}
	if len(reels) == 0 {
		return nil, fmt.Errorf("film: zero-length package")
	}

	f := &Film{
		Name:             cfg.Package.Name,
		ContentKind:      cfg.Package.ContentKind,
		Standard:         standard,
		ThreeD:           cfg.Package.ThreeD,
		VideoFrameRate:   cfg.Package.VideoFrameRate,
		AudioFrameRate:   cfg.Package.AudioSampleRate,
		AudioChannels:    cfg.Package.AudioChannels,
		FrameSize:        Size{Width: cfg.Package.FrameWidth, Height: cfg.Package.FrameHeight},
		ActiveArea:       Size{Width: cfg.Package.ActiveWidth, Height: cfg.Package.ActiveHeight},
		Reels:            reels,
		ContentVersions:  cfg.Package.ContentVersions,
		AudioLanguage:    cfg.Package.AudioLanguage,
		SubtitleLanguage: cfg.Package.SubtitleLanguage,
		Issuer:           cfg.Package.Issuer,
		Creator:          cfg.Package.Creator,
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}
