package writer

import (
	"fmt"
	"strings"

	"reelpress/internal/film"
	"reelpress/internal/language"
)

// renderCoverSheet substitutes the template placeholders with the finished
// package's details.
func renderCoverSheet(template string, f *film.Film, cplFilename string, sizeBytes int64) string {
	r := strings.NewReplacer(
		"$CPL_NAME", f.Name,
		"$CPL_FILENAME", cplFilename,
		"$TYPE", f.ContentKind,
		"$CONTAINER", fmt.Sprintf("%dx%d", f.FrameSize.Width, f.FrameSize.Height),
		"$AUDIO_LANGUAGE", language.Describe(f.AudioLanguage),
		"$SUBTITLE_LANGUAGE", language.Describe(f.SubtitleLanguage),
		"$AUDIO", audioDescription(f.AudioChannels),
		"$LENGTH", lengthDescription(f),
		"$SIZE", sizeDescription(sizeBytes),
	)
	return r.Replace(template)
}

func audioDescription(channels int) string {
	switch channels {
	case 0:
		return "None"
	case 1:
		return "Mono"
	case 2:
		return "Stereo"
	}
	return fmt.Sprintf("%d.1", channels-1)
}

func lengthDescription(f *film.Film) string {
	h, m, s, _ := f.Length().Split(f.VideoFrameRate)
	if h > 0 {
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	}
	return fmt.Sprintf("%dm %ds", m, s)
}

func sizeDescription(bytes int64) string {
	if bytes >= 1e9 {
		return fmt.Sprintf("%.1fGB", float64(bytes)/1e9)
	}
	return fmt.Sprintf("%.1fMB", float64(bytes)/1e6)
}
