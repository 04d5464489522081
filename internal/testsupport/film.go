package testsupport

import (
	"testing"

	"reelpress/internal/config"
	"reelpress/internal/dcptime"
	"reelpress/internal/film"
)

// NewFilm builds a film from the test config covering the given number of
// video frames.
func NewFilm(t testing.TB, cfg *config.Config, frames int64) *film.Film {
	t.Helper()
	length := dcptime.FromFrames(frames, cfg.Package.VideoFrameRate)
	f, err := film.FromConfig(cfg, length)
	if err != nil {
		t.Fatalf("build test film: %v", err)
	}
	return f
}
