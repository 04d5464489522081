package config

import (
	"errors"
	"fmt"
)

// Validate checks that the configuration can drive a build.
func (c *Config) Validate() error {
	var errs []error

	if c.Package.Name == "" {
		errs = append(errs, errors.New("package.name is required"))
	}
	switch c.Package.Standard {
	case "smpte", "interop":
	default:
		errs = append(errs, fmt.Errorf("package.standard: unknown value %q (want smpte or interop)", c.Package.Standard))
	}
	if c.Package.VideoFrameRate <= 0 {
		errs = append(errs, fmt.Errorf("package.video_frame_rate must be positive, got %d", c.Package.VideoFrameRate))
	}
	if c.Package.AudioSampleRate <= 0 {
		errs = append(errs, fmt.Errorf("package.audio_sample_rate must be positive, got %d", c.Package.AudioSampleRate))
	}
	if c.Package.AudioChannels <= 0 || c.Package.AudioChannels > 16 {
		errs = append(errs, fmt.Errorf("package.audio_channels must be in 1..16, got %d", c.Package.AudioChannels))
	}
	if c.Package.ReelSeconds <= 0 {
		errs = append(errs, fmt.Errorf("package.reel_seconds must be positive, got %d", c.Package.ReelSeconds))
	}
	if c.Encoding.Threads <= 0 {
		errs = append(errs, fmt.Errorf("encoding.threads must be positive, got %d", c.Encoding.Threads))
	}
	if c.Encoding.FramesInMemoryMultiplier <= 0 {
		errs = append(errs, fmt.Errorf("encoding.frames_in_memory_multiplier must be positive, got %v", c.Encoding.FramesInMemoryMultiplier))
	}
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format: unknown value %q", c.Logging.Format))
	}

	return errors.Join(errs...)
}
