package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Package contains the description of the package to assemble.
type Package struct {
	Name             string   `toml:"name"`
	ContentKind      string   `toml:"content_kind"`
	Standard         string   `toml:"standard"`
	ThreeD           bool     `toml:"three_d"`
	VideoFrameRate   int      `toml:"video_frame_rate"`
	AudioChannels    int      `toml:"audio_channels"`
	AudioSampleRate  int      `toml:"audio_sample_rate"`
	FrameWidth       int      `toml:"frame_width"`
	FrameHeight      int      `toml:"frame_height"`
	ActiveWidth      int      `toml:"active_width"`
	ActiveHeight     int      `toml:"active_height"`
	ReelSeconds      int      `toml:"reel_seconds"`
	AudioLanguage    string   `toml:"audio_language"`
	SubtitleLanguage string   `toml:"subtitle_language"`
	Issuer           string   `toml:"issuer"`
	Creator          string   `toml:"creator"`
	ContentVersions  []string `toml:"content_versions"`
}

// Encoding contains the knobs that size the writer's queue and memory ceiling.
type Encoding struct {
	Threads                  int     `toml:"threads"`
	FramesInMemoryMultiplier float64 `toml:"frames_in_memory_multiplier"`
}

// Signing points at the PEM identity used to sign the composition.
type Signing struct {
	Certificate string `toml:"certificate"`
	Key         string `toml:"key"`
}

// Paths contains directory configuration.
type Paths struct {
	BuildDir  string `toml:"build_dir"`
	OutputDir string `toml:"output_dir"`
}

// Logging contains log output configuration.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config centralizes every knob the CLI and writer need.
type Config struct {
	Package    Package  `toml:"package"`
	Encoding   Encoding `toml:"encoding"`
	Signing    Signing  `toml:"signing"`
	Paths      Paths    `toml:"paths"`
	Logging    Logging  `toml:"logging"`
	CoverSheet string   `toml:"cover_sheet"`
}

// Load reads path, layers it over Default, and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Sample returns the annotated sample configuration shipped with the binary.
func Sample() string {
	return sampleConfig
}

// WriteSample writes the sample configuration to path, refusing to clobber
// an existing file.
func WriteSample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file %s already exists", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure config directory: %w", err)
	}
	return os.WriteFile(path, []byte(sampleConfig), 0o644)
}

// EnsureDirectories creates the build and output directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.BuildDir, c.Paths.OutputDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("ensure directory %s: %w", dir, err)
		}
	}
	return nil
}

func (c *Config) normalize() {
	c.Package.Standard = strings.ToLower(strings.TrimSpace(c.Package.Standard))
	c.Package.ContentKind = strings.ToLower(strings.TrimSpace(c.Package.ContentKind))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Paths.BuildDir = expandHome(c.Paths.BuildDir)
	c.Paths.OutputDir = expandHome(c.Paths.OutputDir)
	c.Signing.Certificate = expandHome(c.Signing.Certificate)
	c.Signing.Key = expandHome(c.Signing.Key)
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
