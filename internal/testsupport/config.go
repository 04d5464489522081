package testsupport

import (
	"path/filepath"
	"testing"

	"reelpress/internal/config"
	"reelpress/internal/signer"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories and a
// freshly generated signing identity per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Package.Name = "Test Package"
	cfg.Paths.BuildDir = filepath.Join(base, "build")
	cfg.Paths.OutputDir = filepath.Join(base, "output")
	cfg.Signing.Certificate = filepath.Join(base, "signer.pem")
	cfg.Signing.Key = filepath.Join(base, "signer.key")
	cfg.Encoding.Threads = 2
	cfg.Encoding.FramesInMemoryMultiplier = 2

	s, err := signer.SelfSigned("reelpress test identity")
	if err != nil {
		t.Fatalf("generate test signer: %v", err)
	}
	if err := s.WriteFiles(cfg.Signing.Certificate, cfg.Signing.Key); err != nil {
		t.Fatalf("write test signer: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithThreeD marks the test package as stereoscopic.
func WithThreeD() ConfigOption {
	return func(c *config.Config) {
		c.Package.ThreeD = true
	}
}

// WithReelSeconds overrides the maximum reel duration.
func WithReelSeconds(seconds int) ConfigOption {
	return func(c *config.Config) {
		c.Package.ReelSeconds = seconds
	}
}

// MustSigner loads the config's signing identity.
func MustSigner(t testing.TB, cfg *config.Config) *signer.Signer {
	t.Helper()
	s, err := signer.Load(cfg.Signing.Certificate, cfg.Signing.Key)
	if err != nil {
		t.Fatalf("load test signer: %v", err)
	}
	return s
}
