// Package testsupport provides shared helpers for tests: temp-directory
// configs and a scripted in-memory analysis engine.
package testsupport

import (
	"path/filepath"
	"testing"

	"dicomschema/internal/config"
)

// ConfigOption customizes the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.InboxDir = filepath.Join(base, "inbox")
	cfg.Paths.LibraryDir = filepath.Join(base, "library")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Engine.Command = "true"
	cfg.Engine.Args = nil

	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithPackageSource sets the analysis package source on the test config.
func WithPackageSource(source, localDir string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Engine.PackageSource = source
		cfg.Engine.LocalPackageDir = localDir
	}
}
