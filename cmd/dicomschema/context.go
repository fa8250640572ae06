package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"dicomschema/internal/config"
	"dicomschema/internal/engine"
	"dicomschema/internal/ingest"
	"dicomschema/internal/logging"
	"dicomschema/internal/store"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// ensureLogger builds the shared CLI logger. Output goes to stderr so
// command output on stdout stays machine-readable; a copy lands in the
// configured log directory.
func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	c.loggerOnce.Do(func() {
		paths := []string{"stderr"}
		if cfg.Paths.LogDir != "" {
			paths = append(paths, filepath.Join(cfg.Paths.LogDir, "dicomschema.log"))
		}
		c.logger, c.loggerErr = logging.New(logging.Options{
			Level:       cfg.Logging.Level,
			Format:      cfg.Logging.Format,
			OutputPaths: paths,
		})
	})
	return c.logger, c.loggerErr
}

// engineSession ties together the worker process, its frame transport, and
// the typed bridge for the lifetime of one command.
type engineSession struct {
	process *engine.Process
	Bridge  *engine.Bridge

	startupTimeout time.Duration
}

// startEngine launches the configured engine worker and wires the bridge.
// The engine is not initialized yet; callers drive Initialize (directly or
// through the ingestion pipeline) when they first need it.
func (c *commandContext) startEngine(ctx context.Context) (*engineSession, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}

	proc, err := engine.StartProcess(ctx, cfg.Engine.Command, cfg.Engine.Args, logger)
	if err != nil {
		return nil, fmt.Errorf("start engine: %w", err)
	}
	transport := engine.NewTransport(proc.Stdout(), proc.Stdin(), logger)
	bridge := engine.NewBridge(transport, engine.Options{
		PackageSource:   cfg.Engine.PackageSource,
		LocalPackageDir: cfg.Engine.LocalPackageDir,
		PackageVersion:  cfg.Engine.PackageVersion,
		CacheEntries:    cfg.Cache.ValidationEntries,
	}, logger)

	return &engineSession{
		process:        proc,
		Bridge:         bridge,
		startupTimeout: time.Duration(cfg.Engine.StartupTimeout) * time.Second,
	}, nil
}

// Initialize brings the engine to ready under the configured startup timeout.
func (s *engineSession) Initialize(ctx context.Context, onProgress func(engine.Progress)) (engine.VersionInfo, error) {
	initCtx, cancel := context.WithTimeout(ctx, s.startupTimeout)
	defer cancel()
	return s.Bridge.Initialize(initCtx, onProgress)
}

func (s *engineSession) Close() error {
	return s.process.Stop()
}

// newPipeline builds an ingestion pipeline over the session's engine.
func (c *commandContext) newPipeline(session *engineSession) (*ingest.Pipeline, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	return ingest.New(session.Bridge, ingest.Options{
		SizeLimitBytes:  int64(cfg.Ingest.SizeLimitGiB) << 30,
		ReadConcurrency: cfg.Ingest.ReadConcurrency,
	}, logger), nil
}

// openStore opens the schema library under the configured library directory.
func (c *commandContext) openStore() (*store.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return store.Open(cfg.Paths.LibraryDir)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for current := cmd; current != nil; current = current.Parent() {
		if current.Annotations != nil && current.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
