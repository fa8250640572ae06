package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateEngine(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if c.Paths.LibraryDir == "" {
		return errors.New("paths.library_dir must be set")
	}
	return nil
}

func (c *Config) validateEngine() error {
	if c.Engine.Command == "" {
		return errors.New("engine.command must be set")
	}
	switch c.Engine.PackageSource {
	case PackageSourceIndex, PackageSourceLocal:
	default:
		return fmt.Errorf("engine.package_source must be %q or %q, got %q", PackageSourceIndex, PackageSourceLocal, c.Engine.PackageSource)
	}
	if c.Engine.PackageSource == PackageSourceLocal && c.Engine.LocalPackageDir == "" {
		return errors.New("engine.local_package_dir is required when engine.package_source is \"local\"")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be \"console\" or \"json\", got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error, got %q", c.Logging.Level)
	}
	return nil
}
