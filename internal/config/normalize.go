package config

import "strings"

func (c *Config) normalize() error {
	var err error
	if c.Paths.InboxDir, err = expandPath(c.Paths.InboxDir); err != nil {
		return err
	}
	if c.Paths.LibraryDir, err = expandPath(c.Paths.LibraryDir); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return err
	}
	if c.Engine.LocalPackageDir, err = expandPath(c.Engine.LocalPackageDir); err != nil {
		return err
	}

	c.Engine.Command = strings.TrimSpace(c.Engine.Command)
	c.Engine.PackageSource = strings.ToLower(strings.TrimSpace(c.Engine.PackageSource))
	c.Engine.PackageVersion = strings.TrimSpace(c.Engine.PackageVersion)
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))

	if c.Engine.Command == "" {
		c.Engine.Command = defaultEngineCommand
	}
	if c.Engine.PackageSource == "" {
		c.Engine.PackageSource = defaultPackageSource
	}
	if c.Engine.StartupTimeout <= 0 {
		c.Engine.StartupTimeout = defaultStartupTimeout
	}
	if c.Ingest.SizeLimitGiB <= 0 {
		c.Ingest.SizeLimitGiB = defaultSizeLimitGiB
	}
	if c.Ingest.ReadConcurrency <= 0 {
		c.Ingest.ReadConcurrency = defaultReadConcurrency
	}
	if c.Cache.ValidationEntries <= 0 {
		c.Cache.ValidationEntries = defaultValidationEntries
	}
	if c.Watch.SettleSeconds <= 0 {
		c.Watch.SettleSeconds = defaultSettleSeconds
	}
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	return nil
}
