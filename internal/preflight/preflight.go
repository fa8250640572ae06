package preflight

import (
	"context"

	"dicomschema/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckEngineCommand(cfg.Engine.Command),
		CheckDirectoryAccess("Library directory", cfg.Paths.LibraryDir),
		CheckDiskSpace("Library filesystem", cfg.Paths.LibraryDir, minFreeBytes),
	}

	if cfg.Paths.InboxDir != "" {
		results = append(results, CheckDirectoryAccess("Inbox directory", cfg.Paths.InboxDir))
	}
	if cfg.Engine.PackageSource == config.PackageSourceLocal {
		results = append(results, CheckDirectoryAccess("Local package directory", cfg.Engine.LocalPackageDir))
	}

	return results
}

// AllPassed reports whether every result passed.
func AllPassed(results []Result) bool {
	for _, result := range results {
		if !result.Passed {
			return false
		}
	}
	return true
}
