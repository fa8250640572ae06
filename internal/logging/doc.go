// Package logging assembles structured slog loggers and formatting helpers
// used across dicomschema.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes standardized attribute keys so ingestion, engine, and
// CLI code tag log lines consistently. The package also provides a no-op
// logger for tests and wiring code that cannot fail.
package logging
