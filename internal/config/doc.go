// Package config loads, validates, and normalizes dicomschema configuration
// from TOML files. Defaults live in defaults.go and the annotated sample
// config shipped with the binary; Load layers a user config over those
// defaults, expands home-relative paths, and rejects unusable values before
// any subsystem starts.
package config
