// Package main hosts the dicomschema CLI entrypoint and command graph.
//
// The Cobra-based command tree turns terminal invocations into runs of the
// file ingestion pipeline, schema generation and validation calls against
// the external analysis engine, schema library maintenance, and
// configuration scaffolding. It centralizes configuration resolution, engine
// process lifecycle, and structured logging setup so subcommands can focus
// on user experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
