// Package store persists the schema library: saved validation schema
// documents with their metadata, backed by SQLite. A file lock enforces
// single-process access to the library database.
package store
