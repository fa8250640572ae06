// Package engine talks to the external analysis engine, a Python worker
// process speaking newline-delimited JSON frames over stdin/stdout. The
// Transport correlates responses to requests by id; the Bridge layers the
// engine's lifecycle and typed operations on top.
package engine
