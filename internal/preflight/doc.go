// Package preflight provides readiness checks for the engine command and
// filesystem paths the tool depends on.
//
// The checks run in two contexts:
//   - Long operations (ingestion, watch mode) call RunAll first; a failed
//     check halts before minutes of engine work are wasted on a doomed run.
//   - The CLI "preflight" command uses the individual check functions to
//     display environment health.
package preflight
