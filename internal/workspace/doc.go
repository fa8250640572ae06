// Package workspace implements the acquisition editing model: pure,
// immutable-update state transitions over the list of acquisitions being
// edited.
//
// Every operation takes an acquisition id and returns a new workspace value;
// the receiver is never mutated and unknown ids are no-ops. A logical field
// lives in exactly one tier at a time, either acquisition-level or present in
// every series, and tier conversion deletes from one tier before inserting
// into the other.
package workspace
