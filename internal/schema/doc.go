// Package schema defines the in-memory model for DICOM acquisition-validation
// schemas: acquisitions with two field tiers (acquisition-level and
// series-level), validation rules, and attached validation functions.
//
// It also owns the deterministic conversion between the on-disk schema
// document and the in-memory acquisition shape. The conversion re-derives the
// validation rule and datatype of every field from its raw value and VR, so a
// document round-trips through the editor without drift beyond the declared
// numeric display precision.
package schema
