// Package schemadiff produces unified diffs between two schema documents.
// Documents are reserialized canonically (indented, sorted keys) before
// diffing so formatting noise never shows up as a change.
package schemadiff

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

const contextLines = 4

// Unified returns a classic unified patch between two schema documents. An
// empty result means the documents are semantically identical.
func Unified(aName string, a []byte, bName string, b []byte) (string, error) {
	canonicalA, err := canonicalize(a)
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", aName, err)
	}
	canonicalB, err := canonicalize(b)
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", bName, err)
	}
	if canonicalA == canonicalB {
		return "", nil
	}

	patch, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        splitLinesKeepNL(canonicalA),
		B:        splitLinesKeepNL(canonicalB),
		FromFile: aName,
		ToFile:   bName,
		Context:  contextLines,
	})
	if err != nil {
		return "", fmt.Errorf("diff %s against %s: %w", aName, bName, err)
	}
	return patch, nil
}

// canonicalize round-trips the document through encoding/json, which sorts
// object keys, and renders it indented one key per line.
func canonicalize(document []byte) (string, error) {
	var value any
	if err := json.Unmarshal(document, &value); err != nil {
		return "", err
	}
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(value); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func splitLinesKeepNL(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.SplitAfter(s, "\n")
}
