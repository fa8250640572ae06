package main

import (
	"path/filepath"
	"testing"
)

func TestLibrarySaveListShowDelete(t *testing.T) {
	env := setupCLITestEnv(t)

	docPath := filepath.Join(env.baseDir, "brain.json")
	writeSchemaDocument(t, docPath, "Brain MRI", 4.92)

	out, _, err := runCLI(t, []string{"library", "save", docPath}, env.configPath)
	if err != nil {
		t.Fatalf("library save: %v", err)
	}
	requireContains(t, out, `Saved schema "Brain MRI"`)

	out, _, err = runCLI(t, []string{"library", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("library list: %v", err)
	}
	requireContains(t, out, "Brain MRI")
	requireContains(t, out, "1.0")

	out, _, err = runCLI(t, []string{"library", "show", "Brain MRI"}, env.configPath)
	if err != nil {
		t.Fatalf("library show: %v", err)
	}
	requireContains(t, out, "EchoTime")
	requireContains(t, out, "Version:     1.0")

	out, _, err = runCLI(t, []string{"library", "delete", "Brain MRI"}, env.configPath)
	if err != nil {
		t.Fatalf("library delete: %v", err)
	}
	requireContains(t, out, "Deleted schema")

	out, _, err = runCLI(t, []string{"library", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("library list after delete: %v", err)
	}
	requireContains(t, out, "Library is empty")
}

func TestLibrarySaveHonorsNameOverride(t *testing.T) {
	env := setupCLITestEnv(t)

	docPath := filepath.Join(env.baseDir, "doc.json")
	writeSchemaDocument(t, docPath, "Original Name", 4.92)

	out, _, err := runCLI(t, []string{"library", "save", docPath, "--name", "Renamed"}, env.configPath)
	if err != nil {
		t.Fatalf("library save: %v", err)
	}
	requireContains(t, out, `Saved schema "Renamed"`)

	if _, _, err := runCLI(t, []string{"library", "show", "Original Name"}, env.configPath); err == nil {
		t.Fatal("expected show under the document name to fail")
	}
}

func TestLibraryShowUnknownSchema(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, []string{"library", "show", "absent"}, env.configPath); err == nil {
		t.Fatal("expected an error for a missing schema")
	}
}

func TestLibrarySaveRejectsMalformedDocument(t *testing.T) {
	env := setupCLITestEnv(t)

	docPath := filepath.Join(env.baseDir, "bad.json")
	writeTestFile(t, docPath, `{"name": "No Acquisitions"}`)

	if _, _, err := runCLI(t, []string{"library", "save", docPath}, env.configPath); err == nil {
		t.Fatal("expected a document without acquisitions to be rejected")
	}
}
