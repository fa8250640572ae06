package main

import (
	"testing"
)

func TestVersionCommand(t *testing.T) {
	out, _, err := runCLI(t, []string{"version"}, "")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	requireContains(t, out, "dicomschema")
}

func TestPreflightCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	// The test config points engine.command at "true", which resolves on
	// PATH, and all directories are fresh temp dirs.
	out, _, err := runCLI(t, []string{"preflight"}, env.configPath)
	if err != nil {
		t.Fatalf("preflight: %v", err)
	}
	requireContains(t, out, "All preflight checks passed")
	requireContains(t, out, "[OK]")
}

func TestRootHelpListsCommands(t *testing.T) {
	out, _, err := runCLI(t, []string{"--help"}, "")
	if err != nil {
		t.Fatalf("help: %v", err)
	}
	for _, name := range []string{"analyze", "schema", "library", "watch", "preflight"} {
		requireContains(t, out, name)
	}
}

func TestUnknownCommandFails(t *testing.T) {
	if _, _, err := runCLI(t, []string{"frobnicate"}, ""); err == nil {
		t.Fatal("expected unknown command to fail")
	}
}

func TestDeriveSchemaName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"t1_mprage_sag_p2", "T1 Mprage Sag P2"},
		{"gre-field-mapping", "Gre Field Mapping"},
		{"  ", "Untitled Schema"},
		{"ep2d_diff.b1000", "Ep2d Diff B1000"},
	}
	for _, tc := range cases {
		if got := deriveSchemaName(tc.in); got != tc.want {
			t.Errorf("deriveSchemaName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
