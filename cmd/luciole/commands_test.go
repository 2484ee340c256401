package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/LISSConsulting/LISSTech.Luciole/internal/protocol"
)

// chdir switches the working directory for the duration of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func TestRootCmd_Structure(t *testing.T) {
	root := rootCmd()
	if root.Use != "luciole" {
		t.Errorf("Use = %q", root.Use)
	}
	if root.PersistentFlags().Lookup("config") == nil {
		t.Error("missing persistent --config flag")
	}

	want := map[string][]string{
		"swarm":  {"no-tui", "nodes", "scenario", "seed", "loss"},
		"node":   {"id", "address"},
		"remote": {"address"},
		"init":   nil,
		"status": nil,
	}
	got := map[string]bool{}
	for _, sub := range root.Commands() {
		got[sub.Name()] = true
		flags, ok := want[sub.Name()]
		if !ok {
			continue
		}
		for _, f := range flags {
			if sub.Flags().Lookup(f) == nil {
				t.Errorf("%s: missing --%s", sub.Name(), f)
			}
		}
	}
	for name := range want {
		if !got[name] {
			t.Errorf("missing subcommand %q", name)
		}
	}
}

func TestRemoteCmd_Args(t *testing.T) {
	cmd := remoteCmd()
	tests := []struct {
		name    string
		args    []string
		wantErr bool
	}{
		{"code name", []string{"sync-off"}, false},
		{"button a", []string{"a"}, false},
		{"button b", []string{"b"}, false},
		{"unknown code", []string{"dance"}, true},
		{"no args", nil, true},
		{"two args", []string{"sync", "desync"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := cmd.ValidateArgs(tt.args)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateArgs(%v) err = %v, wantErr %v", tt.args, err, tt.wantErr)
			}
		})
	}
	for _, name := range protocol.Names() {
		if !strings.Contains(cmd.Use, name) {
			t.Errorf("Use %q does not list %q", cmd.Use, name)
		}
	}
}

func TestFormatScaffoldResult(t *testing.T) {
	if got := formatScaffoldResult(nil); !strings.Contains(got, "nothing to create") {
		t.Errorf("empty result = %q", got)
	}
	got := formatScaffoldResult([]string{"luciole.toml", "scenarios"})
	for _, want := range []string{"Created luciole.toml\n", "Created scenarios\n"} {
		if !strings.Contains(got, want) {
			t.Errorf("output should contain %q, got:\n%s", want, got)
		}
	}
}

func TestInitCmd_Scaffolds(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	cmd := initCmd()
	if err := cmd.RunE(cmd, nil); err != nil {
		t.Fatalf("init: %v", err)
	}
	for _, name := range []string{"luciole.toml", "scenarios", ".gitignore"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected %s: %v", name, err)
		}
	}

	// A second run leaves everything alone.
	if err := cmd.RunE(cmd, nil); err != nil {
		t.Fatalf("second init: %v", err)
	}
}
