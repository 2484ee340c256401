package scenario

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/LISSConsulting/LISSTech.Luciole/internal/firefly"
	"github.com/LISSConsulting/LISSTech.Luciole/internal/protocol"
)

const sample = `
name: scatter
duration: 90s
steps:
  - at: 70s
    command: sync
  - at: 40s
    button: b
  - at: 45s
    button: A
    node: 3
    note: node three calls everyone back
`

func TestParse(t *testing.T) {
	sc, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if sc.Name != "scatter" || sc.Duration != 90*time.Second {
		t.Errorf("header = %q %v", sc.Name, sc.Duration)
	}
	if len(sc.Steps) != 3 {
		t.Fatalf("steps = %d, want 3", len(sc.Steps))
	}

	tests := []struct {
		at       time.Duration
		wantCode protocol.Code
		button   bool
	}{
		{40 * time.Second, protocol.DesyncSyncOff, true},
		{45 * time.Second, protocol.SyncOn, true},
		{70 * time.Second, protocol.Sync, false},
	}
	for i, tt := range tests {
		s := sc.Steps[i]
		if s.At != tt.at {
			t.Errorf("steps[%d].At = %v, want %v (sorted)", i, s.At, tt.at)
		}
		code, err := s.Code()
		if err != nil || code != tt.wantCode {
			t.Errorf("steps[%d].Code() = %v, %v; want %v", i, code, err, tt.wantCode)
		}
		if s.IsButton() != tt.button {
			t.Errorf("steps[%d].IsButton() = %v", i, s.IsButton())
		}
	}
	if sc.MaxNode() != 3 {
		t.Errorf("MaxNode = %d, want 3", sc.MaxNode())
	}
	if got := sc.Steps[1].String(); got != "45s: node 3 button A" {
		t.Errorf("String() = %q", got)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"unknown field", "steps:\n  - at: 1s\n    command: sync\n    colour: red\n", "colour"},
		{"both actions", "steps:\n  - at: 1s\n    command: sync\n    button: a\n", "exactly one"},
		{"no action", "steps:\n  - at: 1s\n", "exactly one"},
		{"bad command", "steps:\n  - at: 1s\n    command: dance\n", "unknown code"},
		{"bad button", "steps:\n  - at: 1s\n    button: c\n", "unknown button"},
		{"negative time", "steps:\n  - at: -1s\n    button: a\n", "at must be >= 0"},
		{"after duration", "duration: 5s\nsteps:\n  - at: 6s\n    button: a\n", "after duration"},
		{"node with command", "steps:\n  - at: 1s\n    command: sync\n    node: 2\n", "only valid with button"},
		{"integer time", "steps:\n  - at: 5\n    button: a\n", "parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestParseButton(t *testing.T) {
	if b, err := ParseButton(" B "); err != nil || b != firefly.ButtonB {
		t.Errorf("ParseButton(B) = %v, %v", b, err)
	}
	if _, err := ParseButton("x"); err == nil {
		t.Error("expected error for x")
	}
}

func TestLoad_NameFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dusk.yaml")
	if err := os.WriteFile(path, []byte("steps:\n  - at: 1s\n    button: a\n"), 0644); err != nil {
		t.Fatal(err)
	}
	sc, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if sc.Name != "dusk" {
		t.Errorf("Name = %q, want dusk", sc.Name)
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestCursor(t *testing.T) {
	sc, err := Parse([]byte(sample))
	if err != nil {
		t.Fatal(err)
	}
	c := sc.Cursor()

	if got := c.Due(10 * time.Second); len(got) != 0 {
		t.Errorf("Due(10s) = %v, want none", got)
	}
	if got := c.Due(50 * time.Second); len(got) != 2 {
		t.Errorf("Due(50s) returned %d steps, want 2", len(got))
	}
	if got := c.Due(50 * time.Second); len(got) != 0 {
		t.Error("steps must not repeat")
	}
	if c.Remaining() != 1 || c.Done() {
		t.Errorf("Remaining = %d, Done = %v", c.Remaining(), c.Done())
	}
	if got := c.Due(time.Hour); len(got) != 1 {
		t.Errorf("Due(1h) returned %d steps, want 1", len(got))
	}
	if !c.Done() {
		t.Error("cursor should be done")
	}
}
