package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/LISSConsulting/LISSTech.Luciole/internal/firefly"
	"github.com/LISSConsulting/LISSTech.Luciole/internal/pattern"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"node.period_ms", cfg.Node.PeriodMS, 5000},
		{"node.sync", cfg.Node.Sync, true},
		{"node.tick_interval_ms", cfg.Node.TickIntervalMS, 10},
		{"coupling.mode", cfg.Coupling.Mode, "proportional"},
		{"coupling.gain_percent", cfg.Coupling.GainPercent, 7.0},
		{"coupling.advance_ms", cfg.Coupling.AdvanceMS, 100},
		{"coupling.window_ms", cfg.Coupling.WindowMS, 200},
		{"strip.enabled", cfg.Strip.Enabled, false},
		{"strip.driver", cfg.Strip.Driver, "memory"},
		{"radio.group", cfg.Radio.Group, 1},
		{"radio.transport", cfg.Radio.Transport, "bus"},
		{"swarm.nodes", cfg.Swarm.Nodes, 12},
		{"swarm.sync_threshold", cfg.Swarm.SyncThreshold, 0.95},
		{"log.level", cfg.Log.Level, "info"},
		{"log.retention", cfg.Log.Retention, 20},
		{"tui.accent_color", cfg.TUI.AccentColor, DefaultAccentColor},
		{"notifications.on_sync", cfg.Notifications.OnSync, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		dir := t.TempDir()
		content := `
[node]
period_ms = 1000
sync = false

[coupling]
mode = "near"
window_ms = 150

[[grid_pulse]]
duration_ms = 300
delay_ms = 50
luminosity = 128

[[grid_pulse]]
duration_ms = 100
luminosity = 255

[[strip_pulse]]
duration_ms = 800
width = 4
color = "#FF8000"

[radio]
transport = "udp"
address = "239.0.0.76:4210"
group = 9

[swarm]
nodes = 30
`
		path := filepath.Join(dir, "luciole.toml")
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}

		cfg, err := Load(path)
		if err != nil {
			t.Fatal(err)
		}
		if err := cfg.Validate(); err != nil {
			t.Fatalf("Validate: %v", err)
		}

		tests := []struct {
			name string
			got  any
			want any
		}{
			{"period", cfg.Period(), time.Second},
			{"node.sync", cfg.Node.Sync, false},
			{"coupling.mode", cfg.Coupling.Mode, "near"},
			{"coupling.gain_percent default", cfg.Coupling.GainPercent, 7.0},
			{"grid pulses", len(cfg.GridPulses), 2},
			{"strip pulses", len(cfg.StripPulses), 1},
			{"radio.transport", cfg.Radio.Transport, "udp"},
			{"radio.group", cfg.Radio.Group, 9},
			{"swarm.nodes", cfg.Swarm.Nodes, 30},
			{"log.level default", cfg.Log.Level, "info"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if tt.got != tt.want {
					t.Errorf("got %v, want %v", tt.got, tt.want)
				}
			})
		}

		prog, err := cfg.Program()
		if err != nil {
			t.Fatal(err)
		}
		if prog.Grid[0] != pattern.NewGridPulse(300*time.Millisecond, 50*time.Millisecond, 128) {
			t.Errorf("grid[0] = %+v", prog.Grid[0])
		}
		if prog.Strip[0].Color != (pattern.Color{R: 0xFF, G: 0x80}) {
			t.Errorf("strip[0].Color = %+v", prog.Strip[0].Color)
		}

		c, err := cfg.CouplingPreset()
		if err != nil {
			t.Fatal(err)
		}
		if c.Mode != firefly.CouplingNear || c.Window != 150*time.Millisecond {
			t.Errorf("coupling = %+v", c)
		}
	})

	t.Run("unknown keys rejected", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "luciole.toml")
		if err := os.WriteFile(path, []byte("[node]\nperiod = 1000\n"), 0644); err != nil {
			t.Fatal(err)
		}
		_, err := Load(path)
		if err == nil || !strings.Contains(err.Error(), "node.period") {
			t.Errorf("expected unknown key error, got %v", err)
		}
	})

	t.Run("missing file returns error", func(t *testing.T) {
		_, err := Load("/nonexistent/luciole.toml")
		if err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("invalid toml returns error", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "luciole.toml")
		if err := os.WriteFile(path, []byte("not valid [[[ toml"), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(path); err == nil {
			t.Error("expected error for invalid TOML")
		}
	})
}

func TestLoadAutoDiscovery(t *testing.T) {
	t.Run("finds luciole.toml in parent directory", func(t *testing.T) {
		root := t.TempDir()
		child := filepath.Join(root, "sub", "dir")
		if err := os.MkdirAll(child, 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(root, "luciole.toml"), []byte("[swarm]\nnodes = 3\n"), 0644); err != nil {
			t.Fatal(err)
		}

		origDir, _ := os.Getwd()
		t.Cleanup(func() { os.Chdir(origDir) })
		if err := os.Chdir(child); err != nil {
			t.Fatal(err)
		}

		cfg, err := Load("")
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Swarm.Nodes != 3 {
			t.Errorf("swarm.nodes: got %d, want 3", cfg.Swarm.Nodes)
		}
	})

	t.Run("not found anywhere", func(t *testing.T) {
		dir := t.TempDir()
		origDir, _ := os.Getwd()
		t.Cleanup(func() { os.Chdir(origDir) })
		if err := os.Chdir(dir); err != nil {
			t.Fatal(err)
		}

		if _, err := Load(""); !errors.Is(err, ErrNotFound) {
			t.Errorf("Load = %v, want ErrNotFound", err)
		}
		cfg, err := LoadOrDefault("")
		if err != nil {
			t.Fatalf("LoadOrDefault: %v", err)
		}
		if cfg.Swarm.Nodes != 12 {
			t.Errorf("expected defaults, got nodes=%d", cfg.Swarm.Nodes)
		}
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"period zero", func(c *Config) { c.Node.PeriodMS = 0 }, "node.period_ms"},
		{"period too long", func(c *Config) { c.Node.PeriodMS = 10001 }, "node.period_ms"},
		{"bad coupling", func(c *Config) { c.Coupling.Mode = "kuramoto" }, "coupling.mode"},
		{"gain", func(c *Config) { c.Coupling.GainPercent = 101 }, "coupling.gain_percent"},
		{"luminosity", func(c *Config) { c.GridPulses = []GridPulseConfig{{DurationMS: 10, Luminosity: 256}} }, "grid_pulse[0].luminosity"},
		{"width", func(c *Config) { c.StripPulses = []StripPulseConfig{{DurationMS: 10, Width: 31}} }, "strip_pulse[0].width"},
		{"strip color", func(c *Config) { c.StripPulses = []StripPulseConfig{{DurationMS: 10, Color: "purple"}} }, "strip_pulse[0].color"},
		{"strip driver", func(c *Config) { c.Strip.Enabled = true; c.Strip.Driver = "ws2812" }, "strip.driver"},
		{"strip length", func(c *Config) { c.Strip.Enabled = true; c.Strip.Length = 0 }, "strip.length"},
		{"group", func(c *Config) { c.Radio.Group = 256 }, "radio.group"},
		{"group zero", func(c *Config) { c.Radio.Group = 0 }, "radio.group"},
		{"transport", func(c *Config) { c.Radio.Transport = "ble" }, "radio.transport"},
		{"udp address", func(c *Config) { c.Radio.Transport = "udp"; c.Radio.Address = "nowhere" }, "radio.address"},
		{"loss", func(c *Config) { c.Radio.Loss = 1.5 }, "radio.loss"},
		{"nodes", func(c *Config) { c.Swarm.Nodes = 0 }, "swarm.nodes"},
		{"threshold", func(c *Config) { c.Swarm.SyncThreshold = 0 }, "swarm.sync_threshold"},
		{"log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"retention", func(c *Config) { c.Log.Retention = -1 }, "log.retention"},
		{"accent", func(c *Config) { c.TUI.AccentColor = "orange" }, "tui.accent_color"},
		{"url", func(c *Config) { c.Notifications.URL = "ftp://x" }, "notifications.url"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %v, want mention of %s", err, tt.want)
			}
		})
	}

	t.Run("reports every issue", func(t *testing.T) {
		cfg := Defaults()
		cfg.Node.PeriodMS = 0
		cfg.Swarm.Nodes = 0
		err := cfg.Validate()
		if err == nil || !strings.Contains(err.Error(), "node.period_ms") || !strings.Contains(err.Error(), "swarm.nodes") {
			t.Errorf("expected both issues, got %v", err)
		}
	})
}

func TestProgram_DefaultWhenEmpty(t *testing.T) {
	cfg := Defaults()
	prog, err := cfg.Program()
	if err != nil {
		t.Fatal(err)
	}
	want := pattern.DefaultProgram()
	if len(prog.Grid) != 1 || len(prog.Strip) != 1 || prog.Grid[0] != want.Grid[0] || prog.Strip[0] != want.Strip[0] {
		t.Errorf("Program() = %+v, want default", prog)
	}
}

func TestParseColor(t *testing.T) {
	got, err := ParseColor("#2A0082")
	if err != nil || got != 0x2A0082 {
		t.Errorf("ParseColor = %06X, %v", got, err)
	}
	if _, err := ParseColor("2A0082"); err == nil {
		t.Error("expected error without #")
	}
}

func TestInitFile(t *testing.T) {
	t.Run("creates luciole.toml", func(t *testing.T) {
		dir := t.TempDir()
		path, err := InitFile(dir)
		if err != nil {
			t.Fatal(err)
		}
		if filepath.Base(path) != "luciole.toml" {
			t.Errorf("expected luciole.toml, got %s", filepath.Base(path))
		}

		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("generated file is not valid: %v", err)
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("generated file does not validate: %v", err)
		}
		prog, err := cfg.Program()
		if err != nil {
			t.Fatal(err)
		}
		def := pattern.DefaultProgram()
		if prog.Grid[0] != def.Grid[0] || prog.Strip[0] != def.Strip[0] {
			t.Errorf("template program %+v differs from default", prog)
		}
	})

	t.Run("refuses to overwrite existing", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, "luciole.toml"), []byte("existing"), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := InitFile(dir); err == nil {
			t.Error("expected error when luciole.toml already exists")
		}
	})
}
