// Package config parses luciole.toml configuration.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/LISSConsulting/LISSTech.Luciole/internal/firefly"
	"github.com/LISSConsulting/LISSTech.Luciole/internal/logging"
	"github.com/LISSConsulting/LISSTech.Luciole/internal/pattern"
)

// FileName is the configuration file looked up by Load.
const FileName = "luciole.toml"

// DefaultAccentColor is the default TUI accent color (firefly amber).
const DefaultAccentColor = "#FF6E19"

// ErrNotFound is returned by Load when no luciole.toml exists in the working
// directory or any of its parents.
var ErrNotFound = errors.New("config: " + FileName + " not found")

// Config is the top-level luciole.toml configuration.
type Config struct {
	Node          NodeConfig          `toml:"node"`
	Coupling      CouplingConfig      `toml:"coupling"`
	GridPulses    []GridPulseConfig   `toml:"grid_pulse"`
	StripPulses   []StripPulseConfig  `toml:"strip_pulse"`
	Strip         StripConfig         `toml:"strip"`
	Radio         RadioConfig         `toml:"radio"`
	Swarm         SwarmConfig         `toml:"swarm"`
	Log           LogConfig           `toml:"log"`
	TUI           TUIConfig           `toml:"tui"`
	Notifications NotificationsConfig `toml:"notifications"`
}

// NodeConfig controls a single oscillator.
type NodeConfig struct {
	PeriodMS        int  `toml:"period_ms"`
	Sync            bool `toml:"sync"`
	TickIntervalMS  int  `toml:"tick_interval_ms"`
	FrameIntervalMS int  `toml:"frame_interval_ms"`
}

// CouplingConfig selects the neighbor-flash reaction.
type CouplingConfig struct {
	Mode        string  `toml:"mode"`
	GainPercent float64 `toml:"gain_percent"`
	AdvanceMS   int     `toml:"advance_ms"`
	WindowMS    int     `toml:"window_ms"`
}

// GridPulseConfig is one [[grid_pulse]] entry.
type GridPulseConfig struct {
	DurationMS int `toml:"duration_ms"`
	DelayMS    int `toml:"delay_ms"`
	Luminosity int `toml:"luminosity"`
}

// StripPulseConfig is one [[strip_pulse]] entry. An empty color selects the
// default.
type StripPulseConfig struct {
	DurationMS int    `toml:"duration_ms"`
	DelayMS    int    `toml:"delay_ms"`
	Width      int    `toml:"width"`
	Color      string `toml:"color"`
}

// StripConfig attaches an addressable strip.
type StripConfig struct {
	Enabled    bool   `toml:"enabled"`
	Length     int    `toml:"length"`
	Driver     string `toml:"driver"`   // memory | apa102
	SPIPort    string `toml:"spi_port"` // periph spireg name; "" = first port
	SPISpeedHz int64  `toml:"spi_speed_hz"`
}

// RadioConfig selects the broadcast transport.
type RadioConfig struct {
	Group     int     `toml:"group"`
	Transport string  `toml:"transport"` // bus | udp
	Address   string  `toml:"address"`
	Loss      float64 `toml:"loss"`
}

// SwarmConfig controls the simulated swarm.
type SwarmConfig struct {
	Nodes         int     `toml:"nodes"`
	Scenario      string  `toml:"scenario"`
	SyncThreshold float64 `toml:"sync_threshold"`
	Seed          uint64  `toml:"seed"` // 0 = random
}

// LogConfig controls logging and the flash journal.
type LogConfig struct {
	Level      string `toml:"level"`
	JournalDir string `toml:"journal_dir"`
	Retention  int    `toml:"retention"` // journals to keep; 0 = unlimited
}

// TUIConfig controls the terminal UI appearance.
type TUIConfig struct {
	AccentColor string `toml:"accent_color"`
}

// NotificationsConfig controls webhook notifications on swarm transitions.
type NotificationsConfig struct {
	URL      string `toml:"url"`
	OnSync   bool   `toml:"on_sync"`
	OnDesync bool   `toml:"on_desync"`
}

// Validate checks the configuration for issues that would cause confusing
// runtime failures. It returns all found issues joined together.
func (c *Config) Validate() error {
	var errs []error
	inRange := func(key string, v, lo, hi int) {
		if v < lo || v > hi {
			errs = append(errs, fmt.Errorf("%s must be in [%d, %d], got %d", key, lo, hi, v))
		}
	}

	inRange("node.period_ms", c.Node.PeriodMS, 1, 10000)
	inRange("node.tick_interval_ms", c.Node.TickIntervalMS, 1, 1000)
	inRange("node.frame_interval_ms", c.Node.FrameIntervalMS, 0, 1000)

	if _, err := firefly.ParseCouplingMode(c.Coupling.Mode); err != nil {
		errs = append(errs, fmt.Errorf("coupling.mode must be one of proportional, constant, near, delay, none"))
	}
	if c.Coupling.GainPercent < 0 || c.Coupling.GainPercent > 100 {
		errs = append(errs, fmt.Errorf("coupling.gain_percent must be in [0, 100]"))
	}
	inRange("coupling.advance_ms", c.Coupling.AdvanceMS, 0, 5000)
	inRange("coupling.window_ms", c.Coupling.WindowMS, 0, 5000)

	for i, p := range c.GridPulses {
		key := fmt.Sprintf("grid_pulse[%d]", i)
		inRange(key+".duration_ms", p.DurationMS, 0, 5000)
		inRange(key+".delay_ms", p.DelayMS, 0, 5000)
		inRange(key+".luminosity", p.Luminosity, 0, 255)
	}
	for i, p := range c.StripPulses {
		key := fmt.Sprintf("strip_pulse[%d]", i)
		inRange(key+".duration_ms", p.DurationMS, 0, 5000)
		inRange(key+".delay_ms", p.DelayMS, 0, 5000)
		inRange(key+".width", p.Width, 0, 30)
		if p.Color != "" {
			if _, err := colorful.Hex(p.Color); err != nil {
				errs = append(errs, fmt.Errorf("%s.color must be a hex color (e.g. \"#2A0082\")", key))
			}
		}
	}

	if c.Strip.Enabled {
		inRange("strip.length", c.Strip.Length, 1, 1024)
		switch c.Strip.Driver {
		case "memory", "apa102":
		default:
			errs = append(errs, fmt.Errorf("strip.driver must be memory or apa102"))
		}
		if c.Strip.SPISpeedHz < 0 {
			errs = append(errs, fmt.Errorf("strip.spi_speed_hz must be >= 0 (0 = driver default)"))
		}
	}

	inRange("radio.group", c.Radio.Group, 1, 255)
	switch c.Radio.Transport {
	case "bus":
	case "udp":
		if _, _, err := net.SplitHostPort(c.Radio.Address); err != nil {
			errs = append(errs, fmt.Errorf("radio.address must be host:port when radio.transport is udp"))
		}
	default:
		errs = append(errs, fmt.Errorf("radio.transport must be bus or udp"))
	}
	if c.Radio.Loss < 0 || c.Radio.Loss > 1 {
		errs = append(errs, fmt.Errorf("radio.loss must be in [0, 1]"))
	}

	inRange("swarm.nodes", c.Swarm.Nodes, 1, 256)
	if c.Swarm.SyncThreshold <= 0 || c.Swarm.SyncThreshold > 1 {
		errs = append(errs, fmt.Errorf("swarm.sync_threshold must be in (0, 1]"))
	}

	if !logging.ValidLevel(c.Log.Level) {
		errs = append(errs, fmt.Errorf("log.level must be one of info, debug, trace, warn, error"))
	}
	if c.Log.Retention < 0 {
		errs = append(errs, fmt.Errorf("log.retention must be >= 0 (0 = unlimited)"))
	}

	if c.TUI.AccentColor != "" {
		if _, err := colorful.Hex(c.TUI.AccentColor); err != nil {
			errs = append(errs, fmt.Errorf("tui.accent_color must be a hex color (e.g. \"#FF6E19\")"))
		}
	}

	if c.Notifications.URL != "" {
		u, parseErr := url.ParseRequestURI(c.Notifications.URL)
		if parseErr != nil || (u.Scheme != "http" && u.Scheme != "https") {
			errs = append(errs, fmt.Errorf("notifications.url must be a valid http or https URL"))
		}
	}

	return errors.Join(errs...)
}

// Defaults returns a Config with the stock firefly behavior: a 5 s period,
// proportional coupling at 7 %, one grid pulse and one strip pulse.
func Defaults() Config {
	return Config{
		Node: NodeConfig{
			PeriodMS:        int(firefly.DefaultPeriod / time.Millisecond),
			Sync:            true,
			TickIntervalMS:  10,
			FrameIntervalMS: 5,
		},
		Coupling: CouplingConfig{
			Mode:        string(firefly.CouplingProportional),
			GainPercent: firefly.DefaultGain,
			AdvanceMS:   int(firefly.DefaultAdvance / time.Millisecond),
			WindowMS:    int(firefly.DefaultWindow / time.Millisecond),
		},
		Strip: StripConfig{
			Length:     30,
			Driver:     "memory",
			SPISpeedHz: 4_000_000,
		},
		Radio: RadioConfig{
			Group:     1,
			Transport: "bus",
			Address:   "255.255.255.255:4210",
		},
		Swarm: SwarmConfig{
			Nodes:         12,
			SyncThreshold: 0.95,
		},
		Log: LogConfig{
			Level:      "info",
			JournalDir: ".luciole/sessions",
			Retention:  20,
		},
		TUI: TUIConfig{
			AccentColor: DefaultAccentColor,
		},
		Notifications: NotificationsConfig{
			OnSync:   true,
			OnDesync: true,
		},
	}
}

// Period returns node.period_ms as a duration.
func (c *Config) Period() time.Duration {
	return time.Duration(c.Node.PeriodMS) * time.Millisecond
}

// TickInterval returns node.tick_interval_ms as a duration.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.Node.TickIntervalMS) * time.Millisecond
}

// FrameInterval returns node.frame_interval_ms as a duration.
func (c *Config) FrameInterval() time.Duration {
	return time.Duration(c.Node.FrameIntervalMS) * time.Millisecond
}

// CouplingPreset converts the [coupling] table.
func (c *Config) CouplingPreset() (firefly.Coupling, error) {
	mode, err := firefly.ParseCouplingMode(c.Coupling.Mode)
	if err != nil {
		return firefly.Coupling{}, err
	}
	return firefly.Coupling{
		Mode:    mode,
		Gain:    c.Coupling.GainPercent,
		Advance: time.Duration(c.Coupling.AdvanceMS) * time.Millisecond,
		Window:  time.Duration(c.Coupling.WindowMS) * time.Millisecond,
	}, nil
}

// Program converts the pulse tables into the per-flash program. With no
// pulse tables at all the default program is returned.
func (c *Config) Program() (pattern.Program, error) {
	if len(c.GridPulses) == 0 && len(c.StripPulses) == 0 {
		return pattern.DefaultProgram(), nil
	}

	var prog pattern.Program
	for _, p := range c.GridPulses {
		prog.Grid = append(prog.Grid, pattern.NewGridPulse(ms(p.DurationMS), ms(p.DelayMS), uint8(p.Luminosity)))
	}
	for i, p := range c.StripPulses {
		rgb := uint32(pattern.DefaultStripColor)
		if p.Color != "" {
			packed, err := ParseColor(p.Color)
			if err != nil {
				return pattern.Program{}, fmt.Errorf("config: strip_pulse[%d]: %w", i, err)
			}
			rgb = packed
		}
		prog.Strip = append(prog.Strip, pattern.NewStripPulse(ms(p.DurationMS), ms(p.DelayMS), p.Width, rgb))
	}
	return prog, nil
}

// ParseColor parses "#RRGGBB" into a packed 24-bit color.
func ParseColor(s string) (uint32, error) {
	col, err := colorful.Hex(s)
	if err != nil {
		return 0, fmt.Errorf("config: color %q: %w", s, err)
	}
	r, g, b := col.RGB255()
	return uint32(r)<<16 | uint32(g)<<8 | uint32(b), nil
}

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

// Load reads luciole.toml from the given path. If path is empty, it walks up
// from the current working directory looking for luciole.toml. Returns an
// error if the file contains unknown keys (likely typos).
func Load(path string) (*Config, error) {
	if path == "" {
		found, err := findConfig()
		if err != nil {
			return nil, err
		}
		path = found
	}

	cfg := Defaults()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("config: unknown keys in %s: %s (possible typos?)", path, strings.Join(keys, ", "))
	}

	return &cfg, nil
}

// LoadOrDefault behaves like Load but falls back to Defaults when no file is
// found by discovery. An explicit path must exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, ErrNotFound) {
		d := Defaults()
		return &d, nil
	}
	return cfg, err
}

// findConfig walks up from the current directory looking for luciole.toml.
func findConfig() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("config: get working directory: %w", err)
	}

	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%w (searched up from %s)", ErrNotFound, dir)
		}
		dir = parent
	}
}

// InitFile writes a default luciole.toml template to the given directory.
func InitFile(dir string) (string, error) {
	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("config: %s already exists at %s", FileName, path)
	}
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return "", fmt.Errorf("config: write %s: %w", path, err)
	}
	return path, nil
}

const configTemplate = `# luciole.toml: firefly swarm configuration

[node]
period_ms = 5000         # flash period, 1..10000
sync = true              # react to neighbor flashes
tick_interval_ms = 10    # how often a node checks whether it is due
frame_interval_ms = 5    # pause between animation frames; 0 = busy loop

[coupling]
mode = "proportional"    # proportional | constant | near | delay | none
gain_percent = 7.0       # proportional: phase jump in percent
advance_ms = 100         # constant: fixed advance
window_ms = 200          # near: flash at once when this close to due

[[grid_pulse]]
duration_ms = 200
delay_ms = 0
luminosity = 255         # 0..255

[[strip_pulse]]
duration_ms = 500
delay_ms = 0
width = 10               # 0..30 pixels
color = "#2A0082"

[strip]
enabled = false
length = 30
driver = "memory"        # memory | apa102
spi_port = ""            # periph spireg name; "" = first port
spi_speed_hz = 4000000

[radio]
group = 1                # 1..255
transport = "bus"        # bus (in-process swarm) | udp
address = "255.255.255.255:4210"
loss = 0.0               # bus only: probability a delivery is lost

[swarm]
nodes = 12
scenario = ""            # YAML scenario replayed against the swarm
sync_threshold = 0.95    # order parameter counted as synchronized
seed = 0                 # 0 = random

[log]
level = "info"           # info | debug | trace | warn | error
journal_dir = ".luciole/sessions"
retention = 20           # journals to keep; 0 = unlimited

[tui]
accent_color = "#FF6E19"

[notifications]
url = ""                 # ntfy.sh topic URL or any HTTP webhook (empty = disabled)
on_sync = true           # notify when the swarm synchronizes
on_desync = true         # notify when it falls apart
`
