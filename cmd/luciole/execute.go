package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"periph.io/x/conn/v3/physic"

	"github.com/LISSConsulting/LISSTech.Luciole/internal/config"
	"github.com/LISSConsulting/LISSTech.Luciole/internal/display"
	"github.com/LISSConsulting/LISSTech.Luciole/internal/firefly"
	"github.com/LISSConsulting/LISSTech.Luciole/internal/logging"
	"github.com/LISSConsulting/LISSTech.Luciole/internal/notify"
	"github.com/LISSConsulting/LISSTech.Luciole/internal/pattern"
	"github.com/LISSConsulting/LISSTech.Luciole/internal/protocol"
	"github.com/LISSConsulting/LISSTech.Luciole/internal/radio"
	"github.com/LISSConsulting/LISSTech.Luciole/internal/scenario"
	"github.com/LISSConsulting/LISSTech.Luciole/internal/store"
	"github.com/LISSConsulting/LISSTech.Luciole/internal/swarm"
)

// logFileName receives the logs while the dashboard owns the terminal.
const logFileName = "luciole.log"

// swarmFlags are the command-line overrides of `luciole swarm`.
type swarmFlags struct {
	noTUI    bool
	nodes    int
	scenario string
	seed     uint64
	loss     *float64
}

// loadConfig loads and validates luciole.toml, falling back to the defaults
// when discovery finds no file.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// swarmOptions builds the swarm from the config and the flag overrides.
func swarmOptions(cfg *config.Config, f swarmFlags) (swarm.Options, error) {
	prog, err := cfg.Program()
	if err != nil {
		return swarm.Options{}, err
	}
	coupling, err := cfg.CouplingPreset()
	if err != nil {
		return swarm.Options{}, err
	}

	opts := swarm.Options{
		Nodes:         cfg.Swarm.Nodes,
		Group:         uint8(cfg.Radio.Group),
		Loss:          cfg.Radio.Loss,
		Seed:          cfg.Swarm.Seed,
		Period:        cfg.Period(),
		SyncDisabled:  !cfg.Node.Sync,
		Program:       prog,
		Coupling:      coupling,
		TickInterval:  cfg.TickInterval(),
		FrameInterval: cfg.FrameInterval(),
		SyncThreshold: cfg.Swarm.SyncThreshold,
	}
	if cfg.Strip.Enabled {
		opts.StripLength = cfg.Strip.Length
	}

	if f.nodes > 0 {
		opts.Nodes = f.nodes
	}
	if f.seed != 0 {
		opts.Seed = f.seed
	}
	if f.loss != nil {
		if *f.loss < 0 || *f.loss > 1 {
			return swarm.Options{}, fmt.Errorf("--loss must be in [0, 1], got %v", *f.loss)
		}
		opts.Loss = *f.loss
	}

	path := cfg.Swarm.Scenario
	if f.scenario != "" {
		path = f.scenario
	}
	if path != "" {
		sc, err := scenario.Load(path)
		if err != nil {
			return swarm.Options{}, err
		}
		opts.Scenario = sc
	}
	return opts, nil
}

// openJournal opens a new session journal and prunes old ones.
func openJournal(cfg *config.Config, logger *slog.Logger) (*store.JSONL, error) {
	journal, err := store.NewJSONL(cfg.Log.JournalDir, store.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	if err := store.EnforceRetention(cfg.Log.JournalDir, cfg.Log.Retention); err != nil {
		logger.Warn("journal retention failed", "err", err)
	}
	return journal, nil
}

// openLogFile opens the log file next to the journals, for runs where
// stderr belongs to the dashboard.
func openLogFile(cfg *config.Config) (io.WriteCloser, error) {
	if err := os.MkdirAll(cfg.Log.JournalDir, 0755); err != nil {
		return nil, fmt.Errorf("create %s: %w", cfg.Log.JournalDir, err)
	}
	path := filepath.Join(cfg.Log.JournalDir, logFileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}

// executeSwarm loads config, builds the swarm, and runs it with or without
// the dashboard.
func executeSwarm(configPath string, f swarmFlags) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	dir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	var logger *slog.Logger
	if f.noTUI {
		logger = logging.NewLogger(cfg.Log.Level, os.Stderr)
	} else {
		logFile, err := openLogFile(cfg)
		if err != nil {
			return err
		}
		defer logFile.Close()
		logger = logging.NewLogger(cfg.Log.Level, logFile)
	}

	opts, err := swarmOptions(cfg, f)
	if err != nil {
		return err
	}
	opts.Logger = logger
	if cfg.Notifications.URL != "" {
		opts.OnTransition = notify.New(cfg.Notifications.URL, "", cfg.Notifications.OnSync, cfg.Notifications.OnDesync).Hook
	}
	events := make(chan firefly.Event, 256)
	opts.Events = events

	sw, err := swarm.New(opts)
	if err != nil {
		return err
	}

	journal, err := openJournal(cfg, logger)
	if err != nil {
		return err
	}
	defer journal.Close()
	logger.Info("swarm starting", "nodes", sw.Len(), "journal", journal.Path())

	ctx, cancel := signalContext()
	defer cancel()

	jt := newJournalTracker(journal, logger)
	if f.noTUI {
		return runSwarmHeadless(ctx, sw, events, jt, os.Stdout)
	}
	return runSwarmTUI(ctx, sw, events, jt, cfg, dir)
}

// openStrip returns the strip back-end selected by [strip], or nil without
// one. The returned close function is never nil.
func openStrip(cfg *config.Config) (pattern.Strip, func() error, error) {
	noop := func() error { return nil }
	if !cfg.Strip.Enabled {
		return nil, noop, nil
	}
	if cfg.Strip.Driver != "apa102" {
		return display.NewStrip(cfg.Strip.Length), noop, nil
	}
	speed := physic.Frequency(cfg.Strip.SPISpeedHz) * physic.Hertz
	a, err := display.OpenAPA102(cfg.Strip.SPIPort, speed, cfg.Strip.Length)
	if err != nil {
		return nil, noop, err
	}
	return a, a.Close, nil
}

// executeNode runs one firefly on the UDP radio until interrupted.
func executeNode(configPath string, id int, address string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	logger := logging.NewLogger(cfg.Log.Level, os.Stderr)

	prog, err := cfg.Program()
	if err != nil {
		return err
	}
	coupling, err := cfg.CouplingPreset()
	if err != nil {
		return err
	}

	if address == "" {
		address = cfg.Radio.Address
	}
	udp, err := radio.ListenUDP(radio.UDPOptions{
		Address: address,
		Group:   uint8(cfg.Radio.Group),
		Logger:  logger,
	})
	if err != nil {
		return err
	}
	defer udp.Close()

	strip, closeStrip, err := openStrip(cfg)
	if err != nil {
		return err
	}
	defer closeStrip()

	journal, err := openJournal(cfg, logger)
	if err != nil {
		return err
	}
	defer journal.Close()

	events := make(chan firefly.Event, 256)
	n := firefly.New(firefly.Options{
		ID:            id,
		Radio:         udp,
		Grid:          display.NewGrid(),
		Strip:         strip,
		Events:        events,
		Logger:        logger,
		Period:        cfg.Period(),
		SyncDisabled:  !cfg.Node.Sync,
		TickInterval:  cfg.TickInterval(),
		FrameInterval: cfg.FrameInterval(),
	})
	firefly.Install(n, prog, coupling)
	logger.Info("node starting", "node", id, "radio", udp.LocalAddr(), "target", address, "journal", journal.Path())

	ctx, cancel := signalContext()
	defer cancel()

	jt := newJournalTracker(journal, logger)
	runDone := make(chan struct{})
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		forward(events, runDone, func(ev firefly.Event) {
			jt.track(ev)
			if ev.Kind != firefly.EventNeighborFlash {
				fmt.Fprintln(os.Stdout, formatEventLine(ev))
			}
		})
	}()

	err = n.Run(ctx)
	close(runDone)
	<-drained
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// remoteCode maps a `luciole remote` argument to its code. "a" and "b" are
// the remote buttons.
func remoteCode(arg string) (protocol.Code, error) {
	switch strings.ToLower(arg) {
	case "a":
		return protocol.SyncOn, nil
	case "b":
		return protocol.DesyncSyncOff, nil
	}
	return protocol.Parse(arg)
}

// executeRemote sends one code from an ephemeral port and exits.
func executeRemote(configPath, arg, address string) error {
	code, err := remoteCode(arg)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if address == "" {
		address = cfg.Radio.Address
	}

	udp, err := radio.ListenUDP(radio.UDPOptions{
		Address: address,
		Listen:  ":0",
		Group:   uint8(cfg.Radio.Group),
		Logger:  logging.NewLogger(cfg.Log.Level, os.Stderr),
	})
	if err != nil {
		return err
	}
	defer udp.Close()

	if err := udp.Send(code); err != nil {
		return err
	}
	fmt.Printf("Sent %s to %s (group %d)\n", code, address, cfg.Radio.Group)
	return nil
}

// showStatus prints a summary of the newest session journal.
func showStatus(configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	path, err := store.Latest(cfg.Log.JournalDir)
	if err != nil {
		fmt.Println("No session journal found. Run 'luciole swarm' or 'luciole node' first.")
		return nil
	}
	sum, nodes, err := store.ReadSession(path)
	if err != nil {
		return err
	}
	fmt.Print(formatStatus(path, sum, nodes))
	return nil
}

// formatStatus renders a session summary and its per-node table.
func formatStatus(path string, sum store.SessionSummary, nodes []store.NodeSummary) string {
	var b strings.Builder
	b.WriteString("Luciole Status\n")
	b.WriteString("──────────────\n")
	fmt.Fprintf(&b, "  %-20s %s\n", "Journal:", path)
	if !sum.StartedAt.IsZero() {
		fmt.Fprintf(&b, "  %-20s %s\n", "Started:", sum.StartedAt.Format(time.DateTime))
	}
	fmt.Fprintf(&b, "  %-20s %d\n", "Nodes:", sum.Nodes)
	fmt.Fprintf(&b, "  %-20s %d\n", "Events:", sum.Events)
	fmt.Fprintf(&b, "  %-20s %d\n", "Flashes:", sum.Flashes)
	fmt.Fprintf(&b, "  %-20s %d\n", "Commands:", sum.Commands)
	fmt.Fprintf(&b, "  %-20s %d\n", "Errors:", sum.Errors)
	if sum.LastMessage != "" {
		fmt.Fprintf(&b, "  %-20s %s\n", "Last message:", sum.LastMessage)
	}

	if len(nodes) == 0 {
		return b.String()
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "  %-6s %8s %9s %9s %7s %10s\n", "Node", "Flashes", "Neighbor", "Commands", "Errors", "Interval")
	for _, n := range nodes {
		interval := "—"
		if n.MeanInterval > 0 {
			interval = n.MeanInterval.Round(time.Millisecond).String()
		}
		fmt.Fprintf(&b, "  #%-5d %8d %9d %9d %7d %10s\n", n.Node, n.Flashes, n.NeighborFlashes, n.Commands, n.Errors, interval)
	}
	return b.String()
}
