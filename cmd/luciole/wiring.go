package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/LISSConsulting/LISSTech.Luciole/internal/config"
	"github.com/LISSConsulting/LISSTech.Luciole/internal/firefly"
	"github.com/LISSConsulting/LISSTech.Luciole/internal/store"
	"github.com/LISSConsulting/LISSTech.Luciole/internal/swarm"
	"github.com/LISSConsulting/LISSTech.Luciole/internal/tui"
)

// runSwarmHeadless runs the swarm and prints events to out until it
// finishes or ctx is cancelled. Neighbor flashes are journaled but not
// printed.
func runSwarmHeadless(ctx context.Context, sw *swarm.Swarm, events <-chan firefly.Event, jt *journalTracker, out io.Writer) error {
	runDone := make(chan struct{})
	drainDone := make(chan struct{})
	go func() {
		defer close(drainDone)
		forward(events, runDone, func(ev firefly.Event) {
			jt.track(ev)
			if ev.Kind != firefly.EventNeighborFlash {
				fmt.Fprintln(out, formatEventLine(ev))
			}
		})
	}()

	err := sw.Run(ctx)
	close(runDone)
	<-drainDone
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// runSwarmTUI runs the swarm behind the dashboard. Events pass through the
// journal before reaching the TUI; quitting the TUI stops the swarm.
func runSwarmTUI(ctx context.Context, sw *swarm.Swarm, events <-chan firefly.Event, jt *journalTracker, cfg *config.Config, dir string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	tuiEvents := make(chan firefly.Event, 256)
	threshold := cfg.Swarm.SyncThreshold
	if threshold == 0 {
		threshold = swarm.DefaultSyncThreshold
	}
	model := tui.New(tuiEvents, sw, sw, cfg.TUI.AccentColor, "luciole swarm", dir).
		WithSwarmInfo(cfg.Coupling.Mode, cfg.Period(), threshold)
	program := tea.NewProgram(model, tea.WithAltScreen())

	runDone := make(chan struct{})
	forwardDone := make(chan struct{})
	go func() {
		defer close(forwardDone)
		forward(events, runDone, func(ev firefly.Event) {
			jt.track(ev)
			select {
			case tuiEvents <- ev:
			default:
			}
		})
	}()

	errCh := make(chan error, 1)
	go func() {
		defer close(tuiEvents)
		runErr := sw.Run(ctx)
		close(runDone)
		<-forwardDone
		if runErr != nil && !errors.Is(runErr, context.Canceled) {
			program.Send(tui.RunFinished(runErr))
		}
		errCh <- runErr
	}()

	tuiErr := finishTUI(program)
	cancel()
	runErr := <-errCh
	if tuiErr != nil {
		return tuiErr
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}

// finishTUI runs the bubbletea program and returns any swarm error it saw.
// Context cancellation is a normal shutdown (quit key, signal).
func finishTUI(program *tea.Program) error {
	finalModel, err := program.Run()
	if err != nil {
		return fmt.Errorf("tui: %w", err)
	}

	if m, ok := finalModel.(tui.Model); ok && m.Err() != nil {
		if errors.Is(m.Err(), context.Canceled) {
			return nil
		}
		return m.Err()
	}
	return nil
}

// forward calls fn for every event until done is closed, then for whatever
// is still buffered. The events channel is never closed by its senders.
func forward(events <-chan firefly.Event, done <-chan struct{}, fn func(firefly.Event)) {
	for {
		select {
		case ev := <-events:
			fn(ev)
		case <-done:
			for {
				select {
				case ev := <-events:
					fn(ev)
				default:
					return
				}
			}
		}
	}
}

// journalTracker appends every event to the session journal. The first
// write failure is logged and journaling stops; the swarm keeps running.
type journalTracker struct {
	journal store.Writer
	log     *slog.Logger
	failed  bool
	written int
}

func newJournalTracker(journal store.Writer, log *slog.Logger) *journalTracker {
	return &journalTracker{journal: journal, log: log}
}

func (j *journalTracker) track(ev firefly.Event) {
	if j.failed {
		return
	}
	if err := j.journal.Append(ev); err != nil {
		j.failed = true
		j.log.Error("journal write failed, journaling disabled", "err", err, "written", j.written)
		return
	}
	j.written++
}

// formatEventLine renders an event as a plain log line for --no-tui mode.
func formatEventLine(ev firefly.Event) string {
	ts := ev.Timestamp.Format("15:04:05")
	who := "swarm"
	if ev.Node != swarm.RemoteNode {
		who = fmt.Sprintf("#%d", ev.Node)
	}
	msg := ev.Message
	if msg == "" {
		msg = ev.Kind.String()
	}
	if ev.Kind == firefly.EventError {
		return fmt.Sprintf("[%s] %s ERROR: %s", ts, who, msg)
	}
	return fmt.Sprintf("[%s] %s %s", ts, who, msg)
}
