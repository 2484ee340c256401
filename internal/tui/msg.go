package tui

import (
	"time"

	"github.com/LISSConsulting/LISSTech.Luciole/internal/firefly"
)

// eventMsg wraps a firefly.Event for the root model.
type eventMsg firefly.Event

// eventsClosedMsg signals the event channel closed.
type eventsClosedMsg struct{}

// runErrMsg carries the error that ended the swarm run.
type runErrMsg struct{ err error }

// frameMsg is sent at the refresh rate to resample the swarm.
type frameMsg time.Time
