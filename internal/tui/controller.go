package tui

import (
	"time"

	"github.com/LISSConsulting/LISSTech.Luciole/internal/firefly"
	"github.com/LISSConsulting/LISSTech.Luciole/internal/pattern"
	"github.com/LISSConsulting/LISSTech.Luciole/internal/protocol"
)

// Source is the swarm the dashboard watches. *swarm.Swarm satisfies it.
// Every method must be safe to call from the bubbletea goroutine while the
// swarm runs.
type Source interface {
	Statuses() []firefly.Status
	Now() time.Duration
	Elapsed() time.Duration
	Order() float64
	Synced() bool
	Level(id int) uint8
	Strip(id int) []pattern.Color
}

// Controller lets the dashboard act as the remote control. *swarm.Swarm
// satisfies it. Pass nil to disable the control keys.
type Controller interface {
	// Send broadcasts a code from the standalone remote.
	Send(code protocol.Code) error
	// Press presses a button on one node.
	Press(id int, b firefly.Button) error
}
