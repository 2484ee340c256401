// Package store journals node events to a JSONL session file and provides
// per-node read-back and summaries. One journal is created per luciole
// invocation in cmd/luciole/wiring.go.
package store

import (
	"time"

	"github.com/LISSConsulting/LISSTech.Luciole/internal/firefly"
)

// Writer persists node events to durable storage.
type Writer interface {
	Append(ev firefly.Event) error
	Close() error
}

// Reader retrieves journaled data.
type Reader interface {
	Nodes() ([]NodeSummary, error)
	NodeLog(node int) ([]firefly.Event, error)
	SessionSummary() (SessionSummary, error)
}

// Store combines Writer and Reader into a single session-scoped handle.
type Store interface {
	Writer
	Reader
}

// NodeSummary summarises one node's activity in a session.
type NodeSummary struct {
	Node            int
	Flashes         int
	NeighborFlashes int
	Commands        int
	Remotes         int
	Errors          int
	FirstFlash      time.Time
	LastFlash       time.Time
	// MeanInterval is the average node-clock time between consecutive
	// flashes; it equals the period once the node runs undisturbed.
	MeanInterval time.Duration
	SyncEnabled  bool
}

// SessionSummary summarises a whole session.
type SessionSummary struct {
	SessionID   string
	StartedAt   time.Time
	Nodes       int
	Events      int
	Flashes     int
	Commands    int
	Errors      int
	LastMessage string
}
