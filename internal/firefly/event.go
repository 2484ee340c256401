package firefly

import (
	"time"

	"github.com/LISSConsulting/LISSTech.Luciole/internal/protocol"
)

// EventKind identifies the type of a node event.
type EventKind int

const (
	EventFlash         EventKind = iota // Local flash rendered
	EventNeighborFlash                  // Neighbor flash accepted and reacted to
	EventCommand                        // Coordination command applied
	EventRemote                         // Remote button pressed on this node
	EventError                          // Transport or display failure
	EventInfo                           // General informational message
)

// String returns a short lowercase label for the kind.
func (k EventKind) String() string {
	switch k {
	case EventFlash:
		return "flash"
	case EventNeighborFlash:
		return "neighbor"
	case EventCommand:
		return "command"
	case EventRemote:
		return "remote"
	case EventError:
		return "error"
	default:
		return "info"
	}
}

// Event is a structured record emitted by a node. When Node events are
// wired, entries are sent without blocking; a full channel drops them.
type Event struct {
	Kind      EventKind
	Node      int
	Timestamp time.Time
	Message   string

	// At is the node clock reading when the event happened.
	At time.Duration

	// Coordination
	Code protocol.Code

	// Flash fields
	Pulses int
	Frames int

	// Oscillator state right after the event
	Period      time.Duration
	LastFlash   time.Duration
	SyncEnabled bool
}
