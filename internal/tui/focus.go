package tui

// FocusTarget identifies which panel currently holds keyboard focus.
type FocusTarget int

const (
	FocusSwarm     FocusTarget = iota // Left top: node tiles
	FocusNodes                        // Left bottom: node status table
	FocusEvents                       // Right top: event log
	FocusSecondary                    // Right bottom: order history and errors
)

// Next returns the next focus target in forward tab order.
func (f FocusTarget) Next() FocusTarget {
	return (f + 1) % 4
}

// Prev returns the previous focus target in reverse tab order.
func (f FocusTarget) Prev() FocusTarget {
	return (f + 3) % 4 // equivalent to (f - 1 + 4) % 4
}

// String returns the human-readable name of the focus target.
func (f FocusTarget) String() string {
	switch f {
	case FocusSwarm:
		return "swarm"
	case FocusNodes:
		return "nodes"
	case FocusEvents:
		return "events"
	case FocusSecondary:
		return "secondary"
	default:
		return "unknown"
	}
}

// SwarmState is the dashboard's view of the swarm as a whole.
type SwarmState int

const (
	StateStarting  SwarmState = iota // No order sample seen yet
	StateScattered                   // Order parameter below the threshold
	StateSynced                      // Swarm reported synchronized
	StateFinished                    // Event stream closed
)

// validTransitions defines the allowed SwarmState transitions.
var validTransitions = map[SwarmState][]SwarmState{
	StateStarting:  {StateScattered, StateSynced, StateFinished},
	StateScattered: {StateSynced, StateFinished},
	StateSynced:    {StateScattered, StateFinished},
}

// CanTransitionTo reports whether transitioning from s to next is valid.
func (s SwarmState) CanTransitionTo(next SwarmState) bool {
	for _, valid := range validTransitions[s] {
		if valid == next {
			return true
		}
	}
	return false
}

// Label returns a short uppercase label for the state.
func (s SwarmState) Label() string {
	switch s {
	case StateStarting:
		return "STARTING"
	case StateScattered:
		return "SCATTERED"
	case StateSynced:
		return "SYNCHRONIZED"
	case StateFinished:
		return "FINISHED"
	default:
		return "UNKNOWN"
	}
}

// Symbol returns a single-character symbol representing the state.
func (s SwarmState) Symbol() string {
	switch s {
	case StateStarting:
		return "○"
	case StateScattered:
		return "◌"
	case StateSynced:
		return "●"
	case StateFinished:
		return "✓"
	default:
		return "?"
	}
}
