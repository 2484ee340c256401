// Package protocol defines the closed set of coordination codes exchanged
// between fireflies over the broadcast group.
package protocol

import (
	"fmt"
	"strings"
)

// Code is a single coordination message. The numeric values are the wire
// values and must stay stable.
type Code uint8

const (
	Flash         Code = iota // A neighbor just flashed
	Sync                      // Pull the phase one period closer
	Desync                    // Randomize the phase
	SyncOn                    // Start reacting to neighbor flashes
	SyncOff                   // Stop reacting to neighbor flashes
	DesyncSyncOff             // SyncOff followed by Desync
)

// DefaultGroup is the broadcast group fireflies join unless configured
// otherwise.
const DefaultGroup uint8 = 1

// Valid reports whether c belongs to the closed code set.
func (c Code) Valid() bool {
	return c <= DesyncSyncOff
}

// String returns the command-line name of the code.
func (c Code) String() string {
	switch c {
	case Flash:
		return "flash"
	case Sync:
		return "sync"
	case Desync:
		return "desync"
	case SyncOn:
		return "sync-on"
	case SyncOff:
		return "sync-off"
	case DesyncSyncOff:
		return "desync-sync-off"
	default:
		return fmt.Sprintf("code(%d)", uint8(c))
	}
}

// Parse maps a command name (as printed by String) to its Code.
func Parse(s string) (Code, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for c := Flash; c <= DesyncSyncOff; c++ {
		if c.String() == name {
			return c, nil
		}
	}
	return 0, fmt.Errorf("protocol: unknown code %q", s)
}

// Names lists every valid code name in wire order.
func Names() []string {
	names := make([]string, 0, int(DesyncSyncOff)+1)
	for c := Flash; c <= DesyncSyncOff; c++ {
		names = append(names, c.String())
	}
	return names
}
