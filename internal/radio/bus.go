// Package radio carries coordination codes between nodes. A message is a
// single protocol code broadcast to every other member of a numbered group;
// delivery is best effort.
package radio

import (
	"errors"
	"math/rand/v2"
	"sync"
	"sync/atomic"

	"github.com/LISSConsulting/LISSTech.Luciole/internal/protocol"
)

// DefaultInbox is the per-subscriber buffer size.
const DefaultInbox = 32

// ErrClosed is returned by Send after Close.
var ErrClosed = errors.New("radio: closed")

// Radio is a node's attachment to a broadcast group.
type Radio interface {
	Send(code protocol.Code) error
	Receive() <-chan protocol.Code
	Close() error
}

// Stats counts traffic through a Bus.
type Stats struct {
	Sent      uint64 // Send calls accepted
	Delivered uint64 // Copies placed in an inbox
	Dropped   uint64 // Copies lost to a full inbox or simulated loss
}

// Bus is an in-memory broadcast medium shared by simulated nodes.
type Bus struct {
	mu     sync.RWMutex
	groups map[uint8]map[*Endpoint]struct{}
	inbox  int

	lossMu sync.Mutex
	loss   float64
	rng    *rand.Rand

	sent, delivered, dropped atomic.Uint64
}

// NewBus creates a bus. inbox <= 0 selects DefaultInbox.
func NewBus(inbox int, seed uint64) *Bus {
	if inbox <= 0 {
		inbox = DefaultInbox
	}
	return &Bus{
		groups: make(map[uint8]map[*Endpoint]struct{}),
		inbox:  inbox,
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// SetLoss sets the probability in [0,1] that any single delivery is lost.
func (b *Bus) SetLoss(p float64) {
	switch {
	case p < 0:
		p = 0
	case p > 1:
		p = 1
	}
	b.lossMu.Lock()
	b.loss = p
	b.lossMu.Unlock()
}

// Join attaches a new endpoint to group.
func (b *Bus) Join(group uint8) *Endpoint {
	e := &Endpoint{
		bus:   b,
		group: group,
		ch:    make(chan protocol.Code, b.inbox),
	}
	b.mu.Lock()
	members := b.groups[group]
	if members == nil {
		members = make(map[*Endpoint]struct{})
		b.groups[group] = members
	}
	members[e] = struct{}{}
	b.mu.Unlock()
	return e
}

// Members returns the number of endpoints in group.
func (b *Bus) Members(group uint8) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.groups[group])
}

// Stats returns traffic counters.
func (b *Bus) Stats() Stats {
	return Stats{
		Sent:      b.sent.Load(),
		Delivered: b.delivered.Load(),
		Dropped:   b.dropped.Load(),
	}
}

func (b *Bus) lost() bool {
	b.lossMu.Lock()
	defer b.lossMu.Unlock()
	return b.loss > 0 && b.rng.Float64() < b.loss
}

func (b *Bus) broadcast(from *Endpoint, code protocol.Code) {
	b.sent.Add(1)
	b.mu.RLock()
	defer b.mu.RUnlock()
	for e := range b.groups[from.group] {
		if e == from {
			continue
		}
		if b.lost() {
			b.dropped.Add(1)
			continue
		}
		select {
		case e.ch <- code:
			b.delivered.Add(1)
		default:
			b.dropped.Add(1)
		}
	}
}

func (b *Bus) leave(e *Endpoint) {
	b.mu.Lock()
	defer b.mu.Unlock()
	members := b.groups[e.group]
	delete(members, e)
	if len(members) == 0 {
		delete(b.groups, e.group)
	}
}

// Endpoint is one node's membership in a Bus group. A sender never
// receives its own messages.
type Endpoint struct {
	bus    *Bus
	group  uint8
	ch     chan protocol.Code
	closed atomic.Bool
}

// Group returns the group number.
func (e *Endpoint) Group() uint8 { return e.group }

// Send broadcasts code to the other members of the group without blocking.
func (e *Endpoint) Send(code protocol.Code) error {
	if e.closed.Load() {
		return ErrClosed
	}
	e.bus.broadcast(e, code)
	return nil
}

// Receive returns the inbox. It is closed by Close.
func (e *Endpoint) Receive() <-chan protocol.Code { return e.ch }

// Close leaves the group and closes the inbox. Subsequent calls are no-ops.
func (e *Endpoint) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}
	e.bus.leave(e)
	close(e.ch)
	return nil
}
