package firefly

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/LISSConsulting/LISSTech.Luciole/internal/clock"
	"github.com/LISSConsulting/LISSTech.Luciole/internal/logging"
	"github.com/LISSConsulting/LISSTech.Luciole/internal/pattern"
	"github.com/LISSConsulting/LISSTech.Luciole/internal/protocol"
)

// DefaultTickInterval is how often Run checks whether a flash is due.
const DefaultTickInterval = 10 * time.Millisecond

// Radio is the broadcast group a node talks on.
// *radio.Endpoint and *radio.UDP satisfy this interface.
type Radio interface {
	Send(code protocol.Code) error
	Receive() <-chan protocol.Code
}

// Button is a remote-control button.
type Button int

const (
	ButtonA Button = iota // Broadcast SyncOn and enable sync locally
	ButtonB               // Broadcast DesyncSyncOff, disable sync, randomize phase
)

// String returns "A" or "B".
func (b Button) String() string {
	if b == ButtonB {
		return "B"
	}
	return "A"
}

// Hooks are the user program of a node. Both run on the node goroutine.
type Hooks struct {
	// OnFlash receives the freshly cleared pattern queue on every local
	// flash and fills it.
	OnFlash func(q *pattern.Queue)
	// OnNeighborFlash runs for every neighbor flash accepted while sync
	// is enabled and the node is not flashing.
	OnNeighborFlash func()
}

// Options configures a Node.
type Options struct {
	ID     int
	Clock  clock.Clock
	Rand   Rand
	Radio  Radio
	Grid   pattern.Grid
	Strip  pattern.Strip
	Hooks  Hooks
	Events chan<- Event
	Logger *slog.Logger

	Period        time.Duration // 0 = DefaultPeriod
	SyncDisabled  bool
	RandomStart   bool // start at a random phase instead of flashing at once
	TickInterval  time.Duration // 0 = DefaultTickInterval
	FrameInterval time.Duration
}

// Status is an immutable snapshot of a node, safe to read from any
// goroutine.
type Status struct {
	Node            int
	Period          time.Duration
	LastFlash       time.Duration
	SyncEnabled     bool
	Flashing        bool
	Flashes         int
	NeighborFlashes int
	Ignored         int
}

// PhaseAt returns the elapsed fraction of the period at now, in [0,1].
func (s Status) PhaseAt(now time.Duration) float64 {
	return s.controller().Phase(now)
}

// DueIn returns the time left until the next flash at now. It is zero or
// negative once the node is overdue.
func (s Status) DueIn(now time.Duration) time.Duration {
	return s.controller().DueIn(now)
}

func (s Status) controller() *Controller {
	return &Controller{period: s.Period, lastFlash: s.LastFlash}
}

// Node is one firefly: it drives the flash cycle and handles coordination
// codes. All state is owned by the goroutine calling Run (or Tick and
// Receive directly); other goroutines use Status and PressRemote.
type Node struct {
	id     int
	ctrl   *Controller
	clock  clock.Clock
	rng    Rand
	radio  Radio
	comp   *pattern.Compositor
	events chan<- Event
	log    *slog.Logger
	tick   time.Duration

	queue pattern.Queue
	hooks Hooks

	inbox   <-chan protocol.Code
	buttons chan Button

	flashes, neighborFlashes, ignored int
	status                            atomic.Pointer[Status]
}

// New creates a node from opts. Clock defaults to a fresh monotonic clock
// and Rand to a randomly seeded PCG.
func New(opts Options) *Node {
	clk := opts.Clock
	if clk == nil {
		clk = clock.NewMonotonic()
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	tick := opts.TickInterval
	if tick <= 0 {
		tick = DefaultTickInterval
	}

	ctrl := NewController()
	if opts.Period > 0 {
		ctrl.SetPeriod(opts.Period)
	}
	ctrl.SetSyncEnabled(!opts.SyncDisabled)
	if opts.RandomStart {
		ctrl.RandomizePhase(clk.Now(), rng)
	}

	n := &Node{
		id:      opts.ID,
		ctrl:    ctrl,
		clock:   clk,
		rng:     rng,
		radio:   opts.Radio,
		hooks:   opts.Hooks,
		events:  opts.Events,
		log:     logger.With("node", opts.ID),
		tick:    tick,
		buttons: make(chan Button, 4),
	}
	if opts.Radio != nil {
		n.inbox = opts.Radio.Receive()
	}
	n.comp = &pattern.Compositor{
		Clock:         clk,
		Grid:          opts.Grid,
		Strip:         opts.Strip,
		Yield:         n.drain,
		FrameInterval: opts.FrameInterval,
	}
	n.publish()
	return n
}

// ID returns the node identifier.
func (n *Node) ID() int { return n.id }

// Controller exposes the oscillator for hooks running on the node goroutine.
func (n *Node) Controller() *Controller { return n.ctrl }

// Status returns the latest published snapshot.
func (n *Node) Status() Status { return *n.status.Load() }

// SetHooks replaces the node's hooks. Call it before Run.
func (n *Node) SetHooks(h Hooks) { n.hooks = h }

// Run drives the node until ctx is done: a ticker checks due-ness and
// inbound codes and button presses are handled between ticks. A flash in
// progress always runs to completion.
func (n *Node) Run(ctx context.Context) error {
	ticker := time.NewTicker(n.tick)
	defer ticker.Stop()

	n.log.Debug("node started", "period", n.ctrl.Period(), "sync", n.ctrl.SyncEnabled())
	for {
		select {
		case <-ctx.Done():
			n.log.Debug("node stopped")
			return ctx.Err()
		case <-ticker.C:
			n.Tick()
		case code, ok := <-n.inbox:
			if !ok {
				n.inbox = nil
				continue
			}
			n.Receive(code)
		case b := <-n.buttons:
			n.press(b)
		}
	}
}

// Tick runs one scheduler step: if a flash is due it is broadcast, the
// queue is refilled by the flash hook and rendered to completion.
func (n *Node) Tick() {
	now := n.clock.Now()
	if !n.ctrl.IsDue(now) {
		return
	}

	n.ctrl.MarkFlashed(now)
	n.flashes++
	if n.radio != nil {
		if err := n.radio.Send(protocol.Flash); err != nil {
			n.log.Warn("broadcast flash failed", "err", err)
			n.emit(Event{Kind: EventError, At: now, Message: fmt.Sprintf("broadcast flash: %v", err)})
		}
	}

	n.queue.Clear()
	if n.hooks.OnFlash != nil {
		n.hooks.OnFlash(&n.queue)
	}

	ev := Event{Kind: EventFlash, At: now, Pulses: n.queue.Len()}
	frames, err := n.render()
	ev.Frames = frames
	ev.Message = fmt.Sprintf("flash #%d: %d pulses, %d frames", n.flashes, ev.Pulses, frames)
	n.emit(ev)
	if err != nil {
		n.log.Error("render failed", "err", err)
		n.emit(Event{Kind: EventError, At: n.clock.Now(), Message: err.Error()})
	}
	n.publish()
}

func (n *Node) render() (int, error) {
	n.ctrl.SetFlashing(true)
	n.publish()
	defer n.ctrl.SetFlashing(false)
	return n.comp.Render(&n.queue)
}

// Receive dispatches one coordination code. Codes outside the protocol are
// ignored.
func (n *Node) Receive(code protocol.Code) {
	now := n.clock.Now()
	n.log.Log(context.Background(), logging.LevelTrace, "code received", "code", code)

	switch code {
	case protocol.Flash:
		if !n.ctrl.SyncEnabled() || n.ctrl.Flashing() {
			n.ignored++
			n.publish()
			return
		}
		n.neighborFlashes++
		if n.hooks.OnNeighborFlash != nil {
			n.hooks.OnNeighborFlash()
		}
		n.emit(Event{Kind: EventNeighborFlash, At: now, Code: code})
		n.publish()
		return
	case protocol.Sync:
		n.ctrl.ForceSyncNow()
	case protocol.Desync:
		n.ctrl.RandomizePhase(now, n.rng)
	case protocol.SyncOn:
		n.ctrl.SetSyncEnabled(true)
	case protocol.SyncOff:
		n.ctrl.SetSyncEnabled(false)
	case protocol.DesyncSyncOff:
		n.ctrl.SetSyncEnabled(false)
		n.ctrl.RandomizePhase(now, n.rng)
	default:
		n.log.Debug("ignoring unknown code", "code", uint8(code))
		return
	}

	n.log.Info("command applied", "code", code)
	n.emit(Event{Kind: EventCommand, At: now, Code: code, Message: "received " + code.String()})
	n.publish()
}

// PressRemote queues a remote-control button press for the node goroutine.
// It never blocks; presses beyond the buffer are dropped and reported false.
func (n *Node) PressRemote(b Button) bool {
	select {
	case n.buttons <- b:
		return true
	default:
		return false
	}
}

func (n *Node) press(b Button) {
	now := n.clock.Now()
	code := protocol.SyncOn
	if b == ButtonB {
		code = protocol.DesyncSyncOff
	}

	if n.radio != nil {
		if err := n.radio.Send(code); err != nil {
			n.log.Warn("broadcast remote command failed", "code", code, "err", err)
		}
	}
	switch b {
	case ButtonA:
		n.ctrl.SetSyncEnabled(true)
	case ButtonB:
		n.ctrl.SetSyncEnabled(false)
		n.ctrl.RandomizePhase(now, n.rng)
	}

	n.log.Info("remote button", "button", b, "broadcast", code)
	n.emit(Event{Kind: EventRemote, At: now, Code: code, Message: fmt.Sprintf("button %s: broadcast %s", b, code)})
	n.publish()
}

// drain services pending codes and button presses without blocking. The
// compositor calls it once per frame.
func (n *Node) drain() {
	for {
		select {
		case code, ok := <-n.inbox:
			if !ok {
				n.inbox = nil
				return
			}
			n.Receive(code)
		case b := <-n.buttons:
			n.press(b)
		default:
			return
		}
	}
}

func (n *Node) publish() {
	n.status.Store(&Status{
		Node:            n.id,
		Period:          n.ctrl.Period(),
		LastFlash:       n.ctrl.LastFlash(),
		SyncEnabled:     n.ctrl.SyncEnabled(),
		Flashing:        n.ctrl.Flashing(),
		Flashes:         n.flashes,
		NeighborFlashes: n.neighborFlashes,
		Ignored:         n.ignored,
	})
}

func (n *Node) emit(ev Event) {
	if n.events == nil {
		return
	}
	ev.Node = n.id
	ev.Timestamp = time.Now()
	ev.Period = n.ctrl.Period()
	ev.LastFlash = n.ctrl.LastFlash()
	ev.SyncEnabled = n.ctrl.SyncEnabled()
	select {
	case n.events <- ev:
	default:
	}
}
