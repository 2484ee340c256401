// Package swarm runs a group of simulated fireflies on a shared in-memory
// broadcast bus, replays scenarios against them and watches how well they
// agree.
package swarm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/LISSConsulting/LISSTech.Luciole/internal/clock"
	"github.com/LISSConsulting/LISSTech.Luciole/internal/display"
	"github.com/LISSConsulting/LISSTech.Luciole/internal/firefly"
	"github.com/LISSConsulting/LISSTech.Luciole/internal/logging"
	"github.com/LISSConsulting/LISSTech.Luciole/internal/pattern"
	"github.com/LISSConsulting/LISSTech.Luciole/internal/protocol"
	"github.com/LISSConsulting/LISSTech.Luciole/internal/radio"
	"github.com/LISSConsulting/LISSTech.Luciole/internal/scenario"
)

// Swarm defaults.
const (
	DefaultNodes          = 12
	DefaultSampleInterval = 100 * time.Millisecond
)

// RemoteNode is the node id carried by swarm-level events: the standalone
// remote, scenario notes and transitions.
const RemoteNode = -1

// ErrRunning is returned by a second call to Run.
var ErrRunning = errors.New("swarm: already running")

// Options configures a Swarm. Zero values select the defaults.
type Options struct {
	Nodes int
	Group uint8   // 0 = protocol.DefaultGroup
	Loss  float64 // bus drop probability
	Seed  uint64  // 0 = random

	Period        time.Duration
	SyncDisabled  bool
	Program       pattern.Program
	Coupling      firefly.Coupling
	StripLength   int // 0 = grid only
	TickInterval  time.Duration
	FrameInterval time.Duration

	SyncThreshold  float64
	Hysteresis     float64
	SampleInterval time.Duration
	Scenario       *scenario.Scenario

	// Events receives node and swarm events. Sends never block; a full
	// channel drops events.
	Events chan<- firefly.Event
	// OnTransition is called from the Run goroutine on every transition.
	OnTransition func(Transition)

	Clock  clock.Clock
	Logger *slog.Logger
}

// Member is one simulated firefly with its in-memory displays.
type Member struct {
	Node  *firefly.Node
	Grid  *display.Grid
	Strip *display.Strip // nil when the swarm has no strips

	endpoint *radio.Endpoint
}

// Swarm owns the bus, the members and the remote control endpoint.
type Swarm struct {
	opts    Options
	clock   clock.Clock
	log     *slog.Logger
	bus     *radio.Bus
	remote  *radio.Endpoint
	members []*Member
	det     detector

	running atomic.Bool
	start   atomic.Int64
	order   atomic.Uint64 // math.Float64bits of the last sample
	synced  atomic.Bool
}

// New builds the swarm. Every node starts at a random phase with the same
// period, program and coupling.
func New(opts Options) (*Swarm, error) {
	if opts.Nodes == 0 {
		opts.Nodes = DefaultNodes
	}
	if opts.Nodes < 0 {
		return nil, fmt.Errorf("swarm: nodes must be > 0, got %d", opts.Nodes)
	}
	if opts.Group == 0 {
		opts.Group = protocol.DefaultGroup
	}
	if opts.SyncThreshold <= 0 {
		opts.SyncThreshold = DefaultSyncThreshold
	}
	if opts.Hysteresis <= 0 {
		opts.Hysteresis = DefaultHysteresis
	}
	if opts.SampleInterval <= 0 {
		opts.SampleInterval = DefaultSampleInterval
	}
	if opts.Coupling.Mode == "" {
		opts.Coupling = firefly.DefaultCoupling()
	}
	if opts.Program.Grid == nil && opts.Program.Strip == nil {
		opts.Program = pattern.DefaultProgram()
	}
	if opts.Seed == 0 {
		opts.Seed = rand.Uint64()
	}
	if sc := opts.Scenario; sc != nil && sc.MaxNode() >= opts.Nodes {
		return nil, fmt.Errorf("swarm: scenario %q addresses node %d but the swarm has %d nodes", sc.Name, sc.MaxNode(), opts.Nodes)
	}

	clk := opts.Clock
	if clk == nil {
		clk = clock.NewMonotonic()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	bus := radio.NewBus(radio.DefaultInbox, opts.Seed)
	bus.SetLoss(opts.Loss)

	s := &Swarm{
		opts:  opts,
		clock: clk,
		log:   logger,
		bus:   bus,
		det:   detector{threshold: opts.SyncThreshold, hysteresis: opts.Hysteresis},
	}
	for i := 0; i < opts.Nodes; i++ {
		s.members = append(s.members, s.newMember(i))
	}
	s.remote = bus.Join(opts.Group)
	s.start.Store(int64(clk.Now()))
	s.measure()
	return s, nil
}

func (s *Swarm) newMember(id int) *Member {
	m := &Member{
		Grid:     display.NewGrid(),
		endpoint: s.bus.Join(s.opts.Group),
	}
	var strip pattern.Strip
	if s.opts.StripLength > 0 {
		m.Strip = display.NewStrip(s.opts.StripLength)
		strip = m.Strip
	}
	m.Node = firefly.New(firefly.Options{
		ID:            id,
		Clock:         s.clock,
		Rand:          rand.New(rand.NewPCG(s.opts.Seed, uint64(id)+1)),
		Radio:         m.endpoint,
		Grid:          m.Grid,
		Strip:         strip,
		Events:        s.opts.Events,
		Logger:        s.log,
		Period:        s.opts.Period,
		SyncDisabled:  s.opts.SyncDisabled,
		RandomStart:   true,
		TickInterval:  s.opts.TickInterval,
		FrameInterval: s.opts.FrameInterval,
	})
	firefly.Install(m.Node, s.opts.Program, s.opts.Coupling)
	return m
}

// Members returns the fireflies in id order.
func (s *Swarm) Members() []*Member { return s.members }

// Len returns the number of fireflies.
func (s *Swarm) Len() int { return len(s.members) }

// Bus exposes the shared bus, mainly for its statistics.
func (s *Swarm) Bus() *radio.Bus { return s.bus }

// Now reads the swarm clock.
func (s *Swarm) Now() time.Duration { return s.clock.Now() }

// Elapsed is the time since the swarm was created or Run started.
func (s *Swarm) Elapsed() time.Duration {
	return s.clock.Now() - time.Duration(s.start.Load())
}

// Statuses returns the latest snapshot of every node.
func (s *Swarm) Statuses() []firefly.Status {
	out := make([]firefly.Status, len(s.members))
	for i, m := range s.members {
		out[i] = m.Node.Status()
	}
	return out
}

// Level returns the current brightness of node id's grid.
func (s *Swarm) Level(id int) uint8 {
	if id < 0 || id >= len(s.members) {
		return 0
	}
	return s.members[id].Grid.Level()
}

// Strip returns the published pixels of node id's strip, or nil.
func (s *Swarm) Strip(id int) []pattern.Color {
	if id < 0 || id >= len(s.members) || s.members[id].Strip == nil {
		return nil
	}
	return s.members[id].Strip.Snapshot()
}

// Order returns the order parameter of the last sample.
func (s *Swarm) Order() float64 { return math.Float64frombits(s.order.Load()) }

// Synced reports whether the swarm is currently considered synchronized.
func (s *Swarm) Synced() bool { return s.synced.Load() }

// Send broadcasts code from the standalone remote to every node.
func (s *Swarm) Send(code protocol.Code) error {
	if err := s.remote.Send(code); err != nil {
		return fmt.Errorf("swarm: remote send %s: %w", code, err)
	}
	s.log.Info("remote broadcast", "code", code)
	s.emit(firefly.Event{Kind: firefly.EventRemote, Code: code, Message: "remote: broadcast " + code.String()})
	return nil
}

// Press presses a remote button on node id. The node broadcasts the button's
// code and applies it locally.
func (s *Swarm) Press(id int, b firefly.Button) error {
	if id < 0 || id >= len(s.members) {
		return fmt.Errorf("swarm: no node %d", id)
	}
	if !s.members[id].Node.PressRemote(b) {
		return fmt.Errorf("swarm: node %d is busy, button %s dropped", id, b)
	}
	return nil
}

// Run starts every node and samples the order parameter until ctx is done
// or the scenario's duration has passed. It returns ctx.Err() when
// cancelled and nil when the scenario completes. Run may be called once.
func (s *Swarm) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrRunning
	}

	nodeCtx, stopNodes := context.WithCancel(ctx)
	var wg sync.WaitGroup
	for _, m := range s.members {
		wg.Add(1)
		go func(n *firefly.Node) {
			defer wg.Done()
			_ = n.Run(nodeCtx)
		}(m.Node)
	}
	defer func() {
		stopNodes()
		wg.Wait()
		s.close()
	}()

	s.start.Store(int64(s.clock.Now()))
	var cursor *scenario.Cursor
	if sc := s.opts.Scenario; sc != nil {
		cursor = sc.Cursor()
		s.log.Info("scenario started", "name", sc.Name, "steps", len(sc.Steps), "duration", sc.Duration)
		s.emit(firefly.Event{Kind: firefly.EventInfo, Message: fmt.Sprintf("scenario %s: %d steps", sc.Name, len(sc.Steps))})
	}

	ticker := time.NewTicker(s.opts.SampleInterval)
	defer ticker.Stop()
	inbox := s.remote.Receive()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-inbox:
			// The remote has no oscillator; node traffic is discarded.
			if !ok {
				inbox = nil
			}
		case <-ticker.C:
			s.sample()
			if cursor == nil {
				continue
			}
			elapsed := s.Elapsed()
			for _, step := range cursor.Due(elapsed) {
				s.apply(step)
			}
			if d := s.opts.Scenario.Duration; d > 0 && elapsed >= d {
				s.log.Info("scenario finished", "name", s.opts.Scenario.Name, "order", s.Order())
				s.emit(firefly.Event{Kind: firefly.EventInfo, Message: fmt.Sprintf("scenario %s finished (r=%.2f)", s.opts.Scenario.Name, s.Order())})
				return nil
			}
		}
	}
}

// measure recomputes and stores the order parameter.
func (s *Swarm) measure() float64 {
	now := s.clock.Now()
	phases := make([]float64, len(s.members))
	for i, m := range s.members {
		phases[i] = m.Node.Status().PhaseAt(now)
	}
	r := OrderParameter(phases)
	s.order.Store(math.Float64bits(r))
	return r
}

// sample measures the swarm and reports transitions.
func (s *Swarm) sample() {
	r := s.measure()
	kind, ok := s.det.observe(r)
	if !ok {
		return
	}
	s.synced.Store(kind == TransitionSynced)
	tr := Transition{Kind: kind, Order: r, Elapsed: s.Elapsed(), Timestamp: time.Now()}
	s.log.Info("swarm transition", "state", kind, "order", r)
	s.emit(firefly.Event{Kind: firefly.EventInfo, Message: tr.Message()})
	if s.opts.OnTransition != nil {
		s.opts.OnTransition(tr)
	}
}

func (s *Swarm) apply(step scenario.Step) {
	msg := step.String()
	if step.Note != "" {
		msg += " (" + step.Note + ")"
	}
	s.log.Info("scenario step", "step", step.String())
	s.emit(firefly.Event{Kind: firefly.EventInfo, Message: msg})

	if step.Node != nil {
		b, err := scenario.ParseButton(step.Button)
		if err != nil {
			s.log.Warn("scenario step skipped", "step", step.String(), "err", err)
			return
		}
		if err := s.Press(*step.Node, b); err != nil {
			s.log.Warn("scenario step failed", "step", step.String(), "err", err)
		}
		return
	}
	// A button on the standalone remote only broadcasts its code.
	code, err := step.Code()
	if err != nil {
		s.log.Warn("scenario step skipped", "step", step.String(), "err", err)
		return
	}
	if err := s.Send(code); err != nil {
		s.log.Warn("scenario step failed", "step", step.String(), "err", err)
	}
}

func (s *Swarm) close() {
	for _, m := range s.members {
		_ = m.endpoint.Close()
	}
	_ = s.remote.Close()
}

func (s *Swarm) emit(ev firefly.Event) {
	if s.opts.Events == nil {
		return
	}
	ev.Node = RemoteNode
	ev.Timestamp = time.Now()
	ev.At = s.clock.Now()
	select {
	case s.opts.Events <- ev:
	default:
	}
}
