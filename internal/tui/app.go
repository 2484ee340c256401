package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/LISSConsulting/LISSTech.Luciole/internal/firefly"
	"github.com/LISSConsulting/LISSTech.Luciole/internal/protocol"
	"github.com/LISSConsulting/LISSTech.Luciole/internal/tui/panels"
)

// Refresh rates.
const (
	frameInterval    = 50 * time.Millisecond
	orderSampleEvery = 5 // frames per order history sample
)

// Model is the root bubbletea model for the swarm dashboard.
type Model struct {
	// Event source
	events <-chan firefly.Event
	src    Source
	ctrl   Controller

	// Sub-panels
	swarmPanel panels.SwarmPanel
	nodesPanel panels.NodesPanel
	eventsView panels.EventsPanel
	secondary  panels.SecondaryPanel

	// Layout and focus
	layout Layout
	focus  FocusTarget
	theme  Theme
	width  int
	height int

	// Swarm state
	state           SwarmState
	nodes           int
	order           float64
	period          time.Duration
	coupling        string
	flashes         int
	neighborFlashes int
	lastAction      string
	frames          int

	// Time
	startedAt time.Time
	now       time.Time

	// Identity
	name    string
	workDir string

	// Error/done
	err  error
	done bool
}

// New creates the dashboard Model. src may be nil, in which case only the
// event stream is shown. ctrl may be nil to disable the control keys.
func New(events <-chan firefly.Event, src Source, ctrl Controller, accentColor, name, workDir string) Model {
	now := time.Now()
	th := NewTheme(accentColor)
	layout := Calculate(80, 24)

	swarmW, swarmH := innerDims(layout.Swarm)
	nodesW, nodesH := innerDims(layout.Nodes)
	eventsW, eventsH := innerDims(layout.Events)
	secW, secH := innerDims(layout.Secondary)

	return Model{
		events:     events,
		src:        src,
		ctrl:       ctrl,
		swarmPanel: panels.NewSwarmPanel(swarmW, swarmH),
		nodesPanel: panels.NewNodesPanel(nodesW, nodesH),
		eventsView: panels.NewEventsPanel(eventsW, eventsH).SetAccent(th.Accent()),
		secondary:  panels.NewSecondaryPanel(secW, secH).SetAccent(th.Accent()),
		layout:     layout,
		focus:      FocusSwarm,
		theme:      th,
		width:      80,
		height:     24,
		state:      StateStarting,
		startedAt:  now,
		now:        now,
		name:       name,
		workDir:    workDir,
	}
}

// WithSwarmInfo sets the static swarm parameters shown in the header and
// the order tab.
func (m Model) WithSwarmInfo(coupling string, period time.Duration, threshold float64) Model {
	m.coupling = coupling
	m.period = period
	m.secondary = m.secondary.SetThreshold(threshold)
	return m
}

// Err returns the error that ended the swarm run, if any.
func (m Model) Err() error { return m.err }

// RunFinished builds the message a caller sends with Program.Send when the
// swarm run fails. A nil error is ignored by the model.
func RunFinished(err error) tea.Msg { return runErrMsg{err: err} }

// Init returns the initial commands: event listener + frame ticker.
func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForEvent(m.events), frameCmd())
}

// frameCmd schedules the next display refresh.
func frameCmd() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

// waitForEvent blocks on the event channel and returns the next message.
func waitForEvent(ch <-chan firefly.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return eventsClosedMsg{}
		}
		return eventMsg(ev)
	}
}

// Update handles all incoming bubbletea messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleWindowSize(msg)
	case tea.KeyMsg:
		return m.handleKey(msg)
	case eventMsg:
		return m.handleEvent(firefly.Event(msg))
	case frameMsg:
		m.now = time.Time(msg)
		if m.state != StateFinished {
			m = m.refresh()
		}
		return m, frameCmd()
	case eventsClosedMsg:
		// The swarm stopped. Keep the TUI open on the final picture; q exits.
		if m.state.CanTransitionTo(StateFinished) {
			m.state = StateFinished
		}
		return m, nil
	case runErrMsg:
		if msg.err == nil {
			return m, nil
		}
		m.err = msg.err
		m.done = true
		return m, tea.Quit
	case panels.NodeSelectedMsg:
		m.swarmPanel = m.swarmPanel.Select(msg.ID)
		m.nodesPanel = m.nodesPanel.Select(msg.ID)
		return m, nil
	}
	return m.delegateToFocused(msg)
}

func (m Model) handleWindowSize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.layout = Calculate(msg.Width, msg.Height)
	if !m.layout.TooSmall {
		swarmW, swarmH := innerDims(m.layout.Swarm)
		nodesW, nodesH := innerDims(m.layout.Nodes)
		eventsW, eventsH := innerDims(m.layout.Events)
		secW, secH := innerDims(m.layout.Secondary)
		m.swarmPanel = m.swarmPanel.SetSize(swarmW, swarmH)
		m.nodesPanel = m.nodesPanel.SetSize(nodesW, nodesH)
		m.eventsView = m.eventsView.SetSize(eventsW, eventsH)
		m.secondary = m.secondary.SetSize(secW, secH)
	}
	return m, nil
}

// remoteCodes maps the broadcast keys to the code the remote sends.
var remoteCodes = map[string]protocol.Code{
	"A": protocol.SyncOn,
	"B": protocol.DesyncSyncOff,
	"s": protocol.Sync,
	"d": protocol.Desync,
	"o": protocol.SyncOn,
	"x": protocol.SyncOff,
	"!": protocol.Flash,
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "a", "b":
		if m.ctrl == nil {
			return m, nil
		}
		b := firefly.ButtonA
		if key == "b" {
			b = firefly.ButtonB
		}
		id := m.swarmPanel.Selected()
		if err := m.ctrl.Press(id, b); err != nil {
			m.lastAction = fmt.Sprintf("press failed: %v", err)
		} else {
			m.lastAction = fmt.Sprintf("node #%d button %s", id, b)
		}
		return m, nil
	case "tab":
		m.focus = m.focus.Next()
		return m, nil
	case "shift+tab":
		m.focus = m.focus.Prev()
		return m, nil
	case "1":
		m.focus = FocusSwarm
		return m, nil
	case "2":
		m.focus = FocusNodes
		return m, nil
	case "3":
		m.focus = FocusEvents
		return m, nil
	case "4":
		m.focus = FocusSecondary
		return m, nil
	}
	if code, ok := remoteCodes[key]; ok {
		if m.ctrl == nil {
			return m, nil
		}
		if err := m.ctrl.Send(code); err != nil {
			m.lastAction = fmt.Sprintf("send failed: %v", err)
		} else {
			m.lastAction = "remote " + code.String()
		}
		return m, nil
	}
	return m.delegateToFocused(msg)
}

func (m Model) delegateToFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.focus {
	case FocusSwarm:
		m.swarmPanel, cmd = m.swarmPanel.Update(msg)
	case FocusNodes:
		m.nodesPanel, cmd = m.nodesPanel.Update(msg)
	case FocusEvents:
		m.eventsView, cmd = m.eventsView.Update(msg)
	case FocusSecondary:
		m.secondary, cmd = m.secondary.Update(msg)
	}
	return m, cmd
}

// isTransition reports whether ev is a swarm transition announcement.
func isTransition(ev firefly.Event) bool {
	return ev.Kind == firefly.EventInfo &&
		(strings.HasPrefix(ev.Message, "swarm synchronized") || strings.HasPrefix(ev.Message, "swarm scattered"))
}

func (m Model) handleEvent(ev firefly.Event) (tea.Model, tea.Cmd) {
	switch ev.Kind {
	case firefly.EventNeighborFlash:
		// Too frequent to log line by line.
		m.neighborFlashes++
		m.secondary = m.secondary.SetCounts(m.flashes, m.neighborFlashes)
		return m, waitForEvent(m.events)
	case firefly.EventFlash:
		m.flashes++
		m.secondary = m.secondary.SetCounts(m.flashes, m.neighborFlashes)
		m.eventsView = m.eventsView.AppendFlash(m.theme.RenderEventLine(ev, m.layout.Events.Width))
		return m, waitForEvent(m.events)
	}

	rendered := m.theme.RenderEventLine(ev, m.layout.Events.Width)
	m.eventsView = m.eventsView.AppendEvent(rendered)
	switch {
	case ev.Kind == firefly.EventError:
		m.secondary = m.secondary.AppendError(m.theme.RenderEventLine(ev, m.layout.Secondary.Width))
	case isTransition(ev):
		m.secondary = m.secondary.AddTransition(m.theme.RenderEventLine(ev, m.layout.Secondary.Width))
	}
	return m, waitForEvent(m.events)
}

// refresh resamples the swarm into the tiles, the node table, and the
// order history.
func (m Model) refresh() Model {
	m.frames++
	if m.src == nil {
		return m
	}
	statuses := m.src.Statuses()
	now := m.src.Now()

	tiles := make([]panels.Tile, len(statuses))
	rows := make([]panels.NodeRow, len(statuses))
	for i, st := range statuses {
		tile := panels.Tile{
			ID:       st.Node,
			Color:    m.theme.GlowColor(m.src.Level(st.Node)),
			Sync:     st.SyncEnabled,
			Flashing: st.Flashing,
		}
		if strip := m.src.Strip(st.Node); len(strip) > 0 {
			tile.Strip = make([]lipgloss.Color, len(strip))
			for j, c := range strip {
				tile.Strip[j] = PixelColor(c)
			}
		}
		tiles[i] = tile
		rows[i] = panels.NodeRow{
			ID:              st.Node,
			Phase:           st.PhaseAt(now),
			Period:          st.Period,
			DueIn:           st.DueIn(now),
			Sync:            st.SyncEnabled,
			Flashing:        st.Flashing,
			Flashes:         st.Flashes,
			NeighborFlashes: st.NeighborFlashes,
			Ignored:         st.Ignored,
		}
	}
	m.nodes = len(statuses)
	m.swarmPanel = m.swarmPanel.SetTiles(tiles)
	m.nodesPanel = m.nodesPanel.SetRows(rows)

	m.order = m.src.Order()
	if m.frames%orderSampleEvery == 1 {
		m.secondary = m.secondary.PushOrder(m.order)
	}

	next := StateScattered
	if m.src.Synced() {
		next = StateSynced
	}
	if m.state != next && m.state.CanTransitionTo(next) {
		m.state = next
	}
	return m
}

// View renders the full dashboard.
func (m Model) View() string {
	if m.layout.TooSmall {
		msg := fmt.Sprintf("Terminal too small (%dx%d).\nPlease resize to at least 80x24.", m.width, m.height)
		return lipgloss.NewStyle().
			Width(m.width).
			Align(lipgloss.Center).
			Render(msg)
	}

	elapsed := m.now.Sub(m.startedAt)
	if m.src != nil {
		elapsed = m.src.Elapsed()
	}
	header := panels.RenderHeader(panels.HeaderProps{
		Name:        m.name,
		WorkDir:     m.workDir,
		Nodes:       m.nodes,
		Order:       m.order,
		Period:      m.period,
		Coupling:    m.coupling,
		StateSymbol: m.state.Symbol(),
		StateLabel:  m.state.Label(),
		Elapsed:     elapsed,
		Clock:       m.now,
	}, m.layout.Header.Width, m.theme.AccentHeaderStyle())

	footer := panels.RenderFooter(panels.FooterProps{
		Focus:           m.focus.String(),
		Selected:        m.swarmPanel.Selected(),
		LastAction:      m.lastAction,
		ControlsEnabled: m.ctrl != nil,
	}, m.layout.Footer.Width)

	swarmW, swarmH := innerDims(m.layout.Swarm)
	nodesW, nodesH := innerDims(m.layout.Nodes)
	eventsW, eventsH := innerDims(m.layout.Events)
	secW, secH := innerDims(m.layout.Secondary)

	leftCol := lipgloss.JoinVertical(lipgloss.Left,
		m.theme.PanelBorderStyle(m.focus == FocusSwarm).
			Width(swarmW).Height(swarmH).
			Render(m.swarmPanel.View()),
		m.theme.PanelBorderStyle(m.focus == FocusNodes).
			Width(nodesW).Height(nodesH).
			Render(m.nodesPanel.View()),
	)

	rightCol := lipgloss.JoinVertical(lipgloss.Left,
		m.theme.PanelBorderStyle(m.focus == FocusEvents).
			Width(eventsW).Height(eventsH).
			Render(m.eventsView.View()),
		m.theme.PanelBorderStyle(m.focus == FocusSecondary).
			Width(secW).Height(secH).
			Render(m.secondary.View()),
	)

	body := lipgloss.JoinHorizontal(lipgloss.Top, leftCol, rightCol)
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

// innerDims returns the content dimensions for a panel rect accounting for
// the 1-character border on each side (2 total per dimension).
func innerDims(r Rect) (w, h int) {
	w = r.Width - 2
	if w < 1 {
		w = 1
	}
	h = r.Height - 2
	if h < 1 {
		h = 1
	}
	return
}
