package panels

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/LISSConsulting/LISSTech.Luciole/internal/tui/components"
)

// EventsTab identifies the active content tab in the events panel.
type EventsTab int

const (
	TabEvents  EventsTab = iota // Commands, remote presses, swarm messages
	TabFlashes                  // Local flashes of every node
)

var eventsTabLabels = []string{"Events", "Flashes"}

// EventsPanel is the main (right-top) panel showing the live event stream.
type EventsPanel struct {
	tabbar    components.TabBar
	events    components.LogView
	flashes   components.LogView
	width     int
	height    int
	activeTab EventsTab
}

// NewEventsPanel creates an EventsPanel with the events tab active.
func NewEventsPanel(w, h int) EventsPanel {
	contentH := max(h-1, 1) // subtract tab bar row
	return EventsPanel{
		tabbar:  components.NewTabBar(eventsTabLabels).SetWidth(w),
		events:  components.NewLogView(w, contentH),
		flashes: components.NewLogView(w, contentH),
		width:   w,
		height:  h,
	}
}

// SetAccent colors the active tab label.
func (v EventsPanel) SetAccent(color string) EventsPanel {
	v.tabbar = v.tabbar.SetAccent(color)
	return v
}

// AppendEvent appends a pre-rendered line to the events tab.
func (v EventsPanel) AppendEvent(rendered string) EventsPanel {
	v.events = v.events.AppendLine(rendered)
	return v
}

// AppendFlash appends a pre-rendered line to the flashes tab.
func (v EventsPanel) AppendFlash(rendered string) EventsPanel {
	v.flashes = v.flashes.AppendLine(rendered)
	return v
}

// ActiveTab returns the visible tab.
func (v EventsPanel) ActiveTab() EventsTab { return v.activeTab }

// SetSize resizes the panel.
func (v EventsPanel) SetSize(w, h int) EventsPanel {
	v.width = w
	v.height = h
	contentH := max(h-1, 1)
	v.tabbar = v.tabbar.SetWidth(w)
	v.events = v.events.SetSize(w, contentH)
	v.flashes = v.flashes.SetSize(w, contentH)
	return v
}

func (v *EventsPanel) active() *components.LogView {
	if v.activeTab == TabFlashes {
		return &v.flashes
	}
	return &v.events
}

// Update handles key messages for the panel.
func (v EventsPanel) Update(msg tea.Msg) (EventsPanel, tea.Cmd) {
	var cmd tea.Cmd
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "]":
			v.tabbar = v.tabbar.Next()
			v.activeTab = EventsTab(v.tabbar.Active())
			return v, nil
		case "[":
			v.tabbar = v.tabbar.Prev()
			v.activeTab = EventsTab(v.tabbar.Active())
			return v, nil
		case "f":
			lv := v.active()
			*lv = lv.ToggleFollow()
			return v, nil
		}
	}
	lv := v.active()
	*lv, cmd = lv.Update(msg)
	return v, cmd
}

// Following reports whether the visible log follows new lines.
func (v EventsPanel) Following() bool {
	return v.active().Following()
}

// View renders the panel: tab bar + content area.
func (v EventsPanel) View() string {
	return lipgloss.JoinVertical(lipgloss.Left, v.tabbar.View(), v.active().View())
}
