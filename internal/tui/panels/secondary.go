package panels

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/LISSConsulting/LISSTech.Luciole/internal/tui/components"
)

// SecondaryTab identifies the active content tab in the secondary panel.
type SecondaryTab int

const (
	TabOrder  SecondaryTab = iota // Order parameter history and transitions
	TabErrors                     // Transport and display failures
)

var secondaryTabLabels = []string{"Order", "Errors"}

// Bounds on the retained history.
const (
	maxOrderHistory = 512
	maxTransitions  = 50
)

var dimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))

// SecondaryPanel is the secondary (right-bottom) panel with order and error tabs.
type SecondaryPanel struct {
	tabbar      components.TabBar
	errors      components.LogView
	history     []float64
	transitions []string
	threshold   float64
	flashes     int
	neighbors   int
	width       int
	height      int
	activeTab   SecondaryTab
}

// NewSecondaryPanel creates a secondary panel.
func NewSecondaryPanel(w, h int) SecondaryPanel {
	contentH := max(h-1, 1)
	return SecondaryPanel{
		tabbar:    components.NewTabBar(secondaryTabLabels).SetWidth(w),
		errors:    components.NewLogView(w, contentH).WithMaxLines(500),
		width:     w,
		height:    h,
		activeTab: TabOrder,
	}
}

// SetAccent colors the active tab label.
func (p SecondaryPanel) SetAccent(color string) SecondaryPanel {
	p.tabbar = p.tabbar.SetAccent(color)
	return p
}

// SetThreshold sets the sync threshold shown next to the current value.
func (p SecondaryPanel) SetThreshold(th float64) SecondaryPanel {
	p.threshold = th
	return p
}

// PushOrder appends an order parameter sample to the history.
func (p SecondaryPanel) PushOrder(r float64) SecondaryPanel {
	p.history = appendBounded(p.history, r, maxOrderHistory)
	return p
}

// AddTransition records a pre-rendered transition line.
func (p SecondaryPanel) AddTransition(rendered string) SecondaryPanel {
	p.transitions = appendBounded(p.transitions, rendered, maxTransitions)
	return p
}

// SetCounts sets the swarm-wide flash totals.
func (p SecondaryPanel) SetCounts(flashes, neighborFlashes int) SecondaryPanel {
	p.flashes = flashes
	p.neighbors = neighborFlashes
	return p
}

// AppendError appends a pre-rendered line to the errors tab.
func (p SecondaryPanel) AppendError(rendered string) SecondaryPanel {
	p.errors = p.errors.AppendLine(rendered)
	return p
}

// ActiveTab returns the visible tab.
func (p SecondaryPanel) ActiveTab() SecondaryTab { return p.activeTab }

// SetSize resizes the panel.
func (p SecondaryPanel) SetSize(w, h int) SecondaryPanel {
	p.width = w
	p.height = h
	p.tabbar = p.tabbar.SetWidth(w)
	p.errors = p.errors.SetSize(w, max(h-1, 1))
	return p
}

// Update handles key messages for the secondary panel.
func (p SecondaryPanel) Update(msg tea.Msg) (SecondaryPanel, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "]":
			p.tabbar = p.tabbar.Next()
			p.activeTab = SecondaryTab(p.tabbar.Active())
			return p, nil
		case "[":
			p.tabbar = p.tabbar.Prev()
			p.activeTab = SecondaryTab(p.tabbar.Active())
			return p, nil
		}
	}
	if p.activeTab != TabErrors {
		return p, nil
	}
	var cmd tea.Cmd
	p.errors, cmd = p.errors.Update(msg)
	return p, cmd
}

// View renders the panel: tab bar + active tab content.
func (p SecondaryPanel) View() string {
	var content string
	switch p.activeTab {
	case TabErrors:
		if p.errors.Len() == 0 {
			content = p.placeholder("No errors")
		} else {
			content = p.errors.View()
		}
	default:
		content = p.renderOrder()
	}
	return lipgloss.JoinVertical(lipgloss.Left, p.tabbar.View(), content)
}

func (p SecondaryPanel) placeholder(text string) string {
	return lipgloss.NewStyle().
		Width(p.width).Height(max(p.height-1, 1)).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(lipgloss.Color("#888888")).
		Render(text)
}

// renderOrder renders the order parameter history for the Order tab.
func (p SecondaryPanel) renderOrder() string {
	if len(p.history) == 0 {
		return p.placeholder("No samples yet")
	}

	var sb strings.Builder
	current := p.history[len(p.history)-1]
	sb.WriteString(fmt.Sprintf("r = %.3f", current))
	if p.threshold > 0 {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("   threshold %.2f", p.threshold)))
	}
	sb.WriteString("\n")
	sb.WriteString(components.Sparkline(p.history, p.width))
	sb.WriteString("\n")
	sb.WriteString(dimStyle.Render(fmt.Sprintf("flashes %d   neighbor flashes %d", p.flashes, p.neighbors)))
	sb.WriteString("\n")

	room := p.height - 1 - 4
	lines := p.transitions
	if room < len(lines) {
		lines = lines[len(lines)-max(room, 0):]
	}
	for _, l := range lines {
		sb.WriteString("\n")
		sb.WriteString(l)
	}

	return lipgloss.NewStyle().
		Width(p.width).Height(max(p.height-1, 1)).
		Render(sb.String())
}

func appendBounded[T any](s []T, v T, limit int) []T {
	s = append(s, v)
	if len(s) > limit {
		s = s[len(s)-limit:]
	}
	return s
}
