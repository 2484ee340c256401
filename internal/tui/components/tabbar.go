// Package components provides reusable widgets for the swarm dashboard.
package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// defaultTabAccent is used until SetAccent is called.
const defaultTabAccent = "#FF6E19"

// tabInactiveStyle renders inactive tabs in a dimmed style.
var tabInactiveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))

// TabBar is a stateless tab bar component that renders a row of labelled tabs.
// The active tab is highlighted with accent color and bold text.
type TabBar struct {
	tabs   []string
	active int
	width  int
	style  lipgloss.Style
}

// NewTabBar creates a TabBar with the given tab titles. The first tab is active.
func NewTabBar(tabs []string) TabBar {
	return TabBar{tabs: tabs}.SetAccent(defaultTabAccent)
}

// SetAccent returns a TabBar whose active tab uses the given hex color.
func (t TabBar) SetAccent(color string) TabBar {
	t.style = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(color))
	return t
}

// Active returns the index of the currently active tab.
func (t TabBar) Active() int {
	return t.active
}

// Select returns a TabBar with tab i active. Out-of-range indexes are ignored.
func (t TabBar) Select(i int) TabBar {
	if i >= 0 && i < len(t.tabs) {
		t.active = i
	}
	return t
}

// Next returns a TabBar with the next tab active (wraps around).
func (t TabBar) Next() TabBar {
	if len(t.tabs) == 0 {
		return t
	}
	t.active = (t.active + 1) % len(t.tabs)
	return t
}

// Prev returns a TabBar with the previous tab active (wraps around).
func (t TabBar) Prev() TabBar {
	if len(t.tabs) == 0 {
		return t
	}
	t.active = (t.active + len(t.tabs) - 1) % len(t.tabs)
	return t
}

// SetWidth returns a TabBar configured for the given render width.
func (t TabBar) SetWidth(w int) TabBar {
	t.width = w
	return t
}

// View renders the tab bar as a single line string.
// Tabs are separated by " │ ".
func (t TabBar) View() string {
	if len(t.tabs) == 0 {
		return ""
	}

	parts := make([]string, len(t.tabs))
	for i, label := range t.tabs {
		if i == t.active {
			parts[i] = t.style.Render(label)
		} else {
			parts[i] = tabInactiveStyle.Render(label)
		}
	}
	return strings.Join(parts, "  │  ")
}
