package panels

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))

// FooterProps holds all data needed to render the footer bar.
type FooterProps struct {
	Focus           string // "swarm", "nodes", "events", "secondary"
	Selected        int    // selected node id, -1 for none
	LastAction      string
	ControlsEnabled bool
}

// RenderFooter renders the context-sensitive footer bar.
// Left side: selection and last remote action. Right side: keybinding hints.
func RenderFooter(props FooterProps, width int) string {
	action := props.LastAction
	if action == "" {
		action = "—"
	}
	left := fmt.Sprintf("last: %s", action)
	if props.Selected >= 0 {
		left = fmt.Sprintf("node #%d  %s", props.Selected, left)
	}

	right := panelHints(props.Focus)
	if props.ControlsEnabled {
		right += "  a/b:node  A/B:remote  s/d/o/x/!:send"
	}
	right += "  q:quit  1-4:panel"

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 2 {
		gap = 2
	}

	return footerStyle.Width(width).Render(left + strings.Repeat(" ", gap) + right)
}

// panelHints returns the context-sensitive keybinding hints for a given focus.
func panelHints(focus string) string {
	switch focus {
	case "swarm":
		return "h/j/k/l:select  tab:next panel"
	case "nodes":
		return "j/k:select  tab:next panel"
	case "events":
		return "f:follow  [/]:tab  ctrl+u/d:scroll  tab:next panel"
	case "secondary":
		return "[/]:tab  j/k:scroll  tab:next panel"
	default:
		return "tab:next panel"
	}
}
