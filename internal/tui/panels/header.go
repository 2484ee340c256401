// Package panels provides the panel components for the swarm dashboard.
package panels

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// HeaderProps holds all data needed to render the header bar.
// String fields for state avoid importing the parent tui package (circular dep prevention).
type HeaderProps struct {
	Name        string
	WorkDir     string
	Nodes       int
	Order       float64
	Period      time.Duration
	Coupling    string
	StateSymbol string // e.g. "●", "◌", "✓"
	StateLabel  string // e.g. "SYNCHRONIZED", "SCATTERED"
	Elapsed     time.Duration
	Clock       time.Time
}

// AbbreviatePath returns a display-friendly path, replacing the home directory
// with "~" and converting backslashes to forward slashes.
func AbbreviatePath(path string) string {
	if path == "" {
		return ""
	}
	if home, err := os.UserHomeDir(); err == nil && strings.HasPrefix(path, home) {
		path = "~" + path[len(home):]
	}
	return strings.ReplaceAll(path, "\\", "/")
}

// FormatElapsed renders a duration as a compact string: "5s", "2m30s", "1h15m".
func FormatElapsed(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh%dm", h, m)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}

// RenderHeader renders the header bar.
// accentStyle is applied to the full header bar width.
func RenderHeader(props HeaderProps, width int, accentStyle lipgloss.Style) string {
	name := "Luciole"
	if props.Name != "" {
		name = props.Name
	}

	parts := []string{"✦ " + name}
	if props.WorkDir != "" {
		parts = append(parts, "dir: "+AbbreviatePath(props.WorkDir))
	}

	coupling := props.Coupling
	if coupling == "" {
		coupling = "—"
	}
	parts = append(parts,
		fmt.Sprintf("nodes: %d", props.Nodes),
		fmt.Sprintf("r: %.2f", props.Order),
		fmt.Sprintf("coupling: %s", coupling),
	)
	if props.Period > 0 {
		parts = append(parts, fmt.Sprintf("period: %s", props.Period))
	}

	stateLabel := props.StateLabel
	if props.StateSymbol != "" && props.StateLabel != "" {
		stateLabel = props.StateSymbol + " " + props.StateLabel
	}
	if stateLabel != "" {
		parts = append(parts, stateLabel)
	}
	if props.Elapsed > 0 {
		parts = append(parts, fmt.Sprintf("elapsed: %s", FormatElapsed(props.Elapsed)))
	}
	if !props.Clock.IsZero() {
		parts = append(parts, props.Clock.Format("15:04"))
	}

	content := strings.Join(parts, "  │  ")
	return accentStyle.Width(width).Render(content)
}
