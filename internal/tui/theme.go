package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/LISSConsulting/LISSTech.Luciole/internal/firefly"
	"github.com/LISSConsulting/LISSTech.Luciole/internal/pattern"
)

// Theme holds accent-color-derived styles for the dashboard.
type Theme struct {
	accent          string
	accentStyle     lipgloss.Style // header background
	borderFocused   lipgloss.Style
	borderUnfocused lipgloss.Style
	night, glow     colorful.Color
}

// NewTheme creates a Theme from a hex accent color string (e.g. "#FF6E19").
// If accentColor is empty or not a valid hex color, the default is used.
func NewTheme(accentColor string) Theme {
	color := defaultAccentColor
	if _, err := colorful.Hex(accentColor); err == nil {
		color = accentColor
	}
	night, _ := colorful.Hex(nightColor)
	glow, _ := colorful.Hex(glowColor)
	c := lipgloss.Color(color)
	return Theme{
		accent: color,
		accentStyle: lipgloss.NewStyle().
			Background(c).
			Foreground(lipgloss.Color("#FFFFFF")).
			Bold(true),
		borderFocused: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(c),
		borderUnfocused: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorGray),
		night: night,
		glow:  glow,
	}
}

// Accent returns the accent color as hex.
func (t Theme) Accent() string { return t.accent }

// AccentHeaderStyle returns the style for the header bar.
func (t Theme) AccentHeaderStyle() lipgloss.Style {
	return t.accentStyle
}

// PanelBorderStyle returns the appropriate border style for a panel based on
// whether it currently holds keyboard focus.
func (t Theme) PanelBorderStyle(focused bool) lipgloss.Style {
	if focused {
		return t.borderFocused
	}
	return t.borderUnfocused
}

// GlowColor maps a grid brightness to a tile color, blended in CIE-Lab from
// the night color to the firefly glow.
func (t Theme) GlowColor(level uint8) lipgloss.Color {
	c := t.night.BlendLab(t.glow, float64(level)/255).Clamped()
	return lipgloss.Color(c.Hex())
}

// PixelColor converts a strip pixel to a terminal color.
func PixelColor(c pattern.Color) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%06x", c.Packed()))
}

// RenderEventLine renders a firefly.Event as a single terminal line.
func (t Theme) RenderEventLine(ev firefly.Event, width int) string {
	ts := timestampStyle.Render(fmt.Sprintf("[%s]", ev.Timestamp.Format("15:04:05")))
	who := "swarm"
	if ev.Node >= 0 {
		who = fmt.Sprintf("#%-4d", ev.Node)
	}

	text := singleLine(ev.Message)
	if text == "" {
		text = ev.Kind.String()
		if ev.Kind == firefly.EventNeighborFlash || ev.Kind == firefly.EventCommand {
			text += " " + ev.Code.String()
		}
	}
	maxText := width - 20
	if maxText < 20 {
		maxText = 20
	}
	if runes := []rune(text); len(runes) > maxText {
		text = string(runes[:maxText-1]) + "…"
	}

	style := eventStyle(ev.Kind)
	if ev.Kind == firefly.EventInfo && strings.HasPrefix(ev.Message, "swarm synchronized") {
		style = syncedStyle
	}
	return fmt.Sprintf("%s %s %s", ts, who, style.Render(eventIcon(ev.Kind)+" "+text))
}

// singleLine collapses newlines so one event is one terminal row.
func singleLine(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	return strings.ReplaceAll(s, "\n", " ")
}
