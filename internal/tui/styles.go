// Package tui provides a bubbletea + lipgloss terminal dashboard for a
// firefly swarm.
package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/LISSConsulting/LISSTech.Luciole/internal/firefly"
)

// defaultAccentColor is the default accent color (ember orange).
const defaultAccentColor = "#FF6E19"

// Glow colors of a node tile: an unlit grid and a grid at full brightness.
const (
	nightColor = "#14141C"
	glowColor  = "#E8FF6A"
)

var (
	colorWhite  = lipgloss.Color("#FAFAFA")
	colorGray   = lipgloss.Color("#888888")
	colorBlue   = lipgloss.Color("#5B9BD5")
	colorGreen  = lipgloss.Color("#6BCB77")
	colorYellow = lipgloss.Color("#FFD93D")
	colorRed    = lipgloss.Color("#FF6B6B")
	colorOrange = lipgloss.Color("#FFA54F")
)

var (
	timestampStyle = lipgloss.NewStyle().
			Foreground(colorGray)

	flashStyle = lipgloss.NewStyle().
			Foreground(colorYellow)

	neighborStyle = lipgloss.NewStyle().
			Foreground(colorGray)

	commandStyle = lipgloss.NewStyle().
			Foreground(colorBlue)

	remoteStyle = lipgloss.NewStyle().
			Foreground(colorOrange)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorRed).
			Bold(true)

	syncedStyle = lipgloss.NewStyle().
			Foreground(colorGreen).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(colorWhite)
)

// eventIcon returns the icon shown in front of an event line.
func eventIcon(kind firefly.EventKind) string {
	switch kind {
	case firefly.EventFlash:
		return "✦"
	case firefly.EventNeighborFlash:
		return "·"
	case firefly.EventCommand:
		return "⇣"
	case firefly.EventRemote:
		return "⇡"
	case firefly.EventError:
		return "✗"
	default:
		return "•"
	}
}

// eventStyle returns the lipgloss style for an event kind.
func eventStyle(kind firefly.EventKind) lipgloss.Style {
	switch kind {
	case firefly.EventFlash:
		return flashStyle
	case firefly.EventNeighborFlash:
		return neighborStyle
	case firefly.EventCommand:
		return commandStyle
	case firefly.EventRemote:
		return remoteStyle
	case firefly.EventError:
		return errorStyle
	default:
		return infoStyle
	}
}
