package panels

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// tileWidth is the rendered width of one tile, including spacing.
const tileWidth = 7

// Tile is one firefly as drawn in the swarm panel.
type Tile struct {
	ID       int
	Color    lipgloss.Color   // current glow of the grid display
	Strip    []lipgloss.Color // strip pixels; nil when the node has no strip
	Sync     bool
	Flashing bool
}

// NodeSelectedMsg is emitted when the selection changes in the swarm or
// nodes panel, so the other one can follow.
type NodeSelectedMsg struct{ ID int }

var (
	tileLabelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	tileSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6E19"))
)

// SwarmPanel draws every firefly as a glowing tile.
type SwarmPanel struct {
	tiles    []Tile
	selected int
	width    int
	height   int
}

// NewSwarmPanel creates an empty swarm panel.
func NewSwarmPanel(w, h int) SwarmPanel {
	return SwarmPanel{width: w, height: h}
}

// SetTiles replaces the tiles, keeping the selection in range.
func (p SwarmPanel) SetTiles(tiles []Tile) SwarmPanel {
	p.tiles = tiles
	p.selected = p.clamp(p.selected)
	return p
}

// Selected returns the selected node id, or -1 when there are no tiles.
func (p SwarmPanel) Selected() int {
	if len(p.tiles) == 0 {
		return -1
	}
	return p.tiles[p.selected].ID
}

// Select moves the selection to the tile with the given id.
func (p SwarmPanel) Select(id int) SwarmPanel {
	for i, t := range p.tiles {
		if t.ID == id {
			p.selected = i
			break
		}
	}
	return p
}

// SetSize resizes the panel.
func (p SwarmPanel) SetSize(w, h int) SwarmPanel {
	p.width = w
	p.height = h
	return p
}

func (p SwarmPanel) columns() int {
	if c := p.width / tileWidth; c > 0 {
		return c
	}
	return 1
}

func (p SwarmPanel) clamp(i int) int {
	switch {
	case len(p.tiles) == 0 || i < 0:
		return 0
	case i >= len(p.tiles):
		return len(p.tiles) - 1
	}
	return i
}

// Update moves the selection with h/j/k/l or the arrow keys.
func (p SwarmPanel) Update(msg tea.Msg) (SwarmPanel, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok || len(p.tiles) == 0 {
		return p, nil
	}
	prev := p.selected
	switch key.String() {
	case "h", "left":
		p.selected = p.clamp(p.selected - 1)
	case "l", "right":
		p.selected = p.clamp(p.selected + 1)
	case "j", "down":
		if next := p.selected + p.columns(); next < len(p.tiles) {
			p.selected = next
		}
	case "k", "up":
		if next := p.selected - p.columns(); next >= 0 {
			p.selected = next
		}
	}
	if p.selected == prev {
		return p, nil
	}
	id := p.tiles[p.selected].ID
	return p, func() tea.Msg { return NodeSelectedMsg{ID: id} }
}

// View renders the tiles row by row, then the selected node's strip.
func (p SwarmPanel) View() string {
	if len(p.tiles) == 0 {
		return lipgloss.NewStyle().
			Width(p.width).Height(p.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(lipgloss.Color("#888888")).
			Render("No fireflies")
	}

	cols := p.columns()
	var rows []string
	for start := 0; start < len(p.tiles); start += cols {
		end := min(start+cols, len(p.tiles))
		var glow, label strings.Builder
		for i := start; i < end; i++ {
			glow.WriteString(p.renderGlow(p.tiles[i]))
			label.WriteString(p.renderLabel(i))
		}
		rows = append(rows, glow.String(), label.String())
	}
	if strip := p.renderStrip(); strip != "" {
		rows = append(rows, "", strip)
	}
	return lipgloss.NewStyle().Width(p.width).Height(p.height).
		Render(strings.Join(rows, "\n"))
}

func (p SwarmPanel) renderGlow(t Tile) string {
	block := lipgloss.NewStyle().Foreground(t.Color).Render("█████")
	return " " + block + " "
}

func (p SwarmPanel) renderLabel(i int) string {
	t := p.tiles[i]
	mark := "·"
	if t.Sync {
		mark = "~"
	}
	if t.Flashing {
		mark = "✦"
	}
	text := fmt.Sprintf("#%-3d%s", t.ID, mark)
	if i == p.selected {
		return "›" + tileSelectedStyle.Render(text) + " "
	}
	return " " + tileLabelStyle.Render(text) + " "
}

func (p SwarmPanel) renderStrip() string {
	t := p.tiles[p.selected]
	if len(t.Strip) == 0 {
		return ""
	}
	pixels := t.Strip
	if room := p.width - 6; room > 0 && len(pixels) > room {
		pixels = pixels[:room]
	}
	var b strings.Builder
	b.WriteString(tileLabelStyle.Render("strip "))
	for _, c := range pixels {
		b.WriteString(lipgloss.NewStyle().Foreground(c).Render("▮"))
	}
	return b.String()
}
