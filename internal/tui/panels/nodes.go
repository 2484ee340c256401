package panels

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// phaseBarWidth is the number of cells in a row's phase bar.
const phaseBarWidth = 10

// NodeRow is one line of the node status table.
type NodeRow struct {
	ID              int
	Phase           float64 // elapsed fraction of the period, in [0,1]
	Period          time.Duration
	DueIn           time.Duration // time left to the next flash, <= 0 when overdue
	Sync            bool
	Flashing        bool
	Flashes         int
	NeighborFlashes int
	Ignored         int
}

// PhaseBar renders phase in [0,1] as a bar of width cells.
func PhaseBar(phase float64, width int) string {
	if width <= 0 {
		return ""
	}
	filled := int(phase*float64(width) + 0.5)
	filled = max(0, min(width, filled))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// nodeItem implements list.Item for a node row.
type nodeItem struct{ row NodeRow }

func (i nodeItem) Title() string {
	status := "○"
	switch {
	case i.row.Flashing:
		status = "✦"
	case i.row.Sync:
		status = "●"
	}
	return fmt.Sprintf("#%-3d %s", i.row.ID, status)
}

func (i nodeItem) Description() string {
	return fmt.Sprintf("%s %4.1fs %s  f:%d n:%d i:%d",
		PhaseBar(i.row.Phase, phaseBarWidth), i.row.Period.Seconds(), DueLabel(i.row.DueIn),
		i.row.Flashes, i.row.NeighborFlashes, i.row.Ignored)
}

// DueLabel renders the time left to the next flash.
func DueLabel(d time.Duration) string {
	if d <= 0 {
		return "due"
	}
	return fmt.Sprintf("next %.1fs", d.Seconds())
}

func (i nodeItem) FilterValue() string {
	return fmt.Sprintf("#%d", i.row.ID)
}

// nodeDelegate is a compact one-line list delegate.
type nodeDelegate struct{}

func (d nodeDelegate) Height() int                             { return 1 }
func (d nodeDelegate) Spacing() int                            { return 0 }
func (d nodeDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d nodeDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	item, ok := listItem.(nodeItem)
	if !ok {
		return
	}
	s := fmt.Sprintf("%s  %s", item.Title(), item.Description())
	if index == m.Index() {
		s = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6E19")).Render("> " + s)
	} else {
		s = "  " + s
	}
	fmt.Fprint(w, s)
}

// NodesPanel lists every node with its phase and counters.
type NodesPanel struct {
	list   list.Model
	rows   int
	width  int
	height int
}

// NewNodesPanel creates an empty nodes panel.
func NewNodesPanel(w, h int) NodesPanel {
	l := list.New(nil, nodeDelegate{}, w, h)
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	return NodesPanel{list: l, width: w, height: h}
}

// SetRows replaces the table contents. The cursor stays on the same index.
func (p NodesPanel) SetRows(rows []NodeRow) NodesPanel {
	items := make([]list.Item, len(rows))
	for i, r := range rows {
		items[i] = nodeItem{row: r}
	}
	p.list.SetItems(items)
	p.rows = len(rows)
	return p
}

// Selected returns the selected node id, or -1 when the table is empty.
func (p NodesPanel) Selected() int {
	if item, ok := p.list.SelectedItem().(nodeItem); ok {
		return item.row.ID
	}
	return -1
}

// Select moves the cursor to the row with the given node id.
func (p NodesPanel) Select(id int) NodesPanel {
	for i, it := range p.list.Items() {
		if it.(nodeItem).row.ID == id {
			p.list.Select(i)
			break
		}
	}
	return p
}

// SetSize resizes the panel.
func (p NodesPanel) SetSize(w, h int) NodesPanel {
	p.width = w
	p.height = h
	p.list.SetSize(w, h)
	return p
}

// Update handles key/mouse messages for the panel.
func (p NodesPanel) Update(msg tea.Msg) (NodesPanel, tea.Cmd) {
	prev := p.Selected()
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "j", "down":
			p.list, cmd = p.list.Update(tea.KeyMsg{Type: tea.KeyDown})
		case "k", "up":
			p.list, cmd = p.list.Update(tea.KeyMsg{Type: tea.KeyUp})
		default:
			p.list, cmd = p.list.Update(msg)
		}
	default:
		p.list, cmd = p.list.Update(msg)
	}
	if id := p.Selected(); id != prev && id >= 0 {
		return p, tea.Batch(cmd, func() tea.Msg { return NodeSelectedMsg{ID: id} })
	}
	return p, cmd
}

// View renders the node table.
func (p NodesPanel) View() string {
	if p.rows == 0 {
		return lipgloss.NewStyle().
			Width(p.width).Height(p.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(lipgloss.Color("#888888")).
			Render("No nodes")
	}
	return p.list.View()
}
