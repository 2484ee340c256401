package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// DefaultMaxLines bounds a LogView's history; the oldest lines are dropped.
const DefaultMaxLines = 2000

// LogView is a scrollable log panel that wraps bubbles/viewport.
// In follow mode (default), new lines cause the view to auto-scroll to the bottom.
// Pressing 'f' toggles follow mode on/off.
type LogView struct {
	vp       viewport.Model
	lines    []string // rendered (pre-styled) lines
	maxLines int
	follow   bool
	width    int
	height   int
}

// NewLogView creates a LogView with the given dimensions, initially in follow mode.
func NewLogView(w, h int) LogView {
	return LogView{
		vp:       viewport.New(w, h),
		maxLines: DefaultMaxLines,
		follow:   true,
		width:    w,
		height:   h,
	}
}

// WithMaxLines sets the history bound. n <= 0 keeps every line.
func (v LogView) WithMaxLines(n int) LogView {
	v.maxLines = n
	v.lines = v.trim(v.lines)
	return v
}

// AppendLine appends a pre-rendered (styled) line to the log.
// If follow mode is enabled, the viewport scrolls to the bottom.
func (v LogView) AppendLine(rendered string) LogView {
	v.lines = v.trim(append(v.lines, rendered))
	return v.refresh()
}

// SetContent replaces all log lines with the given slice.
// Scrolls to the bottom if follow mode is enabled.
func (v LogView) SetContent(lines []string) LogView {
	v.lines = make([]string, len(lines))
	copy(v.lines, lines)
	v.lines = v.trim(v.lines)
	return v.refresh()
}

// Len returns the number of retained lines.
func (v LogView) Len() int { return len(v.lines) }

// ToggleFollow switches follow mode on or off.
// When turned on, scrolls immediately to the bottom.
func (v LogView) ToggleFollow() LogView {
	v.follow = !v.follow
	if v.follow {
		v.vp.GotoBottom()
	}
	return v
}

// SetSize resizes the log view to the given dimensions.
func (v LogView) SetSize(w, h int) LogView {
	v.width = w
	v.height = h
	v.vp.Width = w
	v.vp.Height = h
	if v.follow {
		v.vp.GotoBottom()
	}
	return v
}

// Following reports whether follow mode is currently active.
func (v LogView) Following() bool {
	return v.follow
}

// Update handles bubbletea messages (scroll keys, mouse events).
func (v LogView) Update(msg tea.Msg) (LogView, tea.Cmd) {
	var cmd tea.Cmd
	v.vp, cmd = v.vp.Update(msg)
	// If user scrolled away from bottom, exit follow mode.
	if v.follow && !v.vp.AtBottom() {
		// Only disable follow on explicit scroll messages, not on resize.
		switch msg.(type) {
		case tea.KeyMsg, tea.MouseMsg:
			v.follow = false
		}
	}
	return v, cmd
}

// View renders the log view content.
func (v LogView) View() string {
	return v.vp.View()
}

func (v LogView) refresh() LogView {
	v.vp.SetContent(strings.Join(v.lines, "\n"))
	if v.follow {
		v.vp.GotoBottom()
	}
	return v
}

// trim drops the oldest lines beyond maxLines, reusing the backing array.
func (v LogView) trim(lines []string) []string {
	if v.maxLines <= 0 || len(lines) <= v.maxLines {
		return lines
	}
	drop := len(lines) - v.maxLines
	n := copy(lines, lines[drop:])
	return lines[:n]
}
