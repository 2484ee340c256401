package tui

// Rect represents a rectangular region of the terminal.
type Rect struct {
	X, Y, Width, Height int
}

// Layout holds the computed panel geometry for a given terminal size.
type Layout struct {
	Header, Footer    Rect
	Swarm, Nodes      Rect
	Events, Secondary Rect
	TooSmall          bool // true when terminal is below the minimum 80×24
}

// Calculate computes the panel layout for a terminal of the given dimensions.
// Returns a Layout with TooSmall=true if width < 80 or height < 24.
//
// Algorithm:
//   - Header: full width, 1 row at top
//   - Footer: full width, 1 row at bottom
//   - Left column: 40% of width, clamped to [32, 60]
//   - Swarm: left width × 55% of body height (node tiles)
//   - Nodes: left width × remaining body height (status table)
//   - Events: remaining width × 65% of body height
//   - Secondary: remaining width × remaining body height
func Calculate(width, height int) Layout {
	if width < 80 || height < 24 {
		return Layout{TooSmall: true}
	}

	bodyH := height - 2 // subtract header + footer rows

	leftW := width * 40 / 100
	if leftW < 32 {
		leftW = 32
	}
	if leftW > 60 {
		leftW = 60
	}
	rightW := width - leftW

	swarmH := bodyH * 55 / 100
	nodesH := bodyH - swarmH

	eventsH := bodyH * 65 / 100
	secH := bodyH - eventsH

	return Layout{
		Header:    Rect{X: 0, Y: 0, Width: width, Height: 1},
		Footer:    Rect{X: 0, Y: height - 1, Width: width, Height: 1},
		Swarm:     Rect{X: 0, Y: 1, Width: leftW, Height: swarmH},
		Nodes:     Rect{X: 0, Y: 1 + swarmH, Width: leftW, Height: nodesH},
		Events:    Rect{X: leftW, Y: 1, Width: rightW, Height: eventsH},
		Secondary: Rect{X: leftW, Y: 1 + eventsH, Width: rightW, Height: secH},
	}
}
