// Package display provides the pattern back-ends: in-memory grid and strip
// displays that the dashboard can snapshot, and an APA102 strip on SPI.
package display

import (
	"sync"

	"github.com/LISSConsulting/LISSTech.Luciole/internal/pattern"
)

// GridSize is the edge length of the square LED matrix.
const GridSize = 5

// Grid is an in-memory 5x5 brightness matrix. Writes come from the node
// goroutine; Snapshot may be called from anywhere.
type Grid struct {
	mu    sync.Mutex
	cells [GridSize][GridSize]uint8
}

// NewGrid returns a dark grid.
func NewGrid() *Grid { return &Grid{} }

// Size returns the matrix dimensions.
func (g *Grid) Size() (int, int) { return GridSize, GridSize }

// SetBrightness sets one cell. Out-of-range coordinates are ignored.
func (g *Grid) SetBrightness(x, y int, b uint8) {
	if x < 0 || y < 0 || x >= GridSize || y >= GridSize {
		return
	}
	g.mu.Lock()
	g.cells[y][x] = b
	g.mu.Unlock()
}

// Clear turns every cell off.
func (g *Grid) Clear() {
	g.mu.Lock()
	g.cells = [GridSize][GridSize]uint8{}
	g.mu.Unlock()
}

// Snapshot copies the matrix, rows first.
func (g *Grid) Snapshot() [GridSize][GridSize]uint8 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cells
}

// Level returns the brightest cell; the compositor drives all cells alike.
func (g *Grid) Level() uint8 {
	g.mu.Lock()
	defer g.mu.Unlock()
	var top uint8
	for _, row := range g.cells {
		for _, b := range row {
			if b > top {
				top = b
			}
		}
	}
	return top
}

// Strip is an in-memory addressable RGB strip. SetPixel writes a back
// buffer; Show publishes it.
type Strip struct {
	mu    sync.Mutex
	back  []pattern.Color
	front []pattern.Color
}

// NewStrip returns a dark strip of n pixels.
func NewStrip(n int) *Strip {
	if n < 0 {
		n = 0
	}
	return &Strip{
		back:  make([]pattern.Color, n),
		front: make([]pattern.Color, n),
	}
}

// Len returns the pixel count.
func (s *Strip) Len() int { return len(s.back) }

// SetPixel stages a pixel for the next Show.
func (s *Strip) SetPixel(i int, c pattern.Color) {
	if i < 0 || i >= len(s.back) {
		return
	}
	s.mu.Lock()
	s.back[i] = c
	s.mu.Unlock()
}

// Show publishes the staged pixels.
func (s *Strip) Show() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copy(s.front, s.back)
	return nil
}

// ShowColor fills and publishes the whole strip with c.
func (s *Strip) ShowColor(c pattern.Color) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.back {
		s.back[i] = c
		s.front[i] = c
	}
	return nil
}

// Snapshot copies the published pixels.
func (s *Strip) Snapshot() []pattern.Color {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]pattern.Color, len(s.front))
	copy(out, s.front)
	return out
}
