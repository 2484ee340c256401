package pattern

// Program is a fixed set of pulses enqueued on every flash. It is the
// configured stand-in for a hand-written flash hook.
type Program struct {
	Grid  []GridPulse
	Strip []StripPulse
}

// Enqueue appends every pulse of the program to q, grid pulses first.
func (p Program) Enqueue(q *Queue) {
	for _, g := range p.Grid {
		q.EnqueueGrid(g)
	}
	for _, s := range p.Strip {
		q.EnqueueStrip(s)
	}
}

// DefaultProgram returns one grid pulse and one strip pulse with the
// default parameters.
func DefaultProgram() Program {
	return Program{
		Grid:  []GridPulse{NewGridPulse(DefaultGridDuration, 0, DefaultGridLuminance)},
		Strip: []StripPulse{NewStripPulse(DefaultStripDuration, 0, DefaultStripWidth, DefaultStripColor)},
	}
}
