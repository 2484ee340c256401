package pattern

// Queue collects the pulses enqueued by the flash hook for the current
// cycle. It is owned by the node goroutine and is not safe for concurrent
// use.
type Queue struct {
	grid  []GridPulse
	strip []StripPulse
}

// EnqueueGrid appends a grid pulse.
func (q *Queue) EnqueueGrid(p GridPulse) {
	q.grid = append(q.grid, p)
}

// EnqueueStrip appends a strip pulse.
func (q *Queue) EnqueueStrip(p StripPulse) {
	q.strip = append(q.strip, p)
}

// Clear empties both sequences, keeping their backing storage.
func (q *Queue) Clear() {
	q.grid = q.grid[:0]
	q.strip = q.strip[:0]
}

// GridPulses returns the queued grid pulses in arrival order.
func (q *Queue) GridPulses() []GridPulse {
	return q.grid
}

// StripPulses returns the queued strip pulses in arrival order.
func (q *Queue) StripPulses() []StripPulse {
	return q.strip
}

// Len returns the total number of queued pulses.
func (q *Queue) Len() int {
	return len(q.grid) + len(q.strip)
}
