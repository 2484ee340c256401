// Package clock provides the monotonic millisecond time source that drives
// the firefly oscillator and the pattern compositor.
package clock

import (
	"sync"
	"time"
)

// Clock is a read-only monotonic time source. Readings are offsets from an
// arbitrary origin and only make sense relative to each other.
type Clock interface {
	Now() time.Duration
}

// Monotonic reads the process monotonic clock relative to its creation.
type Monotonic struct {
	start time.Time
}

// NewMonotonic creates a Monotonic clock whose origin is now.
func NewMonotonic() *Monotonic {
	return &Monotonic{start: time.Now()}
}

// Now returns the time elapsed since the clock was created.
func (m *Monotonic) Now() time.Duration {
	return time.Since(m.start)
}

// Manual is a controllable clock for tests and deterministic simulations.
// When Step is non-zero, every call to Now advances the clock by Step after
// reading it, which lets a busy render loop make progress without sleeping.
type Manual struct {
	mu   sync.Mutex
	now  time.Duration
	step time.Duration
}

// NewManual creates a Manual clock starting at start.
func NewManual(start time.Duration) *Manual {
	return &Manual{now: start}
}

// Now returns the current reading, then applies the auto-step if set.
func (m *Manual) Now() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.now
	m.now += m.step
	return t
}

// Set moves the clock to t.
func (m *Manual) Set(t time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = t
}

// Advance moves the clock forward by d.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now += d
}

// SetStep configures the auto-advance applied after each Now call.
func (m *Manual) SetStep(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.step = d
}
