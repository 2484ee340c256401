// Package firefly implements a synchronizing firefly node: the oscillator
// that decides when to flash, the phase nudges neighbors apply to it, and
// the protocol handler reacting to coordination codes.
package firefly

import (
	"math"
	"time"
)

// Defaults applied by NewController.
const (
	DefaultPeriod = 5 * time.Second

	// initialLastFlash puts the first flash two periods in the past so a
	// freshly started node flashes on its first tick.
	initialLastFlash = -10 * time.Second
)

// Rand is the random source used to randomize phase. *rand.Rand from
// math/rand/v2 satisfies it.
type Rand interface {
	Float64() float64
}

// Controller owns the oscillator state of one firefly. Every phase shift is
// expressed as a mutation of LastFlash. It is not safe for concurrent use;
// the owning node is its only writer.
type Controller struct {
	period      time.Duration
	lastFlash   time.Duration
	syncEnabled bool
	flashing    bool
}

// NewController returns a controller with the default period, sync enabled,
// and a flash due immediately.
func NewController() *Controller {
	return &Controller{
		period:      DefaultPeriod,
		lastFlash:   initialLastFlash,
		syncEnabled: true,
	}
}

// Period returns the configured period.
func (c *Controller) Period() time.Duration { return c.period }

// LastFlash returns the origin of the current cycle.
func (c *Controller) LastFlash() time.Duration { return c.lastFlash }

// SyncEnabled reports whether neighbor flashes are reacted to.
func (c *Controller) SyncEnabled() bool { return c.syncEnabled }

// Flashing reports whether a flash animation is being rendered.
func (c *Controller) Flashing() bool { return c.flashing }

// SetPeriod replaces the period. p must be positive; elapsed phase is not
// rescaled.
func (c *Controller) SetPeriod(p time.Duration) {
	c.period = p
}

// SetLastFlash sets the cycle origin directly.
func (c *Controller) SetLastFlash(t time.Duration) {
	c.lastFlash = t
}

// SetSyncEnabled turns the reaction to neighbor flashes on or off.
func (c *Controller) SetSyncEnabled(on bool) {
	c.syncEnabled = on
}

// SetFlashing marks the start or end of a flash animation.
func (c *Controller) SetFlashing(on bool) {
	c.flashing = on
}

// IsDue reports whether a flash is due at now.
func (c *Controller) IsDue(now time.Duration) bool {
	return now >= c.lastFlash+c.period
}

// DueIn returns how long until the next flash; negative when overdue.
func (c *Controller) DueIn(now time.Duration) time.Duration {
	return c.lastFlash + c.period - now
}

// Phase returns the elapsed fraction of the current period, clamped to
// [0,1].
func (c *Controller) Phase(now time.Duration) float64 {
	if c.period <= 0 {
		return 0
	}
	f := float64(now-c.lastFlash) / float64(c.period)
	return math.Min(1, math.Max(0, f))
}

// MarkFlashed starts a new cycle at now.
func (c *Controller) MarkFlashed(now time.Duration) {
	c.lastFlash = now
}

// FlashNow moves the cycle origin two periods back so the next due check
// fires whatever the current phase.
func (c *Controller) FlashNow() {
	c.lastFlash -= 2 * c.period
}

// AdvancePhaseProportional is the coupled-oscillator response to a neighbor
// flash: the phase jumps forward by k percent of its current value, capped
// at exactly due.
func (c *Controller) AdvancePhaseProportional(now time.Duration, k float64) {
	elapsed := now - c.lastFlash
	clock := (1 + k/100) * float64(elapsed) / float64(c.period)
	if clock > 1 {
		clock = 1
	}
	// An overdue node stays overdue; the clamp must not pull its flash later.
	if last := now - time.Duration(math.Round(clock*float64(c.period))); last < c.lastFlash {
		c.lastFlash = last
	}
}

// AdvancePhaseConstant moves the next flash d earlier.
func (c *Controller) AdvancePhaseConstant(d time.Duration) {
	c.lastFlash -= d
}

// AdvancePhaseIfNear calls FlashNow when now is within window of the next
// scheduled flash, and does nothing otherwise.
func (c *Controller) AdvancePhaseIfNear(now, window time.Duration) {
	if now >= c.lastFlash+c.period-window {
		c.FlashNow()
	}
}

// DelayPhase restarts the cycle at now, pushing the next flash a full
// period away.
func (c *Controller) DelayPhase(now time.Duration) {
	c.lastFlash = now
}

// ForceSyncNow schedules the next flash one period sooner.
func (c *Controller) ForceSyncNow() {
	c.lastFlash -= c.period
}

// RandomizePhase places the cycle origin uniformly within the last period.
func (c *Controller) RandomizePhase(now time.Duration, rng Rand) {
	c.lastFlash = now - time.Duration(rng.Float64()*float64(c.period))
}
