package firefly

import (
	"fmt"
	"strings"
	"time"

	"github.com/LISSConsulting/LISSTech.Luciole/internal/pattern"
)

// CouplingMode selects how a node reacts to an accepted neighbor flash.
type CouplingMode string

const (
	CouplingProportional CouplingMode = "proportional"
	CouplingConstant     CouplingMode = "constant"
	CouplingNear         CouplingMode = "near"
	CouplingDelay        CouplingMode = "delay"
	CouplingNone         CouplingMode = "none"
)

// Defaults for the coupling presets.
const (
	DefaultGain    = 7.0
	DefaultAdvance = 100 * time.Millisecond
	DefaultWindow  = 200 * time.Millisecond
)

// ParseCouplingMode validates a mode name.
func ParseCouplingMode(s string) (CouplingMode, error) {
	m := CouplingMode(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case CouplingProportional, CouplingConstant, CouplingNear, CouplingDelay, CouplingNone:
		return m, nil
	}
	return "", fmt.Errorf("firefly: unknown coupling mode %q", s)
}

// Coupling is a ready-made neighbor-flash reaction.
type Coupling struct {
	Mode    CouplingMode
	Gain    float64       // proportional, percent
	Advance time.Duration // constant
	Window  time.Duration // near
}

// DefaultCoupling is proportional advance with a 7 % gain.
func DefaultCoupling() Coupling {
	return Coupling{
		Mode:    CouplingProportional,
		Gain:    DefaultGain,
		Advance: DefaultAdvance,
		Window:  DefaultWindow,
	}
}

// Hook returns the OnNeighborFlash function for n, or nil for "none".
func (c Coupling) Hook(n *Node) func() {
	switch c.Mode {
	case CouplingProportional:
		return func() { n.ctrl.AdvancePhaseProportional(n.clock.Now(), c.Gain) }
	case CouplingConstant:
		return func() { n.ctrl.AdvancePhaseConstant(c.Advance) }
	case CouplingNear:
		return func() { n.ctrl.AdvancePhaseIfNear(n.clock.Now(), c.Window) }
	case CouplingDelay:
		return func() { n.ctrl.DelayPhase(n.clock.Now()) }
	default:
		return nil
	}
}

// Install installs a complete user program on n: prog is enqueued on every
// flash and c reacts to neighbor flashes.
func Install(n *Node, prog pattern.Program, c Coupling) {
	n.SetHooks(Hooks{
		OnFlash:         prog.Enqueue,
		OnNeighborFlash: c.Hook(n),
	})
}
