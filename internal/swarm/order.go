package swarm

import (
	"fmt"
	"math"
	"math/cmplx"
	"time"
)

// Thresholds for sync/desync transition detection.
const (
	DefaultSyncThreshold = 0.95
	DefaultHysteresis    = 0.15
)

// OrderParameter is the Kuramoto order parameter r = |mean(exp(2πi·phase))|
// of phases given as fractions of a period. 1 is perfect synchrony; a
// uniformly scattered swarm tends to 0. It returns 0 for no phases.
func OrderParameter(phases []float64) float64 {
	if len(phases) == 0 {
		return 0
	}
	var sum complex128
	for _, p := range phases {
		sum += cmplx.Exp(complex(0, 2*math.Pi*p))
	}
	return cmplx.Abs(sum) / float64(len(phases))
}

// TransitionKind distinguishes the two swarm transitions.
type TransitionKind int

const (
	TransitionSynced TransitionKind = iota
	TransitionScattered
)

// String returns "synchronized" or "scattered".
func (k TransitionKind) String() string {
	if k == TransitionScattered {
		return "scattered"
	}
	return "synchronized"
}

// Transition is reported when the order parameter crosses the sync
// threshold upward, or drops below threshold minus hysteresis afterwards.
type Transition struct {
	Kind      TransitionKind
	Order     float64
	Elapsed   time.Duration
	Timestamp time.Time
}

// Message is the human-readable form used for logs and notifications.
func (t Transition) Message() string {
	return fmt.Sprintf("swarm %s (r=%.2f after %s)", t.Kind, t.Order, t.Elapsed.Round(time.Second))
}

// detector turns order parameter samples into transitions. It starts in
// the scattered state and never reports the initial state.
type detector struct {
	threshold  float64
	hysteresis float64
	synced     bool
}

func (d *detector) observe(r float64) (TransitionKind, bool) {
	switch {
	case !d.synced && r >= d.threshold:
		d.synced = true
		return TransitionSynced, true
	case d.synced && r < d.threshold-d.hysteresis:
		d.synced = false
		return TransitionScattered, true
	}
	return 0, false
}
