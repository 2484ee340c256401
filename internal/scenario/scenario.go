// Package scenario loads YAML timelines of remote-control actions and
// replays them against a running swarm.
//
//	name: converge-then-scatter
//	duration: 90s
//	steps:
//	  - at: 40s
//	    button: b            # broadcast desync-sync-off from the remote
//	  - at: 45s
//	    button: a
//	    node: 3              # node 3 presses its own button A
//	  - at: 70s
//	    command: sync
package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/LISSConsulting/LISSTech.Luciole/internal/firefly"
	"github.com/LISSConsulting/LISSTech.Luciole/internal/protocol"
)

// Scenario is a named, time-ordered list of steps.
type Scenario struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	Duration    time.Duration `yaml:"duration"` // 0 = run until stopped
	Steps       []Step        `yaml:"steps"`
}

// Step is one action at an offset from the start of the run. Exactly one of
// Command or Button is set. Without Node, the action comes from the
// standalone remote; with Node, that node acts.
type Step struct {
	At      time.Duration `yaml:"at"`
	Command string        `yaml:"command,omitempty"`
	Button  string        `yaml:"button,omitempty"`
	Node    *int          `yaml:"node,omitempty"`
	Note    string        `yaml:"note,omitempty"`
}

// Code returns the code this step broadcasts. Button A maps to SyncOn and
// button B to DesyncSyncOff.
func (s Step) Code() (protocol.Code, error) {
	if s.Command != "" {
		return protocol.Parse(s.Command)
	}
	b, err := ParseButton(s.Button)
	if err != nil {
		return 0, err
	}
	if b == firefly.ButtonB {
		return protocol.DesyncSyncOff, nil
	}
	return protocol.SyncOn, nil
}

// IsButton reports whether the step is a button press.
func (s Step) IsButton() bool { return s.Button != "" }

// String describes the step for logs.
func (s Step) String() string {
	who := "remote"
	if s.Node != nil {
		who = fmt.Sprintf("node %d", *s.Node)
	}
	what := "command " + s.Command
	if s.IsButton() {
		what = "button " + strings.ToUpper(s.Button)
	}
	return fmt.Sprintf("%s: %s %s", s.At, who, what)
}

// ParseButton accepts "a" or "b" in any case.
func ParseButton(s string) (firefly.Button, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "a":
		return firefly.ButtonA, nil
	case "b":
		return firefly.ButtonB, nil
	}
	return 0, fmt.Errorf("scenario: unknown button %q (want a or b)", s)
}

// Parse decodes and validates a scenario. Unknown fields are rejected and
// steps are sorted by time.
func Parse(data []byte) (*Scenario, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var sc Scenario
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("scenario: parse: %w", err)
	}
	sort.SliceStable(sc.Steps, func(i, j int) bool { return sc.Steps[i].At < sc.Steps[j].At })
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Load reads and parses a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scenario: read %s: %w", path, err)
	}
	sc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if sc.Name == "" {
		sc.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return sc, nil
}

// Validate reports every malformed step.
func (sc *Scenario) Validate() error {
	var errs []error
	if sc.Duration < 0 {
		errs = append(errs, fmt.Errorf("duration must be >= 0"))
	}
	for i, s := range sc.Steps {
		switch {
		case s.At < 0:
			errs = append(errs, fmt.Errorf("steps[%d].at must be >= 0", i))
		case sc.Duration > 0 && s.At > sc.Duration:
			errs = append(errs, fmt.Errorf("steps[%d].at %s is after duration %s", i, s.At, sc.Duration))
		}
		if (s.Command == "") == (s.Button == "") {
			errs = append(errs, fmt.Errorf("steps[%d] must set exactly one of command or button", i))
			continue
		}
		if _, err := s.Code(); err != nil {
			errs = append(errs, fmt.Errorf("steps[%d]: %w", i, err))
		}
		if s.Node != nil && *s.Node < 0 {
			errs = append(errs, fmt.Errorf("steps[%d].node must be >= 0", i))
		}
		if s.Node != nil && !s.IsButton() {
			errs = append(errs, fmt.Errorf("steps[%d]: node is only valid with button", i))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("scenario: %w", errors.Join(errs...))
	}
	return nil
}

// MaxNode returns the highest node index referenced, or -1.
func (sc *Scenario) MaxNode() int {
	top := -1
	for _, s := range sc.Steps {
		if s.Node != nil && *s.Node > top {
			top = *s.Node
		}
	}
	return top
}

// Cursor walks a scenario's steps in time order.
type Cursor struct {
	steps []Step
	next  int
}

// Cursor starts a replay from the first step.
func (sc *Scenario) Cursor() *Cursor {
	return &Cursor{steps: sc.Steps}
}

// Due returns the steps whose time has come at elapsed and advances past
// them.
func (c *Cursor) Due(elapsed time.Duration) []Step {
	start := c.next
	for c.next < len(c.steps) && c.steps[c.next].At <= elapsed {
		c.next++
	}
	return c.steps[start:c.next]
}

// Remaining returns the number of steps not yet returned by Due.
func (c *Cursor) Remaining() int { return len(c.steps) - c.next }

// Done reports whether every step has been returned.
func (c *Cursor) Done() bool { return c.next >= len(c.steps) }
