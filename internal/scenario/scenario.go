package scenario

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Step actions.
const (
	ActionJam     = "jam"
	ActionHijack  = "hijack"
	ActionRestore = "restore"
)

// Scenario is a timed script of attack steps replayed against the swarm.
type Scenario struct {
	Name        string `yaml:"name,omitempty"`
	Description string `yaml:"description,omitempty"`
	Steps       []Step `yaml:"steps"`
}

// Step fires Action at the start of tick At (the first tick is 1). A nil Target lets the simulator pick one;
// negative targets count back from the last drone, so -1 is the END drone.
type Step struct {
	At     int64  `yaml:"at"`
	Action string `yaml:"action"`
	Target *int   `yaml:"target,omitempty"`
}

// Load reads a YAML scenario definition from disk.
func Load(path string) (*Scenario, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return Parse(b)
}

// Parse decodes and validates a YAML scenario.
func Parse(b []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	s.sort()
	return &s, nil
}

// Validate checks every step for a known action and a tick of at least 1.
func (s *Scenario) Validate() error {
	for i, st := range s.Steps {
		switch st.Action {
		case ActionJam, ActionHijack, ActionRestore:
		default:
			return fmt.Errorf("step %d: unknown action %q", i, st.Action)
		}
		if st.At < 1 {
			return fmt.Errorf("step %d: tick must be at least 1, got %d", i, st.At)
		}
	}
	return nil
}

func (s *Scenario) sort() {
	sort.SliceStable(s.Steps, func(i, j int) bool { return s.Steps[i].At < s.Steps[j].At })
}

// Due returns the steps scheduled for tick, in script order.
func (s *Scenario) Due(tick int64) []Step {
	if s == nil {
		return nil
	}
	var out []Step
	for _, st := range s.Steps {
		if st.At == tick {
			out = append(out, st)
		}
	}
	return out
}

// Resolve returns the built-in scenario called nameOrPath, or loads it from
// disk when no built-in matches.
func Resolve(nameOrPath string) (*Scenario, error) {
	if sc, ok := BuiltIn()[nameOrPath]; ok {
		return &sc, nil
	}
	return Load(nameOrPath)
}
