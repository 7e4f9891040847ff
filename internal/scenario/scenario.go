// Package scenario defines replayable conformance scenarios: a timeline of
// host VM phase changes and native method bind deliveries, with an optional
// expectation block checked after the run. Scenarios load from YAML, JSON,
// or TOML files and replay against a simulated VM with an attached
// verification session.
package scenario

import (
	"fmt"

	"bindprobe/pkg/types"
)

// BindStep delivers bind notifications, optionally from several goroutines.
type BindStep struct {
	// Count is the number of bind notifications to deliver.
	Count int `json:"count" yaml:"count" toml:"count"`
	// Workers is the number of concurrent delivery goroutines (default 1).
	Workers int `json:"workers,omitempty" yaml:"workers,omitempty" toml:"workers,omitempty"`
	// Thread names the delivering thread for single-worker steps.
	Thread string `json:"thread,omitempty" yaml:"thread,omitempty" toml:"thread,omitempty"`
}

// Step is one scenario step: exactly one of Phase or Bind must be set.
type Step struct {
	// Phase moves the VM to the named lifecycle phase.
	Phase string `json:"phase,omitempty" yaml:"phase,omitempty" toml:"phase,omitempty"`
	// Bind delivers bind notifications in the current phase.
	Bind *BindStep `json:"bind,omitempty" yaml:"bind,omitempty" toml:"bind,omitempty"`
}

// Expect is the outcome the scenario author asserts. A run whose outcome
// differs fails with a mismatch error.
type Expect struct {
	ExitCode   int    `json:"exit_code" yaml:"exit_code" toml:"exit_code"`
	OutOfPhase uint64 `json:"out_of_phase" yaml:"out_of_phase" toml:"out_of_phase"`
}

// Scenario is a named, replayable event timeline. VM death is implicit
// after the last step.
type Scenario struct {
	ID          string  `json:"id" yaml:"id" toml:"id"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
	Steps       []Step  `json:"steps" yaml:"steps" toml:"steps"`
	Expect      *Expect `json:"expect,omitempty" yaml:"expect,omitempty" toml:"expect,omitempty"`
}

// Validate checks structural soundness. An empty step list is valid: the
// scenario then only exercises the shutdown path.
func (s *Scenario) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("scenario has no id")
	}
	for i, st := range s.Steps {
		hasPhase := st.Phase != ""
		hasBind := st.Bind != nil
		if hasPhase == hasBind {
			return fmt.Errorf("scenario %s step %d: exactly one of phase or bind required", s.ID, i)
		}
		if hasPhase && !types.KnownPhase(st.Phase) {
			return fmt.Errorf("scenario %s step %d: unknown phase %q", s.ID, i, st.Phase)
		}
		if hasBind {
			if st.Bind.Count < 1 {
				return fmt.Errorf("scenario %s step %d: bind count must be >= 1", s.ID, i)
			}
			if st.Bind.Workers < 0 {
				return fmt.Errorf("scenario %s step %d: negative worker count", s.ID, i)
			}
		}
	}
	return nil
}

// Registry is an id-keyed collection of scenarios.
type Registry struct {
	list []*Scenario
	byID map[string]*Scenario
}

// Get returns the scenario with the given id.
func (r *Registry) Get(id string) (*Scenario, error) {
	if sc, ok := r.byID[id]; ok {
		return sc, nil
	}
	return nil, notFoundError{id: id}
}

// List returns scenarios in load order (sorted by filename).
func (r *Registry) List() []*Scenario {
	out := make([]*Scenario, len(r.list))
	copy(out, r.list)
	return out
}

// Len returns the number of registered scenarios.
func (r *Registry) Len() int { return len(r.list) }
