// Package runstate gates the legal phase sequence of a run.
//
// The machine only validates and records: the Run Controller owns it and
// decides when transitions are requested. History is append-only and is
// the single source of truth for how a run reached its current phase.
package runstate

import (
	"fmt"
	"time"
)

// State is one phase of a run.
type State string

const (
	StateMenu           State = "menu"
	StateStarterSelect  State = "starter_select"
	StateOpponentSelect State = "opponent_select"
	StateTeamPrep       State = "team_prep"
	StateBattle         State = "battle"
	StateRewards        State = "rewards"
	StateRecruit        State = "recruit"
	StateDefeat         State = "defeat"
)

// transitions is the closed table of legal edges. No implicit self-loops.
var transitions = map[State][]State{
	StateMenu:           {StateStarterSelect},
	StateStarterSelect:  {StateOpponentSelect},
	StateOpponentSelect: {StateTeamPrep},
	StateTeamPrep:       {StateBattle},
	StateBattle:         {StateRewards, StateDefeat},
	StateRewards:        {StateRecruit},
	StateRecruit:        {StateOpponentSelect},
	StateDefeat:         {StateMenu},
}

// Transition is one recorded edge in a run's history.
type Transition struct {
	From State     `json:"from"`
	To   State     `json:"to"`
	At   time.Time `json:"timestamp"`
}

// InvalidTransitionError reports a rejected edge. The machine is left
// untouched when it is returned.
type InvalidTransitionError struct {
	From   State
	Target State
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition %s -> %s", e.From, e.Target)
}

// Machine tracks the current run phase and its transition history.
type Machine struct {
	current State
	history []Transition
	clock   func() time.Time
}

// New creates a machine in the menu phase.
func New() *Machine {
	return NewWithClock(time.Now)
}

// NewWithClock creates a machine with an injected clock, used by tests
// and anywhere history timestamps must be reproducible.
func NewWithClock(clock func() time.Time) *Machine {
	return &Machine{current: StateMenu, clock: clock}
}

// Current returns the current phase.
func (m *Machine) Current() State {
	return m.current
}

// History returns a copy of the recorded transitions.
func (m *Machine) History() []Transition {
	out := make([]Transition, len(m.history))
	copy(out, m.history)
	return out
}

// CanTransitionTo reports whether target is legal from the current phase.
// It is a pure query with no side effects.
func (m *Machine) CanTransitionTo(target State) bool {
	for _, s := range transitions[m.current] {
		if s == target {
			return true
		}
	}
	return false
}

// TransitionTo moves to target, appending to history. On failure the
// current phase and history are unchanged.
func (m *Machine) TransitionTo(target State) error {
	if !m.CanTransitionTo(target) {
		return &InvalidTransitionError{From: m.current, Target: target}
	}
	m.history = append(m.history, Transition{From: m.current, To: target, At: m.clock()})
	m.current = target
	return nil
}

// Reset returns the machine to menu with empty history. It is meant for
// run start only, never mid-run.
func (m *Machine) Reset() {
	m.current = StateMenu
	m.history = nil
}

// Restore rebuilds a machine from persisted state. The history is taken
// verbatim; only the current phase is validated against the known set.
func (m *Machine) Restore(current State, history []Transition) error {
	if _, ok := transitions[current]; !ok {
		return fmt.Errorf("unknown state %q", current)
	}
	m.current = current
	m.history = make([]Transition, len(history))
	copy(m.history, history)
	return nil
}
