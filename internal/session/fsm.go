package session

import (
	"sync"

	"github.com/voltlint/voltlint/pkg/schema"
)

// State is a validation session lifecycle state.
type State string

const (
	// StateIdle means no evaluation is pending.
	StateIdle State = "idle"
	// StateDebouncing means a mutation was observed and a timer is armed.
	StateDebouncing State = "debouncing"
)

// ValidTransitions defines the allowed session state transitions.
// Debouncing -> Debouncing models rearming the timer on a new mutation.
var ValidTransitions = map[State][]State{
	StateIdle:       {StateDebouncing},
	StateDebouncing: {StateIdle, StateDebouncing},
}

// FSM manages session lifecycle state transitions.
type FSM struct {
	mu    sync.Mutex
	state State
}

// NewFSM creates an FSM starting in StateIdle.
func NewFSM() *FSM {
	return &FSM{state: StateIdle}
}

// State returns the current state.
func (f *FSM) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Transition validates and executes a state transition.
func (f *FSM) Transition(to State) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !isValidTransition(f.state, to) {
		return schema.NewErrorf(schema.ErrCodeInvalidTransition,
			"invalid session transition: %s -> %s", f.state, to).
			WithDetails(map[string]any{"from": string(f.state), "to": string(to)})
	}
	f.state = to
	return nil
}

func isValidTransition(from, to State) bool {
	allowed, ok := ValidTransitions[from]
	if !ok {
		return false
	}
	for _, a := range allowed {
		if a == to {
			return true
		}
	}
	return false
}
