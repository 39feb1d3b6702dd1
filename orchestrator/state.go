package orchestrator

import "fmt"

// State is one phase of a turn's lifecycle. Single-persona and crew turns
// share one validation path instead of reimplementing it per mode.
type State string

const (
	StateIdle          State = "idle"
	StateValidating    State = "validating"
	StateSinglePersona State = "single_persona"
	StateCrewMode      State = "crew_mode"
	StateCompleted     State = "completed"
	StateFailed        State = "failed"
)

// validTransitions defines the legal turn state transitions.
var validTransitions = map[State][]State{
	StateIdle:          {StateValidating},
	StateValidating:    {StateSinglePersona, StateCrewMode, StateFailed},
	StateSinglePersona: {StateCompleted, StateFailed},
	StateCrewMode:      {StateCompleted, StateFailed},
	StateCompleted:     {},
	StateFailed:        {},
}

// CanTransition reports whether from -> to is a legal transition.
func CanTransition(from, to State) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ErrInvalidTransition reports an illegal state transition.
type ErrInvalidTransition struct {
	From State
	To   State
}

func (e ErrInvalidTransition) Error() string {
	return fmt.Sprintf("invalid turn transition: %s -> %s", e.From, e.To)
}

// Turn tracks the state of one orchestration call.
type Turn struct {
	State     State
	Mode      Mode
	MeetingID string
	PersonaID string
}

// advance moves the turn to the next state, panicking on an illegal
// transition: the transition table is part of the orchestrator's own
// control flow, so a violation is a programming error, not input.
func (t *Turn) advance(to State) {
	if !CanTransition(t.State, to) {
		panic(ErrInvalidTransition{From: t.State, To: to})
	}
	t.State = to
}

// Terminal reports whether the turn has finished, successfully or not.
func (t *Turn) Terminal() bool {
	return t.State == StateCompleted || t.State == StateFailed
}
