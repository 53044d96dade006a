package domain

import "fmt"

// State identifies a stage of the reasoning pipeline.
type State string

const (
	StateReceived           State = "RECEIVED"
	StateFactsExtracted     State = "FACTS_EXTRACTED"
	StateContextIdentified  State = "CONTEXT_IDENTIFIED"
	StateObligationsDeduced State = "OBLIGATIONS_DEDUCED"
	StateMissingIdentified  State = "MISSING_IDENTIFIED"
	StateRiskEvaluated      State = "RISK_EVALUATED"
	StateActionProposed     State = "ACTION_PROPOSED"
	StateReadyForHuman      State = "READY_FOR_HUMAN"
)

// StateOrder is the canonical progression. Transitions move strictly
// forward through this sequence, one step at a time.
var StateOrder = []State{
	StateReceived,
	StateFactsExtracted,
	StateContextIdentified,
	StateObligationsDeduced,
	StateMissingIdentified,
	StateRiskEvaluated,
	StateActionProposed,
	StateReadyForHuman,
}

// IsValid reports whether s is one of the canonical states.
func (s State) IsValid() bool {
	for _, candidate := range StateOrder {
		if s == candidate {
			return true
		}
	}
	return false
}

// IsFinal reports whether s is the terminal state.
func (s State) IsFinal() bool {
	return s == StateReadyForHuman
}

// Next returns the immediate successor of s in the canonical order.
// It returns ErrAlreadyFinal for the terminal state and an error for
// unrecognized states.
func (s State) Next() (State, error) {
	for i, candidate := range StateOrder {
		if s != candidate {
			continue
		}
		if i == len(StateOrder)-1 {
			return "", ErrAlreadyFinal
		}
		return StateOrder[i+1], nil
	}
	return "", fmt.Errorf("unrecognized state %q", string(s))
}

// CanTransition reports whether to is the immediate successor of from.
func CanTransition(from, to State) bool {
	next, err := from.Next()
	return err == nil && next == to
}

// ParseState validates a raw string against the canonical states.
func ParseState(raw string) (State, error) {
	s := State(raw)
	if !s.IsValid() {
		return "", fmt.Errorf("unrecognized state %q", raw)
	}
	return s, nil
}
