package domain

import "time"

// EntityDelta is the set of rows materialized by one transition. At
// most one collection is populated per target state; a state whose
// provider response carries zero items yields an empty delta, which is
// valid.
type EntityDelta struct {
	Facts           []Fact              `json:"facts,omitempty"`
	Contexts        []ContextHypothesis `json:"contexts,omitempty"`
	Obligations     []Obligation        `json:"obligations,omitempty"`
	MissingElements []MissingElement    `json:"missing_elements,omitempty"`
	Risks           []Risk              `json:"risks,omitempty"`
	Actions         []ProposedAction    `json:"actions,omitempty"`
}

// Count returns the number of rows in the delta.
func (d *EntityDelta) Count() int {
	if d == nil {
		return 0
	}
	return len(d.Facts) + len(d.Contexts) + len(d.Obligations) +
		len(d.MissingElements) + len(d.Risks) + len(d.Actions)
}

// TransitionApply is the atomic changeset of one successful transition:
// materialized entities, the workspace field update, the ledger row and
// the reasoning traces. A store applies it all-or-nothing.
type TransitionApply struct {
	// ExpectedState and ExpectedRevision guard against concurrent
	// writers; the apply fails without side effects when either drifted.
	ExpectedState    State
	ExpectedRevision int64

	NewState State
	// UncertaintyLevel is nil when the provider did not report one, in
	// which case the workspace value is left unchanged.
	UncertaintyLevel *float64
	ChangedAt        time.Time
	ChangedBy        Actor

	Delta      EntityDelta
	Transition Transition
	Traces     []ReasoningTrace
}

// TransitionResult is what a successful ExecuteTransition returns.
type TransitionResult struct {
	WorkspaceID      string           `json:"workspace_id"`
	NewState         State            `json:"new_state"`
	UncertaintyLevel float64          `json:"uncertainty_level"`
	Data             EntityDelta      `json:"data"`
	Traces           []ReasoningTrace `json:"traces,omitempty"`
}

// StepOutcome records one step of a full reasoning run.
type StepOutcome struct {
	State            State   `json:"state"`
	UncertaintyLevel float64 `json:"uncertainty_level"`
}

// RunResult is what ExecuteFullReasoning returns. HaltedOnMissing is
// set when the run stopped at MISSING_IDENTIFIED because a blocking
// unresolved gap needs human input; that is a normal stop, not an error.
type RunResult struct {
	WorkspaceID     string        `json:"workspace_id"`
	FinalState      State         `json:"final_state"`
	Steps           []StepOutcome `json:"steps"`
	HaltedOnMissing bool          `json:"halted_on_missing"`
}
