package domain

import "time"

// Workspace is the per-case container holding the pipeline state and
// every entity derived so far. It is owned exclusively by the engine
// and mutated only through transition applies; child collections share
// its lifetime.
type Workspace struct {
	ID               string  `json:"id"`
	CurrentState     State   `json:"current_state"`
	UncertaintyLevel float64 `json:"uncertainty_level"`
	Locked           bool    `json:"locked"`

	StateChangedAt time.Time `json:"state_changed_at"`
	StateChangedBy Actor     `json:"state_changed_by"`

	// Revision increments on every mutation. Stores use it to reject
	// applies that raced a concurrent writer.
	Revision int64 `json:"revision"`

	Facts           []Fact              `json:"facts,omitempty"`
	Contexts        []ContextHypothesis `json:"contexts,omitempty"`
	Obligations     []Obligation        `json:"obligations,omitempty"`
	MissingElements []MissingElement    `json:"missing_elements,omitempty"`
	Risks           []Risk              `json:"risks,omitempty"`
	Actions         []ProposedAction    `json:"actions,omitempty"`

	Traces      []ReasoningTrace `json:"traces,omitempty"`
	Transitions []Transition     `json:"transitions,omitempty"`
}

// NewWorkspace creates a clean workspace in the initial state.
func NewWorkspace(id string, createdBy Actor, now time.Time) *Workspace {
	return &Workspace{
		ID:             id,
		CurrentState:   StateReceived,
		Locked:         false,
		StateChangedAt: now,
		StateChangedBy: createdBy,
		Revision:       1,
	}
}

// ContextByID looks up a context hypothesis of this workspace.
func (w *Workspace) ContextByID(id string) (ContextHypothesis, bool) {
	for _, c := range w.Contexts {
		if c.ID == id {
			return c, true
		}
	}
	return ContextHypothesis{}, false
}

// BlockingMissing returns the unresolved blocking gaps, the condition
// that halts a full reasoning run at MISSING_IDENTIFIED.
func (w *Workspace) BlockingMissing() []MissingElement {
	var blocking []MissingElement
	for _, m := range w.MissingElements {
		if m.Blocks() {
			blocking = append(blocking, m)
		}
	}
	return blocking
}

// Clone returns a deep copy so stores can hand out snapshots without
// aliasing their internal aggregate.
func (w *Workspace) Clone() *Workspace {
	copied := *w
	copied.Facts = append([]Fact(nil), w.Facts...)
	copied.Contexts = append([]ContextHypothesis(nil), w.Contexts...)
	copied.Obligations = append([]Obligation(nil), w.Obligations...)
	copied.MissingElements = append([]MissingElement(nil), w.MissingElements...)
	copied.Risks = append([]Risk(nil), w.Risks...)
	copied.Actions = append([]ProposedAction(nil), w.Actions...)
	copied.Traces = append([]ReasoningTrace(nil), w.Traces...)
	copied.Transitions = append([]Transition(nil), w.Transitions...)
	return &copied
}
