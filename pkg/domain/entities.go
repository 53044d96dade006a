package domain

import (
	"fmt"
	"time"
)

// CertaintyLevel grades a context hypothesis.
type CertaintyLevel string

const (
	CertaintyPossible  CertaintyLevel = "POSSIBLE"
	CertaintyLikely    CertaintyLevel = "LIKELY"
	CertaintyConfirmed CertaintyLevel = "CONFIRMED"
)

// ParseCertaintyLevel validates a raw certainty value.
func ParseCertaintyLevel(raw string) (CertaintyLevel, error) {
	switch CertaintyLevel(raw) {
	case CertaintyPossible, CertaintyLikely, CertaintyConfirmed:
		return CertaintyLevel(raw), nil
	}
	return "", fmt.Errorf("unrecognized certainty level %q", raw)
}

// Severity grades risk impact and probability.
type Severity string

const (
	SeverityLow    Severity = "LOW"
	SeverityMedium Severity = "MEDIUM"
	SeverityHigh   Severity = "HIGH"
)

// severityWeights is the fixed scoring table shared by both risk axes.
var severityWeights = map[Severity]int{
	SeverityLow:    3,
	SeverityMedium: 6,
	SeverityHigh:   9,
}

// ParseSeverity validates a raw impact/probability value.
func ParseSeverity(raw string) (Severity, error) {
	if _, ok := severityWeights[Severity(raw)]; !ok {
		return "", fmt.Errorf("unrecognized severity %q", raw)
	}
	return Severity(raw), nil
}

// Weight returns the scoring weight of the severity (LOW=3, MEDIUM=6, HIGH=9).
func (s Severity) Weight() int {
	return severityWeights[s]
}

// RiskScore derives the composite score, e.g. HIGH impact with MEDIUM
// probability scores 9*6 = 54.
func RiskScore(impact, probability Severity) int {
	return impact.Weight() * probability.Weight()
}

// Priority ranks a proposed action.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityNormal Priority = "NORMAL"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// ParsePriority validates a raw priority value.
func ParsePriority(raw string) (Priority, error) {
	switch Priority(raw) {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return Priority(raw), nil
	}
	return "", fmt.Errorf("unrecognized priority %q", raw)
}

// Fact is an atomic datum extracted from the case intake. Facts are
// immutable once created at FACTS_EXTRACTED.
type Fact struct {
	ID          string  `json:"id"`
	Label       string  `json:"label"`
	Value       string  `json:"value"`
	Source      string  `json:"source"`
	SourceRef   string  `json:"source_ref,omitempty"`
	Confidence  float64 `json:"confidence"`
	ExtractedBy Actor   `json:"extracted_by"`
}

// ContextHypothesis is a candidate legal framing of the matter,
// created at CONTEXT_IDENTIFIED.
type ContextHypothesis struct {
	ID             string         `json:"id"`
	Type           string         `json:"type"`
	Description    string         `json:"description"`
	Reasoning      string         `json:"reasoning"`
	CertaintyLevel CertaintyLevel `json:"certainty_level"`
	IdentifiedBy   Actor          `json:"identified_by"`
}

// Obligation is a legal duty derived from a context hypothesis, created
// at OBLIGATIONS_DEDUCED. ContextID always references a hypothesis of
// the same workspace.
type Obligation struct {
	ID          string     `json:"id"`
	Description string     `json:"description"`
	Mandatory   bool       `json:"mandatory"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	Critical    bool       `json:"critical"`
	LegalRef    string     `json:"legal_ref"`
	ContextID   string     `json:"context_id"`
	DeducedBy   Actor      `json:"deduced_by"`
}

// MissingElement is an identified gap, created at MISSING_IDENTIFIED.
// Resolved is the only field a human may flip afterwards.
type MissingElement struct {
	ID           string `json:"id"`
	Type         string `json:"type"`
	Description  string `json:"description"`
	Why          string `json:"why"`
	Blocking     bool   `json:"blocking"`
	Resolved     bool   `json:"resolved"`
	IdentifiedBy Actor  `json:"identified_by"`
}

// Blocks reports whether the element prevents the pipeline from
// continuing past MISSING_IDENTIFIED.
func (m MissingElement) Blocks() bool {
	return m.Blocking && !m.Resolved
}

// Risk is an evaluated consequence, created at RISK_EVALUATED.
// Score is derived from the impact/probability weights at creation.
type Risk struct {
	ID           string   `json:"id"`
	Description  string   `json:"description"`
	Impact       Severity `json:"impact"`
	Probability  Severity `json:"probability"`
	Score        int      `json:"risk_score"`
	Irreversible bool     `json:"irreversible"`
	EvaluatedBy  Actor    `json:"evaluated_by"`
}

// ProposedAction is an AI-drafted recommendation awaiting human
// approval, created at ACTION_PROPOSED.
type ProposedAction struct {
	ID         string   `json:"id"`
	Type       string   `json:"type"`
	Content    string   `json:"content"`
	Reasoning  string   `json:"reasoning"`
	Target     string   `json:"target"`
	Priority   Priority `json:"priority"`
	ProposedBy Actor    `json:"proposed_by"`
}

// ReasoningTrace is an append-only audit line explaining one reasoning
// step. Never mutated or deleted.
type ReasoningTrace struct {
	ID          string         `json:"id"`
	Step        string         `json:"step"`
	Explanation string         `json:"explanation"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedBy   Actor          `json:"created_by"`
	CreatedAt   time.Time      `json:"created_at"`
}

// Transition is an append-only ledger row recording a successful state
// change. Failed attempts are never recorded.
type Transition struct {
	ID           string    `json:"id"`
	AttemptID    string    `json:"attempt_id"`
	FromState    State     `json:"from_state"`
	ToState      State     `json:"to_state"`
	TriggeredBy  Actor     `json:"triggered_by"`
	Reason       string    `json:"reason"`
	AutoApproved bool      `json:"auto_approved"`
	Timestamp    time.Time `json:"timestamp"`
}
