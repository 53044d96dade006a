package report_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/dossier/pkg/domain"
	"github.com/aretw0/dossier/pkg/report"
)

func fullWorkspace() *domain.Workspace {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	deadline := time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC)

	ws := domain.NewWorkspace("ws-1", domain.Human("reviewer-1"), now)
	ws.CurrentState = domain.StateReadyForHuman
	ws.UncertaintyLevel = 0.2
	ws.Facts = []domain.Fact{{
		ID: "f-1", Label: "declarant", Value: "Jean Dupont",
		Source: "email", Confidence: 0.95, ExtractedBy: domain.AI(),
	}}
	ws.Contexts = []domain.ContextHypothesis{{
		ID: "c-1", Type: "asile", Description: "demande d'asile",
		CertaintyLevel: domain.CertaintyLikely, IdentifiedBy: domain.AI(),
	}}
	ws.Obligations = []domain.Obligation{{
		ID: "o-1", Description: "file the asylum application", Mandatory: true,
		Critical: true, Deadline: &deadline, LegalRef: "L.521-1",
		ContextID: "c-1", DeducedBy: domain.AI(),
	}}
	ws.MissingElements = []domain.MissingElement{{
		ID: "m-1", Type: "document", Description: "passport copy",
		Blocking: true, IdentifiedBy: domain.AI(),
	}}
	ws.Risks = []domain.Risk{{
		ID: "r-1", Description: "removal order", Impact: domain.SeverityHigh,
		Probability: domain.SeverityMedium, Score: 54, EvaluatedBy: domain.AI(),
	}}
	ws.Actions = []domain.ProposedAction{{
		ID: "a-1", Type: "letter", Content: "draft response",
		Priority: domain.PriorityUrgent, ProposedBy: domain.AI(),
	}}
	ws.Transitions = []domain.Transition{{
		ID: "t-1", FromState: domain.StateReceived, ToState: domain.StateFactsExtracted,
		TriggeredBy: domain.AI(), Reason: "parsed sender name", Timestamp: now,
	}}
	return ws
}

func TestMarkdown_FullWorkspace(t *testing.T) {
	md := report.Markdown(fullWorkspace())

	assert.Contains(t, md, "# Case ws-1")
	assert.Contains(t, md, "**State:** READY_FOR_HUMAN")
	assert.Contains(t, md, "**Uncertainty:** 0.20")

	// Sections in pipeline order, content intact.
	assert.Contains(t, md, "## Facts")
	assert.Contains(t, md, "| declarant | Jean Dupont | email | 0.95 |")
	assert.Contains(t, md, "## Legal contexts")
	assert.Contains(t, md, "**asile** (LIKELY)")
	assert.Contains(t, md, "## Obligations")
	assert.Contains(t, md, "deadline 2026-09-30")
	assert.Contains(t, md, "**[critical]**")
	assert.Contains(t, md, "## Missing information")
	assert.Contains(t, md, "[blocking] document: passport copy")
	assert.Contains(t, md, "## Risks")
	assert.Contains(t, md, "| removal order | HIGH | MEDIUM | 54 |")
	assert.Contains(t, md, "## Proposed actions")
	assert.Contains(t, md, "**letter** [URGENT]")
	assert.Contains(t, md, "## Audit trail")
	assert.Contains(t, md, "RECEIVED → FACTS_EXTRACTED (parsed sender name)")

	factsIdx := strings.Index(md, "## Facts")
	risksIdx := strings.Index(md, "## Risks")
	assert.Less(t, factsIdx, risksIdx)
}

func TestMarkdown_EmptySectionsOmitted(t *testing.T) {
	ws := domain.NewWorkspace("ws-2", domain.Human("reviewer-1"), time.Now())
	md := report.Markdown(ws)

	assert.Contains(t, md, "# Case ws-2")
	assert.NotContains(t, md, "## Facts")
	assert.NotContains(t, md, "## Risks")
	assert.NotContains(t, md, "## Audit trail")
}

func TestMarkdown_ResolvedElementStatus(t *testing.T) {
	ws := fullWorkspace()
	ws.MissingElements[0].Resolved = true
	md := report.Markdown(ws)
	assert.Contains(t, md, "[resolved] document: passport copy")
}

func TestRender(t *testing.T) {
	out, err := report.Render(report.Markdown(fullWorkspace()))
	require.NoError(t, err)
	assert.Contains(t, out, "ws-1")
}
