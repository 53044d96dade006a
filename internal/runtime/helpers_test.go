package runtime_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aretw0/dossier/internal/runtime"
	"github.com/aretw0/dossier/pkg/adapters/memory"
	"github.com/aretw0/dossier/pkg/adapters/provider"
	"github.com/aretw0/dossier/pkg/domain"
	"github.com/aretw0/dossier/pkg/prompt"
)

var testClock = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

// sequentialIDs returns deterministic entity IDs: id-1, id-2, ...
func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

type harness struct {
	engine   *runtime.Engine
	store    *memory.Store
	provider *provider.Scripted
	registry *prompt.Registry
}

func newHarness(t *testing.T, responses ...json.RawMessage) *harness {
	t.Helper()
	store := memory.NewStore()
	scripted := provider.NewScripted(responses...)
	registry := prompt.NewRegistry()

	engine := runtime.NewEngine(store, scripted, registry,
		runtime.WithClock(func() time.Time { return testClock }),
		runtime.WithIDGenerator(sequentialIDs()),
		runtime.WithStepPause(0),
	)
	return &harness{engine: engine, store: store, provider: scripted, registry: registry}
}

func (h *harness) createWorkspace(t *testing.T, id string) *domain.Workspace {
	t.Helper()
	ws := domain.NewWorkspace(id, domain.Human("reviewer-1"), testClock)
	require.NoError(t, h.store.Create(context.Background(), ws))
	return ws
}

// advanceTo walks the workspace forward through committed states by
// directly applying fixture deltas, skipping the provider.
func (h *harness) advanceTo(t *testing.T, id string, target domain.State) {
	t.Helper()
	ctx := context.Background()
	for {
		ws, err := h.store.Get(ctx, id)
		require.NoError(t, err)
		if ws.CurrentState == target {
			return
		}
		next, err := ws.CurrentState.Next()
		require.NoError(t, err)

		apply := &domain.TransitionApply{
			ExpectedState:    ws.CurrentState,
			ExpectedRevision: ws.Revision,
			NewState:         next,
			ChangedAt:        testClock,
			ChangedBy:        domain.AI(),
			Delta:            fixtureDelta(next),
			Transition: domain.Transition{
				ID:          fmt.Sprintf("seed-%s", next),
				FromState:   ws.CurrentState,
				ToState:     next,
				TriggeredBy: domain.AI(),
				Reason:      "seeded",
				Timestamp:   testClock,
			},
		}
		require.NoError(t, h.store.Apply(ctx, id, apply))
	}
}

// fixtureDelta gives each seeded state a plausible entity so prompt
// building and linkage have something to chew on.
func fixtureDelta(state domain.State) domain.EntityDelta {
	switch state {
	case domain.StateFactsExtracted:
		return domain.EntityDelta{Facts: []domain.Fact{{
			ID: "seed-fact", Label: "declarant", Value: "Jean Dupont",
			Source: "email", Confidence: 0.95, ExtractedBy: domain.AI(),
		}}}
	case domain.StateContextIdentified:
		return domain.EntityDelta{Contexts: []domain.ContextHypothesis{{
			ID: "ctx-1", Type: "asile", Description: "demande d'asile",
			Reasoning: "declarant fled persecution", CertaintyLevel: domain.CertaintyLikely,
			IdentifiedBy: domain.AI(),
		}}}
	case domain.StateObligationsDeduced:
		return domain.EntityDelta{Obligations: []domain.Obligation{{
			ID: "ob-1", Description: "file the asylum application",
			Mandatory: true, LegalRef: "L.521-1", ContextID: "ctx-1", DeducedBy: domain.AI(),
		}}}
	case domain.StateMissingIdentified:
		return domain.EntityDelta{}
	case domain.StateRiskEvaluated:
		return domain.EntityDelta{Risks: []domain.Risk{{
			ID: "risk-1", Description: "removal order", Impact: domain.SeverityHigh,
			Probability: domain.SeverityMedium, Score: 54, EvaluatedBy: domain.AI(),
		}}}
	case domain.StateActionProposed:
		return domain.EntityDelta{Actions: []domain.ProposedAction{{
			ID: "act-1", Type: "letter", Content: "draft response",
			Target: "prefecture", Priority: domain.PriorityNormal, ProposedBy: domain.AI(),
		}}}
	default:
		return domain.EntityDelta{}
	}
}

// Canned provider responses, one per transition.
var (
	factsResponse = json.RawMessage(`{
		"facts": [{"label": "declarant", "value": "Jean Dupont", "source": "email", "confidence": 0.95}],
		"uncertainty_level": 0.4,
		"traces": [{"step": "extract", "explanation": "parsed sender name"}]
	}`)
	contextsResponse = json.RawMessage(`{
		"contexts": [{"type": "asile", "description": "demande d'asile", "reasoning": "declarant fled persecution", "certainty_level": "LIKELY"}],
		"uncertainty_level": 0.35
	}`)
	obligationsResponse = json.RawMessage(`{
		"obligations": [{"description": "file the asylum application", "legal_ref": "L.521-1", "context_ref": "asile", "deadline": "2026-09-30"}],
		"uncertainty_level": 0.3
	}`)
	noMissingResponse = json.RawMessage(`{"missing": [], "uncertainty_level": 0.3}`)
	blockingResponse  = json.RawMessage(`{
		"missing": [{"type": "document", "description": "passport copy", "why": "identity proof required", "blocking": true}],
		"uncertainty_level": 0.5
	}`)
	risksResponse = json.RawMessage(`{
		"risks": [{"description": "removal order", "impact": "HIGH", "probability": "MEDIUM", "irreversible": true}],
		"uncertainty_level": 0.25
	}`)
	actionsResponse = json.RawMessage(`{
		"actions": [{"type": "letter", "content": "draft response", "reasoning": "deadline approaching", "target": "prefecture"}],
		"uncertainty_level": 0.2
	}`)
	handoffResponse = json.RawMessage(`{
		"uncertainty_level": 0.2,
		"traces": [{"step": "handoff", "explanation": "analysis complete"}]
	}`)
)
