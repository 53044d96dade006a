package runtime_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/dossier/pkg/domain"
)

func TestExecuteFullReasoning_RunsToHandoff(t *testing.T) {
	h := newHarness(t,
		factsResponse,
		contextsResponse,
		obligationsResponse,
		noMissingResponse,
		risksResponse,
		actionsResponse,
		handoffResponse,
	)
	h.createWorkspace(t, "ws-1")

	result, err := h.engine.ExecuteFullReasoning(context.Background(), "ws-1")
	require.NoError(t, err)

	assert.Equal(t, domain.StateReadyForHuman, result.FinalState)
	assert.False(t, result.HaltedOnMissing)
	require.Len(t, result.Steps, 7)
	assert.Equal(t, domain.StateFactsExtracted, result.Steps[0].State)
	assert.Equal(t, domain.StateReadyForHuman, result.Steps[6].State)

	ws, err := h.store.Get(context.Background(), "ws-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StateReadyForHuman, ws.CurrentState)
	assert.Len(t, ws.Transitions, 7)
	assert.Len(t, ws.Facts, 1)
	assert.Len(t, ws.Contexts, 1)
	assert.Len(t, ws.Obligations, 1)
	assert.Empty(t, ws.MissingElements)
	assert.Len(t, ws.Risks, 1)
	assert.Len(t, ws.Actions, 1)

	// The obligation points at the context materialized two steps earlier.
	assert.Equal(t, ws.Contexts[0].ID, ws.Obligations[0].ContextID)

	// One prompt per transition, in canonical order.
	assert.Len(t, h.provider.Prompts(), 7)
}

func TestExecuteFullReasoning_HaltsOnBlockingGap(t *testing.T) {
	h := newHarness(t,
		factsResponse,
		contextsResponse,
		obligationsResponse,
		blockingResponse,
	)
	h.createWorkspace(t, "ws-1")

	result, err := h.engine.ExecuteFullReasoning(context.Background(), "ws-1")
	require.NoError(t, err)

	assert.True(t, result.HaltedOnMissing)
	assert.Equal(t, domain.StateMissingIdentified, result.FinalState)
	assert.Len(t, result.Steps, 4)

	// No provider call happened past the halt.
	assert.Len(t, h.provider.Prompts(), 4)

	ws, err := h.store.Get(context.Background(), "ws-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StateMissingIdentified, ws.CurrentState)
	require.Len(t, ws.BlockingMissing(), 1)
	assert.Equal(t, "passport copy", ws.BlockingMissing()[0].Description)
}

func TestExecuteFullReasoning_RerunWithoutResolveStaysHalted(t *testing.T) {
	h := newHarness(t,
		factsResponse,
		contextsResponse,
		obligationsResponse,
		blockingResponse,
	)
	h.createWorkspace(t, "ws-1")

	halted, err := h.engine.ExecuteFullReasoning(context.Background(), "ws-1")
	require.NoError(t, err)
	require.True(t, halted.HaltedOnMissing)

	// Rerunning with the gap still open must not advance the pipeline.
	h.provider.Enqueue(risksResponse)
	again, err := h.engine.ExecuteFullReasoning(context.Background(), "ws-1")
	require.NoError(t, err)
	assert.True(t, again.HaltedOnMissing)
	assert.Equal(t, domain.StateMissingIdentified, again.FinalState)
	assert.Empty(t, again.Steps)

	ws, err := h.store.Get(context.Background(), "ws-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StateMissingIdentified, ws.CurrentState)
	// The enqueued response was never consumed.
	assert.Len(t, h.provider.Prompts(), 4)
}

func TestExecuteFullReasoning_ResumesAfterResolve(t *testing.T) {
	h := newHarness(t,
		factsResponse,
		contextsResponse,
		obligationsResponse,
		blockingResponse,
	)
	h.createWorkspace(t, "ws-1")

	halted, err := h.engine.ExecuteFullReasoning(context.Background(), "ws-1")
	require.NoError(t, err)
	require.True(t, halted.HaltedOnMissing)

	ws, err := h.store.Get(context.Background(), "ws-1")
	require.NoError(t, err)
	require.Len(t, ws.MissingElements, 1)
	require.NoError(t, h.store.ResolveMissingElement(context.Background(), "ws-1",
		ws.MissingElements[0].ID, domain.Human("reviewer-1")))

	h.provider.Enqueue(risksResponse)
	h.provider.Enqueue(actionsResponse)
	h.provider.Enqueue(handoffResponse)

	resumed, err := h.engine.ExecuteFullReasoning(context.Background(), "ws-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StateReadyForHuman, resumed.FinalState)
	assert.False(t, resumed.HaltedOnMissing)
	assert.Len(t, resumed.Steps, 3)
}

func TestExecuteFullReasoning_NonBlockingGapDoesNotHalt(t *testing.T) {
	h := newHarness(t,
		factsResponse,
		contextsResponse,
		obligationsResponse,
		json.RawMessage(`{"missing": [{"type": "document", "description": "pay slip", "why": "nice to have", "blocking": false}], "uncertainty_level": 0.3}`),
		risksResponse,
		actionsResponse,
		handoffResponse,
	)
	h.createWorkspace(t, "ws-1")

	result, err := h.engine.ExecuteFullReasoning(context.Background(), "ws-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StateReadyForHuman, result.FinalState)
	assert.False(t, result.HaltedOnMissing)
	assert.Len(t, result.Steps, 7)
}

func TestExecuteFullReasoning_AlreadyFinalIsZeroStepSuccess(t *testing.T) {
	h := newHarness(t)
	h.createWorkspace(t, "ws-1")
	h.advanceTo(t, "ws-1", domain.StateReadyForHuman)

	result, err := h.engine.ExecuteFullReasoning(context.Background(), "ws-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StateReadyForHuman, result.FinalState)
	assert.Empty(t, result.Steps)
	assert.Empty(t, h.provider.Prompts())
}

func TestExecuteFullReasoning_FailureNamesTheState(t *testing.T) {
	// The script runs dry on the third call; two transitions are
	// already committed by then.
	h := newHarness(t, factsResponse, contextsResponse)
	h.createWorkspace(t, "ws-1")

	result, err := h.engine.ExecuteFullReasoning(context.Background(), "ws-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
	assert.Contains(t, err.Error(), "reasoning stopped at OBLIGATIONS_DEDUCED")

	assert.Len(t, result.Steps, 2)
	ws, getErr := h.store.Get(context.Background(), "ws-1")
	require.NoError(t, getErr)
	assert.Equal(t, domain.StateContextIdentified, ws.CurrentState)
	assert.Len(t, ws.Transitions, 2)
}

func TestExecuteFullReasoning_WorkspaceNotFound(t *testing.T) {
	h := newHarness(t)
	_, err := h.engine.ExecuteFullReasoning(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrWorkspaceNotFound)
}

func TestExecuteNextStep(t *testing.T) {
	h := newHarness(t, factsResponse)
	h.createWorkspace(t, "ws-1")

	result, err := h.engine.ExecuteNextStep(context.Background(), "ws-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StateFactsExtracted, result.NewState)
}

func TestExecuteNextStep_AlreadyFinal(t *testing.T) {
	h := newHarness(t)
	h.createWorkspace(t, "ws-1")
	h.advanceTo(t, "ws-1", domain.StateReadyForHuman)

	_, err := h.engine.ExecuteNextStep(context.Background(), "ws-1")
	assert.ErrorIs(t, err, domain.ErrAlreadyFinal)
}

func TestExecuteFullReasoning_CanceledContext(t *testing.T) {
	h := newHarness(t, factsResponse)
	h.createWorkspace(t, "ws-1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.engine.ExecuteFullReasoning(ctx, "ws-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled) || errors.Is(err, domain.ErrProviderUnavailable))
}
