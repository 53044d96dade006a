package runtime

import (
	"context"
	"fmt"

	"github.com/aretw0/dossier/pkg/domain"
	"github.com/aretw0/dossier/pkg/prompt"
)

const defaultTransitionReason = "state advanced by reasoning provider"

// ExecuteTransition drives one state change end-to-end: precondition
// checks, prompt assembly, the provider call, response validation,
// entity materialization and a single atomic apply against the store.
// A failure at any point commits nothing.
func (e *Engine) ExecuteTransition(ctx context.Context, workspaceID string, toState domain.State) (*domain.TransitionResult, error) {
	ws, err := e.store.Get(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if ws.Locked {
		return nil, fmt.Errorf("%w: workspace %s", domain.ErrWorkspaceLocked, workspaceID)
	}
	if !domain.CanTransition(ws.CurrentState, toState) {
		e.metrics.ObserveTransition(string(toState), "invalid")
		return nil, fmt.Errorf("%w: %s -> %s is not the next step in the canonical order",
			domain.ErrInvalidTransition, ws.CurrentState, toState)
	}
	template, registered := e.registry.PromptFor(ws.CurrentState, toState)
	if !registered {
		e.metrics.ObserveTransition(string(toState), "invalid")
		return nil, fmt.Errorf("%w: no prompt template registered for %s -> %s",
			domain.ErrInvalidTransition, ws.CurrentState, toState)
	}

	promptCtx, err := prompt.BuildContext(ws, toState)
	if err != nil {
		return nil, err
	}
	rendered, err := prompt.Fill(template, promptCtx)
	if err != nil {
		return nil, err
	}

	if !e.provider.IsAvailable(ctx) {
		e.metrics.ObserveTransition(string(toState), "provider_unavailable")
		return nil, fmt.Errorf("%w: availability probe failed", domain.ErrProviderUnavailable)
	}

	callCtx := ctx
	if e.providerTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, e.providerTimeout)
		defer cancel()
	}
	callStart := e.now()
	raw, err := e.provider.GenerateJSON(callCtx, rendered)
	e.metrics.ObserveProviderCall(e.now().Sub(callStart))
	if err != nil {
		e.metrics.ObserveTransition(string(toState), "provider_unavailable")
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}

	env, err := parseEnvelope(raw)
	if err != nil {
		e.metrics.ObserveTransition(string(toState), "malformed")
		return nil, err
	}
	mat := &materializer{newID: e.newID, actor: domain.AI()}
	delta, err := mat.materialize(ws, toState, env)
	if err != nil {
		e.metrics.ObserveTransition(string(toState), "malformed")
		return nil, err
	}

	now := e.now()
	traces := make([]domain.ReasoningTrace, 0, len(env.traces))
	for _, tr := range env.traces {
		traces = append(traces, domain.ReasoningTrace{
			ID:          e.newID(),
			Step:        tr.Step,
			Explanation: tr.Explanation,
			Metadata:    tr.Metadata,
			CreatedBy:   domain.AI(),
			CreatedAt:   now,
		})
	}

	reason := defaultTransitionReason
	if len(traces) > 0 {
		reason = traces[0].Explanation
	}

	// The attempt ID makes a retried transition distinguishable in the
	// ledger. Because the apply below is all-or-nothing, a failed
	// attempt leaves no rows to deduplicate on retry.
	attemptID := e.newID()

	apply := &domain.TransitionApply{
		ExpectedState:    ws.CurrentState,
		ExpectedRevision: ws.Revision,
		NewState:         toState,
		UncertaintyLevel: env.uncertainty,
		ChangedAt:        now,
		ChangedBy:        domain.AI(),
		Delta:            delta,
		Transition: domain.Transition{
			ID:           e.newID(),
			AttemptID:    attemptID,
			FromState:    ws.CurrentState,
			ToState:      toState,
			TriggeredBy:  domain.AI(),
			Reason:       reason,
			AutoApproved: true,
			Timestamp:    now,
		},
		Traces: traces,
	}
	if err := e.store.Apply(ctx, workspaceID, apply); err != nil {
		e.metrics.ObserveTransition(string(toState), "apply_failed")
		return nil, fmt.Errorf("failed to apply transition %s -> %s: %w", ws.CurrentState, toState, err)
	}

	uncertainty := ws.UncertaintyLevel
	if env.uncertainty != nil {
		uncertainty = *env.uncertainty
	}

	e.metrics.ObserveTransition(string(toState), "success")
	e.logger.InfoContext(ctx, "transition applied",
		"workspace", workspaceID,
		"from", ws.CurrentState,
		"to", toState,
		"entities", delta.Count(),
		"traces", len(traces),
		"uncertainty", uncertainty,
		"attempt", attemptID,
	)

	return &domain.TransitionResult{
		WorkspaceID:      workspaceID,
		NewState:         toState,
		UncertaintyLevel: uncertainty,
		Data:             delta,
		Traces:           traces,
	}, nil
}
