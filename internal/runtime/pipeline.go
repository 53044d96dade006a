package runtime

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/dossier/pkg/domain"
)

// ExecuteNextStep advances the workspace by exactly one state.
func (e *Engine) ExecuteNextStep(ctx context.Context, workspaceID string) (*domain.TransitionResult, error) {
	ws, err := e.store.Get(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	next, err := ws.CurrentState.Next()
	if err != nil {
		return nil, err
	}
	return e.ExecuteTransition(ctx, workspaceID, next)
}

// ExecuteFullReasoning walks the canonical order from the workspace's
// current position to READY_FOR_HUMAN, one committed transition at a
// time. The run stops at MISSING_IDENTIFIED when a blocking unresolved
// gap exists; that is a successful halt routed to a human, not an
// error. The first failing transition aborts the run, naming the state
// that failed; steps committed before it stay committed.
func (e *Engine) ExecuteFullReasoning(ctx context.Context, workspaceID string) (*domain.RunResult, error) {
	e.metrics.RunStarted()
	defer e.metrics.RunFinished()

	result := &domain.RunResult{WorkspaceID: workspaceID}
	steps := 0

	for {
		ws, err := e.store.Get(ctx, workspaceID)
		if err != nil {
			return nil, err
		}
		result.FinalState = ws.CurrentState

		if ws.CurrentState.IsFinal() {
			e.logger.InfoContext(ctx, "full reasoning finished",
				"workspace", workspaceID, "final_state", result.FinalState, "steps", steps)
			return result, nil
		}

		// The gate holds on entry too: a run resumed at
		// MISSING_IDENTIFIED without resolving stays halted.
		if ws.CurrentState == domain.StateMissingIdentified {
			if blocking := ws.BlockingMissing(); len(blocking) > 0 {
				result.HaltedOnMissing = true
				e.logger.InfoContext(ctx, "full reasoning halted on blocking gaps",
					"workspace", workspaceID, "blocking", len(blocking), "steps", steps)
				return result, nil
			}
		}

		next, err := ws.CurrentState.Next()
		if err != nil {
			return result, err
		}

		if steps > 0 && e.stepPause > 0 {
			if err := e.pause(ctx); err != nil {
				return result, err
			}
		}

		stepResult, err := e.ExecuteTransition(ctx, workspaceID, next)
		if err != nil {
			return result, fmt.Errorf("reasoning stopped at %s: %w", next, err)
		}
		steps++
		result.FinalState = stepResult.NewState
		result.Steps = append(result.Steps, domain.StepOutcome{
			State:            stepResult.NewState,
			UncertaintyLevel: stepResult.UncertaintyLevel,
		})
	}
}

// pause throttles between provider calls while staying cancelable.
func (e *Engine) pause(ctx context.Context) error {
	timer := time.NewTimer(e.stepPause)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
