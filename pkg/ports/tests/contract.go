// Package tests provides reusable contract suites that verify adapter
// compliance with the ports interfaces.
package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/dossier/pkg/domain"
	"github.com/aretw0/dossier/pkg/ports"
)

func fixtureWorkspace(id string) *domain.Workspace {
	return domain.NewWorkspace(id, domain.Human("reviewer-1"), time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
}

func fixtureApply(ws *domain.Workspace) *domain.TransitionApply {
	now := ws.StateChangedAt.Add(time.Minute)
	uncertainty := 0.4
	return &domain.TransitionApply{
		ExpectedState:    domain.StateReceived,
		ExpectedRevision: ws.Revision,
		NewState:         domain.StateFactsExtracted,
		UncertaintyLevel: &uncertainty,
		ChangedAt:        now,
		ChangedBy:        domain.AI(),
		Delta: domain.EntityDelta{
			Facts: []domain.Fact{{
				ID:          "fact-1",
				Label:       "declarant",
				Value:       "Jean Dupont",
				Source:      "email",
				Confidence:  0.95,
				ExtractedBy: domain.AI(),
			}},
		},
		Transition: domain.Transition{
			ID:           "tr-1",
			AttemptID:    "attempt-1",
			FromState:    domain.StateReceived,
			ToState:      domain.StateFactsExtracted,
			TriggeredBy:  domain.AI(),
			Reason:       "parsed sender name",
			AutoApproved: true,
			Timestamp:    now,
		},
		Traces: []domain.ReasoningTrace{{
			ID:          "trace-1",
			Step:        "extract",
			Explanation: "parsed sender name",
			CreatedBy:   domain.AI(),
			CreatedAt:   now,
		}},
	}
}

// RunWorkspaceStoreContract verifies a ports.WorkspaceStore adapter.
// The store must be empty when the suite starts.
func RunWorkspaceStoreContract(t *testing.T, store ports.WorkspaceStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("Get_NotFound", func(t *testing.T) {
		_, err := store.Get(ctx, "nope")
		if !errors.Is(err, domain.ErrWorkspaceNotFound) {
			t.Fatalf("expected ErrWorkspaceNotFound, got %v", err)
		}
	})

	t.Run("Create_And_Get", func(t *testing.T) {
		ws := fixtureWorkspace("ws-contract-1")
		if err := store.Create(ctx, ws); err != nil {
			t.Fatalf("create failed: %v", err)
		}
		if err := store.Create(ctx, ws); !errors.Is(err, domain.ErrWorkspaceExists) {
			t.Fatalf("expected ErrWorkspaceExists, got %v", err)
		}

		got, err := store.Get(ctx, ws.ID)
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if got.CurrentState != domain.StateReceived {
			t.Errorf("expected RECEIVED, got %s", got.CurrentState)
		}
		if got.Locked {
			t.Error("new workspace must not be locked")
		}

		// Mutating the snapshot must not leak into the store.
		got.Facts = append(got.Facts, domain.Fact{ID: "rogue"})
		again, err := store.Get(ctx, ws.ID)
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if len(again.Facts) != 0 {
			t.Error("store snapshot aliased caller mutation")
		}
	})

	t.Run("Apply_Commits_Everything", func(t *testing.T) {
		ws := fixtureWorkspace("ws-contract-2")
		if err := store.Create(ctx, ws); err != nil {
			t.Fatalf("create failed: %v", err)
		}
		apply := fixtureApply(ws)
		if err := store.Apply(ctx, ws.ID, apply); err != nil {
			t.Fatalf("apply failed: %v", err)
		}

		got, err := store.Get(ctx, ws.ID)
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if got.CurrentState != domain.StateFactsExtracted {
			t.Errorf("expected FACTS_EXTRACTED, got %s", got.CurrentState)
		}
		if got.UncertaintyLevel != 0.4 {
			t.Errorf("expected uncertainty 0.4, got %f", got.UncertaintyLevel)
		}
		if len(got.Facts) != 1 || got.Facts[0].Value != "Jean Dupont" {
			t.Errorf("expected one fact row, got %+v", got.Facts)
		}
		if len(got.Transitions) != 1 || got.Transitions[0].FromState != domain.StateReceived {
			t.Errorf("expected one transition row, got %+v", got.Transitions)
		}
		if len(got.Traces) != 1 || got.Traces[0].Step != "extract" {
			t.Errorf("expected one trace row, got %+v", got.Traces)
		}
		if got.Revision <= ws.Revision {
			t.Errorf("revision must advance, got %d", got.Revision)
		}
	})

	t.Run("Apply_RevisionConflict_NoWrites", func(t *testing.T) {
		ws := fixtureWorkspace("ws-contract-3")
		if err := store.Create(ctx, ws); err != nil {
			t.Fatalf("create failed: %v", err)
		}
		apply := fixtureApply(ws)
		apply.ExpectedRevision = ws.Revision + 7
		if err := store.Apply(ctx, ws.ID, apply); !errors.Is(err, domain.ErrRevisionConflict) {
			t.Fatalf("expected ErrRevisionConflict, got %v", err)
		}

		got, err := store.Get(ctx, ws.ID)
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if got.CurrentState != domain.StateReceived || len(got.Facts) != 0 || len(got.Transitions) != 0 {
			t.Error("failed apply must leave no partial writes")
		}
	})

	t.Run("Apply_Locked_NoWrites", func(t *testing.T) {
		ws := fixtureWorkspace("ws-contract-4")
		if err := store.Create(ctx, ws); err != nil {
			t.Fatalf("create failed: %v", err)
		}
		if err := store.SetLock(ctx, ws.ID, true, domain.Human("reviewer-1")); err != nil {
			t.Fatalf("lock failed: %v", err)
		}

		locked, err := store.Get(ctx, ws.ID)
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		apply := fixtureApply(ws)
		apply.ExpectedRevision = locked.Revision
		if err := store.Apply(ctx, ws.ID, apply); !errors.Is(err, domain.ErrWorkspaceLocked) {
			t.Fatalf("expected ErrWorkspaceLocked, got %v", err)
		}

		got, err := store.Get(ctx, ws.ID)
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if len(got.Facts) != 0 || len(got.Transitions) != 0 || len(got.Traces) != 0 {
			t.Error("apply on locked workspace must write nothing")
		}

		if err := store.SetLock(ctx, ws.ID, false, domain.Human("reviewer-1")); err != nil {
			t.Fatalf("unlock failed: %v", err)
		}
		unlocked, err := store.Get(ctx, ws.ID)
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if unlocked.Locked {
			t.Error("workspace should be unlocked")
		}
	})

	t.Run("ResolveMissingElement", func(t *testing.T) {
		ws := fixtureWorkspace("ws-contract-5")
		if err := store.Create(ctx, ws); err != nil {
			t.Fatalf("create failed: %v", err)
		}
		apply := fixtureApply(ws)
		apply.Delta = domain.EntityDelta{
			MissingElements: []domain.MissingElement{{
				ID:           "gap-1",
				Type:         "document",
				Description:  "passport copy",
				Why:          "identity proof required",
				Blocking:     true,
				IdentifiedBy: domain.AI(),
			}},
		}
		if err := store.Apply(ctx, ws.ID, apply); err != nil {
			t.Fatalf("apply failed: %v", err)
		}

		err := store.ResolveMissingElement(ctx, ws.ID, "gap-nope", domain.Human("reviewer-1"))
		if !errors.Is(err, domain.ErrMissingElementNotFound) {
			t.Fatalf("expected ErrMissingElementNotFound, got %v", err)
		}
		if err := store.ResolveMissingElement(ctx, ws.ID, "gap-1", domain.Human("reviewer-1")); err != nil {
			t.Fatalf("resolve failed: %v", err)
		}

		got, err := store.Get(ctx, ws.ID)
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if !got.MissingElements[0].Resolved {
			t.Error("element should be resolved")
		}
	})

	t.Run("List_And_Delete", func(t *testing.T) {
		ids, err := store.List(ctx)
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		lookup := make(map[string]bool)
		for _, id := range ids {
			lookup[id] = true
		}
		for _, id := range []string{"ws-contract-1", "ws-contract-2", "ws-contract-5"} {
			if !lookup[id] {
				t.Errorf("workspace %s missing from list", id)
			}
		}

		if err := store.Delete(ctx, "ws-contract-1"); err != nil {
			t.Fatalf("delete failed: %v", err)
		}
		if _, err := store.Get(ctx, "ws-contract-1"); !errors.Is(err, domain.ErrWorkspaceNotFound) {
			t.Fatalf("expected ErrWorkspaceNotFound after delete, got %v", err)
		}
	})
}
