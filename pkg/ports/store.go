package ports

import (
	"context"

	"github.com/aretw0/dossier/pkg/domain"
)

// WorkspaceStore persists workspace aggregates. Implementations must
// make Apply all-or-nothing: either every row of the changeset lands
// together with the workspace update, or nothing does.
type WorkspaceStore interface {
	// Create persists a new workspace.
	// Returns domain.ErrWorkspaceExists if the ID is taken.
	Create(ctx context.Context, ws *domain.Workspace) error

	// Get loads a workspace with all child collections.
	// Returns domain.ErrWorkspaceNotFound if absent.
	Get(ctx context.Context, id string) (*domain.Workspace, error)

	// List returns the IDs of all stored workspaces.
	List(ctx context.Context) ([]string, error)

	// Apply atomically commits one transition changeset. It fails with
	// domain.ErrWorkspaceLocked when the workspace is locked, and with
	// domain.ErrRevisionConflict when the expected state or revision
	// drifted; in both cases nothing is written.
	Apply(ctx context.Context, id string, apply *domain.TransitionApply) error

	// SetLock sets or clears the workspace lock.
	SetLock(ctx context.Context, id string, locked bool, by domain.Actor) error

	// ResolveMissingElement marks an identified gap as resolved.
	// Returns domain.ErrMissingElementNotFound if the element is absent.
	ResolveMissingElement(ctx context.Context, id, elementID string, by domain.Actor) error

	// Delete removes a workspace and, by ownership, every child entity.
	Delete(ctx context.Context, id string) error
}
