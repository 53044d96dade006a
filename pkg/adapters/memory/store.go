// Package memory implements ports.WorkspaceStore in process memory.
// Safe for concurrent use; applies are atomic under the store mutex.
package memory

import (
	"context"
	"sync"

	"github.com/aretw0/dossier/pkg/domain"
)

// Store holds workspace aggregates in a map. Snapshots are deep-copied
// on both read and write so callers can never alias internal state.
type Store struct {
	data map[string]*domain.Workspace
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.Workspace),
	}
}

// Create persists a new workspace.
func (s *Store) Create(ctx context.Context, ws *domain.Workspace) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data[ws.ID]; exists {
		return domain.ErrWorkspaceExists
	}
	s.data[ws.ID] = ws.Clone()
	return nil
}

// Get retrieves a workspace snapshot with all child collections.
func (s *Store) Get(ctx context.Context, id string) (*domain.Workspace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ws, ok := s.data[id]
	if !ok {
		return nil, domain.ErrWorkspaceNotFound
	}
	return ws.Clone(), nil
}

// List returns the IDs of stored workspaces.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	return ids, nil
}

// Apply commits a transition changeset all-or-nothing. The guards run
// against the live aggregate under the write lock, so a locked or
// drifted workspace fails before a single row is appended.
func (s *Store) Apply(ctx context.Context, id string, apply *domain.TransitionApply) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.data[id]
	if !ok {
		return domain.ErrWorkspaceNotFound
	}
	if current.Locked {
		return domain.ErrWorkspaceLocked
	}
	if current.CurrentState != apply.ExpectedState || current.Revision != apply.ExpectedRevision {
		return domain.ErrRevisionConflict
	}

	// Mutate a copy and swap it in, so a panic mid-append cannot leave
	// the stored aggregate half-written.
	next := current.Clone()
	next.CurrentState = apply.NewState
	if apply.UncertaintyLevel != nil {
		next.UncertaintyLevel = *apply.UncertaintyLevel
	}
	next.StateChangedAt = apply.ChangedAt
	next.StateChangedBy = apply.ChangedBy
	next.Revision++

	next.Facts = append(next.Facts, apply.Delta.Facts...)
	next.Contexts = append(next.Contexts, apply.Delta.Contexts...)
	next.Obligations = append(next.Obligations, apply.Delta.Obligations...)
	next.MissingElements = append(next.MissingElements, apply.Delta.MissingElements...)
	next.Risks = append(next.Risks, apply.Delta.Risks...)
	next.Actions = append(next.Actions, apply.Delta.Actions...)
	next.Traces = append(next.Traces, apply.Traces...)
	next.Transitions = append(next.Transitions, apply.Transition)

	s.data[id] = next
	return nil
}

// SetLock sets or clears the lock flag.
func (s *Store) SetLock(ctx context.Context, id string, locked bool, by domain.Actor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ws, ok := s.data[id]
	if !ok {
		return domain.ErrWorkspaceNotFound
	}
	ws.Locked = locked
	ws.Revision++
	return nil
}

// ResolveMissingElement marks a gap as resolved.
func (s *Store) ResolveMissingElement(ctx context.Context, id, elementID string, by domain.Actor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ws, ok := s.data[id]
	if !ok {
		return domain.ErrWorkspaceNotFound
	}
	for i := range ws.MissingElements {
		if ws.MissingElements[i].ID == elementID {
			ws.MissingElements[i].Resolved = true
			ws.Revision++
			return nil
		}
	}
	return domain.ErrMissingElementNotFound
}

// Delete removes the workspace and every child entity with it.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}
