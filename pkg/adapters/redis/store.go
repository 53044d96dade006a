// Package redis implements ports.WorkspaceStore and ports.RunnerLocker
// on Redis. The workspace aggregate is stored as a single JSON
// document, so an apply is one compare-and-swap: either the whole
// changeset lands or nothing does.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/dossier/pkg/domain"
)

// casScript guards the swap against concurrent writers: the stored
// document must still be unlocked (unless the caller says otherwise)
// and carry the expected revision.
const casScript = `
local current = redis.call("get", KEYS[1])
if not current then
	return "not_found"
end
local doc = cjson.decode(current)
if ARGV[3] == "0" and doc.locked then
	return "locked"
end
if tostring(doc.revision) ~= ARGV[1] then
	return "conflict"
end
redis.call("set", KEYS[1], ARGV[2], "keepttl")
return "ok"
`

// Store implements ports.WorkspaceStore using Redis.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL sets the expiration for workspace documents.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a Redis store with its own client.
func New(address, password string, db int, opts ...Option) *Store {
	client := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(client, opts...)
}

// NewFromClient creates a Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: "dossier:workspace:",
		ttl:    0, // no expiration by default
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func (s *Store) key(id string) string {
	return s.prefix + id
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

// Create persists a new workspace document.
func (s *Store) Create(ctx context.Context, ws *domain.Workspace) error {
	data, err := json.Marshal(ws)
	if err != nil {
		return fmt.Errorf("failed to marshal workspace: %w", err)
	}

	created, err := s.client.SetNX(ctx, s.key(ws.ID), data, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to create workspace in redis: %w", err)
	}
	if !created {
		return domain.ErrWorkspaceExists
	}

	err = s.client.ZAdd(ctx, s.indexKey(), backend.Z{
		Score:  float64(time.Now().Unix()),
		Member: ws.ID,
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to index workspace: %w", err)
	}
	return nil
}

// Get retrieves the full workspace aggregate.
func (s *Store) Get(ctx context.Context, id string) (*domain.Workspace, error) {
	val, err := s.client.Get(ctx, s.key(id)).Result()
	if err != nil {
		if err == backend.Nil {
			return nil, domain.ErrWorkspaceNotFound
		}
		return nil, fmt.Errorf("failed to get workspace from redis: %w", err)
	}

	var ws domain.Workspace
	if err := json.Unmarshal([]byte(val), &ws); err != nil {
		return nil, fmt.Errorf("failed to unmarshal workspace: %w", err)
	}
	return &ws, nil
}

// List returns workspace IDs from the index.
func (s *Store) List(ctx context.Context) ([]string, error) {
	ids, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list workspaces: %w", err)
	}
	return ids, nil
}

// Apply commits a transition changeset via compare-and-swap on the
// aggregate document. The Lua script rejects locked and drifted
// documents before writing anything.
func (s *Store) Apply(ctx context.Context, id string, apply *domain.TransitionApply) error {
	current, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if current.Locked {
		return domain.ErrWorkspaceLocked
	}
	if current.CurrentState != apply.ExpectedState || current.Revision != apply.ExpectedRevision {
		return domain.ErrRevisionConflict
	}

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

	return s.compareAndSwap(ctx, id, apply.ExpectedRevision, next, false)
}

// SetLock flips the lock flag under compare-and-swap.
func (s *Store) SetLock(ctx context.Context, id string, locked bool, by domain.Actor) error {
	return s.mutate(ctx, id, true, func(ws *domain.Workspace) error {
		ws.Locked = locked
		return nil
	})
}

// ResolveMissingElement marks a gap as resolved under compare-and-swap.
// Resolving is a human act, so it proceeds even while the workspace is
// locked for review.
func (s *Store) ResolveMissingElement(ctx context.Context, id, elementID string, by domain.Actor) error {
	return s.mutate(ctx, id, true, func(ws *domain.Workspace) error {
		for i := range ws.MissingElements {
			if ws.MissingElements[i].ID == elementID {
				ws.MissingElements[i].Resolved = true
				return nil
			}
		}
		return domain.ErrMissingElementNotFound
	})
}

// Delete removes the workspace document and its index entry.
func (s *Store) Delete(ctx context.Context, id string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.key(id))
	pipe.ZRem(ctx, s.indexKey(), id)
	_, err := pipe.Exec(ctx)
	return err
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

const mutateAttempts = 5

// mutate is a read-modify-CAS loop for small administrative updates.
// ignoreLock lets SetLock operate on a locked document.
func (s *Store) mutate(ctx context.Context, id string, ignoreLock bool, fn func(*domain.Workspace) error) error {
	for attempt := 0; attempt < mutateAttempts; attempt++ {
		ws, err := s.Get(ctx, id)
		if err != nil {
			return err
		}
		expected := ws.Revision
		if err := fn(ws); err != nil {
			return err
		}
		ws.Revision++

		err = s.compareAndSwap(ctx, id, expected, ws, ignoreLock)
		if err == nil {
			return nil
		}
		if err != domain.ErrRevisionConflict {
			return err
		}
		// Raced another writer; reload and retry.
	}
	return domain.ErrRevisionConflict
}

func (s *Store) compareAndSwap(ctx context.Context, id string, expectedRevision int64, next *domain.Workspace, ignoreLock bool) error {
	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("failed to marshal workspace: %w", err)
	}

	ignore := "0"
	if ignoreLock {
		ignore = "1"
	}
	status, err := s.client.Eval(ctx, casScript,
		[]string{s.key(id)},
		strconv.FormatInt(expectedRevision, 10), string(data), ignore,
	).Text()
	if err != nil {
		return fmt.Errorf("redis error applying workspace update: %w", err)
	}

	switch status {
	case "ok":
		return nil
	case "not_found":
		return domain.ErrWorkspaceNotFound
	case "locked":
		return domain.ErrWorkspaceLocked
	case "conflict":
		return domain.ErrRevisionConflict
	default:
		return fmt.Errorf("unexpected apply status %q", status)
	}
}
