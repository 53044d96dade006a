// Package runner executes full reasoning runs across many workspaces
// with bounded concurrency. Workspaces are independent, so the only
// serialization needed is per workspace; an optional runner lock
// extends that guarantee across replicas.
package runner

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aretw0/dossier/pkg/domain"
	"github.com/aretw0/dossier/pkg/ports"
)

// DefaultLockTTL bounds how long a crashed worker can keep a
// workspace's runner lock.
const DefaultLockTTL = 5 * time.Minute

// Engine is the slice of the orchestration surface the batch needs.
type Engine interface {
	ExecuteFullReasoning(ctx context.Context, workspaceID string) (*domain.RunResult, error)
}

// Outcome is the per-workspace result of a batch run.
type Outcome struct {
	WorkspaceID     string
	FinalState      domain.State
	HaltedOnMissing bool
	Err             error
}

// Batch fans full reasoning runs out over a worker pool.
type Batch struct {
	engine      Engine
	logger      *slog.Logger
	concurrency int

	locker  ports.RunnerLocker
	lockTTL time.Duration
}

// Option configures the batch runner.
type Option func(*Batch)

// WithLocker makes every run hold the per-workspace runner lock, so
// replicas processing overlapping batches never drive the same
// workspace at once.
func WithLocker(locker ports.RunnerLocker) Option {
	return func(b *Batch) {
		b.locker = locker
	}
}

// WithLockTTL overrides the runner lock expiry.
func WithLockTTL(ttl time.Duration) Option {
	return func(b *Batch) {
		if ttl > 0 {
			b.lockTTL = ttl
		}
	}
}

// New creates a batch runner. Concurrency below 1 is clamped to 1.
func New(engine Engine, concurrency int, logger *slog.Logger, opts ...Option) *Batch {
	if concurrency < 1 {
		concurrency = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	b := &Batch{
		engine:      engine,
		logger:      logger,
		concurrency: concurrency,
		lockTTL:     DefaultLockTTL,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Run processes every workspace and reports one outcome each, in the
// input order. A failing workspace does not stop the others; only
// context cancellation aborts the batch.
func (b *Batch) Run(ctx context.Context, workspaceIDs []string) []Outcome {
	outcomes := make([]Outcome, len(workspaceIDs))
	var mu sync.Mutex

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(b.concurrency)

	for i, id := range workspaceIDs {
		group.Go(func() error {
			result, err := b.runOne(groupCtx, id)

			outcome := Outcome{WorkspaceID: id, Err: err}
			if result != nil {
				outcome.FinalState = result.FinalState
				outcome.HaltedOnMissing = result.HaltedOnMissing
			}
			if err != nil {
				b.logger.Warn("batch run failed", "workspace", id, "err", err)
			}

			mu.Lock()
			outcomes[i] = outcome
			mu.Unlock()

			// Only cancellation aborts the whole batch.
			if groupCtx.Err() != nil {
				return groupCtx.Err()
			}
			return nil
		})
	}

	// The only error surfaced is context cancellation, already
	// reflected in the unprocessed outcomes.
	_ = group.Wait()
	return outcomes
}

// runOne executes a single full run, holding the runner lock for its
// duration when one is configured.
func (b *Batch) runOne(ctx context.Context, id string) (*domain.RunResult, error) {
	if b.locker != nil {
		unlock, err := b.locker.Lock(ctx, id, b.lockTTL)
		if err != nil {
			return nil, err
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				b.logger.Warn("failed to release runner lock", "workspace", id, "err", err)
			}
		}()
	}
	return b.engine.ExecuteFullReasoning(ctx, id)
}
