package runner_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/dossier/pkg/domain"
	"github.com/aretw0/dossier/pkg/ports"
	"github.com/aretw0/dossier/pkg/runner"
)

// fakeEngine resolves each workspace from a fixed table and tracks how
// many runs execute at once.
type fakeEngine struct {
	mu      sync.Mutex
	results map[string]*domain.RunResult
	errs    map[string]error

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func (f *fakeEngine) ExecuteFullReasoning(ctx context.Context, workspaceID string) (*domain.RunResult, error) {
	current := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		observed := f.maxInFlight.Load()
		if current <= observed || f.maxInFlight.CompareAndSwap(observed, current) {
			break
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.errs[workspaceID]; ok {
		return nil, err
	}
	if result, ok := f.results[workspaceID]; ok {
		return result, nil
	}
	return nil, domain.ErrWorkspaceNotFound
}

func TestBatch_RunAll(t *testing.T) {
	engine := &fakeEngine{
		results: map[string]*domain.RunResult{
			"ws-1": {WorkspaceID: "ws-1", FinalState: domain.StateReadyForHuman},
			"ws-2": {WorkspaceID: "ws-2", FinalState: domain.StateMissingIdentified, HaltedOnMissing: true},
		},
	}
	batch := runner.New(engine, 2, nil)

	outcomes := batch.Run(context.Background(), []string{"ws-1", "ws-2"})
	require.Len(t, outcomes, 2)

	assert.Equal(t, "ws-1", outcomes[0].WorkspaceID)
	assert.Equal(t, domain.StateReadyForHuman, outcomes[0].FinalState)
	assert.NoError(t, outcomes[0].Err)

	assert.Equal(t, "ws-2", outcomes[1].WorkspaceID)
	assert.True(t, outcomes[1].HaltedOnMissing)
}

func TestBatch_FailureDoesNotStopOthers(t *testing.T) {
	engine := &fakeEngine{
		results: map[string]*domain.RunResult{
			"ws-1": {WorkspaceID: "ws-1", FinalState: domain.StateReadyForHuman},
			"ws-3": {WorkspaceID: "ws-3", FinalState: domain.StateReadyForHuman},
		},
		errs: map[string]error{
			"ws-2": errors.New("provider blew up"),
		},
	}
	batch := runner.New(engine, 1, nil)

	outcomes := batch.Run(context.Background(), []string{"ws-1", "ws-2", "ws-3"})
	require.Len(t, outcomes, 3)
	assert.NoError(t, outcomes[0].Err)
	assert.Error(t, outcomes[1].Err)
	assert.NoError(t, outcomes[2].Err)
	assert.Equal(t, domain.StateReadyForHuman, outcomes[2].FinalState)
}

func TestBatch_RespectsConcurrencyLimit(t *testing.T) {
	engine := &fakeEngine{results: map[string]*domain.RunResult{}}
	ids := make([]string, 20)
	for i := range ids {
		id := string(rune('a' + i))
		ids[i] = id
		engine.results[id] = &domain.RunResult{WorkspaceID: id, FinalState: domain.StateReadyForHuman}
	}
	batch := runner.New(engine, 3, nil)

	outcomes := batch.Run(context.Background(), ids)
	require.Len(t, outcomes, 20)
	assert.LessOrEqual(t, engine.maxInFlight.Load(), int32(3))
}

func TestBatch_CanceledContext(t *testing.T) {
	engine := &fakeEngine{results: map[string]*domain.RunResult{
		"ws-1": {WorkspaceID: "ws-1", FinalState: domain.StateReadyForHuman},
	}}
	batch := runner.New(engine, 1, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcomes := batch.Run(ctx, []string{"ws-1"})
	require.Len(t, outcomes, 1)
	assert.ErrorIs(t, outcomes[0].Err, context.Canceled)
}

// fakeLocker records acquisitions and releases per key.
type fakeLocker struct {
	mu       sync.Mutex
	locked   map[string]int
	released map[string]int
	failWith error
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{locked: map[string]int{}, released: map[string]int{}}
}

func (f *fakeLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	f.locked[key]++
	return func(ctx context.Context) error {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.released[key]++
		return nil
	}, nil
}

func TestBatch_WithLocker_HoldsLockPerWorkspace(t *testing.T) {
	engine := &fakeEngine{
		results: map[string]*domain.RunResult{
			"ws-1": {WorkspaceID: "ws-1", FinalState: domain.StateReadyForHuman},
			"ws-2": {WorkspaceID: "ws-2", FinalState: domain.StateReadyForHuman},
		},
	}
	locker := newFakeLocker()
	batch := runner.New(engine, 2, nil, runner.WithLocker(locker))

	outcomes := batch.Run(context.Background(), []string{"ws-1", "ws-2"})
	require.Len(t, outcomes, 2)
	assert.NoError(t, outcomes[0].Err)
	assert.NoError(t, outcomes[1].Err)

	assert.Equal(t, map[string]int{"ws-1": 1, "ws-2": 1}, locker.locked)
	assert.Equal(t, map[string]int{"ws-1": 1, "ws-2": 1}, locker.released)
}

func TestBatch_WithLocker_AcquireFailureSkipsRun(t *testing.T) {
	engine := &fakeEngine{
		results: map[string]*domain.RunResult{
			"ws-1": {WorkspaceID: "ws-1", FinalState: domain.StateReadyForHuman},
		},
	}
	locker := newFakeLocker()
	locker.failWith = errors.New("held by another worker")
	batch := runner.New(engine, 1, nil, runner.WithLocker(locker))

	outcomes := batch.Run(context.Background(), []string{"ws-1"})
	require.Len(t, outcomes, 1)
	assert.Error(t, outcomes[0].Err)
	// The engine never ran without the lock.
	assert.Zero(t, engine.maxInFlight.Load())
}

func TestBatch_ClampsConcurrency(t *testing.T) {
	engine := &fakeEngine{results: map[string]*domain.RunResult{
		"ws-1": {WorkspaceID: "ws-1", FinalState: domain.StateReadyForHuman},
	}}
	batch := runner.New(engine, 0, nil)

	outcomes := batch.Run(context.Background(), []string{"ws-1"})
	require.Len(t, outcomes, 1)
	assert.NoError(t, outcomes[0].Err)
}
