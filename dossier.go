// Package dossier drives an AI reasoning provider through a fixed
// eight-stage pipeline that turns raw legal-case intake into a
// human-reviewable, auditable analysis. The Engine is the entry point
// for callers: the case-intake pipeline, the review UI and the CLI.
package dossier

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/dossier/internal/runtime"
	"github.com/aretw0/dossier/pkg/domain"
	"github.com/aretw0/dossier/pkg/observability"
	"github.com/aretw0/dossier/pkg/ports"
	"github.com/aretw0/dossier/pkg/prompt"
)

// Engine is the high-level entry point for the dossier library. It
// wraps the internal runtime and adds the workspace lifecycle surface.
type Engine struct {
	runtime  *runtime.Engine
	store    ports.WorkspaceStore
	registry ports.TemplateRegistry
	logger   *slog.Logger
	metrics  *observability.Metrics
	now      func() time.Time

	runtimeOpts []runtime.EngineOption
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithTemplates injects a custom template registry, bypassing the
// embedded defaults.
func WithTemplates(registry ports.TemplateRegistry) Option {
	return func(e *Engine) {
		if registry != nil {
			e.registry = registry
		}
	}
}

// WithMetrics attaches Prometheus instrumentation.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(e *Engine) {
		e.metrics = metrics
	}
}

// WithProviderTimeout bounds each reasoning provider call.
func WithProviderTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithProviderTimeout(d))
	}
}

// WithStepPause sets the throttle between steps of a full reasoning
// run. Zero disables the pause.
func WithStepPause(d time.Duration) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithStepPause(d))
	}
}

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
			e.runtimeOpts = append(e.runtimeOpts, runtime.WithClock(now))
		}
	}
}

// WithIDGenerator overrides entity ID generation. Used by tests.
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithIDGenerator(newID))
	}
}

// New initializes a dossier Engine over a workspace store and a
// reasoning provider. Templates default to the embedded set covering
// every canonical transition.
func New(store ports.WorkspaceStore, provider ports.ReasoningProvider, opts ...Option) (*Engine, error) {
	if store == nil {
		return nil, fmt.Errorf("a workspace store is required")
	}
	if provider == nil {
		return nil, fmt.Errorf("a reasoning provider is required")
	}

	eng := &Engine{
		store:    store,
		registry: prompt.NewRegistry(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(eng)
	}

	runtimeOpts := []runtime.EngineOption{
		runtime.WithLogger(eng.logger),
		runtime.WithMetrics(eng.metrics),
	}
	runtimeOpts = append(runtimeOpts, eng.runtimeOpts...)
	eng.runtime = runtime.NewEngine(store, provider, eng.registry, runtimeOpts...)

	return eng, nil
}

// CreateWorkspace opens a new workspace in RECEIVED for a case under
// analysis. An empty id gets a generated UUID.
func (e *Engine) CreateWorkspace(ctx context.Context, id string, createdBy domain.Actor) (*domain.Workspace, error) {
	if err := createdBy.Validate(); err != nil {
		return nil, err
	}
	if id == "" {
		id = uuid.NewString()
	}
	ws := domain.NewWorkspace(id, createdBy, e.now())
	if err := e.store.Create(ctx, ws); err != nil {
		return nil, err
	}
	e.logger.InfoContext(ctx, "workspace created", "workspace", id, "by", createdBy.String())
	return ws.Clone(), nil
}

// GetWorkspace loads a workspace with all entities and audit rows.
func (e *Engine) GetWorkspace(ctx context.Context, id string) (*domain.Workspace, error) {
	return e.store.Get(ctx, id)
}

// ListWorkspaces returns the IDs of all stored workspaces.
func (e *Engine) ListWorkspaces(ctx context.Context) ([]string, error) {
	return e.store.List(ctx)
}

// ExecuteTransition drives a single transition to toState.
func (e *Engine) ExecuteTransition(ctx context.Context, workspaceID string, toState domain.State) (*domain.TransitionResult, error) {
	return e.runtime.ExecuteTransition(ctx, workspaceID, toState)
}

// ExecuteNextStep advances the workspace by one state.
func (e *Engine) ExecuteNextStep(ctx context.Context, workspaceID string) (*domain.TransitionResult, error) {
	return e.runtime.ExecuteNextStep(ctx, workspaceID)
}

// ExecuteFullReasoning runs the pipeline from the workspace's current
// position toward READY_FOR_HUMAN, halting at MISSING_IDENTIFIED when
// a blocking unresolved gap needs human input.
func (e *Engine) ExecuteFullReasoning(ctx context.Context, workspaceID string) (*domain.RunResult, error) {
	return e.runtime.ExecuteFullReasoning(ctx, workspaceID)
}

// SetLock sets or clears the workspace lock. Only human reviewers may
// hold the lock; the engine never locks or unlocks on its own.
func (e *Engine) SetLock(ctx context.Context, workspaceID string, locked bool, by domain.Actor) error {
	if !by.IsHuman() {
		return fmt.Errorf("%w: lock/unlock", domain.ErrHumanOnly)
	}
	if err := by.Validate(); err != nil {
		return err
	}
	if err := e.store.SetLock(ctx, workspaceID, locked, by); err != nil {
		return err
	}
	e.logger.InfoContext(ctx, "workspace lock changed",
		"workspace", workspaceID, "locked", locked, "by", by.String())
	return nil
}

// ResolveMissingElement marks an identified gap as resolved so a
// halted run can continue. Reserved for human reviewers.
func (e *Engine) ResolveMissingElement(ctx context.Context, workspaceID, elementID string, by domain.Actor) error {
	if !by.IsHuman() {
		return fmt.Errorf("%w: resolve missing element", domain.ErrHumanOnly)
	}
	if err := by.Validate(); err != nil {
		return err
	}
	if err := e.store.ResolveMissingElement(ctx, workspaceID, elementID, by); err != nil {
		return err
	}
	e.logger.InfoContext(ctx, "missing element resolved",
		"workspace", workspaceID, "element", elementID, "by", by.String())
	return nil
}
