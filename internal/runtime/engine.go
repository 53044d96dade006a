// Package runtime implements the engine core: the transition
// controller that drives one state change end-to-end and the pipeline
// executor that chains transitions into full reasoning runs.
package runtime

import (
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/dossier/pkg/observability"
	"github.com/aretw0/dossier/pkg/ports"
)

const (
	// DefaultProviderTimeout bounds a single provider call. The
	// upstream model gateway has no response-size guarantee, so the
	// engine always enforces its own deadline.
	DefaultProviderTimeout = 2 * time.Minute

	// DefaultStepPause is the throttle between successive provider
	// calls in a full reasoning run. Load shedding, not correctness.
	DefaultStepPause = 500 * time.Millisecond
)

// Engine drives workspace transitions. It owns no state of its own;
// everything lives behind the WorkspaceStore.
type Engine struct {
	store    ports.WorkspaceStore
	provider ports.ReasoningProvider
	registry ports.TemplateRegistry

	logger  *slog.Logger
	metrics *observability.Metrics

	now   func() time.Time
	newID func() string

	providerTimeout time.Duration
	stepPause       time.Duration
}

// EngineOption configures the runtime engine.
type EngineOption func(*Engine)

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMetrics attaches Prometheus instrumentation.
func WithMetrics(metrics *observability.Metrics) EngineOption {
	return func(e *Engine) {
		e.metrics = metrics
	}
}

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithIDGenerator overrides entity ID generation. Used by tests.
func WithIDGenerator(newID func() string) EngineOption {
	return func(e *Engine) {
		if newID != nil {
			e.newID = newID
		}
	}
}

// WithProviderTimeout bounds each reasoning provider call.
func WithProviderTimeout(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d > 0 {
			e.providerTimeout = d
		}
	}
}

// WithStepPause sets the throttle between steps of a full run.
// Zero disables the pause.
func WithStepPause(d time.Duration) EngineOption {
	return func(e *Engine) {
		e.stepPause = d
	}
}

// NewEngine creates the runtime engine with its dependencies.
func NewEngine(store ports.WorkspaceStore, provider ports.ReasoningProvider, registry ports.TemplateRegistry, opts ...EngineOption) *Engine {
	e := &Engine{
		store:           store,
		provider:        provider,
		registry:        registry,
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:             time.Now,
		newID:           uuid.NewString,
		providerTimeout: DefaultProviderTimeout,
		stepPause:       DefaultStepPause,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}
