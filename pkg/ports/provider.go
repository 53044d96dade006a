package ports

import (
	"context"
	"encoding/json"
)

// ReasoningProvider is the external AI backend driven by the engine.
// Implementations are expected to be unreliable: calls block on network
// I/O and must honor the context deadline set by the caller.
type ReasoningProvider interface {
	// IsAvailable probes whether the provider can take a request.
	IsAvailable(ctx context.Context) bool

	// GenerateJSON submits a prompt and returns the raw response, which
	// the caller validates against the target state's schema. The bytes
	// must decode to a single JSON object.
	GenerateJSON(ctx context.Context, prompt string) (json.RawMessage, error)
}
