// Package provider contains reasoning provider adapters. The scripted
// provider replays canned responses for tests and demos; the gemini
// subpackage talks to Google's Gemini API.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
)

// ErrScriptExhausted is returned when the scripted provider runs out
// of responses.
var ErrScriptExhausted = errors.New("scripted provider has no response left")

// Scripted replays a fixed queue of JSON responses in order. It is the
// deterministic test double for the reasoning provider; a full
// pipeline run consumes one response per transition.
type Scripted struct {
	mu        sync.Mutex
	responses []json.RawMessage
	prompts   []string
	down      bool
	failWith  error
}

// NewScripted creates a provider that replays responses in order.
func NewScripted(responses ...json.RawMessage) *Scripted {
	return &Scripted{responses: responses}
}

// Enqueue appends a response to the script.
func (s *Scripted) Enqueue(response json.RawMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses = append(s.responses, response)
}

// SetDown toggles the availability probe.
func (s *Scripted) SetDown(down bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.down = down
}

// FailNextWith makes the next GenerateJSON call return err instead of
// a response.
func (s *Scripted) FailNextWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWith = err
}

// Prompts returns the prompts received so far, in call order.
func (s *Scripted) Prompts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.prompts...)
}

// IsAvailable implements ports.ReasoningProvider.
func (s *Scripted) IsAvailable(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.down
}

// GenerateJSON implements ports.ReasoningProvider.
func (s *Scripted) GenerateJSON(ctx context.Context, prompt string) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, prompt)

	if s.failWith != nil {
		err := s.failWith
		s.failWith = nil
		return nil, err
	}
	if len(s.responses) == 0 {
		return nil, ErrScriptExhausted
	}
	next := s.responses[0]
	s.responses = s.responses[1:]
	return next, nil
}
