// Package gemini implements ports.ReasoningProvider on Google's
// Gemini API via the genai SDK.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/genai"
)

const defaultModel = "gemini-2.5-flash"

// Provider calls Gemini with JSON output forced, so responses can be
// validated against the target state's schema without markdown fences
// or prose in the way.
type Provider struct {
	client      *genai.Client
	model       string
	temperature float32
}

// Option configures the provider.
type Option func(*Provider)

// WithModel overrides the default model.
func WithModel(model string) Option {
	return func(p *Provider) {
		if model != "" {
			p.model = model
		}
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float32) Option {
	return func(p *Provider) {
		p.temperature = t
	}
}

// New creates a Gemini-backed reasoning provider.
func New(ctx context.Context, apiKey string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	p := &Provider{
		client:      client,
		model:       defaultModel,
		temperature: 0.2,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// IsAvailable implements ports.ReasoningProvider. The SDK holds no
// live connection, so a constructed client with an unexpired context
// counts as reachable; transport failures surface from GenerateJSON.
func (p *Provider) IsAvailable(ctx context.Context) bool {
	return p.client != nil && ctx.Err() == nil
}

// GenerateJSON implements ports.ReasoningProvider.
func (p *Provider) GenerateJSON(ctx context.Context, prompt string) (json.RawMessage, error) {
	temperature := p.temperature
	result, err := p.client.Models.GenerateContent(ctx,
		p.model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			Temperature:      &temperature,
			ResponseMIMEType: "application/json",
		},
	)
	if err != nil {
		return nil, fmt.Errorf("gemini generate failed: %w", err)
	}

	text := result.Text()
	if text == "" {
		return nil, fmt.Errorf("gemini returned an empty response")
	}
	return json.RawMessage(text), nil
}
