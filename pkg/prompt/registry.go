// Package prompt assembles the provider input: a template registry
// keyed by transition pair and a deterministic context builder that
// serializes the workspace's accumulated entities.
package prompt

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/dossier/pkg/domain"
)

//go:embed templates.yaml
var defaultTemplates []byte

type transitionPair struct {
	from domain.State
	to   domain.State
}

// Registry maps transition pairs to prompt templates. The zero value
// is unusable; construct with NewRegistry.
type Registry struct {
	templates map[transitionPair]string
}

type templateFile struct {
	Templates []templateEntry `yaml:"templates"`
}

type templateEntry struct {
	From   string `yaml:"from"`
	To     string `yaml:"to"`
	Prompt string `yaml:"prompt"`
}

// NewRegistry returns a registry preloaded with the embedded default
// templates, one per canonical transition.
func NewRegistry() *Registry {
	r := &Registry{templates: make(map[transitionPair]string)}
	if err := r.Load(defaultTemplates); err != nil {
		// The embedded file ships with the binary; a parse failure is a
		// build defect, not a runtime condition.
		panic(fmt.Sprintf("prompt: embedded templates are invalid: %v", err))
	}
	return r
}

// NewEmptyRegistry returns a registry with no templates registered.
func NewEmptyRegistry() *Registry {
	return &Registry{templates: make(map[transitionPair]string)}
}

// Load parses YAML template definitions, overriding any pair already
// registered.
func (r *Registry) Load(data []byte) error {
	var file templateFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse templates: %w", err)
	}
	for _, entry := range file.Templates {
		from, err := domain.ParseState(entry.From)
		if err != nil {
			return fmt.Errorf("template %q -> %q: %w", entry.From, entry.To, err)
		}
		to, err := domain.ParseState(entry.To)
		if err != nil {
			return fmt.Errorf("template %q -> %q: %w", entry.From, entry.To, err)
		}
		if !domain.CanTransition(from, to) {
			return fmt.Errorf("template %s -> %s does not follow the canonical order", from, to)
		}
		if entry.Prompt == "" {
			return fmt.Errorf("template %s -> %s has an empty prompt", from, to)
		}
		r.templates[transitionPair{from: from, to: to}] = entry.Prompt
	}
	return nil
}

// LoadFile reads template definitions from a YAML file.
func (r *Registry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read templates file: %w", err)
	}
	return r.Load(data)
}

// Register sets the template for a single pair.
func (r *Registry) Register(from, to domain.State, tmpl string) {
	r.templates[transitionPair{from: from, to: to}] = tmpl
}

// Unregister removes the template for a pair. Used by tests to
// simulate a configuration hole.
func (r *Registry) Unregister(from, to domain.State) {
	delete(r.templates, transitionPair{from: from, to: to})
}

// PromptFor implements ports.TemplateRegistry.
func (r *Registry) PromptFor(from, to domain.State) (string, bool) {
	tmpl, ok := r.templates[transitionPair{from: from, to: to}]
	return tmpl, ok
}
