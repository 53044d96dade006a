package ports

import "github.com/aretw0/dossier/pkg/domain"

// TemplateRegistry resolves the prompt template for a transition pair.
// A missing template is a configuration error the controller surfaces
// as domain.ErrInvalidTransition, never a crash.
type TemplateRegistry interface {
	// PromptFor returns the template for the (from, to) pair and
	// whether one is registered.
	PromptFor(from, to domain.State) (string, bool)
}
