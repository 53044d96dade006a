package prompt

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/aretw0/dossier/pkg/domain"
)

// Context carries the accumulated entities of a workspace, each section
// pre-serialized as JSON so templates can splice them verbatim into the
// provider input. Building it has no side effects and is deterministic
// for the same entity set.
type Context struct {
	WorkspaceID      string
	CurrentState     string
	TargetState      string
	UncertaintyLevel float64

	Facts           string
	Contexts        string
	Obligations     string
	MissingElements string
	Risks           string
	Actions         string
}

// BuildContext serializes whichever entity collections exist so far.
// Empty collections render as "[]" so templates never see a hole.
func BuildContext(ws *domain.Workspace, target domain.State) (Context, error) {
	c := Context{
		WorkspaceID:      ws.ID,
		CurrentState:     string(ws.CurrentState),
		TargetState:      string(target),
		UncertaintyLevel: ws.UncertaintyLevel,
	}

	sections := []struct {
		out *string
		val any
	}{
		{&c.Facts, ws.Facts},
		{&c.Contexts, ws.Contexts},
		{&c.Obligations, ws.Obligations},
		{&c.MissingElements, ws.MissingElements},
		{&c.Risks, ws.Risks},
		{&c.Actions, ws.Actions},
	}
	for _, s := range sections {
		serialized, err := marshalSection(s.val)
		if err != nil {
			return Context{}, err
		}
		*s.out = serialized
	}
	return c, nil
}

func marshalSection(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize prompt section: %w", err)
	}
	if string(data) == "null" {
		return "[]", nil
	}
	return string(data), nil
}

// Fill renders a template against the context. Unknown placeholders
// are a template authoring error and fail loudly.
func Fill(tmpl string, c Context) (string, error) {
	parsed, err := template.New("prompt").Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("failed to parse prompt template: %w", err)
	}
	var buf strings.Builder
	if err := parsed.Execute(&buf, c); err != nil {
		return "", fmt.Errorf("failed to fill prompt template: %w", err)
	}
	return buf.String(), nil
}
