package prompt_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/dossier/pkg/domain"
	"github.com/aretw0/dossier/pkg/prompt"
)

func testWorkspace() *domain.Workspace {
	ws := domain.NewWorkspace("ws-1", domain.Human("u-1"), time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
	ws.CurrentState = domain.StateFactsExtracted
	ws.Facts = []domain.Fact{{
		ID:          "f-1",
		Label:       "declarant",
		Value:       "Jean Dupont",
		Source:      "email",
		Confidence:  0.95,
		ExtractedBy: domain.AI(),
	}}
	return ws
}

func TestBuildContext_SerializesAccumulatedEntities(t *testing.T) {
	ctx, err := prompt.BuildContext(testWorkspace(), domain.StateContextIdentified)
	require.NoError(t, err)

	assert.Equal(t, "ws-1", ctx.WorkspaceID)
	assert.Equal(t, "FACTS_EXTRACTED", ctx.CurrentState)
	assert.Equal(t, "CONTEXT_IDENTIFIED", ctx.TargetState)
	assert.Contains(t, ctx.Facts, "Jean Dupont")

	// Empty collections render as empty arrays, never as holes.
	assert.Equal(t, "[]", ctx.Contexts)
	assert.Equal(t, "[]", ctx.Risks)
}

func TestBuildContext_Deterministic(t *testing.T) {
	first, err := prompt.BuildContext(testWorkspace(), domain.StateContextIdentified)
	require.NoError(t, err)
	second, err := prompt.BuildContext(testWorkspace(), domain.StateContextIdentified)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestFill(t *testing.T) {
	ctx, err := prompt.BuildContext(testWorkspace(), domain.StateContextIdentified)
	require.NoError(t, err)

	out, err := prompt.Fill("case {{.WorkspaceID}} facts: {{.Facts}}", ctx)
	require.NoError(t, err)
	assert.Contains(t, out, "case ws-1")
	assert.Contains(t, out, "declarant")
}

func TestFill_UnknownPlaceholderFails(t *testing.T) {
	_, err := prompt.Fill("{{.Nope}}", prompt.Context{})
	assert.Error(t, err)
}

func TestFill_DefaultTemplatesRender(t *testing.T) {
	registry := prompt.NewRegistry()
	ws := testWorkspace()

	for i := 0; i < len(domain.StateOrder)-1; i++ {
		from := domain.StateOrder[i]
		to := domain.StateOrder[i+1]
		tmpl, ok := registry.PromptFor(from, to)
		require.True(t, ok)

		ctx, err := prompt.BuildContext(ws, to)
		require.NoError(t, err)
		out, err := prompt.Fill(tmpl, ctx)
		require.NoError(t, err, "template %s -> %s", from, to)
		assert.Contains(t, out, "ws-1")
	}
}
