package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/dossier/pkg/domain"
)

func TestStateOrder_CoversEveryTransition(t *testing.T) {
	require.Len(t, domain.StateOrder, 8)
	assert.Equal(t, domain.StateReceived, domain.StateOrder[0])
	assert.Equal(t, domain.StateReadyForHuman, domain.StateOrder[len(domain.StateOrder)-1])

	for i := 0; i < len(domain.StateOrder)-1; i++ {
		from := domain.StateOrder[i]
		to := domain.StateOrder[i+1]

		next, err := from.Next()
		require.NoError(t, err)
		assert.Equal(t, to, next)
		assert.True(t, domain.CanTransition(from, to))
	}
}

func TestState_Next_Terminal(t *testing.T) {
	_, err := domain.StateReadyForHuman.Next()
	assert.ErrorIs(t, err, domain.ErrAlreadyFinal)
}

func TestState_Next_Unrecognized(t *testing.T) {
	_, err := domain.State("LIMBO").Next()
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrAlreadyFinal)
}

func TestCanTransition_RejectsSkipsAndBackwards(t *testing.T) {
	// Skipping a stage.
	assert.False(t, domain.CanTransition(domain.StateReceived, domain.StateContextIdentified))
	// Going backward.
	assert.False(t, domain.CanTransition(domain.StateRiskEvaluated, domain.StateMissingIdentified))
	// Self-transition.
	assert.False(t, domain.CanTransition(domain.StateReceived, domain.StateReceived))
}

func TestParseState(t *testing.T) {
	s, err := domain.ParseState("FACTS_EXTRACTED")
	require.NoError(t, err)
	assert.Equal(t, domain.StateFactsExtracted, s)

	_, err = domain.ParseState("facts_extracted")
	assert.Error(t, err)
}
