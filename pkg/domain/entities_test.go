package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/dossier/pkg/domain"
)

func TestRiskScore(t *testing.T) {
	cases := []struct {
		impact      domain.Severity
		probability domain.Severity
		want        int
	}{
		{domain.SeverityHigh, domain.SeverityMedium, 54},
		{domain.SeverityLow, domain.SeverityLow, 9},
		{domain.SeverityHigh, domain.SeverityHigh, 81},
		{domain.SeverityMedium, domain.SeverityLow, 18},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, domain.RiskScore(tc.impact, tc.probability),
			"impact=%s probability=%s", tc.impact, tc.probability)
	}
}

func TestParseSeverity(t *testing.T) {
	s, err := domain.ParseSeverity("MEDIUM")
	require.NoError(t, err)
	assert.Equal(t, 6, s.Weight())

	_, err = domain.ParseSeverity("medium")
	assert.Error(t, err)
}

func TestMissingElement_Blocks(t *testing.T) {
	assert.True(t, domain.MissingElement{Blocking: true}.Blocks())
	assert.False(t, domain.MissingElement{Blocking: true, Resolved: true}.Blocks())
	assert.False(t, domain.MissingElement{Blocking: false}.Blocks())
}

func TestActor_Validate(t *testing.T) {
	assert.NoError(t, domain.AI().Validate())
	assert.NoError(t, domain.Human("u-1").Validate())
	assert.Error(t, domain.Human("").Validate())
	assert.Error(t, domain.Actor{Kind: "ROBOT"}.Validate())
}

func TestActor_String(t *testing.T) {
	assert.Equal(t, "AI", domain.AI().String())
	assert.Equal(t, "HUMAN:u-1", domain.Human("u-1").String())
}
