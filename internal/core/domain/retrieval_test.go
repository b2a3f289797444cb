package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWeights_Normalized_AlreadyUnit(t *testing.T) {
	w := Weights{Lexical: 0.4, Semantic: 0.6}.Normalized()

	assert.InDelta(t, 0.4, w.Lexical, 1e-9)
	assert.InDelta(t, 0.6, w.Semantic, 1e-9)
}

func TestWeights_Normalized_Rescales(t *testing.T) {
	w := Weights{Lexical: 2, Semantic: 2}.Normalized()

	assert.InDelta(t, 0.5, w.Lexical, 1e-9)
	assert.InDelta(t, 0.5, w.Semantic, 1e-9)
	assert.InDelta(t, 1.0, w.Lexical+w.Semantic, 1e-9)
}

func TestWeights_Normalized_ZeroFallsBackToDefaults(t *testing.T) {
	w := Weights{}.Normalized()

	assert.InDelta(t, DefaultLexicalWeight, w.Lexical, 1e-9)
	assert.InDelta(t, DefaultSemanticWeight, w.Semantic, 1e-9)
}

func TestAuditReport_Violations(t *testing.T) {
	report := AuditReport{
		Findings: []AuditFinding{
			{CitedIdentifier: "A.5.1", Grounded: true},
			{CitedIdentifier: "XX-99", Grounded: false, Reason: "not in retrieved set"},
		},
	}

	violations := report.Violations()
	assert.Len(t, violations, 1)
	assert.Equal(t, "XX-99", violations[0].CitedIdentifier)
}
