package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/calder/delegator/internal/gating"
	"github.com/calder/delegator/internal/models"
)

func TestRenderProceedReport(t *testing.T) {
	outcome := &gating.Outcome{
		Decision: models.GatingDecision{
			Kind:           models.DecisionProceed,
			Confidence:     9,
			Recommendation: "rotate the signing key",
			Rationale:      "confirmed live credential",
		},
		Report: &models.Report{
			Decision: models.GatingDecision{
				Kind:           models.DecisionProceed,
				Confidence:     9,
				Recommendation: "rotate the signing key",
				Rationale:      "confirmed live credential",
			},
			Findings: []models.Finding{{
				Severity: models.SeverityCritical,
				Location: "auth/token.go:88",
				Evidence: "hardcoded signing key",
			}},
			Summary: models.Summary{Total: 1, Critical: 1},
		},
		Iterations: 1,
	}

	var out bytes.Buffer
	renderReport(&out, outcome)

	text := out.String()
	assert.Contains(t, text, "Decision: proceed (confidence 9)")
	assert.Contains(t, text, "Recommendation: rotate the signing key")
	assert.Contains(t, text, "Findings: 1 total (1 critical, 0 high, 0 medium, 0 low)")
	assert.Contains(t, text, "[CRITICAL] auth/token.go:88 hardcoded signing key")
	assert.Contains(t, text, "Escalation rounds: 1")
	assert.NotContains(t, text, "\x1b[", "no color codes off-TTY")
}

func TestRenderPresentOptionsReport(t *testing.T) {
	outcome := &gating.Outcome{
		Report: &models.Report{
			Decision: models.GatingDecision{
				Kind:       models.DecisionPresentOptions,
				Confidence: 6,
				Options: []models.Option{
					{Summary: "[HIGH] a.go:1 (confidence 7): first option"},
					{Summary: "[MEDIUM] b.go:2 (confidence 6): second option"},
				},
				Comparison: "option 1: HIGH severity vs option 2: MEDIUM severity",
			},
			Annotation: models.AnnotationBestEffort,
		},
	}

	var out bytes.Buffer
	renderReport(&out, outcome)

	text := out.String()
	assert.Contains(t, text, "Decision: present_options (confidence 6)")
	assert.Contains(t, text, "Note: "+models.AnnotationBestEffort)
	assert.Contains(t, text, "1. [HIGH] a.go:1")
	assert.Contains(t, text, "2. [MEDIUM] b.go:2")
	assert.Contains(t, text, "Comparison:")
}
