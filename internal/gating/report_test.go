package gating

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calder/delegator/internal/models"
)

func contributionWithFindings(worker string, findings ...models.Finding) models.Contribution {
	return models.Contribution{
		Worker:   worker,
		Category: models.CategorySecurity,
		Response: &models.WorkerResponse{
			Confidence: models.NumericConfidence(7),
			Findings:   findings,
		},
	}
}

func TestBuildReportSortsBySeverityThenConfidence(t *testing.T) {
	history := []models.Contribution{
		contributionWithFindings("a",
			models.Finding{Severity: models.SeverityLow, Evidence: "low"},
			models.Finding{Severity: models.SeverityCritical, Evidence: "crit-1", Confidence: models.NumericConfidence(6)},
		),
		contributionWithFindings("b",
			models.Finding{Severity: models.SeverityHigh, Evidence: "high"},
			models.Finding{Severity: models.SeverityCritical, Evidence: "crit-2", Confidence: models.NumericConfidence(9)},
		),
	}

	report := BuildReport(history, models.GatingDecision{Kind: models.DecisionProceed}, "")

	require.Len(t, report.Findings, 4)
	assert.Equal(t, "crit-2", report.Findings[0].Evidence, "higher confidence leads within a severity tier")
	assert.Equal(t, "crit-1", report.Findings[1].Evidence)
	assert.Equal(t, "high", report.Findings[2].Evidence)
	assert.Equal(t, "low", report.Findings[3].Evidence)

	assert.Equal(t, 4, report.Summary.Total)
	assert.Equal(t, 2, report.Summary.Critical)
	assert.Equal(t, 1, report.Summary.High)
	assert.Equal(t, 0, report.Summary.Medium)
	assert.Equal(t, 1, report.Summary.Low)
}

func TestBuildReportIsDeterministic(t *testing.T) {
	history := []models.Contribution{
		contributionWithFindings("a",
			models.Finding{Severity: models.SeverityMedium, Evidence: "m1"},
			models.Finding{Severity: models.SeverityMedium, Evidence: "m2"},
		),
	}

	first := BuildReport(history, models.GatingDecision{}, "")
	second := BuildReport(history, models.GatingDecision{}, "")

	require.Equal(t, len(first.Findings), len(second.Findings))
	for i := range first.Findings {
		assert.Equal(t, first.Findings[i].Evidence, second.Findings[i].Evidence,
			"equal-rank findings keep input order on every build")
	}
}

func TestBuildReportDeduplicatesKeepingHighestConfidence(t *testing.T) {
	duplicate := models.Finding{
		Category: models.CategorySecurity,
		Severity: models.SeverityHigh,
		Location: "auth.go:42",
		Evidence: "token logged in plaintext",
	}

	low := duplicate
	low.Confidence = models.NumericConfidence(6)
	high := duplicate
	high.Confidence = models.NumericConfidence(9)

	history := []models.Contribution{
		contributionWithFindings("a", low),
		contributionWithFindings("b", high),
	}

	report := BuildReport(history, models.GatingDecision{}, "")

	require.Len(t, report.Findings, 1)
	assert.Equal(t, 9, report.Findings[0].Confidence.Normalized())
	assert.Equal(t, 1, report.Summary.Total, "the summary counts surviving findings, not raw ones")
	assert.Equal(t, 1, report.Summary.High)
}

func TestBuildReportSkipsDegradedContributions(t *testing.T) {
	history := []models.Contribution{
		contributionWithFindings("a", models.Finding{Severity: models.SeverityMedium, Evidence: "m"}),
		{Worker: "b", Category: models.CategorySecurity, Degraded: true, Reason: models.DegradedCrash},
	}

	report := BuildReport(history, models.GatingDecision{}, models.AnnotationBestEffort)

	assert.Equal(t, 1, report.Summary.Total)
	assert.Equal(t, models.AnnotationBestEffort, report.Annotation)
}

func TestFlattenFindingsStampsContributorCategory(t *testing.T) {
	history := []models.Contribution{
		contributionWithFindings("a", models.Finding{Severity: models.SeverityLow, Evidence: "x"}),
	}

	findings := flattenFindings(history)
	require.Len(t, findings, 1)
	assert.Equal(t, models.CategorySecurity, findings[0].Category,
		"a blank finding category inherits the contributor's")
}
