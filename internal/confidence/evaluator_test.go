package confidence

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calder/delegator/internal/models"
)

func contribution(worker string, conf models.Confidence, findings ...models.Finding) models.Contribution {
	return models.Contribution{
		Worker:   worker,
		Category: models.CategorySecurity,
		Response: &models.WorkerResponse{Confidence: conf, Findings: findings},
	}
}

func TestEvaluateRequiresContributions(t *testing.T) {
	e := NewEvaluator()
	_, err := e.Evaluate(context.Background(), nil)
	assert.Error(t, err)
}

func TestEvaluateMinimumAggregation(t *testing.T) {
	e := NewEvaluator()

	score, err := e.Evaluate(context.Background(), []models.Contribution{
		contribution("a", models.NumericConfidence(9)),
		contribution("b", models.NumericConfidence(6)),
		contribution("c", models.NumericConfidence(8)),
	})
	require.NoError(t, err)
	assert.Equal(t, 6, score, "aggregate is the minimum, never an average")
}

func TestEvaluateLevelNormalization(t *testing.T) {
	e := NewEvaluator()

	score, err := e.Evaluate(context.Background(), []models.Contribution{
		contribution("a", models.LevelConfidence(models.ConfidenceHigh)),
		contribution("b", models.LevelConfidence(models.ConfidenceMedium)),
	})
	require.NoError(t, err)
	assert.Equal(t, 6, score)
}

func TestEvaluateDegradedContributorPinsToZero(t *testing.T) {
	e := NewEvaluator()

	score, err := e.Evaluate(context.Background(), []models.Contribution{
		contribution("a", models.NumericConfidence(9)),
		{Worker: "b", Category: models.CategorySecurity, Degraded: true, Reason: models.DegradedSchema},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, score, "one rejected contributor forces the escalation marker")
}

func TestEvaluateUncertainCriticalPenalty(t *testing.T) {
	e := NewEvaluator()

	uncertain := contribution("scanner", models.NumericConfidence(9), models.Finding{
		Severity:   models.SeverityCritical,
		Evidence:   "key in source",
		Confidence: models.LevelConfidence(models.ConfidenceLow),
	})
	score, err := e.Evaluate(context.Background(), []models.Contribution{uncertain})
	require.NoError(t, err)
	assert.Equal(t, 7, score, "uncertain CRITICAL drops the score out of the proceed bucket")

	// A CRITICAL finding with high per-finding confidence is not penalized.
	certain := contribution("scanner", models.NumericConfidence(9), models.Finding{
		Severity:   models.SeverityCritical,
		Evidence:   "key in source",
		Confidence: models.NumericConfidence(10),
	})
	score, err = e.Evaluate(context.Background(), []models.Contribution{certain})
	require.NoError(t, err)
	assert.Equal(t, 9, score)

	// A CRITICAL finding with no per-finding confidence counts as uncertain.
	unset := contribution("scanner", models.NumericConfidence(9), models.Finding{
		Severity: models.SeverityCritical,
		Evidence: "key in source",
	})
	score, err = e.Evaluate(context.Background(), []models.Contribution{unset})
	require.NoError(t, err)
	assert.Equal(t, 7, score)
}

func TestUncertainCritical(t *testing.T) {
	e := NewEvaluator()

	assert.False(t, e.UncertainCritical(nil))
	assert.False(t, e.UncertainCritical([]models.Contribution{
		contribution("scanner", models.NumericConfidence(10), models.Finding{
			Severity:   models.SeverityHigh,
			Evidence:   "x",
			Confidence: models.LevelConfidence(models.ConfidenceLow),
		}),
	}), "only CRITICAL findings count")
	assert.True(t, e.UncertainCritical([]models.Contribution{
		contribution("scanner", models.NumericConfidence(10), models.Finding{
			Severity:   models.SeverityCritical,
			Evidence:   "x",
			Confidence: models.LevelConfidence(models.ConfidenceLow),
		}),
	}))
}

func TestEvaluatePenaltyClampsAtFloor(t *testing.T) {
	e := &Evaluator{CriticalPenalty: 5}

	score, err := e.Evaluate(context.Background(), []models.Contribution{
		contribution("scanner", models.NumericConfidence(2), models.Finding{
			Severity:   models.SeverityCritical,
			Evidence:   "x",
			Confidence: models.LevelConfidence(models.ConfidenceLow),
		}),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, score, "a penalized valid response floors at 1, not the 0 marker")
}

type fakeFamiliarity struct {
	counts map[string]int
	err    error
}

func (f *fakeFamiliarity) RunCount(_ context.Context, worker string, _ models.Category) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.counts[worker], nil
}

func TestEvaluateFamiliarityAdjustment(t *testing.T) {
	e := &Evaluator{
		CriticalPenalty: DefaultCriticalPenalty,
		Familiarity:     &fakeFamiliarity{counts: map[string]int{"veteran": 12, "novice": 1}},
		MinFamiliarRuns: 3,
	}

	score, err := e.Evaluate(context.Background(), []models.Contribution{
		contribution("veteran", models.NumericConfidence(8)),
	})
	require.NoError(t, err)
	assert.Equal(t, 8, score)

	score, err = e.Evaluate(context.Background(), []models.Contribution{
		contribution("novice", models.NumericConfidence(8)),
	})
	require.NoError(t, err)
	assert.Equal(t, 7, score, "a thin validated history costs one point")
}

func TestEvaluateFamiliarityStoreErrorIsIgnored(t *testing.T) {
	e := &Evaluator{
		CriticalPenalty: DefaultCriticalPenalty,
		Familiarity:     &fakeFamiliarity{err: errors.New("db locked")},
		MinFamiliarRuns: 3,
	}

	score, err := e.Evaluate(context.Background(), []models.Contribution{
		contribution("scanner", models.NumericConfidence(8)),
	})
	require.NoError(t, err)
	assert.Equal(t, 8, score, "calibration failures never change gating behavior")
}
