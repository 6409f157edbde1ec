// Package confidence normalizes and aggregates worker confidence signals
// into the single 1-10 score the gating engine thresholds against.
package confidence

import (
	"context"
	"errors"

	"github.com/calder/delegator/internal/models"
)

// DefaultCriticalPenalty is the aggregate reduction applied when a CRITICAL
// finding is present without high per-finding confidence. The magnitude is
// configurable; this default keeps an otherwise-proceed score out of the
// auto-proceed bucket.
const DefaultCriticalPenalty = 2

// FamiliarityStore reports how often a worker has produced a validated
// response for a category. The calibration store implements it; a nil store
// disables familiarity adjustment.
type FamiliarityStore interface {
	RunCount(ctx context.Context, worker string, category models.Category) (int, error)
}

// Evaluator owns the calibration rules, turning a set of per-worker
// contributions into one aggregate score.
type Evaluator struct {
	// CriticalPenalty is subtracted once when any CRITICAL finding carries
	// less than high confidence.
	CriticalPenalty int

	// Familiarity, when set, lowers a contributor's normalized confidence by
	// one point if the worker has fewer than MinFamiliarRuns validated runs
	// for the task category.
	Familiarity     FamiliarityStore
	MinFamiliarRuns int
}

// NewEvaluator returns an Evaluator with the default calibration constants
// and no familiarity store.
func NewEvaluator() *Evaluator {
	return &Evaluator{CriticalPenalty: DefaultCriticalPenalty}
}

// Evaluate aggregates the contributions into a 1-10 score (0 marks a forced
// escalation). Aggregation uses the minimum across contributors: a single
// low-confidence contributor drags down the aggregate, so the riskiest
// assessment is never masked by averaging. An empty contribution set is a
// caller error.
func (e *Evaluator) Evaluate(ctx context.Context, contributions []models.Contribution) (int, error) {
	if len(contributions) == 0 {
		return 0, errors.New("evaluate requires at least one contribution")
	}

	aggregate := 11 // above the scale, replaced by the first contributor
	for i := range contributions {
		score := e.contributorScore(ctx, &contributions[i])
		if score == 0 {
			// A degraded contributor pins the aggregate to 0, the marker
			// that forces escalation. No penalty can lower it further.
			return 0, nil
		}
		if score < aggregate {
			aggregate = score
		}
	}

	if e.UncertainCritical(contributions) {
		aggregate -= e.penalty()
	}

	return clamp(aggregate), nil
}

// contributorScore normalizes one contribution, applying the familiarity
// adjustment for workers with a thin validated history.
func (e *Evaluator) contributorScore(ctx context.Context, c *models.Contribution) int {
	score := c.NormalizedConfidence()
	if score == 0 {
		return 0
	}

	if e.Familiarity != nil && e.MinFamiliarRuns > 0 {
		runs, err := e.Familiarity.RunCount(ctx, c.Worker, c.Category)
		if err == nil && runs < e.MinFamiliarRuns {
			score--
		}
	}

	if score < 1 {
		return 1
	}
	return score
}

// UncertainCritical reports whether any CRITICAL finding lacks high
// per-finding confidence. An uncertain critical finding must not silently
// sort into the auto-proceed bucket, so the gating engine consults this
// in addition to the penalty already folded into Evaluate.
func (e *Evaluator) UncertainCritical(contributions []models.Contribution) bool {
	for i := range contributions {
		resp := contributions[i].Response
		if resp == nil {
			continue
		}
		for j := range resp.Findings {
			f := &resp.Findings[j]
			if f.Severity != models.SeverityCritical {
				continue
			}
			if !f.Confidence.IsSet() || f.Confidence.Normalized() < 9 {
				return true
			}
		}
	}
	return false
}

func (e *Evaluator) penalty() int {
	if e.CriticalPenalty <= 0 {
		return DefaultCriticalPenalty
	}
	return e.CriticalPenalty
}

// clamp bounds a penalized score to [1,10].
func clamp(score int) int {
	if score < 1 {
		return 1
	}
	if score > 10 {
		return 10
	}
	return score
}
