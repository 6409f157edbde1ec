package gating

import (
	"fmt"
	"sort"

	"github.com/calder/delegator/internal/models"
)

// maxDirectivesPerRound bounds how many directives one escalation round
// carries. The lowest-confidence findings come first; flooding the research
// worker with every finding would dilute the round.
const maxDirectivesPerRound = 2

// buildDirectives derives the escalation round's research directives from
// the lowest-confidence contributing findings. When a round produced no
// findings at all (every contributor degraded), the directives describe the
// degraded contributors instead: escalation without a directive is a
// defect, never a valid state.
func buildDirectives(contributions []models.Contribution, capability models.Category) []models.ResearchDirective {
	type scored struct {
		finding models.Finding
		score   int
	}

	var candidates []scored
	for i := range contributions {
		resp := contributions[i].Response
		if resp == nil {
			continue
		}
		for j := range resp.Findings {
			f := resp.Findings[j]
			score := f.Confidence.Normalized()
			if !f.Confidence.IsSet() {
				// A finding with no stated confidence is the least trusted.
				score = 0
			}
			candidates = append(candidates, scored{finding: f, score: score})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score < candidates[j].score
		}
		return candidates[i].finding.Severity.Rank() > candidates[j].finding.Severity.Rank()
	})

	var directives []models.ResearchDirective
	for i := range candidates {
		if len(directives) == maxDirectivesPerRound {
			break
		}
		f := candidates[i].finding
		directives = append(directives, models.ResearchDirective{
			Topic:      directiveTopic(&f),
			Capability: capability,
			Finding:    &f,
		})
	}

	if len(directives) > 0 {
		return directives
	}

	// No validated findings to investigate: direct the round at the degraded
	// contributors themselves.
	for i := range contributions {
		c := &contributions[i]
		if !c.Degraded {
			continue
		}
		directives = append(directives, models.ResearchDirective{
			Topic:      fmt.Sprintf("re-establish findings lost to %s failure of worker %s", c.Reason, c.Worker),
			Capability: capability,
		})
		if len(directives) == maxDirectivesPerRound {
			break
		}
	}

	if len(directives) == 0 {
		// Validated responses existed but carried no findings: the round
		// investigates why confidence stayed low despite a clean scan.
		directives = append(directives, models.ResearchDirective{
			Topic:      "corroborate the low-confidence assessment with additional evidence",
			Capability: capability,
		})
	}
	return directives
}

// directiveTopic phrases what the escalation round should investigate for a
// finding.
func directiveTopic(f *models.Finding) string {
	switch {
	case f.Location != "" && f.Evidence != "":
		return fmt.Sprintf("verify %s finding at %s: %s", f.Severity, f.Location, f.Evidence)
	case f.Evidence != "":
		return fmt.Sprintf("verify %s finding: %s", f.Severity, f.Evidence)
	case f.Location != "":
		return fmt.Sprintf("verify %s finding at %s", f.Severity, f.Location)
	}
	return fmt.Sprintf("verify unsubstantiated %s finding", f.Severity)
}
