package gating

import (
	"sort"

	"github.com/calder/delegator/internal/models"
)

// BuildReport merges every validated finding accumulated by the session into
// one ranked, de-duplicated report. Findings are stable-sorted by severity
// descending then confidence descending, duplicates sharing (category,
// location, evidence) collapse into the highest-confidence instance, and the
// summary counts the surviving findings: a dropped duplicate is reflected
// in the total, never in a separately tracked tally.
func BuildReport(history []models.Contribution, decision models.GatingDecision, annotation string) *models.Report {
	findings := dedupeFindings(flattenFindings(history))
	rankFindings(findings)

	report := &models.Report{
		Findings:   findings,
		Decision:   decision,
		Annotation: annotation,
	}
	report.Summary = report.Count()
	return report
}

// flattenFindings collects findings from every validated contribution in
// round order, stamping each with its contributor's category when the worker
// left it blank.
func flattenFindings(history []models.Contribution) []models.Finding {
	var findings []models.Finding
	for i := range history {
		resp := history[i].Response
		if history[i].Degraded || resp == nil {
			continue
		}
		for j := range resp.Findings {
			f := resp.Findings[j]
			if f.Category == "" {
				f.Category = history[i].Category
			}
			findings = append(findings, f)
		}
	}
	return findings
}

// dedupeFindings collapses findings sharing a dedup key, keeping the
// highest-confidence instance. Input order is preserved for survivors.
func dedupeFindings(findings []models.Finding) []models.Finding {
	index := make(map[string]int, len(findings))
	out := make([]models.Finding, 0, len(findings))

	for i := range findings {
		key := findings[i].DedupKey()
		if at, seen := index[key]; seen {
			if findings[i].Confidence.Normalized() > out[at].Confidence.Normalized() {
				out[at] = findings[i]
			}
			continue
		}
		index[key] = len(out)
		out = append(out, findings[i])
	}
	return out
}

// rankFindings stable-sorts by severity descending, then per-finding
// confidence descending. Stability keeps input order for full ties, which
// makes reports reproducible.
func rankFindings(findings []models.Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		ri, rj := findings[i].Severity.Rank(), findings[j].Severity.Rank()
		if ri != rj {
			return ri > rj
		}
		return findings[i].Confidence.Normalized() > findings[j].Confidence.Normalized()
	})
}
