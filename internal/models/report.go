package models

// Summary holds per-severity counts over the report's surviving findings.
// Total always equals len(Report.Findings); duplicates removed during
// aggregation are reflected here, never tracked separately.
type Summary struct {
	Total    int `json:"total"`
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
}

// Report is the final structured document handed back to the caller:
// ranked, de-duplicated findings plus the decision they led to. It is
// machine-consumable; no field requires re-parsing free text.
type Report struct {
	Findings   []Finding      `json:"findings"`
	Summary    Summary        `json:"summary"`
	Decision   GatingDecision `json:"decision"`
	Annotation string         `json:"annotation"`
}

// Count recomputes the summary from the findings slice.
func (r *Report) Count() Summary {
	s := Summary{Total: len(r.Findings)}
	for i := range r.Findings {
		switch r.Findings[i].Severity {
		case SeverityCritical:
			s.Critical++
		case SeverityHigh:
			s.High++
		case SeverityMedium:
			s.Medium++
		case SeverityLow:
			s.Low++
		}
	}
	return s
}
