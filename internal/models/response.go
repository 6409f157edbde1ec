package models

import (
	"fmt"
)

// WorkerResponse is the normalized output of any worker, regardless of
// category. Every response passes schema validation before it may influence
// a gating decision; invalid responses contribute confidence 0.
type WorkerResponse struct {
	Worker         string                 `json:"worker,omitempty"`
	Confidence     Confidence             `json:"confidence"`
	Findings       []Finding              `json:"findings"`
	Alternatives   bool                   `json:"alternatives,omitempty"` // findings are mutually exclusive options
	Recommendation string                 `json:"recommendation,omitempty"`
	Rationale      string                 `json:"rationale,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"` // tolerated, never trusted for decisions
}

// Validate checks structural rules that hold for every category: confidence
// presence and domain, finding domains, and the recommendation/rationale
// cross-field rule. Category-specific contracts layer on top in the schema
// package.
func (r *WorkerResponse) Validate() error {
	if !r.Confidence.IsSet() {
		return fmt.Errorf("confidence is required")
	}
	if !r.Confidence.Valid() {
		return fmt.Errorf("confidence %s is outside the 1-10 / high-medium-low domain", r.Confidence)
	}
	for i := range r.Findings {
		if err := r.Findings[i].Validate(); err != nil {
			return fmt.Errorf("finding %d: %w", i, err)
		}
	}
	if r.Recommendation != "" && r.Rationale == "" {
		return fmt.Errorf("recommendation requires a rationale")
	}
	if r.Alternatives && len(r.Findings) >= 2 && r.Recommendation == "" {
		return fmt.Errorf("a recommendation is required when findings are mutually exclusive alternatives")
	}
	return nil
}

// Degradation reasons recorded on contributions that could not produce a
// valid response. They surface in logs and in the report annotation.
const (
	DegradedSchema  = "schema"
	DegradedTimeout = "timeout"
	DegradedCrash   = "crash"
	DegradedInvoke  = "invoke"
)

// Contribution is one worker's share of a dispatch round. A degraded
// contribution has no trusted response and counts as confidence 0 during
// evaluation; it is never silently dropped.
type Contribution struct {
	Worker   string
	Category Category
	Response *WorkerResponse // nil when Degraded
	Degraded bool
	Reason   string // one of the Degraded* constants when Degraded
	Detail   string // offending payload or error text, for diagnosis
}

// NormalizedConfidence returns the contribution's confidence on the 1-10
// scale, with degraded contributions pinned to 0.
func (c *Contribution) NormalizedConfidence() int {
	if c.Degraded || c.Response == nil {
		return 0
	}
	return c.Response.Confidence.Normalized()
}
