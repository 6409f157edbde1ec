package models

import (
	"errors"
	"fmt"
)

// DecisionKind enumerates the three gating outcomes.
type DecisionKind string

const (
	DecisionProceed        DecisionKind = "proceed"
	DecisionPresentOptions DecisionKind = "present_options"
	DecisionEscalate       DecisionKind = "escalate"
)

// Report annotations distinguishing how a decision was reached. Every report
// produced on a degraded path carries one, so the caller's downstream handling
// (auto-apply vs. require confirmation) is never ambiguous.
const (
	AnnotationHighConfidence = "high-confidence proceed"
	AnnotationBestEffort     = "best-effort after failures"
	AnnotationExhausted      = "confidence could not be raised further"
)

// ResearchDirective tells an escalation round what to investigate and which
// capability should do it. An Escalate decision without at least one directive
// is a defect, not a valid state.
type ResearchDirective struct {
	Topic      string   `json:"topic"`
	Capability Category `json:"capability"`
	Finding    *Finding `json:"finding,omitempty"` // the low-confidence finding that prompted it
}

// Option is one of the alternatives surfaced by a PresentOptions decision.
type Option struct {
	Finding Finding `json:"finding"`
	Summary string  `json:"summary"`
}

// GatingDecision is the outcome of applying the evaluator's aggregate score
// to the gating policy: act, ask, or investigate.
type GatingDecision struct {
	Kind           DecisionKind        `json:"kind"`
	Confidence     int                 `json:"confidence"` // aggregate score the decision was made at
	Recommendation string              `json:"recommendation,omitempty"`
	Rationale      string              `json:"rationale,omitempty"`
	Options        []Option            `json:"options,omitempty"`
	Comparison     string              `json:"comparison,omitempty"`
	Directives     []ResearchDirective `json:"directives,omitempty"`
	Annotation     string              `json:"annotation,omitempty"`
}

// Validate enforces the per-variant invariants.
func (d *GatingDecision) Validate() error {
	switch d.Kind {
	case DecisionProceed:
		if d.Recommendation == "" {
			return errors.New("proceed decision requires a recommendation")
		}
		if d.Rationale == "" {
			return errors.New("proceed decision requires a rationale")
		}
	case DecisionPresentOptions:
		if len(d.Options) == 0 {
			return errors.New("present-options decision requires at least one option")
		}
	case DecisionEscalate:
		if len(d.Directives) == 0 {
			return errors.New("escalate decision requires at least one research directive")
		}
		for i := range d.Directives {
			if d.Directives[i].Topic == "" {
				return fmt.Errorf("directive %d has no topic", i)
			}
			if !ValidCategory(d.Directives[i].Capability) {
				return fmt.Errorf("directive %d has no routable capability", i)
			}
		}
	default:
		return fmt.Errorf("unknown decision kind %q", d.Kind)
	}
	return nil
}
