package models

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Category identifies the capability a task requires. Worker selection is
// keyed on this closed set; unknown categories are unroutable.
type Category string

const (
	CategoryResearch Category = "research"
	CategorySecurity Category = "security"
	CategoryCodegen  Category = "codegen"
	CategoryDocs     Category = "docs"
)

// Categories lists every routable category in declaration order.
func Categories() []Category {
	return []Category{CategoryResearch, CategorySecurity, CategoryCodegen, CategoryDocs}
}

// ValidCategory reports whether c is a member of the closed category set.
func ValidCategory(c Category) bool {
	switch c {
	case CategoryResearch, CategorySecurity, CategoryCodegen, CategoryDocs:
		return true
	}
	return false
}

// RiskClass is an optional caller hint. RiskHigh forces escalation regardless
// of the confidence score.
type RiskClass string

const (
	RiskNone RiskClass = "none"
	RiskLow  RiskClass = "low"
	RiskHigh RiskClass = "high"
)

// Task is the unit of work submitted to the orchestrator. Tasks are immutable
// once dispatched; the session owns everything that changes afterwards.
type Task struct {
	ID          string    `json:"id" yaml:"id"`
	Category    Category  `json:"category" yaml:"category"`
	Payload     string    `json:"payload" yaml:"payload"`
	Constraints []string  `json:"constraints,omitempty" yaml:"constraints,omitempty"`
	RiskClass   RiskClass `json:"risk_class,omitempty" yaml:"risk"`
}

// NewTaskID mints an opaque unique task identifier.
func NewTaskID() string {
	return uuid.NewString()
}

// Validate checks the task has the fields dispatch depends on.
func (t *Task) Validate() error {
	if t.ID == "" {
		return errors.New("task id is required")
	}
	if t.Category == "" {
		return errors.New("task category is required")
	}
	if !ValidCategory(t.Category) {
		return fmt.Errorf("unknown task category %q", t.Category)
	}
	if t.Payload == "" {
		return errors.New("task payload is required")
	}
	switch t.RiskClass {
	case "", RiskNone, RiskLow, RiskHigh:
	default:
		return fmt.Errorf("unknown risk class %q", t.RiskClass)
	}
	return nil
}

// HighRisk reports whether the task carries the hard escalation override.
func (t *Task) HighRisk() bool {
	return t.RiskClass == RiskHigh
}
