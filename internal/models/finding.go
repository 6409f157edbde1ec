package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Severity classifies a finding. The order is significant: reports sort by
// severity descending and security gating keys off it.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
)

// Rank returns the sort weight of a severity. Higher is more severe.
// Unknown severities rank 0 so they sort last instead of being dropped.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	}
	return 0
}

// ValidSeverity reports whether s is a member of the severity enum.
func ValidSeverity(s Severity) bool {
	return s.Rank() > 0
}

// Remediation describes how to address a finding.
type Remediation struct {
	Description string   `json:"description,omitempty"`
	Example     string   `json:"example,omitempty"`
	References  []string `json:"references,omitempty"`
}

// Finding is a single actionable item within a worker response. Its
// confidence is independent of the response-level confidence: a response can
// be medium overall while containing one CRITICAL finding reported with high
// certainty.
type Finding struct {
	Category    Category    `json:"category,omitempty"`
	Severity    Severity    `json:"severity"`
	Location    string      `json:"location,omitempty"` // file:line, optional
	Evidence    string      `json:"evidence,omitempty"`
	Impact      string      `json:"impact,omitempty"`
	Remediation Remediation `json:"remediation,omitempty"`
	Confidence  Confidence  `json:"confidence,omitempty"`
}

// DedupKey identifies findings that describe the same observation. Two
// findings with the same category, location and evidence collapse into one,
// keeping the highest-confidence instance.
func (f *Finding) DedupKey() string {
	sum := sha256.Sum256([]byte(f.Evidence))
	return fmt.Sprintf("%s|%s|%s", f.Category, f.Location, hex.EncodeToString(sum[:]))
}

// Validate checks the finding's enum and range domains.
func (f *Finding) Validate() error {
	if f.Severity == "" {
		return fmt.Errorf("finding severity is required")
	}
	if !ValidSeverity(f.Severity) {
		return fmt.Errorf("unknown finding severity %q", f.Severity)
	}
	if f.Confidence.IsSet() && !f.Confidence.Valid() {
		return fmt.Errorf("finding confidence %s is outside the 1-10 / high-medium-low domain", f.Confidence)
	}
	return nil
}
