package models

import (
	"testing"
)

func TestSeverityRank(t *testing.T) {
	ordered := []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}
	for i := 0; i < len(ordered)-1; i++ {
		if ordered[i].Rank() <= ordered[i+1].Rank() {
			t.Errorf("%s should rank above %s", ordered[i], ordered[i+1])
		}
	}
	if Severity("WHATEVER").Rank() != 0 {
		t.Error("unknown severity should rank 0")
	}
}

func TestFindingDedupKey(t *testing.T) {
	a := Finding{Category: CategorySecurity, Location: "auth.go:42", Evidence: "hardcoded credential"}
	b := Finding{Category: CategorySecurity, Location: "auth.go:42", Evidence: "hardcoded credential", Confidence: NumericConfidence(9)}
	if a.DedupKey() != b.DedupKey() {
		t.Error("findings differing only in confidence should share a dedup key")
	}

	c := Finding{Category: CategorySecurity, Location: "auth.go:42", Evidence: "missing nil check"}
	if a.DedupKey() == c.DedupKey() {
		t.Error("findings with different evidence should have distinct dedup keys")
	}

	d := Finding{Category: CategorySecurity, Location: "auth.go:7", Evidence: "hardcoded credential"}
	if a.DedupKey() == d.DedupKey() {
		t.Error("findings at different locations should have distinct dedup keys")
	}
}

func TestFindingValidate(t *testing.T) {
	valid := Finding{Severity: SeverityHigh, Evidence: "x", Confidence: NumericConfidence(8)}
	if err := valid.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	missing := Finding{Evidence: "x"}
	if err := missing.Validate(); err == nil {
		t.Error("missing severity should fail validation")
	}

	unknown := Finding{Severity: "EXTREME"}
	if err := unknown.Validate(); err == nil {
		t.Error("unknown severity should fail validation")
	}

	badConf := Finding{Severity: SeverityLow, Confidence: NumericConfidence(14)}
	if err := badConf.Validate(); err == nil {
		t.Error("out-of-range finding confidence should fail validation")
	}
}
