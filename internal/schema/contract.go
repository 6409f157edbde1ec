// Package schema centralizes validation of worker responses against
// declarative, versioned, category-keyed contracts. Validation happens once
// at the invocation boundary so no worker category can bypass the
// confidence-safety invariant by embedding its own checks.
package schema

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/calder/delegator/internal/models"
)

// Contract is the declarative output contract for one worker category:
// required envelope fields, enum domains, numeric ranges, and cross-field
// rules. Contracts are versioned so evolution stays backward-compatible.
type Contract struct {
	Category models.Category `yaml:"category"`
	Version  string          `yaml:"version"`

	// RequiredFields lists envelope fields that must be present on the wire.
	RequiredFields []string `yaml:"required_fields"`

	// RequireFindingEvidence requires every finding to carry evidence.
	// On for security: severity-gated decisions must be traceable.
	RequireFindingEvidence bool `yaml:"require_finding_evidence"`

	// RequireFindingConfidence requires every finding to carry its own
	// confidence, independent of the response-level score.
	RequireFindingConfidence bool `yaml:"require_finding_confidence"`
}

// JSONSchema renders the contract's wire-level description.
func (c Contract) JSONSchema() string {
	return models.WorkerResponseSchema(c.Category)
}

// DefaultContracts returns the built-in contract set, one per routable
// category.
func DefaultContracts() map[models.Category]Contract {
	contracts := make(map[models.Category]Contract, 4)
	for _, cat := range models.Categories() {
		contracts[cat] = Contract{
			Category:       cat,
			Version:        models.SchemaVersion,
			RequiredFields: []string{"confidence"},
		}
	}

	sec := contracts[models.CategorySecurity]
	sec.RequireFindingEvidence = true
	sec.RequireFindingConfidence = true
	contracts[models.CategorySecurity] = sec

	return contracts
}

// contractOverrides is the YAML shape of a contract override file.
type contractOverrides struct {
	Version    string                             `yaml:"version"`
	Categories map[models.Category]contractTweaks `yaml:"categories"`
}

type contractTweaks struct {
	RequiredFields           []string `yaml:"required_fields"`
	RequireFindingEvidence   *bool    `yaml:"require_finding_evidence"`
	RequireFindingConfidence *bool    `yaml:"require_finding_confidence"`
}

// LoadOverrides applies a YAML override file on top of the built-in
// contracts. Overrides only tighten or relax knobs for known categories; they
// cannot introduce a new routable category.
func LoadOverrides(path string, contracts map[models.Category]Contract) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read contract overrides: %w", err)
	}

	var overrides contractOverrides
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return fmt.Errorf("parse contract overrides: %w", err)
	}

	for cat, tweaks := range overrides.Categories {
		contract, ok := contracts[cat]
		if !ok {
			return fmt.Errorf("contract override for unknown category %q", cat)
		}
		if overrides.Version != "" {
			contract.Version = overrides.Version
		}
		if len(tweaks.RequiredFields) > 0 {
			contract.RequiredFields = tweaks.RequiredFields
		}
		if tweaks.RequireFindingEvidence != nil {
			contract.RequireFindingEvidence = *tweaks.RequireFindingEvidence
		}
		if tweaks.RequireFindingConfidence != nil {
			contract.RequireFindingConfidence = *tweaks.RequireFindingConfidence
		}
		contracts[cat] = contract
	}

	return nil
}
