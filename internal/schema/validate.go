package schema

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/calder/delegator/internal/models"
)

// Error reports a contract violation. The orchestrator treats it identically
// to a worker crash: the contributor degrades to confidence 0 and the
// offending payload is retained for diagnosis, never partially trusted.
type Error struct {
	Category   models.Category
	Violations []string
	Payload    string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("response for category %q failed schema validation: %s",
		e.Category, strings.Join(e.Violations, "; "))
}

// Validator checks worker responses against the contract for their category.
type Validator struct {
	contracts map[models.Category]Contract
}

// NewValidator builds a Validator over the default contracts.
func NewValidator() *Validator {
	return &Validator{contracts: DefaultContracts()}
}

// NewValidatorWithContracts builds a Validator over an explicit contract set.
func NewValidatorWithContracts(contracts map[models.Category]Contract) *Validator {
	return &Validator{contracts: contracts}
}

// Contract returns the contract registered for a category.
func (v *Validator) Contract(category models.Category) (Contract, bool) {
	c, ok := v.contracts[category]
	return c, ok
}

// Validate checks a decoded response against its category contract. A nil
// return means the response may influence gating decisions.
func (v *Validator) Validate(category models.Category, resp *models.WorkerResponse) *Error {
	contract, ok := v.contracts[category]
	if !ok {
		return &Error{Category: category, Violations: []string{"no contract registered for category"}}
	}

	var violations []string
	if resp == nil {
		return &Error{Category: category, Violations: []string{"response is nil"}}
	}

	if err := resp.Validate(); err != nil {
		violations = append(violations, err.Error())
	}

	for i := range resp.Findings {
		f := &resp.Findings[i]
		if contract.RequireFindingEvidence && f.Evidence == "" {
			violations = append(violations, fmt.Sprintf("finding %d: evidence is required for %s responses", i, category))
		}
		if contract.RequireFindingConfidence && !f.Confidence.IsSet() {
			violations = append(violations, fmt.Sprintf("finding %d: per-finding confidence is required for %s responses", i, category))
		}
	}

	if len(violations) > 0 {
		payload, _ := json.Marshal(resp)
		return &Error{Category: category, Violations: violations, Payload: string(payload)}
	}
	return nil
}

// ValidateRaw decodes a wire payload and checks it against the category
// contract. Required-field presence is checked on the raw document, since a
// decoded struct cannot distinguish absent from zero-valued. Unknown extra
// fields are tolerated for forward compatibility.
func (v *Validator) ValidateRaw(category models.Category, data []byte) (*models.WorkerResponse, *Error) {
	contract, ok := v.contracts[category]
	if !ok {
		return nil, &Error{Category: category, Violations: []string{"no contract registered for category"}}
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &Error{
			Category:   category,
			Violations: []string{fmt.Sprintf("payload is not a JSON object: %v", err)},
			Payload:    string(data),
		}
	}

	var violations []string
	for _, field := range contract.RequiredFields {
		if _, present := raw[field]; !present {
			violations = append(violations, fmt.Sprintf("required field %q is missing", field))
		}
	}

	var resp models.WorkerResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		violations = append(violations, fmt.Sprintf("payload does not decode as a worker response: %v", err))
	}

	if len(violations) > 0 {
		return nil, &Error{Category: category, Violations: violations, Payload: string(data)}
	}

	if verr := v.Validate(category, &resp); verr != nil {
		verr.Payload = string(data)
		return nil, verr
	}
	return &resp, nil
}
