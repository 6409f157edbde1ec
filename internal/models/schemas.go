package models

import (
	"encoding/json"
)

// SchemaVersion is the current version of the worker response contracts.
// Versioned so contract evolution stays backward-compatible: unknown fields
// are ignored, missing required fields are rejected.
const SchemaVersion = "1"

// WorkerResponseSchema returns a JSON Schema describing the response contract
// for the given category. Every category shares the same envelope: a required
// confidence (integer 1-10 or high/medium/low level), an ordered findings
// array, and the recommendation/rationale dependency. Security responses
// additionally require each finding to carry evidence, since severity-gated
// decisions must be traceable to something concrete.
func WorkerResponseSchema(category Category) string {
	findingRequired := []string{"severity"}
	if category == CategorySecurity {
		findingRequired = append(findingRequired, "evidence")
	}

	schema := map[string]interface{}{
		"$schema":     "http://json-schema.org/draft-07/schema#",
		"title":       "Worker Response",
		"description": "Structured output from a " + string(category) + " worker",
		"version":     SchemaVersion,
		"type":        "object",
		"required":    []string{"confidence"},
		"properties": map[string]interface{}{
			"worker": map[string]interface{}{
				"type":        "string",
				"description": "Name of the worker that produced the response",
			},
			"confidence": confidenceSchema(),
			"findings": map[string]interface{}{
				"type":        "array",
				"items":       findingSchema(findingRequired),
				"description": "Ordered list of actionable findings, may be empty",
			},
			"alternatives": map[string]interface{}{
				"type":        "boolean",
				"description": "True when the findings are mutually exclusive options",
			},
			"recommendation": map[string]interface{}{
				"type":        "string",
				"description": "Single preferred option",
			},
			"rationale": map[string]interface{}{
				"type":        "string",
				"description": "Justification, required whenever recommendation is present",
			},
			"metadata": map[string]interface{}{
				"type":                 "object",
				"additionalProperties": true,
				"description":          "Additional data, tolerated but never trusted for decisions",
			},
		},
		"dependencies": map[string]interface{}{
			"recommendation": []string{"rationale"},
		},
		// Unknown extra fields are forward-compatible, never trusted.
		"additionalProperties": true,
	}

	jsonBytes, _ := json.Marshal(schema)
	return string(jsonBytes)
}

// confidenceSchema accepts both wire forms of a confidence value.
func confidenceSchema() map[string]interface{} {
	return map[string]interface{}{
		"oneOf": []interface{}{
			map[string]interface{}{
				"type":        "integer",
				"minimum":     1,
				"maximum":     10,
				"description": "Numeric confidence on the 1-10 scale",
			},
			map[string]interface{}{
				"type":        "string",
				"enum":        []string{ConfidenceHigh, ConfidenceMedium, ConfidenceLow},
				"description": "Enum confidence level",
			},
		},
	}
}

// findingSchema describes a single finding entry.
func findingSchema(required []string) map[string]interface{} {
	return map[string]interface{}{
		"type":     "object",
		"required": required,
		"properties": map[string]interface{}{
			"category": map[string]interface{}{
				"type": "string",
				"enum": []string{
					string(CategoryResearch), string(CategorySecurity),
					string(CategoryCodegen), string(CategoryDocs),
				},
			},
			"severity": map[string]interface{}{
				"type": "string",
				"enum": []string{
					string(SeverityCritical), string(SeverityHigh),
					string(SeverityMedium), string(SeverityLow),
				},
				"description": "Finding severity, ordered CRITICAL > HIGH > MEDIUM > LOW",
			},
			"location": map[string]interface{}{
				"type":        "string",
				"description": "Optional file:line reference",
			},
			"evidence": map[string]interface{}{
				"type":        "string",
				"description": "What was observed",
			},
			"impact": map[string]interface{}{
				"type":        "string",
				"description": "Why it matters",
			},
			"remediation": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"description": map[string]interface{}{"type": "string"},
					"example":     map[string]interface{}{"type": "string"},
					"references": map[string]interface{}{
						"type":  "array",
						"items": map[string]interface{}{"type": "string"},
					},
				},
				"additionalProperties": false,
			},
			"confidence": confidenceSchema(),
		},
		"additionalProperties": true,
	}
}
