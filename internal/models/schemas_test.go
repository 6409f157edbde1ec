package models

import (
	"encoding/json"
	"testing"
)

func decodeSchema(t *testing.T, category Category) map[string]interface{} {
	t.Helper()
	raw := WorkerResponseSchema(category)
	var schema map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &schema); err != nil {
		t.Fatalf("schema for %s is not valid JSON: %v", category, err)
	}
	return schema
}

func TestWorkerResponseSchemaEnvelope(t *testing.T) {
	for _, category := range Categories() {
		schema := decodeSchema(t, category)

		required, ok := schema["required"].([]interface{})
		if !ok || len(required) != 1 || required[0] != "confidence" {
			t.Errorf("%s: required should be exactly [confidence], got %v", category, schema["required"])
		}

		if schema["additionalProperties"] != true {
			t.Errorf("%s: unknown fields must be tolerated", category)
		}

		deps, ok := schema["dependencies"].(map[string]interface{})
		if !ok {
			t.Fatalf("%s: missing dependencies block", category)
		}
		rec, ok := deps["recommendation"].([]interface{})
		if !ok || len(rec) != 1 || rec[0] != "rationale" {
			t.Errorf("%s: recommendation must depend on rationale, got %v", category, deps["recommendation"])
		}
	}
}

func TestWorkerResponseSchemaConfidenceForms(t *testing.T) {
	schema := decodeSchema(t, CategoryResearch)
	props := schema["properties"].(map[string]interface{})
	conf := props["confidence"].(map[string]interface{})
	oneOf, ok := conf["oneOf"].([]interface{})
	if !ok || len(oneOf) != 2 {
		t.Fatalf("confidence should accept two wire forms, got %v", conf)
	}

	numeric := oneOf[0].(map[string]interface{})
	if numeric["type"] != "integer" || numeric["minimum"] != float64(1) || numeric["maximum"] != float64(10) {
		t.Errorf("numeric form should be an integer in [1,10], got %v", numeric)
	}

	level := oneOf[1].(map[string]interface{})
	enum, ok := level["enum"].([]interface{})
	if !ok || len(enum) != 3 {
		t.Errorf("level form should enumerate high/medium/low, got %v", level)
	}
}

func TestSecuritySchemaRequiresEvidence(t *testing.T) {
	schema := decodeSchema(t, CategorySecurity)
	props := schema["properties"].(map[string]interface{})
	findings := props["findings"].(map[string]interface{})
	items := findings["items"].(map[string]interface{})
	required := items["required"].([]interface{})

	found := false
	for _, r := range required {
		if r == "evidence" {
			found = true
		}
	}
	if !found {
		t.Error("security findings must require evidence")
	}

	// Other categories only require severity per finding.
	research := decodeSchema(t, CategoryResearch)
	rItems := research["properties"].(map[string]interface{})["findings"].(map[string]interface{})["items"].(map[string]interface{})
	rRequired := rItems["required"].([]interface{})
	if len(rRequired) != 1 || rRequired[0] != "severity" {
		t.Errorf("research findings should require only severity, got %v", rRequired)
	}
}
