package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Confidence levels used by workers that report certainty as an enum rather
// than a number. The evaluator maps them onto the 1-10 scale.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// Numeric values the enum levels normalize to.
const (
	normalizedHigh   = 9
	normalizedMedium = 6
	normalizedLow    = 3
)

// Confidence is a worker-reported certainty value. Depending on the worker
// family it arrives either as an integer on the 1-10 scale or as one of the
// levels high/medium/low; both decode into this single type so the rest of
// the system never branches on the wire form.
type Confidence struct {
	set     bool
	numeric int
	level   string
}

// NumericConfidence builds a Confidence from a 1-10 integer.
func NumericConfidence(n int) Confidence {
	return Confidence{set: true, numeric: n}
}

// LevelConfidence builds a Confidence from a high/medium/low level.
func LevelConfidence(level string) Confidence {
	return Confidence{set: true, level: strings.ToLower(level)}
}

// IsSet reports whether the worker supplied any confidence at all.
func (c Confidence) IsSet() bool {
	return c.set
}

// IsLevel reports whether the value arrived as an enum level.
func (c Confidence) IsLevel() bool {
	return c.set && c.level != ""
}

// Level returns the enum level, or "" for numeric values.
func (c Confidence) Level() string {
	return c.level
}

// Valid reports whether the value is inside its domain: an integer in [1,10]
// or one of high/medium/low.
func (c Confidence) Valid() bool {
	if !c.set {
		return false
	}
	if c.level != "" {
		switch c.level {
		case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
			return true
		}
		return false
	}
	return c.numeric >= 1 && c.numeric <= 10
}

// Normalized maps the value onto the 1-10 scale: enum levels map to
// high=9, medium=6, low=3; numeric values pass through unchanged. Values
// outside the domain normalize to 0, the marker that forces escalation.
func (c Confidence) Normalized() int {
	if !c.Valid() {
		return 0
	}
	switch c.level {
	case ConfidenceHigh:
		return normalizedHigh
	case ConfidenceMedium:
		return normalizedMedium
	case ConfidenceLow:
		return normalizedLow
	}
	return c.numeric
}

// String renders the value in its wire form.
func (c Confidence) String() string {
	if !c.set {
		return "<unset>"
	}
	if c.level != "" {
		return c.level
	}
	return fmt.Sprintf("%d", c.numeric)
}

// MarshalJSON emits the wire form the value arrived in.
func (c Confidence) MarshalJSON() ([]byte, error) {
	if !c.set {
		return []byte("null"), nil
	}
	if c.level != "" {
		return json.Marshal(c.level)
	}
	return json.Marshal(c.numeric)
}

// UnmarshalJSON accepts either an integer or a level string. Values outside
// the domain are preserved so validation can report them; they normalize to 0.
func (c *Confidence) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" || trimmed == "" {
		*c = Confidence{}
		return nil
	}

	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*c = Confidence{set: true, numeric: n}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*c = Confidence{set: true, level: strings.ToLower(strings.TrimSpace(s))}
		return nil
	}

	return fmt.Errorf("confidence must be an integer or a high/medium/low level, got %s", trimmed)
}

// UnmarshalYAML mirrors UnmarshalJSON for task files and config fixtures.
func (c *Confidence) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var n int
	if err := unmarshal(&n); err == nil {
		*c = Confidence{set: true, numeric: n}
		return nil
	}
	var s string
	if err := unmarshal(&s); err == nil {
		if s == "" {
			*c = Confidence{}
			return nil
		}
		*c = Confidence{set: true, level: strings.ToLower(strings.TrimSpace(s))}
		return nil
	}
	return fmt.Errorf("confidence must be an integer or a high/medium/low level")
}
