package taskfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calder/delegator/internal/models"
)

const securityTaskFile = `---
id: audit-auth
category: security
risk: high
---
# Audit the auth change

Review the token handling changes on this branch for
credential leaks.

## Constraints

- do not modify any file
- finish within one scan pass

## Notes under constraints are ignored as payload
`

func TestParseBytes(t *testing.T) {
	task, err := ParseBytes([]byte(securityTaskFile))
	require.NoError(t, err)

	assert.Equal(t, "audit-auth", task.ID)
	assert.Equal(t, models.CategorySecurity, task.Category)
	assert.Equal(t, models.RiskHigh, task.RiskClass)
	assert.Contains(t, task.Payload, "Review the token handling changes")
	assert.Equal(t, []string{"do not modify any file", "finish within one scan pass"}, task.Constraints)
	assert.NotContains(t, task.Payload, "do not modify any file", "constraints are lifted out of the payload")
}

func TestParseBytesFillsDefaults(t *testing.T) {
	body := "---\ncategory: docs\n---\nWrite release notes for the current diff.\n"
	task, err := ParseBytes([]byte(body))
	require.NoError(t, err)

	assert.NotEmpty(t, task.ID, "an omitted id is generated")
	assert.Equal(t, models.RiskNone, task.RiskClass)
}

func TestParseBytesErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"no frontmatter", "Just a body.\n"},
		{"unclosed frontmatter", "---\ncategory: docs\n"},
		{"unknown category", "---\ncategory: deploy\n---\nbody\n"},
		{"empty payload", "---\ncategory: docs\n---\n"},
		{"bad yaml", "---\ncategory: [\n---\nbody\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBytes([]byte(tt.body))
			assert.Error(t, err)
		})
	}
}

func TestParseFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "task.md")
	require.NoError(t, os.WriteFile(path, []byte(securityTaskFile), 0o644))

	task, err := Parse(path)
	require.NoError(t, err)
	assert.Equal(t, "audit-auth", task.ID)

	_, err = Parse(filepath.Join(t.TempDir(), "missing.md"))
	assert.Error(t, err)
}
