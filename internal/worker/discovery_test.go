package worker

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calder/delegator/internal/models"
	"github.com/calder/delegator/internal/schema"
)

const scannerDefinition = `---
name: secret-scanner
category: security
command: secret-scan
args: ["--format", "json"]
timeout: 2m
---
# Secret scanner

Scans changed files for hardcoded credentials and
reports each hit with evidence.

## Notes

Runs offline.
`

func writeDefinition(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestParseDefinition(t *testing.T) {
	dir := t.TempDir()
	path := writeDefinition(t, dir, "scanner.md", scannerDefinition)

	def, err := ParseDefinition(path)
	require.NoError(t, err)

	assert.Equal(t, "secret-scanner", def.Name)
	assert.Equal(t, models.CategorySecurity, def.Category)
	assert.Equal(t, "secret-scan", def.Command)
	assert.Equal(t, []string{"--format", "json"}, def.Args)
	assert.Equal(t, 2*time.Minute, def.Timeout)
	assert.Equal(t, "Scans changed files for hardcoded credentials and reports each hit with evidence.", def.Description)
	assert.Equal(t, path, def.FilePath)

	v := schema.NewValidator()
	w := def.Worker(v)
	assert.Equal(t, "secret-scanner", w.Name())
	assert.Equal(t, models.CategorySecurity, w.Category())
	assert.Same(t, v, w.Validator)
}

func TestParseDefinitionErrors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		body string
		want string
	}{
		{"no frontmatter", "# Just markdown\n", "frontmatter block"},
		{"unclosed frontmatter", "---\nname: x\n", "not closed"},
		{"missing name", "---\ncategory: docs\ncommand: x\n---\n", "name"},
		{"unknown category", "---\nname: w\ncategory: deploy\ncommand: x\n---\n", "category"},
		{"missing command", "---\nname: w\ncategory: docs\n---\n", "command"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeDefinition(t, dir, tt.name+".md", tt.body)
			_, err := ParseDefinition(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestDiscoverSkipsNonDefinitions(t *testing.T) {
	dir := t.TempDir()
	writeDefinition(t, dir, "scanner.md", scannerDefinition)
	writeDefinition(t, dir, "README.md", "# Docs for this directory\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	defs, err := Discover(dir)
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, "secret-scanner", defs[0].Name)
}

func TestDiscoverMissingDirectory(t *testing.T) {
	defs, err := Discover(filepath.Join(t.TempDir(), "nope"))
	assert.NoError(t, err)
	assert.Empty(t, defs)
}

func TestLoadInto(t *testing.T) {
	dir := t.TempDir()
	writeDefinition(t, dir, "scanner.md", scannerDefinition)

	r := NewRegistry()
	n, err := LoadInto(dir, r, schema.NewValidator())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	workers, err := r.Resolve(models.CategorySecurity)
	require.NoError(t, err)
	assert.Equal(t, "secret-scanner", workers[0].Name())
}
