package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// DelegatorHome resolves the directory holding delegator state (logs,
// calibration database, worker definitions).
// Priority order:
//  1. DELEGATOR_HOME environment variable
//  2. .delegator under the nearest ancestor containing a .git directory
//  3. .delegator under the current working directory
//
// The directory is created if it doesn't exist.
func DelegatorHome() (string, error) {
	if home := os.Getenv("DELEGATOR_HOME"); home != "" {
		return ensureDir(home)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}

	if root := findRepoRoot(cwd); root != "" {
		return ensureDir(filepath.Join(root, ".delegator"))
	}
	return ensureDir(filepath.Join(cwd, ".delegator"))
}

// findRepoRoot walks upward looking for a .git entry. Returns "" when no
// repository root is found.
func findRepoRoot(start string) string {
	current := start
	for {
		if _, err := os.Stat(filepath.Join(current, ".git")); err == nil {
			return current
		}
		parent := filepath.Dir(current)
		if parent == current {
			return ""
		}
		current = parent
	}
}

func ensureDir(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create delegator home %s: %w", dir, err)
	}
	return dir, nil
}
