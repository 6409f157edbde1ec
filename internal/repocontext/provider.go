// Package repocontext extracts a point-in-time snapshot of repository state
// for sharing across every worker invocation in a session.
package repocontext

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/calder/delegator/internal/models"
)

// ErrNotARepository signals that the working tree is not a git repository at
// all. This is fatal for the session and never retried.
var ErrNotARepository = errors.New("working tree is not a git repository")

// CommandRunner executes a command and returns its combined output. The
// abstraction exists so tests can substitute canned output and count calls.
type CommandRunner interface {
	Run(ctx context.Context, dir string, name string, args ...string) (string, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run implements CommandRunner.
func (ExecRunner) Run(ctx context.Context, dir string, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// recentCommitCount bounds the log extraction.
const recentCommitCount = 10

// Provider computes the repository snapshot lazily and at most once. Repeated
// Snapshot calls within a session return the same value by reference with no
// second extraction.
type Provider struct {
	runner CommandRunner
	dir    string

	once sync.Once
	snap *models.RepositoryContext
	err  error
}

// NewProvider creates a Provider for the given working directory. A nil
// runner defaults to ExecRunner.
func NewProvider(dir string, runner CommandRunner) *Provider {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &Provider{runner: runner, dir: dir}
}

// Snapshot returns the cached repository context, extracting it on first
// call. Extraction order is branch, status, diff, log; each field degrades
// independently to its zero value on failure. Only a tree that is not a
// repository at all fails the snapshot.
func (p *Provider) Snapshot(ctx context.Context) (*models.RepositoryContext, error) {
	p.once.Do(func() {
		p.snap, p.err = p.extract(ctx)
	})
	return p.snap, p.err
}

func (p *Provider) extract(ctx context.Context) (*models.RepositoryContext, error) {
	if out, err := p.runner.Run(ctx, p.dir, "git", "rev-parse", "--is-inside-work-tree"); err != nil || strings.TrimSpace(out) != "true" {
		return nil, fmt.Errorf("%w: %s", ErrNotARepository, p.dir)
	}

	snap := &models.RepositoryContext{}

	if out, err := p.runner.Run(ctx, p.dir, "git", "rev-parse", "--abbrev-ref", "HEAD"); err == nil {
		snap.Branch = strings.TrimSpace(out)
	}

	if out, err := p.runner.Run(ctx, p.dir, "git", "status", "--porcelain"); err == nil {
		snap.ChangedFiles = parsePorcelain(out)
	}

	if out, err := p.runner.Run(ctx, p.dir, "git", "diff", "--stat", "HEAD"); err == nil {
		snap.DiffSummary = strings.TrimSpace(out)
	}

	if out, err := p.runner.Run(ctx, p.dir, "git", "log", "--oneline", fmt.Sprintf("-%d", recentCommitCount)); err == nil {
		snap.RecentCommits = splitLines(out)
	}

	return snap, nil
}

// parsePorcelain extracts file paths from `git status --porcelain` output.
// Renames report the new path.
func parsePorcelain(out string) []string {
	var files []string
	for _, line := range splitLines(out) {
		if len(line) < 4 {
			continue
		}
		path := strings.TrimSpace(line[3:])
		if idx := strings.Index(path, " -> "); idx >= 0 {
			path = path[idx+4:]
		}
		if path != "" {
			files = append(files, path)
		}
	}
	return files
}

func splitLines(out string) []string {
	var lines []string
	for _, line := range strings.Split(out, "\n") {
		if trimmed := strings.TrimRight(line, "\r"); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines
}
