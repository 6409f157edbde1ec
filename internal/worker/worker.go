// Package worker defines the uniform worker invocation interface and the
// capability-indexed registry used to route tasks to worker implementations.
package worker

import (
	"context"
	"fmt"
	"strings"

	"github.com/calder/delegator/internal/models"
)

// Invocation carries everything a worker receives: the task, the shared
// read-only repository snapshot, and, on escalation rounds, the research
// directives plus the accumulated response history of the session.
type Invocation struct {
	Task       models.Task
	Context    *models.RepositoryContext
	Directives []models.ResearchDirective
	History    []*models.WorkerResponse
}

// Escalation reports whether this invocation is an escalation-round
// re-invocation rather than an initial dispatch.
func (inv *Invocation) Escalation() bool {
	return len(inv.Directives) > 0
}

// Worker is a specialized implementation handling one task category. Workers
// are opaque: the orchestrator knows only this contract. Implementations
// must honor ctx cancellation at their I/O boundaries.
type Worker interface {
	Name() string
	Category() models.Category
	Invoke(ctx context.Context, inv Invocation) (*models.WorkerResponse, error)
}

// UnroutableTaskError signals that no worker is registered for the requested
// category. It is fatal and surfaced immediately; the orchestrator never
// degrades to a default worker.
type UnroutableTaskError struct {
	Category  models.Category
	Available []string
}

// Error implements the error interface.
func (e *UnroutableTaskError) Error() string {
	msg := fmt.Sprintf("no worker registered for category %q", e.Category)
	if len(e.Available) > 0 {
		msg += fmt.Sprintf(" (registered: %s)", strings.Join(e.Available, ", "))
	} else {
		msg += " (registry is empty)"
	}
	return msg
}
