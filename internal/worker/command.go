package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"time"

	"github.com/calder/delegator/internal/models"
	"github.com/calder/delegator/internal/schema"
)

// CommandWorker adapts an external executable to the Worker interface. The
// invocation is written to the process stdin as JSON and a WorkerResponse is
// read back from stdout as JSON. Cancellation is cooperative: the context
// kills the process, which the engine then records as a degraded
// contribution.
type CommandWorker struct {
	WorkerName     string
	WorkerCategory models.Category
	Command        string
	Args           []string
	Dir            string            // working directory, empty = inherit
	Timeout        time.Duration     // per-worker override, 0 = engine default only
	Validator      *schema.Validator // nil = default contracts
}

// commandInput is the JSON document written to the worker's stdin.
type commandInput struct {
	Task       models.Task                `json:"task"`
	Context    *models.RepositoryContext  `json:"context,omitempty"`
	Directives []models.ResearchDirective `json:"directives,omitempty"`
	History    []*models.WorkerResponse   `json:"history,omitempty"`
}

// Name implements Worker.
func (w *CommandWorker) Name() string { return w.WorkerName }

// Category implements Worker.
func (w *CommandWorker) Category() models.Category { return w.WorkerCategory }

// Invoke runs the external command and decodes its stdout through the
// category contract's raw-payload check, so required-field presence is
// verified on the wire document and an offending payload is retained in the
// resulting error.
func (w *CommandWorker) Invoke(ctx context.Context, inv Invocation) (*models.WorkerResponse, error) {
	if w.Command == "" {
		return nil, fmt.Errorf("worker %q has no command configured", w.WorkerName)
	}

	if w.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.Timeout)
		defer cancel()
	}

	// A snapshot with every field degraded carries no signal; omit it from
	// the wire document rather than sending an empty object.
	snapshot := inv.Context
	if snapshot != nil && snapshot.Empty() {
		snapshot = nil
	}

	input, err := json.Marshal(commandInput{
		Task:       inv.Task,
		Context:    snapshot,
		Directives: inv.Directives,
		History:    inv.History,
	})
	if err != nil {
		return nil, fmt.Errorf("encode invocation for worker %q: %w", w.WorkerName, err)
	}

	cmd := exec.CommandContext(ctx, w.Command, w.Args...)
	cmd.Dir = w.Dir
	cmd.Stdin = bytes.NewReader(input)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("worker %q command failed: %w (stderr: %s)",
			w.WorkerName, err, truncate(stderr.String(), 512))
	}

	validator := w.Validator
	if validator == nil {
		validator = schema.NewValidator()
	}
	resp, verr := validator.ValidateRaw(w.WorkerCategory, stdout.Bytes())
	if verr != nil {
		return nil, verr
	}
	if resp.Worker == "" {
		resp.Worker = w.WorkerName
	}
	return resp, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
