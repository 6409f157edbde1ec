package gating

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/calder/delegator/internal/models"
	"github.com/calder/delegator/internal/schema"
	"github.com/calder/delegator/internal/worker"
)

// workerOutcome pairs a contribution with its wall-clock duration for
// logging and calibration.
type workerOutcome struct {
	contribution models.Contribution
	duration     time.Duration
}

// dispatch invokes the given workers concurrently, bounded by the configured
// concurrency limit and a per-worker timeout. The step blocks until every
// invoked worker completes or times out; a timeout, crash, invocation error
// or schema violation degrades that single contribution to confidence 0
// rather than aborting the dispatch. Results are ordered by worker name so
// downstream evaluation is reproducible regardless of arrival order.
func (e *Engine) dispatch(ctx context.Context, s *Session, workers []worker.Worker, directives []models.ResearchDirective) []models.Contribution {
	maxConcurrency := e.opts.MaxConcurrency
	if maxConcurrency <= 0 || maxConcurrency > len(workers) {
		maxConcurrency = len(workers)
	}

	inv := worker.Invocation{
		Task:       s.Task,
		Context:    s.Context,
		Directives: directives,
		History:    s.Responses(),
	}

	semaphore := make(chan struct{}, maxConcurrency)
	outcomes := make(chan workerOutcome, len(workers))

	for _, w := range workers {
		semaphore <- struct{}{}
		go func(w worker.Worker) {
			defer func() { <-semaphore }()
			outcomes <- e.invokeOne(ctx, w, inv)
		}(w)
	}

	contributions := make([]models.Contribution, 0, len(workers))
	for range workers {
		outcome := <-outcomes
		e.logger.LogWorkerDone(outcome.contribution, outcome.duration)
		e.recordCalibration(ctx, s, outcome)
		contributions = append(contributions, outcome.contribution)
	}

	sort.Slice(contributions, func(i, j int) bool {
		return contributions[i].Worker < contributions[j].Worker
	})
	return contributions
}

// invokeOne runs a single worker behind a timeout and converts every failure
// mode into a degraded contribution. A worker panic is caught here at the
// invocation boundary; it must never terminate the session.
func (e *Engine) invokeOne(ctx context.Context, w worker.Worker, inv worker.Invocation) (outcome workerOutcome) {
	start := time.Now()
	name := w.Name()
	category := w.Category()

	defer func() {
		outcome.duration = time.Since(start)
		if r := recover(); r != nil {
			outcome.contribution = models.Contribution{
				Worker:   name,
				Category: category,
				Degraded: true,
				Reason:   models.DegradedCrash,
				Detail:   fmt.Sprintf("worker panic: %v", r),
			}
		}
	}()

	invokeCtx := ctx
	if e.opts.WorkerTimeout > 0 {
		var cancel context.CancelFunc
		invokeCtx, cancel = context.WithTimeout(ctx, e.opts.WorkerTimeout)
		defer cancel()
	}

	resp, err := w.Invoke(invokeCtx, inv)
	if err != nil {
		reason := models.DegradedInvoke
		detail := err.Error()
		var serr *schema.Error
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			reason = models.DegradedTimeout
		case errors.As(err, &serr):
			// The worker validated its own output and rejected it.
			reason = models.DegradedSchema
			detail = serr.Error() + " payload=" + serr.Payload
		}
		outcome.contribution = models.Contribution{
			Worker:   name,
			Category: category,
			Degraded: true,
			Reason:   reason,
			Detail:   detail,
		}
		return outcome
	}

	if resp == nil {
		outcome.contribution = models.Contribution{
			Worker:   name,
			Category: category,
			Degraded: true,
			Reason:   models.DegradedInvoke,
			Detail:   "worker returned no response and no error",
		}
		return outcome
	}
	if resp.Worker == "" {
		resp.Worker = name
	}

	if verr := e.validator.Validate(category, resp); verr != nil {
		outcome.contribution = models.Contribution{
			Worker:   name,
			Category: category,
			Degraded: true,
			Reason:   models.DegradedSchema,
			Detail:   verr.Error() + " payload=" + verr.Payload,
		}
		return outcome
	}

	outcome.contribution = models.Contribution{
		Worker:   name,
		Category: category,
		Response: resp,
	}
	return outcome
}

// recordCalibration persists the invocation outcome when a calibration
// recorder is wired. Recording failures are ignored: calibration is an
// adjustment input, never a gating dependency.
func (e *Engine) recordCalibration(ctx context.Context, s *Session, outcome workerOutcome) {
	if e.calibration == nil {
		return
	}
	c := outcome.contribution
	_ = e.calibration.RecordInvocation(ctx, s.ID, s.Task.ID, c, outcome.duration)
}
