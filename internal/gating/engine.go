// Package gating implements the confidence-gated delegation orchestrator:
// a per-session state machine that routes a task to registered workers,
// validates and scores their responses, and converts the aggregate
// confidence into one of three outcomes: proceed automatically, present
// options to the caller, or escalate into a bounded research loop.
package gating

import (
	"context"
	"fmt"
	"time"

	"github.com/calder/delegator/internal/confidence"
	"github.com/calder/delegator/internal/models"
	"github.com/calder/delegator/internal/schema"
	"github.com/calder/delegator/internal/worker"
)

// Options holds the gating policy knobs.
type Options struct {
	// ProceedThreshold: aggregate at or above proceeds automatically.
	ProceedThreshold int
	// PresentThreshold: aggregate at or above presents options; below it
	// the engine escalates.
	PresentThreshold int
	// EscalationCap bounds the escalation loop's iterations.
	EscalationCap int
	// WorkerTimeout bounds each worker invocation.
	WorkerTimeout time.Duration
	// MaxConcurrency bounds concurrent invocations per dispatch round
	// (0 = one slot per worker).
	MaxConcurrency int
}

// DefaultOptions returns the documented default gating policy.
func DefaultOptions() Options {
	return Options{
		ProceedThreshold: 8,
		PresentThreshold: 5,
		EscalationCap:    3,
		WorkerTimeout:    10 * time.Minute,
	}
}

// ContextProvider supplies the session's repository snapshot. The provider
// caches: repeated calls within a session return the same value.
type ContextProvider interface {
	Snapshot(ctx context.Context) (*models.RepositoryContext, error)
}

// CalibrationRecorder persists invocation outcomes for future familiarity
// adjustment. Optional; recording failures never influence gating.
type CalibrationRecorder interface {
	RecordInvocation(ctx context.Context, sessionID, taskID string, c models.Contribution, d time.Duration) error
}

// Outcome is what a completed session hands back to the caller: the final
// decision, the full report, and the decision trail including intermediate
// escalations.
type Outcome struct {
	SessionID  string
	Decision   models.GatingDecision
	Report     *models.Report
	Decisions  []models.GatingDecision
	Iterations int
}

// nopLogger discards all events.
type nopLogger struct{}

func (nopLogger) LogSessionStart(string, models.Task)                 {}
func (nopLogger) LogDispatchStart(int, []string)                      {}
func (nopLogger) LogWorkerDone(models.Contribution, time.Duration)    {}
func (nopLogger) LogEvaluation(int, int)                              {}
func (nopLogger) LogEscalation(int, []models.ResearchDirective)       {}
func (nopLogger) LogDecision(models.GatingDecision)                   {}
func (nopLogger) LogSessionEnd(string, *models.Report, time.Duration) {}

// Engine runs delegation sessions. It is the single control-flow owner of
// each session; sessions share nothing, so one Engine may run any number of
// them concurrently.
type Engine struct {
	registry    *worker.Registry
	validator   *schema.Validator
	evaluator   *confidence.Evaluator
	provider    ContextProvider
	calibration CalibrationRecorder
	logger      EventLogger
	opts        Options
}

// NewEngine wires an Engine. Registry, validator, evaluator and provider are
// required; logger may be nil.
func NewEngine(registry *worker.Registry, validator *schema.Validator, evaluator *confidence.Evaluator, provider ContextProvider, opts Options, logger EventLogger) (*Engine, error) {
	if registry == nil {
		return nil, fmt.Errorf("engine requires a worker registry")
	}
	if validator == nil {
		return nil, fmt.Errorf("engine requires a schema validator")
	}
	if evaluator == nil {
		return nil, fmt.Errorf("engine requires a confidence evaluator")
	}
	if provider == nil {
		return nil, fmt.Errorf("engine requires a context provider")
	}
	if opts.EscalationCap < 1 {
		opts.EscalationCap = DefaultOptions().EscalationCap
	}
	if opts.ProceedThreshold == 0 {
		opts.ProceedThreshold = DefaultOptions().ProceedThreshold
	}
	if opts.PresentThreshold == 0 {
		opts.PresentThreshold = DefaultOptions().PresentThreshold
	}
	if logger == nil {
		logger = nopLogger{}
	}
	return &Engine{
		registry:  registry,
		validator: validator,
		evaluator: evaluator,
		provider:  provider,
		logger:    logger,
		opts:      opts,
	}, nil
}

// SetCalibration wires an optional calibration recorder.
func (e *Engine) SetCalibration(rec CalibrationRecorder) {
	e.calibration = rec
}

// Submit runs one task through a full delegation session and returns the
// outcome. Fatal conditions (unroutable category, not a repository, caller
// cancellation) return an error; recoverable worker failures degrade to
// confidence 0 and the session continues.
func (e *Engine) Submit(ctx context.Context, task models.Task) (*Outcome, error) {
	if task.ID == "" {
		task.ID = models.NewTaskID()
	}
	if task.RiskClass == "" {
		task.RiskClass = models.RiskNone
	}
	if err := task.Validate(); err != nil {
		return nil, fmt.Errorf("invalid task: %w", err)
	}

	s := NewSession(task)
	e.logger.LogSessionStart(s.ID, task)

	// Classifying: resolve the task's workers and the capability escalation
	// rounds will target. Research workers handle escalation when
	// registered; otherwise the task's own category is re-invoked.
	workers, err := e.registry.Resolve(task.Category)
	if err != nil {
		return nil, err
	}
	escalationCategory := task.Category
	if task.Category != models.CategoryResearch {
		if _, rerr := e.registry.Resolve(models.CategoryResearch); rerr == nil {
			escalationCategory = models.CategoryResearch
		}
	}
	if err := s.advance(StateDispatching); err != nil {
		return nil, err
	}

	// The snapshot is the first worker invocation's dependency: computed
	// here, once, and shared read-only for the rest of the session.
	snap, err := e.provider.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	s.Context = snap

	e.logger.LogDispatchStart(0, workerNames(workers))
	current := e.dispatch(ctx, s, workers, nil)
	s.record(current)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var trail []models.GatingDecision
	for {
		if err := s.advance(StateEvaluating); err != nil {
			return nil, err
		}
		aggregate, err := e.evaluator.Evaluate(ctx, current)
		if err != nil {
			return nil, err
		}
		e.logger.LogEvaluation(s.IterationCount, aggregate)

		decision, next := e.decide(s, current, aggregate, escalationCategory)
		e.logger.LogDecision(decision)
		trail = append(trail, decision)

		if next != StateEscalating {
			return e.finalize(s, decision, next, trail)
		}

		// Escalating: re-invoke with directives plus accumulated history,
		// bump the iteration count, loop back to Evaluating.
		if err := s.advance(StateEscalating); err != nil {
			return nil, err
		}
		s.IterationCount++
		e.logger.LogEscalation(s.IterationCount, decision.Directives)

		escWorkers, err := e.registry.Resolve(escalationCategory)
		if err != nil {
			return nil, err
		}
		if err := s.advance(StateDispatching); err != nil {
			return nil, err
		}
		e.logger.LogDispatchStart(s.IterationCount, workerNames(escWorkers))
		current = e.dispatch(ctx, s, escWorkers, decision.Directives)
		s.record(current)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
}

// decide applies the gating policy to the round's aggregate and returns the
// decision plus the state it transitions to. A high-risk task escalates on
// its first evaluation no matter the score, a hard override, and never
// auto-proceeds afterwards.
func (e *Engine) decide(s *Session, current []models.Contribution, aggregate int, escalationCategory models.Category) (models.GatingDecision, State) {
	riskForced := s.Task.HighRisk()

	// An uncertain critical finding never auto-proceeds, whatever penalty
	// the evaluator subtracted: cap the aggregate just below the proceed
	// threshold so the decision lands in present-options or escalation.
	if aggregate >= e.opts.ProceedThreshold && e.evaluator.UncertainCritical(current) {
		aggregate = e.opts.ProceedThreshold - 1
	}

	wantEscalate := aggregate < e.opts.PresentThreshold || (riskForced && s.IterationCount == 0)
	if wantEscalate {
		if s.IterationCount >= e.opts.EscalationCap {
			return e.buildPresent(s, aggregate, true), StatePresenting
		}
		return models.GatingDecision{
			Kind:       models.DecisionEscalate,
			Confidence: aggregate,
			Directives: buildDirectives(current, escalationCategory),
		}, StateEscalating
	}

	if aggregate >= e.opts.ProceedThreshold && !riskForced {
		return e.buildProceed(s, current, aggregate), StateProceeding
	}
	return e.buildPresent(s, aggregate, false), StatePresenting
}

// finalize transitions the session to its terminal state and assembles the
// outcome.
func (e *Engine) finalize(s *Session, decision models.GatingDecision, next State, trail []models.GatingDecision) (*Outcome, error) {
	if err := s.advance(next); err != nil {
		return nil, err
	}
	if err := s.advance(StateFinalized); err != nil {
		return nil, err
	}

	report := BuildReport(s.History, decision, decision.Annotation)
	e.logger.LogSessionEnd(s.ID, report, s.Elapsed())

	return &Outcome{
		SessionID:  s.ID,
		Decision:   decision,
		Report:     report,
		Decisions:  trail,
		Iterations: s.IterationCount,
	}, nil
}

// buildProceed selects the single top-ranked finding/recommendation.
func (e *Engine) buildProceed(s *Session, current []models.Contribution, aggregate int) models.GatingDecision {
	decision := models.GatingDecision{
		Kind:       models.DecisionProceed,
		Confidence: aggregate,
		Annotation: models.AnnotationHighConfidence,
	}
	if s.Degraded() {
		decision.Annotation = models.AnnotationBestEffort
	}

	// Prefer an explicit recommendation from the highest-confidence
	// contributor of this round.
	var best *models.WorkerResponse
	for i := range current {
		resp := current[i].Response
		if resp == nil || resp.Recommendation == "" {
			continue
		}
		if best == nil || resp.Confidence.Normalized() > best.Confidence.Normalized() {
			best = resp
		}
	}
	if best != nil {
		decision.Recommendation = best.Recommendation
		decision.Rationale = best.Rationale
		return decision
	}

	findings := dedupeFindings(flattenFindings(current))
	rankFindings(findings)
	if len(findings) > 0 {
		top := findings[0]
		decision.Recommendation = proceedRecommendation(&top)
		decision.Rationale = proceedRationale(&top)
		return decision
	}

	decision.Recommendation = "proceed with the task as submitted"
	decision.Rationale = fmt.Sprintf("aggregate confidence %d with no blocking findings", aggregate)
	return decision
}

// buildPresent surfaces the top two distinct options with a side-by-side
// comparison; the decision is returned to the caller rather than acted on.
func (e *Engine) buildPresent(s *Session, aggregate int, exhausted bool) models.GatingDecision {
	decision := models.GatingDecision{
		Kind:       models.DecisionPresentOptions,
		Confidence: aggregate,
	}
	switch {
	case exhausted:
		decision.Annotation = models.AnnotationExhausted
	case s.Degraded():
		decision.Annotation = models.AnnotationBestEffort
	}

	findings := dedupeFindings(flattenFindings(s.History))
	rankFindings(findings)

	for i := 0; i < len(findings) && i < 2; i++ {
		decision.Options = append(decision.Options, models.Option{
			Finding: findings[i],
			Summary: optionSummary(&findings[i]),
		})
	}

	if len(decision.Options) == 0 {
		// Every contributor degraded and no finding survived. The caller
		// still gets a decision to act on, flagged as unsubstantiated.
		decision.Options = append(decision.Options, models.Option{
			Finding: models.Finding{
				Severity: models.SeverityLow,
				Evidence: "no validated worker output was available",
			},
			Summary: "no validated findings; manual investigation required",
		})
	}

	decision.Comparison = compareOptions(decision.Options)
	return decision
}

func proceedRecommendation(f *models.Finding) string {
	if f.Remediation.Description != "" {
		return f.Remediation.Description
	}
	if f.Location != "" {
		return fmt.Sprintf("address the %s finding at %s", f.Severity, f.Location)
	}
	return fmt.Sprintf("address the top-ranked %s finding", f.Severity)
}

func proceedRationale(f *models.Finding) string {
	if f.Evidence != "" {
		return f.Evidence
	}
	if f.Impact != "" {
		return f.Impact
	}
	return "highest-ranked finding across contributing workers"
}

func optionSummary(f *models.Finding) string {
	loc := f.Location
	if loc == "" {
		loc = "unlocated"
	}
	conf := "unstated confidence"
	if f.Confidence.IsSet() {
		conf = fmt.Sprintf("confidence %s", f.Confidence)
	}
	return fmt.Sprintf("[%s] %s (%s): %s", f.Severity, loc, conf, f.Evidence)
}

// compareOptions renders the side-by-side comparison for a present-options
// decision.
func compareOptions(options []models.Option) string {
	if len(options) < 2 {
		return "only one option available"
	}
	a, b := &options[0].Finding, &options[1].Finding
	return fmt.Sprintf("option 1: %s severity, confidence %s vs option 2: %s severity, confidence %s",
		a.Severity, a.Confidence, b.Severity, b.Confidence)
}

func workerNames(workers []worker.Worker) []string {
	names := make([]string, len(workers))
	for i, w := range workers {
		names[i] = w.Name()
	}
	return names
}
