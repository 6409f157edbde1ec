package gating

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/calder/delegator/internal/models"
)

// State is a stage of the gating state machine.
type State string

const (
	StateClassifying State = "classifying"
	StateDispatching State = "dispatching"
	StateEvaluating  State = "evaluating"
	StateProceeding  State = "proceeding"
	StatePresenting  State = "presenting"
	StateEscalating  State = "escalating"
	StateFinalized   State = "finalized"
)

// validTransitions encodes the state machine:
// Classifying -> Dispatching -> Evaluating -> {Proceeding | Presenting |
// Escalating} -> Finalized, with Escalating looping back through
// Dispatching. No other transition is legal.
var validTransitions = map[State][]State{
	StateClassifying: {StateDispatching},
	StateDispatching: {StateEvaluating},
	StateEvaluating:  {StateProceeding, StatePresenting, StateEscalating},
	StateEscalating:  {StateDispatching},
	StateProceeding:  {StateFinalized},
	StatePresenting:  {StateFinalized},
}

// Session is the aggregate owning one repository context, the escalation
// loop's iteration count, and the accumulated contribution history for one
// task. It is owned exclusively by the engine running it; no other component
// writes to it. A session is destroyed once it reaches Finalized.
type Session struct {
	ID      string
	Task    models.Task
	Context *models.RepositoryContext

	// IterationCount counts completed escalation rounds. The engine stops
	// escalating once it reaches the configured cap.
	IterationCount int

	// History accumulates every contribution across all dispatch rounds, in
	// round order. Escalation re-invocations receive it as context.
	History []models.Contribution

	state     State
	startedAt time.Time
}

// NewSession creates a session in Classifying for the given task.
func NewSession(task models.Task) *Session {
	return &Session{
		ID:        uuid.NewString(),
		Task:      task,
		state:     StateClassifying,
		startedAt: time.Now(),
	}
}

// State returns the session's current state.
func (s *Session) State() State {
	return s.state
}

// Elapsed returns the time since the session was created.
func (s *Session) Elapsed() time.Duration {
	return time.Since(s.startedAt)
}

// advance moves the session to the next state, enforcing the transition
// table. An illegal transition is an engine defect, not a runtime condition.
func (s *Session) advance(to State) error {
	for _, allowed := range validTransitions[s.state] {
		if allowed == to {
			s.state = to
			return nil
		}
	}
	return fmt.Errorf("illegal session transition %s -> %s", s.state, to)
}

// record appends a dispatch round's contributions to the session history.
func (s *Session) record(contributions []models.Contribution) {
	s.History = append(s.History, contributions...)
}

// Responses returns the validated responses accumulated so far, in round
// order. Degraded contributions carry no trusted response and are skipped.
func (s *Session) Responses() []*models.WorkerResponse {
	var responses []*models.WorkerResponse
	for i := range s.History {
		if !s.History[i].Degraded && s.History[i].Response != nil {
			responses = append(responses, s.History[i].Response)
		}
	}
	return responses
}

// Degraded reports whether any contribution in the session degraded.
func (s *Session) Degraded() bool {
	for i := range s.History {
		if s.History[i].Degraded {
			return true
		}
	}
	return false
}
