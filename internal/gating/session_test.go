package gating

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calder/delegator/internal/models"
)

func TestSessionLifecycle(t *testing.T) {
	s := NewSession(models.Task{ID: "t", Category: models.CategoryDocs, Payload: "p"})

	assert.NotEmpty(t, s.ID)
	assert.Equal(t, StateClassifying, s.State())

	require.NoError(t, s.advance(StateDispatching))
	require.NoError(t, s.advance(StateEvaluating))
	require.NoError(t, s.advance(StateEscalating))
	require.NoError(t, s.advance(StateDispatching))
	require.NoError(t, s.advance(StateEvaluating))
	require.NoError(t, s.advance(StateProceeding))
	require.NoError(t, s.advance(StateFinalized))
	assert.Equal(t, StateFinalized, s.State())
}

func TestSessionRejectsIllegalTransitions(t *testing.T) {
	s := NewSession(models.Task{ID: "t", Category: models.CategoryDocs, Payload: "p"})

	// Classifying cannot jump straight to a terminal state.
	assert.Error(t, s.advance(StateProceeding))
	assert.Error(t, s.advance(StateFinalized))

	require.NoError(t, s.advance(StateDispatching))
	assert.Error(t, s.advance(StateDispatching), "no self-loop")
	require.NoError(t, s.advance(StateEvaluating))
	require.NoError(t, s.advance(StatePresenting))
	require.NoError(t, s.advance(StateFinalized))

	// Finalized is terminal.
	assert.Error(t, s.advance(StateDispatching))
}

func TestSessionResponsesSkipDegraded(t *testing.T) {
	s := NewSession(models.Task{ID: "t", Category: models.CategoryDocs, Payload: "p"})

	valid := &models.WorkerResponse{Confidence: models.NumericConfidence(7)}
	s.record([]models.Contribution{
		{Worker: "a", Response: valid},
		{Worker: "b", Degraded: true, Reason: models.DegradedTimeout},
	})

	responses := s.Responses()
	require.Len(t, responses, 1)
	assert.Same(t, valid, responses[0])
	assert.True(t, s.Degraded())
}
