package calibration

import (
	"context"
	"time"

	"github.com/calder/delegator/internal/models"
)

// Recorder adapts the store to the gating engine's recording interface.
type Recorder struct {
	Store *Store
}

// RecordInvocation implements gating.CalibrationRecorder.
func (r Recorder) RecordInvocation(ctx context.Context, sessionID, taskID string, c models.Contribution, d time.Duration) error {
	return r.Store.RecordInvocation(ctx, &Invocation{
		SessionID:      sessionID,
		TaskID:         taskID,
		Worker:         c.Worker,
		Category:       c.Category,
		Confidence:     c.NormalizedConfidence(),
		Validated:      !c.Degraded,
		DegradedReason: c.Reason,
		Duration:       d,
	})
}
