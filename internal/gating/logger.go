package gating

import (
	"time"

	"github.com/calder/delegator/internal/models"
)

// EventLogger receives orchestration progress events. Implementations live
// in the logger package; the engine accepts any combination via MultiLogger
// and tolerates nil.
type EventLogger interface {
	LogSessionStart(sessionID string, task models.Task)
	LogDispatchStart(round int, workers []string)
	LogWorkerDone(c models.Contribution, d time.Duration)
	LogEvaluation(round int, aggregate int)
	LogEscalation(round int, directives []models.ResearchDirective)
	LogDecision(d models.GatingDecision)
	LogSessionEnd(sessionID string, report *models.Report, d time.Duration)
}

// MultiLogger fans events out to several loggers.
type MultiLogger []EventLogger

// LogSessionStart implements EventLogger.
func (m MultiLogger) LogSessionStart(sessionID string, task models.Task) {
	for _, l := range m {
		l.LogSessionStart(sessionID, task)
	}
}

// LogDispatchStart implements EventLogger.
func (m MultiLogger) LogDispatchStart(round int, workers []string) {
	for _, l := range m {
		l.LogDispatchStart(round, workers)
	}
}

// LogWorkerDone implements EventLogger.
func (m MultiLogger) LogWorkerDone(c models.Contribution, d time.Duration) {
	for _, l := range m {
		l.LogWorkerDone(c, d)
	}
}

// LogEvaluation implements EventLogger.
func (m MultiLogger) LogEvaluation(round int, aggregate int) {
	for _, l := range m {
		l.LogEvaluation(round, aggregate)
	}
}

// LogEscalation implements EventLogger.
func (m MultiLogger) LogEscalation(round int, directives []models.ResearchDirective) {
	for _, l := range m {
		l.LogEscalation(round, directives)
	}
}

// LogDecision implements EventLogger.
func (m MultiLogger) LogDecision(d models.GatingDecision) {
	for _, l := range m {
		l.LogDecision(d)
	}
}

// LogSessionEnd implements EventLogger.
func (m MultiLogger) LogSessionEnd(sessionID string, report *models.Report, d time.Duration) {
	for _, l := range m {
		l.LogSessionEnd(sessionID, report, d)
	}
}
