// Package logger provides logging implementations for delegation sessions.
//
// Implementations are thread-safe and cover the orchestration event surface:
// session lifecycle, dispatch rounds, per-worker outcomes, evaluation scores,
// escalation rounds and gating decisions.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/calder/delegator/internal/models"
)

// ConsoleLogger logs session progress to a writer with [HH:MM:SS] prefixes.
// Color output is enabled automatically when writing to a TTY.
type ConsoleLogger struct {
	writer      io.Writer
	logLevel    string
	mutex       sync.Mutex
	colorOutput bool
}

// NewConsoleLogger creates a ConsoleLogger writing to w at the given level.
// A nil writer silently discards all output. Valid levels: trace, debug,
// info, warn, error; empty or unknown defaults to info.
func NewConsoleLogger(w io.Writer, logLevel string) *ConsoleLogger {
	return &ConsoleLogger{
		writer:      w,
		logLevel:    normalizeLogLevel(logLevel),
		colorOutput: isTerminal(w),
	}
}

// isTerminal reports whether the writer is a TTY that supports color.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (l *ConsoleLogger) write(level int, format string, args ...interface{}) {
	if l.writer == nil || !shouldLog(l.logLevel, level) {
		return
	}
	l.mutex.Lock()
	defer l.mutex.Unlock()
	timestamp := time.Now().Format("15:04:05")
	fmt.Fprintf(l.writer, "[%s] %s\n", timestamp, fmt.Sprintf(format, args...))
}

// LogSessionStart implements gating.EventLogger.
func (l *ConsoleLogger) LogSessionStart(sessionID string, task models.Task) {
	l.write(levelInfo, "session %s started: task %s (%s, risk=%s)",
		shortID(sessionID), shortID(task.ID), task.Category, riskLabel(task.RiskClass))
}

// LogDispatchStart implements gating.EventLogger.
func (l *ConsoleLogger) LogDispatchStart(round int, workers []string) {
	l.write(levelInfo, "round %d: dispatching %d worker(s): %s",
		round, len(workers), strings.Join(workers, ", "))
}

// LogWorkerDone implements gating.EventLogger.
func (l *ConsoleLogger) LogWorkerDone(c models.Contribution, d time.Duration) {
	if c.Degraded {
		l.write(levelWarn, "worker %s degraded (%s) after %s%s",
			c.Worker, c.Reason, d.Round(time.Millisecond), l.paintDegraded())
		return
	}
	l.write(levelDebug, "worker %s done in %s: confidence %s, %d finding(s)",
		c.Worker, d.Round(time.Millisecond), c.Response.Confidence, len(c.Response.Findings))
}

// LogEvaluation implements gating.EventLogger.
func (l *ConsoleLogger) LogEvaluation(round int, aggregate int) {
	l.write(levelInfo, "round %d: aggregate confidence %d", round, aggregate)
}

// LogEscalation implements gating.EventLogger.
func (l *ConsoleLogger) LogEscalation(round int, directives []models.ResearchDirective) {
	topics := make([]string, len(directives))
	for i, d := range directives {
		topics[i] = fmt.Sprintf("%s via %s", d.Topic, d.Capability)
	}
	l.write(levelInfo, "round %d: escalating with %d directive(s): %s",
		round, len(directives), strings.Join(topics, "; "))
}

// LogDecision implements gating.EventLogger.
func (l *ConsoleLogger) LogDecision(d models.GatingDecision) {
	l.write(levelInfo, "decision: %s%s", l.paintDecision(d.Kind), annotationSuffix(d.Annotation))
}

// LogSessionEnd implements gating.EventLogger.
func (l *ConsoleLogger) LogSessionEnd(sessionID string, report *models.Report, d time.Duration) {
	s := report.Summary
	l.write(levelInfo, "session %s finished in %s: %d finding(s) (%d critical, %d high, %d medium, %d low)",
		shortID(sessionID), d.Round(time.Millisecond), s.Total, s.Critical, s.High, s.Medium, s.Low)
}

func (l *ConsoleLogger) paintDecision(kind models.DecisionKind) string {
	if !l.colorOutput {
		return string(kind)
	}
	switch kind {
	case models.DecisionProceed:
		return color.GreenString(string(kind))
	case models.DecisionPresentOptions:
		return color.YellowString(string(kind))
	case models.DecisionEscalate:
		return color.RedString(string(kind))
	}
	return string(kind)
}

func (l *ConsoleLogger) paintDegraded() string {
	if !l.colorOutput {
		return ""
	}
	return color.RedString(" !")
}

func annotationSuffix(annotation string) string {
	if annotation == "" {
		return ""
	}
	return fmt.Sprintf(" (%s)", annotation)
}

func riskLabel(r models.RiskClass) string {
	if r == "" {
		return string(models.RiskNone)
	}
	return string(r)
}

// shortID trims a UUID to its first segment for log readability.
func shortID(id string) string {
	if idx := strings.IndexByte(id, '-'); idx > 0 {
		return id[:idx]
	}
	return id
}
