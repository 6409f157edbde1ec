package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/calder/delegator/internal/models"
)

// FileLogger logs session events to timestamped run files under the log
// directory and maintains a latest.log symlink pointing at the most recent
// run. It is thread-safe and shares the console logger's event surface.
type FileLogger struct {
	logDir   string
	runLog   *os.File
	runFile  string
	logLevel string
	mu       sync.Mutex
}

// NewFileLogger creates a FileLogger writing under logDir at the given
// level. The directory is created if missing.
func NewFileLogger(logDir, logLevel string) (*FileLogger, error) {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	timestamp := time.Now().Format("20060102-150405")
	runFile := filepath.Join(logDir, fmt.Sprintf("run-%s.log", timestamp))

	file, err := os.OpenFile(runFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create run log file: %w", err)
	}

	symlink := filepath.Join(logDir, "latest.log")
	if _, err := os.Lstat(symlink); err == nil {
		if err := os.Remove(symlink); err != nil {
			file.Close()
			return nil, fmt.Errorf("remove old latest.log symlink: %w", err)
		}
	}
	if err := os.Symlink(filepath.Base(runFile), symlink); err != nil {
		file.Close()
		return nil, fmt.Errorf("create latest.log symlink: %w", err)
	}

	l := &FileLogger{
		logDir:   logDir,
		runLog:   file,
		runFile:  runFile,
		logLevel: normalizeLogLevel(logLevel),
	}
	l.writeLine(levelInfo, "=== Delegator Run Log ===")
	l.writeLine(levelInfo, "Started at: %s", time.Now().Format(time.RFC3339))
	return l, nil
}

// Close closes the run log file.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.runLog.Close()
}

// RunFile returns the path of the current run log.
func (l *FileLogger) RunFile() string {
	return l.runFile
}

func (l *FileLogger) writeLine(level int, format string, args ...interface{}) {
	if !shouldLog(l.logLevel, level) {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	timestamp := time.Now().Format("15:04:05")
	fmt.Fprintf(l.runLog, "[%s] %s\n", timestamp, fmt.Sprintf(format, args...))
}

// LogSessionStart implements gating.EventLogger.
func (l *FileLogger) LogSessionStart(sessionID string, task models.Task) {
	l.writeLine(levelInfo, "session %s started: task %s category=%s risk=%s",
		sessionID, task.ID, task.Category, riskLabel(task.RiskClass))
}

// LogDispatchStart implements gating.EventLogger.
func (l *FileLogger) LogDispatchStart(round int, workers []string) {
	l.writeLine(levelInfo, "round %d: dispatching %d worker(s)", round, len(workers))
}

// LogWorkerDone implements gating.EventLogger.
func (l *FileLogger) LogWorkerDone(c models.Contribution, d time.Duration) {
	if c.Degraded {
		l.writeLine(levelWarn, "worker %s degraded reason=%s detail=%q duration=%s",
			c.Worker, c.Reason, c.Detail, d)
		return
	}
	l.writeLine(levelDebug, "worker %s done confidence=%s findings=%d duration=%s",
		c.Worker, c.Response.Confidence, len(c.Response.Findings), d)
}

// LogEvaluation implements gating.EventLogger.
func (l *FileLogger) LogEvaluation(round int, aggregate int) {
	l.writeLine(levelInfo, "round %d: aggregate=%d", round, aggregate)
}

// LogEscalation implements gating.EventLogger.
func (l *FileLogger) LogEscalation(round int, directives []models.ResearchDirective) {
	for _, d := range directives {
		l.writeLine(levelInfo, "round %d: directive topic=%q capability=%s", round, d.Topic, d.Capability)
	}
}

// LogDecision implements gating.EventLogger.
func (l *FileLogger) LogDecision(d models.GatingDecision) {
	l.writeLine(levelInfo, "decision kind=%s confidence=%d annotation=%q",
		d.Kind, d.Confidence, d.Annotation)
}

// LogSessionEnd implements gating.EventLogger.
func (l *FileLogger) LogSessionEnd(sessionID string, report *models.Report, d time.Duration) {
	s := report.Summary
	l.writeLine(levelInfo, "session %s finished duration=%s findings=%d critical=%d high=%d medium=%d low=%d",
		sessionID, d, s.Total, s.Critical, s.High, s.Medium, s.Low)
}
