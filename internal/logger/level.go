package logger

import "strings"

// Log level constants for filtering.
const (
	levelTrace = 0
	levelDebug = 1
	levelInfo  = 2
	levelWarn  = 3
	levelError = 4
)

var levelNames = map[string]int{
	"trace": levelTrace,
	"debug": levelDebug,
	"info":  levelInfo,
	"warn":  levelWarn,
	"error": levelError,
}

// normalizeLogLevel lower-cases and validates a level name, defaulting to
// "info" for empty or unknown input.
func normalizeLogLevel(level string) string {
	normalized := strings.ToLower(strings.TrimSpace(level))
	if _, ok := levelNames[normalized]; !ok {
		return "info"
	}
	return normalized
}

// shouldLog reports whether a message at msgLevel passes the configured
// minimum level.
func shouldLog(configured string, msgLevel int) bool {
	min, ok := levelNames[configured]
	if !ok {
		min = levelInfo
	}
	return msgLevel >= min
}
