// Package observability provides the structured logger the run driver
// reports through.
package observability

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/bkyoung/backport/internal/usecase/classify"
)

// LogLevel defines the logging verbosity level.
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelError
)

// LogFormat defines the output format for logs.
type LogFormat int

const (
	LogFormatHuman LogFormat = iota
	LogFormatJSON
)

// ParseLogLevel maps a config string to a level. Unknown strings get info.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToLower(s) {
	case "debug":
		return LogLevelDebug
	case "error":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

// ParseLogFormat maps a config string to a format. Unknown strings get human.
func ParseLogFormat(s string) LogFormat {
	if strings.ToLower(s) == "json" {
		return LogFormatJSON
	}
	return LogFormatHuman
}

// DefaultLogger writes structured logs via the standard log package.
type DefaultLogger struct {
	level  LogLevel
	format LogFormat
}

// NewDefaultLogger creates a logger with the specified config.
func NewDefaultLogger(level LogLevel, format LogFormat) *DefaultLogger {
	return &DefaultLogger{level: level, format: format}
}

// LogInfo logs an informational message with structured fields.
func (l *DefaultLogger) LogInfo(ctx context.Context, message string, fields map[string]interface{}) {
	if l.level > LogLevelInfo {
		return
	}
	l.emit("info", "INFO", message, fields)
}

// LogWarning logs a warning message with structured fields.
func (l *DefaultLogger) LogWarning(ctx context.Context, message string, fields map[string]interface{}) {
	l.emit("warn", "WARN", message, fields)
}

func (l *DefaultLogger) emit(jsonLevel, humanLevel, message string, fields map[string]interface{}) {
	if l.format == LogFormatJSON {
		record := make(map[string]interface{}, len(fields)+2)
		for key, value := range fields {
			record[key] = value
		}
		record["level"] = jsonLevel
		record["message"] = message
		encoded, err := json.Marshal(record)
		if err != nil {
			log.Printf(`{"level":"%s","message":"%s"}`, jsonLevel, message)
			return
		}
		log.Printf("%s", encoded)
		return
	}

	log.Printf("[%s] %s%s", humanLevel, message, formatFields(fields))
}

// formatFields renders fields as sorted key=value pairs so human output is
// stable across runs.
func formatFields(fields map[string]interface{}) string {
	if len(fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, key := range keys {
		fmt.Fprintf(&b, " %s=%v", key, fields[key])
	}
	return b.String()
}

// NopLogger discards everything. Used when logging is disabled.
type NopLogger struct{}

func (NopLogger) LogInfo(ctx context.Context, message string, fields map[string]interface{})    {}
func (NopLogger) LogWarning(ctx context.Context, message string, fields map[string]interface{}) {}

var (
	_ classify.Logger = (*DefaultLogger)(nil)
	_ classify.Logger = NopLogger{}
)
