// Package logger provides structured JSON logging and run counters for the
// council-votes sync job.
//
// The logger supports DEBUG, INFO, WARN and ERROR levels and emits one JSON
// object per line with a timestamp and optional structured fields. Counters
// accumulate run statistics (pages fetched, motions parsed, records created,
// units skipped or failed) and are reported once at the end of a batch run.
//
// Example usage:
//
//	logger.Info("Uploaded motion", logger.Fields{
//	    "title":     m.Title,
//	    "for_count": len(m.ForNames),
//	})
//
//	logger.IncrCounter("records.created")
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Level represents log severity
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Logger provides structured logging
type Logger struct {
	minLevel Level
	output   io.Writer
}

// Fields represents structured log fields
type Fields map[string]interface{}

// LogEntry represents a single log entry
type LogEntry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Message   string `json:"message"`
	Fields    Fields `json:"fields,omitempty"`
	Error     string `json:"error,omitempty"`
}

var defaultLogger *Logger

func init() {
	defaultLogger = New(LevelInfo, os.Stdout)
}

// New creates a new logger with the specified minimum log level and output
// destination. Messages below the minimum level are discarded.
func New(level Level, output io.Writer) *Logger {
	return &Logger{
		minLevel: level,
		output:   output,
	}
}

// SetDefault sets the default package-level logger used by the convenience
// functions (Debug, Info, Warn, Error).
func SetDefault(logger *Logger) {
	defaultLogger = logger
}

// log writes a structured log entry
func (l *Logger) log(level Level, message string, fields Fields, err error) {
	if !l.shouldLog(level) {
		return
	}

	entry := LogEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     string(level),
		Message:   message,
		Fields:    fields,
	}

	if err != nil {
		entry.Error = err.Error()
	}

	data, marshalErr := json.Marshal(entry)
	if marshalErr != nil {
		// Fallback to plain text if JSON marshal fails
		fmt.Fprintf(l.output, "[%s] %s: %s (marshal error: %v)\n",
			entry.Timestamp, entry.Level, entry.Message, marshalErr)
		return
	}

	fmt.Fprintln(l.output, string(data))
}

// shouldLog determines if a message should be logged based on level
func (l *Logger) shouldLog(level Level) bool {
	levels := map[Level]int{
		LevelDebug: 0,
		LevelInfo:  1,
		LevelWarn:  2,
		LevelError: 3,
	}
	return levels[level] >= levels[l.minLevel]
}

// Debug logs a debug message with optional structured fields.
func (l *Logger) Debug(message string, fields Fields) {
	l.log(LevelDebug, message, fields, nil)
}

// Info logs an informational message with optional structured fields.
func (l *Logger) Info(message string, fields Fields) {
	l.log(LevelInfo, message, fields, nil)
}

// Warn logs a warning message with optional structured fields.
func (l *Logger) Warn(message string, fields Fields) {
	l.log(LevelWarn, message, fields, nil)
}

// Error logs an error message with optional structured fields and an error object.
func (l *Logger) Error(message string, fields Fields, err error) {
	l.log(LevelError, message, fields, err)
}

// Package-level convenience functions using default logger

// Debug logs a debug message with the default logger
func Debug(message string, fields Fields) {
	defaultLogger.Debug(message, fields)
}

// Info logs an info message with the default logger
func Info(message string, fields Fields) {
	defaultLogger.Info(message, fields)
}

// Warn logs a warning message with the default logger
func Warn(message string, fields Fields) {
	defaultLogger.Warn(message, fields)
}

// Error logs an error message with the default logger
func Error(message string, fields Fields, err error) {
	defaultLogger.Error(message, fields, err)
}

// Counters tracks incrementing run statistics. All operations are
// thread-safe, though the batch loop itself is sequential.
type Counters struct {
	mu     sync.Mutex
	counts map[string]int64
}

var defaultCounters *Counters

func init() {
	defaultCounters = NewCounters()
}

// NewCounters creates an empty counter set.
func NewCounters() *Counters {
	return &Counters{
		counts: make(map[string]int64),
	}
}

// IncrCounter increments a counter by 1, initializing it on first use.
func (c *Counters) IncrCounter(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[name]++
}

// AddCounter adds delta to a counter, initializing it on first use.
func (c *Counters) AddCounter(name string, delta int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[name] += delta
}

// Snapshot returns a copy of all counter values.
func (c *Counters) Snapshot() map[string]int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	snapshot := make(map[string]int64, len(c.counts))
	for name, value := range c.counts {
		snapshot[name] = value
	}
	return snapshot
}

// Package-level counter functions using the default counter set

// IncrCounter increments a counter on the default counter set.
func IncrCounter(name string) {
	defaultCounters.IncrCounter(name)
}

// AddCounter adds delta to a counter on the default counter set.
func AddCounter(name string, delta int64) {
	defaultCounters.AddCounter(name, delta)
}

// CountersSnapshot returns a snapshot of the default counter set.
func CountersSnapshot() map[string]int64 {
	return defaultCounters.Snapshot()
}
