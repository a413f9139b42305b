// Package rag holds the building blocks of the question-answering pipeline:
// document parsing, chunking, embedding, vector indexes, prompt generation
// and the leveled logger shared by all of them.
package rag

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

// LogLevel represents the severity level of a log message.
// Higher values indicate more verbose logging.
type LogLevel int

const (
	// LogLevelOff disables all logging
	LogLevelOff LogLevel = iota
	// LogLevelError enables only error messages
	LogLevelError
	// LogLevelWarn enables error and warning messages
	LogLevelWarn
	// LogLevelInfo enables error, warning, and info messages
	LogLevelInfo
	// LogLevelDebug enables all messages including debug
	LogLevelDebug
)

// Logger defines the interface for leveled logging with structured
// key-value pairs. Components of the pipeline accept any implementation,
// so callers can route messages into their own logging setup.
type Logger interface {
	// Debug logs chunking, retrieval and prompt details.
	Debug(msg string, keysAndValues ...interface{})
	// Info logs pipeline progress such as a document being indexed.
	Info(msg string, keysAndValues ...interface{})
	// Warn logs recoverable problems, e.g. a skipped document.
	Warn(msg string, keysAndValues ...interface{})
	// Error logs failures that abort an operation.
	Error(msg string, keysAndValues ...interface{})
	// SetLevel changes the most verbose level that is written.
	SetLevel(level LogLevel)
}

// DefaultLogger is the Logger used across the pipeline. It writes one line
// per message through the standard log package: timestamp, level, message
// and the key-value pairs rendered as key=value.
type DefaultLogger struct {
	logger *log.Logger
	level  LogLevel
}

// NewLogger creates a DefaultLogger writing to os.Stderr. Messages more
// verbose than level are discarded.
func NewLogger(level LogLevel) Logger {
	return NewLoggerTo(os.Stderr, level)
}

// NewLoggerTo creates a DefaultLogger writing to w, which lets tests and
// embedding programs capture the output.
func NewLoggerTo(w io.Writer, level LogLevel) Logger {
	return &DefaultLogger{
		logger: log.New(w, "", log.LstdFlags),
		level:  level,
	}
}

// SetLevel updates the logging level of the DefaultLogger.
// LogLevelOff silences it entirely.
func (l *DefaultLogger) SetLevel(level LogLevel) {
	l.level = level
}

// log writes msg when level is enabled. A trailing key without a value is
// rendered as key=MISSING.
func (l *DefaultLogger) log(level LogLevel, msg string, keysAndValues ...interface{}) {
	if level > l.level || l.level == LogLevelOff {
		return
	}
	var b strings.Builder
	b.WriteString(level.String())
	b.WriteString(": ")
	b.WriteString(msg)
	for i := 0; i < len(keysAndValues); i += 2 {
		b.WriteByte(' ')
		if i+1 < len(keysAndValues) {
			fmt.Fprintf(&b, "%v=%v", keysAndValues[i], keysAndValues[i+1])
		} else {
			fmt.Fprintf(&b, "%v=MISSING", keysAndValues[i])
		}
	}
	l.logger.Print(b.String())
}

// Debug logs a message at debug level.
func (l *DefaultLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.log(LogLevelDebug, msg, keysAndValues...)
}

// Info logs a message at info level.
func (l *DefaultLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log(LogLevelInfo, msg, keysAndValues...)
}

// Warn logs a message at warning level.
func (l *DefaultLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.log(LogLevelWarn, msg, keysAndValues...)
}

// Error logs a message at error level.
func (l *DefaultLogger) Error(msg string, keysAndValues ...interface{}) {
	l.log(LogLevelError, msg, keysAndValues...)
}

// String returns the upper-case name of a LogLevel, e.g. "WARN".
// Out-of-range values render as LEVEL(n).
func (l LogLevel) String() string {
	if l < LogLevelOff || l > LogLevelDebug {
		return fmt.Sprintf("LEVEL(%d)", int(l))
	}
	return [...]string{"OFF", "ERROR", "WARN", "INFO", "DEBUG"}[l]
}

// UnmarshalText implements the encoding.TextUnmarshaler interface so a
// LogLevel can be read from JSON configuration files and environment
// variables. Names are case-insensitive; "warning" is accepted for WARN.
func (l *LogLevel) UnmarshalText(text []byte) error {
	switch strings.ToUpper(strings.TrimSpace(string(text))) {
	case "OFF":
		*l = LogLevelOff
	case "ERROR":
		*l = LogLevelError
	case "WARN", "WARNING":
		*l = LogLevelWarn
	case "INFO":
		*l = LogLevelInfo
	case "DEBUG":
		*l = LogLevelDebug
	default:
		return fmt.Errorf("invalid log level: %s", string(text))
	}
	return nil
}

// MarshalText implements the encoding.TextMarshaler interface, writing
// the same name String returns.
func (l LogLevel) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// GlobalLogger is the package-level logger used when a component is not
// given one explicitly. It logs at INFO level to os.Stderr.
var GlobalLogger Logger

func init() {
	GlobalLogger = NewLogger(LogLevelInfo)
}

// SetGlobalLogLevel sets the log level for the global logger instance.
// Loggers passed explicitly to components are not affected.
func SetGlobalLogLevel(level LogLevel) {
	GlobalLogger.SetLevel(level)
}
