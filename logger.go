package ragqa

import (
	"github.com/teilomillet/ragqa/rag"
)

// LogLevel represents the severity of a log message. It is an alias of
// rag.LogLevel, so values parsed from configuration can be used directly.
type LogLevel = rag.LogLevel

// Log levels, from silent to most verbose.
const (
	LogLevelOff   = rag.LogLevelOff
	LogLevelError = rag.LogLevelError
	LogLevelWarn  = rag.LogLevelWarn
	LogLevelInfo  = rag.LogLevelInfo
	LogLevelDebug = rag.LogLevelDebug
)

// Logger is the leveled, key-value logger accepted by WithLogger and by
// every component of the rag package.
type Logger = rag.Logger

// SetLogLevel sets the level of the package-level logger shared by the
// ragqa packages. A pipeline built with its own Logger is not affected.
func SetLogLevel(level LogLevel) {
	rag.SetGlobalLogLevel(level)
}

// Info logs an info message with optional key-value pairs through the
// package-level logger.
func Info(msg string, keysAndValues ...interface{}) {
	rag.GlobalLogger.Info(msg, keysAndValues...)
}
