package nocsim

//
// Logging
//

import (
	"github.com/apex/log"
)

// Logger is the logger [Router] writes its diagnostics to. The shape
// mirrors the small, six-method interface most simulation cores settle on:
// three severities with and without formatting.
type Logger interface {
	// Debugf formats and emits a debug message.
	Debugf(format string, v ...any)

	// Debug emits a debug message.
	Debug(message string)

	// Infof formats and emits an informational message.
	Infof(format string, v ...any)

	// Info emits an informational message.
	Info(message string)

	// Warnf formats and emits a warning message.
	Warnf(format string, v ...any)

	// Warn emits a warning message.
	Warn(message string)
}

// apexLogger adapts github.com/apex/log to [Logger].
type apexLogger struct{}

// NewLogger returns the default [Logger], which forwards to the global
// apex/log logger. Call [log.SetHandler] beforehand to control formatting
// and destination.
func NewLogger() Logger {
	return &apexLogger{}
}

func (*apexLogger) Debug(message string)                 { log.Debug(message) }
func (*apexLogger) Debugf(format string, v ...any)        { log.Debugf(format, v...) }
func (*apexLogger) Info(message string)                   { log.Info(message) }
func (*apexLogger) Infof(format string, v ...any)         { log.Infof(format, v...) }
func (*apexLogger) Warn(message string)                   { log.Warn(message) }
func (*apexLogger) Warnf(format string, v ...any)         { log.Warnf(format, v...) }

var _ Logger = &apexLogger{}
