// Package internal contains implementation details shared across the
// module's packages but not meant for external use.
package internal

import "github.com/cbeckman-hdogan/nocsim"

// NullLogger is a [nocsim.Logger] that does not emit logs. Useful for tests
// and benchmarks that don't want log output on the critical path.
type NullLogger struct{}

// Debug implements nocsim.Logger.
func (*NullLogger) Debug(message string) {
	// nothing
}

// Debugf implements nocsim.Logger.
func (*NullLogger) Debugf(format string, v ...any) {
	// nothing
}

// Info implements nocsim.Logger.
func (*NullLogger) Info(message string) {
	// nothing
}

// Infof implements nocsim.Logger.
func (*NullLogger) Infof(format string, v ...any) {
	// nothing
}

// Warn implements nocsim.Logger.
func (*NullLogger) Warn(message string) {
	// nothing
}

// Warnf implements nocsim.Logger.
func (*NullLogger) Warnf(format string, v ...any) {
	// nothing
}

var _ nocsim.Logger = &NullLogger{}
