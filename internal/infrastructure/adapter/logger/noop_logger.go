package logger

import (
	"github.com/amirhossein-jamali/qb-server-agent/internal/domain/port/core"
)

// NoopLogger is a logger that discards everything. Used in tests.
type NoopLogger struct{}

// NewNoopLogger creates a new no-op logger
func NewNoopLogger() core.Logger {
	return &NoopLogger{}
}

func (l *NoopLogger) SetLevel(core.LogLevel)       {}
func (l *NoopLogger) Debug(string, map[string]any) {}
func (l *NoopLogger) Info(string, map[string]any)  {}
func (l *NoopLogger) Warn(string, map[string]any)  {}
func (l *NoopLogger) Error(string, map[string]any) {}
func (l *NoopLogger) Flush() error                 { return nil }
