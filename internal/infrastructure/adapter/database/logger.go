package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm/logger"

	coreport "github.com/amirhossein-jamali/qb-server-agent/internal/domain/port/core"
)

// DatabaseLogger is a custom GORM logger that uses our core logger
type DatabaseLogger struct {
	coreLogger    coreport.Logger
	logLevel      logger.LogLevel
	slowThreshold time.Duration
}

// NewDatabaseLogger creates a new database logger
func NewDatabaseLogger(coreLogger coreport.Logger, level string) logger.Interface {
	var logLevel logger.LogLevel
	switch strings.ToLower(level) {
	case "silent":
		logLevel = logger.Silent
	case "error":
		logLevel = logger.Error
	case "warn":
		logLevel = logger.Warn
	case "info":
		logLevel = logger.Info
	default:
		logLevel = logger.Warn
	}

	return &DatabaseLogger{
		coreLogger:    coreLogger,
		logLevel:      logLevel,
		slowThreshold: time.Second,
	}
}

// LogMode sets the log level for the logger
func (l *DatabaseLogger) LogMode(level logger.LogLevel) logger.Interface {
	newLogger := *l
	newLogger.logLevel = level
	return &newLogger
}

// Info logs informational messages
func (l *DatabaseLogger) Info(_ context.Context, msg string, data ...any) {
	if l.logLevel >= logger.Info {
		l.coreLogger.Info(fmt.Sprintf(msg, data...), map[string]any{"source": "gorm"})
	}
}

// Warn logs warning messages
func (l *DatabaseLogger) Warn(_ context.Context, msg string, data ...any) {
	if l.logLevel >= logger.Warn {
		l.coreLogger.Warn(fmt.Sprintf(msg, data...), map[string]any{"source": "gorm"})
	}
}

// Error logs error messages
func (l *DatabaseLogger) Error(_ context.Context, msg string, data ...any) {
	if l.logLevel >= logger.Error {
		l.coreLogger.Error(fmt.Sprintf(msg, data...), map[string]any{"source": "gorm"})
	}
}

// Trace logs SQL statements with their duration and row counts
func (l *DatabaseLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.logLevel <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()
	fields := map[string]any{
		"source":     "gorm",
		"elapsed_ms": elapsed.Milliseconds(),
		"rows":       rows,
		"sql":        sql,
	}

	switch {
	case err != nil && l.logLevel >= logger.Error:
		fields["error"] = err.Error()
		l.coreLogger.Error("Query failed", fields)
	case elapsed > l.slowThreshold && l.logLevel >= logger.Warn:
		l.coreLogger.Warn("Slow query", fields)
	case l.logLevel >= logger.Info:
		l.coreLogger.Debug("Query executed", fields)
	}
}
