// Package dcontext attaches a structured logger to a context.Context so
// that call chains spanning preparation, authorization, upload and
// provenance can log with consistent per-package fields without threading
// a logger argument through every function signature.
package dcontext

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	defaultLogger   = logrus.StandardLogger()
	defaultLoggerMu sync.RWMutex
)

// Logger is the leveled-logging interface handed out by GetLogger. It is
// satisfied by *logrus.Entry.
type Logger interface {
	Debug(args ...interface{})
	Debugf(format string, args ...interface{})
	Info(args ...interface{})
	Infof(format string, args ...interface{})
	Warn(args ...interface{})
	Warnf(format string, args ...interface{})
	Error(args ...interface{})
	Errorf(format string, args ...interface{})
	WithError(err error) *logrus.Entry
	WithField(key string, value interface{}) *logrus.Entry
}

type loggerKey struct{}

// WithLogger returns a context carrying the given logger.
func WithLogger(ctx context.Context, logger Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// WithFields returns a context whose logger (the current one, or the
// default) has the given fields attached.
func WithFields(ctx context.Context, fields logrus.Fields) context.Context {
	return WithLogger(ctx, GetLogger(ctx).(*logrus.Entry).WithFields(fields))
}

// GetLogger returns the logger attached to ctx, falling back to the
// package default logger (with any keys resolved from ctx attached as
// fields) when none has been attached yet.
func GetLogger(ctx context.Context, keys ...interface{}) Logger {
	var logger *logrus.Entry

	if l, ok := ctx.Value(loggerKey{}).(*logrus.Entry); ok {
		logger = l
	} else {
		defaultLoggerMu.RLock()
		logger = logrus.NewEntry(defaultLogger)
		defaultLoggerMu.RUnlock()
	}

	if len(keys) == 0 {
		return logger
	}

	fields := logrus.Fields{}
	for _, key := range keys {
		if v := ctx.Value(key); v != nil {
			fields[fmt.Sprint(key)] = v
		}
	}
	return logger.WithFields(fields)
}

// SetDefaultLogger replaces the package-wide fallback logger, used by the
// CLI entrypoint once it has loaded the configured log level and format.
func SetDefaultLogger(l *logrus.Logger) {
	defaultLoggerMu.Lock()
	defaultLogger = l
	defaultLoggerMu.Unlock()
}
