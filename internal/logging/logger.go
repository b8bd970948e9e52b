// Package logging provides the logrus-backed logger shared by every component.
package logging

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

type ctxKey struct{}

// Logger wraps logrus with a fixed service field.
type Logger struct {
	*logrus.Logger
	service string
}

// New builds a logger. level is any logrus level name; format is "json" or
// "text" (default).
func New(service, level, format string) *Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	if lvl, err := logrus.ParseLevel(strings.TrimSpace(level)); err == nil {
		l.SetLevel(lvl)
	} else {
		l.SetLevel(logrus.InfoLevel)
	}
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return &Logger{Logger: l, service: service}
}

// NewDefault returns an info-level text logger.
func NewDefault(service string) *Logger {
	return New(service, "info", "text")
}

// Discard returns a logger that drops everything. Used by tests and by
// constructors given a nil logger.
func Discard() *Logger {
	l := New("discard", "panic", "text")
	l.SetOutput(io.Discard)
	return l
}

// Service returns the service name attached to every entry.
func (l *Logger) Service() string { return l.service }

// WithFields returns an entry carrying the service name and fields.
func (l *Logger) WithFields(fields logrus.Fields) *logrus.Entry {
	entry := l.Logger.WithField("service", l.service)
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	return entry
}

// WithField is WithFields for a single pair.
func (l *Logger) WithField(key string, value interface{}) *logrus.Entry {
	return l.WithFields(logrus.Fields{key: value})
}

// WithContext adds the request id stored in ctx, if any.
func (l *Logger) WithContext(ctx context.Context) *logrus.Entry {
	entry := l.WithFields(nil)
	if id := RequestID(ctx); id != "" {
		entry = entry.WithField("request_id", id)
	}
	return entry
}

// ContextWithRequestID stores a request id for later log entries.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// RequestID returns the request id stored in ctx.
func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}
