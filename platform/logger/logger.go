// Package logger provides structured logging infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Context key types for storing values in context
type contextKey string

const (
	// RequestIDKey is the context key for the inbound request ID
	RequestIDKey contextKey = "request_id"
	// TransactionIDKey is the context key for the caller-assigned transaction ID
	TransactionIDKey contextKey = "transaction_id"
)

// Logger wraps slog.Logger for structured logging
type Logger struct {
	*slog.Logger
}

// New creates a new logger based on environment
func New(env string) *Logger {
	return newWithWriter(env, os.Stdout)
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func newWithWriter(env string, w io.Writer) *Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if strings.EqualFold(env, "development") {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithContext returns a logger with request and transaction ids extracted from ctx.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}

	newLogger := l

	if requestID, ok := ctx.Value(RequestIDKey).(string); ok && requestID != "" {
		newLogger = newLogger.WithRequestID(requestID)
	}

	if txID, ok := ctx.Value(TransactionIDKey).(string); ok && txID != "" {
		newLogger = &Logger{
			Logger: newLogger.With(slog.String("transaction_id", txID)),
		}
	}

	return newLogger
}

// WithRequestID returns a logger with request ID
func (l *Logger) WithRequestID(requestID string) *Logger {
	return &Logger{
		Logger: l.With(slog.String("request_id", requestID)),
	}
}

// WithTransaction returns a logger scoped to one inbound transaction.
func (l *Logger) WithTransaction(transactionID, transactionType string) *Logger {
	return &Logger{
		Logger: l.With(
			slog.String("transaction_id", transactionID),
			slog.String("transaction_type", transactionType),
		),
	}
}

// HTTPRequest logs an HTTP request
func (l *Logger) HTTPRequest(method, path string, status int, latencyMs float64, clientIP string) {
	l.Info("http_request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Float64("latency_ms", latencyMs),
		slog.String("client_ip", clientIP),
	)
}

// PASCall logs one remote procedure call against the policy administration system.
func (l *Logger) PASCall(service, method string, elapsed time.Duration, err error) {
	if err != nil {
		l.Warn("pas_call",
			slog.String("service", service),
			slog.String("method", method),
			slog.Int64("latency_ms", elapsed.Milliseconds()),
			slog.String("error", err.Error()),
		)
		return
	}
	l.Debug("pas_call",
		slog.String("service", service),
		slog.String("method", method),
		slog.Int64("latency_ms", elapsed.Milliseconds()),
	)
}

// TransactionOutcome logs the terminal state of an orchestration run.
func (l *Logger) TransactionOutcome(success bool, kind, summary string) {
	if success {
		l.Info("transaction_outcome",
			slog.Bool("success", success),
			slog.String("summary", summary),
		)
		return
	}
	l.Warn("transaction_outcome",
		slog.Bool("success", success),
		slog.String("error_kind", kind),
		slog.String("summary", summary),
	)
}

// RateLimitExceeded logs rate limit events
func (l *Logger) RateLimitExceeded(clientIP, path string) {
	l.Warn("rate_limit_exceeded",
		slog.String("client_ip", clientIP),
		slog.String("path", path),
	)
}
