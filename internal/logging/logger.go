// Copyright (C) 2026 Tattoo Catalog Contributors
// See LICENSE for copying information.

package logging

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tattoodirectory/catalog/internal/correlation"
)

// New builds the process-wide zap.Logger. Every binary in cmd/ calls this
// the same way cmd/satellite and cmd/storagenode construct their loggers
// in the teacher.
func New(level zapcore.Level, development bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

// WithCorrelation returns a child logger with the correlation id from ctx
// (generating one if absent is the caller's responsibility via
// correlation.WithNew) attached as a structured field.
func WithCorrelation(ctx context.Context, log *zap.Logger) *zap.Logger {
	id, ok := correlation.FromContext(ctx)
	if !ok {
		return log
	}
	return log.With(zap.String("correlation_id", id))
}

// defaultRedactor is used by Any when callers don't need a custom key set.
var defaultRedactor = NewRedactor()

// Any builds a zap field whose value has been recursively redacted of any
// sensitive key (see DefaultSensitiveKeys), at any nesting depth. Handlers
// logging request/response bodies (the Query API's takedown endpoint, the
// worker's scraped-record payloads) must use this instead of zap.Any.
func Any(key string, value interface{}) zap.Field {
	return zap.Any(key, defaultRedactor.Redact(value))
}

// RedactedAny is like Any but with an explicit Redactor, for callers with
// a custom sensitive-key set.
func RedactedAny(r *Redactor, key string, value interface{}) zap.Field {
	return zap.Any(key, r.Redact(value))
}
