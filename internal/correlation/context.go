// Copyright (C) 2026 Tattoo Catalog Contributors
// See LICENSE for copying information.

// Package correlation carries a correlation id (the scrapeRunId for
// orchestration work, or a per-request id for the Query API) through a
// context.Context, so every log line and downstream call can be tied back
// to the request or run that caused it.
package correlation

import (
	"context"

	uuid "github.com/satori/go.uuid"
)

type contextKey struct{}

// New generates a fresh correlation id.
func New() string {
	return uuid.NewV4().String()
}

// WithValue attaches an existing correlation id to ctx.
func WithValue(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// WithNew attaches a freshly generated correlation id to ctx and returns
// both.
func WithNew(ctx context.Context) (context.Context, string) {
	id := New()
	return WithValue(ctx, id), id
}

// FromContext retrieves the correlation id attached to ctx, if any.
func FromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(contextKey{}).(string)
	return id, ok
}

// FromContextOrNew retrieves the correlation id attached to ctx, or
// generates and attaches a new one if absent.
func FromContextOrNew(ctx context.Context) (context.Context, string) {
	if id, ok := FromContext(ctx); ok {
		return ctx, id
	}
	return WithNew(ctx)
}
