// Copyright (C) 2026 Tattoo Catalog Contributors
// See LICENSE for copying information.

// Package testctx provides a per-test scratch context: a temp directory
// scoped to the test, deferred-cleanup error checking, and tracked
// background goroutines, so tests that spin up chores/servers don't leak
// either files or goroutines across test runs.
package testctx

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// Context bundles a context.Context with per-test scratch-directory and
// cleanup helpers.
type Context struct {
	context.Context

	t   testing.TB
	dir string

	mu     sync.Mutex
	checks []func() error

	wg sync.WaitGroup
}

// New returns a Context for the running test, with its own temp
// directory that testing.T already arranges to remove after the test.
func New(t testing.TB) *Context {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return &Context{
		Context: ctx,
		t:       t,
		dir:     t.TempDir(),
	}
}

// Dir returns (creating if needed) a subdirectory of the test's scratch
// directory.
func (ctx *Context) Dir(name string) string {
	path := filepath.Join(ctx.dir, name)
	if err := os.MkdirAll(path, 0700); err != nil {
		ctx.t.Fatal(err)
	}
	return path
}

// File returns a path under the test's scratch directory. It does not
// create the file.
func (ctx *Context) File(name string) string {
	return filepath.Join(ctx.dir, name)
}

// Check schedules fn to run at Cleanup, failing the test if it returns
// an error. Intended for `defer ctx.Check(closer.Close)`.
func (ctx *Context) Check(fn func() error) {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	ctx.checks = append(ctx.checks, fn)
}

// Go runs fn in a goroutine tracked by Cleanup/Wait, failing the test if
// it returns an error.
func (ctx *Context) Go(fn func() error) {
	ctx.wg.Add(1)
	go func() {
		defer ctx.wg.Done()
		if err := fn(); err != nil {
			ctx.t.Error(err)
		}
	}()
}

// Wait blocks until every goroutine started with Go has returned.
func (ctx *Context) Wait() {
	ctx.wg.Wait()
}

// Cleanup waits for tracked goroutines and runs every check registered
// with Check, in last-registered-first order (mirroring defer), failing
// the test on the first error.
func (ctx *Context) Cleanup() {
	ctx.wg.Wait()

	ctx.mu.Lock()
	checks := ctx.checks
	ctx.checks = nil
	ctx.mu.Unlock()

	for i := len(checks) - 1; i >= 0; i-- {
		if err := checks[i](); err != nil {
			ctx.t.Error(err)
		}
	}
}
