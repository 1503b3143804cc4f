// Copyright (C) 2026 Tattoo Catalog Contributors
// See LICENSE for copying information.

package ratelimit_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/tattoodirectory/catalog/internal/ratelimit"
)

func TestHostLimiterIsolatesHosts(t *testing.T) {
	hl := ratelimit.NewHostLimiter(rate.Every(time.Second), 1)
	now := time.Now()

	require.True(t, hl.AllowAt("a.example.com", now))
	require.False(t, hl.AllowAt("a.example.com", now.Add(time.Millisecond)))

	// A different host has its own bucket and is unaffected by "a"'s state.
	require.True(t, hl.AllowAt("b.example.com", now.Add(time.Millisecond)))
}

func TestHostLimiterConcurrentAccess(t *testing.T) {
	hl := ratelimit.NewHostLimiter(rate.Every(time.Millisecond), 10)

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 50; j++ {
				hl.Allow("shared.example.com")
			}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
}
