// Copyright (C) 2026 Tattoo Catalog Contributors
// See LICENSE for copying information.

package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// HostLimiter is a process-wide token bucket keyed exactly by hostname.
// Worker fetch goroutines share one HostLimiter so that concurrent
// workers scraping the same studio site still honor a single per-host
// rate, regardless of which worker goroutine issues the request.
type HostLimiter struct {
	limit rate.Limit
	burst int

	mu    sync.Mutex
	rates map[string]*Rate
}

// NewHostLimiter builds a HostLimiter allowing limit events per second,
// per host, with the given burst allowance.
func NewHostLimiter(limit rate.Limit, burst int) *HostLimiter {
	return &HostLimiter{
		limit: limit,
		burst: burst,
		rates: make(map[string]*Rate),
	}
}

// Allow reports whether a request to host is allowed right now.
func (h *HostLimiter) Allow(host string) bool {
	return h.AllowAt(host, time.Now())
}

// AllowAt is Allow with an explicit clock, for deterministic tests.
func (h *HostLimiter) AllowAt(host string, now time.Time) bool {
	return h.rateFor(host).Allow(now, h.limit, h.burst)
}

func (h *HostLimiter) rateFor(host string) *Rate {
	h.mu.Lock()
	defer h.mu.Unlock()

	r, ok := h.rates[host]
	if !ok {
		r = &Rate{}
		h.rates[host] = r
	}
	return r
}
