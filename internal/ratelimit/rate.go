// Copyright (C) 2026 Tattoo Catalog Contributors
// See LICENSE for copying information.

// Package ratelimit implements the per-host token bucket used by the
// scrape worker (spec §4.4/§5/§8: "a token-bucket per hostname, shared
// process-wide"). The accounting algorithm is adapted from the teacher's
// satellite/metainfo/bloomrate package (a counter-based windowed limiter
// keyed by an approximate bloom filter over per-node keys); here it is
// keyed exactly by hostname instead, since the host cardinality a scrape
// run touches is small and operator-controlled, unlike storj's node key
// space (see DESIGN.md).
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Rate tracks the virtual fill level of a single token bucket without
// allocating a timer or goroutine per key, so thousands of per-host
// buckets are cheap to hold in memory.
type Rate struct {
	mu    sync.Mutex
	last  time.Time
	level float64
}

// Allow reports whether an event is allowed at time now, given a fill
// rate of limit events per second and a maximum burst of burst tokens.
func (r *Rate) Allow(now time.Time, limit rate.Limit, burst int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.last.IsZero() {
		elapsed := now.Sub(r.last).Seconds()
		r.level -= elapsed * float64(limit)
		if r.level < 0 {
			r.level = 0
		}
	}
	r.last = now

	// The small tolerance absorbs float rounding in the drain above, so a
	// token that has refilled exactly is available.
	if r.level+1 > float64(burst)+1e-9 {
		return false
	}
	r.level++
	return true
}
