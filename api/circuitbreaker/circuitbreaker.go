// Copyright (C) 2026 Tattoo Catalog Contributors
// See LICENSE for copying information.

// Package circuitbreaker implements the small explicit breaker the
// design notes call for: a (failures, lastFailureAt, state) struct
// guarding the query API's index client. One mutex guards the struct,
// and every Allow, Report, State and RetryAfter call takes it, not
// only the calls that change state.
package circuitbreaker

import (
	"sync"
	"time"
)

// State is one of the three breaker states.
type State string

const (
	Closed   State = "closed"
	Open     State = "open"
	HalfOpen State = "half_open"
)

// Config bounds a Breaker's trip threshold and reset timing.
type Config struct {
	// FailureThreshold is the number of consecutive failures that trips
	// the breaker from Closed to Open.
	FailureThreshold int
	// ResetTimeout is how long the breaker stays Open before allowing a
	// single HalfOpen probe.
	ResetTimeout time.Duration
}

// DefaultConfig is a conservative default.
func DefaultConfig() Config {
	return Config{FailureThreshold: 5, ResetTimeout: 30 * time.Second}
}

// Breaker guards calls to a single unreliable dependency (the search
// index client). Allow/Report bracket a call; Report's success argument
// drives the state transition.
type Breaker struct {
	cfg Config

	mu            sync.Mutex
	state         State
	failures      int
	lastFailureAt time.Time
	halfOpenProbe bool
}

// New returns a Breaker in the Closed state.
func New(cfg Config) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 1
	}
	return &Breaker{cfg: cfg, state: Closed}
}

// Allow reports whether a call should proceed, and if so whether it is
// the single admitted HalfOpen probe. Open returns false unless
// ResetTimeout has elapsed since the last failure, in which case the
// breaker transitions to HalfOpen and admits exactly one probe.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Closed:
		return true
	case HalfOpen:
		if b.halfOpenProbe {
			return false
		}
		b.halfOpenProbe = true
		return true
	case Open:
		if time.Since(b.lastFailureAt) < b.cfg.ResetTimeout {
			return false
		}
		b.state = HalfOpen
		b.halfOpenProbe = true
		return true
	}
	return false
}

// Report records the outcome of a call admitted by Allow.
func (b *Breaker) Report(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if success {
		b.state = Closed
		b.failures = 0
		b.halfOpenProbe = false
		return
	}

	b.lastFailureAt = time.Now()
	b.halfOpenProbe = false
	if b.state == HalfOpen {
		b.state = Open
		return
	}

	b.failures++
	if b.failures >= b.cfg.FailureThreshold {
		b.state = Open
	}
}

// State returns the breaker's current state, for metrics/diagnostics.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// RetryAfter returns how long a caller should wait before trying again
// while the breaker is Open, for the 503 Retry-After hint (spec §4.6).
func (b *Breaker) RetryAfter() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != Open {
		return 0
	}
	remaining := b.cfg.ResetTimeout - time.Since(b.lastFailureAt)
	if remaining < 0 {
		return 0
	}
	return remaining
}
