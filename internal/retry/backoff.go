// Copyright (C) 2026 Tattoo Catalog Contributors
// See LICENSE for copying information.

// Package retry provides capped-exponential-backoff-with-jitter retrying,
// bounded below by a total elapsed-time budget for latency-sensitive call
// paths (see spec §4.7, §7 Transient policy).
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy configures a retry run.
type Policy struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	// RandomizationFactor jitters each interval by +/- this fraction,
	// approximating full-jitter backoff without requiring a custom RNG
	// wrapper around the library's own exponential backoff.
	RandomizationFactor float64
	// Budget bounds the total elapsed time retries may consume. Zero
	// means unbounded (bounded only by MaxRetries, if set).
	Budget time.Duration
	// MaxRetries caps the number of retries after the first attempt.
	// Zero means unbounded
	// (bounded only by Budget).
	MaxRetries uint64
}

// DefaultPolicy is used when a caller doesn't need custom tuning.
func DefaultPolicy() Policy {
	return Policy{
		InitialInterval:      100 * time.Millisecond,
		MaxInterval:          10 * time.Second,
		Multiplier:           2,
		RandomizationFactor:  0.5,
		Budget:               30 * time.Second,
	}
}

// Do retries fn until it returns a nil error, ctx is cancelled, or the
// policy's budget/attempt cap is exhausted. A Permanent error (wrap with
// backoff.Permanent) stops retrying immediately without exhausting the
// budget — this is how callers distinguish spec's PermanentInput from
// Transient.
func (p Policy) Do(ctx context.Context, fn func() error) error {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = p.InitialInterval
	eb.MaxInterval = p.MaxInterval
	eb.Multiplier = p.Multiplier
	eb.RandomizationFactor = p.RandomizationFactor
	eb.MaxElapsedTime = p.Budget

	var b backoff.BackOff = eb
	if p.MaxRetries > 0 {
		b = backoff.WithMaxRetries(eb, p.MaxRetries)
	}
	b = backoff.WithContext(b, ctx)

	return backoff.Retry(fn, b)
}

// Permanent marks err as non-retryable, matching spec's PermanentInput
// policy of "do not retry indefinitely".
func Permanent(err error) error {
	return backoff.Permanent(err)
}
