// Copyright (C) 2026 Tattoo Catalog Contributors
// See LICENSE for copying information.

package worker

import (
	"context"
	"net/url"
	"time"

	monkit "gopkg.in/spacemonkeygo/monkit.v2"

	"go.uber.org/zap"

	"github.com/tattoodirectory/catalog/catalog"
	"github.com/tattoodirectory/catalog/internal/correlation"
	"github.com/tattoodirectory/catalog/internal/geohash"
	"github.com/tattoodirectory/catalog/internal/logging"
	"github.com/tattoodirectory/catalog/internal/ratelimit"
	"github.com/tattoodirectory/catalog/queue"
)

var mon = monkit.Package()

// Outcome classifies how a single task run ended, for metrics.
type Outcome string

const (
	OutcomeSuccess        Outcome = "success"
	OutcomeAlreadyApplied Outcome = "already_applied"
	OutcomeEmpty          Outcome = "empty"
	OutcomeRateLimited    Outcome = "rate_limited"
	OutcomeTransient      Outcome = "transient"
	OutcomePermanent      Outcome = "permanent"
)

// pageFetcher is the narrow interface Task needs from a Fetcher,
// allowing tests to substitute a fake HTTP layer.
type pageFetcher interface {
	Fetch(ctx context.Context, targetURL string) ([]byte, error)
}

// StatsRecorder counts per-run outcomes so the orchestrator's
// Draining/Reporting stages can read them back through
// orchestrator.RunStats to decide pass/fail (spec §4.5's success-rate
// floor). Optional: a nil Stats on Task simply means outcomes aren't
// counted.
type StatsRecorder interface {
	RecordScraped(scrapeRunID string)
	RecordDeadLettered(scrapeRunID string)
}

// Task processes one received queue.Message to completion: rate-limit,
// fetch, parse, upsert, acknowledge (or let it return to the queue).
type Task struct {
	Fetcher     pageFetcher
	RateLimiter *ratelimit.HostLimiter
	Catalog     catalog.Store
	Queue       queue.Queue
	Stats       StatsRecorder
	Log         *zap.Logger

	// VisibilityTimeout is T in spec §4.4; the task extends it
	// proactively if processing exceeds half this duration.
	VisibilityTimeout time.Duration
}

// Run executes one message to completion, never returning an error for
// an individual task failure (per spec §4.4, "workers never exit on an
// individual failure") — Outcome communicates what happened.
func (t *Task) Run(ctx context.Context, msg queue.Message) Outcome {
	ctx = correlation.WithValue(ctx, msg.Job.ScrapeRunID)
	log := logging.WithCorrelation(ctx, t.Log)

	host, err := hostOf(msg.Job.TargetURL)
	if err != nil {
		log.Warn("unparseable target URL, dead-lettering via attempt cap", zap.Error(err))
		return OutcomePermanent
	}

	if !t.RateLimiter.Allow(host) {
		// Release the message with no progress; let visibility timeout
		// redeliver it rather than block other work on this host.
		return OutcomeRateLimited
	}

	extendDone := t.extendVisibilityAfterHalf(ctx, msg.ReceiptHandle)
	defer close(extendDone)

	body, err := t.Fetcher.Fetch(ctx, msg.Job.TargetURL)
	if err != nil {
		if ErrPermanentFetch.Has(err) {
			log.Info("permanent fetch failure", zap.Error(err))
			return OutcomePermanent
		}
		log.Info("transient fetch failure, returning to queue", zap.Error(err))
		return OutcomeTransient
	}

	parsed, err := ParseArtistPage(body)
	if err != nil {
		log.Info("parse failure", zap.Error(err))
		return OutcomePermanent
	}
	if parsed.Empty() {
		if ackErr := t.Queue.Acknowledge(ctx, msg.ReceiptHandle); ackErr != nil {
			log.Error("failed to acknowledge empty-result message", zap.Error(ackErr))
		}
		return OutcomeEmpty
	}

	artist := catalog.Artist{
		ID:            msg.Job.ArtistID,
		Name:          parsed.Name,
		Styles:        parsed.Styles,
		ContactHandle: parsed.ContactHandle,
		PortfolioURL:  parsed.PortfolioURL,
	}
	if parsed.HasLatLon {
		artist.Geohash = geohash.Encode(parsed.Lat, parsed.Lon, geohash.DefaultPrecision)
	}

	err = t.Catalog.PutArtist(ctx, artist, parsed.Images, msg.Job.ScrapeRunID)
	switch {
	case catalog.ErrAlreadyApplied.Has(err):
		mon.Counter("already_applied").Inc(1)
		if ackErr := t.Queue.Acknowledge(ctx, msg.ReceiptHandle); ackErr != nil {
			log.Error("failed to acknowledge already-applied message", zap.Error(ackErr))
		}
		return OutcomeAlreadyApplied
	case err != nil:
		log.Warn("catalog write failed, returning to queue", zap.Error(err))
		return OutcomeTransient
	}

	if err := t.Queue.Acknowledge(ctx, msg.ReceiptHandle); err != nil {
		log.Error("failed to acknowledge message", zap.Error(err))
		return OutcomeTransient
	}
	if t.Stats != nil {
		t.Stats.RecordScraped(msg.Job.ScrapeRunID)
	}
	return OutcomeSuccess
}

// extendVisibilityAfterHalf starts a goroutine that extends the
// message's visibility timeout if processing is still in flight past
// T/2, stopping when the returned channel is closed.
func (t *Task) extendVisibilityAfterHalf(ctx context.Context, receiptHandle string) chan struct{} {
	done := make(chan struct{})
	half := t.VisibilityTimeout / 2
	go func() {
		timer := time.NewTimer(half)
		defer timer.Stop()
		select {
		case <-done:
		case <-ctx.Done():
		case <-timer.C:
			_ = t.Queue.Extend(ctx, receiptHandle, t.VisibilityTimeout)
		}
	}()
	return done
}

func hostOf(target string) (string, error) {
	u, err := url.Parse(target)
	if err != nil {
		return "", err
	}
	return u.Hostname(), nil
}
