// Copyright (C) 2026 Tattoo Catalog Contributors
// See LICENSE for copying information.

// Package orchestrator is the stage machine (C5) that sequences
// discover→find-artists→enqueue-scrapes→drain→report, with bounded
// fan-out and partial-failure tolerance.
package orchestrator

import (
	"context"
	"sync"
	"time"

	uuid "github.com/satori/go.uuid"
	"github.com/zeebo/errs"
	"go.uber.org/zap"

	"github.com/tattoodirectory/catalog/catalog"
	"github.com/tattoodirectory/catalog/internal/sync2"
	"github.com/tattoodirectory/catalog/queue"
)

// Error is the orchestrator package's error class.
var Error = errs.Class("orchestrator")

// State is one stage of a run.
type State string

const (
	StateIdle           State = "idle"
	StateDiscovering    State = "discovering"
	StateFindingArtists State = "finding_artists"
	StateEnqueuing      State = "enqueuing"
	StateDraining       State = "draining"
	StateReporting      State = "reporting"
	StateFailed         State = "failed"
)

// MinSuccessRate is the worker-success-rate floor below which a run is
// failed, per spec §4.5 ("worker success rate < 50% of queued jobs").
const MinSuccessRate = 0.5

// Config bounds an Orchestrator's concurrency and drain behavior.
type Config struct {
	// FindArtistsConcurrency is K, the bounded fan-out for the
	// FindingArtists stage.
	FindArtistsConcurrency int

	// DrainPollInterval is how often Draining polls queue depth.
	DrainPollInterval time.Duration

	// DrainDeadline bounds how long Draining waits for queue depth to
	// reach zero before giving up and moving to Reporting anyway (spec
	// §4.5: "or a deadline elapses").
	DrainDeadline time.Duration
}

// DefaultConfig is a conservative single-run default.
func DefaultConfig() Config {
	return Config{
		FindArtistsConcurrency: 8,
		DrainPollInterval:      2 * time.Second,
		DrainDeadline:          30 * time.Minute,
	}
}

// DepthReporter reports how many jobs tagged with a scrapeRunId remain
// outstanding (queued or in-flight), used by the Draining stage.
type DepthReporter interface {
	Depth() int
}

// RunStats reports outcome counts for a completed scrapeRunId, fed by
// whatever records worker/projector outcomes against that run
// (orchestrator/dynamostore.Stats in a real deployment). Optional: a nil
// Stats leaves ArtistsScraped/ArtistsDeadLettered at zero.
type RunStats interface {
	Scraped(scrapeRunID string) int
	DeadLettered(scrapeRunID string) int
}

// Orchestrator sequences one run at a time through the stage machine.
// It does not retain state across runs beyond the in-flight Run call.
type Orchestrator struct {
	Config

	Discoverer   Discoverer
	ArtistFinder ArtistFinder
	Catalog      catalog.Store
	Queue        queue.Queue
	Depth        DepthReporter
	Stats        RunStats
	Runs         RunStore
	Log          *zap.Logger
}

// Run drives one full pass of the stage machine to completion,
// returning the aggregate RunSummary. It never returns a non-nil error
// for a partial failure within the run — FinalState/FailReason on the
// summary communicate that; the error return is reserved for a
// cancelled context.
func (o *Orchestrator) Run(ctx context.Context) (result RunSummary, resultErr error) {
	summary := RunSummary{FinalState: StateReporting}
	defer func() {
		if o.Runs != nil && result.ScrapeRunID != "" {
			if err := o.Runs.Save(context.Background(), result); err != nil && o.Log != nil {
				o.Log.Warn("failed to persist run summary", zap.Error(err))
			}
		}
	}()

	transition := func(next State) func() {
		started := time.Now()
		return func() {
			summary.Timings = append(summary.Timings, StageTiming{
				Stage: next, Started: started, Duration: time.Since(started),
			})
		}
	}

	endDiscovering := transition(StateDiscovering)
	studios, err := o.Discoverer.DiscoverStudios(ctx)
	endDiscovering()
	if err != nil {
		return o.fail(summary, "discovery failed: "+err.Error()), nil
	}
	summary.StudiosDiscovered = len(studios)
	if len(studios) == 0 {
		return o.fail(summary, "discovery returned zero studios"), nil
	}
	if err := ctx.Err(); err != nil {
		return summary, err
	}

	scrapeRunID := uuid.NewV4().String()
	summary.ScrapeRunID = scrapeRunID

	endFinding := transition(StateFindingArtists)
	artists, studioFailures := o.findArtists(ctx, studios)
	endFinding()
	summary.ArtistsFound = len(artists)
	summary.StudioFailures = studioFailures
	if len(artists) == 0 {
		return o.fail(summary, "find-artists produced zero artists"), nil
	}
	if err := ctx.Err(); err != nil {
		return summary, err
	}

	endEnqueuing := transition(StateEnqueuing)
	queued, err := o.enqueue(ctx, artists, scrapeRunID)
	endEnqueuing()
	summary.ArtistsQueued = queued
	if err != nil {
		return o.fail(summary, "enqueue failed: "+err.Error()), nil
	}
	if err := ctx.Err(); err != nil {
		return summary, err
	}

	endDraining := transition(StateDraining)
	o.drain(ctx)
	endDraining()

	if o.Stats != nil {
		summary.ArtistsScraped = o.Stats.Scraped(scrapeRunID)
		summary.ArtistsDeadLettered = o.Stats.DeadLettered(scrapeRunID)
	}

	summary.FinalState = StateReporting
	if summary.ArtistsQueued > 0 {
		successRate := float64(summary.ArtistsScraped) / float64(summary.ArtistsQueued)
		if successRate < MinSuccessRate {
			return o.fail(summary, "worker success rate below threshold"), nil
		}
	}

	return summary, nil
}

func (o *Orchestrator) fail(summary RunSummary, reason string) RunSummary {
	summary.FinalState = StateFailed
	summary.FailReason = reason
	if o.Log != nil {
		o.Log.Error("run failed", zap.String("scrape_run_id", summary.ScrapeRunID), zap.String("reason", reason))
	}
	return summary
}

// findArtists applies ArtistFinder to every studio with bounded
// parallelism K, tolerating and counting per-studio failures.
func (o *Orchestrator) findArtists(ctx context.Context, studios []catalog.Studio) ([]catalog.Artist, int) {
	k := o.FindArtistsConcurrency
	if k <= 0 {
		k = 1
	}
	limiter := sync2.NewLimiter(k)

	var mu sync.Mutex
	var artists []catalog.Artist
	var failures int

	for _, studio := range studios {
		studio := studio
		limiter.Go(ctx, func() {
			found, err := o.ArtistFinder.FindArtists(ctx, studio)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures++
				if o.Log != nil {
					o.Log.Warn("find-artists failed for studio", zap.String("studio_id", studio.ID), zap.Error(err))
				}
				return
			}
			artists = append(artists, found...)
		})
	}
	limiter.Wait()
	return artists, failures
}

// enqueue generates a ScrapeJob per artist and enqueues in batches of
// queue.MaxBatchSize, returning the count accepted.
func (o *Orchestrator) enqueue(ctx context.Context, artists []catalog.Artist, scrapeRunID string) (int, error) {
	jobs := make([]catalog.ScrapeJob, 0, len(artists))
	now := time.Now()
	for _, artist := range artists {
		target := artist.PortfolioURL
		if target == "" {
			continue
		}
		jobs = append(jobs, catalog.ScrapeJob{
			ScrapeRunID: scrapeRunID,
			ArtistID:    artist.ID,
			TargetURL:   target,
			EnqueuedAt:  now,
		})
	}

	var accepted int
	for start := 0; start < len(jobs); start += queue.MaxBatchSize {
		end := start + queue.MaxBatchSize
		if end > len(jobs) {
			end = len(jobs)
		}
		results, err := o.Queue.EnqueueBatch(ctx, jobs[start:end])
		if err != nil {
			return accepted, Error.Wrap(err)
		}
		for _, r := range results {
			if r.Err == nil {
				accepted++
			}
		}
	}
	return accepted, nil
}

// drain polls queue depth until it reaches zero or DrainDeadline
// elapses, per spec §4.5. Depth is nil-safe: a nil DepthReporter
// (e.g. a Queue implementation without one wired) makes drain return at
// once, without waiting for the deadline.
func (o *Orchestrator) drain(ctx context.Context) {
	if o.Depth == nil {
		return
	}
	deadline := time.Now().Add(o.DrainDeadline)
	interval := o.DrainPollInterval
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if o.Depth.Depth() == 0 {
			return
		}
		if time.Now().After(deadline) {
			if o.Log != nil {
				o.Log.Warn("drain deadline elapsed with nonzero queue depth")
			}
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
