// Copyright (C) 2026 Tattoo Catalog Contributors
// See LICENSE for copying information.

package index

import (
	"context"
	"time"

	monkit "gopkg.in/spacemonkeygo/monkit.v2"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tattoodirectory/catalog/catalog"
	"github.com/tattoodirectory/catalog/internal/retry"
	"github.com/tattoodirectory/catalog/internal/sync2"
)

var mon = monkit.Package()

// ChangeSource hands the projector the next batch of change events for
// one shard, in delivery order. At-least-once: a previously-delivered
// event may be redelivered, which the applier must tolerate.
type ChangeSource interface {
	Poll(ctx context.Context, shard int, max int) ([]catalog.ChangeEvent, error)
}

// ArtistLookup fetches the current Artist record and its home studio's
// city, to build a fresh Document when an event is not a Remove.
type ArtistLookup interface {
	GetArtist(ctx context.Context, artistID string) (catalog.Artist, error)
	GetStudio(ctx context.Context, studioID string) (catalog.Studio, error)
}

// Projector consumes change events across NumShards shards, one
// goroutine per shard each driven by its own sync2.Cycle, applying them
// to an Indexer with version-guarded, idempotent writes. Sharding
// avoids a global mutex on the index: parallelism by shard is the only
// concurrency the projector needs, and per-shard ordering is preserved
// because each shard has exactly one consuming goroutine.
type Projector struct {
	NumShards     int
	PollInterval  time.Duration
	BatchSize     int
	RetryPolicy   retry.Policy
	MaxAttempts   int

	Source        ChangeSource
	Catalog       ArtistLookup
	Indexer       Indexer
	DeadLetters   DeadLetterStore
	AliasExpander func(style string) []string
	Log           *zap.Logger

	cursors     map[string]Cursor // artistID -> last-known index cursor, best-effort cache
	lastVersion map[string]int64 // artistID -> highest applied catalog.ChangeEvent.Version
}

// DefaultBatchSize bounds how many events one poll pulls per shard.
const DefaultBatchSize = 50

// Run starts one goroutine per shard and blocks until ctx is cancelled
// or any shard's cycle returns a non-nil error.
func (p *Projector) Run(ctx context.Context) error {
	if p.cursors == nil {
		p.cursors = make(map[string]Cursor)
	}
	if p.lastVersion == nil {
		p.lastVersion = make(map[string]int64)
	}
	if p.BatchSize <= 0 {
		p.BatchSize = DefaultBatchSize
	}
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 5
	}

	group, ctx := errgroup.WithContext(ctx)
	for shard := 0; shard < p.NumShards; shard++ {
		shard := shard
		cycle := sync2.NewCycle(p.PollInterval)
		group.Go(func() error {
			return cycle.Run(ctx, func(ctx context.Context) error {
				return p.runShardOnce(ctx, shard)
			})
		})
	}
	return group.Wait()
}

func (p *Projector) runShardOnce(ctx context.Context, shard int) error {
	events, err := p.Source.Poll(ctx, shard, p.BatchSize)
	if err != nil {
		return err
	}
	for _, event := range events {
		p.apply(ctx, event)
	}
	return nil
}

func (p *Projector) apply(ctx context.Context, event catalog.ChangeEvent) {
	attempts := 0
	err := p.RetryPolicy.Do(ctx, func() error {
		attempts++
		err := p.applyOnce(ctx, event)
		if err == nil {
			return nil
		}
		if ErrPreconditionFailed.Has(err) {
			// Lower-versioned arrival; drop, don't retry, don't dead-letter.
			return retry.Permanent(err)
		}
		if attempts >= p.MaxAttempts {
			return retry.Permanent(err)
		}
		return err
	})
	if err == nil {
		return
	}
	if ErrPreconditionFailed.Has(err) {
		mon.Counter("precondition_failed").Inc(1)
		p.logger().Debug("dropped out-of-order update", zap.String("artist_id", event.ArtistID), zap.Error(err))
		return
	}

	if p.DeadLetters != nil {
		dlErr := p.DeadLetters.Put(ctx, DeadLetter{
			Event:    event,
			Reason:   err.Error(),
			Attempts: attempts,
			FailedAt: time.Now().UTC(),
		})
		if dlErr != nil {
			p.logger().Error("failed to dead-letter event", zap.Error(dlErr))
		}
	}
}

// applyOnce honors event.Version as the literal ordering guard: per PK,
// a version lower than the highest one already applied is a stale,
// out-of-order arrival and is dropped without touching the indexer,
// rather than relying on the index's own seq_no/primary_term guard
// (which only catches a genuine concurrent writer, not redelivery of a
// logically-stale event against an otherwise quiescent document). A
// zero Version means the event carries no ordering information (never
// produced by the production catalog store) and the guard is skipped.
func (p *Projector) applyOnce(ctx context.Context, event catalog.ChangeEvent) error {
	if event.Version > 0 {
		if last, ok := p.lastVersion[event.ArtistID]; ok && event.Version < last {
			return ErrPreconditionFailed.New("stale version %d for artist %s, already applied %d", event.Version, event.ArtistID, last)
		}
	}

	if event.Kind == catalog.ChangeRemove {
		if err := p.Indexer.Delete(ctx, event.ArtistID); err != nil {
			return err
		}
		delete(p.cursors, event.ArtistID)
		p.recordVersion(event)
		return nil
	}

	artist, err := p.Catalog.GetArtist(ctx, event.ArtistID)
	if err != nil {
		return err
	}
	if artist.OptedOut {
		if err := p.Indexer.Delete(ctx, event.ArtistID); err != nil {
			return err
		}
		delete(p.cursors, event.ArtistID)
		p.recordVersion(event)
		return nil
	}

	var city string
	if artist.StudioID != "" {
		studio, err := p.Catalog.GetStudio(ctx, artist.StudioID)
		if err == nil {
			city = studio.City
		}
	}

	expected, ok := p.cursors[event.ArtistID]
	if !ok {
		_, cursor, found, err := p.Indexer.Get(ctx, event.ArtistID)
		if err != nil {
			return err
		}
		if found {
			expected = cursor
		}
	}

	doc := BuildDocument(artist, city, p.AliasExpander)

	// The event.Version check above already dropped a stale, out-of-order
	// arrival; a remaining ErrPreconditionFailed here means a genuine
	// concurrent writer raced on the same cursor, caught by the index's
	// native if_seq_no/if_primary_term guard.
	cursor, err := p.Indexer.Upsert(ctx, event.ArtistID, doc, expected)
	if err != nil {
		return err
	}
	p.cursors[event.ArtistID] = cursor
	p.recordVersion(event)
	return nil
}

func (p *Projector) recordVersion(event catalog.ChangeEvent) {
	if event.Version > 0 {
		p.lastVersion[event.ArtistID] = event.Version
	}
}

func (p *Projector) logger() *zap.Logger {
	if p.Log != nil {
		return p.Log
	}
	return zap.NewNop()
}
