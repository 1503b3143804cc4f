// Copyright (C) 2026 Tattoo Catalog Contributors
// See LICENSE for copying information.

// Package takedown runs the periodic sweep that applies pending
// TakedownRequests: flipping an artist's opted_out flag (which in turn
// causes the projector to delete the index document). The sweep runs
// on an hourly sync2.Cycle, plus an on-demand TriggerWait invoked by
// POST /v1/takedowns, mirroring the Loop-with-TriggerWait pattern used
// throughout the teacher's chores (satellite/dbcleanup,
// satellite/accountfreeze).
package takedown

import (
	"context"
	"time"

	"github.com/zeebo/errs"
	"go.uber.org/zap"

	"github.com/tattoodirectory/catalog/catalog"
	"github.com/tattoodirectory/catalog/internal/sync2"
)

// Error is the takedown package's error class.
var Error = errs.Class("takedown")

// DefaultInterval is the sweep cadence per Design Notes §9 item 2.
const DefaultInterval = time.Hour

// Store is the collaborator Sweeper needs to list and resolve pending
// TakedownRequests, kept separate from catalog.Store because
// TakedownRequest is its own lifecycle, distinct from Artist/Studio.
type Store interface {
	Create(ctx context.Context, req catalog.TakedownRequest) (catalog.TakedownRequest, error)
	ListPending(ctx context.Context) ([]catalog.TakedownRequest, error)
	MarkApplied(ctx context.Context, id string) error
	MarkRejected(ctx context.Context, id, reason string) error
}

// Sweeper periodically applies pending takedown requests against the
// catalog.
type Sweeper struct {
	Store   Store
	Catalog catalog.Store
	Log     *zap.Logger

	cycle *sync2.Cycle
}

// NewSweeper returns a Sweeper polling on interval (DefaultInterval if
// zero).
func NewSweeper(store Store, catalogStore catalog.Store, log *zap.Logger, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Sweeper{
		Store:   store,
		Catalog: catalogStore,
		Log:     log,
		cycle:   sync2.NewCycle(interval),
	}
}

// Run blocks, sweeping on every cycle tick until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) error {
	return s.cycle.Run(ctx, func(ctx context.Context) error {
		return s.sweepOnce(ctx)
	})
}

// TriggerWait forces an immediate sweep and waits for it to finish,
// called after every accepted POST /v1/takedowns (spec §9).
func (s *Sweeper) TriggerWait() {
	s.cycle.TriggerWait()
}

// Close stops Run from scheduling further sweeps.
func (s *Sweeper) Close() {
	s.cycle.Close()
}

func (s *Sweeper) sweepOnce(ctx context.Context) error {
	pending, err := s.Store.ListPending(ctx)
	if err != nil {
		return Error.Wrap(err)
	}

	for _, req := range pending {
		if err := s.apply(ctx, req); err != nil {
			if s.Log != nil {
				s.Log.Warn("takedown apply failed", zap.String("takedown_id", req.ID), zap.Error(err))
			}
			continue
		}
	}
	return nil
}

func (s *Sweeper) apply(ctx context.Context, req catalog.TakedownRequest) error {
	if err := s.Catalog.MarkOptedOut(ctx, req.ArtistID, req.Reason); err != nil {
		if catalog.ErrNotFound.Has(err) {
			return s.Store.MarkRejected(ctx, req.ID, "artist not found")
		}
		return err
	}
	return s.Store.MarkApplied(ctx, req.ID)
}
