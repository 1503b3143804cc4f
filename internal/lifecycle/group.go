// Copyright (C) 2026 Tattoo Catalog Contributors
// See LICENSE for copying information.

// Package lifecycle manages the Run/Close sequencing of the long-lived
// components inside a single process (e.g. the core process running the
// projector's shard workers alongside the takedown sweep chore).
package lifecycle

import (
	"context"

	"github.com/zeebo/errs"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Item is one component of a process: an optional long-running Run and an
// optional Close used during shutdown.
type Item struct {
	Name  string
	Run   func(ctx context.Context) error
	Close func() error
}

// Group sequences a set of Items: Run starts every item's Run concurrently
// on a shared errgroup.Group, and Close tears them down in reverse order
// of registration so that later-added (typically downstream) components
// stop before their dependencies.
type Group struct {
	log   *zap.Logger
	items []Item
}

// NewGroup returns an empty Group.
func NewGroup(log *zap.Logger) *Group {
	return &Group{log: log}
}

// Add registers an item. Order matters: Close runs in reverse order.
func (group *Group) Add(item Item) {
	group.items = append(group.items, item)
}

// Run starts every item's Run function on g, logging as each starts.
func (group *Group) Run(ctx context.Context, g *errgroup.Group) {
	for _, item := range group.items {
		item := item
		if item.Run == nil {
			continue
		}
		g.Go(func() error {
			group.log.Info("starting", zap.String("name", item.Name))
			err := item.Run(ctx)
			if err != nil && ctx.Err() == nil {
				group.log.Error("failed", zap.String("name", item.Name), zap.Error(err))
			}
			return err
		})
	}
}

// Close closes every item with a non-nil Close, in reverse registration
// order, collecting all errors.
func (group *Group) Close() error {
	var eg errs.Group
	for i := len(group.items) - 1; i >= 0; i-- {
		item := group.items[i]
		if item.Close == nil {
			continue
		}
		if err := item.Close(); err != nil {
			group.log.Error("close failed", zap.String("name", item.Name), zap.Error(err))
			eg.Add(err)
		}
	}
	return eg.Err()
}
