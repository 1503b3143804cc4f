// Copyright (C) 2026 Tattoo Catalog Contributors
// See LICENSE for copying information.

// Package changefeed is the durable change stream between the catalog
// store's writes and the projector's reads (catalog.ChangeEventSink /
// index.ChangeSource): a Redis list per shard, sharded by ArtistID so a
// given artist's events are always delivered in order to the same
// projector goroutine (spec §4.2, "per-shard ordering"). Grounded on
// queue/redisqueue's own Redis-list-plus-JSON-envelope idiom, the same
// teacher dependency (satellite/eventing's go-redis client) repurposed
// for a second durable queue rather than a bespoke transport.
package changefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"

	"github.com/go-redis/redis/v8"

	"github.com/tattoodirectory/catalog/catalog"
)

// Feed is both a catalog.ChangeEventSink and an index.ChangeSource
// backed by client.
type Feed struct {
	client    *redis.Client
	numShards int
}

// New returns a Feed sharding events across numShards Redis lists.
func New(client *redis.Client, numShards int) *Feed {
	if numShards <= 0 {
		numShards = 1
	}
	return &Feed{client: client, numShards: numShards}
}

func shardKey(shard int) string {
	return fmt.Sprintf("changefeed:shard:%d", shard)
}

// ShardOf returns the shard index events for artistID always land on,
// so the projector's per-shard goroutine sees every change for a given
// artist in emitted order.
func (f *Feed) ShardOf(artistID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(artistID))
	return int(h.Sum32() % uint32(f.numShards))
}

// Emit implements catalog.ChangeEventSink.
func (f *Feed) Emit(ctx context.Context, event catalog.ChangeEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	shard := f.ShardOf(event.ArtistID)
	return f.client.LPush(ctx, shardKey(shard), payload).Err()
}

// Poll implements index.ChangeSource: it pops up to max events already
// queued for shard without blocking for more, letting the projector's
// sync2.Cycle govern the poll cadence instead of a long-poll here.
func (f *Feed) Poll(ctx context.Context, shard int, max int) ([]catalog.ChangeEvent, error) {
	key := shardKey(shard)
	events := make([]catalog.ChangeEvent, 0, max)
	for len(events) < max {
		result, err := f.client.RPop(ctx, key).Result()
		if err == redis.Nil {
			break
		}
		if err != nil {
			return events, err
		}
		var event catalog.ChangeEvent
		if err := json.Unmarshal([]byte(result), &event); err != nil {
			continue
		}
		events = append(events, event)
	}
	return events, nil
}
