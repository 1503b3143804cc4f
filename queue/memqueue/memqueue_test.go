// Copyright (C) 2026 Tattoo Catalog Contributors
// See LICENSE for copying information.

package memqueue_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tattoodirectory/catalog/catalog"
	"github.com/tattoodirectory/catalog/queue/memqueue"
)

func TestReceiveRespectsVisibilityTimeout(t *testing.T) {
	q := memqueue.New(5)
	ctx := context.Background()

	_, err := q.EnqueueBatch(ctx, []catalog.ScrapeJob{{ArtistID: "a1"}})
	require.NoError(t, err)

	first, err := q.Receive(ctx, 10, 20*time.Millisecond)
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := q.Receive(ctx, 10, 20*time.Millisecond)
	require.NoError(t, err)
	require.Empty(t, second)

	time.Sleep(25 * time.Millisecond)
	third, err := q.Receive(ctx, 10, 20*time.Millisecond)
	require.NoError(t, err)
	require.Len(t, third, 1)
}

func TestAcknowledgeRemovesEntryAndDepthDrops(t *testing.T) {
	q := memqueue.New(5)
	ctx := context.Background()

	_, err := q.EnqueueBatch(ctx, []catalog.ScrapeJob{{ArtistID: "a1"}, {ArtistID: "a2"}})
	require.NoError(t, err)
	require.Equal(t, 2, q.Depth())

	messages, err := q.Receive(ctx, 10, time.Minute)
	require.NoError(t, err)
	require.Len(t, messages, 2)

	require.NoError(t, q.Acknowledge(ctx, messages[0].ReceiptHandle))
	require.Equal(t, 1, q.Depth())
}

func TestMessageDroppedAfterMaxAttempts(t *testing.T) {
	q := memqueue.New(2)
	ctx := context.Background()

	_, err := q.EnqueueBatch(ctx, []catalog.ScrapeJob{{ArtistID: "a1"}})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		messages, err := q.Receive(ctx, 10, time.Millisecond)
		require.NoError(t, err)
		require.Len(t, messages, 1)
		time.Sleep(2 * time.Millisecond)
	}

	messages, err := q.Receive(ctx, 10, time.Minute)
	require.NoError(t, err)
	require.Empty(t, messages)
	require.Equal(t, 0, q.Depth())
}
