// Copyright (C) 2026 Tattoo Catalog Contributors
// See LICENSE for copying information.

package redisqueue_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"

	"github.com/tattoodirectory/catalog/catalog"
	"github.com/tattoodirectory/catalog/queue/redisqueue"
)

func newTestQueue(t *testing.T) *redisqueue.Queue {
	t.Helper()
	server, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(server.Close)

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	return redisqueue.New(client, 2, nil)
}

func TestEnqueueAndReceive(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	results, err := q.EnqueueBatch(ctx, []catalog.ScrapeJob{
		{ScrapeRunID: "run-1", ArtistID: "a1", TargetURL: "https://a.example.com"},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)

	messages, err := q.Receive(ctx, 10, time.Minute)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	require.Equal(t, "a1", messages[0].Job.ArtistID)
	require.NotEmpty(t, messages[0].ReceiptHandle)
}

func TestReceivedMessageIsInvisibleUntilTimeoutElapses(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	_, err := q.EnqueueBatch(ctx, []catalog.ScrapeJob{{ScrapeRunID: "run-1", ArtistID: "a1"}})
	require.NoError(t, err)

	messages, err := q.Receive(ctx, 10, time.Minute)
	require.NoError(t, err)
	require.Len(t, messages, 1)

	messages, err = q.Receive(ctx, 10, time.Minute)
	require.NoError(t, err)
	require.Empty(t, messages)
}

func TestAcknowledgeRemovesMessage(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	_, err := q.EnqueueBatch(ctx, []catalog.ScrapeJob{{ScrapeRunID: "run-1", ArtistID: "a1"}})
	require.NoError(t, err)

	messages, err := q.Receive(ctx, 10, time.Millisecond)
	require.NoError(t, err)
	require.Len(t, messages, 1)

	require.NoError(t, q.Acknowledge(ctx, messages[0].ReceiptHandle))

	time.Sleep(5 * time.Millisecond)
	messages, err = q.Receive(ctx, 10, time.Minute)
	require.NoError(t, err)
	require.Empty(t, messages)
}

func TestMessageIsDeadLetteredAfterMaxAttempts(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	_, err := q.EnqueueBatch(ctx, []catalog.ScrapeJob{{ScrapeRunID: "run-1", ArtistID: "a1"}})
	require.NoError(t, err)

	// maxAttempts is 2: the first two receives succeed, redelivering the
	// message each time with a near-zero visibility timeout; the third
	// receive observes attempt 3 > 2 and dead-letters it instead.
	for i := 0; i < 2; i++ {
		messages, err := q.Receive(ctx, 10, time.Millisecond)
		require.NoError(t, err)
		require.Len(t, messages, 1)
		time.Sleep(5 * time.Millisecond)
	}

	messages, err := q.Receive(ctx, 10, time.Minute)
	require.NoError(t, err)
	require.Empty(t, messages)
}
