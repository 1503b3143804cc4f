// Copyright (C) 2026 Tattoo Catalog Contributors
// See LICENSE for copying information.

package worker_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/tattoodirectory/catalog/catalog"
	"github.com/tattoodirectory/catalog/catalog/memstore"
	"github.com/tattoodirectory/catalog/internal/ratelimit"
	"github.com/tattoodirectory/catalog/queue/memqueue"
	"github.com/tattoodirectory/catalog/worker"
)

func TestPoolProcessesEnqueuedJobsAndDrainsOnShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := memstore.New(nil)
	q := memqueue.New(5)

	const jobCount = 6
	jobs := make([]catalog.ScrapeJob, 0, jobCount)
	for i := 0; i < jobCount; i++ {
		jobs = append(jobs, catalog.ScrapeJob{
			ScrapeRunID: "run-1",
			ArtistID:    "artist-" + string(rune('a'+i)),
			TargetURL:   "https://studio.example.com/" + string(rune('a'+i)),
		})
	}
	_, err := q.EnqueueBatch(ctx, jobs)
	require.NoError(t, err)

	var processed int64
	cfg := worker.PoolConfig{
		Concurrency:       2,
		VisibilityTimeout: time.Minute,
		ReceiveBatchSize:  10,
		PollInterval:      5 * time.Millisecond,
	}
	pool := worker.NewPool(cfg, q, func() *worker.Task {
		return &worker.Task{
			Fetcher:     &countingFetcher{count: &processed, body: []byte(samplePage)},
			RateLimiter: ratelimit.NewHostLimiter(rate.Every(time.Microsecond), 100),
			Catalog:     store,
			Queue:       q,
		}
	}, nil)

	done := make(chan error, 1)
	go func() { done <- pool.Run(ctx) }()

	require.Eventually(t, func() bool {
		return atomic.LoadInt64(&processed) == jobCount
	}, 2*time.Second, 5*time.Millisecond)
	require.Equal(t, 0, q.Depth())

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("pool.Run did not return after context cancellation")
	}
}

type countingFetcher struct {
	count *int64
	body  []byte
}

func (f *countingFetcher) Fetch(ctx context.Context, targetURL string) ([]byte, error) {
	atomic.AddInt64(f.count, 1)
	return f.body, nil
}
