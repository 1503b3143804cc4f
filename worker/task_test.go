// Copyright (C) 2026 Tattoo Catalog Contributors
// See LICENSE for copying information.

package worker_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/tattoodirectory/catalog/catalog"
	"github.com/tattoodirectory/catalog/catalog/memstore"
	"github.com/tattoodirectory/catalog/internal/ratelimit"
	"github.com/tattoodirectory/catalog/queue"
	"github.com/tattoodirectory/catalog/queue/memqueue"
	"github.com/tattoodirectory/catalog/worker"
)

type fakeFetcher struct {
	body []byte
	err  error
}

func (f *fakeFetcher) Fetch(ctx context.Context, targetURL string) ([]byte, error) {
	return f.body, f.err
}

const samplePage = `<html><head>
<meta name="artist-name" content="Ada Lovelace">
<meta name="contact-handle" content="@ada">
<meta name="styles" content="blackwork, fine-line">
</head><body>
<img data-portfolio src="https://cdn.example.com/1.jpg" data-style="blackwork">
</body></html>`

func newTask(t *testing.T, fetcher *fakeFetcher, store catalog.Store, q queue.Queue) *worker.Task {
	t.Helper()
	return &worker.Task{
		Fetcher:           fetcher,
		RateLimiter:       ratelimit.NewHostLimiter(rate.Every(time.Millisecond), 10),
		Catalog:           store,
		Queue:             q,
		VisibilityTimeout: time.Minute,
	}
}

func TestTaskRunSuccessUpsertsAndAcknowledges(t *testing.T) {
	ctx := context.Background()
	store := memstore.New(nil)
	q := memqueue.New(5)
	_, err := q.EnqueueBatch(ctx, []catalog.ScrapeJob{{ScrapeRunID: "run-1", ArtistID: "a1", TargetURL: "https://studio.example.com/a1"}})
	require.NoError(t, err)

	messages, err := q.Receive(ctx, 1, time.Minute)
	require.NoError(t, err)
	require.Len(t, messages, 1)

	task := newTask(t, &fakeFetcher{body: []byte(samplePage)}, store, q)
	outcome := task.Run(ctx, messages[0])
	require.Equal(t, worker.OutcomeSuccess, outcome)

	artist, err := store.GetArtist(ctx, "a1")
	require.NoError(t, err)
	require.Equal(t, "Ada Lovelace", artist.Name)
	require.Equal(t, 0, q.Depth())
}

func TestTaskRunAlreadyAppliedAcknowledges(t *testing.T) {
	ctx := context.Background()
	store := memstore.New(nil)
	require.NoError(t, store.PutArtist(ctx, catalog.Artist{ID: "a1", Name: "Ada"}, nil, "run-1"))

	q := memqueue.New(5)
	_, err := q.EnqueueBatch(ctx, []catalog.ScrapeJob{{ScrapeRunID: "run-1", ArtistID: "a1", TargetURL: "https://studio.example.com/a1"}})
	require.NoError(t, err)
	messages, err := q.Receive(ctx, 1, time.Minute)
	require.NoError(t, err)

	task := newTask(t, &fakeFetcher{body: []byte(samplePage)}, store, q)
	outcome := task.Run(ctx, messages[0])
	require.Equal(t, worker.OutcomeAlreadyApplied, outcome)
	require.Equal(t, 0, q.Depth())
}

func TestTaskRunEmptyParseAcknowledges(t *testing.T) {
	ctx := context.Background()
	store := memstore.New(nil)
	q := memqueue.New(5)
	_, err := q.EnqueueBatch(ctx, []catalog.ScrapeJob{{ScrapeRunID: "run-1", ArtistID: "a1", TargetURL: "https://studio.example.com/a1"}})
	require.NoError(t, err)
	messages, err := q.Receive(ctx, 1, time.Minute)
	require.NoError(t, err)

	task := newTask(t, &fakeFetcher{body: []byte("<html></html>")}, store, q)
	outcome := task.Run(ctx, messages[0])
	require.Equal(t, worker.OutcomeEmpty, outcome)
	require.Equal(t, 0, q.Depth())
}

func TestTaskRunTransientFetchFailureReturnsToQueue(t *testing.T) {
	ctx := context.Background()
	store := memstore.New(nil)
	q := memqueue.New(5)
	_, err := q.EnqueueBatch(ctx, []catalog.ScrapeJob{{ScrapeRunID: "run-1", ArtistID: "a1", TargetURL: "https://studio.example.com/a1"}})
	require.NoError(t, err)
	messages, err := q.Receive(ctx, 1, time.Minute)
	require.NoError(t, err)

	task := newTask(t, &fakeFetcher{err: worker.ErrTransientFetch.New("timeout")}, store, q)
	outcome := task.Run(ctx, messages[0])
	require.Equal(t, worker.OutcomeTransient, outcome)
	require.Equal(t, 1, q.Depth())
}

func TestTaskRunRateLimitedReleasesWithoutProgress(t *testing.T) {
	ctx := context.Background()
	store := memstore.New(nil)
	q := memqueue.New(5)
	_, err := q.EnqueueBatch(ctx, []catalog.ScrapeJob{{ScrapeRunID: "run-1", ArtistID: "a1", TargetURL: "https://studio.example.com/a1"}})
	require.NoError(t, err)
	messages, err := q.Receive(ctx, 1, time.Minute)
	require.NoError(t, err)

	task := newTask(t, &fakeFetcher{body: []byte(samplePage)}, store, q)
	task.RateLimiter = ratelimit.NewHostLimiter(rate.Every(time.Hour), 0)

	outcome := task.Run(ctx, messages[0])
	require.Equal(t, worker.OutcomeRateLimited, outcome)
	require.Equal(t, 1, q.Depth())
}
