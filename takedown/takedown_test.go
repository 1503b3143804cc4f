// Copyright (C) 2026 Tattoo Catalog Contributors
// See LICENSE for copying information.

package takedown_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tattoodirectory/catalog/catalog"
	"github.com/tattoodirectory/catalog/catalog/memstore"
	"github.com/tattoodirectory/catalog/takedown"
)

func TestSweepAppliesPendingRequest(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	catalogStore := memstore.New(nil)
	require.NoError(t, catalogStore.PutArtist(ctx, catalog.Artist{ID: "a1", Name: "Ada"}, nil, "run-1"))

	store := takedown.NewMemStore()
	req, err := store.Create(ctx, catalog.TakedownRequest{ArtistID: "a1", Reason: "requested by artist"})
	require.NoError(t, err)

	sweeper := takedown.NewSweeper(store, catalogStore, nil, time.Hour)
	done := make(chan error, 1)
	go func() { done <- sweeper.Run(ctx) }()

	require.Eventually(t, func() bool {
		sweeper.TriggerWait()
		applied, ok := store.Get(req.ID)
		return ok && applied.Status == catalog.TakedownApplied
	}, time.Second, 10*time.Millisecond)

	artist, err := catalogStore.GetArtist(ctx, "a1")
	require.NoError(t, err)
	require.True(t, artist.OptedOut)

	cancel()
	require.NoError(t, <-done)
}

func TestSweepRejectsRequestForMissingArtist(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	catalogStore := memstore.New(nil)
	store := takedown.NewMemStore()
	req, err := store.Create(ctx, catalog.TakedownRequest{ArtistID: "missing", Reason: "dmca"})
	require.NoError(t, err)

	sweeper := takedown.NewSweeper(store, catalogStore, nil, time.Hour)
	done := make(chan error, 1)
	go func() { done <- sweeper.Run(ctx) }()

	require.Eventually(t, func() bool {
		sweeper.TriggerWait()
		rejected, ok := store.Get(req.ID)
		return ok && rejected.Status == catalog.TakedownRejected
	}, time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}
