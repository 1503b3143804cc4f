// Copyright (C) 2026 Tattoo Catalog Contributors
// See LICENSE for copying information.

package memstore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tattoodirectory/catalog/catalog"
	"github.com/tattoodirectory/catalog/catalog/memstore"
)

type recordingSink struct {
	events []catalog.ChangeEvent
}

func (r *recordingSink) Emit(ctx context.Context, event catalog.ChangeEvent) error {
	r.events = append(r.events, event)
	return nil
}

func TestPutArtistRequiresExistingStudio(t *testing.T) {
	store := memstore.New(nil)
	err := store.PutArtist(context.Background(), catalog.Artist{ID: "a1", StudioID: "missing"}, nil, "run-1")
	require.ErrorIs(t, err, catalog.ErrStudioNotFound)
}

func TestPutArtistIsIdempotentPerScrapeRunID(t *testing.T) {
	sink := &recordingSink{}
	store := memstore.New(sink)
	ctx := context.Background()

	require.NoError(t, store.PutStudio(ctx, catalog.Studio{ID: "s1"}))
	require.NoError(t, store.PutArtist(ctx, catalog.Artist{ID: "a1", StudioID: "s1", Name: "Ada"}, nil, "run-1"))

	artist, err := store.GetArtist(ctx, "a1")
	require.NoError(t, err)
	require.Equal(t, int64(1), artist.Version)

	err = store.PutArtist(ctx, catalog.Artist{ID: "a1", StudioID: "s1", Name: "Ada changed"}, nil, "run-1")
	require.ErrorIs(t, err, catalog.ErrAlreadyApplied)

	artist, err = store.GetArtist(ctx, "a1")
	require.NoError(t, err)
	require.Equal(t, "Ada", artist.Name)
	require.Equal(t, int64(1), artist.Version)

	require.NoError(t, store.PutArtist(ctx, catalog.Artist{ID: "a1", StudioID: "s1", Name: "Ada v2"}, nil, "run-2"))
	artist, err = store.GetArtist(ctx, "a1")
	require.NoError(t, err)
	require.Equal(t, "Ada v2", artist.Name)
	require.Equal(t, int64(2), artist.Version)

	require.Len(t, sink.events, 2)
}

func TestMarkOptedOutClearsImagesAndEmitsRemove(t *testing.T) {
	sink := &recordingSink{}
	store := memstore.New(sink)
	ctx := context.Background()

	require.NoError(t, store.PutArtist(ctx, catalog.Artist{ID: "a1", Name: "Ada"},
		[]catalog.PortfolioImage{{ID: "img1"}}, "run-1"))

	require.NoError(t, store.MarkOptedOut(ctx, "a1", "requested"))

	artist, err := store.GetArtist(ctx, "a1")
	require.NoError(t, err)
	require.True(t, artist.OptedOut)
	require.Empty(t, artist.Images)

	require.Len(t, sink.events, 2)
	require.Equal(t, catalog.ChangeRemove, sink.events[1].Kind)
}

func TestListArtistsByStyleAndGeoFiltersAndPaginates(t *testing.T) {
	store := memstore.New(nil)
	ctx := context.Background()

	for _, id := range []string{"a1", "a2", "a3", "a4"} {
		require.NoError(t, store.PutArtist(ctx, catalog.Artist{
			ID:      id,
			Styles:  []string{"blackwork"},
			Geohash: "gcpvj0",
		}, nil, "run-"+id))
	}
	require.NoError(t, store.PutArtist(ctx, catalog.Artist{
		ID:     "a5",
		Styles: []string{"traditional"},
	}, nil, "run-a5"))

	page, err := store.ListArtistsByStyleAndGeo(ctx, "blackwork", "gcpvj0", "", 2)
	require.NoError(t, err)
	require.Len(t, page.ArtistIDs, 2)
	require.NotEmpty(t, page.NextCursor)

	next, err := store.ListArtistsByStyleAndGeo(ctx, "blackwork", "gcpvj0", page.NextCursor, 2)
	require.NoError(t, err)
	require.Len(t, next.ArtistIDs, 2)
	require.Empty(t, next.NextCursor)
}
