// Copyright (C) 2026 Tattoo Catalog Contributors
// See LICENSE for copying information.

package worker_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tattoodirectory/catalog/worker"
)

func TestParseArtistPageExtractsCoordinates(t *testing.T) {
	page := `<html><head>
<meta name="artist-name" content="Ada Lovelace">
<meta name="latitude" content="51.5074">
<meta name="longitude" content="-0.1278">
</head><body></body></html>`

	parsed, err := worker.ParseArtistPage([]byte(page))
	require.NoError(t, err)
	require.True(t, parsed.HasLatLon)
	require.InDelta(t, 51.5074, parsed.Lat, 0.0001)
	require.InDelta(t, -0.1278, parsed.Lon, 0.0001)
}

func TestParseArtistPageWithoutCoordinatesLeavesHasLatLonFalse(t *testing.T) {
	parsed, err := worker.ParseArtistPage([]byte(`<html><head><meta name="artist-name" content="Ada"></head></html>`))
	require.NoError(t, err)
	require.False(t, parsed.HasLatLon)
}
