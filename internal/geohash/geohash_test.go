// Copyright (C) 2026 Tattoo Catalog Contributors
// See LICENSE for copying information.

package geohash_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tattoodirectory/catalog/internal/geohash"
)

func TestEncodeIsDeterministicAndOfRequestedLength(t *testing.T) {
	// Covent Garden, London.
	hash := geohash.Encode(51.5074, -0.1278, geohash.DefaultPrecision)
	require.Len(t, hash, geohash.DefaultPrecision)
	require.Equal(t, hash, geohash.Encode(51.5074, -0.1278, geohash.DefaultPrecision))

	// A longer encoding must extend the shorter one, since each
	// additional character only narrows the existing lat/lon range.
	short := geohash.Prefix(hash, 4)
	require.Equal(t, short, geohash.Encode(51.5074, -0.1278, 4))
}

func TestEncodeDistinguishesDistinctLocations(t *testing.T) {
	london := geohash.Encode(51.5074, -0.1278, geohash.DefaultPrecision)
	newYork := geohash.Encode(40.7128, -74.0060, geohash.DefaultPrecision)
	require.NotEqual(t, london, newYork)
	require.NotEqual(t, london[:2], newYork[:2])
}

func TestEncodeIsStableAndBounded(t *testing.T) {
	hash := geohash.Encode(0, 0, 5)
	require.Len(t, hash, 5)
	require.Equal(t, hash, geohash.Encode(0, 0, 5))
}

func TestPrefix(t *testing.T) {
	full := geohash.Encode(51.5074, -0.1278, 8)
	require.Equal(t, full[:4], geohash.Prefix(full, 4))
	require.Equal(t, full, geohash.Prefix(full, 20))
	require.Equal(t, "", geohash.Prefix(full, 0))
}
