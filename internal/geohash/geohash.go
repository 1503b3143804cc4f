// Copyright (C) 2026 Tattoo Catalog Contributors
// See LICENSE for copying information.

// Package geohash encodes latitude/longitude pairs into the base32
// geohash strings used as the geospatial prefix component of Studio and
// Artist catalog keys (spec §3, §4.1: "an 8-character geohash prefix").
// No example in the retrieval pack implements a geospatial index, so
// this follows the standard public-domain geohash algorithm directly
// rather than any teacher idiom (see DESIGN.md).
package geohash

import "strings"

const base32Alphabet = "0123456789bcdefghjkmnpqrstuvwxyz"

// DefaultPrecision is the geohash length used for catalog sharding,
// giving roughly 38m x 19m resolution.
const DefaultPrecision = 8

// Encode returns the base32 geohash for (lat, lon) at the given
// character precision.
func Encode(lat, lon float64, precision int) string {
	latRange := [2]float64{-90, 90}
	lonRange := [2]float64{-180, 180}

	var b strings.Builder
	bit, ch, evenBit := 0, 0, true

	for b.Len() < precision {
		if evenBit {
			mid := (lonRange[0] + lonRange[1]) / 2
			if lon >= mid {
				ch |= 1 << uint(4-bit)
				lonRange[0] = mid
			} else {
				lonRange[1] = mid
			}
		} else {
			mid := (latRange[0] + latRange[1]) / 2
			if lat >= mid {
				ch |= 1 << uint(4-bit)
				latRange[0] = mid
			} else {
				latRange[1] = mid
			}
		}
		evenBit = !evenBit

		if bit < 4 {
			bit++
		} else {
			b.WriteByte(base32Alphabet[ch])
			bit, ch = 0, 0
		}
	}
	return b.String()
}

// Prefix truncates a full geohash to n characters, for use as a coarse
// shard or GSI partition key; a geohash of n characters or fewer is
// returned unchanged, not padded. Truncation of a valid geohash is itself a valid, lower-precision
// geohash, so this is just a string slice.
func Prefix(geohash string, n int) string {
	if n >= len(geohash) {
		return geohash
	}
	if n <= 0 {
		return ""
	}
	return geohash[:n]
}
