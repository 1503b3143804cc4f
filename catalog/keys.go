// Copyright (C) 2026 Tattoo Catalog Contributors
// See LICENSE for copying information.

package catalog

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"strings"
)

// StyleShards is the number of logical partitions a style's artists are
// bucketed across, to avoid a hot partition on popular styles.
const StyleShards = 10

// SK values for the fixed child records under an Artist's or Studio's PK.
const (
	skMetadata = "METADATA"
)

// StudioPK returns the primary key of a Studio's metadata record.
func StudioPK(studioID string) string {
	return "STUDIO#" + studioID
}

// ArtistPK returns the primary key shared by an Artist's metadata and
// image records.
func ArtistPK(artistID string) string {
	return "ARTIST#" + artistID
}

// MetadataSK is the sort key of any entity's metadata record.
func MetadataSK() string {
	return skMetadata
}

// ImageSK is the sort key of the n-th portfolio image under an Artist's
// PK.
func ImageSK(n int) string {
	return fmt.Sprintf("IMAGE#%04d", n)
}

// StyleGeoGSI returns the partition/sort key pair of the
// (style shard, geohash) secondary projection.
func StyleGeoGSI(style, artistID, geohash string) (pk, sk string) {
	shard := ShardForArtist(artistID)
	return fmt.Sprintf("STYLE#%s#SHARD#%d", strings.ToLower(style), shard),
		fmt.Sprintf("GEOHASH#%s#ARTIST#%s", geohash, artistID)
}

// NameGSI returns the partition/sort key pair of the lowercased-name
// secondary projection.
func NameGSI(name, artistID string) (pk, sk string) {
	return "NAME#" + strings.ToLower(name), "ARTIST#" + artistID
}

// ContactHandleGSI returns the partition/sort key pair of the
// contact-handle secondary projection.
func ContactHandleGSI(handle, artistID string) (pk, sk string) {
	return "HANDLE#" + strings.ToLower(handle), "ARTIST#" + artistID
}

// ShardForArtist deterministically maps an artist id to one of
// StyleShards logical partitions, so listing a popular style fans out
// across shards instead of hitting one hot partition key.
func ShardForArtist(artistID string) int {
	sum := sha256.Sum256([]byte(artistID))
	n := binary.BigEndian.Uint32(sum[:4])
	return int(n % uint32(StyleShards))
}

// ShardKeysForStyle returns the GSI partition key for every shard of a
// style, for fan-out reads across all StyleShards partitions.
func ShardKeysForStyle(style string) []string {
	keys := make([]string, StyleShards)
	for i := 0; i < StyleShards; i++ {
		keys[i] = fmt.Sprintf("STYLE#%s#SHARD#%d", strings.ToLower(style), i)
	}
	return keys
}
