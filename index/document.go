// Copyright (C) 2026 Tattoo Catalog Contributors
// See LICENSE for copying information.

// Package index is the change-stream projector: it consumes catalog
// change events, one goroutine per shard, and applies them to the
// search index with per-PK ordering and idempotent, version-guarded
// writes.
package index

import (
	"strings"

	"github.com/tattoodirectory/catalog/catalog"
)

// Document is the derived, query-optimized representation of an Artist
// stored in the search index.
type Document struct {
	ArtistID     string   `json:"artist_id"`
	Name         string   `json:"name"`
	NameLower    string   `json:"name_lower"`
	SearchTerms  []string `json:"search_terms"`
	Styles       []string `json:"styles"`
	Geohash      string   `json:"geohash"`
	City         string   `json:"city"`
	ImageURLs    []string `json:"image_urls"`
	Version      int64    `json:"version"`
}

// BuildDocument derives a search Document from an Artist record, its
// home studio's city (looked up by value reference, never a pointer),
// and style alias expansions.
func BuildDocument(artist catalog.Artist, city string, aliasExpander func(style string) []string) Document {
	imageURLs := make([]string, 0, len(artist.Images))
	for _, img := range artist.Images {
		imageURLs = append(imageURLs, img.SourceURL)
	}

	terms := map[string]struct{}{strings.ToLower(artist.Name): {}}
	for _, style := range artist.Styles {
		terms[strings.ToLower(style)] = struct{}{}
		if aliasExpander != nil {
			for _, alias := range aliasExpander(style) {
				terms[strings.ToLower(alias)] = struct{}{}
			}
		}
	}
	searchTerms := make([]string, 0, len(terms))
	for term := range terms {
		searchTerms = append(searchTerms, term)
	}

	return Document{
		ArtistID:    artist.ID,
		Name:        artist.Name,
		NameLower:   strings.ToLower(artist.Name),
		SearchTerms: searchTerms,
		Styles:      artist.Styles,
		Geohash:     artist.Geohash,
		City:        city,
		ImageURLs:   imageURLs,
		Version:     artist.Version,
	}
}
