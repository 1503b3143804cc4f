// Copyright (C) 2026 Tattoo Catalog Contributors
// See LICENSE for copying information.

package index

import (
	"context"
	"strings"
)

// FakeSearcher is an in-memory Searcher for the query API's tests.
type FakeSearcher struct {
	Documents []Document
	Err       error

	// LastGeohashPrefix records the prefix passed into the most recent
	// Search call, so callers can assert on it without a real index.
	LastGeohashPrefix string
}

// Search implements Searcher with simple style/geohash-prefix filtering
// and keyset pagination (the cursor is the last ArtistID of the previous
// page), enough to exercise the API layer without
// a running Elasticsearch.
func (f *FakeSearcher) Search(ctx context.Context, style, geohashPrefix, cursor string, limit int) (SearchResult, error) {
	f.LastGeohashPrefix = geohashPrefix
	if f.Err != nil {
		return SearchResult{}, f.Err
	}
	if limit <= 0 {
		limit = 20
	}

	var matches []Document
	for _, doc := range f.Documents {
		if style != "" && !containsFold(doc.Styles, style) {
			continue
		}
		if geohashPrefix != "" && !strings.HasPrefix(doc.Geohash, geohashPrefix) {
			continue
		}
		matches = append(matches, doc)
	}

	from := 0
	if cursor != "" {
		for i, doc := range matches {
			if doc.ArtistID == cursor {
				from = i + 1
				break
			}
		}
	}
	end := from + limit
	if end > len(matches) {
		end = len(matches)
	}
	if from > len(matches) {
		from = len(matches)
	}

	result := SearchResult{Documents: matches[from:end]}
	if end < len(matches) {
		result.NextCursor = matches[end-1].ArtistID
	}
	return result, nil
}

func containsFold(haystack []string, needle string) bool {
	for _, s := range haystack {
		if strings.EqualFold(s, needle) {
			return true
		}
	}
	return false
}
