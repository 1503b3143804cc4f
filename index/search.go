// Copyright (C) 2026 Tattoo Catalog Contributors
// See LICENSE for copying information.

package index

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/olivere/elastic/v7"
	"github.com/zeebo/errs"
)

// SearchResult is one page of a style/location search.
type SearchResult struct {
	Documents  []Document
	NextCursor string
}

// Searcher is the read side the query API needs against the search
// backend: field-weighted relevance plus an optional geospatial
// filter, translated from spec §4.6's `GET /artists` contract.
type Searcher interface {
	Search(ctx context.Context, style, geohashPrefix, cursor string, limit int) (SearchResult, error)
}

// ElasticSearcher is a Searcher backed by Elasticsearch.
type ElasticSearcher struct {
	client *elastic.Client
	index  string
}

// NewElasticSearcher returns a Searcher backed by client.
func NewElasticSearcher(client *elastic.Client, index string) *ElasticSearcher {
	return &ElasticSearcher{client: client, index: index}
}

// Search implements Searcher. Style matches are weighted above a bare
// name/search-term match; geohashPrefix, when present, is a prefix
// filter on the document's precomputed geohash field.
func (e *ElasticSearcher) Search(ctx context.Context, style, geohashPrefix, cursor string, limit int) (SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}

	query := elastic.NewBoolQuery()
	if style != "" {
		query = query.Should(
			elastic.NewTermQuery("styles", style).Boost(3),
			elastic.NewMatchQuery("search_terms", style),
		).MinimumShouldMatch("1")
	}
	if geohashPrefix != "" {
		query = query.Filter(elastic.NewPrefixQuery("geohash", geohashPrefix))
	}

	from := 0
	if cursor != "" {
		parsed, err := strconv.Atoi(cursor)
		if err != nil {
			return SearchResult{}, errs.New("invalid cursor %q", cursor)
		}
		from = parsed
	}

	resp, err := e.client.Search().
		Index(e.index).
		Query(query).
		From(from).
		Size(limit).
		Do(ctx)
	if err != nil {
		return SearchResult{}, errs.Wrap(err)
	}

	docs := make([]Document, 0, len(resp.Hits.Hits))
	for _, hit := range resp.Hits.Hits {
		var doc Document
		if hit.Source != nil {
			if err := json.Unmarshal(hit.Source, &doc); err != nil {
				return SearchResult{}, errs.Wrap(err)
			}
		}
		docs = append(docs, doc)
	}

	result := SearchResult{Documents: docs}
	if next := from + len(docs); int64(next) < resp.Hits.TotalHits.Value {
		result.NextCursor = strconv.Itoa(next)
	}
	return result, nil
}
