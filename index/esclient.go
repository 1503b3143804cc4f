// Copyright (C) 2026 Tattoo Catalog Contributors
// See LICENSE for copying information.

package index

import (
	"context"
	"encoding/json"

	"github.com/olivere/elastic/v7"
	"github.com/zeebo/errs"
)

// ErrPreconditionFailed is returned when a version-guarded replace loses
// a race: the stored document's seq_no/primary_term no longer match what
// the caller last observed. The projector drops the outdated update on
// this error rather than retrying.
var ErrPreconditionFailed = errs.Class("index: precondition failed")

// ErrCircuitOpen classifies an index call refused because a circuit
// breaker is open. No Indexer or Searcher in this package returns it.
var ErrCircuitOpen = errs.Class("index: circuit open")

// Cursor identifies the version a document was last observed at, used
// as the optimistic-concurrency token for the next replace.
type Cursor struct {
	SeqNo       int64
	PrimaryTerm int64
}

// Indexer is the narrow interface the projector needs against a search
// backend: version-guarded upsert and idempotent delete.
type Indexer interface {
	// Upsert replaces the document for artistID if the stored
	// seq_no/primary_term match expected (or the document doesn't exist
	// yet, when expected is the zero Cursor). It returns the new Cursor
	// on success, or ErrPreconditionFailed if the guard lost a race.
	Upsert(ctx context.Context, artistID string, doc Document, expected Cursor) (Cursor, error)

	// Delete removes the document for artistID. It is idempotent:
	// deleting an already-absent document is not an error.
	Delete(ctx context.Context, artistID string) error

	// Get returns the current document and its Cursor. found is false
	// if no document exists for artistID.
	Get(ctx context.Context, artistID string) (doc Document, cursor Cursor, found bool, err error)
}

// ElasticIndexer is an Indexer backed by Elasticsearch, using
// if_seq_no/if_primary_term as the version guard (the ES-native
// analogue of the spec's "version-guarded replace").
type ElasticIndexer struct {
	client *elastic.Client
	index  string
}

// NewElasticIndexer returns an Indexer backed by client, operating
// against index.
func NewElasticIndexer(client *elastic.Client, index string) *ElasticIndexer {
	return &ElasticIndexer{client: client, index: index}
}

// Upsert implements Indexer.
func (e *ElasticIndexer) Upsert(ctx context.Context, artistID string, doc Document, expected Cursor) (Cursor, error) {
	req := e.client.Index().
		Index(e.index).
		Id(artistID).
		BodyJson(doc)

	if expected != (Cursor{}) {
		req = req.IfSeqNo(expected.SeqNo).IfPrimaryTerm(expected.PrimaryTerm)
	} else {
		req = req.OpType("create")
	}

	resp, err := req.Do(ctx)
	if elastic.IsConflict(err) {
		return Cursor{}, ErrPreconditionFailed.New("artist %s", artistID)
	}
	if err != nil {
		return Cursor{}, errs.Wrap(err)
	}
	return Cursor{SeqNo: resp.SeqNo, PrimaryTerm: resp.PrimaryTerm}, nil
}

// Delete implements Indexer.
func (e *ElasticIndexer) Delete(ctx context.Context, artistID string) error {
	_, err := e.client.Delete().Index(e.index).Id(artistID).Do(ctx)
	if elastic.IsNotFound(err) {
		return nil
	}
	return errs.Wrap(err)
}

// Get implements Indexer.
func (e *ElasticIndexer) Get(ctx context.Context, artistID string) (Document, Cursor, bool, error) {
	resp, err := e.client.Get().Index(e.index).Id(artistID).Do(ctx)
	if elastic.IsNotFound(err) {
		return Document{}, Cursor{}, false, nil
	}
	if err != nil {
		return Document{}, Cursor{}, false, errs.Wrap(err)
	}

	var doc Document
	if resp.Source != nil {
		if err := json.Unmarshal(resp.Source, &doc); err != nil {
			return Document{}, Cursor{}, false, errs.Wrap(err)
		}
	}
	cursor := Cursor{}
	if resp.SeqNo != nil {
		cursor.SeqNo = *resp.SeqNo
	}
	if resp.PrimaryTerm != nil {
		cursor.PrimaryTerm = *resp.PrimaryTerm
	}
	return doc, cursor, true, nil
}
