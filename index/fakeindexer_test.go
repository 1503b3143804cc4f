// Copyright (C) 2026 Tattoo Catalog Contributors
// See LICENSE for copying information.

package index_test

import (
	"context"
	"sync"

	"github.com/tattoodirectory/catalog/catalog"
	"github.com/tattoodirectory/catalog/index"
)

type fakeDoc struct {
	doc    index.Document
	cursor index.Cursor
}

type fakeIndexer struct {
	mu   sync.Mutex
	docs map[string]fakeDoc
	seq  int64
}

func newFakeIndexer() *fakeIndexer {
	return &fakeIndexer{docs: make(map[string]fakeDoc)}
}

func (f *fakeIndexer) Upsert(ctx context.Context, artistID string, doc index.Document, expected index.Cursor) (index.Cursor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	existing, found := f.docs[artistID]
	if found && existing.cursor != expected {
		return index.Cursor{}, index.ErrPreconditionFailed.New("conflict")
	}
	if !found && expected != (index.Cursor{}) {
		return index.Cursor{}, index.ErrPreconditionFailed.New("conflict")
	}

	f.seq++
	cursor := index.Cursor{SeqNo: f.seq, PrimaryTerm: 1}
	f.docs[artistID] = fakeDoc{doc: doc, cursor: cursor}
	return cursor, nil
}

func (f *fakeIndexer) Delete(ctx context.Context, artistID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.docs, artistID)
	return nil
}

func (f *fakeIndexer) Get(ctx context.Context, artistID string) (index.Document, index.Cursor, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.docs[artistID]
	return d.doc, d.cursor, ok, nil
}

// fakeSource hands out each shard's queued events exactly once, so tests
// can assert the projector drains a fixed batch rather than poll
// forever.
type fakeSource struct {
	mu     sync.Mutex
	events map[int][]catalog.ChangeEvent
}

func newFakeSource() *fakeSource {
	return &fakeSource{events: make(map[int][]catalog.ChangeEvent)}
}

func (f *fakeSource) push(shard int, event catalog.ChangeEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events[shard] = append(f.events[shard], event)
}

func (f *fakeSource) Poll(ctx context.Context, shard int, max int) ([]catalog.ChangeEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	events := f.events[shard]
	if len(events) > max {
		events = events[:max]
	}
	f.events[shard] = f.events[shard][len(events):]
	return events, nil
}
