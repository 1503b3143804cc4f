// Copyright (C) 2026 Tattoo Catalog Contributors
// See LICENSE for copying information.

package index

import (
	"context"
	"sync"
	"time"

	"github.com/tattoodirectory/catalog/catalog"
)

// DeadLetter records a change event the projector gave up retrying,
// with full context for operator inspection (catalogctl's
// `dead-letters list` reads these).
type DeadLetter struct {
	Event     catalog.ChangeEvent
	Reason    string
	Attempts  int
	FailedAt  time.Time
}

// DeadLetterStore holds events the projector could not apply after
// exhausting its retry budget, so a single poisonous event never blocks
// its shard indefinitely.
type DeadLetterStore interface {
	Put(ctx context.Context, dl DeadLetter) error
	List(ctx context.Context) ([]DeadLetter, error)
}

// MemDeadLetterStore is an in-memory DeadLetterStore for tests and
// single-process deployments.
type MemDeadLetterStore struct {
	mu    sync.Mutex
	items []DeadLetter
}

// NewMemDeadLetterStore returns an empty MemDeadLetterStore.
func NewMemDeadLetterStore() *MemDeadLetterStore {
	return &MemDeadLetterStore{}
}

// Put implements DeadLetterStore.
func (s *MemDeadLetterStore) Put(ctx context.Context, dl DeadLetter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, dl)
	return nil
}

// List implements DeadLetterStore.
func (s *MemDeadLetterStore) List(ctx context.Context) ([]DeadLetter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]DeadLetter, len(s.items))
	copy(out, s.items)
	return out, nil
}
