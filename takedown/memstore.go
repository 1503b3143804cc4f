// Copyright (C) 2026 Tattoo Catalog Contributors
// See LICENSE for copying information.

package takedown

import (
	"context"
	"sync"
	"time"

	uuid "github.com/satori/go.uuid"

	"github.com/tattoodirectory/catalog/catalog"
)

// MemStore is an in-memory Store for unit tests and local runs.
type MemStore struct {
	mu       sync.Mutex
	requests map[string]catalog.TakedownRequest
}

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{requests: make(map[string]catalog.TakedownRequest)}
}

// Create implements Store.
func (m *MemStore) Create(ctx context.Context, req catalog.TakedownRequest) (catalog.TakedownRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if req.ID == "" {
		req.ID = uuid.NewV4().String()
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now()
	}
	req.Status = catalog.TakedownPending
	m.requests[req.ID] = req
	return req, nil
}

// ListPending implements Store.
func (m *MemStore) ListPending(ctx context.Context) ([]catalog.TakedownRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var pending []catalog.TakedownRequest
	for _, req := range m.requests {
		if req.Status == catalog.TakedownPending {
			pending = append(pending, req)
		}
	}
	return pending, nil
}

// MarkApplied implements Store.
func (m *MemStore) MarkApplied(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	req, ok := m.requests[id]
	if !ok {
		return Error.New("takedown request %s not found", id)
	}
	req.Status = catalog.TakedownApplied
	m.requests[id] = req
	return nil
}

// MarkRejected implements Store.
func (m *MemStore) MarkRejected(ctx context.Context, id, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	req, ok := m.requests[id]
	if !ok {
		return Error.New("takedown request %s not found", id)
	}
	req.Status = catalog.TakedownRejected
	req.Reason = reason
	m.requests[id] = req
	return nil
}

// Get returns a request by id, for tests asserting final status.
func (m *MemStore) Get(id string) (catalog.TakedownRequest, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[id]
	return req, ok
}
