// Copyright (C) 2026 Tattoo Catalog Contributors
// See LICENSE for copying information.

// Package memqueue is an in-memory queue.Queue used by unit tests for
// the orchestrator and worker, avoiding a real Redis dependency in
// package-local tests.
package memqueue

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/tattoodirectory/catalog/catalog"
	"github.com/tattoodirectory/catalog/queue"
)

type entry struct {
	job       catalog.ScrapeJob
	visibleAt time.Time
	attempt   int
}

// Queue is an in-memory, single-process implementation of queue.Queue.
type Queue struct {
	mu          sync.Mutex
	entries     map[string]*entry
	nextID      int
	maxAttempts int
}

// New returns an empty Queue. maxAttempts bounds redelivery before a
// message is dropped (in production, dead-lettered).
func New(maxAttempts int) *Queue {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &Queue{entries: make(map[string]*entry), maxAttempts: maxAttempts}
}

// EnqueueBatch implements queue.Queue.
func (q *Queue) EnqueueBatch(ctx context.Context, jobs []catalog.ScrapeJob) ([]queue.EnqueueResult, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	results := make([]queue.EnqueueResult, 0, len(jobs))
	for _, job := range jobs {
		q.nextID++
		id := strconv.Itoa(q.nextID)
		q.entries[id] = &entry{job: job, visibleAt: time.Now()}
		results = append(results, queue.EnqueueResult{ScrapeRunID: job.ScrapeRunID, ArtistID: job.ArtistID})
	}
	return results, nil
}

// Receive implements queue.Queue.
func (q *Queue) Receive(ctx context.Context, maxMessages int, visibilityTimeout time.Duration) ([]queue.Message, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := time.Now()
	var messages []queue.Message
	for id, e := range q.entries {
		if len(messages) >= maxMessages {
			break
		}
		if e.visibleAt.After(now) {
			continue
		}
		e.attempt++
		if e.attempt > q.maxAttempts {
			delete(q.entries, id)
			continue
		}
		e.visibleAt = now.Add(visibilityTimeout)
		messages = append(messages, queue.Message{Job: e.job, ReceiptHandle: id})
	}
	return messages, nil
}

// Acknowledge implements queue.Queue.
func (q *Queue) Acknowledge(ctx context.Context, receiptHandle string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.entries, receiptHandle)
	return nil
}

// Extend implements queue.Queue.
func (q *Queue) Extend(ctx context.Context, receiptHandle string, extension time.Duration) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if e, ok := q.entries[receiptHandle]; ok {
		e.visibleAt = time.Now().Add(extension)
	}
	return nil
}

// Depth returns the number of messages currently tracked (visible or
// not), for the orchestrator's Draining-state poll.
func (q *Queue) Depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}
