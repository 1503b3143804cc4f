// Copyright (C) 2026 Tattoo Catalog Contributors
// See LICENSE for copying information.

// Package queue is the at-least-once job queue between the orchestrator
// and the scrape workers: per-message visibility timeout, batched
// enqueue, and dead-letter after a configurable attempt cap.
package queue

import (
	"context"
	"time"

	"github.com/zeebo/errs"

	"github.com/tattoodirectory/catalog/catalog"
)

// Error is the base class for every error this package returns.
var Error = errs.Class("queue")

// MaxBatchSize is the maximum number of jobs EnqueueBatch groups per
// underlying batch call.
const MaxBatchSize = 10

// Message wraps a ScrapeJob with the receipt handle needed to
// acknowledge or extend it.
type Message struct {
	Job           catalog.ScrapeJob
	ReceiptHandle string
}

// EnqueueResult reports the per-job outcome of a batched enqueue, so
// callers can retry only the jobs that failed.
type EnqueueResult struct {
	ScrapeRunID string
	ArtistID    string
	Err         error
}

// Queue is the job queue contract. Implementations must be
// at-least-once: a message may be redelivered if not acknowledged before
// its visibility timeout elapses.
type Queue interface {
	// EnqueueBatch groups jobs into batches of up to MaxBatchSize,
	// returning one EnqueueResult per job in the same order.
	EnqueueBatch(ctx context.Context, jobs []catalog.ScrapeJob) ([]EnqueueResult, error)

	// Receive returns up to maxMessages currently visible messages, each
	// then invisible to other receivers for visibilityTimeout. It does not
	// long-poll: when nothing is visible, both implementations in this
	// module return at once with no messages.
	Receive(ctx context.Context, maxMessages int, visibilityTimeout time.Duration) ([]Message, error)

	// Acknowledge deletes a message, so it is never redelivered.
	Acknowledge(ctx context.Context, receiptHandle string) error

	// Extend pushes back a message's visibility deadline by the given
	// duration, for work that is still in progress.
	Extend(ctx context.Context, receiptHandle string, extension time.Duration) error
}

// DeadLetterRecorder observes jobs a Queue implementation moved to its
// dead-letter sink after exhausting the attempt cap, for metrics/alerting.
type DeadLetterRecorder interface {
	RecordDeadLetter(ctx context.Context, job catalog.ScrapeJob, attempts int)
}
