// Copyright (C) 2026 Tattoo Catalog Contributors
// See LICENSE for copying information.

// Package redisqueue is the production queue.Queue implementation: a
// Redis sorted set scores pending messages by their next-visible-at
// timestamp, with a companion hash holding each message's payload and
// attempt count. Grounded on the teacher's own satellite/eventing
// package, which wraps github.com/go-redis/redis against a
// github.com/alicebob/miniredis/v2 server in tests (see
// satellite/eventing/config_cache_test.go); the sorted-set-plus-hash
// visibility-timeout pattern itself is not in the retrieval pack and
// follows the standard Redis delayed-queue idiom (see DESIGN.md).
package redisqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	uuid "github.com/satori/go.uuid"

	"github.com/tattoodirectory/catalog/catalog"
	"github.com/tattoodirectory/catalog/queue"
)

const (
	pendingKey    = "scrapequeue:pending"
	messagesKey   = "scrapequeue:messages"
	deadLetterKey = "scrapequeue:deadletter"
)

type envelope struct {
	Job     catalog.ScrapeJob `json:"job"`
	Attempt int               `json:"attempt"`
}

// Queue is a queue.Queue backed by Redis.
type Queue struct {
	client         *redis.Client
	maxAttempts    int
	pendingKey     string
	messagesKey    string
	deadLetterKey  string
	deadLetters    queue.DeadLetterRecorder
}

// New returns a Queue backed by client. maxAttempts bounds how many
// times a message may be redelivered before it is moved to the
// dead-letter hash instead of back onto the pending set.
func New(client *redis.Client, maxAttempts int, deadLetters queue.DeadLetterRecorder) *Queue {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &Queue{
		client:        client,
		maxAttempts:   maxAttempts,
		pendingKey:    pendingKey,
		messagesKey:   messagesKey,
		deadLetterKey: deadLetterKey,
		deadLetters:   deadLetters,
	}
}

// EnqueueBatch implements queue.Queue.
func (q *Queue) EnqueueBatch(ctx context.Context, jobs []catalog.ScrapeJob) ([]queue.EnqueueResult, error) {
	results := make([]queue.EnqueueResult, 0, len(jobs))

	for start := 0; start < len(jobs); start += queue.MaxBatchSize {
		end := start + queue.MaxBatchSize
		if end > len(jobs) {
			end = len(jobs)
		}
		batch := jobs[start:end]

		pipe := q.client.TxPipeline()
		batchResults := make([]queue.EnqueueResult, len(batch))
		for i, job := range batch {
			batchResults[i] = queue.EnqueueResult{ScrapeRunID: job.ScrapeRunID, ArtistID: job.ArtistID}
			id := uuid.NewV4().String()
			payload, err := json.Marshal(envelope{Job: job})
			if err != nil {
				batchResults[i].Err = queue.Error.Wrap(err)
				continue
			}
			pipe.HSet(ctx, q.messagesKey, id, payload)
			pipe.ZAdd(ctx, q.pendingKey, &redis.Z{Score: float64(time.Now().UnixNano()), Member: id})
		}
		if _, err := pipe.Exec(ctx); err != nil {
			for i := range batchResults {
				if batchResults[i].Err == nil {
					batchResults[i].Err = queue.Error.Wrap(err)
				}
			}
		}
		results = append(results, batchResults...)
	}
	return results, nil
}

// Receive implements queue.Queue.
func (q *Queue) Receive(ctx context.Context, maxMessages int, visibilityTimeout time.Duration) ([]queue.Message, error) {
	now := time.Now()
	ids, err := q.client.ZRangeByScore(ctx, q.pendingKey, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   fmt.Sprintf("%d", now.UnixNano()),
		Count: int64(maxMessages),
	}).Result()
	if err != nil {
		return nil, queue.Error.Wrap(err)
	}

	var messages []queue.Message
	for _, id := range ids {
		raw, err := q.client.HGet(ctx, q.messagesKey, id).Result()
		if err == redis.Nil {
			q.client.ZRem(ctx, q.pendingKey, id)
			continue
		}
		if err != nil {
			return messages, queue.Error.Wrap(err)
		}

		var env envelope
		if err := json.Unmarshal([]byte(raw), &env); err != nil {
			return messages, queue.Error.Wrap(err)
		}
		env.Attempt++

		if env.Attempt > q.maxAttempts {
			if err := q.deadLetter(ctx, id, env); err != nil {
				return messages, err
			}
			continue
		}

		updated, err := json.Marshal(env)
		if err != nil {
			return messages, queue.Error.Wrap(err)
		}

		pipe := q.client.TxPipeline()
		pipe.HSet(ctx, q.messagesKey, id, updated)
		pipe.ZAdd(ctx, q.pendingKey, &redis.Z{
			Score:  float64(now.Add(visibilityTimeout).UnixNano()),
			Member: id,
		})
		if _, err := pipe.Exec(ctx); err != nil {
			return messages, queue.Error.Wrap(err)
		}

		messages = append(messages, queue.Message{Job: env.Job, ReceiptHandle: id})
	}
	return messages, nil
}

// Acknowledge implements queue.Queue.
func (q *Queue) Acknowledge(ctx context.Context, receiptHandle string) error {
	pipe := q.client.TxPipeline()
	pipe.ZRem(ctx, q.pendingKey, receiptHandle)
	pipe.HDel(ctx, q.messagesKey, receiptHandle)
	_, err := pipe.Exec(ctx)
	return queue.Error.Wrap(err)
}

// Extend implements queue.Queue.
func (q *Queue) Extend(ctx context.Context, receiptHandle string, extension time.Duration) error {
	newScore := float64(time.Now().Add(extension).UnixNano())
	err := q.client.ZAdd(ctx, q.pendingKey, &redis.Z{Score: newScore, Member: receiptHandle}).Err()
	return queue.Error.Wrap(err)
}

// Depth implements orchestrator.DepthReporter: the number of messages
// still pending (visible or not yet visible), used by the Draining
// stage to poll toward zero.
func (q *Queue) Depth() int {
	n, err := q.client.ZCard(context.Background(), q.pendingKey).Result()
	if err != nil {
		return 0
	}
	return int(n)
}

func (q *Queue) deadLetter(ctx context.Context, id string, env envelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return queue.Error.Wrap(err)
	}

	pipe := q.client.TxPipeline()
	pipe.ZRem(ctx, q.pendingKey, id)
	pipe.HDel(ctx, q.messagesKey, id)
	pipe.HSet(ctx, q.deadLetterKey, id, payload)
	if _, err := pipe.Exec(ctx); err != nil {
		return queue.Error.Wrap(err)
	}

	if q.deadLetters != nil {
		q.deadLetters.RecordDeadLetter(ctx, env.Job, env.Attempt)
	}
	return nil
}
