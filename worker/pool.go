// Copyright (C) 2026 Tattoo Catalog Contributors
// See LICENSE for copying information.

package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/tattoodirectory/catalog/internal/sync2"
	"github.com/tattoodirectory/catalog/queue"
)

// PoolConfig bounds a Pool's concurrency and polling behavior.
type PoolConfig struct {
	Concurrency       int
	VisibilityTimeout time.Duration
	ReceiveBatchSize  int
	PollInterval      time.Duration
}

// DefaultPoolConfig is a conservative single-process default.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		Concurrency:       8,
		VisibilityTimeout: 30 * time.Second,
		ReceiveBatchSize:  10,
		PollInterval:      time.Second,
	}
}

// Pool runs up to Concurrency cooperative tasks polling and processing
// queue messages. Shutdown stops admitting new receives and waits for
// in-flight tasks to finish.
type Pool struct {
	cfg     PoolConfig
	queue   queue.Queue
	newTask func() *Task
	log     *zap.Logger

	limiter *sync2.Limiter
	work    sync2.WorkGroup
}

// NewPool returns a Pool. newTask is called once per dispatched message
// to build the Task that processes it (so Task's dependencies, e.g. its
// Fetcher, may hold per-task state).
func NewPool(cfg PoolConfig, q queue.Queue, newTask func() *Task, log *zap.Logger) *Pool {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	return &Pool{
		cfg:     cfg,
		queue:   q,
		newTask: newTask,
		log:     log,
		limiter: sync2.NewLimiter(cfg.Concurrency),
	}
}

// Run polls and dispatches messages until ctx is cancelled, then waits
// for in-flight tasks to finish before returning.
func (p *Pool) Run(ctx context.Context) error {
	defer p.work.Close()
	defer p.limiter.Wait()
	defer p.work.Wait()

	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			p.pollOnce(ctx)
		}
	}
}

func (p *Pool) pollOnce(ctx context.Context) {
	messages, err := p.queue.Receive(ctx, p.cfg.ReceiveBatchSize, p.cfg.VisibilityTimeout)
	if err != nil {
		p.logger().Warn("receive failed", zap.Error(err))
		return
	}

	for _, msg := range messages {
		msg := msg
		if !p.work.Start() {
			return
		}
		started := p.limiter.Go(ctx, func() {
			defer p.work.Done()
			task := p.newTask()
			task.VisibilityTimeout = p.cfg.VisibilityTimeout
			outcome := task.Run(ctx, msg)
			p.logger().Debug("task finished", zap.String("artist_id", msg.Job.ArtistID), zap.String("outcome", string(outcome)))
		})
		if !started {
			p.work.Done()
		}
	}
}

func (p *Pool) logger() *zap.Logger {
	if p.log != nil {
		return p.log
	}
	return zap.NewNop()
}
