// Copyright (C) 2026 Tattoo Catalog Contributors
// See LICENSE for copying information.

// Package sync2 contains small concurrency primitives used throughout the
// pipeline: periodic Cycle loops for chores and a bounded Limiter for
// capping fan-out.
package sync2

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Cycle runs a function periodically, with support for pausing and
// triggering an out-of-band run. The takedown sweep and the projector's
// per-shard poll loop are both built on this.
type Cycle struct {
	mu       sync.Mutex
	interval time.Duration
	trigger  chan chan struct{}
	pause    chan bool
	done     chan struct{}
	closed   bool
	started  bool
}

// NewCycle creates a Cycle with the given interval.
func NewCycle(interval time.Duration) *Cycle {
	cycle := &Cycle{}
	cycle.SetInterval(interval)
	return cycle
}

// SetInterval changes the cycle interval. Safe to call before Start or
// concurrently while the cycle is running; it takes effect on the next
// wait.
func (cycle *Cycle) SetInterval(interval time.Duration) {
	cycle.mu.Lock()
	defer cycle.mu.Unlock()
	cycle.interval = interval
}

func (cycle *Cycle) getInterval() time.Duration {
	cycle.mu.Lock()
	defer cycle.mu.Unlock()
	return cycle.interval
}

func (cycle *Cycle) ensureChannels() {
	cycle.mu.Lock()
	defer cycle.mu.Unlock()
	if cycle.trigger == nil {
		cycle.trigger = make(chan chan struct{})
	}
	if cycle.pause == nil {
		cycle.pause = make(chan bool)
	}
	if cycle.done == nil {
		cycle.done = make(chan struct{})
	}
	cycle.started = true
}

// Start runs fn every interval until the context is cancelled or Close is
// called, registering the loop on group so callers can wait for it.
func (cycle *Cycle) Start(ctx context.Context, group *errgroup.Group, fn func(ctx context.Context) error) {
	cycle.ensureChannels()
	if group != nil {
		group.Go(func() error { return cycle.run(ctx, fn) })
	} else {
		go func() { _ = cycle.run(ctx, fn) }()
	}
}

// Run is like Start but blocks the calling goroutine.
func (cycle *Cycle) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	cycle.ensureChannels()
	return cycle.run(ctx, fn)
}

func (cycle *Cycle) run(ctx context.Context, fn func(ctx context.Context) error) error {
	paused := false
	timer := time.NewTimer(cycle.getInterval())
	defer timer.Stop()

	runOnce := func() error {
		if paused {
			return nil
		}
		return fn(ctx)
	}

	if err := runOnce(); err != nil {
		return err
	}

	for {
		timer.Reset(cycle.getInterval())
		select {
		case <-ctx.Done():
			return nil
		case <-cycle.done:
			return nil
		case <-timer.C:
			if err := runOnce(); err != nil {
				return err
			}
		case ack := <-cycle.trigger:
			paused = false
			err := fn(ctx)
			if ack != nil {
				close(ack)
			}
			if err != nil {
				return err
			}
		case state := <-cycle.pause:
			paused = state
		}
	}
}

// Pause stops periodic execution until Resume or TriggerWait is called.
func (cycle *Cycle) Pause() {
	cycle.sendPause(true)
}

// Resume restarts periodic execution after Pause.
func (cycle *Cycle) Resume() {
	cycle.sendPause(false)
}

func (cycle *Cycle) sendPause(state bool) {
	cycle.mu.Lock()
	started, ch := cycle.started, cycle.pause
	cycle.mu.Unlock()
	if !started {
		return
	}
	select {
	case ch <- state:
	case <-time.After(time.Second):
	}
}

// Trigger requests an immediate run without waiting for it to finish.
func (cycle *Cycle) Trigger() {
	cycle.sendTrigger(nil)
}

// TriggerWait requests an immediate run and blocks until that run
// completes.
func (cycle *Cycle) TriggerWait() {
	ack := make(chan struct{})
	cycle.sendTrigger(ack)
	<-ack
}

func (cycle *Cycle) sendTrigger(ack chan struct{}) {
	cycle.mu.Lock()
	started, ch := cycle.started, cycle.trigger
	cycle.mu.Unlock()
	if !started {
		if ack != nil {
			close(ack)
		}
		return
	}
	select {
	case ch <- ack:
	case <-time.After(time.Second):
		if ack != nil {
			close(ack)
		}
	}
}

// Close stops the cycle permanently.
func (cycle *Cycle) Close() {
	cycle.mu.Lock()
	defer cycle.mu.Unlock()
	if cycle.closed {
		return
	}
	cycle.closed = true
	if cycle.done != nil {
		close(cycle.done)
	}
}

// Stop is an alias for Close kept for readability at call sites that read
// like "start the loop ... defer cycle.Stop()".
func (cycle *Cycle) Stop() {
	cycle.Close()
}
