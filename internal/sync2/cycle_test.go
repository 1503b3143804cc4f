// Copyright (C) 2026 Tattoo Catalog Contributors
// See LICENSE for copying information.

package sync2_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/tattoodirectory/catalog/internal/sync2"
)

func TestCycleBasic(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	var inplace sync2.Cycle
	inplace.SetInterval(10 * time.Millisecond)

	pointer := sync2.NewCycle(10 * time.Millisecond)

	for _, cycle := range []*sync2.Cycle{pointer, &inplace} {
		cycle := cycle
		t.Run("", func(t *testing.T) {
			t.Parallel()

			var count int64
			var group errgroup.Group

			cycle.Start(ctx, &group, func(ctx context.Context) error {
				atomic.AddInt64(&count, 1)
				return nil
			})

			time.Sleep(120 * time.Millisecond)
			cycle.Close()
			require.NoError(t, group.Wait())

			require.Greater(t, atomic.LoadInt64(&count), int64(0))
		})
	}
}

func TestCyclePauseAndTriggerWait(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cycle := sync2.NewCycle(time.Hour)

	var count int64
	var group errgroup.Group
	cycle.Start(ctx, &group, func(ctx context.Context) error {
		atomic.AddInt64(&count, 1)
		return nil
	})
	defer cycle.Close()

	require.Eventually(t, func() bool { return atomic.LoadInt64(&count) >= 1 }, time.Second, time.Millisecond)

	cycle.Pause()
	before := atomic.LoadInt64(&count)

	cycle.TriggerWait()
	require.Equal(t, before+1, atomic.LoadInt64(&count))
}
