// Copyright (C) 2026 Tattoo Catalog Contributors
// See LICENSE for copying information.

package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tattoodirectory/catalog/internal/retry"
)

func TestDoRetriesUntilSuccess(t *testing.T) {
	policy := retry.DefaultPolicy()
	policy.InitialInterval = time.Millisecond
	policy.MaxInterval = 5 * time.Millisecond
	policy.Budget = time.Second

	attempts := 0
	err := policy.Do(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, attempts)
}

func TestDoStopsOnPermanent(t *testing.T) {
	policy := retry.DefaultPolicy()
	policy.InitialInterval = time.Millisecond
	policy.Budget = time.Second

	attempts := 0
	err := policy.Do(context.Background(), func() error {
		attempts++
		return retry.Permanent(errors.New("permanent input error"))
	})
	require.Error(t, err)
	require.Equal(t, 1, attempts)
}

func TestDoRespectsBudget(t *testing.T) {
	policy := retry.DefaultPolicy()
	policy.InitialInterval = 5 * time.Millisecond
	policy.MaxInterval = 5 * time.Millisecond
	policy.Budget = 30 * time.Millisecond

	attempts := 0
	err := policy.Do(context.Background(), func() error {
		attempts++
		return errors.New("always fails")
	})
	require.Error(t, err)
	require.Greater(t, attempts, 0)
}
