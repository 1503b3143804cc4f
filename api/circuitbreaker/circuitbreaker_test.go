// Copyright (C) 2026 Tattoo Catalog Contributors
// See LICENSE for copying information.

package circuitbreaker_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tattoodirectory/catalog/api/circuitbreaker"
)

func TestBreakerTripsAfterThreshold(t *testing.T) {
	b := circuitbreaker.New(circuitbreaker.Config{FailureThreshold: 3, ResetTimeout: time.Hour})

	for i := 0; i < 2; i++ {
		require.True(t, b.Allow())
		b.Report(false)
	}
	require.Equal(t, circuitbreaker.Closed, b.State())

	require.True(t, b.Allow())
	b.Report(false)
	require.Equal(t, circuitbreaker.Open, b.State())
	require.False(t, b.Allow())
}

func TestBreakerHalfOpenAdmitsSingleProbe(t *testing.T) {
	b := circuitbreaker.New(circuitbreaker.Config{FailureThreshold: 1, ResetTimeout: time.Millisecond})
	require.True(t, b.Allow())
	b.Report(false)
	require.Equal(t, circuitbreaker.Open, b.State())

	time.Sleep(5 * time.Millisecond)
	require.True(t, b.Allow())
	require.False(t, b.Allow())
}

func TestBreakerProbeSuccessClosesBreaker(t *testing.T) {
	b := circuitbreaker.New(circuitbreaker.Config{FailureThreshold: 1, ResetTimeout: time.Millisecond})
	require.True(t, b.Allow())
	b.Report(false)
	time.Sleep(5 * time.Millisecond)

	require.True(t, b.Allow())
	b.Report(true)
	require.Equal(t, circuitbreaker.Closed, b.State())
	require.True(t, b.Allow())
}

func TestBreakerProbeFailureReopens(t *testing.T) {
	b := circuitbreaker.New(circuitbreaker.Config{FailureThreshold: 1, ResetTimeout: time.Millisecond})
	require.True(t, b.Allow())
	b.Report(false)
	time.Sleep(5 * time.Millisecond)

	require.True(t, b.Allow())
	b.Report(false)
	require.Equal(t, circuitbreaker.Open, b.State())
}
