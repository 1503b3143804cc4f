// Copyright (C) 2026 Tattoo Catalog Contributors
// See LICENSE for copying information.

package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"github.com/tattoodirectory/catalog/api"
	"github.com/tattoodirectory/catalog/index"
	"github.com/tattoodirectory/catalog/orchestrator"
)

func TestDeadLettersListReturnsEntries(t *testing.T) {
	store := index.NewMemDeadLetterStore()
	require.NoError(t, store.Put(context.Background(), index.DeadLetter{
		Reason: "index unreachable", Attempts: 3, FailedAt: time.Now(),
	}))
	h := &api.DeadLettersHandler{Store: store}

	req := httptest.NewRequest(http.MethodGet, "/v1/dead-letters", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRunsGetReturnsSummary(t *testing.T) {
	store := orchestrator.NewMemRunStore()
	require.NoError(t, store.Save(context.Background(), orchestrator.RunSummary{ScrapeRunID: "run-1", FinalState: orchestrator.StateReporting}))
	h := &api.RunsHandler{Store: store}

	req := httptest.NewRequest(http.MethodGet, "/v1/runs/run-1", nil)
	req = mux.SetURLVars(req, map[string]string{"scrapeRunId": "run-1"})
	rec := httptest.NewRecorder()
	h.Get(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRunsGetMissingReturns404(t *testing.T) {
	h := &api.RunsHandler{Store: orchestrator.NewMemRunStore()}

	req := httptest.NewRequest(http.MethodGet, "/v1/runs/missing", nil)
	req = mux.SetURLVars(req, map[string]string{"scrapeRunId": "missing"})
	rec := httptest.NewRecorder()
	h.Get(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequireAPIKeyRejectsMissingOrWrongKey(t *testing.T) {
	called := false
	wrapped := api.RequireAPIKey("secret", func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/dead-letters", nil)
	rec := httptest.NewRecorder()
	wrapped(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.False(t, called)
}

func TestRequireAPIKeyAdmitsCorrectKey(t *testing.T) {
	wrapped := api.RequireAPIKey("secret", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/dead-letters", nil)
	req.Header.Set("X-Api-Key", "secret")
	rec := httptest.NewRecorder()
	wrapped(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}
