// Copyright (C) 2026 Tattoo Catalog Contributors
// See LICENSE for copying information.

package api

import (
	"crypto/subtle"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/tattoodirectory/catalog/api/problem"
	"github.com/tattoodirectory/catalog/index"
	"github.com/tattoodirectory/catalog/orchestrator"
)

// RequireAPIKey wraps an operator-only handler, rejecting requests whose
// X-Api-Key header does not match key (spec §6: "operator-only,
// API-key gated"). Comparison is constant-time so response latency
// cannot be used to guess the key.
func RequireAPIKey(key string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		got := r.Header.Get("X-Api-Key")
		if len(got) != len(key) || subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
			problem.Write(w, problem.Document{
				Type:   "about:blank",
				Status: http.StatusUnauthorized,
				Title:  "Unauthorized",
				Detail: "a valid X-Api-Key header is required",
			})
			return
		}
		next(w, r)
	}
}

// DeadLettersHandler serves GET /v1/dead-letters.
type DeadLettersHandler struct {
	Store index.DeadLetterStore
	Log   *zap.Logger
}

type deadLetterBody struct {
	ArtistID string `json:"artistId,omitempty"`
	Reason   string `json:"reason"`
	Attempts int    `json:"attempts"`
	FailedAt string `json:"failedAt"`
}

// List returns every dead-lettered projector change event still held by
// the store, for operator inspection (spec §6). Scrape jobs that the job
// queue dead-letters are not in this store and are not listed.
func (h *DeadLettersHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.Store.List(r.Context())
	if err != nil {
		if h.Log != nil {
			h.Log.Warn("dead-letter list failed", zap.Error(err))
		}
		problem.Internal(w, "could not list dead letters")
		return
	}

	out := make([]deadLetterBody, 0, len(items))
	for _, dl := range items {
		out = append(out, deadLetterBody{
			ArtistID: dl.Event.ArtistID,
			Reason:   dl.Reason,
			Attempts: dl.Attempts,
			FailedAt: dl.FailedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// RunsHandler serves GET /v1/runs/{scrapeRunId}.
type RunsHandler struct {
	Store orchestrator.RunStore
	Log   *zap.Logger
}

// Get returns the orchestrator run summary for a past scrape run
// (spec §6; spec §4.5 Reporting), read from the run-report record
// written when the run ended, in Reporting or Failed.
func (h *RunsHandler) Get(w http.ResponseWriter, r *http.Request) {
	scrapeRunID := mux.Vars(r)["scrapeRunId"]

	summary, ok, err := h.Store.Get(r.Context(), scrapeRunID)
	if err != nil {
		if h.Log != nil {
			h.Log.Warn("run lookup failed", zap.Error(err))
		}
		problem.Internal(w, "could not look up run")
		return
	}
	if !ok {
		problem.NotFound(w, "no such scrape run")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
