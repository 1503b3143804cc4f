// Copyright (C) 2026 Tattoo Catalog Contributors
// See LICENSE for copying information.

package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// Handlers bundles the dependencies NewRouter wires to routes.
type Handlers struct {
	Artists     *ArtistsHandler
	Takedowns   *TakedownsHandler
	DeadLetters *DeadLettersHandler
	Runs        *RunsHandler

	// OperatorAPIKey gates DeadLetters/Runs routes (spec §6:
	// "operator-only, API-key gated"). When it is empty, NewRouter
	// wires neither operator route.
	OperatorAPIKey string
}

// NewRouter builds the v1 API route table.
func NewRouter(h Handlers) *mux.Router {
	r := mux.NewRouter()
	v1 := r.PathPrefix("/v1").Subrouter()

	v1.HandleFunc("/artists", h.Artists.Search).Methods(http.MethodGet)
	v1.HandleFunc("/artists/{id}", h.Artists.Get).Methods(http.MethodGet)
	v1.HandleFunc("/takedowns", h.Takedowns.Create).Methods(http.MethodPost)

	if h.DeadLetters != nil && h.OperatorAPIKey != "" {
		v1.HandleFunc("/dead-letters", RequireAPIKey(h.OperatorAPIKey, h.DeadLetters.List)).Methods(http.MethodGet)
	}
	if h.Runs != nil && h.OperatorAPIKey != "" {
		v1.HandleFunc("/runs/{scrapeRunId}", RequireAPIKey(h.OperatorAPIKey, h.Runs.Get)).Methods(http.MethodGet)
	}

	return r
}
