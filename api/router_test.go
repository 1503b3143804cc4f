// Copyright (C) 2026 Tattoo Catalog Contributors
// See LICENSE for copying information.

package api_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tattoodirectory/catalog/api"
	"github.com/tattoodirectory/catalog/catalog/memstore"
	"github.com/tattoodirectory/catalog/index"
	"github.com/tattoodirectory/catalog/orchestrator"
)

func TestRouterOmitsOperatorRoutesWhenUnwired(t *testing.T) {
	router := api.NewRouter(api.Handlers{
		Artists:   &api.ArtistsHandler{Catalog: memstore.New(nil), Searcher: &index.FakeSearcher{}},
		Takedowns: &api.TakedownsHandler{},
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/dead-letters", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouterGatesRunsRouteByAPIKey(t *testing.T) {
	router := api.NewRouter(api.Handlers{
		Artists:        &api.ArtistsHandler{Catalog: memstore.New(nil), Searcher: &index.FakeSearcher{}},
		Takedowns:      &api.TakedownsHandler{},
		Runs:           &api.RunsHandler{Store: orchestrator.NewMemRunStore()},
		OperatorAPIKey: "secret",
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/runs/run-1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req.Header.Set("X-Api-Key", "secret")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code) // no such run, but past the gate
}
