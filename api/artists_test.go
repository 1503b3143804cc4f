// Copyright (C) 2026 Tattoo Catalog Contributors
// See LICENSE for copying information.

package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"github.com/tattoodirectory/catalog/api"
	"github.com/tattoodirectory/catalog/api/circuitbreaker"
	"github.com/tattoodirectory/catalog/catalog"
	"github.com/tattoodirectory/catalog/catalog/memstore"
	"github.com/tattoodirectory/catalog/index"
)

func alwaysOpenBreaker(t *testing.T) *circuitbreaker.Breaker {
	t.Helper()
	b := circuitbreaker.New(circuitbreaker.Config{FailureThreshold: 1, ResetTimeout: time.Hour})
	b.Report(false)
	return b
}

func TestArtistsSearchReturnsMatches(t *testing.T) {
	searcher := &index.FakeSearcher{Documents: []index.Document{
		{ArtistID: "a1", Name: "Ada", Styles: []string{"blackwork"}, Geohash: "gbsuv"},
		{ArtistID: "a2", Name: "Bea", Styles: []string{"color"}, Geohash: "gbsuw"},
	}}
	h := &api.ArtistsHandler{Catalog: memstore.New(nil), Searcher: searcher, DefaultLimit: 20}

	req := httptest.NewRequest(http.MethodGet, "/v1/artists?style=blackwork", nil)
	rec := httptest.NewRecorder()
	h.Search(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Items []struct {
			ID string `json:"id"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Items, 2)
}

func TestArtistsSearchAppliesCityGeocoding(t *testing.T) {
	searcher := &index.FakeSearcher{Documents: []index.Document{
		{ArtistID: "a1", Name: "Ada", Styles: []string{"blackwork"}, Geohash: "gcpvx"},
	}}
	h := &api.ArtistsHandler{Catalog: memstore.New(nil), Searcher: searcher, Geocoder: api.NewStaticGeocoder(), DefaultLimit: 20}

	req := httptest.NewRequest(http.MethodGet, "/v1/artists?city=London", nil)
	rec := httptest.NewRecorder()
	h.Search(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "gcpv", searcher.LastGeohashPrefix)
}

func TestArtistsSearchRejectsMalformedStyle(t *testing.T) {
	h := &api.ArtistsHandler{Catalog: memstore.New(nil), Searcher: &index.FakeSearcher{}}

	req := httptest.NewRequest(http.MethodGet, "/v1/artists?style=Old-School!", nil)
	rec := httptest.NewRecorder()
	h.Search(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestArtistsSearchRejectsNegativeMinRating(t *testing.T) {
	h := &api.ArtistsHandler{Catalog: memstore.New(nil), Searcher: &index.FakeSearcher{}}

	req := httptest.NewRequest(http.MethodGet, "/v1/artists?minRating=-1", nil)
	rec := httptest.NewRecorder()
	h.Search(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestArtistsSearchRejectsCityWithoutGeocoder(t *testing.T) {
	h := &api.ArtistsHandler{Catalog: memstore.New(nil), Searcher: &index.FakeSearcher{}}

	req := httptest.NewRequest(http.MethodGet, "/v1/artists?city=London", nil)
	rec := httptest.NewRecorder()
	h.Search(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestArtistsSearchRejectsInvalidLimit(t *testing.T) {
	h := &api.ArtistsHandler{Catalog: memstore.New(nil), Searcher: &index.FakeSearcher{}}

	req := httptest.NewRequest(http.MethodGet, "/v1/artists?limit=notanumber", nil)
	rec := httptest.NewRecorder()
	h.Search(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestArtistsSearchOpenBreakerReturns503(t *testing.T) {
	h := &api.ArtistsHandler{Catalog: memstore.New(nil), Searcher: &index.FakeSearcher{}, Breaker: alwaysOpenBreaker(t)}

	req := httptest.NewRequest(http.MethodGet, "/v1/artists", nil)
	rec := httptest.NewRecorder()
	h.Search(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestArtistsGetReturnsArtist(t *testing.T) {
	store := memstore.New(nil)
	require.NoError(t, store.PutArtist(context.Background(), catalog.Artist{ID: "a1", Name: "Ada"}, nil, "run-1"))
	h := &api.ArtistsHandler{Catalog: store, Searcher: &index.FakeSearcher{}}

	req := httptest.NewRequest(http.MethodGet, "/v1/artists/a1", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "a1"})
	rec := httptest.NewRecorder()
	h.Get(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestArtistsGetMissingReturns404(t *testing.T) {
	h := &api.ArtistsHandler{Catalog: memstore.New(nil), Searcher: &index.FakeSearcher{}}

	req := httptest.NewRequest(http.MethodGet, "/v1/artists/missing", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "missing"})
	rec := httptest.NewRecorder()
	h.Get(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestArtistsGetOptedOutReturns404(t *testing.T) {
	store := memstore.New(nil)
	require.NoError(t, store.PutArtist(context.Background(), catalog.Artist{ID: "a1", Name: "Ada"}, nil, "run-1"))
	require.NoError(t, store.MarkOptedOut(context.Background(), "a1", "requested"))
	h := &api.ArtistsHandler{Catalog: store, Searcher: &index.FakeSearcher{}}

	req := httptest.NewRequest(http.MethodGet, "/v1/artists/a1", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "a1"})
	rec := httptest.NewRecorder()
	h.Get(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}
