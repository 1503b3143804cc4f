// Copyright (C) 2026 Tattoo Catalog Contributors
// See LICENSE for copying information.

package api

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/tattoodirectory/catalog/api/circuitbreaker"
	"github.com/tattoodirectory/catalog/api/problem"
	"github.com/tattoodirectory/catalog/catalog"
	"github.com/tattoodirectory/catalog/index"
)

// ArtistsHandler serves GET /v1/artists and GET /v1/artists/{id}.
type ArtistsHandler struct {
	Catalog  catalog.Store
	Searcher index.Searcher
	Geocoder Geocoder
	Breaker  *circuitbreaker.Breaker
	Log      *zap.Logger

	// DefaultLimit bounds page size when the caller omits ?limit.
	DefaultLimit int
}

// styleTokenPattern accepts the lowercase, underscore-separated style
// vocabulary used throughout the catalog (e.g. "old_school"); anything
// else is rejected rather than passed through to the search backend.
var styleTokenPattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,39}$`)

// geohashAlphabet mirrors the base32 alphabet internal/geohash encodes
// with, so a caller-supplied geohash prefix can be validated without
// importing the encoder itself.
const geohashAlphabet = "0123456789bcdefghjkmnpqrstuvwxyz"

func validStyleToken(s string) bool {
	return s == "" || styleTokenPattern.MatchString(s)
}

func validGeohashToken(s string) bool {
	if len(s) > 12 {
		return false
	}
	for _, r := range s {
		if !strings.ContainsRune(geohashAlphabet, r) {
			return false
		}
	}
	return true
}

type artistSummary struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Styles    []string `json:"styles"`
	City      string   `json:"city"`
	Geohash   string   `json:"geohash"`
	ImageURLs []string `json:"imageUrls"`
}

type searchResponse struct {
	Items      []artistSummary `json:"items"`
	NextCursor string           `json:"nextCursor,omitempty"`
}

// Search implements GET /v1/artists?style=&city=&postcode=&minRating=&cursor=&limit=.
func (h *ArtistsHandler) Search(w http.ResponseWriter, r *http.Request) {
	if h.Breaker != nil && !h.Breaker.Allow() {
		problem.ServiceUnavailable(w, "search index is currently unavailable", int(h.Breaker.RetryAfter().Seconds()))
		return
	}

	query := r.URL.Query()
	style := query.Get("style")
	city := query.Get("city")
	postcode := query.Get("postcode")
	cursor := query.Get("cursor")

	if !validStyleToken(style) {
		problem.BadRequest(w, "style must be a lowercase, underscore-separated token")
		return
	}

	limit := h.DefaultLimit
	if limit <= 0 {
		limit = 20
	}
	if raw := query.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			problem.BadRequest(w, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	// minRating is accepted and validated for API-contract compatibility,
	// but isn't applied as a filter: no Rating field exists anywhere in
	// the catalog or search index yet, since nothing in the scrape
	// pipeline extracts one. Once that data exists, this is where it
	// would become a Searcher filter argument.
	if raw := query.Get("minRating"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed < 0 {
			problem.BadRequest(w, "minRating must be a non-negative number")
			return
		}
	}

	var geohashPrefix string
	if city != "" || postcode != "" {
		if h.Geocoder == nil {
			problem.Internal(w, "location search is not configured")
			return
		}
		prefix, err := h.Geocoder.GeohashPrefix(city, postcode)
		if err != nil {
			problem.BadRequest(w, "could not resolve city/postcode to a location")
			return
		}
		geohashPrefix = prefix
	}
	if !validGeohashToken(geohashPrefix) {
		problem.BadRequest(w, "resolved location is not a valid geohash prefix")
		return
	}

	result, err := h.Searcher.Search(r.Context(), style, geohashPrefix, cursor, limit)
	if h.Breaker != nil {
		h.Breaker.Report(err == nil)
	}
	if err != nil {
		if h.Log != nil {
			h.Log.Warn("search failed", zap.Error(err))
		}
		problem.Internal(w, "search failed")
		return
	}

	items := make([]artistSummary, 0, len(result.Documents))
	for _, doc := range result.Documents {
		items = append(items, artistSummary{
			ID:        doc.ArtistID,
			Name:      doc.Name,
			Styles:    doc.Styles,
			City:      doc.City,
			Geohash:   doc.Geohash,
			ImageURLs: doc.ImageURLs,
		})
	}

	writeJSON(w, http.StatusOK, searchResponse{Items: items, NextCursor: result.NextCursor})
}

// Get implements GET /v1/artists/{id}, a strong read from the catalog
// rather than the index (spec §4.6).
func (h *ArtistsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	artist, err := h.Catalog.GetArtist(r.Context(), id)
	if catalog.ErrNotFound.Has(err) {
		problem.NotFound(w, "no artist with id "+id)
		return
	}
	if err != nil {
		if h.Log != nil {
			h.Log.Warn("catalog read failed", zap.Error(err))
		}
		problem.Internal(w, "catalog read failed")
		return
	}
	if artist.OptedOut {
		problem.NotFound(w, "no artist with id "+id)
		return
	}

	imageURLs := make([]string, 0, len(artist.Images))
	for _, img := range artist.Images {
		imageURLs = append(imageURLs, img.SourceURL)
	}

	writeJSON(w, http.StatusOK, artistSummary{
		ID:        artist.ID,
		Name:      artist.Name,
		Styles:    artist.Styles,
		Geohash:   artist.Geohash,
		ImageURLs: imageURLs,
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
