// Copyright (C) 2026 Tattoo Catalog Contributors
// See LICENSE for copying information.

package orchestrator

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/tattoodirectory/catalog/catalog"
)

// Discoverer produces the set of studios to process for one run.
// Crawling policy (what sources to query, robots compliance) is
// explicitly out of scope for this module; Discoverer is the seam a
// caller fills with that policy.
type Discoverer interface {
	DiscoverStudios(ctx context.Context) ([]catalog.Studio, error)
}

// ArtistFinder extracts the artists associated with one studio. Like
// Discoverer, the extraction policy itself is an external concern;
// this module only defines and consumes the interface.
type ArtistFinder interface {
	FindArtists(ctx context.Context, studio catalog.Studio) ([]catalog.Artist, error)
}

// HTTPDiscoverer is the default Discoverer: it requests a feed of
// studio listings from a configured source URL and decodes a JSON
// array, the minimal contract a real discovery source must satisfy.
type HTTPDiscoverer struct {
	client    *resty.Client
	sourceURL string
	source    string
}

// NewHTTPDiscoverer returns an HTTPDiscoverer querying sourceURL,
// tagging resulting studios with the given source name.
func NewHTTPDiscoverer(sourceURL, source string, timeout time.Duration) *HTTPDiscoverer {
	return &HTTPDiscoverer{
		client:    resty.New().SetTimeout(timeout),
		sourceURL: sourceURL,
		source:    source,
	}
}

type studioListing struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	WebsiteURL string `json:"websiteUrl"`
	City       string `json:"city"`
	Geohash    string `json:"geohash"`
}

// DiscoverStudios implements Discoverer.
func (d *HTTPDiscoverer) DiscoverStudios(ctx context.Context) ([]catalog.Studio, error) {
	resp, err := d.client.R().SetContext(ctx).Get(d.sourceURL)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, &httpStatusError{status: resp.StatusCode(), url: d.sourceURL}
	}

	var listings []studioListing
	if err := json.Unmarshal(resp.Body(), &listings); err != nil {
		return nil, err
	}

	studios := make([]catalog.Studio, 0, len(listings))
	for _, l := range listings {
		studios = append(studios, catalog.Studio{
			ID:              l.ID,
			Name:            l.Name,
			WebsiteURL:      l.WebsiteURL,
			City:            l.City,
			Geohash:         l.Geohash,
			DiscoverySource: d.source,
			CreatedAt:       time.Now(),
		})
	}
	return studios, nil
}

// HTTPArtistFinder is the default ArtistFinder: it requests a feed of
// artist listings from a studio's own website, at a fixed well-known
// path (Open Question, resolved in DESIGN.md), and decodes a JSON
// array, the same minimal contract HTTPDiscoverer uses for studios.
type HTTPArtistFinder struct {
	client      *resty.Client
	listingPath string
}

// NewHTTPArtistFinder returns an HTTPArtistFinder appending listingPath
// to each studio's WebsiteURL.
func NewHTTPArtistFinder(listingPath string, timeout time.Duration) *HTTPArtistFinder {
	return &HTTPArtistFinder{
		client:      resty.New().SetTimeout(timeout),
		listingPath: listingPath,
	}
}

type artistListing struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Styles        []string `json:"styles"`
	ContactHandle string   `json:"contactHandle"`
	PortfolioURL  string   `json:"portfolioUrl"`
}

// FindArtists implements ArtistFinder.
func (f *HTTPArtistFinder) FindArtists(ctx context.Context, studio catalog.Studio) ([]catalog.Artist, error) {
	resp, err := f.client.R().SetContext(ctx).Get(studio.WebsiteURL + f.listingPath)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, &httpStatusError{status: resp.StatusCode(), url: studio.WebsiteURL + f.listingPath}
	}

	var listings []artistListing
	if err := json.Unmarshal(resp.Body(), &listings); err != nil {
		return nil, err
	}

	artists := make([]catalog.Artist, 0, len(listings))
	for _, l := range listings {
		artists = append(artists, catalog.Artist{
			ID:            l.ID,
			Name:          l.Name,
			Styles:        l.Styles,
			ContactHandle: l.ContactHandle,
			PortfolioURL:  l.PortfolioURL,
			StudioID:      studio.ID,
		})
	}
	return artists, nil
}

type httpStatusError struct {
	status int
	url    string
}

func (e *httpStatusError) Error() string {
	return "unexpected status " + http.StatusText(e.status) + " from " + e.url
}

// FakeDiscoverer is an in-memory Discoverer for tests and local runs.
type FakeDiscoverer struct {
	Studios []catalog.Studio
	Err     error
}

// DiscoverStudios implements Discoverer.
func (f *FakeDiscoverer) DiscoverStudios(ctx context.Context) ([]catalog.Studio, error) {
	return f.Studios, f.Err
}

// FakeArtistFinder is an in-memory ArtistFinder keyed by studio id, for
// tests and local runs.
type FakeArtistFinder struct {
	ByStudio map[string][]catalog.Artist
	Err      map[string]error
}

// FindArtists implements ArtistFinder.
func (f *FakeArtistFinder) FindArtists(ctx context.Context, studio catalog.Studio) ([]catalog.Artist, error) {
	if err, ok := f.Err[studio.ID]; ok && err != nil {
		return nil, err
	}
	return f.ByStudio[studio.ID], nil
}
