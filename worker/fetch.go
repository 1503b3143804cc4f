// Copyright (C) 2026 Tattoo Catalog Contributors
// See LICENSE for copying information.

// Package worker is the scrape worker pool (C4): queue-driven tasks that
// rate-limit, fetch, parse, and conditionally upsert into the catalog.
package worker

import (
	"context"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/zeebo/errs"

	"github.com/tattoodirectory/catalog/internal/retry"
)

// ErrPermanentFetch classifies a fetch failure the worker should not
// retry indefinitely (4xx, or a host that stays unreachable until the
// retry policy gives up).
var ErrPermanentFetch = errs.Class("worker: permanent fetch error")

// ErrTransientFetch classifies a fetch failure worth retrying within
// budget (timeouts, 5xx, throttling).
var ErrTransientFetch = errs.Class("worker: transient fetch error")

// FetchConfig bounds a single fetch.
type FetchConfig struct {
	Timeout         time.Duration
	MaxRedirects    int
	RetryPolicy     retry.Policy
}

// DefaultFetchConfig is a conservative default for scraping third-party
// studio/artist sites.
func DefaultFetchConfig() FetchConfig {
	return FetchConfig{
		Timeout:      10 * time.Second,
		MaxRedirects: 5,
		RetryPolicy:  retry.DefaultPolicy(),
	}
}

// Fetcher fetches a target URL's body over HTTP, following a bounded
// number of redirects.
type Fetcher struct {
	client *resty.Client
	cfg    FetchConfig
}

// NewFetcher returns a Fetcher using cfg. Egress IP rotation (see spec
// §6) is an operational network-routing concern outside this type; a
// caller that needs it supplies a pre-configured transport via
// SetTransport on the returned Fetcher's Client().
func NewFetcher(cfg FetchConfig) *Fetcher {
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(cfg.MaxRedirects))
	return &Fetcher{client: client, cfg: cfg}
}

// Client exposes the underlying resty.Client for transport-level
// configuration (egress IP rotation, proxy settings).
func (f *Fetcher) Client() *resty.Client {
	return f.client
}

// Fetch retrieves targetURL, returning its response body. Errors are
// classified as ErrTransientFetch or ErrPermanentFetch per the spec's
// error taxonomy.
func (f *Fetcher) Fetch(ctx context.Context, targetURL string) ([]byte, error) {
	if _, err := url.ParseRequestURI(targetURL); err != nil {
		return nil, ErrPermanentFetch.Wrap(err)
	}

	var body []byte
	var unreachable bool
	err := f.cfg.RetryPolicy.Do(ctx, func() error {
		resp, err := f.client.R().SetContext(ctx).Get(targetURL)
		unreachable = err != nil
		if err != nil {
			return ErrTransientFetch.Wrap(err)
		}
		switch {
		case resp.StatusCode() >= 500 || resp.StatusCode() == 429:
			return ErrTransientFetch.New("status %d from %s", resp.StatusCode(), targetURL)
		case resp.StatusCode() >= 400:
			return retry.Permanent(ErrPermanentFetch.New("status %d from %s", resp.StatusCode(), targetURL))
		case resp.StatusCode() >= 300:
			return retry.Permanent(ErrPermanentFetch.New("unexpected redirect status %d from %s", resp.StatusCode(), targetURL))
		}
		body = resp.Body()
		return nil
	})
	if err != nil && unreachable && ctx.Err() == nil {
		return nil, ErrPermanentFetch.Wrap(err)
	}
	return body, err
}
