// Copyright (C) 2026 Tattoo Catalog Contributors
// See LICENSE for copying information.

package catalog

import (
	"context"

	"github.com/zeebo/errs"
)

// Error is the base class for every error this package returns.
var Error = errs.Class("catalog")

// ErrAlreadyApplied is returned by PutArtist when the stored
// last-scrape-run-id already equals the given scrapeRunId: the write is
// a no-op, not a failure, and callers should acknowledge the triggering
// message rather than retry.
var ErrAlreadyApplied = errs.Class("catalog: already applied")

// ErrStudioNotFound is returned when an Artist references a home studio
// that does not exist.
var ErrStudioNotFound = errs.Class("catalog: studio not found")

// ErrNotFound is returned by reads for a missing record.
var ErrNotFound = errs.Class("catalog: not found")

// ChangeKind classifies a catalog change event.
type ChangeKind string

const (
	ChangeInsert ChangeKind = "Insert"
	ChangeModify ChangeKind = "Modify"
	ChangeRemove ChangeKind = "Remove"
)

// ChangeEvent describes a single catalog mutation, consumed in order per
// PK by the projector.
type ChangeEvent struct {
	Kind     ChangeKind
	PK       string
	ArtistID string
	Version  int64
}

// Page is a cursor-paginated result set of artist ids.
type Page struct {
	ArtistIDs  []string
	NextCursor string
}

// ChangeEventSink receives change events emitted by catalog writes. In
// production this is backed by a durable change stream
// (catalog/changefeed); the in-memory store accepts any sink, or nil to
// emit nothing.
type ChangeEventSink interface {
	Emit(ctx context.Context, event ChangeEvent) error
}

// Store is the typed access layer over the single-table catalog.
type Store interface {
	// PutStudio writes the Studio metadata record. It is conditional on
	// the stored record being absent or not opted out.
	PutStudio(ctx context.Context, studio Studio) error

	// PutArtist writes the Artist metadata record, advancing its
	// version, and replaces its full image set, in one batch. The write
	// is guarded by scrapeRunId: if the stored LastScrapeRunID already
	// equals scrapeRunId, ErrAlreadyApplied is returned and no mutation
	// occurs.
	PutArtist(ctx context.Context, artist Artist, images []PortfolioImage, scrapeRunID string) error

	// MarkOptedOut flips the opted-out flag, clears the image set, and
	// emits a Remove change event for the index document.
	MarkOptedOut(ctx context.Context, artistID, reason string) error

	// GetArtist is a strongly consistent read.
	GetArtist(ctx context.Context, artistID string) (Artist, error)

	// GetStudio is a strongly consistent read.
	GetStudio(ctx context.Context, studioID string) (Studio, error)

	// ListArtistsByStyleAndGeo fans out across StyleShards shards in
	// parallel and merges by artist id.
	ListArtistsByStyleAndGeo(ctx context.Context, style, geohashPrefix, cursor string, limit int) (Page, error)
}
