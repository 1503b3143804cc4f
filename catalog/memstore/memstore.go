// Copyright (C) 2026 Tattoo Catalog Contributors
// See LICENSE for copying information.

// Package memstore is an in-memory catalog.Store used by unit tests and
// local development, simulating conditional writes with a per-artist
// lock instead of a real conditional-put primitive.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/tattoodirectory/catalog/catalog"
	"github.com/tattoodirectory/catalog/internal/sync2"
)

// Store is an in-memory implementation of catalog.Store.
type Store struct {
	keyLock *sync2.KeyLock
	sink    catalog.ChangeEventSink

	mu      sync.RWMutex
	studios map[string]catalog.Studio
	artists map[string]catalog.Artist
}

// New returns an empty Store that emits change events to sink. sink may
// be nil, in which case change events are dropped (useful for tests that
// only exercise catalog writes, not projection).
func New(sink catalog.ChangeEventSink) *Store {
	return &Store{
		keyLock: sync2.NewKeyLock(),
		sink:    sink,
		studios: make(map[string]catalog.Studio),
		artists: make(map[string]catalog.Artist),
	}
}

// PutStudio implements catalog.Store.
func (s *Store) PutStudio(ctx context.Context, studio catalog.Studio) error {
	unlock := s.keyLock.Lock(studio.ID)
	defer unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.studios[studio.ID]; ok && existing.OptedOut {
		return catalog.Error.New("studio %s is opted out", studio.ID)
	}
	s.studios[studio.ID] = studio
	return nil
}

// PutArtist implements catalog.Store.
func (s *Store) PutArtist(ctx context.Context, artist catalog.Artist, images []catalog.PortfolioImage, scrapeRunID string) error {
	unlock := s.keyLock.Lock(artist.ID)
	defer unlock()

	s.mu.Lock()
	if artist.StudioID != "" {
		if _, found := s.studios[artist.StudioID]; !found {
			s.mu.Unlock()
			return catalog.ErrStudioNotFound.New("artist %s references studio %s", artist.ID, artist.StudioID)
		}
	}

	current, exists := s.artists[artist.ID]
	if exists && scrapeRunID != "" && current.LastScrapeRunID == scrapeRunID {
		s.mu.Unlock()
		return catalog.ErrAlreadyApplied.New("scrapeRunId %s already applied to artist %s", scrapeRunID, artist.ID)
	}

	version := int64(1)
	if exists {
		version = current.Version + 1
	}
	artist.Version = version
	artist.LastScrapeRunID = scrapeRunID
	artist.Images = images
	s.artists[artist.ID] = artist
	s.mu.Unlock()

	return s.emit(ctx, catalog.ChangeEvent{
		Kind:     changeKind(exists),
		PK:       catalog.ArtistPK(artist.ID),
		ArtistID: artist.ID,
		Version:  version,
	})
}

func changeKind(existed bool) catalog.ChangeKind {
	if existed {
		return catalog.ChangeModify
	}
	return catalog.ChangeInsert
}

// MarkOptedOut implements catalog.Store.
func (s *Store) MarkOptedOut(ctx context.Context, artistID, reason string) error {
	unlock := s.keyLock.Lock(artistID)
	defer unlock()

	s.mu.Lock()
	artist, ok := s.artists[artistID]
	if !ok {
		s.mu.Unlock()
		return catalog.ErrNotFound.New("artist %s", artistID)
	}
	artist.OptedOut = true
	artist.Images = nil
	artist.Version++
	s.artists[artistID] = artist
	version := artist.Version
	s.mu.Unlock()

	return s.emit(ctx, catalog.ChangeEvent{
		Kind:     catalog.ChangeRemove,
		PK:       catalog.ArtistPK(artistID),
		ArtistID: artistID,
		Version:  version,
	})
}

// GetArtist implements catalog.Store.
func (s *Store) GetArtist(ctx context.Context, artistID string) (catalog.Artist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	artist, ok := s.artists[artistID]
	if !ok {
		return catalog.Artist{}, catalog.ErrNotFound.New("artist %s", artistID)
	}
	return artist, nil
}

// GetStudio implements catalog.Store.
func (s *Store) GetStudio(ctx context.Context, studioID string) (catalog.Studio, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	studio, ok := s.studios[studioID]
	if !ok {
		return catalog.Studio{}, catalog.ErrNotFound.New("studio %s", studioID)
	}
	return studio, nil
}

// ListArtistsByStyleAndGeo implements catalog.Store. The in-memory
// implementation scans rather than truly fanning out across shards
// (there is only one backing map), but applies the same shard-merge
// ordering a sharded reader would, so callers exercise identical
// pagination semantics against either implementation.
func (s *Store) ListArtistsByStyleAndGeo(ctx context.Context, style, geohashPrefix, cursor string, limit int) (catalog.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []string
	for id, artist := range s.artists {
		if artist.OptedOut {
			continue
		}
		if !hasStyle(artist.Styles, style) {
			continue
		}
		if geohashPrefix != "" && !strings.HasPrefix(artist.Geohash, geohashPrefix) {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)

	start := 0
	if cursor != "" {
		for i, id := range ids {
			if id > cursor {
				start = i
				break
			}
			start = i + 1
		}
	}
	if limit <= 0 {
		limit = 20
	}

	end := start + limit
	if end > len(ids) {
		end = len(ids)
	}
	page := catalog.Page{ArtistIDs: append([]string(nil), ids[start:end]...)}
	if end < len(ids) {
		page.NextCursor = ids[end-1]
	}
	return page, nil
}

func hasStyle(styles []string, style string) bool {
	for _, s := range styles {
		if strings.EqualFold(s, style) {
			return true
		}
	}
	return false
}

func (s *Store) emit(ctx context.Context, event catalog.ChangeEvent) error {
	if s.sink == nil {
		return nil
	}
	return s.sink.Emit(ctx, event)
}
