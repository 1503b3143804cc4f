// Copyright (C) 2026 Tattoo Catalog Contributors
// See LICENSE for copying information.

// Package idempotency guards mutating API requests (spec §4.6, §9: "do
// not attempt to synthesize it with read-then-write"). A request's
// Idempotency-Key and a hash of its payload are stored under a
// dedicated SK in the catalog's single table, reusing the catalog's
// own conditional-write primitive rather than a bespoke one.
package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/zeebo/errs"
)

// Error is the idempotency package's error class.
var Error = errs.Class("idempotency")

// ErrPayloadMismatch is returned when a key is replayed with a
// different payload hash (spec §4.6: "Mismatched payloads under the
// same key return 409").
var ErrPayloadMismatch = errs.Class("idempotency: payload mismatch")

// Record is what is stored and returned for a given idempotency key.
type Record struct {
	Key         string
	PayloadHash string
	StatusCode  int
	Body        []byte
}

// Store is the conditional-write primitive idempotency needs from the
// catalog table: put-if-absent, and a plain get.
type Store interface {
	// PutIfAbsent stores record and returns (record, true, nil) if no
	// record existed for record.Key; otherwise it returns the existing
	// record unchanged and false.
	PutIfAbsent(ctx context.Context, record Record) (Record, bool, error)
	Get(ctx context.Context, key string) (Record, bool, error)
}

// HashPayload returns the stable hash used to detect payload mismatches
// under a replayed key.
func HashPayload(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// Guard resolves one (key, payload) pair against store: if the key is
// unseen, admit records a placeholder and the caller should proceed and
// call Complete; if seen with a matching payload hash, the prior result
// is replayed; if seen with a different hash, ErrPayloadMismatch is
// returned.
func Guard(ctx context.Context, store Store, key string, payload []byte) (existing Record, admitted bool, err error) {
	hash := HashPayload(payload)
	record, created, err := store.PutIfAbsent(ctx, Record{Key: key, PayloadHash: hash})
	if err != nil {
		return Record{}, false, Error.Wrap(err)
	}
	if created {
		return Record{}, true, nil
	}
	if record.PayloadHash != hash {
		return Record{}, false, ErrPayloadMismatch.New("idempotency key %s reused with a different payload", key)
	}
	return record, false, nil
}
