// Copyright (C) 2026 Tattoo Catalog Contributors
// See LICENSE for copying information.

// Package logging provides the structured zap logger used across every
// binary, plus a key-name redactor so sensitive values never reach the
// log sink. It follows the same "wrap the raw error/value before it's
// observable" shape as the teacher's certificate/rpcerrs sanitizer, but
// redacts by key name recursively through maps, slices, and structs
// instead of mapping error classes to status codes.
package logging

import (
	"encoding/json"
)

// Sentinel replaces the value of any redacted field.
const Sentinel = "[REDACTED]"

// DefaultSensitiveKeys is the default set of field names whose values are
// replaced by Sentinel wherever they appear, at any nesting depth.
func DefaultSensitiveKeys() map[string]struct{} {
	return keySet("email", "phone", "password", "artistname", "requesteremail", "contacthandle", "idempotencykey")
}

func keySet(keys ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}

// Redactor recursively replaces values of configured key names.
type Redactor struct {
	keys map[string]struct{}
}

// NewRedactor builds a Redactor over the given sensitive key names
// (case-insensitive).
func NewRedactor(sensitiveKeys ...string) *Redactor {
	if len(sensitiveKeys) == 0 {
		return &Redactor{keys: DefaultSensitiveKeys()}
	}
	return &Redactor{keys: keySet(lower(sensitiveKeys)...)}
}

func lower(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = toLower(s)
	}
	return out
}

func toLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// Redact walks v (expected to be, or be convertible via JSON to, one of
// nil/bool/float64/string/[]interface{}/map[string]interface{}) and
// returns a copy with every value keyed by a sensitive name replaced by
// Sentinel, at any nesting depth, inside maps and arrays.
func (r *Redactor) Redact(v interface{}) interface{} {
	return r.redact(normalize(v))
}

// normalize turns arbitrary Go values (structs, pointers) into the
// generic JSON tree shape Redact operates on, via a JSON round-trip. Maps
// and slices of already-generic values pass through untouched.
func normalize(v interface{}) interface{} {
	switch v.(type) {
	case nil, bool, string, float64, int, int64,
		map[string]interface{}, []interface{}:
		return v
	}
	data, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var generic interface{}
	if err := json.Unmarshal(data, &generic); err != nil {
		return v
	}
	return generic
}

func (r *Redactor) redact(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, inner := range val {
			if _, sensitive := r.keys[toLower(k)]; sensitive {
				out[k] = Sentinel
				continue
			}
			out[k] = r.redact(inner)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, inner := range val {
			out[i] = r.redact(inner)
		}
		return out
	default:
		switch generic := normalize(val).(type) {
		case map[string]interface{}, []interface{}:
			return r.redact(generic)
		default:
			return val
		}
	}
}
