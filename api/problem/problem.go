// Copyright (C) 2026 Tattoo Catalog Contributors
// See LICENSE for copying information.

// Package problem renders API errors as RFC 7807 problem+json documents.
package problem

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// Document is an RFC 7807 problem detail body.
type Document struct {
	Type     string `json:"type,omitempty"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`

	// RetryAfterSeconds is set on 503s from an open circuit breaker
	// (spec §4.6), telling the client how long to back off.
	RetryAfterSeconds int `json:"retryAfterSeconds,omitempty"`
}

const contentType = "application/problem+json"

// Write sets the response status and content type and encodes doc.
func Write(w http.ResponseWriter, doc Document) {
	if doc.Status == 0 {
		doc.Status = http.StatusInternalServerError
	}
	if doc.Title == "" {
		doc.Title = http.StatusText(doc.Status)
	}
	w.Header().Set("Content-Type", contentType)
	if doc.RetryAfterSeconds > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(doc.RetryAfterSeconds))
	}
	w.WriteHeader(doc.Status)
	_ = json.NewEncoder(w).Encode(doc)
}

// BadRequest writes a 400 problem document.
func BadRequest(w http.ResponseWriter, detail string) {
	Write(w, Document{Title: "Bad Request", Status: http.StatusBadRequest, Detail: detail})
}

// NotFound writes a 404 problem document.
func NotFound(w http.ResponseWriter, detail string) {
	Write(w, Document{Title: "Not Found", Status: http.StatusNotFound, Detail: detail})
}

// Conflict writes a 409 problem document, used for idempotency-key
// payload mismatches (spec §4.6).
func Conflict(w http.ResponseWriter, detail string) {
	Write(w, Document{Title: "Conflict", Status: http.StatusConflict, Detail: detail})
}

// ServiceUnavailable writes a 503 problem document with a Retry-After
// hint, used when the circuit breaker guarding the index client is open.
func ServiceUnavailable(w http.ResponseWriter, detail string, retryAfterSeconds int) {
	Write(w, Document{
		Title:             "Service Unavailable",
		Status:            http.StatusServiceUnavailable,
		Detail:            detail,
		RetryAfterSeconds: retryAfterSeconds,
	})
}

// Internal writes a 500 problem document.
func Internal(w http.ResponseWriter, detail string) {
	Write(w, Document{Title: "Internal Server Error", Status: http.StatusInternalServerError, Detail: detail})
}
