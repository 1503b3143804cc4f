// Copyright (C) 2026 Tattoo Catalog Contributors
// See LICENSE for copying information.

package api

import (
	"encoding/json"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/tattoodirectory/catalog/api/idempotency"
	"github.com/tattoodirectory/catalog/api/problem"
	"github.com/tattoodirectory/catalog/catalog"
	"github.com/tattoodirectory/catalog/takedown"
)

// Sweeper is the subset of takedown.Sweeper the handler needs: an
// immediate, on-demand sweep after an accepted request (Design Notes
// §9 item 2).
type Sweeper interface {
	TriggerWait()
}

// TakedownsHandler serves POST /v1/takedowns.
type TakedownsHandler struct {
	Store       takedown.Store
	Idempotency idempotency.Store
	Sweeper     Sweeper
	Log         *zap.Logger
}

type takedownRequestBody struct {
	ArtistID       string `json:"artistId"`
	RequesterEmail string `json:"requesterEmail"`
	Reason         string `json:"reason"`
}

type takedownResponseBody struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// Create implements POST /v1/takedowns. Requires an Idempotency-Key
// header (spec §4.6); duplicate arrivals with a matching payload
// replay the prior result, mismatched payloads under the same key
// return 409.
func (h *TakedownsHandler) Create(w http.ResponseWriter, r *http.Request) {
	key := r.Header.Get("Idempotency-Key")
	if key == "" {
		problem.BadRequest(w, "Idempotency-Key header is required")
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		problem.BadRequest(w, "could not read request body")
		return
	}

	existing, admitted, err := idempotency.Guard(r.Context(), h.Idempotency, key, body)
	if idempotency.ErrPayloadMismatch.Has(err) {
		problem.Conflict(w, err.Error())
		return
	}
	if err != nil {
		if h.Log != nil {
			h.Log.Warn("idempotency guard failed", zap.Error(err))
		}
		problem.Internal(w, "idempotency check failed")
		return
	}
	if !admitted {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(existing.StatusCode)
		_, _ = w.Write(existing.Body)
		return
	}

	var req takedownRequestBody
	if err := json.Unmarshal(body, &req); err != nil || req.ArtistID == "" {
		problem.BadRequest(w, "artistId is required")
		return
	}

	created, err := h.Store.Create(r.Context(), catalog.TakedownRequest{
		ArtistID:       req.ArtistID,
		RequesterEmail: req.RequesterEmail,
		Reason:         req.Reason,
		IdempotencyKey: key,
	})
	if err != nil {
		if h.Log != nil {
			h.Log.Warn("takedown create failed", zap.Error(err))
		}
		problem.Internal(w, "could not create takedown request")
		return
	}

	if h.Sweeper != nil {
		go h.Sweeper.TriggerWait()
	}

	respBody, _ := json.Marshal(takedownResponseBody{ID: created.ID, Status: string(created.Status)})
	if store, ok := h.Idempotency.(interface {
		Complete(key string, statusCode int, body []byte)
	}); ok {
		store.Complete(key, http.StatusAccepted, respBody)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_, _ = w.Write(respBody)
}
