// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/rollcall/auth"
	"github.com/danielhkuo/rollcall/cliparse"
	"github.com/danielhkuo/rollcall/metrics"
	"github.com/danielhkuo/rollcall/middleware"
	"github.com/danielhkuo/rollcall/models"
	"github.com/danielhkuo/rollcall/rollmatch"
	"github.com/danielhkuo/rollcall/rollstore"
)

// RollHandler serves the electoral roll maintenance endpoints, all guarded
// by X-Roll-Admin-Key.
type RollHandler struct {
	roll    *rollstore.Store
	cfg     cliparse.Config
	metrics *metrics.Metrics
}

func NewRollHandler(roll *rollstore.Store, cfg cliparse.Config, m *metrics.Metrics) *RollHandler {
	return &RollHandler{roll: roll, cfg: cfg, metrics: m}
}

func (h *RollHandler) authorize(w http.ResponseWriter, r *http.Request) bool {
	if err := auth.ValidateRollAdminKey(r.Header.Get("X-Roll-Admin-Key"), h.cfg.RollAdminKey); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid roll admin key")
		return false
	}
	return true
}

// ImportRecords handles POST /roll/records
func (h *RollHandler) ImportRecords(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r) {
		return
	}

	var req models.ImportRollRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		if errors.Is(err, middleware.ErrBodyTooLarge) {
			middleware.ErrorResponse(w, http.StatusRequestEntityTooLarge, "Import too large, split it into batches")
			return
		}
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if len(req.Records) == 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "records cannot be empty")
		return
	}

	n, err := h.roll.Upsert(r.Context(), req.Records)
	if errors.Is(err, rollstore.ErrMissingIdentifier) {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	if errors.Is(err, rollstore.ErrIdentifierConflict) {
		middleware.ErrorResponse(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		slog.Error("failed to import roll records", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to import records")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ImportRollResponse{Imported: n})
}

// CountRecords handles GET /roll/records/count
func (h *RollHandler) CountRecords(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r) {
		return
	}

	n, err := h.roll.Count(r.Context())
	if err != nil {
		slog.Error("failed to count roll records", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.RollCountResponse{Count: n})
}

// VerifyClaim handles POST /roll/verify
// Runs the matcher without storing anything. Unlike registration, a claim
// without an identifier is not an HTTP error here; the result says so.
func (h *RollHandler) VerifyClaim(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r) {
		return
	}

	var claim rollmatch.VoterClaim
	if err := middleware.ParseJSONBody(r, &claim); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	ctx := r.Context()
	if h.cfg.LookupTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.cfg.LookupTimeout)
		defer cancel()
	}

	result := rollmatch.Verify(ctx, claim, h.roll.Lookup)
	if h.metrics != nil {
		h.metrics.ObserveVerification(result)
	}

	middleware.JSONResponse(w, http.StatusOK, result)
}
