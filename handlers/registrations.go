// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielhkuo/rollcall/auth"
	"github.com/danielhkuo/rollcall/cliparse"
	"github.com/danielhkuo/rollcall/db"
	"github.com/danielhkuo/rollcall/metrics"
	"github.com/danielhkuo/rollcall/middleware"
	"github.com/danielhkuo/rollcall/models"
	"github.com/danielhkuo/rollcall/rollmatch"
	"github.com/danielhkuo/rollcall/rollstore"
	"github.com/danielhkuo/rollcall/upload"
)

const registrationColumns = `id, election_id, status,
	national_id_number, voter_id_number, given_name, family_name, father_name,
	date_of_birth, state, district, city,
	found, verified, match_score, verdict, message,
	name_match, dob_match, father_name_match, address_match,
	document_key, voter_token, created_at, reviewed_at`

func scanRegistration(row rowScanner) (models.Registration, error) {
	var reg models.Registration
	var verdict string
	err := row.Scan(
		&reg.ID, &reg.ElectionID, &reg.Status,
		&reg.Claim.NationalIDNumber, &reg.Claim.VoterIDNumber, &reg.Claim.GivenName,
		&reg.Claim.FamilyName, &reg.Claim.FatherName, &reg.Claim.DateOfBirth,
		&reg.Claim.State, &reg.Claim.District, &reg.Claim.City,
		&reg.Found, &reg.Verified, &reg.MatchScore, &verdict, &reg.Message,
		&reg.Details.NameMatch, &reg.Details.DOBMatch, &reg.Details.FatherNameMatch, &reg.Details.AddressMatch,
		&reg.DocumentKey, &reg.VoterToken, &reg.CreatedAt, &reg.ReviewedAt,
	)
	reg.Verdict = rollmatch.Verdict(verdict)
	return reg, err
}

// registrationStatus maps a verification result to the status a new
// registration starts in. Only an outright roll match can vote without a
// reviewer; any record found on the roll is held for review.
func registrationStatus(result rollmatch.VerificationResult) string {
	switch {
	case result.Verified:
		return models.RegistrationVerified
	case result.Found:
		return models.RegistrationReview
	default:
		return models.RegistrationRejected
	}
}

type RegistrationHandler struct {
	db      *sql.DB
	cfg     cliparse.Config
	roll    *rollstore.Store
	uploads upload.Store
	metrics *metrics.Metrics
}

func NewRegistrationHandler(db *sql.DB, cfg cliparse.Config, roll *rollstore.Store, uploads upload.Store, m *metrics.Metrics) *RegistrationHandler {
	return &RegistrationHandler{db: db, cfg: cfg, roll: roll, uploads: uploads, metrics: m}
}

// Register handles POST /elections/{slug}/registrations
// Checks the voter's claim against the electoral roll and stores the
// outcome. A verified claim gets its voter token straight away.
func (h *RegistrationHandler) Register(w http.ResponseWriter, r *http.Request) {
	var claim models.RegisterRequest
	if err := middleware.ParseJSONBody(r, &claim); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	election, ok := electionBySlug(r.Context(), w, h.db, r.PathValue("slug"))
	if !ok {
		return
	}
	if election.Status != models.StatusOpen {
		middleware.ErrorResponse(w, http.StatusConflict, "Election is not open for registration")
		return
	}

	key, hasKey := rollmatch.SelectKey(claim)

	var recordID string
	result := h.verify(r.Context(), claim, &recordID)
	if h.metrics != nil {
		h.metrics.ObserveVerification(result)
	}

	if !hasKey {
		middleware.ErrorResponse(w, http.StatusBadRequest, result.Message)
		return
	}
	if result.Verdict == rollmatch.VerdictError {
		slog.Warn("roll verification failed", "election_id", election.ID, "key", key.Kind, "message", result.Message)
	}

	registrationID, err := auth.GenerateID(16)
	if err != nil {
		slog.Error("failed to generate registration ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to register")
		return
	}

	status := registrationStatus(result)

	var token *string
	if status == models.RegistrationVerified {
		t, err := auth.GenerateVoterToken()
		if err != nil {
			slog.Error("failed to generate voter token", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to register")
			return
		}
		token = &t
	}

	var rollRecordID *string
	if recordID != "" {
		rollRecordID = &recordID
	}

	ipHash := auth.HashIP(middleware.GetClientIP(r), h.cfg.AdminKeySalt)

	_, err = h.db.ExecContext(r.Context(), `
		INSERT INTO registration (
			id, election_id, lookup_key,
			national_id_number, voter_id_number, given_name, family_name, father_name,
			date_of_birth, state, district, city,
			found, verified, match_score, verdict, message,
			name_match, dob_match, father_name_match, address_match,
			roll_record_id, status, voter_token, ip_hash, created_at
		) VALUES (
			$1, $2, $3,
			$4, $5, $6, $7, $8,
			$9, $10, $11, $12,
			$13, $14, $15, $16, $17,
			$18, $19, $20, $21,
			$22, $23, $24, $25, $26
		)
	`, registrationID, election.ID, key.String(),
		claim.NationalIDNumber, claim.VoterIDNumber, claim.GivenName, claim.FamilyName, claim.FatherName,
		claim.DateOfBirth, claim.State, claim.District, claim.City,
		result.Found, result.Verified, result.MatchScore, string(result.Verdict), result.Message,
		result.Details.NameMatch, result.Details.DOBMatch, result.Details.FatherNameMatch, result.Details.AddressMatch,
		rollRecordID, status, token, ipHash, time.Now())
	if db.IsUniqueViolation(err) {
		middleware.ErrorResponse(w, http.StatusConflict, "This voter is already registered for the election")
		return
	}
	if err != nil {
		slog.Error("failed to insert registration", "error", err, "election_id", election.ID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to register")
		return
	}

	if h.metrics != nil {
		h.metrics.Registrations.WithLabelValues(status).Inc()
	}

	slog.Info("registration stored",
		"election_id", election.ID,
		"registration_id", registrationID,
		"status", status,
		"verdict", result.Verdict,
		"match_score", result.MatchScore,
	)

	// The roll record stays with the roll admin dry run
	result.Match = nil

	resp := models.RegisterResponse{
		RegistrationID: registrationID,
		Status:         status,
		Result:         result,
	}
	if token != nil {
		resp.VoterToken = *token
	}
	middleware.JSONResponse(w, http.StatusCreated, resp)
}

// verify runs the roll matcher under the configured lookup timeout and
// reports the ID of the roll row it matched against.
func (h *RegistrationHandler) verify(ctx context.Context, claim rollmatch.VoterClaim, recordID *string) rollmatch.VerificationResult {
	if h.cfg.LookupTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.cfg.LookupTimeout)
		defer cancel()
	}

	lookup := func(ctx context.Context, key rollmatch.Key) (rollmatch.RollRecord, error) {
		rec, id, err := h.roll.Find(ctx, key)
		*recordID = id
		return rec, err
	}

	return rollmatch.Verify(ctx, claim, lookup)
}

// GetRegistration handles GET /elections/{slug}/registrations/{rid}
// The voter token is never echoed back.
func (h *RegistrationHandler) GetRegistration(w http.ResponseWriter, r *http.Request) {
	election, ok := electionBySlug(r.Context(), w, h.db, r.PathValue("slug"))
	if !ok {
		return
	}

	row := h.db.QueryRowContext(r.Context(), `
		SELECT `+registrationColumns+`
		FROM registration
		WHERE id = $1 AND election_id = $2
	`, r.PathValue("rid"), election.ID)

	reg, err := scanRegistration(row)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Registration not found")
		return
	}
	if err != nil {
		slog.Error("failed to query registration", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, reg)
}

// UploadDocument handles POST /elections/{slug}/registrations/{rid}/document
// Voters held for review attach an identity document for the reviewer.
func (h *RegistrationHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	election, ok := electionBySlug(r.Context(), w, h.db, r.PathValue("slug"))
	if !ok {
		return
	}
	if election.Status != models.StatusOpen {
		middleware.ErrorResponse(w, http.StatusConflict, "Election is not open")
		return
	}

	registrationID := r.PathValue("rid")

	var status string
	err := h.db.QueryRowContext(r.Context(), `
		SELECT status FROM registration WHERE id = $1 AND election_id = $2
	`, registrationID, election.ID).Scan(&status)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Registration not found")
		return
	}
	if err != nil {
		slog.Error("failed to query registration", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if status != models.RegistrationReview && status != models.RegistrationRejected {
		middleware.ErrorResponse(w, http.StatusConflict, "Registration is already "+status)
		return
	}

	obj, ok := receiveUpload(w, r, h.uploads, h.cfg.MaxUploadBytes, "documents", true)
	if !ok {
		return
	}

	_, err = h.db.ExecContext(r.Context(), `
		UPDATE registration SET document_key = $1 WHERE id = $2
	`, obj.Key, registrationID)
	if err != nil {
		slog.Error("failed to save document key", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save document")
		return
	}

	slog.Info("registration document uploaded", "election_id", election.ID, "registration_id", registrationID, "key", obj.Key)
	middleware.JSONResponse(w, http.StatusCreated, toUploadResponse(obj))
}
