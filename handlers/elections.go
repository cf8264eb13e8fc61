// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danielhkuo/rollcall/auth"
	"github.com/danielhkuo/rollcall/cliparse"
	"github.com/danielhkuo/rollcall/db"
	"github.com/danielhkuo/rollcall/middleware"
	"github.com/danielhkuo/rollcall/models"
	"github.com/danielhkuo/rollcall/upload"
)

type ElectionHandler struct {
	db      *sql.DB
	cfg     cliparse.Config
	uploads upload.Store
}

func NewElectionHandler(db *sql.DB, cfg cliparse.Config, uploads upload.Store) *ElectionHandler {
	return &ElectionHandler{db: db, cfg: cfg, uploads: uploads}
}

// CreateElection handles POST /elections
func (h *ElectionHandler) CreateElection(w http.ResponseWriter, r *http.Request) {
	var req models.CreateElectionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	req.Organizer = strings.TrimSpace(req.Organizer)
	if req.Title == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "title is required")
		return
	}
	if req.Organizer == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "organizer is required")
		return
	}
	if req.StartsAt != nil && req.EndsAt != nil && !req.EndsAt.After(*req.StartsAt) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "ends_at must be after starts_at")
		return
	}

	electionID, err := auth.GenerateID(16)
	if err != nil {
		slog.Error("failed to generate election ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create election")
		return
	}

	adminKey := auth.GenerateAdminKey(electionID, h.cfg.AdminKeySalt)

	_, err = h.db.ExecContext(r.Context(), `
		INSERT INTO election (id, title, description, organizer, status, starts_at, ends_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, electionID, req.Title, req.Description, req.Organizer, models.StatusDraft, req.StartsAt, req.EndsAt, time.Now())
	if err != nil {
		slog.Error("failed to insert election", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create election")
		return
	}

	slog.Info("election created", "election_id", electionID, "organizer", req.Organizer)

	middleware.JSONResponse(w, http.StatusCreated, models.CreateElectionResponse{
		ElectionID: electionID,
		AdminKey:   adminKey,
	})
}

// GetElectionAdmin handles GET /elections/{id}/admin
// Returns election details for admin access using election ID and admin key
func (h *ElectionHandler) GetElectionAdmin(w http.ResponseWriter, r *http.Request) {
	electionID, ok := authorizeAdmin(w, r, h.cfg)
	if !ok {
		return
	}

	row := h.db.QueryRowContext(r.Context(), `SELECT `+electionColumns+` FROM election WHERE id = $1`, electionID)
	election, err := scanElection(row)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Election not found")
		return
	}
	if err != nil {
		slog.Error("failed to query election", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	candidates, err := getCandidates(r.Context(), h.db, electionID)
	if err != nil {
		slog.Error("failed to query candidates", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ElectionWithCandidates{
		Election:   election,
		Candidates: candidates,
	})
}

// AddCandidate handles POST /elections/{id}/candidates
func (h *ElectionHandler) AddCandidate(w http.ResponseWriter, r *http.Request) {
	electionID, ok := authorizeAdmin(w, r, h.cfg)
	if !ok {
		return
	}

	var req models.AddCandidateRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "name is required")
		return
	}

	status, ok := electionStatus(r.Context(), w, h.db, electionID)
	if !ok {
		return
	}
	if status != models.StatusDraft {
		middleware.ErrorResponse(w, http.StatusConflict, "Cannot add candidates to non-draft election")
		return
	}

	candidateID, err := auth.GenerateID(12)
	if err != nil {
		slog.Error("failed to generate candidate ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create candidate")
		return
	}

	_, err = h.db.ExecContext(r.Context(), `
		INSERT INTO candidate (id, election_id, name, party, manifesto, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, candidateID, electionID, req.Name, strings.TrimSpace(req.Party), req.Manifesto, time.Now())
	if err != nil {
		slog.Error("failed to insert candidate", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create candidate")
		return
	}

	slog.Info("candidate added", "election_id", electionID, "candidate_id", candidateID)

	middleware.JSONResponse(w, http.StatusCreated, models.AddCandidateResponse{
		CandidateID: candidateID,
	})
}

// RemoveCandidate handles DELETE /elections/{id}/candidates/{cid}
func (h *ElectionHandler) RemoveCandidate(w http.ResponseWriter, r *http.Request) {
	electionID, ok := authorizeAdmin(w, r, h.cfg)
	if !ok {
		return
	}
	candidateID := r.PathValue("cid")

	status, ok := electionStatus(r.Context(), w, h.db, electionID)
	if !ok {
		return
	}
	if status != models.StatusDraft {
		middleware.ErrorResponse(w, http.StatusConflict, "Cannot remove candidates from non-draft election")
		return
	}

	res, err := h.db.ExecContext(r.Context(), `
		DELETE FROM candidate WHERE id = $1 AND election_id = $2
	`, candidateID, electionID)
	if err != nil {
		slog.Error("failed to delete candidate", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to remove candidate")
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "Candidate not found")
		return
	}

	slog.Info("candidate removed", "election_id", electionID, "candidate_id", candidateID)
	w.WriteHeader(http.StatusNoContent)
}

// UploadCandidatePhoto handles POST /elections/{id}/candidates/{cid}/photo
func (h *ElectionHandler) UploadCandidatePhoto(w http.ResponseWriter, r *http.Request) {
	electionID, ok := authorizeAdmin(w, r, h.cfg)
	if !ok {
		return
	}
	candidateID := r.PathValue("cid")

	var status string
	err := h.db.QueryRowContext(r.Context(), `
		SELECT e.status
		FROM candidate c
		JOIN election e ON e.id = c.election_id
		WHERE c.id = $1 AND c.election_id = $2
	`, candidateID, electionID).Scan(&status)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Candidate not found")
		return
	}
	if err != nil {
		slog.Error("failed to query candidate", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if status == models.StatusClosed {
		middleware.ErrorResponse(w, http.StatusConflict, "Election is closed")
		return
	}

	obj, ok := receiveUpload(w, r, h.uploads, h.cfg.MaxUploadBytes, "photos", false)
	if !ok {
		return
	}

	_, err = h.db.ExecContext(r.Context(), `
		UPDATE candidate SET photo_key = $1 WHERE id = $2
	`, obj.Key, candidateID)
	if err != nil {
		slog.Error("failed to save candidate photo", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save photo")
		return
	}

	slog.Info("candidate photo uploaded", "election_id", electionID, "candidate_id", candidateID, "key", obj.Key)
	middleware.JSONResponse(w, http.StatusCreated, toUploadResponse(obj))
}

// PublishElection handles POST /elections/{id}/publish
func (h *ElectionHandler) PublishElection(w http.ResponseWriter, r *http.Request) {
	electionID, ok := authorizeAdmin(w, r, h.cfg)
	if !ok {
		return
	}

	var status string
	var candidateCount int
	err := h.db.QueryRowContext(r.Context(), `
		SELECT e.status, COUNT(c.id)
		FROM election e
		LEFT JOIN candidate c ON e.id = c.election_id
		WHERE e.id = $1
		GROUP BY e.status
	`, electionID).Scan(&status, &candidateCount)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Election not found")
		return
	}
	if err != nil {
		slog.Error("failed to query election", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if status != models.StatusDraft {
		middleware.ErrorResponse(w, http.StatusConflict, "Election is not in draft status")
		return
	}
	if candidateCount < 2 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Election must have at least 2 candidates")
		return
	}

	shareSlug := auth.GenerateShareSlug(electionID, h.cfg.ElectionSlugSalt)

	// The status guard makes concurrent publishes idempotent.
	res, err := h.db.ExecContext(r.Context(), `
		UPDATE election
		SET status = $1, share_slug = $2
		WHERE id = $3 AND status = $4
	`, models.StatusOpen, shareSlug, electionID, models.StatusDraft)
	if err != nil {
		slog.Error("failed to publish election", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to publish election")
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		middleware.ErrorResponse(w, http.StatusConflict, "Election is not in draft status")
		return
	}

	slog.Info("election published", "election_id", electionID, "share_slug", shareSlug)

	middleware.JSONResponse(w, http.StatusOK, models.PublishElectionResponse{
		ShareSlug: shareSlug,
		ShareURL:  strings.TrimRight(h.cfg.BaseURL, "/") + "/elections/" + shareSlug,
	})
}

// CloseElection handles POST /elections/{id}/close
// The tally is computed and stored in the same transaction that closes the
// election, so no ballot can land between the count and the close.
func (h *ElectionHandler) CloseElection(w http.ResponseWriter, r *http.Request) {
	electionID, ok := authorizeAdmin(w, r, h.cfg)
	if !ok {
		return
	}

	status, ok := electionStatus(r.Context(), w, h.db, electionID)
	if !ok {
		return
	}
	if status != models.StatusOpen {
		middleware.ErrorResponse(w, http.StatusConflict, "Election is not open")
		return
	}

	snapshotID, err := auth.GenerateID(16)
	if err != nil {
		slog.Error("failed to generate snapshot ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to close election")
		return
	}
	closedAt := time.Now()

	tx, err := h.db.BeginTx(r.Context(), nil)
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(r.Context(), `
		UPDATE election
		SET status = $1, closed_at = $2, final_snapshot_id = $3
		WHERE id = $4 AND status = $5
	`, models.StatusClosed, closedAt, snapshotID, electionID, models.StatusOpen)
	if err != nil {
		slog.Error("failed to close election", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to close election")
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		middleware.ErrorResponse(w, http.StatusConflict, "Election is not open")
		return
	}

	tally, err := ComputeTally(r.Context(), tx, electionID)
	if err != nil {
		slog.Error("failed to compute tally", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to compute results")
		return
	}

	snapshot := models.ResultSnapshot{
		ID:         snapshotID,
		ElectionID: electionID,
		Method:     models.MethodPlurality,
		ComputedAt: closedAt,
		TotalVotes: tally.TotalVotes,
		Rankings:   tally.Rankings,
		InputsHash: tally.InputsHash,
	}

	payload, err := json.Marshal(snapshotPayload{
		Method:     snapshot.Method,
		TotalVotes: snapshot.TotalVotes,
		Rankings:   snapshot.Rankings,
		InputsHash: snapshot.InputsHash,
	})
	if err != nil {
		slog.Error("failed to encode snapshot", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save results")
		return
	}

	_, err = tx.ExecContext(r.Context(), `
		INSERT INTO result_snapshot (id, election_id, computed_at, payload)
		VALUES ($1, $2, $3, $4)
	`, snapshotID, electionID, closedAt, string(payload))
	if err != nil {
		slog.Error("failed to insert snapshot", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save results")
		return
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to close election")
		return
	}

	slog.Info("election closed", "election_id", electionID, "snapshot_id", snapshotID, "total_votes", tally.TotalVotes)

	middleware.JSONResponse(w, http.StatusOK, models.CloseElectionResponse{
		ClosedAt: closedAt,
		Snapshot: snapshot,
	})
}

// snapshotPayload is the JSON stored in result_snapshot.payload.
type snapshotPayload struct {
	Method     string                  `json:"method"`
	TotalVotes int                     `json:"total_votes"`
	Rankings   []models.CandidateTally `json:"rankings"`
	InputsHash string                  `json:"inputs_hash"`
}

// ListRegistrations handles GET /elections/{id}/registrations?status=
func (h *ElectionHandler) ListRegistrations(w http.ResponseWriter, r *http.Request) {
	electionID, ok := authorizeAdmin(w, r, h.cfg)
	if !ok {
		return
	}

	filter := r.URL.Query().Get("status")
	switch filter {
	case "", models.RegistrationVerified, models.RegistrationReview,
		models.RegistrationApproved, models.RegistrationRejected:
	default:
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid status filter")
		return
	}

	if _, ok := electionStatus(r.Context(), w, h.db, electionID); !ok {
		return
	}

	query := `SELECT ` + registrationColumns + ` FROM registration WHERE election_id = $1`
	args := []any{electionID}
	if filter != "" {
		query += ` AND status = $2`
		args = append(args, filter)
	}
	query += ` ORDER BY created_at, id`

	rows, err := h.db.QueryContext(r.Context(), query, args...)
	if err != nil {
		slog.Error("failed to query registrations", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	registrations := []models.Registration{}
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			slog.Error("failed to scan registration", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		registrations = append(registrations, reg)
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to read registrations", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, registrations)
}

// ApproveRegistration handles POST /elections/{id}/registrations/{rid}/approve
// Issues a voter token to a registration held for review or previously
// rejected.
func (h *ElectionHandler) ApproveRegistration(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, models.RegistrationApproved)
}

// RejectRegistration handles POST /elections/{id}/registrations/{rid}/reject
func (h *ElectionHandler) RejectRegistration(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, models.RegistrationRejected)
}

// reviewableFrom lists the statuses a review decision may move away from.
var reviewableFrom = map[string][]string{
	models.RegistrationApproved: {models.RegistrationReview, models.RegistrationRejected},
	models.RegistrationRejected: {models.RegistrationReview},
}

func (h *ElectionHandler) review(w http.ResponseWriter, r *http.Request, decision string) {
	electionID, ok := authorizeAdmin(w, r, h.cfg)
	if !ok {
		return
	}
	registrationID := r.PathValue("rid")

	status, ok := electionStatus(r.Context(), w, h.db, electionID)
	if !ok {
		return
	}
	if status != models.StatusOpen {
		middleware.ErrorResponse(w, http.StatusConflict, "Election is not open")
		return
	}

	var current string
	err := h.db.QueryRowContext(r.Context(), `
		SELECT status FROM registration WHERE id = $1 AND election_id = $2
	`, registrationID, electionID).Scan(&current)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Registration not found")
		return
	}
	if err != nil {
		slog.Error("failed to query registration", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	allowed := false
	for _, from := range reviewableFrom[decision] {
		allowed = allowed || current == from
	}
	if !allowed {
		middleware.ErrorResponse(w, http.StatusConflict, "Registration is already "+current)
		return
	}

	var token *string
	if decision == models.RegistrationApproved {
		t, err := auth.GenerateVoterToken()
		if err != nil {
			slog.Error("failed to generate voter token", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to approve registration")
			return
		}
		token = &t
	}

	res, err := h.db.ExecContext(r.Context(), `
		UPDATE registration
		SET status = $1, voter_token = $2, reviewed_at = $3
		WHERE id = $4 AND status = $5
	`, decision, token, time.Now(), registrationID, current)
	if db.IsUniqueViolation(err) {
		middleware.ErrorResponse(w, http.StatusConflict, "Another active registration exists for this voter")
		return
	}
	if err != nil {
		slog.Error("failed to update registration", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update registration")
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		middleware.ErrorResponse(w, http.StatusConflict, "Registration changed concurrently")
		return
	}

	slog.Info("registration reviewed", "election_id", electionID, "registration_id", registrationID,
		"from", current, "to", decision)

	resp := map[string]string{"registration_id": registrationID, "status": decision}
	if token != nil {
		resp["voter_token"] = *token
	}
	middleware.JSONResponse(w, http.StatusOK, resp)
}

// GetRegistrationDocument handles GET /elections/{id}/registrations/{rid}/document
func (h *ElectionHandler) GetRegistrationDocument(w http.ResponseWriter, r *http.Request) {
	electionID, ok := authorizeAdmin(w, r, h.cfg)
	if !ok {
		return
	}
	registrationID := r.PathValue("rid")

	var key sql.NullString
	err := h.db.QueryRowContext(r.Context(), `
		SELECT document_key FROM registration WHERE id = $1 AND election_id = $2
	`, registrationID, electionID).Scan(&key)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Registration not found")
		return
	}
	if err != nil {
		slog.Error("failed to query registration", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if !key.Valid {
		middleware.ErrorResponse(w, http.StatusNotFound, "No document uploaded")
		return
	}

	serveObject(w, r, h.uploads, key.String)
}
