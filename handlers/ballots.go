// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
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
)

type VotingHandler struct {
	db      *sql.DB
	cfg     cliparse.Config
	metrics *metrics.Metrics
}

func NewVotingHandler(db *sql.DB, cfg cliparse.Config, m *metrics.Metrics) *VotingHandler {
	return &VotingHandler{db: db, cfg: cfg, metrics: m}
}

// voterTokenValid reports whether token belongs to a registration of the
// election that may vote.
func (h *VotingHandler) voterTokenValid(r *http.Request, electionID, token string) (bool, error) {
	var exists bool
	err := h.db.QueryRowContext(r.Context(), `
		SELECT EXISTS(
			SELECT 1 FROM registration
			WHERE election_id = $1 AND voter_token = $2 AND status IN ($3, $4)
		)
	`, electionID, token, models.RegistrationVerified, models.RegistrationApproved).Scan(&exists)
	return exists, err
}

// SubmitBallot handles POST /elections/{slug}/ballots
// A second submission replaces the voter's earlier choice.
func (h *VotingHandler) SubmitBallot(w http.ResponseWriter, r *http.Request) {
	voterToken := r.Header.Get("X-Voter-Token")
	if voterToken == "" {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "X-Voter-Token header required")
		return
	}

	var req models.SubmitBallotRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.CandidateID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "candidate_id is required")
		return
	}

	election, ok := electionBySlug(r.Context(), w, h.db, r.PathValue("slug"))
	if !ok {
		return
	}
	if election.Status != models.StatusOpen {
		middleware.ErrorResponse(w, http.StatusConflict, "Election is not open for voting")
		return
	}

	valid, err := h.voterTokenValid(r, election.ID, voterToken)
	if err != nil {
		slog.Error("failed to verify voter token", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if !valid {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid voter token for this election")
		return
	}

	var candidateOK bool
	err = h.db.QueryRowContext(r.Context(), `
		SELECT EXISTS(SELECT 1 FROM candidate WHERE id = $1 AND election_id = $2)
	`, req.CandidateID, election.ID).Scan(&candidateOK)
	if err != nil {
		slog.Error("failed to query candidate", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if !candidateOK {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid candidate_id: "+req.CandidateID)
		return
	}

	ipHash := auth.HashIP(middleware.GetClientIP(r), h.cfg.AdminKeySalt)
	userAgent := r.UserAgent()
	now := time.Now()

	tx, err := h.db.BeginTx(r.Context(), nil)
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	// The election may have closed since the check above.
	var status string
	if err := tx.QueryRowContext(r.Context(), `SELECT status FROM election WHERE id = $1`, election.ID).Scan(&status); err != nil {
		slog.Error("failed to query election", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if status != models.StatusOpen {
		middleware.ErrorResponse(w, http.StatusConflict, "Election is not open for voting")
		return
	}

	var ballotID string
	err = tx.QueryRowContext(r.Context(), `
		SELECT id FROM ballot WHERE election_id = $1 AND voter_token = $2
	`, election.ID, voterToken).Scan(&ballotID)
	if err != nil && err != sql.ErrNoRows {
		slog.Error("failed to query ballot", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	isUpdate := err == nil

	if isUpdate {
		_, err = tx.ExecContext(r.Context(), `
			UPDATE ballot
			SET candidate_id = $1, submitted_at = $2, ip_hash = $3, user_agent = $4
			WHERE id = $5
		`, req.CandidateID, now, ipHash, userAgent, ballotID)
		if err != nil {
			slog.Error("failed to update ballot", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update ballot")
			return
		}
	} else {
		ballotID, err = auth.GenerateID(16)
		if err != nil {
			slog.Error("failed to generate ballot ID", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to submit ballot")
			return
		}
		_, err = tx.ExecContext(r.Context(), `
			INSERT INTO ballot (id, election_id, voter_token, candidate_id, submitted_at, ip_hash, user_agent)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, ballotID, election.ID, voterToken, req.CandidateID, now, ipHash, userAgent)
		if db.IsUniqueViolation(err) {
			middleware.ErrorResponse(w, http.StatusConflict, "Ballot submitted concurrently, please retry")
			return
		}
		if err != nil {
			slog.Error("failed to insert ballot", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to submit ballot")
			return
		}
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to submit ballot")
		return
	}

	message := "Ballot submitted successfully"
	kind := "new"
	if isUpdate {
		message = "Ballot updated successfully"
		kind = "changed"
	}
	if h.metrics != nil {
		h.metrics.Ballots.WithLabelValues(kind).Inc()
	}

	slog.Info("ballot submitted", "election_id", election.ID, "ballot_id", ballotID, "is_update", isUpdate)

	middleware.JSONResponse(w, http.StatusCreated, models.SubmitBallotResponse{
		BallotID: ballotID,
		Message:  message,
	})
}

// GetMyBallot handles GET /elections/{slug}/my-ballot
func (h *VotingHandler) GetMyBallot(w http.ResponseWriter, r *http.Request) {
	voterToken := r.Header.Get("X-Voter-Token")
	if voterToken == "" {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "X-Voter-Token header required")
		return
	}

	election, ok := electionBySlug(r.Context(), w, h.db, r.PathValue("slug"))
	if !ok {
		return
	}

	var resp models.MyBallotResponse
	err := h.db.QueryRowContext(r.Context(), `
		SELECT b.candidate_id, c.name, b.submitted_at
		FROM ballot b
		JOIN candidate c ON c.id = b.candidate_id
		WHERE b.election_id = $1 AND b.voter_token = $2
	`, election.ID, voterToken).Scan(&resp.CandidateID, &resp.CandidateName, &resp.SubmittedAt)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "No ballot found")
		return
	}
	if err != nil {
		slog.Error("failed to query ballot", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, resp)
}
