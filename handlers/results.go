// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/rollcall/cliparse"
	"github.com/danielhkuo/rollcall/middleware"
	"github.com/danielhkuo/rollcall/models"
)

type ResultsHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewResultsHandler(db *sql.DB, cfg cliparse.Config) *ResultsHandler {
	return &ResultsHandler{db: db, cfg: cfg}
}

// ListElections handles GET /elections
// Lists published elections, newest first. Drafts are never listed.
func (h *ResultsHandler) ListElections(w http.ResponseWriter, r *http.Request) {
	rows, err := h.db.QueryContext(r.Context(), `
		SELECT `+electionColumns+`
		FROM election
		WHERE status IN ($1, $2)
		ORDER BY created_at DESC, id
	`, models.StatusOpen, models.StatusClosed)
	if err != nil {
		slog.Error("failed to query elections", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	elections := []models.Election{}
	for rows.Next() {
		e, err := scanElection(rows)
		if err != nil {
			slog.Error("failed to scan election", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		elections = append(elections, e)
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to read elections", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, elections)
}

// GetElection handles GET /elections/{slug}
// Returns election details and candidates, but NOT results (results are sealed until closed)
func (h *ResultsHandler) GetElection(w http.ResponseWriter, r *http.Request) {
	election, ok := electionBySlug(r.Context(), w, h.db, r.PathValue("slug"))
	if !ok {
		return
	}

	candidates, err := getCandidates(r.Context(), h.db, election.ID)
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

// GetResults handles GET /elections/{slug}/results
// Returns 403 while the election is not closed (results are sealed)
// Returns the final snapshot once it is
func (h *ResultsHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	election, ok := electionBySlug(r.Context(), w, h.db, r.PathValue("slug"))
	if !ok {
		return
	}

	// CRITICAL: Results are sealed until the election is closed
	if election.Status != models.StatusClosed {
		middleware.ErrorResponse(w, http.StatusForbidden, "Results are hidden until the election is closed")
		return
	}

	if election.FinalSnapshotID == nil {
		slog.Error("closed election has no snapshot", "election_id", election.ID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Results not available")
		return
	}

	var snapshot models.ResultSnapshot
	var payloadJSON string
	err := h.db.QueryRowContext(r.Context(), `
		SELECT id, election_id, computed_at, payload
		FROM result_snapshot
		WHERE id = $1
	`, *election.FinalSnapshotID).Scan(
		&snapshot.ID, &snapshot.ElectionID, &snapshot.ComputedAt, &payloadJSON,
	)
	if err != nil {
		slog.Error("failed to query snapshot", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	var payload snapshotPayload
	if err := json.Unmarshal([]byte(payloadJSON), &payload); err != nil {
		slog.Error("failed to parse snapshot payload", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to parse results")
		return
	}

	snapshot.Method = payload.Method
	snapshot.TotalVotes = payload.TotalVotes
	snapshot.Rankings = payload.Rankings
	snapshot.InputsHash = payload.InputsHash

	middleware.JSONResponse(w, http.StatusOK, models.ElectionResults{
		Election: election,
		Snapshot: snapshot,
	})
}

// GetTurnout handles GET /elections/{slug}/turnout
// Counts are visible while the election is open; choices are not.
func (h *ResultsHandler) GetTurnout(w http.ResponseWriter, r *http.Request) {
	election, ok := electionBySlug(r.Context(), w, h.db, r.PathValue("slug"))
	if !ok {
		return
	}

	var ballotCount int
	err := h.db.QueryRowContext(r.Context(), `
		SELECT COUNT(*) FROM ballot WHERE election_id = $1
	`, election.ID).Scan(&ballotCount)
	if err != nil {
		slog.Error("failed to count ballots", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	rows, err := h.db.QueryContext(r.Context(), `
		SELECT status, COUNT(*)
		FROM registration
		WHERE election_id = $1
		GROUP BY status
	`, election.ID)
	if err != nil {
		slog.Error("failed to count registrations", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	registrations := map[string]int{
		models.RegistrationVerified: 0,
		models.RegistrationReview:   0,
		models.RegistrationApproved: 0,
		models.RegistrationRejected: 0,
	}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			slog.Error("failed to scan registration count", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		registrations[status] = n
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to read registration counts", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.TurnoutResponse{
		ElectionID:    election.ID,
		Status:        election.Status,
		BallotCount:   ballotCount,
		Registrations: registrations,
	})
}
