// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/danielhkuo/rollcall/cliparse"
	"github.com/danielhkuo/rollcall/handlers"
	"github.com/danielhkuo/rollcall/metrics"
	"github.com/danielhkuo/rollcall/middleware"
	"github.com/danielhkuo/rollcall/rollstore"
	"github.com/danielhkuo/rollcall/upload"
)

func NewRouter(db *sql.DB, cfg cliparse.Config, uploads upload.Store, m *metrics.Metrics) *http.ServeMux {
	mux := http.NewServeMux()

	roll := rollstore.New(db)

	// Initialize handlers
	electionHandler := handlers.NewElectionHandler(db, cfg, uploads)
	registrationHandler := handlers.NewRegistrationHandler(db, cfg, roll, uploads, m)
	votingHandler := handlers.NewVotingHandler(db, cfg, m)
	resultsHandler := handlers.NewResultsHandler(db, cfg)
	rollHandler := handlers.NewRollHandler(roll, cfg, m)

	handle := func(pattern string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, middleware.WithMetrics(m, middleware.WithLogging(h)))
	}

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("GET /metrics", m.Handler())

	// Election management (admin operations)
	handle("POST /elections", electionHandler.CreateElection)
	handle("GET /elections/{id}/admin", electionHandler.GetElectionAdmin)
	handle("POST /elections/{id}/candidates", electionHandler.AddCandidate)
	handle("DELETE /elections/{id}/candidates/{cid}", electionHandler.RemoveCandidate)
	handle("POST /elections/{id}/candidates/{cid}/photo", electionHandler.UploadCandidatePhoto)
	handle("POST /elections/{id}/publish", electionHandler.PublishElection)
	handle("POST /elections/{id}/close", electionHandler.CloseElection)
	handle("GET /elections/{id}/registrations", electionHandler.ListRegistrations)
	handle("POST /elections/{id}/registrations/{rid}/approve", electionHandler.ApproveRegistration)
	handle("POST /elections/{id}/registrations/{rid}/reject", electionHandler.RejectRegistration)
	handle("GET /elections/{id}/registrations/{rid}/document", electionHandler.GetRegistrationDocument)

	// Registration against the electoral roll (public)
	handle("POST /elections/{slug}/registrations", registrationHandler.Register)
	handle("GET /elections/{slug}/registrations/{rid}", registrationHandler.GetRegistration)
	handle("POST /elections/{slug}/registrations/{rid}/document", registrationHandler.UploadDocument)

	// Voting operations (public)
	handle("POST /elections/{slug}/ballots", votingHandler.SubmitBallot)
	handle("GET /elections/{slug}/my-ballot", votingHandler.GetMyBallot)

	// Results retrieval (public, with sealed results)
	handle("GET /elections", resultsHandler.ListElections)
	handle("GET /elections/{slug}", resultsHandler.GetElection)
	handle("GET /elections/{slug}/results", resultsHandler.GetResults)
	handle("GET /elections/{slug}/turnout", resultsHandler.GetTurnout)

	// Electoral roll maintenance (requires X-Roll-Admin-Key)
	handle("POST /roll/records", rollHandler.ImportRecords)
	handle("GET /roll/records/count", rollHandler.CountRecords)
	handle("POST /roll/verify", rollHandler.VerifyClaim)

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("rollcall API v1"))
	})

	return mux
}
