// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the rollcall API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(db, cfg, uploads, metrics.New())

Every API route is wrapped with request logging and latency metrics.

# Endpoints

Health and metrics:

	GET /health
	GET /metrics

Election management (admin, requires X-Admin-Key):

	POST   /elections                                    - Create election
	GET    /elections/{id}/admin                         - Election and candidates
	POST   /elections/{id}/candidates                    - Add candidate (draft only)
	DELETE /elections/{id}/candidates/{cid}              - Remove candidate (draft only)
	POST   /elections/{id}/candidates/{cid}/photo        - Upload candidate photo
	POST   /elections/{id}/publish                       - Open for registration and voting
	POST   /elections/{id}/close                         - Seal results
	GET    /elections/{id}/registrations                 - List registrations (?status=)
	POST   /elections/{id}/registrations/{rid}/approve   - Approve after review
	POST   /elections/{id}/registrations/{rid}/reject    - Reject after review
	GET    /elections/{id}/registrations/{rid}/document  - Download identity document

Registration (public, uses share slug):

	POST /elections/{slug}/registrations                - Verify against the roll
	GET  /elections/{slug}/registrations/{rid}          - Registration status
	POST /elections/{slug}/registrations/{rid}/document - Attach identity document

Voting (public, requires X-Voter-Token):

	POST /elections/{slug}/ballots   - Submit/update ballot
	GET  /elections/{slug}/my-ballot - Current choice

Results (public):

	GET /elections                - Published elections
	GET /elections/{slug}         - Election info and candidates
	GET /elections/{slug}/results - Final results (closed only)
	GET /elections/{slug}/turnout - Ballot and registration counts

Electoral roll (requires X-Roll-Admin-Key):

	POST /roll/records       - Import or refresh records
	GET  /roll/records/count - Roll size
	POST /roll/verify        - Dry-run a claim
*/
package router
