// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the rollcall API.

# Handler Types

Each handler is a struct built by a constructor from the dependencies it uses:

  - ElectionHandler: election lifecycle, candidates, registration review
  - RegistrationHandler: voter registration against the electoral roll
  - VotingHandler: ballot submission
  - ResultsHandler: public election info, turnout and results
  - RollHandler: electoral roll import and dry-run verification

	elections := handlers.NewElectionHandler(db, cfg, uploads)

# Election Lifecycle

Elections progress through three states: draft → open → closed

	POST /elections                     → CreateElection (returns admin_key)
	POST /elections/{id}/candidates     → AddCandidate (draft only)
	POST /elections/{id}/publish        → PublishElection (generates share_slug)
	POST /elections/{id}/close          → CloseElection (stores the final tally)

Admin operations require the X-Admin-Key header.

# Registration

Voters register through the share slug. The claim is checked against the
roll with rollmatch.Verify and the outcome decides the starting status:

	verified  full match, voter token issued immediately
	review    found on the roll but not a full match
	rejected  not on the roll, or the lookup failed

Review registrations may attach a document and are approved or rejected by
the organizer. Approval issues the voter token.

# Voting

	POST /elections/{slug}/ballots → SubmitBallot (create or update)

Voter operations require the X-Voter-Token header.

# Tally

ComputeTally counts one vote per ballot, ranks candidates by votes and
hashes the ballot IDs it counted:

	tally, err := handlers.ComputeTally(ctx, tx, electionID)

Results stay sealed until the election is closed.
*/
package handlers
