// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - CreateElectionRequest: title, description, organizer, starts_at, ends_at
  - AddCandidateRequest: name, party, manifesto
  - RegisterRequest: the voter's claim (rollmatch.VoterClaim)
  - SubmitBallotRequest: candidate_id
  - ImportRollRequest: records

# Response Types

Types for JSON responses:

  - CreateElectionResponse: election_id, admin_key
  - AddCandidateResponse: candidate_id
  - PublishElectionResponse: share_slug, share_url
  - CloseElectionResponse: closed_at, snapshot
  - RegisterResponse: registration_id, status, voter_token, result
  - UploadResponse: key, content_type, size
  - SubmitBallotResponse: ballot_id, message
  - MyBallotResponse: candidate_id, candidate_name, submitted_at
  - TurnoutResponse: ballot_count, registrations by status
  - ErrorResponse: error, message

# Domain Types

  - Election: election metadata and lifecycle state
  - Candidate: a name on the ballot
  - Registration: a stored roll verification and its review state
  - Ballot: one voter's current choice
  - CandidateTally: votes and rank of a candidate
  - ResultSnapshot: immutable result record

# Constants

Election status:

	StatusDraft  = "draft"
	StatusOpen   = "open"
	StatusClosed = "closed"

Registration status:

	RegistrationVerified = "verified" // roll match, token issued
	RegistrationReview   = "review"   // found on the roll, score below threshold
	RegistrationApproved = "approved" // accepted by an administrator
	RegistrationRejected = "rejected"
*/
package models
