package models

import (
	"time"

	"github.com/danielhkuo/rollcall/rollmatch"
)

// Election status constants
const (
	StatusDraft  = "draft"
	StatusOpen   = "open"
	StatusClosed = "closed"
)

// Registration status constants
const (
	RegistrationVerified = "verified"
	RegistrationReview   = "review"
	RegistrationApproved = "approved"
	RegistrationRejected = "rejected"
)

// Tally method constants
const (
	MethodPlurality = "plurality"
)

// Request types

type CreateElectionRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Organizer   string     `json:"organizer"`
	StartsAt    *time.Time `json:"starts_at,omitempty"`
	EndsAt      *time.Time `json:"ends_at,omitempty"`
}

type AddCandidateRequest struct {
	Name      string `json:"name"`
	Party     string `json:"party"`
	Manifesto string `json:"manifesto"`
}

// RegisterRequest is the voter's claim as submitted by the registration form.
type RegisterRequest = rollmatch.VoterClaim

type SubmitBallotRequest struct {
	CandidateID string `json:"candidate_id"`
}

type ImportRollRequest struct {
	Records []rollmatch.RollRecord `json:"records"`
}

// Response types

type CreateElectionResponse struct {
	ElectionID string `json:"election_id"`
	AdminKey   string `json:"admin_key"`
}

type AddCandidateResponse struct {
	CandidateID string `json:"candidate_id"`
}

type PublishElectionResponse struct {
	ShareSlug string `json:"share_slug"`
	ShareURL  string `json:"share_url"`
}

type CloseElectionResponse struct {
	ClosedAt time.Time      `json:"closed_at"`
	Snapshot ResultSnapshot `json:"snapshot"`
}

type ElectionResults struct {
	Election Election       `json:"election"`
	Snapshot ResultSnapshot `json:"snapshot"`
}

type RegisterResponse struct {
	RegistrationID string                       `json:"registration_id"`
	Status         string                       `json:"status"`
	VoterToken     string                       `json:"voter_token,omitempty"`
	Result         rollmatch.VerificationResult `json:"result"`
}

type UploadResponse struct {
	Key         string `json:"key"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

type SubmitBallotResponse struct {
	BallotID string `json:"ballot_id"`
	Message  string `json:"message"`
}

type MyBallotResponse struct {
	CandidateID   string    `json:"candidate_id"`
	CandidateName string    `json:"candidate_name"`
	SubmittedAt   time.Time `json:"submitted_at"`
}

type TurnoutResponse struct {
	ElectionID    string         `json:"election_id"`
	Status        string         `json:"status"`
	BallotCount   int            `json:"ballot_count"`
	Registrations map[string]int `json:"registrations"`
}

type ImportRollResponse struct {
	Imported int `json:"imported"`
}

type RollCountResponse struct {
	Count int `json:"count"`
}

// Domain types

type Election struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Organizer       string     `json:"organizer"`
	Status          string     `json:"status"`
	ShareSlug       *string    `json:"share_slug,omitempty"`
	StartsAt        *time.Time `json:"starts_at,omitempty"`
	EndsAt          *time.Time `json:"ends_at,omitempty"`
	ClosedAt        *time.Time `json:"closed_at,omitempty"`
	FinalSnapshotID *string    `json:"final_snapshot_id,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

type Candidate struct {
	ID         string  `json:"id"`
	ElectionID string  `json:"election_id"`
	Name       string  `json:"name"`
	Party      string  `json:"party,omitempty"`
	Manifesto  string  `json:"manifesto,omitempty"`
	PhotoKey   *string `json:"photo_key,omitempty"`
}

type ElectionWithCandidates struct {
	Election   Election    `json:"election"`
	Candidates []Candidate `json:"candidates"`
}

// Registration is a stored verification attempt. The claim and the
// match details are kept so reviewers see what the voter submitted.
type Registration struct {
	ID          string               `json:"id"`
	ElectionID  string               `json:"election_id"`
	Status      string               `json:"status"`
	Claim       rollmatch.VoterClaim `json:"claim"`
	Found       bool                 `json:"found"`
	Verified    bool                 `json:"verified"`
	MatchScore  float64              `json:"match_score"`
	Verdict     rollmatch.Verdict    `json:"verdict"`
	Message     string               `json:"message"`
	Details     rollmatch.Details    `json:"details"`
	DocumentKey *string              `json:"document_key,omitempty"`
	VoterToken  *string              `json:"-"` // Never expose in JSON
	CreatedAt   time.Time            `json:"created_at"`
	ReviewedAt  *time.Time           `json:"reviewed_at,omitempty"`
}

type Ballot struct {
	ID          string    `json:"id"`
	ElectionID  string    `json:"election_id"`
	CandidateID string    `json:"candidate_id"`
	VoterToken  string    `json:"-"` // Never expose in JSON
	SubmittedAt time.Time `json:"submitted_at"`
	IPHash      *string   `json:"-"` // Never expose in JSON
	UserAgent   *string   `json:"-"` // Never expose in JSON
}

// Tally result types

type CandidateTally struct {
	CandidateID string  `json:"candidate_id"`
	Name        string  `json:"name"`
	Party       string  `json:"party,omitempty"`
	Votes       int     `json:"votes"`
	Share       float64 `json:"share"`
	Rank        int     `json:"rank"` // 1-indexed ranking
}

type ResultSnapshot struct {
	ID         string           `json:"id"`
	ElectionID string           `json:"election_id"`
	Method     string           `json:"method"`
	ComputedAt time.Time        `json:"computed_at"`
	TotalVotes int              `json:"total_votes"`
	Rankings   []CandidateTally `json:"rankings"`
	InputsHash string           `json:"inputs_hash"` // Hash of all ballot IDs for verification
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
