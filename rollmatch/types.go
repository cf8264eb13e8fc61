// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package rollmatch

import (
	"context"
	"errors"
	"strings"
)

// ErrNotFound is returned by a Lookup when no roll record has the key.
var ErrNotFound = errors.New("roll record not found")

// KeyKind names the identifier a roll lookup is keyed by.
type KeyKind string

const (
	KeyVoterID    KeyKind = "voter_id"
	KeyNationalID KeyKind = "national_id"
)

// Key identifies a single roll record.
type Key struct {
	Kind  KeyKind `json:"kind"`
	Value string  `json:"value"`
}

func (k Key) String() string {
	return string(k.Kind) + ":" + k.Value
}

// Lookup fetches at most one roll record for key. Implementations return
// ErrNotFound (possibly wrapped) when the roll has no such entry.
type Lookup func(ctx context.Context, key Key) (RollRecord, error)

// VoterClaim is the identity data a person submits for verification.
type VoterClaim struct {
	NationalIDNumber string `json:"national_id_number,omitempty" yaml:"national_id_number"`
	VoterIDNumber    string `json:"voter_id_number,omitempty" yaml:"voter_id_number"`
	GivenName        string `json:"given_name" yaml:"given_name"`
	FamilyName       string `json:"family_name" yaml:"family_name"`
	FatherName       string `json:"father_name,omitempty" yaml:"father_name"`
	DateOfBirth      string `json:"date_of_birth,omitempty" yaml:"date_of_birth"`
	State            string `json:"state,omitempty" yaml:"state"`
	District         string `json:"district,omitempty" yaml:"district"`
	City             string `json:"city,omitempty" yaml:"city"`
}

// FullName joins given and family name the way the roll stores it.
func (c VoterClaim) FullName() string {
	return strings.TrimSpace(c.GivenName + " " + c.FamilyName)
}

// RollRecord is one entry of the official electoral roll. Empty strings
// stand for values the roll does not carry.
type RollRecord struct {
	NationalIDNumber string `json:"national_id_number,omitempty" yaml:"national_id_number"`
	VoterIDNumber    string `json:"voter_id_number,omitempty" yaml:"voter_id_number"`
	FullName         string `json:"full_name,omitempty" yaml:"full_name"`
	FatherName       string `json:"father_name,omitempty" yaml:"father_name"`
	DateOfBirth      string `json:"date_of_birth,omitempty" yaml:"date_of_birth"`
	Age              string `json:"age,omitempty" yaml:"age"`
	Gender           string `json:"gender,omitempty" yaml:"gender"`
	State            string `json:"address_state,omitempty" yaml:"address_state"`
	District         string `json:"address_district,omitempty" yaml:"address_district"`
	City             string `json:"address_city,omitempty" yaml:"address_city"`
	FullAddress      string `json:"full_address,omitempty" yaml:"full_address"`
	PollingBooth     string `json:"polling_booth,omitempty" yaml:"polling_booth"`
}

// Verdict classifies a verification outcome.
type Verdict string

const (
	VerdictVerified     Verdict = "verified"
	VerdictPartial      Verdict = "partial"
	VerdictMismatch     Verdict = "mismatch"
	VerdictNotFound     Verdict = "not_found"
	VerdictNoIdentifier Verdict = "no_identifier"
	VerdictError        Verdict = "error"
)

// Details reports each field comparison on its own, whether or not it
// changed the verdict.
type Details struct {
	NameMatch       bool `json:"name_match" yaml:"name_match"`
	DOBMatch        bool `json:"dob_match" yaml:"dob_match"`
	FatherNameMatch bool `json:"father_name_match" yaml:"father_name_match"`
	AddressMatch    bool `json:"address_match" yaml:"address_match"`
}

// VerificationResult is the outcome of a single Verify call.
type VerificationResult struct {
	Found      bool        `json:"found" yaml:"found"`
	Match      *RollRecord `json:"match" yaml:"match,omitempty"`
	Verified   bool        `json:"verified" yaml:"verified"`
	MatchScore float64     `json:"match_score" yaml:"match_score"`
	Verdict    Verdict     `json:"verdict" yaml:"verdict"`
	Message    string      `json:"message" yaml:"message"`
	Details    Details     `json:"details" yaml:"details"`
}
