// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package rollmatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Field weights out of a fixed total of 100. The denominator never shrinks
// when the claim leaves a field out.
const (
	weightName       = 30
	weightDOB        = 25
	weightFatherName = 25
	weightAddress    = 20
	weightTotal      = weightName + weightDOB + weightFatherName + weightAddress
)

const (
	// VerifiedThreshold is the lowest score that is accepted automatically.
	VerifiedThreshold = 0.8
	// PartialThreshold separates a partial match from a mismatch.
	PartialThreshold = 0.5

	nameThreshold    = 0.8
	addressThreshold = 0.67
)

const (
	MsgNoIdentifier = "No identifying number provided. Enter a voter ID or national ID number."
	MsgNotFound     = "No matching entry on the electoral roll. The person is not registered."
	MsgVerified     = "Identity verified successfully against the electoral roll."
	MsgPartial      = "Partial match with the electoral roll. Manual review required."
	MsgMismatch     = "Details do not match the electoral roll. Manual review required."
)

// SelectKey picks the roll key for a claim. The voter ID wins over the
// national ID; ok is false when neither is present.
func SelectKey(claim VoterClaim) (key Key, ok bool) {
	if v := strings.TrimSpace(claim.VoterIDNumber); v != "" {
		return Key{Kind: KeyVoterID, Value: v}, true
	}
	if v := strings.TrimSpace(claim.NationalIDNumber); v != "" {
		return Key{Kind: KeyNationalID, Value: v}, true
	}
	return Key{}, false
}

// Verify looks the claim up with lookup and scores it against the roll
// record found. It never returns an error: lookup failures and panics are
// reported through the result with Found set to false.
func Verify(ctx context.Context, claim VoterClaim, lookup Lookup) (result VerificationResult) {
	defer func() {
		if r := recover(); r != nil {
			result = failed(fmt.Errorf("%v", r))
		}
	}()

	key, ok := SelectKey(claim)
	if !ok {
		return VerificationResult{
			Verdict: VerdictNoIdentifier,
			Message: MsgNoIdentifier,
		}
	}

	record, err := lookup(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return notFound()
	}
	if err != nil {
		return failed(err)
	}

	return Score(claim, record)
}

// Score compares a claim with a roll record already known to be the
// candidate match.
func Score(claim VoterClaim, record RollRecord) VerificationResult {
	details := Details{
		NameMatch:       matchName(claim, record),
		DOBMatch:        matchDOB(claim, record),
		FatherNameMatch: matchFatherName(claim, record),
		AddressMatch:    matchAddress(claim, record),
	}

	points := 0
	if details.NameMatch {
		points += weightName
	}
	if details.DOBMatch {
		points += weightDOB
	}
	if details.FatherNameMatch {
		points += weightFatherName
	}
	if details.AddressMatch {
		points += weightAddress
	}
	score := float64(points) / weightTotal

	result := VerificationResult{
		Found:      true,
		Match:      &record,
		MatchScore: score,
		Details:    details,
	}

	switch {
	case score >= VerifiedThreshold:
		result.Verified = true
		result.Verdict = VerdictVerified
		result.Message = MsgVerified
	case score >= PartialThreshold:
		result.Verdict = VerdictPartial
		result.Message = MsgPartial
	default:
		result.Verdict = VerdictMismatch
		result.Message = MsgMismatch
	}

	return result
}

func notFound() VerificationResult {
	return VerificationResult{
		Verdict: VerdictNotFound,
		Message: MsgNotFound,
	}
}

func failed(err error) VerificationResult {
	return VerificationResult{
		Verdict: VerdictError,
		Message: "Verification failed: " + err.Error(),
	}
}

func matchName(claim VoterClaim, record RollRecord) bool {
	return Similarity(claim.FullName(), record.FullName) >= nameThreshold
}

// matchDOB compares dates as normalized strings; "1990-01-01" and
// "01/01/1990" do not match.
func matchDOB(claim VoterClaim, record RollRecord) bool {
	return Normalize(claim.DateOfBirth) == Normalize(record.DateOfBirth)
}

// matchFatherName counts an omitted father's name as a match.
func matchFatherName(claim VoterClaim, record RollRecord) bool {
	if strings.TrimSpace(claim.FatherName) == "" {
		return true
	}
	return Similarity(claim.FatherName, record.FatherName) >= nameThreshold
}

// matchAddress compares only the address parts both sides supply. With
// nothing to compare the address counts as a match.
func matchAddress(claim VoterClaim, record RollRecord) bool {
	pairs := [][2]string{
		{claim.State, record.State},
		{claim.District, record.District},
		{claim.City, record.City},
	}

	compared, matched := 0, 0
	for _, p := range pairs {
		a, b := Normalize(p[0]), Normalize(p[1])
		if a == "" || b == "" {
			continue
		}
		compared++
		if a == b {
			matched++
		}
	}

	if compared == 0 {
		return true
	}
	return float64(matched)/float64(compared) >= addressThreshold
}
