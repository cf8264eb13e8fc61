// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/danielhkuo/rollcall/models"
)

// queryer is satisfied by both *sql.DB and *sql.Tx, so the tally can run
// inside the transaction that closes an election.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Tally is the plurality count of an election.
type Tally struct {
	Rankings   []models.CandidateTally
	TotalVotes int
	InputsHash string
}

// tallyVote is one counted ballot.
type tallyVote struct {
	BallotID    string
	CandidateID string
}

// ComputeTally counts the current ballots of an election
func ComputeTally(ctx context.Context, q queryer, electionID string) (Tally, error) {
	candidates, err := getCandidates(ctx, q, electionID)
	if err != nil {
		return Tally{}, fmt.Errorf("failed to get candidates: %w", err)
	}

	votes, err := getVotes(ctx, q, electionID)
	if err != nil {
		return Tally{}, fmt.Errorf("failed to get votes: %w", err)
	}

	return rankCandidates(candidates, votes), nil
}

// rankCandidates orders candidates by votes (desc), then name, then ID.
// Candidates with equal votes share a rank.
func rankCandidates(candidates []models.Candidate, votes []tallyVote) Tally {
	counts := make(map[string]int, len(candidates))
	for _, v := range votes {
		counts[v.CandidateID]++
	}

	rankings := make([]models.CandidateTally, 0, len(candidates))
	for _, c := range candidates {
		rankings = append(rankings, models.CandidateTally{
			CandidateID: c.ID,
			Name:        c.Name,
			Party:       c.Party,
			Votes:       counts[c.ID],
		})
	}

	sort.Slice(rankings, func(i, j int) bool {
		a, b := rankings[i], rankings[j]

		// 1. More votes wins
		if a.Votes != b.Votes {
			return a.Votes > b.Votes
		}

		// 2. Alphabetical by name for display
		if a.Name != b.Name {
			return a.Name < b.Name
		}

		// 3. Stable tie-breaking by candidate ID
		return a.CandidateID < b.CandidateID
	})

	total := len(votes)
	for i := range rankings {
		if total > 0 {
			rankings[i].Share = float64(rankings[i].Votes) / float64(total)
		}
		if i > 0 && rankings[i].Votes == rankings[i-1].Votes {
			rankings[i].Rank = rankings[i-1].Rank
		} else {
			rankings[i].Rank = i + 1
		}
	}

	ids := make([]string, len(votes))
	for i, v := range votes {
		ids[i] = v.BallotID
	}

	return Tally{
		Rankings:   rankings,
		TotalVotes: total,
		InputsHash: computeInputsHash(ids),
	}
}

func getCandidates(ctx context.Context, q queryer, electionID string) ([]models.Candidate, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, election_id, name, party, manifesto, photo_key
		FROM candidate
		WHERE election_id = $1
		ORDER BY created_at, id
	`, electionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	candidates := []models.Candidate{}
	for rows.Next() {
		var c models.Candidate
		if err := rows.Scan(&c.ID, &c.ElectionID, &c.Name, &c.Party, &c.Manifesto, &c.PhotoKey); err != nil {
			return nil, err
		}
		candidates = append(candidates, c)
	}

	return candidates, rows.Err()
}

func getVotes(ctx context.Context, q queryer, electionID string) ([]tallyVote, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, candidate_id FROM ballot WHERE election_id = $1
	`, electionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var votes []tallyVote
	for rows.Next() {
		var v tallyVote
		if err := rows.Scan(&v.BallotID, &v.CandidateID); err != nil {
			return nil, err
		}
		votes = append(votes, v)
	}

	return votes, rows.Err()
}

// computeInputsHash is the SHA-256 of the sorted ballot IDs, one per line,
// so anyone holding the ballot IDs can check which ballots were counted.
func computeInputsHash(ballotIDs []string) string {
	sorted := append([]string(nil), ballotIDs...)
	sort.Strings(sorted)

	h := sha256.New()
	for _, id := range sorted {
		h.Write([]byte(id))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}
