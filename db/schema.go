// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
// The SQL is kept to the subset PostgreSQL and SQLite share.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

const schema = `
-- Elections
CREATE TABLE IF NOT EXISTS election (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    organizer TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'draft' CHECK (status IN ('draft', 'open', 'closed')),
    share_slug TEXT UNIQUE,
    starts_at TIMESTAMP,
    ends_at TIMESTAMP,
    closed_at TIMESTAMP,
    final_snapshot_id TEXT,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_election_share_slug ON election(share_slug);
CREATE INDEX IF NOT EXISTS idx_election_status ON election(status);

-- Candidates
CREATE TABLE IF NOT EXISTS candidate (
    id TEXT PRIMARY KEY,
    election_id TEXT NOT NULL REFERENCES election(id) ON DELETE CASCADE,
    name TEXT NOT NULL,
    party TEXT NOT NULL DEFAULT '',
    manifesto TEXT NOT NULL DEFAULT '',
    photo_key TEXT,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_candidate_election_id ON candidate(election_id);

-- Official electoral roll
CREATE TABLE IF NOT EXISTS roll_record (
    id TEXT PRIMARY KEY,
    voter_id_number TEXT UNIQUE,
    national_id_number TEXT UNIQUE,
    full_name TEXT,
    father_name TEXT,
    date_of_birth TEXT,
    age TEXT,
    gender TEXT,
    address_state TEXT,
    address_district TEXT,
    address_city TEXT,
    full_address TEXT,
    polling_booth TEXT,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- Voter registrations with their verification outcome
CREATE TABLE IF NOT EXISTS registration (
    id TEXT PRIMARY KEY,
    election_id TEXT NOT NULL REFERENCES election(id) ON DELETE CASCADE,
    lookup_key TEXT NOT NULL,
    national_id_number TEXT NOT NULL DEFAULT '',
    voter_id_number TEXT NOT NULL DEFAULT '',
    given_name TEXT NOT NULL,
    family_name TEXT NOT NULL DEFAULT '',
    father_name TEXT NOT NULL DEFAULT '',
    date_of_birth TEXT NOT NULL DEFAULT '',
    state TEXT NOT NULL DEFAULT '',
    district TEXT NOT NULL DEFAULT '',
    city TEXT NOT NULL DEFAULT '',
    found BOOLEAN NOT NULL DEFAULT FALSE,
    verified BOOLEAN NOT NULL DEFAULT FALSE,
    match_score REAL NOT NULL DEFAULT 0 CHECK (match_score >= 0 AND match_score <= 1),
    verdict TEXT NOT NULL,
    message TEXT NOT NULL,
    name_match BOOLEAN NOT NULL DEFAULT FALSE,
    dob_match BOOLEAN NOT NULL DEFAULT FALSE,
    father_name_match BOOLEAN NOT NULL DEFAULT FALSE,
    address_match BOOLEAN NOT NULL DEFAULT FALSE,
    roll_record_id TEXT,
    status TEXT NOT NULL CHECK (status IN ('verified', 'review', 'approved', 'rejected')),
    voter_token TEXT UNIQUE,
    document_key TEXT,
    ip_hash TEXT,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    reviewed_at TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_registration_election_id ON registration(election_id);
CREATE INDEX IF NOT EXISTS idx_registration_status ON registration(election_id, status);
CREATE UNIQUE INDEX IF NOT EXISTS idx_registration_active_key
    ON registration(election_id, lookup_key) WHERE status <> 'rejected';
CREATE UNIQUE INDEX IF NOT EXISTS idx_registration_active_record
    ON registration(election_id, roll_record_id) WHERE status <> 'rejected' AND roll_record_id IS NOT NULL;

-- Ballots
CREATE TABLE IF NOT EXISTS ballot (
    id TEXT PRIMARY KEY,
    election_id TEXT NOT NULL REFERENCES election(id) ON DELETE CASCADE,
    voter_token TEXT NOT NULL,
    candidate_id TEXT NOT NULL REFERENCES candidate(id) ON DELETE CASCADE,
    submitted_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    ip_hash TEXT,
    user_agent TEXT,
    UNIQUE (election_id, voter_token)
);

CREATE INDEX IF NOT EXISTS idx_ballot_election_id ON ballot(election_id);
CREATE INDEX IF NOT EXISTS idx_ballot_candidate_id ON ballot(candidate_id);

-- Result Snapshots
CREATE TABLE IF NOT EXISTS result_snapshot (
    id TEXT PRIMARY KEY,
    election_id TEXT NOT NULL REFERENCES election(id) ON DELETE CASCADE,
    computed_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    payload TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_result_snapshot_election_id ON result_snapshot(election_id);
`
