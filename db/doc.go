// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the database and creates the schema.

# Connecting

Open takes the database type and URL from configuration:

	conn, err := db.Open(db.TypePostgres, "postgres://localhost/rollcall?sslmode=disable")
	conn, err := db.Open(db.TypeSQLite, "rollcall.db")

SQLite is limited to a single open connection.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.

# Tables

  - election: Election metadata and lifecycle state
  - candidate: Candidates per election
  - roll_record: The official electoral roll
  - registration: Voter claims with their verification outcome and review status
  - ballot: One ballot per voter token per election
  - result_snapshot: Immutable tally stored at close

# Relationships

	election 1──* candidate
	election 1──* registration
	election 1──* ballot
	election 1──* result_snapshot
	roll_record 1──* registration (by roll_record_id, not enforced)

Foreign keys to election use ON DELETE CASCADE.

# Constraints

  - election.share_slug is unique
  - roll_record.voter_id_number and roll_record.national_id_number are unique
  - per election, at most one registration that is not rejected for each
    lookup key and for each matched roll record
  - ballot.(election_id, voter_token) is unique

IsUniqueViolation recognises constraint errors from both drivers so handlers
can answer 409 Conflict.
*/
package db
