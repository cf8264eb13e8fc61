// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the rollcall API server.

rollcall runs small elections whose voters must be on an official electoral
roll. A voter registers by submitting their voter ID or national ID number
together with name, date of birth, father's name and address; the claim is
scored against the roll entry and, when it matches, the voter receives a
token to cast a ballot. Weaker matches are held for manual review.

# Starting the Server

The server requires environment variables or CLI flags for configuration:

	DATABASE_URL=rollcall.db go run .

Or with flags:

	go run . -p 3318 -t postgres -d "postgres://..."

A .env file in the working directory is loaded when present (-env-file
selects another one).

# Configuration

Required settings:

  - DATABASE_URL (-d): SQLite path or PostgreSQL connection string
  - ADMIN_KEY_SALT (-admin-salt): Secret for admin key HMAC
  - ELECTION_SLUG_SALT (-slug-salt): Secret for share slug generation
  - ROLL_ADMIN_KEY (-roll-key): Key for the electoral roll endpoints

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - BASE_URL (-base-url): Public URL used in share links
  - UPLOAD_DIR (-upload-dir): Where documents and photos are stored
  - MAX_UPLOAD_BYTES (-max-upload): Upload cap, e.g. 5MiB
  - LOOKUP_TIMEOUT (-lookup-timeout): Roll lookup deadline, e.g. 5s
  - LOG_LEVEL, LOG_FORMAT (-log-level, -log-format)

# Architecture

  - rollmatch: Scores a voter's claim against a roll record
  - rollstore: Electoral roll storage and seed-file loading
  - handlers: HTTP request handlers (elections, registrations, ballots, results, roll)
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, metrics, JSON helpers
  - models: Request/response types
  - auth: Key, token and slug generation
  - upload: Document and photo storage
  - db: Connection and schema creation
  - cliparse: Configuration parsing
  - logging, metrics: slog setup and Prometheus collectors

The rollctl command in cmd/rollctl imports and queries the roll from the
command line.
*/
package main
