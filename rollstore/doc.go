// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package rollstore keeps the official electoral roll in the roll_record table
and serves lookups for rollmatch.

# Lookups

Store.Lookup has the rollmatch.Lookup signature:

	store := rollstore.New(db)
	result := rollmatch.Verify(ctx, claim, store.Lookup)

A missing record yields an error wrapping rollmatch.ErrNotFound.

# Imports

Roll files are JSON, YAML or CSV:

	records, err := rollstore.LoadFile("roll.yaml")
	n, err := store.Upsert(ctx, records)

Every record needs a voter ID or a national ID number. Upsert replaces an
existing entry with the same voter ID (or national ID when the record has
no voter ID) and runs in one transaction.
*/
package rollstore
