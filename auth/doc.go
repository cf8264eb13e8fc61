// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides authentication and token generation utilities.

# Admin Keys

Each election has an HMAC-SHA256 admin key derived from its ID:

	adminKey := auth.GenerateAdminKey(electionID, salt)
	err := auth.ValidateAdminKey(electionID, adminKey, salt)

The key is URL-safe base64 without padding. It is deterministic, so it is
validated without being stored.

# Roll Administration

Roll imports use one operator key from configuration, compared in constant
time:

	err := auth.ValidateRollAdminKey(r.Header.Get("X-Roll-Admin-Key"), cfg.RollAdminKey)

# Voter Tokens

A voter token is a random 24-byte secret issued when a registration is
verified against the roll or approved by an administrator:

	token, err := auth.GenerateVoterToken()

# Share Slugs

Published elections are reached through a short base62 slug:

	slug := auth.GenerateShareSlug(electionID, salt)

# IP Hashing

Client addresses on registrations and ballots are stored as the first 8
bytes (16 hex chars) of an HMAC:

	hash := auth.HashIP(ipAddress, salt)

Admin keys, slugs and IP hashes mix a distinct purpose string into the HMAC,
so one salt may safely serve several of them.
*/
package auth
