// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package rollmatch verifies self-reported voter identity against the
official electoral roll.

# Verification

Verify selects a roll key, performs one lookup and scores the record found:

	result := rollmatch.Verify(ctx, claim, store.Lookup)

The voter ID number is used when present, otherwise the national ID number.
A claim carrying neither is answered without a lookup.

# Scoring

Four field comparisons contribute fixed weights out of 100:

  - name (30): similarity of "given family" to the roll's full name >= 0.8
  - date of birth (25): normalized string equality
  - father's name (25): similarity >= 0.8, omitted counts as a match
  - address (20): state, district and city compared where both sides
    have a value; at least 0.67 of them must agree, none comparable
    counts as a match

A score of 0.8 or more is verified. Between 0.5 and 0.8 is a partial
match and below 0.5 a mismatch; both need manual review.

# Similarity

Similarity normalizes both inputs (lowercase, trimmed, single spaces) and
returns 1.0 for equal strings, 0.0 when one is empty, 0.8 when one contains
the other, and 1 - distance/maxLen otherwise. The Levenshtein distance and
both lengths are counted in runes, not bytes or UTF-16 units.
*/
package rollmatch
