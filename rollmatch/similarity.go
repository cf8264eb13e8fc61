// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package rollmatch

import "strings"

// containmentScore is awarded when one normalized string contains the other.
const containmentScore = 0.8

// Normalize lowercases s, trims it and collapses runs of whitespace to a
// single space.
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Similarity scores two strings in [0, 1] after normalization.
//
// The checks run in a fixed order: exact equality, empty input,
// containment, then normalized Levenshtein distance. Two empty strings are
// therefore identical (1.0) while one empty string scores 0.0.
func Similarity(a, b string) float64 {
	na, nb := Normalize(a), Normalize(b)

	if na == nb {
		return 1.0
	}
	if na == "" || nb == "" {
		return 0.0
	}
	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		return containmentScore
	}

	ra, rb := []rune(na), []rune(nb)
	longest := max(len(ra), len(rb))
	return 1.0 - float64(levenshtein(ra, rb))/float64(longest)
}

// levenshtein returns the edit distance between a and b using a full
// (len(a)+1) x (len(b)+1) matrix.
func levenshtein(a, b []rune) int {
	d := make([][]int, len(a)+1)
	for i := range d {
		d[i] = make([]int, len(b)+1)
		d[i][0] = i
	}
	for j := 0; j <= len(b); j++ {
		d[0][j] = j
	}

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			d[i][j] = min(
				d[i-1][j]+1,      // deletion
				d[i][j-1]+1,      // insertion
				d[i-1][j-1]+cost, // substitution
			)
		}
	}

	return d[len(a)][len(b)]
}
