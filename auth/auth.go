// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidAdminKey     = errors.New("invalid admin key")
	ErrInvalidRollAdminKey = errors.New("invalid roll admin key")
	ErrInvalidToken        = errors.New("invalid token format")
)

// Purposes mixed into every HMAC so that a key derived for one use can
// never be replayed as another.
const (
	purposeAdmin = "election-admin:"
	purposeSlug  = "election-slug:"
	purposeIP    = "client-ip:"
)

// GenerateID creates a random hex ID of the specified byte length
func GenerateID(byteLen int) (string, error) {
	b := make([]byte, byteLen)
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate random ID: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// GenerateAdminKey derives the admin key for an election.
// Deterministic, so it never has to be stored.
func GenerateAdminKey(electionID, salt string) string {
	sum := sign(salt, purposeAdmin+electionID)
	return strings.TrimRight(base64.URLEncoding.EncodeToString(sum), "=")
}

// ValidateAdminKey checks if the provided admin key is valid for the election
func ValidateAdminKey(electionID, adminKey, salt string) error {
	expected := GenerateAdminKey(electionID, salt)
	if !hmac.Equal([]byte(adminKey), []byte(expected)) {
		return ErrInvalidAdminKey
	}
	return nil
}

// ValidateRollAdminKey compares a presented key with the configured roll
// administrator key in constant time. An unset configured key rejects
// everything.
func ValidateRollAdminKey(presented, configured string) error {
	if configured == "" || subtle.ConstantTimeCompare([]byte(presented), []byte(configured)) != 1 {
		return ErrInvalidRollAdminKey
	}
	return nil
}

// GenerateVoterToken creates the random secret handed to a voter once
// their registration is verified or approved.
func GenerateVoterToken() (string, error) {
	b := make([]byte, 24) // 192 bits
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate voter token: %w", err)
	}
	return strings.TrimRight(base64.URLEncoding.EncodeToString(b), "="), nil
}

// GenerateShareSlug creates the public, base62 URL slug of an election.
func GenerateShareSlug(electionID, salt string) string {
	sum := sign(salt, purposeSlug+electionID)
	return base62Encode(sum[:8])
}

// base62Encode converts up to 8 bytes to base62 (0-9, a-z, A-Z)
func base62Encode(data []byte) string {
	const base62Chars = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

	var num uint64
	for i := 0; i < len(data) && i < 8; i++ {
		num = num<<8 | uint64(data[i])
	}

	if num == 0 {
		return "0"
	}

	result := make([]byte, 0, 11) // max length for uint64
	for num > 0 {
		result = append(result, base62Chars[num%62])
		num /= 62
	}

	for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
		result[i], result[j] = result[j], result[i]
	}

	return string(result)
}

// HashIP creates a one-way hash of an IP address so registrations and
// ballots can be correlated without storing addresses.
func HashIP(ip, salt string) string {
	sum := sign(salt, purposeIP+ip)
	return hex.EncodeToString(sum[:8])
}

func sign(salt, msg string) []byte {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(msg))
	return h.Sum(nil)
}
