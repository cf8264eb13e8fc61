// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"strings"
	"testing"
)

func isHex(s string) bool {
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return false
		}
	}
	return true
}

func isBase62(s string) bool {
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')) {
			return false
		}
	}
	return true
}

func TestGenerateID(t *testing.T) {
	for _, byteLen := range []int{8, 12, 16} {
		id, err := GenerateID(byteLen)
		if err != nil {
			t.Fatalf("GenerateID(%d) error = %v", byteLen, err)
		}
		if len(id) != byteLen*2 {
			t.Errorf("GenerateID(%d) length = %d, want %d", byteLen, len(id), byteLen*2)
		}
		if !isHex(id) {
			t.Errorf("GenerateID(%d) = %q, not hex", byteLen, id)
		}
	}

	id1, _ := GenerateID(16)
	id2, _ := GenerateID(16)
	if id1 == id2 {
		t.Error("GenerateID() produced duplicate IDs")
	}
}

func TestValidateAdminKey(t *testing.T) {
	electionID := "election-2025-ward-7"
	salt := "test-salt"
	validKey := GenerateAdminKey(electionID, salt)

	if strings.Contains(validKey, "=") {
		t.Error("GenerateAdminKey() contains padding characters")
	}
	if validKey != GenerateAdminKey(electionID, salt) {
		t.Error("GenerateAdminKey() is not deterministic")
	}

	tests := []struct {
		name       string
		electionID string
		adminKey   string
		salt       string
		wantErr    bool
	}{
		{"valid key", electionID, validKey, salt, false},
		{"wrong key", electionID, "wrong-key", salt, true},
		{"other election", "election-2025-ward-8", validKey, salt, true},
		{"wrong salt", electionID, validKey, "different-salt", true},
		{"empty key", electionID, "", salt, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAdminKey(tt.electionID, tt.adminKey, tt.salt)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAdminKey() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && err != ErrInvalidAdminKey {
				t.Errorf("ValidateAdminKey() error = %v, want %v", err, ErrInvalidAdminKey)
			}
		})
	}
}

func TestValidateRollAdminKey(t *testing.T) {
	tests := []struct {
		name       string
		presented  string
		configured string
		wantErr    bool
	}{
		{"match", "roll-secret", "roll-secret", false},
		{"mismatch", "roll-secre", "roll-secret", true},
		{"empty presented", "", "roll-secret", true},
		{"unset configured", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRollAdminKey(tt.presented, tt.configured)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRollAdminKey() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGenerateVoterToken(t *testing.T) {
	tokens := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, err := GenerateVoterToken()
		if err != nil {
			t.Fatalf("GenerateVoterToken() error on iteration %d: %v", i, err)
		}
		if len(token) != 32 {
			t.Errorf("GenerateVoterToken() length = %d, want 32", len(token))
		}
		if strings.ContainsAny(token, "=+/") {
			t.Errorf("GenerateVoterToken() = %q, not URL-safe", token)
		}
		if tokens[token] {
			t.Errorf("GenerateVoterToken() produced duplicate token: %s", token)
		}
		tokens[token] = true
	}
}

func TestGenerateShareSlug(t *testing.T) {
	slug := GenerateShareSlug("election-abc", "slug-salt")

	if slug == "" || len(slug) > 11 {
		t.Errorf("GenerateShareSlug() = %q, want 1-11 chars", slug)
	}
	if !isBase62(slug) {
		t.Errorf("GenerateShareSlug() = %q, not base62", slug)
	}
	if slug != GenerateShareSlug("election-abc", "slug-salt") {
		t.Error("GenerateShareSlug() is not deterministic")
	}
	if slug == GenerateShareSlug("election-xyz", "slug-salt") {
		t.Error("GenerateShareSlug() produced same slug for different elections")
	}
	if slug == GenerateShareSlug("election-abc", "other-salt") {
		t.Error("GenerateShareSlug() produced same slug for different salts")
	}
}

func TestDerivedValuesAreDomainSeparated(t *testing.T) {
	// Sharing one salt must not make a public slug reveal the admin key.
	salt := "shared-salt"
	id := "election-abc"

	adminKey := GenerateAdminKey(id, salt)
	slug := GenerateShareSlug(id, salt)
	ipHash := HashIP(id, salt)

	if strings.HasPrefix(adminKey, slug) || strings.HasPrefix(adminKey, ipHash) {
		t.Error("admin key shares a prefix with another derived value")
	}
}

func TestBase62Encode(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{"zero bytes", []byte{0, 0, 0, 0}, "0"},
		{"one", []byte{0, 0, 0, 1}, "1"},
		{"sixty-two", []byte{0, 0, 0, 62}, "10"},
		{"max uint64", []byte{255, 255, 255, 255, 255, 255, 255, 255}, "lYGhA16ahyf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := base62Encode(tt.input); got != tt.want {
				t.Errorf("base62Encode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHashIP(t *testing.T) {
	hash := HashIP("192.168.1.1", "ip-salt")
	if len(hash) != 16 || !isHex(hash) {
		t.Errorf("HashIP() = %q, want 16 hex chars", hash)
	}
	if hash != HashIP("192.168.1.1", "ip-salt") {
		t.Error("HashIP() is not deterministic")
	}
	if hash == HashIP("192.168.1.2", "ip-salt") {
		t.Error("HashIP() produced same hash for different IPs")
	}
	if hash == HashIP("192.168.1.1", "other-salt") {
		t.Error("HashIP() produced same hash for different salts")
	}
}

func BenchmarkGenerateAdminKey(b *testing.B) {
	for i := 0; i < b.N; i++ {
		GenerateAdminKey("election-2025-ward-7", "test-salt")
	}
}
