// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielhkuo/rollcall/auth"
	"github.com/danielhkuo/rollcall/cliparse"
	"github.com/danielhkuo/rollcall/db"
	"github.com/danielhkuo/rollcall/rollmatch"
	"github.com/danielhkuo/rollcall/upload"
)

// TestDBURL is an in-memory SQLite database. db.Open limits SQLite to a
// single connection, so the database lives exactly as long as the *sql.DB.
const TestDBURL = ":memory:"

// Minimal file contents that content sniffing recognises.
var (
	PNGData = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")
	PDFData = []byte("%PDF-1.7\n1 0 obj\n<< /Type /Catalog >>\nendobj\n")
)

// SetupTestDB creates a fresh test database with the full schema
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := db.Open(db.TypeSQLite, TestDBURL)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:             3318,
		DatabaseURL:      TestDBURL,
		DatabaseType:     db.TypeSQLite,
		AdminKeySalt:     "test-admin-salt",
		ElectionSlugSalt: "test-slug-salt",
		RollAdminKey:     "test-roll-key",
		BaseURL:          "https://rollcall.test",
		MaxUploadBytes:   64 << 10,
		LookupTimeout:    time.Second,
		LogLevel:         "info",
		LogFormat:        "text",
	}
}

// NewTestUploads returns an upload store rooted in a temporary directory
func NewTestUploads(t *testing.T, cfg cliparse.Config) *upload.DirStore {
	t.Helper()

	store, err := upload.NewDirStore(t.TempDir(), cfg.MaxUploadBytes)
	if err != nil {
		t.Fatalf("Failed to create upload store: %v", err)
	}
	return store
}

// CreateTestElection creates an election in the database and returns its ID,
// admin key and share slug. status should be "draft", "open", or "closed"
func CreateTestElection(t *testing.T, conn *sql.DB, cfg cliparse.Config, status string) (electionID, adminKey, shareSlug string) {
	t.Helper()

	electionID, _ = auth.GenerateID(16)
	adminKey = auth.GenerateAdminKey(electionID, cfg.AdminKeySalt)

	var slug *string
	if status == "open" || status == "closed" {
		s := auth.GenerateShareSlug(electionID, cfg.ElectionSlugSalt)
		slug = &s
		shareSlug = s
	}

	var closedAt *time.Time
	if status == "closed" {
		now := time.Now()
		closedAt = &now
	}

	_, err := conn.Exec(`
		INSERT INTO election (id, title, description, organizer, status, share_slug, closed_at, created_at)
		VALUES ($1, 'Test Election', 'A test election', 'Test Commission', $2, $3, $4, $5)
	`, electionID, status, slug, closedAt, time.Now())
	if err != nil {
		t.Fatalf("Failed to create test election: %v", err)
	}

	return electionID, adminKey, shareSlug
}

// AddTestCandidate adds a candidate to an election and returns the candidate ID
func AddTestCandidate(t *testing.T, conn *sql.DB, electionID, name string) string {
	t.Helper()

	candidateID, _ := auth.GenerateID(12)
	_, err := conn.Exec(`
		INSERT INTO candidate (id, election_id, name, created_at)
		VALUES ($1, $2, $3, $4)
	`, candidateID, electionID, name, time.Now())
	if err != nil {
		t.Fatalf("Failed to create test candidate: %v", err)
	}

	return candidateID
}

// AddTestRollRecord puts a record on the electoral roll and returns its row ID
func AddTestRollRecord(t *testing.T, conn *sql.DB, rec rollmatch.RollRecord) string {
	t.Helper()

	id, _ := auth.GenerateID(16)
	_, err := conn.Exec(`
		INSERT INTO roll_record (id, voter_id_number, national_id_number, full_name, father_name,
			date_of_birth, address_state, address_district, address_city, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, id, nullString(rec.VoterIDNumber), nullString(rec.NationalIDNumber), rec.FullName,
		rec.FatherName, rec.DateOfBirth, rec.State, rec.District, rec.City, time.Now())
	if err != nil {
		t.Fatalf("Failed to create test roll record: %v", err)
	}

	return id
}

// CreateTestVoter stores a registration with the given status and returns
// its ID and voter token. The token is empty unless the status allows voting.
func CreateTestVoter(t *testing.T, conn *sql.DB, electionID, voterID, status string) (registrationID, voterToken string) {
	t.Helper()

	registrationID, _ = auth.GenerateID(16)

	var token *string
	if status == "verified" || status == "approved" {
		voterToken, _ = auth.GenerateVoterToken()
		token = &voterToken
	}

	verified := status == "verified"
	score := 0.6
	verdict := rollmatch.VerdictPartial
	if verified {
		score, verdict = 1.0, rollmatch.VerdictVerified
	}

	_, err := conn.Exec(`
		INSERT INTO registration (id, election_id, lookup_key, voter_id_number, given_name,
			found, verified, match_score, verdict, message, status, voter_token, created_at)
		VALUES ($1, $2, $3, $4, 'Test', $5, $6, $7, $8, 'test registration', $9, $10, $11)
	`, registrationID, electionID, "voter_id:"+voterID, voterID,
		true, verified, score, string(verdict), status, token, time.Now())
	if err != nil {
		t.Fatalf("Failed to create test voter: %v", err)
	}

	return registrationID, voterToken
}

// SubmitTestBallot records a vote for a candidate
func SubmitTestBallot(t *testing.T, conn *sql.DB, electionID, voterToken, candidateID string) string {
	t.Helper()

	ballotID, _ := auth.GenerateID(16)
	_, err := conn.Exec(`
		INSERT INTO ballot (id, election_id, voter_token, candidate_id, submitted_at)
		VALUES ($1, $2, $3, $4, $5)
	`, ballotID, electionID, voterToken, candidateID, time.Now())
	if err != nil {
		t.Fatalf("Failed to create test ballot: %v", err)
	}

	return ballotID
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body any, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// MakeUploadRequest creates a multipart request with data in the "file" field
func MakeUploadRequest(method, path, filename string, data []byte, headers map[string]string) *http.Request {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, _ := mw.CreateFormFile("file", filename)
	part.Write(data)
	mw.Close()

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
