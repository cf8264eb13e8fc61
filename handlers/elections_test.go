// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/danielhkuo/rollcall/auth"
	"github.com/danielhkuo/rollcall/models"
	"github.com/danielhkuo/rollcall/testutil"
)

func adminHeaders(adminKey string) map[string]string {
	return map[string]string{"X-Admin-Key": adminKey}
}

func TestCreateElection(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewElectionHandler(db, cfg, nil)

	starts := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	ends := starts.Add(10 * time.Hour)
	before := starts.Add(-time.Hour)

	tests := []struct {
		name           string
		request        any
		expectedStatus int
		checkResponse  bool
	}{
		{
			name: "valid election",
			request: models.CreateElectionRequest{
				Title:       "Ward 12 Council",
				Description: "By-election for ward 12",
				Organizer:   "District Election Office",
			},
			expectedStatus: http.StatusCreated,
			checkResponse:  true,
		},
		{
			name: "valid election with schedule",
			request: models.CreateElectionRequest{
				Title:     "Ward 13 Council",
				Organizer: "District Election Office",
				StartsAt:  &starts,
				EndsAt:    &ends,
			},
			expectedStatus: http.StatusCreated,
			checkResponse:  true,
		},
		{
			name: "missing title",
			request: models.CreateElectionRequest{
				Organizer: "District Election Office",
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "blank organizer",
			request: models.CreateElectionRequest{
				Title:     "Ward 12 Council",
				Organizer: "   ",
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "ends before it starts",
			request: models.CreateElectionRequest{
				Title:     "Ward 12 Council",
				Organizer: "District Election Office",
				StartsAt:  &starts,
				EndsAt:    &before,
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid JSON",
			request:        "not json",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.MakeRequest("POST", "/elections", tt.request, nil)
			w := httptest.NewRecorder()

			handler.CreateElection(w, req)

			testutil.AssertStatus(t, w, tt.expectedStatus)

			if tt.checkResponse {
				var resp models.CreateElectionResponse
				testutil.AssertJSON(t, w, &resp)

				if resp.ElectionID == "" {
					t.Error("Expected election_id in response")
				}
				if resp.AdminKey == "" {
					t.Error("Expected admin_key in response")
				}

				var status string
				err := db.QueryRow("SELECT status FROM election WHERE id = $1", resp.ElectionID).Scan(&status)
				if err != nil {
					t.Fatalf("Failed to query election: %v", err)
				}
				if status != models.StatusDraft {
					t.Errorf("Expected new election to be draft, got %s", status)
				}
			}
		})
	}
}

func TestGetElectionAdmin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewElectionHandler(db, cfg, nil)

	electionID, adminKey, _ := testutil.CreateTestElection(t, db, cfg, models.StatusDraft)
	testutil.AddTestCandidate(t, db, electionID, "Meera Nair")

	req := testutil.MakeRequest("GET", "/elections/"+electionID+"/admin", nil, adminHeaders(adminKey))
	req.SetPathValue("id", electionID)
	w := httptest.NewRecorder()
	handler.GetElectionAdmin(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.ElectionWithCandidates
	testutil.AssertJSON(t, w, &resp)
	if resp.Election.ID != electionID {
		t.Errorf("Expected election %s, got %s", electionID, resp.Election.ID)
	}
	if len(resp.Candidates) != 1 || resp.Candidates[0].Name != "Meera Nair" {
		t.Errorf("Expected one candidate Meera Nair, got %+v", resp.Candidates)
	}

	// Another election's key is rejected
	_, otherKey, _ := testutil.CreateTestElection(t, db, cfg, models.StatusDraft)
	req = testutil.MakeRequest("GET", "/elections/"+electionID+"/admin", nil, adminHeaders(otherKey))
	req.SetPathValue("id", electionID)
	w = httptest.NewRecorder()
	handler.GetElectionAdmin(w, req)
	testutil.AssertStatus(t, w, http.StatusUnauthorized)
}

func TestAddCandidate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewElectionHandler(db, cfg, nil)

	draftID, draftKey, _ := testutil.CreateTestElection(t, db, cfg, models.StatusDraft)
	openID, openKey, _ := testutil.CreateTestElection(t, db, cfg, models.StatusOpen)

	tests := []struct {
		name           string
		electionID     string
		adminKey       string
		request        models.AddCandidateRequest
		expectedStatus int
	}{
		{
			name:           "valid candidate",
			electionID:     draftID,
			adminKey:       draftKey,
			request:        models.AddCandidateRequest{Name: "Meera Nair", Party: "Independent"},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "empty name",
			electionID:     draftID,
			adminKey:       draftKey,
			request:        models.AddCandidateRequest{Name: "  "},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "wrong admin key",
			electionID:     draftID,
			adminKey:       "wrong-key",
			request:        models.AddCandidateRequest{Name: "Ravi Kumar"},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "election already open",
			electionID:     openID,
			adminKey:       openKey,
			request:        models.AddCandidateRequest{Name: "Ravi Kumar"},
			expectedStatus: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.MakeRequest("POST", "/elections/"+tt.electionID+"/candidates", tt.request, adminHeaders(tt.adminKey))
			req.SetPathValue("id", tt.electionID)
			w := httptest.NewRecorder()

			handler.AddCandidate(w, req)

			testutil.AssertStatus(t, w, tt.expectedStatus)

			if tt.expectedStatus == http.StatusCreated {
				var resp models.AddCandidateResponse
				testutil.AssertJSON(t, w, &resp)
				if resp.CandidateID == "" {
					t.Error("Expected candidate_id in response")
				}
			}
		})
	}
}

func TestRemoveCandidate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewElectionHandler(db, cfg, nil)

	electionID, adminKey, _ := testutil.CreateTestElection(t, db, cfg, models.StatusDraft)
	candidateID := testutil.AddTestCandidate(t, db, electionID, "Meera Nair")

	remove := func(cid string) *httptest.ResponseRecorder {
		req := testutil.MakeRequest("DELETE", "/elections/"+electionID+"/candidates/"+cid, nil, adminHeaders(adminKey))
		req.SetPathValue("id", electionID)
		req.SetPathValue("cid", cid)
		w := httptest.NewRecorder()
		handler.RemoveCandidate(w, req)
		return w
	}

	testutil.AssertStatus(t, remove(candidateID), http.StatusNoContent)
	testutil.AssertStatus(t, remove(candidateID), http.StatusNotFound)

	var count int
	db.QueryRow("SELECT COUNT(*) FROM candidate WHERE election_id = $1", electionID).Scan(&count)
	if count != 0 {
		t.Errorf("Expected no candidates left, got %d", count)
	}
}

func TestPublishElection(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewElectionHandler(db, cfg, nil)

	publish := func(electionID, adminKey string) *httptest.ResponseRecorder {
		req := testutil.MakeRequest("POST", "/elections/"+electionID+"/publish", nil, adminHeaders(adminKey))
		req.SetPathValue("id", electionID)
		w := httptest.NewRecorder()
		handler.PublishElection(w, req)
		return w
	}

	t.Run("needs two candidates", func(t *testing.T) {
		electionID, adminKey, _ := testutil.CreateTestElection(t, db, cfg, models.StatusDraft)
		testutil.AddTestCandidate(t, db, electionID, "Meera Nair")

		testutil.AssertStatus(t, publish(electionID, adminKey), http.StatusBadRequest)
	})

	t.Run("publishes draft", func(t *testing.T) {
		electionID, adminKey, _ := testutil.CreateTestElection(t, db, cfg, models.StatusDraft)
		testutil.AddTestCandidate(t, db, electionID, "Meera Nair")
		testutil.AddTestCandidate(t, db, electionID, "Ravi Kumar")

		w := publish(electionID, adminKey)
		testutil.AssertStatus(t, w, http.StatusOK)

		var resp models.PublishElectionResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.ShareSlug == "" {
			t.Fatal("Expected share_slug in response")
		}
		if want := "https://rollcall.test/elections/" + resp.ShareSlug; resp.ShareURL != want {
			t.Errorf("Expected share_url %s, got %s", want, resp.ShareURL)
		}

		var status string
		db.QueryRow("SELECT status FROM election WHERE id = $1", electionID).Scan(&status)
		if status != models.StatusOpen {
			t.Errorf("Expected status open, got %s", status)
		}

		// Publishing twice is a conflict
		testutil.AssertStatus(t, publish(electionID, adminKey), http.StatusConflict)
	})

	t.Run("unknown election", func(t *testing.T) {
		electionID := "doesnotexist0000"
		adminKey := auth.GenerateAdminKey(electionID, cfg.AdminKeySalt)
		testutil.AssertStatus(t, publish(electionID, adminKey), http.StatusNotFound)
	})
}

func TestCloseElection(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewElectionHandler(db, cfg, nil)

	electionID, adminKey, _ := testutil.CreateTestElection(t, db, cfg, models.StatusOpen)
	meera := testutil.AddTestCandidate(t, db, electionID, "Meera Nair")
	ravi := testutil.AddTestCandidate(t, db, electionID, "Ravi Kumar")

	for i, choice := range []string{meera, ravi, meera} {
		_, token := testutil.CreateTestVoter(t, db, electionID, "V-"+string(rune('A'+i)), models.RegistrationVerified)
		testutil.SubmitTestBallot(t, db, electionID, token, choice)
	}

	closeReq := func() *httptest.ResponseRecorder {
		req := testutil.MakeRequest("POST", "/elections/"+electionID+"/close", nil, adminHeaders(adminKey))
		req.SetPathValue("id", electionID)
		w := httptest.NewRecorder()
		handler.CloseElection(w, req)
		return w
	}

	w := closeReq()
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.CloseElectionResponse
	testutil.AssertJSON(t, w, &resp)

	if resp.Snapshot.Method != models.MethodPlurality {
		t.Errorf("Expected method %s, got %s", models.MethodPlurality, resp.Snapshot.Method)
	}
	if resp.Snapshot.TotalVotes != 3 {
		t.Errorf("Expected 3 votes, got %d", resp.Snapshot.TotalVotes)
	}
	if len(resp.Snapshot.Rankings) != 2 {
		t.Fatalf("Expected 2 rankings, got %d", len(resp.Snapshot.Rankings))
	}
	winner := resp.Snapshot.Rankings[0]
	if winner.CandidateID != meera || winner.Votes != 2 || winner.Rank != 1 {
		t.Errorf("Expected Meera Nair to win with 2 votes, got %+v", winner)
	}
	if resp.Snapshot.InputsHash == "" {
		t.Error("Expected inputs_hash in snapshot")
	}

	var status string
	var snapshotID *string
	db.QueryRow("SELECT status, final_snapshot_id FROM election WHERE id = $1", electionID).Scan(&status, &snapshotID)
	if status != models.StatusClosed {
		t.Errorf("Expected status closed, got %s", status)
	}
	if snapshotID == nil || *snapshotID != resp.Snapshot.ID {
		t.Errorf("Expected final_snapshot_id %s, got %v", resp.Snapshot.ID, snapshotID)
	}

	// Closing again is a conflict
	testutil.AssertStatus(t, closeReq(), http.StatusConflict)
}

func TestCloseElection_Draft(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewElectionHandler(db, cfg, nil)

	electionID, adminKey, _ := testutil.CreateTestElection(t, db, cfg, models.StatusDraft)

	req := testutil.MakeRequest("POST", "/elections/"+electionID+"/close", nil, adminHeaders(adminKey))
	req.SetPathValue("id", electionID)
	w := httptest.NewRecorder()
	handler.CloseElection(w, req)

	testutil.AssertStatus(t, w, http.StatusConflict)
}

func TestListRegistrations(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewElectionHandler(db, cfg, nil)

	electionID, adminKey, _ := testutil.CreateTestElection(t, db, cfg, models.StatusOpen)
	testutil.CreateTestVoter(t, db, electionID, "V-1", models.RegistrationVerified)
	testutil.CreateTestVoter(t, db, electionID, "V-2", models.RegistrationReview)
	testutil.CreateTestVoter(t, db, electionID, "V-3", models.RegistrationReview)
	testutil.CreateTestVoter(t, db, electionID, "V-4", models.RegistrationRejected)

	tests := []struct {
		filter         string
		expectedStatus int
		expectedCount  int
	}{
		{"", http.StatusOK, 4},
		{models.RegistrationReview, http.StatusOK, 2},
		{models.RegistrationVerified, http.StatusOK, 1},
		{models.RegistrationApproved, http.StatusOK, 0},
		{"pending", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run("filter="+tt.filter, func(t *testing.T) {
			path := "/elections/" + electionID + "/registrations"
			if tt.filter != "" {
				path += "?status=" + tt.filter
			}
			req := testutil.MakeRequest("GET", path, nil, adminHeaders(adminKey))
			req.SetPathValue("id", electionID)
			w := httptest.NewRecorder()

			handler.ListRegistrations(w, req)

			testutil.AssertStatus(t, w, tt.expectedStatus)
			if tt.expectedStatus != http.StatusOK {
				return
			}

			var regs []models.Registration
			testutil.AssertJSON(t, w, &regs)
			if len(regs) != tt.expectedCount {
				t.Errorf("Expected %d registrations, got %d", tt.expectedCount, len(regs))
			}
			for _, reg := range regs {
				if tt.filter != "" && reg.Status != tt.filter {
					t.Errorf("Expected status %s, got %s", tt.filter, reg.Status)
				}
			}
		})
	}
}

func TestListRegistrations_HidesVoterToken(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewElectionHandler(db, cfg, nil)

	electionID, adminKey, _ := testutil.CreateTestElection(t, db, cfg, models.StatusOpen)
	_, token := testutil.CreateTestVoter(t, db, electionID, "V-1", models.RegistrationVerified)

	req := testutil.MakeRequest("GET", "/elections/"+electionID+"/registrations", nil, adminHeaders(adminKey))
	req.SetPathValue("id", electionID)
	w := httptest.NewRecorder()
	handler.ListRegistrations(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)
	if strings.Contains(w.Body.String(), token) {
		t.Error("Voter token leaked in registration list")
	}
}

func TestReviewRegistration(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewElectionHandler(db, cfg, nil)

	electionID, adminKey, _ := testutil.CreateTestElection(t, db, cfg, models.StatusOpen)

	review := func(registrationID string, approve bool) *httptest.ResponseRecorder {
		action := "reject"
		if approve {
			action = "approve"
		}
		req := testutil.MakeRequest("POST", "/elections/"+electionID+"/registrations/"+registrationID+"/"+action, nil, adminHeaders(adminKey))
		req.SetPathValue("id", electionID)
		req.SetPathValue("rid", registrationID)
		w := httptest.NewRecorder()
		if approve {
			handler.ApproveRegistration(w, req)
		} else {
			handler.RejectRegistration(w, req)
		}
		return w
	}

	t.Run("approve review issues token", func(t *testing.T) {
		registrationID, _ := testutil.CreateTestVoter(t, db, electionID, "R-1", models.RegistrationReview)

		w := review(registrationID, true)
		testutil.AssertStatus(t, w, http.StatusOK)

		var resp map[string]string
		testutil.AssertJSON(t, w, &resp)
		if resp["status"] != models.RegistrationApproved {
			t.Errorf("Expected status approved, got %s", resp["status"])
		}
		if resp["voter_token"] == "" {
			t.Fatal("Expected voter_token for approved registration")
		}

		var stored string
		db.QueryRow("SELECT voter_token FROM registration WHERE id = $1", registrationID).Scan(&stored)
		if stored != resp["voter_token"] {
			t.Error("Stored voter token does not match the issued one")
		}

		// Approved registrations are final
		testutil.AssertStatus(t, review(registrationID, true), http.StatusConflict)
		testutil.AssertStatus(t, review(registrationID, false), http.StatusConflict)
	})

	t.Run("reject review then approve", func(t *testing.T) {
		registrationID, _ := testutil.CreateTestVoter(t, db, electionID, "R-2", models.RegistrationReview)

		w := review(registrationID, false)
		testutil.AssertStatus(t, w, http.StatusOK)

		var resp map[string]string
		testutil.AssertJSON(t, w, &resp)
		if resp["status"] != models.RegistrationRejected {
			t.Errorf("Expected status rejected, got %s", resp["status"])
		}
		if _, ok := resp["voter_token"]; ok {
			t.Error("Rejected registration must not get a voter token")
		}

		testutil.AssertStatus(t, review(registrationID, false), http.StatusConflict)
		testutil.AssertStatus(t, review(registrationID, true), http.StatusOK)
	})

	t.Run("verified cannot be reviewed", func(t *testing.T) {
		registrationID, _ := testutil.CreateTestVoter(t, db, electionID, "R-3", models.RegistrationVerified)
		testutil.AssertStatus(t, review(registrationID, true), http.StatusConflict)
		testutil.AssertStatus(t, review(registrationID, false), http.StatusConflict)
	})

	t.Run("approving would duplicate an active registration", func(t *testing.T) {
		rejectedID, _ := testutil.CreateTestVoter(t, db, electionID, "R-4", models.RegistrationRejected)
		testutil.CreateTestVoter(t, db, electionID, "R-4", models.RegistrationVerified)

		testutil.AssertStatus(t, review(rejectedID, true), http.StatusConflict)
	})

	t.Run("unknown registration", func(t *testing.T) {
		testutil.AssertStatus(t, review("nope", true), http.StatusNotFound)
	})
}

func TestReviewRegistration_ClosedElection(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewElectionHandler(db, cfg, nil)

	electionID, adminKey, _ := testutil.CreateTestElection(t, db, cfg, models.StatusClosed)
	registrationID, _ := testutil.CreateTestVoter(t, db, electionID, "R-1", models.RegistrationReview)

	req := testutil.MakeRequest("POST", "/elections/"+electionID+"/registrations/"+registrationID+"/approve", nil, adminHeaders(adminKey))
	req.SetPathValue("id", electionID)
	req.SetPathValue("rid", registrationID)
	w := httptest.NewRecorder()
	handler.ApproveRegistration(w, req)

	testutil.AssertStatus(t, w, http.StatusConflict)
}

func TestUploadCandidatePhoto(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	uploads := testutil.NewTestUploads(t, cfg)
	handler := NewElectionHandler(db, cfg, uploads)

	electionID, adminKey, _ := testutil.CreateTestElection(t, db, cfg, models.StatusDraft)
	candidateID := testutil.AddTestCandidate(t, db, electionID, "Meera Nair")

	upload := func(electionID, adminKey, filename string, data []byte) *httptest.ResponseRecorder {
		path := "/elections/" + electionID + "/candidates/" + candidateID + "/photo"
		req := testutil.MakeUploadRequest("POST", path, filename, data, adminHeaders(adminKey))
		req.SetPathValue("id", electionID)
		req.SetPathValue("cid", candidateID)
		w := httptest.NewRecorder()
		handler.UploadCandidatePhoto(w, req)
		return w
	}

	t.Run("png accepted", func(t *testing.T) {
		w := upload(electionID, adminKey, "meera.png", testutil.PNGData)
		testutil.AssertStatus(t, w, http.StatusCreated)

		var resp models.UploadResponse
		testutil.AssertJSON(t, w, &resp)
		if !strings.HasPrefix(resp.Key, "photos/") {
			t.Errorf("Expected key under photos/, got %s", resp.Key)
		}
		if resp.ContentType != "image/png" {
			t.Errorf("Expected image/png, got %s", resp.ContentType)
		}

		var photoKey string
		db.QueryRow("SELECT photo_key FROM candidate WHERE id = $1", candidateID).Scan(&photoKey)
		if photoKey != resp.Key {
			t.Errorf("Expected photo_key %s, got %s", resp.Key, photoKey)
		}
	})

	t.Run("pdf refused even with image name", func(t *testing.T) {
		w := upload(electionID, adminKey, "meera.png", testutil.PDFData)
		testutil.AssertStatus(t, w, http.StatusUnsupportedMediaType)
	})

	t.Run("too large", func(t *testing.T) {
		big := append(append([]byte(nil), testutil.PNGData...), make([]byte, cfg.MaxUploadBytes)...)
		w := upload(electionID, adminKey, "big.png", big)
		testutil.AssertStatus(t, w, http.StatusRequestEntityTooLarge)
	})

	t.Run("not multipart", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/elections/"+electionID+"/candidates/"+candidateID+"/photo",
			map[string]string{"file": "x"}, adminHeaders(adminKey))
		req.SetPathValue("id", electionID)
		req.SetPathValue("cid", candidateID)
		w := httptest.NewRecorder()
		handler.UploadCandidatePhoto(w, req)
		testutil.AssertStatus(t, w, http.StatusBadRequest)
	})

	t.Run("closed election", func(t *testing.T) {
		closedID, closedKey, _ := testutil.CreateTestElection(t, db, cfg, models.StatusClosed)
		closedCandidate := testutil.AddTestCandidate(t, db, closedID, "Ravi Kumar")

		path := "/elections/" + closedID + "/candidates/" + closedCandidate + "/photo"
		req := testutil.MakeUploadRequest("POST", path, "ravi.png", testutil.PNGData, adminHeaders(closedKey))
		req.SetPathValue("id", closedID)
		req.SetPathValue("cid", closedCandidate)
		w := httptest.NewRecorder()
		handler.UploadCandidatePhoto(w, req)
		testutil.AssertStatus(t, w, http.StatusConflict)
	})
}

func TestUploadCandidatePhoto_NoStore(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewElectionHandler(db, cfg, nil)

	electionID, adminKey, _ := testutil.CreateTestElection(t, db, cfg, models.StatusDraft)
	candidateID := testutil.AddTestCandidate(t, db, electionID, "Meera Nair")

	req := testutil.MakeUploadRequest("POST", "/elections/"+electionID+"/candidates/"+candidateID+"/photo",
		"meera.png", testutil.PNGData, adminHeaders(adminKey))
	req.SetPathValue("id", electionID)
	req.SetPathValue("cid", candidateID)
	w := httptest.NewRecorder()
	handler.UploadCandidatePhoto(w, req)

	testutil.AssertStatus(t, w, http.StatusServiceUnavailable)
}

func TestGetRegistrationDocument(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	uploads := testutil.NewTestUploads(t, cfg)
	handler := NewElectionHandler(db, cfg, uploads)

	electionID, adminKey, _ := testutil.CreateTestElection(t, db, cfg, models.StatusOpen)
	registrationID, _ := testutil.CreateTestVoter(t, db, electionID, "R-1", models.RegistrationReview)

	get := func() *httptest.ResponseRecorder {
		req := testutil.MakeRequest("GET", "/elections/"+electionID+"/registrations/"+registrationID+"/document", nil, adminHeaders(adminKey))
		req.SetPathValue("id", electionID)
		req.SetPathValue("rid", registrationID)
		w := httptest.NewRecorder()
		handler.GetRegistrationDocument(w, req)
		return w
	}

	testutil.AssertStatus(t, get(), http.StatusNotFound)

	obj, err := uploads.Put(t.Context(), "documents", "application/pdf", strings.NewReader(string(testutil.PDFData)))
	if err != nil {
		t.Fatalf("Failed to store document: %v", err)
	}
	if _, err := db.Exec("UPDATE registration SET document_key = $1 WHERE id = $2", obj.Key, registrationID); err != nil {
		t.Fatalf("Failed to attach document: %v", err)
	}

	w := get()
	testutil.AssertStatus(t, w, http.StatusOK)
	if ct := w.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("Expected application/pdf, got %s", ct)
	}
	if w.Body.String() != string(testutil.PDFData) {
		t.Error("Document body does not match the upload")
	}
}

func TestElectionHandler_ResponsesAreJSON(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewElectionHandler(db, cfg, nil)

	req := testutil.MakeRequest("POST", "/elections", models.CreateElectionRequest{}, nil)
	w := httptest.NewRecorder()
	handler.CreateElection(w, req)

	var resp models.ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Expected JSON error body: %v", err)
	}
	if resp.Error == "" {
		t.Error("Expected error message")
	}
}
