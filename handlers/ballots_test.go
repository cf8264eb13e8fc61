// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/danielhkuo/rollcall/metrics"
	"github.com/danielhkuo/rollcall/models"
	"github.com/danielhkuo/rollcall/testutil"
)

func submitBallot(h *VotingHandler, slug, token, candidateID string) *httptest.ResponseRecorder {
	headers := map[string]string{}
	if token != "" {
		headers["X-Voter-Token"] = token
	}
	req := testutil.MakeRequest("POST", "/elections/"+slug+"/ballots",
		models.SubmitBallotRequest{CandidateID: candidateID}, headers)
	req.SetPathValue("slug", slug)
	w := httptest.NewRecorder()
	h.SubmitBallot(w, req)
	return w
}

func TestSubmitBallot(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewVotingHandler(db, cfg, nil)

	electionID, _, slug := testutil.CreateTestElection(t, db, cfg, models.StatusOpen)
	meera := testutil.AddTestCandidate(t, db, electionID, "Meera Nair")
	testutil.AddTestCandidate(t, db, electionID, "Ravi Kumar")

	_, verifiedToken := testutil.CreateTestVoter(t, db, electionID, "V-1", models.RegistrationVerified)
	_, approvedToken := testutil.CreateTestVoter(t, db, electionID, "V-2", models.RegistrationApproved)

	otherID, _, _ := testutil.CreateTestElection(t, db, cfg, models.StatusOpen)
	foreignCandidate := testutil.AddTestCandidate(t, db, otherID, "Someone Else")
	_, foreignToken := testutil.CreateTestVoter(t, db, otherID, "V-3", models.RegistrationVerified)

	tests := []struct {
		name           string
		token          string
		candidateID    string
		expectedStatus int
	}{
		{"verified voter", verifiedToken, meera, http.StatusCreated},
		{"approved voter", approvedToken, meera, http.StatusCreated},
		{"missing token", "", meera, http.StatusUnauthorized},
		{"unknown token", "not-a-token", meera, http.StatusUnauthorized},
		{"token from another election", foreignToken, meera, http.StatusUnauthorized},
		{"missing candidate", verifiedToken, "", http.StatusBadRequest},
		{"candidate from another election", verifiedToken, foreignCandidate, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := submitBallot(handler, slug, tt.token, tt.candidateID)
			testutil.AssertStatus(t, w, tt.expectedStatus)

			if tt.expectedStatus == http.StatusCreated {
				var resp models.SubmitBallotResponse
				testutil.AssertJSON(t, w, &resp)
				if resp.BallotID == "" {
					t.Error("Expected ballot_id in response")
				}
			}
		})
	}
}

func TestSubmitBallot_UnapprovedRegistration(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewVotingHandler(db, cfg, nil)

	electionID, _, slug := testutil.CreateTestElection(t, db, cfg, models.StatusOpen)
	candidateID := testutil.AddTestCandidate(t, db, electionID, "Meera Nair")
	registrationID, token := testutil.CreateTestVoter(t, db, electionID, "V-1", models.RegistrationApproved)

	// An approval that is later withdrawn stops the token from voting
	if _, err := db.Exec("UPDATE registration SET status = $1 WHERE id = $2", models.RegistrationReview, registrationID); err != nil {
		t.Fatalf("Failed to update registration: %v", err)
	}

	testutil.AssertStatus(t, submitBallot(handler, slug, token, candidateID), http.StatusUnauthorized)
}

func TestSubmitBallot_ChangeVote(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	m := metrics.New()
	handler := NewVotingHandler(db, cfg, m)

	electionID, _, slug := testutil.CreateTestElection(t, db, cfg, models.StatusOpen)
	meera := testutil.AddTestCandidate(t, db, electionID, "Meera Nair")
	ravi := testutil.AddTestCandidate(t, db, electionID, "Ravi Kumar")
	_, token := testutil.CreateTestVoter(t, db, electionID, "V-1", models.RegistrationVerified)

	w := submitBallot(handler, slug, token, meera)
	testutil.AssertStatus(t, w, http.StatusCreated)
	var first models.SubmitBallotResponse
	testutil.AssertJSON(t, w, &first)
	if first.Message != "Ballot submitted successfully" {
		t.Errorf("Unexpected message: %s", first.Message)
	}

	w = submitBallot(handler, slug, token, ravi)
	testutil.AssertStatus(t, w, http.StatusCreated)
	var second models.SubmitBallotResponse
	testutil.AssertJSON(t, w, &second)
	if second.Message != "Ballot updated successfully" {
		t.Errorf("Unexpected message: %s", second.Message)
	}
	if second.BallotID != first.BallotID {
		t.Errorf("Expected the same ballot to be updated, got %s and %s", first.BallotID, second.BallotID)
	}

	var count int
	var candidateID string
	db.QueryRow("SELECT COUNT(*) FROM ballot WHERE election_id = $1", electionID).Scan(&count)
	db.QueryRow("SELECT candidate_id FROM ballot WHERE election_id = $1", electionID).Scan(&candidateID)
	if count != 1 {
		t.Errorf("Expected 1 ballot, got %d", count)
	}
	if candidateID != ravi {
		t.Errorf("Expected vote for %s, got %s", ravi, candidateID)
	}

	if got := promtest.ToFloat64(m.Ballots.WithLabelValues("new")); got != 1 {
		t.Errorf("Expected 1 new ballot counted, got %v", got)
	}
	if got := promtest.ToFloat64(m.Ballots.WithLabelValues("changed")); got != 1 {
		t.Errorf("Expected 1 changed ballot counted, got %v", got)
	}
}

func TestSubmitBallot_ElectionNotOpen(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewVotingHandler(db, cfg, nil)

	electionID, _, slug := testutil.CreateTestElection(t, db, cfg, models.StatusClosed)
	candidateID := testutil.AddTestCandidate(t, db, electionID, "Meera Nair")
	_, token := testutil.CreateTestVoter(t, db, electionID, "V-1", models.RegistrationVerified)

	testutil.AssertStatus(t, submitBallot(handler, slug, token, candidateID), http.StatusConflict)
	testutil.AssertStatus(t, submitBallot(handler, "no-such-election", token, candidateID), http.StatusNotFound)
}

func TestGetMyBallot(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewVotingHandler(db, cfg, nil)

	electionID, _, slug := testutil.CreateTestElection(t, db, cfg, models.StatusOpen)
	candidateID := testutil.AddTestCandidate(t, db, electionID, "Meera Nair")
	_, token := testutil.CreateTestVoter(t, db, electionID, "V-1", models.RegistrationVerified)
	_, silentToken := testutil.CreateTestVoter(t, db, electionID, "V-2", models.RegistrationVerified)
	testutil.SubmitTestBallot(t, db, electionID, token, candidateID)

	get := func(token string) *httptest.ResponseRecorder {
		headers := map[string]string{}
		if token != "" {
			headers["X-Voter-Token"] = token
		}
		req := testutil.MakeRequest("GET", "/elections/"+slug+"/my-ballot", nil, headers)
		req.SetPathValue("slug", slug)
		w := httptest.NewRecorder()
		handler.GetMyBallot(w, req)
		return w
	}

	w := get(token)
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.MyBallotResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.CandidateID != candidateID || resp.CandidateName != "Meera Nair" {
		t.Errorf("Unexpected ballot: %+v", resp)
	}

	testutil.AssertStatus(t, get(silentToken), http.StatusNotFound)
	testutil.AssertStatus(t, get(""), http.StatusUnauthorized)
}
