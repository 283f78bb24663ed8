package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"teamrat-service/internal/app"
	"teamrat-service/internal/infra/memory"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store := memory.NewStore()
	service := app.NewRATService(store, store)
	handler := NewHandler(service, slog.New(slog.NewTextHandler(io.Discard, nil)))
	server := httptest.NewServer(handler.Routes())
	t.Cleanup(server.Close)
	return server
}

func postJSON(t *testing.T, url string, body any, out any) int {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return resp.StatusCode
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("get %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return resp.StatusCode
}

func TestCreateGrabUncoverFlow(t *testing.T) {
	server := newTestServer(t)

	var created createResponse
	status := postJSON(t, server.URL+"/api/rats", createRequest{
		Label:        "Unit 3 RAT",
		Teams:        2,
		Questions:    2,
		Alternatives: 4,
		Solution:     "BC",
		Creator:      "teacher@example.org",
	}, &created)
	if status != http.StatusCreated {
		t.Fatalf("expected 201, got %d", status)
	}
	if created.PrivateID == "" || len(created.PublicID) != 5 {
		t.Fatalf("unexpected create response %+v", created)
	}

	// Students see teams and colors, not card ids.
	var student studentView
	if status := getJSON(t, server.URL+"/api/rats/"+created.PublicID, &student); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if len(student.Teams) != 2 || student.Teams[0].Grabbed {
		t.Fatalf("unexpected student view %+v", student)
	}

	var grabbed grabResponse
	if status := postJSON(t, server.URL+"/api/rats/"+created.PublicID+"/grab/1", nil, &grabbed); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if grabbed.CardID == "" {
		t.Fatalf("expected card id")
	}

	// A second grab for the same team loses the race.
	if status := postJSON(t, server.URL+"/api/rats/"+created.PublicID+"/grab/1", nil, nil); status != http.StatusConflict {
		t.Fatalf("expected 409, got %d", status)
	}

	var card cardView
	status = postJSON(t, server.URL+"/api/cards/"+grabbed.CardID+"/uncover", uncoverRequest{
		Question:    1,
		Alternative: "B",
	}, &card)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if !card.Questions[0].Finished {
		t.Fatalf("expected finished question, got %+v", card.Questions[0])
	}

	var teacher teacherView
	if status := getJSON(t, server.URL+"/api/teacher/"+created.PrivateID, &teacher); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if len(teacher.Rows) != 2 || teacher.Rows[0][3] != "OK" {
		t.Fatalf("unexpected status rows %v", teacher.Rows)
	}
}

func TestCardViewHidesCoveredCorrectness(t *testing.T) {
	server := newTestServer(t)

	var created createResponse
	postJSON(t, server.URL+"/api/rats", createRequest{
		Teams: 1, Questions: 1, Alternatives: 4, Solution: "B",
	}, &created)
	var grabbed grabResponse
	postJSON(t, server.URL+"/api/rats/"+created.PublicID+"/grab/1", nil, &grabbed)

	// Query-style uncover, like following a scratch link.
	var card cardView
	status := getJSON(t, server.URL+"/api/cards/"+grabbed.CardID+"?question=1&alternative=A", &card)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	for _, answer := range card.Questions[0].Answers {
		switch {
		case answer.Symbol == "A":
			if answer.Correct == nil || *answer.Correct {
				t.Fatalf("uncovered wrong tile must report correct=false, got %+v", answer)
			}
		case answer.Correct != nil:
			t.Fatalf("covered tile %s leaks correctness", answer.Symbol)
		}
	}
}

func TestErrorStatusCodes(t *testing.T) {
	server := newTestServer(t)

	if status := getJSON(t, server.URL+"/api/rats/ZZZZZ", nil); status != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", status)
	}
	if status := getJSON(t, server.URL+"/api/cards/unknown", nil); status != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", status)
	}
	if status := postJSON(t, server.URL+"/api/rats", createRequest{
		Teams: 2, Questions: 3, Alternatives: 4, Solution: "AB",
	}, nil); status != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad solution, got %d", status)
	}
}

func TestDownloadAttachment(t *testing.T) {
	server := newTestServer(t)

	var created createResponse
	postJSON(t, server.URL+"/api/rats", createRequest{
		Teams: 2, Questions: 2, Alternatives: 4, Solution: "AB",
	}, &created)

	resp, err := http.Get(fmt.Sprintf("%s/api/teacher/%s/download?format=string", server.URL, created.PrivateID))
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if cd := resp.Header.Get("Content-Disposition"); cd != `attachment; filename="trat.txt"` {
		t.Fatalf("unexpected content disposition %q", cd)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if string(body) != "1/--\n2/--" {
		t.Fatalf("unexpected download body %q", body)
	}
}
