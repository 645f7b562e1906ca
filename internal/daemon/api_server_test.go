package daemon

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"burnish/internal/api"
	"burnish/internal/testsupport"
	"burnish/internal/transcript"
)

func newSessionServer(t *testing.T) (*apiServer, string) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	session := testsupport.NewSession(t, st, "Example")
	raw := []transcript.RawSegment{
		{Seq: 1, StartMS: 0, EndMS: 2000, SpeakerTag: "Speaker_1", Text: "你 好"},
	}
	testsupport.SeedRawSegments(t, st, session.ID, raw)
	cleaned := []transcript.CleanedSegment{
		{Seq: 1, StartMS: 0, EndMS: 2000, SpeakerKey: "spk:speaker_1", Role: transcript.RoleCoach, RoleOrigin: transcript.OriginAssignment, Text: "你好。", Quality: transcript.QualityCorrected, SourceSeqs: []int{1}},
	}
	if _, err := st.ReplaceCleanedSegments(context.Background(), session.ID, cleaned, len(raw)); err != nil {
		t.Fatalf("seed cleaned segments: %v", err)
	}
	return &apiServer{sessionSvc: api.NewSessionService(st)}, session.ID
}

func TestAPIServerHandleSessions(t *testing.T) {
	srv, _ := newSessionServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions", nil)
	w := httptest.NewRecorder()
	srv.handleSessions(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}
	var resp api.SessionListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(resp.Sessions))
	}
	if resp.Sessions[0].Title != "Example" {
		t.Fatalf("unexpected title: %q", resp.Sessions[0].Title)
	}
}

func TestAPIServerSessionSubtreeRouting(t *testing.T) {
	srv, id := newSessionServer(t)

	get := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		srv.handleSessionSubtree(w, req)
		return w
	}

	if w := get("/api/sessions/" + id); w.Code != http.StatusOK {
		t.Fatalf("detail: expected 200, got %d", w.Code)
	}
	if w := get("/api/sessions/" + id + "/transcript"); w.Code != http.StatusOK {
		t.Fatalf("transcript: expected 200, got %d", w.Code)
	} else {
		var resp api.TranscriptResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode transcript: %v", err)
		}
		if len(resp.Segments) != 1 || resp.Segments[0].Role != "coach" {
			t.Fatalf("unexpected transcript: %+v", resp)
		}
	}
	if w := get("/api/sessions/no-such-id"); w.Code != http.StatusNotFound {
		t.Fatalf("missing session: expected 404, got %d", w.Code)
	}
	if w := get("/api/sessions/" + id + "/bogus"); w.Code != http.StatusNotFound {
		t.Fatalf("unknown child: expected 404, got %d", w.Code)
	}
}

func TestAPIServerOverrideAndEdit(t *testing.T) {
	srv, id := newSessionServer(t)

	post := func(path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		w := httptest.NewRecorder()
		srv.handleSessionSubtree(w, req)
		return w
	}

	if w := post("/api/sessions/"+id+"/override", `{"segmentSeq":1,"role":"client"}`); w.Code != http.StatusOK {
		t.Fatalf("override: expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	if w := post("/api/sessions/"+id+"/override", `{"segmentSeq":1,"role":"referee"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("bad role: expected 400, got %d", w.Code)
	}
	if w := post("/api/sessions/"+id+"/segments/1/text", `{"text":"你好嗎？"}`); w.Code != http.StatusOK {
		t.Fatalf("edit: expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	if w := post("/api/sessions/"+id+"/segments/zero/text", `{"text":"x"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("bad seq: expected 400, got %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/sessions/"+id, nil)
	w := httptest.NewRecorder()
	srv.handleSessionSubtree(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", w.Code)
	}
}

func TestAuthMiddleware(t *testing.T) {
	handler := authMiddleware("secret", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/sessions", nil)
	w := httptest.NewRecorder()
	handler(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/sessions", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w = httptest.NewRecorder()
	handler(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong token, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/sessions", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w = httptest.NewRecorder()
	handler(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with valid token, got %d", w.Code)
	}

	open := authMiddleware("", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	req = httptest.NewRequest(http.MethodGet, "/api/sessions", nil)
	w = httptest.NewRecorder()
	open(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with no token configured, got %d", w.Code)
	}
}
