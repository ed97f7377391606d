package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"docqa/internal/domain"
	"docqa/internal/log"
)

// stubRunner returns canned answers or a canned error.
type stubRunner struct {
	answers []string
	err     error
	gotDoc  string
	gotQs   []string
}

func (r *stubRunner) Run(_ context.Context, doc string, questions []string) ([]string, error) {
	r.gotDoc = doc
	r.gotQs = questions
	if r.err != nil {
		return nil, r.err
	}
	if r.answers != nil {
		return r.answers, nil
	}
	out := make([]string, len(questions))
	for i, q := range questions {
		out[i] = "answer: " + q
	}
	return out, nil
}

func newTestServer(runner Runner, token string) http.Handler {
	return NewServer(runner, token, log.NewNop()).Handler()
}

func postRun(t *testing.T, h http.Handler, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case string:
		buf.WriteString(b)
	default:
		if err := json.NewEncoder(&buf).Encode(b); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/run", &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRun_HappyPath(t *testing.T) {
	runner := &stubRunner{}
	h := newTestServer(runner, "secret")

	rec := postRun(t, h, "secret", RunRequest{
		Documents: "The grace period is thirty days.",
		Questions: []string{"What is the grace period?", "Is there a waiting period?"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp RunResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Answers) != 2 {
		t.Fatalf("expected 2 answers, got %d", len(resp.Answers))
	}
	if resp.Answers[0] != "answer: What is the grace period?" {
		t.Fatalf("unexpected first answer %q", resp.Answers[0])
	}
	if len(runner.gotQs) != 2 {
		t.Fatalf("runner received %d questions", len(runner.gotQs))
	}
}

func TestRun_RequiresAuth(t *testing.T) {
	h := newTestServer(&stubRunner{}, "secret")

	rec := postRun(t, h, "", RunRequest{Documents: "doc", Questions: []string{"q"}})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	rec = postRun(t, h, "wrong", RunRequest{Documents: "doc", Questions: []string{"q"}})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong token, got %d", rec.Code)
	}
}

func TestRun_EmptyTokenDisablesAuth(t *testing.T) {
	h := newTestServer(&stubRunner{}, "")
	rec := postRun(t, h, "", RunRequest{Documents: "doc", Questions: []string{"q"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with auth disabled, got %d", rec.Code)
	}
}

func TestRun_BadRequests(t *testing.T) {
	h := newTestServer(&stubRunner{}, "")
	tests := []struct {
		name string
		body any
	}{
		{"invalid json", "{not json"},
		{"missing document", RunRequest{Questions: []string{"q"}}},
		{"no questions", RunRequest{Documents: "doc"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postRun(t, h, "", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestRun_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantKind   string
	}{
		{"document error", fmt.Errorf("%w: download failed", domain.ErrDocument), http.StatusBadRequest, "document_error"},
		{"embedding error", fmt.Errorf("%w: both embedders failed", domain.ErrEmbedding), http.StatusInternalServerError, "embedding_error"},
		{"other error", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(&stubRunner{err: tt.err}, "")
			rec := postRun(t, h, "", RunRequest{Documents: "doc", Questions: []string{"q"}})
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
			var resp ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode error response: %v", err)
			}
			if resp.Error != tt.wantKind {
				t.Fatalf("expected kind %q, got %q", tt.wantKind, resp.Error)
			}
		})
	}
}

func TestRun_AnswerCountMismatchIs500(t *testing.T) {
	h := newTestServer(&stubRunner{answers: []string{"only one"}}, "")
	rec := postRun(t, h, "", RunRequest{Documents: "doc", Questions: []string{"a", "b"}})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 for answer count mismatch, got %d", rec.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	h := newTestServer(&stubRunner{}, "secret")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "ok") {
		t.Fatalf("health probe failed: %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("readiness probe failed: %d", rec.Code)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	s := NewServer(&stubRunner{}, "", log.NewNop())
	panicking := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") })
	h := chain(panicking, s.recoveryMiddleware)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 from recovered panic, got %d", rec.Code)
	}
}
