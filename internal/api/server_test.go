package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"async-job-dispatcher/internal/config"
	"async-job-dispatcher/internal/lifecycle"
	"async-job-dispatcher/internal/models"
)

type stubManager struct {
	submitJob   models.Job
	submitErr   error
	submitCalls int
	lastDelay   int

	completeRes  lifecycle.CompleteResult
	completeErr  error
	completeID   string
	completeCall int
}

func (m *stubManager) Submit(_ context.Context, delay int) (models.Job, error) {
	m.submitCalls++
	m.lastDelay = delay
	return m.submitJob, m.submitErr
}

func (m *stubManager) Complete(_ context.Context, jobID string) (lifecycle.CompleteResult, error) {
	m.completeCall++
	m.completeID = jobID
	return m.completeRes, m.completeErr
}

type stubReader struct {
	job   models.Job
	found bool
	err   error
}

func (r stubReader) GetJob(_ context.Context, _ string) (models.Job, bool, error) {
	return r.job, r.found, r.err
}

func newTestServer(m *stubManager, jr stubReader) *Server {
	return New(config.Load(), m, jr, nil)
}

func doRequest(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var out map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return out
}

func TestSubmitAccepted(t *testing.T) {
	m := &stubManager{submitJob: models.Job{ID: "abc-123", Status: models.StatusActive, SubmittedAt: time.Now()}}
	rec := doRequest(t, newTestServer(m, stubReader{}), http.MethodPost, "/jobs", `{"delay": 7}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["message"] != "Job submitted successfully" {
		t.Fatalf("unexpected message: %q", body["message"])
	}
	if body["id"] != "abc-123" {
		t.Fatalf("accept response must surface the job id, got %q", body["id"])
	}
	if m.lastDelay != 7 {
		t.Fatalf("delay not forwarded: %d", m.lastDelay)
	}
}

func TestSubmitMissingDelay(t *testing.T) {
	for _, body := range []string{`{}`, `{"wait": 3}`, `not json`} {
		m := &stubManager{}
		rec := doRequest(t, newTestServer(m, stubReader{}), http.MethodPost, "/jobs", body)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %q: expected 400, got %d", body, rec.Code)
		}
		got := decodeBody(t, rec)
		if got["error"] != "payload sent is unexpected, expects: {'delay': int}" {
			t.Fatalf("body %q: unexpected error message %q", body, got["error"])
		}
		if m.submitCalls != 0 {
			t.Fatalf("body %q: manager invoked on invalid input", body)
		}
	}
}

func TestSubmitLimitReached(t *testing.T) {
	m := &stubManager{submitErr: fmt.Errorf("%w: 5 active", lifecycle.ErrLimitReached)}
	rec := doRequest(t, newTestServer(m, stubReader{}), http.MethodPost, "/jobs", `{"delay": 1}`)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if got := decodeBody(t, rec)["message"]; got != "Too many concurrent requests. Try again later." {
		t.Fatalf("unexpected message: %q", got)
	}
}

func TestSubmitStoreFailure(t *testing.T) {
	m := &stubManager{submitErr: fmt.Errorf("%w: connection refused", lifecycle.ErrStoreUnavailable)}
	rec := doRequest(t, newTestServer(m, stubReader{}), http.MethodPost, "/jobs", `{"delay": 1}`)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if got := decodeBody(t, rec)["error"]; got != "something went wrong" {
		t.Fatalf("internal details leaked: %q", got)
	}
}

func TestSubmitDelayZeroAccepted(t *testing.T) {
	m := &stubManager{submitJob: models.Job{ID: "zero"}}
	rec := doRequest(t, newTestServer(m, stubReader{}), http.MethodPost, "/jobs", `{"delay": 0}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("delay 0 must be a valid payload, got %d", rec.Code)
	}
}

func TestCompleteApplied(t *testing.T) {
	m := &stubManager{completeRes: lifecycle.CompleteResult{Updated: true, Found: true}}
	rec := doRequest(t, newTestServer(m, stubReader{}), http.MethodPost, "/jobs/abc-123/complete", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := decodeBody(t, rec)["message"]; got != "Job status updated to COMPLETED" {
		t.Fatalf("unexpected message: %q", got)
	}
	if m.completeID != "abc-123" {
		t.Fatalf("id not forwarded: %q", m.completeID)
	}
}

func TestCompleteDuplicateIsOK(t *testing.T) {
	m := &stubManager{completeRes: lifecycle.CompleteResult{Updated: false, Found: true}}
	rec := doRequest(t, newTestServer(m, stubReader{}), http.MethodPost, "/jobs/abc-123/complete", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("duplicate completion must stay 200, got %d", rec.Code)
	}
}

func TestCompleteUnknownJob(t *testing.T) {
	m := &stubManager{completeRes: lifecycle.CompleteResult{}}
	rec := doRequest(t, newTestServer(m, stubReader{}), http.MethodPost, "/jobs/ghost/complete", "")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestCompleteInvalidID(t *testing.T) {
	m := &stubManager{completeErr: fmt.Errorf("%w: missing job id", lifecycle.ErrInvalidInput)}
	rec := doRequest(t, newTestServer(m, stubReader{}), http.MethodPost, "/jobs/%20/complete", "")

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if got := decodeBody(t, rec)["message"]; got != "Invalid id parameter" {
		t.Fatalf("unexpected message: %q", got)
	}
}

func TestCompleteStoreFailure(t *testing.T) {
	m := &stubManager{completeErr: fmt.Errorf("%w: timeout", lifecycle.ErrStoreUnavailable)}
	rec := doRequest(t, newTestServer(m, stubReader{}), http.MethodPost, "/jobs/abc/complete", "")

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestGetJob(t *testing.T) {
	job := models.Job{ID: "abc", Status: models.StatusCompleted, SubmittedAt: time.Now().UTC()}
	rec := doRequest(t, newTestServer(&stubManager{}, stubReader{job: job, found: true}), http.MethodGet, "/jobs/abc", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got models.Job
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != "abc" || got.Status != models.StatusCompleted {
		t.Fatalf("unexpected job: %+v", got)
	}
}

func TestGetJobNotFound(t *testing.T) {
	rec := doRequest(t, newTestServer(&stubManager{}, stubReader{}), http.MethodGet, "/jobs/ghost", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
