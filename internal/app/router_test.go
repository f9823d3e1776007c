package app

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"mockexam/internal/auth"
	"mockexam/internal/exam"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

type envelope struct {
	OK    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Meta struct {
		RequestID string `json:"request_id"`
	} `json:"meta"`
}

func newTestRouter(t *testing.T, cfg Config) http.Handler {
	t.Helper()
	catalog, err := exam.NewCatalog(exam.DemoExams()...)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	if cfg.RateLimitPerMinute == 0 {
		cfg.RateLimitPerMinute = 100
	}
	router, err := NewRouter(cfg, nil, catalog, logger)
	if err != nil {
		t.Fatalf("new router: %v", err)
	}
	return router
}

func call(t *testing.T, h http.Handler, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			t.Fatalf("%s %s: decode envelope: %v", method, target, err)
		}
	}
	return w, env
}

func TestRouterPublicRoutes(t *testing.T) {
	router := newTestRouter(t, Config{})

	tests := []struct {
		name       string
		method     string
		target     string
		wantStatus int
	}{
		{name: "healthz", method: http.MethodGet, target: "/healthz", wantStatus: http.StatusOK},
		{name: "metrics", method: http.MethodGet, target: "/metrics", wantStatus: http.StatusOK},
		{name: "exams", method: http.MethodGet, target: "/api/v1/exams", wantStatus: http.StatusOK},
		{name: "exam detail", method: http.MethodGet, target: "/api/v1/exams/mock1", wantStatus: http.StatusOK},
		{name: "unknown exam", method: http.MethodGet, target: "/api/v1/exams/mock9", wantStatus: http.StatusNotFound},
		{name: "bad attempt id", method: http.MethodGet, target: "/api/v1/attempts/123", wantStatus: http.StatusBadRequest},
		{name: "admin disabled", method: http.MethodGet, target: "/api/v1/admin/contact", wantStatus: http.StatusForbidden},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w, _ := call(t, router, tc.method, tc.target, "")
			if w.Code != tc.wantStatus {
				t.Fatalf("%s %s: got status %d, want %d", tc.method, tc.target, w.Code, tc.wantStatus)
			}
		})
	}
}

func TestRouterAttemptFlow(t *testing.T) {
	router := newTestRouter(t, Config{})

	w, env := call(t, router, http.MethodPost, "/api/v1/attempts", `{"exam_slug":"mock1","candidate":"Ada"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("start: got %d: %s", w.Code, w.Body.String())
	}
	if env.Meta.RequestID == "" {
		t.Fatalf("expected request id in envelope meta")
	}
	var attempt struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &attempt); err != nil {
		t.Fatalf("decode attempt: %v", err)
	}
	base := "/api/v1/attempts/" + attempt.ID

	answers := map[string]string{
		"1": `{"answer_payload":{"selected":[0,2,5]}}`,
		"2": `{"answer_payload":{"selected":[1,2,5]}}`,
		"4": `{"answer_payload":{"selected":4}}`,
	}
	for qid, body := range answers {
		if w, _ := call(t, router, http.MethodPut, base+"/answers/"+qid, body); w.Code != http.StatusOK {
			t.Fatalf("save %s: got %d: %s", qid, w.Code, w.Body.String())
		}
	}
	if w, _ := call(t, router, http.MethodPut, base+"/answers/4", `{"answer_payload":{"selected":99}}`); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for out-of-range option, got %d", w.Code)
	}

	if w, _ := call(t, router, http.MethodGet, base+"/result", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 before submit, got %d", w.Code)
	}

	w, env = call(t, router, http.MethodPost, base+"/submit", "")
	if w.Code != http.StatusOK {
		t.Fatalf("submit: got %d: %s", w.Code, w.Body.String())
	}
	var summary exam.AttemptSummary
	if err := json.Unmarshal(env.Data, &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if summary.Report == nil || summary.Report.Correct != 3 || summary.Report.Total != 5 {
		t.Fatalf("expected 3/5, got %+v", summary.Report)
	}
	if summary.Percent != 60 || summary.Band != "good" {
		t.Fatalf("unexpected percent/band %d %s", summary.Percent, summary.Band)
	}

	if w, _ := call(t, router, http.MethodPut, base+"/answers/3", `{"answer_payload":{"selected":[0]}}`); w.Code != http.StatusConflict {
		t.Fatalf("expected 409 after submit, got %d", w.Code)
	}

	w, env = call(t, router, http.MethodGet, base+"/result", "")
	if w.Code != http.StatusOK {
		t.Fatalf("result: got %d", w.Code)
	}
	var result exam.AttemptResult
	if err := json.Unmarshal(env.Data, &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if len(result.Items) != 5 || result.Items[2].Reason != "unanswered" {
		t.Fatalf("unexpected review items: %+v", result.Items)
	}

	w, _ = call(t, router, http.MethodGet, base+"/result.xlsx", "")
	if w.Code != http.StatusOK || !bytes.HasPrefix(w.Body.Bytes(), []byte("PK")) {
		t.Fatalf("expected xlsx download, got %d", w.Code)
	}

	w, _ = call(t, router, http.MethodGet, "/metrics", "")
	if !strings.Contains(w.Body.String(), `mockexam_attempts_scored_total{exam="mock1"} 1`) {
		t.Fatalf("expected scored attempt in metrics:\n%s", w.Body.String())
	}

	w, env = call(t, router, http.MethodPost, base+"/retake", "")
	if w.Code != http.StatusOK {
		t.Fatalf("retake: got %d", w.Code)
	}
	summary = exam.AttemptSummary{}
	if err := json.Unmarshal(env.Data, &summary); err != nil {
		t.Fatalf("decode retake: %v", err)
	}
	if summary.Status != exam.StatusInProgress || summary.Answered != 0 {
		t.Fatalf("unexpected retake summary: %+v", summary)
	}
}

func TestRouterSubmitLocked(t *testing.T) {
	router := newTestRouter(t, Config{SubmitLocked: true})

	_, env := call(t, router, http.MethodPost, "/api/v1/attempts", `{"exam_slug":"python-basics"}`)
	var attempt struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(env.Data, &attempt)

	w, env := call(t, router, http.MethodPost, "/api/v1/attempts/"+attempt.ID+"/submit", "")
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
	if env.Error == nil || env.Error.Code != "forbidden" {
		t.Fatalf("unexpected error envelope: %+v", env.Error)
	}
}

func TestRouterContactAndAdmin(t *testing.T) {
	token := "operator-token-0123456789"
	hash, err := auth.HashToken(token, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	router := newTestRouter(t, Config{AdminTokenHash: hash, RateLimitPerMinute: 1})

	w, _ := call(t, router, http.MethodPost, "/api/v1/contact", `{"name":"Ada","email":"ada@example.com","message":"full access please"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("contact: got %d: %s", w.Code, w.Body.String())
	}
	w, _ = call(t, router, http.MethodPost, "/api/v1/contact", `{"name":"Ada","email":"ada@example.com","message":"again"}`)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected rate limit on second contact, got %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/contact", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin list: got %d", rec.Code)
	}
	var env envelope
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	var items []map[string]any
	if err := json.Unmarshal(env.Data, &items); err != nil || len(items) != 1 {
		t.Fatalf("expected one contact request, got %s", env.Data)
	}
}

func TestRouterCSRFEnforced(t *testing.T) {
	router := newTestRouter(t, Config{CSRFEnforced: true})
	w, _ := call(t, router, http.MethodPost, "/api/v1/attempts", `{"exam_slug":"mock1"}`)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without csrf token, got %d", w.Code)
	}
	if w, _ := call(t, router, http.MethodGet, "/api/v1/exams", ""); w.Code != http.StatusOK {
		t.Fatalf("reads must not need csrf, got %d", w.Code)
	}
}

func TestNewRouterRejectsBadHash(t *testing.T) {
	catalog, _ := exam.NewCatalog()
	if _, err := NewRouter(Config{AdminTokenHash: "not-bcrypt"}, nil, catalog, nil); err == nil {
		t.Fatalf("expected error for malformed admin hash")
	}
}
