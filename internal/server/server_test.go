package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"cvlens/internal/config"
	"cvlens/internal/errors"
	"cvlens/internal/observability"
	"cvlens/internal/ratelimit"
	"cvlens/internal/types"
)

// stubLimiter records consumed pools and returns a fixed decision
type stubLimiter struct {
	mu       sync.Mutex
	consumed []string
	decision ratelimit.Decision
}

func (s *stubLimiter) Consume(pool, identifier string) ratelimit.Decision {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.consumed = append(s.consumed, pool)
	return s.decision
}

func (s *stubLimiter) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.consumed)
}

func allowingLimiter() *stubLimiter {
	return &stubLimiter{decision: ratelimit.Decision{
		Allowed:    true,
		Limit:      100,
		Remaining:  42,
		ResetAfter: 2 * time.Second,
	}}
}

func denyingLimiter() *stubLimiter {
	return &stubLimiter{decision: ratelimit.Decision{
		Allowed:    false,
		Limit:      3,
		Remaining:  0,
		ResetAfter: 90 * time.Second,
		RetryAfter: 45 * time.Second,
	}}
}

func testConfig() *config.Config {
	timeout := 30 * time.Second
	return &config.Config{
		AI: config.AIConfig{
			Provider:         "mock",
			Model:            "mock",
			Timeout:          timeout,
			Temperature:      0.3,
			MaxOutputTokens:  2048,
			UseSystemPrompts: true,
		},
		App: config.AppConfig{
			LogLevel:         "error",
			Environment:      "test",
			DefaultFormat:    "json",
			SupportedFormats: []string{"json"},
			AnalysisWorkers:  2,
		},
	}
}

func newTestMux(t *testing.T, limiter ratelimit.Consumer) *http.ServeMux {
	t.Helper()

	cfg := testConfig()
	srv := &Server{
		Host:           "127.0.0.1",
		Port:           "0",
		Version:        "test",
		AppConfig:      cfg,
		MaxRequestSize: 10 << 20,
		RateLimit:      &config.RateLimitConfig{Enabled: true},
		Limiter:        limiter,
		Logger:         errors.NewLogger(slog.LevelError),
	}

	om, err := observability.NewObservabilityManager(
		observability.ObservabilityConfig{Enabled: false}, cfg)
	if err != nil {
		t.Fatalf("failed to create observability manager: %v", err)
	}

	return srv.setupRoutes(om)
}

func TestHealthEndpoint(t *testing.T) {
	limiter := allowingLimiter()
	mux := newTestMux(t, limiter)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("X-RateLimit-Remaining"); got != "42" {
		t.Errorf("expected remaining header 42, got %q", got)
	}
	if got := rec.Header().Get("X-RateLimit-Reset"); got != "2000" {
		t.Errorf("reset header should be in milliseconds, got %q", got)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode health body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %v", body["status"])
	}
	if body["environment"] != "test" {
		t.Errorf("expected environment test, got %v", body["environment"])
	}
	rateLimit, ok := body["rateLimit"].(map[string]any)
	if !ok {
		t.Fatalf("expected rateLimit object, got %v", body["rateLimit"])
	}
	if rateLimit["remaining"] != float64(42) {
		t.Errorf("expected remaining 42 in body, got %v", rateLimit["remaining"])
	}
	if limiter.count() != 1 {
		t.Errorf("health should consume the general pool once, got %d", limiter.count())
	}
}

func TestHealthRateLimited(t *testing.T) {
	mux := newTestMux(t, denyingLimiter())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
}

func TestCORSPreflightSkipsRateLimiting(t *testing.T) {
	limiter := allowingLimiter()
	mux := newTestMux(t, limiter)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/analyze", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for preflight, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("expected permissive CORS header on preflight")
	}
	if limiter.count() != 0 {
		t.Errorf("preflight must not consume quota, got %d consumes", limiter.count())
	}
}

func multipartBody(t *testing.T, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for name, content := range files {
		part, err := writer.CreateFormFile("files", name)
		if err != nil {
			t.Fatalf("failed to create form file: %v", err)
		}
		if _, err := part.Write([]byte(content)); err != nil {
			t.Fatalf("failed to write form file: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func TestUploadExtractsText(t *testing.T) {
	mux := newTestMux(t, allowingLimiter())

	body, contentType := multipartBody(t, map[string]string{
		"candidate.txt": "Ten years of Go experience.\nFluent in Spanish.",
	})
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp UploadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode upload response: %v", err)
	}
	if !resp.Success || len(resp.Files) != 1 {
		t.Fatalf("expected one accepted file, got %+v", resp)
	}

	record := resp.Files[0]
	if record.ID == "" {
		t.Error("expected a generated record id")
	}
	if record.Filename != "candidate.txt" {
		t.Errorf("unexpected filename: %q", record.Filename)
	}
	if !strings.Contains(record.ExtractedText, "Go experience") {
		t.Errorf("extracted text should contain file content, got %q", record.ExtractedText)
	}
}

func TestUploadNoFiles(t *testing.T) {
	mux := newTestMux(t, allowingLimiter())

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if err := writer.WriteField("note", "no files here"); err != nil {
		t.Fatalf("failed to write field: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "No files provided") {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	mux := newTestMux(t, allowingLimiter())

	body, contentType := multipartBody(t, map[string]string{
		"malware.exe": "MZ...",
	})
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("all files rejected should yield 400, got %d", rec.Code)
	}

	var resp UploadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode upload response: %v", err)
	}
	if resp.Success || len(resp.Errors) != 1 {
		t.Errorf("expected one per-file error, got %+v", resp)
	}
}

func postJSON(t *testing.T, mux *http.ServeMux, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestParseJobValidation(t *testing.T) {
	mux := newTestMux(t, allowingLimiter())

	t.Run("missing job text", func(t *testing.T) {
		rec := postJSON(t, mux, "/parse-job", ParseJobRequest{JobText: "  "})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("job text too long", func(t *testing.T) {
		rec := postJSON(t, mux, "/parse-job", ParseJobRequest{
			JobText: strings.Repeat("x", MaxJobTextLength+1),
		})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "max 10,000 characters") {
			t.Errorf("unexpected body: %s", rec.Body.String())
		}
	})

	t.Run("limit counts characters not bytes", func(t *testing.T) {
		// 10,000 two-byte runes stay within the limit
		rec := postJSON(t, mux, "/parse-job", ParseJobRequest{
			JobText: strings.Repeat("ñ", MaxJobTextLength),
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("multibyte text at the limit should pass, got %d: %s", rec.Code, rec.Body.String())
		}

		rec = postJSON(t, mux, "/parse-job", ParseJobRequest{
			JobText: strings.Repeat("ñ", MaxJobTextLength+1),
		})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 one rune over the limit, got %d", rec.Code)
		}
	})
}

func TestParseJobWithMockProvider(t *testing.T) {
	mux := newTestMux(t, allowingLimiter())

	rec := postJSON(t, mux, "/parse-job", ParseJobRequest{
		JobText:  "We are hiring a bilingual sales representative in Madrid.",
		Language: "en",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp ParseJobResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode parse-job response: %v", err)
	}
	if !resp.Success || resp.Data.Title == "" {
		t.Errorf("expected parsed job data, got %+v", resp)
	}
}

func TestAnalyzeWithMockProvider(t *testing.T) {
	mux := newTestMux(t, allowingLimiter())

	records := []types.CVRecord{
		{ID: "cv-1", Filename: "alice.pdf", ExtractedText: "Experienced seller"},
		{ID: "cv-2", Filename: "bob.pdf", ExtractedText: "Junior seller"},
	}
	rec := postJSON(t, mux, "/analyze", AnalyzeRequest{
		JobProfile: types.JobProfile{Title: "Sales Rep", Description: "Sell things"},
		CVIDs:      []string{"cv-1", "cv-2", "cv-gone"},
		CVData:     records,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var result types.AnalysisResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to decode analysis result: %v", err)
	}
	if result.TotalCandidates != 3 || len(result.Candidates) != 3 {
		t.Fatalf("expected one entry per requested id, got %+v", result)
	}
	if result.Candidates[0].ID != "cv-1" || result.Candidates[1].ID != "cv-2" {
		t.Error("candidates should keep request order")
	}
	missing := result.Candidates[2]
	if missing.ID != "cv-gone" || missing.OverallScore != 0 {
		t.Errorf("unknown id should yield a zero-score entry, got %+v", missing)
	}
	if missing.Reasoning != "CV data not found" {
		t.Errorf("unexpected reasoning for missing record: %q", missing.Reasoning)
	}
}

func TestAnalyzeRejectsOversizedBatch(t *testing.T) {
	mux := newTestMux(t, allowingLimiter())

	ids := make([]string, 21)
	for i := range ids {
		ids[i] = fmt.Sprintf("cv-%d", i)
	}
	rec := postJSON(t, mux, "/analyze", AnalyzeRequest{
		JobProfile: types.JobProfile{Title: "Sales Rep"},
		CVIDs:      ids,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for oversized batch, got %d", rec.Code)
	}
}

func TestAnalyzeRateLimited(t *testing.T) {
	mux := newTestMux(t, denyingLimiter())

	rec := postJSON(t, mux, "/analyze", AnalyzeRequest{
		JobProfile: types.JobProfile{Title: "Sales Rep"},
		CVIDs:      []string{"cv-1"},
	})
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Analysis rate limit exceeded") {
		t.Errorf("unexpected 429 body: %s", rec.Body.String())
	}
	if got := rec.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Errorf("expected remaining 0, got %q", got)
	}
	if got := rec.Header().Get("X-RateLimit-Reset"); got != "90000" {
		t.Errorf("expected reset 90000 ms, got %q", got)
	}
	if got := rec.Header().Get("Retry-After"); got != "45" {
		t.Errorf("expected Retry-After 45, got %q", got)
	}
}

func TestStatsReportsAIOperations(t *testing.T) {
	mux := newTestMux(t, allowingLimiter())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode stats body: %v", err)
	}

	aiStats, ok := body["ai"].(map[string]any)
	if !ok {
		t.Fatalf("expected ai section, got %v", body["ai"])
	}
	for _, operation := range []string{"screen", "parsejob"} {
		entry, ok := aiStats[operation].(map[string]any)
		if !ok {
			t.Fatalf("expected %s entry, got %v", operation, aiStats[operation])
		}
		model, ok := entry["model"].(map[string]any)
		if !ok {
			t.Fatalf("expected model info for %s, got %v", operation, entry["model"])
		}
		if model["available"] != true {
			t.Errorf("mock model for %s should report available, got %v", operation, model["available"])
		}
		breaker, ok := entry["circuit_breaker"].(map[string]any)
		if !ok {
			t.Fatalf("expected circuit breaker stats for %s, got %v", operation, entry["circuit_breaker"])
		}
		if breaker["enabled"] != false {
			t.Errorf("mock provider has no breaker, expected enabled false, got %v", breaker["enabled"])
		}
	}
}

func TestClientIdentifier(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	if got := clientIdentifier(req); got != "203.0.113.7" {
		t.Errorf("expected first forwarded IP, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = ""
	if got := clientIdentifier(req); got != "anonymous" {
		t.Errorf("expected anonymous fallback, got %q", got)
	}
}
