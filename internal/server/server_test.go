package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"atsscorer/internal/auth"
	"atsscorer/internal/config"
	"atsscorer/internal/errors"
	"atsscorer/internal/scoring"
	"atsscorer/internal/types"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testResume = `{
  "personalInfo": {"fullName": "Ada Lovelace", "email": "ada@example.com"},
  "summary": "Backend engineer building Go services",
  "workHistory": [{
    "title": "Engineer", "company": "Analytical", "startDate": "2020-01", "isCurrent": true,
    "achievements": ["Led migration that cut costs 30%", "Built Go services handling 2M requests per day"]
  }],
  "education": [{"institution": "Cambridge", "degree": "BSc", "startDate": "2014-09", "endDate": "2017-06"}],
  "skills": ["Go", "SQL"]
}`

func newTestServer(t *testing.T, mutate func(*config.Config)) *Server {
	t.Helper()

	scorer, err := scoring.New()
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Server.MaxRequestSize = 1 << 20
	cfg.Scoring.BatchConcurrency = 2
	if mutate != nil {
		mutate(cfg)
	}

	s, err := NewServer(cfg, "test", Deps{Scorer: scorer}, errors.NewDiscard())
	require.NoError(t, err)
	t.Cleanup(s.cleanupRateLimiter)
	return s
}

func do(t *testing.T, h http.Handler, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealthHandler(t *testing.T) {
	h := newTestServer(t, nil).Handler()

	rec := do(t, h, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[map[string]any](t, rec)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "atsscorer", body["service"])
	assert.Equal(t, "test", body["version"])
	assert.Equal(t, map[string]any{"enabled": false}, body["ai_models"])
}

func TestStatsHandler(t *testing.T) {
	h := newTestServer(t, func(c *config.Config) {
		c.Server.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerMin: 60, BurstCapacity: 5, ByIP: true}
	}).Handler()

	rec := do(t, h, http.MethodGet, "/stats", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[map[string]any](t, rec)
	limiting, ok := body["rate_limiting"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 5, limiting["burst_capacity"])

	scoringInfo, ok := body["scoring"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, scoringInfo, "weights")
}

func TestScoreHandler(t *testing.T) {
	h := newTestServer(t, nil).Handler()

	tests := []struct {
		name     string
		body     string
		noType   bool
		wantCode int
		wantErr  string
	}{
		{
			name:     "explicit keywords",
			body:     fmt.Sprintf(`{"resume": %s, "targetKeywords": ["Go", "Kubernetes"]}`, testResume),
			wantCode: http.StatusOK,
		},
		{
			name:     "resume is not an object",
			body:     `{"resume": "Ada"}`,
			wantCode: http.StatusBadRequest,
			wantErr:  errors.ErrCodeInvalidInputShape,
		},
		{
			name:     "missing resume",
			body:     `{"jobDescription": "Go"}`,
			wantCode: http.StatusBadRequest,
			wantErr:  errors.ErrCodeInvalidInputShape,
		},
		{
			name:     "wrong content type",
			body:     fmt.Sprintf(`{"resume": %s}`, testResume),
			noType:   true,
			wantCode: http.StatusBadRequest,
			wantErr:  errors.ErrCodeInvalidRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := map[string]string{}
			if tt.noType {
				header["Content-Type"] = "text/plain"
			}
			rec := do(t, h, http.MethodPost, "/v1/score", tt.body, header)
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())

			if tt.wantErr != "" {
				assert.Equal(t, tt.wantErr, decode[ErrorResponse](t, rec).Code)
				return
			}

			report := decode[types.ScoreReport](t, rec)
			assert.GreaterOrEqual(t, report.OverallScore, 0)
			assert.LessOrEqual(t, report.OverallScore, 100)
			assert.Equal(t, []string{"Go"}, report.Details.MatchedKeywords)
			assert.Equal(t, []string{"Kubernetes"}, report.Details.MissingKeywords)
			assert.Equal(t, 50, report.Breakdown.Keywords)
		})
	}
}

func TestScoreHandlerScoresDegradedDocuments(t *testing.T) {
	h := newTestServer(t, nil).Handler()

	tests := []struct {
		name      string
		resume    string
		wantIssue string
	}{
		{
			name:      "invalid email",
			resume:    `{"personalInfo": {"fullName": "Ada Lovelace", "email": "ada-at-example"}}`,
			wantIssue: "Use a valid email address",
		},
		{
			name: "end date before start date",
			resume: `{"personalInfo": {"fullName": "Ada Lovelace", "email": "ada@example.com"},
				"workHistory": [{"title": "Engineer", "company": "Analytical", "startDate": "2021-05", "endDate": "2020-01"}]}`,
			wantIssue: "Fix the date range for Engineer at Analytical",
		},
		{
			name: "summary over 500 characters",
			resume: fmt.Sprintf(`{"personalInfo": {"fullName": "Ada Lovelace", "email": "ada@example.com"}, "summary": %q}`,
				strings.Repeat("Go engineer. ", 50)),
			wantIssue: "Shorten your summary to 500 characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/v1/score", fmt.Sprintf(`{"resume": %s}`, tt.resume), nil)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Contains(t, decode[types.ScoreReport](t, rec).Issues, tt.wantIssue)

			batch := fmt.Sprintf(`{"items": [{"resume": %s}]}`, tt.resume)
			rec = do(t, h, http.MethodPost, "/v1/score/batch", batch, nil)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			resp := decode[types.BatchScoreResponse](t, rec)
			require.Len(t, resp.Results, 1)
			assert.Contains(t, resp.Results[0].Issues, tt.wantIssue)
		})
	}
}

func TestRequestTooLarge(t *testing.T) {
	h := newTestServer(t, func(c *config.Config) { c.Server.MaxRequestSize = 64 }).Handler()

	rec := do(t, h, http.MethodPost, "/v1/score", fmt.Sprintf(`{"resume": %s}`, testResume), nil)
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, errCodeRequestTooLarge, decode[ErrorResponse](t, rec).Code)
}

func TestBatchScoreHandlerKeepsOrder(t *testing.T) {
	h := newTestServer(t, nil).Handler()

	body := fmt.Sprintf(`{"items": [
		{"resume": %[1]s, "targetKeywords": ["Go"]},
		{"resume": %[1]s, "targetKeywords": ["Haskell"]},
		{"resume": %[1]s, "targetKeywords": ["SQL", "Go"]}
	]}`, testResume)

	rec := do(t, h, http.MethodPost, "/v1/score/batch", body, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[types.BatchScoreResponse](t, rec)
	require.Len(t, resp.Results, 3)
	assert.Equal(t, 100, resp.Results[0].Breakdown.Keywords)
	assert.Equal(t, 0, resp.Results[1].Breakdown.Keywords)
	assert.Equal(t, 100, resp.Results[2].Breakdown.Keywords)

	rec = do(t, h, http.MethodPost, "/v1/score/batch", `{"items": []}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExtractKeywordsHandler(t *testing.T) {
	h := newTestServer(t, nil).Handler()

	rec := do(t, h, http.MethodPost, "/v1/keywords/extract", `{"jobDescription": "Rust services. Rust tooling."}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[types.KeywordExtractResponse](t, rec)
	assert.Equal(t, types.KeywordSourceHeuristic, resp.Source)
	assert.Contains(t, resp.Keywords, "Rust")

	rec = do(t, h, http.MethodPost, "/v1/keywords/extract", `{}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestImproveBulletWithoutModel(t *testing.T) {
	h := newTestServer(t, nil).Handler()

	rec := do(t, h, http.MethodPost, "/v1/bullets/improve", `{"bullet": "Worked on services"}`, nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, errors.ErrCodeMissingAPIKey, decode[ErrorResponse](t, rec).Code)
}

func TestResumeLifecycle(t *testing.T) {
	h := newTestServer(t, nil).Handler()

	rec := do(t, h, http.MethodPut, "/v1/resumes/cv-1", testResume, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	stored := decode[types.StoredResume](t, rec)
	assert.Equal(t, "cv-1", stored.ID)
	assert.Equal(t, "local", stored.OwnerID)

	rec = do(t, h, http.MethodGet, "/v1/resumes", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[resumeListResponse](t, rec)
	require.Len(t, list.Resumes, 1)
	assert.Equal(t, "Ada Lovelace", list.Resumes[0].FullName)

	rec = do(t, h, http.MethodGet, "/v1/resumes/cv-1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Ada Lovelace", decode[types.StoredResume](t, rec).Document.PersonalInfo.FullName)

	rec = do(t, h, http.MethodPost, "/v1/resumes/cv-1/score", `{"targetKeywords": ["SQL"]}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 100, decode[types.ScoreReport](t, rec).Breakdown.Keywords)

	rec = do(t, h, http.MethodPost, "/v1/resumes/cv-1/score", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, decode[types.ScoreReport](t, rec).Details.NoKeywordTarget)

	rec = do(t, h, http.MethodDelete, "/v1/resumes/cv-1", "", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodGet, "/v1/resumes/cv-1", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, errors.ErrCodeResumeNotFound, decode[ErrorResponse](t, rec).Code)

	rec = do(t, h, http.MethodPut, "/v1/resumes/.hidden", testResume, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthentication(t *testing.T) {
	h := newTestServer(t, func(c *config.Config) {
		c.Server.APIKeys = []string{"key-alice", "key-bob"}
	}).Handler()

	alice := map[string]string{"X-API-Key": "key-alice"}
	bob := map[string]string{"Authorization": "Bearer key-bob"}

	rec := do(t, h, http.MethodGet, "/v1/resumes", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, errors.ErrCodeUnauthorized, decode[ErrorResponse](t, rec).Code)

	rec = do(t, h, http.MethodGet, "/v1/resumes", "", map[string]string{"X-API-Key": "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// health stays public
	rec = do(t, h, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodPut, "/v1/resumes/cv-1", testResume, alice)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/v1/resumes/cv-1", "", alice)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/v1/resumes/cv-1", "", bob)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/v1/resumes", "", bob)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[resumeListResponse](t, rec).Resumes)
}

func TestRateLimit(t *testing.T) {
	h := newTestServer(t, func(c *config.Config) {
		c.Server.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerMin: 1, BurstCapacity: 2, ByIP: true}
	}).Handler()

	codes := make([]int, 3)
	for i := range codes {
		codes[i] = do(t, h, http.MethodGet, "/v1/resumes", "", nil).Code
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	other := map[string]string{"X-Forwarded-For": "203.0.113.9"}
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/v1/resumes", "", other).Code)
}

func TestRateLimitByAPIKey(t *testing.T) {
	h := newTestServer(t, func(c *config.Config) {
		c.Server.APIKeys = []string{"key-alice"}
		c.Server.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerMin: 1, BurstCapacity: 1, ByAPIKey: true}
	}).Handler()

	// unknown keys share the caller's IP bucket
	rec := do(t, h, http.MethodGet, "/v1/resumes", "", map[string]string{"X-API-Key": "guess-1"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = do(t, h, http.MethodGet, "/v1/resumes", "", map[string]string{"X-API-Key": "guess-2"})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	alice := map[string]string{"X-API-Key": "key-alice"}
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/v1/resumes", "", alice).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(t, h, http.MethodGet, "/v1/resumes", "", alice).Code)
}

func TestNewServerUsesConfiguredJWTSecret(t *testing.T) {
	h := newTestServer(t, func(c *config.Config) {
		c.Server.JWTSecret = "test-secret"
		c.Server.JWTIssuer = "atsscorer"
	}).Handler()

	assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodGet, "/v1/resumes", "", nil).Code)

	tokens, err := auth.NewTokenService("test-secret", "atsscorer", time.Hour)
	require.NoError(t, err)
	token, _, err := tokens.Issue(uuid.New(), "ada@example.com", 0)
	require.NoError(t, err)

	rec := do(t, h, http.MethodGet, "/v1/resumes", "", map[string]string{"Authorization": "Bearer " + token})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{errors.NewValidationError(errors.ErrCodeInvalidRequest, "bad", nil), http.StatusBadRequest},
		{errors.NewInputShapeError("bad", nil), http.StatusBadRequest},
		{errors.NewAuthError(errors.ErrCodeTokenInvalid, "expired", nil), http.StatusUnauthorized},
		{errors.NewStorageError(errors.ErrCodeResumeNotFound, "gone", nil), http.StatusNotFound},
		{errors.NewStorageError(errors.ErrCodeStorageFailed, "disk", nil), http.StatusInternalServerError},
		{errors.NewConfigError(errors.ErrCodeMissingAPIKey, "no key", nil), http.StatusServiceUnavailable},
		{errors.NewAIError(errors.ErrCodeAIServiceFailed, "down", nil), http.StatusBadGateway},
		{errors.NewNetworkError(errors.ErrCodeNetworkTimeout, "slow", nil), http.StatusBadGateway},
		{fmt.Errorf("plain"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name   string
		header map[string]string
		remote string
		want   string
	}{
		{name: "remote addr", remote: "192.0.2.1:5000", want: "192.0.2.1"},
		{name: "forwarded for", header: map[string]string{"X-Forwarded-For": "bogus, 198.51.100.7"}, remote: "192.0.2.1:5000", want: "198.51.100.7"},
		{name: "real ip", header: map[string]string{"X-Real-IP": "198.51.100.8"}, remote: "192.0.2.1:5000", want: "198.51.100.8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, getClientIP(req))
		})
	}
}

func TestServerInfoListsEndpoints(t *testing.T) {
	var sb strings.Builder
	newTestServer(t, nil).writeServerInfo(&sb)

	out := sb.String()
	assert.Contains(t, out, "/v1/score/batch")
	assert.Contains(t, out, "API authentication: DISABLED")
	assert.Contains(t, out, "Rate limiting: DISABLED")
}
