package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"mime"
	"net/http"
	"time"

	"atsscorer/internal/errors"
)

// healthCheckTimeout bounds the model probes behind /health
const healthCheckTimeout = 5 * time.Second

const errCodeRequestTooLarge = "REQUEST_TOO_LARGE"

// healthHandler reports service health including AI model and TLS status
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status":  "healthy",
		"service": "atsscorer",
		"version": s.Version,
	}
	healthy := true

	if s.deps.AI != nil && s.deps.AI.Enabled() {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		models := s.deps.AI.ModelInfo(ctx)
		response["ai_models"] = models
		response["circuit_breakers"] = s.deps.AI.BreakerStats()
		for _, info := range models {
			if info != nil && !info.Available {
				healthy = false
			}
		}
	} else {
		response["ai_models"] = map[string]any{"enabled": false}
	}

	if s.TLSConfig.Enabled() {
		certStatus := certificateHealth(s.TLSConfig, time.Now())
		response["certificates"] = certStatus
		if ok, _ := certStatus["healthy"].(bool); !ok {
			healthy = false
		}
	}

	status := http.StatusOK
	if !healthy {
		response["status"] = "degraded"
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, status, response)
}

// statsHandler provides server statistics including rate limiting info
func (s *Server) statsHandler(w http.ResponseWriter, _ *http.Request) {
	response := map[string]any{
		"service": "atsscorer",
		"version": s.Version,
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
			"batch_concurrency":      s.BatchConcurrency,
			"auth_enabled":           s.deps.Auth.Enabled(),
		},
	}

	if s.RateLimiter != nil {
		response["rate_limiting"] = s.RateLimiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{"enabled": false}
	}
	response["rate_limit_config"] = map[string]any{
		"enabled":          s.RateLimit.Enabled,
		"requests_per_min": s.RateLimit.RequestsPerMin,
		"burst_capacity":   s.RateLimit.BurstCapacity,
		"by_ip":            s.RateLimit.ByIP,
		"by_api_key":       s.RateLimit.ByAPIKey,
		"idle_eviction":    s.RateLimit.Window.String(),
	}

	if s.deps.CacheStats != nil {
		response["cache"] = s.deps.CacheStats()
	}
	if s.deps.Scorer != nil {
		weights := s.deps.Scorer.Weights()
		response["scoring"] = map[string]any{"weights": weights}
	}
	if s.deps.LexiconReloads != nil {
		response["lexicon_reloads"] = s.deps.LexiconReloads()
	}

	s.writeJSON(w, http.StatusOK, response)
}

// readBody returns the raw JSON body. An empty body is allowed when optional
// is set.
func readBody(r *http.Request, optional bool) ([]byte, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if stderrors.As(err, &maxBytesErr) {
			return nil, errors.NewValidationError(errCodeRequestTooLarge, "request body too large", err).
				WithContext("limit_bytes", maxBytesErr.Limit)
		}
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable, "failed to read request body", err)
	}
	if len(body) == 0 && optional {
		return nil, nil
	}

	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest, "content-type must be application/json", nil)
	}
	return body, nil
}

// decodeJSON reads and unmarshals a body with no schema of its own
func decodeJSON(r *http.Request, v any) error {
	body, err := readBody(r, false)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return errors.NewInputShapeError("request body does not match the expected shape", err)
	}
	return nil
}

// statusFor maps the error taxonomy onto HTTP status codes
func statusFor(err error) int {
	appErr, ok := errors.As(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch appErr.Code {
	case errors.ErrCodeResumeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeMissingAPIKey:
		return http.StatusServiceUnavailable
	case errCodeRequestTooLarge:
		return http.StatusRequestEntityTooLarge
	}
	switch appErr.Type {
	case errors.ErrorTypeValidation:
		return http.StatusBadRequest
	case errors.ErrorTypeAuth:
		return http.StatusUnauthorized
	case errors.ErrorTypeAI, errors.ErrorTypeNetwork:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError logs server-side failures and writes the standard error body
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	body := ErrorResponse{Error: http.StatusText(status)}

	if appErr, ok := errors.As(err); ok {
		body.Code = appErr.Code
		body.Message = appErr.Message
		body.Fields = appErr.Context["fields"]
	} else {
		body.Message = "internal error"
	}

	if status >= http.StatusInternalServerError {
		s.logger.LogError(err, "Request failed", "status", status)
	}
	writeErrorResponse(w, status, body)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.LogError(err, "Failed to encode response")
	}
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, status int, body ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
