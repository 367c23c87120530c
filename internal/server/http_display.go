package server

import (
	"fmt"
	"io"
	"os"
)

// displayServerInfo shows server configuration information
func (s *Server) displayServerInfo() {
	s.writeServerInfo(os.Stdout)
}

func (s *Server) writeServerInfo(w io.Writer) {
	scheme := "http"
	if s.TLSConfig.Enabled() {
		scheme = "https"
	}
	fmt.Fprintf(w, "Listening on %s://%s:%s\n", scheme, s.Host, s.Port)

	s.displayEndpoints(w)
	s.displayAuthInfo(w)
	s.displayRequestLimitInfo(w)
	s.displayRateLimitInfo(w)
}

// displayEndpoints shows available API endpoints
func (s *Server) displayEndpoints(w io.Writer) {
	fmt.Fprintln(w, "Available endpoints:")
	fmt.Fprintln(w, "  GET    /health                 - Health check")
	fmt.Fprintln(w, "  GET    /stats                  - Server statistics")
	fmt.Fprintln(w, "  POST   /v1/score               - Score a resume")
	fmt.Fprintln(w, "  POST   /v1/score/batch         - Score up to 50 resumes")
	fmt.Fprintln(w, "  POST   /v1/keywords/extract    - Extract job keywords")
	fmt.Fprintln(w, "  POST   /v1/bullets/improve     - Rewrite one bullet (requires AI)")
	fmt.Fprintln(w, "  GET    /v1/resumes             - List stored resumes")
	fmt.Fprintln(w, "  PUT    /v1/resumes/{id}        - Store a resume")
	fmt.Fprintln(w, "  GET    /v1/resumes/{id}        - Fetch a stored resume")
	fmt.Fprintln(w, "  DELETE /v1/resumes/{id}        - Delete a stored resume")
	fmt.Fprintln(w, "  POST   /v1/resumes/{id}/score  - Score a stored resume")
}

// displayAuthInfo shows authentication configuration
func (s *Server) displayAuthInfo(w io.Writer) {
	if s.deps.Auth.Enabled() {
		fmt.Fprintln(w, "API authentication: ENABLED")
		fmt.Fprintln(w, "Include 'X-API-Key: <key>' or 'Authorization: Bearer <token>' in /v1 requests")
	} else {
		fmt.Fprintln(w, "API authentication: DISABLED (no API keys or JWT secret configured)")
		fmt.Fprintln(w, "WARNING: API endpoints are publicly accessible!")
	}
}

// displayRequestLimitInfo shows request size limit configuration
func (s *Server) displayRequestLimitInfo(w io.Writer) {
	if s.MaxRequestSize > 0 {
		fmt.Fprintf(w, "Request size limit: %d bytes (%.1f MB)\n", s.MaxRequestSize, float64(s.MaxRequestSize)/(1024*1024))
	} else {
		fmt.Fprintln(w, "Request size limit: DISABLED")
	}
}

// displayRateLimitInfo shows rate limiting configuration
func (s *Server) displayRateLimitInfo(w io.Writer) {
	if !s.RateLimit.Enabled {
		fmt.Fprintln(w, "Rate limiting: DISABLED")
		return
	}
	fmt.Fprintf(w, "Rate limiting: ENABLED (%d requests/min, burst: %d)\n",
		s.RateLimit.RequestsPerMin, s.RateLimit.BurstCapacity)
	if s.RateLimit.ByAPIKey {
		fmt.Fprintln(w, "  - Per API key rate limiting enabled")
	}
	if s.RateLimit.ByIP {
		fmt.Fprintln(w, "  - Per IP address rate limiting enabled")
	}
}
