package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes and middleware
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /stats", s.statsHandler)

	mux.Handle("POST /v1/score", s.protected(s.scoreHandler))
	mux.Handle("POST /v1/score/batch", s.protected(s.batchScoreHandler))
	mux.Handle("POST /v1/keywords/extract", s.protected(s.extractKeywordsHandler))
	mux.Handle("POST /v1/bullets/improve", s.protected(s.improveBulletHandler))

	mux.Handle("GET /v1/resumes", s.protected(s.listResumesHandler))
	mux.Handle("PUT /v1/resumes/{id}", s.protected(s.putResumeHandler))
	mux.Handle("GET /v1/resumes/{id}", s.protected(s.getResumeHandler))
	mux.Handle("DELETE /v1/resumes/{id}", s.protected(s.deleteResumeHandler))
	mux.Handle("POST /v1/resumes/{id}/score", s.protected(s.scoreStoredResumeHandler))

	return mux
}

// Handler returns the full handler chain, otelhttp outermost.
func (s *Server) Handler() http.Handler {
	return s.deps.Obs.HTTPMiddleware()(s.setupRoutes())
}

// protected wraps an API handler in rate limiting, authentication and the
// request size limit, in that order.
func (s *Server) protected(h http.HandlerFunc) http.Handler {
	authenticated := s.deps.Auth.Middleware(func(w http.ResponseWriter, _ *http.Request, err error) {
		s.writeError(w, err)
	})
	return s.rateLimitMiddleware(authenticated(s.requestSizeLimitMiddleware(h)))
}

// requestSizeLimitMiddleware limits the size of incoming requests
func (s *Server) requestSizeLimitMiddleware(next http.Handler) http.Handler {
	if s.MaxRequestSize <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, s.MaxRequestSize)
		next.ServeHTTP(w, r)
	})
}
