package server

import (
	"fmt"
	"time"

	"atsscorer/internal/ai"
	"atsscorer/internal/auth"
	"atsscorer/internal/cache"
	"atsscorer/internal/config"
	"atsscorer/internal/errors"
	"atsscorer/internal/observability"
	"atsscorer/internal/scoring"
	"atsscorer/internal/storage"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Fields  any    `json:"fields,omitempty"`
}

// Deps are the collaborators the HTTP API serves.
type Deps struct {
	Scorer *scoring.Scorer
	AI     *ai.Service
	Store  storage.ResumeStore
	Auth   *auth.Authenticator
	Obs    *observability.Manager

	// optional, reported on /stats
	CacheStats     func() cache.Stats
	LexiconReloads func() int64
}

// Server holds configuration for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	TLSConfig config.TLSConfig

	// Timeout configurations
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Request size limit
	MaxRequestSize int64

	// Batch scoring fan-out
	BatchConcurrency int

	// Rate limiting
	RateLimit   config.RateLimitConfig
	RateLimiter *RateLimiter

	deps   Deps
	logger *errors.Logger
}

// NewServer creates a Server from application configuration. Collaborators
// missing from deps are built from cfg.
func NewServer(cfg *config.Config, version string, deps Deps, logger *errors.Logger) (*Server, error) {
	if logger == nil {
		logger = errors.NewDiscard()
	}

	if deps.Auth == nil {
		authenticator, err := auth.NewAuthenticator(cfg.Server, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to configure authentication: %w", err)
		}
		deps.Auth = authenticator
	}

	var rateLimiter *RateLimiter
	if cfg.Server.RateLimit.Enabled {
		rateLimiter = NewRateLimiter(
			cfg.Server.RateLimit.RequestsPerMin,
			cfg.Server.RateLimit.Window,
			cfg.Server.RateLimit.BurstCapacity,
			logger,
		)
	}

	if deps.Obs == nil {
		// a disabled manager never fails to build
		deps.Obs, _ = observability.New(config.ObservabilityConfig{}, version, logger)
	}
	if deps.Store == nil {
		deps.Store = storage.NewMemoryStore()
	}
	if deps.AI == nil && deps.Scorer != nil {
		deps.AI = ai.Assemble(deps.Scorer, nil, nil)
	}

	concurrency := cfg.Scoring.BatchConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	return &Server{
		Host:             cfg.Server.Host,
		Port:             cfg.Server.Port,
		Version:          version,
		TLSConfig:        cfg.Server.TLS,
		ReadTimeout:      cfg.Server.ReadTimeout,
		WriteTimeout:     cfg.Server.WriteTimeout,
		IdleTimeout:      cfg.Server.IdleTimeout,
		MaxRequestSize:   cfg.Server.MaxRequestSize,
		BatchConcurrency: concurrency,
		RateLimit:        cfg.Server.RateLimit,
		RateLimiter:      rateLimiter,
		deps:             deps,
		logger:           logger,
	}, nil
}
