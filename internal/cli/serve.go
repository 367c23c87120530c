package cli

import (
	"context"
	"fmt"
	"time"

	"atsscorer/internal/auth"
	"atsscorer/internal/cache"
	"atsscorer/internal/observability"
	"atsscorer/internal/server"
	"atsscorer/internal/storage"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP scoring API",
	Long: `Start an HTTP server that provides the JSON scoring API.

Available endpoints:
- POST /v1/score: Score one resume
- POST /v1/score/batch: Score up to 50 resumes concurrently
- POST /v1/keywords/extract: Extract target keywords from a job description
- POST /v1/bullets/improve: Rewrite one bullet (requires an AI key)
- PUT/GET/DELETE /v1/resumes/{id}, GET /v1/resumes: Stored resumes
- POST /v1/resumes/{id}/score: Score a stored resume
- GET /health: Health check endpoint
- GET /stats: Server statistics and rate limiting info

TLS Configuration:
- Use --cert-file and --key-file to serve HTTPS`,
	RunE: runServe,
}

var serveFlags struct {
	Port     string
	Host     string
	CertFile string
	KeyFile  string
}

func init() {
	serveCmd.Flags().StringVarP(&serveFlags.Port, "port", "p", "", "Port to listen on (default from config)")
	serveCmd.Flags().StringVar(&serveFlags.Host, "host", "", "Host to bind to (default from config)")
	serveCmd.Flags().StringVar(&serveFlags.CertFile, "cert-file", "", "Server certificate file (PEM, overrides config)")
	serveCmd.Flags().StringVar(&serveFlags.KeyFile, "key-file", "", "Server private key file (PEM, overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := getConfigFromContext(cmd.Context())
	if err != nil {
		return err
	}
	logger, err := getLoggerFromContext(cmd.Context())
	if err != nil {
		return err
	}

	if serveFlags.Port != "" {
		cfg.Server.Port = serveFlags.Port
	}
	if serveFlags.Host != "" {
		cfg.Server.Host = serveFlags.Host
	}
	if serveFlags.CertFile != "" {
		cfg.Server.TLS.CertFile = serveFlags.CertFile
	}
	if serveFlags.KeyFile != "" {
		cfg.Server.TLS.KeyFile = serveFlags.KeyFile
	}
	// Validate TLS configuration after applying overrides
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	obs, err := observability.New(cfg.Observability, Version, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := obs.Shutdown(ctx); err != nil {
			logger.LogError(err, "Failed to shutdown observability")
		}
	}()

	comps, err := buildComponents(cmd.Context(), cfg, logger, obs.Metrics())
	if err != nil {
		return err
	}
	defer comps.Close()

	var cacheStats func() cache.Stats
	if comps.cache != nil {
		cacheStats = comps.cache.Stats
		if err := obs.Metrics().RegisterCacheStats(cacheStats); err != nil {
			logger.LogError(err, "Failed to register cache metrics")
		}
	}

	store, err := storage.Open(cmd.Context(), cfg.Storage, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.LogError(err, "Failed to close resume store")
		}
	}()

	authenticator, err := auth.NewAuthenticator(cfg.Server, logger)
	if err != nil {
		return fmt.Errorf("failed to configure authentication: %w", err)
	}

	srv, err := server.NewServer(cfg, Version, server.Deps{
		Scorer:         comps.scorer,
		AI:             comps.ai,
		Store:          store,
		Auth:           authenticator,
		Obs:            obs,
		CacheStats:     cacheStats,
		LexiconReloads: comps.lexiconReloads(),
	}, logger)
	if err != nil {
		return err
	}
	return srv.Start(cmd.Context())
}
