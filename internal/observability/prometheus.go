package observability

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"atsscorer/internal/config"
	"atsscorer/internal/errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// stderrWriter routes console exporters to stderr.
type stderrWriter struct{}

func (stderrWriter) Write(p []byte) (int, error) { return os.Stderr.Write(p) }

// newPrometheusReader registers an exporter on its own registry and returns
// the handler that serves it.
func newPrometheusReader(endpoint string) (sdkmetric.Reader, *http.ServeMux, error) {
	registry := prometheus.NewRegistry()
	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
	}

	if endpoint == "" {
		endpoint = "/metrics"
	}
	mux := http.NewServeMux()
	mux.Handle(endpoint, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	return exporter, mux, nil
}

// startPrometheus serves the metrics endpoint on a dedicated port.
func startPrometheus(cfg config.PrometheusConfig, logger *errors.Logger) (sdkmetric.Reader, func(context.Context) error, error) {
	reader, mux, err := newPrometheusReader(cfg.Endpoint)
	if err != nil {
		return nil, nil, err
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("Prometheus metrics server listening", "addr", server.Addr, "endpoint", cfg.Endpoint)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.LogError(err, "Prometheus server error")
		}
	}()

	return reader, server.Shutdown, nil
}
