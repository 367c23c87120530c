package server

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"time"

	"atsscorer/internal/config"
)

// certExpiryWarning marks a certificate as unhealthy ahead of expiry
const certExpiryWarning = 7 * 24 * time.Hour

// buildTLSConfig loads the configured key pair
func buildTLSConfig(cfg config.TLSConfig) (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load server certificate: %w", err)
	}

	minVersion := uint16(tls.VersionTLS12)
	switch cfg.MinVersion {
	case "", "1.2":
	case "1.3":
		minVersion = tls.VersionTLS13
	default:
		return nil, fmt.Errorf("invalid TLS minVersion: %s (must be '1.2' or '1.3')", cfg.MinVersion)
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   minVersion,
	}, nil
}

// certificateHealth reports the expiry of the configured server certificate
func certificateHealth(cfg config.TLSConfig, now time.Time) map[string]any {
	cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
	if err != nil {
		return map[string]any{"healthy": false, "error": err.Error()}
	}
	leaf := cert.Leaf
	if leaf == nil {
		if leaf, err = x509.ParseCertificate(cert.Certificate[0]); err != nil {
			return map[string]any{"healthy": false, "error": err.Error()}
		}
	}

	remaining := leaf.NotAfter.Sub(now)
	return map[string]any{
		"healthy":        remaining > certExpiryWarning,
		"subject":        leaf.Subject.CommonName,
		"not_after":      leaf.NotAfter.UTC().Format(time.RFC3339),
		"days_to_expiry": int(remaining.Hours() / 24),
		"expiring_soon":  remaining <= certExpiryWarning,
	}
}
