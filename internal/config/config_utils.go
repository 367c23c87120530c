package config

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// applyFallbacks applies environment variable fallbacks
func (c *Config) applyFallbacks() {
	c.applyServerAPIKeyFallbacks()
	c.applyGeminiKeyFallback()
	c.applyObservabilityDefaults()
}

// applyServerAPIKeyFallbacks splits a comma-separated ATSSCORER_SERVER_APIKEYS value
func (c *Config) applyServerAPIKeyFallbacks() {
	if len(c.Server.APIKeys) == 0 {
		if apiKeysEnv := os.Getenv(EnvPrefix + "_SERVER_APIKEYS"); apiKeysEnv != "" {
			c.Server.APIKeys = splitList(apiKeysEnv)
		}
		return
	}
	// viper hands back a single element when the env value is a plain string
	if len(c.Server.APIKeys) == 1 && strings.Contains(c.Server.APIKeys[0], ",") {
		c.Server.APIKeys = splitList(c.Server.APIKeys[0])
	}
}

// applyGeminiKeyFallback honors the conventional GEMINI_API_KEY variable
func (c *Config) applyGeminiKeyFallback() {
	if c.AI.APIKey == "" {
		c.AI.APIKey = os.Getenv("GEMINI_API_KEY")
	}
}

// applyObservabilityDefaults applies default observability configuration values
func (c *Config) applyObservabilityDefaults() {
	if c.Observability.ServiceInstance == "" {
		c.Observability.ServiceInstance = generateServiceInstanceID(c.Observability.ServiceName)
	}
	if c.App.LogLevel == "debug" && !c.Observability.ConsoleOutput {
		c.Observability.ConsoleOutput = true
	}
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// generateServiceInstanceID generates a unique service instance ID
func generateServiceInstanceID(serviceName string) string {
	if hostname, err := os.Hostname(); err == nil {
		return fmt.Sprintf("%s-%s", serviceName, hostname)
	}
	return fmt.Sprintf("%s-1", serviceName)
}

// maskSecret keeps the first and last four characters of long values
func maskSecret(value string) string {
	switch {
	case len(value) > 8:
		return value[:4] + "****" + value[len(value)-4:]
	case value != "":
		return "****"
	default:
		return ""
	}
}

// logConfigurationSources logs a summary of configuration sources being used.
// It writes to stderr through the standard logger so stdout stays clean for
// command output and the MCP stdio transport.
func (c *Config) logConfigurationSources(configFileUsed string) {
	if configFileUsed != "" {
		log.Printf("[CONFIG] Config file: %s", configFileUsed)
	}

	envVars := []string{
		EnvPrefix + "_AI_APIKEY",
		EnvPrefix + "_AI_MODEL",
		EnvPrefix + "_SERVER_PORT",
		EnvPrefix + "_SERVER_JWTSECRET",
		EnvPrefix + "_STORAGE_DRIVER",
		EnvPrefix + "_APP_LOGLEVEL",
		"GEMINI_API_KEY",
	}
	for _, envVar := range envVars {
		value := os.Getenv(envVar)
		if value == "" {
			continue
		}
		lower := strings.ToLower(envVar)
		if strings.Contains(lower, "key") || strings.Contains(lower, "secret") {
			value = maskSecret(value)
		}
		log.Printf("[CONFIG] env %s=%s", envVar, value)
	}

	if c.App.LogLevel == "debug" {
		log.Printf("[CONFIG] AI: provider=%s model=%s key_configured=%t", c.AI.Provider, c.AI.Model, c.AI.APIKey != "")
		log.Printf("[CONFIG] Storage: driver=%s, Cache: enabled=%t redis=%t", c.Storage.Driver, c.Cache.Enabled, c.Cache.RedisURL != "")
		log.Printf("[CONFIG] Auth: api_keys=%d jwt=%t, TLS: %t", len(c.Server.APIKeys), c.Server.JWTSecret != "", c.Server.TLS.Enabled())
	}
}
