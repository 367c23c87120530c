package config

import (
	"fmt"
	"os"
	"strings"

	"atsscorer/internal/errors"

	"github.com/hashicorp/vault/api"
)

// VaultConfig holds Vault connection configuration
type VaultConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Address   string `mapstructure:"address"`
	Token     string `mapstructure:"token"`
	TokenFile string `mapstructure:"tokenFile"`
	Namespace string `mapstructure:"namespace"`

	// Secret paths
	Secrets VaultSecrets `mapstructure:"secrets"`
}

// VaultSecrets defines where to find secrets in Vault
type VaultSecrets struct {
	// APIKeys expects a single string with comma-separated values in Vault
	// Example format: "key1,key2,key3"
	// The first key will be used as the primary key, others as fallbacks
	APIKeys     string `mapstructure:"apiKeys"`     // Path to API keys secret (key "keys")
	GeminiKey   string `mapstructure:"geminiKey"`   // Path to Gemini API key (key "api_key")
	JWTSecret   string `mapstructure:"jwtSecret"`   // Path to the token signing secret (key "secret")
	DatabaseURL string `mapstructure:"databaseURL"` // Path to the postgres DSN (key "url")
}

// VaultClient reads KVv2 secrets.
type VaultClient struct {
	logical *api.Logical
	logger  *errors.Logger
}

// NewVaultClient connects to Vault and checks its health. It returns nil
// when Vault is disabled.
func NewVaultClient(cfg VaultConfig, logger *errors.Logger) (*VaultClient, error) {
	if logger == nil {
		logger = errors.NewDiscard()
	}
	if !cfg.Enabled {
		logger.Debug("Vault integration disabled")
		return nil, nil
	}

	apiCfg := api.DefaultConfig()
	if cfg.Address != "" {
		apiCfg.Address = cfg.Address
	}
	client, err := api.NewClient(apiCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	if cfg.Namespace != "" {
		client.SetNamespace(cfg.Namespace)
	}

	token, err := resolveVaultToken(cfg)
	if err != nil {
		return nil, err
	}
	client.SetToken(token)

	health, err := client.Sys().Health()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to vault at %s: %w", apiCfg.Address, err)
	}
	logger.Info("Connected to Vault",
		"address", apiCfg.Address,
		"namespace", cfg.Namespace,
		"version", health.Version,
		"sealed", health.Sealed)

	return &VaultClient{logical: client.Logical(), logger: logger}, nil
}

// resolveVaultToken prefers the inline token over the token file.
func resolveVaultToken(cfg VaultConfig) (string, error) {
	token := cfg.Token
	if token == "" && cfg.TokenFile != "" {
		raw, err := os.ReadFile(cfg.TokenFile)
		if err != nil {
			return "", fmt.Errorf("failed to read vault token file: %w", err)
		}
		token = strings.TrimSpace(string(raw))
	}
	if token == "" {
		return "", fmt.Errorf("vault token is required when vault is enabled")
	}
	return token, nil
}

// kvData unwraps the payload of a KVv2 read.
func kvData(secret *api.Secret, path string) (map[string]any, error) {
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("secret not found at path: %s", path)
	}
	data, ok := secret.Data["data"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("secret at %s is not in KVv2 format (missing 'data' field)", path)
	}
	return data, nil
}

// GetStringSecret reads one string field of the secret at path.
func (vc *VaultClient) GetStringSecret(path, key string) (string, error) {
	secret, err := vc.logical.Read(path)
	if err != nil {
		return "", fmt.Errorf("failed to read secret from %s: %w", path, err)
	}
	data, err := kvData(secret, path)
	if err != nil {
		return "", err
	}
	value, ok := data[key].(string)
	if !ok {
		return "", fmt.Errorf("key '%s' is missing or not a string in secret %s", key, path)
	}

	vc.logger.Debug("Secret read from Vault", "path", path, "key", key, "masked_value", maskSecret(value))
	return value, nil
}

// GetStringSliceSecret reads a comma-separated field as a list.
func (vc *VaultClient) GetStringSliceSecret(path, key string) ([]string, error) {
	value, err := vc.GetStringSecret(path, key)
	if err != nil {
		return nil, err
	}
	return splitList(value), nil
}

// secretReader is the part of VaultClient the secret loaders need
type secretReader interface {
	GetStringSecret(path, key string) (string, error)
	GetStringSliceSecret(path, key string) ([]string, error)
}

// ApplyVaultSecrets loads secrets from Vault and applies them to the config
func ApplyVaultSecrets(config *Config, logger *errors.Logger) error {
	if !config.Vault.Enabled {
		if logger != nil {
			logger.Debug("Vault integration disabled, skipping secret loading")
		}
		return nil
	}

	if logger != nil {
		logger.Info("Loading secrets from Vault",
			"api_keys_path", config.Vault.Secrets.APIKeys,
			"gemini_key_path", config.Vault.Secrets.GeminiKey,
			"jwt_secret_path", config.Vault.Secrets.JWTSecret,
			"database_url_path", config.Vault.Secrets.DatabaseURL)
	}

	client, err := NewVaultClient(config.Vault, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize vault client: %w", err)
	}
	if client == nil {
		return nil
	}

	return applySecrets(client, config, logger)
}

// applySecrets copies every configured secret into config
func applySecrets(client secretReader, config *Config, logger *errors.Logger) error {
	secrets := config.Vault.Secrets

	if secrets.APIKeys != "" {
		apiKeys, err := client.GetStringSliceSecret(secrets.APIKeys, "keys")
		if err != nil {
			return fmt.Errorf("failed to load API keys from vault: %w", err)
		}
		if len(apiKeys) > 0 {
			config.Server.APIKeys = apiKeys
			if logger != nil {
				logger.Info("API keys loaded from Vault", "count", len(apiKeys))
			}
		} else if logger != nil {
			logger.Warn("No API keys found in Vault", "path", secrets.APIKeys)
		}
	}

	stringSecrets := []struct {
		name   string
		path   string
		key    string
		target *string
	}{
		{"Gemini API key", secrets.GeminiKey, "api_key", &config.AI.APIKey},
		{"JWT secret", secrets.JWTSecret, "secret", &config.Server.JWTSecret},
		{"database URL", secrets.DatabaseURL, "url", &config.Storage.DatabaseURL},
	}
	for _, s := range stringSecrets {
		if s.path == "" {
			continue
		}
		value, err := client.GetStringSecret(s.path, s.key)
		if err != nil {
			return fmt.Errorf("failed to load %s from vault: %w", s.name, err)
		}
		if value == "" {
			if logger != nil {
				logger.Warn("Empty secret found in Vault", "name", s.name, "path", s.path)
			}
			continue
		}
		*s.target = value
		if logger != nil {
			logger.Info("Secret loaded from Vault", "name", s.name)
		}
	}

	applyGeminiKeyToConfig(config, config.AI.APIKey)
	return nil
}

// applyGeminiKeyToConfig fills operation keys that were not set explicitly
func applyGeminiKeyToConfig(config *Config, geminiKey string) {
	if geminiKey == "" {
		return
	}
	config.AI.APIKey = geminiKey
	if config.AI.Extract.APIKey == "" {
		config.AI.Extract.APIKey = geminiKey
	}
	if config.AI.Improve.APIKey == "" {
		config.AI.Improve.APIKey = geminiKey
	}
}
