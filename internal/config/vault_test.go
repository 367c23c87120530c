package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"atsscorer/internal/errors"

	"github.com/hashicorp/vault/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSecrets serves string secrets keyed by "path#key"
type fakeSecrets map[string]string

func (f fakeSecrets) GetStringSecret(path, key string) (string, error) {
	v, ok := f[path+"#"+key]
	if !ok {
		return "", fmt.Errorf("secret not found at path: %s", path)
	}
	return v, nil
}

func (f fakeSecrets) GetStringSliceSecret(path, key string) ([]string, error) {
	v, err := f.GetStringSecret(path, key)
	if err != nil {
		return nil, err
	}
	return splitList(v), nil
}

func TestResolveVaultToken(t *testing.T) {
	t.Run("token from config", func(t *testing.T) {
		token, err := resolveVaultToken(VaultConfig{Token: "direct-token"})
		require.NoError(t, err)
		assert.Equal(t, "direct-token", token)
	})

	t.Run("token from file is trimmed", func(t *testing.T) {
		tokenFile := filepath.Join(t.TempDir(), "vault-token")
		require.NoError(t, os.WriteFile(tokenFile, []byte("  file-token  \n"), 0600))

		token, err := resolveVaultToken(VaultConfig{TokenFile: tokenFile})
		require.NoError(t, err)
		assert.Equal(t, "file-token", token)
	})

	t.Run("missing token file", func(t *testing.T) {
		_, err := resolveVaultToken(VaultConfig{TokenFile: "/nonexistent/token"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read vault token file")
	})

	t.Run("no token", func(t *testing.T) {
		_, err := resolveVaultToken(VaultConfig{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "vault token is required")
	})
}

func TestApplyVaultSecretsDisabled(t *testing.T) {
	config := &Config{AI: AIConfig{APIKey: "from-env"}}
	require.NoError(t, ApplyVaultSecrets(config, errors.NewDiscard()))
	assert.Equal(t, "from-env", config.AI.APIKey)
}

func TestApplySecrets(t *testing.T) {
	secrets := fakeSecrets{
		"secret/data/keys#keys":      "k1, k2,,k3",
		"secret/data/gemini#api_key": "gemini-from-vault",
		"secret/data/jwt#secret":     "signing-secret",
		"secret/data/db#url":         "postgres://u:p@db/atsscorer",
	}

	config := &Config{
		AI: AIConfig{
			APIKey:  "from-env",
			Improve: OperationAIConfig{APIKey: "improve-only"},
		},
		Vault: VaultConfig{Secrets: VaultSecrets{
			APIKeys:     "secret/data/keys",
			GeminiKey:   "secret/data/gemini",
			JWTSecret:   "secret/data/jwt",
			DatabaseURL: "secret/data/db",
		}},
	}

	require.NoError(t, applySecrets(secrets, config, errors.NewDiscard()))

	assert.Equal(t, []string{"k1", "k2", "k3"}, config.Server.APIKeys)
	assert.Equal(t, "gemini-from-vault", config.AI.APIKey)
	assert.Equal(t, "gemini-from-vault", config.AI.Extract.APIKey)
	assert.Equal(t, "improve-only", config.AI.Improve.APIKey)
	assert.Equal(t, "signing-secret", config.Server.JWTSecret)
	assert.Equal(t, "postgres://u:p@db/atsscorer", config.Storage.DatabaseURL)
}

func TestApplySecretsSkipsUnsetPaths(t *testing.T) {
	config := &Config{Server: ServerConfig{JWTSecret: "local"}}
	require.NoError(t, applySecrets(fakeSecrets{}, config, nil))
	assert.Equal(t, "local", config.Server.JWTSecret)
	assert.Empty(t, config.AI.Extract.APIKey)
}

func TestApplySecretsMissingSecret(t *testing.T) {
	config := &Config{Vault: VaultConfig{Secrets: VaultSecrets{JWTSecret: "secret/data/nope"}}}
	err := applySecrets(fakeSecrets{}, config, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT secret")
}

func TestKVData(t *testing.T) {
	data, err := kvData(&api.Secret{Data: map[string]any{
		"data": map[string]any{"api_key": "abc"},
	}}, "secret/data/gemini")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"api_key": "abc"}, data)

	_, err = kvData(&api.Secret{Data: map[string]any{"data": "flat"}}, "secret/data/gemini")
	assert.Error(t, err)

	_, err = kvData(nil, "secret/data/gemini")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "secret not found")
}
