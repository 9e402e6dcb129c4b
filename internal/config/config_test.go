// Copyright 2026 The authd authors
// Licensed under the EUPL-1.2

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Auth: AuthConfig{
			AccessTokenSecret: "signing-secret",
			EncryptionKey:     strings.Repeat("ab", 32),
		},
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, validConfig().Validate())

	cfg := validConfig()
	cfg.Auth.AccessTokenSecret = ""
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Auth.EncryptionKey = "too-short"
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Cookie.HashKey = "not64chars"
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Cookie.HashKey = strings.Repeat("cd", 32)
	assert.NoError(t, cfg.Validate())
}

func TestLoadProviders(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[server]
host = "localhost"

[[providers]]
name = "acme"
token_url = "https://acme.example.com/oauth/token"
client_id = "client-id"
client_secret = "client-secret"

[[providers]]
name = "globex"
token_url = "https://globex.example.com/token"
client_id = "other-id"
client_secret = "other-secret"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	providers, err := LoadProviders(path)
	require.NoError(t, err)
	require.Len(t, providers, 2)

	assert.Equal(t, "acme", providers[0].Name)
	assert.Equal(t, "https://acme.example.com/oauth/token", providers[0].TokenURL)
	assert.Equal(t, "client-id", providers[0].ClientID)
	assert.Equal(t, "globex", providers[1].Name)
}

func TestLoadProvidersMissingFile(t *testing.T) {
	providers, err := LoadProviders(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Nil(t, providers)

	providers, err = LoadProviders("")
	require.NoError(t, err)
	assert.Nil(t, providers)
}

func TestLoadProvidersBadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[[providers\n"), 0o600))

	_, err := LoadProviders(path)
	assert.Error(t, err)
}
