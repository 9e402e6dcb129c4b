// Copyright 2026 The authd authors
// Licensed under the EUPL-1.2

// Package config builds the runtime configuration from CLI flags, env vars
// and the TOML config file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/urfave/cli/v3"
)

type Config struct { //nolint:govet // fieldalignment not critical for config structs
	Server    ServerConfig
	Log       LogConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	SMTP      SMTPConfig
	Cookie    CookieConfig
	Sentry    SentryConfig
	RateLimit RateLimitConfig
	File      string
}

type ServerConfig struct { //nolint:govet // fieldalignment not critical for config structs
	Host    string
	Port    int
	BaseURL string
}

type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // text, json
}

type DatabaseConfig struct {
	DSN string
}

type AuthConfig struct { //nolint:govet // fieldalignment not critical for config structs
	AccessTokenSecret string // HMAC key for access tokens
	EncryptionKey     string // 32-byte hex key for provider token sealing
	BcryptCost        int
	LockoutThreshold  int
	LockoutWindow     time.Duration
	ProviderTimeout   time.Duration
}

type SMTPConfig struct { //nolint:govet // fieldalignment not critical for config structs
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	TLS      bool
}

type CookieConfig struct { //nolint:govet // fieldalignment not critical for config structs
	Name    string // Refresh token cookie name
	Secure  bool   // HTTPS only cookie
	HashKey string // 32-byte hex string for HMAC signing
}

type SentryConfig struct {
	DSN         string
	Environment string
}

type RateLimitConfig struct {
	CredentialRPS float64 // per-IP limit on credential endpoints
}

// ProviderConfig describes one external OAuth provider's token endpoint.
// Providers are configured in the [[providers]] table of the config file.
type ProviderConfig struct {
	Name         string `toml:"name"`
	TokenURL     string `toml:"token_url"`
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
}

// NewFromCLI builds the configuration from the CLI command.
func NewFromCLI(cmd *cli.Command) *Config {
	cfg := &Config{
		Server: ServerConfig{
			Host:    cmd.String("host"),
			Port:    int(cmd.Int("port")),
			BaseURL: cmd.String("base-url"),
		},
		Log: LogConfig{
			Level:  cmd.String("log-level"),
			Format: cmd.String("log-format"),
		},
		Database: DatabaseConfig{
			DSN: cmd.String("database"),
		},
		Auth: AuthConfig{
			AccessTokenSecret: cmd.String("access-token-secret"),
			EncryptionKey:     cmd.String("encryption-key"),
			BcryptCost:        int(cmd.Int("bcrypt-cost")),
			LockoutThreshold:  int(cmd.Int("lockout-threshold")),
			LockoutWindow:     time.Duration(cmd.Int("lockout-window")) * time.Minute,
			ProviderTimeout:   time.Duration(cmd.Int("provider-timeout")) * time.Second,
		},
		SMTP: SMTPConfig{
			Host:     cmd.String("smtp-host"),
			Port:     int(cmd.Int("smtp-port")),
			Username: cmd.String("smtp-username"),
			Password: cmd.String("smtp-password"),
			From:     cmd.String("smtp-from"),
			FromName: cmd.String("smtp-from-name"),
			TLS:      cmd.Bool("smtp-tls"),
		},
		Cookie: CookieConfig{
			Name:    cmd.String("cookie-name"),
			Secure:  cmd.Bool("cookie-secure"),
			HashKey: cmd.String("cookie-hash-key"),
		},
		Sentry: SentryConfig{
			DSN:         cmd.String("sentry-dsn"),
			Environment: cmd.String("sentry-environment"),
		},
		RateLimit: RateLimitConfig{
			CredentialRPS: cmd.Float64("credential-rate-limit"),
		},
		File: cmd.String("config"),
	}

	if cfg.Server.BaseURL == "" {
		cfg.Server.BaseURL = fmt.Sprintf("http://%s:%d", cfg.Server.Host, cfg.Server.Port)
	}

	return cfg
}

// Validate checks the settings the server cannot run without.
func (c *Config) Validate() error {
	if c.Auth.AccessTokenSecret == "" {
		return fmt.Errorf("access-token-secret is required")
	}
	if len(c.Auth.EncryptionKey) != 64 {
		return fmt.Errorf("encryption-key must be a 64-character hex string")
	}
	if c.Cookie.HashKey != "" && len(c.Cookie.HashKey) != 64 {
		return fmt.Errorf("cookie-hash-key must be a 64-character hex string")
	}
	return nil
}

// LoadProviders reads the [[providers]] table from the config file. A
// missing file yields no providers.
func LoadProviders(path string) ([]ProviderConfig, error) {
	if path == "" {
		return nil, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}

	var file struct {
		Providers []ProviderConfig `toml:"providers"`
	}
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	return file.Providers, nil
}
