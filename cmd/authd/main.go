// Copyright 2026 The authd authors
// Licensed under the EUPL-1.2

package main

import (
	"context"
	"fmt"
	"os"

	altsrc "github.com/urfave/cli-altsrc/v3"
	"github.com/urfave/cli-altsrc/v3/toml"
	"github.com/urfave/cli/v3"

	"github.com/finlink/authd/internal/server"
)

// Version information (set via ldflags during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// sources creates a value source chain combining env vars and TOML config
func sources(envKey, tomlKey string, tomlSrc altsrc.Sourcer) cli.ValueSourceChain {
	chain := cli.EnvVars(envKey)
	chain.Chain = append(chain.Chain, toml.TOML(tomlKey, tomlSrc))
	return chain
}

func main() {
	var configFile string

	tomlSrc := altsrc.NewStringPtrSourcer(&configFile)

	cmd := &cli.Command{
		Name:    "authd",
		Usage:   "Credential and token lifecycle service",
		Version: fmt.Sprintf("%s (built %s)", Version, BuildTime),
		Flags: []cli.Flag{
			// Config file
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Value:       "config.toml",
				Usage:       "Path to configuration file",
				Destination: &configFile,
				Sources:     cli.EnvVars("CONFIG"),
			},

			// Server settings
			&cli.StringFlag{
				Name:    "host",
				Value:   "localhost",
				Usage:   "Server host",
				Sources: sources("HOST", "server.host", tomlSrc),
			},
			&cli.IntFlag{
				Name:    "port",
				Value:   8080,
				Usage:   "Server port",
				Sources: sources("PORT", "server.port", tomlSrc),
			},
			&cli.StringFlag{
				Name:    "base-url",
				Usage:   "Base URL used in verification and reset links",
				Sources: sources("BASE_URL", "server.base_url", tomlSrc),
			},

			// Database
			&cli.StringFlag{
				Name:    "database",
				Value:   "./data/authd.db",
				Usage:   "SQLite database path",
				Sources: sources("DATABASE", "database.path", tomlSrc),
			},

			// Authentication
			&cli.StringFlag{
				Name:    "access-token-secret",
				Usage:   "HMAC signing key for access tokens",
				Sources: sources("ACCESS_TOKEN_SECRET", "auth.access_token_secret", tomlSrc),
			},
			&cli.StringFlag{
				Name:    "encryption-key",
				Usage:   "32-byte hex key sealing stored provider tokens",
				Sources: sources("ENCRYPTION_KEY", "auth.encryption_key", tomlSrc),
			},
			&cli.IntFlag{
				Name:    "bcrypt-cost",
				Value:   12,
				Usage:   "bcrypt cost factor for password hashing",
				Sources: sources("BCRYPT_COST", "auth.bcrypt_cost", tomlSrc),
			},
			&cli.IntFlag{
				Name:    "lockout-threshold",
				Value:   10,
				Usage:   "Consecutive failures before an account locks",
				Sources: sources("LOCKOUT_THRESHOLD", "auth.lockout_threshold", tomlSrc),
			},
			&cli.IntFlag{
				Name:    "lockout-window",
				Value:   60,
				Usage:   "Minutes a locked account stays locked",
				Sources: sources("LOCKOUT_WINDOW", "auth.lockout_window", tomlSrc),
			},
			&cli.IntFlag{
				Name:    "provider-timeout",
				Value:   10,
				Usage:   "Seconds before a provider refresh call is abandoned",
				Sources: sources("PROVIDER_TIMEOUT", "auth.provider_timeout", tomlSrc),
			},

			// Refresh token cookie
			&cli.StringFlag{
				Name:    "cookie-name",
				Value:   "authd_refresh",
				Usage:   "Refresh token cookie name",
				Sources: sources("COOKIE_NAME", "cookie.name", tomlSrc),
			},
			&cli.BoolFlag{
				Name:    "cookie-secure",
				Usage:   "HTTPS only cookie",
				Sources: sources("COOKIE_SECURE", "cookie.secure", tomlSrc),
			},
			&cli.StringFlag{
				Name:    "cookie-hash-key",
				Usage:   "32-byte hex string for cookie HMAC signing",
				Sources: sources("COOKIE_HASH_KEY", "cookie.hash_key", tomlSrc),
			},

			// SMTP
			&cli.StringFlag{
				Name:    "smtp-host",
				Usage:   "SMTP server host",
				Sources: sources("SMTP_HOST", "smtp.host", tomlSrc),
			},
			&cli.IntFlag{
				Name:    "smtp-port",
				Value:   587,
				Usage:   "SMTP server port",
				Sources: sources("SMTP_PORT", "smtp.port", tomlSrc),
			},
			&cli.StringFlag{
				Name:    "smtp-username",
				Usage:   "SMTP username",
				Sources: sources("SMTP_USERNAME", "smtp.username", tomlSrc),
			},
			&cli.StringFlag{
				Name:    "smtp-password",
				Usage:   "SMTP password",
				Sources: sources("SMTP_PASSWORD", "smtp.password", tomlSrc),
			},
			&cli.StringFlag{
				Name:    "smtp-from",
				Usage:   "From address for outbound mail",
				Sources: sources("SMTP_FROM", "smtp.from", tomlSrc),
			},
			&cli.StringFlag{
				Name:    "smtp-from-name",
				Usage:   "Display name for outbound mail",
				Sources: sources("SMTP_FROM_NAME", "smtp.from_name", tomlSrc),
			},
			&cli.BoolFlag{
				Name:    "smtp-tls",
				Value:   true,
				Usage:   "Require TLS for SMTP",
				Sources: sources("SMTP_TLS", "smtp.tls", tomlSrc),
			},

			// Observability
			&cli.StringFlag{
				Name:    "sentry-dsn",
				Usage:   "Sentry DSN (empty disables reporting)",
				Sources: sources("SENTRY_DSN", "sentry.dsn", tomlSrc),
			},
			&cli.StringFlag{
				Name:    "sentry-environment",
				Value:   "production",
				Usage:   "Sentry environment tag",
				Sources: sources("SENTRY_ENVIRONMENT", "sentry.environment", tomlSrc),
			},

			// Rate limiting
			&cli.Float64Flag{
				Name:    "credential-rate-limit",
				Value:   5,
				Usage:   "Per-IP requests per second on credential endpoints",
				Sources: sources("CREDENTIAL_RATE_LIMIT", "ratelimit.credential_rps", tomlSrc),
			},

			// Logging
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "Log level: debug, info, warn, error",
				Sources: sources("LOG_LEVEL", "log.level", tomlSrc),
			},
			&cli.StringFlag{
				Name:    "log-format",
				Value:   "text",
				Usage:   "Log format: text, json",
				Sources: sources("LOG_FORMAT", "log.format", tomlSrc),
			},
		},
		Action: server.Run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
