// Copyright 2026 The authd authors
// Licensed under the EUPL-1.2

package server

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/finlink/authd/internal/config"
)

// initSentry enables error reporting when a DSN is configured. Returns a
// flush function to call on shutdown; a no-op when reporting is disabled.
func initSentry(cfg *config.SentryConfig) (func(), error) {
	if cfg.DSN == "" {
		return func() {}, nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.DSN,
		Environment: cfg.Environment,
	})
	if err != nil {
		return nil, fmt.Errorf("sentry init: %w", err)
	}

	slog.Info("sentry enabled", "environment", cfg.Environment)
	return func() {
		sentry.Flush(2 * time.Second)
	}, nil
}
