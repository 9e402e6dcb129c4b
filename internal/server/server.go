// Copyright 2026 The authd authors
// Licensed under the EUPL-1.2

// Package server wires configuration, storage, services and the HTTP
// transport together and runs the process.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/urfave/cli/v3"

	"github.com/finlink/authd/internal/config"
	"github.com/finlink/authd/internal/database"
	"github.com/finlink/authd/internal/handlers"
	"github.com/finlink/authd/internal/repository"
	"github.com/finlink/authd/internal/services/auth"
	"github.com/finlink/authd/internal/services/email"
	"github.com/finlink/authd/internal/services/provider"
	"github.com/finlink/authd/internal/services/secrets"
)

// pruneInterval is how often expired refresh and one-time tokens are swept.
const pruneInterval = time.Hour

// Run starts the server with the given CLI command.
func Run(ctx context.Context, cmd *cli.Command) error {
	cfg := config.NewFromCLI(cmd)
	setupLogger(cfg.Log.Level, cfg.Log.Format)

	if err := cfg.Validate(); err != nil {
		return err
	}

	slog.Info("starting server",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"base_url", cfg.Server.BaseURL,
	)

	flushSentry, err := initSentry(&cfg.Sentry)
	if err != nil {
		return err
	}
	defer flushSentry()

	// Database (Open runs pending migrations)
	db, err := database.Open(cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("failed to close database", "error", closeErr)
		}
	}()

	// Repository
	repo := repository.New(db)

	// Provider token sealing
	box, err := secrets.NewBox(cfg.Auth.EncryptionKey)
	if err != nil {
		return fmt.Errorf("failed to init encryption: %w", err)
	}

	// Mailer (optional; without SMTP the secrets are only logged as issued)
	var mailer auth.Mailer
	if cfg.SMTP.Host != "" {
		mailer, err = email.NewService(&email.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
			FromName: cfg.SMTP.FromName,
			TLS:      cfg.SMTP.TLS,
		}, cfg.Server.BaseURL)
		if err != nil {
			return fmt.Errorf("failed to init mailer: %w", err)
		}
	} else {
		slog.Warn("SMTP not configured, verification and reset mails disabled")
	}

	// Auth service
	svc := auth.NewService(repo, box, mailer, &auth.Config{
		AccessTokenSecret: cfg.Auth.AccessTokenSecret,
		BcryptCost:        cfg.Auth.BcryptCost,
		LockoutThreshold:  cfg.Auth.LockoutThreshold,
		LockoutDuration:   cfg.Auth.LockoutWindow,
		ProviderTimeout:   cfg.Auth.ProviderTimeout,
	})

	// Provider adapters from the [[providers]] config table
	providers, err := config.LoadProviders(cfg.File)
	if err != nil {
		return fmt.Errorf("failed to load providers: %w", err)
	}
	for _, p := range providers {
		svc.RegisterAdapter(p.Name, provider.NewHTTPAdapter(provider.Config{
			TokenURL:     p.TokenURL,
			ClientID:     p.ClientID,
			ClientSecret: p.ClientSecret,
		}))
		slog.Info("provider adapter registered", "provider", p.Name)
	}

	// Echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	setupMiddleware(e)

	// Routes
	setupRoutes(e, svc, cfg)

	// Background sweep of expired tokens
	pruneCtx, stopPrune := context.WithCancel(ctx)
	defer stopPrune()
	go pruneLoop(pruneCtx, svc)

	// Start server
	return startWithGracefulShutdown(e, cfg)
}

func setupRoutes(e *echo.Echo, svc *auth.Service, cfg *config.Config) {
	h := handlers.New(svc, &cfg.Cookie)
	e.Validator = handlers.NewValidator()

	e.GET("/health", h.Health)

	creds := credentialRateLimiter(cfg.RateLimit.CredentialRPS)

	a := e.Group("/auth")
	a.POST("/register", h.Register, creds)
	a.POST("/verify-email", h.VerifyEmail)
	a.POST("/login", h.Login, creds)
	a.POST("/refresh", h.Refresh)
	a.POST("/logout", h.Logout)
	a.POST("/password-reset/request", h.RequestPasswordReset, creds)
	a.POST("/password-reset/confirm", h.ConfirmPasswordReset, creds)

	authed := e.Group("", bearerAuth(svc))
	authed.GET("/me", h.Me)
	authed.POST("/providers", h.CreateProviderConnection)
	authed.GET("/providers", h.ListProviderConnections)
	authed.POST("/providers/:id/refresh", h.RefreshProviderConnection)
}

// pruneLoop deletes expired refresh and one-time tokens on a fixed interval.
// Validity decisions never depend on the sweep; it only reclaims space.
func pruneLoop(ctx context.Context, svc *auth.Service) {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			refresh, onetime, err := svc.PruneExpiredTokens(ctx)
			if err != nil {
				slog.Error("token prune failed", "error", err)
				continue
			}
			if refresh > 0 || onetime > 0 {
				slog.Info("token prune", "refresh_tokens", refresh, "one_time_tokens", onetime)
			}
		}
	}
}

func startWithGracefulShutdown(e *echo.Echo, cfg *config.Config) error {
	errChan := make(chan error, 1)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	go func() {
		slog.Info("Server running", "url", cfg.Server.BaseURL)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	// Wait for interrupt signal or error
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		slog.Info("shutting down server")
	case err := <-errChan:
		slog.Error("server error", "error", err)
		return err
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}

	slog.Info("server stopped")
	return nil
}
