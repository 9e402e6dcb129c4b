// Copyright 2026 The authd authors
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/labstack/echo/v4"

	"github.com/finlink/authd/internal/services/auth"
	"github.com/finlink/authd/internal/services/password"
)

// fail maps a service error onto an HTTP response. Unknown errors become an
// opaque 500 and go to Sentry; the taxonomy errors carry no internal detail
// beyond their kind.
func fail(c echo.Context, err error) error {
	var locked *auth.AccountLockedError
	if errors.As(err, &locked) {
		return c.JSON(http.StatusLocked, map[string]any{
			"error":        "account temporarily locked",
			"locked_until": locked.Until.UTC().Format(time.RFC3339),
		})
	}

	var policy *password.PolicyError
	if errors.As(err, &policy) {
		return c.JSON(http.StatusUnprocessableEntity, map[string]any{
			"error":   "password does not meet requirements",
			"details": policy.Messages(),
		})
	}

	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
	case errors.Is(err, auth.ErrTokenInvalid):
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid token"})
	case errors.Is(err, auth.ErrEmailNotVerified):
		return c.JSON(http.StatusForbidden, map[string]string{"error": "email not verified"})
	case errors.Is(err, auth.ErrDuplicateEmail):
		return c.JSON(http.StatusConflict, map[string]string{"error": "email already registered"})
	case errors.Is(err, auth.ErrInvalidEmail):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid email"})
	case errors.Is(err, auth.ErrConnectionNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": "connection not found"})
	case errors.Is(err, auth.ErrUpstreamUnavailable):
		return c.JSON(http.StatusBadGateway, map[string]string{"error": "provider unavailable"})
	}

	slog.Error("unhandled service error", "error", err, "uri", c.Request().RequestURI)
	sentry.CaptureException(err)
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
}
