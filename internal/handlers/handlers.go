// Copyright 2026 The authd authors
// Licensed under the EUPL-1.2

// Package handlers contains the HTTP layer: request decoding, validation,
// the error-to-status mapping and the refresh token cookie. All lifecycle
// decisions live in the auth service.
package handlers

import (
	"encoding/hex"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/securecookie"
	"github.com/labstack/echo/v4"

	"github.com/finlink/authd/internal/config"
	"github.com/finlink/authd/internal/services/auth"
	"github.com/finlink/authd/internal/services/session"
)

// Handlers contains all HTTP handlers.
type Handlers struct {
	svc     *auth.Service
	cookies *refreshCookies
}

// New creates a new Handlers instance. Cookie delivery of the refresh token
// is enabled only when a cookie hash key is configured; API clients without
// cookies receive the token in the response body either way.
func New(svc *auth.Service, cookieCfg *config.CookieConfig) *Handlers {
	h := &Handlers{svc: svc}

	if cookieCfg != nil && cookieCfg.HashKey != "" {
		key, err := hex.DecodeString(cookieCfg.HashKey)
		if err != nil {
			slog.Error("invalid cookie hash key, refresh cookie disabled", "error", err)
		} else {
			h.cookies = &refreshCookies{
				sc:     securecookie.New(key, nil),
				name:   cookieCfg.Name,
				secure: cookieCfg.Secure,
			}
		}
	}

	return h
}

// Health returns the health status.
func (h *Handlers) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// Validator adapts go-playground/validator to echo's Validator interface.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates the request body validator.
func NewValidator() *Validator {
	return &Validator{validate: validator.New()}
}

// Validate implements echo.Validator.
func (v *Validator) Validate(i any) error {
	if err := v.validate.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request")
	}
	return nil
}

// origin extracts the client network metadata recorded on refresh tokens.
func origin(c echo.Context) session.Origin {
	return session.Origin{
		IP:        c.RealIP(),
		UserAgent: c.Request().UserAgent(),
	}
}

// refreshCookies signs the refresh token into an HTTP-only cookie so browser
// clients never touch the secret from script.
type refreshCookies struct {
	sc     *securecookie.SecureCookie
	name   string
	secure bool
}

func (rc *refreshCookies) set(c echo.Context, secret string, ttl time.Duration) {
	encoded, err := rc.sc.Encode(rc.name, secret)
	if err != nil {
		slog.Error("failed to encode refresh cookie", "error", err)
		return
	}
	c.SetCookie(&http.Cookie{
		Name:     rc.name,
		Value:    encoded,
		Path:     "/auth",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   rc.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (rc *refreshCookies) read(c echo.Context) (string, bool) {
	cookie, err := c.Cookie(rc.name)
	if err != nil {
		return "", false
	}
	var secret string
	if err := rc.sc.Decode(rc.name, cookie.Value, &secret); err != nil {
		return "", false
	}
	return secret, true
}

func (rc *refreshCookies) clear(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     rc.name,
		Value:    "",
		Path:     "/auth",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   rc.secure,
		SameSite: http.SameSiteStrictMode,
	})
}
