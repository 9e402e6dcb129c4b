// Copyright 2026 The authd authors
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/finlink/authd/internal/models"
	"github.com/finlink/authd/internal/services/session"
)

// userResponse is the public projection of a user record. The password hash
// and lockout counters never leave the service.
type userResponse struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	EmailVerified bool       `json:"email_verified"`
	LastLoginAt   *time.Time `json:"last_login_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

func newUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:            u.ID,
		Email:         u.Email,
		EmailVerified: u.EmailVerified,
		LastLoginAt:   u.LastLoginAt,
		CreatedAt:     u.CreatedAt,
	}
}

// tokenResponse carries a fresh access/refresh pair.
type tokenResponse struct {
	User         userResponse `json:"user"`
	AccessToken  string       `json:"access_token"`
	TokenType    string       `json:"token_type"`
	RefreshToken string       `json:"refresh_token"`
}

// RegisterRequest is the request body for account registration.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Register creates a new account and triggers the verification mail.
func (h *Handlers) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.svc.Register(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(http.StatusCreated, newUserResponse(user))
}

// VerifyEmailRequest carries the one-time verification secret.
type VerifyEmailRequest struct {
	Token string `json:"token" validate:"required"`
}

// VerifyEmail redeems an email verification token.
func (h *Handlers) VerifyEmail(c echo.Context) error {
	var req VerifyEmailRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.svc.VerifyEmail(c.Request().Context(), req.Token); err != nil {
		return fail(c, err)
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "verified"})
}

// LoginRequest is the request body for password login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login authenticates with email and password and issues a token pair.
func (h *Handlers) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	result, err := h.svc.Login(c.Request().Context(), req.Email, req.Password, origin(c))
	if err != nil {
		return fail(c, err)
	}

	if h.cookies != nil {
		h.cookies.set(c, result.RefreshToken, session.RefreshTokenTTL)
	}

	return c.JSON(http.StatusOK, tokenResponse{
		User:         newUserResponse(result.User),
		AccessToken:  result.AccessToken,
		TokenType:    "Bearer",
		RefreshToken: result.RefreshToken,
	})
}

// RefreshRequest optionally carries the refresh secret in the body; browser
// clients present it via the signed cookie instead.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh rotates the presented refresh token and issues a new pair.
func (h *Handlers) Refresh(c echo.Context) error {
	secret, ok := h.refreshSecret(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing refresh token"})
	}

	result, err := h.svc.Refresh(c.Request().Context(), secret, origin(c))
	if err != nil {
		if h.cookies != nil {
			h.cookies.clear(c)
		}
		return fail(c, err)
	}

	if h.cookies != nil {
		h.cookies.set(c, result.RefreshToken, session.RefreshTokenTTL)
	}

	return c.JSON(http.StatusOK, tokenResponse{
		User:         newUserResponse(result.User),
		AccessToken:  result.AccessToken,
		TokenType:    "Bearer",
		RefreshToken: result.RefreshToken,
	})
}

// Logout revokes the presented refresh token. Always succeeds.
func (h *Handlers) Logout(c echo.Context) error {
	if secret, ok := h.refreshSecret(c); ok {
		if err := h.svc.Logout(c.Request().Context(), secret); err != nil {
			return fail(c, err)
		}
	}
	if h.cookies != nil {
		h.cookies.clear(c)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "logged out"})
}

// refreshSecret reads the refresh token from the request body, falling back
// to the signed cookie.
func (h *Handlers) refreshSecret(c echo.Context) (string, bool) {
	var req RefreshRequest
	if err := c.Bind(&req); err == nil && req.RefreshToken != "" {
		return req.RefreshToken, true
	}
	if h.cookies != nil {
		return h.cookies.read(c)
	}
	return "", false
}

// PasswordResetRequest asks for a reset mail.
type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// RequestPasswordReset issues a reset token for the account, if any. The
// response is identical whether or not the address is registered.
func (h *Handlers) RequestPasswordReset(c echo.Context) error {
	var req PasswordResetRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.svc.RequestPasswordReset(c.Request().Context(), req.Email); err != nil {
		return fail(c, err)
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "reset mail sent if account exists"})
}

// PasswordResetConfirm redeems a reset token with the new password.
type PasswordResetConfirm struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required"`
}

// ConfirmPasswordReset sets the new password and revokes every session.
func (h *Handlers) ConfirmPasswordReset(c echo.Context) error {
	var req PasswordResetConfirm
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.svc.ConfirmPasswordReset(c.Request().Context(), req.Token, req.NewPassword); err != nil {
		return fail(c, err)
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "password updated"})
}

// Me returns the profile of the authenticated subject.
func (h *Handlers) Me(c echo.Context) error {
	userID, _ := c.Get("user_id").(string)

	user, err := h.svc.GetUser(c.Request().Context(), userID)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(http.StatusOK, newUserResponse(user))
}
