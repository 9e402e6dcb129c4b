// Copyright 2026 The authd authors
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/finlink/authd/internal/models"
)

// providerConnectionResponse is the public projection of a connection.
// Sealed token material stays server-side.
type providerConnectionResponse struct {
	ID              string     `json:"id"`
	Provider        string     `json:"provider"`
	HasRefreshToken bool       `json:"has_refresh_token"`
	LastRotation    string     `json:"last_rotation,omitempty"`
	LastRefreshedAt *time.Time `json:"last_refreshed_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

func newProviderConnectionResponse(conn *models.ProviderConnection) providerConnectionResponse {
	return providerConnectionResponse{
		ID:              conn.ID,
		Provider:        conn.Provider,
		HasRefreshToken: conn.RefreshTokenEnc != nil,
		LastRotation:    conn.LastRotation,
		LastRefreshedAt: conn.LastRefreshedAt,
		CreatedAt:       conn.CreatedAt,
	}
}

// CreateProviderConnectionRequest registers an OAuth credential pair.
// RefreshToken is omitted for providers that keep it out of band.
type CreateProviderConnectionRequest struct {
	Provider     string  `json:"provider" validate:"required"`
	AccessToken  string  `json:"access_token" validate:"required"`
	RefreshToken *string `json:"refresh_token"`
}

// CreateProviderConnection stores a third-party credential pair for the
// authenticated user.
func (h *Handlers) CreateProviderConnection(c echo.Context) error {
	userID, _ := c.Get("user_id").(string)

	var req CreateProviderConnectionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	conn, err := h.svc.CreateProviderConnection(c.Request().Context(), userID, req.Provider, req.AccessToken, req.RefreshToken)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(http.StatusCreated, newProviderConnectionResponse(conn))
}

// ListProviderConnections returns the authenticated user's connections.
func (h *Handlers) ListProviderConnections(c echo.Context) error {
	userID, _ := c.Get("user_id").(string)

	conns, err := h.svc.ListProviderConnections(c.Request().Context(), userID)
	if err != nil {
		return fail(c, err)
	}

	out := make([]providerConnectionResponse, 0, len(conns))
	for i := range conns {
		out = append(out, newProviderConnectionResponse(&conns[i]))
	}
	return c.JSON(http.StatusOK, out)
}

// RefreshProviderConnection runs one provider refresh cycle and reports the
// rotation outcome.
func (h *Handlers) RefreshProviderConnection(c echo.Context) error {
	userID, _ := c.Get("user_id").(string)
	connID := c.Param("id")

	conn, err := h.svc.GetProviderConnection(c.Request().Context(), connID)
	if err != nil {
		return fail(c, err)
	}
	if conn.UserID != userID {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "connection not found"})
	}

	class, err := h.svc.RefreshProviderConnection(c.Request().Context(), connID)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(http.StatusOK, map[string]string{
		"outcome": string(class.Outcome),
	})
}
