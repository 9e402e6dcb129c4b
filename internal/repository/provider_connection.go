// Copyright 2026 The authd authors
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"time"

	"github.com/finlink/authd/internal/models"
)

// CreateProviderConnection persists a new provider connection.
func (r *Repository) CreateProviderConnection(ctx context.Context, conn *models.ProviderConnection) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO provider_connections (id, user_id, provider, access_token_enc, refresh_token_enc,
		                                   last_rotation, last_refreshed_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		conn.ID, conn.UserID, conn.Provider, conn.AccessTokenEnc, conn.RefreshTokenEnc,
		conn.LastRotation, conn.LastRefreshedAt, conn.CreatedAt, conn.UpdatedAt)
	return err
}

// GetProviderConnection retrieves a connection by ID.
func (r *Repository) GetProviderConnection(ctx context.Context, id string) (*models.ProviderConnection, error) {
	var conn models.ProviderConnection
	err := r.db.GetContext(ctx, &conn, `SELECT * FROM provider_connections WHERE id = ?`, id)
	if err != nil {
		return nil, wrapError(err)
	}
	return &conn, nil
}

// ListProviderConnections returns all connections of a user.
func (r *Repository) ListProviderConnections(ctx context.Context, userID string) ([]models.ProviderConnection, error) {
	var conns []models.ProviderConnection
	err := r.db.SelectContext(ctx, &conns,
		`SELECT * FROM provider_connections WHERE user_id = ? ORDER BY created_at`, userID)
	if err != nil {
		return nil, err
	}
	return conns, nil
}

// UpdateProviderAccessToken stores a new sealed access token while leaving
// the stored refresh token untouched. Used for the NoRotationSupport,
// SameValueReturned and NotRotated outcomes.
func (r *Repository) UpdateProviderAccessToken(ctx context.Context, id string, accessEnc []byte, rotation string, now time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE provider_connections
		 SET access_token_enc = ?, last_rotation = ?, last_refreshed_at = ?, updated_at = ?
		 WHERE id = ?`,
		accessEnc, rotation, now, now, id)
	return err
}

// ReplaceProviderTokens stores a new sealed access token and overwrites the
// stored refresh token. Only the Rotated outcome may call this.
func (r *Repository) ReplaceProviderTokens(ctx context.Context, id string, accessEnc, refreshEnc []byte, rotation string, now time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE provider_connections
		 SET access_token_enc = ?, refresh_token_enc = ?, last_rotation = ?, last_refreshed_at = ?, updated_at = ?
		 WHERE id = ?`,
		accessEnc, refreshEnc, rotation, now, now, id)
	return err
}
