// Copyright 2026 The authd authors
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"time"

	"github.com/finlink/authd/internal/models"
)

// CreateOneTimeToken persists a new one-time token record.
func (r *Repository) CreateOneTimeToken(ctx context.Context, token *models.OneTimeToken) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO one_time_tokens (id, user_id, kind, token_hash, expires_at, used_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		token.ID, token.UserID, token.Kind, token.TokenHash, token.ExpiresAt, token.UsedAt, token.CreatedAt)
	return err
}

// ActiveOneTimeTokens returns the unused, unexpired partition of one kind.
func (r *Repository) ActiveOneTimeTokens(ctx context.Context, kind models.OneTimeTokenKind, now time.Time) ([]models.OneTimeToken, error) {
	var tokens []models.OneTimeToken
	err := r.db.SelectContext(ctx, &tokens,
		`SELECT * FROM one_time_tokens WHERE kind = ? AND used_at IS NULL AND expires_at > ?`,
		kind, now)
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

// ConsumeOneTimeToken sets used_at exactly once. The used_at IS NULL guard
// lets at most one of two concurrent redemptions succeed.
func (r *Repository) ConsumeOneTimeToken(ctx context.Context, id string, now time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE one_time_tokens SET used_at = ? WHERE id = ? AND used_at IS NULL`, now, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// DeleteExpiredOneTimeTokens prunes tokens past their expiry.
func (r *Repository) DeleteExpiredOneTimeTokens(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM one_time_tokens WHERE expires_at < ?`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
