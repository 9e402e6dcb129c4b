// Copyright 2026 The authd authors
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"time"

	"github.com/finlink/authd/internal/models"
)

// CreateRefreshToken persists a new refresh token record.
func (r *Repository) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO refresh_tokens (id, user_id, token_hash, issued_at, expires_at, revoked,
		                             revoked_at, last_used_at, ip, user_agent)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		token.ID, token.UserID, token.TokenHash, token.IssuedAt, token.ExpiresAt, token.Revoked,
		token.RevokedAt, token.LastUsedAt, token.IP, token.UserAgent)
	return err
}

// ActiveRefreshTokens returns the unrevoked, unexpired partition. Redeem
// scans this set and verifies the presented secret against each hash; the
// (revoked, expires_at) index keeps the partition bounded together with
// expiry pruning.
func (r *Repository) ActiveRefreshTokens(ctx context.Context, now time.Time) ([]models.RefreshToken, error) {
	var tokens []models.RefreshToken
	err := r.db.SelectContext(ctx, &tokens,
		`SELECT * FROM refresh_tokens WHERE revoked = 0 AND expires_at > ?`, now)
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

// RevokeRefreshToken marks a token revoked. The WHERE revoked = 0 guard makes
// concurrent redeems of the same secret race to a single winner: the loser
// sees false.
func (r *Repository) RevokeRefreshToken(ctx context.Context, id string, now time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked = 1, revoked_at = ?, last_used_at = ? WHERE id = ? AND revoked = 0`,
		now, now, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// RevokeAllRefreshTokens revokes every active token of a user and returns how
// many were affected.
func (r *Repository) RevokeAllRefreshTokens(ctx context.Context, userID string, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked = 1, revoked_at = ? WHERE user_id = ? AND revoked = 0`,
		now, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteExpiredRefreshTokens prunes tokens past their expiry.
func (r *Repository) DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM refresh_tokens WHERE expires_at < ?`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CountActiveRefreshTokens counts a user's redeemable tokens.
func (r *Repository) CountActiveRefreshTokens(ctx context.Context, userID string, now time.Time) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count,
		`SELECT count(*) FROM refresh_tokens WHERE user_id = ? AND revoked = 0 AND expires_at > ?`,
		userID, now)
	if err != nil {
		return 0, err
	}
	return count, nil
}
