// Copyright 2026 The authd authors
// Licensed under the EUPL-1.2

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/finlink/authd/internal/services/session"
)

// Refresh redeems a refresh token, rotating it to a successor, and issues a
// new access token. All redemption failures surface as ErrTokenInvalid:
// "refresh failed, re-authenticate".
func (s *Service) Refresh(ctx context.Context, refreshSecret string, origin session.Origin) (*LoginResult, error) {
	userID, newSecret, err := s.sessions.Redeem(ctx, s.repo, refreshSecret, origin)
	if err != nil {
		if errors.Is(err, session.ErrInvalid) {
			slog.Warn("refresh_failed", "reason", "invalid_token")
			return nil, ErrTokenInvalid
		}
		return nil, fmt.Errorf("redeem refresh token: %w", err)
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	accessToken, err := s.access.Issue(userID)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	slog.Info("refresh_rotated", "user_id", userID)
	return &LoginResult{User: user, AccessToken: accessToken, RefreshToken: newSecret}, nil
}

// PruneExpiredTokens deletes expired refresh and one-time tokens. Validity
// is always decided per record at redemption time; pruning only reclaims
// storage.
func (s *Service) PruneExpiredTokens(ctx context.Context) (refreshPruned, onetimePruned int64, err error) {
	refreshPruned, err = s.sessions.PruneExpired(ctx, s.repo)
	if err != nil {
		return 0, 0, fmt.Errorf("prune refresh tokens: %w", err)
	}
	onetimePruned, err = s.onetime.PruneExpired(ctx, s.repo)
	if err != nil {
		return refreshPruned, 0, fmt.Errorf("prune one-time tokens: %w", err)
	}
	return refreshPruned, onetimePruned, nil
}

// Logout revokes the presented refresh token. An unknown or already revoked
// secret is not an error; logout is idempotent.
func (s *Service) Logout(ctx context.Context, refreshSecret string) error {
	revoked, err := s.sessions.Revoke(ctx, s.repo, refreshSecret)
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	if revoked {
		slog.Info("logout_success")
	}
	return nil
}
