// Copyright 2026 The authd authors
// Licensed under the EUPL-1.2

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/finlink/authd/internal/models"
	"github.com/finlink/authd/internal/repository"
	"github.com/finlink/authd/internal/services/onetime"
)

// RequestPasswordReset issues a reset token for the account, if it exists,
// and hands it to the mailer. It reports success either way: the absence of
// a user record must be indistinguishable from "email sent".
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			slog.Info("password_reset_requested", "known_account", false)
			return nil
		}
		return fmt.Errorf("get user: %w", err)
	}

	var secret string
	err = s.repo.InTx(ctx, func(tx *repository.Repository) error {
		secret, err = s.onetime.Issue(ctx, tx, user.ID, models.TokenKindPasswordReset, onetime.ResetTTL)
		return err
	})
	if err != nil {
		return fmt.Errorf("issue reset token: %w", err)
	}

	expiresAt := s.now().UTC().Add(onetime.ResetTTL)
	if s.mailer != nil {
		if err := s.mailer.SendPasswordReset(ctx, user.Email, secret, expiresAt); err != nil {
			slog.Error("reset_mail_failed", "user_id", user.ID, "error", err)
		}
	}

	slog.Info("password_reset_requested", "known_account", true, "user_id", user.ID)
	return nil
}

// ConfirmPasswordReset redeems a reset token and, in the same transaction,
// replaces the password, clears all lockout state and revokes every active
// refresh token of the user. Compromised or stale sessions must not survive
// a credential change.
func (s *Service) ConfirmPasswordReset(ctx context.Context, secret, newPassword string) error {
	// Policy check first: a weak password must not burn the token.
	if err := s.validator.Validate(newPassword); err != nil {
		return err
	}

	passwordHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	userID, err := s.onetime.Redeem(ctx, s.repo, secret, models.TokenKindPasswordReset,
		func(tx *repository.Repository, userID string) error {
			if err := tx.UpdatePasswordAndUnlock(ctx, userID, passwordHash, now); err != nil {
				return fmt.Errorf("update password: %w", err)
			}
			revoked, err := s.sessions.RevokeAll(ctx, tx, userID)
			if err != nil {
				return fmt.Errorf("revoke sessions: %w", err)
			}
			slog.Info("password_reset_sessions_revoked", "user_id", userID, "count", revoked)
			return nil
		})
	if err != nil {
		if errors.Is(err, onetime.ErrInvalid) {
			return ErrTokenInvalid
		}
		return err
	}

	slog.Info("password_reset_confirmed", "user_id", userID)
	return nil
}
