// Copyright 2026 The authd authors
// Licensed under the EUPL-1.2

// Package onetime manages single-use email-verification and password-reset
// tokens. Redemption consumes the token in the same transaction as the side
// effect it authorizes, so a token is never burned without its effect and
// the effect can never be applied twice.
package onetime

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/finlink/authd/internal/models"
	"github.com/finlink/authd/internal/repository"
	"github.com/finlink/authd/internal/services/token"
)

const (
	// VerificationTTL is the lifetime of email-verification tokens.
	VerificationTTL = 24 * time.Hour

	// ResetTTL is the lifetime of password-reset tokens.
	ResetTTL = time.Hour
)

// ErrInvalid covers every redemption failure uniformly: unknown, expired or
// already consumed.
var ErrInvalid = errors.New("invalid one-time token")

// Store manages one-time tokens over the repository.
type Store struct {
	now func() time.Time
}

// NewStore creates a Store.
func NewStore() *Store {
	return &Store{now: time.Now}
}

// WithClock overrides the store's clock. Test use only.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// TTLFor returns the lifetime of a token kind.
func TTLFor(kind models.OneTimeTokenKind) time.Duration {
	if kind == models.TokenKindPasswordReset {
		return ResetTTL
	}
	return VerificationTTL
}

// Issue creates a one-time token for the user and returns the opaque secret.
func (s *Store) Issue(ctx context.Context, r *repository.Repository, userID string, kind models.OneTimeTokenKind, ttl time.Duration) (string, error) {
	secret, hash, err := token.GenerateOpaque(token.OpaqueSecretLen)
	if err != nil {
		return "", err
	}

	now := s.now().UTC()
	rec := &models.OneTimeToken{
		ID:        uuid.NewString(),
		UserID:    userID,
		Kind:      kind,
		TokenHash: hash,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	if err := r.CreateOneTimeToken(ctx, rec); err != nil {
		return "", fmt.Errorf("create one-time token: %w", err)
	}

	return secret, nil
}

// Redeem consumes a token of the given kind and runs apply with the owning
// user id inside the same transaction. If apply fails the consumption rolls
// back with it; if the token was already consumed, apply never runs.
func (s *Store) Redeem(ctx context.Context, r *repository.Repository, secret string, kind models.OneTimeTokenKind, apply func(tx *repository.Repository, userID string) error) (string, error) {
	var userID string
	err := r.InTx(ctx, func(tx *repository.Repository) error {
		now := s.now().UTC()

		candidates, err := tx.ActiveOneTimeTokens(ctx, kind, now)
		if err != nil {
			return fmt.Errorf("load active one-time tokens: %w", err)
		}

		var matched *models.OneTimeToken
		for i := range candidates {
			if !candidates[i].Redeemable(now) {
				continue
			}
			if token.VerifyOpaque(secret, candidates[i].TokenHash) {
				matched = &candidates[i]
				break
			}
		}
		if matched == nil {
			return ErrInvalid
		}

		// used_at IS NULL guard: at most one concurrent redemption wins.
		ok, err := tx.ConsumeOneTimeToken(ctx, matched.ID, now)
		if err != nil {
			return fmt.Errorf("consume one-time token: %w", err)
		}
		if !ok {
			return ErrInvalid
		}

		userID = matched.UserID
		if apply != nil {
			return apply(tx, matched.UserID)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return userID, nil
}

// PruneExpired deletes tokens past their expiry.
func (s *Store) PruneExpired(ctx context.Context, r *repository.Repository) (int64, error) {
	return r.DeleteExpiredOneTimeTokens(ctx, s.now().UTC())
}
