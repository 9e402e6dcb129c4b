// Copyright 2026 The authd authors
// Licensed under the EUPL-1.2

// Package session manages refresh tokens: issuance, single-use rotation,
// revocation and expiry. A leaked secret is usable exactly once; concurrent
// redeems of the same secret race to a single winner inside one immediate
// transaction.
package session

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

// RefreshTokenTTL is the fixed horizon from issuance.
const RefreshTokenTTL = 30 * 24 * time.Hour

// ErrInvalid covers every redemption failure uniformly: unknown secret,
// already revoked, or expired. Callers must not distinguish these cases to
// the requester.
var ErrInvalid = errors.New("invalid refresh token")

// Origin is the network origin metadata recorded on each token.
type Origin struct {
	IP        string
	UserAgent string
}

// Store is the refresh token manager. Methods take the repository as an
// argument so the orchestrator can bind them into a wider transaction.
type Store struct {
	ttl time.Duration
	now func() time.Time
}

// NewStore creates a Store with the default TTL.
func NewStore() *Store {
	return &Store{ttl: RefreshTokenTTL, now: time.Now}
}

// WithClock overrides the store's clock. Test use only.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Issue creates a new refresh token for the user and returns the opaque
// secret together with the stored record.
func (s *Store) Issue(ctx context.Context, r *repository.Repository, userID string, origin Origin) (string, *models.RefreshToken, error) {
	secret, hash, err := token.GenerateOpaque(token.RefreshSecretLen)
	if err != nil {
		return "", nil, err
	}

	now := s.now().UTC()
	rec := &models.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    userID,
		TokenHash: hash,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.ttl),
		IP:        origin.IP,
		UserAgent: origin.UserAgent,
	}
	if err := r.CreateRefreshToken(ctx, rec); err != nil {
		return "", nil, fmt.Errorf("create refresh token: %w", err)
	}

	return secret, rec, nil
}

// Redeem rotates a refresh token: it locates the active record matching the
// presented secret, revokes it and creates a successor for the same user,
// all in one transaction. The new secret is returned. Any failure to match
// yields ErrInvalid.
func (s *Store) Redeem(ctx context.Context, r *repository.Repository, secret string, origin Origin) (userID, newSecret string, err error) {
	err = r.InTx(ctx, func(tx *repository.Repository) error {
		now := s.now().UTC()

		matched, err := s.findActive(ctx, tx, secret, now)
		if err != nil {
			return err
		}

		// The revoked=0 guard decides the race between concurrent redeems
		// of the same secret.
		ok, err := tx.RevokeRefreshToken(ctx, matched.ID, now)
		if err != nil {
			return fmt.Errorf("revoke refresh token: %w", err)
		}
		if !ok {
			return ErrInvalid
		}

		successor, _, err := s.Issue(ctx, tx, matched.UserID, origin)
		if err != nil {
			return err
		}

		userID = matched.UserID
		newSecret = successor
		return nil
	})
	if err != nil {
		return "", "", err
	}
	return userID, newSecret, nil
}

// Revoke invalidates a single token by its secret (logout). It reports
// whether a token was actually revoked.
func (s *Store) Revoke(ctx context.Context, r *repository.Repository, secret string) (bool, error) {
	var revoked bool
	err := r.InTx(ctx, func(tx *repository.Repository) error {
		now := s.now().UTC()

		matched, err := s.findActive(ctx, tx, secret, now)
		if err != nil {
			if errors.Is(err, ErrInvalid) {
				return nil
			}
			return err
		}

		revoked, err = tx.RevokeRefreshToken(ctx, matched.ID, now)
		return err
	})
	if err != nil {
		return false, err
	}
	return revoked, nil
}

// RevokeAll revokes every active token of a user and returns the count.
// Called on password-reset confirmation: no session survives a credential
// change.
func (s *Store) RevokeAll(ctx context.Context, r *repository.Repository, userID string) (int64, error) {
	return r.RevokeAllRefreshTokens(ctx, userID, s.now().UTC())
}

// PruneExpired deletes tokens past their expiry, keeping the active
// partition scan bounded.
func (s *Store) PruneExpired(ctx context.Context, r *repository.Repository) (int64, error) {
	return r.DeleteExpiredRefreshTokens(ctx, s.now().UTC())
}

// findActive scans the unrevoked, unexpired partition and verifies the
// presented secret against each candidate hash in constant time. The hash is
// one-way, so there is no equality lookup on the secret itself.
func (s *Store) findActive(ctx context.Context, r *repository.Repository, secret string, now time.Time) (*models.RefreshToken, error) {
	candidates, err := r.ActiveRefreshTokens(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("load active refresh tokens: %w", err)
	}

	for i := range candidates {
		if !candidates[i].Active(now) {
			continue
		}
		if token.VerifyOpaque(secret, candidates[i].TokenHash) {
			return &candidates[i], nil
		}
	}

	return nil, ErrInvalid
}
