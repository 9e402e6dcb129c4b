// Copyright 2026 The authd authors
// Licensed under the EUPL-1.2

package models

import "time"

// OneTimeTokenKind discriminates the two single-use token families.
type OneTimeTokenKind string

const (
	TokenKindEmailVerification OneTimeTokenKind = "email_verification"
	TokenKindPasswordReset     OneTimeTokenKind = "password_reset"
)

// OneTimeToken authorizes exactly one side-effecting action. used_at is set
// once, in the same transaction as the action it authorizes.
type OneTimeToken struct { //nolint:govet // fieldalignment not critical for models
	ID        string           `db:"id"`
	UserID    string           `db:"user_id"`
	Kind      OneTimeTokenKind `db:"kind"`
	TokenHash string           `db:"token_hash"`
	ExpiresAt time.Time        `db:"expires_at"`
	UsedAt    *time.Time       `db:"used_at"`
	CreatedAt time.Time        `db:"created_at"`
}

// Redeemable reports whether the token is still unused and unexpired.
func (t *OneTimeToken) Redeemable(now time.Time) bool {
	return t.UsedAt == nil && now.Before(t.ExpiresAt)
}
