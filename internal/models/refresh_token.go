// Copyright 2026 The authd authors
// Licensed under the EUPL-1.2

package models

import "time"

// RefreshToken is one link of a session continuation chain. Only the SHA-256
// digest of the opaque secret is stored; the secret itself never touches the
// database. A row is active while revoked is false and expires_at lies in the
// future.
type RefreshToken struct { //nolint:govet // fieldalignment not critical for models
	ID         string     `db:"id"`
	UserID     string     `db:"user_id"`
	TokenHash  string     `db:"token_hash"`
	IssuedAt   time.Time  `db:"issued_at"`
	ExpiresAt  time.Time  `db:"expires_at"`
	Revoked    bool       `db:"revoked"`
	RevokedAt  *time.Time `db:"revoked_at"`
	LastUsedAt *time.Time `db:"last_used_at"`
	IP         string     `db:"ip"`
	UserAgent  string     `db:"user_agent"`
}

// Active reports whether the token can still be redeemed at the given time.
func (t *RefreshToken) Active(now time.Time) bool {
	return !t.Revoked && now.Before(t.ExpiresAt)
}
