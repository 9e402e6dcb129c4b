// Copyright 2026 The authd authors
// Licensed under the EUPL-1.2

package models

import "time"

// User is the identity root. Email comparison is case-insensitive at the
// database level (COLLATE NOCASE unique index).
type User struct { //nolint:govet // fieldalignment not critical for models
	ID             string     `db:"id"`
	Email          string     `db:"email"`
	PasswordHash   string     `db:"password_hash"`
	EmailVerified  bool       `db:"email_verified"`
	FailedAttempts int        `db:"failed_attempts"`
	LockedUntil    *time.Time `db:"locked_until"`
	LastLoginAt    *time.Time `db:"last_login_at"`
	LastLoginIP    string     `db:"last_login_ip"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
}
