// Copyright 2026 The authd authors
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"time"

	"github.com/finlink/authd/internal/models"
)

// CreateUser creates a new user.
func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, email_verified, failed_attempts, locked_until,
		                    last_login_at, last_login_ip, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Email, user.PasswordHash, user.EmailVerified, user.FailedAttempts,
		user.LockedUntil, user.LastLoginAt, user.LastLoginIP, user.CreatedAt, user.UpdatedAt)
	return err
}

// GetUserByID retrieves a user by their ID.
func (r *Repository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT * FROM users WHERE id = ?`, id)
	if err != nil {
		return nil, wrapError(err)
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by email. The email column carries a
// NOCASE collation, so the lookup is case-insensitive.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT * FROM users WHERE email = ?`, email)
	if err != nil {
		return nil, wrapError(err)
	}
	return &user, nil
}

// UpdateLoginFailure records a failed credential check: the new counter value
// and, once the threshold is reached, the lock expiry.
func (r *Repository) UpdateLoginFailure(ctx context.Context, id string, attempts int, lockedUntil *time.Time, now time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET failed_attempts = ?, locked_until = ?, updated_at = ? WHERE id = ?`,
		attempts, lockedUntil, now, id)
	return err
}

// UpdateLoginSuccess resets the failure counter and records the login origin.
func (r *Repository) UpdateLoginSuccess(ctx context.Context, id string, now time.Time, ip string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET failed_attempts = 0, locked_until = NULL, last_login_at = ?, last_login_ip = ?, updated_at = ?
		 WHERE id = ?`,
		now, ip, now, id)
	return err
}

// MarkEmailVerified sets the email-verified flag.
func (r *Repository) MarkEmailVerified(ctx context.Context, id string, now time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET email_verified = 1, updated_at = ? WHERE id = ?`, now, id)
	return err
}

// UpdatePasswordAndUnlock replaces the password hash and clears all lockout
// state. Used by password-reset confirmation, which always reopens the
// account regardless of prior state.
func (r *Repository) UpdatePasswordAndUnlock(ctx context.Context, id, passwordHash string, now time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, failed_attempts = 0, locked_until = NULL, updated_at = ?
		 WHERE id = ?`,
		passwordHash, now, id)
	return err
}
