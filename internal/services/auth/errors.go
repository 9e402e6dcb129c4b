// Copyright 2026 The authd authors
// Licensed under the EUPL-1.2

package auth

import (
	"errors"
	"time"
)

// Error taxonomy crossing the orchestrator boundary. No internal store or
// crypto error ever surfaces directly; use cases re-map everything onto
// these kinds.
var (
	// ErrInvalidCredentials covers bad email and bad password uniformly.
	// "No such user" and "wrong password" are indistinguishable externally.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrEmailNotVerified rejects logins before the address is confirmed.
	ErrEmailNotVerified = errors.New("email not verified")

	// ErrTokenInvalid covers expired, revoked, unknown and malformed tokens
	// of all kinds uniformly.
	ErrTokenInvalid = errors.New("invalid token")

	// ErrDuplicateEmail rejects registration with a taken address.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrUpstreamUnavailable signals a provider collaborator failure,
	// including timeouts. Stored provider tokens stay untouched.
	ErrUpstreamUnavailable = errors.New("provider unavailable")

	// ErrConnectionNotFound rejects operations on unknown provider
	// connections.
	ErrConnectionNotFound = errors.New("provider connection not found")
)

// AccountLockedError rejects login attempts while the lockout window is
// open. Until is the lock expiry.
type AccountLockedError struct {
	Until time.Time
}

func (e *AccountLockedError) Error() string {
	return "account temporarily locked"
}
