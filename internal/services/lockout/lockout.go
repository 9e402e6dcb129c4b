// Copyright 2026 The authd authors
// Licensed under the EUPL-1.2

// Package lockout implements the brute-force lockout state machine. It is a
// pure function layer: the orchestrator persists the resulting counter and
// lock expiry inside the same transaction as the login attempt, so there is
// no shared in-process state.
package lockout

import "time"

const (
	// DefaultThreshold is the number of consecutive failures that locks an
	// account.
	DefaultThreshold = 10

	// DefaultLockDuration is how long a locked account stays locked.
	DefaultLockDuration = time.Hour
)

// Policy computes lock and unlock windows per credential.
type Policy struct {
	Threshold    int
	LockDuration time.Duration
}

// NewPolicy creates a Policy; non-positive values fall back to the defaults.
func NewPolicy(threshold int, lockDuration time.Duration) *Policy {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if lockDuration <= 0 {
		lockDuration = DefaultLockDuration
	}
	return &Policy{Threshold: threshold, LockDuration: lockDuration}
}

// State is the persisted lockout state of one credential.
type State struct {
	FailedAttempts int
	LockedUntil    *time.Time
}

// Locked reports whether the credential is locked at the given time. A lock
// whose expiry has elapsed counts as open again.
func (p *Policy) Locked(s State, now time.Time) bool {
	return s.LockedUntil != nil && now.Before(*s.LockedUntil)
}

// RecordFailure increments the counter and, once the threshold is reached,
// sets the lock expiry. It returns the state to persist. Callers only record
// failures while the credential is open, so reaching the threshold again
// after an elapsed lock starts a fresh lock window.
func (p *Policy) RecordFailure(s State, now time.Time) State {
	s.FailedAttempts++
	if s.FailedAttempts >= p.Threshold {
		until := now.Add(p.LockDuration)
		s.LockedUntil = &until
	}
	return s
}

// Reset clears the counter and lock. Applied on successful login and on
// password-reset confirmation, regardless of prior state.
func (p *Policy) Reset() State {
	return State{}
}
