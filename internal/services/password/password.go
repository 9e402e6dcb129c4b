// Copyright 2026 The authd authors
// Licensed under the EUPL-1.2

// Package password provides the credential hasher: deliberately slow, salted
// one-way hashing with a tunable cost factor.
package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	// DefaultCost targets roughly 250-350ms per verification on current
	// server hardware.
	DefaultCost = 12

	// MinCost guards against accidentally cheap configurations.
	MinCost = bcrypt.MinCost
)

// Hasher hashes and verifies passwords with bcrypt.
type Hasher struct {
	cost int
}

// NewHasher creates a Hasher with the given cost factor. Costs below the
// bcrypt minimum fall back to DefaultCost.
func NewHasher(cost int) *Hasher {
	if cost < MinCost {
		cost = DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash returns the bcrypt hash of the secret.
func (h *Hasher) Hash(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Verify reports whether secret matches the stored hash. A malformed stored
// hash yields false, never an error; the comparison itself is constant-time
// inside bcrypt.
func (h *Hasher) Verify(secret, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}
