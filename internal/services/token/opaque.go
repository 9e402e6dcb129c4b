// Copyright 2026 The authd authors
// Licensed under the EUPL-1.2

// Package token implements the two token codecs: opaque high-entropy bearer
// secrets (stored only as one-way digests) and signed, self-describing
// access tokens.
package token

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

const (
	// OpaqueSecretLen is the secret size in bytes for short-lived one-time
	// tokens (256 bits of entropy).
	OpaqueSecretLen = 32

	// RefreshSecretLen is the secret size for 30-day refresh tokens
	// (512 bits of entropy).
	RefreshSecretLen = 64
)

// GenerateOpaque returns a random Base64URL secret of n bytes together with
// its SHA-256 digest as hex. Only the digest may ever be persisted.
func GenerateOpaque(n int) (secret string, hashHex string, err error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", "", fmt.Errorf("generate opaque secret: %w", err)
	}
	secret = base64.RawURLEncoding.EncodeToString(b)
	return secret, HashOpaque(secret), nil
}

// HashOpaque returns the SHA-256 hex digest of a secret. The digest is
// one-way; the ≥256 bits of input entropy make a cost-factor hash
// unnecessary here, unlike for passwords.
func HashOpaque(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// VerifyOpaque compares a presented secret against a stored digest in
// constant time.
func VerifyOpaque(secret, storedHash string) bool {
	sum := sha256.Sum256([]byte(secret))
	want, err := hex.DecodeString(storedHash)
	if err != nil || len(want) != sha256.Size {
		return false
	}
	return subtle.ConstantTimeCompare(sum[:], want) == 1
}
