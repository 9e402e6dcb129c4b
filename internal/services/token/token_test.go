// Copyright 2026 The authd authors
// Licensed under the EUPL-1.2

package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateOpaque(t *testing.T) {
	secret, hash, err := GenerateOpaque(RefreshSecretLen)
	require.NoError(t, err)
	assert.NotEmpty(t, secret)
	assert.Len(t, hash, 64) // sha256 hex

	assert.True(t, VerifyOpaque(secret, hash))
	assert.False(t, VerifyOpaque(secret+"x", hash))
}

func TestGenerateOpaqueUnique(t *testing.T) {
	a, _, err := GenerateOpaque(OpaqueSecretLen)
	require.NoError(t, err)
	b, _, err := GenerateOpaque(OpaqueSecretLen)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestVerifyOpaqueBadStoredHash(t *testing.T) {
	assert.False(t, VerifyOpaque("secret", "not-hex"))
	assert.False(t, VerifyOpaque("secret", "deadbeef")) // wrong length
	assert.False(t, VerifyOpaque("secret", ""))
}

func TestAccessCodecRoundtrip(t *testing.T) {
	codec := NewAccessCodec("test-signing-secret")

	tok, err := codec.Issue("user-123")
	require.NoError(t, err)

	subject, err := codec.Validate(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-123", subject)
}

func TestAccessCodecRejectsWrongKey(t *testing.T) {
	tok, err := NewAccessCodec("key-one").Issue("user-123")
	require.NoError(t, err)

	_, err = NewAccessCodec("key-two").Validate(tok)
	assert.ErrorIs(t, err, ErrInvalidAccessToken)
}

func TestAccessCodecRejectsExpired(t *testing.T) {
	issued := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	codec := NewAccessCodec("test-signing-secret").WithClock(func() time.Time { return issued })

	tok, err := codec.Issue("user-123")
	require.NoError(t, err)

	// Still valid just before expiry.
	codec.WithClock(func() time.Time { return issued.Add(AccessTokenTTL - time.Second) })
	_, err = codec.Validate(tok)
	assert.NoError(t, err)

	// Invalid right after.
	codec.WithClock(func() time.Time { return issued.Add(AccessTokenTTL + time.Second) })
	_, err = codec.Validate(tok)
	assert.ErrorIs(t, err, ErrInvalidAccessToken)
}

func TestAccessCodecRejectsMalformed(t *testing.T) {
	codec := NewAccessCodec("test-signing-secret")

	for _, tok := range []string{"", "garbage", "a.b.c"} {
		_, err := codec.Validate(tok)
		assert.ErrorIs(t, err, ErrInvalidAccessToken)
	}
}

func TestAccessCodecRejectsWrongType(t *testing.T) {
	codec := NewAccessCodec("test-signing-secret")

	// A structurally valid token signed with the same key but a different
	// typ claim must not pass as an access token.
	claims := &accessClaims{
		Type: "refresh",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-123",
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-signing-secret"))
	require.NoError(t, err)

	_, err = codec.Validate(signed)
	assert.ErrorIs(t, err, ErrInvalidAccessToken)
}

func TestAccessCodecRejectsMissingSubject(t *testing.T) {
	codec := NewAccessCodec("test-signing-secret")

	tok, err := codec.Issue("")
	require.NoError(t, err)

	_, err = codec.Validate(tok)
	assert.ErrorIs(t, err, ErrInvalidAccessToken)
}

func TestAccessCodecRejectsUnsignedAlg(t *testing.T) {
	codec := NewAccessCodec("test-signing-secret")

	claims := jwt.MapClaims{"sub": "user-123", "typ": "access"}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = codec.Validate(unsigned)
	assert.ErrorIs(t, err, ErrInvalidAccessToken)
}
