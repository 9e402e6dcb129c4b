// Copyright 2026 The authd authors
// Licensed under the EUPL-1.2

package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenTTL is the fixed lifetime of an access token.
const AccessTokenTTL = 30 * time.Minute

// typAccess distinguishes access tokens from any other token class that
// might share the signing key.
const typAccess = "access"

// ErrInvalidAccessToken is returned for every validation failure: bad
// signature, expiry, malformed input, or wrong token type. Callers never see
// which one.
var ErrInvalidAccessToken = errors.New("invalid access token")

type accessClaims struct {
	Type string `json:"typ"`
	jwt.RegisteredClaims
}

// AccessCodec signs and verifies stateless access tokens.
type AccessCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewAccessCodec creates a codec signing with the given server-held secret.
func NewAccessCodec(secret string) *AccessCodec {
	return &AccessCodec{
		secret: []byte(secret),
		ttl:    AccessTokenTTL,
		now:    time.Now,
	}
}

// WithClock overrides the codec's clock. Test use only.
func (c *AccessCodec) WithClock(now func() time.Time) *AccessCodec {
	c.now = now
	return c
}

// Issue creates a signed access token carrying the subject id.
func (c *AccessCodec) Issue(subjectID string) (string, error) {
	now := c.now()
	claims := &accessClaims{
		Type: typAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// Validate verifies signature, expiry and type tag and returns the subject
// id. It fails closed: every failure mode surfaces as ErrInvalidAccessToken.
func (c *AccessCodec) Validate(tokenString string) (string, error) {
	tok, err := jwt.ParseWithClaims(tokenString, &accessClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.secret, nil
	}, jwt.WithTimeFunc(c.now))
	if err != nil {
		return "", ErrInvalidAccessToken
	}

	claims, ok := tok.Claims.(*accessClaims)
	if !ok || !tok.Valid {
		return "", ErrInvalidAccessToken
	}
	if claims.Type != typAccess {
		return "", ErrInvalidAccessToken
	}
	if claims.Subject == "" {
		return "", ErrInvalidAccessToken
	}

	return claims.Subject, nil
}
