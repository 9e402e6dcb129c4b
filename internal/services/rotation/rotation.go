// Copyright 2026 The authd authors
// Licensed under the EUPL-1.2

// Package rotation classifies external-provider token-refresh responses.
// The detector is the single place rotation logic lives; it is a pure
// function over the tagged payload, independent of provider identity.
package rotation

import "github.com/finlink/authd/internal/services/provider"

// Outcome is the classification of one refresh response.
type Outcome string

const (
	// NoRotationSupport: the response carried no refresh-token field at
	// all. The stored refresh token is retained unchanged.
	NoRotationSupport Outcome = "no_rotation_support"

	// Rotated: the response carried a refresh token differing from the
	// previous secret. The new secret must replace the stored one.
	Rotated Outcome = "rotated"

	// SameValueReturned: the response echoed the previous secret back.
	// A storage no-op, but logged distinctly from NoRotationSupport since
	// it indicates provider behavior worth auditing.
	SameValueReturned Outcome = "same_value_returned"

	// NotRotated: the response carried the field explicitly empty or null.
	// Storage is left unchanged.
	NotRotated Outcome = "not_rotated"
)

// Classification is the detector result. NewSecret is set only for Rotated.
type Classification struct {
	Outcome   Outcome
	NewSecret string
}

// ReplacesStored reports whether the stored refresh token must be
// overwritten.
func (c Classification) ReplacesStored() bool {
	return c.Outcome == Rotated
}

// Classify inspects a normalized provider response against the previously
// stored refresh secret (nil when none is stored). Rules apply in order:
// absent field, explicit empty value, identical value, new value.
func Classify(oldSecret *string, payload provider.TokenPayload) Classification {
	if !payload.RefreshToken.Present {
		return Classification{Outcome: NoRotationSupport}
	}

	value := payload.RefreshToken.Value
	if value == "" {
		return Classification{Outcome: NotRotated}
	}

	if oldSecret != nil && value == *oldSecret {
		return Classification{Outcome: SameValueReturned}
	}

	return Classification{Outcome: Rotated, NewSecret: value}
}
