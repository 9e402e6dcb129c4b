// Copyright 2026 The authd authors
// Licensed under the EUPL-1.2

// Package provider defines the normalized token-refresh payload returned by
// external OAuth providers and the adapter contract for obtaining it.
//
// Adapters must pass through exactly what the wire response contained. In
// particular they must never synthesize a refresh_token field defaulting to
// the old value when the provider omitted it: that would make rotation
// undetectable downstream.
package provider

import (
	"context"
	"encoding/json"
)

// OptionalString is a tagged optional: it distinguishes an absent JSON field
// from one that is present (including present-but-null or empty).
type OptionalString struct {
	Present bool
	Value   string
}

// UnmarshalJSON marks the field present. A JSON null leaves Value empty but
// still counts as present.
func (o *OptionalString) UnmarshalJSON(b []byte) error {
	o.Present = true
	if string(b) == "null" {
		return nil
	}
	return json.Unmarshal(b, &o.Value)
}

// MarshalJSON round-trips the tagged value; absent fields marshal as null
// (payloads are not re-serialized onto the wire, this exists for logging and
// tests).
func (o OptionalString) MarshalJSON() ([]byte, error) {
	if !o.Present {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// TokenPayload is the normalized shape of a provider token-refresh response.
type TokenPayload struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken OptionalString `json:"refresh_token"`
	ExpiresIn    *int64         `json:"expires_in,omitempty"`
}

// Adapter obtains a fresh token payload from an external provider using the
// stored (decrypted) refresh secret. Implementations must honor ctx
// cancellation; the caller bounds the call with a timeout.
type Adapter interface {
	Refresh(ctx context.Context, refreshSecret string) (TokenPayload, error)
}

// AdapterFunc adapts a function to the Adapter interface.
type AdapterFunc func(ctx context.Context, refreshSecret string) (TokenPayload, error)

// Refresh implements Adapter.
func (f AdapterFunc) Refresh(ctx context.Context, refreshSecret string) (TokenPayload, error) {
	return f(ctx, refreshSecret)
}
