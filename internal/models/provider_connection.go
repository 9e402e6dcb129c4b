// Copyright 2026 The authd authors
// Licensed under the EUPL-1.2

package models

import "time"

// ProviderConnection is the service's current belief about a third-party
// OAuth credential pair. Token material is stored AES-GCM sealed.
// RefreshTokenEnc is nil for providers that keep a fixed refresh token out
// of band.
type ProviderConnection struct { //nolint:govet // fieldalignment not critical for models
	ID              string     `db:"id"`
	UserID          string     `db:"user_id"`
	Provider        string     `db:"provider"`
	AccessTokenEnc  []byte     `db:"access_token_enc"`
	RefreshTokenEnc []byte     `db:"refresh_token_enc"`
	LastRotation    string     `db:"last_rotation"`
	LastRefreshedAt *time.Time `db:"last_refreshed_at"`
	CreatedAt       time.Time  `db:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at"`
}
