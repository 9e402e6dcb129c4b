// Copyright 2026 The authd authors
// Licensed under the EUPL-1.2

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/finlink/authd/internal/models"
	"github.com/finlink/authd/internal/repository"
	"github.com/finlink/authd/internal/services/rotation"
)

// CreateProviderConnection registers a third-party OAuth credential pair for
// a user. refreshToken is nil for providers that keep a fixed refresh token
// out of band.
func (s *Service) CreateProviderConnection(ctx context.Context, userID, providerName, accessToken string, refreshToken *string) (*models.ProviderConnection, error) {
	accessEnc, err := s.box.Seal(accessToken)
	if err != nil {
		return nil, fmt.Errorf("seal access token: %w", err)
	}

	var refreshEnc []byte
	if refreshToken != nil {
		refreshEnc, err = s.box.Seal(*refreshToken)
		if err != nil {
			return nil, fmt.Errorf("seal refresh token: %w", err)
		}
	}

	now := s.now().UTC()
	conn := &models.ProviderConnection{
		ID:              uuid.NewString(),
		UserID:          userID,
		Provider:        providerName,
		AccessTokenEnc:  accessEnc,
		RefreshTokenEnc: refreshEnc,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err = s.repo.InTx(ctx, func(tx *repository.Repository) error {
		return tx.CreateProviderConnection(ctx, conn)
	})
	if err != nil {
		return nil, fmt.Errorf("create provider connection: %w", err)
	}

	slog.Info("provider_connection_created", "connection_id", conn.ID, "provider", providerName)
	return conn, nil
}

// ListProviderConnections returns a user's connections.
func (s *Service) ListProviderConnections(ctx context.Context, userID string) ([]models.ProviderConnection, error) {
	return s.repo.ListProviderConnections(ctx, userID)
}

// GetProviderConnection loads one connection.
func (s *Service) GetProviderConnection(ctx context.Context, connectionID string) (*models.ProviderConnection, error) {
	conn, err := s.repo.GetProviderConnection(ctx, connectionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrConnectionNotFound
		}
		return nil, fmt.Errorf("get provider connection: %w", err)
	}
	return conn, nil
}

// RefreshProviderConnection calls the provider adapter for a connection,
// classifies the response through the rotation detector and persists the
// outcome. On adapter failure (including timeout) the stored tokens stay
// untouched and ErrUpstreamUnavailable is returned, never a silent
// "nothing rotated".
func (s *Service) RefreshProviderConnection(ctx context.Context, connectionID string) (rotation.Classification, error) {
	var zero rotation.Classification

	conn, err := s.GetProviderConnection(ctx, connectionID)
	if err != nil {
		return zero, err
	}

	adapter, ok := s.adapters[conn.Provider]
	if !ok {
		return zero, ErrUpstreamUnavailable
	}

	var oldSecret *string
	var refreshSecret string
	if conn.RefreshTokenEnc != nil {
		refreshSecret, err = s.box.Open(conn.RefreshTokenEnc)
		if err != nil {
			return zero, fmt.Errorf("open stored refresh token: %w", err)
		}
		oldSecret = &refreshSecret
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	payload, err := adapter.Refresh(callCtx, refreshSecret)
	if err != nil {
		slog.Warn("provider_refresh_failed", "connection_id", conn.ID, "provider", conn.Provider, "error", err)
		return zero, ErrUpstreamUnavailable
	}

	class := rotation.Classify(oldSecret, payload)

	accessEnc, err := s.box.Seal(payload.AccessToken)
	if err != nil {
		return zero, fmt.Errorf("seal access token: %w", err)
	}

	now := s.now().UTC()
	err = s.repo.InTx(ctx, func(tx *repository.Repository) error {
		if class.ReplacesStored() {
			refreshEnc, err := s.box.Seal(class.NewSecret)
			if err != nil {
				return fmt.Errorf("seal refresh token: %w", err)
			}
			return tx.ReplaceProviderTokens(ctx, conn.ID, accessEnc, refreshEnc, string(class.Outcome), now)
		}
		return tx.UpdateProviderAccessToken(ctx, conn.ID, accessEnc, string(class.Outcome), now)
	})
	if err != nil {
		return zero, err
	}

	// SameValueReturned is logged apart from NoRotationSupport: a provider
	// echoing the secret back is behavior worth auditing.
	slog.Info("provider_rotation", "connection_id", conn.ID, "provider", conn.Provider,
		"outcome", string(class.Outcome))

	return class, nil
}
