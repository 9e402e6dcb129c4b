// Copyright 2026 The authd authors
// Licensed under the EUPL-1.2

package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Config describes one provider's token endpoint. Providers differ only in
// endpoint and client credentials; the response shape is normalized by
// TokenPayload.
type Config struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
}

// HTTPAdapter is a generic OAuth2 token-endpoint client. It performs the
// standard refresh_token grant and decodes the response into TokenPayload,
// preserving refresh-token field presence.
type HTTPAdapter struct {
	cfg    Config
	client *http.Client
}

// NewHTTPAdapter creates an adapter for one provider configuration. The
// client timeout is a backstop; callers still bound each call via ctx.
func NewHTTPAdapter(cfg Config) *HTTPAdapter {
	return &HTTPAdapter{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Refresh performs the refresh_token grant against the provider.
func (a *HTTPAdapter) Refresh(ctx context.Context, refreshSecret string) (TokenPayload, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return TokenPayload{}, fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(a.cfg.ClientID, a.cfg.ClientSecret)

	resp, err := a.client.Do(req)
	if err != nil {
		return TokenPayload{}, fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return TokenPayload{}, fmt.Errorf("read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return TokenPayload{}, fmt.Errorf("token endpoint returned %d", resp.StatusCode)
	}

	var payload TokenPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return TokenPayload{}, fmt.Errorf("decode token response: %w", err)
	}
	if payload.AccessToken == "" {
		return TokenPayload{}, fmt.Errorf("token response missing access_token")
	}

	return payload, nil
}
