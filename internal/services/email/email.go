// Copyright 2026 The authd authors
// Licensed under the EUPL-1.2

// Package email delivers one-time secrets to users over SMTP. The core never
// formats transport-specific content beyond the callback URL fragment.
package email

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wneessen/go-mail"
)

// SMTPConfig carries the SMTP collaborator settings.
type SMTPConfig struct { //nolint:govet // fieldalignment not critical for config structs
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	TLS      bool
}

// Service sends verification and reset mails via SMTP using go-mail.
type Service struct {
	cfg     *SMTPConfig
	baseURL string
}

// NewService creates a new email service.
func NewService(cfg *SMTPConfig, baseURL string) (*Service, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("SMTP host is required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("SMTP from address is required")
	}

	return &Service{
		cfg:     cfg,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}, nil
}

// SendVerification sends an email-verification message carrying the one-time
// secret.
func (s *Service) SendVerification(ctx context.Context, toEmail, secret string, expiresAt time.Time) error {
	verifyURL := fmt.Sprintf("%s/auth/verify-email?token=%s", s.baseURL, secret)
	body := fmt.Sprintf(
		"Confirm your email address by opening the link below.\n\n%s\n\nThe link expires at %s.\n",
		verifyURL, expiresAt.UTC().Format(time.RFC1123))

	return s.send(ctx, toEmail, "Verify your email address", body)
}

// SendPasswordReset sends a password-reset message carrying the one-time
// secret.
func (s *Service) SendPasswordReset(ctx context.Context, toEmail, secret string, expiresAt time.Time) error {
	resetURL := fmt.Sprintf("%s/auth/password-reset/confirm?token=%s", s.baseURL, secret)
	body := fmt.Sprintf(
		"A password reset was requested for your account. Open the link below to choose a new password.\n\n%s\n\nThe link expires at %s. If you did not request this, ignore this message.\n",
		resetURL, expiresAt.UTC().Format(time.RFC1123))

	return s.send(ctx, toEmail, "Reset your password", body)
}

// send sends an email via SMTP using go-mail.
func (s *Service) send(ctx context.Context, to, subject, body string) error {
	msg := mail.NewMsg()

	if s.cfg.FromName != "" {
		if err := msg.FromFormat(s.cfg.FromName, s.cfg.From); err != nil {
			return fmt.Errorf("setting from address: %w", err)
		}
	} else {
		if err := msg.From(s.cfg.From); err != nil {
			return fmt.Errorf("setting from address: %w", err)
		}
	}

	if err := msg.To(to); err != nil {
		return fmt.Errorf("setting to address: %w", err)
	}

	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
	}

	if s.cfg.TLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
		// Implicit TLS for port 465, STARTTLS otherwise
		if s.cfg.Port == 465 {
			opts = append(opts, mail.WithSSL())
		}
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}

	if s.cfg.Username != "" && s.cfg.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}

	client, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("creating mail client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}

	return nil
}
