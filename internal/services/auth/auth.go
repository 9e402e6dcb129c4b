// Copyright 2026 The authd authors
// Licensed under the EUPL-1.2

// Package auth orchestrates the credential and token lifecycle: register,
// verify email, login with lockout, refresh rotation, logout, password
// reset and provider connection refresh. Each use case runs inside one
// atomic unit of work over the repository.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/finlink/authd/internal/models"
	"github.com/finlink/authd/internal/repository"
	"github.com/finlink/authd/internal/services/lockout"
	"github.com/finlink/authd/internal/services/onetime"
	"github.com/finlink/authd/internal/services/password"
	"github.com/finlink/authd/internal/services/provider"
	"github.com/finlink/authd/internal/services/secrets"
	"github.com/finlink/authd/internal/services/session"
	"github.com/finlink/authd/internal/services/token"
)

// ErrInvalidEmail rejects addresses net/mail cannot parse.
var ErrInvalidEmail = errors.New("invalid email format")

// dummyHash is used for constant-time login to prevent timing attacks
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dummy-password-for-timing"), bcrypt.DefaultCost)

// Mailer delivers one-time secrets. The SMTP implementation lives in
// services/email; tests substitute a fake.
type Mailer interface {
	SendVerification(ctx context.Context, toEmail, secret string, expiresAt time.Time) error
	SendPasswordReset(ctx context.Context, toEmail, secret string, expiresAt time.Time) error
}

// Config carries the orchestrator's security knobs.
type Config struct { //nolint:govet // fieldalignment not critical for config structs
	AccessTokenSecret string
	BcryptCost        int
	LockoutThreshold  int
	LockoutDuration   time.Duration
	ProviderTimeout   time.Duration
}

// Service composes the hasher, codecs, stores and detector into the public
// auth operations.
type Service struct {
	repo      *repository.Repository
	hasher    *password.Hasher
	validator *password.Validator
	access    *token.AccessCodec
	sessions  *session.Store
	onetime   *onetime.Store
	lockout   *lockout.Policy
	box       *secrets.Box
	mailer    Mailer
	adapters  map[string]provider.Adapter
	timeout   time.Duration
	now       func() time.Time
}

// NewService creates the orchestrator.
func NewService(repo *repository.Repository, box *secrets.Box, mailer Mailer, cfg *Config) *Service {
	timeout := cfg.ProviderTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Service{
		repo:      repo,
		hasher:    password.NewHasher(cfg.BcryptCost),
		validator: password.DefaultValidator(),
		access:    token.NewAccessCodec(cfg.AccessTokenSecret),
		sessions:  session.NewStore(),
		onetime:   onetime.NewStore(),
		lockout:   lockout.NewPolicy(cfg.LockoutThreshold, cfg.LockoutDuration),
		box:       box,
		mailer:    mailer,
		adapters:  make(map[string]provider.Adapter),
		timeout:   timeout,
		now:       time.Now,
	}
}

// WithClock overrides the clock for the service and its stores. Test use
// only.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	s.access.WithClock(now)
	s.sessions.WithClock(now)
	s.onetime.WithClock(now)
	return s
}

// RegisterAdapter wires a provider adapter under its provider name.
func (s *Service) RegisterAdapter(name string, adapter provider.Adapter) {
	s.adapters[name] = adapter
}

// ValidateAccessToken verifies a bearer access token and returns the subject
// user id. Fails closed with ErrTokenInvalid.
func (s *Service) ValidateAccessToken(tokenString string) (string, error) {
	subject, err := s.access.Validate(tokenString)
	if err != nil {
		return "", ErrTokenInvalid
	}
	return subject, nil
}

// GetUser loads the minimal profile for an authenticated subject.
func (s *Service) GetUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTokenInvalid
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// Register creates a new user account and issues an email-verification
// token delivered through the mailer.
func (s *Service) Register(ctx context.Context, email, pw string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmail
	}

	if err := s.validator.Validate(pw, email); err != nil {
		return nil, err
	}

	// Hashing is deliberately slow; keep it outside the write transaction
	// so it cannot serialize unrelated requests on the store.
	passwordHash, err := s.hasher.Hash(pw)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	user := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	var verifySecret string
	err = s.repo.InTx(ctx, func(tx *repository.Repository) error {
		_, err := tx.GetUserByEmail(ctx, email)
		if err == nil {
			return ErrDuplicateEmail
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("check existing user: %w", err)
		}

		if err := tx.CreateUser(ctx, user); err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateEmail
			}
			return fmt.Errorf("create user: %w", err)
		}

		verifySecret, err = s.onetime.Issue(ctx, tx, user.ID, models.TokenKindEmailVerification, onetime.VerificationTTL)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.deliverVerification(ctx, user.Email, verifySecret, now.Add(onetime.VerificationTTL))

	slog.Info("register_success", "user_id", user.ID, "email", email)
	return user, nil
}

// VerifyEmail redeems an email-verification token and marks the address
// verified atomically with the redemption.
func (s *Service) VerifyEmail(ctx context.Context, secret string) error {
	userID, err := s.onetime.Redeem(ctx, s.repo, secret, models.TokenKindEmailVerification,
		func(tx *repository.Repository, userID string) error {
			return tx.MarkEmailVerified(ctx, userID, s.now().UTC())
		})
	if err != nil {
		if errors.Is(err, onetime.ErrInvalid) {
			return ErrTokenInvalid
		}
		return fmt.Errorf("verify email: %w", err)
	}

	slog.Info("email_verified", "user_id", userID)
	return nil
}

// LoginResult is what a successful login or refresh returns to the
// transport layer.
type LoginResult struct {
	User         *models.User
	AccessToken  string
	RefreshToken string
}

// Login authenticates a user and issues a fresh access/refresh pair.
func (s *Service) Login(ctx context.Context, email, pw string, origin session.Origin) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Constant-time: always perform a bcrypt comparison so the
			// response cannot reveal whether the account exists.
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(pw))
			slog.Warn("login_failed", "email", email, "reason", "user_not_found")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	now := s.now().UTC()
	state := lockout.State{FailedAttempts: user.FailedAttempts, LockedUntil: user.LockedUntil}

	// While locked, reject before the credential check and leave the
	// counter alone.
	if s.lockout.Locked(state, now) {
		slog.Warn("login_failed", "user_id", user.ID, "reason", "account_locked")
		return nil, &AccountLockedError{Until: *user.LockedUntil}
	}

	if !s.hasher.Verify(pw, user.PasswordHash) {
		// The bcrypt check above is slow and runs outside any transaction,
		// so the counter read at entry may be stale. Re-read it under the
		// write lock: parallel failures each build on the committed value
		// and no increment is lost.
		err := s.repo.InTx(ctx, func(tx *repository.Repository) error {
			fresh, err := tx.GetUserByID(ctx, user.ID)
			if err != nil {
				return fmt.Errorf("reload user: %w", err)
			}
			state = s.lockout.RecordFailure(lockout.State{
				FailedAttempts: fresh.FailedAttempts,
				LockedUntil:    fresh.LockedUntil,
			}, now)
			return tx.UpdateLoginFailure(ctx, user.ID, state.FailedAttempts, state.LockedUntil, now)
		})
		if err != nil {
			return nil, fmt.Errorf("record login failure: %w", err)
		}
		slog.Warn("login_failed", "user_id", user.ID, "reason", "invalid_password",
			"failed_attempts", state.FailedAttempts)
		return nil, ErrInvalidCredentials
	}

	if !user.EmailVerified {
		return nil, ErrEmailNotVerified
	}

	var refreshSecret string
	err = s.repo.InTx(ctx, func(tx *repository.Repository) error {
		if err := tx.UpdateLoginSuccess(ctx, user.ID, now, origin.IP); err != nil {
			return fmt.Errorf("record login success: %w", err)
		}
		refreshSecret, _, err = s.sessions.Issue(ctx, tx, user.ID, origin)
		return err
	})
	if err != nil {
		return nil, err
	}

	accessToken, err := s.access.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	user.FailedAttempts = 0
	user.LockedUntil = nil
	user.LastLoginAt = &now
	user.LastLoginIP = origin.IP

	slog.Info("login_success", "user_id", user.ID, "email", email)
	return &LoginResult{User: user, AccessToken: accessToken, RefreshToken: refreshSecret}, nil
}

// deliverVerification sends the verification mail outside the transaction;
// delivery failures are logged, not surfaced, since the token can be
// re-requested.
func (s *Service) deliverVerification(ctx context.Context, email, secret string, expiresAt time.Time) {
	if s.mailer == nil || secret == "" {
		return
	}
	if err := s.mailer.SendVerification(ctx, email, secret, expiresAt); err != nil {
		slog.Error("verification_mail_failed", "email", email, "error", err)
	}
}

// isUniqueViolation detects the SQLite unique-index error raised when two
// registrations race past the existence check.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
