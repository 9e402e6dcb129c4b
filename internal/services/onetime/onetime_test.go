// Copyright 2026 The authd authors
// Licensed under the EUPL-1.2

package onetime_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finlink/authd/internal/models"
	"github.com/finlink/authd/internal/repository"
	"github.com/finlink/authd/internal/services/onetime"
	"github.com/finlink/authd/internal/testutil"
)

func TestIssueAndRedeem(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()
	store := onetime.NewStore()
	user := testutil.NewTestUser(t, repo, "alice@example.com")

	secret, err := store.Issue(ctx, repo, user.ID, models.TokenKindEmailVerification, onetime.VerificationTTL)
	require.NoError(t, err)
	require.NotEmpty(t, secret)

	var applied string
	userID, err := store.Redeem(ctx, repo, secret, models.TokenKindEmailVerification,
		func(_ *repository.Repository, userID string) error {
			applied = userID
			return nil
		})
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)
	assert.Equal(t, user.ID, applied)
}

func TestRedeemIsSingleUse(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()
	store := onetime.NewStore()
	user := testutil.NewTestUser(t, repo, "alice@example.com")

	secret, err := store.Issue(ctx, repo, user.ID, models.TokenKindPasswordReset, onetime.ResetTTL)
	require.NoError(t, err)

	_, err = store.Redeem(ctx, repo, secret, models.TokenKindPasswordReset, nil)
	require.NoError(t, err)

	calls := 0
	_, err = store.Redeem(ctx, repo, secret, models.TokenKindPasswordReset,
		func(_ *repository.Repository, _ string) error {
			calls++
			return nil
		})
	assert.ErrorIs(t, err, onetime.ErrInvalid)
	assert.Zero(t, calls, "apply must not run for a consumed token")
}

func TestConcurrentRedeemRunsApplyOnce(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()
	store := onetime.NewStore()
	user := testutil.NewTestUser(t, repo, "alice@example.com")

	secret, err := store.Issue(ctx, repo, user.ID, models.TokenKindPasswordReset, onetime.ResetTTL)
	require.NoError(t, err)

	const workers = 8
	var applied atomic.Int32
	var wg sync.WaitGroup
	results := make(chan error, workers)

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Redeem(ctx, repo, secret, models.TokenKindPasswordReset,
				func(_ *repository.Repository, _ string) error {
					applied.Add(1)
					return nil
				})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var wins, losses int
	for err := range results {
		switch {
		case err == nil:
			wins++
		default:
			require.ErrorIs(t, err, onetime.ErrInvalid)
			losses++
		}
	}

	assert.Equal(t, 1, wins)
	assert.Equal(t, workers-1, losses)
	assert.Equal(t, int32(1), applied.Load(), "apply runs exactly once")
}

func TestRedeemWrongKind(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()
	store := onetime.NewStore()
	user := testutil.NewTestUser(t, repo, "alice@example.com")

	secret, err := store.Issue(ctx, repo, user.ID, models.TokenKindEmailVerification, onetime.VerificationTTL)
	require.NoError(t, err)

	// A verification token is not a reset token.
	_, err = store.Redeem(ctx, repo, secret, models.TokenKindPasswordReset, nil)
	assert.ErrorIs(t, err, onetime.ErrInvalid)

	// And it stays redeemable under its own kind.
	_, err = store.Redeem(ctx, repo, secret, models.TokenKindEmailVerification, nil)
	assert.NoError(t, err)
}

func TestRedeemExpired(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	clock := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	store := onetime.NewStore().WithClock(func() time.Time { return clock })
	user := testutil.NewTestUser(t, repo, "alice@example.com")

	secret, err := store.Issue(ctx, repo, user.ID, models.TokenKindPasswordReset, onetime.ResetTTL)
	require.NoError(t, err)

	clock = clock.Add(onetime.ResetTTL + time.Minute)
	_, err = store.Redeem(ctx, repo, secret, models.TokenKindPasswordReset, nil)
	assert.ErrorIs(t, err, onetime.ErrInvalid)
}

func TestApplyFailureRollsBackConsumption(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()
	store := onetime.NewStore()
	user := testutil.NewTestUser(t, repo, "alice@example.com")

	secret, err := store.Issue(ctx, repo, user.ID, models.TokenKindEmailVerification, onetime.VerificationTTL)
	require.NoError(t, err)

	boom := errors.New("boom")
	_, err = store.Redeem(ctx, repo, secret, models.TokenKindEmailVerification,
		func(_ *repository.Repository, _ string) error {
			return boom
		})
	require.ErrorIs(t, err, boom)

	// The failed side effect rolled the consumption back with it.
	_, err = store.Redeem(ctx, repo, secret, models.TokenKindEmailVerification, nil)
	assert.NoError(t, err)
}

func TestRedeemUnknownSecret(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	store := onetime.NewStore()

	_, err := store.Redeem(context.Background(), repo, "never-issued", models.TokenKindEmailVerification, nil)
	assert.ErrorIs(t, err, onetime.ErrInvalid)
}

func TestTTLFor(t *testing.T) {
	assert.Equal(t, onetime.ResetTTL, onetime.TTLFor(models.TokenKindPasswordReset))
	assert.Equal(t, onetime.VerificationTTL, onetime.TTLFor(models.TokenKindEmailVerification))
}

func TestPruneExpired(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	clock := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	store := onetime.NewStore().WithClock(func() time.Time { return clock })
	user := testutil.NewTestUser(t, repo, "alice@example.com")

	_, err := store.Issue(ctx, repo, user.ID, models.TokenKindPasswordReset, onetime.ResetTTL)
	require.NoError(t, err)

	clock = clock.Add(onetime.ResetTTL + time.Minute)
	fresh, err := store.Issue(ctx, repo, user.ID, models.TokenKindPasswordReset, onetime.ResetTTL)
	require.NoError(t, err)

	pruned, err := store.PruneExpired(ctx, repo)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pruned)

	_, err = store.Redeem(ctx, repo, fresh, models.TokenKindPasswordReset, nil)
	assert.NoError(t, err)
}
