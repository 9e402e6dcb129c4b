// Copyright 2026 The authd authors
// Licensed under the EUPL-1.2

package session_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finlink/authd/internal/services/session"
	"github.com/finlink/authd/internal/testutil"
)

var origin = session.Origin{IP: "203.0.113.7", UserAgent: "test-agent"}

func TestIssueAndRedeem(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()
	store := session.NewStore()
	user := testutil.NewTestUser(t, repo, "alice@example.com")

	secret, rec, err := store.Issue(ctx, repo, user.ID, origin)
	require.NoError(t, err)
	assert.NotEmpty(t, secret)
	assert.NotContains(t, rec.TokenHash, secret)
	assert.Equal(t, origin.IP, rec.IP)
	assert.Equal(t, origin.UserAgent, rec.UserAgent)

	userID, newSecret, err := store.Redeem(ctx, repo, secret, origin)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)
	assert.NotEmpty(t, newSecret)
	assert.NotEqual(t, secret, newSecret)
}

func TestRedeemedSecretIsDead(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()
	store := session.NewStore()
	user := testutil.NewTestUser(t, repo, "alice@example.com")

	secret, _, err := store.Issue(ctx, repo, user.ID, origin)
	require.NoError(t, err)

	_, _, err = store.Redeem(ctx, repo, secret, origin)
	require.NoError(t, err)

	_, _, err = store.Redeem(ctx, repo, secret, origin)
	assert.ErrorIs(t, err, session.ErrInvalid)
}

func TestRedeemChain(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()
	store := session.NewStore()
	user := testutil.NewTestUser(t, repo, "alice@example.com")

	secret, _, err := store.Issue(ctx, repo, user.ID, origin)
	require.NoError(t, err)

	for range 5 {
		userID, next, err := store.Redeem(ctx, repo, secret, origin)
		require.NoError(t, err)
		assert.Equal(t, user.ID, userID)
		secret = next
	}

	// Exactly one link of the chain is still active.
	count, err := repo.CountActiveRefreshTokens(ctx, user.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestConcurrentRedeemSingleWinner(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()
	store := session.NewStore()
	user := testutil.NewTestUser(t, repo, "alice@example.com")

	secret, _, err := store.Issue(ctx, repo, user.ID, origin)
	require.NoError(t, err)

	const workers = 8
	var wg sync.WaitGroup
	results := make(chan error, workers)

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := store.Redeem(ctx, repo, secret, origin)
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
			require.ErrorIs(t, err, session.ErrInvalid)
			losses++
		}
	}

	assert.Equal(t, 1, wins)
	assert.Equal(t, workers-1, losses)
}

func TestRedeemUnknownSecret(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	store := session.NewStore()

	_, _, err := store.Redeem(context.Background(), repo, "never-issued", origin)
	assert.ErrorIs(t, err, session.ErrInvalid)
}

func TestRedeemExpiredSecret(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	clock := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	store := session.NewStore().WithClock(func() time.Time { return clock })
	user := testutil.NewTestUser(t, repo, "alice@example.com")

	secret, _, err := store.Issue(ctx, repo, user.ID, origin)
	require.NoError(t, err)

	clock = clock.Add(session.RefreshTokenTTL + time.Minute)
	_, _, err = store.Redeem(ctx, repo, secret, origin)
	assert.ErrorIs(t, err, session.ErrInvalid)
}

func TestRevokeIsIdempotent(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()
	store := session.NewStore()
	user := testutil.NewTestUser(t, repo, "alice@example.com")

	secret, _, err := store.Issue(ctx, repo, user.ID, origin)
	require.NoError(t, err)

	revoked, err := store.Revoke(ctx, repo, secret)
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = store.Revoke(ctx, repo, secret)
	require.NoError(t, err)
	assert.False(t, revoked)

	// Unknown secrets are not an error either.
	revoked, err = store.Revoke(ctx, repo, "never-issued")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRevokeAll(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()
	store := session.NewStore()
	user := testutil.NewTestUser(t, repo, "alice@example.com")
	other := testutil.NewTestUser(t, repo, "bob@example.com")

	var secrets []string
	for range 3 {
		secret, _, err := store.Issue(ctx, repo, user.ID, origin)
		require.NoError(t, err)
		secrets = append(secrets, secret)
	}
	otherSecret, _, err := store.Issue(ctx, repo, other.ID, origin)
	require.NoError(t, err)

	count, err := store.RevokeAll(ctx, repo, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	for _, secret := range secrets {
		_, _, err := store.Redeem(ctx, repo, secret, origin)
		assert.ErrorIs(t, err, session.ErrInvalid)
	}

	// The other user's session survives.
	_, _, err = store.Redeem(ctx, repo, otherSecret, origin)
	assert.NoError(t, err)
}

func TestPruneExpired(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	clock := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	store := session.NewStore().WithClock(func() time.Time { return clock })
	user := testutil.NewTestUser(t, repo, "alice@example.com")

	_, _, err := store.Issue(ctx, repo, user.ID, origin)
	require.NoError(t, err)

	clock = clock.Add(session.RefreshTokenTTL + time.Minute)
	fresh, _, err := store.Issue(ctx, repo, user.ID, origin)
	require.NoError(t, err)

	pruned, err := store.PruneExpired(ctx, repo)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pruned)

	// Pruning never touches live tokens.
	_, _, err = store.Redeem(ctx, repo, fresh, origin)
	assert.NoError(t, err)
}
