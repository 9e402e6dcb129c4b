// Copyright 2026 The authd authors
// Licensed under the EUPL-1.2

package lockout

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func TestBelowThresholdNoLock(t *testing.T) {
	p := NewPolicy(3, time.Hour)
	s := State{}

	s = p.RecordFailure(s, t0)
	s = p.RecordFailure(s, t0)

	assert.Equal(t, 2, s.FailedAttempts)
	assert.Nil(t, s.LockedUntil)
	assert.False(t, p.Locked(s, t0))
}

func TestThresholdLocks(t *testing.T) {
	p := NewPolicy(3, time.Hour)
	s := State{}

	for range 3 {
		s = p.RecordFailure(s, t0)
	}

	require.NotNil(t, s.LockedUntil)
	assert.Equal(t, t0.Add(time.Hour), *s.LockedUntil)
	assert.True(t, p.Locked(s, t0))
	assert.True(t, p.Locked(s, t0.Add(59*time.Minute)))
}

func TestLockExpires(t *testing.T) {
	p := NewPolicy(3, time.Hour)
	s := State{}
	for range 3 {
		s = p.RecordFailure(s, t0)
	}

	assert.False(t, p.Locked(s, t0.Add(time.Hour)))
	assert.False(t, p.Locked(s, t0.Add(2*time.Hour)))
}

func TestRelockAfterExpiredWindow(t *testing.T) {
	p := NewPolicy(3, time.Hour)
	s := State{}
	for range 3 {
		s = p.RecordFailure(s, t0)
	}

	// The window elapses without a successful login, so the counter is
	// still at the threshold. The next failure starts a fresh lock.
	later := t0.Add(2 * time.Hour)
	require.False(t, p.Locked(s, later))

	s = p.RecordFailure(s, later)
	require.NotNil(t, s.LockedUntil)
	assert.Equal(t, later.Add(time.Hour), *s.LockedUntil)
	assert.True(t, p.Locked(s, later))
}

func TestResetClearsEverything(t *testing.T) {
	p := NewPolicy(3, time.Hour)
	s := State{}
	for range 5 {
		s = p.RecordFailure(s, t0)
	}

	s = p.Reset()
	assert.Zero(t, s.FailedAttempts)
	assert.Nil(t, s.LockedUntil)
	assert.False(t, p.Locked(s, t0))
}

func TestNewPolicyDefaults(t *testing.T) {
	p := NewPolicy(0, 0)
	assert.Equal(t, DefaultThreshold, p.Threshold)
	assert.Equal(t, DefaultLockDuration, p.LockDuration)
}
