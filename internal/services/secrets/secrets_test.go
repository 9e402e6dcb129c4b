// Copyright 2026 The authd authors
// Licensed under the EUPL-1.2

package secrets

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func TestSealOpenRoundtrip(t *testing.T) {
	box, err := NewBox(testKey)
	require.NoError(t, err)

	sealed, err := box.Seal("provider-refresh-secret")
	require.NoError(t, err)
	assert.NotContains(t, string(sealed), "provider-refresh-secret")

	opened, err := box.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "provider-refresh-secret", opened)
}

func TestSealProducesFreshNonce(t *testing.T) {
	box, err := NewBox(testKey)
	require.NoError(t, err)

	a, err := box.Seal("same plaintext")
	require.NoError(t, err)
	b, err := box.Seal("same plaintext")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestOpenRejectsTamperedData(t *testing.T) {
	box, err := NewBox(testKey)
	require.NoError(t, err)

	sealed, err := box.Seal("secret")
	require.NoError(t, err)

	sealed[len(sealed)-1] ^= 0xff
	_, err = box.Open(sealed)
	assert.ErrorIs(t, err, ErrInvalidCiphertext)
}

func TestOpenRejectsShortData(t *testing.T) {
	box, err := NewBox(testKey)
	require.NoError(t, err)

	_, err = box.Open([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrInvalidCiphertext)
}

func TestOpenRejectsWrongKey(t *testing.T) {
	box, err := NewBox(testKey)
	require.NoError(t, err)
	other, err := NewBox(strings.Repeat("ab", 32))
	require.NoError(t, err)

	sealed, err := box.Seal("secret")
	require.NoError(t, err)

	_, err = other.Open(sealed)
	assert.ErrorIs(t, err, ErrInvalidCiphertext)
}

func TestNewBoxRejectsBadKeys(t *testing.T) {
	_, err := NewBox("not-hex")
	assert.Error(t, err)

	_, err = NewBox("abcdef") // too short
	assert.Error(t, err)
}
