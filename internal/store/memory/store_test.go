// SPDX-License-Identifier: LGPL-3.0-or-later

package memory

import (
	"context"
	"testing"
	"time"

	"github.com/securechan/securechan/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPendingStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	h := &store.PendingHandshake{
		ClientID:  "client-1",
		Nonce1:    []byte("nonce1"),
		Nonce2:    []byte("nonce2"),
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(time.Minute),
	}
	require.NoError(t, s.Pending().Create(ctx, h))

	got, err := s.Pending().Get(ctx, "client-1")
	require.NoError(t, err)
	assert.Equal(t, h.Nonce1, got.Nonce1)

	require.NoError(t, s.Pending().Delete(ctx, "client-1"))
	_, err = s.Pending().Get(ctx, "client-1")
	assert.Error(t, err)
}

func TestPendingStoreExpiry(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	require.NoError(t, s.Pending().Create(ctx, &store.PendingHandshake{
		ClientID:  "stale",
		CreatedAt: time.Now().Add(-time.Hour),
		ExpiresAt: time.Now().Add(-time.Minute),
	}))

	_, err := s.Pending().Get(ctx, "stale")
	assert.Error(t, err)

	count, err := s.Pending().DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestSessionStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	rec := &store.SessionRecord{
		ClientID:  "client-1",
		EncKey:    []byte("enc"),
		MacKey:    []byte("mac"),
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, s.Sessions().Create(ctx, rec))

	got, err := s.Sessions().Get(ctx, "client-1")
	require.NoError(t, err)
	assert.Equal(t, rec.EncKey, got.EncKey)

	require.NoError(t, s.Sessions().UpdateActivity(ctx, "client-1"))
	updated, err := s.Sessions().Get(ctx, "client-1")
	require.NoError(t, err)
	assert.True(t, updated.LastActivity.After(rec.CreatedAt))

	count, err := s.Sessions().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestNonceStoreRejectsReplay(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	expires := time.Now().Add(time.Minute)
	require.NoError(t, s.Nonces().CheckAndStore(ctx, "client-1:abc", expires))

	err := s.Nonces().CheckAndStore(ctx, "client-1:abc", expires)
	assert.Error(t, err)

	used, err := s.Nonces().IsUsed(ctx, "client-1:abc")
	require.NoError(t, err)
	assert.True(t, used)
}

func TestObjectStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	blob := []byte("encrypted file contents")
	require.NoError(t, s.Objects().Put(ctx, "file-1", blob))

	got, err := s.Objects().Get(ctx, "file-1")
	require.NoError(t, err)
	assert.Equal(t, blob, got)

	require.NoError(t, s.Objects().Delete(ctx, "file-1"))
	_, err = s.Objects().Get(ctx, "file-1")
	assert.Error(t, err)
}

func TestStoreClear(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	require.NoError(t, s.Objects().Put(ctx, "x", []byte("y")))
	s.Clear()
	_, err := s.Objects().Get(ctx, "x")
	assert.Error(t, err)
}
