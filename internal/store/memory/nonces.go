// SPDX-License-Identifier: LGPL-3.0-or-later

package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/securechan/securechan/internal/store"
)

// NonceStore implements store.NonceStore.
type NonceStore struct {
	mu   sync.RWMutex
	data map[string]*store.NonceRecord
}

func (n *NonceStore) CheckAndStore(ctx context.Context, key string, expiresAt time.Time) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if rec, exists := n.data[key]; exists && time.Now().Before(rec.ExpiresAt) {
		return fmt.Errorf("nonce already used: %s", key)
	}

	n.data[key] = &store.NonceRecord{
		Key:       key,
		UsedAt:    time.Now(),
		ExpiresAt: expiresAt,
	}
	return nil
}

func (n *NonceStore) IsUsed(ctx context.Context, key string) (bool, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	rec, exists := n.data[key]
	if !exists {
		return false, nil
	}
	return time.Now().Before(rec.ExpiresAt), nil
}

func (n *NonceStore) DeleteExpired(ctx context.Context) (int64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	now := time.Now()
	var count int64
	for key, rec := range n.data {
		if now.After(rec.ExpiresAt) {
			delete(n.data, key)
			count++
		}
	}
	return count, nil
}

func (n *NonceStore) Count(ctx context.Context) (int64, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	now := time.Now()
	var count int64
	for _, rec := range n.data {
		if now.Before(rec.ExpiresAt) {
			count++
		}
	}
	return count, nil
}
