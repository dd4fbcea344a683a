// SPDX-License-Identifier: LGPL-3.0-or-later

package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/securechan/securechan/internal/store"
)

// PendingStore implements store.PendingStore.
type PendingStore struct {
	mu   sync.RWMutex
	data map[string]*store.PendingHandshake
}

func (p *PendingStore) Create(ctx context.Context, h *store.PendingHandshake) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.data[h.ClientID]; exists {
		return fmt.Errorf("pending handshake already exists: %s", h.ClientID)
	}
	cp := *h
	p.data[h.ClientID] = &cp
	return nil
}

func (p *PendingStore) Get(ctx context.Context, clientID string) (*store.PendingHandshake, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	h, exists := p.data[clientID]
	if !exists {
		return nil, fmt.Errorf("pending handshake not found: %s", clientID)
	}
	if time.Now().After(h.ExpiresAt) {
		return nil, fmt.Errorf("pending handshake expired: %s", clientID)
	}
	cp := *h
	return &cp, nil
}

func (p *PendingStore) Delete(ctx context.Context, clientID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.data[clientID]; !exists {
		return fmt.Errorf("pending handshake not found: %s", clientID)
	}
	delete(p.data, clientID)
	return nil
}

func (p *PendingStore) DeleteExpired(ctx context.Context) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	var count int64
	for id, h := range p.data {
		if now.After(h.ExpiresAt) {
			delete(p.data, id)
			count++
		}
	}
	return count, nil
}
