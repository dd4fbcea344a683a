// SPDX-License-Identifier: LGPL-3.0-or-later

package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/securechan/securechan/internal/store"
)

// SessionStore implements store.SessionStore.
type SessionStore struct {
	mu   sync.RWMutex
	data map[string]*store.SessionRecord
}

func (s *SessionStore) Create(ctx context.Context, rec *store.SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[rec.ClientID]; exists {
		return fmt.Errorf("session already exists: %s", rec.ClientID)
	}
	cp := *rec
	cp.EncKey = append([]byte(nil), rec.EncKey...)
	cp.MacKey = append([]byte(nil), rec.MacKey...)
	s.data[rec.ClientID] = &cp
	return nil
}

func (s *SessionStore) Get(ctx context.Context, clientID string) (*store.SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, exists := s.data[clientID]
	if !exists {
		return nil, fmt.Errorf("session not found: %s", clientID)
	}
	if time.Now().After(rec.ExpiresAt) {
		return nil, fmt.Errorf("session expired: %s", clientID)
	}
	cp := *rec
	return &cp, nil
}

func (s *SessionStore) Update(ctx context.Context, rec *store.SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[rec.ClientID]; !exists {
		return fmt.Errorf("session not found: %s", rec.ClientID)
	}
	cp := *rec
	s.data[rec.ClientID] = &cp
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, clientID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[clientID]; !exists {
		return fmt.Errorf("session not found: %s", clientID)
	}
	delete(s.data, clientID)
	return nil
}

func (s *SessionStore) DeleteExpired(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	var count int64
	for id, rec := range s.data {
		if now.After(rec.ExpiresAt) {
			delete(s.data, id)
			count++
		}
	}
	return count, nil
}

func (s *SessionStore) UpdateActivity(ctx context.Context, clientID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, exists := s.data[clientID]
	if !exists {
		return fmt.Errorf("session not found: %s", clientID)
	}
	rec.LastActivity = time.Now()
	return nil
}

func (s *SessionStore) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	var count int64
	for _, rec := range s.data {
		if now.Before(rec.ExpiresAt) {
			count++
		}
	}
	return count, nil
}
