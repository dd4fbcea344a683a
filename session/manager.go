// SPDX-License-Identifier: LGPL-3.0-or-later

package session

import (
	"crypto/ecdsa"
	"fmt"
	"sync"
	"time"

	"github.com/securechan/securechan/keyschedule"
)

// Manager holds the server's registry of established sessions, keyed by
// client_id, with background expiry and a shared replay guard.
type Manager struct {
	mu            sync.RWMutex
	sessions      map[string]*Session
	cleanupTicker *time.Ticker
	stopCleanup   chan struct{}
	defaultConfig Config
	nonceCache    *NonceCache
}

// NewManager creates a session manager with default policy: 1-hour
// absolute expiration, 10-minute idle timeout, 1000-message budget, a
// 10-minute replay-nonce TTL, and a 30-second cleanup sweep.
func NewManager() *Manager {
	m := &Manager{
		sessions:    make(map[string]*Session),
		stopCleanup: make(chan struct{}),
		defaultConfig: Config{
			MaxAge:      time.Hour,
			IdleTimeout: 10 * time.Minute,
			MaxMessages: 1000,
		},
		nonceCache: NewNonceCache(10 * time.Minute),
	}
	m.cleanupTicker = time.NewTicker(30 * time.Second)
	go m.runCleanup()
	return m
}

// ReplayChecker exposes the manager's shared nonce cache to frame.Parse.
func (m *Manager) ReplayChecker() ReplayChecker { return m.nonceCache }

// CreateSession registers a new session for clientID. It fails if a session
// for that client_id already exists — the handshake must mint a fresh
// client_id per the protocol's invariant.
func (m *Manager) CreateSession(clientID string, keys keyschedule.Keys, signKey *ecdsa.PrivateKey, verifyKey *ecdsa.PublicKey) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[clientID]; exists {
		return nil, fmt.Errorf("session: manager: client_id %s already has a session", clientID)
	}
	sess := New(clientID, keys, signKey, verifyKey, m.defaultConfig)
	m.sessions[clientID] = sess
	return sess, nil
}

// GetSession retrieves a session by client_id, evicting and reporting
// absent if it has expired.
func (m *Manager) GetSession(clientID string) (*Session, bool) {
	m.mu.RLock()
	sess, exists := m.sessions[clientID]
	m.mu.RUnlock()

	if !exists {
		return nil, false
	}
	if sess.IsExpired() {
		m.RemoveSession(clientID)
		return nil, false
	}
	return sess, true
}

// RemoveSession closes and drops a session, along with its replay history.
func (m *Manager) RemoveSession(clientID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sess, exists := m.sessions[clientID]; exists {
		sess.Close()
		delete(m.sessions, clientID)
	}
	m.nonceCache.DeleteKey(clientID)
}

// ListSessions returns all active client_ids.
func (m *Manager) ListSessions() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	return ids
}

// GetSessionCount returns the number of registered sessions (including any
// not yet swept for expiry).
func (m *Manager) GetSessionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// GetSessionStats reports active vs. expired counts among the registry.
func (m *Manager) GetSessionStats() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := Status{TotalSessions: len(m.sessions)}
	for _, sess := range m.sessions {
		if sess.IsExpired() {
			stats.ExpiredSessions++
		} else {
			stats.ActiveSessions++
		}
	}
	return stats
}

// SetDefaultConfig updates the policy applied to subsequently created
// sessions.
func (m *Manager) SetDefaultConfig(cfg Config) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultConfig = cfg.withDefaults()
}

// Close stops the cleanup loop and closes every registered session and the
// replay cache.
func (m *Manager) Close() error {
	close(m.stopCleanup)
	m.cleanupTicker.Stop()
	m.nonceCache.Close()

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, sess := range m.sessions {
		sess.Close()
	}
	m.sessions = make(map[string]*Session)
	return nil
}

func (m *Manager) runCleanup() {
	for {
		select {
		case <-m.cleanupTicker.C:
			m.cleanupExpiredSessions()
		case <-m.stopCleanup:
			return
		}
	}
}

func (m *Manager) cleanupExpiredSessions() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, sess := range m.sessions {
		if sess.IsExpired() {
			sess.Close()
			delete(m.sessions, id)
			m.nonceCache.DeleteKey(id)
		}
	}
}
