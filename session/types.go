// SPDX-License-Identifier: LGPL-3.0-or-later

// Package session builds and parses authenticated session frames on top of
// the keys negotiated by the handshake, and tracks the resulting sessions
// server-side (registry, idle/absolute expiry, replay protection).
package session

import (
	"crypto/ecdsa"
	"sync"
	"time"

	"github.com/securechan/securechan/keyschedule"
)

// DefaultSkew is the bilateral clock-skew tolerance applied when checking a
// frame's timestamp freshness. The protocol only says a window is needed;
// this follows the reference's own suggested default.
const DefaultSkew = 5 * time.Minute

// Config defines session policies and limits.
type Config struct {
	MaxAge      time.Duration `json:"maxAge"`
	IdleTimeout time.Duration `json:"idleTimeout"`
	MaxMessages int           `json:"maxMessages"`
}

func (c Config) withDefaults() Config {
	if c.MaxAge == 0 {
		c.MaxAge = time.Hour
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 10 * time.Minute
	}
	if c.MaxMessages == 0 {
		c.MaxMessages = 1000
	}
	return c
}

// Status reports registry-wide session counts.
type Status struct {
	TotalSessions   int `json:"totalSessions"`
	ActiveSessions  int `json:"activeSessions"`
	ExpiredSessions int `json:"expiredSessions"`
}

// Session is {client_id, K_enc, K_mac, client ECDSA private key} plus the
// bookkeeping needed to build outbound frames and parse inbound ones.
type Session struct {
	mu sync.Mutex

	clientID  string
	keys      keyschedule.Keys
	signKey   *ecdsa.PrivateKey  // this side's signing key, used on Build
	verifyKey *ecdsa.PublicKey   // peer's key, used on Parse

	createdAt    time.Time
	lastUsedAt   time.Time
	messageCount int
	closed       bool
	config       Config
}

// New constructs a Session from a completed handshake's key material.
func New(clientID string, keys keyschedule.Keys, signKey *ecdsa.PrivateKey, verifyKey *ecdsa.PublicKey, cfg Config) *Session {
	now := time.Now()
	return &Session{
		clientID:   clientID,
		keys:       keys,
		signKey:    signKey,
		verifyKey:  verifyKey,
		createdAt:  now,
		lastUsedAt: now,
		config:     cfg.withDefaults(),
	}
}

func (s *Session) GetID() string            { return s.clientID }
func (s *Session) GetCreatedAt() time.Time  { return s.createdAt }
func (s *Session) GetLastUsedAt() time.Time { return s.lastUsedAt }
func (s *Session) GetConfig() Config        { return s.config }

func (s *Session) GetMessageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.messageCount
}

// IsExpired reports whether the session has exceeded its absolute age,
// idle timeout, or message budget.
func (s *Session) IsExpired() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return true
	}
	now := time.Now()
	if now.Sub(s.createdAt) > s.config.MaxAge {
		return true
	}
	if now.Sub(s.lastUsedAt) > s.config.IdleTimeout {
		return true
	}
	if s.config.MaxMessages > 0 && s.messageCount >= s.config.MaxMessages {
		return true
	}
	return false
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastUsedAt = time.Now()
	s.messageCount++
	s.mu.Unlock()
}

// Close zeroes the session's key material. A closed session is always
// reported expired.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.keys.Zero()
	s.closed = true
	return nil
}
