// Copyright (C) 2025 securechan contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

// Package memory is an in-process implementation of store.Store, useful
// for tests and single-node deployments that don't need a database.
package memory

import (
	"context"

	"github.com/securechan/securechan/internal/store"
)

// Store implements store.Store entirely in memory.
type Store struct {
	pending  *PendingStore
	sessions *SessionStore
	nonces   *NonceStore
	objects  *ObjectStore
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		pending:  &PendingStore{data: make(map[string]*store.PendingHandshake)},
		sessions: &SessionStore{data: make(map[string]*store.SessionRecord)},
		nonces:   &NonceStore{data: make(map[string]*store.NonceRecord)},
		objects:  &ObjectStore{data: make(map[string][]byte)},
	}
}

func (s *Store) Pending() store.PendingStore   { return s.pending }
func (s *Store) Sessions() store.SessionStore  { return s.sessions }
func (s *Store) Nonces() store.NonceStore      { return s.nonces }
func (s *Store) Objects() store.ObjectStore    { return s.objects }

// Close is a no-op for the memory store.
func (s *Store) Close() error { return nil }

// Ping always succeeds for the memory store.
func (s *Store) Ping(ctx context.Context) error { return nil }

// Clear removes all data. Useful between test cases.
func (s *Store) Clear() {
	s.pending.mu.Lock()
	s.pending.data = make(map[string]*store.PendingHandshake)
	s.pending.mu.Unlock()

	s.sessions.mu.Lock()
	s.sessions.data = make(map[string]*store.SessionRecord)
	s.sessions.mu.Unlock()

	s.nonces.mu.Lock()
	s.nonces.data = make(map[string]*store.NonceRecord)
	s.nonces.mu.Unlock()

	s.objects.mu.Lock()
	s.objects.data = make(map[string][]byte)
	s.objects.mu.Unlock()
}
