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

// Package postgres persists handshake, session, nonce, and uploaded
// object state in PostgreSQL via pgx/v5.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/securechan/securechan/internal/store"
)

// Store implements store.Store backed by a PostgreSQL connection pool.
type Store struct {
	pool     *pgxpool.Pool
	pending  *PendingStore
	sessions *SessionStore
	nonces   *NonceStore
	objects  *ObjectStore
}

// NewStore opens a connection pool against dsn and verifies it is reachable.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{
		pool:     pool,
		pending:  &PendingStore{db: pool},
		sessions: &SessionStore{db: pool},
		nonces:   &NonceStore{db: pool},
		objects:  &ObjectStore{db: pool},
	}, nil
}

func (s *Store) Pending() store.PendingStore  { return s.pending }
func (s *Store) Sessions() store.SessionStore { return s.sessions }
func (s *Store) Nonces() store.NonceStore     { return s.nonces }
func (s *Store) Objects() store.ObjectStore   { return s.objects }

// Close closes the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
