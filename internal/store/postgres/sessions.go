// SPDX-License-Identifier: LGPL-3.0-or-later

package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/securechan/securechan/internal/store"
)

// SessionStore implements store.SessionStore for PostgreSQL.
type SessionStore struct {
	db *pgxpool.Pool
}

func (s *SessionStore) Create(ctx context.Context, rec *store.SessionRecord) error {
	query := `
		INSERT INTO sessions (client_id, enc_key, mac_key, client_ecdsa_pub, created_at, expires_at, last_activity)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.Exec(ctx, query,
		rec.ClientID, rec.EncKey, rec.MacKey, rec.ClientECDSAPub,
		rec.CreatedAt, rec.ExpiresAt, rec.LastActivity,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (s *SessionStore) Get(ctx context.Context, clientID string) (*store.SessionRecord, error) {
	query := `
		SELECT client_id, enc_key, mac_key, client_ecdsa_pub, created_at, expires_at, last_activity
		FROM sessions
		WHERE client_id = $1 AND expires_at > NOW()
	`
	var rec store.SessionRecord
	err := s.db.QueryRow(ctx, query, clientID).Scan(
		&rec.ClientID, &rec.EncKey, &rec.MacKey, &rec.ClientECDSAPub,
		&rec.CreatedAt, &rec.ExpiresAt, &rec.LastActivity,
	)
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("session not found: %s", clientID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &rec, nil
}

func (s *SessionStore) Update(ctx context.Context, rec *store.SessionRecord) error {
	query := `
		UPDATE sessions
		SET enc_key = $1, mac_key = $2, expires_at = $3, last_activity = $4
		WHERE client_id = $5
	`
	result, err := s.db.Exec(ctx, query, rec.EncKey, rec.MacKey, rec.ExpiresAt, rec.LastActivity, rec.ClientID)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("session not found: %s", rec.ClientID)
	}
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, clientID string) error {
	query := `DELETE FROM sessions WHERE client_id = $1`
	result, err := s.db.Exec(ctx, query, clientID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("session not found: %s", clientID)
	}
	return nil
}

func (s *SessionStore) DeleteExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM sessions WHERE expires_at <= NOW()`
	result, err := s.db.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return result.RowsAffected(), nil
}

func (s *SessionStore) UpdateActivity(ctx context.Context, clientID string) error {
	query := `UPDATE sessions SET last_activity = $1 WHERE client_id = $2`
	result, err := s.db.Exec(ctx, query, time.Now(), clientID)
	if err != nil {
		return fmt.Errorf("failed to update activity: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("session not found: %s", clientID)
	}
	return nil
}

func (s *SessionStore) Count(ctx context.Context) (int64, error) {
	query := `SELECT COUNT(*) FROM sessions WHERE expires_at > NOW()`
	var count int64
	if err := s.db.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return count, nil
}
