// SPDX-License-Identifier: LGPL-3.0-or-later

package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NonceStore implements store.NonceStore for PostgreSQL.
type NonceStore struct {
	db *pgxpool.Pool
}

// CheckAndStore atomically rejects an already-used key and records a fresh
// one, using a transaction so the check and the insert cannot race with a
// concurrent request for the same key.
func (n *NonceStore) CheckAndStore(ctx context.Context, key string, expiresAt time.Time) error {
	tx, err := n.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	checkQuery := `SELECT EXISTS(SELECT 1 FROM nonces WHERE key = $1 AND expires_at > NOW())`
	if err := tx.QueryRow(ctx, checkQuery, key).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check nonce: %w", err)
	}
	if exists {
		return fmt.Errorf("nonce already used: %s", key)
	}

	insertQuery := `
		INSERT INTO nonces (key, used_at, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET used_at = EXCLUDED.used_at, expires_at = EXCLUDED.expires_at
	`
	if _, err := tx.Exec(ctx, insertQuery, key, time.Now(), expiresAt); err != nil {
		return fmt.Errorf("failed to store nonce: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (n *NonceStore) IsUsed(ctx context.Context, key string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM nonces WHERE key = $1 AND expires_at > NOW())`
	var used bool
	if err := n.db.QueryRow(ctx, query, key).Scan(&used); err != nil {
		return false, fmt.Errorf("failed to check nonce: %w", err)
	}
	return used, nil
}

func (n *NonceStore) DeleteExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM nonces WHERE expires_at <= NOW()`
	result, err := n.db.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired nonces: %w", err)
	}
	return result.RowsAffected(), nil
}

func (n *NonceStore) Count(ctx context.Context) (int64, error) {
	query := `SELECT COUNT(*) FROM nonces WHERE expires_at > NOW()`
	var count int64
	if err := n.db.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count nonces: %w", err)
	}
	return count, nil
}
