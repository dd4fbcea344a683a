// SPDX-License-Identifier: LGPL-3.0-or-later

package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ObjectStore implements store.ObjectStore for PostgreSQL, storing
// uploaded file AE blobs as bytea rows. Fine for moderate file sizes;
// very large uploads belong in object storage, not a database.
type ObjectStore struct {
	db *pgxpool.Pool
}

func (o *ObjectStore) Put(ctx context.Context, key string, blob []byte) error {
	query := `
		INSERT INTO objects (key, blob, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET blob = EXCLUDED.blob, created_at = EXCLUDED.created_at
	`
	_, err := o.db.Exec(ctx, query, key, blob)
	if err != nil {
		return fmt.Errorf("failed to store object: %w", err)
	}
	return nil
}

func (o *ObjectStore) Get(ctx context.Context, key string) ([]byte, error) {
	query := `SELECT blob FROM objects WHERE key = $1`
	var blob []byte
	err := o.db.QueryRow(ctx, query, key).Scan(&blob)
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("object not found: %s", key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	return blob, nil
}

func (o *ObjectStore) Delete(ctx context.Context, key string) error {
	query := `DELETE FROM objects WHERE key = $1`
	result, err := o.db.Exec(ctx, query, key)
	if err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("object not found: %s", key)
	}
	return nil
}
