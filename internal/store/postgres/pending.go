// SPDX-License-Identifier: LGPL-3.0-or-later

package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/securechan/securechan/internal/store"
)

// PendingStore implements store.PendingStore for PostgreSQL.
type PendingStore struct {
	db *pgxpool.Pool
}

func (p *PendingStore) Create(ctx context.Context, h *store.PendingHandshake) error {
	query := `
		INSERT INTO pending_handshakes
			(client_id, rsa_priv_der, ecdsa_priv_der, rsa_pub_client, ecdsa_pub_client, nonce1, nonce2, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := p.db.Exec(ctx, query,
		h.ClientID, h.RSAPrivDER, h.ECDSAPrivDER, h.RSAPubClient, h.ECDSAPubClient,
		h.Nonce1, h.Nonce2, h.CreatedAt, h.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create pending handshake: %w", err)
	}
	return nil
}

func (p *PendingStore) Get(ctx context.Context, clientID string) (*store.PendingHandshake, error) {
	query := `
		SELECT client_id, rsa_priv_der, ecdsa_priv_der, rsa_pub_client, ecdsa_pub_client, nonce1, nonce2, created_at, expires_at
		FROM pending_handshakes
		WHERE client_id = $1 AND expires_at > NOW()
	`
	var h store.PendingHandshake
	err := p.db.QueryRow(ctx, query, clientID).Scan(
		&h.ClientID, &h.RSAPrivDER, &h.ECDSAPrivDER, &h.RSAPubClient, &h.ECDSAPubClient,
		&h.Nonce1, &h.Nonce2, &h.CreatedAt, &h.ExpiresAt,
	)
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("pending handshake not found: %s", clientID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pending handshake: %w", err)
	}
	return &h, nil
}

func (p *PendingStore) Delete(ctx context.Context, clientID string) error {
	query := `DELETE FROM pending_handshakes WHERE client_id = $1`
	result, err := p.db.Exec(ctx, query, clientID)
	if err != nil {
		return fmt.Errorf("failed to delete pending handshake: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("pending handshake not found: %s", clientID)
	}
	return nil
}

func (p *PendingStore) DeleteExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM pending_handshakes WHERE expires_at <= NOW()`
	result, err := p.db.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired pending handshakes: %w", err)
	}
	return result.RowsAffected(), nil
}
