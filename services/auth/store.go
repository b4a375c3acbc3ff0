package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/talentchain/marketplace/backend/services/auth/models"
)

// ErrNotFound is returned when no identity exists for a wallet address.
var ErrNotFound = errors.New("identity not found")

// IdentityStore persists wallet identities. Addresses are already normalized
// to lowercase by the caller.
type IdentityStore interface {
	// UpsertChallenge creates the identity if absent (with defaultRoles) and
	// stores the fresh nonce in either case, atomically.
	UpsertChallenge(ctx context.Context, walletAddress, nonce string, defaultRoles []string) (models.Identity, error)
	FindByWallet(ctx context.Context, walletAddress string) (models.Identity, error)
	RotateNonce(ctx context.Context, walletAddress, newNonce string) error
	UpdateRoles(ctx context.Context, walletAddress string, roles []string) (models.Identity, error)
}

// PostgresStore implements IdentityStore over the identities table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) UpsertChallenge(ctx context.Context, walletAddress, nonce string, defaultRoles []string) (models.Identity, error) {
	var identity models.Identity
	var roles pq.StringArray
	// Roles are set only on insert; an existing identity keeps its role set.
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO identities (wallet_address, roles, nonce)
		VALUES ($1, $2, $3)
		ON CONFLICT (wallet_address)
		DO UPDATE SET nonce = EXCLUDED.nonce, updated_at = NOW()
		RETURNING wallet_address, roles, nonce, created_at, updated_at`,
		walletAddress, pq.Array(defaultRoles), nonce).
		Scan(&identity.WalletAddress, &roles, &identity.Nonce, &identity.CreatedAt, &identity.UpdatedAt)
	if err != nil {
		return models.Identity{}, fmt.Errorf("failed to upsert identity: %w", err)
	}
	identity.Roles = roles
	return identity, nil
}

func (s *PostgresStore) FindByWallet(ctx context.Context, walletAddress string) (models.Identity, error) {
	var identity models.Identity
	var roles pq.StringArray
	err := s.db.QueryRowContext(ctx, `
		SELECT wallet_address, roles, nonce, created_at, updated_at
		FROM identities WHERE wallet_address = $1`, walletAddress).
		Scan(&identity.WalletAddress, &roles, &identity.Nonce, &identity.CreatedAt, &identity.UpdatedAt)
	if err == sql.ErrNoRows {
		return models.Identity{}, ErrNotFound
	}
	if err != nil {
		return models.Identity{}, fmt.Errorf("failed to query identity: %w", err)
	}
	identity.Roles = roles
	return identity, nil
}

func (s *PostgresStore) RotateNonce(ctx context.Context, walletAddress, newNonce string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE identities SET nonce = $1, updated_at = NOW()
		WHERE wallet_address = $2`, newNonce, walletAddress)
	if err != nil {
		return fmt.Errorf("failed to rotate nonce: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) UpdateRoles(ctx context.Context, walletAddress string, roles []string) (models.Identity, error) {
	var identity models.Identity
	var stored pq.StringArray
	err := s.db.QueryRowContext(ctx, `
		UPDATE identities SET roles = $1, updated_at = NOW()
		WHERE wallet_address = $2
		RETURNING wallet_address, roles, nonce, created_at, updated_at`,
		pq.Array(roles), walletAddress).
		Scan(&identity.WalletAddress, &stored, &identity.Nonce, &identity.CreatedAt, &identity.UpdatedAt)
	if err == sql.ErrNoRows {
		return models.Identity{}, ErrNotFound
	}
	if err != nil {
		return models.Identity{}, fmt.Errorf("failed to update roles: %w", err)
	}
	identity.Roles = stored
	return identity, nil
}
