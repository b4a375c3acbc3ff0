package transactions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/talentchain/marketplace/backend/services/transactions/models"
)

var (
	// ErrNotFound is returned when no record exists for a hash.
	ErrNotFound = errors.New("transaction not found")
	// ErrConflict is returned when a record with the hash already exists.
	// Callers treat it as a benign, idempotent outcome.
	ErrConflict = errors.New("transaction already recorded")
)

// TransactionStore persists ledger records with hash uniqueness enforced at
// the store level.
type TransactionStore interface {
	// Insert creates a new record; a duplicate hash yields ErrConflict and
	// leaves the existing record unchanged.
	Insert(ctx context.Context, tx models.Transaction) (models.Transaction, error)
	FindByHash(ctx context.Context, hash string) (models.Transaction, error)
	List(ctx context.Context, filter models.ListFilter) ([]models.Transaction, error)
	// ApplyReceipt records the mined outcome iff the record is still pending.
	ApplyReceipt(ctx context.Context, hash, status string, blockNumber uint64, gasUsed string, timestamp *time.Time) (models.Transaction, error)
}

// PostgresStore implements TransactionStore over the transactions table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const txColumns = `hash, status, block_number, COALESCE(gas_used, ''), tx_timestamp,
	COALESCE(event_type, ''), COALESCE(item_id, ''), COALESCE(seller, ''),
	COALESCE(buyer, ''), COALESCE(price, ''), created_at, updated_at`

func scanTx(row interface{ Scan(...interface{}) error }) (models.Transaction, error) {
	var tx models.Transaction
	var blockNumber sql.NullInt64
	var timestamp sql.NullTime
	err := row.Scan(&tx.Hash, &tx.Status, &blockNumber, &tx.GasUsed, &timestamp,
		&tx.EventType, &tx.ItemID, &tx.Seller, &tx.Buyer, &tx.Price,
		&tx.CreatedAt, &tx.UpdatedAt)
	if err != nil {
		return models.Transaction{}, err
	}
	if blockNumber.Valid {
		n := uint64(blockNumber.Int64)
		tx.BlockNumber = &n
	}
	if timestamp.Valid {
		t := timestamp.Time
		tx.Timestamp = &t
	}
	return tx, nil
}

func (s *PostgresStore) Insert(ctx context.Context, tx models.Transaction) (models.Transaction, error) {
	var blockNumber interface{}
	if tx.BlockNumber != nil {
		blockNumber = int64(*tx.BlockNumber)
	}

	created, err := scanTx(s.db.QueryRowContext(ctx, `
		INSERT INTO transactions (hash, status, block_number, gas_used, tx_timestamp,
			event_type, item_id, seller, buyer, price)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, NULLIF($6, ''), NULLIF($7, ''),
			NULLIF($8, ''), NULLIF($9, ''), NULLIF($10, ''))
		ON CONFLICT (hash) DO NOTHING
		RETURNING `+txColumns,
		tx.Hash, tx.Status, blockNumber, tx.GasUsed, tx.Timestamp,
		tx.EventType, tx.ItemID, tx.Seller, tx.Buyer, tx.Price))
	if err == sql.ErrNoRows {
		return models.Transaction{}, ErrConflict
	}
	if err != nil {
		return models.Transaction{}, fmt.Errorf("failed to insert transaction: %w", err)
	}
	return created, nil
}

func (s *PostgresStore) FindByHash(ctx context.Context, hash string) (models.Transaction, error) {
	tx, err := scanTx(s.db.QueryRowContext(ctx,
		"SELECT "+txColumns+" FROM transactions WHERE hash = $1", hash))
	if err == sql.ErrNoRows {
		return models.Transaction{}, ErrNotFound
	}
	if err != nil {
		return models.Transaction{}, fmt.Errorf("failed to query transaction: %w", err)
	}
	return tx, nil
}

func (s *PostgresStore) List(ctx context.Context, filter models.ListFilter) ([]models.Transaction, error) {
	query := "SELECT " + txColumns + " FROM transactions WHERE 1=1"
	args := []interface{}{}
	add := func(column, value string) {
		if value != "" {
			args = append(args, value)
			query += fmt.Sprintf(" AND %s = $%d", column, len(args))
		}
	}
	add("item_id", filter.ItemID)
	add("seller", filter.Seller)
	add("buyer", filter.Buyer)
	add("status", filter.Status)
	query += " ORDER BY created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var txs []models.Transaction
	for rows.Next() {
		tx, err := scanTx(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

func (s *PostgresStore) ApplyReceipt(ctx context.Context, hash, status string, blockNumber uint64, gasUsed string, timestamp *time.Time) (models.Transaction, error) {
	tx, err := scanTx(s.db.QueryRowContext(ctx, `
		UPDATE transactions
		SET status = $1, block_number = $2, gas_used = $3, tx_timestamp = $4, updated_at = NOW()
		WHERE hash = $5 AND status = $6
		RETURNING `+txColumns,
		status, int64(blockNumber), gasUsed, timestamp, hash, models.StatusPending))
	if err == sql.ErrNoRows {
		// Either absent or already terminal; return the current row.
		return s.FindByHash(ctx, hash)
	}
	if err != nil {
		return models.Transaction{}, fmt.Errorf("failed to apply receipt: %w", err)
	}
	return tx, nil
}
