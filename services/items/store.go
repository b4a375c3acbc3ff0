package items

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/talentchain/marketplace/backend/pkg/chainclient"
	"github.com/talentchain/marketplace/backend/services/items/models"
)

// ErrNotFound is returned when no item record exists for an id.
var ErrNotFound = errors.New("item not found")

// ItemStore persists mirrored items. SyncFromChain must be an atomic per-key
// upsert that touches only chain-owned fields.
type ItemStore interface {
	FindByItemID(ctx context.Context, itemID string) (models.Item, error)
	List(ctx context.Context, filter models.ListFilter) ([]models.Item, error)
	// SyncFromChain upserts the chain-owned fields (name, description, price,
	// seller, status) and preserves locally-owned fields untouched.
	SyncFromChain(ctx context.Context, chainItem chainclient.Item) (models.Item, error)
	UpdateMetadata(ctx context.Context, itemID, imageURL string) (models.Item, error)
	MarkSold(ctx context.Context, itemID, buyer string) (models.Item, error)
}

func statusFromChain(chainItem chainclient.Item) string {
	if chainItem.IsForSale {
		return models.StatusListed
	}
	return models.StatusSold
}

// PostgresStore implements ItemStore over the items table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const itemColumns = "item_id, name, description, price, seller, COALESCE(buyer, ''), status, COALESCE(image_url, ''), created_at, updated_at"

func scanItem(row interface{ Scan(...interface{}) error }) (models.Item, error) {
	var item models.Item
	err := row.Scan(&item.ItemID, &item.Name, &item.Description, &item.Price,
		&item.Seller, &item.Buyer, &item.Status, &item.ImageURL,
		&item.CreatedAt, &item.UpdatedAt)
	return item, err
}

func (s *PostgresStore) FindByItemID(ctx context.Context, itemID string) (models.Item, error) {
	item, err := scanItem(s.db.QueryRowContext(ctx,
		"SELECT "+itemColumns+" FROM items WHERE item_id = $1", itemID))
	if err == sql.ErrNoRows {
		return models.Item{}, ErrNotFound
	}
	if err != nil {
		return models.Item{}, fmt.Errorf("failed to query item: %w", err)
	}
	return item, nil
}

func (s *PostgresStore) List(ctx context.Context, filter models.ListFilter) ([]models.Item, error) {
	query := "SELECT " + itemColumns + " FROM items WHERE 1=1"
	args := []interface{}{}
	if filter.Seller != "" {
		args = append(args, filter.Seller)
		query += fmt.Sprintf(" AND seller = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	var items []models.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *PostgresStore) SyncFromChain(ctx context.Context, chainItem chainclient.Item) (models.Item, error) {
	item, err := scanItem(s.db.QueryRowContext(ctx, `
		INSERT INTO items (item_id, name, description, price, seller, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (item_id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			price = EXCLUDED.price,
			seller = EXCLUDED.seller,
			status = EXCLUDED.status,
			updated_at = NOW()
		RETURNING `+itemColumns,
		chainItem.ID, chainItem.Name, chainItem.Description, chainItem.Price,
		chainItem.Seller, statusFromChain(chainItem)))
	if err != nil {
		return models.Item{}, fmt.Errorf("failed to sync item: %w", err)
	}
	return item, nil
}

func (s *PostgresStore) UpdateMetadata(ctx context.Context, itemID, imageURL string) (models.Item, error) {
	item, err := scanItem(s.db.QueryRowContext(ctx, `
		UPDATE items SET image_url = $1, updated_at = NOW()
		WHERE item_id = $2
		RETURNING `+itemColumns, imageURL, itemID))
	if err == sql.ErrNoRows {
		return models.Item{}, ErrNotFound
	}
	if err != nil {
		return models.Item{}, fmt.Errorf("failed to update item metadata: %w", err)
	}
	return item, nil
}

func (s *PostgresStore) MarkSold(ctx context.Context, itemID, buyer string) (models.Item, error) {
	item, err := scanItem(s.db.QueryRowContext(ctx, `
		UPDATE items SET status = $1, buyer = $2, updated_at = NOW()
		WHERE item_id = $3
		RETURNING `+itemColumns, models.StatusSold, buyer, itemID))
	if err == sql.ErrNoRows {
		return models.Item{}, ErrNotFound
	}
	if err != nil {
		return models.Item{}, fmt.Errorf("failed to mark item sold: %w", err)
	}
	return item, nil
}
