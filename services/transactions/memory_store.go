package transactions

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/talentchain/marketplace/backend/services/transactions/models"
)

// MemoryStore is an in-memory TransactionStore used by tests and local
// development.
type MemoryStore struct {
	mu  sync.Mutex
	txs map[string]models.Transaction
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{txs: make(map[string]models.Transaction)}
}

func (m *MemoryStore) Insert(ctx context.Context, tx models.Transaction) (models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.txs[tx.Hash]; ok {
		return models.Transaction{}, ErrConflict
	}
	now := time.Now()
	tx.CreatedAt = now
	tx.UpdatedAt = now
	m.txs[tx.Hash] = tx
	return tx, nil
}

func (m *MemoryStore) FindByHash(ctx context.Context, hash string) (models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx, ok := m.txs[hash]
	if !ok {
		return models.Transaction{}, ErrNotFound
	}
	return tx, nil
}

func (m *MemoryStore) List(ctx context.Context, filter models.ListFilter) ([]models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.Transaction
	for _, tx := range m.txs {
		if filter.ItemID != "" && tx.ItemID != filter.ItemID {
			continue
		}
		if filter.Seller != "" && tx.Seller != filter.Seller {
			continue
		}
		if filter.Buyer != "" && tx.Buyer != filter.Buyer {
			continue
		}
		if filter.Status != "" && tx.Status != filter.Status {
			continue
		}
		out = append(out, tx)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) ApplyReceipt(ctx context.Context, hash, status string, blockNumber uint64, gasUsed string, timestamp *time.Time) (models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx, ok := m.txs[hash]
	if !ok {
		return models.Transaction{}, ErrNotFound
	}
	if tx.Status != models.StatusPending {
		return tx, nil
	}
	tx.Status = status
	tx.BlockNumber = &blockNumber
	tx.GasUsed = gasUsed
	tx.Timestamp = timestamp
	tx.UpdatedAt = time.Now()
	m.txs[hash] = tx
	return tx, nil
}
