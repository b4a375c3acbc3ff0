package items

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/talentchain/marketplace/backend/pkg/chainclient"
	"github.com/talentchain/marketplace/backend/services/items/models"
)

// MemoryStore is an in-memory ItemStore used by tests and local development.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string]models.Item
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]models.Item)}
}

func (m *MemoryStore) FindByItemID(ctx context.Context, itemID string) (models.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[itemID]
	if !ok {
		return models.Item{}, ErrNotFound
	}
	return item, nil
}

func (m *MemoryStore) List(ctx context.Context, filter models.ListFilter) ([]models.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.Item
	for _, item := range m.items {
		if filter.Seller != "" && item.Seller != filter.Seller {
			continue
		}
		if filter.Status != "" && item.Status != filter.Status {
			continue
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) SyncFromChain(ctx context.Context, chainItem chainclient.Item) (models.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	item, ok := m.items[chainItem.ID]
	if !ok {
		item = models.Item{ItemID: chainItem.ID, CreatedAt: now}
	}
	// Chain-owned fields only; imageUrl and buyer stay as they are.
	item.Name = chainItem.Name
	item.Description = chainItem.Description
	item.Price = chainItem.Price
	item.Seller = chainItem.Seller
	item.Status = statusFromChain(chainItem)
	item.UpdatedAt = now
	m.items[chainItem.ID] = item
	return item, nil
}

func (m *MemoryStore) UpdateMetadata(ctx context.Context, itemID, imageURL string) (models.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[itemID]
	if !ok {
		return models.Item{}, ErrNotFound
	}
	item.ImageURL = imageURL
	item.UpdatedAt = time.Now()
	m.items[itemID] = item
	return item, nil
}

func (m *MemoryStore) MarkSold(ctx context.Context, itemID, buyer string) (models.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[itemID]
	if !ok {
		return models.Item{}, ErrNotFound
	}
	item.Status = models.StatusSold
	item.Buyer = buyer
	item.UpdatedAt = time.Now()
	m.items[itemID] = item
	return item, nil
}
