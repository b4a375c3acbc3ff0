package offers

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/talentchain/marketplace/backend/services/offers/models"
)

// MemoryStore is an in-memory OfferStore used by tests and local
// development.
type MemoryStore struct {
	mu     sync.Mutex
	offers map[string]models.Offer
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{offers: make(map[string]models.Offer)}
}

func (m *MemoryStore) Create(ctx context.Context, offer models.Offer) (models.Offer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	offer.CreatedAt = now
	offer.UpdatedAt = now
	m.offers[offer.ID] = offer
	return offer, nil
}

func (m *MemoryStore) FindByID(ctx context.Context, id string) (models.Offer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	offer, ok := m.offers[id]
	if !ok {
		return models.Offer{}, ErrNotFound
	}
	return offer, nil
}

func (m *MemoryStore) Update(ctx context.Context, offer models.Offer) (models.Offer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.offers[offer.ID]; !ok {
		return models.Offer{}, ErrNotFound
	}
	offer.UpdatedAt = time.Now()
	m.offers[offer.ID] = offer
	return offer, nil
}

func (m *MemoryStore) List(ctx context.Context, page, limit int) ([]models.Offer, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	all := make([]models.Offer, 0, len(m.offers))
	for _, offer := range m.offers {
		all = append(all, offer)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	start := (page - 1) * limit
	if start > len(all) {
		start = len(all)
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], len(all), nil
}
