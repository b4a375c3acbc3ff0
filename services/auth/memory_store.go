package auth

import (
	"context"
	"sync"
	"time"

	"github.com/talentchain/marketplace/backend/services/auth/models"
)

// MemoryStore is an in-memory IdentityStore used by tests and local
// development.
type MemoryStore struct {
	mu         sync.Mutex
	identities map[string]models.Identity
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{identities: make(map[string]models.Identity)}
}

func (m *MemoryStore) UpsertChallenge(ctx context.Context, walletAddress, nonce string, defaultRoles []string) (models.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	identity, ok := m.identities[walletAddress]
	if !ok {
		identity = models.Identity{
			WalletAddress: walletAddress,
			Roles:         append([]string(nil), defaultRoles...),
			CreatedAt:     now,
		}
	}
	identity.Nonce = nonce
	identity.UpdatedAt = now
	m.identities[walletAddress] = identity
	return identity, nil
}

func (m *MemoryStore) FindByWallet(ctx context.Context, walletAddress string) (models.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	identity, ok := m.identities[walletAddress]
	if !ok {
		return models.Identity{}, ErrNotFound
	}
	return identity, nil
}

func (m *MemoryStore) RotateNonce(ctx context.Context, walletAddress, newNonce string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	identity, ok := m.identities[walletAddress]
	if !ok {
		return ErrNotFound
	}
	identity.Nonce = newNonce
	identity.UpdatedAt = time.Now()
	m.identities[walletAddress] = identity
	return nil
}

func (m *MemoryStore) UpdateRoles(ctx context.Context, walletAddress string, roles []string) (models.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	identity, ok := m.identities[walletAddress]
	if !ok {
		return models.Identity{}, ErrNotFound
	}
	identity.Roles = append([]string(nil), roles...)
	identity.UpdatedAt = time.Now()
	m.identities[walletAddress] = identity
	return identity, nil
}
