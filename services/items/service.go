package items

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/talentchain/marketplace/backend/pkg/chainclient"
	"github.com/talentchain/marketplace/backend/pkg/common/api"
	"github.com/talentchain/marketplace/backend/services/items/models"
)

// ErrVerificationFailed is returned when the live chain read needed to call
// an item "verified" could not be completed. The stale cache is never
// presented as verified.
var ErrVerificationFailed = errors.New("failed to verify item with blockchain")

// ChainReader is the slice of the chain client this service needs.
type ChainReader interface {
	Item(ctx context.Context, itemID string) (chainclient.Item, error)
	ItemsForSale(ctx context.Context) ([]chainclient.Item, error)
}

// Service mirrors marketplace items: the chain owns state fields, the local
// store owns descriptive metadata.
type Service struct {
	store ItemStore
	chain ChainReader
}

func NewService(store ItemStore, chain ChainReader) *Service {
	return &Service{store: store, chain: chain}
}

func (s *Service) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/items", s.GetAllItemsHandler).Methods("GET")
	r.HandleFunc("/items/blockchain", s.GetBlockchainItemsHandler).Methods("GET")
	r.HandleFunc("/items/{itemId}", s.GetItemHandler).Methods("GET")
	r.HandleFunc("/items/{itemId}/sync", s.SyncItemHandler).Methods("POST")
	r.HandleFunc("/items/{itemId}/metadata", s.UpdateMetadataHandler).Methods("PUT")
}

// GetItem returns the cached record, seeding it from the chain on a miss.
func (s *Service) GetItem(ctx context.Context, itemID string) (models.Item, error) {
	item, err := s.store.FindByItemID(ctx, itemID)
	if err == nil {
		return item, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return models.Item{}, err
	}

	chainItem, err := s.chain.Item(ctx, itemID)
	if err != nil {
		log.Printf("Failed to fetch item %s from chain: %v", itemID, err)
		return models.Item{}, ErrNotFound
	}
	return s.store.SyncFromChain(ctx, chainItem)
}

// GetVerifiedItem combines the cached record with a live chain read. The
// live read failing fails the whole call.
func (s *Service) GetVerifiedItem(ctx context.Context, itemID string) (models.VerifiedItem, error) {
	item, err := s.GetItem(ctx, itemID)
	if err != nil {
		return models.VerifiedItem{}, err
	}

	chainItem, err := s.chain.Item(ctx, itemID)
	if err != nil {
		log.Printf("Failed to verify item %s against chain: %v", itemID, err)
		return models.VerifiedItem{}, fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}

	return models.VerifiedItem{
		Item: item,
		BlockchainState: models.BlockchainState{
			CurrentOwner: chainItem.Seller,
			CurrentPrice: chainItem.Price,
			IsForSale:    chainItem.IsForSale,
			IsSynced:     item.Status == statusFromChain(chainItem),
		},
	}, nil
}

// SyncItem refreshes the cached record from current chain state.
func (s *Service) SyncItem(ctx context.Context, itemID string) (models.Item, error) {
	chainItem, err := s.chain.Item(ctx, itemID)
	if err != nil {
		return models.Item{}, fmt.Errorf("failed to fetch item %s from chain: %w", itemID, err)
	}
	return s.store.SyncFromChain(ctx, chainItem)
}

func (s *Service) GetItemHandler(w http.ResponseWriter, r *http.Request) {
	itemID := mux.Vars(r)["itemId"]

	verified, err := s.GetVerifiedItem(r.Context(), itemID)
	if errors.Is(err, ErrNotFound) {
		api.WriteError(w, http.StatusNotFound, "not_found", "Item not found")
		return
	}
	if errors.Is(err, ErrVerificationFailed) {
		api.WriteError(w, http.StatusBadGateway, "verification_failed", "Failed to verify item with blockchain")
		return
	}
	if err != nil {
		log.Printf("Failed to get item %s: %v", itemID, err)
		api.WriteError(w, http.StatusInternalServerError, "internal_error", "Failed to fetch item")
		return
	}

	api.WriteSuccess(w, http.StatusOK, verified)
}

func (s *Service) GetAllItemsHandler(w http.ResponseWriter, r *http.Request) {
	filter := models.ListFilter{
		Seller: r.URL.Query().Get("seller"),
		Status: r.URL.Query().Get("status"),
	}

	items, err := s.store.List(r.Context(), filter)
	if err != nil {
		log.Printf("Failed to list items: %v", err)
		api.WriteError(w, http.StatusInternalServerError, "internal_error", "Failed to fetch items")
		return
	}
	if items == nil {
		items = []models.Item{}
	}
	api.WriteSuccess(w, http.StatusOK, items)
}

// GetBlockchainItemsHandler bypasses the cache and reads listings straight
// from the contract.
func (s *Service) GetBlockchainItemsHandler(w http.ResponseWriter, r *http.Request) {
	items, err := s.chain.ItemsForSale(r.Context())
	if err != nil {
		log.Printf("Failed to fetch items from chain: %v", err)
		api.WriteError(w, http.StatusBadGateway, "chain_unavailable", "Failed to fetch items from blockchain")
		return
	}
	if items == nil {
		items = []chainclient.Item{}
	}
	api.WriteSuccess(w, http.StatusOK, items)
}

// UpdateMetadataHandler sets the locally-owned image url. Chain-owned fields
// are untouchable here; they only change through sync.
func (s *Service) UpdateMetadataHandler(w http.ResponseWriter, r *http.Request) {
	itemID := mux.Vars(r)["itemId"]

	var req models.UpdateMetadataRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ImageURL == "" {
		api.WriteError(w, http.StatusBadRequest, "invalid_request", "Image URL is required")
		return
	}

	item, err := s.store.UpdateMetadata(r.Context(), itemID, req.ImageURL)
	if errors.Is(err, ErrNotFound) {
		api.WriteError(w, http.StatusNotFound, "not_found", "Item not found")
		return
	}
	if err != nil {
		log.Printf("Failed to update metadata for item %s: %v", itemID, err)
		api.WriteError(w, http.StatusInternalServerError, "internal_error", "Failed to update item metadata")
		return
	}

	api.WriteSuccess(w, http.StatusOK, item)
}

func (s *Service) SyncItemHandler(w http.ResponseWriter, r *http.Request) {
	itemID := mux.Vars(r)["itemId"]

	item, err := s.SyncItem(r.Context(), itemID)
	if err != nil {
		log.Printf("Failed to sync item %s: %v", itemID, err)
		api.WriteError(w, http.StatusBadGateway, "chain_unavailable", "Failed to sync item from blockchain")
		return
	}

	api.WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"message": "Item synced successfully",
		"item":    item,
	})
}
