package transactions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/talentchain/marketplace/backend/pkg/chainclient"
	"github.com/talentchain/marketplace/backend/pkg/common/api"
	"github.com/talentchain/marketplace/backend/services/transactions/models"
)

// ChainReader is the slice of the chain client this service needs.
type ChainReader interface {
	TransactionReceipt(ctx context.Context, hash string) (*chainclient.Receipt, bool, error)
	BlockTime(ctx context.Context, number uint64) (time.Time, error)
}

// Service maintains the ledger of observed on-chain transactions.
type Service struct {
	store    TransactionStore
	chain    ChainReader
	listener *Listener
}

func NewService(store TransactionStore, chain ChainReader, listener *Listener) *Service {
	return &Service{store: store, chain: chain, listener: listener}
}

func (s *Service) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/transactions", s.GetTransactionsHandler).Methods("GET")
	r.HandleFunc("/transactions", s.RecordTransactionHandler).Methods("POST")
	r.HandleFunc("/transactions/listen", s.ListenHandler).Methods("POST")
	r.HandleFunc("/transactions/{hash}", s.GetTransactionHandler).Methods("GET")
}

// RecordTransaction tracks a hash with status pending. A duplicate hash
// returns the existing, unchanged record together with ErrConflict.
func (s *Service) RecordTransaction(ctx context.Context, req models.RecordRequest) (models.Transaction, error) {
	created, err := s.store.Insert(ctx, models.Transaction{
		Hash:      req.Hash,
		Status:    models.StatusPending,
		EventType: req.EventType,
		ItemID:    req.ItemID,
		Seller:    req.Seller,
		Buyer:     req.Buyer,
		Price:     req.Price,
	})
	if errors.Is(err, ErrConflict) {
		existing, findErr := s.store.FindByHash(ctx, req.Hash)
		if findErr != nil {
			return models.Transaction{}, findErr
		}
		return existing, ErrConflict
	}
	return created, err
}

// RefreshTransactionStatus re-reads the receipt for a pending record.
// Terminal records are returned unchanged with no chain call. A failed
// receipt lookup leaves the prior state intact.
func (s *Service) RefreshTransactionStatus(ctx context.Context, hash string) (models.Transaction, error) {
	tx, err := s.store.FindByHash(ctx, hash)
	if err != nil {
		return models.Transaction{}, err
	}
	if models.Terminal(tx.Status) {
		return tx, nil
	}

	receipt, found, err := s.chain.TransactionReceipt(ctx, hash)
	if err != nil {
		log.Printf("Failed to fetch receipt for %s: %v", hash, err)
		return tx, nil
	}
	if !found {
		// Still pending.
		return tx, nil
	}

	status := models.StatusFailed
	if receipt.Status == 1 {
		status = models.StatusSuccess
	}

	var timestamp *time.Time
	if blockTime, err := s.chain.BlockTime(ctx, receipt.BlockNumber); err != nil {
		log.Printf("Failed to fetch block %d timestamp: %v", receipt.BlockNumber, err)
	} else {
		timestamp = &blockTime
	}

	return s.store.ApplyReceipt(ctx, hash, status, receipt.BlockNumber,
		fmt.Sprintf("%d", receipt.GasUsed), timestamp)
}

func (s *Service) GetTransactionHandler(w http.ResponseWriter, r *http.Request) {
	hash := mux.Vars(r)["hash"]

	tx, err := s.RefreshTransactionStatus(r.Context(), hash)
	if errors.Is(err, ErrNotFound) {
		api.WriteError(w, http.StatusNotFound, "not_found", "Transaction not found")
		return
	}
	if err != nil {
		log.Printf("Failed to get transaction %s: %v", hash, err)
		api.WriteError(w, http.StatusInternalServerError, "internal_error", "Failed to fetch transaction details")
		return
	}

	api.WriteSuccess(w, http.StatusOK, tx)
}

func (s *Service) RecordTransactionHandler(w http.ResponseWriter, r *http.Request) {
	var req models.RecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Hash == "" {
		api.WriteError(w, http.StatusBadRequest, "invalid_request", "Transaction hash is required")
		return
	}

	tx, err := s.RecordTransaction(r.Context(), req)
	if errors.Is(err, ErrConflict) {
		// The caller's intent (track this hash) is already satisfied.
		api.WriteSuccess(w, http.StatusOK, tx)
		return
	}
	if err != nil {
		log.Printf("Failed to record transaction %s: %v", req.Hash, err)
		api.WriteError(w, http.StatusInternalServerError, "internal_error", "Failed to record transaction")
		return
	}

	api.WriteSuccess(w, http.StatusCreated, tx)
}

func (s *Service) GetTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	txs, err := s.store.List(r.Context(), models.ListFilter{
		ItemID: q.Get("itemId"),
		Seller: q.Get("seller"),
		Buyer:  q.Get("buyer"),
		Status: q.Get("status"),
	})
	if err != nil {
		log.Printf("Failed to list transactions: %v", err)
		api.WriteError(w, http.StatusInternalServerError, "internal_error", "Failed to fetch transactions")
		return
	}
	if txs == nil {
		txs = []models.Transaction{}
	}
	api.WriteSuccess(w, http.StatusOK, txs)
}

// ListenHandler starts the event listener if it is not already running.
// Listeners are normally started at boot; this endpoint re-arms them after a
// subscription drop.
func (s *Service) ListenHandler(w http.ResponseWriter, r *http.Request) {
	if s.listener == nil {
		api.WriteError(w, http.StatusServiceUnavailable, "chain_unavailable", "Event listener is not configured")
		return
	}
	if err := s.listener.Start(context.Background()); err != nil {
		log.Printf("Failed to start event listeners: %v", err)
		api.WriteError(w, http.StatusInternalServerError, "internal_error", "Failed to initialize blockchain event listeners")
		return
	}
	api.WriteSuccess(w, http.StatusOK, map[string]string{"message": "Blockchain event listeners initialized"})
}
