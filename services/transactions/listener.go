package transactions

import (
	"context"
	"errors"
	"log"
	"sync/atomic"

	"github.com/talentchain/marketplace/backend/pkg/chainclient"
	"github.com/talentchain/marketplace/backend/services/transactions/models"
)

// EventSource supplies decoded contract events.
type EventSource interface {
	WatchMarketplaceEvents(ctx context.Context) (<-chan chainclient.Event, error)
}

// Listener mirrors marketplace contract events into the ledger and keeps the
// item cache in step. It is owned by the composition root; Start is safe to
// call repeatedly and subscribes at most once at a time.
type Listener struct {
	source EventSource
	store  TransactionStore

	// Cross-service hooks into the item mirror.
	syncItem func(ctx context.Context, itemID string) error
	markSold func(ctx context.Context, itemID, buyer string) error

	running atomic.Bool
}

func NewListener(source EventSource, store TransactionStore,
	syncItem func(ctx context.Context, itemID string) error,
	markSold func(ctx context.Context, itemID, buyer string) error) *Listener {
	return &Listener{
		source:   source,
		store:    store,
		syncItem: syncItem,
		markSold: markSold,
	}
}

// Start subscribes to contract events. A second call while running is a
// no-op; after the subscription ends, Start can re-arm it.
func (l *Listener) Start(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		log.Printf("Blockchain event listeners already initialized")
		return nil
	}

	events, err := l.source.WatchMarketplaceEvents(ctx)
	if err != nil {
		l.running.Store(false)
		return err
	}

	log.Printf("Blockchain event listeners initialized")
	go func() {
		defer l.running.Store(false)
		for ev := range events {
			l.handleEvent(ctx, ev)
		}
		log.Printf("Blockchain event subscription ended")
	}()
	return nil
}

func (l *Listener) IsRunning() bool {
	return l.running.Load()
}

// handleEvent processes one event in isolation: any failure is logged and
// never affects the subscription or subsequent events.
func (l *Listener) handleEvent(ctx context.Context, ev chainclient.Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Panic handling %s event: %v", ev.Name, r)
		}
	}()

	hash, ok := extractTxHash(ev)
	if !ok {
		log.Printf("Could not find transaction hash in %s event", ev.Name)
		return
	}

	blockNumber := ev.BlockNumber
	tx := models.Transaction{
		Hash:        hash,
		Status:      models.StatusSuccess,
		BlockNumber: &blockNumber,
		EventType:   ev.Name,
		ItemID:      argString(ev, "itemId"),
		Seller:      argString(ev, "seller"),
		Buyer:       argString(ev, "buyer"),
		Price:       argString(ev, "price"),
	}

	if _, err := l.store.Insert(ctx, tx); err != nil && !errors.Is(err, ErrConflict) {
		log.Printf("Failed to save %s transaction %s: %v", ev.Name, hash, err)
		return
	}
	log.Printf("%s event recorded: item %s, tx %s", ev.Name, tx.ItemID, hash)

	switch ev.Name {
	case chainclient.EventItemListed:
		if l.syncItem != nil && tx.ItemID != "" {
			if err := l.syncItem(ctx, tx.ItemID); err != nil {
				log.Printf("Failed to sync item %s after %s: %v", tx.ItemID, ev.Name, err)
			}
		}
	case chainclient.EventItemSold:
		if l.markSold != nil && tx.ItemID != "" {
			if err := l.markSold(ctx, tx.ItemID, tx.Buyer); err != nil {
				log.Printf("Failed to mark item %s sold: %v", tx.ItemID, err)
			}
		}
	}
}

// txHashStrategies are tried in order; the event payload shape varies across
// chain-client versions, so the hash may surface in different places.
var txHashStrategies = []func(chainclient.Event) (string, bool){
	func(ev chainclient.Event) (string, bool) { return ev.TxHash, ev.TxHash != "" },
	func(ev chainclient.Event) (string, bool) { return lookupString(ev.Args, "transactionHash") },
	func(ev chainclient.Event) (string, bool) { return lookupString(ev.Log, "transactionHash") },
	func(ev chainclient.Event) (string, bool) { return lookupString(ev.Log, "hash") },
}

func extractTxHash(ev chainclient.Event) (string, bool) {
	for _, strategy := range txHashStrategies {
		if hash, ok := strategy(ev); ok {
			return hash, true
		}
	}
	return "", false
}

func lookupString(m map[string]interface{}, key string) (string, bool) {
	if m == nil {
		return "", false
	}
	s, ok := m[key].(string)
	return s, ok && s != ""
}

func argString(ev chainclient.Event, key string) string {
	s, _ := lookupString(ev.Args, key)
	return s
}
