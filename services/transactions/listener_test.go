package transactions

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/talentchain/marketplace/backend/pkg/chainclient"
	"github.com/talentchain/marketplace/backend/services/transactions/models"
)

// stubEventSource hands out a caller-controlled event channel.
type stubEventSource struct {
	events chan chainclient.Event
	err    error
	subs   int
}

func (s *stubEventSource) WatchMarketplaceEvents(ctx context.Context) (<-chan chainclient.Event, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.subs++
	return s.events, nil
}

// hookRecorder captures the cross-service calls the listener makes.
type hookRecorder struct {
	mu     sync.Mutex
	synced []string
	sold   [][2]string
}

func (h *hookRecorder) syncItem(ctx context.Context, itemID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.synced = append(h.synced, itemID)
	return nil
}

func (h *hookRecorder) markSold(ctx context.Context, itemID, buyer string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sold = append(h.sold, [2]string{itemID, buyer})
	return nil
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestListenerStartIsIdempotent(t *testing.T) {
	source := &stubEventSource{events: make(chan chainclient.Event)}
	l := NewListener(source, NewMemoryStore(), nil, nil)

	if err := l.Start(context.Background()); err != nil {
		t.Fatalf("first Start failed: %v", err)
	}
	if err := l.Start(context.Background()); err != nil {
		t.Fatalf("second Start failed: %v", err)
	}
	if source.subs != 1 {
		t.Errorf("subscriptions = %d, want 1", source.subs)
	}
	if !l.IsRunning() {
		t.Error("expected listener to report running")
	}

	// Ending the stream releases the guard so Start can re-arm.
	close(source.events)
	waitFor(t, func() bool { return !l.IsRunning() }, "listener did not stop after the stream ended")

	source.events = make(chan chainclient.Event)
	if err := l.Start(context.Background()); err != nil {
		t.Fatalf("re-arm failed: %v", err)
	}
	if source.subs != 2 {
		t.Errorf("subscriptions = %d, want 2 after re-arm", source.subs)
	}
	close(source.events)
}

func TestListenerStartSubscribeFailure(t *testing.T) {
	source := &stubEventSource{err: errors.New("connection refused")}
	l := NewListener(source, NewMemoryStore(), nil, nil)

	if err := l.Start(context.Background()); err == nil {
		t.Fatal("expected Start to surface the subscription error")
	}
	if l.IsRunning() {
		t.Error("failed Start must release the running guard")
	}
}

func TestListenerRecordsEvents(t *testing.T) {
	source := &stubEventSource{events: make(chan chainclient.Event, 2)}
	store := NewMemoryStore()
	hooks := &hookRecorder{}
	l := NewListener(source, store, hooks.syncItem, hooks.markSold)

	if err := l.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	source.events <- chainclient.Event{
		Name:        chainclient.EventItemListed,
		TxHash:      "0xlisted",
		BlockNumber: 10,
		Args:        map[string]interface{}{"itemId": "1", "seller": "0xaa", "price": "1.5"},
	}
	source.events <- chainclient.Event{
		Name:        chainclient.EventItemSold,
		TxHash:      "0xsold",
		BlockNumber: 11,
		Args:        map[string]interface{}{"itemId": "1", "seller": "0xaa", "buyer": "0xbb", "price": "1.5"},
	}
	close(source.events)
	waitFor(t, func() bool { return !l.IsRunning() }, "listener did not drain the stream")

	listed, err := store.FindByHash(context.Background(), "0xlisted")
	if err != nil {
		t.Fatalf("listed tx missing from ledger: %v", err)
	}
	if listed.Status != models.StatusSuccess {
		t.Errorf("status = %s, want success for an observed event", listed.Status)
	}
	if listed.EventType != chainclient.EventItemListed {
		t.Errorf("eventType = %s, want %s", listed.EventType, chainclient.EventItemListed)
	}
	if listed.BlockNumber == nil || *listed.BlockNumber != 10 {
		t.Errorf("blockNumber = %v, want 10", listed.BlockNumber)
	}

	if _, err := store.FindByHash(context.Background(), "0xsold"); err != nil {
		t.Fatalf("sold tx missing from ledger: %v", err)
	}

	hooks.mu.Lock()
	defer hooks.mu.Unlock()
	if len(hooks.synced) != 1 || hooks.synced[0] != "1" {
		t.Errorf("syncItem calls = %v, want [1]", hooks.synced)
	}
	if len(hooks.sold) != 1 || hooks.sold[0] != [2]string{"1", "0xbb"} {
		t.Errorf("markSold calls = %v, want [[1 0xbb]]", hooks.sold)
	}
}

func TestListenerSurvivesBadEvents(t *testing.T) {
	source := &stubEventSource{events: make(chan chainclient.Event, 3)}
	store := NewMemoryStore()
	l := NewListener(source, store,
		func(ctx context.Context, itemID string) error { panic("sync exploded") },
		nil)

	if err := l.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// No hash anywhere: skipped.
	source.events <- chainclient.Event{Name: chainclient.EventItemListed, Args: map[string]interface{}{"itemId": "1"}}
	// Hook panics: isolated.
	source.events <- chainclient.Event{
		Name:   chainclient.EventItemListed,
		TxHash: "0xpanic",
		Args:   map[string]interface{}{"itemId": "2"},
	}
	// A later event still lands.
	source.events <- chainclient.Event{
		Name:   chainclient.EventItemSold,
		TxHash: "0xafter",
		Args:   map[string]interface{}{"itemId": "3"},
	}
	close(source.events)
	waitFor(t, func() bool { return !l.IsRunning() }, "listener did not drain the stream")

	if _, err := store.FindByHash(context.Background(), "0xafter"); err != nil {
		t.Errorf("event after a panic was not recorded: %v", err)
	}
	txs, _ := store.List(context.Background(), models.ListFilter{})
	if len(txs) != 2 {
		t.Errorf("ledger size = %d, want 2 (hashless event skipped)", len(txs))
	}
}

func TestExtractTxHashFallbacks(t *testing.T) {
	cases := []struct {
		name string
		ev   chainclient.Event
		want string
		ok   bool
	}{
		{"top-level field", chainclient.Event{TxHash: "0x01"}, "0x01", true},
		{"args", chainclient.Event{Args: map[string]interface{}{"transactionHash": "0x02"}}, "0x02", true},
		{"raw log", chainclient.Event{Log: map[string]interface{}{"transactionHash": "0x03"}}, "0x03", true},
		{"raw log hash key", chainclient.Event{Log: map[string]interface{}{"hash": "0x04"}}, "0x04", true},
		{"field wins over log", chainclient.Event{TxHash: "0x05", Log: map[string]interface{}{"hash": "0x06"}}, "0x05", true},
		{"nothing", chainclient.Event{}, "", false},
		{"non-string value", chainclient.Event{Log: map[string]interface{}{"hash": 42}}, "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := extractTxHash(tc.ev)
			if got != tc.want || ok != tc.ok {
				t.Errorf("extractTxHash = (%q, %v), want (%q, %v)", got, ok, tc.want, tc.ok)
			}
		})
	}
}
