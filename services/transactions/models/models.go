package models

import "time"

const (
	StatusPending = "pending"
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Terminal reports whether a status can no longer change.
func Terminal(status string) bool {
	return status == StatusSuccess || status == StatusFailed
}

// Transaction is one ledger record keyed by transaction hash. Status only
// ever moves pending -> success|failed.
type Transaction struct {
	Hash        string     `json:"hash"`
	Status      string     `json:"status"`
	BlockNumber *uint64    `json:"blockNumber,omitempty"`
	GasUsed     string     `json:"gasUsed,omitempty"`
	Timestamp   *time.Time `json:"timestamp,omitempty"`
	EventType   string     `json:"eventType,omitempty"`
	ItemID      string     `json:"itemId,omitempty"`
	Seller      string     `json:"seller,omitempty"`
	Buyer       string     `json:"buyer,omitempty"`
	Price       string     `json:"price,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

type RecordRequest struct {
	Hash      string `json:"hash"`
	EventType string `json:"eventType"`
	ItemID    string `json:"itemId"`
	Seller    string `json:"seller"`
	Buyer     string `json:"buyer"`
	Price     string `json:"price"`
}

// ListFilter narrows transaction listings.
type ListFilter struct {
	ItemID string
	Seller string
	Buyer  string
	Status string
}
