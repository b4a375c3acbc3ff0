package models

import "time"

const (
	StatusListed = "listed"
	StatusSold   = "sold"
)

// Item is the local mirror of an on-chain listing plus locally-owned
// metadata (imageUrl, buyer) that never comes from the chain.
type Item struct {
	ItemID      string    `json:"itemId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       string    `json:"price"`
	Seller      string    `json:"seller"`
	Buyer       string    `json:"buyer,omitempty"`
	Status      string    `json:"status"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// BlockchainState is the live chain view attached to a verified item.
// IsSynced is diagnostic only; it never blocks the response.
type BlockchainState struct {
	CurrentOwner string `json:"currentOwner"`
	CurrentPrice string `json:"currentPrice"`
	IsForSale    bool   `json:"isForSale"`
	IsSynced     bool   `json:"isSynced"`
}

// VerifiedItem merges the cached record with a live chain read.
type VerifiedItem struct {
	Item
	BlockchainState BlockchainState `json:"blockchainState"`
}

type UpdateMetadataRequest struct {
	ImageURL string `json:"imageUrl"`
}

// ListFilter narrows item listings.
type ListFilter struct {
	Seller string
	Status string
}
