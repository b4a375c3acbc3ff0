package chainclient

// Item is the on-chain state of a marketplace listing.
type Item struct {
	ID          string `json:"id"`
	Seller      string `json:"seller"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"` // ether-denominated decimal string
	IsForSale   bool   `json:"isForSale"`
}

// Receipt is the outcome of a mined transaction.
type Receipt struct {
	Status      uint64
	BlockNumber uint64
	GasUsed     uint64
}

// Event is one decoded marketplace contract event. TxHash may be empty when
// the transport does not populate log metadata; consumers should fall back
// to the raw Log fields.
type Event struct {
	Name        string
	Args        map[string]interface{}
	TxHash      string
	BlockNumber uint64
	Log         map[string]interface{}
}

const (
	EventItemListed = "ItemListed"
	EventItemSold   = "ItemSold"
)
